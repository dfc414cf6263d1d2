package bridge

import (
	"errors"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
)

// processHandle owns one live analyzer process and the read ends of its
// output pipes. It never leaves the Invoker.
type processHandle struct {
	cmd       *exec.Cmd
	pid       int
	stdin     io.WriteCloser
	stdout    *os.File
	stderr    *os.File
	startedAt time.Time
	closeOnce sync.Once
}

func spawn(c Command) (*processHandle, error) {
	cmd := exec.Command(c.Path, c.Args...)
	cmd.Dir = c.Dir
	if c.Env != nil {
		cmd.Env = c.Env
	}
	configureProcAttr(cmd)

	h := &processHandle{cmd: cmd}
	var err error
	if c.Input != nil {
		if h.stdin, err = cmd.StdinPipe(); err != nil {
			return nil, err
		}
	}
	// The pipes are ours, not exec's, so Wait returns as soon as the process
	// exits even when a leftover child still holds the write ends.
	var outW, errW *os.File
	if h.stdout, outW, err = os.Pipe(); err != nil {
		h.closePipes()
		return nil, err
	}
	if h.stderr, errW, err = os.Pipe(); err != nil {
		_ = outW.Close()
		h.closePipes()
		return nil, err
	}
	cmd.Stdout = outW
	cmd.Stderr = errW
	err = cmd.Start()
	_ = outW.Close()
	_ = errW.Close()
	if err != nil {
		h.closePipes()
		return nil, err
	}
	h.pid = cmd.Process.Pid
	h.startedAt = time.Now()
	return h, nil
}

// run feeds stdin and drains both output streams concurrently while reaping
// the process. Once the process has exited the drains get grace to reach
// EOF; after that the rest of the group is killed and the read ends closed.
// The returned channel yields the Wait error exactly once, after both drains
// have returned.
func (h *processHandle) run(input []byte, stdout, stderr io.Writer, grace time.Duration) <-chan error {
	var g errgroup.Group
	if h.stdin != nil {
		g.Go(func() error {
			defer h.stdin.Close()
			_, err := h.stdin.Write(input)
			return ignoreClosed(err)
		})
	}
	g.Go(func() error { return drain(stdout, h.stdout) })
	g.Go(func() error { return drain(stderr, h.stderr) })

	drained := make(chan struct{})
	go func() {
		_ = g.Wait()
		close(drained)
	}()

	exited := make(chan error, 1)
	go func() {
		err := h.cmd.Wait()
		select {
		case <-drained:
		case <-time.After(grace):
			// a background child kept the pipes open
			h.kill()
			h.closePipes()
			<-drained
		}
		exited <- err
	}()
	return exited
}

// terminate kills the process group and waits for run to finish. If
// something outside the group still holds the pipes after grace, the read
// ends are closed so the drains return.
func (h *processHandle) terminate(exited <-chan error, grace time.Duration) error {
	h.kill()
	select {
	case err := <-exited:
		return err
	case <-time.After(grace):
	}
	h.closePipes()
	return <-exited
}

func (h *processHandle) kill() {
	if h.cmd.Process == nil {
		return
	}
	if err := killProcessGroup(h.cmd.Process); err != nil && !errors.Is(err, os.ErrProcessDone) {
		_ = h.cmd.Process.Kill()
	}
}

func (h *processHandle) closePipes() {
	h.closeOnce.Do(func() {
		for _, c := range []io.Closer{h.stdin, h.stdout, h.stderr} {
			if c != nil {
				_ = c.Close()
			}
		}
	})
}

// exitCode returns the process exit status, or nil when it died from a signal.
func (h *processHandle) exitCode() *int {
	state := h.cmd.ProcessState
	if state == nil {
		return nil
	}
	code := state.ExitCode()
	if code < 0 {
		return nil
	}
	return &code
}

func drain(dst io.Writer, src io.Reader) error {
	_, err := io.Copy(dst, src)
	return ignoreClosed(err)
}

func ignoreClosed(err error) error {
	if err == nil || errors.Is(err, os.ErrClosed) || errors.Is(err, syscall.EPIPE) || errors.Is(err, io.ErrClosedPipe) {
		return nil
	}
	return err
}
