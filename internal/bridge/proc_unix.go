//go:build unix

package bridge

import (
	"errors"
	"os"
	"os/exec"
	"syscall"
)

// The analyzer usually runs as a launcher (java, a shell wrapper) with its own
// children; a fresh process group lets one signal reach all of them.
func configureProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

func killProcessGroup(p *os.Process) error {
	err := syscall.Kill(-p.Pid, syscall.SIGKILL)
	if errors.Is(err, syscall.ESRCH) {
		return os.ErrProcessDone
	}
	return err
}
