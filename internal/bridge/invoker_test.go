package bridge

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestInvokeCapturesStreamsAndExitCode(t *testing.T) {
	script := writeScript(t, `echo out; echo err 1>&2; exit 3`)
	raw, err := NewInvoker(Options{}).Invoke(context.Background(), Command{Path: script}, time.Second*5)
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if raw.ExitCode == nil || *raw.ExitCode != 3 {
		t.Fatalf("expected exit 3, got %v", raw.ExitCode)
	}
	if string(raw.Stdout) != "out\n" || string(raw.Stderr) != "err\n" {
		t.Fatalf("unexpected streams: stdout=%q stderr=%q", raw.Stdout, raw.Stderr)
	}
	if raw.TimedOut || raw.Truncated {
		t.Fatalf("unexpected flags: %+v", raw)
	}
}

func TestInvokeTimeoutKillsProcess(t *testing.T) {
	script := writeScript(t, `sleep 10`)
	deadline := 200 * time.Millisecond

	start := time.Now()
	raw, err := NewInvoker(Options{KillGrace: 100 * time.Millisecond}).Invoke(context.Background(), Command{Path: script}, deadline)
	elapsed := time.Since(start)
	if err != nil {
		t.Fatalf("timeout must not be an invoke error: %v", err)
	}
	if !raw.TimedOut {
		t.Fatalf("expected TimedOut")
	}
	if raw.ExitCode != nil {
		t.Fatalf("killed process must have no exit code, got %d", *raw.ExitCode)
	}
	if elapsed > deadline+2*time.Second {
		t.Fatalf("invoke returned after %s, deadline was %s", elapsed, deadline)
	}
}

func TestInvokeExitWithLingeringChild(t *testing.T) {
	script := writeScript(t, `sleep 3 &
echo '{"success":true}'
exit 0`)
	deadline := 2 * time.Second

	start := time.Now()
	raw, err := NewInvoker(Options{KillGrace: 100 * time.Millisecond}).Invoke(context.Background(), Command{Path: script}, deadline)
	elapsed := time.Since(start)
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if raw.TimedOut {
		t.Fatalf("process exited before the deadline, got TimedOut after %s", elapsed)
	}
	if raw.ExitCode == nil || *raw.ExitCode != 0 {
		t.Fatalf("expected exit 0, got %v", raw.ExitCode)
	}
	if strings.TrimSpace(string(raw.Stdout)) != `{"success":true}` {
		t.Fatalf("unexpected stdout %q", raw.Stdout)
	}
	if elapsed >= deadline {
		t.Fatalf("invoke waited %s for the background child", elapsed)
	}
}

func TestInvokeSpawnFailure(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "no-such-analyzer")
	_, err := NewInvoker(Options{}).Invoke(context.Background(), Command{Path: missing}, time.Second)
	if err == nil {
		t.Fatalf("expected spawn error")
	}
	var spawnErr *SpawnError
	if !errors.As(err, &spawnErr) || spawnErr.Command != missing {
		t.Fatalf("expected *SpawnError for %s, got %T %v", missing, err, err)
	}
	if !errors.Is(err, ErrSpawn) || !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("spawn error should unwrap to ErrSpawn and the cause: %v", err)
	}
}

func TestInvokeCancellationKillsProcess(t *testing.T) {
	script := writeScript(t, `sleep 10`)
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(100*time.Millisecond, cancel)

	start := time.Now()
	_, err := NewInvoker(Options{KillGrace: 100 * time.Millisecond}).Invoke(ctx, Command{Path: script}, 10*time.Second)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if time.Since(start) > 3*time.Second {
		t.Fatalf("cancellation did not stop the process promptly")
	}
}

func TestInvokeAlreadyCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewInvoker(Options{}).Invoke(ctx, Command{Path: "/bin/true"}, time.Second)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestInvokeSourceAsLastArgument(t *testing.T) {
	script := writeScript(t, `for a in "$@"; do last="$a"; done; printf '%s' "$last"`)
	l := Launcher{Path: script, Args: []string{"-cp", "sigma.jar"}, EscapeQuotes: true}
	raw, err := NewInvoker(Options{}).Invoke(context.Background(), l.Command(`val x = "a"`), 5*time.Second)
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if got := string(raw.Stdout); got != `val x = \"a\"` {
		t.Fatalf("unexpected last argument %q", got)
	}
}

func TestInvokeStdinMode(t *testing.T) {
	script := writeScript(t, `cat`)
	l := Launcher{Path: script, Mode: SourceStdin}
	raw, err := NewInvoker(Options{}).Invoke(context.Background(), l.Command("sigmaProp(true)"), 5*time.Second)
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if string(raw.Stdout) != "sigmaProp(true)" {
		t.Fatalf("unexpected stdout %q", raw.Stdout)
	}
}

func TestInvokeCapsOutput(t *testing.T) {
	script := writeScript(t, `i=0; while [ $i -lt 200 ]; do printf 'xxxxxxxxxx'; i=$((i+1)); done; exit 0`)
	raw, err := NewInvoker(Options{MaxOutputBytes: 64}).Invoke(context.Background(), Command{Path: script}, 5*time.Second)
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if len(raw.Stdout) != 64 || !raw.Truncated {
		t.Fatalf("expected 64 bytes and truncation, got %d truncated=%v", len(raw.Stdout), raw.Truncated)
	}
	if raw.ExitCode == nil || *raw.ExitCode != 0 {
		t.Fatalf("process should still exit normally: %v", raw.ExitCode)
	}
	if strings.Trim(string(raw.Stdout), "x") != "" {
		t.Fatalf("unexpected content %q", raw.Stdout)
	}
}

func TestAccumulatorCountsDropped(t *testing.T) {
	acc := newAccumulator(4)
	for _, chunk := range []string{"ab", "cdef", "gh"} {
		n, err := acc.Write([]byte(chunk))
		if err != nil || n != len(chunk) {
			t.Fatalf("Write(%q) = %d, %v", chunk, n, err)
		}
	}
	if string(acc.Bytes()) != "abcd" || acc.Dropped() != 4 {
		t.Fatalf("got %q dropped=%d", acc.Bytes(), acc.Dropped())
	}
}
