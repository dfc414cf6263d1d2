package analysis

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"ergols/internal/bridge"
)

// fakeAnalyzer writes a shell script that stands in for the analyzer and
// returns a launcher for it.
func fakeAnalyzer(t *testing.T, body string) *bridge.Launcher {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not available on windows")
	}
	path := filepath.Join(t.TempDir(), "analyzer.sh")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return &bridge.Launcher{Path: path, EscapeQuotes: true}
}

func newCoordinator(l *bridge.Launcher) *Coordinator {
	return NewCoordinator(Options{
		Launcher: l,
		Invoker:  bridge.NewInvoker(bridge.Options{KillGrace: 100 * time.Millisecond}),
	})
}
