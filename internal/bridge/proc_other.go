//go:build !unix

package bridge

import (
	"os"
	"os/exec"
)

func configureProcAttr(*exec.Cmd) {}

func killProcessGroup(p *os.Process) error {
	return p.Kill()
}
