package main

import (
	"fmt"
	"os"
	"strings"
)

// uiMode is the value of check --ui.
type uiMode string

const (
	uiModeAuto uiMode = "auto"
	uiModeOn   uiMode = "on"
	uiModeOff  uiMode = "off"
)

var uiModes = map[string]uiMode{
	"":     uiModeAuto,
	"auto": uiModeAuto,
	"on":   uiModeOn,
	"off":  uiModeOff,
}

func readUIMode(value string) (uiMode, error) {
	mode, ok := uiModes[strings.ToLower(strings.TrimSpace(value))]
	if !ok {
		return "", fmt.Errorf("invalid --ui value %q (expected auto|on|off)", value)
	}
	return mode, nil
}

// shouldUseTUI reports whether check draws the per-file progress view on
// stderr. In auto mode a single file or json/msgpack output keeps it off.
func shouldUseTUI(mode uiMode, files int, machineOutput bool) bool {
	if mode != uiModeAuto {
		return mode == uiModeOn
	}
	return files > 1 && !machineOutput && isTerminal(os.Stderr)
}
