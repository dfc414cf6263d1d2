package bridge

import (
	"fmt"
	"strings"
)

// SourceMode selects how source text reaches the analyzer.
type SourceMode uint8

const (
	// SourceArgv appends the source as the last argument.
	SourceArgv SourceMode = iota
	// SourceStdin writes the source to standard input; useful for documents
	// larger than the kernel's per-argument limit.
	SourceStdin
)

func (m SourceMode) String() string {
	switch m {
	case SourceArgv:
		return "argv"
	case SourceStdin:
		return "stdin"
	}
	return "unknown"
}

// ParseSourceMode converts a config string to SourceMode.
func ParseSourceMode(s string) (SourceMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "argv":
		return SourceArgv, nil
	case "stdin":
		return SourceStdin, nil
	default:
		return SourceArgv, fmt.Errorf("invalid source mode: %q (expected: argv|stdin)", s)
	}
}

// Command is one fully resolved analyzer invocation.
type Command struct {
	Path  string
	Args  []string
	Dir   string
	Env   []string // nil inherits the current environment
	Input []byte   // written to stdin when non-nil
}

func (c Command) String() string {
	return c.Path
}

// Launcher describes how to build a Command for a piece of source text.
type Launcher struct {
	Path         string
	Args         []string
	Dir          string
	Env          []string
	Mode         SourceMode
	EscapeQuotes bool
}

// Command builds the invocation for src.
func (l Launcher) Command(src string) Command {
	args := make([]string, len(l.Args), len(l.Args)+1)
	copy(args, l.Args)
	cmd := Command{
		Path: l.Path,
		Dir:  l.Dir,
		Env:  l.Env,
	}
	switch l.Mode {
	case SourceStdin:
		cmd.Input = []byte(src)
	default:
		if l.EscapeQuotes {
			src = EscapeSource(src)
		}
		args = append(args, src)
	}
	cmd.Args = args
	return cmd
}

// EscapeSource applies the analyzer's argument quoting convention: every
// double quote is preceded by a backslash.
func EscapeSource(src string) string {
	return strings.ReplaceAll(src, `"`, `\"`)
}
