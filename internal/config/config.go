// Package config loads ergols.toml.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"ergols/internal/bridge"
)

// FileName is the configuration file searched for from the working directory up.
const FileName = "ergols.toml"

const (
	DefaultCommand   = "java"
	DefaultJar       = "sigma.jar"
	DefaultMainClass = "sigma.compiler.ParserCLI"
	DefaultDebounce  = 250 * time.Millisecond
)

// Duration decodes TOML strings such as "5s" or "250ms".
type Duration time.Duration

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	if v < 0 {
		return fmt.Errorf("negative duration %q", text)
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Analyzer is the [analyzer] section.
type Analyzer struct {
	// Command is the analyzer executable. An explicit empty string disables
	// the analyzer and leaves only the heuristic checks.
	Command string `toml:"command"`
	// Args replaces the default "-cp <jar> <main_class>" when set.
	Args           []string `toml:"args"`
	Jar            string   `toml:"jar"`
	MainClass      string   `toml:"main_class"`
	Dir            string   `toml:"dir"`
	Env            []string `toml:"env"`
	Deadline       Duration `toml:"deadline"`
	Strict         bool     `toml:"strict"`
	MaxOutputBytes int      `toml:"max_output_bytes"`
	EscapeQuotes   bool     `toml:"escape_quotes"`
	Source         string   `toml:"source"` // argv | stdin
}

// Breaker is the [breaker] section.
type Breaker struct {
	MaxFailures uint32   `toml:"max_failures"`
	OpenTimeout Duration `toml:"open_timeout"`
	Interval    Duration `toml:"interval"`
}

// LSP is the [lsp] section.
type LSP struct {
	Debounce       Duration `toml:"debounce"`
	MaxDiagnostics int      `toml:"max_diagnostics"`
}

// Config is the whole file.
type Config struct {
	Analyzer Analyzer `toml:"analyzer"`
	Breaker  Breaker  `toml:"breaker"`
	LSP      LSP      `toml:"lsp"`

	// Path is the file the config came from, empty for defaults.
	Path string `toml:"-"`
	// Unknown lists keys present in the file that ergols does not read.
	Unknown []string `toml:"-"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Analyzer: Analyzer{
			Command:        DefaultCommand,
			Jar:            DefaultJar,
			MainClass:      DefaultMainClass,
			Deadline:       Duration(bridge.DefaultDeadline),
			MaxOutputBytes: bridge.DefaultMaxOutputBytes,
			EscapeQuotes:   true,
			Source:         "argv",
		},
		Breaker: Breaker{
			MaxFailures: 3,
			OpenTimeout: Duration(30 * time.Second),
		},
		LSP: LSP{
			Debounce:       Duration(DefaultDebounce),
			MaxDiagnostics: 100,
		},
	}
}

// Find walks up from startDir looking for FileName.
func Find(startDir string) (path string, ok bool, err error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false, nil
		}
		dir = parent
	}
}

// Load decodes path on top of Default.
func Load(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	cfg.Path = path
	for _, key := range meta.Undecoded() {
		cfg.Unknown = append(cfg.Unknown, key.String())
	}
	cfg.Analyzer.Command = strings.TrimSpace(cfg.Analyzer.Command)
	if meta.IsDefined("analyzer", "dir") && cfg.Analyzer.Dir != "" && !filepath.IsAbs(cfg.Analyzer.Dir) {
		cfg.Analyzer.Dir = filepath.Join(filepath.Dir(path), cfg.Analyzer.Dir)
	}
	if meta.IsDefined("analyzer", "jar") && cfg.Analyzer.Jar != "" && !filepath.IsAbs(cfg.Analyzer.Jar) {
		cfg.Analyzer.Jar = filepath.Join(filepath.Dir(path), cfg.Analyzer.Jar)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Resolve loads explicit when set, otherwise the nearest FileName above
// startDir, otherwise Default.
func Resolve(explicit, startDir string) (Config, error) {
	if explicit != "" {
		return Load(explicit)
	}
	path, ok, err := Find(startDir)
	if err != nil {
		return Config{}, err
	}
	if !ok {
		return Default(), nil
	}
	return Load(path)
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if c.Analyzer.MaxOutputBytes < 0 {
		return fmt.Errorf("[analyzer].max_output_bytes must not be negative")
	}
	if _, err := bridge.ParseSourceMode(c.Analyzer.Source); err != nil {
		return fmt.Errorf("[analyzer].source: %w", err)
	}
	if c.LSP.MaxDiagnostics < 0 {
		return fmt.Errorf("[lsp].max_diagnostics must not be negative")
	}
	return nil
}

// Enabled reports whether an analyzer command is configured.
func (a Analyzer) Enabled() bool {
	return a.Command != ""
}

// Launcher builds the bridge launcher. ok is false when the analyzer is
// disabled.
func (a Analyzer) Launcher() (l bridge.Launcher, ok bool) {
	if !a.Enabled() {
		return bridge.Launcher{}, false
	}
	mode, err := bridge.ParseSourceMode(a.Source)
	if err != nil {
		mode = bridge.SourceArgv
	}
	args := a.Args
	if args == nil {
		args = []string{"-cp", a.Jar, a.MainClass}
	}
	var env []string
	if len(a.Env) > 0 {
		env = append(os.Environ(), a.Env...)
	}
	return bridge.Launcher{
		Path:         a.Command,
		Args:         args,
		Dir:          a.Dir,
		Env:          env,
		Mode:         mode,
		EscapeQuotes: a.EscapeQuotes,
	}, true
}

// BreakerOptions converts the [breaker] section.
func (b Breaker) Options() bridge.BreakerOptions {
	return bridge.BreakerOptions{
		MaxFailures: b.MaxFailures,
		OpenTimeout: b.OpenTimeout.Std(),
		Interval:    b.Interval.Std(),
	}
}
