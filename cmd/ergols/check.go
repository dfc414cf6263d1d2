package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"ergols/internal/analysis"
	"ergols/internal/report"
	"ergols/internal/source"
	"ergols/internal/trace"
	"ergols/internal/ui"
)

// errCheckFailed makes the process exit 1 without an extra error line; the
// report already says what failed.
var errCheckFailed = errors.New("check failed")

const stdinName = "-"

// sourceExtensions are the file suffixes picked up when walking directories.
var sourceExtensions = []string{".es", ".ergo", ".ergoscript"}

var checkCmd = &cobra.Command{
	Use:          "check [flags] <file|dir|->...",
	Short:        "Check ErgoScript files",
	Long:         `Check ErgoScript files or every .es/.ergo file under the given directories. "-" reads one contract from stdin.`,
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
	RunE:         runCheck,
}

func init() {
	checkCmd.Flags().String("format", "pretty", "output format (pretty|json|msgpack)")
	checkCmd.Flags().Int("jobs", 0, "max parallel analyses (0=auto)")
	checkCmd.Flags().String("ui", "auto", "progress view (auto|on|off)")
	checkCmd.Flags().Bool("heuristic-only", false, "skip the external analyzer")
	checkCmd.Flags().Bool("strict", false, "treat undecodable analyzer output as a failure")
	checkCmd.Flags().Duration("deadline", 0, "per-file analyzer deadline (0 uses the config)")
	checkCmd.Flags().Int("max-diagnostics", 0, "maximum problems shown per file (0 = all)")
	checkCmd.Flags().Bool("fullpath", false, "emit absolute file paths in output")
}

type checkOptions struct {
	format        report.Format
	jobs          int
	ui            uiMode
	heuristicOnly bool
	strict        bool
	deadline      time.Duration
	max           int
	fullPath      bool
	timings       bool
}

func readCheckOptions(cmd *cobra.Command) (checkOptions, error) {
	var opts checkOptions
	flags := cmd.Flags()

	formatStr, err := flags.GetString("format")
	if err != nil {
		return opts, fmt.Errorf("failed to get format flag: %w", err)
	}
	if opts.format, err = report.ParseFormat(formatStr); err != nil {
		return opts, err
	}
	if opts.jobs, err = flags.GetInt("jobs"); err != nil {
		return opts, fmt.Errorf("failed to get jobs flag: %w", err)
	}
	if opts.jobs < 0 {
		return opts, fmt.Errorf("--jobs must not be negative")
	}
	uiStr, err := flags.GetString("ui")
	if err != nil {
		return opts, fmt.Errorf("failed to get ui flag: %w", err)
	}
	if opts.ui, err = readUIMode(uiStr); err != nil {
		return opts, err
	}
	if opts.heuristicOnly, err = flags.GetBool("heuristic-only"); err != nil {
		return opts, fmt.Errorf("failed to get heuristic-only flag: %w", err)
	}
	if opts.strict, err = flags.GetBool("strict"); err != nil {
		return opts, fmt.Errorf("failed to get strict flag: %w", err)
	}
	if opts.deadline, err = flags.GetDuration("deadline"); err != nil {
		return opts, fmt.Errorf("failed to get deadline flag: %w", err)
	}
	if opts.max, err = flags.GetInt("max-diagnostics"); err != nil {
		return opts, fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	if opts.fullPath, err = flags.GetBool("fullpath"); err != nil {
		return opts, fmt.Errorf("failed to get fullpath flag: %w", err)
	}
	if opts.timings, err = cmd.Root().PersistentFlags().GetBool("timings"); err != nil {
		return opts, fmt.Errorf("failed to get timings flag: %w", err)
	}
	return opts, nil
}

func runCheck(cmd *cobra.Command, args []string) error {
	defer dumpTraceOnPanic(cmd)

	opts, err := readCheckOptions(cmd)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	paths, err := collectFiles(args)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no ErgoScript files found in %s", strings.Join(args, ", "))
	}
	files, err := loadFiles(paths, cmd.InOrStdin())
	if err != nil {
		return err
	}

	coord := newCoordinator(cmd, cfg, opts.heuristicOnly)
	if opts.strict {
		coord.SetStrict(true)
	}
	deadline := cfg.Analyzer.Deadline.Std()
	if opts.deadline > 0 {
		deadline = opts.deadline
	}

	job := func(ctx context.Context, emit func(ui.Event)) ([]report.Entry, error) {
		return checkFiles(ctx, coord, files, opts.jobs, deadline, emit)
	}
	var entries []report.Entry
	machine := opts.format != report.FormatPretty
	if shouldUseTUI(opts.ui, len(files), machine) {
		names := make([]string, len(files))
		for i, f := range files {
			names[i] = f.Path
		}
		entries, err = runCheckWithUI(cmd.Context(), fmt.Sprintf("checking %d files", len(files)), names, job)
	} else {
		entries, err = job(cmd.Context(), nil)
	}
	if err != nil {
		return err
	}

	baseDir := ""
	if !opts.fullPath {
		baseDir, _ = os.Getwd()
	}
	rOpts := report.Options{BaseDir: baseDir, Max: opts.max, Timings: opts.timings}
	out := cmd.OutOrStdout()
	switch opts.format {
	case report.FormatJSON:
		err = report.JSON(out, report.Build(entries, rOpts))
	case report.FormatMsgpack:
		err = report.Msgpack(out, report.Build(entries, rOpts))
	default:
		err = report.Pretty(out, entries, report.PrettyOptions{Options: rOpts, Color: !color.NoColor})
	}
	if err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	for _, e := range entries {
		if !e.Result.Outcome.Success {
			return errCheckFailed
		}
	}
	return nil
}

// collectFiles expands directories into their ErgoScript files. Explicit
// file arguments are kept whatever their extension. The result is sorted
// and free of duplicates, with stdin first.
func collectFiles(args []string) ([]string, error) {
	var (
		files    []string
		useStdin bool
	)
	for _, arg := range args {
		if arg == stdinName {
			useStdin = true
			continue
		}
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %q: %w", arg, err)
		}
		if !info.IsDir() {
			files = append(files, filepath.Clean(arg))
			continue
		}
		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != arg && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if slices.Contains(sourceExtensions, strings.ToLower(filepath.Ext(path))) {
				files = append(files, filepath.Clean(path))
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to walk %q: %w", arg, err)
		}
	}
	slices.Sort(files)
	files = slices.Compact(files)
	if useStdin {
		files = append([]string{stdinName}, files...)
	}
	return files, nil
}

func loadFiles(paths []string, stdin io.Reader) ([]*source.File, error) {
	set := source.NewFileSet()
	ids := make([]source.FileID, 0, len(paths))
	for _, p := range paths {
		if p == stdinName {
			content, err := io.ReadAll(stdin)
			if err != nil {
				return nil, fmt.Errorf("failed to read stdin: %w", err)
			}
			ids = append(ids, set.AddVirtual("<stdin>", content))
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %q: %w", p, err)
		}
		id, err := set.Load(abs)
		if err != nil {
			return nil, fmt.Errorf("failed to read %q: %w", p, err)
		}
		ids = append(ids, id)
	}
	files := make([]*source.File, len(ids))
	for i, id := range ids {
		files[i] = set.Get(id)
	}
	return files, nil
}

// checkFiles analyzes files with at most jobs concurrent analyses and
// returns the entries in input order. emit may be nil.
func checkFiles(ctx context.Context, coord *analysis.Coordinator, files []*source.File, jobs int, deadline time.Duration, emit func(ui.Event)) ([]report.Entry, error) {
	if emit == nil {
		emit = func(ui.Event) {}
	}
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	tracer := trace.FromContext(ctx)
	span := trace.Begin(tracer, trace.ScopeSession, "check", 0).
		WithExtra("files", fmt.Sprint(len(files)))
	ctx = trace.WithSpan(ctx, span)

	entries := make([]report.Entry, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, f := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			emit(ui.Event{File: f.Path, Stage: ui.StageAnalyzing})
			req := analysis.NewRequest("", string(f.Content), deadline)
			res := coord.AnalyzeDetailed(gctx, req)
			entries[i] = report.Entry{File: f, Result: res}
			stage := ui.StagePassed
			if !res.Outcome.Success {
				stage = ui.StageFailed
			}
			emit(ui.Event{File: f.Path, Stage: stage})
			return nil
		})
	}
	err := g.Wait()
	span.End(fmt.Sprintf("%d files", len(files)))
	if err != nil {
		return nil, fmt.Errorf("check interrupted: %w", err)
	}
	return entries, nil
}
