package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ergols/internal/analysis"
	"ergols/internal/lsp"
	"ergols/internal/trace"
	"ergols/internal/version"
)

var lspCmd = &cobra.Command{
	Use:          "lsp",
	Short:        "Run the ErgoScript language server over stdio",
	SilenceUsage: true,
	RunE:         runLSP,
}

func init() {
	lspCmd.Flags().Bool("heuristic-only", false, "never start the external analyzer")
	lspCmd.Flags().Bool("stdio", true, "communicate over stdin/stdout (the only transport)")
}

func runLSP(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	heuristicOnly, err := cmd.Flags().GetBool("heuristic-only")
	if err != nil {
		return fmt.Errorf("failed to get heuristic-only flag: %w", err)
	}

	coord := newCoordinator(cmd, cfg, heuristicOnly)
	if !coord.HasAnalyzer() {
		fmt.Fprintln(os.Stderr, "ergols: no analyzer configured; only local checks will run")
	}
	session := analysis.NewSession(coord, cfg.Analyzer.Deadline.Std())
	server := lsp.NewServer(os.Stdin, os.Stdout, lsp.ServerOptions{
		Session:        session,
		Debounce:       cfg.LSP.Debounce.Std(),
		MaxDiagnostics: cfg.LSP.MaxDiagnostics,
		Log:            os.Stderr,
		Version:        version.Version,
		Ring:           trace.Ring(trace.FromContext(cmd.Context())),
	})
	if err := server.Run(cmd.Context()); err != nil {
		if errors.Is(err, lsp.ErrExit) {
			return nil
		}
		if errors.Is(err, lsp.ErrExitWithoutShutdown) {
			return fmt.Errorf("lsp exit without shutdown")
		}
		return err
	}
	return nil
}
