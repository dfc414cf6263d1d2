package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/sony/gobreaker/v2"
	"github.com/spf13/cobra"

	"ergols/internal/analysis"
	"ergols/internal/bridge"
	"ergols/internal/config"
	"ergols/internal/trace"
)

// loadConfig resolves --config or the nearest ergols.toml.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	explicit, err := cmd.Root().PersistentFlags().GetString("config")
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to get config flag: %w", err)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to get working directory: %w", err)
	}
	cfg, err := config.Resolve(explicit, cwd)
	if err != nil {
		return config.Config{}, err
	}
	if len(cfg.Unknown) > 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "ergols: %s: ignoring unknown keys: %s\n", cfg.Path, strings.Join(cfg.Unknown, ", "))
	}
	return cfg, nil
}

// newCoordinator wires the analyzer described by cfg. heuristicOnly skips
// the analyzer even when one is configured.
func newCoordinator(cmd *cobra.Command, cfg config.Config, heuristicOnly bool) *analysis.Coordinator {
	opts := analysis.Options{
		Invoker: bridge.NewInvoker(bridge.Options{MaxOutputBytes: cfg.Analyzer.MaxOutputBytes}),
		Strict:  cfg.Analyzer.Strict,
	}
	if heuristicOnly {
		return analysis.NewCoordinator(opts)
	}
	if launcher, ok := cfg.Analyzer.Launcher(); ok {
		opts.Launcher = &launcher
		tracer := trace.FromContext(cmd.Context())
		bopts := cfg.Breaker.Options()
		bopts.OnStateChange = func(name string, from, to gobreaker.State) {
			fmt.Fprintf(cmd.ErrOrStderr(), "ergols: %s breaker %s -> %s\n", name, from, to)
			trace.Point(tracer, trace.ScopeSession, "breaker", from.String()+" -> "+to.String(), 0)
		}
		opts.Breaker = bridge.NewBreaker(bopts)
	}
	return analysis.NewCoordinator(opts)
}
