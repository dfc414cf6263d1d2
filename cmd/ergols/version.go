package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"ergols/internal/version"
)

// buildInfo is the version report; empty optional fields are left out.
type buildInfo struct {
	Tool      string `json:"tool"`
	Version   string `json:"version"`
	GitCommit string `json:"git_commit,omitempty"`
	BuildDate string `json:"build_date,omitempty"`
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show ergols build information",
	Args:  cobra.NoArgs,
	RunE:  runVersion,
}

func init() {
	versionCmd.Flags().String("format", "pretty", "output format (pretty|json)")
	versionCmd.Flags().Bool("full", false, "include commit and build date")
}

func runVersion(cmd *cobra.Command, _ []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	full, err := cmd.Flags().GetBool("full")
	if err != nil {
		return fmt.Errorf("failed to get full flag: %w", err)
	}
	info := currentBuild(full)
	switch strings.ToLower(format) {
	case "pretty":
		writeBuildPretty(cmd.OutOrStdout(), info)
		return nil
	case "json":
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	}
	return fmt.Errorf("unsupported format %q (expected pretty|json)", format)
}

// currentBuild reads the linker-set metadata. With full, missing values
// show as "unknown" rather than disappearing.
func currentBuild(full bool) buildInfo {
	info := buildInfo{Tool: "ergols", Version: strings.TrimSpace(version.Version)}
	if info.Version == "" {
		info.Version = "dev"
	}
	if full {
		info.GitCommit = orUnknown(version.GitCommit)
		info.BuildDate = orUnknown(version.BuildDate)
	}
	return info
}

func writeBuildPretty(w io.Writer, info buildInfo) {
	fmt.Fprintf(w, "%s %s\n", info.Tool, version.Colored(info.Version))
	if info.GitCommit != "" {
		fmt.Fprintf(w, "commit: %s\n", info.GitCommit)
	}
	if info.BuildDate != "" {
		fmt.Fprintf(w, "built:  %s\n", info.BuildDate)
	}
}

func orUnknown(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return "unknown"
	}
	return s
}
