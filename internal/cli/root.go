// Package cli provides the command-line interface for scrub.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/pkallberg/scrub/internal/config"
	"github.com/spf13/cobra"
)

// Version and Commit are set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "none"
)

var configDir string

// nowFunc allows tests to pin the clock for date-window resolution.
var nowFunc = time.Now

var rootCmd = &cobra.Command{
	Use:   "scrub",
	Short: "Bulk-delete your social media posts",
	Long: "scrub authenticates against Bluesky and Mastodon, lists your posts in a date\n" +
		"range, filters them by keyword or ID, archives them locally, and deletes them.\n" +
		"Dry-run is the default: nothing is deleted until --no-dry-run is passed.",
	RunE: scrubAction,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("scrub %s (%s)\n", Version, Commit)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config", defaultConfigDir(), "config directory")
	rootCmd.AddCommand(versionCmd)
}

func defaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".scrub"
	}
	return home + "/.scrub"
}

// ExecuteContext runs the root command with ctx, which is cancelled on SIGINT.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// loadConfig loads configuration from the config dir and environment.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configDir)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// newLogger builds the slog logger used for diagnostics. User-facing output
// goes to stdout via fmt; the logger stays on stderr.
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
