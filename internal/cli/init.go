package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkallberg/scrub/internal/config"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the config directory with an example config file",
	RunE:  initAction,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func initAction(_ *cobra.Command, _ []string) error {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	configPath := filepath.Join(configDir, config.DefaultConfigFile)
	if _, err := os.Stat(configPath); err == nil {
		fmt.Printf("Config directory %s already initialized.\n", configDir)
		return nil
	}

	if err := os.WriteFile(configPath, []byte(exampleConfig), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", configPath, err)
	}
	fmt.Printf("Initialized %s.\n", configPath)
	fmt.Println("Credentials are read from the environment: BLUESKY_HANDLE, BLUESKY_PASSWORD,")
	fmt.Println("MASTODON_API_BASE_URL, MASTODON_ACCESS_TOKEN.")
	return nil
}

const exampleConfig = `# scrub configuration. Environment variables override everything here.
# Credentials are environment-only: BLUESKY_HANDLE, BLUESKY_PASSWORD,
# MASTODON_API_BASE_URL, MASTODON_ACCESS_TOKEN, TWITTER_*.

# platforms:
#   - bluesky
#   - mastodon

scrub:
  start_date: 7_days_ago   # today, N_days_ago, RFC 3339, or YYYY-MM-DD
  end_date: today
  max_posts: 10
  dry_run: true
  archive_before_delete: true
  archive_path: ./archives
  # keyword: "delete me"
  # post_ids: []
  filter_mode: any         # any: keyword OR ids; all: every criterion
  order: newest            # which end survives the max_posts cap

storage:
  path: .scrub/history.db

log_level: info
`
