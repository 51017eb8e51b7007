package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the resolved configuration",
	Long:  "Prints the effective configuration after file, defaults, and environment overrides. Secrets are redacted.",
	RunE:  configAction,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func configAction(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	fmt.Println("Platforms:")
	printPlatformLine("bluesky", cfg.Bluesky.IsConfigured(), map[string]string{
		"handle":   cfg.Bluesky.Handle,
		"password": redact(cfg.Bluesky.Password),
	})
	printPlatformLine("mastodon", cfg.Mastodon.IsConfigured(), map[string]string{
		"api_base_url": cfg.Mastodon.APIBaseURL,
		"access_token": redact(cfg.Mastodon.AccessToken),
	})
	printPlatformLine("twitter", cfg.Twitter.IsConfigured(), map[string]string{
		"api_key":      redact(cfg.Twitter.APIKey),
		"access_token": redact(cfg.Twitter.AccessToken),
	})

	enabled := cfg.EnabledPlatforms()
	if len(enabled) == 0 {
		fmt.Println("\nEnabled: none")
	} else {
		fmt.Printf("\nEnabled: %s\n", strings.Join(enabled, ", "))
	}

	start, end, err := cfg.Window(nowFunc())
	if err != nil {
		return err
	}

	fmt.Println("\nScrub:")
	fmt.Printf("  date range:            %s → %s\n", start.Format("2006-01-02 15:04"), end.Format("2006-01-02 15:04"))
	fmt.Printf("  max posts:             %d\n", cfg.Scrub.MaxPosts)
	fmt.Printf("  dry run:               %t\n", cfg.Scrub.DryRun)
	fmt.Printf("  archive before delete: %t\n", cfg.Scrub.ArchiveBeforeDelete)
	fmt.Printf("  archive path:          %s\n", cfg.Scrub.ArchivePath)
	if cfg.Scrub.Keyword != "" {
		fmt.Printf("  keyword:               %q\n", cfg.Scrub.Keyword)
	}
	if len(cfg.Scrub.PostIDs) > 0 {
		fmt.Printf("  post ids:              %d given\n", len(cfg.Scrub.PostIDs))
	}
	fmt.Printf("  filter mode:           %s\n", cfg.Scrub.FilterMode)
	fmt.Printf("  order:                 %s\n", cfg.Scrub.Order)

	fmt.Println("\nStorage:")
	fmt.Printf("  history: %s\n", cfg.Storage.Path)
	fmt.Printf("\nLog level: %s\n", cfg.LogLevel)
	return nil
}

func printPlatformLine(name string, configured bool, fields map[string]string) {
	status := "not configured"
	if configured {
		status = "configured"
	}
	fmt.Printf("  %-9s %s\n", name+":", status)
	if !configured {
		return
	}
	for _, key := range sortedKeys(fields) {
		if fields[key] == "" {
			continue
		}
		fmt.Printf("    %-13s %s\n", key+":", fields[key])
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func redact(secret string) string {
	if secret == "" {
		return ""
	}
	return "********"
}
