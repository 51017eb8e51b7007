package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Authenticate with each configured platform, nothing else",
	RunE:  testAction,
}

func init() {
	rootCmd.AddCommand(testCmd)
}

func testAction(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyScrubFlags(cmd, cfg)

	adapters, err := buildAdapters(cfg)
	if err != nil {
		return err
	}
	if len(adapters) == 0 {
		return fmt.Errorf("no platforms configured; set credentials or run 'scrub init'")
	}

	ctx := cmd.Context()
	failures := 0
	for _, adapter := range adapters {
		if err := adapter.Authenticate(ctx); err != nil {
			fmt.Printf("FAIL  %-9s %v\n", adapter.Name(), err)
			failures++
			continue
		}
		fmt.Printf("OK    %-9s\n", adapter.Name())
	}

	if failures > 0 {
		return fmt.Errorf("%d of %d platforms failed authentication", failures, len(adapters))
	}
	return nil
}
