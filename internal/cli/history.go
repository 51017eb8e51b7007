package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/pkallberg/scrub/internal/store"
	"github.com/spf13/cobra"
)

var (
	historyLimit  int
	historyFormat string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show past scrub runs and their outcomes",
	RunE:  historyAction,
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "number of runs to show")
	historyCmd.Flags().StringVar(&historyFormat, "format", "terminal", "output format: terminal, json")
	rootCmd.AddCommand(historyCmd)
}

func historyAction(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	db, err := store.Open(cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() { _ = db.Close() }()

	runs, err := db.ListRuns(cmd.Context(), historyLimit)
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}

	if len(runs) == 0 {
		if historyFormat == "json" {
			fmt.Fprintln(os.Stdout, `{"runs":[]}`)
			return nil
		}
		fmt.Fprintln(os.Stdout, "No runs recorded yet.")
		return nil
	}

	switch historyFormat {
	case "json":
		return printHistoryJSON(runs)
	case "terminal", "":
		printHistory(runs)
		return nil
	default:
		return fmt.Errorf("unknown format %q (want terminal or json)", historyFormat)
	}
}

type jsonRun struct {
	ID         string   `json:"id"`
	StartedAt  string   `json:"started_at"`
	DryRun     bool     `json:"dry_run"`
	Platforms  []string `json:"platforms"`
	Candidates int      `json:"candidates"`
	Deleted    int      `json:"deleted"`
	Skipped    int      `json:"skipped"`
	Failed     int      `json:"failed"`
}

func printHistoryJSON(runs []store.Run) error {
	out := struct {
		Runs []jsonRun `json:"runs"`
	}{Runs: make([]jsonRun, 0, len(runs))}

	for _, r := range runs {
		out.Runs = append(out.Runs, jsonRun{
			ID:         r.ID,
			StartedAt:  r.StartedAt.Format("2006-01-02T15:04:05Z07:00"),
			DryRun:     r.DryRun,
			Platforms:  r.Platforms,
			Candidates: r.Candidates,
			Deleted:    r.Deleted,
			Skipped:    r.Skipped,
			Failed:     r.Failed,
		})
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func printHistory(runs []store.Run) {
	fmt.Printf("scrub history — %d runs\n\n", len(runs))
	fmt.Printf("  %-16s  %-8s  %-20s  %10s  %7s  %7s  %6s\n",
		"Started", "Mode", "Platforms", "Candidates", "Deleted", "Skipped", "Failed")

	for _, r := range runs {
		mode := "live"
		if r.DryRun {
			mode = "dry-run"
		}
		platforms := strings.Join(r.Platforms, ",")
		if len(platforms) > 20 {
			platforms = platforms[:19] + "…"
		}
		fmt.Printf("  %-16s  %-8s  %-20s  %10d  %7d  %7d  %6d\n",
			r.StartedAt.Format("2006-01-02 15:04"), mode, platforms,
			r.Candidates, r.Deleted, r.Skipped, r.Failed)
	}
}
