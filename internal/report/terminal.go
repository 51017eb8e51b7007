package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/pkallberg/scrub/internal/scrub"
)

// TerminalFormatter formats a run report for terminal output.
type TerminalFormatter struct {
	color bool
}

// NewTerminal creates a terminal formatter. Set color=true for ANSI colors.
func NewTerminal(color bool) *TerminalFormatter {
	return &TerminalFormatter{color: color}
}

// Format writes the report to w, one section per platform. Every failed
// post appears with its ID and reason.
func (f *TerminalFormatter) Format(w io.Writer, rep *scrub.Report) error {
	mode := "live"
	if rep.DryRun {
		mode = "dry run"
	}
	header := fmt.Sprintf("scrub — %s, %d platforms, %s → %s",
		mode, len(rep.Platforms),
		rep.Start.Format("2006-01-02"), rep.End.Format("2006-01-02"))
	fmt.Fprintln(w, f.bold(header))
	fmt.Fprintln(w)

	for _, pr := range rep.Platforms {
		title := strings.ToUpper(pr.Platform[:1]) + pr.Platform[1:]
		fmt.Fprintln(w, f.bold(fmt.Sprintf("--- %s ---", title)))

		if pr.Err != "" {
			fmt.Fprintf(w, "  %s\n\n", f.red("failed: "+pr.Err))
			continue
		}

		deleted, skipped, failed := outcomes(pr)
		fmt.Fprintf(w, "  listed %d, candidates %d — deleted %d, skipped %d, failed %d\n",
			pr.Listed, len(pr.Results), deleted, skipped, failed)

		for _, res := range pr.Results {
			f.writeResult(w, res)
		}
		fmt.Fprintln(w)
	}

	candidates, deleted, skipped, failed := rep.Totals()
	totals := fmt.Sprintf("Totals: %d candidates, %d deleted, %d skipped, %d failed",
		candidates, deleted, skipped, failed)
	if failed > 0 {
		totals = f.red(totals)
	}
	fmt.Fprintln(w, totals)
	return nil
}

func (f *TerminalFormatter) writeResult(w io.Writer, res scrub.PostResult) {
	preview := strings.ReplaceAll(truncate(res.Text, 50), "\n", " ")

	var marker string
	switch res.Outcome {
	case scrub.OutcomeDeleted:
		marker = f.green("deleted")
	case scrub.OutcomeSkippedDryRun:
		marker = f.yellow("would delete")
	default:
		marker = f.red("failed")
	}

	fmt.Fprintf(w, "  [%s] %s  %q — %s\n",
		res.CreatedAt.Format("2006-01-02 15:04"), shortID(res.PostID), preview, marker)
	if res.Error != "" {
		fmt.Fprintf(w, "      %s\n", f.red(res.Error))
	}
	if res.Archived {
		fmt.Fprintf(w, "      archived: %s\n", f.dim(res.ArchivePath))
	}
}

func outcomes(pr scrub.PlatformReport) (deleted, skipped, failed int) {
	for _, res := range pr.Results {
		switch res.Outcome {
		case scrub.OutcomeDeleted:
			deleted++
		case scrub.OutcomeSkippedDryRun:
			skipped++
		case scrub.OutcomeFailed:
			failed++
		}
	}
	return deleted, skipped, failed
}

// shortID keeps IDs readable; AT-URIs get trimmed to their record key tail.
func shortID(id string) string {
	if len(id) <= 24 {
		return id
	}
	return "..." + id[len(id)-21:]
}

func (f *TerminalFormatter) bold(s string) string   { return f.wrap("\033[1m", s) }
func (f *TerminalFormatter) dim(s string) string    { return f.wrap("\033[2m", s) }
func (f *TerminalFormatter) green(s string) string  { return f.wrap("\033[32m", s) }
func (f *TerminalFormatter) yellow(s string) string { return f.wrap("\033[33m", s) }
func (f *TerminalFormatter) red(s string) string    { return f.wrap("\033[31m", s) }

func (f *TerminalFormatter) wrap(code, s string) string {
	if !f.color {
		return s
	}
	return code + s + "\033[0m"
}
