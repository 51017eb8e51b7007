// Package report renders a run report for the terminal or as JSON.
package report

import (
	"io"

	"github.com/pkallberg/scrub/internal/scrub"
)

// Formatter renders a run report to w.
type Formatter interface {
	Format(w io.Writer, rep *scrub.Report) error
}

func truncate(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i] + "..."
		}
		count++
	}
	return s
}
