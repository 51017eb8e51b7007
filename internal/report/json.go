package report

import (
	"encoding/json"
	"io"
	"time"

	"github.com/pkallberg/scrub/internal/scrub"
)

// JSONFormatter renders a run report as a single JSON document for scripting.
type JSONFormatter struct{}

// NewJSON creates a JSON formatter.
func NewJSON() *JSONFormatter {
	return &JSONFormatter{}
}

type jsonReport struct {
	RunID      string         `json:"run_id"`
	DryRun     bool           `json:"dry_run"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Start      time.Time      `json:"start"`
	End        time.Time      `json:"end"`
	Platforms  []jsonPlatform `json:"platforms"`
	Totals     jsonTotals     `json:"totals"`
}

type jsonPlatform struct {
	Platform      string       `json:"platform"`
	Authenticated bool         `json:"authenticated"`
	Listed        int          `json:"listed"`
	Error         string       `json:"error,omitempty"`
	Results       []jsonResult `json:"results"`
}

type jsonResult struct {
	PostID      string    `json:"post_id"`
	CreatedAt   time.Time `json:"created_at"`
	Outcome     string    `json:"outcome"`
	Error       string    `json:"error,omitempty"`
	Archived    bool      `json:"archived"`
	ArchivePath string    `json:"archive_path,omitempty"`
}

type jsonTotals struct {
	Candidates int `json:"candidates"`
	Deleted    int `json:"deleted"`
	Skipped    int `json:"skipped"`
	Failed     int `json:"failed"`
}

func (f *JSONFormatter) Format(w io.Writer, rep *scrub.Report) error {
	out := jsonReport{
		RunID:      rep.RunID,
		DryRun:     rep.DryRun,
		StartedAt:  rep.StartedAt,
		FinishedAt: rep.FinishedAt,
		Start:      rep.Start,
		End:        rep.End,
	}

	for _, pr := range rep.Platforms {
		jp := jsonPlatform{
			Platform:      pr.Platform,
			Authenticated: pr.Authenticated,
			Listed:        pr.Listed,
			Error:         pr.Err,
			Results:       []jsonResult{},
		}
		for _, res := range pr.Results {
			jp.Results = append(jp.Results, jsonResult{
				PostID:      res.PostID,
				CreatedAt:   res.CreatedAt,
				Outcome:     res.Outcome,
				Error:       res.Error,
				Archived:    res.Archived,
				ArchivePath: res.ArchivePath,
			})
		}
		out.Platforms = append(out.Platforms, jp)
	}

	out.Totals.Candidates, out.Totals.Deleted, out.Totals.Skipped, out.Totals.Failed = rep.Totals()

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
