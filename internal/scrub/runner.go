// Package scrub orchestrates one deletion run: per platform, authenticate,
// list, filter, archive, then delete or preview. Platforms fail
// independently; one bad credential never aborts the others.
package scrub

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/pkallberg/scrub/internal/archive"
	"github.com/pkallberg/scrub/internal/filter"
	"github.com/pkallberg/scrub/internal/platform"
)

// Per-post outcomes.
const (
	OutcomeDeleted       = "deleted"
	OutcomeSkippedDryRun = "skipped-dry-run"
	OutcomeFailed        = "failed"
)

// Runner drives the pipeline across a set of platform adapters.
type Runner struct {
	Adapters []platform.Adapter
	Criteria filter.Criteria
	Archiver *archive.Archiver // nil disables archive-before-delete
	Retry    platform.RetryPolicy
	DryRun   bool
	Log      *slog.Logger
}

// PostResult is the recorded outcome for one candidate post.
type PostResult struct {
	Platform    string
	PostID      string
	Text        string
	CreatedAt   time.Time
	Outcome     string
	Error       string
	Archived    bool
	ArchivePath string
}

// PlatformReport covers one platform's stages. Err is set when the platform
// failed before per-post processing (auth or listing).
type PlatformReport struct {
	Platform      string
	Authenticated bool
	Listed        int
	Results       []PostResult
	Err           string
}

// Report is the full outcome of a run.
type Report struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	DryRun     bool
	Start      time.Time
	End        time.Time
	Platforms  []PlatformReport
}

// Run executes the pipeline. Cancelling ctx stops new deletions; the archive
// write already in progress completes and is recorded.
func (r *Runner) Run(ctx context.Context) *Report {
	log := r.Log
	if log == nil {
		log = slog.Default()
	}

	report := &Report{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
		DryRun:    r.DryRun,
		Start:     r.Criteria.Start,
		End:       r.Criteria.End,
	}

	for _, adapter := range r.Adapters {
		report.Platforms = append(report.Platforms, r.runPlatform(ctx, adapter, log))
	}

	report.FinishedAt = time.Now().UTC()
	return report
}

func (r *Runner) runPlatform(ctx context.Context, adapter platform.Adapter, log *slog.Logger) PlatformReport {
	pr := PlatformReport{Platform: adapter.Name()}

	if err := ctx.Err(); err != nil {
		pr.Err = "run cancelled"
		return pr
	}

	if err := adapter.Authenticate(ctx); err != nil {
		log.Warn("authentication failed", "platform", adapter.Name(), "error", err)
		pr.Err = err.Error()
		return pr
	}
	pr.Authenticated = true
	log.Info("authenticated", "platform", adapter.Name())

	posts, err := adapter.ListPosts(ctx, r.Criteria.Start, r.Criteria.End, r.listLimit())
	if err != nil {
		log.Warn("listing failed", "platform", adapter.Name(), "error", err)
		pr.Err = err.Error()
		return pr
	}
	pr.Listed = len(posts)

	candidates := r.Criteria.Select(posts)
	log.Info("filtered candidates", "platform", adapter.Name(), "listed", len(posts), "candidates", len(candidates))

	for _, post := range candidates {
		pr.Results = append(pr.Results, r.processPost(ctx, adapter, post, log))
	}
	return pr
}

// processPost archives and deletes (or previews) a single candidate. The
// archive write must succeed before any delete call is issued.
func (r *Runner) processPost(ctx context.Context, adapter platform.Adapter, post platform.Post, log *slog.Logger) PostResult {
	result := PostResult{
		Platform:  post.Platform,
		PostID:    post.ID,
		Text:      post.Text,
		CreatedAt: post.CreatedAt,
	}

	if err := ctx.Err(); err != nil {
		result.Outcome = OutcomeFailed
		result.Error = "run cancelled before deletion"
		return result
	}

	if r.Archiver != nil {
		path, err := r.Archiver.Write(post)
		if err != nil {
			log.Warn("archive failed, skipping delete", "platform", post.Platform, "post", post.ID, "error", err)
			result.Outcome = OutcomeFailed
			result.Error = "archive: " + err.Error()
			return result
		}
		result.Archived = true
		result.ArchivePath = path
	}

	if r.DryRun {
		result.Outcome = OutcomeSkippedDryRun
		return result
	}

	err := r.Retry.Do(ctx, func() error {
		return adapter.DeletePost(ctx, post.ID)
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			result.Outcome = OutcomeFailed
			result.Error = "run cancelled before deletion"
			return result
		}
		log.Warn("delete failed", "platform", post.Platform, "post", post.ID, "error", err)
		result.Outcome = OutcomeFailed
		result.Error = err.Error()
		return result
	}

	result.Outcome = OutcomeDeleted
	return result
}

// listLimit caps listing at the candidate cap when filtering cannot discard
// date-matching posts. With a keyword or ID filter a capped listing could
// miss candidates, so the whole window is fetched.
func (r *Runner) listLimit() int {
	if r.Criteria.Keyword == "" && len(r.Criteria.PostIDs) == 0 && r.Criteria.Order != filter.OrderOldest {
		return r.Criteria.MaxPosts
	}
	return 0
}

// Totals sums per-post outcomes across platforms.
func (rep *Report) Totals() (candidates, deleted, skipped, failed int) {
	for _, pr := range rep.Platforms {
		candidates += len(pr.Results)
		for _, res := range pr.Results {
			switch res.Outcome {
			case OutcomeDeleted:
				deleted++
			case OutcomeSkippedDryRun:
				skipped++
			case OutcomeFailed:
				failed++
			}
		}
	}
	return candidates, deleted, skipped, failed
}

// Failed reports whether any platform failed a required stage or any post
// failed to archive or delete.
func (rep *Report) Failed() bool {
	for _, pr := range rep.Platforms {
		if pr.Err != "" {
			return true
		}
		for _, res := range pr.Results {
			if res.Outcome == OutcomeFailed {
				return true
			}
		}
	}
	return false
}

// PlatformNames lists the platforms this report covers.
func (rep *Report) PlatformNames() []string {
	names := make([]string, 0, len(rep.Platforms))
	for _, pr := range rep.Platforms {
		names = append(names, pr.Platform)
	}
	return names
}
