package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/pkallberg/scrub/internal/platform"
	"github.com/pkallberg/scrub/internal/scrub"
)

func sampleReport() *scrub.Report {
	created := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	return &scrub.Report{
		RunID:      "run-1",
		StartedAt:  created.AddDate(0, 5, 0),
		FinishedAt: created.AddDate(0, 5, 0).Add(10 * time.Second),
		DryRun:     true,
		Start:      time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:        time.Date(2024, 1, 31, 23, 59, 59, 0, time.UTC),
		Platforms: []scrub.PlatformReport{
			{
				Platform:      platform.Mastodon,
				Authenticated: true,
				Listed:        5,
				Results: []scrub.PostResult{
					{
						Platform:    platform.Mastodon,
						PostID:      "101",
						Text:        "hello world",
						CreatedAt:   created,
						Outcome:     scrub.OutcomeSkippedDryRun,
						Archived:    true,
						ArchivePath: "/archives/mastodon/x.json",
					},
					{
						Platform:  platform.Mastodon,
						PostID:    "102",
						Text:      "broken one",
						CreatedAt: created,
						Outcome:   scrub.OutcomeFailed,
						Error:     "archive: disk full",
					},
				},
			},
			{
				Platform: platform.Bluesky,
				Err:      "authentication failed: bad password",
			},
		},
	}
}

func TestTerminal_Format(t *testing.T) {
	var buf bytes.Buffer
	if err := NewTerminal(false).Format(&buf, sampleReport()); err != nil {
		t.Fatalf("format: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"dry run",
		"--- Mastodon ---",
		"--- Bluesky ---",
		"would delete",
		"101",
		"hello world",
		"archive: disk full",
		"archived: /archives/mastodon/x.json",
		"failed: authentication failed: bad password",
		"Totals: 2 candidates, 0 deleted, 1 skipped, 1 failed",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q\n%s", want, out)
		}
	}

	if strings.Contains(out, "\033[") {
		t.Error("color disabled but ANSI codes present")
	}
}

func TestTerminal_ColorCodes(t *testing.T) {
	var buf bytes.Buffer
	if err := NewTerminal(true).Format(&buf, sampleReport()); err != nil {
		t.Fatalf("format: %v", err)
	}
	if !strings.Contains(buf.String(), "\033[31m") {
		t.Error("expected red ANSI code for failures")
	}
}

func TestJSON_Format(t *testing.T) {
	var buf bytes.Buffer
	if err := NewJSON().Format(&buf, sampleReport()); err != nil {
		t.Fatalf("format: %v", err)
	}

	var out struct {
		RunID     string `json:"run_id"`
		DryRun    bool   `json:"dry_run"`
		Platforms []struct {
			Platform      string `json:"platform"`
			Authenticated bool   `json:"authenticated"`
			Error         string `json:"error"`
			Results       []struct {
				PostID   string `json:"post_id"`
				Outcome  string `json:"outcome"`
				Archived bool   `json:"archived"`
			} `json:"results"`
		} `json:"platforms"`
		Totals struct {
			Candidates int `json:"candidates"`
			Skipped    int `json:"skipped"`
			Failed     int `json:"failed"`
		} `json:"totals"`
	}
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, buf.String())
	}

	if out.RunID != "run-1" || !out.DryRun {
		t.Fatalf("header = %+v", out)
	}
	if len(out.Platforms) != 2 {
		t.Fatalf("platforms = %d", len(out.Platforms))
	}
	if out.Platforms[1].Error == "" {
		t.Fatal("failed platform should carry its error")
	}
	if len(out.Platforms[1].Results) != 0 {
		t.Fatal("failed platform should have empty results, not null-skipped")
	}
	if out.Totals.Candidates != 2 || out.Totals.Skipped != 1 || out.Totals.Failed != 1 {
		t.Fatalf("totals = %+v", out.Totals)
	}
	if out.Platforms[0].Results[0].PostID != "101" {
		t.Fatalf("results = %+v", out.Platforms[0].Results)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("hello", 10); got != "hello" {
		t.Errorf("truncate short = %q", got)
	}
	got := truncate("a long sentence that keeps going", 10)
	if got != "a long sen..." {
		t.Errorf("truncate long = %q", got)
	}
	if got := truncate("héllo wörld étc", 5); !strings.HasPrefix(got, "héllo") {
		t.Errorf("truncate must not split runes: %q", got)
	}
}

func TestShortID(t *testing.T) {
	if got := shortID("12345"); got != "12345" {
		t.Errorf("short id changed: %q", got)
	}
	long := "at://did:plc:abcdefghijklmnop/app.bsky.feed.post/3kabc"
	got := shortID(long)
	if len(got) != 24 || !strings.HasPrefix(got, "...") {
		t.Errorf("shortID(%q) = %q", long, got)
	}
	if !strings.HasSuffix(long, got[3:]) {
		t.Errorf("shortID should keep the tail: %q", got)
	}
}
