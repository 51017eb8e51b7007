package archive

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pkallberg/scrub/internal/platform"
)

func testPost() platform.Post {
	return platform.Post{
		ID:          "at://did:plc:alice/app.bsky.feed.post/3kabc",
		Platform:    platform.Bluesky,
		Text:        "hello world",
		CreatedAt:   time.Date(2024, 1, 15, 12, 30, 45, 0, time.UTC),
		URL:         "https://bsky.app/profile/alice.test/post/3kabc",
		Attachments: []string{"https://cdn.example/img.png"},
	}
}

func TestWrite(t *testing.T) {
	a := New(t.TempDir())
	archivedAt := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	a.now = func() time.Time { return archivedAt }

	path, err := a.Write(testPost())
	if err != nil {
		t.Fatalf("write: %v", err)
	}

	wantName := "20240115_123045_did_plc_alice_app.bsky.feed.post_3kabc.json"
	if filepath.Base(path) != wantName {
		t.Fatalf("filename = %s, want %s", filepath.Base(path), wantName)
	}
	if filepath.Base(filepath.Dir(path)) != platform.Bluesky {
		t.Fatalf("archive not under platform dir: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read archive: %v", err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		t.Fatalf("unmarshal archive: %v", err)
	}
	if rec.PostID != testPost().ID || rec.Text != "hello world" {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if !rec.ArchivedAt.Equal(archivedAt) {
		t.Fatalf("archived_at = %v, want %v", rec.ArchivedAt, archivedAt)
	}
	if len(rec.Attachments) != 1 {
		t.Fatalf("attachments = %v", rec.Attachments)
	}
}

func TestWriteLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	a := New(dir)

	if _, err := a.Write(testPost()); err != nil {
		t.Fatalf("write: %v", err)
	}

	entries, err := os.ReadDir(filepath.Join(dir, platform.Bluesky))
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".archive-") {
			t.Fatalf("temp file left behind: %s", e.Name())
		}
	}
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
}

func TestWriteRequiresDir(t *testing.T) {
	a := &Archiver{}
	if _, err := a.Write(testPost()); err == nil {
		t.Fatal("expected error for empty archive dir")
	}
}

func TestWriteOverwritesExistingArchive(t *testing.T) {
	a := New(t.TempDir())

	first, err := a.Write(testPost())
	if err != nil {
		t.Fatalf("first write: %v", err)
	}
	second, err := a.Write(testPost())
	if err != nil {
		t.Fatalf("second write: %v", err)
	}
	if first != second {
		t.Fatalf("paths differ: %s vs %s", first, second)
	}
}

func TestSanitizeID(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"at://did:plc:alice/app.bsky.feed.post/3kabc", "did_plc_alice_app.bsky.feed.post_3kabc"},
		{"112233445566", "112233445566"},
		{"weird id/with spaces", "weird_id_with_spaces"},
	}
	for _, tt := range tests {
		if got := sanitizeID(tt.in); got != tt.want {
			t.Errorf("sanitizeID(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
