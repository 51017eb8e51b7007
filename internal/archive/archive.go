// Package archive writes local JSON backups of posts before deletion.
package archive

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkallberg/scrub/internal/platform"
)

// Record is the persisted form of a post: the post itself plus when the
// archive was taken.
type Record struct {
	PostID      string    `json:"post_id"`
	Platform    string    `json:"platform"`
	Text        string    `json:"text"`
	CreatedAt   time.Time `json:"created_at"`
	URL         string    `json:"url,omitempty"`
	Attachments []string  `json:"attachments,omitempty"`
	ArchivedAt  time.Time `json:"archived_at"`
}

// Archiver writes one JSON document per post under Dir/<platform>/.
type Archiver struct {
	Dir string

	// now allows tests to pin the archived_at timestamp.
	now func() time.Time
}

// New creates an archiver rooted at dir.
func New(dir string) *Archiver {
	return &Archiver{Dir: dir, now: time.Now}
}

// Write archives p atomically (write to a temp file in the target directory,
// then rename) and returns the final path. A failure here must abort the
// deletion of p.
func (a *Archiver) Write(p platform.Post) (string, error) {
	if a.Dir == "" {
		return "", fmt.Errorf("archive dir is required")
	}

	dir := filepath.Join(a.Dir, p.Platform)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create archive dir: %w", err)
	}

	now := time.Now
	if a.now != nil {
		now = a.now
	}
	rec := Record{
		PostID:      p.ID,
		Platform:    p.Platform,
		Text:        p.Text,
		CreatedAt:   p.CreatedAt,
		URL:         p.URL,
		Attachments: p.Attachments,
		ArchivedAt:  now().UTC(),
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal archive record: %w", err)
	}

	path := filepath.Join(dir, filenameFor(p))
	tmp, err := os.CreateTemp(dir, ".archive-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("write archive: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("close archive: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("rename archive: %w", err)
	}
	return path, nil
}

// filenameFor builds <timestamp>_<sanitized-id>.json. Post IDs can be AT-URIs
// with slashes and colons, which must not leak into the path.
func filenameFor(p platform.Post) string {
	return fmt.Sprintf("%s_%s.json", p.CreatedAt.UTC().Format("20060102_150405"), sanitizeID(p.ID))
}

func sanitizeID(id string) string {
	id = strings.TrimPrefix(id, "at://")
	var b strings.Builder
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
