// Package platform defines the contract that every social-media platform
// adapter implements, plus the shared error taxonomy and retry policy.
package platform

import (
	"context"
	"time"
)

// Platform identifiers.
const (
	Bluesky  = "bluesky"
	Mastodon = "mastodon"
	Twitter  = "twitter"
)

// Names lists all known platform identifiers.
func Names() []string {
	return []string{Bluesky, Mastodon, Twitter}
}

// Post represents a single post fetched from a platform. Immutable once fetched.
type Post struct {
	ID          string    // platform-native identifier (AT-URI, status ID, ...)
	Platform    string    // platform identifier: "bluesky", "mastodon", "twitter"
	Text        string    // post text, HTML stripped
	CreatedAt   time.Time // source platform's clock, UTC
	URL         string    // link to the post, if the platform exposes one
	Attachments []string  // attachment URIs
}

// Adapter is the per-platform implementation of listing and deleting posts.
type Adapter interface {
	// Name returns the platform identifier (e.g. "bluesky").
	Name() string

	// Configured reports whether the credential bundle is complete.
	Configured() bool

	// Authenticate exchanges stored credentials for a live session.
	// Listing and deleting must not be attempted after a failure.
	Authenticate(ctx context.Context) error

	// ListPosts returns the authenticated user's posts with CreatedAt in
	// [start, end], newest first. Pagination stops once entries fall before
	// start or limit posts have been collected (limit <= 0 means no cap).
	ListPosts(ctx context.Context, start, end time.Time, limit int) ([]Post, error)

	// DeletePost deletes a single post. Deleting an already-absent post is
	// success, not failure.
	DeletePost(ctx context.Context, id string) error
}
