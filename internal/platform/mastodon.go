package platform

import (
	"context"
	"errors"
	"fmt"
	"html"
	"regexp"
	"strings"
	"time"

	"github.com/mattn/go-mastodon"
)

const mastodonPageSize = 40

var htmlTagPattern = regexp.MustCompile(`<[^>]+>`)

// MastodonAdapter lists and deletes statuses on a Mastodon instance through
// its REST API.
type MastodonAdapter struct {
	server      string
	accessToken string

	client    *mastodon.Client
	accountID mastodon.ID
}

// NewMastodon creates a Mastodon adapter for the given instance base URL.
func NewMastodon(server, accessToken string) *MastodonAdapter {
	return &MastodonAdapter{server: server, accessToken: accessToken}
}

func (m *MastodonAdapter) Name() string { return Mastodon }

func (m *MastodonAdapter) Configured() bool {
	return m.server != "" && m.accessToken != ""
}

// Authenticate verifies the access token and resolves the account ID used
// for status listing.
func (m *MastodonAdapter) Authenticate(ctx context.Context) error {
	if !m.Configured() {
		return &AuthError{Platform: Mastodon, Err: errors.New("MASTODON_API_BASE_URL and MASTODON_ACCESS_TOKEN are required")}
	}

	client := mastodon.NewClient(&mastodon.Config{
		Server:      m.server,
		AccessToken: m.accessToken,
	})
	account, err := client.GetAccountCurrentUser(ctx)
	if err != nil {
		return &AuthError{Platform: Mastodon, Err: err}
	}

	m.client = client
	m.accountID = account.ID
	return nil
}

// ListPosts pages through the account's statuses (newest first), skipping
// boosts, and stops at the first status older than start.
func (m *MastodonAdapter) ListPosts(ctx context.Context, start, end time.Time, limit int) ([]Post, error) {
	if m.client == nil {
		return nil, &AuthError{Platform: Mastodon, Err: errors.New("not authenticated")}
	}

	var posts []Post
	var maxID mastodon.ID

	for {
		pg := &mastodon.Pagination{MaxID: maxID, Limit: mastodonPageSize}
		statuses, err := m.client.GetAccountStatuses(ctx, m.accountID, pg)
		if err != nil {
			return nil, mastodonError("account statuses", err)
		}
		if len(statuses) == 0 {
			return posts, nil
		}

		for _, s := range statuses {
			maxID = s.ID
			if s.Reblog != nil {
				continue
			}

			created := s.CreatedAt.UTC()
			if created.Before(start) {
				return posts, nil
			}
			if created.After(end) {
				continue
			}

			posts = append(posts, Post{
				ID:          string(s.ID),
				Platform:    Mastodon,
				Text:        stripHTML(s.Content),
				CreatedAt:   created,
				URL:         s.URL,
				Attachments: mastodonAttachments(s),
			})
			if limit > 0 && len(posts) >= limit {
				return posts, nil
			}
		}
	}
}

// DeletePost deletes a status by ID. A 404 counts as already deleted.
func (m *MastodonAdapter) DeletePost(ctx context.Context, id string) error {
	if m.client == nil {
		return &AuthError{Platform: Mastodon, Err: errors.New("not authenticated")}
	}

	if err := m.client.DeleteStatus(ctx, mastodon.ID(id)); err != nil {
		if strings.Contains(err.Error(), "404") {
			// Already gone.
			return nil
		}
		werr := mastodonError("delete status", err)
		if IsRateLimit(werr) {
			return werr
		}
		return &DeleteError{Platform: Mastodon, PostID: id, Err: err}
	}
	return nil
}

// mastodonError classifies a client failure. go-mastodon reports the HTTP
// status only in the error text, so 429 detection is string-based.
func mastodonError(op string, err error) error {
	if strings.Contains(err.Error(), "429") {
		return &RateLimitError{Err: err}
	}
	return fmt.Errorf("%s: %w", op, err)
}

func mastodonAttachments(s *mastodon.Status) []string {
	if len(s.MediaAttachments) == 0 {
		return nil
	}
	urls := make([]string, 0, len(s.MediaAttachments))
	for _, a := range s.MediaAttachments {
		urls = append(urls, a.URL)
	}
	return urls
}

func stripHTML(s string) string {
	s = strings.ReplaceAll(s, "</p>", "\n")
	s = strings.ReplaceAll(s, "<br>", "\n")
	s = strings.ReplaceAll(s, "<br/>", "\n")
	s = strings.ReplaceAll(s, "<br />", "\n")
	s = htmlTagPattern.ReplaceAllString(s, "")
	return strings.TrimSpace(html.UnescapeString(s))
}
