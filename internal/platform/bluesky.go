package platform

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	comatproto "github.com/bluesky-social/indigo/api/atproto"
	appbsky "github.com/bluesky-social/indigo/api/bsky"
	"github.com/bluesky-social/indigo/atproto/syntax"
	"github.com/bluesky-social/indigo/xrpc"
)

const (
	blueskyDefaultHost    = "https://bsky.social"
	blueskyPostCollection = "app.bsky.feed.post"
	blueskyPageSize       = 50
)

// BlueskyAdapter lists and deletes app.bsky.feed.post records via the
// AT Protocol repo API on the user's PDS.
type BlueskyAdapter struct {
	handle   string
	password string
	host     string

	client *xrpc.Client
	did    string
}

// NewBluesky creates a Bluesky adapter. host overrides the default PDS
// (https://bsky.social) when non-empty.
func NewBluesky(handle, password, host string) *BlueskyAdapter {
	if host == "" {
		host = blueskyDefaultHost
	}
	return &BlueskyAdapter{handle: handle, password: password, host: host}
}

func (b *BlueskyAdapter) Name() string { return Bluesky }

func (b *BlueskyAdapter) Configured() bool {
	return b.handle != "" && b.password != ""
}

// Authenticate calls com.atproto.server.createSession and keeps the session
// tokens on the XRPC client for subsequent repo calls.
func (b *BlueskyAdapter) Authenticate(ctx context.Context) error {
	if !b.Configured() {
		return &AuthError{Platform: Bluesky, Err: errors.New("BLUESKY_HANDLE and BLUESKY_PASSWORD are required")}
	}

	client := &xrpc.Client{Host: b.host}
	out, err := comatproto.ServerCreateSession(ctx, client, &comatproto.ServerCreateSession_Input{
		Identifier: b.handle,
		Password:   b.password,
	})
	if err != nil {
		return &AuthError{Platform: Bluesky, Err: err}
	}
	if out.AccessJwt == "" || out.Did == "" {
		return &AuthError{Platform: Bluesky, Err: errors.New("createSession response missing tokens")}
	}

	client.Auth = &xrpc.AuthInfo{
		AccessJwt:  out.AccessJwt,
		RefreshJwt: out.RefreshJwt,
		Handle:     out.Handle,
		Did:        out.Did,
	}
	b.client = client
	b.did = out.Did
	return nil
}

// ListPosts pages through com.atproto.repo.listRecords, which returns the
// user's own post records newest first, and stops at the first record older
// than start.
func (b *BlueskyAdapter) ListPosts(ctx context.Context, start, end time.Time, limit int) ([]Post, error) {
	if b.client == nil {
		return nil, &AuthError{Platform: Bluesky, Err: errors.New("not authenticated")}
	}

	var posts []Post
	cursor := ""

	for {
		out, err := comatproto.RepoListRecords(ctx, b.client, blueskyPostCollection, cursor, blueskyPageSize, b.did, false)
		if err != nil {
			return nil, blueskyError("listRecords", err)
		}
		if len(out.Records) == 0 {
			return posts, nil
		}

		for _, rec := range out.Records {
			if rec == nil || rec.Value == nil {
				continue
			}
			fp, ok := rec.Value.Val.(*appbsky.FeedPost)
			if !ok {
				continue
			}

			createdAt, err := syntax.ParseDatetimeLenient(fp.CreatedAt)
			if err != nil {
				continue
			}
			created := createdAt.Time().UTC()

			if created.Before(start) {
				// Records are newest first; everything after this is older.
				return posts, nil
			}
			if created.After(end) {
				continue
			}

			posts = append(posts, Post{
				ID:          rec.Uri,
				Platform:    Bluesky,
				Text:        fp.Text,
				CreatedAt:   created,
				URL:         b.postURL(rec.Uri),
				Attachments: blueskyAttachments(fp),
			})
			if limit > 0 && len(posts) >= limit {
				return posts, nil
			}
		}

		if out.Cursor == nil || *out.Cursor == "" {
			return posts, nil
		}
		cursor = *out.Cursor
	}
}

// DeletePost deletes the record behind an AT-URI. A record that is already
// gone counts as deleted.
func (b *BlueskyAdapter) DeletePost(ctx context.Context, id string) error {
	if b.client == nil {
		return &AuthError{Platform: Bluesky, Err: errors.New("not authenticated")}
	}

	collection, rkey, err := blueskyRecordKey(id)
	if err != nil {
		return &DeleteError{Platform: Bluesky, PostID: id, Err: err}
	}

	_, err = comatproto.RepoDeleteRecord(ctx, b.client, &comatproto.RepoDeleteRecord_Input{
		Collection: collection,
		Repo:       b.did,
		Rkey:       rkey,
	})
	if err != nil {
		var xe *xrpc.Error
		if errors.As(err, &xe) && xe.StatusCode == http.StatusNotFound {
			return nil
		}
		if werr := blueskyError("deleteRecord", err); IsRateLimit(werr) {
			return werr
		}
		return &DeleteError{Platform: Bluesky, PostID: id, Err: err}
	}
	return nil
}

// blueskyRecordKey resolves a post ID to (collection, rkey). The ID is
// normally a full AT-URI; a bare rkey is accepted for convenience.
func blueskyRecordKey(id string) (string, string, error) {
	if !strings.HasPrefix(id, "at://") {
		if strings.Contains(id, "/") {
			return "", "", fmt.Errorf("invalid post ID %q", id)
		}
		return blueskyPostCollection, id, nil
	}

	uri, err := syntax.ParseATURI(id)
	if err != nil {
		return "", "", fmt.Errorf("parse AT-URI: %w", err)
	}
	return uri.Collection().String(), uri.RecordKey().String(), nil
}

func (b *BlueskyAdapter) postURL(uri string) string {
	idx := strings.LastIndex(uri, "/")
	if idx < 0 {
		return ""
	}
	return fmt.Sprintf("https://bsky.app/profile/%s/post/%s", b.handle, uri[idx+1:])
}

func blueskyAttachments(fp *appbsky.FeedPost) []string {
	if fp.Embed == nil || fp.Embed.EmbedExternal == nil || fp.Embed.EmbedExternal.External == nil {
		return nil
	}
	return []string{fp.Embed.EmbedExternal.External.Uri}
}

// blueskyError classifies an XRPC failure, surfacing 429 responses as
// retryable with the server-suggested reset when the PDS provides one.
func blueskyError(op string, err error) error {
	var xe *xrpc.Error
	if errors.As(err, &xe) && xe.StatusCode == http.StatusTooManyRequests {
		var wait time.Duration
		if xe.Ratelimit != nil {
			wait = time.Until(xe.Ratelimit.Reset)
		}
		return &RateLimitError{RetryAfter: wait, Err: fmt.Errorf("%s: %w", op, err)}
	}
	return fmt.Errorf("%s: %w", op, err)
}
