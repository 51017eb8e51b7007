package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type bskyHandler struct {
	t *testing.T

	listResponses []string
	listCalls     int
	deleteStatus  int
	deleteBodies  []map[string]any
}

func (h *bskyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/xrpc/com.atproto.server.createSession":
		fmt.Fprint(w, `{"accessJwt":"access","refreshJwt":"refresh","handle":"alice.test","did":"did:plc:alice"}`)
	case "/xrpc/com.atproto.repo.listRecords":
		if h.listCalls >= len(h.listResponses) {
			fmt.Fprint(w, `{"records":[]}`)
			return
		}
		fmt.Fprint(w, h.listResponses[h.listCalls])
		h.listCalls++
	case "/xrpc/com.atproto.repo.deleteRecord":
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		h.deleteBodies = append(h.deleteBodies, body)
		if h.deleteStatus != 0 && h.deleteStatus != http.StatusOK {
			w.WriteHeader(h.deleteStatus)
			fmt.Fprint(w, `{"error":"RecordNotFound","message":"Could not locate record"}`)
			return
		}
		fmt.Fprint(w, `{}`)
	default:
		h.t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		w.WriteHeader(http.StatusNotFound)
	}
}

func authedBluesky(t *testing.T, h *bskyHandler) (*BlueskyAdapter, *httptest.Server) {
	t.Helper()
	h.t = t
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	b := NewBluesky("alice.test", "app-password", srv.URL)
	if err := b.Authenticate(context.Background()); err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	return b, srv
}

func bskyRecord(rkey, text, createdAt string) string {
	return fmt.Sprintf(`{"uri":"at://did:plc:alice/app.bsky.feed.post/%s","cid":"bafy%s","value":{"$type":"app.bsky.feed.post","text":%q,"createdAt":%q}}`,
		rkey, rkey, text, createdAt)
}

func TestBluesky_Configured(t *testing.T) {
	if NewBluesky("", "", "").Configured() {
		t.Fatal("empty credentials should not count as configured")
	}
	if !NewBluesky("alice.test", "pw", "").Configured() {
		t.Fatal("handle+password should count as configured")
	}
}

func TestBluesky_AuthenticateStoresSession(t *testing.T) {
	b, _ := authedBluesky(t, &bskyHandler{})
	if b.did != "did:plc:alice" {
		t.Fatalf("did = %q", b.did)
	}
	if b.client == nil || b.client.Auth == nil || b.client.Auth.AccessJwt != "access" {
		t.Fatal("session tokens not stored on client")
	}
}

func TestBluesky_AuthenticateMissingCredentials(t *testing.T) {
	err := NewBluesky("", "", "").Authenticate(context.Background())
	var ae *AuthError
	if !asAuthError(err, &ae) {
		t.Fatalf("expected AuthError, got %v", err)
	}
}

func TestBluesky_ListPostsWindowAndPagination(t *testing.T) {
	page1 := `{"cursor":"c1","records":[` +
		bskyRecord("3c", "newest", "2024-01-20T10:00:00Z") + "," +
		bskyRecord("3b", "inside", "2024-01-10T10:00:00Z") + `]}`
	page2 := `{"records":[` +
		bskyRecord("3a", "too old", "2023-12-01T10:00:00Z") + `]}`

	b, _ := authedBluesky(t, &bskyHandler{listResponses: []string{page1, page2}})

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 31, 23, 59, 59, 0, time.UTC)
	posts, err := b.ListPosts(context.Background(), start, end, 0)
	if err != nil {
		t.Fatalf("list posts: %v", err)
	}

	if len(posts) != 2 {
		t.Fatalf("posts = %d, want 2", len(posts))
	}
	if posts[0].Text != "newest" || posts[1].Text != "inside" {
		t.Fatalf("unexpected posts: %+v", posts)
	}
	if posts[0].Platform != Bluesky {
		t.Fatalf("platform = %q", posts[0].Platform)
	}
	if posts[0].URL != "https://bsky.app/profile/alice.test/post/3c" {
		t.Fatalf("url = %q", posts[0].URL)
	}
}

func TestBluesky_ListPostsHonorsLimit(t *testing.T) {
	page := `{"cursor":"c1","records":[` +
		bskyRecord("3c", "one", "2024-01-20T10:00:00Z") + "," +
		bskyRecord("3b", "two", "2024-01-19T10:00:00Z") + `]}`

	b, _ := authedBluesky(t, &bskyHandler{listResponses: []string{page}})

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	posts, err := b.ListPosts(context.Background(), start, end, 1)
	if err != nil {
		t.Fatalf("list posts: %v", err)
	}
	if len(posts) != 1 || posts[0].Text != "one" {
		t.Fatalf("posts = %+v, want just the newest", posts)
	}
}

func TestBluesky_DeletePost(t *testing.T) {
	h := &bskyHandler{}
	b, _ := authedBluesky(t, h)

	err := b.DeletePost(context.Background(), "at://did:plc:alice/app.bsky.feed.post/3b")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(h.deleteBodies) != 1 {
		t.Fatalf("delete calls = %d, want 1", len(h.deleteBodies))
	}
	body := h.deleteBodies[0]
	if body["collection"] != "app.bsky.feed.post" || body["rkey"] != "3b" || body["repo"] != "did:plc:alice" {
		t.Fatalf("unexpected delete payload: %v", body)
	}
}

func TestBluesky_DeleteAbsentPostIsSuccess(t *testing.T) {
	h := &bskyHandler{deleteStatus: http.StatusNotFound}
	b, _ := authedBluesky(t, h)

	// Deleting twice must succeed both times.
	for range 2 {
		if err := b.DeletePost(context.Background(), "at://did:plc:alice/app.bsky.feed.post/3b"); err != nil {
			t.Fatalf("delete absent post: %v", err)
		}
	}
}

func TestBluesky_ListRateLimitSurfacesRetryable(t *testing.T) {
	h := &bskyHandler{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/xrpc/com.atproto.server.createSession" {
			h.ServeHTTP(w, r)
			return
		}
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error":"RateLimitExceeded","message":"slow down"}`)
	}))
	defer srv.Close()
	h.t = t

	b := NewBluesky("alice.test", "pw", srv.URL)
	if err := b.Authenticate(context.Background()); err != nil {
		t.Fatalf("authenticate: %v", err)
	}

	_, err := b.ListPosts(context.Background(), time.Now().Add(-time.Hour), time.Now(), 0)
	if !IsRateLimit(err) {
		t.Fatalf("expected rate limit error, got %v", err)
	}
}

func TestBlueskyRecordKey(t *testing.T) {
	tests := []struct {
		id         string
		collection string
		rkey       string
		wantErr    bool
	}{
		{"at://did:plc:alice/app.bsky.feed.post/3b", "app.bsky.feed.post", "3b", false},
		{"3b", "app.bsky.feed.post", "3b", false},
		{"not/a/uri", "", "", true},
	}
	for _, tt := range tests {
		collection, rkey, err := blueskyRecordKey(tt.id)
		if tt.wantErr {
			if err == nil {
				t.Errorf("%q: expected error", tt.id)
			}
			continue
		}
		if err != nil {
			t.Errorf("%q: %v", tt.id, err)
			continue
		}
		if collection != tt.collection || rkey != tt.rkey {
			t.Errorf("%q: got (%q, %q), want (%q, %q)", tt.id, collection, rkey, tt.collection, tt.rkey)
		}
	}
}

func asAuthError(err error, target **AuthError) bool {
	if err == nil {
		return false
	}
	ae, ok := err.(*AuthError)
	if ok {
		*target = ae
	}
	return ok
}
