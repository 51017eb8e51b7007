package platform

import (
	"context"
	"errors"
	"time"
)

// TwitterAdapter is a placeholder for Twitter/X. Credentials are accepted and
// validated so the config surface is stable, but authentication reports the
// platform as unsupported until the v2 API integration lands.
type TwitterAdapter struct {
	apiKey       string
	apiSecret    string
	accessToken  string
	accessSecret string
}

// NewTwitter creates the Twitter adapter stub.
func NewTwitter(apiKey, apiSecret, accessToken, accessSecret string) *TwitterAdapter {
	return &TwitterAdapter{
		apiKey:       apiKey,
		apiSecret:    apiSecret,
		accessToken:  accessToken,
		accessSecret: accessSecret,
	}
}

func (t *TwitterAdapter) Name() string { return Twitter }

func (t *TwitterAdapter) Configured() bool {
	return t.apiKey != "" && t.apiSecret != "" && t.accessToken != "" && t.accessSecret != ""
}

func (t *TwitterAdapter) Authenticate(ctx context.Context) error {
	return &AuthError{Platform: Twitter, Err: errors.New("twitter support is not implemented yet")}
}

func (t *TwitterAdapter) ListPosts(ctx context.Context, start, end time.Time, limit int) ([]Post, error) {
	return nil, &AuthError{Platform: Twitter, Err: errors.New("not authenticated")}
}

func (t *TwitterAdapter) DeletePost(ctx context.Context, id string) error {
	return &AuthError{Platform: Twitter, Err: errors.New("not authenticated")}
}
