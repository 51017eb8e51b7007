package platform

import (
	"errors"
	"fmt"
	"time"
)

// AuthError means credentials could not be exchanged for a session.
// Fatal for the affected platform; other platforms continue.
type AuthError struct {
	Platform string
	Err      error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s: authentication failed: %v", e.Platform, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// RateLimitError is a retryable platform response. RetryAfter is the
// server-suggested wait, zero when the platform gave none.
type RateLimitError struct {
	RetryAfter time.Duration
	Err        error
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited: %v", e.Err)
}

func (e *RateLimitError) Unwrap() error { return e.Err }

// DeleteError means a single post could not be deleted. Recorded per post;
// the run continues with the next post.
type DeleteError struct {
	Platform string
	PostID   string
	Err      error
}

func (e *DeleteError) Error() string {
	return fmt.Sprintf("%s: delete %s: %v", e.Platform, e.PostID, e.Err)
}

func (e *DeleteError) Unwrap() error { return e.Err }

// IsRateLimit reports whether err is (or wraps) a RateLimitError.
func IsRateLimit(err error) bool {
	var rl *RateLimitError
	return errors.As(err, &rl)
}
