// Package filter selects the deletion candidate set from listed posts.
// Selection is a pure function of the criteria and the input: no IO, stable
// and deterministic across runs given identical input.
package filter

import (
	"sort"
	"strings"
	"time"

	"github.com/pkallberg/scrub/internal/platform"
)

// Mode controls how the optional keyword and post-ID criteria combine.
// The date range is always mandatory.
type Mode string

const (
	// ModeAny keeps posts matching the keyword OR listed by ID.
	ModeAny Mode = "any"
	// ModeAll keeps only posts matching every specified criterion.
	ModeAll Mode = "all"
)

// Order controls which end of the candidate set survives truncation.
type Order string

const (
	OrderNewest Order = "newest"
	OrderOldest Order = "oldest"
)

// Criteria describes one run's candidate selection.
type Criteria struct {
	Start    time.Time // inclusive
	End      time.Time // inclusive
	Keyword  string    // optional, case-insensitive substring
	PostIDs  []string  // optional, explicit IDs
	Mode     Mode      // how keyword and IDs combine; default ModeAny
	Order    Order     // truncation order; default OrderNewest
	MaxPosts int       // hard cap on the candidate set; <= 0 means no cap
}

// Select returns the posts eligible for deletion, ordered per Criteria.Order
// with post ID as tie-break, truncated to MaxPosts.
func (c Criteria) Select(posts []platform.Post) []platform.Post {
	ids := make(map[string]bool, len(c.PostIDs))
	for _, id := range c.PostIDs {
		ids[id] = true
	}
	keyword := strings.ToLower(strings.TrimSpace(c.Keyword))

	var out []platform.Post
	for _, p := range posts {
		if p.CreatedAt.Before(c.Start) || p.CreatedAt.After(c.End) {
			continue
		}
		if !c.matches(p, keyword, ids) {
			continue
		}
		out = append(out, p)
	}

	oldestFirst := c.Order == OrderOldest
	sort.SliceStable(out, func(i, j int) bool {
		ti, tj := out[i].CreatedAt, out[j].CreatedAt
		if !ti.Equal(tj) {
			if oldestFirst {
				return ti.Before(tj)
			}
			return ti.After(tj)
		}
		return out[i].ID < out[j].ID
	})

	if c.MaxPosts > 0 && len(out) > c.MaxPosts {
		out = out[:c.MaxPosts]
	}
	return out
}

func (c Criteria) matches(p platform.Post, keyword string, ids map[string]bool) bool {
	hasKeyword := keyword != ""
	hasIDs := len(ids) > 0
	if !hasKeyword && !hasIDs {
		return true
	}

	keywordHit := hasKeyword && strings.Contains(strings.ToLower(p.Text), keyword)
	idHit := hasIDs && ids[p.ID]

	if c.Mode == ModeAll {
		return (!hasKeyword || keywordHit) && (!hasIDs || idHit)
	}
	return keywordHit || idHit
}
