package links

import "time"

// Link maps a short alias to its target URL. The persistent store is the
// source of truth for every field; the resolution cache only ever holds the
// alias to OriginalURL projection.
type Link struct {
	Alias       string
	OriginalURL string
	OwnerID     *int64
	CreatedAt   time.Time
	ExpiresAt   *time.Time
	Clicks      int64
}

// Expired reports whether the link is past its expiry at the given instant.
// Links without an expiry never expire.
func (l *Link) Expired(at time.Time) bool {
	return l.ExpiresAt != nil && at.UTC().After(l.ExpiresAt.UTC())
}

// DailyCount is one day of aggregated clicks for an alias.
type DailyCount struct {
	Date  string
	Count int64
}

type CreateLinkInput struct {
	OriginalURL string
	CustomAlias string
	ExpiresAt   *time.Time
	OwnerID     *int64
}
