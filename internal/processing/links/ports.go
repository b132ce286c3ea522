package links

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound            = errors.New("link not found")
	ErrExpired             = errors.New("link expired")
	ErrInvalidURL          = errors.New("invalid url")
	ErrUnreachableURL      = errors.New("target url unreachable")
	ErrAliasTaken          = errors.New("alias taken")
	ErrDuplicateAlias      = errors.New("alias already claimed")
	ErrForbidden           = errors.New("not the link owner")
	ErrGenerationExhausted = errors.New("alias generation exhausted")
)

// LinkRepository is the authoritative persistent store for links.
type LinkRepository interface {
	Exists(ctx context.Context, alias string) (bool, error)
	// Insert persists a new link. Returns ErrDuplicateAlias when a concurrent
	// insert already claimed the alias (unique constraint).
	Insert(ctx context.Context, link *Link) error
	FindByAlias(ctx context.Context, alias string) (*Link, error)
	// FindActiveByAliasAndIncClick atomically gates on expiry and advances the
	// click counter: the returned link is guaranteed non-expired at `at` and
	// its counter already includes this resolution. Returns ErrExpired without
	// touching the counter when the row exists but is past its expiry.
	FindActiveByAliasAndIncClick(ctx context.Context, alias string, at time.Time) (*Link, error)
	IncrementClicks(ctx context.Context, alias string) error
	UpdateURL(ctx context.Context, alias, newURL string) error
	DeleteByAlias(ctx context.Context, alias string) (bool, error)
	FindByOriginalURL(ctx context.Context, originalURL string) ([]*Link, error)
	DeleteExpired(ctx context.Context, before time.Time) ([]string, error)
	DeleteStale(ctx context.Context, createdBefore time.Time, maxClicks int64) ([]string, error)
}

// ResolutionCache is a best-effort alias to URL accelerator. It carries no
// expiry or ownership knowledge beyond the TTL handed to Set.
type ResolutionCache interface {
	Get(ctx context.Context, alias string) (url string, ok bool, err error)
	Set(ctx context.Context, alias, url string, ttl time.Duration) error
	Delete(ctx context.Context, alias string) error
}

// AliasSource produces random alias candidates.
type AliasSource interface {
	Generate(length int) (string, error)
}

// ClickOutbox records served redirects for the async analytics pipeline.
type ClickOutbox interface {
	EnqueueClick(ctx context.Context, alias string, at time.Time) error
}

// TargetChecker probes whether a target URL is reachable.
type TargetChecker interface {
	Check(ctx context.Context, url string) error
}
