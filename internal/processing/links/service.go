package links

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/dukedaW/shortlinks/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// Service orchestrates alias generation, the persistent store, the
// resolution cache and the ownership guard.
type Service struct {
	repo    LinkRepository
	cache   ResolutionCache
	guard   *OwnershipGuard
	aliases AliasSource
	outbox  ClickOutbox   // optional
	checker TargetChecker // optional

	aliasLength int
	maxAttempts int
	defaultTTL  time.Duration
	cacheTTL    time.Duration
	now         func() time.Time
}

type ServiceOptions struct {
	// AliasLength is the length of generated aliases.
	AliasLength int
	// MaxAttempts caps the uniqueness probing loop for generated aliases.
	MaxAttempts int
	// DefaultTTL is applied at creation when the caller supplies no expiry.
	// Zero disables the default and the link never expires.
	DefaultTTL time.Duration
	// CacheTTL bounds cache entries for links without an expiry. Entries for
	// expiring links always use the remaining lifetime instead.
	CacheTTL time.Duration
	// Outbox, when set, records served redirects for the analytics pipeline.
	Outbox ClickOutbox
	// Checker, when set, probes target URLs at creation time.
	Checker TargetChecker
}

func NewService(repo LinkRepository, cache ResolutionCache, aliases AliasSource, opts ServiceOptions) *Service {
	if opts.AliasLength <= 0 {
		opts.AliasLength = DefaultAliasLength
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 10
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = time.Hour
	}

	return &Service{
		repo:        repo,
		cache:       cache,
		guard:       NewOwnershipGuard(repo),
		aliases:     aliases,
		outbox:      opts.Outbox,
		checker:     opts.Checker,
		aliasLength: opts.AliasLength,
		maxAttempts: opts.MaxAttempts,
		defaultTTL:  opts.DefaultTTL,
		cacheTTL:    opts.CacheTTL,
		now:         time.Now,
	}
}

// Shorten creates a new link. The persistent store is written first; the
// cache is populated only after the insert succeeds, and a cache write
// failure never fails the creation.
func (s *Service) Shorten(ctx context.Context, in CreateLinkInput) (*Link, error) {
	normalizedURL, err := validateAndNormalizeURL(in.OriginalURL)
	if err != nil {
		return nil, ErrInvalidURL
	}

	if s.checker != nil {
		if err := s.checker.Check(ctx, normalizedURL); err != nil {
			return nil, ErrUnreachableURL
		}
	}

	alias, err := s.pickAlias(ctx, in.CustomAlias)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	expiresAt := in.ExpiresAt
	if expiresAt == nil && s.defaultTTL > 0 {
		t := now.Add(s.defaultTTL)
		expiresAt = &t
	}

	link := &Link{
		Alias:       alias,
		OriginalURL: normalizedURL,
		OwnerID:     in.OwnerID,
		CreatedAt:   now,
		ExpiresAt:   expiresAt,
	}

	if err := s.repo.Insert(ctx, link); err != nil {
		return nil, err
	}

	s.repairCache(ctx, link)
	return link, nil
}

// pickAlias normalizes a caller-supplied candidate or draws random aliases
// until one is unused. The probing loop is bounded; the store's unique
// constraint remains the backstop for the check-then-insert race.
func (s *Service) pickAlias(ctx context.Context, custom string) (string, error) {
	if candidate := normalizeAlias(custom); candidate != "" {
		taken, err := s.repo.Exists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if taken {
			return "", ErrAliasTaken
		}
		return candidate, nil
	}

	for range s.maxAttempts {
		candidate, err := s.aliases.Generate(s.aliasLength)
		if err != nil {
			return "", err
		}
		taken, err := s.repo.Exists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}

	return "", ErrGenerationExhausted
}

// Resolve turns an alias into its target URL for a redirect. Cache hits are
// served without re-checking expiry: entry TTLs are capped at the remaining
// link lifetime when written, which bounds the staleness window. On a miss
// the store gates expiry and advances the counter in one step, then the
// cache is repaired.
func (s *Service) Resolve(ctx context.Context, alias string) (string, error) {
	alias = strings.TrimSpace(alias)
	if alias == "" {
		return "", ErrNotFound
	}

	cached, ok, err := s.cache.Get(ctx, alias)
	if err != nil {
		logger.Warn("cache read failed, falling back to store", zap.Error(err), zap.String("alias", alias))
	}
	if ok {
		if err := s.repo.IncrementClicks(ctx, alias); err != nil {
			logger.Warn("click increment failed on cache hit", zap.Error(err), zap.String("alias", alias))
		} else {
			s.enqueueClick(ctx, alias)
		}
		return cached, nil
	}

	link, err := s.repo.FindActiveByAliasAndIncClick(ctx, alias, s.now().UTC())
	if err != nil {
		return "", err
	}

	s.repairCache(ctx, link)
	s.enqueueClick(ctx, alias)
	return link.OriginalURL, nil
}

// UpdateURL changes the target of an owned link. The store write comes
// first; the cache is then refreshed so stale targets are not served for
// longer than a failed delete.
func (s *Service) UpdateURL(ctx context.Context, alias, newURL string, actorID *int64) (*Link, error) {
	normalizedURL, err := validateAndNormalizeURL(newURL)
	if err != nil {
		return nil, ErrInvalidURL
	}

	link, err := s.guard.Authorize(ctx, strings.TrimSpace(alias), actorID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateURL(ctx, link.Alias, normalizedURL); err != nil {
		return nil, err
	}

	link.OriginalURL = normalizedURL
	if err := s.cache.Set(ctx, link.Alias, normalizedURL, s.cacheTTLFor(link)); err != nil {
		logger.Warn("cache refresh failed after url update, invalidating", zap.Error(err), zap.String("alias", link.Alias))
		if delErr := s.cache.Delete(ctx, link.Alias); delErr != nil {
			logger.Error("cache invalidation failed after url update", zap.Error(delErr), zap.String("alias", link.Alias))
		}
	}

	return link, nil
}

// Delete removes an owned link from the store and invalidates its cache
// entry.
func (s *Service) Delete(ctx context.Context, alias string, actorID *int64) error {
	link, err := s.guard.Authorize(ctx, strings.TrimSpace(alias), actorID)
	if err != nil {
		return err
	}

	deleted, err := s.repo.DeleteByAlias(ctx, link.Alias)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrNotFound
	}

	if err := s.cache.Delete(ctx, link.Alias); err != nil {
		logger.Warn("cache invalidation failed after delete", zap.Error(err), zap.String("alias", link.Alias))
	}

	return nil
}

// Stats returns the stored link for the stats endpoint. Expired links keep
// their row until deleted, so stats stay readable past expiry.
func (s *Service) Stats(ctx context.Context, alias string) (*Link, error) {
	alias = strings.TrimSpace(alias)
	if alias == "" {
		return nil, ErrNotFound
	}
	return s.repo.FindByAlias(ctx, alias)
}

// Search lists links pointing at the given original URL. An empty result is
// not an error; the boundary layer decides how to surface it.
func (s *Service) Search(ctx context.Context, originalURL string) ([]*Link, error) {
	originalURL = strings.TrimSpace(originalURL)
	if originalURL == "" {
		return nil, nil
	}
	return s.repo.FindByOriginalURL(ctx, originalURL)
}

// repairCache writes a store-confirmed value into the cache. Failures are
// logged, never surfaced: the cache is a derived projection and the store
// already holds the truth.
func (s *Service) repairCache(ctx context.Context, link *Link) {
	ttl := s.cacheTTLFor(link)
	if ttl <= 0 {
		return
	}
	if err := s.cache.Set(ctx, link.Alias, link.OriginalURL, ttl); err != nil {
		logger.Warn("cache repair failed", zap.Error(err), zap.String("alias", link.Alias))
	}
}

// cacheTTLFor caps the entry lifetime at the remaining link lifetime, so an
// entry can never outlive its link by more than the clock skew between the
// cache and the store.
func (s *Service) cacheTTLFor(link *Link) time.Duration {
	if link.ExpiresAt == nil {
		return s.cacheTTL
	}
	remaining := link.ExpiresAt.UTC().Sub(s.now().UTC())
	if remaining <= 0 {
		return 0
	}
	if remaining > s.cacheTTL {
		return s.cacheTTL
	}
	return remaining
}

func (s *Service) enqueueClick(ctx context.Context, alias string) {
	if s.outbox == nil {
		return
	}
	if err := s.outbox.EnqueueClick(ctx, alias, s.now().UTC()); err != nil {
		logger.Warn("failed to enqueue click event", zap.Error(err), zap.String("alias", alias))
	}
}

func validateAndNormalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrInvalidURL
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return "", ErrInvalidURL
	}
	if strings.TrimSpace(u.Host) == "" {
		return "", ErrInvalidURL
	}

	u.Fragment = ""
	return u.String(), nil
}
