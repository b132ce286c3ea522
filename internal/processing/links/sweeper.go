package links

import (
	"context"
	"time"

	"github.com/dukedaW/shortlinks/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// Sweeper periodically reclaims expired rows and stale low-traffic rows,
// invalidating their cache entries. It leans on the store's
// (created_at, clicks) index for the staleness scan.
type Sweeper struct {
	repo  LinkRepository
	cache ResolutionCache

	interval       time.Duration
	staleAge       time.Duration
	staleMaxClicks int64
	now            func() time.Time
}

type SweeperOptions struct {
	// Interval between sweeps.
	Interval time.Duration
	// StaleAge is the minimum age before a low-traffic link is reclaimed.
	// Zero disables the staleness sweep; expired rows are always reclaimed.
	StaleAge time.Duration
	// StaleMaxClicks is the click ceiling below which an old link counts as
	// low-traffic.
	StaleMaxClicks int64
}

func NewSweeper(repo LinkRepository, cache ResolutionCache, opts SweeperOptions) *Sweeper {
	if opts.Interval <= 0 {
		opts.Interval = time.Minute
	}
	return &Sweeper{
		repo:           repo,
		cache:          cache,
		interval:       opts.Interval,
		staleAge:       opts.StaleAge,
		staleMaxClicks: opts.StaleMaxClicks,
		now:            time.Now,
	}
}

// Run sweeps on a fixed interval until the context is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("link sweeper stopping")
			return
		case <-ticker.C:
			removed, err := s.SweepOnce(ctx)
			if err != nil {
				logger.Error("link sweep failed", zap.Error(err))
				continue
			}
			if removed > 0 {
				logger.Info("link sweep completed", zap.Int("removed", removed))
			}
		}
	}
}

// SweepOnce performs a single sweep and returns the number of rows removed.
func (s *Sweeper) SweepOnce(ctx context.Context) (int, error) {
	now := s.now().UTC()

	aliases, err := s.repo.DeleteExpired(ctx, now)
	if err != nil {
		return 0, err
	}

	if s.staleAge > 0 {
		stale, err := s.repo.DeleteStale(ctx, now.Add(-s.staleAge), s.staleMaxClicks)
		if err != nil {
			s.invalidate(ctx, aliases)
			return len(aliases), err
		}
		aliases = append(aliases, stale...)
	}

	s.invalidate(ctx, aliases)
	return len(aliases), nil
}

func (s *Sweeper) invalidate(ctx context.Context, aliases []string) {
	for _, alias := range aliases {
		if err := s.cache.Delete(ctx, alias); err != nil {
			logger.Warn("cache invalidation failed during sweep", zap.Error(err), zap.String("alias", alias))
		}
	}
}
