package links

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"
)

func TestSweepOnce_RemovesExpiredAndStale(t *testing.T) {
	var expiredBefore, staleBefore time.Time
	var staleMax int64
	repo := &mockLinkRepo{
		deleteExpiredFn: func(_ context.Context, before time.Time) ([]string, error) {
			expiredBefore = before
			return []string{"old1", "old2"}, nil
		},
		deleteStaleFn: func(_ context.Context, createdBefore time.Time, maxClicks int64) ([]string, error) {
			staleBefore = createdBefore
			staleMax = maxClicks
			return []string{"quiet"}, nil
		},
	}
	cache := newMockCache()

	sweeper := NewSweeper(repo, cache, SweeperOptions{StaleAge: 24 * time.Hour, StaleMaxClicks: 5})
	sweeper.now = func() time.Time { return testNow }

	removed, err := sweeper.SweepOnce(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if removed != 3 {
		t.Errorf("got %d removed, want 3", removed)
	}
	if !expiredBefore.Equal(testNow) {
		t.Errorf("expired cutoff %v, want %v", expiredBefore, testNow)
	}
	if want := testNow.Add(-24 * time.Hour); !staleBefore.Equal(want) {
		t.Errorf("stale cutoff %v, want %v", staleBefore, want)
	}
	if staleMax != 5 {
		t.Errorf("stale click ceiling %d, want 5", staleMax)
	}

	sort.Strings(cache.deleted)
	want := []string{"old1", "old2", "quiet"}
	if len(cache.deleted) != len(want) {
		t.Fatalf("invalidated %v, want %v", cache.deleted, want)
	}
	for i, alias := range want {
		if cache.deleted[i] != alias {
			t.Errorf("invalidated %v, want %v", cache.deleted, want)
			break
		}
	}
}

func TestSweepOnce_StaleSweepDisabled(t *testing.T) {
	var staleCalled bool
	repo := &mockLinkRepo{
		deleteExpiredFn: func(_ context.Context, _ time.Time) ([]string, error) {
			return []string{"old"}, nil
		},
		deleteStaleFn: func(_ context.Context, _ time.Time, _ int64) ([]string, error) {
			staleCalled = true
			return nil, nil
		},
	}

	sweeper := NewSweeper(repo, newMockCache(), SweeperOptions{})
	sweeper.now = func() time.Time { return testNow }

	removed, err := sweeper.SweepOnce(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if removed != 1 {
		t.Errorf("got %d removed, want 1", removed)
	}
	if staleCalled {
		t.Error("expected no staleness sweep when StaleAge is zero")
	}
}

func TestSweepOnce_StaleErrorStillInvalidatesExpired(t *testing.T) {
	repo := &mockLinkRepo{
		deleteExpiredFn: func(_ context.Context, _ time.Time) ([]string, error) {
			return []string{"old"}, nil
		},
		deleteStaleFn: func(_ context.Context, _ time.Time, _ int64) ([]string, error) {
			return nil, errors.New("deadlock detected")
		},
	}
	cache := newMockCache()

	sweeper := NewSweeper(repo, cache, SweeperOptions{StaleAge: time.Hour})
	sweeper.now = func() time.Time { return testNow }

	removed, err := sweeper.SweepOnce(context.Background())
	if err == nil {
		t.Fatal("expected the stale sweep error to surface")
	}
	if removed != 1 {
		t.Errorf("got %d removed, want 1", removed)
	}
	if len(cache.deleted) != 1 || cache.deleted[0] != "old" {
		t.Errorf("expected expired alias invalidated despite the error, got %v", cache.deleted)
	}
}
