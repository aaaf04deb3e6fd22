package tracker

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"food-log/internal/models"
)

// Recommendations returns the current list. It is empty until the first
// refresh completes.
func (t *Tracker) Recommendations() []models.Recommendation {
	t.recMu.RLock()
	defer t.recMu.RUnlock()
	return append([]models.Recommendation{}, t.recs...)
}

// Refreshing reports whether any refresh is still in flight.
func (t *Tracker) Refreshing() bool {
	t.recMu.RLock()
	defer t.recMu.RUnlock()
	return t.refreshing > 0
}

// RefreshRecommendations regenerates recommendations from today's foods.
// The most recently started refresh wins: a result that arrives after a newer
// one has been applied is dropped. Returns the list current once this
// refresh settles. A refresh whose ctx ends before it finishes applies
// nothing and returns the ctx error.
func (t *Tracker) RefreshRecommendations(ctx context.Context) ([]models.Recommendation, error) {
	t.recMu.Lock()
	t.started++
	seq := t.started
	t.refreshing++
	t.recMu.Unlock()

	defer func() {
		t.recMu.Lock()
		t.refreshing--
		t.recMu.Unlock()
	}()

	entries, err := t.store.GetFoodsByDate(ctx, t.now())
	if err != nil {
		return nil, fmt.Errorf("failed to get today's foods: %w", err)
	}

	recs := t.engine.Generate(ctx, entries)
	if err := ctx.Err(); err != nil {
		t.logger.Debug("discarding cancelled refresh", zap.Uint64("refresh", seq), zap.Error(err))
		return nil, err
	}

	t.recMu.Lock()
	defer t.recMu.Unlock()
	if seq > t.applied {
		t.recs = recs
		t.applied = seq
	} else {
		t.logger.Debug("dropping stale recommendations", zap.Uint64("refresh", seq), zap.Uint64("applied", t.applied))
	}
	return append([]models.Recommendation{}, t.recs...), nil
}

// RefreshAsync starts a refresh tied to the tracker's lifetime. Close waits
// for it.
func (t *Tracker) RefreshAsync() {
	t.bg.Add(1)
	go func() {
		defer t.bg.Done()
		_, err := t.RefreshRecommendations(t.bgCtx)
		if err != nil && !errors.Is(err, context.Canceled) {
			t.logger.Warn("background recommendation refresh failed", zap.Error(err))
		}
	}()
}
