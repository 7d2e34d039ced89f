// Package tracker owns delivery state: session-scoped deduplication,
// idempotent delivered flags written back to the store, and the bounded
// local history.
package tracker

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/outpasshq/notify/internal/models"
	"github.com/outpasshq/notify/internal/store"
)

type Tracker struct {
	store   store.Store
	history *History
	logger  zerolog.Logger

	mu        sync.Mutex
	seen      map[string]struct{}
	delivered map[string]struct{}
}

func New(st store.Store, history *History, logger zerolog.Logger) *Tracker {
	return &Tracker{
		store:     st,
		history:   history,
		logger:    logger.With().Str("component", "tracker").Logger(),
		seen:      make(map[string]struct{}),
		delivered: make(map[string]struct{}),
	}
}

// Deduplicate reports whether this notification's dedup key was already
// processed this session, and records it if not. Duplicates are dropped
// before any channel fan-out.
func (t *Tracker) Deduplicate(n models.Notification) bool {
	// Producer-pushed records carry no source event; each one is its own
	// delivery and never collides with another.
	if n.SourceEventID == "" {
		return false
	}

	key := n.DedupKey()
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.seen[key]; ok {
		t.logger.Debug().Str("dedup_key", key).Msg("duplicate notification dropped")
		return true
	}
	t.seen[key] = struct{}{}
	return false
}

// RecordDelivered writes delivered=true plus a delivery timestamp to the
// store, once. Repeat calls for the same id are no-ops, so the first
// delivery's timestamp wins.
func (t *Tracker) RecordDelivered(ctx context.Context, recipientID, id string) {
	if id == "" {
		return
	}
	t.mu.Lock()
	if _, ok := t.delivered[id]; ok {
		t.mu.Unlock()
		return
	}
	t.delivered[id] = struct{}{}
	t.mu.Unlock()

	err := t.store.UpdateNotification(ctx, recipientID, id, map[string]interface{}{
		"delivered":    true,
		"delivered_at": time.Now(),
	})
	if err != nil {
		t.logger.Warn().Err(err).Str("notification_id", id).Msg("failed to record delivery")
	}
}

// Delivered reports whether RecordDelivered already ran for an id.
func (t *Tracker) Delivered(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.delivered[id]
	return ok
}

func (t *Tracker) PushHistory(n models.Notification) { t.history.Push(n) }
func (t *Tracker) ClearHistory()                     { t.history.Clear() }
func (t *Tracker) History() *History                 { return t.history }
