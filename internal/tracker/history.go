package tracker

import (
	"encoding/json"
	"os"
	"sync"

	"github.com/rs/zerolog"

	"github.com/outpasshq/notify/internal/models"
)

// History is the bounded local cache of recent notifications, most-recent
// first, persisted best-effort as a JSON array in a local file. Insertion
// beyond the cap evicts the oldest entries; records are never removed
// individually, only cleared in bulk.
type History struct {
	mu     sync.Mutex
	cap    int
	items  []models.Notification
	unread int
	path   string
	logger zerolog.Logger
}

// NewHistory loads any persisted history from path. An empty path disables
// persistence.
func NewHistory(capacity int, path string, logger zerolog.Logger) *History {
	if capacity <= 0 {
		capacity = 50
	}
	h := &History{
		cap:    capacity,
		path:   path,
		logger: logger.With().Str("component", "history").Logger(),
	}
	h.load()
	return h
}

// Push inserts at the head and bumps the unread badge by one.
func (h *History) Push(n models.Notification) {
	h.mu.Lock()
	h.items = append([]models.Notification{n}, h.items...)
	if len(h.items) > h.cap {
		h.items = h.items[:h.cap]
	}
	h.unread++
	h.mu.Unlock()
	h.save()
}

// Clear empties the sequence and resets the unread badge.
func (h *History) Clear() {
	h.mu.Lock()
	h.items = nil
	h.unread = 0
	h.mu.Unlock()
	h.save()
}

// MarkRead flags a history entry and drops the unread badge by one.
func (h *History) MarkRead(id string) {
	h.mu.Lock()
	for i := range h.items {
		if h.items[i].ID == id && !h.items[i].Read {
			h.items[i].Read = true
			if h.unread > 0 {
				h.unread--
			}
			break
		}
	}
	h.mu.Unlock()
	h.save()
}

func (h *History) Items() []models.Notification {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]models.Notification(nil), h.items...)
}

func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.items)
}

func (h *History) UnreadCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.unread
}

func (h *History) load() {
	if h.path == "" {
		return
	}
	data, err := os.ReadFile(h.path)
	if err != nil {
		if !os.IsNotExist(err) {
			h.logger.Warn().Err(err).Msg("history load failed")
		}
		return
	}
	var items []models.Notification
	if err := json.Unmarshal(data, &items); err != nil {
		h.logger.Warn().Err(err).Msg("history file corrupt, starting empty")
		return
	}
	if len(items) > h.cap {
		items = items[:h.cap]
	}
	h.items = items
}

func (h *History) save() {
	if h.path == "" {
		return
	}
	h.mu.Lock()
	data, err := json.Marshal(h.items)
	h.mu.Unlock()
	if err != nil {
		h.logger.Warn().Err(err).Msg("history marshal failed")
		return
	}
	if err := os.WriteFile(h.path, data, 0o600); err != nil {
		h.logger.Warn().Err(err).Msg("history save failed")
	}
}
