package tracker

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/outpasshq/notify/internal/models"
)

func TestHistoryCapEvictsOldest(t *testing.T) {
	h := NewHistory(50, "", zerolog.Nop())

	for i := 0; i < 51; i++ {
		h.Push(models.Notification{ID: fmt.Sprintf("n%d", i), Type: models.NotificationTypeReminder})
	}

	items := h.Items()
	require.Len(t, items, 50)
	assert.Equal(t, "n50", items[0].ID, "most recent first")
	assert.Equal(t, "n1", items[49].ID, "oldest entry evicted")
}

func TestHistoryUnreadBadge(t *testing.T) {
	h := NewHistory(10, "", zerolog.Nop())
	h.Push(models.Notification{ID: "a"})
	h.Push(models.Notification{ID: "b"})
	assert.Equal(t, 2, h.UnreadCount())

	h.MarkRead("a")
	assert.Equal(t, 1, h.UnreadCount())

	// Marking the same record again does not go negative.
	h.MarkRead("a")
	assert.Equal(t, 1, h.UnreadCount())

	h.Clear()
	assert.Equal(t, 0, h.UnreadCount())
	assert.Zero(t, h.Len())
}

func TestHistoryPersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")

	h := NewHistory(10, path, zerolog.Nop())
	h.Push(models.Notification{ID: "a", Message: "first"})
	h.Push(models.Notification{ID: "b", Message: "second"})

	reloaded := NewHistory(10, path, zerolog.Nop())
	items := reloaded.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "b", items[0].ID)
	assert.Equal(t, "a", items[1].ID)
}

func TestHistoryCorruptFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	h := NewHistory(10, path, zerolog.Nop())
	assert.Zero(t, h.Len())
}
