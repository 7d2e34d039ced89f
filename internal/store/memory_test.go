package store

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/outpasshq/notify/internal/models"
)

func recvOutpass(t *testing.T, ch <-chan OutpassEvent) OutpassEvent {
	t.Helper()
	select {
	case ev, ok := <-ch:
		require.True(t, ok, "stream closed unexpectedly")
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for outpass event")
		return OutpassEvent{}
	}
}

func recvInbox(t *testing.T, ch <-chan InboxEvent) InboxEvent {
	t.Helper()
	select {
	case ev, ok := <-ch:
		require.True(t, ok, "stream closed unexpectedly")
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for inbox event")
		return InboxEvent{}
	}
}

func TestMemoryListRecentNotifications(t *testing.T) {
	m := NewMemory(zerolog.Nop())
	ctx := context.Background()

	base := time.Now()
	for i := 0; i < 3; i++ {
		_, err := m.PushNotification(ctx, models.Notification{
			RecipientID: "u1",
			Type:        models.NotificationTypeReminder,
			Message:     string(rune('a' + i)),
			CreatedAt:   base.Add(time.Duration(i) * time.Second),
		})
		require.NoError(t, err)
	}

	list, err := m.ListRecentNotifications(ctx, "u1", 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "c", list[0].Message, "most recent first")
	assert.Equal(t, "b", list[1].Message)
}

func TestMemoryInboxSubscription(t *testing.T) {
	m := NewMemory(zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := m.SubscribeInbox(ctx, "u1")
	require.NoError(t, err)

	// A record for another recipient stays invisible.
	_, err = m.PushNotification(context.Background(), models.Notification{RecipientID: "u2", Type: models.NotificationTypeReminder})
	require.NoError(t, err)

	id, err := m.PushNotification(context.Background(), models.Notification{
		RecipientID: "u1",
		Type:        models.NotificationTypeStatusChanged,
		Message:     "for u1",
	})
	require.NoError(t, err)

	ev := recvInbox(t, ch)
	assert.Equal(t, id, ev.Key)
	assert.Equal(t, "for u1", ev.Record.Message)
}

func TestMemoryOutpassCreatedFilter(t *testing.T) {
	m := NewMemory(zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := m.SubscribeOutpassCreated(ctx, "mentor_name", "Dr. Rao")
	require.NoError(t, err)

	_, err = m.CreateOutpass(context.Background(), models.Outpass{StudentUsername: "s1", MentorName: "Someone Else"})
	require.NoError(t, err)
	id, err := m.CreateOutpass(context.Background(), models.Outpass{StudentUsername: "s2", MentorName: "Dr. Rao"})
	require.NoError(t, err)

	ev := recvOutpass(t, ch)
	assert.Equal(t, id, ev.Key)
	assert.Equal(t, "s2", ev.Outpass.StudentUsername)
}

func TestMemoryOutpassChangedFilter(t *testing.T) {
	m := NewMemory(zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	id, err := m.CreateOutpass(context.Background(), models.Outpass{
		StudentUsername: "asha",
		Status:          models.OutpassStatusPending,
	})
	require.NoError(t, err)

	ch, err := m.SubscribeOutpassChanged(ctx, "student_username", "asha")
	require.NoError(t, err)

	require.NoError(t, m.UpdateOutpass(context.Background(), id, map[string]interface{}{
		"status":          string(models.OutpassStatusApproved),
		"mentor_comments": "enjoy",
	}))

	ev := recvOutpass(t, ch)
	assert.Equal(t, models.OutpassStatusApproved, ev.Outpass.Status)
	assert.Equal(t, "enjoy", ev.Outpass.MentorComments)
}

func TestMemoryLatestOutpassReplays(t *testing.T) {
	m := NewMemory(zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	first, err := m.CreateOutpass(context.Background(), models.Outpass{StudentUsername: "s1"})
	require.NoError(t, err)

	ch, err := m.SubscribeLatestOutpass(ctx)
	require.NoError(t, err)

	ev := recvOutpass(t, ch)
	assert.Equal(t, first, ev.Key, "existing newest record replays on subscribe")

	second, err := m.CreateOutpass(context.Background(), models.Outpass{StudentUsername: "s2"})
	require.NoError(t, err)
	ev = recvOutpass(t, ch)
	assert.Equal(t, second, ev.Key)
}

func TestMemorySubscriptionClosesOnCancel(t *testing.T) {
	m := NewMemory(zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())

	ch, err := m.SubscribeInbox(ctx, "u1")
	require.NoError(t, err)

	cancel()
	select {
	case _, ok := <-ch:
		assert.False(t, ok, "channel must close after cancel")
	case <-time.After(time.Second):
		t.Fatal("channel did not close")
	}
}

func TestMemoryUpdateUnknownNotification(t *testing.T) {
	m := NewMemory(zerolog.Nop())
	err := m.UpdateNotification(context.Background(), "u1", "missing", map[string]interface{}{"read": true})
	assert.ErrorIs(t, err, ErrUnavailable)
}
