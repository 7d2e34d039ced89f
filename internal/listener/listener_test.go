package listener

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/outpasshq/notify/internal/models"
	"github.com/outpasshq/notify/internal/store"
)

type captureHandler struct {
	ch chan models.Notification
}

func newCaptureHandler() *captureHandler {
	return &captureHandler{ch: make(chan models.Notification, 16)}
}

func (c *captureHandler) Handle(_ context.Context, n models.Notification) { c.ch <- n }

func (c *captureHandler) next(t *testing.T) models.Notification {
	t.Helper()
	select {
	case n := <-c.ch:
		return n
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for notification")
		return models.Notification{}
	}
}

func (c *captureHandler) expectNone(t *testing.T) {
	t.Helper()
	select {
	case n := <-c.ch:
		t.Fatalf("unexpected notification: %+v", n)
	case <-time.After(50 * time.Millisecond):
	}
}

func startManager(t *testing.T, session models.Session) (*Manager, *store.Memory, *captureHandler) {
	t.Helper()
	mem := store.NewMemory(zerolog.Nop())
	h := newCaptureHandler()
	m := NewManager(session, mem, h, zerolog.Nop())
	m.Start(context.Background())
	t.Cleanup(m.Stop)
	return m, mem, h
}

func TestLifecycle(t *testing.T) {
	mem := store.NewMemory(zerolog.Nop())
	m := NewManager(models.Session{UserID: "u1", Role: models.RoleStudent}, mem, newCaptureHandler(), zerolog.Nop())

	assert.Equal(t, StateUninitialized, m.State())
	m.Start(context.Background())
	assert.Equal(t, StateActive, m.State())
	m.Stop()
	assert.Equal(t, StateTornDown, m.State())
}

func TestStudentSeesDecision(t *testing.T) {
	session := models.Session{UserID: "u1", Username: "asha", Role: models.RoleStudent}
	_, mem, h := startManager(t, session)

	id, err := mem.CreateOutpass(context.Background(), models.Outpass{
		StudentUsername: "asha",
		StudentName:     "Asha",
		MentorName:      "Dr. Rao",
		FromDate:        "2026-09-01",
		Status:          models.OutpassStatusPending,
	})
	require.NoError(t, err)

	// Pending creation is not a decision yet.
	h.expectNone(t)

	require.NoError(t, mem.UpdateOutpass(context.Background(), id, map[string]interface{}{
		"status":          string(models.OutpassStatusApproved),
		"mentor_comments": "have fun",
	}))

	n := h.next(t)
	assert.Equal(t, models.NotificationTypeStatusChanged, n.Type)
	assert.Equal(t, "u1", n.RecipientID)
	assert.Equal(t, id, n.SourceEventID)
	assert.Equal(t, string(models.OutpassStatusApproved), n.Status)
	assert.Equal(t, "have fun", n.Comments)
}

func TestMentorSeesNewPendingSubmission(t *testing.T) {
	session := models.Session{UserID: "m1", Username: "rao", Name: "Dr. Rao", Role: models.RoleMentor}
	_, mem, h := startManager(t, session)

	// Assigned to a different mentor: invisible.
	_, err := mem.CreateOutpass(context.Background(), models.Outpass{
		StudentUsername: "other", MentorName: "Someone Else", Status: models.OutpassStatusPending,
	})
	require.NoError(t, err)

	id, err := mem.CreateOutpass(context.Background(), models.Outpass{
		StudentUsername: "asha",
		StudentName:     "Asha",
		MentorName:      "Dr. Rao",
		Status:          models.OutpassStatusPending,
	})
	require.NoError(t, err)

	n := h.next(t)
	assert.Equal(t, models.NotificationTypeNewSubmission, n.Type)
	assert.Equal(t, "m1", n.RecipientID)
	assert.Equal(t, id, n.SourceEventID)
	assert.Equal(t, "Asha", n.StudentName)
}

func TestAdminSeesLatestActivity(t *testing.T) {
	session := models.Session{UserID: "a1", Username: "admin", Role: models.RoleAdmin}
	_, mem, h := startManager(t, session)

	id, err := mem.CreateOutpass(context.Background(), models.Outpass{
		StudentUsername: "asha", MentorName: "Dr. Rao", Status: models.OutpassStatusPending,
	})
	require.NoError(t, err)

	n := h.next(t)
	assert.Equal(t, models.NotificationTypeAdminActivity, n.Type)
	assert.Equal(t, id, n.SourceEventID)
}

func TestInboxRecordForwarded(t *testing.T) {
	session := models.Session{UserID: "u1", Username: "asha", Role: models.RoleStudent}
	_, mem, h := startManager(t, session)

	id, err := mem.PushNotification(context.Background(), models.Notification{
		RecipientID: "u1",
		Type:        models.NotificationTypeAdminActivity,
		Title:       "Heads up",
		Message:     "Store maintenance tonight",
	})
	require.NoError(t, err)

	n := h.next(t)
	assert.Equal(t, id, n.ID)
	assert.Equal(t, "u1", n.RecipientID)
	assert.Equal(t, "Heads up", n.Title)
}

func TestStartTwiceIsNoop(t *testing.T) {
	session := models.Session{UserID: "u1", Username: "asha", Role: models.RoleStudent}
	m, _, _ := startManager(t, session)
	m.Start(context.Background())
	assert.Equal(t, StateActive, m.State())
}
