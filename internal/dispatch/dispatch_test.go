package dispatch

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/outpasshq/notify/internal/config"
	"github.com/outpasshq/notify/internal/models"
	"github.com/outpasshq/notify/internal/provider"
	"github.com/outpasshq/notify/internal/router"
	"github.com/outpasshq/notify/internal/sink"
	"github.com/outpasshq/notify/internal/store"
	"github.com/outpasshq/notify/internal/tracker"
)

type fakeBackend struct {
	name string

	mu    sync.Mutex
	calls []string
}

func (f *fakeBackend) Name() string { return f.name }

func (f *fakeBackend) Send(_ context.Context, destination, _ string, _ provider.Options) models.DeliveryResult {
	f.mu.Lock()
	f.calls = append(f.calls, destination)
	f.mu.Unlock()
	return models.DeliveryResult{Provider: f.name, Success: true}
}

func (f *fakeBackend) Status(context.Context, string) models.MessageStatus {
	return models.MessageStatusUnknown
}

func (f *fakeBackend) destinations() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

type testRig struct {
	dispatcher *Dispatcher
	tracker    *tracker.Tracker
	store      *store.Memory
	sms        *fakeBackend
	whatsapp   *fakeBackend
}

func newRig(t *testing.T, session models.Session) *testRig {
	t.Helper()
	logger := zerolog.Nop()

	mem := store.NewMemory(logger)
	tr := tracker.New(mem, tracker.NewHistory(50, "", logger), logger)

	hub := sink.NewHub(logger)
	push := sink.NewPushSender(true, "outpass", logger)
	sk := sink.New(hub, push, 5*time.Second, config.RealtimeConfig{Enabled: true, SoundEnabled: true, ShowPopups: true}, logger)

	smsBackend := &fakeBackend{name: "fake-sms"}
	waBackend := &fakeBackend{name: "fake-wa"}
	smsAdapter := provider.NewAdapter(models.ChannelSMS, smsBackend, "91", time.Millisecond, logger)
	waAdapter := provider.NewAdapter(models.ChannelWhatsApp, waBackend, "91", time.Millisecond, logger)

	return &testRig{
		dispatcher: New(session, router.New(), tr, sk, smsAdapter, waAdapter, logger),
		tracker:    tr,
		store:      mem,
		sms:        smsBackend,
		whatsapp:   waBackend,
	}
}

func approvedNotification(id string) models.Notification {
	return models.Notification{
		ID:            id,
		RecipientID:   "u1",
		Type:          models.NotificationTypeStatusChanged,
		SourceEventID: "op1",
		StudentName:   "Asha",
		MentorName:    "Dr. Rao",
		FromDate:      "2026-09-01",
		Status:        string(models.OutpassStatusApproved),
		CreatedAt:     time.Now(),
	}
}

func TestHandleFansOutAllLegs(t *testing.T) {
	session := models.Session{UserID: "u1", Username: "asha", Phone: "9876543210", Role: models.RoleStudent}
	rig := newRig(t, session)
	ctx := context.Background()

	id, err := rig.store.PushNotification(ctx, approvedNotification(""))
	require.NoError(t, err)

	rig.dispatcher.Handle(ctx, approvedNotification(id))
	rig.dispatcher.Wait()

	assert.Equal(t, []string{"919876543210"}, rig.sms.destinations())
	assert.Equal(t, []string{"919876543210"}, rig.whatsapp.destinations())
	assert.Equal(t, 1, rig.tracker.History().Len())
	assert.True(t, rig.tracker.Delivered(id))

	list, err := rig.store.ListRecentNotifications(ctx, "u1", 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].Delivered)
}

func TestHandleDropsDuplicate(t *testing.T) {
	session := models.Session{UserID: "u1", Username: "asha", Phone: "9876543210", Role: models.RoleStudent}
	rig := newRig(t, session)
	ctx := context.Background()

	rig.dispatcher.Handle(ctx, approvedNotification("n1"))
	rig.dispatcher.Handle(ctx, approvedNotification("n1"))
	rig.dispatcher.Wait()

	assert.Len(t, rig.sms.destinations(), 1, "same source event fans out once")
	assert.Equal(t, 1, rig.tracker.History().Len())
}

func TestHandleKeepsDistinctProducerRecords(t *testing.T) {
	session := models.Session{UserID: "a1", Username: "warden", Role: models.RoleAdmin}
	rig := newRig(t, session)
	ctx := context.Background()

	// Producer-pushed records share recipient and type but have no source
	// event. Both must land in history.
	rig.dispatcher.Handle(ctx, models.Notification{
		ID:          "n1",
		RecipientID: "a1",
		Type:        models.NotificationTypeAdminActivity,
		Message:     "first announcement",
		CreatedAt:   time.Now(),
	})
	rig.dispatcher.Handle(ctx, models.Notification{
		ID:          "n2",
		RecipientID: "a1",
		Type:        models.NotificationTypeAdminActivity,
		Message:     "second announcement",
		CreatedAt:   time.Now(),
	})
	rig.dispatcher.Wait()

	assert.Equal(t, 2, rig.tracker.History().Len())
}

func TestHandleSkipsProviderLegsWithoutPhone(t *testing.T) {
	session := models.Session{UserID: "u1", Username: "asha", Role: models.RoleStudent}
	rig := newRig(t, session)

	rig.dispatcher.Handle(context.Background(), approvedNotification("n1"))
	rig.dispatcher.Wait()

	assert.Empty(t, rig.sms.destinations())
	assert.Empty(t, rig.whatsapp.destinations())
	assert.Equal(t, 1, rig.tracker.History().Len(), "in-app leg still runs")
}

func TestHandleUnroutedTypeDoesNothing(t *testing.T) {
	session := models.Session{UserID: "m1", Username: "rao", Phone: "9876543210", Role: models.RoleMentor}
	rig := newRig(t, session)

	// Decisions route to students, not mentors.
	rig.dispatcher.Handle(context.Background(), approvedNotification("n1"))
	rig.dispatcher.Wait()

	assert.Empty(t, rig.sms.destinations())
	assert.Zero(t, rig.tracker.History().Len())
}
