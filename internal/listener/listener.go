// Package listener binds a session to the store's event streams and turns raw
// outpass and inbox events into notifications for the dispatcher. Which
// streams open depends on the session's role; a stream that fails to open is
// logged and stays silent, it never takes the session down.
package listener

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/outpasshq/notify/internal/metrics"
	"github.com/outpasshq/notify/internal/models"
	"github.com/outpasshq/notify/internal/store"
)

// Handler consumes the notifications this listener synthesizes.
type Handler interface {
	Handle(ctx context.Context, n models.Notification)
}

type State string

const (
	StateUninitialized State = "uninitialized"
	StateSubscribing   State = "subscribing"
	StateActive        State = "active"
	StateTornDown      State = "torn_down"
)

// Manager owns the subscription lifecycle for one session.
type Manager struct {
	session models.Session
	store   store.Store
	handler Handler
	logger  zerolog.Logger

	mu     sync.Mutex
	state  State
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewManager(session models.Session, st store.Store, h Handler, logger zerolog.Logger) *Manager {
	return &Manager{
		session: session,
		store:   st,
		handler: h,
		state:   StateUninitialized,
		logger: logger.With().
			Str("component", "listener").
			Str("user", session.Username).
			Str("role", string(session.Role)).
			Logger(),
	}
}

func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Start opens the role's streams and moves the manager to Active. Starting an
// already active manager is a no-op.
func (m *Manager) Start(ctx context.Context) {
	m.mu.Lock()
	if m.state == StateSubscribing || m.state == StateActive {
		m.mu.Unlock()
		return
	}
	m.state = StateSubscribing
	subCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.mu.Unlock()

	m.subscribeInbox(subCtx)
	switch m.session.Role {
	case models.RoleStudent:
		m.subscribeStudent(subCtx)
	case models.RoleMentor:
		m.subscribeMentor(subCtx)
	case models.RoleAdmin:
		m.subscribeAdmin(subCtx)
	}

	m.mu.Lock()
	m.state = StateActive
	m.mu.Unlock()
	m.logger.Info().Msg("listener active")
}

// Stop cancels every stream, waits for the forwarders to drain and moves the
// manager to TornDown. Safe to call more than once.
func (m *Manager) Stop() {
	m.mu.Lock()
	cancel := m.cancel
	m.cancel = nil
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	m.wg.Wait()

	m.mu.Lock()
	m.state = StateTornDown
	m.mu.Unlock()
	m.logger.Info().Msg("listener torn down")
}

// subscribeInbox forwards explicitly pushed inbox records for this recipient.
func (m *Manager) subscribeInbox(ctx context.Context) {
	ch, err := m.store.SubscribeInbox(ctx, m.session.UserID)
	if err != nil {
		m.logger.Warn().Err(err).Msg("inbox subscription unavailable")
		return
	}
	m.forward(ctx, "inbox", func() (models.Notification, bool) {
		ev, ok := <-ch
		if !ok {
			return models.Notification{}, false
		}
		n := ev.Record
		if n.ID == "" {
			n.ID = ev.Key
		}
		n.RecipientID = m.session.UserID
		return n, true
	})
}

// subscribeStudent watches the student's own outpasses for decisions.
func (m *Manager) subscribeStudent(ctx context.Context) {
	ch, err := m.store.SubscribeOutpassChanged(ctx, "student_username", m.session.Username)
	if err != nil {
		m.logger.Warn().Err(err).Msg("outpass change subscription unavailable")
		return
	}
	m.forward(ctx, "outpass_changed", func() (models.Notification, bool) {
		for {
			ev, ok := <-ch
			if !ok {
				return models.Notification{}, false
			}
			// Only settled decisions notify the student.
			if ev.Outpass.Status != models.OutpassStatusApproved &&
				ev.Outpass.Status != models.OutpassStatusRejected {
				continue
			}
			return m.fromOutpass(ev, models.NotificationTypeStatusChanged), true
		}
	})
}

// subscribeMentor watches for new pending submissions assigned to the mentor.
func (m *Manager) subscribeMentor(ctx context.Context) {
	ch, err := m.store.SubscribeOutpassCreated(ctx, "mentor_name", m.session.Name)
	if err != nil {
		m.logger.Warn().Err(err).Msg("outpass create subscription unavailable")
		return
	}
	m.forward(ctx, "outpass_created", func() (models.Notification, bool) {
		for {
			ev, ok := <-ch
			if !ok {
				return models.Notification{}, false
			}
			if ev.Outpass.Status != models.OutpassStatusPending {
				continue
			}
			return m.fromOutpass(ev, models.NotificationTypeNewSubmission), true
		}
	})
}

// subscribeAdmin watches the newest outpass regardless of owner.
func (m *Manager) subscribeAdmin(ctx context.Context) {
	ch, err := m.store.SubscribeLatestOutpass(ctx)
	if err != nil {
		m.logger.Warn().Err(err).Msg("latest outpass subscription unavailable")
		return
	}
	m.forward(ctx, "latest_outpass", func() (models.Notification, bool) {
		ev, ok := <-ch
		if !ok {
			return models.Notification{}, false
		}
		return m.fromOutpass(ev, models.NotificationTypeAdminActivity), true
	})
}

// forward runs one goroutine pulling from a stream and handing notifications
// to the dispatcher until the stream closes.
func (m *Manager) forward(ctx context.Context, stream string, next func() (models.Notification, bool)) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		for {
			n, ok := next()
			if !ok {
				m.logger.Debug().Str("stream", stream).Msg("stream closed")
				return
			}
			metrics.EventsReceived.WithLabelValues(stream).Inc()
			m.handler.Handle(ctx, n)
		}
	}()
}

func (m *Manager) fromOutpass(ev store.OutpassEvent, t models.NotificationType) models.Notification {
	op := ev.Outpass
	return models.Notification{
		RecipientID:   m.session.UserID,
		Type:          t,
		SourceEventID: ev.Key,
		CreatedAt:     time.Now(),
		StudentName:   op.StudentName,
		MentorName:    op.MentorName,
		FromDate:      op.FromDate,
		ToDate:        op.ToDate,
		Reason:        op.Reason,
		Comments:      op.MentorComments,
		Status:        string(op.Status),
	}
}
