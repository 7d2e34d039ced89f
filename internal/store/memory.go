package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/outpasshq/notify/internal/models"
)

// Memory is an in-process Store used for dev mode and tests. It mirrors the
// subscription semantics of the Postgres store: per-stream order preserved,
// slow subscribers dropped rather than blocking writers.
type Memory struct {
	mu            sync.Mutex
	notifications map[string][]models.Notification
	outpasses     map[string]models.Outpass

	inboxSubs   []*inboxSub
	createdSubs []*outpassSub
	changedSubs []*outpassSub
	latestSubs  []*outpassSub

	logger zerolog.Logger
}

type inboxSub struct {
	recipientID string
	ch          chan InboxEvent
	done        <-chan struct{}
}

type outpassSub struct {
	field, value string
	ch           chan OutpassEvent
	done         <-chan struct{}
}

const subBuffer = 64

func NewMemory(logger zerolog.Logger) *Memory {
	return &Memory{
		notifications: make(map[string][]models.Notification),
		outpasses:     make(map[string]models.Outpass),
		logger:        logger.With().Str("component", "memory_store").Logger(),
	}
}

func (m *Memory) PushNotification(_ context.Context, n models.Notification) (string, error) {
	m.mu.Lock()
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	m.notifications[n.RecipientID] = append(m.notifications[n.RecipientID], n)
	subs := m.inboxSubsFor(n.RecipientID)
	m.mu.Unlock()

	for _, s := range subs {
		m.emitInbox(s, InboxEvent{Key: n.ID, Record: n})
	}
	return n.ID, nil
}

func (m *Memory) UpdateNotification(_ context.Context, recipientID, id string, fields map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.notifications[recipientID]
	for i := range list {
		if list[i].ID == id {
			applyNotificationFields(&list[i], fields)
			return nil
		}
	}
	return ErrUnavailable
}

func (m *Memory) ListRecentNotifications(_ context.Context, recipientID string, limit int) ([]models.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := append([]models.Notification(nil), m.notifications[recipientID]...)
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

func (m *Memory) CreateOutpass(_ context.Context, op models.Outpass) (string, error) {
	m.mu.Lock()
	if op.ID == "" {
		op.ID = uuid.NewString()
	}
	now := time.Now()
	if op.CreatedAt.IsZero() {
		op.CreatedAt = now
	}
	op.UpdatedAt = now
	m.outpasses[op.ID] = op
	created := filterSubs(m.createdSubs, op)
	latest := append([]*outpassSub(nil), m.latestSubs...)
	m.mu.Unlock()

	ev := OutpassEvent{Key: op.ID, Outpass: op}
	for _, s := range created {
		m.emitOutpass(s, ev)
	}
	for _, s := range latest {
		m.emitOutpass(s, ev)
	}
	return op.ID, nil
}

func (m *Memory) UpdateOutpass(_ context.Context, id string, fields map[string]interface{}) error {
	m.mu.Lock()
	op, ok := m.outpasses[id]
	if !ok {
		m.mu.Unlock()
		return ErrUnavailable
	}
	applyOutpassFields(&op, fields)
	op.UpdatedAt = time.Now()
	m.outpasses[id] = op
	changed := filterSubs(m.changedSubs, op)
	m.mu.Unlock()

	ev := OutpassEvent{Key: id, Outpass: op}
	for _, s := range changed {
		m.emitOutpass(s, ev)
	}
	return nil
}

func (m *Memory) ListApprovedOutpasses(_ context.Context) ([]models.Outpass, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Outpass
	for _, op := range m.outpasses {
		if op.Status == models.OutpassStatusApproved {
			out = append(out, op)
		}
	}
	return out, nil
}

func (m *Memory) SubscribeInbox(ctx context.Context, recipientID string) (<-chan InboxEvent, error) {
	s := &inboxSub{recipientID: recipientID, ch: make(chan InboxEvent, subBuffer), done: ctx.Done()}
	m.mu.Lock()
	m.inboxSubs = append(m.inboxSubs, s)
	m.mu.Unlock()
	go func() {
		<-ctx.Done()
		m.dropInboxSub(s)
	}()
	return s.ch, nil
}

func (m *Memory) SubscribeOutpassCreated(ctx context.Context, field, value string) (<-chan OutpassEvent, error) {
	return m.addOutpassSub(ctx, &m.createdSubs, field, value)
}

func (m *Memory) SubscribeOutpassChanged(ctx context.Context, field, value string) (<-chan OutpassEvent, error) {
	return m.addOutpassSub(ctx, &m.changedSubs, field, value)
}

// SubscribeLatestOutpass replays the current most-recent outpass, then
// forwards each new insert, matching the Postgres store's semantics.
func (m *Memory) SubscribeLatestOutpass(ctx context.Context) (<-chan OutpassEvent, error) {
	ch, err := m.addOutpassSub(ctx, &m.latestSubs, "", "")
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	var latest *models.Outpass
	for _, op := range m.outpasses {
		cur := op
		if latest == nil || cur.CreatedAt.After(latest.CreatedAt) {
			latest = &cur
		}
	}
	var target *outpassSub
	for _, s := range m.latestSubs {
		if s.ch == ch {
			target = s
			break
		}
	}
	m.mu.Unlock()

	if latest != nil && target != nil {
		m.emitOutpass(target, OutpassEvent{Key: latest.ID, Outpass: *latest})
	}
	return ch, nil
}

func (m *Memory) Close() error { return nil }

func (m *Memory) addOutpassSub(ctx context.Context, list *[]*outpassSub, field, value string) (<-chan OutpassEvent, error) {
	s := &outpassSub{field: field, value: value, ch: make(chan OutpassEvent, subBuffer), done: ctx.Done()}
	m.mu.Lock()
	*list = append(*list, s)
	m.mu.Unlock()
	go func() {
		<-ctx.Done()
		m.dropOutpassSub(s)
	}()
	return s.ch, nil
}

func (m *Memory) inboxSubsFor(recipientID string) []*inboxSub {
	var out []*inboxSub
	for _, s := range m.inboxSubs {
		if s.recipientID == recipientID {
			out = append(out, s)
		}
	}
	return out
}

func filterSubs(subs []*outpassSub, op models.Outpass) []*outpassSub {
	var out []*outpassSub
	for _, s := range subs {
		if matches(op, s.field, s.value) {
			out = append(out, s)
		}
	}
	return out
}

func (m *Memory) emitInbox(s *inboxSub, ev InboxEvent) {
	select {
	case <-s.done:
	case s.ch <- ev:
	default:
		m.logger.Warn().Str("recipient_id", s.recipientID).Msg("inbox subscriber full, dropping event")
	}
}

func (m *Memory) emitOutpass(s *outpassSub, ev OutpassEvent) {
	select {
	case <-s.done:
	case s.ch <- ev:
	default:
		m.logger.Warn().Str("field", s.field).Msg("outpass subscriber full, dropping event")
	}
}

func (m *Memory) dropInboxSub(target *inboxSub) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, s := range m.inboxSubs {
		if s == target {
			m.inboxSubs = append(m.inboxSubs[:i], m.inboxSubs[i+1:]...)
			close(s.ch)
			return
		}
	}
}

func (m *Memory) dropOutpassSub(target *outpassSub) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, list := range []*[]*outpassSub{&m.createdSubs, &m.changedSubs, &m.latestSubs} {
		for i, s := range *list {
			if s == target {
				*list = append((*list)[:i], (*list)[i+1:]...)
				close(s.ch)
				return
			}
		}
	}
}

func applyNotificationFields(n *models.Notification, fields map[string]interface{}) {
	for k, v := range fields {
		switch k {
		case "delivered":
			if b, ok := v.(bool); ok {
				n.Delivered = b
			}
		case "delivered_at":
			if t, ok := v.(time.Time); ok {
				n.DeliveredAt = &t
			}
		case "read":
			if b, ok := v.(bool); ok {
				n.Read = b
			}
		}
	}
}

func applyOutpassFields(op *models.Outpass, fields map[string]interface{}) {
	for k, v := range fields {
		switch k {
		case "status":
			if s, ok := v.(string); ok {
				op.Status = models.OutpassStatus(s)
			}
		case "mentor_comments":
			if s, ok := v.(string); ok {
				op.MentorComments = s
			}
		}
	}
}
