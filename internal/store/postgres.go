package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/outpasshq/notify/internal/models"
)

const (
	outpassChannel = "outpass_events"
	inboxChannel   = "inbox_events"
)

// Postgres implements Store over PostgreSQL. Change streams ride on
// LISTEN/NOTIFY: insert/update triggers publish the affected row as JSON and
// a single listener goroutine fans payloads out to matching subscribers.
// Reconnection is the listener's own concern; while it is down the streams
// simply stop producing.
type Postgres struct {
	db       *sql.DB
	listener *pq.Listener
	logger   zerolog.Logger

	mu          sync.Mutex
	inboxSubs   []*inboxSub
	createdSubs []*outpassSub
	changedSubs []*outpassSub
	latestSubs  []*outpassSub
}

func NewPostgres(databaseURL string, logger zerolog.Logger) (*Postgres, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}
	if err := db.Ping(); err != nil {
		return nil, errors.Wrap(ErrUnavailable, err.Error())
	}

	logger = logger.With().Str("component", "postgres_store").Logger()
	listener := pq.NewListener(databaseURL, 10*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			logger.Warn().Err(err).Int("event", int(ev)).Msg("listener event")
		}
	})
	for _, ch := range []string{outpassChannel, inboxChannel} {
		if err := listener.Listen(ch); err != nil {
			_ = listener.Close()
			_ = db.Close()
			return nil, errors.Wrapf(err, "listen %s", ch)
		}
	}

	p := &Postgres{db: db, listener: listener, logger: logger}
	go p.run()
	return p, nil
}

// DB exposes the underlying handle for migrations.
func (p *Postgres) DB() *sql.DB { return p.db }

func (p *Postgres) run() {
	for n := range p.listener.Notify {
		if n == nil {
			// reconnect marker; streams resume on their own
			continue
		}
		switch n.Channel {
		case inboxChannel:
			p.handleInboxPayload(n.Extra)
		case outpassChannel:
			p.handleOutpassPayload(n.Extra)
		}
	}
}

func (p *Postgres) handleInboxPayload(payload string) {
	var row notificationRow
	if err := json.Unmarshal([]byte(payload), &row); err != nil {
		p.logger.Warn().Err(err).Msg("malformed inbox payload")
		return
	}
	n := row.toModel()

	p.mu.Lock()
	var subs []*inboxSub
	for _, s := range p.inboxSubs {
		if s.recipientID == n.RecipientID {
			subs = append(subs, s)
		}
	}
	p.mu.Unlock()

	ev := InboxEvent{Key: n.ID, Record: n}
	for _, s := range subs {
		select {
		case <-s.done:
		case s.ch <- ev:
		default:
			p.logger.Warn().Str("recipient_id", s.recipientID).Msg("inbox subscriber full, dropping event")
		}
	}
}

func (p *Postgres) handleOutpassPayload(payload string) {
	var wrapper struct {
		Op      string     `json:"op"`
		Outpass outpassRow `json:"outpass"`
	}
	if err := json.Unmarshal([]byte(payload), &wrapper); err != nil {
		p.logger.Warn().Err(err).Msg("malformed outpass payload")
		return
	}
	op := wrapper.Outpass.toModel()

	p.mu.Lock()
	var subs []*outpassSub
	switch wrapper.Op {
	case "INSERT":
		subs = append(subs, filterSubs(p.createdSubs, op)...)
		subs = append(subs, p.latestSubs...)
	case "UPDATE":
		subs = append(subs, filterSubs(p.changedSubs, op)...)
	}
	p.mu.Unlock()

	ev := OutpassEvent{Key: op.ID, Outpass: op}
	for _, s := range subs {
		select {
		case <-s.done:
		case s.ch <- ev:
		default:
			p.logger.Warn().Str("field", s.field).Msg("outpass subscriber full, dropping event")
		}
	}
}

func (p *Postgres) PushNotification(ctx context.Context, n models.Notification) (string, error) {
	const query = `
		INSERT INTO notifications (recipient_id, type, title, message, source_event_id, params)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	params, err := json.Marshal(notificationParams{
		StudentName: n.StudentName,
		MentorName:  n.MentorName,
		FromDate:    n.FromDate,
		ToDate:      n.ToDate,
		Reason:      n.Reason,
		Comments:    n.Comments,
		Status:      n.Status,
	})
	if err != nil {
		return "", errors.Wrap(err, "marshal params")
	}

	var id string
	err = p.db.QueryRowContext(ctx, query, n.RecipientID, n.Type, n.Title, n.Message, n.SourceEventID, params).Scan(&id)
	if err != nil {
		return "", errors.Wrap(err, "insert notification")
	}
	return id, nil
}

func (p *Postgres) UpdateNotification(ctx context.Context, recipientID, id string, fields map[string]interface{}) error {
	set, args := buildSet(fields, []string{"delivered", "delivered_at", "read"})
	if set == "" {
		return nil
	}
	args = append(args, id, recipientID)
	query := fmt.Sprintf(`UPDATE notifications SET %s WHERE id = $%d AND recipient_id = $%d`,
		set, len(args)-1, len(args))
	_, err := p.db.ExecContext(ctx, query, args...)
	return errors.Wrap(err, "update notification")
}

func (p *Postgres) ListRecentNotifications(ctx context.Context, recipientID string, limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 25
	}
	const query = `
		SELECT id, recipient_id, type, title, message, source_event_id, delivered, read, params, created_at, delivered_at
		FROM notifications
		WHERE recipient_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := p.db.QueryContext(ctx, query, recipientID, limit)
	if err != nil {
		return nil, errors.Wrap(err, "list notifications")
	}
	defer rows.Close()

	var out []models.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (p *Postgres) CreateOutpass(ctx context.Context, op models.Outpass) (string, error) {
	const query = `
		INSERT INTO outpasses (student_id, student_username, student_name, student_phone,
			mentor_id, mentor_name, mentor_phone, from_date, to_date, reason, status, mentor_comments)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`
	status := op.Status
	if status == "" {
		status = models.OutpassStatusPending
	}
	var id string
	err := p.db.QueryRowContext(ctx, query,
		op.StudentID, op.StudentUsername, op.StudentName, op.StudentPhone,
		op.MentorID, op.MentorName, op.MentorPhone,
		op.FromDate, op.ToDate, op.Reason, status, op.MentorComments,
	).Scan(&id)
	if err != nil {
		return "", errors.Wrap(err, "insert outpass")
	}
	return id, nil
}

func (p *Postgres) UpdateOutpass(ctx context.Context, id string, fields map[string]interface{}) error {
	set, args := buildSet(fields, []string{"status", "mentor_comments"})
	if set == "" {
		return nil
	}
	args = append(args, id)
	query := fmt.Sprintf(`UPDATE outpasses SET %s, updated_at = NOW() WHERE id = $%d`, set, len(args))
	_, err := p.db.ExecContext(ctx, query, args...)
	return errors.Wrap(err, "update outpass")
}

func (p *Postgres) ListApprovedOutpasses(ctx context.Context) ([]models.Outpass, error) {
	const query = `
		SELECT id, student_id, student_username, student_name, student_phone,
			mentor_id, mentor_name, mentor_phone, from_date, to_date, reason,
			status, mentor_comments, created_at, updated_at
		FROM outpasses
		WHERE status = 'approved'
	`
	rows, err := p.db.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "list outpasses")
	}
	defer rows.Close()

	var out []models.Outpass
	for rows.Next() {
		var op models.Outpass
		var studentPhone, mentorID, mentorPhone, comments sql.NullString
		if err := rows.Scan(
			&op.ID, &op.StudentID, &op.StudentUsername, &op.StudentName, &studentPhone,
			&mentorID, &op.MentorName, &mentorPhone, &op.FromDate, &op.ToDate, &op.Reason,
			&op.Status, &comments, &op.CreatedAt, &op.UpdatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "scan outpass")
		}
		op.StudentPhone = studentPhone.String
		op.MentorID = mentorID.String
		op.MentorPhone = mentorPhone.String
		op.MentorComments = comments.String
		out = append(out, op)
	}
	return out, rows.Err()
}

func (p *Postgres) SubscribeInbox(ctx context.Context, recipientID string) (<-chan InboxEvent, error) {
	s := &inboxSub{recipientID: recipientID, ch: make(chan InboxEvent, subBuffer), done: ctx.Done()}
	p.mu.Lock()
	p.inboxSubs = append(p.inboxSubs, s)
	p.mu.Unlock()
	go func() {
		<-ctx.Done()
		p.mu.Lock()
		defer p.mu.Unlock()
		for i, cur := range p.inboxSubs {
			if cur == s {
				p.inboxSubs = append(p.inboxSubs[:i], p.inboxSubs[i+1:]...)
				close(s.ch)
				return
			}
		}
	}()
	return s.ch, nil
}

func (p *Postgres) SubscribeOutpassCreated(ctx context.Context, field, value string) (<-chan OutpassEvent, error) {
	return p.addOutpassSub(ctx, &p.createdSubs, field, value)
}

func (p *Postgres) SubscribeOutpassChanged(ctx context.Context, field, value string) (<-chan OutpassEvent, error) {
	return p.addOutpassSub(ctx, &p.changedSubs, field, value)
}

// SubscribeLatestOutpass mimics a "last 1 + new children" query: the current
// most-recent outpass is replayed into the stream, then each new insert
// follows. Session dedup downstream suppresses the replay on reconnects.
func (p *Postgres) SubscribeLatestOutpass(ctx context.Context) (<-chan OutpassEvent, error) {
	ch, err := p.addOutpassSub(ctx, &p.latestSubs, "", "")
	if err != nil {
		return nil, err
	}

	const query = `
		SELECT id, student_id, student_username, student_name, student_phone,
			mentor_id, mentor_name, mentor_phone, from_date, to_date, reason,
			status, mentor_comments, created_at, updated_at
		FROM outpasses
		ORDER BY created_at DESC
		LIMIT 1
	`
	row := p.db.QueryRowContext(ctx, query)
	var op models.Outpass
	var studentPhone, mentorID, mentorPhone, comments sql.NullString
	err = row.Scan(
		&op.ID, &op.StudentID, &op.StudentUsername, &op.StudentName, &studentPhone,
		&mentorID, &op.MentorName, &mentorPhone, &op.FromDate, &op.ToDate, &op.Reason,
		&op.Status, &comments, &op.CreatedAt, &op.UpdatedAt,
	)
	if err == nil {
		op.StudentPhone = studentPhone.String
		op.MentorID = mentorID.String
		op.MentorPhone = mentorPhone.String
		op.MentorComments = comments.String
		p.handleReplay(ch, OutpassEvent{Key: op.ID, Outpass: op})
	} else if err != sql.ErrNoRows {
		p.logger.Warn().Err(err).Msg("latest outpass replay failed")
	}
	return ch, nil
}

func (p *Postgres) handleReplay(ch <-chan OutpassEvent, ev OutpassEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, s := range p.latestSubs {
		if s.ch == ch {
			select {
			case s.ch <- ev:
			default:
			}
			return
		}
	}
}

func (p *Postgres) addOutpassSub(ctx context.Context, list *[]*outpassSub, field, value string) (<-chan OutpassEvent, error) {
	s := &outpassSub{field: field, value: value, ch: make(chan OutpassEvent, subBuffer), done: ctx.Done()}
	p.mu.Lock()
	*list = append(*list, s)
	p.mu.Unlock()
	go func() {
		<-ctx.Done()
		p.mu.Lock()
		defer p.mu.Unlock()
		for i, cur := range *list {
			if cur == s {
				*list = append((*list)[:i], (*list)[i+1:]...)
				close(s.ch)
				return
			}
		}
	}()
	return s.ch, nil
}

func (p *Postgres) Close() error {
	if err := p.listener.Close(); err != nil {
		p.logger.Warn().Err(err).Msg("listener close")
	}
	return p.db.Close()
}

// notificationRow mirrors the notifications table for trigger payloads and
// scans. Column names follow row_to_json output.
type notificationRow struct {
	ID            string             `json:"id"`
	RecipientID   string             `json:"recipient_id"`
	Type          string             `json:"type"`
	Title         string             `json:"title"`
	Message       string             `json:"message"`
	SourceEventID string             `json:"source_event_id"`
	Delivered     bool               `json:"delivered"`
	Read          bool               `json:"read"`
	Params        notificationParams `json:"params"`
	CreatedAt     time.Time          `json:"created_at"`
	DeliveredAt   *time.Time         `json:"delivered_at"`
}

type notificationParams struct {
	StudentName string `json:"student_name,omitempty"`
	MentorName  string `json:"mentor_name,omitempty"`
	FromDate    string `json:"from_date,omitempty"`
	ToDate      string `json:"to_date,omitempty"`
	Reason      string `json:"reason,omitempty"`
	Comments    string `json:"comments,omitempty"`
	Status      string `json:"status,omitempty"`
}

func (r notificationRow) toModel() models.Notification {
	return models.Notification{
		ID:            r.ID,
		RecipientID:   r.RecipientID,
		Type:          models.NotificationType(r.Type),
		Title:         r.Title,
		Message:       r.Message,
		SourceEventID: r.SourceEventID,
		Delivered:     r.Delivered,
		Read:          r.Read,
		CreatedAt:     r.CreatedAt,
		DeliveredAt:   r.DeliveredAt,
		StudentName:   r.Params.StudentName,
		MentorName:    r.Params.MentorName,
		FromDate:      r.Params.FromDate,
		ToDate:        r.Params.ToDate,
		Reason:        r.Params.Reason,
		Comments:      r.Params.Comments,
		Status:        r.Params.Status,
	}
}

type outpassRow struct {
	ID              string    `json:"id"`
	StudentID       string    `json:"student_id"`
	StudentUsername string    `json:"student_username"`
	StudentName     string    `json:"student_name"`
	StudentPhone    string    `json:"student_phone"`
	MentorID        string    `json:"mentor_id"`
	MentorName      string    `json:"mentor_name"`
	MentorPhone     string    `json:"mentor_phone"`
	FromDate        string    `json:"from_date"`
	ToDate          string    `json:"to_date"`
	Reason          string    `json:"reason"`
	Status          string    `json:"status"`
	MentorComments  string    `json:"mentor_comments"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (r outpassRow) toModel() models.Outpass {
	return models.Outpass{
		ID:              r.ID,
		StudentID:       r.StudentID,
		StudentUsername: r.StudentUsername,
		StudentName:     r.StudentName,
		StudentPhone:    r.StudentPhone,
		MentorID:        r.MentorID,
		MentorName:      r.MentorName,
		MentorPhone:     r.MentorPhone,
		FromDate:        r.FromDate,
		ToDate:          r.ToDate,
		Reason:          r.Reason,
		Status:          models.OutpassStatus(r.Status),
		MentorComments:  r.MentorComments,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

func scanNotification(scanner interface {
	Scan(dest ...interface{}) error
}) (models.Notification, error) {
	var (
		row         notificationRow
		paramsRaw   []byte
		deliveredAt sql.NullTime
	)
	if err := scanner.Scan(
		&row.ID, &row.RecipientID, &row.Type, &row.Title, &row.Message,
		&row.SourceEventID, &row.Delivered, &row.Read, &paramsRaw,
		&row.CreatedAt, &deliveredAt,
	); err != nil {
		return models.Notification{}, errors.Wrap(err, "scan notification")
	}
	if len(paramsRaw) > 0 {
		if err := json.Unmarshal(paramsRaw, &row.Params); err != nil {
			return models.Notification{}, errors.Wrap(err, "unmarshal params")
		}
	}
	if deliveredAt.Valid {
		t := deliveredAt.Time
		row.DeliveredAt = &t
	}
	return row.toModel(), nil
}

// buildSet renders a SET clause from the allowed subset of fields.
func buildSet(fields map[string]interface{}, allowed []string) (string, []interface{}) {
	var parts []string
	var args []interface{}
	for _, col := range allowed {
		v, ok := fields[col]
		if !ok {
			continue
		}
		args = append(args, v)
		name := col
		if name == "read" {
			name = `"read"`
		}
		parts = append(parts, fmt.Sprintf("%s = $%d", name, len(args)))
	}
	return strings.Join(parts, ", "), args
}
