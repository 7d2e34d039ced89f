// Package scheduler periodically scans approved outpasses and raises reminder
// and overdue notifications for the session's student.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/outpasshq/notify/internal/config"
	"github.com/outpasshq/notify/internal/listener"
	"github.com/outpasshq/notify/internal/models"
	"github.com/outpasshq/notify/internal/store"
)

const dateLayout = "2006-01-02"

type Reminder struct {
	session models.Session
	store   store.Store
	handler listener.Handler
	cfg     config.ReminderConfig
	cron    *cron.Cron
	logger  zerolog.Logger

	now func() time.Time
}

func NewReminder(session models.Session, st store.Store, h listener.Handler, cfg config.ReminderConfig, logger zerolog.Logger) *Reminder {
	return &Reminder{
		session: session,
		store:   st,
		handler: h,
		cfg:     cfg,
		logger:  logger.With().Str("component", "reminder").Logger(),
		now:     time.Now,
	}
}

// Start schedules the scan. Only student sessions carry return deadlines, so
// everything else is a no-op.
func (r *Reminder) Start() error {
	if !r.cfg.Enabled || r.session.Role != models.RoleStudent {
		return nil
	}
	r.cron = cron.New()
	if _, err := r.cron.AddFunc(r.cfg.CronSpec, func() { r.Scan(context.Background()) }); err != nil {
		return err
	}
	r.cron.Start()
	r.logger.Info().Str("spec", r.cfg.CronSpec).Msg("reminder scan scheduled")
	return nil
}

func (r *Reminder) Stop() {
	if r.cron != nil {
		r.cron.Stop()
	}
}

// Scan raises an overdue notification for approved outpasses past their return
// date and a reminder for those due within the warn window. Deduplication
// downstream keeps repeated scans from re-notifying.
func (r *Reminder) Scan(ctx context.Context) {
	ops, err := r.store.ListApprovedOutpasses(ctx)
	if err != nil {
		r.logger.Warn().Err(err).Msg("reminder scan failed")
		return
	}

	now := r.now()
	for _, op := range ops {
		if op.StudentUsername != r.session.Username {
			continue
		}
		due, err := time.ParseInLocation(dateLayout, op.ToDate, now.Location())
		if err != nil {
			r.logger.Debug().Str("outpass", op.ID).Str("to_date", op.ToDate).Msg("unparseable return date")
			continue
		}
		// The return date covers the whole day.
		deadline := due.Add(24 * time.Hour)

		switch {
		case now.After(deadline):
			r.handler.Handle(ctx, r.notification(op, models.NotificationTypeOverdue))
		case deadline.Sub(now) <= r.cfg.WarnBefore:
			r.handler.Handle(ctx, r.notification(op, models.NotificationTypeReminder))
		}
	}
}

func (r *Reminder) notification(op models.Outpass, t models.NotificationType) models.Notification {
	return models.Notification{
		RecipientID:   r.session.UserID,
		Type:          t,
		SourceEventID: op.ID,
		CreatedAt:     r.now(),
		StudentName:   op.StudentName,
		MentorName:    op.MentorName,
		FromDate:      op.FromDate,
		ToDate:        op.ToDate,
		Reason:        op.Reason,
		Status:        string(op.Status),
	}
}
