// Package dispatch fans a single notification out to every channel the
// routing table selects for the session's role. Channel legs are independent:
// a provider failure is logged and counted, never propagated, and never stops
// the remaining legs.
package dispatch

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/outpasshq/notify/internal/metrics"
	"github.com/outpasshq/notify/internal/models"
	"github.com/outpasshq/notify/internal/provider"
	"github.com/outpasshq/notify/internal/router"
	"github.com/outpasshq/notify/internal/sink"
	"github.com/outpasshq/notify/internal/tracker"
)

type Dispatcher struct {
	session  models.Session
	router   *router.Router
	tracker  *tracker.Tracker
	sink     *sink.Sink
	sms      *provider.Adapter
	whatsapp *provider.Adapter
	logger   zerolog.Logger

	wg sync.WaitGroup
}

func New(session models.Session, rt *router.Router, tr *tracker.Tracker, sk *sink.Sink, sms, whatsapp *provider.Adapter, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		session:  session,
		router:   rt,
		tracker:  tr,
		sink:     sk,
		sms:      sms,
		whatsapp: whatsapp,
		logger:   logger.With().Str("component", "dispatch").Str("recipient", session.UserID).Logger(),
	}
}

// Handle runs one notification through dedup, routing and channel fan-out.
// The in-app leg runs inline; provider legs run on their own goroutines.
func (d *Dispatcher) Handle(ctx context.Context, n models.Notification) {
	if d.tracker.Deduplicate(n) {
		metrics.DuplicatesDropped.Inc()
		return
	}

	plan := d.router.Route(n, d.session.Role)
	if len(plan) == 0 {
		d.logger.Debug().
			Str("type", string(n.Type)).
			Str("role", string(d.session.Role)).
			Msg("no channels routed")
		return
	}

	for _, leg := range plan {
		switch leg.Channel {
		case models.ChannelInApp:
			d.deliverInApp(ctx, n, leg)
		case models.ChannelPush:
			res := d.sink.Push(ctx, leg.Title, leg.Message)
			d.observe(n, res)
		case models.ChannelSMS:
			d.deliverAsync(ctx, d.sms, n, leg)
		case models.ChannelWhatsApp:
			d.deliverAsync(ctx, d.whatsapp, n, leg)
		}
	}
}

// Wait blocks until all in-flight provider legs finish.
func (d *Dispatcher) Wait() { d.wg.Wait() }

func (d *Dispatcher) deliverInApp(ctx context.Context, n models.Notification, leg router.Delivery) {
	d.tracker.PushHistory(n)
	d.sink.Popup(n, leg.Title, leg.Message, d.tracker.History().UnreadCount())
	d.tracker.RecordDelivered(ctx, n.RecipientID, n.ID)
	d.observe(n, models.DeliveryResult{
		Channel:  models.ChannelInApp,
		Provider: "local",
		Success:  true,
	})
}

func (d *Dispatcher) deliverAsync(ctx context.Context, a *provider.Adapter, n models.Notification, leg router.Delivery) {
	if d.session.Phone == "" {
		d.logger.Debug().
			Str("channel", string(leg.Channel)).
			Msg("recipient has no phone number, leg skipped")
		return
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		res := a.Send(ctx, d.session.Phone, leg.Message, provider.Options{
			Template:     string(n.Type),
			TemplateData: templateData(n),
		})
		d.observe(n, res)
	}()
}

func (d *Dispatcher) observe(n models.Notification, res models.DeliveryResult) {
	metrics.Deliveries.WithLabelValues(string(res.Channel), res.Provider, metrics.Outcome(res.Success)).Inc()

	ev := d.logger.Info()
	if !res.Success {
		ev = d.logger.Warn()
	}
	ev.Str("channel", string(res.Channel)).
		Str("provider", res.Provider).
		Str("type", string(n.Type)).
		Bool("success", res.Success).
		Str("error", res.Error).
		Msg("channel delivery")
}

func templateData(n models.Notification) map[string]string {
	return map[string]string{
		"student_name": n.StudentName,
		"mentor_name":  n.MentorName,
		"from_date":    n.FromDate,
		"to_date":      n.ToDate,
		"status":       n.Status,
	}
}
