// Package engine assembles one notification pipeline per authenticated
// session: listener, dispatcher, tracker, presentation sink and reminder
// scanner, all constructed explicitly and torn down together.
package engine

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/outpasshq/notify/internal/config"
	"github.com/outpasshq/notify/internal/dispatch"
	"github.com/outpasshq/notify/internal/listener"
	"github.com/outpasshq/notify/internal/models"
	"github.com/outpasshq/notify/internal/provider"
	"github.com/outpasshq/notify/internal/router"
	"github.com/outpasshq/notify/internal/scheduler"
	"github.com/outpasshq/notify/internal/sink"
	"github.com/outpasshq/notify/internal/store"
	"github.com/outpasshq/notify/internal/tracker"
)

// Deps are the process-wide collaborators shared by every engine. Backends
// are selected once at startup; per-session state lives in the Engine.
type Deps struct {
	Store           store.Store
	Config          *config.Config
	SMSBackend      provider.Backend
	WhatsAppBackend provider.Backend
	Logger          zerolog.Logger
}

type Engine struct {
	Session    models.Session
	Tracker    *tracker.Tracker
	Sink       *sink.Sink
	Dispatcher *dispatch.Dispatcher
	Listener   *listener.Manager
	Reminder   *scheduler.Reminder

	logger zerolog.Logger
}

func New(session models.Session, deps Deps) *Engine {
	cfg := deps.Config
	logger := deps.Logger.With().Str("session_user", session.Username).Logger()

	history := tracker.NewHistory(cfg.UI.MaxHistoryItems, historyPath(cfg.HistoryFile, session.UserID), logger)
	tr := tracker.New(deps.Store, history, logger)

	hub := sink.NewHub(logger)
	push := sink.NewPushSender(cfg.Push.Enabled, cfg.Push.Topic, logger)
	sk := sink.New(hub, push, cfg.UI.NotificationDuration, cfg.Realtime, logger)

	smsAdapter := provider.NewAdapter(models.ChannelSMS, deps.SMSBackend, cfg.CountryCode, cfg.SMS.BulkDelay, logger)
	waAdapter := provider.NewAdapter(models.ChannelWhatsApp, deps.WhatsAppBackend, cfg.CountryCode, cfg.WhatsApp.BulkDelay, logger)

	disp := dispatch.New(session, router.New(), tr, sk, smsAdapter, waAdapter, logger)

	return &Engine{
		Session:    session,
		Tracker:    tr,
		Sink:       sk,
		Dispatcher: disp,
		Listener:   listener.NewManager(session, deps.Store, disp, logger),
		Reminder:   scheduler.NewReminder(session, deps.Store, disp, cfg.Reminder, logger),
		logger:     logger,
	}
}

// Start brings up the store subscriptions and the reminder scan.
func (e *Engine) Start(ctx context.Context) {
	e.Listener.Start(ctx)
	if err := e.Reminder.Start(); err != nil {
		e.logger.Warn().Err(err).Msg("reminder scheduler failed to start")
	}
}

// Stop tears the pipeline down and waits for in-flight channel legs.
func (e *Engine) Stop() {
	e.Reminder.Stop()
	e.Listener.Stop()
	e.Dispatcher.Wait()
	e.Sink.Hub().Close()
}

// historyPath derives a per-user history file from the configured base path.
func historyPath(base, userID string) string {
	if base == "" {
		return ""
	}
	if ext := ".json"; strings.HasSuffix(base, ext) {
		return strings.TrimSuffix(base, ext) + "_" + userID + ext
	}
	return base + "_" + userID
}
