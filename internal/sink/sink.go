// Package sink is the presentation side of a dispatch: transient popups over
// the recipient's websocket sessions and system push notifications. Both are
// fire-and-observe; neither outcome feeds back into routing.
package sink

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/outpasshq/notify/internal/config"
	"github.com/outpasshq/notify/internal/models"
)

// icons keyed by notification type, shown in the popup header.
var icons = map[models.NotificationType]string{
	models.NotificationTypeStatusChanged: "📋",
	models.NotificationTypeNewSubmission: "📝",
	models.NotificationTypeAdminActivity: "🔔",
	models.NotificationTypeReminder:      "⏰",
	models.NotificationTypeOverdue:       "⚠️",
}

type Sink struct {
	hub      *Hub
	push     *PushSender
	duration time.Duration
	realtime config.RealtimeConfig
	logger   zerolog.Logger
}

func New(hub *Hub, push *PushSender, duration time.Duration, realtime config.RealtimeConfig, logger zerolog.Logger) *Sink {
	return &Sink{
		hub:      hub,
		push:     push,
		duration: duration,
		realtime: realtime,
		logger:   logger.With().Str("component", "sink").Logger(),
	}
}

func (s *Sink) Hub() *Hub { return s.hub }

// Popup renders the in-app leg: broadcast to connected sockets with the
// configured auto-dismiss duration and the current unread badge.
func (s *Sink) Popup(n models.Notification, title, body string, unread int) {
	if !s.realtime.Enabled || !s.realtime.ShowPopups {
		return
	}
	icon, ok := icons[n.Type]
	if !ok {
		icon = "🔔"
	}
	s.hub.Broadcast(PopupEvent{
		Title:      title,
		Body:       body,
		Icon:       icon,
		DurationMS: s.duration.Milliseconds(),
		Sound:      s.realtime.SoundEnabled,
		Unread:     unread,
	})
}

// Push forwards the push leg to the sender.
func (s *Sink) Push(ctx context.Context, title, body string) models.DeliveryResult {
	return s.push.Send(ctx, title, body)
}
