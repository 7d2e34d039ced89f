// Package router decides which channels a notification fans out to and how
// its message reads on each of them. Routing is table-driven and performs no
// I/O; the returned plan is consumed by the presentation sink and the
// provider adapters.
package router

import (
	"github.com/outpasshq/notify/internal/models"
)

// Delivery is one channel's rendered leg of a notification fan-out.
type Delivery struct {
	Channel models.Channel
	Title   string
	Message string
}

// routes maps (notification type, recipient role) to the channel set that
// should fire. Pairs not listed here go nowhere.
var routes = map[models.NotificationType]map[models.UserRole][]models.Channel{
	models.NotificationTypeStatusChanged: {
		models.RoleStudent: {models.ChannelInApp, models.ChannelPush, models.ChannelSMS, models.ChannelWhatsApp},
	},
	models.NotificationTypeNewSubmission: {
		models.RoleMentor: {models.ChannelInApp, models.ChannelPush, models.ChannelSMS, models.ChannelWhatsApp},
	},
	models.NotificationTypeAdminActivity: {
		models.RoleAdmin: {models.ChannelInApp},
	},
	models.NotificationTypeReminder: {
		models.RoleStudent: {models.ChannelInApp, models.ChannelPush, models.ChannelSMS, models.ChannelWhatsApp},
	},
	models.NotificationTypeOverdue: {
		models.RoleStudent: {models.ChannelInApp, models.ChannelPush, models.ChannelSMS, models.ChannelWhatsApp},
	},
}

type Router struct{}

func New() *Router { return &Router{} }

// Route returns the per-channel deliveries for a notification aimed at a
// recipient with the given role. An unknown (type, role) pair yields an
// empty plan.
func (r *Router) Route(n models.Notification, role models.UserRole) []Delivery {
	channels, ok := routes[n.Type][role]
	if !ok {
		return nil
	}

	title, body := renderDefault(n)
	deliveries := make([]Delivery, 0, len(channels))
	for _, ch := range channels {
		d := Delivery{Channel: ch, Title: title, Message: body}
		switch ch {
		case models.ChannelSMS:
			d.Message = renderSMS(n)
		case models.ChannelWhatsApp:
			d.Message = renderWhatsApp(n)
		}
		deliveries = append(deliveries, d)
	}
	return deliveries
}

// Channels exposes the raw channel set for a (type, role) pair.
func (r *Router) Channels(t models.NotificationType, role models.UserRole) []models.Channel {
	return routes[t][role]
}
