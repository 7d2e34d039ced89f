package router

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/outpasshq/notify/internal/models"
)

func approvedNotification() models.Notification {
	return models.Notification{
		RecipientID: "u1",
		Type:        models.NotificationTypeStatusChanged,
		StudentName: "Asha",
		MentorName:  "Dr. Rao",
		FromDate:    "2026-09-01",
		Status:      string(models.OutpassStatusApproved),
	}
}

func TestRouteApprovedStudentFansOutAllChannels(t *testing.T) {
	r := New()
	plan := r.Route(approvedNotification(), models.RoleStudent)

	require.Len(t, plan, 4)
	channels := make([]models.Channel, 0, len(plan))
	for _, d := range plan {
		channels = append(channels, d.Channel)
	}
	assert.Equal(t, []models.Channel{
		models.ChannelInApp, models.ChannelPush, models.ChannelSMS, models.ChannelWhatsApp,
	}, channels)

	for _, d := range plan {
		switch d.Channel {
		case models.ChannelSMS:
			assert.Contains(t, d.Message, "APPROVED")
			assert.Contains(t, d.Message, "Asha")
			assert.Contains(t, d.Message, "Dr. Rao")
		case models.ChannelWhatsApp:
			assert.Contains(t, d.Message, "APPROVED")
			assert.Contains(t, d.Message, "No additional comments")
		default:
			assert.Equal(t, "Outpass APPROVED", d.Title)
			assert.Contains(t, d.Message, "2026-09-01")
		}
	}
}

func TestRouteUnknownPairGoesNowhere(t *testing.T) {
	r := New()
	n := approvedNotification()

	assert.Empty(t, r.Route(n, models.RoleMentor), "decisions do not notify mentors")
	assert.Empty(t, r.Route(n, models.RoleAdmin))

	n.Type = models.NotificationTypeAdminActivity
	assert.Empty(t, r.Route(n, models.RoleStudent))
}

func TestRouteAdminActivityInAppOnly(t *testing.T) {
	r := New()
	n := models.Notification{Type: models.NotificationTypeAdminActivity, StudentName: "Asha", Status: "pending"}

	plan := r.Route(n, models.RoleAdmin)
	require.Len(t, plan, 1)
	assert.Equal(t, models.ChannelInApp, plan[0].Channel)
	assert.Equal(t, "System Activity", plan[0].Title)
}

func TestRouteProducerTextWins(t *testing.T) {
	r := New()
	n := models.Notification{
		Type:    models.NotificationTypeAdminActivity,
		Title:   "Maintenance",
		Message: "Store migration tonight",
	}

	plan := r.Route(n, models.RoleAdmin)
	require.Len(t, plan, 1)
	assert.Equal(t, "Maintenance", plan[0].Title)
	assert.Equal(t, "Store migration tonight", plan[0].Message)
}

func TestRouteMissingParamsRenderEmpty(t *testing.T) {
	r := New()
	n := models.Notification{Type: models.NotificationTypeNewSubmission}

	plan := r.Route(n, models.RoleMentor)
	require.Len(t, plan, 4)
	assert.Equal(t, "New Outpass Request", plan[0].Title)
	assert.NotEmpty(t, plan[0].Message, "absent fields render as empty text, not a failure")
}
