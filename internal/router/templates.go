package router

import (
	"fmt"
	"strings"

	"github.com/outpasshq/notify/internal/models"
)

// Message rendering is fmt-based over typed fields. Missing parameters come
// through as empty strings, never as a render failure.

// renderDefault produces the channel-agnostic title and body used for the
// in-app and push legs. Producer-supplied text wins over the templates.
func renderDefault(n models.Notification) (title, body string) {
	if n.Title != "" || n.Message != "" {
		return n.Title, n.Message
	}

	switch n.Type {
	case models.NotificationTypeStatusChanged:
		return fmt.Sprintf("Outpass %s", strings.ToUpper(n.Status)),
			fmt.Sprintf("Your outpass for %s has been %s", n.FromDate, n.Status)
	case models.NotificationTypeNewSubmission:
		return "New Outpass Request",
			fmt.Sprintf("%s submitted an outpass request for %s", n.StudentName, n.FromDate)
	case models.NotificationTypeAdminActivity:
		return "System Activity",
			fmt.Sprintf("New outpass activity: %s - %s", n.StudentName, n.Status)
	case models.NotificationTypeReminder:
		return "Outpass Reminder",
			fmt.Sprintf("Your outpass expires on %s. Please return to campus on time.", n.ToDate)
	case models.NotificationTypeOverdue:
		return "Outpass Overdue",
			fmt.Sprintf("Your outpass expired on %s. Please contact your mentor immediately.", n.ToDate)
	default:
		return n.Title, n.Message
	}
}

func renderSMS(n models.Notification) string {
	switch n.Type {
	case models.NotificationTypeStatusChanged:
		switch models.OutpassStatus(n.Status) {
		case models.OutpassStatusApproved:
			return fmt.Sprintf("Great news %s! Your outpass for %s has been APPROVED by %s. Have a safe trip!",
				n.StudentName, n.FromDate, n.MentorName)
		case models.OutpassStatusRejected:
			return fmt.Sprintf("Hi %s, your outpass for %s has been rejected by %s. Reason: %s",
				n.StudentName, n.FromDate, n.MentorName, n.Reason)
		default:
			return fmt.Sprintf("Hi %s, your outpass request for %s has been submitted successfully. Reference: %s",
				n.StudentName, n.FromDate, n.SourceEventID)
		}
	case models.NotificationTypeNewSubmission:
		return fmt.Sprintf("New outpass request from %s for %s. Reason: %s. Please review and approve/reject.",
			n.StudentName, n.FromDate, n.Reason)
	case models.NotificationTypeReminder:
		return fmt.Sprintf("Reminder: Your outpass expires on %s. Please return to campus on time.", n.ToDate)
	case models.NotificationTypeOverdue:
		return fmt.Sprintf("URGENT: Your outpass expired on %s. Please contact your mentor immediately.", n.ToDate)
	default:
		_, body := renderDefault(n)
		return body
	}
}

func renderWhatsApp(n models.Notification) string {
	switch n.Type {
	case models.NotificationTypeStatusChanged:
		switch models.OutpassStatus(n.Status) {
		case models.OutpassStatusApproved:
			comments := n.Comments
			if comments == "" {
				comments = "No additional comments"
			}
			return fmt.Sprintf("🎉 Great news %s!\n\n✅ Your outpass for %s has been APPROVED by %s.\n\n🚗 Have a safe trip!\n💬 %s",
				n.StudentName, n.FromDate, n.MentorName, comments)
		case models.OutpassStatusRejected:
			return fmt.Sprintf("❌ Hi %s,\n\nYour outpass request for %s has been rejected by %s.\n\n📝 Reason: %s\n\nPlease contact your mentor for more details. 📞",
				n.StudentName, n.FromDate, n.MentorName, n.Reason)
		default:
			return fmt.Sprintf("🎓 Hi %s!\n\n✅ Your outpass request has been submitted successfully.\n\n📅 Date: %s\n🔗 Reference: %s\n\nYour mentor will review it soon. 📋",
				n.StudentName, n.FromDate, n.SourceEventID)
		}
	case models.NotificationTypeNewSubmission:
		return fmt.Sprintf("🔔 New Outpass Request\n\n👤 Student: %s\n📅 Date: %s\n📝 Reason: %s\n\nPlease review and approve/reject. 📋",
			n.StudentName, n.FromDate, n.Reason)
	case models.NotificationTypeReminder:
		return fmt.Sprintf("⏰ Reminder!\n\nYour outpass expires on %s.\n\nPlease return to campus on time. 🏫\n\nSafe travels! 🚗", n.ToDate)
	case models.NotificationTypeOverdue:
		return fmt.Sprintf("🚨 URGENT!\n\nYour outpass expired on %s.\n\nPlease contact your mentor immediately. 📞", n.ToDate)
	default:
		_, body := renderDefault(n)
		return body
	}
}
