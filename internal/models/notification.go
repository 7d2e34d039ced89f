package models

import (
	"time"
)

type NotificationType string

const (
	NotificationTypeStatusChanged NotificationType = "status_changed"
	NotificationTypeNewSubmission NotificationType = "new_submission"
	NotificationTypeAdminActivity NotificationType = "admin_activity"
	NotificationTypeReminder      NotificationType = "reminder"
	NotificationTypeOverdue       NotificationType = "overdue"
)

type Channel string

const (
	ChannelInApp    Channel = "in_app"
	ChannelPush     Channel = "push"
	ChannelSMS      Channel = "sms"
	ChannelWhatsApp Channel = "whatsapp"
)

type ErrorKind string

const (
	ErrorKindInvalidDestination ErrorKind = "invalid_destination"
	ErrorKindProviderError      ErrorKind = "provider_error"
	ErrorKindStoreUnavailable   ErrorKind = "store_unavailable"
	ErrorKindPermissionDenied   ErrorKind = "permission_denied"
)

// Notification is a single record in a recipient's inbox. Records are either
// pushed explicitly by a producer or synthesized locally from an observed
// outpass change; synthesized records stay local unless written back.
type Notification struct {
	ID            string           `json:"id" db:"id"`
	RecipientID   string           `json:"recipient_id" db:"recipient_id"`
	Type          NotificationType `json:"type" db:"type"`
	Title         string           `json:"title" db:"title"`
	Message       string           `json:"message" db:"message"`
	SourceEventID string           `json:"source_event_id,omitempty" db:"source_event_id"`
	Delivered     bool             `json:"delivered" db:"delivered"`
	Read          bool             `json:"read" db:"read"`
	CreatedAt     time.Time        `json:"created_at" db:"created_at"`
	DeliveredAt   *time.Time       `json:"delivered_at,omitempty" db:"delivered_at"`

	// Template parameters carried from the originating outpass. Absent
	// fields render as empty text, never as a render failure.
	StudentName string `json:"student_name,omitempty"`
	MentorName  string `json:"mentor_name,omitempty"`
	FromDate    string `json:"from_date,omitempty"`
	ToDate      string `json:"to_date,omitempty"`
	Reason      string `json:"reason,omitempty"`
	Comments    string `json:"comments,omitempty"`
	Status      string `json:"status,omitempty"`
}

// DedupKey identifies a notification for duplicate suppression within a
// session: the same source event fans out at most once per recipient and type.
func (n Notification) DedupKey() string {
	return n.RecipientID + "|" + n.SourceEventID + "|" + string(n.Type)
}

// DeliveryResult is the outcome of one channel attempt. Provider failures are
// reported here, never as errors past the adapter boundary.
type DeliveryResult struct {
	Channel           Channel   `json:"channel"`
	Provider          string    `json:"provider"`
	Success           bool      `json:"success"`
	ErrorKind         ErrorKind `json:"error_kind,omitempty"`
	Error             string    `json:"error,omitempty"`
	ExternalMessageID string    `json:"external_message_id,omitempty"`
	RawResponse       string    `json:"-"`
}

// ScheduleResult describes a deferred send. Scheduled sends live in memory
// only; a restart loses them.
type ScheduleResult struct {
	Scheduled bool           `json:"scheduled"`
	At        time.Time      `json:"at,omitempty"`
	Delay     time.Duration  `json:"delay,omitempty"`
	Immediate DeliveryResult `json:"immediate,omitempty"`
}

type MessageStatus string

const (
	MessageStatusDelivered MessageStatus = "delivered"
	MessageStatusFailed    MessageStatus = "failed"
	MessageStatusPending   MessageStatus = "pending"
	MessageStatusUnknown   MessageStatus = "unknown"
)
