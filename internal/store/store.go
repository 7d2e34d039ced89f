// Package store abstracts the shared data store the engine observes and
// writes back to. Subscriptions expose the store's new-child / changed-child
// events as lazy channels; each channel preserves the store's native order
// and is restartable only by re-subscribing.
package store

import (
	"context"
	"errors"

	"github.com/outpasshq/notify/internal/models"
)

// ErrUnavailable signals that the data store could not be reached. Callers
// log it and degrade; they never crash the dispatch engine over it.
var ErrUnavailable = errors.New("store unavailable")

// OutpassEvent is a raw domain-event arrival from an outpass stream.
type OutpassEvent struct {
	Key     string
	Outpass models.Outpass
}

// InboxEvent is a new-child arrival on a recipient's notification inbox.
type InboxEvent struct {
	Key    string
	Record models.Notification
}

type Store interface {
	// Inbox collection, keyed per recipient.
	PushNotification(ctx context.Context, n models.Notification) (string, error)
	UpdateNotification(ctx context.Context, recipientID, id string, fields map[string]interface{}) error
	ListRecentNotifications(ctx context.Context, recipientID string, limit int) ([]models.Notification, error)

	// Outpass collection, used by producers and the reminder scanner.
	CreateOutpass(ctx context.Context, op models.Outpass) (string, error)
	UpdateOutpass(ctx context.Context, id string, fields map[string]interface{}) error
	ListApprovedOutpasses(ctx context.Context) ([]models.Outpass, error)

	// Subscriptions. The filter is an equality match on a single field.
	// Channels close when ctx is cancelled; events arriving after that
	// are dropped.
	SubscribeInbox(ctx context.Context, recipientID string) (<-chan InboxEvent, error)
	SubscribeOutpassCreated(ctx context.Context, field, value string) (<-chan OutpassEvent, error)
	SubscribeOutpassChanged(ctx context.Context, field, value string) (<-chan OutpassEvent, error)
	SubscribeLatestOutpass(ctx context.Context) (<-chan OutpassEvent, error)

	Close() error
}

// matches applies the single-field equality filter used by subscriptions.
func matches(op models.Outpass, field, value string) bool {
	if field == "" {
		return true
	}
	switch field {
	case "student_username":
		return op.StudentUsername == value
	case "mentor_name":
		return op.MentorName == value
	case "status":
		return string(op.Status) == value
	default:
		return false
	}
}
