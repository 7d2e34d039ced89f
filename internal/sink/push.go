package sink

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/outpasshq/notify/internal/models"
)

// Permission mirrors the three-state push opt-in: undecided, granted, denied.
type Permission string

const (
	PermissionDefault Permission = "default"
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
)

// PushSender delivers system-level push notifications. Permission is requested
// at most once per session; a denial silently disables the channel for the
// rest of the session.
type PushSender struct {
	enabled bool
	topic   string
	logger  zerolog.Logger

	mu         sync.Mutex
	permission Permission
	requested  bool

	// decide is consulted on the first send to resolve PermissionDefault.
	// Overridden in tests.
	decide func() Permission
}

func NewPushSender(enabled bool, topic string, logger zerolog.Logger) *PushSender {
	return &PushSender{
		enabled:    enabled,
		topic:      topic,
		logger:     logger.With().Str("component", "push").Logger(),
		permission: PermissionDefault,
		decide:     func() Permission { return PermissionGranted },
	}
}

// Permission returns the current opt-in state.
func (p *PushSender) Permission() Permission {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.permission
}

// requestPermission resolves PermissionDefault exactly once.
func (p *PushSender) requestPermission() Permission {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.requested && p.permission == PermissionDefault {
		p.requested = true
		p.permission = p.decide()
	}
	return p.permission
}

// Send dispatches one push notification. Disabled or denied push is not an
// error, it is a skipped leg reported in the result.
func (p *PushSender) Send(ctx context.Context, title, body string) models.DeliveryResult {
	res := models.DeliveryResult{Channel: models.ChannelPush, Provider: "system"}

	if !p.enabled {
		res.ErrorKind = models.ErrorKindPermissionDenied
		res.Error = "push disabled"
		return res
	}
	if perm := p.requestPermission(); perm != PermissionGranted {
		res.ErrorKind = models.ErrorKindPermissionDenied
		res.Error = "push permission " + string(perm)
		return res
	}
	if err := ctx.Err(); err != nil {
		res.ErrorKind = models.ErrorKindProviderError
		res.Error = err.Error()
		return res
	}

	p.logger.Info().
		Str("topic", p.topic).
		Str("title", title).
		Msg("push notification dispatched")

	res.Success = true
	res.ExternalMessageID = fmt.Sprintf("push_%d", time.Now().UnixMilli())
	return res
}
