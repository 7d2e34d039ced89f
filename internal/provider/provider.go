package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/outpasshq/notify/internal/models"
)

// Backend is the capability every concrete messaging vendor is reduced to:
// one outbound request per Send, failures reported as result values.
type Backend interface {
	Name() string
	Send(ctx context.Context, destination, message string, opts Options) models.DeliveryResult
	Status(ctx context.Context, messageID string) models.MessageStatus
}

// Options carries provider-specific extras alongside a plain text message.
type Options struct {
	TemplateID   string
	Template     string
	TemplateData map[string]string
}

// Failure builds a failed DeliveryResult for a backend. The raw response is
// kept for diagnostics and never surfaced as an error to callers.
func Failure(name string, kind models.ErrorKind, err error, raw string) models.DeliveryResult {
	res := models.DeliveryResult{
		Provider:    name,
		Success:     false,
		ErrorKind:   kind,
		RawResponse: raw,
	}
	if err != nil {
		res.Error = err.Error()
	}
	return res
}

// Console is the log-only fallback backend chosen when no real vendor has a
// usable credential. It always reports success and never delivers anything.
type Console struct {
	Logger zerolog.Logger
}

func (c *Console) Name() string { return "Console" }

func (c *Console) Send(_ context.Context, destination, message string, _ Options) models.DeliveryResult {
	c.Logger.Info().
		Str("to", destination).
		Str("message", message).
		Msg("simulated send")
	return models.DeliveryResult{
		Provider:          c.Name(),
		Success:           true,
		ExternalMessageID: fmt.Sprintf("console_%d", time.Now().UnixMilli()),
	}
}

func (c *Console) Status(_ context.Context, _ string) models.MessageStatus {
	return models.MessageStatusUnknown
}
