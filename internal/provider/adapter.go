package provider

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/outpasshq/notify/internal/models"
)

// sleepHook is swapped in tests to avoid real bulk-send delays.
var sleepHook = sleepCtx

// Adapter binds one channel to its selected backend and layers destination
// normalization, bulk and scheduled sends on top of the raw capability.
// Backend selection happens once at construction and never changes for the
// lifetime of the session.
type Adapter struct {
	channel     models.Channel
	backend     Backend
	countryCode string
	bulkDelay   time.Duration
	logger      zerolog.Logger
}

func NewAdapter(channel models.Channel, backend Backend, countryCode string, bulkDelay time.Duration, logger zerolog.Logger) *Adapter {
	return &Adapter{
		channel:     channel,
		backend:     backend,
		countryCode: countryCode,
		bulkDelay:   bulkDelay,
		logger:      logger.With().Str("channel", string(channel)).Str("provider", backend.Name()).Logger(),
	}
}

func (a *Adapter) Channel() models.Channel { return a.channel }
func (a *Adapter) Provider() string        { return a.backend.Name() }

// Send normalizes the destination and performs exactly one backend attempt.
// Malformed destinations fail fast without any network traffic.
func (a *Adapter) Send(ctx context.Context, rawDestination, message string, opts Options) models.DeliveryResult {
	dest, ok := NormalizePhone(rawDestination, a.countryCode)
	if !ok {
		res := Failure(a.backend.Name(), models.ErrorKindInvalidDestination, nil, "")
		res.Channel = a.channel
		res.Error = "invalid phone number"
		return res
	}

	res := a.backend.Send(ctx, dest, message, opts)
	res.Channel = a.channel
	if !res.Success {
		a.logger.Warn().
			Str("to", dest).
			Str("error", res.Error).
			Msg("send failed")
	}
	return res
}

// SendBulk delivers to each destination in order with a fixed inter-message
// delay. A failed destination never aborts the rest.
func (a *Adapter) SendBulk(ctx context.Context, destinations []string, message string, opts Options) []models.DeliveryResult {
	results := make([]models.DeliveryResult, 0, len(destinations))
	for i, dest := range destinations {
		results = append(results, a.Send(ctx, dest, message, opts))
		if i < len(destinations)-1 {
			if err := sleepHook(ctx, a.bulkDelay); err != nil {
				// Teardown mid-bulk: remaining sends are dropped, their
				// slots still appear in the ordered result.
				for range destinations[i+1:] {
					res := Failure(a.backend.Name(), models.ErrorKindProviderError, err, "")
					res.Channel = a.channel
					results = append(results, res)
				}
				return results
			}
		}
	}
	return results
}

// SendAt defers a send until the given time. Past timestamps degrade to an
// immediate send. Deferred sends are in-memory only; a restart loses them and
// their eventual results are logged, not returned.
func (a *Adapter) SendAt(rawDestination, message string, at time.Time, opts Options) models.ScheduleResult {
	delay := time.Until(at)
	if delay <= 0 {
		return models.ScheduleResult{
			Scheduled: false,
			Immediate: a.Send(context.Background(), rawDestination, message, opts),
		}
	}

	time.AfterFunc(delay, func() {
		res := a.Send(context.Background(), rawDestination, message, opts)
		a.logger.Info().
			Bool("success", res.Success).
			Str("to", rawDestination).
			Msg("scheduled send fired")
	})

	return models.ScheduleResult{Scheduled: true, At: at, Delay: delay}
}

// Status asks the backend for a delivery report. Backends without a status
// endpoint answer unknown.
func (a *Adapter) Status(ctx context.Context, messageID string) models.MessageStatus {
	return a.backend.Status(ctx, messageID)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
