// Package sms implements the SMS leg's vendor backends. Exactly one backend
// is selected at startup from a fixed priority chain; installs without a real
// credential fall back to console logging.
package sms

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/outpasshq/notify/internal/config"
	"github.com/outpasshq/notify/internal/provider"
)

// Select walks the priority chain MSG91 → Twilio → TextLocal → Console and
// returns the first backend with a non-placeholder credential.
func Select(cfg config.SMSConfig, logger zerolog.Logger) provider.Backend {
	logger = logger.With().Str("component", "sms").Logger()

	if !cfg.Enabled {
		logger.Info().Msg("sms channel disabled, using console logging")
		return &provider.Console{Logger: logger}
	}

	client := &http.Client{}

	switch {
	case config.Configured(cfg.MSG91.APIKey, config.PlaceholderMSG91Key):
		logger.Info().Str("provider", "MSG91").Msg("sms backend selected")
		return &MSG91{cfg: cfg.MSG91, client: client}
	case config.Configured(cfg.Twilio.AccountSID, config.PlaceholderTwilioSID):
		logger.Info().Str("provider", "Twilio").Msg("sms backend selected")
		return &Twilio{cfg: cfg.Twilio, client: client}
	case config.Configured(cfg.TextLocal.APIKey, config.PlaceholderTextLocalKey):
		logger.Info().Str("provider", "TextLocal").Msg("sms backend selected")
		return &TextLocal{cfg: cfg.TextLocal, client: client}
	default:
		logger.Warn().Msg("no sms provider configured, using console logging")
		return &provider.Console{Logger: logger}
	}
}
