// Package whatsapp implements the WhatsApp leg's vendor backends. The local
// bot must be enabled explicitly; a default install with nothing configured
// falls back to console logging instead of routing real messages.
package whatsapp

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/outpasshq/notify/internal/config"
	"github.com/outpasshq/notify/internal/provider"
)

// Select walks the priority chain LocalBot → WhatsApp Business → Twilio →
// CallMeBot → Console and returns the first usable backend.
func Select(cfg config.WhatsAppConfig, logger zerolog.Logger) provider.Backend {
	logger = logger.With().Str("component", "whatsapp").Logger()

	if !cfg.Enabled {
		logger.Info().Msg("whatsapp channel disabled, using console logging")
		return &provider.Console{Logger: logger}
	}

	client := &http.Client{}

	switch {
	case cfg.LocalBot.Enabled:
		logger.Info().Str("provider", "Local WhatsApp Bot").Str("url", cfg.LocalBot.APIURL).Msg("whatsapp backend selected")
		return &LocalBot{cfg: cfg.LocalBot, client: client}
	case config.Configured(cfg.Business.AccessToken, config.PlaceholderWABusinessTok):
		logger.Info().Str("provider", "WhatsApp Business API").Msg("whatsapp backend selected")
		return &Business{cfg: cfg.Business, client: client}
	case config.Configured(cfg.Twilio.AccountSID, config.PlaceholderTwilioSID):
		logger.Info().Str("provider", "Twilio WhatsApp").Msg("whatsapp backend selected")
		return &Twilio{cfg: cfg.Twilio, client: client}
	case config.Configured(cfg.CallMeBot.APIKey, config.PlaceholderCallMeBotKey):
		logger.Info().Str("provider", "CallMeBot").Msg("whatsapp backend selected")
		return &CallMeBot{cfg: cfg.CallMeBot, client: client}
	default:
		logger.Warn().Msg("no whatsapp provider configured, using console logging")
		return &provider.Console{Logger: logger}
	}
}
