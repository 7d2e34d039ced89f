package whatsapp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/outpasshq/notify/internal/config"
	"github.com/outpasshq/notify/internal/models"
	"github.com/outpasshq/notify/internal/provider"
)

// LocalBot talks to a self-hosted WhatsApp bot over a small JSON API.
type LocalBot struct {
	cfg    config.LocalBotConfig
	client *http.Client
}

func (l *LocalBot) Name() string { return "Local WhatsApp Bot" }

type localBotRequest struct {
	Number       string            `json:"number"`
	Message      string            `json:"message,omitempty"`
	APIKey       string            `json:"apikey"`
	Template     string            `json:"template,omitempty"`
	TemplateData map[string]string `json:"templateData,omitempty"`
}

type localBotResponse struct {
	Success   bool   `json:"success"`
	MessageID string `json:"messageId"`
	Error     string `json:"error"`
}

func (l *LocalBot) Send(ctx context.Context, destination, message string, opts provider.Options) models.DeliveryResult {
	payload := localBotRequest{
		Number:  destination,
		Message: message,
		APIKey:  l.cfg.APIKey,
	}
	// Template messages carry the template instead of the rendered text.
	if opts.Template != "" {
		payload.Template = opts.Template
		payload.TemplateData = opts.TemplateData
		payload.Message = ""
	}

	body, status, err := provider.PostJSON(ctx, l.client, l.cfg.APIURL, nil, payload)
	if err != nil {
		return provider.Failure(l.Name(), models.ErrorKindProviderError, err, string(body))
	}

	var parsed localBotResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return provider.Failure(l.Name(), models.ErrorKindProviderError,
			fmt.Errorf("malformed response: %w", err), string(body))
	}
	if !parsed.Success && !provider.OK(status) {
		return provider.Failure(l.Name(), models.ErrorKindProviderError,
			fmt.Errorf("local bot status %d: %s", status, parsed.Error), string(body))
	}

	return models.DeliveryResult{
		Provider:          l.Name(),
		Success:           true,
		ExternalMessageID: parsed.MessageID,
		RawResponse:       string(body),
	}
}

func (l *LocalBot) Status(_ context.Context, _ string) models.MessageStatus {
	return models.MessageStatusUnknown
}
