package sms

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/outpasshq/notify/internal/config"
	"github.com/outpasshq/notify/internal/models"
	"github.com/outpasshq/notify/internal/provider"
)

var textLocalURL = "https://api.textlocal.in/send/"

type TextLocal struct {
	cfg    config.TextLocalConfig
	client *http.Client
}

func (t *TextLocal) Name() string { return "TextLocal" }

func (t *TextLocal) Send(ctx context.Context, destination, message string, _ provider.Options) models.DeliveryResult {
	form := url.Values{
		"apikey":  {t.cfg.APIKey},
		"numbers": {destination},
		"message": {message},
		"sender":  {t.cfg.Sender},
	}

	body, status, err := provider.PostForm(ctx, t.client, textLocalURL, nil, form)
	if err != nil {
		return provider.Failure(t.Name(), models.ErrorKindProviderError, err, string(body))
	}
	if !provider.OK(status) {
		return provider.Failure(t.Name(), models.ErrorKindProviderError,
			fmt.Errorf("textlocal api status %d", status), string(body))
	}

	// TextLocal signals failure in the body, not the status code.
	var parsed struct {
		Status    string `json:"status"`
		MessageID string `json:"message_id"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return provider.Failure(t.Name(), models.ErrorKindProviderError,
			fmt.Errorf("malformed response: %w", err), string(body))
	}
	if parsed.Status != "success" {
		return provider.Failure(t.Name(), models.ErrorKindProviderError,
			fmt.Errorf("textlocal status %q", parsed.Status), string(body))
	}

	return models.DeliveryResult{
		Provider:          t.Name(),
		Success:           true,
		ExternalMessageID: parsed.MessageID,
		RawResponse:       string(body),
	}
}

func (t *TextLocal) Status(_ context.Context, _ string) models.MessageStatus {
	return models.MessageStatusUnknown
}

// mapVendorStatus folds vendor report strings into the shared status set.
func mapVendorStatus(raw string) models.MessageStatus {
	switch raw {
	case "delivered":
		return models.MessageStatusDelivered
	case "failed", "undelivered":
		return models.MessageStatusFailed
	case "queued", "sent", "sending", "accepted", "pending":
		return models.MessageStatusPending
	default:
		return models.MessageStatusUnknown
	}
}
