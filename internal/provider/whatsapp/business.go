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

var graphAPIBase = "https://graph.facebook.com/v17.0"

// Business uses the official WhatsApp Business (Graph) API.
type Business struct {
	cfg    config.WABusinessConfig
	client *http.Client
}

func (b *Business) Name() string { return "WhatsApp Business API" }

func (b *Business) Send(ctx context.Context, destination, message string, _ provider.Options) models.DeliveryResult {
	endpoint := fmt.Sprintf("%s/%s/messages", graphAPIBase, b.cfg.PhoneNumberID)
	payload := map[string]interface{}{
		"messaging_product": "whatsapp",
		"to":                destination,
		"type":              "text",
		"text":              map[string]string{"body": message},
	}
	headers := map[string]string{"Authorization": "Bearer " + b.cfg.AccessToken}

	body, status, err := provider.PostJSON(ctx, b.client, endpoint, headers, payload)
	if err != nil {
		return provider.Failure(b.Name(), models.ErrorKindProviderError, err, string(body))
	}
	if !provider.OK(status) {
		return provider.Failure(b.Name(), models.ErrorKindProviderError,
			fmt.Errorf("graph api status %d", status), string(body))
	}

	var parsed struct {
		Messages []struct {
			ID string `json:"id"`
		} `json:"messages"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return provider.Failure(b.Name(), models.ErrorKindProviderError,
			fmt.Errorf("malformed response: %w", err), string(body))
	}

	res := models.DeliveryResult{
		Provider:    b.Name(),
		Success:     true,
		RawResponse: string(body),
	}
	if len(parsed.Messages) > 0 {
		res.ExternalMessageID = parsed.Messages[0].ID
	}
	return res
}

func (b *Business) Status(_ context.Context, _ string) models.MessageStatus {
	return models.MessageStatusUnknown
}
