package whatsapp

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/outpasshq/notify/internal/config"
	"github.com/outpasshq/notify/internal/models"
	"github.com/outpasshq/notify/internal/provider"
)

var twilioBaseURL = "https://api.twilio.com/2010-04-01"

// Twilio sends WhatsApp messages through Twilio's messaging API.
type Twilio struct {
	cfg    config.TwilioConfig
	client *http.Client
}

func (t *Twilio) Name() string { return "Twilio WhatsApp" }

func (t *Twilio) Send(ctx context.Context, destination, message string, _ provider.Options) models.DeliveryResult {
	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", twilioBaseURL, t.cfg.AccountSID)
	form := url.Values{
		"To":   {"whatsapp:+" + destination},
		"From": {t.cfg.FromNumber},
		"Body": {message},
	}
	creds := base64.StdEncoding.EncodeToString([]byte(t.cfg.AccountSID + ":" + t.cfg.AuthToken))
	headers := map[string]string{"Authorization": "Basic " + creds}

	body, status, err := provider.PostForm(ctx, t.client, endpoint, headers, form)
	if err != nil {
		return provider.Failure(t.Name(), models.ErrorKindProviderError, err, string(body))
	}
	if !provider.OK(status) {
		return provider.Failure(t.Name(), models.ErrorKindProviderError,
			fmt.Errorf("twilio api status %d", status), string(body))
	}

	var parsed struct {
		SID string `json:"sid"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return provider.Failure(t.Name(), models.ErrorKindProviderError,
			fmt.Errorf("malformed response: %w", err), string(body))
	}

	return models.DeliveryResult{
		Provider:          t.Name(),
		Success:           true,
		ExternalMessageID: parsed.SID,
		RawResponse:       string(body),
	}
}

func (t *Twilio) Status(_ context.Context, _ string) models.MessageStatus {
	return models.MessageStatusUnknown
}
