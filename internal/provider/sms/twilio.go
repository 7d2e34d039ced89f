package sms

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

type Twilio struct {
	cfg    config.TwilioConfig
	client *http.Client
}

func (t *Twilio) Name() string { return "Twilio" }

func (t *Twilio) Send(ctx context.Context, destination, message string, _ provider.Options) models.DeliveryResult {
	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", twilioBaseURL, t.cfg.AccountSID)
	form := url.Values{
		"To":   {"+" + destination},
		"From": {t.cfg.FromNumber},
		"Body": {message},
	}

	body, status, err := provider.PostForm(ctx, t.client, endpoint, t.authHeader(), form)
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

func (t *Twilio) Status(ctx context.Context, messageID string) models.MessageStatus {
	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages/%s.json", twilioBaseURL, t.cfg.AccountSID, messageID)
	body, status, err := provider.Get(ctx, t.client, endpoint, t.authHeader())
	if err != nil || !provider.OK(status) {
		return models.MessageStatusUnknown
	}

	var parsed struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return models.MessageStatusUnknown
	}
	return mapVendorStatus(parsed.Status)
}

func (t *Twilio) authHeader() map[string]string {
	creds := base64.StdEncoding.EncodeToString([]byte(t.cfg.AccountSID + ":" + t.cfg.AuthToken))
	return map[string]string{"Authorization": "Basic " + creds}
}
