package sms

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/outpasshq/notify/internal/config"
	"github.com/outpasshq/notify/internal/models"
	"github.com/outpasshq/notify/internal/provider"
)

var msg91BaseURL = "https://api.msg91.com/api/v5"

type MSG91 struct {
	cfg    config.MSG91Config
	client *http.Client
}

func (m *MSG91) Name() string { return "MSG91" }

type msg91Request struct {
	FlowID  string `json:"flow_id"`
	Sender  string `json:"sender"`
	Mobiles string `json:"mobiles"`
	Message string `json:"message"`
	AuthKey string `json:"authkey"`
}

type msg91Response struct {
	MessageID string `json:"message_id"`
	Type      string `json:"type"`
}

func (m *MSG91) Send(ctx context.Context, destination, message string, opts provider.Options) models.DeliveryResult {
	flowID := m.cfg.FlowID
	if opts.TemplateID != "" {
		flowID = opts.TemplateID
	}
	payload := msg91Request{
		FlowID:  flowID,
		Sender:  m.cfg.SenderID,
		Mobiles: destination,
		Message: message,
		AuthKey: m.cfg.APIKey,
	}

	body, status, err := provider.PostJSON(ctx, m.client, msg91BaseURL+"/flow/", nil, payload)
	if err != nil {
		return provider.Failure(m.Name(), models.ErrorKindProviderError, err, string(body))
	}
	if !provider.OK(status) {
		return provider.Failure(m.Name(), models.ErrorKindProviderError,
			fmt.Errorf("msg91 api status %d", status), string(body))
	}

	var parsed msg91Response
	if err := json.Unmarshal(body, &parsed); err != nil {
		return provider.Failure(m.Name(), models.ErrorKindProviderError,
			fmt.Errorf("malformed response: %w", err), string(body))
	}

	return models.DeliveryResult{
		Provider:          m.Name(),
		Success:           true,
		ExternalMessageID: parsed.MessageID,
		RawResponse:       string(body),
	}
}

func (m *MSG91) Status(ctx context.Context, messageID string) models.MessageStatus {
	headers := map[string]string{"authkey": m.cfg.APIKey}
	body, status, err := provider.Get(ctx, m.client, msg91BaseURL+"/report/"+messageID, headers)
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
