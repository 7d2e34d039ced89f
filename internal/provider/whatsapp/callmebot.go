package whatsapp

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/outpasshq/notify/internal/config"
	"github.com/outpasshq/notify/internal/models"
	"github.com/outpasshq/notify/internal/provider"
)

var callMeBotURL = "https://api.callmebot.com/whatsapp.php"

// CallMeBot is a minimal GET-based relay that requires the destination number
// to be pre-registered with the service.
type CallMeBot struct {
	cfg    config.CallMeBotConfig
	client *http.Client
}

func (c *CallMeBot) Name() string { return "CallMeBot" }

func (c *CallMeBot) Send(ctx context.Context, destination, message string, _ provider.Options) models.DeliveryResult {
	endpoint := fmt.Sprintf("%s?phone=%s&text=%s&apikey=%s",
		callMeBotURL, destination, url.QueryEscape(message), c.cfg.APIKey)

	body, status, err := provider.Get(ctx, c.client, endpoint, nil)
	if err != nil {
		return provider.Failure(c.Name(), models.ErrorKindProviderError, err, string(body))
	}
	// CallMeBot answers 200 with an error string in the HTML body.
	if !provider.OK(status) || strings.Contains(strings.ToLower(string(body)), "error") {
		return provider.Failure(c.Name(), models.ErrorKindProviderError,
			fmt.Errorf("callmebot status %d", status), string(body))
	}

	return models.DeliveryResult{
		Provider:          c.Name(),
		Success:           true,
		ExternalMessageID: fmt.Sprintf("callmebot_%d", time.Now().UnixMilli()),
		RawResponse:       string(body),
	}
}

func (c *CallMeBot) Status(_ context.Context, _ string) models.MessageStatus {
	return models.MessageStatusUnknown
}
