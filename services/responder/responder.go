package responder

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/slack-go/slack"

	"snowgate/models"
)

const (
	responseTypeEphemeral = "ephemeral"
	responseTypeInChannel = "in_channel"

	deliveryTimeout = 10 * time.Second
)

// ResponderService posts a command result back to the caller-supplied
// callback address. Delivery is single-shot and best-effort: any failure is
// logged and swallowed, never surfaced to the deferred task. If delivery
// fails the requester learns nothing - the logs are the only fallback.
type ResponderService struct {
	httpClient *http.Client
}

func NewResponderService() *ResponderService {
	return &ResponderService{
		httpClient: &http.Client{Timeout: deliveryTimeout},
	}
}

// Deliver sends the result privately to the requester (ephemeral visibility)
func (s *ResponderService) Deliver(ctx context.Context, responseURL string, result *models.CommandResult) {
	s.deliver(ctx, responseURL, result, responseTypeEphemeral)
}

// DeliverInChannel sends the result with channel-wide visibility. No current
// subcommand uses it; the platform supports both reply scopes.
func (s *ResponderService) DeliverInChannel(ctx context.Context, responseURL string, result *models.CommandResult) {
	s.deliver(ctx, responseURL, result, responseTypeInChannel)
}

func (s *ResponderService) deliver(ctx context.Context, responseURL string, result *models.CommandResult, responseType string) {
	if err := validateResponseURL(responseURL); err != nil {
		log.Printf("❌ Refusing delayed response delivery | error=%v", err)
		return
	}

	msg := &slack.WebhookMessage{
		ResponseType: responseType,
		Text:         result.Message,
	}

	ctx, cancel := context.WithTimeout(ctx, deliveryTimeout)
	defer cancel()

	if err := slack.PostWebhookCustomHTTPContext(ctx, responseURL, s.httpClient, msg); err != nil {
		log.Printf("❌ Failed to deliver delayed response | url=%s error=%v", responseURL, err)
		return
	}
	log.Printf("✅ Delayed response delivered | success=%t", result.Success)
}

// validateResponseURL ensures the callback address is an absolute http(s)
// URL before any network call is attempted
func validateResponseURL(responseURL string) error {
	parsed, err := url.Parse(responseURL)
	if err != nil {
		return fmt.Errorf("invalid response_url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("response_url must be an absolute http(s) URL, got %q", responseURL)
	}
	if parsed.Host == "" {
		return fmt.Errorf("response_url has no host: %q", responseURL)
	}
	return nil
}
