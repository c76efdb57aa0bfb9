package notify

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sprinklerd/sprinklerd/controller"
)

// WebhookSink POSTs a URL-encoded form to a fixed endpoint for every
// event, matching the source firmware's push-notification transport.
type WebhookSink struct {
	endpoint string
	client   *http.Client
}

// NewWebhookSink returns a sink posting to endpoint.
func NewWebhookSink(endpoint string) *WebhookSink {
	return &WebhookSink{endpoint: endpoint, client: &http.Client{Timeout: 5 * time.Second}}
}

func (s *WebhookSink) Name() string { return "webhook" }

func (s *WebhookSink) Send(e controller.Event) error {
	form := url.Values{}
	form.Set("kind", e.Kind.String())
	form.Set("at", e.At.UTC().Format(time.RFC3339))
	switch {
	case e.Uint != nil:
		form.Set("value", fmt.Sprintf("%d", *e.Uint))
	case e.Float != nil:
		form.Set("value", fmt.Sprintf("%.2f", *e.Float))
	case e.String != nil:
		form.Set("value", *e.String)
	}

	resp, err := s.client.PostForm(s.endpoint, form)
	if err != nil {
		return fmt.Errorf("webhook post: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook post: status %d", resp.StatusCode)
	}
	return nil
}
