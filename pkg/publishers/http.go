package publishers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/Adda-Baaj/onefootball-harvester/pkg/httpclient"
)

// maxErrorBodyBytes caps how much of a failed response is quoted in the error.
const maxErrorBodyBytes = 512

// httpPublisher posts each event as JSON to a webhook.
type httpPublisher struct {
	id     string
	target HTTPPublisherConfig
	client *resty.Client
	log    Logger
}

// StatusError is returned when the sink answers with a non-2xx status.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("http response status %d", e.Status)
	}
	return fmt.Sprintf("http response status %d: %s", e.Status, e.Body)
}

func newHTTPPublisher(_ context.Context, cfg PublisherConfig, log Logger) (Publisher, error) {
	if cfg.HTTP == nil {
		return nil, fmt.Errorf("publisher %q missing http configuration", cfg.ID)
	}
	target := *cfg.HTTP
	target.normalize()

	return &httpPublisher{
		id:     cfg.ID,
		target: target,
		client: httpclient.NewRestyHTTPClient(time.Duration(target.TimeoutSeconds) * time.Second),
		log:    ensureLogger(log),
	}, nil
}

func (h *httpPublisher) ID() string   { return h.id }
func (h *httpPublisher) Type() string { return TypeHTTP }

func (h *httpPublisher) Publish(ctx context.Context, evt Event) error {
	resp, err := h.client.R().
		SetContext(ctx).
		SetHeaders(h.target.Headers).
		SetHeader("Content-Type", "application/json").
		SetHeader("X-Event-ID", evt.ID).
		SetBody(evt).
		Execute(h.target.Method, h.target.URL)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	if resp.IsError() {
		return &StatusError{Status: resp.StatusCode(), Body: quoteBody(resp.Body())}
	}

	h.log.DebugObj("http sink accepted event", "publisher_http_delivery", map[string]any{
		"publisher_id": h.id,
		"event_id":     evt.ID,
		"status":       resp.StatusCode(),
	})
	return nil
}

func quoteBody(body []byte) string {
	if len(body) > maxErrorBodyBytes {
		body = body[:maxErrorBodyBytes]
	}
	return strings.TrimSpace(string(body))
}
