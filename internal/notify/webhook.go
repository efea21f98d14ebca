package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

// WebhookTarget posts revalidation events to an HTTP endpoint, retrying
// transient failures with exponential backoff.
type WebhookTarget struct {
	url        string
	client     *http.Client
	maxRetries uint64
	log        zerolog.Logger
}

// NewWebhookTarget creates a webhook target. timeout bounds each attempt.
func NewWebhookTarget(url string, timeout time.Duration, log zerolog.Logger) *WebhookTarget {
	return &WebhookTarget{
		url:        url,
		client:     &http.Client{Timeout: timeout},
		maxRetries: 3,
		log:        log.With().Str("component", "webhook").Logger(),
	}
}

// Name implements Target
func (t *WebhookTarget) Name() string { return "webhook" }

// Revalidate posts the event. 4xx responses are not retried.
func (t *WebhookTarget) Revalidate(ctx context.Context, path string) error {
	body, err := json.Marshal(Event{Path: path, RequestedAt: time.Now().UTC()})
	if err != nil {
		return err
	}

	attempt := 0
	op := func() error {
		attempt++
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := t.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		io.Copy(io.Discard, resp.Body)

		switch {
		case resp.StatusCode < 300:
			return nil
		case resp.StatusCode < 500:
			return backoff.Permanent(fmt.Errorf("webhook returned %d", resp.StatusCode))
		default:
			return fmt.Errorf("webhook returned %d", resp.StatusCode)
		}
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 50 * time.Millisecond
	bo.MaxInterval = time.Second

	err = backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(bo, t.maxRetries), ctx))
	if err != nil {
		t.log.Warn().Err(err).Str("path", path).Int("attempts", attempt).Msg("Webhook revalidation failed")
	}
	return err
}
