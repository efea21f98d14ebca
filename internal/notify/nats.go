package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// DefaultSubject is the subject revalidation events are published on
const DefaultSubject = "views.revalidate"

const defaultFlushTimeout = 2 * time.Second

// NATSTarget publishes revalidation events to a NATS subject
type NATSTarget struct {
	conn    *nats.Conn
	subject string
	timeout time.Duration
	log     zerolog.Logger
}

// NewNATSTarget connects to url and returns a target publishing on subject.
// It returns an error if the initial connection fails.
func NewNATSTarget(url, subject string, timeout time.Duration, log zerolog.Logger) (*NATSTarget, error) {
	if subject == "" {
		subject = DefaultSubject
	}
	log = log.With().Str("component", "nats").Logger()

	opts := []nats.Option{
		nats.Name("law-comments-api"),
		nats.ReconnectWait(2 * time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			log.Info().Msg("NATS connection closed")
		}),
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	log.Info().Str("url", nc.ConnectedUrl()).Str("subject", subject).Msg("NATS connected")

	return &NATSTarget{conn: nc, subject: subject, timeout: timeout, log: log}, nil
}

// Name implements Target
func (t *NATSTarget) Name() string { return "nats" }

// Revalidate publishes the event and flushes so the call returns only once
// the server has received it.
func (t *NATSTarget) Revalidate(ctx context.Context, path string) error {
	data, err := json.Marshal(Event{Path: path, RequestedAt: time.Now().UTC()})
	if err != nil {
		return err
	}
	if err := t.conn.Publish(t.subject, data); err != nil {
		return fmt.Errorf("nats publish: %w", err)
	}

	timeout := t.timeout
	if timeout <= 0 {
		timeout = defaultFlushTimeout
	}
	// FlushWithContext requires a deadline
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := t.conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("nats flush: %w", err)
	}
	return nil
}

// Close drains and closes the connection
func (t *NATSTarget) Close() error {
	return t.conn.Drain()
}
