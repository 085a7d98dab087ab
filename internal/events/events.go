// Package events announces completed registrations to other services.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// Submitted is published once the registration API accepted a draft.
type Submitted struct {
	RegistrationID string    `json:"registrationId"`
	EventSlug      string    `json:"eventSlug"`
	EventName      string    `json:"eventName"`
	EventType      string    `json:"eventType"`
	TeamName       string    `json:"teamName,omitempty"`
	MemberCount    int       `json:"memberCount"`
	SubmittedAt    time.Time `json:"submittedAt"`
}

type Publisher interface {
	PublishSubmitted(ctx context.Context, ev Submitted) error
	Close() error
}

// NoopPublisher drops every event. It is used when NATS_URL is unset.
type NoopPublisher struct{}

func (NoopPublisher) PublishSubmitted(context.Context, Submitted) error { return nil }
func (NoopPublisher) Close() error                                    { return nil }

// conn is the part of *nats.Conn the publisher needs.
type conn interface {
	Publish(subject string, data []byte) error
	IsConnected() bool
	Drain() error
}

var _ Publisher = (*NATSPublisher)(nil)

type NATSPublisher struct {
	conn    conn
	subject string
}

// ErrNotConnected is returned while the NATS connection is down.
var ErrNotConnected = errors.New("nats: not connected")

// Connect dials NATS and returns a publisher for subject.
func Connect(ctx context.Context, url, subject string) (*NATSPublisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("techfest-web"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			slog.WarnContext(ctx, "NATS disconnected", "error", err, "url", nc.ConnectedUrl())
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.InfoContext(ctx, "NATS reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats %s: %w", url, err)
	}
	slog.InfoContext(ctx, "connected to NATS", "url", nc.ConnectedUrl(), "subject", subject)
	return newNATSPublisher(nc, subject), nil
}

func newNATSPublisher(c conn, subject string) *NATSPublisher {
	return &NATSPublisher{conn: c, subject: subject}
}

func (p *NATSPublisher) PublishSubmitted(ctx context.Context, ev Submitted) error {
	if !p.conn.IsConnected() {
		return ErrNotConnected
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", p.subject, err)
	}
	if err := p.conn.Publish(p.subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", p.subject, err)
	}
	slog.DebugContext(ctx, "event published",
		"subject", p.subject,
		"registration_id", ev.RegistrationID,
		"message_size", len(data),
	)
	return nil
}

// Close drains pending messages before closing the connection.
func (p *NATSPublisher) Close() error {
	return p.conn.Drain()
}
