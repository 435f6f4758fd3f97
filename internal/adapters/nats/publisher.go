package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/placemap/internal/core/domain"
	"github.com/samirrijal/placemap/internal/pkg/metrics"
)

// SubjectPrefix is the root of every subject placemap publishes on.
const SubjectPrefix = "placemap"

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and enables JetStream.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	// Ensure streams exist
	streams := []nats.StreamConfig{
		{
			Name:      "PLACEMAP_PLACES",
			Subjects:  []string{SubjectPrefix + ".places.>"},
			Retention: nats.LimitsPolicy,
			MaxAge:    24 * time.Hour,
			Storage:   nats.FileStorage,
		},
		{
			Name:      "PLACEMAP_USERS",
			Subjects:  []string{SubjectPrefix + ".users.>"},
			Retention: nats.LimitsPolicy,
			MaxAge:    1 * time.Hour,
			Storage:   nats.FileStorage,
		},
	}

	for _, cfg := range streams {
		if _, err := js.AddStream(&cfg); err != nil {
			// Stream may already exist, so try an update.
			if _, err := js.UpdateStream(&cfg); err != nil {
				conn.Close()
				return nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
			}
		}
	}

	return &Publisher{conn: conn, js: js}, nil
}

// Subject maps an event type such as "place.created" to "placemap.places.created".
func Subject(eventType string) string {
	entity, action, ok := strings.Cut(eventType, ".")
	if !ok {
		return SubjectPrefix + ".misc." + eventType
	}
	return SubjectPrefix + "." + entity + "s." + action
}

// Publish implements ports.EventPublisher.
func (p *Publisher) Publish(ctx context.Context, ev domain.DomainEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	msgID := ev.Type + ":" + strconv.FormatInt(ev.EntityID, 10) + ":" + strconv.FormatInt(ev.OccurredAt.UnixNano(), 10)
	_, err = p.js.Publish(Subject(ev.Type), data, nats.Context(ctx), nats.MsgId(msgID))
	if err != nil {
		metrics.EventsPublished.WithLabelValues(ev.Type, "error").Inc()
		return fmt.Errorf("publish %s: %w", ev.Type, err)
	}
	metrics.EventsPublished.WithLabelValues(ev.Type, "ok").Inc()
	return nil
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn creates a plain NATS connection for subscribing (e.g. WebSocket relay).
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.Name("placemap"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
