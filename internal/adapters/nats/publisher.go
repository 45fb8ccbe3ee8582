package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/jcroft/spots/internal/core/domain"
)

// Subjects published by the spot pipeline. The created stream feeds the
// WebSocket live feed; the neighborhoods stream feeds cache invalidation and
// the refresh worker's audit trail.
const (
	SubjectSpotCreated          = "spots.created"
	SubjectNeighborhoodsUpdated = "spots.neighborhoods.updated"
)

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and enables JetStream.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	// Ensure streams exist
	streams := []nats.StreamConfig{
		{
			Name:      "SPOT_EVENTS",
			Subjects:  []string{"spots.created"},
			Retention: nats.InterestPolicy,
			MaxAge:    24 * time.Hour,
			Storage:   nats.FileStorage,
		},
		{
			Name:      "SPOT_NEIGHBORHOODS",
			Subjects:  []string{"spots.neighborhoods.>"},
			Retention: nats.InterestPolicy,
			MaxAge:    24 * time.Hour,
			Storage:   nats.FileStorage,
		},
	}

	for _, cfg := range streams {
		if _, err := js.AddStream(&cfg); err != nil {
			// Stream may already exist — try update
			if _, err := js.UpdateStream(&cfg); err != nil {
				return nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
			}
		}
	}

	return &Publisher{conn: conn, js: js}, nil
}

// PublishSpotCreated announces a newly resolved spot.
func (p *Publisher) PublishSpotCreated(ctx context.Context, spot *domain.Spot) error {
	data, err := json.Marshal(spot)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(SubjectSpotCreated, data)
	return err
}

// PublishNeighborhoodsUpdated announces a change in a spot's neighborhood set.
func (p *Publisher) PublishNeighborhoodsUpdated(ctx context.Context, spot *domain.Spot) error {
	data, err := json.Marshal(spot)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(SubjectNeighborhoodsUpdated+"."+spot.ID, data)
	return err
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn creates a plain NATS connection for subscribing (e.g. WebSocket relay).
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
