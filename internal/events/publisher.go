// Package events publishes booking lifecycle events to RabbitMQ for
// downstream consumers (notifications, analytics). Publishing happens
// after the database transaction commits and is best effort: a broker
// failure is logged, never surfaced to the caller.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"lesson-booking/pkg/utils"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const exchangeName = "lesson-booking.events"

const (
	ReservationConfirmed = "reservation.confirmed"
	ReservationCancelled = "reservation.cancelled"
	WaitlistJoined       = "waitlist.joined"
	WaitlistPromoted     = "waitlist.promoted"
	OrderConfirmed       = "order.confirmed"
)

// Event is the wire payload. SlotID is the schedule or practice session
// the reservation targets; Position is set only for waitlist events.
type Event struct {
	Type          string    `json:"type"`
	ReservationID uuid.UUID `json:"reservation_id,omitempty"`
	UserID        uuid.UUID `json:"user_id,omitempty"`
	SlotID        uuid.UUID `json:"slot_id,omitempty"`
	OrderID       uuid.UUID `json:"order_id,omitempty"`
	Position      int       `json:"position,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

type Publisher struct {
	conn *amqp.Connection
	ch   *amqp.Channel
	log  *zap.Logger
}

// New connects to the broker and declares the topic exchange. When AMQP is
// disabled in config it returns nil, and publishing on a nil *Publisher is
// a no-op.
func New(cfg *utils.Config, log *zap.Logger) (*Publisher, error) {
	if !cfg.AMQP.Enabled {
		return nil, nil
	}

	conn, err := amqp.Dial(cfg.AMQP.URL)
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open amqp channel: %w", err)
	}

	err = ch.ExchangeDeclare(exchangeName, "topic", true, false, false, false, nil)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchangeName, err)
	}

	return &Publisher{
		conn: conn,
		ch:   ch,
		log:  log.With(zap.String("component", "events")),
	}, nil
}

func (p *Publisher) Close() {
	if p == nil {
		return
	}
	p.ch.Close()
	p.conn.Close()
}

// Publish sends the event with its type as the routing key.
func (p *Publisher) Publish(ctx context.Context, event Event) {
	if p == nil {
		return
	}

	body, err := json.Marshal(event)
	if err != nil {
		p.log.Error("Failed to marshal event", zap.Error(err), zap.String("type", event.Type))
		return
	}

	err = p.ch.PublishWithContext(ctx, exchangeName, event.Type, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    event.OccurredAt,
		Body:         body,
	})
	if err != nil {
		p.log.Error("Failed to publish event",
			zap.Error(err),
			zap.String("type", event.Type),
			zap.String("reservation_id", event.ReservationID.String()),
		)
		return
	}

	p.log.Debug("Published event", zap.String("type", event.Type))
}
