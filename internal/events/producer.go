// Package events publishes transfer lifecycle events to RabbitMQ.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"remit/internal/models"

	"github.com/rabbitmq/amqp091-go"
)

// Exchange is the durable topic exchange all lifecycle events go to.
const Exchange = "remit.events"

// TransferStatusEvent is published on every status transition.
type TransferStatusEvent struct {
	TransferID     string                `json:"transfer_id"`
	TrackingNumber string                `json:"tracking_number"`
	SenderID       string                `json:"sender_id"`
	From           models.TransferStatus `json:"from"`
	To             models.TransferStatus `json:"to"`
	Reason         string                `json:"reason,omitempty"`
	Corridor       string                `json:"corridor"`
	SendAmount     float64               `json:"send_amount"`
	SourceCurrency string                `json:"source_currency"`
	Timestamp      time.Time             `json:"timestamp"`
}

// RoutingKey is transfer.status.<to>.
func (e TransferStatusEvent) RoutingKey() string {
	return "transfer.status." + string(e.To)
}

// NewTransferStatusEvent builds the event for t moving from -> t.Status.
func NewTransferStatusEvent(t *models.Transfer, from models.TransferStatus, reason string, at time.Time) TransferStatusEvent {
	return TransferStatusEvent{
		TransferID:     t.ID,
		TrackingNumber: t.TrackingNumber,
		SenderID:       t.SenderID,
		From:           from,
		To:             t.Status,
		Reason:         reason,
		Corridor:       t.CorridorKey(),
		SendAmount:     t.SendAmount,
		SourceCurrency: t.SourceCurrency,
		Timestamp:      at,
	}
}

// Publisher is the interface implemented by types that can publish events.
type Publisher interface {
	Publish(ctx context.Context, exchange, routingKey string, body interface{}) error
	PublishTransferStatus(ctx context.Context, event TransferStatusEvent) error
	Close()
}

// EventProducer holds the RabbitMQ connection and channel for publishing messages.
type EventProducer struct {
	mu      sync.Mutex
	conn    *amqp091.Connection
	channel *amqp091.Channel
	logger  *slog.Logger
}

// EventProducerFallback logs instead of publishing. Used when RabbitMQ is
// unavailable at startup or not configured.
type EventProducerFallback struct {
	Logger *slog.Logger
}

func (p *EventProducerFallback) Publish(ctx context.Context, exchange, routingKey string, body interface{}) error {
	p.log().Debug("publish skipped", "component", "rabbitmq_producer", "mode", "fallback",
		"exchange", exchange, "routing_key", routingKey)
	return nil
}

func (p *EventProducerFallback) PublishTransferStatus(ctx context.Context, event TransferStatusEvent) error {
	return p.Publish(ctx, Exchange, event.RoutingKey(), event)
}

func (p *EventProducerFallback) Close() {}

func (p *EventProducerFallback) log() *slog.Logger {
	if p.Logger == nil {
		return slog.Default()
	}
	return p.Logger
}

func sanitizeAMQPURL(raw string) (string, error) {
	clean := strings.TrimSpace(raw)
	clean = strings.Trim(clean, "\"'")
	// slice off anything pasted before the scheme
	idx := strings.Index(strings.ToLower(clean), "amqp")
	if idx > 0 {
		clean = clean[idx:]
	}
	u, err := url.Parse(clean)
	if err != nil {
		return "", err
	}
	if u.Scheme != "amqp" && u.Scheme != "amqps" {
		return "", errors.New("AMQP scheme must be either 'amqp://' or 'amqps://'")
	}
	return clean, nil
}

// NewEventProducer dials RabbitMQ with a bounded timeout and declares Exchange.
func NewEventProducer(amqpURL string, logger *slog.Logger) (*EventProducer, error) {
	cleanURL, err := sanitizeAMQPURL(amqpURL)
	if err != nil {
		return nil, err
	}

	conn, err := amqp091.DialConfig(cleanURL, amqp091.Config{Dial: amqp091.DefaultDial(10 * time.Second)})
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	if err := declare(ch, Exchange); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	return &EventProducer{conn: conn, channel: ch, logger: logger}, nil
}

func declare(ch *amqp091.Channel, exchange string) error {
	return ch.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // autoDelete
		false,    // internal
		false,    // noWait
		nil,      // args
	)
}

// reopen replaces a broken channel once. Caller holds p.mu.
func (p *EventProducer) reopen(exchange string) error {
	if p.conn == nil || p.conn.IsClosed() {
		return amqp091.ErrClosed
	}
	ch, err := p.conn.Channel()
	if err != nil {
		return err
	}
	if err := declare(ch, exchange); err != nil {
		ch.Close()
		return err
	}
	p.channel = ch
	return nil
}

// Publish sends body as JSON to exchange with routingKey. A failed publish
// reopens the channel and retries once.
func (p *EventProducer) Publish(ctx context.Context, exchange, routingKey string, body interface{}) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		p.logger.Error("json marshal failed", "component", "rabbitmq_producer",
			"exchange", exchange, "routing_key", routingKey, "error", err)
		return err
	}
	msg := amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		Timestamp:    time.Now(),
		Body:         jsonBody,
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.channel.PublishWithContext(ctx, exchange, routingKey, false, false, msg)
	if err == nil {
		return nil
	}
	p.logger.Warn("publish failed; reopening channel", "component", "rabbitmq_producer",
		"exchange", exchange, "routing_key", routingKey, "error", err)
	if rerr := p.reopen(exchange); rerr != nil {
		return errors.Join(err, rerr)
	}
	return p.channel.PublishWithContext(ctx, exchange, routingKey, false, false, msg)
}

// PublishTransferStatus publishes event to Exchange under its routing key.
func (p *EventProducer) PublishTransferStatus(ctx context.Context, event TransferStatusEvent) error {
	return p.Publish(ctx, Exchange, event.RoutingKey(), event)
}

// Close gracefully closes the channel and connection to RabbitMQ.
func (p *EventProducer) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
}

// Connect returns an EventProducer, or a fallback when amqpURL is empty or
// the broker cannot be reached.
func Connect(amqpURL string, logger *slog.Logger) Publisher {
	if strings.TrimSpace(amqpURL) == "" {
		logger.Info("rabbitmq not configured; events will be logged only", "component", "rabbitmq_producer")
		return &EventProducerFallback{Logger: logger}
	}
	p, err := NewEventProducer(amqpURL, logger)
	if err != nil {
		logger.Warn("rabbitmq unavailable; using fallback publisher", "component", "rabbitmq_producer", "error", err)
		return &EventProducerFallback{Logger: logger}
	}
	return p
}
