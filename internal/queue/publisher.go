package queue

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// AuditQueue is the durable queue carrying audit events.
const AuditQueue = "movies.audit"

// Publisher sends audit events to RabbitMQ. A connection is dialed per
// publish so that a broker outage never wedges request handling.
type Publisher struct {
	url string
	log *slog.Logger
}

func NewPublisher(url string, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{url: url, log: logger.With("module", "audit_publisher")}
}

// Record publishes ev to the audit queue as a persistent JSON message.
func (p *Publisher) Record(ctx context.Context, ev AuditEvent) error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		p.log.Error("dial failed", "error", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.log.Error("channel open failed", "error", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	// Idempotent; durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(AuditQueue, true, false, false, false, nil); err != nil {
		p.log.Error("queue declare failed", "error", err)
		return err
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    ev.ID,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", AuditQueue, false, false, pub); err != nil {
		p.log.Error("publish failed", "error", err, "event_id", ev.ID)
		return err
	}
	return nil
}

// Recorder is implemented by every audit sink.
type Recorder interface {
	Record(ctx context.Context, ev AuditEvent) error
}

// Fallback records to Primary and, when that fails, to Secondary.
type Fallback struct {
	Primary   Recorder
	Secondary Recorder
}

func (f Fallback) Record(ctx context.Context, ev AuditEvent) error {
	if err := f.Primary.Record(ctx, ev); err == nil {
		return nil
	}
	return f.Secondary.Record(ctx, ev)
}
