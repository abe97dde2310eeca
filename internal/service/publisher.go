// Package service holds the outbound integrations of the API.  Publisher
// sends reservation lifecycle events to RabbitMQ without blocking the
// request that produced them.
package service

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "log/slog"
    "sync"
    "time"

    "github.com/google/uuid"
    amqp "github.com/rabbitmq/amqp091-go"

    "github.com/iliyamo/restaurant-reservation/internal/lib/logger/sl"
    "github.com/iliyamo/restaurant-reservation/internal/metrics"
    "github.com/iliyamo/restaurant-reservation/internal/queue"
)

// EventPublisher is what handlers depend on.
type EventPublisher interface {
    Publish(ctx context.Context, ev queue.Event) error
}

// NopPublisher drops every event; used when EVENTS_ENABLED=false.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, queue.Event) error { return nil }

// ErrBufferFull is returned by Publish when the outbox is saturated.
var ErrBufferFull = errors.New("event buffer full")

// Publisher buffers events and ships them from a single goroutine over one
// long-lived channel, redialing after failures.  Publish never waits for
// the broker.
type Publisher struct {
    url     string
    log     *slog.Logger
    metrics *metrics.Metrics
    outbox  chan queue.Event

    mu   sync.Mutex
    conn *amqp.Connection
    ch   *amqp.Channel
}

func NewPublisher(url string, buffer int, log *slog.Logger, m *metrics.Metrics) *Publisher {
    if buffer < 1 {
        buffer = 256
    }
    return &Publisher{url: url, log: log, metrics: m, outbox: make(chan queue.Event, buffer)}
}

// Publish stamps the event with an id and time and queues it.
func (p *Publisher) Publish(_ context.Context, ev queue.Event) error {
    if ev.ID == "" {
        ev.ID = uuid.NewString()
    }
    if ev.OccurredAt.IsZero() {
        ev.OccurredAt = time.Now().UTC()
    }
    select {
    case p.outbox <- ev:
        return nil
    default:
        p.metrics.EventPublished(string(ev.Type), ErrBufferFull)
        p.log.Warn("dropping event", slog.String("op", "service.Publisher.Publish"), slog.String("type", string(ev.Type)), sl.Err(ErrBufferFull))
        return ErrBufferFull
    }
}

// Run drains the outbox until ctx is cancelled, then flushes what is left
// with a short deadline.
func (p *Publisher) Run(ctx context.Context) {
    for {
        select {
        case ev := <-p.outbox:
            p.send(ctx, ev)
        case <-ctx.Done():
            flushCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
            defer cancel()
            for {
                select {
                case ev := <-p.outbox:
                    p.send(flushCtx, ev)
                default:
                    p.Close()
                    return
                }
            }
        }
    }
}

func (p *Publisher) send(ctx context.Context, ev queue.Event) {
    const op = "service.Publisher.send"

    err := p.publish(ctx, ev)
    p.metrics.EventPublished(string(ev.Type), err)
    if err != nil {
        p.log.Error("publish failed", slog.String("op", op), slog.String("type", string(ev.Type)), slog.String("id", ev.ID), sl.Err(err))
    }
}

func (p *Publisher) publish(ctx context.Context, ev queue.Event) error {
    body, err := json.Marshal(ev)
    if err != nil {
        return fmt.Errorf("marshal: %w", err)
    }

    p.mu.Lock()
    defer p.mu.Unlock()

    ch, err := p.channel()
    if err != nil {
        return err
    }
    ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
    defer cancel()
    err = ch.PublishWithContext(ctx, "", queue.QueueName, false, false, amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        MessageId:    ev.ID,
        Type:         string(ev.Type),
        Timestamp:    ev.OccurredAt,
        Body:         body,
    })
    if err != nil {
        p.reset()
        return fmt.Errorf("publish: %w", err)
    }
    return nil
}

// channel returns the open channel, dialing and declaring the queue when
// needed.  Callers hold p.mu.
func (p *Publisher) channel() (*amqp.Channel, error) {
    if p.ch != nil && !p.ch.IsClosed() {
        return p.ch, nil
    }
    p.reset()

    conn, err := amqp.Dial(p.url)
    if err != nil {
        return nil, fmt.Errorf("dial: %w", err)
    }
    ch, err := conn.Channel()
    if err != nil {
        _ = conn.Close()
        return nil, fmt.Errorf("channel open: %w", err)
    }
    if _, err := ch.QueueDeclare(queue.QueueName, true, false, false, false, nil); err != nil {
        _ = ch.Close()
        _ = conn.Close()
        return nil, fmt.Errorf("queue declare: %w", err)
    }
    p.conn, p.ch = conn, ch
    return ch, nil
}

func (p *Publisher) reset() {
    if p.ch != nil {
        _ = p.ch.Close()
        p.ch = nil
    }
    if p.conn != nil {
        _ = p.conn.Close()
        p.conn = nil
    }
}

// Close releases the broker connection.
func (p *Publisher) Close() {
    p.mu.Lock()
    defer p.mu.Unlock()
    p.reset()
}
