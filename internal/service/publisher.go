// Package service holds outbound integrations used by the HTTP handlers.
package service

import (
    "context"
    "encoding/json"
    "fmt"
    "sync"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "go.uber.org/zap"
)

// Publisher sends a JSON document to a named queue.
type Publisher interface {
    PublishJSON(ctx context.Context, queue string, v any) error
}

// NopPublisher discards messages.  It is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishJSON(context.Context, string, any) error { return nil }

// AMQPPublisher publishes persistent messages on the default exchange with
// the queue name as routing key.  The connection is opened on first use and
// reopened after a failure.
type AMQPPublisher struct {
    url string
    log *zap.Logger

    mu       sync.Mutex
    conn     *amqp.Connection
    ch       *amqp.Channel
    declared map[string]bool
}

func NewAMQPPublisher(url string, log *zap.Logger) *AMQPPublisher {
    if log == nil {
        log = zap.NewNop()
    }
    return &AMQPPublisher{url: url, log: log, declared: map[string]bool{}}
}

func (p *AMQPPublisher) PublishJSON(ctx context.Context, queue string, v any) error {
    body, err := json.Marshal(v)
    if err != nil {
        return fmt.Errorf("marshal %s event: %w", queue, err)
    }

    p.mu.Lock()
    defer p.mu.Unlock()

    ch, err := p.channelLocked()
    if err != nil {
        p.log.Warn("rabbitmq unavailable", zap.String("queue", queue), zap.Error(err))
        return err
    }
    if !p.declared[queue] {
        if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
            p.resetLocked()
            return fmt.Errorf("queue declare %s: %w", queue, err)
        }
        p.declared[queue] = true
    }
    err = ch.PublishWithContext(ctx, "", queue, false, false, amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        Timestamp:    time.Now().UTC(),
        Body:         body,
    })
    if err != nil {
        p.resetLocked()
        p.log.Warn("rabbitmq publish failed", zap.String("queue", queue), zap.Error(err))
        return err
    }
    return nil
}

func (p *AMQPPublisher) channelLocked() (*amqp.Channel, error) {
    if p.ch != nil && !p.ch.IsClosed() {
        return p.ch, nil
    }
    p.resetLocked()
    conn, err := amqp.Dial(p.url)
    if err != nil {
        return nil, fmt.Errorf("dial: %w", err)
    }
    ch, err := conn.Channel()
    if err != nil {
        _ = conn.Close()
        return nil, fmt.Errorf("channel open: %w", err)
    }
    p.conn, p.ch = conn, ch
    return ch, nil
}

func (p *AMQPPublisher) resetLocked() {
    if p.ch != nil {
        _ = p.ch.Close()
    }
    if p.conn != nil {
        _ = p.conn.Close()
    }
    p.conn, p.ch = nil, nil
    p.declared = map[string]bool{}
}

// Close releases the broker connection.
func (p *AMQPPublisher) Close() error {
    p.mu.Lock()
    defer p.mu.Unlock()
    p.resetLocked()
    return nil
}

// PublishAsync publishes v in the background with its own timeout so a
// slow broker never delays the HTTP response.  Failures are logged.
func PublishAsync(p Publisher, log *zap.Logger, queue string, v any) {
    if p == nil {
        return
    }
    go func() {
        ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
        defer cancel()
        if err := p.PublishJSON(ctx, queue, v); err != nil && log != nil {
            log.Warn("event not published", zap.String("queue", queue), zap.Error(err))
        }
    }()
}
