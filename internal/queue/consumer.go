package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "go.uber.org/zap"
)

// Consumer drains the notification queues and writes one structured log
// entry per message.  It reconnects with exponential backoff until its
// context is cancelled.
type Consumer struct {
    url string
    log *zap.Logger
}

func NewConsumer(url string, log *zap.Logger) *Consumer {
    if log == nil {
        log = zap.NewNop()
    }
    return &Consumer{url: url, log: log.Named("notify-consumer")}
}

// Run blocks until ctx is done.
func (c *Consumer) Run(ctx context.Context) {
    backoff := time.Second
    for ctx.Err() == nil {
        conn, err := amqp.Dial(c.url)
        if err != nil {
            c.log.Warn("dial broker failed", zap.Error(err), zap.Duration("retry_in", backoff))
            if !sleep(ctx, backoff) {
                return
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second

        err = c.consume(ctx, conn)
        _ = conn.Close()
        if ctx.Err() != nil {
            return
        }
        c.log.Warn("consume loop ended, reconnecting", zap.Error(err))
        if !sleep(ctx, 2*time.Second) {
            return
        }
    }
}

func sleep(ctx context.Context, d time.Duration) bool {
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-ctx.Done():
        return false
    case <-t.C:
        return true
    }
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        c.log.Warn("set qos failed", zap.Error(err))
    }

    type delivery struct {
        queue string
        amqp.Delivery
    }
    merged := make(chan delivery)
    stop := make(chan struct{})
    defer close(stop)
    for _, q := range Queues {
        if _, err := ch.QueueDeclare(q, true, false, false, false, nil); err != nil {
            return fmt.Errorf("queue declare %s: %w", q, err)
        }
        msgs, err := ch.Consume(q, "", false, false, false, false, nil)
        if err != nil {
            return fmt.Errorf("queue consume %s: %w", q, err)
        }
        go func(q string, msgs <-chan amqp.Delivery) {
            for d := range msgs {
                select {
                case merged <- delivery{queue: q, Delivery: d}:
                case <-stop:
                    return
                }
            }
        }(q, msgs)
    }

    closed := conn.NotifyClose(make(chan *amqp.Error, 1))
    for {
        select {
        case <-ctx.Done():
            return ctx.Err()
        case err := <-closed:
            if err == nil {
                return errors.New("connection closed")
            }
            return err
        case d := <-merged:
            fields, err := Describe(d.queue, d.Body)
            if err != nil {
                c.log.Warn("reject message", zap.String("queue", d.queue), zap.Error(err))
                _ = d.Nack(false, false)
                continue
            }
            c.log.Info("notification", fields...)
            _ = d.Ack(false)
        }
    }
}

// Describe decodes a message body from queue into log fields.
func Describe(queue string, body []byte) ([]zap.Field, error) {
    fields := []zap.Field{zap.String("queue", queue)}
    switch queue {
    case BookingCreatedQueue:
        var ev BookingCreatedEvent
        if err := json.Unmarshal(body, &ev); err != nil {
            return nil, fmt.Errorf("unmarshal: %w", err)
        }
        return append(fields,
            zap.Uint64("booking_id", ev.BookingID),
            zap.String("ticket", ev.TicketNumber),
            zap.String("service", ev.ServiceTitle),
            zap.String("customer", ev.CustomerName),
            zap.String("scheduled_for", ev.ScheduledFor),
        ), nil
    case ContactReceivedQueue:
        var ev ContactReceivedEvent
        if err := json.Unmarshal(body, &ev); err != nil {
            return nil, fmt.Errorf("unmarshal: %w", err)
        }
        return append(fields,
            zap.Uint64("message_id", ev.MessageID),
            zap.String("from", ev.Email),
            zap.String("subject", ev.Subject),
        ), nil
    case InquiryReceivedQueue:
        var ev InquiryReceivedEvent
        if err := json.Unmarshal(body, &ev); err != nil {
            return nil, fmt.Errorf("unmarshal: %w", err)
        }
        return append(fields,
            zap.Uint64("inquiry_id", ev.InquiryID),
            zap.Uint64("service_id", ev.ServiceID),
            zap.String("from", ev.Email),
        ), nil
    case PaymentSubmittedQueue:
        var ev PaymentSubmittedEvent
        if err := json.Unmarshal(body, &ev); err != nil {
            return nil, fmt.Errorf("unmarshal: %w", err)
        }
        return append(fields,
            zap.Uint64("payment_id", ev.PaymentID),
            zap.String("ticket", ev.TicketNumber),
            zap.Uint32("amount_cents", ev.AmountCents),
            zap.String("method", ev.Method),
        ), nil
    }
    return nil, fmt.Errorf("unknown queue %q", queue)
}
