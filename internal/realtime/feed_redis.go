package realtime

import (
    "context"
    "encoding/json"
    "sync"
    "time"

    "github.com/redis/go-redis/v9"
    "go.uber.org/zap"
)

// DefaultChannel is the Redis pub/sub channel carrying change events.
const DefaultChannel = "site:changes"

// RedisFeed publishes change events on a Redis channel so every server
// instance can forward them to its own dashboards.
type RedisFeed struct {
    rdb     *redis.Client
    channel string
    log     *zap.Logger
}

func NewRedisFeed(rdb *redis.Client, channel string, log *zap.Logger) *RedisFeed {
    if channel == "" {
        channel = DefaultChannel
    }
    if log == nil {
        log = zap.NewNop()
    }
    return &RedisFeed{rdb: rdb, channel: channel, log: log}
}

func (f *RedisFeed) Publish(ctx context.Context, ev ChangeEvent) error {
    if ev.At.IsZero() {
        ev.At = time.Now().UTC()
    }
    payload, err := json.Marshal(ev)
    if err != nil {
        return err
    }
    return f.rdb.Publish(ctx, f.channel, payload).Err()
}

func (f *RedisFeed) Subscribe(ctx context.Context) (<-chan ChangeEvent, func()) {
    ctx, stop := context.WithCancel(ctx)
    ps := f.rdb.Subscribe(ctx, f.channel)
    out := make(chan ChangeEvent, subscriberBuffer)

    var once sync.Once
    cancel := func() {
        once.Do(func() {
            stop()
            _ = ps.Close()
        })
    }

    go func() {
        defer close(out)
        defer cancel()
        msgs := ps.Channel()
        for {
            select {
            case <-ctx.Done():
                return
            case msg, ok := <-msgs:
                if !ok {
                    return
                }
                var ev ChangeEvent
                if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
                    f.log.Warn("realtime: bad payload", zap.String("channel", f.channel), zap.Error(err))
                    continue
                }
                select {
                case out <- ev:
                default:
                }
            }
        }
    }()
    return out, cancel
}
