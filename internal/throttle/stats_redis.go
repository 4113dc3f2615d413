package throttle

import (
    "context"
    "fmt"
    "strconv"
    "strings"

    "github.com/redis/go-redis/v9"
)

// RedisStats stores cumulative decision counters in Redis:
//
//	<prefix>:forms       set of form names
//	<prefix>:form:<form> hash {allowed, denied}
type RedisStats struct {
    rdb    *redis.Client
    prefix string
}

type RedisStatsOption func(*RedisStats)

func WithStatsPrefix(prefix string) RedisStatsOption {
    return func(s *RedisStats) { s.prefix = strings.Trim(prefix, ":") }
}

func NewRedisStats(rdb *redis.Client, opts ...RedisStatsOption) *RedisStats {
    s := &RedisStats{rdb: rdb, prefix: "throttle:stats"}
    for _, opt := range opts {
        opt(s)
    }
    return s
}

func (s *RedisStats) Record(ctx context.Context, ev Event) error {
    if s == nil || s.rdb == nil {
        return nil
    }
    field := "denied"
    if ev.Allowed {
        field = "allowed"
    }

    pipe := s.rdb.Pipeline()
    pipe.HIncrBy(ctx, s.prefix+":form:"+ev.Form, field, 1)
    pipe.SAdd(ctx, s.prefix+":forms", ev.Form)
    _, err := pipe.Exec(ctx)
    return err
}

func (s *RedisStats) Totals(ctx context.Context) (map[string]Counters, error) {
    out := map[string]Counters{}
    if s == nil || s.rdb == nil {
        return out, nil
    }
    forms, err := s.rdb.SMembers(ctx, s.prefix+":forms").Result()
    if err != nil {
        return nil, fmt.Errorf("list forms: %w", err)
    }
    for _, form := range forms {
        vals, err := s.rdb.HGetAll(ctx, s.prefix+":form:"+form).Result()
        if err != nil {
            return nil, fmt.Errorf("read %s counters: %w", form, err)
        }
        var c Counters
        c.Allowed, _ = strconv.ParseInt(vals["allowed"], 10, 64)
        c.Denied, _ = strconv.ParseInt(vals["denied"], 10, 64)
        out[form] = c
    }
    return out, nil
}
