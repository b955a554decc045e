package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/curriculum-backend/internal/platform/logger"
	"github.com/yungbote/curriculum-backend/internal/realtime"
)

// redisBus publishes each status message on "<prefix>:<message channel>" so
// replicas and external tools can subscribe to a single program or lesson.
// The forwarder pattern-subscribes to the whole prefix.
type redisBus struct {
	log    *logger.Logger
	rdb    *goredis.Client
	prefix string
}

func NewRedisBus(log *logger.Logger, cfg Config) (Bus, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if cfg.RedisAddr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	prefix := strings.TrimSuffix(strings.TrimSpace(cfg.Channel), ":")
	if prefix == "" {
		prefix = "curriculum-status"
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:         cfg.RedisAddr,
		DialTimeout:  5 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.RedisAddr, err)
	}

	return &redisBus{
		log:    log.With("service", "RedisStatusBus", "prefix", prefix),
		rdb:    rdb,
		prefix: prefix,
	}, nil
}

func (b *redisBus) topic(channel string) string {
	channel = strings.TrimSpace(channel)
	if channel == "" {
		channel = "broadcast"
	}
	return b.prefix + ":" + channel
}

func (b *redisBus) Publish(ctx context.Context, msg realtime.StatusMessage) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("redis status bus not initialized")
	}
	raw, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode status message: %w", err)
	}
	return b.rdb.Publish(ctx, b.topic(msg.Channel), raw).Err()
}

func (b *redisBus) StartForwarder(ctx context.Context, onMsg func(m realtime.StatusMessage)) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("redis status bus not initialized")
	}
	if onMsg == nil {
		return fmt.Errorf("onMsg callback required")
	}

	sub := b.rdb.PSubscribe(ctx, b.prefix+":*")
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis psubscribe: %w", err)
	}

	go b.forward(ctx, sub, onMsg)
	return nil
}

func (b *redisBus) forward(ctx context.Context, sub *goredis.PubSub, onMsg func(m realtime.StatusMessage)) {
	defer sub.Close()
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case m, ok := <-ch:
			if !ok {
				return
			}
			if m == nil {
				continue
			}
			var msg realtime.StatusMessage
			if err := json.Unmarshal([]byte(m.Payload), &msg); err != nil {
				b.log.Warn("Dropping malformed status payload", "topic", m.Channel, "error", err)
				continue
			}
			if msg.Channel == "" {
				msg.Channel = strings.TrimPrefix(m.Channel, b.prefix+":")
			}
			onMsg(msg)
		}
	}
}

func (b *redisBus) Close() error {
	if b == nil || b.rdb == nil {
		return nil
	}
	return b.rdb.Close()
}
