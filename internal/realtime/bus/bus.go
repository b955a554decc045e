package bus

import (
	"context"
	"os"
	"strings"

	"github.com/yungbote/curriculum-backend/internal/platform/logger"
	"github.com/yungbote/curriculum-backend/internal/realtime"
)

type Bus interface {
	Publish(ctx context.Context, msg realtime.StatusMessage) error
	StartForwarder(ctx context.Context, onMsg func(m realtime.StatusMessage)) error
	Close() error
}

type Config struct {
	RedisAddr string
	Channel   string
}

func LoadConfig() Config {
	cfg := Config{
		RedisAddr: strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		Channel:   strings.TrimSpace(os.Getenv("REDIS_CHANNEL")),
	}
	if cfg.Channel == "" {
		cfg.Channel = "curriculum-status"
	}
	return cfg
}

// New returns a Redis bus when an address is configured and an in-process bus otherwise.
func New(log *logger.Logger, cfg Config) (Bus, error) {
	if cfg.RedisAddr == "" {
		log.Info("REDIS_ADDR not set; using in-memory status bus")
		return NewMemoryBus(log), nil
	}
	return NewRedisBus(log, cfg)
}
