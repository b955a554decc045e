package temporalx

import (
	"time"

	"github.com/yungbote/curriculum-backend/internal/platform/envutil"
)

type Config struct {
	Address   string
	Namespace string
	TaskQueue string

	ClientCertPath string
	ClientKeyPath  string
	ClientCAPath   string

	DialTimeout time.Duration
	DialMaxWait time.Duration
	Backoff     time.Duration
	BackoffMax  time.Duration

	AutoRegisterNamespace bool
	RetentionDays         int

	WorkerConcurrency  int
	WorkerStartMaxWait time.Duration
}

func (c Config) Enabled() bool { return c.Address != "" }

func LoadConfig() Config {
	return Config{
		Address:   envutil.String("TEMPORAL_ADDRESS", ""),
		Namespace: envutil.String("TEMPORAL_NAMESPACE", "curriculum"),
		TaskQueue: envutil.String("TEMPORAL_TASK_QUEUE", "curriculum"),

		ClientCertPath: envutil.String("TEMPORAL_CLIENT_CERT_PATH", ""),
		ClientKeyPath:  envutil.String("TEMPORAL_CLIENT_KEY_PATH", ""),
		ClientCAPath:   envutil.String("TEMPORAL_CLIENT_CA_PATH", ""),

		DialTimeout: envutil.Seconds("TEMPORAL_DIAL_TIMEOUT_SECONDS", 5*time.Second),
		DialMaxWait: envutil.Seconds("TEMPORAL_DIAL_MAX_WAIT_SECONDS", 60*time.Second),
		Backoff:     time.Duration(envutil.Int("TEMPORAL_DIAL_BACKOFF_MS", 250)) * time.Millisecond,
		BackoffMax:  time.Duration(envutil.Int("TEMPORAL_DIAL_BACKOFF_MAX_MS", 5000)) * time.Millisecond,

		AutoRegisterNamespace: envutil.Bool("TEMPORAL_AUTO_REGISTER_NAMESPACE", false),
		RetentionDays:         envutil.Int("TEMPORAL_NAMESPACE_RETENTION_DAYS", 7),

		WorkerConcurrency:  envutil.Int("WORKER_CONCURRENCY", 4),
		WorkerStartMaxWait: envutil.Seconds("TEMPORAL_WORKER_START_MAX_WAIT_SECONDS", 60*time.Second),
	}
}

// ClampBackoff doubles base per attempt, capped at max.
func ClampBackoff(base, max time.Duration, attempt int) time.Duration {
	if base <= 0 {
		base = 250 * time.Millisecond
	}
	sleep := base
	for i := 1; i < attempt; i++ {
		sleep *= 2
		if max > 0 && sleep >= max {
			return max
		}
	}
	if max > 0 && sleep > max {
		return max
	}
	return sleep
}
