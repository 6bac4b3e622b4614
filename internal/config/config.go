package config

import (
	"fmt"

	"github.com/Netflix/go-env"
)

type Config struct {
	DatabaseDSN        string `env:"DATABASE_DSN,required=true"`
	RabbitMQURL        string `env:"RABBITMQ_URL,required=true"`
	RedisURL           string `env:"REDIS_URL,required=true"`
	RateLimitPerSec    int    `env:"RATE_LIMIT_PER_SEC,default=100"`
	WorkerConcurrency  int    `env:"WORKER_CONCURRENCY,default=16"`
	QueuePrefetch      int    `env:"QUEUE_PREFETCH,default=32"`
	APIPort            int    `env:"API_PORT,default=8080"`
	LogLevel           string `env:"LOG_LEVEL,default=info"`
	HTTPTimeoutSeconds int    `env:"HTTP_TIMEOUT_SECONDS,default=5"`
	RetryBaseSeconds   int    `env:"RETRY_BASE_SECONDS,default=60"`
	RetryMaxDelaySecs  int    `env:"RETRY_MAX_DELAY_SECONDS,default=3600"`
	MaxRetries         int    `env:"MAX_RETRIES,default=3"`
	SweepIntervalSecs  int    `env:"SWEEP_INTERVAL_SECONDS,default=30"`
}

func Load() (*Config, error) {
	var cfg Config
	_, err := env.UnmarshalFromEnviron(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}
