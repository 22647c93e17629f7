package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/UkralStul/content-approval-service/internal/logger"
	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// Config - статическая конфигурация процесса.
type Config struct {
	Port    string `env:"PORT" envDefault:"8080"`
	Storage string `env:"STORAGE" envDefault:"in-memory"` // in-memory, postgres
	// SeedMockData заполняет in-memory хранилище демо-постами.
	SeedMockData bool `env:"SEED_MOCK_DATA" envDefault:"false"`

	DatabaseURL string `env:"DATABASE_URL"`

	JWTSecret string        `env:"JWT_SECRET,required,notEmpty"`
	TokenTTL  time.Duration `env:"TOKEN_TTL" envDefault:"720h"`

	// Redis включает рассылку изменений между инстансами.
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
	RedisChannel  string `env:"REDIS_CHANNEL" envDefault:"review:posts:changed"`

	// Kafka включает публикацию событий жизненного цикла.
	KafkaBrokers string `env:"KAFKA_BROKERS"`
	KafkaTopic   string `env:"KAFKA_TOPIC" envDefault:"review.post-events"`

	OTELEndpoint    string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTELServiceName string  `env:"OTEL_SERVICE_NAME" envDefault:"content-approval-service"`
	OTELSampleRatio float64 `env:"OTEL_TRACES_SAMPLER_ARG" envDefault:"1"`

	WSPingInterval time.Duration `env:"WS_PING_INTERVAL" envDefault:"10s"`

	Log logger.Config
}

// Load читает необязательные .env файлы и затем переменные окружения.
// Уже выставленные переменные окружения не перезаписываются.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate проверяет согласованность полей.
func (c *Config) Validate() error {
	switch c.Storage {
	case "in-memory":
	case "postgres":
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL must be set for postgres storage")
		}
	default:
		return fmt.Errorf("unknown storage type %q (in-memory or postgres)", c.Storage)
	}
	if c.OTELSampleRatio < 0 || c.OTELSampleRatio > 1 {
		return fmt.Errorf("OTEL_TRACES_SAMPLER_ARG must be within [0,1], got %v", c.OTELSampleRatio)
	}
	return nil
}
