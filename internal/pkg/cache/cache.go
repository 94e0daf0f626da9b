package cache

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/storage/redis"

	"github.com/doctornoo/pdpa-consent/internal/pkg/env"
)

// Config points at the shared Redis/Dragonfly instance used for limiter state.
type Config struct {
	Host     string
	Port     int
	Password string
	Database int
}

// ConfigFromEnv reads CACHE_*. An empty host disables the shared store.
func ConfigFromEnv() Config {
	return Config{
		Host:     env.GetEnv("CACHE_HOST", ""),
		Port:     env.GetEnvInt("CACHE_PORT", 6379),
		Password: env.GetEnv("CACHE_PASSWORD", ""),
		Database: env.GetEnvInt("CACHE_DB", 0),
	}
}

// Enabled reports whether a cache host is configured.
func (c Config) Enabled() bool {
	return c.Host != ""
}

// NewLimiterStorage returns a Redis backed fiber.Storage so rate limits hold
// across replicas, or nil to keep the limiter's in-memory default.
func NewLimiterStorage(cfg Config) fiber.Storage {
	if !cfg.Enabled() {
		log.Info("[Cache] CACHE_HOST not set, rate limiter uses in-memory storage")
		return nil
	}

	storage := redis.New(redis.Config{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Password: cfg.Password,
		Database: cfg.Database,
		Reset:    false,
	})
	log.Infof("[Cache] rate limiter uses redis at %s:%d db=%d", cfg.Host, cfg.Port, cfg.Database)
	return storage
}
