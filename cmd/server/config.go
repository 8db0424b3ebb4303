package main

import (
	"time"

	"github.com/cityscout-app/cityscout/core/logger"
	"github.com/cityscout-app/cityscout/core/server"
	"github.com/cityscout-app/cityscout/pkg/ratelimiter"
)

// appConfig aggregates every environment-driven setting of the process.
type appConfig struct {
	Log    logger.Config
	Server server.Config

	ChatLimiter   ratelimiter.Config `envPrefix:"CHAT_RATE_"`
	PlacesLimiter ratelimiter.Config `envPrefix:"PLACES_RATE_"`

	Chat   chatConfig
	Places placesConfig
}

type chatConfig struct {
	// Provider selects the upstream assistant: "openai" or "google".
	Provider string `env:"CHAT_PROVIDER" envDefault:"openai"`
	Model    string `env:"CHAT_MODEL" envDefault:""`

	APIKey     string        `env:"CHAT_API_KEY" envDefault:""`
	DailyLimit int           `env:"CHAT_DAILY_LIMIT" envDefault:"1000"`
	CacheTTL   time.Duration `env:"CHAT_CACHE_TTL" envDefault:"1h"`
}

type placesConfig struct {
	APIKey     string        `env:"PLACES_API_KEY" envDefault:""`
	DailyLimit int           `env:"PLACES_DAILY_LIMIT" envDefault:"5000"`
	CacheTTL   time.Duration `env:"PLACES_CACHE_TTL" envDefault:"30m"`
	MaxResults int           `env:"PLACES_MAX_RESULTS" envDefault:"10"`

	// BaseURL overrides the upstream endpoint, mainly for local testing.
	BaseURL string `env:"PLACES_BASE_URL" envDefault:""`
}
