// Package config loads CLI configuration from the environment, with .env
// file support. Library callers bypass this package and pass a
// lesstokens.Config struct directly.
package config

import (
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config represents the CLI configuration.
type Config struct {
	LessTokens LessTokensConfig
	LLM        LLMConfig
	Redis      RedisConfig
}

// LessTokensConfig contains compression service settings.
type LessTokensConfig struct {
	APIKey    string `env:"LESSTOKENS_API_KEY"`
	Provider  string `env:"LESSTOKENS_PROVIDER"   envDefault:"openai"`
	BaseURL   string `env:"LESSTOKENS_BASE_URL"   envDefault:"https://lesstokens.hive-hub.ai"`
	TimeoutMs int    `env:"LESSTOKENS_TIMEOUT_MS" envDefault:"30000"`
}

// LLMConfig contains LLM provider settings.
type LLMConfig struct {
	APIKey string `env:"LLM_API_KEY"`
	Model  string `env:"LLM_MODEL"`
}

// RedisConfig contains optional compression cache settings. Caching is
// enabled when Addr is non-empty.
type RedisConfig struct {
	Addr        string `env:"REDIS_ADDR"`
	Password    string `env:"REDIS_PASSWORD"`
	DB          int    `env:"REDIS_DB"            envDefault:"0"`
	CacheTTLSec int    `env:"REDIS_CACHE_TTL_SEC" envDefault:"3600"`
}

// Load loads environment files and parses configuration.
func Load() (*Config, error) {
	for _, file := range []string{".env"} {
		_ = godotenv.Load(file)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
