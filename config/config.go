package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	scoringdomain "github.com/Black-And-White-Club/scorekeeper/app/modules/scoring/domain"
)

// Config struct to hold the configuration settings
type Config struct {
	Postgres      PostgresConfig      `yaml:"postgres"`
	NATS          NATSConfig          `yaml:"nats"`
	HTTP          HTTPConfig          `yaml:"http"`
	JWT           JWTConfig           `yaml:"jwt"`
	Observability ObservabilityConfig `yaml:"observability"`
	Spades        SpadesConfig        `yaml:"spades"`
	Exports       ExportsConfig       `yaml:"exports"`
}

// PostgresConfig holds Postgres configuration.
type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

// NATSConfig holds NATS configuration. An empty URL keeps events in-process.
type NATSConfig struct {
	URL string `yaml:"url"`
}

// HTTPConfig holds the API listener settings.
type HTTPConfig struct {
	Address   string  `yaml:"address"`
	RateLimit float64 `yaml:"rate_limit"`
	RateBurst int     `yaml:"rate_burst"`
}

// JWTConfig holds JWT configuration. An empty secret disables auth.
type JWTConfig struct {
	Secret string `yaml:"secret"`
}

// ObservabilityConfig holds configuration for observability components
type ObservabilityConfig struct {
	MetricsAddress string `yaml:"metrics_address"`
	Environment    string `yaml:"environment"`
	LogLevel       string `yaml:"log_level"`
	LogFormat      string `yaml:"log_format"` // json|text
}

// SpadesConfig holds the house rules for Spades scoring.
type SpadesConfig struct {
	NilBonus         int `yaml:"nil_bonus"`
	BlindNilBonus    int `yaml:"blind_nil_bonus"`
	BagsPenaltyEvery int `yaml:"bags_penalty_every"`
	BagsPenalty      int `yaml:"bags_penalty"`
}

// ExportsConfig toggles background scoresheet exports on game completion.
type ExportsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// LoadConfig loads the configuration from a YAML file.
func LoadConfig(filename string) (*Config, error) {
	// Try reading configuration from the file first
	data, err := os.ReadFile(filename)
	if err != nil {
		// If the file is not found, try loading from environment variables
		return loadConfigFromEnv()
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// --- OVERRIDE WITH ENV VARS IF PRESENT ---
	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// loadConfigFromEnv loads the configuration from environment variables.
func loadConfigFromEnv() (*Config, error) {
	cfg := defaults()
	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}

	if cfg.Postgres.DSN == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable not set")
	}

	return &cfg, nil
}

func defaults() Config {
	spades := scoringdomain.DefaultSpadesSettings()
	return Config{
		HTTP: HTTPConfig{
			Address:   ":8080",
			RateLimit: 10,
			RateBurst: 20,
		},
		Observability: ObservabilityConfig{
			LogLevel:  "info",
			LogFormat: "json",
		},
		Spades: SpadesConfig{
			NilBonus:         spades.NilBonus,
			BlindNilBonus:    spades.BlindNilBonus,
			BagsPenaltyEvery: spades.BagsPenaltyEvery,
			BagsPenalty:      spades.BagsPenalty,
		},
	}
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Postgres.DSN = v
	}
	if v := os.Getenv("NATS_URL"); v != "" {
		cfg.NATS.URL = v
	}
	if v := os.Getenv("HTTP_ADDRESS"); v != "" {
		cfg.HTTP.Address = v
	}
	if v := os.Getenv("HTTP_RATE_LIMIT"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid HTTP_RATE_LIMIT value: %v", err)
		}
		cfg.HTTP.RateLimit = f
	}
	if v := os.Getenv("HTTP_RATE_BURST"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid HTTP_RATE_BURST value: %v", err)
		}
		cfg.HTTP.RateBurst = n
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.JWT.Secret = v
	}
	if v := os.Getenv("METRICS_ADDRESS"); v != "" {
		cfg.Observability.MetricsAddress = v
	}
	if v := os.Getenv("ENV"); v != "" {
		cfg.Observability.Environment = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Observability.LogFormat = v
	}
	if v := os.Getenv("EXPORTS_ENABLED"); v != "" {
		cfg.Exports.Enabled = v == "true"
	}
	return nil
}

// ToSpadesSettings maps the spades section onto the scoring engine settings.
func (c *Config) ToSpadesSettings() scoringdomain.SpadesSettings {
	return scoringdomain.SpadesSettings{
		NilBonus:         c.Spades.NilBonus,
		BlindNilBonus:    c.Spades.BlindNilBonus,
		BagsPenaltyEvery: c.Spades.BagsPenaltyEvery,
		BagsPenalty:      c.Spades.BagsPenalty,
	}
}
