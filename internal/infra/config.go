package infra

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all application configuration parsed from environment variables.
type Config struct {
	// Database
	DatabaseURL string `env:"DATABASE_URL"`
	PGHost      string `env:"PGHOST" envDefault:"localhost"`
	PGPort      int    `env:"PGPORT" envDefault:"5432"`
	PGUser      string `env:"PGUSER" envDefault:"progression"`
	PGPassword  string `env:"PGPASSWORD" envDefault:"progression"`
	PGDatabase  string `env:"PGDATABASE" envDefault:"progression"`

	// Redis (leaderboard projection)
	RedisURL string `env:"REDIS_URL" envDefault:"redis://localhost:6379"`

	// JWT
	JWTSecret     string `env:"JWT_SECRET" envDefault:"change-me-in-production"`
	JWTUserExpiry string `env:"JWT_USER_EXPIRY" envDefault:"24h"`
	JWTAdminExpiry string `env:"JWT_ADMIN_EXPIRY" envDefault:"8h"`

	// Server
	APIPort int `env:"API_PORT" envDefault:"3200"`

	// Kafka
	KafkaBrokers string `env:"KAFKA_BROKERS" envDefault:"localhost:9092"`
	KafkaEnabled bool   `env:"KAFKA_ENABLED" envDefault:"false"`

	// CORS
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*"`

	// Progression rules
	EnergyMax           int           `env:"ENERGY_MAX" envDefault:"6"`
	EnergyRegenInterval time.Duration `env:"ENERGY_REGEN_INTERVAL" envDefault:"4h"`
	ActivityWindowDays  int           `env:"ACTIVITY_WINDOW_DAYS" envDefault:"30"`
	LeaderboardSize     int           `env:"LEADERBOARD_SIZE" envDefault:"50"`

	// Dev
	AllowInsecureDefaults bool `env:"ALLOW_INSECURE_DEFAULTS" envDefault:"false"`
}

// LoadConfig parses environment variables into a Config struct.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Validate checks for insecure or nonsensical configuration.
// Set ALLOW_INSECURE_DEFAULTS=true to bypass the secret checks (local dev only).
func (c *Config) Validate() error {
	if c.EnergyMax < 1 {
		return fmt.Errorf("ENERGY_MAX must be >= 1, got %d", c.EnergyMax)
	}
	if c.EnergyRegenInterval <= 0 {
		return fmt.Errorf("ENERGY_REGEN_INTERVAL must be positive, got %s", c.EnergyRegenInterval)
	}
	if c.ActivityWindowDays < 1 {
		return fmt.Errorf("ACTIVITY_WINDOW_DAYS must be >= 1, got %d", c.ActivityWindowDays)
	}
	if c.AllowInsecureDefaults {
		return nil
	}
	if c.JWTSecret == "change-me-in-production" {
		return fmt.Errorf("JWT_SECRET is set to the insecure default; set a strong secret or set ALLOW_INSECURE_DEFAULTS=true for local dev")
	}
	if len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET is too short (%d chars); minimum 32 characters required", len(c.JWTSecret))
	}
	return nil
}

// DSN returns the PostgreSQL connection string, preferring DATABASE_URL if set.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.PGUser, c.PGPassword, c.PGHost, c.PGPort, c.PGDatabase)
}
