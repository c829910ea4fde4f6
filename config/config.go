package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the full environment configuration for the server. Parsed once
// in main and handed to the pieces that need it.
type Config struct {
	Port      string `env:"PORT" envDefault:"8080"`
	JWTSecret string `env:"JWT_SECRET,required"`

	// Storage selects the persistence backend: "dynamodb" or "memory".
	Storage   string `env:"STORAGE" envDefault:"dynamodb"`
	AWSRegion string `env:"AWS_REGION"`

	// ClientURL is the base used to build invitation deep links.
	ClientURL string `env:"CLIENT_URL" envDefault:"http://localhost:3000"`

	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser     string `env:"SMTP_USER"`
	SMTPPassword string `env:"SMTP_PASSWORD"`

	// Redemption throttling: RedeemLimit attempts per RedeemWindow, applied
	// per source address and per (code, source address).
	RedeemLimit  int           `env:"REDEEM_LIMIT" envDefault:"10"`
	RedeemWindow time.Duration `env:"REDEEM_WINDOW" envDefault:"1m"`

	// HeartbeatGrace is how long a participant may miss heartbeats before it
	// is considered gone; WaitingIdleTimeout bounds how long a guest may sit
	// in the waiting room with no host action.
	HeartbeatGrace     time.Duration `env:"HEARTBEAT_GRACE" envDefault:"30s"`
	WaitingIdleTimeout time.Duration `env:"WAITING_IDLE_TIMEOUT" envDefault:"5m"`

	InvitationDefaultTTL time.Duration `env:"INVITATION_DEFAULT_TTL" envDefault:"72h"`
}

// Load parses the configuration from the process environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Storage != "dynamodb" && cfg.Storage != "memory" {
		return Config{}, fmt.Errorf("unknown STORAGE %q", cfg.Storage)
	}
	return cfg, nil
}
