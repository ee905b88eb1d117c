package config

import (
	"crypto/ed25519"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	BotToken  string `env:"DISCORD_TOKEN,required"`
	AppID     string `env:"CLIENT_ID,required"`
	PublicKey string `env:"PUBLIC_KEY,required"`
	GuildID   string `env:"GUILD_ID"`

	Port              int    `env:"PORT" envDefault:"3000"`
	InvitePermissions string `env:"INVITE_PERMISSIONS" envDefault:"2048"`
	RegisterCommands  bool   `env:"REGISTER_COMMANDS" envDefault:"true"`
	GatewayEnabled    bool   `env:"GATEWAY_ENABLED" envDefault:"false"`

	SessionTTL      time.Duration `env:"SESSION_TTL" envDefault:"10m"`
	SweepInterval   time.Duration `env:"SWEEP_INTERVAL" envDefault:"1m"`
	FollowUpTimeout time.Duration `env:"FOLLOWUP_TIMEOUT" envDefault:"10s"`

	LogLevel       string `env:"LOG_LEVEL" envDefault:"info"`
	LogDevelopment bool   `env:"LOG_DEVELOPMENT" envDefault:"false"`
}

// Load reads an optional .env file and then the process environment.
// Variables already set in the environment win over the file.
func Load(dotenvFiles ...string) (Config, error) {
	if len(dotenvFiles) == 0 {
		dotenvFiles = []string{".env"}
	}
	for _, f := range dotenvFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if _, err := c.Ed25519PublicKey(); err != nil {
		return err
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT %d", c.Port)
	}
	if c.SessionTTL < 0 || c.SweepInterval < 0 {
		return fmt.Errorf("SESSION_TTL and SWEEP_INTERVAL must not be negative")
	}
	if c.FollowUpTimeout <= 0 {
		return fmt.Errorf("FOLLOWUP_TIMEOUT must be positive")
	}
	return nil
}

// Ed25519PublicKey decodes PUBLIC_KEY, the hex key shown in the developer portal.
func (c Config) Ed25519PublicKey() (ed25519.PublicKey, error) {
	raw, err := hex.DecodeString(c.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("decode PUBLIC_KEY: %w", err)
	}
	if len(raw) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("PUBLIC_KEY must be %d bytes, got %d", ed25519.PublicKeySize, len(raw))
	}
	return ed25519.PublicKey(raw), nil
}

func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
