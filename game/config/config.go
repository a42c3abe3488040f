package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/wricardo/set-game/game/engine"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds the server settings read from the environment.
type Config struct {
	Host            string        `env:"SET_HOST" envDefault:"localhost"`
	Port            int           `env:"SET_PORT" envDefault:"8080"`
	Debug           bool          `env:"SET_DEBUG"`
	MaxBoardCards   int           `env:"SET_MAX_BOARD_CARDS" envDefault:"18"`
	SessionTTL      time.Duration `env:"SET_SESSION_TTL" envDefault:"24h"`
	CleanupInterval time.Duration `env:"SET_CLEANUP_INTERVAL" envDefault:"1h"`
	APIURL          string        `env:"SET_API_URL" envDefault:"http://localhost:8080"`
	Ngrok           Ngrok
}

// Ngrok configures the optional development tunnel.
type Ngrok struct {
	Enabled   bool   `env:"NGROK_ENABLED"`
	AuthToken string `env:"NGROK_AUTHTOKEN"`
	Domain    string `env:"NGROK_DOMAIN"`

	// Older deployments spell the token with an underscore.
	LegacyAuthToken string `env:"NGROK_AUTH_TOKEN"`
}

// Load reads the given .env files, falling back to ".env" when none are
// named, then parses the environment. Missing files are skipped and values
// already in the environment win over file values.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.Ngrok.AuthToken == "" {
		cfg.Ngrok.AuthToken = cfg.Ngrok.LegacyAuthToken
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range", ErrInvalidConfig, c.Port)
	}
	if c.MaxBoardCards != 0 {
		if c.MaxBoardCards < engine.StandardBoardSize || c.MaxBoardCards%engine.BoardRows != 0 {
			return fmt.Errorf("%w: max board cards must be 0 or a multiple of %d no smaller than %d, got %d",
				ErrInvalidConfig, engine.BoardRows, engine.StandardBoardSize, c.MaxBoardCards)
		}
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("%w: session TTL must be positive, got %s", ErrInvalidConfig, c.SessionTTL)
	}
	if c.CleanupInterval <= 0 {
		return fmt.Errorf("%w: cleanup interval must be positive, got %s", ErrInvalidConfig, c.CleanupInterval)
	}
	return nil
}

// Addr returns the host:port the HTTP server listens on.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// NewGame deals a game that honours the configured board cap. It has the
// shape of service.GameFactory.
func (c *Config) NewGame() (*engine.Game, error) {
	return engine.NewGame(engine.WithMaxCards(c.MaxBoardCards))
}
