package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/twingatebot/models"
)

type Config struct {
	Token           string `env:"TOKEN"`
	KeychainAccount string `env:"KEYCHAIN_ACCOUNT"`
	AdminChatID     int64  `env:"ADMIN_CHAT_ID"`
	APIEndpoint     string `env:"API_ENDPOINT" envDefault:"https://api.telegram.org"`
	Version         string `env:"BOT_VERSION" envDefault:"dev"`
	BotEnv          string `env:"BOT_ENV"`

	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"10s"`
	PollTimeout    time.Duration `env:"POLL_TIMEOUT" envDefault:"30s"`
	ErrorBackoff   time.Duration `env:"ERROR_BACKOFF" envDefault:"5s"`
	IdleDelay      time.Duration `env:"IDLE_DELAY" envDefault:"1s"`

	SendRate  float64 `env:"SEND_RATE" envDefault:"25"`
	SendBurst int     `env:"SEND_BURST" envDefault:"5"`
	ParseMode string  `env:"PARSE_MODE" envDefault:"HTML"`

	ConnString         string        `env:"CONNECTION_STRING"`
	MaxPgxConn         int32         `env:"MAX_PGX_CONN" envDefault:"4"`
	MaxPgxConnIdleTime time.Duration `env:"MAX_PGX_CONN_IDLE_TIME" envDefault:"5m"`
	MaxPgxConnLifeTime time.Duration `env:"MAX_PGX_CONN_LIFETIME" envDefault:"1h"`
	HealthCheckPeriod  time.Duration `env:"HEALTH_CHECK_PERIOD" envDefault:"1m"`

	Logger Logger `envPrefix:"LOG_"`
}

type Logger struct {
	Development      bool     `env:"DEVELOPMENT"`
	OutputPaths      []string `env:"OUTPUT_PATHS" envSeparator:"," envDefault:"stdout"`
	ErrorOutputPaths []string `env:"ERROR_OUTPUT_PATHS" envSeparator:"," envDefault:"stderr"`
}

// Debug reports whether the bot runs in debug mode.
func (c *Config) Debug() bool {
	return c.BotEnv == "debug"
}

// Formatting returns the markup mode used for replies.
func (c *Config) Formatting() models.Formatting {
	f, _ := models.ParseFormatting(c.ParseMode)
	return f
}

// JournalEnabled reports whether inbound messages are recorded in PostgreSQL.
func (c *Config) JournalEnabled() bool {
	return c.ConnString != ""
}

// LoadEnvCfg reads source into the process environment (a missing file is not
// an error) and parses the environment into a Config. The token is not resolved
// here, see secrets.Resolve.
func LoadEnvCfg(source string) (*Config, error) {
	if source != "" {
		if err := godotenv.Load(source); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("error loading environment file %v: %w", source, err)
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Token == "" && c.KeychainAccount == "" {
		return errors.New("config: TOKEN or KEYCHAIN_ACCOUNT must be set")
	}
	if c.APIEndpoint == "" {
		return errors.New("config: API_ENDPOINT is empty")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("config: REQUEST_TIMEOUT must be positive, got %v", c.RequestTimeout)
	}
	if c.PollTimeout <= 0 {
		return fmt.Errorf("config: POLL_TIMEOUT must be positive, got %v", c.PollTimeout)
	}
	if c.ErrorBackoff < 0 || c.IdleDelay < 0 {
		return errors.New("config: ERROR_BACKOFF and IDLE_DELAY must not be negative")
	}
	if c.SendRate <= 0 || c.SendBurst <= 0 {
		return errors.New("config: SEND_RATE and SEND_BURST must be positive")
	}
	// Reply templates are HTML; they can be sent as HTML or stripped to plain text.
	if f, ok := models.ParseFormatting(c.ParseMode); !ok || (f != models.FormatHTML && f != models.FormatPlain) {
		return fmt.Errorf("config: PARSE_MODE must be HTML or plain, got %q", c.ParseMode)
	}
	return nil
}
