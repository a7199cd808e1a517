package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"golang.org/x/term"
)

// Config contains all configuration parameters for the wallet.
// Passwords are never part of it - use PromptForPassword.
type Config struct {
	APIURL         string        `envconfig:"CANOPY_API_URL" default:"http://localhost:3000/api"`
	APIToken       string        `envconfig:"CANOPY_API_TOKEN"`
	APITimeout     time.Duration `envconfig:"API_TIMEOUT" default:"30s"`
	RetryAttempts  int           `envconfig:"RETRY_ATTEMPTS" default:"3"`
	RetryBaseDelay time.Duration `envconfig:"RETRY_BASE_DELAY" default:"1s"`
	RetryMaxDelay  time.Duration `envconfig:"RETRY_MAX_DELAY" default:"10s"`
	APIRateLimit   float64       `envconfig:"API_RATE_LIMIT" default:"0"` // requests per second, 0 = unlimited

	NetworkID       uint64 `envconfig:"NETWORK_ID" default:"1"`
	ChainID         uint64 `envconfig:"CHAIN_ID" default:"1"`
	DefaultFeeMicro uint64 `envconfig:"DEFAULT_FEE_MICRO" default:"10000"`
	AllowZeroFee    bool   `envconfig:"ALLOW_ZERO_FEE" default:"false"`

	PollMaxAttempts int           `envconfig:"POLL_MAX_ATTEMPTS" default:"30"`
	PollInterval    time.Duration `envconfig:"POLL_INTERVAL" default:"2s"`
	SendCooldown    time.Duration `envconfig:"SEND_COOLDOWN" default:"0s"`

	ScryptN       int    `envconfig:"SCRYPT_N" default:"32768"`
	StateFilePath string `envconfig:"STATE_FILE_PATH" default:"wallet-state.json"`
	LogLevel      string `envconfig:"LOG_LEVEL" default:"info"`
}

// Load reads a .env file when one exists and then processes environment variables.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := &Config{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values envconfig cannot.
func (c *Config) Validate() error {
	if c.APIURL == "" {
		return errors.New("CANOPY_API_URL must not be empty")
	}
	if c.RetryAttempts < 1 {
		return errors.New("RETRY_ATTEMPTS must be at least 1")
	}
	if c.RetryBaseDelay <= 0 || c.RetryMaxDelay < c.RetryBaseDelay {
		return errors.New("RETRY_BASE_DELAY must be positive and not exceed RETRY_MAX_DELAY")
	}
	if c.PollMaxAttempts < 1 || c.PollInterval <= 0 {
		return errors.New("POLL_MAX_ATTEMPTS and POLL_INTERVAL must be positive")
	}
	if c.ScryptN <= 1 || c.ScryptN&(c.ScryptN-1) != 0 {
		return fmt.Errorf("SCRYPT_N must be a power of two > 1, got %d", c.ScryptN)
	}
	return nil
}

// PromptForPassword prompts for a password in the terminal without echo.
// Caller must zero the returned slice after use for security.
func PromptForPassword(prompt string) ([]byte, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return nil, errors.New("stdin is not a terminal: run interactively to enter password")
	}
	fmt.Fprint(os.Stderr, prompt)
	defer fmt.Fprintln(os.Stderr)

	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return nil, fmt.Errorf("failed to read password: %w", err)
	}
	if len(raw) == 0 {
		return nil, errors.New("password cannot be empty")
	}

	password := make([]byte, len(raw))
	copy(password, raw)
	clear(raw)
	return password, nil
}
