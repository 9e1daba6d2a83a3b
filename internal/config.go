package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App       ApplicationConfig `yaml:"app"`
	Data      DataConfig        `yaml:"data"`
	SQLite    SQLiteConfig      `yaml:"sqlite"`
	Auth      AuthConfig        `yaml:"auth"`
	Generator GeneratorConfig   `yaml:"generator"`
	Timer     TimerConfig       `yaml:"timer"`
	Share     ShareConfig       `yaml:"share"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	for _, v := range []validation.Validatable{&c.App, &c.Data, &c.SQLite, &c.Auth, &c.Generator, &c.Timer, &c.Share} {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// DataConfig points at the directory holding project documents.
type DataConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the data configuration.
func (c *DataConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): every request is allowed, suitable for local use.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// GeneratorConfig configures the OpenAI-compatible text generation
// endpoint. An empty APIKey disables generation.
type GeneratorConfig struct {
	BaseURL     string        `yaml:"base_url"`
	APIKey      string        `yaml:"api_key"`
	Model       string        `yaml:"model"`
	MaxTokens   int           `yaml:"max_tokens"`
	Temperature float64       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
}

// Enabled reports whether an API key is configured.
func (c *GeneratorConfig) Enabled() bool {
	return c.APIKey != ""
}

// Validate validates the generator configuration.
func (c *GeneratorConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.BaseURL, validation.Required),
		validation.Field(&c.Model, validation.Required),
		validation.Field(&c.MaxTokens, validation.Required, validation.Min(1)),
		validation.Field(&c.Temperature, validation.Min(0.0), validation.Max(2.0)),
		validation.Field(&c.Timeout, validation.Required, validation.Min(time.Second)),
	)
}

// TimerConfig holds pomodoro session lengths.
type TimerConfig struct {
	Work      time.Duration `yaml:"work"`
	Break     time.Duration `yaml:"break"`
	LongBreak time.Duration `yaml:"long_break"`
	// LongBreakEvery is the number of work sessions between long breaks.
	LongBreakEvery int `yaml:"long_break_every"`
}

// Validate validates the timer configuration.
func (c *TimerConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Work, validation.Required, validation.Min(time.Minute)),
		validation.Field(&c.Break, validation.Required, validation.Min(time.Minute)),
		validation.Field(&c.LongBreak, validation.Required, validation.Min(time.Minute)),
		validation.Field(&c.LongBreakEvery, validation.Required, validation.Min(1)),
	)
}

// ShareConfig controls shared project links.
type ShareConfig struct {
	// TTL is how long new links stay valid; zero means links never expire.
	TTL time.Duration `yaml:"ttl"`
}

// Validate validates the share configuration.
func (c *ShareConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.TTL, validation.Min(time.Duration(0))),
	)
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Data: DataConfig{
			Path: "./data",
		},
		SQLite: SQLiteConfig{
			Path: "./taskmark.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Generator: GeneratorConfig{
			BaseURL:     "https://openrouter.ai/api/v1",
			Model:       "deepseek/deepseek-chat",
			MaxTokens:   2000,
			Temperature: 0.7,
			Timeout:     60 * time.Second,
		},
		Timer: TimerConfig{
			Work:           25 * time.Minute,
			Break:          5 * time.Minute,
			LongBreak:      15 * time.Minute,
			LongBreakEvery: 4,
		},
		Share: ShareConfig{
			TTL: 30 * 24 * time.Hour,
		},
	}
}
