package shared

import (
	_ "embed"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// maxBatch is the most ids or items the Web API accepts per request.
const maxBatch = 100

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Server      ServerConfig      `toml:"server"`
	Database    DatabaseConfig    `toml:"database"`
	Spotify     APIConfig         `toml:"spotify"`
	Reconcile   ReconcileConfig   `toml:"reconcile"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
}

// SpotifyConfig contains the public PKCE client. There is no secret.
type SpotifyConfig struct {
	ClientID    string `toml:"client_id"`
	RedirectURI string `toml:"redirect_uri"`
}

// ServerConfig describes the local redirect listener.
type ServerConfig struct {
	Host         string   `toml:"host"`
	Port         int      `toml:"port"`
	CallbackPath string   `toml:"callback_path"`
	Timeout      Duration `toml:"timeout"`
}

// Addr returns host:port for [net.Listen].
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// APIConfig tunes paging and pacing against the Web API.
type APIConfig struct {
	PageSize          int     `toml:"page_size"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// ReconcileConfig tunes the bulk remove/add calls.
type ReconcileConfig struct {
	MaxRetries int `toml:"max_retries"`
	BatchSize  int `toml:"batch_size"`
}

// Duration wraps [time.Duration] so TOML files can say "5m".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return fmt.Errorf("%w: duration %q", ErrInvalidConfig, text)
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys absent from the file keep the values of [DefaultConfig].
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrMissingConfig, path)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// LoadConfigOrDefault behaves like [LoadConfig] but falls back to the embedded defaults when path does not exist.
func LoadConfigOrDefault(path string) (*Config, error) {
	config, err := LoadConfig(path)
	if err == nil {
		return config, nil
	}
	if errors.Is(err, ErrMissingConfig) {
		return DefaultConfig(), nil
	}
	return nil, err
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// Validate reports the first unusable setting.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Credentials.Spotify.ClientID) == "":
		return fmt.Errorf("%w: credentials.spotify.client_id is empty", ErrMissingCredentials)
	case c.Credentials.Spotify.RedirectURI == "":
		return fmt.Errorf("%w: credentials.spotify.redirect_uri is empty", ErrInvalidConfig)
	case c.Server.Port < 1 || c.Server.Port > 65535:
		return fmt.Errorf("%w: server.port %d out of range", ErrInvalidConfig, c.Server.Port)
	case !strings.HasPrefix(c.Server.CallbackPath, "/"):
		return fmt.Errorf("%w: server.callback_path must start with /", ErrInvalidConfig)
	case c.Server.Timeout.Duration < 0:
		return fmt.Errorf("%w: server.timeout is negative", ErrInvalidConfig)
	case c.Spotify.PageSize < 1 || c.Spotify.PageSize > maxBatch:
		return fmt.Errorf("%w: spotify.page_size must be between 1 and %d", ErrInvalidConfig, maxBatch)
	case c.Spotify.RequestsPerSecond < 0:
		return fmt.Errorf("%w: spotify.requests_per_second is negative", ErrInvalidConfig)
	case c.Reconcile.BatchSize < 1 || c.Reconcile.BatchSize > maxBatch:
		return fmt.Errorf("%w: reconcile.batch_size must be between 1 and %d", ErrInvalidConfig, maxBatch)
	case c.Reconcile.MaxRetries < 0:
		return fmt.Errorf("%w: reconcile.max_retries is negative", ErrInvalidConfig)
	}
	return nil
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
