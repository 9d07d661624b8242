// Package config loads toybox settings from YAML, the environment and flags.
//
// Precedence: flags > env > file > defaults. Flags are applied by the CLI
// after Load returns.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pthm/toybox/internal/logging"
	"github.com/pthm/toybox/internal/toyapi"
)

// Errors returned by Load and Validate.
var (
	ErrFileNotFound = errors.New("configuration file not found")
	ErrInvalidYAML  = errors.New("invalid YAML syntax")
	ErrInvalid      = errors.New("invalid configuration")
)

// Environment variable names.
const (
	EnvServerAddr     = "TOYBOX_SERVER_ADDR"
	EnvPropsKey       = "TOYBOX_PROPS_KEY"
	EnvEncryptProps   = "TOYBOX_ENCRYPT_PROPS"
	EnvAPI            = "TOYBOX_API"
	EnvRequestTimeout = "TOYBOX_REQUEST_TIMEOUT"
	EnvIdleTTL        = "TOYBOX_SESSION_IDLE_TTL"
	EnvBackendAddr    = "TOYBOX_BACKEND_ADDR"
	EnvDBPath         = "TOYBOX_DB"
	EnvShowErrors     = "TOYBOX_SHOW_ERRORS"
	EnvLogLevel       = "TOYBOX_LOG_LEVEL"
	EnvLogFormat      = "TOYBOX_LOG_FORMAT"
)

// Config is the full configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Client  ClientConfig  `yaml:"client"`
	Session SessionConfig `yaml:"session"`
	Backend BackendConfig `yaml:"backend"`
	UI      UIConfig      `yaml:"ui"`
	Log     LogConfig     `yaml:"log"`
}

// ServerConfig configures the web UI server.
type ServerConfig struct {
	Addr string `yaml:"addr"`
	// PropsKey signs component props. Empty means a random key per process.
	PropsKey string `yaml:"props_key"`
	// EncryptProps seals component props with AES-GCM instead of signing
	// them.
	EncryptProps bool `yaml:"encrypt_props"`
}

// ClientConfig configures access to the toy backend.
type ClientConfig struct {
	BaseURL        string        `yaml:"base_url"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// SessionConfig configures browser sessions.
type SessionConfig struct {
	IdleTTL    time.Duration `yaml:"idle_ttl"`
	CookieName string        `yaml:"cookie_name"`
}

// BackendConfig configures the bundled REST backend.
type BackendConfig struct {
	Addr   string `yaml:"addr"`
	DBPath string `yaml:"db_path"`
}

// UIConfig holds presentation options shared by both frontends.
type UIConfig struct {
	ShowErrors bool   `yaml:"show_errors"`
	Title      string `yaml:"title"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Addr: ":8080"},
		Client: ClientConfig{
			BaseURL:        toyapi.DefaultBaseURL,
			RequestTimeout: 10 * time.Second,
		},
		Session: SessionConfig{
			IdleTTL:    30 * time.Minute,
			CookieName: "toybox_session",
		},
		Backend: BackendConfig{Addr: ":3001", DBPath: "db.json"},
		UI:      UIConfig{Title: "Andy's Toy Collection"},
		Log:     LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads path over the defaults and applies environment overrides.
// An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
			}
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
		}
	}

	if err := applyEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

// applyEnv sets every field whose variable is present.
func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(name); ok && v != "" {
			*dst = v
		}
	}
	dur := func(name string, dst *time.Duration) error {
		v, ok := lookup(name)
		if !ok || v == "" {
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalid, name, err)
		}
		*dst = d
		return nil
	}
	boolean := func(name string, dst *bool) error {
		v, ok := lookup(name)
		if !ok || v == "" {
			return nil
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalid, name, err)
		}
		*dst = b
		return nil
	}

	str(EnvServerAddr, &cfg.Server.Addr)
	str(EnvPropsKey, &cfg.Server.PropsKey)
	str(EnvAPI, &cfg.Client.BaseURL)
	str(EnvBackendAddr, &cfg.Backend.Addr)
	str(EnvDBPath, &cfg.Backend.DBPath)
	str(EnvLogLevel, &cfg.Log.Level)
	str(EnvLogFormat, &cfg.Log.Format)

	if err := dur(EnvRequestTimeout, &cfg.Client.RequestTimeout); err != nil {
		return err
	}
	if err := dur(EnvIdleTTL, &cfg.Session.IdleTTL); err != nil {
		return err
	}

	if err := boolean(EnvShowErrors, &cfg.UI.ShowErrors); err != nil {
		return err
	}
	return boolean(EnvEncryptProps, &cfg.Server.EncryptProps)
}

// Validate checks values that would otherwise fail later.
func (c *Config) Validate() error {
	var problems []string

	if c.Client.BaseURL == "" {
		problems = append(problems, "client.base_url is empty")
	}
	if c.Client.RequestTimeout < 0 {
		problems = append(problems, "client.request_timeout is negative")
	}
	if c.Session.IdleTTL <= 0 {
		problems = append(problems, "session.idle_ttl must be positive")
	}
	if c.Session.CookieName == "" {
		problems = append(problems, "session.cookie_name is empty")
	}
	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		problems = append(problems, fmt.Sprintf("log.level %q is not debug, info, warn or error", c.Log.Level))
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		problems = append(problems, fmt.Sprintf("log.format %q is not text or json", c.Log.Format))
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}

// Logging returns the logging configuration.
func (c *Config) Logging() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = logging.ParseLevel(c.Log.Level)
	cfg.Format = logging.ParseFormat(c.Log.Format)
	return cfg
}
