package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/laev/existence/pkg/existence"
)

// Default values applied when fields are absent from the config file.
const (
	DefaultThreshold      = existence.DefaultThreshold
	DefaultSourceInterval = 30 * time.Second
	DefaultSourceTimeout  = 10 * time.Second
	DefaultTTL            = 5 * time.Minute
	DefaultAPIKeyHeader   = "X-API-Key"
)

// Config is the top-level configuration. Fields map 1:1 to config.example.yaml.
type Config struct {
	// Threshold is θ for every phenomenon that does not set its own.
	Threshold float64 `yaml:"threshold"`

	// Phenomena are evaluated from the literal values in this file.
	Phenomena []Phenomenon `yaml:"phenomena"`

	// Sources are Prometheus text expositions read for additional phenomena.
	Sources []Source `yaml:"sources"`

	Server ServerConfig `yaml:"server"`
}

// Phenomenon is one named (P, Π, θ) triple.
type Phenomenon struct {
	ID          string  `yaml:"id"`
	Probability float64 `yaml:"probability"`
	Possibility float64 `yaml:"possibility"`

	// Threshold overrides Config.Threshold when set.
	Threshold *float64 `yaml:"threshold"`
}

// ThresholdOr returns the phenomenon's own threshold, or def when unset.
func (p Phenomenon) ThresholdOr(def float64) float64 {
	if p.Threshold == nil {
		return def
	}
	return *p.Threshold
}

// Source describes one exposition endpoint.
type Source struct {
	// ID is a unique, human-readable identifier for this source.
	ID string `yaml:"id"`

	// Endpoint is an http:// or https:// URL, or a path to a local file.
	Endpoint string `yaml:"endpoint"`

	// Interval controls how often the source is re-read in watch mode.
	Interval time.Duration `yaml:"interval"`

	// Timeout bounds a single HTTP read.
	Timeout time.Duration `yaml:"timeout"`

	// Auth configures how HTTP reads authenticate. Ignored for files.
	Auth AuthConfig `yaml:"auth"`

	// TLS holds optional TLS dial options.
	TLS TLSConfig `yaml:"tls"`
}

// AuthConfig specifies the authentication mode for an HTTP source.
type AuthConfig struct {
	// Mode is one of: mtls | apikey | bearer | basic | none.
	Mode string `yaml:"mode"`

	// mTLS fields, used when Mode == "mtls".
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
	CAFile   string `yaml:"ca_file"`

	// Header is the HTTP header name the API key is sent in.
	Header string `yaml:"header"`
	// KeyEnv names the environment variable that holds the API key.
	KeyEnv string `yaml:"key_env"`

	// TokenEnv names the environment variable that holds the bearer token.
	TokenEnv string `yaml:"token_env"`

	// Username is the literal basic-auth username.
	Username string `yaml:"username"`
	// PasswordEnv names the environment variable that holds the password.
	PasswordEnv string `yaml:"password_env"`
}

// Key returns the API key resolved from the environment.
func (a AuthConfig) Key() string { return lookupEnv(a.KeyEnv) }

// Token returns the bearer token resolved from the environment.
func (a AuthConfig) Token() string { return lookupEnv(a.TokenEnv) }

// Password returns the basic-auth password resolved from the environment.
func (a AuthConfig) Password() string { return lookupEnv(a.PasswordEnv) }

// TLSConfig holds per-source TLS dial options.
type TLSConfig struct {
	// InsecureSkipVerify disables certificate verification. Development only.
	InsecureSkipVerify bool `yaml:"insecure_skip_verify"`
}

// ServerConfig holds the HTTP API settings.
type ServerConfig struct {
	// HTTPAddr is the listen address, e.g. ":8080". Empty disables the API.
	HTTPAddr string `yaml:"http_addr"`

	// TTL is how long a verdict stays visible without being refreshed.
	TTL time.Duration `yaml:"ttl"`

	// Auth protects the HTTP API.
	Auth ServerAuthConfig `yaml:"auth"`
}

// ServerAuthConfig configures HTTP API authentication.
type ServerAuthConfig struct {
	// Mode is one of: apikey | none.
	Mode string `yaml:"mode"`

	// Header carries the key; defaults to X-API-Key.
	Header string `yaml:"header"`

	// KeyEnv names the environment variable holding the expected API key.
	KeyEnv string `yaml:"key_env"`
}

// Key returns the server API key resolved from the environment.
func (a ServerAuthConfig) Key() string { return lookupEnv(a.KeyEnv) }

// lookupEnv returns the value of the named variable, or "" when name is empty.
func lookupEnv(name string) string {
	if name == "" {
		return ""
	}
	return os.Getenv(name)
}

// Load reads and parses the YAML config file at path.
// Missing optional fields are filled with defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	// Per-source defaults can only be applied once the list is known.
	for i := range cfg.Sources {
		if cfg.Sources[i].Interval == 0 {
			cfg.Sources[i].Interval = DefaultSourceInterval
		}
		if cfg.Sources[i].Timeout == 0 {
			cfg.Sources[i].Timeout = DefaultSourceTimeout
		}
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		Threshold: DefaultThreshold,
		Server: ServerConfig{
			TTL:  DefaultTTL,
			Auth: ServerAuthConfig{Header: DefaultAPIKeyHeader},
		},
	}
}

// validate checks required fields and structural constraints.
func validate(cfg *Config) error {
	if !(cfg.Threshold > 0 && cfg.Threshold <= 1) {
		return fmt.Errorf("threshold must be in (0,1], got %v", cfg.Threshold)
	}

	seen := make(map[string]bool, len(cfg.Phenomena))
	for i, ph := range cfg.Phenomena {
		if ph.ID == "" {
			return fmt.Errorf("phenomena[%d]: id is required", i)
		}
		if seen[ph.ID] {
			return fmt.Errorf("phenomena[%d]: duplicate id %q", i, ph.ID)
		}
		seen[ph.ID] = true
		if err := existence.Validate(ph.Probability, ph.Possibility, ph.ThresholdOr(cfg.Threshold)); err != nil {
			return fmt.Errorf("phenomena[%d] %q: %w", i, ph.ID, err)
		}
	}

	seen = make(map[string]bool, len(cfg.Sources))
	for i, src := range cfg.Sources {
		if src.ID == "" {
			return fmt.Errorf("sources[%d]: id is required", i)
		}
		if seen[src.ID] {
			return fmt.Errorf("sources[%d]: duplicate id %q", i, src.ID)
		}
		seen[src.ID] = true
		if src.Endpoint == "" {
			return fmt.Errorf("sources[%d] %q: endpoint is required", i, src.ID)
		}
		if src.Interval <= 0 {
			return fmt.Errorf("sources[%d] %q: interval must be positive", i, src.ID)
		}
		if src.Timeout <= 0 {
			return fmt.Errorf("sources[%d] %q: timeout must be positive", i, src.ID)
		}
		switch src.Auth.Mode {
		case "mtls", "apikey", "bearer", "basic", "none", "":
		default:
			return fmt.Errorf("sources[%d] %q: unknown auth mode %q", i, src.ID, src.Auth.Mode)
		}
		if src.Auth.Mode == "apikey" && src.Auth.Header == "" {
			return fmt.Errorf("sources[%d] %q: auth.header is required for apikey", i, src.ID)
		}
		if src.Auth.Mode == "mtls" && (src.Auth.CertFile == "" || src.Auth.KeyFile == "") {
			return fmt.Errorf("sources[%d] %q: auth.cert_file and auth.key_file are required for mtls", i, src.ID)
		}
	}

	if cfg.Server.TTL <= 0 {
		return fmt.Errorf("server.ttl must be positive")
	}
	switch cfg.Server.Auth.Mode {
	case "apikey":
		if cfg.Server.Auth.KeyEnv == "" {
			return fmt.Errorf("server.auth.key_env is required for apikey")
		}
	case "none", "":
	default:
		return fmt.Errorf("server.auth: unknown mode %q", cfg.Server.Auth.Mode)
	}
	return nil
}
