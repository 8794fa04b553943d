package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cpswtree/catree/pkg/chname"
	"github.com/cpswtree/catree/pkg/connection"
	"github.com/cpswtree/catree/pkg/discovery"
	"github.com/cpswtree/catree/pkg/transport"
)

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("invalid configuration")

// Config is the complete configuration of the catree tools.
type Config struct {
	Naming    NamingConfig    `yaml:"naming"`
	Server    ServerConfig    `yaml:"server"`
	Client    ClientConfig    `yaml:"client"`
	Log       LogConfig       `yaml:"log"`
	Discovery DiscoveryConfig `yaml:"discovery"`
}

// NamingConfig holds the channel naming parameters.
type NamingConfig struct {
	HashPrefix   string `yaml:"hashPrefix"`
	RecordPrefix string `yaml:"recordPrefix"`
	MaxLen       int    `yaml:"maxLen"`
}

// ServerConfig holds IOC settings.
type ServerConfig struct {
	Address        string `yaml:"address"`
	Name           string `yaml:"name"`
	Tree           string `yaml:"tree"`
	Root           string `yaml:"root"`
	IncludeDir     string `yaml:"includeDir"`
	MaxMessageSize int    `yaml:"maxMessageSize"`
}

// ClientConfig holds client connection settings.
type ClientConfig struct {
	Address        string        `yaml:"address"`
	ConnectTimeout time.Duration `yaml:"connectTimeout"`
	RequestTimeout time.Duration `yaml:"requestTimeout"`
	BackoffInitial time.Duration `yaml:"backoffInitial"`
	BackoffMax     time.Duration `yaml:"backoffMax"`
}

// LogConfig holds runtime and protocol logging settings.
type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"maxSizeMB"`
	MaxBackups int    `yaml:"maxBackups"`
	MaxAgeDays int    `yaml:"maxAgeDays"`
	Compress   bool   `yaml:"compress"`
	Protocol   string `yaml:"protocol"`

	// ProtocolFrames adds raw transport frames to the capture.
	ProtocolFrames bool `yaml:"protocolFrames"`
}

// DiscoveryConfig holds mDNS settings.
type DiscoveryConfig struct {
	Advertise bool          `yaml:"advertise"`
	Interface string        `yaml:"interface"`
	TTL       time.Duration `yaml:"ttl"`
}

// Default returns the default configuration.
func Default() *Config {
	n := chname.DefaultNamer()
	return &Config{
		Naming: NamingConfig{
			HashPrefix:   n.HashPrefix,
			RecordPrefix: n.RecordPrefix,
			MaxLen:       n.MaxLen,
		},
		Server: ServerConfig{
			Address:        fmt.Sprintf(":%d", transport.DefaultPort),
			Name:           "catree",
			Root:           "root",
			MaxMessageSize: transport.DefaultMaxMessageSize,
		},
		Client: ClientConfig{
			Address:        fmt.Sprintf("localhost:%d", transport.DefaultPort),
			ConnectTimeout: 5 * time.Second,
			RequestTimeout: 5 * time.Second,
			BackoffInitial: connection.InitialBackoff,
			BackoffMax:     connection.MaxBackoff,
		},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Discovery: DiscoveryConfig{
			TTL: discovery.DefaultTTL,
		},
	}
}

// Load reads the YAML file at path on top of the defaults, applies CATREE_*
// environment overrides and validates the result. An empty path skips the
// file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes YAML into cfg. Unknown keys are rejected.
func (c *Config) Parse(data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return c.Parse(data)
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	var errs []error

	if c.Naming.MaxLen < 0 {
		errs = append(errs, fmt.Errorf("naming.maxLen must not be negative, got %d", c.Naming.MaxLen))
	}
	if !isASCII(c.Naming.HashPrefix) {
		errs = append(errs, errors.New("naming.hashPrefix must be ASCII"))
	}
	if !isASCII(c.Naming.RecordPrefix) {
		errs = append(errs, errors.New("naming.recordPrefix must be ASCII"))
	}
	if c.Server.MaxMessageSize < 0 {
		errs = append(errs, errors.New("server.maxMessageSize must not be negative"))
	}
	if c.Client.ConnectTimeout < 0 || c.Client.RequestTimeout < 0 {
		errs = append(errs, errors.New("client timeouts must not be negative"))
	}
	if c.Client.BackoffInitial < 0 || c.Client.BackoffMax < 0 {
		errs = append(errs, errors.New("client backoff must not be negative"))
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if c.Log.MaxSizeMB < 0 || c.Log.MaxBackups < 0 || c.Log.MaxAgeDays < 0 {
		errs = append(errs, errors.New("log rotation limits must not be negative"))
	}
	if c.Discovery.Advertise {
		if err := discovery.ValidateInstanceName(c.Server.Name); err != nil {
			errs = append(errs, fmt.Errorf("server.name: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}

// Namer returns the channel namer.
func (n NamingConfig) Namer() chname.Namer {
	return chname.Namer{
		HashPrefix:   n.HashPrefix,
		RecordPrefix: n.RecordPrefix,
		MaxLen:       n.MaxLen,
	}
}

// Backoff returns the reconnection backoff.
func (c ClientConfig) Backoff() connection.BackoffConfig {
	return connection.BackoffConfig{
		Initial: c.BackoffInitial,
		Max:     c.BackoffMax,
	}
}

// ParseLevel maps a level name to a slog level. Names are case insensitive.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("unknown log level %q", s)
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] > 0x7f {
			return false
		}
	}
	return true
}
