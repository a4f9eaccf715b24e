// Package config loads the threadbare runtime configuration from YAML or JSON.
package config

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/aretw0/threadbare/pkg/domain"
	"gopkg.in/yaml.v3"
)

// DefaultPath is where the CLI looks for a config file when none is given.
const DefaultPath = "threadbare.yaml"

// Store kinds.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
)

// RedisConfig configures the Redis save store and lock.
type RedisConfig struct {
	Addr     string        `yaml:"addr" json:"addr"`
	Password string        `yaml:"password" json:"password"`
	DB       int           `yaml:"db" json:"db"`
	Prefix   string        `yaml:"prefix" json:"prefix"`
	TTL      time.Duration `yaml:"ttl" json:"ttl"`
}

// EncryptionConfig seals saves with AES-256. Keys are hex encoded; the
// fallback keys only decrypt.
type EncryptionConfig struct {
	Key          string   `yaml:"key" json:"key"`
	FallbackKeys []string `yaml:"fallback_keys" json:"fallback_keys"`
}

// Enabled reports whether an active key is configured.
func (e EncryptionConfig) Enabled() bool { return e.Key != "" }

// Keys decodes the active and fallback keys.
func (e EncryptionConfig) Keys() ([]byte, [][]byte, error) {
	active, err := decodeKey(e.Key)
	if err != nil {
		return nil, nil, fmt.Errorf("encryption key: %w", err)
	}
	fallback := make([][]byte, 0, len(e.FallbackKeys))
	for i, k := range e.FallbackKeys {
		b, err := decodeKey(k)
		if err != nil {
			return nil, nil, fmt.Errorf("fallback key %d: %w", i, err)
		}
		fallback = append(fallback, b)
	}
	return active, fallback, nil
}

func decodeKey(s string) ([]byte, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, err
	}
	if len(b) != 32 {
		return nil, fmt.Errorf("want 32 bytes, got %d", len(b))
	}
	return b, nil
}

// StoreConfig selects where snapshots are saved.
type StoreConfig struct {
	Kind       string           `yaml:"kind" json:"kind"`
	Path       string           `yaml:"path" json:"path"`
	Redis      RedisConfig      `yaml:"redis" json:"redis"`
	Encryption EncryptionConfig `yaml:"encryption" json:"encryption"`
	// Redact lists regular expressions masked out of saved text.
	Redact []string `yaml:"redact" json:"redact"`
}

// HTTPConfig configures the HTTP host.
type HTTPConfig struct {
	Addr string `yaml:"addr" json:"addr"`
}

// Config is the full runtime configuration.
type Config struct {
	TickRate float64       `yaml:"tick_rate" json:"tick_rate"`
	Limits   domain.Limits `yaml:"limits" json:"limits"`
	LogLevel string        `yaml:"log_level" json:"log_level"`
	LogJSON  bool          `yaml:"log_json" json:"log_json"`
	Store    StoreConfig   `yaml:"store" json:"store"`
	HTTP     HTTPConfig    `yaml:"http" json:"http"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		TickRate: domain.DefaultTickRate,
		Limits:   domain.DefaultLimits(),
		LogLevel: "info",
		Store: StoreConfig{
			Kind: StoreMemory,
			Path: filepath.Join(".threadbare", "saves"),
			Redis: RedisConfig{
				Addr:   "localhost:6379",
				Prefix: "threadbare:",
			},
		},
		HTTP: HTTPConfig{Addr: ":8080"},
	}
}

// Load reads path over the defaults. A missing file yields the defaults, so a
// bare checkout runs without any configuration. Keys absent from the file keep
// their default values.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	if strings.ToLower(filepath.Ext(path)) == ".json" {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	} else {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks values the runner and adapters cannot work with.
func (c Config) Validate() error {
	if c.TickRate <= 0 {
		return fmt.Errorf("tick_rate must be positive, got %v", c.TickRate)
	}
	if err := c.Limits.Validate(); err != nil {
		return err
	}
	switch c.Store.Kind {
	case StoreMemory, StoreFile, StoreRedis:
	default:
		return fmt.Errorf("unknown store kind %q", c.Store.Kind)
	}
	if c.Store.Encryption.Enabled() {
		if _, _, err := c.Store.Encryption.Keys(); err != nil {
			return err
		}
	}
	for _, p := range c.Store.Redact {
		if _, err := regexp.Compile(p); err != nil {
			return fmt.Errorf("redact pattern %q: %w", p, err)
		}
	}
	return nil
}
