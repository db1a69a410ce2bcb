// Package config loads grpcstream settings from TOML, YAML, or JSON files.
//
// The decoder is chosen by file extension:
//
//	.toml          github.com/BurntSushi/toml
//	.yaml, .yml    gopkg.in/yaml.v3
//	.json          encoding/json
//
// Unset fields take the values of [DefaultConfig].
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/randalmurphal/grpcstream/session"
)

// Config holds grpcstream configuration.
type Config struct {
	// GrpcurlPath is the grpcurl binary to run.
	// Default: "grpcurl" (looked up on PATH)
	GrpcurlPath string `json:"grpcurl_path" yaml:"grpcurl_path" toml:"grpcurl_path"`

	// Plaintext selects plain-text transport when true, TLS when false.
	// Default: true
	Plaintext *bool `json:"plaintext" yaml:"plaintext" toml:"plaintext"`

	// Insecure skips server certificate verification on TLS connections.
	Insecure bool `json:"insecure" yaml:"insecure" toml:"insecure"`

	// TempDir is where caller-supplied proto text is staged.
	// Default: os.TempDir()
	TempDir string `json:"temp_dir" yaml:"temp_dir" toml:"temp_dir"`

	// Headers are "name: value" pairs sent with every call.
	Headers []string `json:"headers" yaml:"headers" toml:"headers"`

	// MaxSessions caps concurrently active streaming sessions. 0 means no limit.
	MaxSessions int `json:"max_sessions" yaml:"max_sessions" toml:"max_sessions"`

	// OnCollision is "replace" or "reject".
	// Default: "replace"
	OnCollision session.CollisionPolicy `json:"on_collision" yaml:"on_collision" toml:"on_collision"`

	// EventBuffer is the per-subscriber event channel capacity.
	// Default: 256
	EventBuffer int `json:"event_buffer" yaml:"event_buffer" toml:"event_buffer"`

	// InvokeTimeout bounds unary, list, and describe calls.
	// Default: 30s
	InvokeTimeout Duration `json:"invoke_timeout" yaml:"invoke_timeout" toml:"invoke_timeout"`

	// LogLevel is one of debug, info, warn, error.
	// Default: "info"
	LogLevel string `json:"log_level" yaml:"log_level" toml:"log_level"`

	// LogFormat is "text" or "json".
	// Default: "text"
	LogFormat string `json:"log_format" yaml:"log_format" toml:"log_format"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	plaintext := true
	return Config{
		GrpcurlPath:   "grpcurl",
		Plaintext:     &plaintext,
		OnCollision:   session.CollisionReplace,
		EventBuffer:   256,
		InvokeTimeout: Duration(30 * time.Second),
		LogLevel:      "info",
		LogFormat:     "text",
	}
}

// WithDefaults returns a copy of the config with defaults applied for unset fields.
func (c Config) WithDefaults() Config {
	defaults := DefaultConfig()

	if c.GrpcurlPath == "" {
		c.GrpcurlPath = defaults.GrpcurlPath
	}
	if c.Plaintext == nil {
		c.Plaintext = defaults.Plaintext
	}
	if c.OnCollision == "" {
		c.OnCollision = defaults.OnCollision
	}
	if c.EventBuffer == 0 {
		c.EventBuffer = defaults.EventBuffer
	}
	if c.InvokeTimeout == 0 {
		c.InvokeTimeout = defaults.InvokeTimeout
	}
	if c.LogLevel == "" {
		c.LogLevel = defaults.LogLevel
	}
	if c.LogFormat == "" {
		c.LogFormat = defaults.LogFormat
	}
	return c
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.MaxSessions < 0 {
		return fmt.Errorf("max_sessions must be >= 0")
	}
	if c.EventBuffer < 0 {
		return fmt.Errorf("event_buffer must be >= 0")
	}
	if c.InvokeTimeout < 0 {
		return fmt.Errorf("invoke_timeout must be >= 0")
	}

	if _, err := session.ParseCollisionPolicy(string(c.OnCollision)); err != nil {
		return fmt.Errorf("on_collision: %w", err)
	}

	for _, h := range c.Headers {
		if !strings.Contains(h, ":") {
			return fmt.Errorf("header %q must have the form \"name: value\"", h)
		}
	}
	return nil
}

// IsPlaintext reports the effective transport setting.
func (c *Config) IsPlaintext() bool {
	return c.Plaintext == nil || *c.Plaintext
}

// Load reads the file at path, applies defaults, and validates the result.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	cfg, err := Decode(data, filepath.Ext(path))
	if err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Decode parses data in the format named by ext (".toml", ".yaml", ".yml",
// or ".json"), applies defaults, and validates the result.
func Decode(data []byte, ext string) (Config, error) {
	var cfg Config

	switch strings.ToLower(ext) {
	case ".toml":
		if _, err := toml.NewDecoder(bytes.NewReader(data)).Decode(&cfg); err != nil {
			return Config{}, err
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return Config{}, err
		}
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&cfg); err != nil {
			return Config{}, err
		}
	default:
		return Config{}, fmt.Errorf("unsupported config format %q", ext)
	}

	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Duration is a time.Duration written as a Go duration string ("30s", "1m").
type Duration time.Duration

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	*d = Duration(parsed)
	return nil
}
