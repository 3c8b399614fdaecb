// Package config loads the tierlog server configuration.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/coffersTech/tierlog/internal/codec"
	"github.com/coffersTech/tierlog/internal/logging"
)

// Mirror modes for appended entries.
const (
	MirrorNone  = ""
	MirrorPrint = "print"
	MirrorLog   = "log"
)

const envPrefix = "TIERLOG_"

// Config is the top-level server configuration.
type Config struct {
	// Listen is the HTTP listen address.
	Listen string `yaml:"listen" json:"listen"`

	// DefaultMaxBytes is the payload budget used when a request does not
	// set max_bytes.
	DefaultMaxBytes int `yaml:"default_max_bytes" json:"default_max_bytes"`

	// Capacity is the number of entries each priority tier retains.
	Capacity int `yaml:"capacity" json:"capacity"`

	// Codec is the default payload codec: json, cbor or zstd.
	Codec string `yaml:"codec" json:"codec"`

	// JournalPath enables the append journal when non-empty.
	JournalPath string `yaml:"journal_path" json:"journal_path"`

	// CheckpointInterval is how often the journal is compacted to the
	// retained entries. Zero disables periodic checkpoints.
	CheckpointInterval Duration `yaml:"checkpoint_interval" json:"checkpoint_interval"`

	// AuthTokenHash is a bcrypt hash of the API token. Empty disables auth.
	AuthTokenHash string `yaml:"auth_token_hash" json:"auth_token_hash"`

	// Mirror copies every appended entry to stdout ("print") or to the
	// server log ("log").
	Mirror string `yaml:"mirror" json:"mirror"`

	Log LogConfig `yaml:"log" json:"log"`
}

// LogConfig configures the server's own logger.
type LogConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

// Duration is a time.Duration written as "30s" in config files.
type Duration time.Duration

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Listen:             ":8088",
		DefaultMaxBytes:    64 * 1024,
		Capacity:           1000,
		Codec:              "json",
		CheckpointInterval: Duration(30 * time.Second),
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads the file at path over the defaults. YAML is used for .yaml
// and .yml files, JSON otherwise. An empty path returns the defaults.
// Unknown keys are rejected.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}
	return cfg, nil
}

// ApplyEnv overrides fields from TIERLOG_* environment variables.
func (c *Config) ApplyEnv() error {
	str := map[string]*string{
		"LISTEN":          &c.Listen,
		"CODEC":           &c.Codec,
		"JOURNAL":         &c.JournalPath,
		"AUTH_TOKEN_HASH": &c.AuthTokenHash,
		"MIRROR":          &c.Mirror,
		"LOG_LEVEL":       &c.Log.Level,
		"LOG_FORMAT":      &c.Log.Format,
	}
	for key, dst := range str {
		if v, ok := os.LookupEnv(envPrefix + key); ok {
			*dst = v
		}
	}

	ints := map[string]*int{
		"MAX_BYTES": &c.DefaultMaxBytes,
		"CAPACITY":  &c.Capacity,
	}
	for key, dst := range ints {
		v, ok := os.LookupEnv(envPrefix + key)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", envPrefix, key, err)
		}
		*dst = n
	}

	if v, ok := os.LookupEnv(envPrefix + "CHECKPOINT_INTERVAL"); ok {
		if err := c.CheckpointInterval.UnmarshalText([]byte(v)); err != nil {
			return fmt.Errorf("%sCHECKPOINT_INTERVAL: %w", envPrefix, err)
		}
	}
	return nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Listen == "" {
		return fmt.Errorf("listen is required")
	}
	if c.DefaultMaxBytes <= 0 {
		return fmt.Errorf("default_max_bytes must be positive, got %d", c.DefaultMaxBytes)
	}
	if c.Capacity <= 0 {
		return fmt.Errorf("capacity must be positive, got %d", c.Capacity)
	}
	if _, err := codec.Lookup(c.Codec); err != nil {
		return fmt.Errorf("codec: %w", err)
	}
	if c.CheckpointInterval < 0 {
		return fmt.Errorf("checkpoint_interval must not be negative")
	}
	switch c.Mirror {
	case MirrorNone, MirrorPrint, MirrorLog:
	default:
		return fmt.Errorf("unknown mirror %q (supported: print, log)", c.Mirror)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if _, err := logging.ParseFormat(c.Log.Format); err != nil {
		return fmt.Errorf("log.format: %w", err)
	}
	return nil
}
