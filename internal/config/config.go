// Package config handles YAML configuration parsing and validation.
package config

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/karnagebitcoin/share-to-nostr/internal/relay"
)

const (
	// DefaultListenAddr binds the daemon to loopback only. Pages on
	// other machines must not reach the bridge.
	DefaultListenAddr = "127.0.0.1:17807"

	// DefaultConfigName is the config file looked up in the data dir.
	DefaultConfigName = "stn.yaml"
)

// Config represents the stn.yaml configuration file.
type Config struct {
	// Listen address for the HTTP API and the signer bridge.
	Listen string `yaml:"listen,omitempty"`

	// Target relays. Normalized on load; empty falls back to the
	// default relay set.
	Relays []string `yaml:"relays,omitempty"`

	// Data directory for the draft/settings database. Defaults to
	// ~/.stn when unset.
	DataDir string `yaml:"data_dir,omitempty"`

	// Verbose enables debug logging.
	Verbose bool `yaml:"verbose,omitempty"`

	// BaseDir is the directory containing the config file (for
	// relative paths). Not parsed from YAML, set by Load().
	BaseDir string `yaml:"-"`
}

// Load reads and parses a config file.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	cfg, err := Parse(f)
	if err != nil {
		return nil, err
	}

	absPath, err := filepath.Abs(path)
	if err == nil {
		cfg.BaseDir = filepath.Dir(absPath)
	}

	return cfg, nil
}

// Parse reads and parses config from a reader.
func Parse(r io.Reader) (*Config, error) {
	var cfg Config
	decoder := yaml.NewDecoder(r)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Listen == "" {
		c.Listen = DefaultListenAddr
	}
	c.Relays = relay.NormalizeOrDefault(c.Relays)
	if c.DataDir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			c.DataDir = filepath.Join(home, ".stn")
		} else {
			c.DataDir = ".stn"
		}
	}
}

// ApplyEnv overlays environment variables onto the config. RELAYS is a
// comma-separated relay list; STN_LISTEN overrides the bind address.
func (c *Config) ApplyEnv() {
	if relays := os.Getenv("RELAYS"); relays != "" {
		c.Relays = relay.Split(relays)
	}
	if listen := os.Getenv("STN_LISTEN"); listen != "" {
		c.Listen = listen
	}
}

// Validate checks the config for obviously broken values.
func (c *Config) Validate() error {
	host, _, ok := strings.Cut(c.Listen, ":")
	if !ok || host == "" {
		return fmt.Errorf("listen must be host:port, got %q", c.Listen)
	}
	for _, r := range c.Relays {
		if err := validateRelayURL(r); err != nil {
			return fmt.Errorf("invalid relay %q: %w", r, err)
		}
	}
	return nil
}

// validateRelayURL checks that a relay entry is a well-formed
// websocket URL.
func validateRelayURL(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("malformed URL: %w", err)
	}
	if parsed.Scheme != "ws" && parsed.Scheme != "wss" {
		return fmt.Errorf("URL must have ws or wss scheme, got %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return fmt.Errorf("URL must have a host")
	}
	return nil
}
