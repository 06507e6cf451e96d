package config

import (
	"reflect"
	"strings"
	"testing"

	"github.com/karnagebitcoin/share-to-nostr/internal/relay"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr bool
		check   func(*Config) bool
	}{
		{
			name: "listen and relays",
			yaml: `
listen: 127.0.0.1:9999
relays:
  - wss://relay.damus.io
  - wss://nos.lol
`,
			check: func(c *Config) bool {
				return c.Listen == "127.0.0.1:9999" &&
					reflect.DeepEqual(c.Relays, []string{"wss://relay.damus.io", "wss://nos.lol"})
			},
		},
		{
			name: "defaults applied",
			yaml: `verbose: true`,
			check: func(c *Config) bool {
				return c.Listen == DefaultListenAddr &&
					reflect.DeepEqual(c.Relays, relay.DefaultRelays) &&
					c.Verbose && c.DataDir != ""
			},
		},
		{
			name: "relay list is normalized",
			yaml: `
relays:
  - " wss://a.example "
  - wss://a.example
  - https://not-a-relay.example
`,
			check: func(c *Config) bool {
				return reflect.DeepEqual(c.Relays, []string{"wss://a.example"})
			},
		},
		{
			name:    "invalid yaml",
			yaml:    `listen: [unclosed`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Parse(strings.NewReader(tt.yaml))
			if tt.wantErr {
				if err == nil {
					t.Error("Parse() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if tt.check != nil && !tt.check(cfg) {
				t.Errorf("Parse() check failed: %+v", cfg)
			}
		})
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("RELAYS", "wss://env.example, wss://env2.example")
	t.Setenv("STN_LISTEN", "127.0.0.1:4444")

	cfg := Default()
	cfg.ApplyEnv()

	if cfg.Listen != "127.0.0.1:4444" {
		t.Errorf("Listen = %q", cfg.Listen)
	}
	want := []string{"wss://env.example", "wss://env2.example"}
	if !reflect.DeepEqual(cfg.Relays, want) {
		t.Errorf("Relays = %v, want %v", cfg.Relays, want)
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() on defaults = %v", err)
	}

	cfg.Listen = "nonsense"
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() accepted bad listen address")
	}

	cfg = Default()
	cfg.Relays = []string{"wss://"}
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() accepted hostless relay URL")
	}
}
