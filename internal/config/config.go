// Package config loads the node configuration from YAML with sane
// defaults; serve-time flags override individual fields.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration parses YAML durations given either as Go duration strings
// ("5s", "300ms") or as integer nanoseconds.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var n int64
	if err := value.Decode(&n); err == nil {
		*d = Duration(n)
		return nil
	}
	var s string
	if err := value.Decode(&s); err == nil {
		v, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("config: invalid duration %q: %w", s, err)
		}
		*d = Duration(v)
		return nil
	}
	return fmt.Errorf("config: cannot parse duration from %q", value.Value)
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config holds full node configuration.
type Config struct {
	// Node is this middleware's identity in the distributed deployment,
	// the host peers dial for M2M. Provenance records carry it.
	Node string `yaml:"node"`
	// Listen is the endpoint serving all three RPC surfaces.
	Listen string `yaml:"listen"`
	// M2MPort is the port peers are dialed on (their Listen port).
	M2MPort int `yaml:"m2m_port"`

	ConsentTimeout Duration `yaml:"consent_timeout"`
	PeerTimeout    Duration `yaml:"peer_timeout"`

	AuditLog      string `yaml:"audit_log"`
	MetricsListen string `yaml:"metrics_listen"`
	PolicyFile    string `yaml:"policy_file"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Node:           "127.0.0.1",
		Listen:         "[::]:8080",
		M2MPort:        8080,
		ConsentTimeout: Duration(30 * time.Second),
		PeerTimeout:    Duration(5 * time.Second),
	}
}

// Load reads a YAML config file over the defaults. An empty path returns
// the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects configurations the server cannot run with.
func (c Config) Validate() error {
	if c.Node == "" {
		return fmt.Errorf("config: node must not be empty")
	}
	if c.Listen == "" {
		return fmt.Errorf("config: listen must not be empty")
	}
	if c.M2MPort <= 0 || c.M2MPort > 65535 {
		return fmt.Errorf("config: m2m_port %d out of range", c.M2MPort)
	}
	return nil
}
