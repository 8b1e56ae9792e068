// Copyright 2024-2026 Aiku AI

package talk

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed example-config.yaml
var ExampleConfig string

// CredentialSource supplies the connection values for a resolution. The
// engine only reads through this interface; where the values live and how
// they are encrypted is the caller's concern.
type CredentialSource interface {
	GetRemoteHost() string
	GetUsername() string
	GetPassword() string
	GetTargetHost() string
	IsConfigured() bool
}

// Config holds the connection settings for the remote Talk server and the
// target host used when building call links.
type Config struct {
	// RemoteHost is the Nextcloud server that hosts the rooms, e.g.
	// "https://cloud.example.com". A bare hostname is accepted; https is
	// assumed when no scheme is given.
	RemoteHost string `yaml:"remote_host"`
	// Username and Password authenticate against the remote server's OCS
	// API via HTTP Basic auth. An app password is expected in Password.
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	// TargetHost is the base URL generated call links point at. May differ
	// from RemoteHost when links should open on a federated instance.
	TargetHost string `yaml:"target_host"`

	// APIAddr is the listen address for the caller-facing HTTP API.
	// Defaults to ":29340".
	APIAddr string `yaml:"api_addr"`
	// LogLevel is a zerolog level name ("debug", "info", ...).
	LogLevel string `yaml:"log_level"`
}

var _ CredentialSource = (*Config)(nil)

func (c *Config) UnmarshalYAML(node *yaml.Node) error {
	type rawConfig Config
	return node.Decode((*rawConfig)(c))
}

// LoadConfig reads a YAML config file, applies TALKLINK_* environment
// overrides and normalizes the result. A missing file is not an error;
// the environment alone may supply everything.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// fall through to env overrides
	default:
		return nil, err
	}
	cfg.applyEnv()
	if err := cfg.PostProcess(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	overrides := []struct {
		env string
		dst *string
	}{
		{"TALKLINK_REMOTE_HOST", &c.RemoteHost},
		{"TALKLINK_USERNAME", &c.Username},
		{"TALKLINK_PASSWORD", &c.Password},
		{"TALKLINK_TARGET_HOST", &c.TargetHost},
		{"TALKLINK_API_ADDR", &c.APIAddr},
	}
	for _, o := range overrides {
		if v := os.Getenv(o.env); v != "" {
			*o.dst = v
		}
	}
}

// PostProcess normalizes the host values and fills defaults.
func (c *Config) PostProcess() error {
	c.RemoteHost = normalizeHost(c.RemoteHost)
	c.TargetHost = normalizeHost(c.TargetHost)
	if c.APIAddr == "" {
		c.APIAddr = ":29340"
	}
	return nil
}

// normalizeHost trims surrounding whitespace and trailing slashes and
// defaults the scheme to https when none is given.
func normalizeHost(host string) string {
	host = strings.TrimRight(strings.TrimSpace(host), "/")
	if host == "" {
		return ""
	}
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "https://" + host
	}
	return host
}

func (c *Config) GetRemoteHost() string { return c.RemoteHost }
func (c *Config) GetUsername() string   { return c.Username }
func (c *Config) GetPassword() string   { return c.Password }
func (c *Config) GetTargetHost() string { return c.TargetHost }

// IsConfigured reports whether all four connection values are present.
func (c *Config) IsConfigured() bool {
	return c.RemoteHost != "" && c.Username != "" && c.Password != "" && c.TargetHost != ""
}
