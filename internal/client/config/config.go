package config

import (
	"os"
	"time"
)

// Config holds runtime settings for the CLI client.
//
// KeychainSecret seeds the key that encrypts stored tokens. When empty the
// client falls back to a host-bound default (see KeychainSecretOrDefault).
type Config struct {
	ServerURL      string
	KeychainPath   string
	KeychainSecret string
	RefreshBuffer  time.Duration
	RequestTimeout time.Duration
	LogLevel       string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8080"
	c.KeychainPath = "keychain.db"
	c.RefreshBuffer = 2 * time.Minute
	c.RequestTimeout = 30 * time.Second
	c.LogLevel = "warn"
}

// KeychainSecretOrDefault returns KeychainSecret, or the host name plus the
// user's home directory when it is unset.
func (c *Config) KeychainSecretOrDefault() string {
	if c.KeychainSecret != "" {
		return c.KeychainSecret
	}
	host, _ := os.Hostname()
	home, _ := os.UserHomeDir()
	return host + ":" + home
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON and the environment, and finally command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg, os.Args[1:])
	parseFlags(cfg, os.Args[1:])
	return cfg
}
