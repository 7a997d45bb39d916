package config

import (
	"flag"
	"time"

	"github.com/dmitrijs2005/discbaboons/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
// Unknown flags are filtered out with flagx.FilterArgs first.
func parseFlags(cfg *Config, args []string) {
	args = flagx.FilterArgs(args, []string{"-a", "-p", "-b", "-t", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerURL, "a", cfg.ServerURL, "auth server base URL")
	fs.StringVar(&cfg.KeychainPath, "p", cfg.KeychainPath, "keychain database path")
	refreshBuffer := fs.Int("b", int(cfg.RefreshBuffer.Seconds()), "refresh safety buffer (in seconds)")
	requestTimeout := fs.Int("t", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.RefreshBuffer = time.Duration(*refreshBuffer) * time.Second
	cfg.RequestTimeout = time.Duration(*requestTimeout) * time.Second
}
