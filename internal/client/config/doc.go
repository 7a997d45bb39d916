// Package config loads runtime configuration for the DiscBaboons CLI client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected via -c or -config, read through cleanenv.
//  3. DISCBAG_CLIENT_* environment variables.
//  4. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-a string   base URL of the auth server
//	-p string   path of the local keychain database
//	-b int      refresh safety buffer (seconds)
//	-t int      request timeout (seconds)
//	-l string   log level
//
// # JSON schema
//
// Durations use timex.Duration, so values can be strings like "2m" or
// integer nanoseconds:
//
//	{
//	  "server_url": "https://api.discbaboons.com",
//	  "keychain_path": "keychain.db",
//	  "refresh_buffer": "2m",
//	  "request_timeout": "30s"
//	}
package config
