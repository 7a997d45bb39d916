package config

import (
	"github.com/dmitrijs2005/discbaboons/internal/flagx"
	"github.com/dmitrijs2005/discbaboons/internal/timex"
	"github.com/ilyakaznacheev/cleanenv"
)

// JsonConfig is the file/environment DTO. Zero values leave the Config
// field untouched.
type JsonConfig struct {
	ServerURL      string         `json:"server_url" env:"DISCBAG_CLIENT_SERVER_URL"`
	KeychainPath   string         `json:"keychain_path" env:"DISCBAG_CLIENT_KEYCHAIN_PATH"`
	KeychainSecret string         `json:"keychain_secret" env:"DISCBAG_CLIENT_KEYCHAIN_SECRET"`
	RefreshBuffer  timex.Duration `json:"refresh_buffer" env:"DISCBAG_CLIENT_REFRESH_BUFFER"`
	RequestTimeout timex.Duration `json:"request_timeout" env:"DISCBAG_CLIENT_REQUEST_TIMEOUT"`
	LogLevel       string         `json:"log_level" env:"DISCBAG_CLIENT_LOG_LEVEL"`
}

// parseJson overlays config with the JSON file named by -c/-config (if any)
// and the environment. It panics on read or parse errors.
func parseJson(config *Config, args []string) {
	jc := &JsonConfig{}

	var err error
	if path := flagx.ConfigFilePath(args); path != "" {
		err = cleanenv.ReadConfig(path, jc)
	} else {
		err = cleanenv.ReadEnv(jc)
	}
	if err != nil {
		panic(err)
	}

	if jc.ServerURL != "" {
		config.ServerURL = jc.ServerURL
	}
	if jc.KeychainPath != "" {
		config.KeychainPath = jc.KeychainPath
	}
	if jc.KeychainSecret != "" {
		config.KeychainSecret = jc.KeychainSecret
	}
	if jc.RefreshBuffer != 0 {
		config.RefreshBuffer = jc.RefreshBuffer.Std()
	}
	if jc.RequestTimeout != 0 {
		config.RequestTimeout = jc.RequestTimeout.Std()
	}
	if jc.LogLevel != "" {
		config.LogLevel = jc.LogLevel
	}
}
