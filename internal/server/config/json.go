package config

import (
	"github.com/dmitrijs2005/discbaboons/internal/flagx"
	"github.com/dmitrijs2005/discbaboons/internal/timex"
	"github.com/ilyakaznacheev/cleanenv"
)

// JsonConfig is the file/environment DTO. Zero values mean "not set" and
// leave the corresponding Config field untouched.
type JsonConfig struct {
	HTTPAddr    string `json:"http_addr" env:"DISCBAG_HTTP_ADDR"`
	DatabaseDSN string `json:"database_dsn" env:"DISCBAG_DATABASE_DSN"`

	RedisAddr     string `json:"redis_addr" env:"DISCBAG_REDIS_ADDR"`
	RedisPassword string `json:"redis_password" env:"DISCBAG_REDIS_PASSWORD"`
	RedisDB       int    `json:"redis_db" env:"DISCBAG_REDIS_DB"`

	AccessTokenSecret            string         `json:"access_token_secret" env:"DISCBAG_ACCESS_TOKEN_SECRET"`
	RefreshTokenSecret           string         `json:"refresh_token_secret" env:"DISCBAG_REFRESH_TOKEN_SECRET"`
	AccessTokenValidityDuration  timex.Duration `json:"access_token_validity_duration" env:"DISCBAG_ACCESS_TOKEN_TTL"`
	RefreshTokenValidityDuration timex.Duration `json:"refresh_token_validity_duration" env:"DISCBAG_REFRESH_TOKEN_TTL"`
	ResetCodeTTL                 timex.Duration `json:"reset_code_ttl" env:"DISCBAG_RESET_CODE_TTL"`

	Environment       string `json:"environment" env:"DISCBAG_ENV"`
	LogLevel          string `json:"log_level" env:"DISCBAG_LOG_LEVEL"`
	ServiceName       string `json:"service_name" env:"DISCBAG_SERVICE_NAME"`
	TelemetryEndpoint string `json:"telemetry_endpoint" env:"DISCBAG_OTEL_ENDPOINT"`

	MailFrom  string `json:"mail_from" env:"DISCBAG_MAIL_FROM"`
	SESRegion string `json:"ses_region" env:"DISCBAG_SES_REGION"`

	SESEndpoint        string `json:"ses_endpoint" env:"DISCBAG_SES_ENDPOINT"`
	SESAccessKeyID     string `json:"ses_access_key_id" env:"DISCBAG_SES_ACCESS_KEY_ID"`
	SESSecretAccessKey string `json:"ses_secret_access_key" env:"DISCBAG_SES_SECRET_ACCESS_KEY"`

	AdminUsername string `json:"admin_username" env:"DISCBAG_ADMIN_USERNAME"`
	AdminEmail    string `json:"admin_email" env:"DISCBAG_ADMIN_EMAIL"`
	AdminPassword string `json:"admin_password" env:"DISCBAG_ADMIN_PASSWORD"`
}

// parseJson overlays config with the JSON file named by -c/-config (if any)
// and then with DISCBAG_* environment variables. It panics if the file
// cannot be read or an environment value cannot be parsed.
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

	jc.apply(config)
}

func (jc *JsonConfig) apply(c *Config) {
	setString(&c.HTTPAddr, jc.HTTPAddr)
	setString(&c.DatabaseDSN, jc.DatabaseDSN)
	setString(&c.RedisAddr, jc.RedisAddr)
	setString(&c.RedisPassword, jc.RedisPassword)
	if jc.RedisDB != 0 {
		c.RedisDB = jc.RedisDB
	}
	setString(&c.AccessTokenSecret, jc.AccessTokenSecret)
	setString(&c.RefreshTokenSecret, jc.RefreshTokenSecret)
	setDuration(&c.AccessTokenValidityDuration, jc.AccessTokenValidityDuration)
	setDuration(&c.RefreshTokenValidityDuration, jc.RefreshTokenValidityDuration)
	setDuration(&c.ResetCodeTTL, jc.ResetCodeTTL)
	setString(&c.Environment, jc.Environment)
	setString(&c.LogLevel, jc.LogLevel)
	setString(&c.ServiceName, jc.ServiceName)
	setString(&c.TelemetryEndpoint, jc.TelemetryEndpoint)
	setString(&c.MailFrom, jc.MailFrom)
	setString(&c.SESRegion, jc.SESRegion)
	setString(&c.SESEndpoint, jc.SESEndpoint)
	setString(&c.SESAccessKeyID, jc.SESAccessKeyID)
	setString(&c.SESSecretAccessKey, jc.SESSecretAccessKey)
	setString(&c.AdminUsername, jc.AdminUsername)
	setString(&c.AdminEmail, jc.AdminEmail)
	setString(&c.AdminPassword, jc.AdminPassword)
}
