package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/pixkeeper/internal/flagx"
	"github.com/dmitrijs2005/pixkeeper/internal/timex"
)

// JsonConfig mirrors Config for JSON files. Durations accept "15m" style
// strings or integer nanoseconds; booleans are pointers so an explicit
// false can be told apart from an absent key.
type JsonConfig struct {
	HTTPAddr        string         `json:"http_addr"`
	ShutdownTimeout timex.Duration `json:"shutdown_timeout"`
	LogLevel        string         `json:"log_level"`

	DatabaseDSN  string `json:"database_dsn"`
	MaxOpenConns int    `json:"max_open_conns"`
	MaxIdleConns int    `json:"max_idle_conns"`

	S3RootUser     string         `json:"s3_root_user"`
	S3RootPassword string         `json:"s3_root_password"`
	S3Bucket       string         `json:"s3_bucket"`
	S3Region       string         `json:"s3_region"`
	S3BaseEndpoint string         `json:"s3_base_endpoint"`
	S3UsePathStyle *bool          `json:"s3_use_path_style"`
	PresignTTL     timex.Duration `json:"presign_ttl"`

	AdminUsername  string `json:"admin_username"`
	AdminPassword  string `json:"admin_password"`
	LegacyUsername string `json:"legacy_username"`
	LegacyPassword string `json:"legacy_password"`

	SignupMode         string `json:"signup_mode"`
	DeletePolicy       string `json:"delete_policy"`
	MaxUploadBytes     int64  `json:"max_upload_bytes"`
	RateLimitPerMinute int    `json:"rate_limit_per_minute"`

	WeatherAPIKey  string         `json:"weather_api_key"`
	WeatherBaseURL string         `json:"weather_base_url"`
	WeatherTimeout timex.Duration `json:"weather_timeout"`
}

// parseJson loads the file named by -c/-config, if any, and copies every
// key present in it onto config.
func parseJson(config *Config) error {
	path := flagx.JsonConfigFlags()
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	c := &JsonConfig{}
	if err := json.Unmarshal(data, c); err != nil {
		return fmt.Errorf("decode config %s: %w", path, err)
	}

	setString(&config.HTTPAddr, c.HTTPAddr)
	setDuration(&config.ShutdownTimeout, c.ShutdownTimeout)
	setString(&config.LogLevel, c.LogLevel)

	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setInt(&config.MaxOpenConns, c.MaxOpenConns)
	setInt(&config.MaxIdleConns, c.MaxIdleConns)

	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	if c.S3UsePathStyle != nil {
		config.S3UsePathStyle = *c.S3UsePathStyle
	}
	setDuration(&config.PresignTTL, c.PresignTTL)

	setString(&config.AdminUsername, c.AdminUsername)
	setString(&config.AdminPassword, c.AdminPassword)
	setString(&config.LegacyUsername, c.LegacyUsername)
	setString(&config.LegacyPassword, c.LegacyPassword)

	setString(&config.SignupMode, c.SignupMode)
	setString(&config.DeletePolicy, c.DeletePolicy)
	if c.MaxUploadBytes != 0 {
		config.MaxUploadBytes = c.MaxUploadBytes
	}
	setInt(&config.RateLimitPerMinute, c.RateLimitPerMinute)

	setString(&config.WeatherAPIKey, c.WeatherAPIKey)
	setString(&config.WeatherBaseURL, c.WeatherBaseURL)
	setDuration(&config.WeatherTimeout, c.WeatherTimeout)
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v timex.Duration) {
	if v.Duration != 0 {
		*dst = v.Duration
	}
}
