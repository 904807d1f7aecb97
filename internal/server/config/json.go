package config

import (
	"encoding/json"
	"os"

	"github.com/truthmate/truthmate/internal/flagx"
	"github.com/truthmate/truthmate/internal/timex"
)

// JsonConfig is the on-disk shape of the JSON config file. Durations use
// timex.Duration so both "5m" and integer nanoseconds are accepted.
//
// Only keys present in the file override the current values.
type JsonConfig struct {
	HTTPAddr            *string         `json:"http_addr"`
	LogLevel            *string         `json:"log_level"`
	DatabaseDriver      *string         `json:"database_driver"`
	DatabaseDSN         *string         `json:"database_dsn"`
	MongoURI            *string         `json:"mongo_uri"`
	MongoDatabase       *string         `json:"mongo_database"`
	SecretKey           *string         `json:"secret_key"`
	SessionTTL          *timex.Duration `json:"session_ttl"`
	MLServiceURL        *string         `json:"ml_service_url"`
	MLServiceAPIKey     *string         `json:"ml_service_api_key"`
	VerificationBackend *string         `json:"verification_backend"`
	DedupWindow         *timex.Duration `json:"dedup_window"`
	RateLimitPerMinute  *int            `json:"rate_limit_per_minute"`
	RedisAddr           *string         `json:"redis_addr"`
	S3RootUser          *string         `json:"s3_root_user"`
	S3RootPassword      *string         `json:"s3_root_password"`
	S3Bucket            *string         `json:"s3_bucket"`
	S3Region            *string         `json:"s3_region"`
	S3BaseEndpoint      *string         `json:"s3_base_endpoint"`
}

// parseJson loads configuration values from the JSON file named by -c,
// -config or $TRUTHMATE_CONFIG. Without a path nothing is loaded. An
// unreadable file or invalid JSON panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	c.apply(config)
}

func (c *JsonConfig) apply(config *Config) {
	copyString(&config.HTTPAddr, c.HTTPAddr)
	copyString(&config.LogLevel, c.LogLevel)
	copyString(&config.DatabaseDriver, c.DatabaseDriver)
	copyString(&config.DatabaseDSN, c.DatabaseDSN)
	copyString(&config.MongoURI, c.MongoURI)
	copyString(&config.MongoDatabase, c.MongoDatabase)
	copyString(&config.SecretKey, c.SecretKey)
	if c.SessionTTL != nil {
		config.SessionTTL = c.SessionTTL.Duration
	}
	copyString(&config.MLServiceURL, c.MLServiceURL)
	copyString(&config.MLServiceAPIKey, c.MLServiceAPIKey)
	copyString(&config.VerificationBackend, c.VerificationBackend)
	if c.DedupWindow != nil {
		config.DedupWindow = c.DedupWindow.Duration
	}
	if c.RateLimitPerMinute != nil {
		config.RateLimitPerMinute = *c.RateLimitPerMinute
	}
	copyString(&config.RedisAddr, c.RedisAddr)
	copyString(&config.S3RootUser, c.S3RootUser)
	copyString(&config.S3RootPassword, c.S3RootPassword)
	copyString(&config.S3Bucket, c.S3Bucket)
	copyString(&config.S3Region, c.S3Region)
	copyString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
}

func copyString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}
