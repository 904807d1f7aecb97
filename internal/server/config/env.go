package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// EnvPrefix is prepended to every environment variable read by parseEnv.
const EnvPrefix = "TRUTHMATE_"

// parseEnv overlays Config with TRUTHMATE_* environment variables. A .env
// file in the working directory is loaded first when present; variables
// already set in the process environment win over it.
//
// Malformed numbers or durations panic, like invalid JSON or flags.
func parseEnv(config *Config) {
	_ = godotenv.Load()

	setString(&config.HTTPAddr, "HTTP_ADDR")
	setString(&config.LogLevel, "LOG_LEVEL")
	setString(&config.DatabaseDriver, "DATABASE_DRIVER")
	setString(&config.DatabaseDSN, "DATABASE_DSN")
	setString(&config.MongoURI, "MONGO_URI")
	setString(&config.MongoDatabase, "MONGO_DATABASE")
	setString(&config.SecretKey, "SECRET_KEY")
	setDuration(&config.SessionTTL, "SESSION_TTL")
	setString(&config.MLServiceURL, "ML_SERVICE_URL")
	setString(&config.MLServiceAPIKey, "ML_SERVICE_API_KEY")
	setString(&config.VerificationBackend, "VERIFICATION_BACKEND")
	setDuration(&config.DedupWindow, "DEDUP_WINDOW")
	setInt(&config.RateLimitPerMinute, "RATE_LIMIT_PER_MINUTE")
	setString(&config.RedisAddr, "REDIS_ADDR")
	setString(&config.S3RootUser, "S3_ROOT_USER")
	setString(&config.S3RootPassword, "S3_ROOT_PASSWORD")
	setString(&config.S3Bucket, "S3_BUCKET")
	setString(&config.S3Region, "S3_REGION")
	setString(&config.S3BaseEndpoint, "S3_BASE_ENDPOINT")
}

func lookup(name string) (string, bool) {
	v, ok := os.LookupEnv(EnvPrefix + name)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

func setString(dst *string, name string) {
	if v, ok := lookup(name); ok {
		*dst = v
	}
}

func setInt(dst *int, name string) {
	v, ok := lookup(name)
	if !ok {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		panic(err)
	}
	*dst = n
}

func setDuration(dst *time.Duration, name string) {
	v, ok := lookup(name)
	if !ok {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		panic(err)
	}
	*dst = d
}
