package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, dir, name string, data map[string]any) string {
	t.Helper()
	if dir == "" {
		dir = t.TempDir()
	}
	if name == "" {
		name = "cfg.json"
	}
	path := filepath.Join(dir, name)
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson_SourcesAndPrecedence(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	t.Setenv("TRUTHMATE_CONFIG", "")

	dir := t.TempDir()
	pathFlag := writeTempJSON(t, dir, "flag.json", map[string]any{
		"http_addr":             "www.example:9000",
		"database_driver":       "mongo",
		"mongo_uri":             "mongodb://db:27017",
		"secret_key":            "my_secret_key",
		"session_ttl":           "24h",
		"ml_service_url":        "http://ml:8000",
		"verification_backend":  "gateway",
		"dedup_window":          "10m",
		"rate_limit_per_minute": 0,
		"s3_bucket":             "images",
	})

	t.Run("loads from json", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", pathFlag}

		cfg := defaults()
		parseJson(cfg)

		assert.Equal(t, "www.example:9000", cfg.HTTPAddr)
		assert.Equal(t, DriverMongo, cfg.DatabaseDriver)
		assert.Equal(t, "mongodb://db:27017", cfg.MongoURI)
		assert.Equal(t, "my_secret_key", cfg.SecretKey)
		assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
		assert.Equal(t, "http://ml:8000", cfg.MLServiceURL)
		assert.Equal(t, BackendGateway, cfg.VerificationBackend)
		assert.Equal(t, 10*time.Minute, cfg.DedupWindow)
		assert.Equal(t, 0, cfg.RateLimitPerMinute)
		assert.Equal(t, "images", cfg.S3Bucket)
		assert.Equal(t, "truthmate", cfg.MongoDatabase, "keys absent from the file keep their value")
	})

	t.Run("env path", func(t *testing.T) {
		os.Args = []string{"testbin"}
		t.Setenv("TRUTHMATE_CONFIG", pathFlag)

		cfg := defaults()
		parseJson(cfg)

		assert.Equal(t, "www.example:9000", cfg.HTTPAddr)
	})

	t.Run("no config → no changes", func(t *testing.T) {
		os.Args = []string{"testbin"}

		cfg := defaults()
		parseJson(cfg)

		assert.Equal(t, defaults(), cfg)
	})

	t.Run("invalid JSON → panics", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))

		os.Args = []string{"testbin", "-config", bad}

		require.Panics(t, func() { parseJson(defaults()) })
	})

	t.Run("missing file → panics", func(t *testing.T) {
		os.Args = []string{"testbin", "-c", filepath.Join(dir, "absent.json")}

		require.Panics(t, func() { parseJson(defaults()) })
	})
}
