package config

import (
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	tests := []struct {
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{name: "all flags", args: []string{"cmd",
			"-a", "127.0.0.1:9090", "-g", "mongo", "-d", "db", "-m", "mongodb://m:27017", "-n", "tm",
			"-s", "secret", "-t", "24", "-l", "http://ml", "-k", "mlkey", "-v", "gateway",
			"-w", "60", "-q", "5", "-r", "redis:6379",
			"-u", "user", "-p", "password", "-b", "bucket", "-region", "us-west-1", "-e", "http://endpoint",
			"-log-level", "debug",
		}, expectPanic: false,
			expected: &Config{
				HTTPAddr:            "127.0.0.1:9090",
				LogLevel:            "debug",
				DatabaseDriver:      "mongo",
				DatabaseDSN:         "db",
				MongoURI:            "mongodb://m:27017",
				MongoDatabase:       "tm",
				SecretKey:           "secret",
				SessionTTL:          24 * time.Hour,
				MLServiceURL:        "http://ml",
				MLServiceAPIKey:     "mlkey",
				VerificationBackend: "gateway",
				DedupWindow:         time.Minute,
				RateLimitPerMinute:  5,
				RedisAddr:           "redis:6379",
				S3RootUser:          "user",
				S3RootPassword:      "password",
				S3Bucket:            "bucket",
				S3Region:            "us-west-1",
				S3BaseEndpoint:      "http://endpoint",
			}},
		{name: "foreign flags are ignored", args: []string{"cmd", "-c", "cfg.json", "-x", "1", "-q", "0"},
			expected: func() *Config {
				c := defaults()
				c.RateLimitPerMinute = 0
				return c
			}()},
		{name: "bad int panics", args: []string{"cmd", "-q", "lots"}, expectPanic: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Args = tt.args

			config := defaults()

			if !tt.expectPanic {
				require.NotPanics(t, func() { parseFlags(config) })
				assert.Empty(t, cmp.Diff(config, tt.expected))
			} else {
				require.Panics(t, func() { parseFlags(config) })
			}
		})
	}
}
