package config

import (
	"flag"
	"os"
	"time"

	"github.com/truthmate/truthmate/internal/flagx"
)

var knownFlags = []string{
	"-a", "-g", "-d", "-m", "-n", "-s", "-t", "-l", "-k", "-v", "-w", "-q", "-r",
	"-u", "-p", "-b", "-region", "-e", "-log-level",
}

// parseFlags populates Config fields from command-line flags.
//
// Supported flags:
//
//	-a string      HTTP bind address (e.g., ":8080")
//	-g string      storage backend: postgres, mongo or memory
//	-d string      PostgreSQL DSN
//	-m string      MongoDB URI
//	-n string      MongoDB database name
//	-s string      session token HMAC secret
//	-t int         session token validity, hours
//	-l string      ML service base URL
//	-k string      ML service API key
//	-v string      verification backend: mock or gateway
//	-w int         duplicate-claim window, seconds
//	-q int         model calls per user per minute (0 disables)
//	-r string      Redis address for shared rate-limit counters
//	-u, -p string  S3 credentials
//	-b string      S3 bucket for archived images (empty disables)
//	-region string S3 region
//	-e string      S3 base endpoint
//	-log-level     debug, info, warn or error
//
// os.Args is filtered with flagx.FilterArgs first, so -c/-config and foreign
// flags never reach the flag set. Invalid values panic.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], knownFlags)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDriver, "g", config.DatabaseDriver, "storage backend (postgres|mongo|memory)")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.MongoURI, "m", config.MongoURI, "MongoDB URI")
	fs.StringVar(&config.MongoDatabase, "n", config.MongoDatabase, "MongoDB database")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	sessionTTL := fs.Int("t", int(config.SessionTTL.Hours()), "session token validity (in hours)")

	fs.StringVar(&config.MLServiceURL, "l", config.MLServiceURL, "ML service URL")
	fs.StringVar(&config.MLServiceAPIKey, "k", config.MLServiceAPIKey, "ML service API key")
	fs.StringVar(&config.VerificationBackend, "v", config.VerificationBackend, "verification backend (mock|gateway)")

	dedupWindow := fs.Int("w", int(config.DedupWindow.Seconds()), "duplicate claim window (in seconds)")

	fs.IntVar(&config.RateLimitPerMinute, "q", config.RateLimitPerMinute, "model calls per user per minute")
	fs.StringVar(&config.RedisAddr, "r", config.RedisAddr, "Redis address")
	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "region", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.LogLevel, "log-level", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.SessionTTL = time.Duration(*sessionTTL) * time.Hour
	config.DedupWindow = time.Duration(*dedupWindow) * time.Second
}
