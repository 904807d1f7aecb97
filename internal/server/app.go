// Package server initializes and runs the TruthMate API server.
// It opens the configured store, wires the services to the HTTP layer
// and handles graceful shutdown.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/truthmate/truthmate/internal/logging"
	"github.com/truthmate/truthmate/internal/server/config"
	"github.com/truthmate/truthmate/internal/server/gateway"
	"github.com/truthmate/truthmate/internal/server/httpapi"
	"github.com/truthmate/truthmate/internal/server/imagestore"
	"github.com/truthmate/truthmate/internal/server/ratelimit"
	"github.com/truthmate/truthmate/internal/server/repositories/repomanager"
	"github.com/truthmate/truthmate/internal/server/services"
)

const closeTimeout = 5 * time.Second

type App struct {
	config              *config.Config
	logger              logging.Logger
	repos               repomanager.RepositoryManager
	redis               *redis.Client
	verificationService *services.VerificationService
	httpServer          *httpapi.Server
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	logger := logging.NewJSON(os.Stdout, c.LogLevel)

	repos, err := repomanager.Open(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	app := &App{config: c, logger: logger, repos: repos}

	ml := gateway.NewClient(c.MLServiceURL, c.MLServiceAPIKey)

	var analyzer services.Analyzer = services.MockAnalyzer{}
	if c.VerificationBackend == config.BackendGateway {
		analyzer = services.NewGatewayAnalyzer(ml)
	}

	vs := services.NewVerificationService(repos, analyzer, c, logger)
	app.verificationService = vs

	images, err := app.openImageStore(ctx)
	if err != nil {
		_ = repos.Close(ctx)
		return nil, err
	}

	deps := httpapi.Deps{
		Users:         services.NewUserService(repos, c),
		Verifications: vs,
		Bookmarks:     services.NewBookmarkService(repos, logger),
		Gateway:       ml,
		Store:         repos,
		Limiter:       app.newLimiter(ctx),
		SessionTTL:    c.SessionTTL,
	}
	if images != nil {
		deps.Images = images
	}

	app.httpServer = httpapi.NewServer(c.HTTPAddr, deps, logger)
	return app, nil
}

// newLimiter prefers shared Redis counters and falls back to process memory
// when Redis is not configured or not reachable.
func (app *App) newLimiter(ctx context.Context) ratelimit.Limiter {
	c := app.config
	if c.RateLimitPerMinute == 0 {
		return ratelimit.Unlimited{}
	}
	if c.RedisAddr != "" {
		client, err := ratelimit.OpenRedis(ctx, c.RedisAddr)
		if err == nil {
			app.redis = client
			return ratelimit.NewRedisLimiter(client, c.RateLimitPerMinute, time.Minute, app.logger)
		}
		app.logger.Warn(ctx, "redis unavailable, using in-process rate limits", "addr", c.RedisAddr, "error", err)
	}
	return ratelimit.NewMemoryLimiter(c.RateLimitPerMinute, time.Minute)
}

func (app *App) openImageStore(ctx context.Context) (*imagestore.S3Store, error) {
	c := app.config
	if c.S3Bucket == "" {
		return nil, nil
	}
	s, err := imagestore.NewS3Store(ctx, imagestore.Config{
		Bucket:       c.S3Bucket,
		Region:       c.S3Region,
		AccessKey:    c.S3RootUser,
		SecretKey:    c.S3RootPassword,
		BaseEndpoint: c.S3BaseEndpoint,
	})
	if err != nil {
		return nil, fmt.Errorf("image store init error: %w", err)
	}
	return s, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...",
		"driver", app.config.DatabaseDriver,
		"verification_backend", app.config.VerificationBackend)

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := app.httpServer.Run(ctx); err != nil {
			app.logger.Error(ctx, err.Error())
			cancelFunc()
		}
	}()

	wg.Wait()
	app.shutdown(context.WithoutCancel(ctx))
}

// shutdown waits for background view updates, then releases connections.
func (app *App) shutdown(ctx context.Context) {
	app.verificationService.Wait()

	ctx, cancel := context.WithTimeout(ctx, closeTimeout)
	defer cancel()

	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Warn(ctx, "redis close", "error", err)
		}
	}
	if err := app.repos.Close(ctx); err != nil {
		app.logger.Warn(ctx, "store close", "error", err)
	}
	app.logger.Info(ctx, "Stopped")
}
