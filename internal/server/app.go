// Package server wires the auth server together: configuration, logging,
// tracing, PostgreSQL, Redis, mail dispatch and the HTTP API.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrijs2005/discbaboons/internal/logging"
	"github.com/dmitrijs2005/discbaboons/internal/password"
	"github.com/dmitrijs2005/discbaboons/internal/server/auth"
	"github.com/dmitrijs2005/discbaboons/internal/server/bootstrap"
	"github.com/dmitrijs2005/discbaboons/internal/server/config"
	httpapi "github.com/dmitrijs2005/discbaboons/internal/server/http"
	"github.com/dmitrijs2005/discbaboons/internal/server/notify"
	"github.com/dmitrijs2005/discbaboons/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/discbaboons/internal/server/repositories/resetcodes"
	"github.com/dmitrijs2005/discbaboons/internal/server/services"
	"github.com/dmitrijs2005/discbaboons/internal/server/telemetry"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type App struct {
	config    *config.Config
	logger    logging.Logger
	zap       *zap.Logger
	db        *sql.DB
	redis     *redis.Client
	telemetry *telemetry.Provider
	server    *httpapi.HTTPServer
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	zl, err := logging.NewZap(c.Environment, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}
	logger := logging.NewZapLogger(zl)

	app := &App{config: c, logger: logger, zap: zl}

	if err := app.init(ctx); err != nil {
		app.close(ctx)
		return nil, err
	}
	return app, nil
}

func (app *App) init(ctx context.Context) error {
	c := app.config

	tp, err := telemetry.New(ctx, telemetry.Options{
		Endpoint:    c.TelemetryEndpoint,
		Insecure:    c.Environment == "development",
		ServiceName: c.ServiceName,
	})
	if err != nil {
		return fmt.Errorf("telemetry init error: %w", err)
	}
	app.telemetry = tp

	app.db, err = repomanager.OpenPostgres(ctx, c.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, app.db); err != nil {
		return fmt.Errorf("migrations error: %w", err)
	}

	codes, err := app.newResetCodes(ctx)
	if err != nil {
		return err
	}

	sender, err := app.newSender(ctx)
	if err != nil {
		return fmt.Errorf("mail init error: %w", err)
	}

	hasher := password.NewHasher(password.DefaultParams)

	admin := bootstrap.Admin{Username: c.AdminUsername, Email: c.AdminEmail, Password: c.AdminPassword}
	if admin.Configured() {
		if err := bootstrap.EnsureAdmin(ctx, rm.Users(app.db), hasher, admin, app.logger); err != nil {
			return err
		}
	}

	jwtm := auth.NewJWTManager(c.AccessTokenSecret, c.RefreshTokenSecret,
		c.AccessTokenValidityDuration, c.RefreshTokenValidityDuration)

	svc, err := services.NewAuthService(
		app.db,
		rm,
		codes,
		notify.NewMailer(sender),
		hasher,
		jwtm,
		c.ResetCodeTTL,
		app.logger.With("module", "auth_service"),
		tp.Tracer(),
	)
	if err != nil {
		return fmt.Errorf("auth service init error: %w", err)
	}

	app.server = httpapi.NewHTTPServer(c.HTTPAddr, app.logger, svc, jwtm, c.ServiceName)
	return nil
}

// newResetCodes keeps reset codes in Redis, or in process memory when no
// Redis address is configured. The memory ledger only works for a single
// server instance.
func (app *App) newResetCodes(ctx context.Context) (resetcodes.Repository, error) {
	c := app.config
	if c.RedisAddr == "" {
		app.logger.Warn(ctx, "no redis address configured, keeping reset codes in memory")
		return resetcodes.NewMemoryRepository(time.Now), nil
	}

	app.redis = redis.NewClient(&redis.Options{
		Addr:     c.RedisAddr,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
	})
	if err := app.redis.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis init error: %w", err)
	}
	return resetcodes.NewRedisRepository(app.redis), nil
}

// newSender uses SES when a region is configured and logs messages otherwise.
func (app *App) newSender(ctx context.Context) (notify.Sender, error) {
	c := app.config
	if c.SESRegion == "" {
		if c.Environment != "development" {
			app.logger.Warn(ctx, "SES region not set, account e-mails will only be logged")
		}
		return notify.NewLogSender(app.logger), nil
	}
	return notify.NewSESSender(ctx, notify.SESOptions{
		Region:          c.SESRegion,
		Endpoint:        c.SESEndpoint,
		AccessKeyID:     c.SESAccessKeyID,
		SecretAccessKey: c.SESSecretAccessKey,
		From:            c.MailFrom,
	})
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves until a termination signal arrives or the server fails.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "env", app.config.Environment)
	app.initSignalHandler(cancelFunc)

	err := app.server.Run(ctx)
	if err != nil {
		app.logger.Error(ctx, "server stopped", "error", err)
	}

	app.close(context.Background())
	return err
}

func (app *App) close(ctx context.Context) {
	if app.telemetry != nil {
		if err := app.telemetry.Shutdown(ctx); err != nil {
			app.logger.Warn(ctx, "telemetry shutdown", "error", err)
		}
	}
	if app.redis != nil {
		_ = app.redis.Close()
	}
	if app.db != nil {
		_ = app.db.Close()
	}
	_ = app.zap.Sync()
}
