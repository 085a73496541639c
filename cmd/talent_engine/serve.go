package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonathan/talent-engine/internal/config"
	"github.com/jonathan/talent-engine/internal/db"
	"github.com/jonathan/talent-engine/internal/logging"
	"github.com/jonathan/talent-engine/internal/schemas"
	"github.com/jonathan/talent-engine/internal/server"
	"github.com/jonathan/talent-engine/internal/server/ratelimit"
	"github.com/jonathan/talent-engine/internal/talent"
	"github.com/jonathan/talent-engine/internal/telemetry"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes the talent-pool, invitation and analytics endpoints.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides PORT)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := config.LoadServerConfig()
	if err != nil {
		return err
	}
	if servePort != 0 {
		cfg.Port = servePort
	}
	if err := cfg.RequireDatabase(); err != nil {
		return err
	}
	jwtCfg, err := config.NewJWTConfig()
	if err != nil {
		return err
	}
	passwordCfg, err := config.NewPasswordConfig()
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := telemetry.InitTracer(ctx, "talent-engine", cfg.OTelCollectorURL, logger)
	if err != nil {
		return err
	}
	defer shutdownTracer()

	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	validator, err := schemas.NewMetadataValidator()
	if err != nil {
		return err
	}
	notifier, closeNotifier, err := newNotifier(cfg, logger)
	if err != nil {
		return err
	}
	defer closeNotifier()

	engine := talent.New(database, validator, logger,
		talent.WithNotifier(notifier),
		talent.WithAuditor(logging.NewAuditor(logger)))

	limiter := ratelimit.NewLimiter(ratelimit.LoadConfig())
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer client.Close()
		limiter.WithCounter(ratelimit.NewRedisCounter(client), logger)
		logger.Info("sharing rate limits through redis", zap.String("addr", cfg.RedisAddr))
	}

	if cfg.ExpirySweepInterval > 0 {
		go sweepExpired(ctx, engine.Invitations, cfg.ExpirySweepInterval, logger)
	}

	srv := server.New(cfg.Port, server.Deps{
		Engine:      engine,
		Users:       database,
		Health:      database,
		JWT:         jwtCfg,
		Passwords:   passwordCfg,
		RateLimiter: limiter,
		Logger:      logger,
	})
	return srv.Start(ctx)
}

// expirer persists lazy expiry in bulk
type expirer interface {
	ExpireStale(ctx context.Context) (int64, error)
}

// sweepExpired expires stale invitations every interval until ctx is done.
func sweepExpired(ctx context.Context, e expirer, interval time.Duration, logger *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := e.ExpireStale(ctx); err != nil {
				logger.Warn("invitation expiry sweep failed", zap.Error(err))
			}
		}
	}
}
