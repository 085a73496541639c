package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonathan/talent-engine/internal/config"
	"github.com/jonathan/talent-engine/internal/logging"
	"github.com/jonathan/talent-engine/internal/notify"
	"github.com/jonathan/talent-engine/internal/telemetry"
	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

var notifyWorkerCmd = &cobra.Command{
	Use:   "notify-worker",
	Short: "Deliver queued invitation and sourcing emails",
	Long:  `Consume notification messages from NATS and send them by email. Run alongside serve with NOTIFY_MODE=nats.`,
	RunE:  runNotifyWorker,
}

func init() {
	rootCmd.AddCommand(notifyWorkerCmd)
}

func newWorkerLogger(cfg *config.ServerConfig) (*zap.Logger, error) {
	return logging.New(cfg.LogLevel, cfg.LogFormat)
}

func newWorkerConn(cfg *config.ServerConfig, lc fx.Lifecycle) (*nats.Conn, error) {
	conn, err := notify.Connect(cfg.NATSURL, "talent-engine-worker", cfg.NATSConnTimeout)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			conn.Close()
			return nil
		},
	})
	return conn, nil
}

func newComposer(cfg *config.ServerConfig) *notify.Composer {
	return notify.NewComposer(cfg.AppBaseURL)
}

func startTracing(cfg *config.ServerConfig, logger *zap.Logger, lc fx.Lifecycle) error {
	shutdown, err := telemetry.InitTracer(context.Background(), "talent-engine-worker", cfg.OTelCollectorURL, logger)
	if err != nil {
		return err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			shutdown()
			return nil
		},
	})
	return nil
}

func newWorkerApp() *fx.App {
	return fx.New(
		fx.Provide(
			config.LoadServerConfig,
			newWorkerLogger,
			newWorkerConn,
			newComposer,
			newMailer,
			notify.NewWorker,
		),
		fx.WithLogger(func(logger *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: logger.Named("fx")}
		}),
		fx.Invoke(
			startTracing,
			func(worker *notify.Worker, lc fx.Lifecycle) error {
				return worker.RegisterSubscriptions(lc)
			},
		),
	)
}

func runNotifyWorker(cmd *cobra.Command, _ []string) error {
	app := newWorkerApp()
	if err := app.Start(cmd.Context()); err != nil {
		return err
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	return app.Stop(context.Background())
}
