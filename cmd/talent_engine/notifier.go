package main

import (
	"fmt"

	"github.com/jonathan/talent-engine/internal/config"
	"github.com/jonathan/talent-engine/internal/notify"
	"github.com/jonathan/talent-engine/internal/talent"
	"go.uber.org/zap"
)

// newNotifier builds the engine's notification channel for the configured mode.
// The returned close function releases any connection it opened.
func newNotifier(cfg *config.ServerConfig, logger *zap.Logger) (talent.Notifier, func(), error) {
	switch cfg.NotifyMode {
	case config.NotifyModeNATS:
		conn, err := notify.Connect(cfg.NATSURL, "talent-engine-api", cfg.NATSConnTimeout)
		if err != nil {
			return nil, nil, err
		}
		return notify.NewPublisher(conn, logger), func() {
			if err := conn.Drain(); err != nil {
				logger.Warn("failed to drain NATS connection", zap.Error(err))
			}
		}, nil
	case config.NotifyModeDirect, config.NotifyModeLog:
		direct := notify.NewDirect(notify.NewComposer(cfg.AppBaseURL), newMailer(cfg, logger), logger, cfg.SMTP.Timeout)
		return direct, direct.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported notify mode %q", cfg.NotifyMode)
	}
}

// newMailer sends real mail unless the log mode is selected.
func newMailer(cfg *config.ServerConfig, logger *zap.Logger) notify.Mailer {
	if cfg.NotifyMode == config.NotifyModeLog {
		return notify.NewLogMailer(logger)
	}
	return notify.NewSMTPMailer(cfg.SMTP)
}
