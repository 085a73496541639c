package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const sendTimeout = 30 * time.Second

// Worker consumes notification messages and delivers them by email
type Worker struct {
	conn     *nats.Conn
	composer *Composer
	mailer   Mailer
	logger   *zap.Logger
	subs     []*nats.Subscription
}

func NewWorker(conn *nats.Conn, composer *Composer, mailer Mailer, logger *zap.Logger) *Worker {
	return &Worker{
		conn:     conn,
		composer: composer,
		mailer:   mailer,
		logger:   logger,
	}
}

// RegisterSubscriptions joins the worker queue group on both subjects and
// drains the subscriptions when the application stops.
func (w *Worker) RegisterSubscriptions(lc fx.Lifecycle) error {
	for _, subject := range []string{SubjectInvitation, SubjectSourced} {
		sub, err := w.conn.QueueSubscribe(subject, WorkerQueueGroup, w.handleMessage)
		if err != nil {
			return fmt.Errorf("subscribe to %s: %w", subject, err)
		}
		w.subs = append(w.subs, sub)
	}
	w.logger.Info("registered notification subscriptions")

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			for _, sub := range w.subs {
				if err := sub.Drain(); err != nil {
					return err
				}
			}
			return nil
		},
	})
	return nil
}

func (w *Worker) handleMessage(msg *nats.Msg) {
	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()

	if err := w.Handle(ctx, msg.Subject, msg.Data); err != nil {
		w.logger.Error("failed to deliver notification",
			zap.String("subject", msg.Subject),
			zap.Error(err))
		return
	}
	w.logger.Info("delivered notification", zap.String("subject", msg.Subject))
}

// Handle decodes one message and sends the corresponding email.
func (w *Worker) Handle(ctx context.Context, subject string, data []byte) error {
	ctx, span := tracer.Start(ctx, "notify.Handle")
	defer span.End()

	var email Email
	switch subject {
	case SubjectInvitation:
		var msg InvitationMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return fmt.Errorf("decoding invitation message: %w", err)
		}
		email = w.composer.Invitation(msg)
	case SubjectSourced:
		var msg SourcedMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return fmt.Errorf("decoding sourced message: %w", err)
		}
		email = w.composer.Sourced(msg)
	default:
		return fmt.Errorf("unknown subject %q", subject)
	}

	if err := w.mailer.Send(ctx, email); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}
