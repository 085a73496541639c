package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/jonathan/talent-engine/internal/telemetry"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

var tracer = telemetry.Tracer("talent-engine/notify")

// Connect opens a NATS connection that keeps retrying in the background.
func Connect(url, name string, timeout time.Duration) (*nats.Conn, error) {
	opts := []nats.Option{
		nats.Name(name),
		nats.Timeout(timeout),
		nats.RetryOnFailedConnect(true),
		nats.ReconnectWait(time.Second),
		nats.MaxReconnects(-1),
	}
	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS: %w", err)
	}
	return conn, nil
}

// publishConn is the part of *nats.Conn the publisher uses
type publishConn interface {
	Publish(subject string, data []byte) error
}

// Publisher hands notifications to the worker over NATS
type Publisher struct {
	conn   publishConn
	logger *zap.Logger
}

func NewPublisher(conn *nats.Conn, logger *zap.Logger) *Publisher {
	return &Publisher{conn: conn, logger: logger}
}

func (p *Publisher) SendJobInvitation(ctx context.Context, msg InvitationMessage) error {
	return p.publish(ctx, SubjectInvitation, msg.InvitationID.String(), msg)
}

func (p *Publisher) SendSourcedNotification(ctx context.Context, msg SourcedMessage) error {
	return p.publish(ctx, SubjectSourced, msg.ApplicationID.String(), msg)
}

func (p *Publisher) publish(ctx context.Context, subject, id string, payload any) error {
	_, span := tracer.Start(ctx, "notify.Publish")
	defer span.End()

	data, err := json.Marshal(payload)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("marshaling %s message: %w", subject, err)
	}

	span.SetAttributes(
		telemetry.String("nats.subject", subject),
		telemetry.Int("message.size", len(data)),
	)

	if err := p.conn.Publish(subject, data); err != nil {
		span.RecordError(err)
		return fmt.Errorf("publishing to %s: %w", subject, err)
	}

	p.logger.Debug("published notification",
		zap.String("subject", subject),
		zap.String("id", id))
	return nil
}

// defaultSendTimeout bounds a single background delivery in direct mode
const defaultSendTimeout = 30 * time.Second

// Direct renders notifications in-process, without a broker. Delivery runs in
// the background on a context detached from the caller, so a slow relay or a
// cancelled request never holds up the operation that triggered the email.
type Direct struct {
	composer *Composer
	mailer   Mailer
	logger   *zap.Logger
	timeout  time.Duration
	wg       sync.WaitGroup
}

func NewDirect(composer *Composer, mailer Mailer, logger *zap.Logger, timeout time.Duration) *Direct {
	if timeout <= 0 {
		timeout = defaultSendTimeout
	}
	return &Direct{composer: composer, mailer: mailer, logger: logger, timeout: timeout}
}

func (d *Direct) SendJobInvitation(ctx context.Context, msg InvitationMessage) error {
	d.dispatch(ctx, SubjectInvitation, d.composer.Invitation(msg))
	return nil
}

func (d *Direct) SendSourcedNotification(ctx context.Context, msg SourcedMessage) error {
	d.dispatch(ctx, SubjectSourced, d.composer.Sourced(msg))
	return nil
}

func (d *Direct) dispatch(ctx context.Context, kind string, email Email) {
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer cancel()
		if err := d.mailer.Send(sendCtx, email); err != nil {
			d.logger.Error("failed to deliver notification",
				zap.String("kind", kind),
				zap.String("to", email.To),
				zap.Error(err))
		}
	}()
}

// Close waits for in-flight deliveries to finish.
func (d *Direct) Close() {
	d.wg.Wait()
}
