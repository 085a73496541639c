// Package talent implements talent-pool engagement: invitations, sourcing,
// the interaction ledger, pool search and funnel analytics.
package talent

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/talent-engine/internal/db"
	"github.com/jonathan/talent-engine/internal/logging"
	"github.com/jonathan/talent-engine/internal/notify"
	"github.com/jonathan/talent-engine/internal/telemetry"
	"go.uber.org/zap"
)

var tracer = telemetry.Tracer("talent-engine/talent")

// Notifier hands candidate emails to the delivery channel
type Notifier interface {
	SendJobInvitation(ctx context.Context, msg notify.InvitationMessage) error
	SendSourcedNotification(ctx context.Context, msg notify.SourcedMessage) error
}

// Auditor records security-relevant actions. Implementations must not fail the caller.
type Auditor interface {
	LogAuditEvent(ctx context.Context, event logging.AuditEvent)
}

// MetadataValidator checks a ledger entry's metadata for its interaction type
type MetadataValidator interface {
	Validate(kind string, metadata map[string]any) error
}

// Engine groups the engine's services around one store
type Engine struct {
	Ledger      *Ledger
	Invitations *InvitationService
	Sourcing    *SourcingService
	Analytics   *Analytics
	Pool        *Pool
}

// Option configures an Engine
type Option func(*deps)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(d *deps) { d.now = now }
}

// WithNotifier sets the notification channel. Without one, notifications are dropped.
func WithNotifier(n Notifier) Option {
	return func(d *deps) { d.notifier = n }
}

// WithAuditor sets the audit sink.
func WithAuditor(a Auditor) Option {
	return func(d *deps) { d.auditor = a }
}

type deps struct {
	store     Store
	validator MetadataValidator
	notifier  Notifier
	auditor   Auditor
	logger    *zap.Logger
	now       func() time.Time
}

// New builds an Engine.
func New(store Store, validator MetadataValidator, logger *zap.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &deps{
		store:     store,
		validator: validator,
		notifier:  discardNotifier{},
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}

	ledger := &Ledger{deps: d}
	invitations := &InvitationService{deps: d, ledger: ledger}
	return &Engine{
		Ledger:      ledger,
		Invitations: invitations,
		Sourcing:    &SourcingService{deps: d, ledger: ledger},
		Analytics:   &Analytics{deps: d},
		Pool:        &Pool{deps: d, ledger: ledger, invitations: invitations},
	}
}

func (d *deps) clock() time.Time {
	return d.now().UTC()
}

// loadPair checks the shared preconditions for inviting or sourcing a
// candidate to a job.
func (d *deps) loadPair(ctx context.Context, jobID, candidateID uuid.UUID) (*db.Job, *db.User, error) {
	job, err := d.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, nil, internal("failed to load job", err)
	}
	if job == nil {
		return nil, nil, notFound(ReasonJobNotFound, "job not found")
	}
	if !job.IsActive() {
		return nil, nil, invalidState(ReasonJobInactive, "job is not accepting candidates")
	}

	candidate, err := d.loadCandidate(ctx, candidateID)
	if err != nil {
		return nil, nil, err
	}
	return job, candidate, nil
}

func (d *deps) loadCandidate(ctx context.Context, candidateID uuid.UUID) (*db.User, error) {
	candidate, err := d.store.GetUser(ctx, candidateID)
	if err != nil {
		return nil, internal("failed to load candidate", err)
	}
	if candidate == nil {
		return nil, notFound(ReasonCandidateNotFound, "candidate not found")
	}
	if candidate.IsAdmin() {
		return nil, invalidState(ReasonCandidateIsAdmin, "admins cannot be added to the talent pool")
	}
	return candidate, nil
}

func (d *deps) audit(ctx context.Context, event logging.AuditEvent) {
	if d.auditor != nil {
		d.auditor.LogAuditEvent(ctx, event)
	}
}

// asEngineError passes engine errors through and wraps anything else as internal.
func asEngineError(message string, err error) error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return internal(message, err)
}

type discardNotifier struct{}

func (discardNotifier) SendJobInvitation(context.Context, notify.InvitationMessage) error { return nil }
func (discardNotifier) SendSourcedNotification(context.Context, notify.SourcedMessage) error {
	return nil
}
