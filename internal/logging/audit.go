package logging

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AuditEvent describes a security-relevant action
type AuditEvent struct {
	Action     string
	ActorID    uuid.UUID
	TargetType string
	TargetID   uuid.UUID
	Details    map[string]string
}

// Auditor writes audit events to a dedicated logger. It never fails the caller.
type Auditor struct {
	logger *zap.Logger
}

// NewAuditor returns an Auditor that logs under the "audit" name.
func NewAuditor(logger *zap.Logger) *Auditor {
	return &Auditor{logger: logger.Named("audit")}
}

// LogAuditEvent records the event.
func (a *Auditor) LogAuditEvent(_ context.Context, event AuditEvent) {
	if a == nil || a.logger == nil {
		return
	}
	fields := []zap.Field{
		zap.String("action", event.Action),
		zap.Stringer("actor_id", event.ActorID),
		zap.String("target_type", event.TargetType),
		zap.Stringer("target_id", event.TargetID),
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String(k, v))
	}
	a.logger.Info("audit event", fields...)
}
