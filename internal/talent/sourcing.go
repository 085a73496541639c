package talent

import (
	"context"
	"slices"

	"github.com/google/uuid"
	"github.com/jonathan/talent-engine/internal/db"
	"github.com/jonathan/talent-engine/internal/logging"
	"github.com/jonathan/talent-engine/internal/notify"
	"go.uber.org/zap"
)

// SourceInput is a recruiter's request to place a candidate straight into a job pipeline
type SourceInput struct {
	JobID         uuid.UUID
	CandidateID   uuid.UUID
	ActorID       uuid.UUID
	Notes         string
	InitialStatus string
}

// SourcingService creates recruiter-initiated applications
type SourcingService struct {
	*deps
	ledger *Ledger
}

// Source creates a sourced application. A pair can be sourced at most once;
// any existing application for the pair, however it was created, blocks it.
func (s *SourcingService) Source(ctx context.Context, in SourceInput) (*db.Application, error) {
	ctx, span := tracer.Start(ctx, "talent.Sourcing.Source")
	defer span.End()

	status := in.InitialStatus
	if status == "" {
		status = db.ApplicationApplied
	}
	if !slices.Contains(db.ApplicationStatuses, status) {
		return nil, invalidState(ReasonInvalidStatus, "unknown pipeline status: "+status)
	}

	job, candidate, err := s.loadPair(ctx, in.JobID, in.CandidateID)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	actorID := in.ActorID
	app := &db.Application{
		JobID:       job.ID,
		CandidateID: candidate.ID,
		Status:      status,
		SourceType:  db.SourceSourced,
		SourcedBy:   &actorID,
		SourcedAt:   &now,
		Notes:       in.Notes,
		AppliedAt:   now,
	}

	err = s.store.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.LockPair(ctx, job.ID, candidate.ID); err != nil {
			return err
		}
		exists, err := s.store.ApplicationExists(ctx, job.ID, candidate.ID)
		if err != nil {
			return err
		}
		if exists {
			return invalidState(ReasonApplicationExists, "candidate already has an application for this job")
		}
		if err := s.store.CreateApplication(ctx, app); err != nil {
			if db.IsUniqueViolation(err) {
				return invalidState(ReasonApplicationExists, "candidate already has an application for this job")
			}
			return err
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, asEngineError("failed to source candidate", err)
	}

	s.ledger.Record(ctx, Entry{
		ActorID:     in.ActorID,
		CandidateID: candidate.ID,
		JobID:       &job.ID,
		Type:        db.InteractionSourcedToJob,
		Notes:       in.Notes,
		Metadata: map[string]any{
			"application_id": app.ID.String(),
			"initial_status": status,
		},
	})

	if err := s.notifier.SendSourcedNotification(ctx, notify.SourcedMessage{
		ApplicationID:  app.ID,
		JobID:          job.ID,
		JobTitle:       job.Title,
		CandidateID:    candidate.ID,
		CandidateName:  candidate.Name,
		CandidateEmail: candidate.Email,
		Status:         status,
	}); err != nil {
		s.logger.Warn("failed to send sourced notification",
			zap.Stringer("application_id", app.ID),
			zap.Error(err))
	}

	s.audit(ctx, logging.AuditEvent{
		Action:     "candidate.source",
		ActorID:    in.ActorID,
		TargetType: "application",
		TargetID:   app.ID,
		Details: map[string]string{
			"job_id":       job.ID.String(),
			"candidate_id": candidate.ID.String(),
			"status":       status,
		},
	})
	return app, nil
}
