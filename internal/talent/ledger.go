package talent

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/talent-engine/internal/db"
	"go.uber.org/zap"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

// Entry is a ledger append request. The timestamp comes from the store.
type Entry struct {
	ActorID     uuid.UUID
	CandidateID uuid.UUID
	JobID       *uuid.UUID
	Type        db.InteractionType
	Notes       string
	Metadata    map[string]any
}

// Ledger is the append-only record of recruiter/candidate touchpoints
type Ledger struct {
	*deps
}

// Append validates and persists an entry.
func (l *Ledger) Append(ctx context.Context, e Entry) (*db.Interaction, error) {
	ctx, span := tracer.Start(ctx, "talent.Ledger.Append")
	defer span.End()

	if !e.Type.Valid() {
		return nil, invalidState(ReasonInvalidInteraction, "unknown interaction type: "+string(e.Type))
	}
	if l.validator != nil {
		if err := l.validator.Validate(string(e.Type), e.Metadata); err != nil {
			return nil, newError(KindInvalidState, ReasonInvalidInteraction, "invalid interaction metadata", err)
		}
	}

	in := &db.Interaction{
		AdminID:     e.ActorID,
		CandidateID: e.CandidateID,
		JobID:       e.JobID,
		Type:        e.Type,
		Notes:       e.Notes,
		Metadata:    e.Metadata,
	}
	if err := l.store.InsertInteraction(ctx, in); err != nil {
		span.RecordError(err)
		return nil, internal("failed to record interaction", err)
	}
	return in, nil
}

// Record appends an entry on behalf of another operation whose primary write
// has already committed. Failures are logged and swallowed.
func (l *Ledger) Record(ctx context.Context, e Entry) {
	if _, err := l.Append(ctx, e); err != nil {
		l.logger.Error("failed to append ledger entry",
			zap.String("interaction_type", string(e.Type)),
			zap.Stringer("actor_id", e.ActorID),
			zap.Stringer("candidate_id", e.CandidateID),
			zap.Error(err))
	}
}

// History returns a candidate's entries, newest first.
func (l *Ledger) History(ctx context.Context, candidateID uuid.UUID, limit int) ([]db.Interaction, error) {
	switch {
	case limit <= 0:
		limit = defaultHistoryLimit
	case limit > maxHistoryLimit:
		limit = maxHistoryLimit
	}
	interactions, err := l.store.ListInteractionsByCandidate(ctx, candidateID, limit)
	if err != nil {
		return nil, internal("failed to load interaction history", err)
	}
	if interactions == nil {
		interactions = []db.Interaction{}
	}
	return interactions, nil
}

// ByActor returns the actor's entries in [from, to), oldest first.
func (l *Ledger) ByActor(ctx context.Context, actorID uuid.UUID, from, to time.Time) ([]db.Interaction, error) {
	interactions, err := l.store.ListInteractionsByActor(ctx, actorID, from, to)
	if err != nil {
		return nil, internal("failed to load interactions", err)
	}
	return interactions, nil
}

// AddNote attaches a free-text recruiter note to a candidate. Unlike Record,
// the append is the operation itself so failures are returned.
func (l *Ledger) AddNote(ctx context.Context, actorID, candidateID uuid.UUID, jobID *uuid.UUID, notes string) (*db.Interaction, error) {
	notes = strings.TrimSpace(notes)
	if notes == "" {
		return nil, invalidState(ReasonInvalidInteraction, "note cannot be empty")
	}
	if _, err := l.loadCandidate(ctx, candidateID); err != nil {
		return nil, err
	}
	if jobID != nil {
		job, err := l.store.GetJob(ctx, *jobID)
		if err != nil {
			return nil, internal("failed to load job", err)
		}
		if job == nil {
			return nil, notFound(ReasonJobNotFound, "job not found")
		}
	}

	return l.Append(ctx, Entry{
		ActorID:     actorID,
		CandidateID: candidateID,
		JobID:       jobID,
		Type:        db.InteractionAddedNote,
		Notes:       notes,
	})
}
