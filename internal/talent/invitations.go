package talent

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/talent-engine/internal/db"
	"github.com/jonathan/talent-engine/internal/logging"
	"github.com/jonathan/talent-engine/internal/notify"
	"go.uber.org/zap"
)

const tokenBytes = 32

var openStatuses = []db.InvitationStatus{db.InvitationSent, db.InvitationViewed}

// CreateInvitationInput is a recruiter's request to invite a candidate to a job
type CreateInvitationInput struct {
	JobID       uuid.UUID
	CandidateID uuid.UUID
	InviterID   uuid.UUID
	Message     string
	TemplateID  string
	Subject     string
	Content     string
}

// ViewResult is the outcome of opening an invitation link
type ViewResult struct {
	Valid      bool           `json:"valid"`
	Reason     string         `json:"reason,omitempty"`
	Invitation *db.Invitation `json:"invitation,omitempty"`
	Job        *db.Job        `json:"job,omitempty"`
}

// InvitationService manages the invitation lifecycle:
// sent -> viewed -> applied | declined, with sent/viewed -> expired at the deadline.
type InvitationService struct {
	*deps
	ledger *Ledger
}

// newToken returns 256 random bits, base64url encoded.
func newToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Create issues a new invitation. All preconditions are checked before any
// write; the duplicate checks and the insert run under the pair lock.
func (s *InvitationService) Create(ctx context.Context, in CreateInvitationInput) (*db.Invitation, error) {
	ctx, span := tracer.Start(ctx, "talent.Invitations.Create")
	defer span.End()

	job, candidate, err := s.loadPair(ctx, in.JobID, in.CandidateID)
	if err != nil {
		return nil, err
	}

	token, err := newToken()
	if err != nil {
		return nil, internal("failed to create invitation", err)
	}

	now := s.clock()
	metadata := map[string]any{}
	if in.TemplateID != "" {
		metadata["template_id"] = in.TemplateID
	}
	if in.Subject != "" {
		metadata["subject"] = in.Subject
	}
	inv := &db.Invitation{
		JobID:       job.ID,
		CandidateID: candidate.ID,
		InvitedBy:   in.InviterID,
		Token:       token,
		Message:     in.Message,
		Status:      db.InvitationSent,
		SentAt:      now,
		ExpiresAt:   now.Add(db.InvitationTTL),
		Metadata:    metadata,
	}

	err = s.store.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.LockPair(ctx, job.ID, candidate.ID); err != nil {
			return err
		}
		hasApplication, err := s.store.ApplicationExists(ctx, job.ID, candidate.ID)
		if err != nil {
			return err
		}
		if hasApplication {
			return invalidState(ReasonApplicationExists, "candidate already has an application for this job")
		}
		if _, err := s.store.ExpireStaleForPair(ctx, job.ID, candidate.ID, now); err != nil {
			return err
		}
		active, err := s.store.ActiveInvitationExists(ctx, job.ID, candidate.ID)
		if err != nil {
			return err
		}
		if active {
			return invalidState(ReasonInvitationExists, "candidate already has an active invitation for this job")
		}
		if err := s.store.CreateInvitation(ctx, inv); err != nil {
			if db.IsUniqueViolation(err) {
				return invalidState(ReasonInvitationExists, "candidate already has an active invitation for this job")
			}
			return err
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, asEngineError("failed to create invitation", err)
	}

	entryMetadata := map[string]any{
		"invitation_id": inv.ID.String(),
		"expires_at":    inv.ExpiresAt.Format(time.RFC3339),
	}
	if in.TemplateID != "" {
		entryMetadata["template_id"] = in.TemplateID
	}
	s.ledger.Record(ctx, Entry{
		ActorID:     in.InviterID,
		CandidateID: candidate.ID,
		JobID:       &job.ID,
		Type:        db.InteractionSentInvitation,
		Notes:       in.Message,
		Metadata:    entryMetadata,
	})

	msg := notify.InvitationMessage{
		InvitationID:   inv.ID,
		JobID:          job.ID,
		JobTitle:       job.Title,
		CandidateID:    candidate.ID,
		CandidateName:  candidate.Name,
		CandidateEmail: candidate.Email,
		Token:          inv.Token,
		Message:        in.Message,
		TemplateID:     in.TemplateID,
		Subject:        in.Subject,
		Content:        in.Content,
		ExpiresAt:      inv.ExpiresAt,
	}
	if inviter, err := s.store.GetUser(ctx, in.InviterID); err == nil && inviter != nil {
		msg.InviterName = inviter.Name
	}
	if err := s.notifier.SendJobInvitation(ctx, msg); err != nil {
		s.logger.Warn("failed to send invitation email",
			zap.Stringer("invitation_id", inv.ID),
			zap.Error(err))
	}

	s.audit(ctx, logging.AuditEvent{
		Action:     "invitation.create",
		ActorID:    in.InviterID,
		TargetType: "invitation",
		TargetID:   inv.ID,
		Details: map[string]string{
			"job_id":       job.ID.String(),
			"candidate_id": candidate.ID.String(),
		},
	})

	s.logger.Info("invitation created",
		zap.Stringer("invitation_id", inv.ID),
		zap.Stringer("job_id", job.ID),
		zap.Stringer("candidate_id", candidate.ID))
	return inv, nil
}

// View resolves an invitation token for display. It is a command: the first
// view moves the invitation to viewed and records exactly one ledger entry,
// and a view past the deadline writes the expiry back.
//
// Invalid tokens are not errors; they yield Valid=false and a reason.
func (s *InvitationService) View(ctx context.Context, token string) (*ViewResult, error) {
	ctx, span := tracer.Start(ctx, "talent.Invitations.View")
	defer span.End()

	inv, err := s.store.GetInvitationByToken(ctx, token)
	if err != nil {
		return nil, internal("failed to load invitation", err)
	}
	if inv == nil {
		return &ViewResult{Reason: ReasonInvitationNotFound}, nil
	}

	now := s.clock()
	if reason, err := s.checkOpen(ctx, inv); err != nil {
		return nil, err
	} else if reason != "" {
		return &ViewResult{Reason: reason, Invitation: inv}, nil
	}

	job, err := s.store.GetJob(ctx, inv.JobID)
	if err != nil {
		return nil, internal("failed to load job", err)
	}
	if job == nil || !job.IsActive() {
		return &ViewResult{Reason: ReasonJobInactive, Invitation: inv, Job: job}, nil
	}

	if inv.Status == db.InvitationSent {
		won, err := s.store.TransitionInvitation(ctx, inv.ID, []db.InvitationStatus{db.InvitationSent}, db.InvitationViewed, now)
		if err != nil {
			return nil, internal("failed to mark invitation viewed", err)
		}
		if won {
			inv.Status = db.InvitationViewed
			inv.ViewedAt = &now
			s.ledger.Record(ctx, Entry{
				ActorID:     inv.InvitedBy,
				CandidateID: inv.CandidateID,
				JobID:       &inv.JobID,
				Type:        db.InteractionViewedInvitation,
				Metadata:    map[string]any{"invitation_id": inv.ID.String()},
			})
		} else {
			// A concurrent request changed the status first; report what it left behind.
			current, err := s.store.GetInvitationByToken(ctx, token)
			if err != nil {
				return nil, internal("failed to load invitation", err)
			}
			if current == nil {
				return &ViewResult{Reason: ReasonInvitationNotFound}, nil
			}
			inv = current
			if inv.Status != db.InvitationViewed {
				return &ViewResult{Reason: string(inv.EffectiveStatus(now)), Invitation: inv}, nil
			}
		}
	}

	return &ViewResult{Valid: true, Invitation: inv, Job: job}, nil
}

// checkOpen returns a non-empty reason when the invitation can no longer be
// acted on. Applied and declined are sticky and win over the deadline; an open
// invitation past its deadline is expired on the spot.
func (s *InvitationService) checkOpen(ctx context.Context, inv *db.Invitation) (string, error) {
	switch inv.Status {
	case db.InvitationApplied, db.InvitationDeclined:
		return string(inv.Status), nil
	case db.InvitationExpired:
		return ReasonExpired, nil
	}
	now := s.clock()
	if inv.IsExpiredAt(now) {
		if _, err := s.store.TransitionInvitation(ctx, inv.ID, openStatuses, db.InvitationExpired, now); err != nil {
			return "", internal("failed to expire invitation", err)
		}
		inv.Status = db.InvitationExpired
		return ReasonExpired, nil
	}
	return "", nil
}

// responseError maps a checkOpen reason to the error returned by Decline and Accept.
func responseError(reason string) error {
	if reason == ReasonExpired {
		return newError(KindExpired, ReasonExpired, "invitation has expired", nil)
	}
	return newError(KindAlreadyActioned, ReasonAlreadyActioned, "invitation was already "+reason, nil)
}

// Decline records the candidate turning the invitation down.
func (s *InvitationService) Decline(ctx context.Context, token string) (*db.Invitation, error) {
	ctx, span := tracer.Start(ctx, "talent.Invitations.Decline")
	defer span.End()

	inv, err := s.store.GetInvitationByToken(ctx, token)
	if err != nil {
		return nil, internal("failed to load invitation", err)
	}
	if inv == nil {
		return nil, notFound(ReasonInvitationNotFound, "invitation not found")
	}
	if reason, err := s.checkOpen(ctx, inv); err != nil {
		return nil, err
	} else if reason != "" {
		return nil, responseError(reason)
	}

	now := s.clock()
	won, err := s.store.TransitionInvitation(ctx, inv.ID, openStatuses, db.InvitationDeclined, now)
	if err != nil {
		return nil, internal("failed to decline invitation", err)
	}
	if !won {
		return nil, s.lostRace(ctx, token)
	}
	inv.Status = db.InvitationDeclined
	inv.RespondedAt = &now

	s.ledger.Record(ctx, Entry{
		ActorID:     inv.InvitedBy,
		CandidateID: inv.CandidateID,
		JobID:       &inv.JobID,
		Type:        db.InteractionDeclinedInvitation,
		Metadata:    map[string]any{"invitation_id": inv.ID.String()},
	})
	s.audit(ctx, logging.AuditEvent{
		Action:     "invitation.decline",
		ActorID:    inv.CandidateID,
		TargetType: "invitation",
		TargetID:   inv.ID,
	})
	return inv, nil
}

// lostRace builds the error for a conditional transition that matched no row
// because another request moved the invitation first.
func (s *InvitationService) lostRace(ctx context.Context, token string) error {
	current, err := s.store.GetInvitationByToken(ctx, token)
	if err != nil {
		return internal("failed to load invitation", err)
	}
	if current == nil {
		return notFound(ReasonInvitationNotFound, "invitation not found")
	}
	status := current.EffectiveStatus(s.clock())
	if status == db.InvitationExpired {
		return responseError(ReasonExpired)
	}
	return responseError(string(status))
}

// Accept applies to the job through the invitation on behalf of the invitee.
// The application insert and the move to applied commit together.
func (s *InvitationService) Accept(ctx context.Context, token string, candidateID uuid.UUID, coverNote string) (*db.Application, error) {
	ctx, span := tracer.Start(ctx, "talent.Invitations.Accept")
	defer span.End()

	inv, err := s.store.GetInvitationByToken(ctx, token)
	if err != nil {
		return nil, internal("failed to load invitation", err)
	}
	if inv == nil {
		return nil, notFound(ReasonInvitationNotFound, "invitation not found")
	}
	if inv.CandidateID != candidateID {
		return nil, newError(KindForbidden, ReasonNotInvitee, "invitation belongs to another candidate", nil)
	}
	if reason, err := s.checkOpen(ctx, inv); err != nil {
		return nil, err
	} else if reason != "" {
		return nil, responseError(reason)
	}

	job, err := s.store.GetJob(ctx, inv.JobID)
	if err != nil {
		return nil, internal("failed to load job", err)
	}
	if job == nil || !job.IsActive() {
		return nil, invalidState(ReasonJobInactive, "job is not accepting candidates")
	}

	now := s.clock()
	app := &db.Application{
		JobID:       inv.JobID,
		CandidateID: inv.CandidateID,
		Status:      db.ApplicationApplied,
		SourceType:  db.SourceInvitation,
		Notes:       coverNote,
		AppliedAt:   now,
	}
	err = s.store.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.LockPair(ctx, inv.JobID, inv.CandidateID); err != nil {
			return err
		}
		exists, err := s.store.ApplicationExists(ctx, inv.JobID, inv.CandidateID)
		if err != nil {
			return err
		}
		if exists {
			return invalidState(ReasonApplicationExists, "candidate already has an application for this job")
		}
		won, err := s.store.TransitionInvitation(ctx, inv.ID, openStatuses, db.InvitationApplied, now)
		if err != nil {
			return err
		}
		if !won {
			return s.lostRace(ctx, token)
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
		return nil, asEngineError("failed to accept invitation", err)
	}

	s.ledger.Record(ctx, Entry{
		ActorID:     inv.InvitedBy,
		CandidateID: inv.CandidateID,
		JobID:       &inv.JobID,
		Type:        db.InteractionAcceptedInvitation,
		Metadata: map[string]any{
			"invitation_id":  inv.ID.String(),
			"application_id": app.ID.String(),
		},
	})
	s.audit(ctx, logging.AuditEvent{
		Action:     "invitation.accept",
		ActorID:    candidateID,
		TargetType: "application",
		TargetID:   app.ID,
		Details:    map[string]string{"invitation_id": inv.ID.String()},
	})
	return app, nil
}

// ExpireStale marks every open invitation past its deadline as expired. Reads
// already treat such invitations as expired; this only keeps stored rows fresh.
func (s *InvitationService) ExpireStale(ctx context.Context) (int64, error) {
	ctx, span := tracer.Start(ctx, "talent.Invitations.ExpireStale")
	defer span.End()

	n, err := s.store.ExpireStaleInvitations(ctx, s.clock())
	if err != nil {
		return 0, internal("failed to expire invitations", err)
	}
	if n > 0 {
		s.logger.Info("expired stale invitations", zap.Int64("count", n))
	}
	return n, nil
}

// ListForCandidate returns the candidate's invitations with expiry applied
// to the returned status. Nothing is written.
func (s *InvitationService) ListForCandidate(ctx context.Context, candidateID uuid.UUID) ([]db.Invitation, error) {
	invitations, err := s.store.ListInvitationsByCandidate(ctx, candidateID)
	if err != nil {
		return nil, internal("failed to list invitations", err)
	}
	now := s.clock()
	for i := range invitations {
		invitations[i].Status = invitations[i].EffectiveStatus(now)
		invitations[i].Token = ""
	}
	if invitations == nil {
		invitations = []db.Invitation{}
	}
	return invitations, nil
}
