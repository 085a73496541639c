package talent

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/talent-engine/internal/db"
)

// Store is the persistence the engine needs. *db.DB implements it.
type Store interface {
	// RunInTx runs fn in a transaction; store calls made with the ctx passed
	// to fn join it.
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
	// LockPair serializes writes for one (job, candidate) pair until the
	// surrounding transaction ends.
	LockPair(ctx context.Context, jobID, candidateID uuid.UUID) error

	GetUser(ctx context.Context, userID uuid.UUID) (*db.User, error)
	GetJob(ctx context.Context, jobID uuid.UUID) (*db.Job, error)
	ListActiveJobsForCandidate(ctx context.Context, candidateID uuid.UUID) ([]db.JobForCandidate, error)
	SearchCandidates(ctx context.Context, filters db.CandidateFilters) ([]db.CandidateWithStats, int, error)

	ApplicationExists(ctx context.Context, jobID, candidateID uuid.UUID) (bool, error)
	CreateApplication(ctx context.Context, app *db.Application) error

	CreateInvitation(ctx context.Context, inv *db.Invitation) error
	GetInvitationByToken(ctx context.Context, token string) (*db.Invitation, error)
	ActiveInvitationExists(ctx context.Context, jobID, candidateID uuid.UUID) (bool, error)
	TransitionInvitation(ctx context.Context, id uuid.UUID, from []db.InvitationStatus, to db.InvitationStatus, at time.Time) (bool, error)
	ExpireStaleForPair(ctx context.Context, jobID, candidateID uuid.UUID, now time.Time) (int64, error)
	ExpireStaleInvitations(ctx context.Context, now time.Time) (int64, error)
	ListInvitationsByCandidate(ctx context.Context, candidateID uuid.UUID) ([]db.Invitation, error)

	InsertInteraction(ctx context.Context, in *db.Interaction) error
	ListInteractionsByCandidate(ctx context.Context, candidateID uuid.UUID, limit int) ([]db.Interaction, error)
	ListInteractionsByActor(ctx context.Context, actorID uuid.UUID, from, to time.Time) ([]db.Interaction, error)

	AnalyticsStore
}

// AnalyticsStore holds the aggregate reads behind the analytics summary
type AnalyticsStore interface {
	CountCandidates(ctx context.Context, since time.Time) (total int, created int, err error)
	InvitationStatusCounts(ctx context.Context, from, to, now time.Time) (map[db.InvitationStatus]int, error)
	SourcedStatusCounts(ctx context.Context, from, to time.Time) (map[string]int, error)
	TopCandidateSkills(ctx context.Context, limit int, aliases map[string]string) ([]db.FacetCount, error)
	TopCandidateLocations(ctx context.Context, limit int) ([]db.FacetCount, error)
	DailyInvitations(ctx context.Context, from, to time.Time) (map[string]int, error)
	DailySourced(ctx context.Context, from, to time.Time) (map[string]int, error)
	DailyInteractions(ctx context.Context, from, to time.Time) (map[string]int, error)
}

var _ Store = (*db.DB)(nil)
