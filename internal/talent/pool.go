package talent

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	"github.com/jonathan/talent-engine/internal/db"
	"github.com/jonathan/talent-engine/internal/matching"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// PoolQuery filters and pages the talent pool
type PoolQuery struct {
	Search        string
	Skills        []string
	Location      string
	AvailableOnly bool
	Page          int // 1-indexed
	Limit         int
}

// Pagination describes one page of results
type Pagination struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	Total      int  `json:"total"`
	TotalPages int  `json:"totalPages"`
	HasMore    bool `json:"hasMore"`
}

// PoolPage is a page of candidates with their engagement stats
type PoolPage struct {
	Candidates []db.CandidateWithStats `json:"candidates"`
	Pagination Pagination              `json:"pagination"`
}

// CandidateProfile is a candidate with their invitations and recent history
type CandidateProfile struct {
	Candidate    *db.User         `json:"candidate"`
	Invitations  []db.Invitation  `json:"invitations"`
	Interactions []db.Interaction `json:"interactions"`
}

// Pool serves talent-pool listings, profiles and job recommendations
type Pool struct {
	*deps
	ledger      *Ledger
	invitations *InvitationService
}

// normalizePaging clamps page to >= 1 and limit to [1, maxPageSize].
func normalizePaging(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return page, limit
}

// Search lists candidates matching the query.
func (p *Pool) Search(ctx context.Context, q PoolQuery) (*PoolPage, error) {
	ctx, span := tracer.Start(ctx, "talent.Pool.Search")
	defer span.End()

	page, limit := normalizePaging(q.Page, q.Limit)

	skills := make([]string, 0, len(q.Skills))
	for _, s := range q.Skills {
		if s = strings.TrimSpace(s); s != "" {
			skills = append(skills, s)
		}
	}

	candidates, total, err := p.store.SearchCandidates(ctx, db.CandidateFilters{
		Search:        q.Search,
		Skills:        skills,
		Location:      q.Location,
		AvailableOnly: q.AvailableOnly,
		Limit:         limit,
		Offset:        (page - 1) * limit,
	})
	if err != nil {
		return nil, internal("failed to search talent pool", err)
	}
	if candidates == nil {
		candidates = []db.CandidateWithStats{}
	}

	totalPages := (total + limit - 1) / limit
	return &PoolPage{
		Candidates: candidates,
		Pagination: Pagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: totalPages,
			HasMore:    page < totalPages,
		},
	}, nil
}

// Profile loads a candidate for a recruiter and records the profile view.
func (p *Pool) Profile(ctx context.Context, actorID, candidateID uuid.UUID) (*CandidateProfile, error) {
	ctx, span := tracer.Start(ctx, "talent.Pool.Profile")
	defer span.End()

	candidate, err := p.loadCandidate(ctx, candidateID)
	if err != nil {
		return nil, err
	}
	invitations, err := p.invitations.ListForCandidate(ctx, candidateID)
	if err != nil {
		return nil, err
	}
	history, err := p.ledger.History(ctx, candidateID, defaultHistoryLimit)
	if err != nil {
		return nil, err
	}

	p.ledger.Record(ctx, Entry{
		ActorID:     actorID,
		CandidateID: candidateID,
		Type:        db.InteractionViewedProfile,
	})

	return &CandidateProfile{Candidate: candidate, Invitations: invitations, Interactions: history}, nil
}

// Recommend ranks every active job for the candidate.
func (p *Pool) Recommend(ctx context.Context, candidateID uuid.UUID) (*matching.Recommendations, error) {
	ctx, span := tracer.Start(ctx, "talent.Pool.Recommend")
	defer span.End()

	candidate, err := p.loadCandidate(ctx, candidateID)
	if err != nil {
		return nil, err
	}
	jobs, err := p.store.ListActiveJobsForCandidate(ctx, candidateID)
	if err != nil {
		return nil, internal("failed to load jobs", err)
	}

	var profile matching.Profile
	if err := copier.Copy(&profile, candidate); err != nil {
		return nil, internal("failed to build match profile", err)
	}

	candidates := make([]matching.Candidate, 0, len(jobs))
	for i := range jobs {
		var job matching.Job
		if err := copier.Copy(&job, &jobs[i].Job); err != nil {
			return nil, internal("failed to build match job", err)
		}
		candidates = append(candidates, matching.Candidate{Job: job, Applied: jobs[i].Applied})
	}

	recs := matching.RankJobs(profile, candidates)
	return &recs, nil
}
