package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	"github.com/jonathan/talent-engine/internal/db"
	"github.com/jonathan/talent-engine/internal/server/middleware"
	"github.com/jonathan/talent-engine/internal/talent"
)

// InviteRequest is the body of POST /talent-pool/{candidateId}/invite
type InviteRequest struct {
	JobID      string `json:"jobId" validate:"required,uuid"`
	Message    string `json:"message" validate:"max=2000"`
	TemplateID string `json:"templateId" validate:"max=100"`
	Subject    string `json:"subject" validate:"max=200"`
	Content    string `json:"content" validate:"max=10000"`
}

// SourceRequest is the body of POST /talent-pool/{candidateId}/source
type SourceRequest struct {
	JobID         string `json:"jobId" validate:"required,uuid"`
	Notes         string `json:"notes" validate:"max=5000"`
	InitialStatus string `json:"initialStatus" validate:"omitempty,max=50"`
}

// NoteRequest is the body of POST /talent-pool/{candidateId}/notes
type NoteRequest struct {
	Notes string  `json:"notes" validate:"required,max=5000"`
	JobID *string `json:"jobId" validate:"omitempty,uuid"`
}

// InvitationResponse is an invitation as returned to recruiters
type InvitationResponse struct {
	ID          uuid.UUID           `json:"id"`
	JobID       uuid.UUID           `json:"job_id"`
	CandidateID uuid.UUID           `json:"candidate_id"`
	InvitedBy   uuid.UUID           `json:"invited_by"`
	Token       string              `json:"token"`
	Message     string              `json:"message,omitempty"`
	Status      db.InvitationStatus `json:"status"`
	SentAt      time.Time           `json:"sent_at"`
	ExpiresAt   time.Time           `json:"expires_at"`
}

// handleListPool handles GET /talent-pool
func (s *Server) handleListPool(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := talent.PoolQuery{
		Search:        q.Get("search"),
		Location:      q.Get("location"),
		AvailableOnly: q.Get("available") == "true",
		Page:          queryInt(r, "page"),
		Limit:         queryInt(r, "limit"),
	}
	for _, skill := range strings.Split(q.Get("skills"), ",") {
		if skill = strings.TrimSpace(skill); skill != "" {
			query.Skills = append(query.Skills, skill)
		}
	}

	page, err := s.engine.Pool.Search(r.Context(), query)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, page)
}

// handleGetCandidate handles GET /talent-pool/{candidateId}
func (s *Server) handleGetCandidate(w http.ResponseWriter, r *http.Request) {
	candidateID, ok := s.candidateParam(w, r)
	if !ok {
		return
	}
	session, _ := middleware.SessionFrom(r.Context())

	profile, err := s.engine.Pool.Profile(r.Context(), session.UserID, candidateID)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, profile)
}

// handleCandidateInteractions handles GET /talent-pool/{candidateId}/interactions
func (s *Server) handleCandidateInteractions(w http.ResponseWriter, r *http.Request) {
	candidateID, ok := s.candidateParam(w, r)
	if !ok {
		return
	}

	history, err := s.engine.Ledger.History(r.Context(), candidateID, queryInt(r, "limit"))
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"interactions": history})
}

// handleRecommendedJobs handles GET /talent-pool/{candidateId}/recommended-jobs
func (s *Server) handleRecommendedJobs(w http.ResponseWriter, r *http.Request) {
	candidateID, ok := s.candidateParam(w, r)
	if !ok {
		return
	}

	recs, err := s.engine.Pool.Recommend(r.Context(), candidateID)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, recs)
}

// handleInvite handles POST /talent-pool/{candidateId}/invite
func (s *Server) handleInvite(w http.ResponseWriter, r *http.Request) {
	candidateID, ok := s.candidateParam(w, r)
	if !ok {
		return
	}
	var req InviteRequest
	if err := decodeJSON(r, &req, s.validator, false); err != nil {
		s.errorResponse(w, r, err)
		return
	}
	session, _ := middleware.SessionFrom(r.Context())

	inv, err := s.engine.Invitations.Create(r.Context(), talent.CreateInvitationInput{
		JobID:       uuid.MustParse(req.JobID),
		CandidateID: candidateID,
		InviterID:   session.UserID,
		Message:     req.Message,
		TemplateID:  req.TemplateID,
		Subject:     req.Subject,
		Content:     req.Content,
	})
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}

	var resp InvitationResponse
	if err := copier.Copy(&resp, inv); err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, resp)
}

// handleSource handles POST /talent-pool/{candidateId}/source
func (s *Server) handleSource(w http.ResponseWriter, r *http.Request) {
	candidateID, ok := s.candidateParam(w, r)
	if !ok {
		return
	}
	var req SourceRequest
	if err := decodeJSON(r, &req, s.validator, false); err != nil {
		s.errorResponse(w, r, err)
		return
	}
	session, _ := middleware.SessionFrom(r.Context())

	app, err := s.engine.Sourcing.Source(r.Context(), talent.SourceInput{
		JobID:         uuid.MustParse(req.JobID),
		CandidateID:   candidateID,
		ActorID:       session.UserID,
		Notes:         req.Notes,
		InitialStatus: req.InitialStatus,
	})
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, app)
}

// handleAddNote handles POST /talent-pool/{candidateId}/notes
func (s *Server) handleAddNote(w http.ResponseWriter, r *http.Request) {
	candidateID, ok := s.candidateParam(w, r)
	if !ok {
		return
	}
	var req NoteRequest
	if err := decodeJSON(r, &req, s.validator, false); err != nil {
		s.errorResponse(w, r, err)
		return
	}
	var jobID *uuid.UUID
	if req.JobID != nil {
		id := uuid.MustParse(*req.JobID)
		jobID = &id
	}
	session, _ := middleware.SessionFrom(r.Context())

	entry, err := s.engine.Ledger.AddNote(r.Context(), session.UserID, candidateID, jobID, req.Notes)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, entry)
}

// handleAnalytics handles GET /talent-pool/analytics?range=7d|30d|90d|1y
func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	summary, err := s.engine.Analytics.Summarize(r.Context(), r.URL.Query().Get("range"))
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, summary)
}

// handleActivity handles GET /talent-pool/activity, the caller's own activity
func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	session, _ := middleware.SessionFrom(r.Context())

	activity, err := s.engine.Analytics.Productivity(r.Context(), session.UserID, r.URL.Query().Get("range"))
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, activity)
}

// candidateParam parses the candidateId path value, writing a 400 on failure.
func (s *Server) candidateParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("candidateId"))
	if err != nil {
		s.errorResponse(w, r, &ErrValidation{Field: "candidateId", Message: "invalid candidate ID"})
		return uuid.Nil, false
	}
	return id, true
}

// queryInt reads an integer query parameter; missing or malformed values are 0.
func queryInt(r *http.Request, key string) int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return 0
	}
	return n
}
