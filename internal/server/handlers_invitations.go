package server

import (
	"net/http"

	"github.com/jonathan/talent-engine/internal/server/middleware"
)

// AcceptRequest is the optional body of POST /invitations/{token}/accept
type AcceptRequest struct {
	CoverNote string `json:"coverNote" validate:"max=5000"`
}

// handleViewInvitation handles GET /invitations/{token}. Unusable tokens still
// return 200 with valid=false and a reason the page can render.
func (s *Server) handleViewInvitation(w http.ResponseWriter, r *http.Request) {
	result, err := s.engine.Invitations.View(r.Context(), r.PathValue("token"))
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, result)
}

// handleDeclineInvitation handles POST /invitations/{token}/decline
func (s *Server) handleDeclineInvitation(w http.ResponseWriter, r *http.Request) {
	inv, err := s.engine.Invitations.Decline(r.Context(), r.PathValue("token"))
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"status":       inv.Status,
		"responded_at": inv.RespondedAt,
	})
}

// handleAcceptInvitation handles POST /invitations/{token}/accept. The caller
// must be signed in as the invited candidate.
func (s *Server) handleAcceptInvitation(w http.ResponseWriter, r *http.Request) {
	var req AcceptRequest
	if err := decodeJSON(r, &req, s.validator, true); err != nil {
		s.errorResponse(w, r, err)
		return
	}
	session, _ := middleware.SessionFrom(r.Context())

	app, err := s.engine.Invitations.Accept(r.Context(), r.PathValue("token"), session.UserID, req.CoverNote)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, app)
}

// handleMyInvitations handles GET /me/invitations
func (s *Server) handleMyInvitations(w http.ResponseWriter, r *http.Request) {
	session, _ := middleware.SessionFrom(r.Context())

	invitations, err := s.engine.Invitations.ListForCandidate(r.Context(), session.UserID)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"invitations": invitations})
}
