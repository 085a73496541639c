package db

import (
	"time"

	"github.com/google/uuid"
)

// Role values stored in users.role
const (
	RoleCandidate = "candidate"
	RoleAdmin     = "admin"
)

// User represents an account. Candidates and recruiters share the table;
// any user whose role is not admin is part of the talent pool.
type User struct {
	ID               uuid.UUID  `json:"id"`
	Name             string     `json:"name"`
	Email            string     `json:"email"`
	Role             string     `json:"role"`
	PasswordHash     string     `json:"-"` // Never serialize to JSON
	Premium          bool       `json:"premium"`
	Skills           []string   `json:"skills"`
	YearsExperience  int        `json:"years_experience"`
	Location         string     `json:"location,omitempty"`
	CurrentTitle     string     `json:"current_title,omitempty"`
	CurrentCompany   string     `json:"current_company,omitempty"`
	IsAvailable      bool       `json:"is_available"`
	OpenToRemote     bool       `json:"open_to_remote"`
	ProfileUpdatedAt *time.Time `json:"profile_updated_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

// IsAdmin reports whether the user is a recruiter/admin account.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// CandidateFilters holds optional filters for searching the talent pool
type CandidateFilters struct {
	Search        string
	Skills        []string
	Location      string
	AvailableOnly bool
	Limit         int
	Offset        int
}

// CandidateStats summarizes engagement with one candidate
type CandidateStats struct {
	InvitationsSent   int        `json:"invitations_sent"`
	ActiveInvitations int        `json:"active_invitations"`
	Applications      int        `json:"applications"`
	Interactions      int        `json:"interactions"`
	LastInteractionAt *time.Time `json:"last_interaction_at,omitempty"`
}

// CandidateWithStats is a search result row
type CandidateWithStats struct {
	User
	Stats CandidateStats `json:"stats"`
}

// FacetCount is a value with its frequency
type FacetCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}
