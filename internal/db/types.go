package db

import (
	"time"

	"github.com/google/uuid"
)

// JobStatusActive is the only job status that accepts invitations and sourcing
const JobStatusActive = "Active"

// Job is an open requisition. The engine reads jobs but never writes them.
type Job struct {
	ID             uuid.UUID `json:"id"`
	Title          string    `json:"title"`
	Department     string    `json:"department,omitempty"`
	Status         string    `json:"status"`
	RequiredSkills []string  `json:"required_skills"`
	ExperienceMin  *int      `json:"experience_min,omitempty"`
	ExperienceMax  *int      `json:"experience_max,omitempty"`
	Location       string    `json:"location,omitempty"`
	IsRemote       bool      `json:"is_remote"`
	PostedAt       time.Time `json:"posted_at"`
	CreatedAt      time.Time `json:"created_at"`
}

// IsActive reports whether the job is open.
func (j *Job) IsActive() bool {
	return j.Status == JobStatusActive
}

// JobForCandidate is an active job annotated with whether the candidate already applied
type JobForCandidate struct {
	Job
	Applied bool `json:"applied"`
}

// Application source types
const (
	SourceDirect     = "direct"
	SourceSourced    = "sourced"
	SourceInvitation = "invitation"
)

// Pipeline statuses for applications
const (
	ApplicationApplied   = "applied"
	ApplicationScreening = "screening"
	ApplicationInterview = "interview"
	ApplicationOffer     = "offer"
	ApplicationHired     = "hired"
	ApplicationRejected  = "rejected"
)

// ApplicationStatuses lists every valid pipeline status
var ApplicationStatuses = []string{
	ApplicationApplied,
	ApplicationScreening,
	ApplicationInterview,
	ApplicationOffer,
	ApplicationHired,
	ApplicationRejected,
}

// Application is a pipeline entry for a (job, candidate) pair
type Application struct {
	ID          uuid.UUID  `json:"id"`
	JobID       uuid.UUID  `json:"job_id"`
	CandidateID uuid.UUID  `json:"candidate_id"`
	Status      string     `json:"status"`
	SourceType  string     `json:"source_type"`
	SourcedBy   *uuid.UUID `json:"sourced_by,omitempty"`
	SourcedAt   *time.Time `json:"sourced_at,omitempty"`
	Notes       string     `json:"notes,omitempty"`
	AppliedAt   time.Time  `json:"applied_at"`
	CreatedAt   time.Time  `json:"created_at"`
}
