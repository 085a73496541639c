// Package notify hands candidate-facing emails off to a delivery channel.
//
// The engine publishes messages after its primary write commits; delivery is
// fire-and-forget from the engine's point of view. In nats mode a separate
// worker consumes the messages and sends mail over SMTP.
package notify

import (
	"time"

	"github.com/google/uuid"
)

// NATS subjects and the worker queue group
const (
	SubjectInvitation = "talent.notify.invitation"
	SubjectSourced    = "talent.notify.sourced"
	WorkerQueueGroup  = "talent-notify-worker"
)

// InvitationMessage asks for a job invitation email to be sent to a candidate
type InvitationMessage struct {
	InvitationID   uuid.UUID `json:"invitation_id"`
	JobID          uuid.UUID `json:"job_id"`
	JobTitle       string    `json:"job_title"`
	CandidateID    uuid.UUID `json:"candidate_id"`
	CandidateName  string    `json:"candidate_name"`
	CandidateEmail string    `json:"candidate_email"`
	InviterName    string    `json:"inviter_name,omitempty"`
	Token          string    `json:"token"`
	Message        string    `json:"message,omitempty"`
	TemplateID     string    `json:"template_id,omitempty"`
	Subject        string    `json:"subject,omitempty"`
	Content        string    `json:"content,omitempty"`
	ExpiresAt      time.Time `json:"expires_at"`
}

// SourcedMessage tells a candidate they were added to a job pipeline
type SourcedMessage struct {
	ApplicationID  uuid.UUID `json:"application_id"`
	JobID          uuid.UUID `json:"job_id"`
	JobTitle       string    `json:"job_title"`
	CandidateID    uuid.UUID `json:"candidate_id"`
	CandidateName  string    `json:"candidate_name"`
	CandidateEmail string    `json:"candidate_email"`
	Status         string    `json:"status"`
}
