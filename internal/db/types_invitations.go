package db

import (
	"time"

	"github.com/google/uuid"
)

// InvitationStatus is the lifecycle state of a job invitation
type InvitationStatus string

const (
	InvitationSent     InvitationStatus = "sent"
	InvitationViewed   InvitationStatus = "viewed"
	InvitationApplied  InvitationStatus = "applied"
	InvitationDeclined InvitationStatus = "declined"
	InvitationExpired  InvitationStatus = "expired"
)

// InvitationTTL is how long an invitation stays open after it is sent
const InvitationTTL = 30 * 24 * time.Hour

// IsOpen reports whether the status is non-terminal.
func (s InvitationStatus) IsOpen() bool {
	return s == InvitationSent || s == InvitationViewed
}

// Invitation is a tokenized, time-boxed offer for a candidate to apply to a job
type Invitation struct {
	ID          uuid.UUID        `json:"id"`
	JobID       uuid.UUID        `json:"job_id"`
	CandidateID uuid.UUID        `json:"candidate_id"`
	InvitedBy   uuid.UUID        `json:"invited_by"`
	Token       string           `json:"token,omitempty"`
	Message     string           `json:"message,omitempty"`
	Status      InvitationStatus `json:"status"`
	SentAt      time.Time        `json:"sent_at"`
	ViewedAt    *time.Time       `json:"viewed_at,omitempty"`
	RespondedAt *time.Time       `json:"responded_at,omitempty"`
	ExpiresAt   time.Time        `json:"expires_at"`
	Metadata    map[string]any   `json:"metadata,omitempty"`
}

// IsExpiredAt reports whether the deadline has passed at the given instant.
func (i *Invitation) IsExpiredAt(now time.Time) bool {
	return !now.Before(i.ExpiresAt)
}

// EffectiveStatus applies lazy expiry without writing it back.
func (i *Invitation) EffectiveStatus(now time.Time) InvitationStatus {
	if i.Status.IsOpen() && i.IsExpiredAt(now) {
		return InvitationExpired
	}
	return i.Status
}
