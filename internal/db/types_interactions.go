package db

import (
	"time"

	"github.com/google/uuid"
)

// InteractionType is the closed set of recruiter/candidate touchpoints
type InteractionType string

const (
	InteractionViewedProfile      InteractionType = "viewed_profile"
	InteractionSentInvitation     InteractionType = "sent_invitation"
	InteractionViewedInvitation   InteractionType = "viewed_invitation"
	InteractionDeclinedInvitation InteractionType = "declined_invitation"
	InteractionAcceptedInvitation InteractionType = "accepted_invitation"
	InteractionSourcedToJob       InteractionType = "sourced_to_job"
	InteractionAddedNote          InteractionType = "added_note"
)

// InteractionTypes lists every valid interaction type
var InteractionTypes = []InteractionType{
	InteractionViewedProfile,
	InteractionSentInvitation,
	InteractionViewedInvitation,
	InteractionDeclinedInvitation,
	InteractionAcceptedInvitation,
	InteractionSourcedToJob,
	InteractionAddedNote,
}

// Valid reports whether t is a known interaction type.
func (t InteractionType) Valid() bool {
	for _, known := range InteractionTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Interaction is an immutable ledger row
type Interaction struct {
	ID          uuid.UUID       `json:"id"`
	AdminID     uuid.UUID       `json:"admin_id"`
	CandidateID uuid.UUID       `json:"candidate_id"`
	JobID       *uuid.UUID      `json:"job_id,omitempty"`
	Type        InteractionType `json:"interaction_type"`
	Notes       string          `json:"notes,omitempty"`
	Metadata    map[string]any  `json:"metadata,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// DayKeyFormat is the layout used for per-day aggregate keys
const DayKeyFormat = "2006-01-02"
