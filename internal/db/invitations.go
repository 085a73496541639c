package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const invitationColumns = `id, job_id, candidate_id, invited_by, token, message, status,
	sent_at, viewed_at, responded_at, expires_at, metadata`

func scanInvitation(row pgx.Row, inv *Invitation) error {
	return row.Scan(&inv.ID, &inv.JobID, &inv.CandidateID, &inv.InvitedBy, &inv.Token, &inv.Message,
		&inv.Status, &inv.SentAt, &inv.ViewedAt, &inv.RespondedAt, &inv.ExpiresAt, &inv.Metadata)
}

// CreateInvitation inserts an invitation and fills in its ID. A second open
// invitation for the same pair fails with a unique violation.
func (db *DB) CreateInvitation(ctx context.Context, inv *Invitation) error {
	metadata := inv.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	err := db.conn(ctx).QueryRow(ctx,
		`INSERT INTO job_invitations (job_id, candidate_id, invited_by, token, message, status, sent_at, expires_at, metadata)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id`,
		inv.JobID, inv.CandidateID, inv.InvitedBy, inv.Token, inv.Message, inv.Status, inv.SentAt, inv.ExpiresAt, metadata,
	).Scan(&inv.ID)
	if err != nil {
		return fmt.Errorf("failed to create invitation: %w", err)
	}
	return nil
}

// GetInvitationByToken looks an invitation up by exact token match.
// Returns nil, nil when no invitation carries the token.
func (db *DB) GetInvitationByToken(ctx context.Context, token string) (*Invitation, error) {
	var inv Invitation
	err := scanInvitation(db.conn(ctx).QueryRow(ctx,
		`SELECT `+invitationColumns+` FROM job_invitations WHERE token = $1`, token), &inv)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get invitation: %w", err)
	}
	return &inv, nil
}

// ActiveInvitationExists reports whether the pair has an invitation in sent or viewed
func (db *DB) ActiveInvitationExists(ctx context.Context, jobID, candidateID uuid.UUID) (bool, error) {
	var exists bool
	err := db.conn(ctx).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM job_invitations
		 WHERE job_id = $1 AND candidate_id = $2 AND status IN ('sent', 'viewed'))`,
		jobID, candidateID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check invitation: %w", err)
	}
	return exists, nil
}

// TransitionInvitation moves an invitation to a new status only if its current
// status is one of from. It reports whether the row was updated, which lets
// concurrent callers agree on a single winner. viewed_at is stamped on the move
// to viewed, responded_at on the move to applied or declined.
func (db *DB) TransitionInvitation(ctx context.Context, id uuid.UUID, from []InvitationStatus, to InvitationStatus, at time.Time) (bool, error) {
	fromStrings := make([]string, len(from))
	for i, s := range from {
		fromStrings[i] = string(s)
	}
	result, err := db.conn(ctx).Exec(ctx,
		`UPDATE job_invitations SET
			status = $1,
			viewed_at = CASE WHEN $1 = 'viewed' THEN $2 ELSE viewed_at END,
			responded_at = CASE WHEN $1 IN ('applied', 'declined') THEN $2 ELSE responded_at END
		 WHERE id = $3 AND status = ANY($4)`,
		string(to), at, id, fromStrings,
	)
	if err != nil {
		return false, fmt.Errorf("failed to transition invitation: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

// ExpireStaleForPair marks the pair's open invitations past their deadline as expired
func (db *DB) ExpireStaleForPair(ctx context.Context, jobID, candidateID uuid.UUID, now time.Time) (int64, error) {
	result, err := db.conn(ctx).Exec(ctx,
		`UPDATE job_invitations SET status = 'expired'
		 WHERE job_id = $1 AND candidate_id = $2 AND status IN ('sent', 'viewed') AND expires_at <= $3`,
		jobID, candidateID, now,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to expire invitations: %w", err)
	}
	return result.RowsAffected(), nil
}

// ExpireStaleInvitations marks every open invitation past its deadline as expired
func (db *DB) ExpireStaleInvitations(ctx context.Context, now time.Time) (int64, error) {
	result, err := db.conn(ctx).Exec(ctx,
		`UPDATE job_invitations SET status = 'expired'
		 WHERE status IN ('sent', 'viewed') AND expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("failed to expire invitations: %w", err)
	}
	return result.RowsAffected(), nil
}

// ListInvitationsByCandidate returns a candidate's invitations, newest first.
// Tokens are not selected.
func (db *DB) ListInvitationsByCandidate(ctx context.Context, candidateID uuid.UUID) ([]Invitation, error) {
	rows, err := db.conn(ctx).Query(ctx,
		`SELECT `+invitationColumns+` FROM job_invitations
		 WHERE candidate_id = $1 ORDER BY sent_at DESC`, candidateID)
	if err != nil {
		return nil, fmt.Errorf("failed to list invitations: %w", err)
	}
	defer rows.Close()

	var invitations []Invitation
	for rows.Next() {
		var inv Invitation
		if err := scanInvitation(rows, &inv); err != nil {
			return nil, fmt.Errorf("failed to scan invitation: %w", err)
		}
		inv.Token = ""
		invitations = append(invitations, inv)
	}
	return invitations, rows.Err()
}

// InvitationStatusCounts groups invitations sent in [from, to) by effective status.
// Open invitations past their deadline count as expired even if no read has
// written that back yet.
func (db *DB) InvitationStatusCounts(ctx context.Context, from, to, now time.Time) (map[InvitationStatus]int, error) {
	rows, err := db.conn(ctx).Query(ctx,
		`SELECT CASE
				WHEN status IN ('sent', 'viewed') AND expires_at <= $3 THEN 'expired'
				ELSE status
			END AS effective, COUNT(*)
		 FROM job_invitations
		 WHERE sent_at >= $1 AND sent_at < $2
		 GROUP BY effective`,
		from, to, now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to count invitations: %w", err)
	}
	defer rows.Close()

	counts := make(map[InvitationStatus]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("failed to scan invitation count: %w", err)
		}
		counts[InvitationStatus(status)] = n
	}
	return counts, rows.Err()
}

// DailyInvitations counts invitations sent per UTC day in [from, to)
func (db *DB) DailyInvitations(ctx context.Context, from, to time.Time) (map[string]int, error) {
	return db.dailyCounts(ctx,
		`SELECT to_char(sent_at AT TIME ZONE 'UTC', 'YYYY-MM-DD'), COUNT(*)
		 FROM job_invitations
		 WHERE sent_at >= $1 AND sent_at < $2
		 GROUP BY 1`, from, to)
}
