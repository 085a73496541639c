package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const interactionColumns = `id, admin_id, candidate_id, job_id, interaction_type, notes, metadata, created_at`

// InsertInteraction appends a ledger row. The server clock sets created_at.
// There is deliberately no update or delete counterpart.
func (db *DB) InsertInteraction(ctx context.Context, in *Interaction) error {
	metadata := in.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	err := db.conn(ctx).QueryRow(ctx,
		`INSERT INTO talent_pool_interactions (admin_id, candidate_id, job_id, interaction_type, notes, metadata)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at`,
		in.AdminID, in.CandidateID, in.JobID, string(in.Type), in.Notes, metadata,
	).Scan(&in.ID, &in.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert interaction: %w", err)
	}
	return nil
}

// ListInteractionsByCandidate returns a candidate's history, newest first
func (db *DB) ListInteractionsByCandidate(ctx context.Context, candidateID uuid.UUID, limit int) ([]Interaction, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.conn(ctx).Query(ctx,
		`SELECT `+interactionColumns+` FROM talent_pool_interactions
		 WHERE candidate_id = $1 ORDER BY created_at DESC LIMIT $2`,
		candidateID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list interactions: %w", err)
	}
	return collectInteractions(rows)
}

// ListInteractionsByActor returns an actor's interactions in [from, to), oldest first
func (db *DB) ListInteractionsByActor(ctx context.Context, actorID uuid.UUID, from, to time.Time) ([]Interaction, error) {
	rows, err := db.conn(ctx).Query(ctx,
		`SELECT `+interactionColumns+` FROM talent_pool_interactions
		 WHERE admin_id = $1 AND created_at >= $2 AND created_at < $3
		 ORDER BY created_at ASC`,
		actorID, from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list interactions: %w", err)
	}
	return collectInteractions(rows)
}

// DailyInteractions counts ledger rows per UTC day in [from, to)
func (db *DB) DailyInteractions(ctx context.Context, from, to time.Time) (map[string]int, error) {
	return db.dailyCounts(ctx,
		`SELECT to_char(created_at AT TIME ZONE 'UTC', 'YYYY-MM-DD'), COUNT(*)
		 FROM talent_pool_interactions
		 WHERE created_at >= $1 AND created_at < $2
		 GROUP BY 1`, from, to)
}

func collectInteractions(rows pgx.Rows) ([]Interaction, error) {
	defer rows.Close()

	var interactions []Interaction
	for rows.Next() {
		var in Interaction
		var kind string
		if err := rows.Scan(&in.ID, &in.AdminID, &in.CandidateID, &in.JobID, &kind, &in.Notes, &in.Metadata, &in.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan interaction: %w", err)
		}
		in.Type = InteractionType(kind)
		interactions = append(interactions, in)
	}
	return interactions, rows.Err()
}
