package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ApplicationExists reports whether the candidate has any application for the job
func (db *DB) ApplicationExists(ctx context.Context, jobID, candidateID uuid.UUID) (bool, error) {
	var exists bool
	err := db.conn(ctx).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM applications WHERE job_id = $1 AND candidate_id = $2)`,
		jobID, candidateID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check application: %w", err)
	}
	return exists, nil
}

// CreateApplication inserts an application and fills in its ID and created_at.
// A second application for the same pair fails with a unique violation.
func (db *DB) CreateApplication(ctx context.Context, app *Application) error {
	err := db.conn(ctx).QueryRow(ctx,
		`INSERT INTO applications (job_id, candidate_id, status, source_type, sourced_by, sourced_at, notes, applied_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at`,
		app.JobID, app.CandidateID, app.Status, app.SourceType, app.SourcedBy, app.SourcedAt, app.Notes, app.AppliedAt,
	).Scan(&app.ID, &app.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}
	return nil
}

// SourcedStatusCounts groups sourced applications with sourced_at in [from, to) by pipeline status
func (db *DB) SourcedStatusCounts(ctx context.Context, from, to time.Time) (map[string]int, error) {
	rows, err := db.conn(ctx).Query(ctx,
		`SELECT status, COUNT(*) FROM applications
		 WHERE source_type = $1 AND sourced_at >= $2 AND sourced_at < $3
		 GROUP BY status`,
		SourceSourced, from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to count sourced applications: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("failed to scan sourced count: %w", err)
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

// DailySourced counts sourced applications per UTC day in [from, to)
func (db *DB) DailySourced(ctx context.Context, from, to time.Time) (map[string]int, error) {
	return db.dailyCounts(ctx,
		`SELECT to_char(sourced_at AT TIME ZONE 'UTC', 'YYYY-MM-DD'), COUNT(*)
		 FROM applications
		 WHERE source_type = 'sourced' AND sourced_at >= $1 AND sourced_at < $2
		 GROUP BY 1`, from, to)
}

func (db *DB) dailyCounts(ctx context.Context, query string, from, to time.Time) (map[string]int, error) {
	rows, err := db.conn(ctx).Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to count per day: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var day string
		var n int
		if err := rows.Scan(&day, &n); err != nil {
			return nil, fmt.Errorf("failed to scan daily count: %w", err)
		}
		counts[day] = n
	}
	return counts, rows.Err()
}
