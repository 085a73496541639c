package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const jobColumns = `j.id, j.title, j.department, j.status, j.required_skills, j.experience_min,
	j.experience_max, j.location, j.is_remote, j.posted_at, j.created_at`

// GetJob retrieves a job by ID. Returns nil, nil when the job does not exist.
func (db *DB) GetJob(ctx context.Context, jobID uuid.UUID) (*Job, error) {
	var j Job
	err := db.conn(ctx).QueryRow(ctx,
		`SELECT `+jobColumns+` FROM jobs j WHERE j.id = $1`, jobID,
	).Scan(&j.ID, &j.Title, &j.Department, &j.Status, &j.RequiredSkills, &j.ExperienceMin,
		&j.ExperienceMax, &j.Location, &j.IsRemote, &j.PostedAt, &j.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return &j, nil
}

// ListActiveJobsForCandidate returns every active job, flagged when the candidate
// already has an application for it.
func (db *DB) ListActiveJobsForCandidate(ctx context.Context, candidateID uuid.UUID) ([]JobForCandidate, error) {
	rows, err := db.conn(ctx).Query(ctx,
		`SELECT `+jobColumns+`,
			EXISTS (SELECT 1 FROM applications a WHERE a.job_id = j.id AND a.candidate_id = $1)
		 FROM jobs j
		 WHERE j.status = $2
		 ORDER BY j.posted_at DESC`,
		candidateID, JobStatusActive,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list active jobs: %w", err)
	}
	defer rows.Close()

	var jobs []JobForCandidate
	for rows.Next() {
		var j JobForCandidate
		if err := rows.Scan(&j.ID, &j.Title, &j.Department, &j.Status, &j.RequiredSkills, &j.ExperienceMin,
			&j.ExperienceMax, &j.Location, &j.IsRemote, &j.PostedAt, &j.CreatedAt, &j.Applied); err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}
