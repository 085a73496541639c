package db

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const userColumns = `id, name, email, role, password_hash, premium, skills, years_experience,
	location, current_title, current_company, is_available, open_to_remote,
	profile_updated_at, created_at`

func scanUser(row pgx.Row, u *User) error {
	return row.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.PasswordHash, &u.Premium, &u.Skills,
		&u.YearsExperience, &u.Location, &u.CurrentTitle, &u.CurrentCompany, &u.IsAvailable,
		&u.OpenToRemote, &u.ProfileUpdatedAt, &u.CreatedAt)
}

// GetUser retrieves a user by ID. Returns nil, nil when the user does not exist.
func (db *DB) GetUser(ctx context.Context, userID uuid.UUID) (*User, error) {
	var u User
	err := scanUser(db.conn(ctx).QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, userID), &u)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

// GetUserByEmail retrieves a user by email (case-insensitive)
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	var u User
	err := scanUser(db.conn(ctx).QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email), &u)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return &u, nil
}

// SetPassword stores a password hash for a user
func (db *DB) SetPassword(ctx context.Context, userID uuid.UUID, passwordHash string) error {
	result, err := db.conn(ctx).Exec(ctx,
		`UPDATE users SET password_hash = $1 WHERE id = $2`, passwordHash, userID)
	if err != nil {
		return fmt.Errorf("failed to set password: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("user not found: %s", userID)
	}
	return nil
}

// SearchCandidates lists talent-pool members matching the filters with per-candidate
// engagement stats. It also returns the total number of matches ignoring paging.
func (db *DB) SearchCandidates(ctx context.Context, filters CandidateFilters) ([]CandidateWithStats, int, error) {
	if filters.Limit == 0 {
		filters.Limit = 20
	}

	where := ` WHERE u.role <> 'admin'`
	args := []any{}
	argNum := 1

	if s := strings.TrimSpace(filters.Search); s != "" {
		where += fmt.Sprintf(" AND (u.name ILIKE $%d OR u.email ILIKE $%d OR u.current_title ILIKE $%d)", argNum, argNum, argNum)
		args = append(args, "%"+s+"%")
		argNum++
	}
	if len(filters.Skills) > 0 {
		// Skills are matched case-insensitively; the candidate must have all of them.
		where += fmt.Sprintf(" AND (SELECT array_agg(lower(s)) FROM unnest(u.skills) s) @> $%d", argNum)
		lowered := make([]string, 0, len(filters.Skills))
		for _, skill := range filters.Skills {
			lowered = append(lowered, strings.ToLower(skill))
		}
		args = append(args, lowered)
		argNum++
	}
	if l := strings.TrimSpace(filters.Location); l != "" {
		where += fmt.Sprintf(" AND u.location ILIKE $%d", argNum)
		args = append(args, "%"+l+"%")
		argNum++
	}
	if filters.AvailableOnly {
		where += " AND u.is_available"
	}

	var total int
	if err := db.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM users u`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count candidates: %w", err)
	}

	query := `SELECT u.id, u.name, u.email, u.role, u.password_hash, u.premium, u.skills, u.years_experience,
			u.location, u.current_title, u.current_company, u.is_available, u.open_to_remote,
			u.profile_updated_at, u.created_at,
			(SELECT COUNT(*) FROM job_invitations i WHERE i.candidate_id = u.id),
			(SELECT COUNT(*) FROM job_invitations i WHERE i.candidate_id = u.id
				AND i.status IN ('sent', 'viewed') AND i.expires_at > NOW()),
			(SELECT COUNT(*) FROM applications a WHERE a.candidate_id = u.id),
			(SELECT COUNT(*) FROM talent_pool_interactions t WHERE t.candidate_id = u.id),
			(SELECT MAX(t.created_at) FROM talent_pool_interactions t WHERE t.candidate_id = u.id)
		FROM users u` + where +
		fmt.Sprintf(" ORDER BY u.profile_updated_at DESC NULLS LAST, u.created_at DESC LIMIT $%d OFFSET $%d", argNum, argNum+1)
	args = append(args, filters.Limit, filters.Offset)

	rows, err := db.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to search candidates: %w", err)
	}
	defer rows.Close()

	var results []CandidateWithStats
	for rows.Next() {
		var c CandidateWithStats
		u := &c.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.PasswordHash, &u.Premium, &u.Skills,
			&u.YearsExperience, &u.Location, &u.CurrentTitle, &u.CurrentCompany, &u.IsAvailable,
			&u.OpenToRemote, &u.ProfileUpdatedAt, &u.CreatedAt,
			&c.Stats.InvitationsSent, &c.Stats.ActiveInvitations, &c.Stats.Applications,
			&c.Stats.Interactions, &c.Stats.LastInteractionAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan candidate: %w", err)
		}
		results = append(results, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate candidates: %w", err)
	}
	return results, total, nil
}

// CountCandidates returns the pool size and how many candidates joined since the given instant
func (db *DB) CountCandidates(ctx context.Context, since time.Time) (total int, created int, err error) {
	err = db.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*), COUNT(*) FILTER (WHERE created_at >= $1)
		 FROM users WHERE role <> 'admin'`, since,
	).Scan(&total, &created)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count candidates: %w", err)
	}
	return total, created, nil
}

// TopCandidateSkills returns the most frequent skills across the whole pool.
// Skills are compared case- and whitespace-insensitively with variants folded
// through aliases (variant -> canonical), and each candidate counts once per
// skill. The label is the most common spelling in the group.
func (db *DB) TopCandidateSkills(ctx context.Context, limit int, aliases map[string]string) ([]FacetCount, error) {
	variants := make([]string, 0, len(aliases))
	for variant := range aliases {
		variants = append(variants, variant)
	}
	sort.Strings(variants)
	canonical := make([]string, 0, len(variants))
	for _, variant := range variants {
		canonical = append(canonical, aliases[variant])
	}

	return db.facetCounts(ctx,
		`SELECT mode() WITHIN GROUP (ORDER BY sk.label) AS value, COUNT(DISTINCT u.id) AS n
		 FROM users u
		 CROSS JOIN LATERAL unnest(u.skills) AS raw(s)
		 CROSS JOIN LATERAL (
			SELECT btrim(raw.s) AS label,
				regexp_replace(lower(btrim(raw.s)), '\s+', ' ', 'g') AS norm
		 ) sk
		 LEFT JOIN unnest($2::text[], $3::text[]) AS a(variant, canonical) ON a.variant = sk.norm
		 WHERE u.role <> 'admin' AND sk.norm <> ''
		 GROUP BY COALESCE(a.canonical, sk.norm)
		 ORDER BY n DESC, value ASC LIMIT $1`, limit, variants, canonical)
}

// TopCandidateLocations returns the most frequent locations across the whole
// pool, compared case-insensitively.
func (db *DB) TopCandidateLocations(ctx context.Context, limit int) ([]FacetCount, error) {
	return db.facetCounts(ctx,
		`SELECT mode() WITHIN GROUP (ORDER BY btrim(location)) AS value, COUNT(*) AS n
		 FROM users
		 WHERE role <> 'admin' AND btrim(location) <> ''
		 GROUP BY lower(btrim(location))
		 ORDER BY n DESC, value ASC LIMIT $1`, limit)
}

func (db *DB) facetCounts(ctx context.Context, query string, args ...any) ([]FacetCount, error) {
	rows, err := db.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to count facets: %w", err)
	}
	defer rows.Close()

	var facets []FacetCount
	for rows.Next() {
		var f FacetCount
		if err := rows.Scan(&f.Value, &f.Count); err != nil {
			return nil, fmt.Errorf("failed to scan facet: %w", err)
		}
		facets = append(facets, f)
	}
	return facets, rows.Err()
}
