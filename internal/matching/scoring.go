// Package matching scores how well a candidate profile fits open jobs.
package matching

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// Default weights for scoring components. Skills dominate.
const (
	skillWeight      = 0.60
	experienceWeight = 0.25
	locationWeight   = 0.15
)

// Experience decay per year outside the job's band
const (
	underExperiencePenalty = 0.25
	overExperiencePenalty  = 0.10
	overExperienceFloor    = 0.20
)

// Location component values
const (
	locationMatch         = 1.0
	locationUnknown       = 0.5
	locationRemoteWilling = 0.4
	locationMismatch      = 0.2
)

// neutralSkillScore is used when a job lists no required skills
const neutralSkillScore = 0.5

// Profile is the candidate side of a match
type Profile struct {
	Skills          []string
	YearsExperience int
	Location        string
	OpenToRemote    bool
}

// Job is the requisition side of a match
type Job struct {
	ID             uuid.UUID `json:"id"`
	Title          string    `json:"title"`
	Department     string    `json:"department,omitempty"`
	RequiredSkills []string  `json:"required_skills"`
	ExperienceMin  *int      `json:"experience_min,omitempty"`
	ExperienceMax  *int      `json:"experience_max,omitempty"`
	Location       string    `json:"location,omitempty"`
	IsRemote       bool      `json:"is_remote"`
	PostedAt       time.Time `json:"posted_at"`
}

// Components holds the per-factor subscores, each in [0, 1]
type Components struct {
	Skills     float64 `json:"skills"`
	Experience float64 `json:"experience"`
	Location   float64 `json:"location"`
}

// Result is the match between one profile and one job
type Result struct {
	Job           Job        `json:"job"`
	Percentage    int        `json:"percentage"`
	Tier          Tier       `json:"tier"`
	Components    Components `json:"components"`
	MatchedSkills []string   `json:"matched_skills"`
	MissingSkills []string   `json:"missing_skills"`
	Applied       bool       `json:"applied,omitempty"`
}

// Score computes the match between a profile and a job. It is deterministic and
// the percentage is always in [0, 100].
func Score(profile Profile, job Job) Result {
	skills, matched, missing := skillOverlap(profile.Skills, job.RequiredSkills)
	components := Components{
		Skills:     skills,
		Experience: experienceFit(profile.YearsExperience, job.ExperienceMin, job.ExperienceMax),
		Location:   locationFit(profile, job),
	}

	weighted := skillWeight*components.Skills +
		experienceWeight*components.Experience +
		locationWeight*components.Location
	percentage := int(math.Round(weighted * 100))
	percentage = max(0, min(100, percentage))

	return Result{
		Job:           job,
		Percentage:    percentage,
		Tier:          TierFor(percentage),
		Components:    components,
		MatchedSkills: matched,
		MissingSkills: missing,
	}
}

// skillOverlap returns the fraction of required skills the candidate has,
// along with the matched and missing required skills in job order.
func skillOverlap(candidateSkills, required []string) (float64, []string, []string) {
	matched := make([]string, 0)
	missing := make([]string, 0)

	have := make(map[string]bool, len(candidateSkills))
	for _, s := range candidateSkills {
		if key := SkillKey(s); key != "" {
			have[key] = true
		}
	}

	seen := make(map[string]bool, len(required))
	for _, s := range required {
		key := SkillKey(s)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		if have[key] {
			matched = append(matched, s)
		} else {
			missing = append(missing, s)
		}
	}

	total := len(matched) + len(missing)
	if total == 0 {
		return neutralSkillScore, matched, missing
	}
	return float64(len(matched)) / float64(total), matched, missing
}

// experienceFit gives full credit inside [min, max] and decays linearly outside.
// Missing bounds are open. The result is never negative.
func experienceFit(years int, minYears, maxYears *int) float64 {
	if minYears != nil && years < *minYears {
		gap := float64(*minYears - years)
		return math.Max(0, 1-underExperiencePenalty*gap)
	}
	if maxYears != nil && years > *maxYears {
		gap := float64(years - *maxYears)
		return math.Max(overExperienceFloor, 1-overExperiencePenalty*gap)
	}
	return 1.0
}

// locationFit never returns zero: a location mismatch lowers the score but a
// strong skill match can still make the candidate a fair fit.
func locationFit(profile Profile, job Job) float64 {
	if job.IsRemote || isRemoteLocation(job.Location) {
		return locationMatch
	}
	jobLoc := locationKey(job.Location)
	if jobLoc == "" {
		return locationMatch
	}
	candLoc := locationKey(profile.Location)
	if candLoc == "" {
		return locationUnknown
	}
	if candLoc == jobLoc {
		return locationMatch
	}
	if profile.OpenToRemote {
		return locationRemoteWilling
	}
	return locationMismatch
}
