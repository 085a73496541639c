package matching

import (
	"sort"
)

// Tier is the consumer-facing bucket for a match percentage
type Tier string

const (
	TierExcellent Tier = "excellent"
	TierGood      Tier = "good"
	TierFair      Tier = "fair"
	TierPoor      Tier = "poor"
)

// Tier thresholds
const (
	ExcellentThreshold = 80
	GoodThreshold      = 60
	FairThreshold      = 40
)

// Bucket sizes for ranked recommendations
const (
	topBucketSize  = 5
	goodBucketSize = 5
)

// TierFor maps a percentage to its tier.
func TierFor(percentage int) Tier {
	switch {
	case percentage >= ExcellentThreshold:
		return TierExcellent
	case percentage >= GoodThreshold:
		return TierGood
	case percentage >= FairThreshold:
		return TierFair
	default:
		return TierPoor
	}
}

// Candidate is a job to rank, annotated with whether the candidate already applied
type Candidate struct {
	Job     Job
	Applied bool
}

// Summary counts ranked jobs per tier
type Summary struct {
	Total     int `json:"total"`
	Excellent int `json:"excellent"`
	Good      int `json:"good"`
	Fair      int `json:"fair"`
	Applied   int `json:"applied"`
}

// Recommendations is the tiered output of RankJobs
type Recommendations struct {
	Top     []Result `json:"top"`
	Good    []Result `json:"good"`
	Other   []Result `json:"other"`
	Applied []Result `json:"applied"`
	Summary Summary  `json:"summary"`
}

// RankJobs scores every job for the profile and partitions the results.
// Jobs the candidate already applied to go to Applied regardless of score.
// The rest are sorted by percentage, then by most recent posting, then by ID;
// jobs scoring at least FairThreshold fill Top and then Good, and everything
// left over, including sub-threshold jobs, goes to Other.
func RankJobs(profile Profile, jobs []Candidate) Recommendations {
	recs := Recommendations{
		Top:     make([]Result, 0),
		Good:    make([]Result, 0),
		Other:   make([]Result, 0),
		Applied: make([]Result, 0),
	}

	open := make([]Result, 0, len(jobs))
	for _, c := range jobs {
		result := Score(profile, c.Job)
		if c.Applied {
			result.Applied = true
			recs.Applied = append(recs.Applied, result)
			continue
		}
		open = append(open, result)

		switch result.Tier {
		case TierExcellent:
			recs.Summary.Excellent++
		case TierGood:
			recs.Summary.Good++
		case TierFair:
			recs.Summary.Fair++
		}
	}

	sortResults(open)
	sortResults(recs.Applied)

	for _, result := range open {
		switch {
		case result.Percentage >= FairThreshold && len(recs.Top) < topBucketSize:
			recs.Top = append(recs.Top, result)
		case result.Percentage >= FairThreshold && len(recs.Good) < goodBucketSize:
			recs.Good = append(recs.Good, result)
		default:
			recs.Other = append(recs.Other, result)
		}
	}

	recs.Summary.Total = len(jobs)
	recs.Summary.Applied = len(recs.Applied)
	return recs
}

func sortResults(results []Result) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.Percentage != b.Percentage {
			return a.Percentage > b.Percentage
		}
		if !a.Job.PostedAt.Equal(b.Job.PostedAt) {
			return a.Job.PostedAt.After(b.Job.PostedAt)
		}
		return a.Job.ID.String() < b.Job.ID.String()
	})
}
