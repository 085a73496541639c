package matching

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func intPtr(v int) *int { return &v }

func TestScore_FullSkillCoverageBeatsPartial(t *testing.T) {
	profile := Profile{Skills: []string{"React", "Node"}, YearsExperience: 4}
	exact := Job{ID: uuid.New(), RequiredSkills: []string{"React", "Node"}, IsRemote: true}
	partial := Job{ID: uuid.New(), RequiredSkills: []string{"React", "Node", "SQL"}, IsRemote: true}

	a := Score(profile, exact)
	b := Score(profile, partial)

	assert.Equal(t, 100, a.Percentage)
	assert.Equal(t, 80, b.Percentage)
	assert.Greater(t, a.Percentage, b.Percentage)
	assert.Equal(t, []string{"SQL"}, b.MissingSkills)
	assert.Equal(t, []string{"React", "Node"}, b.MatchedSkills)
}

func TestScore_Bounds(t *testing.T) {
	profiles := []Profile{
		{},
		{Skills: []string{"go"}, YearsExperience: 0, Location: "Lagos"},
		{Skills: []string{"go", "rust"}, YearsExperience: 40, Location: "Berlin", OpenToRemote: true},
	}
	jobs := []Job{
		{},
		{RequiredSkills: []string{"java"}, ExperienceMin: intPtr(10), Location: "Tokyo"},
		{RequiredSkills: []string{"go"}, ExperienceMin: intPtr(2), ExperienceMax: intPtr(5), Location: "Berlin, Germany"},
	}

	for _, p := range profiles {
		for _, j := range jobs {
			r := Score(p, j)
			assert.GreaterOrEqual(t, r.Percentage, 0)
			assert.LessOrEqual(t, r.Percentage, 100)
			assert.Equal(t, TierFor(r.Percentage), r.Tier)
		}
	}
}

func TestScore_MoreMatchingSkillsNeverLowers(t *testing.T) {
	job := Job{RequiredSkills: []string{"go", "postgresql", "kubernetes", "aws"}, Location: "Austin"}
	skills := []string{}
	prev := Score(Profile{Skills: skills, Location: "Denver"}, job).Percentage

	for _, s := range job.RequiredSkills {
		skills = append(skills, s)
		next := Score(Profile{Skills: skills, Location: "Denver"}, job).Percentage
		assert.GreaterOrEqual(t, next, prev)
		prev = next
	}
}

func TestScore_Deterministic(t *testing.T) {
	profile := Profile{Skills: []string{"Python", "SQL"}, YearsExperience: 3, Location: "NYC"}
	job := Job{RequiredSkills: []string{"python", "spark"}, ExperienceMin: intPtr(5), Location: "SF"}
	assert.Equal(t, Score(profile, job), Score(profile, job))
}

func TestScore_SkillAliases(t *testing.T) {
	profile := Profile{Skills: []string{"Golang", "k8s", "Postgres"}}
	job := Job{RequiredSkills: []string{"Go", "Kubernetes", "PostgreSQL"}, IsRemote: true}

	r := Score(profile, job)
	assert.Equal(t, 1.0, r.Components.Skills)
	assert.Empty(t, r.MissingSkills)
}

func TestScore_NoRequiredSkillsIsNeutral(t *testing.T) {
	r := Score(Profile{Skills: []string{"go"}}, Job{IsRemote: true})
	assert.Equal(t, neutralSkillScore, r.Components.Skills)
	assert.Empty(t, r.MatchedSkills)
	assert.Empty(t, r.MissingSkills)
}

func TestExperienceFit(t *testing.T) {
	tests := []struct {
		name     string
		years    int
		min, max *int
		expected float64
	}{
		{"no bounds", 3, nil, nil, 1.0},
		{"inside band", 4, intPtr(2), intPtr(5), 1.0},
		{"one year short", 1, intPtr(2), nil, 0.75},
		{"far below floors at zero", 0, intPtr(10), nil, 0},
		{"over max", 7, nil, intPtr(5), 0.8},
		{"far over max keeps floor", 30, nil, intPtr(5), overExperienceFloor},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, experienceFit(tt.years, tt.min, tt.max), 1e-9)
		})
	}
}

func TestLocationFit(t *testing.T) {
	tests := []struct {
		name     string
		profile  Profile
		job      Job
		expected float64
	}{
		{"remote job", Profile{Location: "Lagos"}, Job{IsRemote: true, Location: "Berlin"}, locationMatch},
		{"remote in location text", Profile{Location: "Lagos"}, Job{Location: "Remote (EU)"}, locationMatch},
		{"no job location", Profile{Location: "Lagos"}, Job{}, locationMatch},
		{"same city", Profile{Location: "berlin"}, Job{Location: "Berlin, Germany"}, locationMatch},
		{"unknown candidate location", Profile{}, Job{Location: "Berlin"}, locationUnknown},
		{"mismatch open to remote", Profile{Location: "Paris", OpenToRemote: true}, Job{Location: "Berlin"}, locationRemoteWilling},
		{"mismatch", Profile{Location: "Paris"}, Job{Location: "Berlin"}, locationMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, locationFit(tt.profile, tt.job))
		})
	}
}

func TestSkillKey(t *testing.T) {
	assert.Equal(t, "go", SkillKey("  GoLang "))
	assert.Equal(t, "node", SkillKey("Node.js"))
	assert.Equal(t, "machine learning", SkillKey("Machine   Learning"))
	assert.Equal(t, "", SkillKey("   "))
}
