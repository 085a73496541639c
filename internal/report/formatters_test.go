package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/jonathan/talent-engine/internal/matching"
	"github.com/jonathan/talent-engine/internal/talent"
	"github.com/stretchr/testify/assert"
)

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	to := time.Date(2024, 7, 13, 12, 0, 0, 0, time.UTC)
	p.PrintSummary(&talent.Summary{
		Window:      talent.Window{Range: "30d", From: to.AddDate(0, 0, -30), To: to},
		Pool:        talent.PoolStats{Total: 42, New: 3},
		Invitations: talent.InvitationFunnel{Sent: 1, Viewed: 1, Applied: 2, Declined: 1, Total: 5, ResponseRate: 60},
		Sourcing: talent.SourcingFunnel{
			ByStatus: map[string]int{"hired": 1, "screening": 2},
			Total:    3, Hired: 1, ConversionRate: 33.3,
		},
		TopSkills: []talent.Facet{{Name: "Go", Count: 10, Percentage: 23.8}},
	})
	output := buf.String()

	assert.Contains(t, output, "TALENT POOL")
	assert.Contains(t, output, "42 candidates, 3 new")
	assert.Contains(t, output, "response rate 60.0%")
	assert.Contains(t, output, "conversion 33.3%")
	assert.Contains(t, output, "TOP SKILLS")
	assert.NotContains(t, output, "TOP LOCATIONS")
	assert.Less(t, strings.Index(output, "hired:"), strings.Index(output, "screening:"))
}

func TestPrintRecommendations(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintRecommendations(&matching.Recommendations{
		Top: []matching.Result{{
			Job:           matching.Job{Title: "Backend Engineer"},
			Percentage:    91,
			Tier:          matching.TierExcellent,
			MatchedSkills: []string{"Go", "PostgreSQL"},
			MissingSkills: []string{"Kafka"},
		}},
		Summary: matching.Summary{Total: 1, Excellent: 1},
	})
	output := buf.String()

	assert.Contains(t, output, "RECOMMENDED JOBS")
	assert.Contains(t, output, "Backend Engineer")
	assert.Contains(t, output, "91% (excellent)")
	assert.Contains(t, output, "Missing: Kafka")
}

func TestPrintRecommendations_Empty(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintRecommendations(&matching.Recommendations{})
	assert.Contains(t, buf.String(), "No jobs above the fair threshold")
}

func TestPrintActivity(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintActivity(&talent.ActorActivity{
		Window: talent.Window{Range: "7d"},
		Total:  3,
		ByType: map[string]int{"sent_invitation": 2, "added_note": 1},
	})
	output := buf.String()
	assert.Contains(t, output, "7d, 3 interactions")
	assert.Less(t, strings.Index(output, "added_note"), strings.Index(output, "sent_invitation"))
}

func TestPrintBox_TruncatesLongLines(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).printBox("TITLE", strings.Repeat("x", 100))
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		assert.LessOrEqual(t, len([]rune(line)), boxWidth)
	}
	assert.Contains(t, buf.String(), "...")
}

func TestNilInputsPrintNothing(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)
	p.PrintSummary(nil)
	p.PrintRecommendations(nil)
	p.PrintActivity(nil)
	assert.Empty(t, buf.String())
}
