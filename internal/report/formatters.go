// Package report renders engine results as boxed text for terminal output.
package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jonathan/talent-engine/internal/matching"
	"github.com/jonathan/talent-engine/internal/talent"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for the report command
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		if len([]rune(line)) > boxWidth-4 {
			line = string([]rune(line)[:boxWidth-7]) + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintSummary outputs the pool, funnel and facet sections of an analytics summary.
func (p *Printer) PrintSummary(s *talent.Summary) {
	if s == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Range:    %s (%s to %s)\n", s.Window.Range,
		s.Window.From.Format("2006-01-02"), s.Window.To.Format("2006-01-02")))
	sb.WriteString(fmt.Sprintf("Pool:     %d candidates, %d new\n", s.Pool.Total, s.Pool.New))
	p.printBox("TALENT POOL", sb.String())

	inv := s.Invitations
	sb.Reset()
	sb.WriteString(fmt.Sprintf("Sent:     %d\n", inv.Sent))
	sb.WriteString(fmt.Sprintf("Viewed:   %d\n", inv.Viewed))
	sb.WriteString(fmt.Sprintf("Applied:  %d\n", inv.Applied))
	sb.WriteString(fmt.Sprintf("Declined: %d\n", inv.Declined))
	sb.WriteString(fmt.Sprintf("Expired:  %d\n", inv.Expired))
	sb.WriteString(fmt.Sprintf("Total:    %d (response rate %.1f%%)", inv.Total, inv.ResponseRate))
	p.printBox("INVITATION FUNNEL", sb.String())

	src := s.Sourcing
	sb.Reset()
	statuses := make([]string, 0, len(src.ByStatus))
	for status := range src.ByStatus {
		statuses = append(statuses, status)
	}
	sort.Strings(statuses)
	for _, status := range statuses {
		sb.WriteString(fmt.Sprintf("%-10s%d\n", status+":", src.ByStatus[status]))
	}
	sb.WriteString(fmt.Sprintf("Total:    %d (hired %d, conversion %.1f%%)", src.Total, src.Hired, src.ConversionRate))
	p.printBox("SOURCING FUNNEL", sb.String())

	p.printFacets("TOP SKILLS", s.TopSkills)
	p.printFacets("TOP LOCATIONS", s.TopLocations)
}

func (p *Printer) printFacets(title string, facets []talent.Facet) {
	if len(facets) == 0 {
		return
	}
	var sb strings.Builder
	count := min(len(facets), maxItemsToShow)
	for i := 0; i < count; i++ {
		f := facets[i]
		sb.WriteString(fmt.Sprintf("  • %-24s %4d  %5.1f%%\n", f.Name, f.Count, f.Percentage))
	}
	if len(facets) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(facets)-maxItemsToShow))
	}
	p.printBox(title, strings.TrimSuffix(sb.String(), "\n"))
}

// PrintRecommendations outputs the top and good buckets with matched skills.
func (p *Printer) PrintRecommendations(recs *matching.Recommendations) {
	if recs == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Jobs ranked: %d (excellent %d, good %d, fair %d, applied %d)\n",
		recs.Summary.Total, recs.Summary.Excellent, recs.Summary.Good, recs.Summary.Fair, recs.Summary.Applied))

	results := append(append([]matching.Result{}, recs.Top...), recs.Good...)
	if len(results) == 0 {
		sb.WriteString("\nNo jobs above the fair threshold")
	}
	for i, r := range results {
		sb.WriteString(fmt.Sprintf("\n#%d  %s\n", i+1, r.Job.Title))
		sb.WriteString(fmt.Sprintf("    Match: %d%% (%s)\n", r.Percentage, r.Tier))
		if len(r.MatchedSkills) > 0 {
			sb.WriteString(fmt.Sprintf("    Skills: %s\n", strings.Join(r.MatchedSkills, ", ")))
		}
		if len(r.MissingSkills) > 0 {
			sb.WriteString(fmt.Sprintf("    Missing: %s\n", strings.Join(r.MissingSkills, ", ")))
		}
	}

	p.printBox("RECOMMENDED JOBS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintActivity outputs one recruiter's ledger counts by interaction type.
func (p *Printer) PrintActivity(a *talent.ActorActivity) {
	if a == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Range: %s, %d interactions\n", a.Window.Range, a.Total))
	types := make([]string, 0, len(a.ByType))
	for t := range a.ByType {
		types = append(types, t)
	}
	sort.Strings(types)
	for _, t := range types {
		sb.WriteString(fmt.Sprintf("\n  • %-22s %d", t, a.ByType[t]))
	}
	p.printBox("RECRUITER ACTIVITY", sb.String())
}
