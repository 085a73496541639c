package talent

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/talent-engine/internal/db"
	"github.com/jonathan/talent-engine/internal/matching"
	"golang.org/x/sync/errgroup"
)

const (
	defaultRange  = "30d"
	topFacetLimit = 5
	timelineDays  = 7
	day           = 24 * time.Hour
)

var rangeDurations = map[string]time.Duration{
	"7d":  7 * day,
	"30d": 30 * day,
	"90d": 90 * day,
	"1y":  365 * day,
}

// Window is a closed-open reporting interval ending now
type Window struct {
	Range string    `json:"range"`
	From  time.Time `json:"from"`
	To    time.Time `json:"to"`
}

// PoolStats describes the size of the talent pool
type PoolStats struct {
	Total int `json:"total"`
	New   int `json:"new"`
}

// InvitationFunnel counts invitations sent in the window by effective status
type InvitationFunnel struct {
	Sent         int     `json:"sent"`
	Viewed       int     `json:"viewed"`
	Applied      int     `json:"applied"`
	Declined     int     `json:"declined"`
	Expired      int     `json:"expired"`
	Total        int     `json:"total"`
	ResponseRate float64 `json:"responseRate"`
}

// SourcingFunnel counts sourced applications in the window by pipeline status
type SourcingFunnel struct {
	ByStatus       map[string]int `json:"byStatus"`
	Total          int            `json:"total"`
	Hired          int            `json:"hired"`
	ConversionRate float64        `json:"conversionRate"`
}

// Facet is a value's share of the pool
type Facet struct {
	Name       string  `json:"name"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// DailyActivity is one day of the activity timeline
type DailyActivity struct {
	Date         string `json:"date"`
	Label        string `json:"label"`
	Invitations  int    `json:"invitations"`
	Sourced      int    `json:"sourced"`
	Interactions int    `json:"interactions"`
}

// Summary is the talent-pool analytics report
type Summary struct {
	Window       Window           `json:"window"`
	Pool         PoolStats        `json:"pool"`
	Invitations  InvitationFunnel `json:"invitations"`
	Sourcing     SourcingFunnel   `json:"sourcing"`
	TopSkills    []Facet          `json:"topSkills"`
	TopLocations []Facet          `json:"topLocations"`
	Daily        []DailyActivity  `json:"daily"`
}

// ActorActivity counts one recruiter's ledger entries per type
type ActorActivity struct {
	Window Window         `json:"window"`
	Total  int            `json:"total"`
	ByType map[string]int `json:"byType"`
}

// Analytics derives funnel reports from stored state on demand. It never writes.
type Analytics struct {
	*deps
}

// window resolves a range key. An empty key means 30 days.
func (a *Analytics) window(rangeKey string) (Window, error) {
	if rangeKey == "" {
		rangeKey = defaultRange
	}
	d, ok := rangeDurations[rangeKey]
	if !ok {
		return Window{}, invalidState(ReasonInvalidRange, "range must be one of 7d, 30d, 90d, 1y")
	}
	now := a.clock()
	return Window{Range: rangeKey, From: now.Add(-d), To: now}, nil
}

// Summarize builds the analytics report for a range. The reads run
// concurrently and are not mutually consistent.
func (a *Analytics) Summarize(ctx context.Context, rangeKey string) (*Summary, error) {
	ctx, span := tracer.Start(ctx, "talent.Analytics.Summarize")
	defer span.End()

	w, err := a.window(rangeKey)
	if err != nil {
		return nil, err
	}

	today := w.To.Truncate(day)
	timelineFrom := today.Add(-(timelineDays - 1) * day)
	timelineTo := today.Add(day)

	var (
		total, created                  int
		invitationCounts                map[db.InvitationStatus]int
		sourcedCounts                   map[string]int
		skills, locations               []db.FacetCount
		dailyInv, dailySrc, dailyLedger map[string]int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		total, created, err = a.store.CountCandidates(gctx, w.From)
		return err
	})
	g.Go(func() (err error) {
		invitationCounts, err = a.store.InvitationStatusCounts(gctx, w.From, w.To, w.To)
		return err
	})
	g.Go(func() (err error) {
		sourcedCounts, err = a.store.SourcedStatusCounts(gctx, w.From, w.To)
		return err
	})
	g.Go(func() (err error) {
		skills, err = a.store.TopCandidateSkills(gctx, topFacetLimit, matching.SkillAliases())
		return err
	})
	g.Go(func() (err error) {
		locations, err = a.store.TopCandidateLocations(gctx, topFacetLimit)
		return err
	})
	g.Go(func() (err error) {
		dailyInv, err = a.store.DailyInvitations(gctx, timelineFrom, timelineTo)
		return err
	})
	g.Go(func() (err error) {
		dailySrc, err = a.store.DailySourced(gctx, timelineFrom, timelineTo)
		return err
	})
	g.Go(func() (err error) {
		dailyLedger, err = a.store.DailyInteractions(gctx, timelineFrom, timelineTo)
		return err
	})
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		return nil, internal("failed to load analytics", err)
	}

	summary := &Summary{
		Window:       w,
		Pool:         PoolStats{Total: total, New: created},
		Invitations:  invitationFunnel(invitationCounts),
		Sourcing:     sourcingFunnel(sourcedCounts),
		TopSkills:    facets(skills, total),
		TopLocations: facets(locations, total),
		Daily:        make([]DailyActivity, 0, timelineDays),
	}
	for i := 0; i < timelineDays; i++ {
		d := timelineFrom.Add(time.Duration(i) * day)
		key := d.Format(db.DayKeyFormat)
		summary.Daily = append(summary.Daily, DailyActivity{
			Date:         key,
			Label:        d.Format("Mon"),
			Invitations:  dailyInv[key],
			Sourced:      dailySrc[key],
			Interactions: dailyLedger[key],
		})
	}
	return summary, nil
}

// Productivity counts the actor's own ledger entries in the range.
func (a *Analytics) Productivity(ctx context.Context, actorID uuid.UUID, rangeKey string) (*ActorActivity, error) {
	ctx, span := tracer.Start(ctx, "talent.Analytics.Productivity")
	defer span.End()

	w, err := a.window(rangeKey)
	if err != nil {
		return nil, err
	}
	interactions, err := a.store.ListInteractionsByActor(ctx, actorID, w.From, w.To)
	if err != nil {
		return nil, internal("failed to load interactions", err)
	}

	activity := &ActorActivity{Window: w, ByType: make(map[string]int, len(db.InteractionTypes))}
	for _, t := range db.InteractionTypes {
		activity.ByType[string(t)] = 0
	}
	for _, in := range interactions {
		activity.ByType[string(in.Type)]++
		activity.Total++
	}
	return activity, nil
}

func invitationFunnel(counts map[db.InvitationStatus]int) InvitationFunnel {
	f := InvitationFunnel{
		Sent:     counts[db.InvitationSent],
		Viewed:   counts[db.InvitationViewed],
		Applied:  counts[db.InvitationApplied],
		Declined: counts[db.InvitationDeclined],
		Expired:  counts[db.InvitationExpired],
	}
	f.Total = f.Sent + f.Viewed + f.Applied + f.Declined + f.Expired
	f.ResponseRate = percentOf(f.Applied+f.Declined, f.Total)
	return f
}

func sourcingFunnel(counts map[string]int) SourcingFunnel {
	f := SourcingFunnel{ByStatus: make(map[string]int, len(db.ApplicationStatuses))}
	for _, status := range db.ApplicationStatuses {
		f.ByStatus[status] = 0
	}
	for status, n := range counts {
		f.ByStatus[status] = n
		f.Total += n
	}
	f.Hired = counts[db.ApplicationHired]
	f.ConversionRate = percentOf(f.Hired, f.Total)
	return f
}

func facets(counts []db.FacetCount, poolSize int) []Facet {
	out := make([]Facet, 0, len(counts))
	for _, c := range counts {
		out = append(out, Facet{Name: c.Value, Count: c.Count, Percentage: percentOf(c.Count, poolSize)})
	}
	return out
}

// percentOf returns part/whole as a percentage rounded to one decimal, or 0
// when whole is 0.
func percentOf(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return math.Round(float64(part)/float64(whole)*1000) / 10
}
