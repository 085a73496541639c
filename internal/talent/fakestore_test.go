package talent

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jonathan/talent-engine/internal/db"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2024, 6, 12, 15, 30, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fakeTxKey struct{}

type fakeTx struct {
	undo    []func()
	unlocks []func()
}

// fakeStore is an in-memory Store. Pair locks, transaction undo and the
// unique constraints behave like the PostgreSQL schema.
type fakeStore struct {
	mu           sync.Mutex
	clock        *testClock
	users        map[uuid.UUID]*db.User
	jobs         map[uuid.UUID]*db.Job
	applications []*db.Application
	invitations  []*db.Invitation
	interactions []*db.Interaction
	pairLocks    map[string]*sync.Mutex

	failInsertInteraction error
	failGetJob            error
}

var errUniqueViolation = &pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"}

func newFakeStore(clock *testClock) *fakeStore {
	return &fakeStore{
		clock:     clock,
		users:     make(map[uuid.UUID]*db.User),
		jobs:      make(map[uuid.UUID]*db.Job),
		pairLocks: make(map[string]*sync.Mutex),
	}
}

func (f *fakeStore) addUser(u db.User) *db.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Role == "" {
		u.Role = db.RoleCandidate
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = f.clock.Now()
	}
	f.users[u.ID] = &u
	return &u
}

func (f *fakeStore) addJob(j db.Job) *db.Job {
	f.mu.Lock()
	defer f.mu.Unlock()
	if j.ID == uuid.Nil {
		j.ID = uuid.New()
	}
	if j.Status == "" {
		j.Status = db.JobStatusActive
	}
	f.jobs[j.ID] = &j
	return &j
}

func txFrom(ctx context.Context) *fakeTx {
	tx, _ := ctx.Value(fakeTxKey{}).(*fakeTx)
	return tx
}

// onRollback registers an undo step; callers hold f.mu.
func (f *fakeStore) onRollback(ctx context.Context, undo func()) {
	if tx := txFrom(ctx); tx != nil {
		tx.undo = append(tx.undo, undo)
	}
}

func (f *fakeStore) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if txFrom(ctx) != nil {
		return fn(ctx)
	}
	tx := &fakeTx{}
	err := fn(context.WithValue(ctx, fakeTxKey{}, tx))
	if err != nil {
		f.mu.Lock()
		for i := len(tx.undo) - 1; i >= 0; i-- {
			tx.undo[i]()
		}
		f.mu.Unlock()
	}
	for i := len(tx.unlocks) - 1; i >= 0; i-- {
		tx.unlocks[i]()
	}
	return err
}

func (f *fakeStore) LockPair(ctx context.Context, jobID, candidateID uuid.UUID) error {
	tx := txFrom(ctx)
	if tx == nil {
		return errors.New("pair lock requires a transaction")
	}
	key := jobID.String() + ":" + candidateID.String()
	f.mu.Lock()
	m, ok := f.pairLocks[key]
	if !ok {
		m = &sync.Mutex{}
		f.pairLocks[key] = m
	}
	f.mu.Unlock()

	m.Lock()
	tx.unlocks = append(tx.unlocks, m.Unlock)
	return nil
}

func (f *fakeStore) GetUser(_ context.Context, id uuid.UUID) (*db.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (f *fakeStore) GetJob(_ context.Context, id uuid.UUID) (*db.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failGetJob != nil {
		return nil, f.failGetJob
	}
	j, ok := f.jobs[id]
	if !ok {
		return nil, nil
	}
	cp := *j
	return &cp, nil
}

func (f *fakeStore) ListActiveJobsForCandidate(_ context.Context, candidateID uuid.UUID) ([]db.JobForCandidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []db.JobForCandidate
	for _, j := range f.jobs {
		if !j.IsActive() {
			continue
		}
		out = append(out, db.JobForCandidate{Job: *j, Applied: f.hasApplication(j.ID, candidateID)})
	}
	return out, nil
}

func (f *fakeStore) SearchCandidates(_ context.Context, filters db.CandidateFilters) ([]db.CandidateWithStats, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var matches []db.CandidateWithStats
	for _, u := range f.users {
		if u.IsAdmin() {
			continue
		}
		if s := strings.ToLower(filters.Search); s != "" && !strings.Contains(strings.ToLower(u.Name), s) {
			continue
		}
		if filters.AvailableOnly && !u.IsAvailable {
			continue
		}
		matches = append(matches, db.CandidateWithStats{User: *u})
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].Name < matches[j].Name })

	total := len(matches)
	start := min(filters.Offset, total)
	end := min(start+filters.Limit, total)
	return matches[start:end], total, nil
}

func (f *fakeStore) hasApplication(jobID, candidateID uuid.UUID) bool {
	for _, a := range f.applications {
		if a.JobID == jobID && a.CandidateID == candidateID {
			return true
		}
	}
	return false
}

func (f *fakeStore) ApplicationExists(_ context.Context, jobID, candidateID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hasApplication(jobID, candidateID), nil
}

func (f *fakeStore) CreateApplication(ctx context.Context, app *db.Application) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.hasApplication(app.JobID, app.CandidateID) {
		return errUniqueViolation
	}
	app.ID = uuid.New()
	app.CreatedAt = f.clock.Now()
	cp := *app
	f.applications = append(f.applications, &cp)
	f.onRollback(ctx, func() {
		f.applications = removeByID(f.applications, cp.ID, func(a *db.Application) uuid.UUID { return a.ID })
	})
	return nil
}

func (f *fakeStore) CreateInvitation(ctx context.Context, inv *db.Invitation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.invitations {
		if existing.JobID == inv.JobID && existing.CandidateID == inv.CandidateID && existing.Status.IsOpen() {
			return errUniqueViolation
		}
		if existing.Token == inv.Token {
			return errUniqueViolation
		}
	}
	inv.ID = uuid.New()
	cp := *inv
	f.invitations = append(f.invitations, &cp)
	f.onRollback(ctx, func() {
		f.invitations = removeByID(f.invitations, cp.ID, func(i *db.Invitation) uuid.UUID { return i.ID })
	})
	return nil
}

func (f *fakeStore) GetInvitationByToken(_ context.Context, token string) (*db.Invitation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, inv := range f.invitations {
		if inv.Token == token {
			cp := *inv
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) ActiveInvitationExists(_ context.Context, jobID, candidateID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, inv := range f.invitations {
		if inv.JobID == jobID && inv.CandidateID == candidateID && inv.Status.IsOpen() {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) TransitionInvitation(ctx context.Context, id uuid.UUID, from []db.InvitationStatus, to db.InvitationStatus, at time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, inv := range f.invitations {
		if inv.ID != id {
			continue
		}
		allowed := false
		for _, s := range from {
			if inv.Status == s {
				allowed = true
			}
		}
		if !allowed {
			return false, nil
		}
		prev := *inv
		inv.Status = to
		switch to {
		case db.InvitationViewed:
			inv.ViewedAt = &at
		case db.InvitationApplied, db.InvitationDeclined:
			inv.RespondedAt = &at
		}
		target := inv
		f.onRollback(ctx, func() { *target = prev })
		return true, nil
	}
	return false, nil
}

func (f *fakeStore) ExpireStaleForPair(ctx context.Context, jobID, candidateID uuid.UUID, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, inv := range f.invitations {
		if inv.JobID == jobID && inv.CandidateID == candidateID && inv.Status.IsOpen() && inv.IsExpiredAt(now) {
			prev, target := inv.Status, inv
			inv.Status = db.InvitationExpired
			f.onRollback(ctx, func() { target.Status = prev })
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) ExpireStaleInvitations(_ context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, inv := range f.invitations {
		if inv.Status.IsOpen() && inv.IsExpiredAt(now) {
			inv.Status = db.InvitationExpired
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) ListInvitationsByCandidate(_ context.Context, candidateID uuid.UUID) ([]db.Invitation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []db.Invitation
	for i := len(f.invitations) - 1; i >= 0; i-- {
		if f.invitations[i].CandidateID == candidateID {
			out = append(out, *f.invitations[i])
		}
	}
	return out, nil
}

func (f *fakeStore) InsertInteraction(_ context.Context, in *db.Interaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failInsertInteraction != nil {
		return f.failInsertInteraction
	}
	in.ID = uuid.New()
	in.CreatedAt = f.clock.Now()
	cp := *in
	f.interactions = append(f.interactions, &cp)
	return nil
}

func (f *fakeStore) ListInteractionsByCandidate(_ context.Context, candidateID uuid.UUID, limit int) ([]db.Interaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []db.Interaction
	for i := len(f.interactions) - 1; i >= 0 && len(out) < limit; i-- {
		if f.interactions[i].CandidateID == candidateID {
			out = append(out, *f.interactions[i])
		}
	}
	return out, nil
}

func (f *fakeStore) ListInteractionsByActor(_ context.Context, actorID uuid.UUID, from, to time.Time) ([]db.Interaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []db.Interaction
	for _, in := range f.interactions {
		if in.AdminID == actorID && !in.CreatedAt.Before(from) && in.CreatedAt.Before(to) {
			out = append(out, *in)
		}
	}
	return out, nil
}

func (f *fakeStore) interactionsOfType(t db.InteractionType) []db.Interaction {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []db.Interaction
	for _, in := range f.interactions {
		if in.Type == t {
			out = append(out, *in)
		}
	}
	return out
}

func (f *fakeStore) invitationByID(id uuid.UUID) db.Invitation {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, inv := range f.invitations {
		if inv.ID == id {
			return *inv
		}
	}
	return db.Invitation{}
}

func (f *fakeStore) CountCandidates(_ context.Context, since time.Time) (int, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var total, created int
	for _, u := range f.users {
		if u.IsAdmin() {
			continue
		}
		total++
		if !u.CreatedAt.Before(since) {
			created++
		}
	}
	return total, created, nil
}

func (f *fakeStore) InvitationStatusCounts(_ context.Context, from, to, now time.Time) (map[db.InvitationStatus]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	counts := make(map[db.InvitationStatus]int)
	for _, inv := range f.invitations {
		if !inv.SentAt.Before(from) && inv.SentAt.Before(to) {
			counts[inv.EffectiveStatus(now)]++
		}
	}
	return counts, nil
}

func (f *fakeStore) SourcedStatusCounts(_ context.Context, from, to time.Time) (map[string]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	counts := make(map[string]int)
	for _, a := range f.applications {
		if a.SourceType == db.SourceSourced && a.SourcedAt != nil && !a.SourcedAt.Before(from) && a.SourcedAt.Before(to) {
			counts[a.Status]++
		}
	}
	return counts, nil
}

// topFacets groups values by key, counts each candidate once per group and
// labels the group with its most common spelling.
func (f *fakeStore) topFacets(values func(u *db.User) []string, key func(string) string, limit int) []db.FacetCount {
	type group struct {
		users  map[uuid.UUID]bool
		labels map[string]int
	}
	groups := make(map[string]*group)
	for _, u := range f.users {
		if u.IsAdmin() {
			continue
		}
		for _, v := range values(u) {
			label := strings.TrimSpace(v)
			k := key(label)
			if k == "" {
				continue
			}
			g, ok := groups[k]
			if !ok {
				g = &group{users: make(map[uuid.UUID]bool), labels: make(map[string]int)}
				groups[k] = g
			}
			g.users[u.ID] = true
			g.labels[label]++
		}
	}

	facets := make([]db.FacetCount, 0, len(groups))
	for _, g := range groups {
		best := ""
		for label, n := range g.labels {
			if best == "" || n > g.labels[best] || (n == g.labels[best] && label < best) {
				best = label
			}
		}
		facets = append(facets, db.FacetCount{Value: best, Count: len(g.users)})
	}
	sort.Slice(facets, func(i, j int) bool {
		if facets[i].Count != facets[j].Count {
			return facets[i].Count > facets[j].Count
		}
		return facets[i].Value < facets[j].Value
	})
	if len(facets) > limit {
		facets = facets[:limit]
	}
	return facets
}

func (f *fakeStore) TopCandidateSkills(_ context.Context, limit int, aliases map[string]string) ([]db.FacetCount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := func(s string) string {
		k := strings.ToLower(strings.Join(strings.Fields(s), " "))
		if canonical, ok := aliases[k]; ok {
			return canonical
		}
		return k
	}
	return f.topFacets(func(u *db.User) []string { return u.Skills }, key, limit), nil
}

func (f *fakeStore) TopCandidateLocations(_ context.Context, limit int) ([]db.FacetCount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.topFacets(func(u *db.User) []string { return []string{u.Location} }, strings.ToLower, limit), nil
}

func dayCounts(times []time.Time, from, to time.Time) map[string]int {
	counts := make(map[string]int)
	for _, t := range times {
		if !t.Before(from) && t.Before(to) {
			counts[t.UTC().Format(db.DayKeyFormat)]++
		}
	}
	return counts
}

func (f *fakeStore) DailyInvitations(_ context.Context, from, to time.Time) (map[string]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var times []time.Time
	for _, inv := range f.invitations {
		times = append(times, inv.SentAt)
	}
	return dayCounts(times, from, to), nil
}

func (f *fakeStore) DailySourced(_ context.Context, from, to time.Time) (map[string]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var times []time.Time
	for _, a := range f.applications {
		if a.SourceType == db.SourceSourced && a.SourcedAt != nil {
			times = append(times, *a.SourcedAt)
		}
	}
	return dayCounts(times, from, to), nil
}

func (f *fakeStore) DailyInteractions(_ context.Context, from, to time.Time) (map[string]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var times []time.Time
	for _, in := range f.interactions {
		times = append(times, in.CreatedAt)
	}
	return dayCounts(times, from, to), nil
}

func removeByID[T any](items []*T, id uuid.UUID, idOf func(*T) uuid.UUID) []*T {
	out := items[:0]
	for _, item := range items {
		if idOf(item) != id {
			out = append(out, item)
		}
	}
	return out
}

var _ Store = (*fakeStore)(nil)
