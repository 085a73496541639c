package talent

import (
	"context"
	"sync"
	"testing"

	"github.com/jonathan/talent-engine/internal/db"
	"github.com/jonathan/talent-engine/internal/logging"
	"github.com/jonathan/talent-engine/internal/notify"
	"github.com/jonathan/talent-engine/internal/schemas"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type spyNotifier struct {
	mu          sync.Mutex
	invitations []notify.InvitationMessage
	sourced     []notify.SourcedMessage
	err         error
}

func (n *spyNotifier) SendJobInvitation(_ context.Context, msg notify.InvitationMessage) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.invitations = append(n.invitations, msg)
	return n.err
}

func (n *spyNotifier) SendSourcedNotification(_ context.Context, msg notify.SourcedMessage) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sourced = append(n.sourced, msg)
	return n.err
}

type spyAuditor struct {
	mu     sync.Mutex
	events []logging.AuditEvent
}

func (a *spyAuditor) LogAuditEvent(_ context.Context, event logging.AuditEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, event)
}

type fixture struct {
	engine    *Engine
	store     *fakeStore
	clock     *testClock
	notifier  *spyNotifier
	auditor   *spyAuditor
	admin     *db.User
	candidate *db.User
	job       *db.Job
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := newTestClock()
	store := newFakeStore(clock)
	validator, err := schemas.NewMetadataValidator()
	require.NoError(t, err)

	f := &fixture{
		store:    store,
		clock:    clock,
		notifier: &spyNotifier{},
		auditor:  &spyAuditor{},
	}
	f.engine = New(store, validator, zap.NewNop(),
		WithClock(clock.Now),
		WithNotifier(f.notifier),
		WithAuditor(f.auditor),
	)
	f.admin = store.addUser(db.User{Name: "Rita Recruiter", Email: "rita@example.com", Role: db.RoleAdmin})
	f.candidate = store.addUser(db.User{
		Name:     "Ada Lovelace",
		Email:    "ada@example.com",
		Skills:   []string{"React", "Node"},
		Location: "Berlin",
	})
	f.job = store.addJob(db.Job{
		Title:          "Frontend Engineer",
		RequiredSkills: []string{"React", "Node"},
		IsRemote:       true,
		PostedAt:       clock.Now(),
	})
	return f
}

func (f *fixture) invite(t *testing.T) *db.Invitation {
	t.Helper()
	return f.inviteTo(t, f.job, f.candidate)
}

func (f *fixture) inviteTo(t *testing.T, job *db.Job, candidate *db.User) *db.Invitation {
	t.Helper()
	inv, err := f.engine.Invitations.Create(context.Background(), CreateInvitationInput{
		JobID:       job.ID,
		CandidateID: candidate.ID,
		InviterID:   f.admin.ID,
		Message:     "We'd love to talk.",
	})
	require.NoError(t, err)
	return inv
}

func assertEngineError(t *testing.T, err error, kind Kind, reason string) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, kind, KindOf(err), "kind")
	assert.Equal(t, reason, ReasonOf(err), "reason")
}
