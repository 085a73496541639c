package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/smtp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/talent-engine/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type recordingMailer struct {
	mu   sync.Mutex
	sent []Email
	err  error
}

func (m *recordingMailer) Send(_ context.Context, email Email) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, email)
	return nil
}

// blockingMailer holds every send until release is closed
type blockingMailer struct {
	release chan struct{}
	started chan context.Context
}

func newBlockingMailer() *blockingMailer {
	return &blockingMailer{release: make(chan struct{}), started: make(chan context.Context, 4)}
}

func (m *blockingMailer) Send(ctx context.Context, _ Email) error {
	m.started <- ctx
	select {
	case <-m.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type recordingConn struct {
	subjects []string
	payloads [][]byte
	err      error
}

func (c *recordingConn) Publish(subject string, data []byte) error {
	if c.err != nil {
		return c.err
	}
	c.subjects = append(c.subjects, subject)
	c.payloads = append(c.payloads, data)
	return nil
}

func invitationMessage() InvitationMessage {
	return InvitationMessage{
		InvitationID:   uuid.New(),
		JobID:          uuid.New(),
		JobTitle:       "Backend Engineer",
		CandidateID:    uuid.New(),
		CandidateName:  "Ada Lovelace",
		CandidateEmail: "ada@example.com",
		InviterName:    "Grace",
		Token:          "tok123",
		Message:        "Loved your talk.",
		ExpiresAt:      time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestComposer_Invitation(t *testing.T) {
	c := NewComposer("https://jobs.example.com/")
	email := c.Invitation(invitationMessage())

	assert.Equal(t, "ada@example.com", email.To)
	assert.Equal(t, "You're invited to apply: Backend Engineer", email.Subject)
	assert.Contains(t, email.Body, "Hi Ada,")
	assert.Contains(t, email.Body, "Grace thinks")
	assert.Contains(t, email.Body, "Loved your talk.")
	assert.Contains(t, email.Body, "https://jobs.example.com/invitations/tok123")
	assert.Contains(t, email.Body, "July 1, 2024")
}

func TestComposer_InvitationCustomTemplate(t *testing.T) {
	msg := invitationMessage()
	msg.Subject = "Quick question"
	msg.Content = "Custom body"

	email := NewComposer("http://x").Invitation(msg)
	assert.Equal(t, "Quick question", email.Subject)
	assert.True(t, strings.HasPrefix(email.Body, "Custom body"))
	assert.Contains(t, email.Body, "http://x/invitations/tok123")
}

func TestComposer_InvitationNamedTemplate(t *testing.T) {
	msg := invitationMessage()
	msg.TemplateID = "reconnect"

	email := NewComposer("http://x").Invitation(msg)
	assert.Equal(t, "Let's reconnect about Backend Engineer", email.Subject)
	assert.Contains(t, email.Body, "Hi Ada,")
	assert.Contains(t, email.Body, "It's been a while")
	assert.Contains(t, email.Body, "Loved your talk.")
	assert.Contains(t, email.Body, "http://x/invitations/tok123")

	msg.TemplateID = "no-such-template"
	email = NewComposer("http://x").Invitation(msg)
	assert.Equal(t, "You're invited to apply: Backend Engineer", email.Subject)
}

func TestComposer_InvitationWithoutInviter(t *testing.T) {
	msg := invitationMessage()
	msg.InviterName = ""

	email := NewComposer("http://x").Invitation(msg)
	assert.Contains(t, email.Body, "We think you'd be a great fit for the Backend Engineer role.")
}

func TestComposer_Sourced(t *testing.T) {
	email := NewComposer("http://x").Sourced(SourcedMessage{
		JobTitle:       "Designer",
		CandidateEmail: "a@b.c",
		Status:         "screening",
	})
	assert.Equal(t, "a@b.c", email.To)
	assert.Contains(t, email.Subject, "Designer")
	assert.Contains(t, email.Body, "Hi there,")
	assert.Contains(t, email.Body, "screening")
}

func TestPublisher_PublishesJSON(t *testing.T) {
	conn := &recordingConn{}
	p := &Publisher{conn: conn, logger: zap.NewNop()}

	msg := invitationMessage()
	require.NoError(t, p.SendJobInvitation(context.Background(), msg))
	require.NoError(t, p.SendSourcedNotification(context.Background(), SourcedMessage{ApplicationID: uuid.New()}))

	assert.Equal(t, []string{SubjectInvitation, SubjectSourced}, conn.subjects)

	var decoded InvitationMessage
	require.NoError(t, json.Unmarshal(conn.payloads[0], &decoded))
	assert.Equal(t, msg.Token, decoded.Token)
	assert.Equal(t, msg.InvitationID, decoded.InvitationID)
}

func TestPublisher_Error(t *testing.T) {
	p := &Publisher{conn: &recordingConn{err: errors.New("no responders")}, logger: zap.NewNop()}
	err := p.SendJobInvitation(context.Background(), invitationMessage())
	require.Error(t, err)
	assert.Contains(t, err.Error(), SubjectInvitation)
}

func TestDirect_SendsThroughMailer(t *testing.T) {
	mailer := &recordingMailer{}
	d := NewDirect(NewComposer("http://x"), mailer, zap.NewNop(), time.Second)

	require.NoError(t, d.SendJobInvitation(context.Background(), invitationMessage()))
	require.NoError(t, d.SendSourcedNotification(context.Background(), SourcedMessage{CandidateEmail: "b@c.d", JobTitle: "PM"}))
	d.Close()

	require.Len(t, mailer.sent, 2)
	recipients := []string{mailer.sent[0].To, mailer.sent[1].To}
	assert.ElementsMatch(t, []string{"ada@example.com", "b@c.d"}, recipients)
}

func TestDirect_ReturnsBeforeDelivery(t *testing.T) {
	mailer := newBlockingMailer()
	d := NewDirect(NewComposer("http://x"), mailer, zap.NewNop(), time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.SendJobInvitation(ctx, invitationMessage()) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("SendJobInvitation waited for the mailer")
	}

	// Cancelling the request must not cancel the delivery.
	cancel()
	sendCtx := <-mailer.started
	assert.NoError(t, sendCtx.Err())
	_, hasDeadline := sendCtx.Deadline()
	assert.True(t, hasDeadline)

	close(mailer.release)
	d.Close()
}

func TestDirect_TimeoutAndFailuresAreLogged(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	mailer := newBlockingMailer()
	d := NewDirect(NewComposer("http://x"), mailer, zap.New(core), 20*time.Millisecond)

	require.NoError(t, d.SendJobInvitation(context.Background(), invitationMessage()))
	d.Close()

	entries := logs.FilterMessage("failed to deliver notification").All()
	require.Len(t, entries, 1)
	assert.Equal(t, SubjectInvitation, entries[0].ContextMap()["kind"])
	assert.Equal(t, "ada@example.com", entries[0].ContextMap()["to"])
}

func TestWorker_Handle(t *testing.T) {
	mailer := &recordingMailer{}
	w := NewWorker(nil, NewComposer("http://x"), mailer, zap.NewNop())

	data, err := json.Marshal(invitationMessage())
	require.NoError(t, err)
	require.NoError(t, w.Handle(context.Background(), SubjectInvitation, data))

	data, err = json.Marshal(SourcedMessage{CandidateEmail: "b@c.d", JobTitle: "PM", Status: "applied"})
	require.NoError(t, err)
	require.NoError(t, w.Handle(context.Background(), SubjectSourced, data))

	require.Len(t, mailer.sent, 2)
	assert.Equal(t, "b@c.d", mailer.sent[1].To)
}

func TestWorker_HandleErrors(t *testing.T) {
	w := NewWorker(nil, NewComposer("http://x"), &recordingMailer{}, zap.NewNop())

	assert.Error(t, w.Handle(context.Background(), SubjectInvitation, []byte("{not json")))
	assert.Error(t, w.Handle(context.Background(), "talent.notify.unknown", []byte("{}")))

	failing := NewWorker(nil, NewComposer("http://x"), &recordingMailer{err: errors.New("smtp down")}, zap.NewNop())
	data, _ := json.Marshal(invitationMessage())
	assert.EqualError(t, failing.Handle(context.Background(), SubjectInvitation, data), "smtp down")
}

func TestSMTPMailer_Send(t *testing.T) {
	m := NewSMTPMailer(config.SMTPConfig{Host: "mail.local", Port: 2525, From: "talent@example.com"})

	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte
	m.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
		return nil
	}

	err := m.Send(context.Background(), Email{To: "ada@example.com", Subject: "Hi\r\nBcc: evil@x", Body: "line1\nline2"})
	require.NoError(t, err)
	assert.Equal(t, "mail.local:2525", gotAddr)
	assert.Equal(t, "talent@example.com", gotFrom)
	assert.Equal(t, []string{"ada@example.com"}, gotTo)
	assert.Contains(t, string(gotMsg), "Subject: Hi  Bcc: evil@x\r\n")
	assert.Contains(t, string(gotMsg), "To: ada@example.com\r\n")
	assert.Contains(t, string(gotMsg), "line1\r\nline2")
}

func TestSMTPMailer_Errors(t *testing.T) {
	m := NewSMTPMailer(config.SMTPConfig{Host: "mail.local", Port: 25})
	m.send = func(string, smtp.Auth, string, []string, []byte) error { return errors.New("refused") }

	assert.Error(t, m.Send(context.Background(), Email{}))
	assert.ErrorContains(t, m.Send(context.Background(), Email{To: "a@b.c"}), "refused")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, m.Send(ctx, Email{To: "a@b.c"}), context.Canceled)
}

func TestSMTPMailer_RejectsHeaderInjectionInRecipient(t *testing.T) {
	m := NewSMTPMailer(config.SMTPConfig{Host: "mail.local", Port: 25})
	called := false
	m.send = func(string, smtp.Auth, string, []string, []byte) error {
		called = true
		return nil
	}

	err := m.Send(context.Background(), Email{To: "ada@example.com\r\nBcc: evil@x", Subject: "Hi"})
	assert.ErrorContains(t, err, "invalid recipient")
	assert.False(t, called)
	assert.NotContains(t, string(m.format(Email{To: "a@b.c\nBcc: x"})), "\nBcc")
}

func TestSMTPMailer_SilentRelayTimesOut(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	// Accept connections but never send the SMTP greeting.
	var conns []net.Conn
	var mu sync.Mutex
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			mu.Lock()
			conns = append(conns, c)
			mu.Unlock()
		}
	}()
	defer func() {
		mu.Lock()
		defer mu.Unlock()
		for _, c := range conns {
			c.Close()
		}
	}()

	addr := ln.Addr().(*net.TCPAddr)
	m := NewSMTPMailer(config.SMTPConfig{Host: "127.0.0.1", Port: addr.Port, From: "talent@example.com", Timeout: 100 * time.Millisecond})

	start := time.Now()
	err = m.Send(context.Background(), Email{To: "ada@example.com", Subject: "Hi", Body: "body"})
	require.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
}
