package notify

import (
	"fmt"
	"strings"

	"github.com/jonathan/talent-engine/internal/templates"
)

const emailTemplates = "emails.json"

// Email is a rendered plain-text message
type Email struct {
	To      string
	Subject string
	Body    string
}

// Composer renders notification messages into emails
type Composer struct {
	baseURL string
}

// NewComposer creates a composer that links to the given application base URL.
func NewComposer(baseURL string) *Composer {
	return &Composer{baseURL: strings.TrimRight(baseURL, "/")}
}

// InvitationLink returns the candidate-facing URL for an invitation token.
func (c *Composer) InvitationLink(token string) string {
	return fmt.Sprintf("%s/invitations/%s", c.baseURL, token)
}

// Invitation renders a job invitation. Recruiter-supplied subject and content
// win over a named template, which wins over the default. The link and
// deadline are always appended.
func (c *Composer) Invitation(msg InvitationMessage) Email {
	data := map[string]string{
		"FirstName":   greetingName(msg.CandidateName),
		"JobTitle":    msg.JobTitle,
		"InviterName": msg.InviterName,
		"Link":        c.InvitationLink(msg.Token),
		"ExpiresOn":   msg.ExpiresAt.UTC().Format("January 2, 2006"),
	}
	pitch := templates.MustGet(emailTemplates, "invitation.pitch")
	if msg.InviterName != "" {
		pitch = templates.MustGet(emailTemplates, "invitation.pitch.inviter")
	}
	data["Pitch"] = templates.Format(pitch, data)

	subjectTmpl, bodyTmpl := invitationTemplate(msg.TemplateID)

	subject := msg.Subject
	if subject == "" {
		subject = templates.Format(subjectTmpl, data)
	}

	var body strings.Builder
	if msg.Content != "" {
		body.WriteString(msg.Content)
		body.WriteString("\n\n")
	} else {
		body.WriteString(templates.Format(bodyTmpl, data))
	}
	if msg.Message != "" {
		body.WriteString(msg.Message)
		body.WriteString("\n\n")
	}
	body.WriteString(templates.Format(templates.MustGet(emailTemplates, "invitation.footer"), data))

	return Email{To: msg.CandidateEmail, Subject: subject, Body: body.String()}
}

// invitationTemplate resolves a template ID to its subject and body. Unknown
// IDs fall back to the default template.
func invitationTemplate(id string) (string, string) {
	if id != "" {
		subject, errSubject := templates.Get(emailTemplates, "invitation."+id+".subject")
		body, errBody := templates.Get(emailTemplates, "invitation."+id+".body")
		if errSubject == nil && errBody == nil {
			return subject, body
		}
	}
	return templates.MustGet(emailTemplates, "invitation.default.subject"),
		templates.MustGet(emailTemplates, "invitation.default.body")
}

// Sourced renders the notice sent when a recruiter adds a candidate to a pipeline.
func (c *Composer) Sourced(msg SourcedMessage) Email {
	data := map[string]string{
		"FirstName": greetingName(msg.CandidateName),
		"JobTitle":  msg.JobTitle,
		"Status":    msg.Status,
	}
	return Email{
		To:      msg.CandidateEmail,
		Subject: templates.Format(templates.MustGet(emailTemplates, "sourced.subject"), data),
		Body:    templates.Format(templates.MustGet(emailTemplates, "sourced.body"), data),
	}
}

func greetingName(name string) string {
	if fields := strings.Fields(name); len(fields) > 0 {
		return fields[0]
	}
	return "there"
}
