// Package draft generates outreach message drafts through an LLM provider.
package draft

import (
	"fmt"
	"strings"
	"time"
)

// PriorMessage is one previously sent message in the thread, oldest first.
type PriorMessage struct {
	Subject       string
	Body          string
	SentAt        time.Time
	SequenceIndex int
}

// Request carries everything the generator needs for one draft.
type Request struct {
	Domain      string
	CompanyName string
	PageTitle   string
	PageURL     string

	SenderName    string
	SenderCompany string

	// Prior holds the thread history for follow-ups, sorted chronologically.
	// Empty for an initial message.
	Prior []PriorMessage
}

// IsFollowUp reports whether the request continues an existing thread.
func (r Request) IsFollowUp() bool { return len(r.Prior) > 0 }

// Draft is a generated subject and body.
type Draft struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

const systemPrompt = `You write short, personalized B2B outreach emails. ` +
	`Respond with a valid JSON object: {"subject": "...", "body": "..."}. ` +
	`Keep the subject under 60 characters and the body under 150 words. ` +
	`No placeholders, no markdown.`

// buildUserPrompt renders the request into the generator's user prompt.
// Follow-ups include the full prior thread so the model can reference it
// without repeating itself.
func buildUserPrompt(req Request) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Company website: %s\n", req.Domain)
	if req.CompanyName != "" {
		fmt.Fprintf(&b, "Company name: %s\n", req.CompanyName)
	}
	if req.PageTitle != "" {
		fmt.Fprintf(&b, "Page title: %s\n", req.PageTitle)
	}
	if req.PageURL != "" {
		fmt.Fprintf(&b, "Page URL: %s\n", req.PageURL)
	}
	fmt.Fprintf(&b, "Sender: %s at %s\n", req.SenderName, req.SenderCompany)

	if req.IsFollowUp() {
		fmt.Fprintf(&b, "\nThis is follow-up #%d. Previous messages in this thread:\n",
			req.Prior[len(req.Prior)-1].SequenceIndex+1)
		for _, m := range req.Prior {
			fmt.Fprintf(&b, "---\nSent: %s\nSubject: %s\n%s\n",
				m.SentAt.Format(time.RFC3339), m.Subject, m.Body)
		}
		b.WriteString("---\nWrite a brief follow-up that references the thread without repeating it.\n")
	} else {
		b.WriteString("\nWrite an initial cold outreach email.\n")
	}

	return b.String()
}
