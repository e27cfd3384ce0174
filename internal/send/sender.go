// Package send delivers drafted messages and records the send log.
package send

import (
	"context"
	"errors"

	"github.com/rotisserie/eris"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/pkg/gmail"
)

// Outbound is one message ready for delivery.
type Outbound struct {
	To       string
	Subject  string
	Body     string
	ThreadID string
}

// Sender delivers a message and returns the provider message id.
type Sender interface {
	Send(ctx context.Context, msg Outbound) (string, error)
}

// gmailSender sends through the Gmail API, refreshing the access token and
// retrying once when the provider rejects it.
type gmailSender struct {
	client gmail.Client
	from   string
}

// NewGmailSender wraps a Gmail client as a Sender.
func NewGmailSender(client gmail.Client, from string) Sender {
	return &gmailSender{client: client, from: from}
}

func (s *gmailSender) Send(ctx context.Context, msg Outbound) (string, error) {
	gm := gmail.Message{
		To:       msg.To,
		From:     s.from,
		Subject:  msg.Subject,
		Body:     msg.Body,
		ThreadID: msg.ThreadID,
	}

	id, err := s.client.Send(ctx, gm)
	if errors.Is(err, gmail.ErrUnauthorized) {
		zap.L().Info("send: access token rejected, refreshing")
		if refreshErr := s.client.RefreshToken(ctx); refreshErr != nil {
			return "", eris.Wrap(refreshErr, "send: refresh token")
		}
		id, err = s.client.Send(ctx, gm)
	}
	if err != nil {
		return "", eris.Wrapf(err, "send: gmail deliver to %s", msg.To)
	}
	return id, nil
}

// sendgridSender sends through the SendGrid v3 mail API.
type sendgridSender struct {
	client   *sendgrid.Client
	from     string
	fromName string
}

// NewSendGridSender creates a SendGrid-backed Sender.
func NewSendGridSender(apiKey, from, fromName string) Sender {
	return &sendgridSender{
		client:   sendgrid.NewSendClient(apiKey),
		from:     from,
		fromName: fromName,
	}
}

func (s *sendgridSender) Send(ctx context.Context, msg Outbound) (string, error) {
	message := sgmail.NewSingleEmailPlainText(
		sgmail.NewEmail(s.fromName, s.from),
		msg.Subject,
		sgmail.NewEmail("", msg.To),
		msg.Body,
	)

	resp, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return "", eris.Wrapf(err, "send: sendgrid deliver to %s", msg.To)
	}
	if resp.StatusCode >= 300 {
		return "", eris.Errorf("send: sendgrid status %d: %s", resp.StatusCode, resp.Body)
	}

	// SendGrid returns the message id in a response header, not the body.
	id := resp.Headers["X-Message-Id"]
	if len(id) == 0 {
		return "", nil
	}
	return id[0], nil
}
