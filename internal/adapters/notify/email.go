package notify

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"squashledger/internal/adapters/email"
)

// EmailNotifier mails each message to a fixed recipient list.
type EmailNotifier struct {
	sender email.Sender
	to     []string
	from   string
	md     goldmark.Markdown
}

var _ Notifier = (*EmailNotifier)(nil)

// NewEmailNotifier creates a notifier sending through sender.
// PRE: to is non-empty
// POST: Returns a ready-to-use notifier
func NewEmailNotifier(sender email.Sender, from string, to []string) *EmailNotifier {
	return &EmailNotifier{
		sender: sender,
		to:     to,
		from:   from,
		// Raw HTML in the message is escaped (WithUnsafe is not set).
		md: goldmark.New(goldmark.WithRendererOptions(goldmarkHTML.WithHardWraps())),
	}
}

// Notify implements Notifier. The first line of text becomes the subject;
// the body is sent as both plain text and rendered HTML.
func (e *EmailNotifier) Notify(ctx context.Context, text string) error {
	if len(e.to) == 0 {
		return fmt.Errorf("email notify: no recipients")
	}
	var html bytes.Buffer
	if err := e.md.Convert([]byte(text), &html); err != nil {
		return fmt.Errorf("email notify: render: %w", err)
	}

	subject, _, _ := strings.Cut(strings.TrimSpace(text), "\n")
	_, err := e.sender.Send(ctx, email.SendRequest{
		To:      e.to,
		From:    e.from,
		Subject: subject,
		HTML:    html.String(),
		Text:    text,
	})
	return err
}
