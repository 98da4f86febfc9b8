package mailer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shyamsasidharan1/eventbuddy/config"
)

func newTestMailer() *SMTPMailer {
	return NewSMTPMailer(&config.MailConfig{
		SMTPHost: "localhost",
		SMTPPort: 2525,
		From:     "no-reply@eventbuddy.local",
		FromName: "EventBuddy",
	})
}

func TestRender(t *testing.T) {
	buf, err := newTestMailer().Render(Message{To: "ana@example.org", Subject: "Hello", Body: "Welcome aboard"})
	require.NoError(t, err)

	raw := buf.String()
	assert.Contains(t, raw, "ana@example.org")
	assert.Contains(t, raw, "Subject: Hello")
	assert.Contains(t, raw, "no-reply@eventbuddy.local")
}

func TestSend_RejectsEmptyRecipient(t *testing.T) {
	err := newTestMailer().Send(context.Background(), Message{Subject: "x", Body: "y"})
	assert.Error(t, err)
}

func TestSend_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := newTestMailer().Send(ctx, Message{To: "a@b.c"})
	assert.ErrorIs(t, err, context.Canceled)
}
