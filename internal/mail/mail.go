// Package mail sends account e-mails in the background.
package mail

import (
	"context"
	"sync"
	"time"

	"coverletter-backend/internal/shared/metrics"
	"coverletter-backend/internal/shared/telemetry"
)

const defaultTimeout = 30 * time.Second

// Message is a plain text e-mail.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers one message synchronously.
type Sender interface {
	Deliver(ctx context.Context, msg Message) error
}

// Notifier sends messages asynchronously. Failures are logged and counted,
// never returned to the caller.
type Notifier struct {
	Sender  Sender
	Timeout time.Duration

	wg sync.WaitGroup
}

func NewNotifier(sender Sender) *Notifier {
	return &Notifier{Sender: sender, Timeout: defaultTimeout}
}

// Send queues a message and returns immediately.
func (n *Notifier) Send(recipient, subject, body string) {
	msg := Message{To: recipient, Subject: subject, Body: body}
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		n.deliver(msg)
	}()
}

// Wait blocks until queued messages have been attempted.
func (n *Notifier) Wait() {
	n.wg.Wait()
}

func (n *Notifier) deliver(msg Message) {
	timeout := n.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := n.Sender.Deliver(ctx, msg); err != nil {
		metrics.IncMailFailed()
		telemetry.Error("mail.failed", map[string]any{
			"recipient": msg.To,
			"subject":   msg.Subject,
			"error":     err,
		})
		return
	}
	telemetry.Info("mail.sent", map[string]any{"recipient": msg.To, "subject": msg.Subject})
}

// LogSender only logs messages. It is used when no SMTP host is configured.
type LogSender struct{}

func (LogSender) Deliver(ctx context.Context, msg Message) error {
	telemetry.Info("mail.skipped", map[string]any{
		"recipient": msg.To,
		"subject":   msg.Subject,
		"reason":    "smtp not configured",
	})
	return nil
}
