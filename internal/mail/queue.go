package mail

import (
	"context"
	"time"

	"coverletter-backend/internal/queue"
)

// QueueSender hands messages to the outbox queue; cmd/worker delivers them.
type QueueSender struct {
	Queue queue.Client
	now   func() time.Time
}

func NewQueueSender(q queue.Client) *QueueSender {
	return &QueueSender{Queue: q, now: time.Now}
}

func (s *QueueSender) Deliver(ctx context.Context, msg Message) error {
	return s.Queue.Send(ctx, queue.Message{
		To:         msg.To,
		Subject:    msg.Subject,
		Body:       msg.Body,
		EnqueuedAt: s.now().UTC().Format(time.RFC3339),
		Version:    queue.MessageVersion,
	})
}
