package main

// Build the Lambda handler binary for the mail outbox queue:
//   GOOS=linux GOARCH=amd64 CGO_ENABLED=0 go build -o bootstrap ./cmd/lambda-worker

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"coverletter-backend/internal/mail"
	"coverletter-backend/internal/queue"
	"coverletter-backend/internal/shared/config"
	"coverletter-backend/internal/shared/metrics"
	"coverletter-backend/internal/shared/telemetry"
)

var (
	initOnce sync.Once
	initErr  error
	sender   mail.Sender
)

func initSender() {
	cfg := config.Load()
	if strings.TrimSpace(cfg.SMTPHost) == "" {
		initErr = errors.New("SMTP_HOST is required")
		return
	}
	sender = mail.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.MailFrom)
}

func handler(ctx context.Context, event events.SQSEvent) (events.SQSEventResponse, error) {
	initOnce.Do(initSender)
	if initErr != nil {
		log.Printf("init error: %v", initErr)
		failures := make([]events.SQSBatchItemFailure, 0, len(event.Records))
		for _, record := range event.Records {
			failures = append(failures, events.SQSBatchItemFailure{ItemIdentifier: record.MessageId})
		}
		return events.SQSEventResponse{BatchItemFailures: failures}, initErr
	}
	return deliverBatch(ctx, sender, event), nil
}

// deliverBatch reports failed deliveries for retry. Undecodable records are
// dropped since a retry cannot fix them.
func deliverBatch(ctx context.Context, s mail.Sender, event events.SQSEvent) events.SQSEventResponse {
	failures := make([]events.SQSBatchItemFailure, 0)
	for _, record := range event.Records {
		metrics.IncMailJobsReceived()
		msg, err := queue.DecodeMessage([]byte(record.Body))
		if err != nil {
			telemetry.Error("worker.mail.decode_failed", map[string]any{"sqs_message_id": record.MessageId, "error": err})
			metrics.IncMailJobsDropped()
			continue
		}
		if err := s.Deliver(ctx, mail.Message{To: msg.To, Subject: msg.Subject, Body: msg.Body}); err != nil {
			telemetry.Warn("worker.mail.failed", map[string]any{"sqs_message_id": record.MessageId, "error": err})
			metrics.IncMailFailed()
			failures = append(failures, events.SQSBatchItemFailure{ItemIdentifier: record.MessageId})
			continue
		}
		metrics.IncMailJobsDelivered()
	}
	return events.SQSEventResponse{BatchItemFailures: failures}
}

func main() {
	lambda.Start(handler)
}
