package main

// Deliver queued e-mails from the SQS outbox:
//   MAIL_QUEUE_URL=... SMTP_HOST=... go run ./cmd/worker

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"coverletter-backend/internal/mail"
	"coverletter-backend/internal/queue"
	"coverletter-backend/internal/shared/config"
	"coverletter-backend/internal/shared/metrics"
	"coverletter-backend/internal/shared/telemetry"
)

const (
	defaultVisibilitySeconds  = 120
	defaultWorkerConcurrency  = 4
	defaultMaxAttempts        = 5
	defaultShutdownTimeoutSec = 30
)

func main() {
	cfg := config.Load()

	queueURL := strings.TrimSpace(cfg.MailQueueURL)
	if queueURL == "" {
		log.Fatal("MAIL_QUEUE_URL is required")
	}
	if strings.TrimSpace(cfg.SMTPHost) == "" {
		log.Fatal("SMTP_HOST is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	visibilitySeconds := envInt("MAIL_VISIBILITY_TIMEOUT_SECONDS", defaultVisibilitySeconds)
	concurrency := envInt("MAIL_WORKER_CONCURRENCY", defaultWorkerConcurrency)
	shutdownTimeout := time.Duration(envInt("MAIL_SHUTDOWN_TIMEOUT_SECONDS", defaultShutdownTimeoutSec)) * time.Second

	client, err := queue.NewSQSClient(ctx, cfg.AWSRegion, queueURL)
	if err != nil {
		log.Fatalf("mail queue: %v", err)
	}
	var sqsClient sqsAPI = client.SQS()

	w := &worker{
		client:      sqsClient,
		queueURL:    queueURL,
		sender:      mail.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.MailFrom),
		maxAttempts: envInt("MAIL_MAX_ATTEMPTS", defaultMaxAttempts),
	}

	sem := make(chan struct{}, max(1, concurrency))
	var wg sync.WaitGroup

	log.Printf("mail worker started queue=%s concurrency=%d visibility=%ds", queueURL, concurrency, visibilitySeconds)

pollLoop:
	for {
		select {
		case <-ctx.Done():
			break pollLoop
		default:
		}

		resp, err := sqsClient.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:            aws.String(queueURL),
			MaxNumberOfMessages: 10,
			WaitTimeSeconds:     20,
			VisibilityTimeout:   int32(visibilitySeconds),
			AttributeNames:      []sqstypes.QueueAttributeName{sqstypes.QueueAttributeName("ApproximateReceiveCount")},
		})
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
				break pollLoop
			}
			log.Printf("receive message: %v", err)
			continue
		}

		for _, msg := range resp.Messages {
			select {
			case <-ctx.Done():
				break pollLoop
			case sem <- struct{}{}:
			}
			metrics.IncMailJobsReceived()
			wg.Add(1)
			go func(m sqstypes.Message) {
				defer wg.Done()
				defer func() { <-sem }()
				w.handleMessage(ctx, m)
			}(msg)
		}
	}

	log.Printf("shutdown requested, waiting up to %s for in-flight deliveries", shutdownTimeout)
	waitDone := make(chan struct{})
	go func() {
		wg.Wait()
		close(waitDone)
	}()
	select {
	case <-waitDone:
	case <-time.After(shutdownTimeout):
		log.Printf("shutdown timeout reached; exiting with in-flight deliveries")
	}
}

type sqsAPI interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

type worker struct {
	client      sqsAPI
	queueURL    string
	sender      mail.Sender
	maxAttempts int
}

// handleMessage delivers one outbox message. Undecodable messages are
// dropped; failed deliveries stay on the queue until maxAttempts.
func (w *worker) handleMessage(ctx context.Context, msg sqstypes.Message) {
	body := aws.ToString(msg.Body)
	decoded, err := queue.DecodeMessage([]byte(body))
	if err != nil {
		fields := baseFields(msg)
		fields["body_len"] = len(body)
		fields["error"] = err
		telemetry.Error("worker.mail.decode_failed", fields)
		if w.deleteMessage(ctx, msg) {
			metrics.IncMailJobsDropped()
		}
		return
	}

	if err := w.sender.Deliver(ctx, mail.Message{To: decoded.To, Subject: decoded.Subject, Body: decoded.Body}); err != nil {
		metrics.IncMailFailed()
		fields := baseFields(msg)
		fields["error"] = err
		if w.maxAttempts > 0 && receiveCount(msg) >= w.maxAttempts {
			telemetry.Error("worker.mail.dropped", fields)
			if w.deleteMessage(ctx, msg) {
				metrics.IncMailJobsDropped()
			}
			return
		}
		telemetry.Warn("worker.mail.failed", fields)
		return
	}

	if w.deleteMessage(ctx, msg) {
		telemetry.Info("worker.mail.delivered", baseFields(msg))
		metrics.IncMailJobsDelivered()
	}
}

func (w *worker) deleteMessage(ctx context.Context, msg sqstypes.Message) bool {
	receipt := aws.ToString(msg.ReceiptHandle)
	if receipt == "" {
		fields := baseFields(msg)
		fields["error"] = "missing receipt handle"
		telemetry.Error("worker.mail.delete_failed", fields)
		return false
	}
	if _, err := w.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(w.queueURL),
		ReceiptHandle: aws.String(receipt),
	}); err != nil {
		fields := baseFields(msg)
		fields["error"] = err
		telemetry.Error("worker.mail.delete_failed", fields)
		return false
	}
	return true
}

func baseFields(msg sqstypes.Message) map[string]any {
	return map[string]any{
		"sqs_message_id": aws.ToString(msg.MessageId),
		"receive_count":  receiveCount(msg),
	}
}

func receiveCount(msg sqstypes.Message) int {
	if msg.Attributes == nil {
		return 0
	}
	raw := msg.Attributes["ApproximateReceiveCount"]
	if raw == "" {
		return 0
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return parsed
}

func envInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return val
}
