package main

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
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"contadoc-backend/internal/bootstrap"
	"contadoc-backend/internal/ingest"
	"contadoc-backend/internal/shared/config"
	"contadoc-backend/internal/shared/telemetry"
)

const (
	defaultVisibilitySeconds  = 300
	defaultShutdownTimeoutSec = 30
)

func main() {
	cfg := config.Load()

	if cfg.QueueBackend != "sqs" {
		log.Fatal("worker requires QUEUE_BACKEND=sqs; the memory queue runs in-process with the API")
	}
	queueURL := strings.TrimSpace(cfg.SQSQueueURL)
	if queueURL == "" {
		log.Fatal("SQS_QUEUE_URL is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	visibilitySeconds := envInt("SQS_VISIBILITY_TIMEOUT_SECONDS", defaultVisibilitySeconds)
	shutdownTimeout := time.Duration(envInt("SHUTDOWN_TIMEOUT_SECONDS", defaultShutdownTimeoutSec)) * time.Second
	concurrency := cfg.WorkerConcurrency
	if concurrency < 1 {
		concurrency = 1
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		log.Fatalf("load aws config: %v", err)
	}
	var sqsClient sqsAPI = sqs.NewFromConfig(awsCfg)

	app, err := bootstrap.Build(cfg)
	if err != nil {
		log.Fatalf("bootstrap build: %v", err)
	}

	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	log.Printf("worker started queue=%s concurrency=%d visibility=%ds", queueURL, concurrency, visibilitySeconds)

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
			wg.Add(1)
			go func(m sqstypes.Message) {
				defer wg.Done()
				defer func() { <-sem }()
				handleMessage(ctx, app.Processor, sqsClient, queueURL, m)
			}(msg)
		}
	}

	log.Printf("shutdown requested, waiting up to %s for in-flight jobs", shutdownTimeout)
	waitDone := make(chan struct{})
	go func() {
		wg.Wait()
		close(waitDone)
	}()
	select {
	case <-waitDone:
	case <-time.After(shutdownTimeout):
		log.Printf("shutdown timeout reached; exiting with in-flight jobs")
	}

	drainCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	app.Shutdown(drainCtx)
}

type sqsAPI interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

type ingestProcessor interface {
	Process(ctx context.Context, job ingest.Job) error
	MarkFailed(ctx context.Context, documentID string)
}

func handleMessage(ctx context.Context, proc ingestProcessor, client sqsAPI, queueURL string, msg sqstypes.Message) {
	body := aws.ToString(msg.Body)
	if strings.TrimSpace(body) == "" {
		fields := baseFields(msg, "")
		fields["body_len"] = 0
		telemetry.Error("worker.ingest.empty_body", fields)
		deleteMessage(ctx, client, queueURL, msg, "")
		return
	}

	job, err := ingest.DecodeMessage([]byte(body))
	if err != nil {
		fields := baseFields(msg, "")
		fields["error"] = err.Error()
		telemetry.Error("worker.ingest.decode_failed", fields)
		deleteMessage(ctx, client, queueURL, msg, "")
		return
	}
	job.Attempt = receiveCount(msg)
	if job.Attempt < 1 {
		job.Attempt = 1
	}

	if job.Attempt > ingest.MaxAttempts {
		fields := baseFields(msg, job.DocumentID)
		fields["attempt"] = job.Attempt
		telemetry.Error("worker.ingest.exhausted", fields)
		proc.MarkFailed(ctx, job.DocumentID)
		deleteMessage(ctx, client, queueURL, msg, job.DocumentID)
		return
	}

	telemetry.Info("worker.ingest.received", baseFields(msg, job.DocumentID))

	if err := proc.Process(ctx, job); err != nil {
		fields := baseFields(msg, job.DocumentID)
		fields["attempt"] = job.Attempt
		fields["error"] = err.Error()
		if job.Attempt >= ingest.MaxAttempts {
			telemetry.Error("worker.ingest.exhausted", fields)
			proc.MarkFailed(ctx, job.DocumentID)
			deleteMessage(ctx, client, queueURL, msg, job.DocumentID)
			return
		}
		// Leave the message for redelivery; the visibility timeout acts as
		// the backoff between attempts.
		telemetry.Error("worker.ingest.failed", fields)
		return
	}

	if deleteMessage(ctx, client, queueURL, msg, job.DocumentID) {
		telemetry.Info("worker.ingest.completed", baseFields(msg, job.DocumentID))
	}
}

func deleteMessage(ctx context.Context, client sqsAPI, queueURL string, msg sqstypes.Message, documentID string) bool {
	receipt := aws.ToString(msg.ReceiptHandle)
	if receipt == "" {
		fields := baseFields(msg, documentID)
		fields["error"] = "missing receipt handle"
		telemetry.Error("worker.ingest.delete_failed", fields)
		return false
	}
	if _, err := client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(queueURL),
		ReceiptHandle: aws.String(receipt),
	}); err != nil {
		fields := baseFields(msg, documentID)
		fields["error"] = err.Error()
		telemetry.Error("worker.ingest.delete_failed", fields)
		return false
	}
	return true
}

func baseFields(msg sqstypes.Message, documentID string) map[string]any {
	return map[string]any{
		"document_id":    documentID,
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
