package ingest

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/google/uuid"
)

// SQSQueue sends ingestion jobs to AWS SQS for the separate worker process
// (cmd/worker) to consume. Retry and backoff ride on SQS redelivery there.
type SQSQueue struct {
	client   *sqs.Client
	queueURL string
}

// NewSQSQueue constructs an SQS-backed queue.
func NewSQSQueue(ctx context.Context, region, queueURL string) (*SQSQueue, error) {
	if strings.TrimSpace(queueURL) == "" {
		return nil, fmt.Errorf("sqs queue url is required")
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{}
	if region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return &SQSQueue{
		client:   sqs.NewFromConfig(cfg),
		queueURL: queueURL,
	}, nil
}

// Enqueue delivers a job message to the configured queue. The raw payload is
// not sent; the worker reads the staged object referenced by the document.
func (q *SQSQueue) Enqueue(ctx context.Context, job Job) (string, error) {
	if job.JobID == "" {
		job.JobID = uuid.NewString()
	}

	payload, err := EncodeMessage(job)
	if err != nil {
		return "", fmt.Errorf("encode sqs message: %w", err)
	}

	_, err = q.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(q.queueURL),
		MessageBody: aws.String(string(payload)),
	})
	if err != nil {
		return "", fmt.Errorf("sqs send message: %w", err)
	}
	return job.JobID, nil
}

// Shutdown is a no-op; the queue is durable and external.
func (q *SQSQueue) Shutdown(ctx context.Context) {}

var _ Queue = (*SQSQueue)(nil)
