package main

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"contadoc-backend/internal/ingest"
)

type fakeSQS struct {
	deleted []string
}

func (f *fakeSQS) ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	_ = ctx
	_ = params
	_ = optFns
	return &sqs.ReceiveMessageOutput{}, nil
}

func (f *fakeSQS) DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
	_ = ctx
	_ = optFns
	f.deleted = append(f.deleted, aws.ToString(params.ReceiptHandle))
	return &sqs.DeleteMessageOutput{}, nil
}

type fakeProcessor struct {
	err    error
	failed []string
}

func (f *fakeProcessor) Process(ctx context.Context, job ingest.Job) error {
	_ = ctx
	_ = job
	return f.err
}

func (f *fakeProcessor) MarkFailed(ctx context.Context, documentID string) {
	_ = ctx
	f.failed = append(f.failed, documentID)
}

func encodedMessage(t *testing.T, documentID string) string {
	t.Helper()
	body, err := ingest.EncodeMessage(ingest.Job{JobID: "job-1", DocumentID: documentID})
	if err != nil {
		t.Fatalf("encode message: %v", err)
	}
	return string(body)
}

func TestWorkerDeletesMessageOnSuccess(t *testing.T) {
	client := &fakeSQS{}
	proc := &fakeProcessor{}
	msg := sqstypes.Message{
		MessageId:     aws.String("m1"),
		ReceiptHandle: aws.String("r1"),
		Body:          aws.String(encodedMessage(t, "doc-1")),
		Attributes:    map[string]string{"ApproximateReceiveCount": "1"},
	}

	handleMessage(context.Background(), proc, client, "queue", msg)

	if len(client.deleted) != 1 {
		t.Fatalf("expected delete, got %d", len(client.deleted))
	}
	if len(proc.failed) != 0 {
		t.Fatalf("expected no failure marks, got %v", proc.failed)
	}
}

func TestWorkerLeavesMessageForRetry(t *testing.T) {
	client := &fakeSQS{}
	proc := &fakeProcessor{err: errors.New("boom")}
	msg := sqstypes.Message{
		MessageId:     aws.String("m2"),
		ReceiptHandle: aws.String("r2"),
		Body:          aws.String(encodedMessage(t, "doc-2")),
		Attributes:    map[string]string{"ApproximateReceiveCount": "1"},
	}

	handleMessage(context.Background(), proc, client, "queue", msg)

	if len(client.deleted) != 0 {
		t.Fatalf("expected no delete, got %d", len(client.deleted))
	}
	if len(proc.failed) != 0 {
		t.Fatalf("expected no failure marks yet, got %v", proc.failed)
	}
}

func TestWorkerMarksFailedOnLastAttempt(t *testing.T) {
	client := &fakeSQS{}
	proc := &fakeProcessor{err: errors.New("boom")}
	msg := sqstypes.Message{
		MessageId:     aws.String("m3"),
		ReceiptHandle: aws.String("r3"),
		Body:          aws.String(encodedMessage(t, "doc-3")),
		Attributes:    map[string]string{"ApproximateReceiveCount": "3"},
	}

	handleMessage(context.Background(), proc, client, "queue", msg)

	if len(client.deleted) != 1 {
		t.Fatalf("expected delete, got %d", len(client.deleted))
	}
	if len(proc.failed) != 1 || proc.failed[0] != "doc-3" {
		t.Fatalf("expected doc-3 marked failed, got %v", proc.failed)
	}
}

func TestWorkerMarksFailedPastMaxAttempts(t *testing.T) {
	client := &fakeSQS{}
	proc := &fakeProcessor{}
	msg := sqstypes.Message{
		MessageId:     aws.String("m4"),
		ReceiptHandle: aws.String("r4"),
		Body:          aws.String(encodedMessage(t, "doc-4")),
		Attributes:    map[string]string{"ApproximateReceiveCount": "4"},
	}

	handleMessage(context.Background(), proc, client, "queue", msg)

	if len(client.deleted) != 1 {
		t.Fatalf("expected delete, got %d", len(client.deleted))
	}
	if len(proc.failed) != 1 || proc.failed[0] != "doc-4" {
		t.Fatalf("expected doc-4 marked failed, got %v", proc.failed)
	}
}

func TestWorkerDeletesOnInvalidJSON(t *testing.T) {
	client := &fakeSQS{}
	proc := &fakeProcessor{}
	msg := sqstypes.Message{
		MessageId:     aws.String("m5"),
		ReceiptHandle: aws.String("r5"),
		Body:          aws.String("{bad-json"),
	}

	handleMessage(context.Background(), proc, client, "queue", msg)

	if len(client.deleted) != 1 {
		t.Fatalf("expected delete, got %d", len(client.deleted))
	}
	if len(proc.failed) != 0 {
		t.Fatalf("expected no failure marks, got %v", proc.failed)
	}
}
