package ingest

import (
	"encoding/json"
	"time"
)

// Job is the unit of asynchronous ingestion work. Payload holds the raw PDF
// bytes for the in-process queue; the SQS transport omits it (the staged
// encrypted object referenced by the document row is the source of truth
// there) so Payload never crosses the wire.
type Job struct {
	JobID             string
	DocumentID        string
	Payload           []byte
	DeclaredCompanyID string
	UploadedBy        string
	// Attempt is 1-based and set by the delivery mechanism.
	Attempt int
}

// Message is the JSON payload sent to the SQS queue.
type Message struct {
	JobID             string `json:"jobId"`
	DocumentID        string `json:"documentId"`
	DeclaredCompanyID string `json:"declaredCompanyId"`
	UploadedBy        string `json:"uploadedBy"`
	EnqueuedAt        string `json:"enqueuedAt"`
}

// EncodeMessage returns the JSON representation of a job for SQS transport.
func EncodeMessage(job Job) ([]byte, error) {
	return json.Marshal(Message{
		JobID:             job.JobID,
		DocumentID:        job.DocumentID,
		DeclaredCompanyID: job.DeclaredCompanyID,
		UploadedBy:        job.UploadedBy,
		EnqueuedAt:        time.Now().UTC().Format(time.RFC3339),
	})
}

// DecodeMessage parses a JSON payload into a Job.
func DecodeMessage(payload []byte) (Job, error) {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return Job{}, err
	}
	return Job{
		JobID:             msg.JobID,
		DocumentID:        msg.DocumentID,
		DeclaredCompanyID: msg.DeclaredCompanyID,
		UploadedBy:        msg.UploadedBy,
	}, nil
}
