package documents

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"contadoc-backend/internal/companies"
	"contadoc-backend/internal/ingest"
	"contadoc-backend/internal/shared/crypto"
	"contadoc-backend/internal/shared/telemetry"
	"contadoc-backend/internal/vault"
)

// Service contains business logic for documents. Authorization is the
// handler's concern; the service trusts the scope it is handed.
type Service struct {
	Repo      Repo
	Protocols ProtocolRepo
	Companies companies.Repo
	Vault     *vault.Vault
	Queue     ingest.Queue
}

// UploadInput is a file received for ingestion, already scope-checked.
type UploadInput struct {
	CompanyID    string
	UploadedBy   string
	OriginalName string
	MimeType     string
	Data         []byte
}

// Upload stages the encrypted payload, records the document in PROCESSING
// state, and enqueues the ingestion job, returning the job id alongside the
// new row. The staged object makes the raw bytes durable before the job is
// acknowledged, so a worker on another process (or a later reprocess) always
// has something to read.
func (s *Service) Upload(ctx context.Context, in UploadInput) (Document, string, error) {
	if strings.TrimSpace(in.OriginalName) == "" {
		return Document{}, "", fmt.Errorf("%w: file name is required", ErrInvalidInput)
	}
	if !isPDF(in.OriginalName, in.MimeType) {
		return Document{}, "", fmt.Errorf("%w: only PDF files are accepted", ErrInvalidInput)
	}
	if len(in.Data) == 0 {
		return Document{}, "", fmt.Errorf("%w: empty file", ErrInvalidInput)
	}

	company, err := s.Companies.GetByID(ctx, in.CompanyID)
	if err != nil {
		if err == companies.ErrNotFound {
			return Document{}, "", fmt.Errorf("%w: unknown company", ErrInvalidInput)
		}
		return Document{}, "", err
	}
	if !company.Active {
		return Document{}, "", fmt.Errorf("%w: company is inactive", ErrInvalidInput)
	}

	handle, err := s.Vault.Store(ctx, in.Data, in.OriginalName, map[string]string{
		"companyId":    company.ID,
		"originalName": in.OriginalName,
		"stage":        "upload",
	})
	if err != nil {
		return Document{}, "", fmt.Errorf("stage payload: %w", err)
	}

	now := time.Now().UTC()
	doc := Document{
		ID:            uuid.NewString(),
		OriginalName:  in.OriginalName,
		Status:        StatusProcessing,
		SHA256:        crypto.SHA256Hex(in.Data),
		SizeBytes:     int64(len(in.Data)),
		MimeType:      in.MimeType,
		StorageHandle: handle,
		CompanyID:     company.ID,
		Encrypted:     true,
		UploadedBy:    in.UploadedBy,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.Repo.Create(ctx, doc); err != nil {
		return Document{}, "", err
	}

	jobID, err := s.Queue.Enqueue(ctx, ingest.Job{
		DocumentID:        doc.ID,
		Payload:           in.Data,
		DeclaredCompanyID: company.ID,
		UploadedBy:        in.UploadedBy,
	})
	if err != nil {
		// The row and staged payload survive; an operator can re-trigger
		// ingestion instead of asking for the file again.
		telemetry.Error("documents.enqueue.failed", map[string]any{
			"document_id": doc.ID,
			"error":       err.Error(),
		})
		if serr := s.Repo.SetStatus(ctx, doc.ID, StatusProcessingError); serr != nil {
			telemetry.Error("documents.enqueue.mark_error", map[string]any{
				"document_id": doc.ID,
				"error":       serr.Error(),
			})
		}
		return Document{}, "", fmt.Errorf("enqueue ingestion job: %w", err)
	}

	telemetry.Info("documents.uploaded", map[string]any{
		"document_id": doc.ID,
		"company_id":  company.ID,
		"job_id":      jobID,
		"size_bytes":  doc.SizeBytes,
	})
	return doc, jobID, nil
}

// Get returns a document by id.
func (s *Service) Get(ctx context.Context, id string) (Document, error) {
	if id == "" {
		return Document{}, ErrInvalidInput
	}
	return s.Repo.GetByID(ctx, id)
}

// List returns documents matching the filter plus the unpaged total.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Document, int, error) {
	return s.Repo.List(ctx, filter)
}

// DownloadInput identifies the caller for the non-repudiation receipt.
type DownloadInput struct {
	UserID    string
	IPAddress string
	UserAgent string
}

// DownloadResult carries the decrypted payload and its receipt.
type DownloadResult struct {
	Data     []byte
	FileName string
	MimeType string
	Protocol DownloadProtocol
}

// Download decrypts and returns the payload, verifying the stored hash
// against the plaintext. Every successful download appends one receipt; the
// first one also advances AVAILABLE to VIEWED.
func (s *Service) Download(ctx context.Context, doc Document, in DownloadInput) (DownloadResult, error) {
	if doc.Status != StatusAvailable && doc.Status != StatusViewed {
		return DownloadResult{}, fmt.Errorf("%w: document is %s", ErrNotAvailable, doc.Status)
	}

	data, err := s.Vault.Retrieve(ctx, doc.StorageHandle)
	if err != nil {
		return DownloadResult{}, fmt.Errorf("retrieve payload: %w", err)
	}
	if got := crypto.SHA256Hex(data); got != doc.SHA256 {
		telemetry.Error("documents.integrity.mismatch", map[string]any{
			"document_id": doc.ID,
			"stored":      doc.SHA256,
			"computed":    got,
		})
		return DownloadResult{}, ErrIntegrity
	}

	protocol := DownloadProtocol{
		ID:         uuid.NewString(),
		DocumentID: doc.ID,
		UserID:     in.UserID,
		Action:     ProtocolActionDownload,
		IPAddress:  in.IPAddress,
		UserAgent:  in.UserAgent,
		FileHash:   doc.SHA256,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.Protocols.Create(ctx, protocol); err != nil {
		return DownloadResult{}, fmt.Errorf("record download protocol: %w", err)
	}

	if err := s.Repo.MarkViewed(ctx, doc.ID); err != nil {
		telemetry.Error("documents.mark_viewed", map[string]any{
			"document_id": doc.ID,
			"error":       err.Error(),
		})
	}

	name := doc.FileName
	if name == "" {
		name = doc.OriginalName
	}
	return DownloadResult{
		Data:     data,
		FileName: name,
		MimeType: doc.MimeType,
		Protocol: protocol,
	}, nil
}

// ListProtocols returns a document's download receipts, newest first.
func (s *Service) ListProtocols(ctx context.Context, documentID string) ([]DownloadProtocol, error) {
	return s.Protocols.ListByDocument(ctx, documentID)
}

// Reprocess re-enqueues ingestion for a document whose payload is still
// staged. The worker reads the bytes back from storage.
func (s *Service) Reprocess(ctx context.Context, id string) (string, error) {
	doc, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if doc.StorageHandle == "" {
		return "", ErrNotReprocessable
	}

	if err := s.Repo.SetStatus(ctx, doc.ID, StatusProcessing); err != nil {
		return "", err
	}
	jobID, err := s.Queue.Enqueue(ctx, ingest.Job{
		DocumentID:        doc.ID,
		DeclaredCompanyID: doc.CompanyID,
		UploadedBy:        doc.UploadedBy,
	})
	if err != nil {
		if serr := s.Repo.SetStatus(ctx, doc.ID, StatusProcessingError); serr != nil {
			telemetry.Error("documents.reprocess.mark_error", map[string]any{
				"document_id": doc.ID,
				"error":       serr.Error(),
			})
		}
		return "", fmt.Errorf("enqueue ingestion job: %w", err)
	}

	telemetry.Info("documents.reprocess", map[string]any{
		"document_id": doc.ID,
		"job_id":      jobID,
	})
	return jobID, nil
}

// Delete removes the document row and its stored payload. Receipt rows go
// with the document via the schema's cascade.
func (s *Service) Delete(ctx context.Context, id string) error {
	doc, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.Repo.Delete(ctx, doc.ID); err != nil {
		return err
	}
	if doc.StorageHandle != "" {
		if err := s.Vault.Remove(ctx, doc.StorageHandle); err != nil {
			telemetry.Error("documents.delete.blob", map[string]any{
				"document_id": doc.ID,
				"handle":      doc.StorageHandle,
				"error":       err.Error(),
			})
		}
	}
	telemetry.Info("documents.deleted", map[string]any{"document_id": doc.ID})
	return nil
}

func isPDF(name, mimeType string) bool {
	if strings.EqualFold(strings.TrimSpace(mimeType), "application/pdf") {
		return true
	}
	return strings.HasSuffix(strings.ToLower(name), ".pdf")
}
