package worker

import (
	"context"
	"fmt"
	"time"

	"contadoc-backend/internal/classify"
	"contadoc-backend/internal/companies"
	"contadoc-backend/internal/documents"
	"contadoc-backend/internal/ingest"
	"contadoc-backend/internal/ocr"
	"contadoc-backend/internal/shared/crypto"
	"contadoc-backend/internal/shared/metrics"
	"contadoc-backend/internal/shared/telemetry"
	"contadoc-backend/internal/vault"
)

// Extracted text persisted on the document row is capped to keep rows small.
const excerptLimit = 5000

// Processor drives one ingestion attempt: OCR, classification, hashing,
// encrypted storage, document finalization, and company reassignment. Every
// step is idempotent with respect to the document row, so re-running after a
// failure (or a duplicate delivery) converges on the same final state.
type Processor struct {
	Docs      documents.Repo
	Companies companies.Repo
	Vault     *vault.Vault
	OCR       ocr.Extractor

	// Now is overridable for deterministic filenames in tests.
	Now func() time.Time
}

// Process runs a single attempt for the job. Errors are returned for the
// queue's retry policy; nothing is retried here.
func (p *Processor) Process(ctx context.Context, job ingest.Job) error {
	metrics.IncIngestStarted()
	started := time.Now()
	err := p.process(ctx, job)
	metrics.ObserveIngestDurationMs(float64(time.Since(started)) / float64(time.Millisecond))
	if err != nil {
		metrics.IncIngestFailed()
		return err
	}
	metrics.IncIngestCompleted()
	return nil
}

func (p *Processor) process(ctx context.Context, job ingest.Job) error {
	doc, err := p.Docs.GetByID(ctx, job.DocumentID)
	if err != nil {
		return fmt.Errorf("load document %s: %w", job.DocumentID, err)
	}

	payload := job.Payload
	if len(payload) == 0 {
		if doc.StorageHandle == "" {
			return fmt.Errorf("document %s: %w", doc.ID, documents.ErrNotReprocessable)
		}
		payload, err = p.Vault.Retrieve(ctx, doc.StorageHandle)
		if err != nil {
			return fmt.Errorf("retrieve staged payload: %w", err)
		}
	}

	text, err := p.OCR.Extract(ctx, payload)
	if err != nil {
		return fmt.Errorf("ocr: %w", err)
	}

	result := classify.Classify(text)
	cnpj := classify.ExtractCNPJ(text)
	hash := crypto.SHA256Hex(payload)
	fileName := classify.StandardFileName(result.Category, cnpj, doc.OriginalName, p.now())

	metadata := map[string]string{
		"companyId": doc.CompanyID,
		"category":  string(result.Category),
		"cnpj":      orUnknown(cnpj),
	}
	handle, err := p.Vault.Store(ctx, payload, fileName, metadata)
	if err != nil {
		return fmt.Errorf("store payload: %w", err)
	}

	fin := documents.Finalization{
		DocumentID:    doc.ID,
		FileName:      fileName,
		Category:      result.Category,
		DetectedCNPJ:  cnpj,
		OCRConfidence: result.Confidence,
		ExtractedText: excerpt(text),
		StorageHandle: handle,
		SHA256:        hash,
	}
	if err := p.Docs.Finalize(ctx, fin); err != nil {
		return fmt.Errorf("finalize document: %w", err)
	}

	// The staged upload-time object is superseded by the classified one.
	if doc.StorageHandle != "" && doc.StorageHandle != handle {
		if err := p.Vault.Remove(ctx, doc.StorageHandle); err != nil {
			telemetry.Error("ingest.stage.cleanup", map[string]any{
				"document_id": doc.ID,
				"handle":      doc.StorageHandle,
				"error":       err.Error(),
			})
		}
	}

	if err := p.reassign(ctx, doc, cnpj); err != nil {
		return err
	}

	telemetry.Info("ingest.document.processed", map[string]any{
		"document_id": doc.ID,
		"category":    string(result.Category),
		"confidence":  result.Confidence,
		"cnpj":        orUnknown(cnpj),
	})
	return nil
}

// reassign moves the document when the detected identifier is checksum-valid
// and resolves to a different known company than the current owner. A
// 14-digit run that fails the check digits is recorded on the row but never
// trusted for ownership.
func (p *Processor) reassign(ctx context.Context, doc documents.Document, cnpj string) error {
	if cnpj == "" || !classify.ValidCNPJ(cnpj) {
		return nil
	}

	company, err := p.Companies.GetByCNPJ(ctx, cnpj)
	if err != nil {
		if err == companies.ErrNotFound {
			return nil
		}
		return fmt.Errorf("resolve detected cnpj: %w", err)
	}
	if company.ID == doc.CompanyID {
		return nil
	}

	if err := p.Docs.ReassignCompany(ctx, doc.ID, company.ID); err != nil {
		return fmt.Errorf("reassign company: %w", err)
	}
	telemetry.Info("ingest.document.reassigned", map[string]any{
		"document_id":    doc.ID,
		"old_company_id": doc.CompanyID,
		"new_company_id": company.ID,
	})
	return nil
}

// MarkFailed records the terminal failure state after retry exhaustion. The
// document stays visible so an operator can re-trigger ingestion.
func (p *Processor) MarkFailed(ctx context.Context, documentID string) {
	if err := p.Docs.SetStatus(ctx, documentID, documents.StatusProcessingError); err != nil {
		telemetry.Error("ingest.mark_failed", map[string]any{
			"document_id": documentID,
			"error":       err.Error(),
		})
	}
}

func (p *Processor) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now().UTC()
}

func excerpt(text string) string {
	runes := []rune(text)
	if len(runes) <= excerptLimit {
		return text
	}
	return string(runes[:excerptLimit])
}

func orUnknown(cnpj string) string {
	if cnpj == "" {
		return "unknown"
	}
	return cnpj
}

var _ ingest.Handler = (*Processor)(nil)
