package documents

import (
	"context"
	"time"

	"contadoc-backend/internal/classify"
)

// ListFilter narrows document listings. Zero values mean "no filter".
type ListFilter struct {
	CompanyID string
	Category  classify.Category
	Status    Status
	From      *time.Time
	To        *time.Time
	Limit     int
	Offset    int
}

// Finalization carries the processing fields the ingestion worker overwrites
// on a successful attempt.
type Finalization struct {
	DocumentID    string
	FileName      string
	Category      classify.Category
	DetectedCNPJ  string
	OCRConfidence float64
	ExtractedText string
	StorageHandle string
	SHA256        string
}

// Repo defines persistence operations for documents.
type Repo interface {
	Create(ctx context.Context, doc Document) error
	GetByID(ctx context.Context, id string) (Document, error)
	List(ctx context.Context, filter ListFilter) ([]Document, int, error)
	// Finalize applies a successful processing attempt: status becomes
	// AVAILABLE and the processing fields are overwritten in one update.
	Finalize(ctx context.Context, fin Finalization) error
	SetStatus(ctx context.Context, id string, status Status) error
	// MarkViewed advances AVAILABLE to VIEWED; any other current status is
	// left untouched.
	MarkViewed(ctx context.Context, id string) error
	// ReassignCompany atomically moves the document to another company.
	ReassignCompany(ctx context.Context, id, companyID string) error
	Delete(ctx context.Context, id string) error
}

// ProtocolRepo defines persistence for download receipts.
type ProtocolRepo interface {
	Create(ctx context.Context, p DownloadProtocol) error
	ListByDocument(ctx context.Context, documentID string) ([]DownloadProtocol, error)
}
