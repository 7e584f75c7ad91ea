package documents

import (
	"time"

	"contadoc-backend/internal/classify"
)

// Status is the lifecycle state of a document. The only transitions are
// PROCESSING -> {AVAILABLE, PROCESSING_ERROR} and AVAILABLE -> VIEWED on the
// first successful download.
type Status string

const (
	StatusProcessing      Status = "PROCESSING"
	StatusAvailable       Status = "AVAILABLE"
	StatusViewed          Status = "VIEWED"
	StatusProcessingError Status = "PROCESSING_ERROR"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusProcessing, StatusAvailable, StatusViewed, StatusProcessingError:
		return true
	}
	return false
}

// Document is an uploaded file owned by a company. Processing fields (name,
// category, handle, text excerpt, confidence) are overwritten by the
// ingestion worker and stay idempotent across re-processing attempts.
type Document struct {
	ID            string
	OriginalName  string
	FileName      string
	Category      classify.Category
	Status        Status
	SizeBytes     int64
	MimeType      string
	SHA256        string
	StorageHandle string
	CompanyID     string
	DetectedCNPJ  string
	OCRConfidence float64
	ExtractedText string
	Encrypted     bool
	UploadedBy    string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// DownloadProtocol is the non-repudiation receipt created once per successful
// download. It is never updated; it is deleted only when its document is.
type DownloadProtocol struct {
	ID         string
	DocumentID string
	UserID     string
	Action     string
	IPAddress  string
	UserAgent  string
	FileHash   string
	CreatedAt  time.Time
}

// ProtocolActionDownload is the action recorded on download receipts.
const ProtocolActionDownload = "DOWNLOAD"
