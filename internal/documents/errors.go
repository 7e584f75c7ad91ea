package documents

import "errors"

var (
	ErrNotFound     = errors.New("document not found")
	ErrInvalidInput = errors.New("invalid input")
	// ErrIntegrity flags a hash mismatch between the stored digest and the
	// decrypted payload; such content is never served.
	ErrIntegrity = errors.New("document integrity check failed")
	// ErrNotReprocessable flags a re-ingestion request for a document whose
	// original bytes were never stored.
	ErrNotReprocessable = errors.New("document has no stored payload to reprocess")
	// ErrNotAvailable flags a retrieval of a document still processing or in
	// a terminal error state.
	ErrNotAvailable = errors.New("document is not available for download")
)
