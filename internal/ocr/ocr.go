package ocr

import "context"

// Extractor turns raw PDF bytes into plain text.
type Extractor interface {
	Extract(ctx context.Context, pdfBytes []byte) (string, error)
}
