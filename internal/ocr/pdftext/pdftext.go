package pdftext

import (
	"bytes"
	"context"
	"io"

	"github.com/ledongthuc/pdf"

	"contadoc-backend/internal/ocr"
)

// Extractor reads the embedded text layer of born-digital PDFs. It is the
// local/dev extractor; scanned documents need the Azure backend.
type Extractor struct{}

// New constructs a text-layer extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extract returns the plain text content of the PDF's text layer.
func (e *Extractor) Extract(ctx context.Context, pdfBytes []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	reader := bytes.NewReader(pdfBytes)
	pdfReader, err := pdf.NewReader(reader, int64(len(pdfBytes)))
	if err != nil {
		return "", &ocr.FailureError{Op: "parse", Err: err}
	}

	plain, err := pdfReader.GetPlainText()
	if err != nil {
		return "", &ocr.FailureError{Op: "extract", Err: err}
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", &ocr.FailureError{Op: "extract", Err: err}
	}
	return buf.String(), nil
}

var _ ocr.Extractor = (*Extractor)(nil)
