package ocr

import "errors"

// ErrUnavailable indicates that no OCR backend is configured.
var ErrUnavailable = errors.New("ocr backend not configured")

// FailureError wraps an OCR backend failure.
type FailureError struct {
	Op  string
	Err error
}

func (e *FailureError) Error() string {
	if e.Err == nil {
		return "ocr " + e.Op + " failed"
	}
	return "ocr " + e.Op + " failed: " + e.Err.Error()
}

func (e *FailureError) Unwrap() error { return e.Err }
