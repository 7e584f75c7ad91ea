package blob

import (
	"context"
	"errors"
)

// Store is the contract for the external object store. Handles are opaque
// locator strings; metadata travels with the object.
type Store interface {
	Put(ctx context.Context, name string, data []byte, metadata map[string]string) (handle string, err error)
	Get(ctx context.Context, handle string) (data []byte, metadata map[string]string, err error)
	Delete(ctx context.Context, handle string) error
}

// ErrUnavailable indicates that no storage backend is configured.
var ErrUnavailable = errors.New("blob storage not configured")

// OpError wraps a storage backend failure.
type OpError struct {
	Op     string
	Handle string
	Err    error
}

func (e *OpError) Error() string {
	msg := "blob " + e.Op + " failed"
	if e.Handle != "" {
		msg += " handle=" + e.Handle
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *OpError) Unwrap() error { return e.Err }
