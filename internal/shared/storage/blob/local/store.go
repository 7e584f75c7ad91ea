package local

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"contadoc-backend/internal/shared/storage/blob"
	"contadoc-backend/internal/shared/util"
)

const metaSuffix = ".meta.json"

// Store implements blob.Store on the local filesystem. Metadata is kept in a
// JSON sidecar next to each object.
type Store struct {
	baseDir string
}

// New creates a local blob store rooted at baseDir.
func New(baseDir string) blob.Store {
	return &Store{baseDir: baseDir}
}

// Put writes the object and its metadata sidecar under a random-prefixed name.
func (s *Store) Put(ctx context.Context, name string, data []byte, metadata map[string]string) (string, error) {
	sanitized, err := util.SanitizeFileName(name)
	if err != nil {
		return "", &blob.OpError{Op: "put", Err: err}
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if err := os.MkdirAll(s.baseDir, 0o755); err != nil {
		return "", &blob.OpError{Op: "put", Err: err}
	}

	handle := fmt.Sprintf("%s_%s", randomID(), sanitized)
	if err := os.WriteFile(filepath.Join(s.baseDir, handle), data, 0o644); err != nil {
		return "", &blob.OpError{Op: "put", Handle: handle, Err: err}
	}

	metaRaw, err := json.Marshal(metadata)
	if err != nil {
		return "", &blob.OpError{Op: "put", Handle: handle, Err: err}
	}
	if err := os.WriteFile(filepath.Join(s.baseDir, handle+metaSuffix), metaRaw, 0o644); err != nil {
		return "", &blob.OpError{Op: "put", Handle: handle, Err: err}
	}

	return handle, nil
}

// Get reads an object and its metadata sidecar.
func (s *Store) Get(ctx context.Context, handle string) ([]byte, map[string]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	if err := validHandle(handle); err != nil {
		return nil, nil, &blob.OpError{Op: "get", Handle: handle, Err: err}
	}

	data, err := os.ReadFile(filepath.Join(s.baseDir, handle))
	if err != nil {
		return nil, nil, &blob.OpError{Op: "get", Handle: handle, Err: err}
	}

	metadata := map[string]string{}
	metaRaw, err := os.ReadFile(filepath.Join(s.baseDir, handle+metaSuffix))
	if err == nil {
		if err := json.Unmarshal(metaRaw, &metadata); err != nil {
			return nil, nil, &blob.OpError{Op: "get", Handle: handle, Err: err}
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, nil, &blob.OpError{Op: "get", Handle: handle, Err: err}
	}

	return data, metadata, nil
}

// Delete removes the object and its sidecar.
func (s *Store) Delete(ctx context.Context, handle string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validHandle(handle); err != nil {
		return &blob.OpError{Op: "delete", Handle: handle, Err: err}
	}

	if err := os.Remove(filepath.Join(s.baseDir, handle)); err != nil {
		return &blob.OpError{Op: "delete", Handle: handle, Err: err}
	}
	if err := os.Remove(filepath.Join(s.baseDir, handle+metaSuffix)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return &blob.OpError{Op: "delete", Handle: handle, Err: err}
	}
	return nil
}

func validHandle(handle string) error {
	clean := filepath.Clean(handle)
	if clean == "" || strings.Contains(clean, "..") || filepath.IsAbs(clean) || strings.ContainsRune(clean, filepath.Separator) {
		return errors.New("invalid handle")
	}
	return nil
}

func randomID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b[:])
}

var _ blob.Store = (*Store)(nil)
