package documents

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu   sync.RWMutex
	byID map[string]Document
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byID: make(map[string]Document)}
}

// Create stores a document.
func (r *MemoryRepo) Create(ctx context.Context, doc Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[doc.ID] = doc
	return nil
}

// GetByID returns a document by primary key.
func (r *MemoryRepo) GetByID(ctx context.Context, id string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.byID[id]
	if !ok {
		return Document{}, ErrNotFound
	}
	return doc, nil
}

// List returns documents matching the filter, newest first.
func (r *MemoryRepo) List(ctx context.Context, filter ListFilter) ([]Document, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []Document
	for _, doc := range r.byID {
		if filter.CompanyID != "" && doc.CompanyID != filter.CompanyID {
			continue
		}
		if filter.Category != "" && doc.Category != filter.Category {
			continue
		}
		if filter.Status != "" && doc.Status != filter.Status {
			continue
		}
		if filter.From != nil && doc.CreatedAt.Before(*filter.From) {
			continue
		}
		if filter.To != nil && doc.CreatedAt.After(*filter.To) {
			continue
		}
		matched = append(matched, doc)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset > len(matched) {
		offset = len(matched)
	}
	matched = matched[offset:]
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, total, nil
}

// Finalize overwrites the processing fields and marks the document AVAILABLE.
func (r *MemoryRepo) Finalize(ctx context.Context, fin Finalization) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.byID[fin.DocumentID]
	if !ok {
		return ErrNotFound
	}
	doc.FileName = fin.FileName
	doc.Category = fin.Category
	doc.Status = StatusAvailable
	doc.DetectedCNPJ = fin.DetectedCNPJ
	doc.OCRConfidence = fin.OCRConfidence
	doc.ExtractedText = fin.ExtractedText
	doc.StorageHandle = fin.StorageHandle
	doc.SHA256 = fin.SHA256
	doc.Encrypted = true
	doc.UpdatedAt = time.Now().UTC()
	r.byID[fin.DocumentID] = doc
	return nil
}

// SetStatus updates the lifecycle status.
func (r *MemoryRepo) SetStatus(ctx context.Context, id string, status Status) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	doc.Status = status
	doc.UpdatedAt = time.Now().UTC()
	r.byID[id] = doc
	return nil
}

// MarkViewed advances AVAILABLE to VIEWED.
func (r *MemoryRepo) MarkViewed(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	if doc.Status == StatusAvailable {
		doc.Status = StatusViewed
		doc.UpdatedAt = time.Now().UTC()
		r.byID[id] = doc
	}
	return nil
}

// ReassignCompany moves the document to another owning company.
func (r *MemoryRepo) ReassignCompany(ctx context.Context, id, companyID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	doc.CompanyID = companyID
	doc.UpdatedAt = time.Now().UTC()
	r.byID[id] = doc
	return nil
}

// Delete removes a document.
func (r *MemoryRepo) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

var _ Repo = (*MemoryRepo)(nil)

// ProtocolMemoryRepo is an in-memory implementation of ProtocolRepo.
type ProtocolMemoryRepo struct {
	mu         sync.RWMutex
	byDocument map[string][]DownloadProtocol
}

// NewProtocolMemoryRepo constructs a ProtocolMemoryRepo.
func NewProtocolMemoryRepo() *ProtocolMemoryRepo {
	return &ProtocolMemoryRepo{byDocument: make(map[string][]DownloadProtocol)}
}

// Create appends a download receipt.
func (r *ProtocolMemoryRepo) Create(ctx context.Context, p DownloadProtocol) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byDocument[p.DocumentID] = append(r.byDocument[p.DocumentID], p)
	return nil
}

// ListByDocument returns a document's receipts, newest first.
func (r *ProtocolMemoryRepo) ListByDocument(ctx context.Context, documentID string) ([]DownloadProtocol, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	protocols := append([]DownloadProtocol(nil), r.byDocument[documentID]...)
	sort.Slice(protocols, func(i, j int) bool {
		return protocols[i].CreatedAt.After(protocols[j].CreatedAt)
	})
	return protocols, nil
}

var _ ProtocolRepo = (*ProtocolMemoryRepo)(nil)
