package documents

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"contadoc-backend/internal/classify"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const documentColumns = `id, original_name, file_name, category, status, size_bytes, mime_type,
sha256, storage_handle, company_id, detected_cnpj, ocr_confidence, extracted_text,
encrypted, uploaded_by, created_at, updated_at`

// Create inserts a new document in PROCESSING state.
func (r *PGRepo) Create(ctx context.Context, doc Document) error {
	const query = `
INSERT INTO documents (
    id, original_name, file_name, category, status, size_bytes, mime_type,
    sha256, storage_handle, company_id, detected_cnpj, ocr_confidence,
    extracted_text, encrypted, uploaded_by, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`

	_, err := r.DB.ExecContext(
		ctx,
		query,
		doc.ID,
		doc.OriginalName,
		doc.FileName,
		string(doc.Category),
		string(doc.Status),
		doc.SizeBytes,
		doc.MimeType,
		doc.SHA256,
		nullString(doc.StorageHandle),
		doc.CompanyID,
		nullString(doc.DetectedCNPJ),
		doc.OCRConfidence,
		nullString(doc.ExtractedText),
		doc.Encrypted,
		doc.UploadedBy,
		doc.CreatedAt,
		doc.UpdatedAt,
	)
	return err
}

// GetByID fetches a document by primary key.
func (r *PGRepo) GetByID(ctx context.Context, id string) (Document, error) {
	query := `
SELECT ` + documentColumns + `
FROM documents
WHERE id = $1`
	return scanDocument(r.DB.QueryRowContext(ctx, query, id))
}

// List returns documents matching the filter, newest first, plus the total
// count for pagination.
func (r *PGRepo) List(ctx context.Context, filter ListFilter) ([]Document, int, error) {
	where, args := buildWhere(filter)

	countQuery := `SELECT COUNT(*) FROM documents` + where
	var total int
	if err := r.DB.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := `SELECT ` + documentColumns + ` FROM documents` + where +
		fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		doc, err := scanDocumentRows(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, doc)
	}
	return out, total, rows.Err()
}

// Finalize overwrites the processing fields and marks the document AVAILABLE.
// Running it twice for the same attempt output is a no-op beyond updated_at.
func (r *PGRepo) Finalize(ctx context.Context, fin Finalization) error {
	const query = `
UPDATE documents
SET file_name = $1,
    category = $2,
    status = $3,
    detected_cnpj = $4,
    ocr_confidence = $5,
    extracted_text = $6,
    storage_handle = $7,
    sha256 = $8,
    encrypted = TRUE,
    updated_at = $9
WHERE id = $10`

	res, err := r.DB.ExecContext(
		ctx,
		query,
		fin.FileName,
		string(fin.Category),
		string(StatusAvailable),
		nullString(fin.DetectedCNPJ),
		fin.OCRConfidence,
		nullString(fin.ExtractedText),
		nullString(fin.StorageHandle),
		fin.SHA256,
		time.Now().UTC(),
		fin.DocumentID,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// SetStatus updates the lifecycle status.
func (r *PGRepo) SetStatus(ctx context.Context, id string, status Status) error {
	const query = `
UPDATE documents
SET status = $1, updated_at = $2
WHERE id = $3`
	res, err := r.DB.ExecContext(ctx, query, string(status), time.Now().UTC(), id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// MarkViewed advances AVAILABLE to VIEWED. Documents already VIEWED (or in
// any other state) are left untouched.
func (r *PGRepo) MarkViewed(ctx context.Context, id string) error {
	const query = `
UPDATE documents
SET status = $1, updated_at = $2
WHERE id = $3 AND status = $4`
	_, err := r.DB.ExecContext(ctx, query, string(StatusViewed), time.Now().UTC(), id, string(StatusAvailable))
	return err
}

// ReassignCompany moves the document to another owning company.
func (r *PGRepo) ReassignCompany(ctx context.Context, id, companyID string) error {
	const query = `
UPDATE documents
SET company_id = $1, updated_at = $2
WHERE id = $3`
	res, err := r.DB.ExecContext(ctx, query, companyID, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// Delete removes the document row; protocols cascade via the schema.
func (r *PGRepo) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func buildWhere(filter ListFilter) (string, []any) {
	var clauses []string
	var args []any

	add := func(clause string, value any) {
		args = append(args, value)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}

	if filter.CompanyID != "" {
		add("company_id = $%d", filter.CompanyID)
	}
	if filter.Category != "" {
		add("category = $%d", string(filter.Category))
	}
	if filter.Status != "" {
		add("status = $%d", string(filter.Status))
	}
	if filter.From != nil {
		add("created_at >= $%d", *filter.From)
	}
	if filter.To != nil {
		add("created_at <= $%d", *filter.To)
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row *sql.Row) (Document, error) {
	doc, err := scanDocumentRows(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, err
	}
	return doc, nil
}

func scanDocumentRows(row rowScanner) (Document, error) {
	var doc Document
	var category, status string
	var handle, cnpj, text sql.NullString
	err := row.Scan(
		&doc.ID,
		&doc.OriginalName,
		&doc.FileName,
		&category,
		&status,
		&doc.SizeBytes,
		&doc.MimeType,
		&doc.SHA256,
		&handle,
		&doc.CompanyID,
		&cnpj,
		&doc.OCRConfidence,
		&text,
		&doc.Encrypted,
		&doc.UploadedBy,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	)
	if err != nil {
		return Document{}, err
	}
	doc.Category = classify.Category(category)
	doc.Status = Status(status)
	if handle.Valid {
		doc.StorageHandle = handle.String
	}
	if cnpj.Valid {
		doc.DetectedCNPJ = cnpj.String
	}
	if text.Valid {
		doc.ExtractedText = text.String
	}
	return doc, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func requireRow(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
