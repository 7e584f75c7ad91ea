package documents

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"contadoc-backend/internal/classify"
)

func newMockRepo(t *testing.T) (*PGRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return &PGRepo{DB: db}, mock
}

func TestPGRepoCreate(t *testing.T) {
	repo, mock := newMockRepo(t)

	now := time.Now().UTC()
	doc := Document{
		ID:            "doc-1",
		OriginalName:  "guia.pdf",
		Status:        StatusProcessing,
		SizeBytes:     1024,
		MimeType:      "application/pdf",
		StorageHandle: "stage-handle",
		CompanyID:     "co-1",
		Encrypted:     true,
		UploadedBy:    "Maria",
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	mock.ExpectExec("INSERT INTO documents").
		WithArgs(
			doc.ID,
			doc.OriginalName,
			"",
			"",
			string(StatusProcessing),
			doc.SizeBytes,
			doc.MimeType,
			"",
			sqlmock.AnyArg(), // storage_handle
			doc.CompanyID,
			nil, // detected_cnpj
			0.0,
			nil, // extracted_text
			true,
			doc.UploadedBy,
			now,
			now,
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Create(context.Background(), doc); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetByIDNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT (.+) FROM documents").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetByID(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestPGRepoFinalizeSetsAvailable(t *testing.T) {
	repo, mock := newMockRepo(t)

	fin := Finalization{
		DocumentID:    "doc-1",
		FileName:      "20240315_FISCAL_12345678000195.pdf",
		Category:      classify.CategoryFiscal,
		DetectedCNPJ:  "12345678000195",
		OCRConfidence: 0.3,
		ExtractedText: "darf simples nacional",
		StorageHandle: "final-handle",
		SHA256:        "abc123",
	}

	mock.ExpectExec("UPDATE documents").
		WithArgs(
			fin.FileName,
			string(classify.CategoryFiscal),
			string(StatusAvailable),
			sqlmock.AnyArg(),
			fin.OCRConfidence,
			sqlmock.AnyArg(),
			sqlmock.AnyArg(),
			fin.SHA256,
			sqlmock.AnyArg(), // updated_at
			fin.DocumentID,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Finalize(context.Background(), fin); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoFinalizeMissingDocument(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("UPDATE documents").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Finalize(context.Background(), Finalization{DocumentID: "ghost"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestPGRepoMarkViewedOnlyFromAvailable(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("UPDATE documents").
		WithArgs(string(StatusViewed), sqlmock.AnyArg(), "doc-1", string(StatusAvailable)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	// Zero rows means the document was not AVAILABLE; that is not an error.
	if err := repo.MarkViewed(context.Background(), "doc-1"); err != nil {
		t.Fatalf("MarkViewed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoListBuildsFilteredQuery(t *testing.T) {
	repo, mock := newMockRepo(t)

	now := time.Now().UTC()
	columns := []string{
		"id", "original_name", "file_name", "category", "status", "size_bytes",
		"mime_type", "sha256", "storage_handle", "company_id", "detected_cnpj",
		"ocr_confidence", "extracted_text", "encrypted", "uploaded_by",
		"created_at", "updated_at",
	}

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM documents WHERE company_id = \\$1 AND category = \\$2").
		WithArgs("co-1", string(classify.CategoryDP)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	mock.ExpectQuery("SELECT (.+) FROM documents WHERE company_id = \\$1 AND category = \\$2 ORDER BY created_at DESC").
		WithArgs("co-1", string(classify.CategoryDP), 20, 0).
		WillReturnRows(sqlmock.NewRows(columns).AddRow(
			"doc-1", "guia.pdf", "20240315_DP_12345678000195.pdf", "DP", "AVAILABLE",
			int64(1024), "application/pdf", "abc", "handle", "co-1", "12345678000195",
			0.2, "folha de pagamento", true, "Maria", now, now,
		))

	docs, total, err := repo.List(context.Background(), ListFilter{
		CompanyID: "co-1",
		Category:  classify.CategoryDP,
	})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 1 || len(docs) != 1 {
		t.Fatalf("total = %d, docs = %d", total, len(docs))
	}
	if docs[0].Category != classify.CategoryDP || docs[0].Status != StatusAvailable {
		t.Errorf("doc = %+v", docs[0])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoDeleteMissing(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("DELETE FROM documents").
		WithArgs("ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Delete(context.Background(), "ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
