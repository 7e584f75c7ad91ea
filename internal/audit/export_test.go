package audit

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func sampleEntries() []Entry {
	at := time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)
	return []Entry{
		{
			ID:          "e1",
			UserName:    "Maria",
			UserEmail:   "maria@example.com",
			UserRole:    "ADMIN",
			Action:      ActionDownloadDocument,
			Description: "GET /api/v1/documents/doc-1/download",
			ResourceID:  "doc-1",
			IPAddress:   "10.0.0.1",
			Success:     true,
			CreatedAt:   at,
		},
		{
			ID:          "e2",
			Action:      ActionLogin,
			Description: "POST /api/v1/login",
			IPAddress:   "10.0.0.2",
			Success:     false,
			CreatedAt:   at.Add(time.Minute),
		},
	}
}

func TestExportCSVFormat(t *testing.T) {
	out := ExportCSV(sampleEntries())

	if !bytes.HasPrefix(out, []byte("\ufeff")) {
		t.Fatal("missing UTF-8 byte-order mark")
	}

	lines := strings.Split(strings.TrimPrefix(string(out), "\ufeff"), "\n")
	if len(lines) != 3 {
		t.Fatalf("lines = %d, want header plus 2 rows", len(lines))
	}
	if lines[0] != "Data/Hora,Usuário,Email,Tipo,Ação,Descrição,Recurso,IP,Sucesso" {
		t.Errorf("header = %q", lines[0])
	}

	want := `2024-03-15T10:30:00Z,Maria,maria@example.com,ADMIN,DOWNLOAD_DOCUMENT,"GET /api/v1/documents/doc-1/download",doc-1,10.0.0.1,Sim`
	if lines[1] != want {
		t.Errorf("row 1 = %q\nwant     %q", lines[1], want)
	}

	// Anonymous failed login: user fields and resource fall back to N/A.
	want = `2024-03-15T10:31:00Z,N/A,N/A,N/A,LOGIN,"POST /api/v1/login",N/A,10.0.0.2,Não`
	if lines[2] != want {
		t.Errorf("row 2 = %q\nwant     %q", lines[2], want)
	}
}

func TestExportCSVDescriptionPassthrough(t *testing.T) {
	// Descriptions go between the quotes as-is, without Go-style escaping
	// of embedded quotes or backslashes.
	entries := []Entry{{
		Action:      ActionOther,
		Description: `renamed "darf_01.pdf" to C:\tmp\out.pdf`,
		IPAddress:   "10.0.0.3",
		Success:     true,
		CreatedAt:   time.Date(2024, 3, 15, 11, 0, 0, 0, time.UTC),
	}}

	lines := strings.Split(strings.TrimPrefix(string(ExportCSV(entries)), "\ufeff"), "\n")
	want := `2024-03-15T11:00:00Z,N/A,N/A,N/A,OTHER,"renamed "darf_01.pdf" to C:\tmp\out.pdf",N/A,10.0.0.3,Sim`
	if lines[1] != want {
		t.Errorf("row = %q\nwant  %q", lines[1], want)
	}
}

func TestExportCSVEmpty(t *testing.T) {
	out := string(ExportCSV(nil))
	if !strings.HasSuffix(out, "Sucesso\n") {
		t.Errorf("empty export = %q", out)
	}
}

func TestExportXLSX(t *testing.T) {
	out, err := ExportXLSX(sampleEntries())
	if err != nil {
		t.Fatalf("ExportXLSX: %v", err)
	}
	// XLSX files are zip archives.
	if !bytes.HasPrefix(out, []byte("PK")) {
		t.Error("output is not a zip archive")
	}
}
