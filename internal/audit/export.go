package audit

import (
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// csvHeader matches the layout the reporting surface already consumes.
const csvHeader = "Data/Hora,Usuário,Email,Tipo,Ação,Descrição,Recurso,IP,Sucesso"

// utf8BOM prefixes the CSV so spreadsheet tools pick up the encoding.
const utf8BOM = "\ufeff"

// ExportCSV renders entries as a UTF-8 CSV with byte-order mark. The
// description column is always double-quoted; user fields and the resource
// fall back to N/A when absent.
func ExportCSV(entries []Entry) []byte {
	var b strings.Builder
	b.WriteString(utf8BOM)
	b.WriteString(csvHeader)
	b.WriteString("\n")

	for i, entry := range entries {
		if i > 0 {
			b.WriteString("\n")
		}
		fields := []string{
			entry.CreatedAt.UTC().Format(time.RFC3339),
			orNA(entry.UserName),
			orNA(entry.UserEmail),
			orNA(entry.UserRole),
			string(entry.Action),
			`"` + entry.Description + `"`,
			orNA(entry.ResourceID),
			entry.IPAddress,
			successLabel(entry.Success),
		}
		b.WriteString(strings.Join(fields, ","))
	}
	return []byte(b.String())
}

// ExportXLSX renders entries as an XLSX workbook with one sheet.
func ExportXLSX(entries []Entry) ([]byte, error) {
	f := excelize.NewFile()
	const sheet = "Logs"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("delete default sheet: %w", err)
	}

	headers := strings.Split(csvHeader, ",")
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, fmt.Errorf("write header: %w", err)
		}
	}

	for row, entry := range entries {
		values := []any{
			entry.CreatedAt.UTC().Format(time.RFC3339),
			orNA(entry.UserName),
			orNA(entry.UserEmail),
			orNA(entry.UserRole),
			string(entry.Action),
			entry.Description,
			orNA(entry.ResourceID),
			entry.IPAddress,
			successLabel(entry.Success),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, fmt.Errorf("write row %d: %w", row+2, err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func successLabel(success bool) string {
	if success {
		return "Sim"
	}
	return "Não"
}
