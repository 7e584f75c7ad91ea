package classify

import (
	"strings"
	"testing"
	"time"
)

func TestClassifyFiscal(t *testing.T) {
	res := Classify("DARF Simples Nacional referente ao período 01/2025")
	if res.Category != CategoryFiscal {
		t.Fatalf("category = %s, want FISCAL", res.Category)
	}
	if res.Confidence <= 0 || res.Confidence > 1 {
		t.Fatalf("confidence = %f, want (0,1]", res.Confidence)
	}
	if len(res.MatchedKeywords) < 2 {
		t.Fatalf("matched keywords = %v, want at least darf and simples nacional", res.MatchedKeywords)
	}
}

func TestClassifyNoMatchIsOutros(t *testing.T) {
	for _, text := range []string{"", "relatório genérico sem termos conhecidos"} {
		res := Classify(text)
		if res.Category != CategoryOutros {
			t.Fatalf("Classify(%q) category = %s, want OUTROS", text, res.Category)
		}
		if res.Confidence != 0 {
			t.Fatalf("Classify(%q) confidence = %f, want 0", text, res.Confidence)
		}
		if len(res.MatchedKeywords) != 0 {
			t.Fatalf("Classify(%q) keywords = %v, want none", text, res.MatchedKeywords)
		}
	}
}

func TestClassifyTieKeepsPriorityOrder(t *testing.T) {
	// One keyword from FISCAL (10 keywords) and one from DP (10 keywords):
	// both score 1/10, so the earlier rule wins.
	res := Classify("guia darf e recibo de fgts")
	if res.Category != CategoryFiscal {
		t.Fatalf("category = %s, want FISCAL on tie", res.Category)
	}
}

func TestClassifyHigherConfidenceWins(t *testing.T) {
	// Three DP hits (3/10) against one FISCAL hit (1/10).
	res := Classify("darf anexado junto ao holerite, contracheque e guia de fgts")
	if res.Category != CategoryDP {
		t.Fatalf("category = %s, want DP", res.Category)
	}
	if res.Confidence != 0.3 {
		t.Fatalf("confidence = %f, want 0.3", res.Confidence)
	}
}

func TestClassifyIsCaseInsensitive(t *testing.T) {
	res := Classify("BALANCETE E BALANÇO PATRIMONIAL DO EXERCÍCIO")
	if res.Category != CategoryContabil {
		t.Fatalf("category = %s, want CONTABIL", res.Category)
	}
}

func TestExtractCNPJ(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{"Empresa inscrita sob CNPJ 12.345.678/0001-95 conforme registro", "12345678000195"},
		{"identificador 12345678000195 no corpo do texto", "12345678000195"},
		{"prefere 11.222.333/0001-81 sobre 99887766554433", "11222333000181"},
		{"sem identificador nenhum", ""},
		{"digitos demais 123456780001956 coladas", ""},
		{"poucos digitos 1234567890123", ""},
	}
	for _, tc := range cases {
		if got := ExtractCNPJ(tc.text); got != tc.want {
			t.Fatalf("ExtractCNPJ(%q) = %q, want %q", tc.text, got, tc.want)
		}
	}
}

func TestValidCNPJ(t *testing.T) {
	valid := []string{"12345678000195", "11222333000181"}
	for _, d := range valid {
		if !ValidCNPJ(d) {
			t.Fatalf("ValidCNPJ(%s) = false, want true", d)
		}
	}
	invalid := []string{"", "1234", "12345678000190", "11111111111111", "1234567800019a"}
	for _, d := range invalid {
		if ValidCNPJ(d) {
			t.Fatalf("ValidCNPJ(%s) = true, want false", d)
		}
	}
}

func TestStandardFileName(t *testing.T) {
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	got := StandardFileName(CategoryFiscal, "12345678000195", "darf jan.pdf", now)
	if got != "20260314_FISCAL_12345678000195.pdf" {
		t.Fatalf("StandardFileName = %s", got)
	}

	// Original name survives when no identifier or default category.
	if got := StandardFileName(CategoryFiscal, "", "darf.pdf", now); got != "darf.pdf" {
		t.Fatalf("expected original name without cnpj, got %s", got)
	}
	if got := StandardFileName(CategoryOutros, "12345678000195", "misc.pdf", now); got != "misc.pdf" {
		t.Fatalf("expected original name for OUTROS, got %s", got)
	}

	// Missing extension falls back to pdf.
	if got := StandardFileName(CategoryDP, "12345678000195", "holerite", now); !strings.HasSuffix(got, ".pdf") {
		t.Fatalf("expected .pdf fallback, got %s", got)
	}
}
