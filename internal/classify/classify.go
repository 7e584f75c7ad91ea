package classify

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// Category is a document category assigned by keyword classification.
type Category string

const (
	CategoryFiscal    Category = "FISCAL"
	CategoryDP        Category = "DP"
	CategoryContabil  Category = "CONTABIL"
	CategoryCertidoes Category = "CERTIDOES"
	CategoryOutros    Category = "OUTROS"
)

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	switch c {
	case CategoryFiscal, CategoryDP, CategoryContabil, CategoryCertidoes, CategoryOutros:
		return true
	}
	return false
}

// Result is the outcome of classifying a document's extracted text.
type Result struct {
	Category        Category
	Confidence      float64
	MatchedKeywords []string
}

type rule struct {
	category Category
	keywords []string
}

// Rules are evaluated in priority order; a tie in confidence keeps the
// earlier rule.
var rules = []rule{
	{CategoryFiscal, []string{
		"simples nacional",
		"das",
		"darf",
		"guia de recolhimento",
		"imposto de renda",
		"icms",
		"iss",
		"pis",
		"cofins",
		"nota fiscal",
	}},
	{CategoryDP, []string{
		"fgts",
		"holerite",
		"folha de pagamento",
		"contracheque",
		"inss",
		"férias",
		"rescisão",
		"admissão",
		"caged",
		"esocial",
	}},
	{CategoryContabil, []string{
		"balancete",
		"balanço patrimonial",
		"dre",
		"demonstração do resultado",
		"razão contábil",
		"livro diário",
		"plano de contas",
	}},
	{CategoryCertidoes, []string{
		"certidão",
		"certidao",
		"negativa",
		"positiva com efeito",
		"regularidade fiscal",
		"débitos",
	}},
}

// Classify scores the text against each category's keyword set and returns
// the strictly best match. Confidence is matched/total for the winning rule;
// text with no keyword hits classifies as OUTROS with confidence 0.
func Classify(text string) Result {
	lower := strings.ToLower(text)

	best := Result{Category: CategoryOutros}
	for _, r := range rules {
		var found []string
		for _, kw := range r.keywords {
			if strings.Contains(lower, kw) {
				found = append(found, kw)
			}
		}
		if len(found) == 0 {
			continue
		}
		confidence := float64(len(found)) / float64(len(r.keywords))
		if confidence > best.Confidence {
			best = Result{
				Category:        r.category,
				Confidence:      confidence,
				MatchedKeywords: found,
			}
		}
	}
	return best
}

var (
	cnpjFormatted = regexp.MustCompile(`\d{2}\.\d{3}\.\d{3}/\d{4}-\d{2}`)
	cnpjBare      = regexp.MustCompile(`\b\d{14}\b`)
	nonDigits     = regexp.MustCompile(`\D`)
)

// ExtractCNPJ scans text for a company legal identifier, preferring the
// formatted NN.NNN.NNN/NNNN-NN form over a bare 14-digit run. Returns the
// digits-only form, or "" when no 14-digit identifier is present.
func ExtractCNPJ(text string) string {
	for _, re := range []*regexp.Regexp{cnpjFormatted, cnpjBare} {
		if match := re.FindString(text); match != "" {
			digits := nonDigits.ReplaceAllString(match, "")
			if len(digits) == 14 {
				return digits
			}
		}
	}
	return ""
}

// ValidCNPJ verifies the two mod-11 check digits of a 14-digit CNPJ. A
// 14-digit run found in free text is not trusted for company reassignment
// unless it passes this check.
func ValidCNPJ(digits string) bool {
	if len(digits) != 14 {
		return false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return false
		}
	}
	// All-same-digit sequences pass mod-11 but are never issued.
	if strings.Count(digits, string(digits[0])) == 14 {
		return false
	}

	weights1 := []int{5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
	weights2 := []int{6, 5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}

	if checkDigit(digits[:12], weights1) != int(digits[12]-'0') {
		return false
	}
	return checkDigit(digits[:13], weights2) == int(digits[13]-'0')
}

func checkDigit(digits string, weights []int) int {
	sum := 0
	for i, w := range weights {
		sum += int(digits[i]-'0') * w
	}
	rem := sum % 11
	if rem < 2 {
		return 0
	}
	return 11 - rem
}

// StandardFileName builds the normalized display name
// YYYYMMDD_CATEGORY_CNPJ.ext. The original name is kept when the category is
// OUTROS or no identifier was detected.
func StandardFileName(category Category, cnpj, originalName string, now time.Time) string {
	if category == CategoryOutros || cnpj == "" {
		return originalName
	}
	ext := strings.TrimPrefix(filepath.Ext(originalName), ".")
	if ext == "" {
		ext = "pdf"
	}
	return fmt.Sprintf("%s_%s_%s.%s", now.Format("20060102"), category, cnpj, ext)
}
