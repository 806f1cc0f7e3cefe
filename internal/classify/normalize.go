package classify

import (
	"encoding/json"
	"strings"
	"unicode/utf8"
)

// Categories is the canonical category enum. The first entry is the default
// used when the model returns something unmappable.
var Categories = []string{
	"otro",
	"contrato",
	"factura",
	"informe",
	"resolucion",
	"acta",
	"certificado",
	"correspondencia",
}

// categoryAliases maps case-insensitive substrings of model output to
// canonical categories.
var categoryAliases = []struct {
	needle   string
	category string
}{
	{"contrat", "contrato"},
	{"contract", "contrato"},
	{"agreement", "contrato"},
	{"convenio", "contrato"},
	{"factur", "factura"},
	{"invoice", "factura"},
	{"recibo", "factura"},
	{"bill", "factura"},
	{"inform", "informe"},
	{"report", "informe"},
	{"memoria", "informe"},
	{"resoluci", "resolucion"},
	{"resolution", "resolucion"},
	{"decreto", "resolucion"},
	{"acta", "acta"},
	{"minutes", "acta"},
	{"certific", "certificado"},
	{"correspond", "correspondencia"},
	{"carta", "correspondencia"},
	{"letter", "correspondencia"},
	{"oficio", "correspondencia"},
}

const (
	maxTags         = 10
	maxSummaryChars = 200

	fallbackConfidence = 0.1
	fallbackSummary    = "Documento sin clasificar automáticamente."
)

// UnclassifiedTag marks records that went through the fallback path.
const UnclassifiedTag = "sin-clasificar"

// rawResponse mirrors the structured response expected from the
// classification service. keywords is accepted as an alias for tags.
type rawResponse struct {
	Category            string   `json:"category"`
	Confidence          *float64 `json:"confidence"`
	Tags                []string `json:"tags"`
	Keywords            []string `json:"keywords"`
	Summary             string   `json:"summary"`
	Language            string   `json:"language"`
	Priority            string   `json:"priority"`
	ClassificationLevel string   `json:"classificationLevel"`
}

// Normalize validates a raw service response into a Result. A response that
// cannot be parsed resolves to the fallback.
func Normalize(raw json.RawMessage) Result {
	var parsed rawResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return Fallback("parse failure")
	}

	tags := parsed.Tags
	if len(tags) == 0 {
		tags = parsed.Keywords
	}

	return Result{
		Category:            canonicalCategory(parsed.Category),
		Confidence:          clampConfidence(parsed.Confidence),
		Tags:                normalizeTags(tags),
		Summary:             truncateSummary(parsed.Summary),
		Language:            normalizeLanguage(parsed.Language),
		Priority:            normalizePriority(parsed.Priority),
		ClassificationLevel: normalizeLevel(parsed.ClassificationLevel),
	}
}

// Fallback returns the never-fails classification used when the service
// call or parsing fails.
func Fallback(reason string) Result {
	return Result{
		Category:            Categories[0],
		Confidence:          fallbackConfidence,
		Tags:                []string{UnclassifiedTag},
		Summary:             fallbackSummary,
		Language:            "es",
		Priority:            "medium",
		ClassificationLevel: "internal",
		FallbackReason:      reason,
	}
}

func canonicalCategory(value string) string {
	cleaned := strings.ToLower(strings.TrimSpace(value))
	for _, c := range Categories {
		if cleaned == c {
			return c
		}
	}
	for _, alias := range categoryAliases {
		if strings.Contains(cleaned, alias.needle) {
			return alias.category
		}
	}
	return Categories[0]
}

func clampConfidence(value *float64) float64 {
	if value == nil {
		return 0
	}
	if *value < 0 {
		return 0
	}
	if *value > 1 {
		return 1
	}
	return *value
}

func normalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		cleaned := strings.ToLower(strings.TrimSpace(tag))
		if cleaned == "" {
			continue
		}
		if _, ok := seen[cleaned]; ok {
			continue
		}
		seen[cleaned] = struct{}{}
		out = append(out, cleaned)
		if len(out) == maxTags {
			break
		}
	}
	return out
}

func truncateSummary(summary string) string {
	return truncateUTF8(strings.TrimSpace(summary), maxSummaryChars)
}

// truncateUTF8 cuts s to at most max bytes without splitting a rune.
func truncateUTF8(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func normalizeLanguage(lang string) string {
	switch strings.ToLower(strings.TrimSpace(lang)) {
	case "en":
		return "en"
	case "es":
		return "es"
	default:
		return "es"
	}
}

func normalizePriority(priority string) string {
	switch strings.ToLower(strings.TrimSpace(priority)) {
	case "low", "medium", "high", "urgent":
		return strings.ToLower(strings.TrimSpace(priority))
	default:
		return "medium"
	}
}

func normalizeLevel(level string) string {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "public", "internal", "confidential", "secret":
		return strings.ToLower(strings.TrimSpace(level))
	default:
		return "internal"
	}
}
