package normalize

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	// CodeMinLength is the shortest code worth keeping.
	CodeMinLength = 4

	// SummaryMaxLength bounds deal text summaries.
	SummaryMaxLength = 80
)

var (
	labeledCodePattern  = regexp.MustCompile(`(?i)\b(?:promo code|coupon code|use code|enter code|apply code|code)\s*[:\-]?\s*([A-Za-z0-9]{4,})\b`)
	fallbackCodePattern = regexp.MustCompile(`\b[A-Z0-9]{4,12}\b`)
	urlPattern          = regexp.MustCompile(`https?://\S+`)
	bracketPattern      = regexp.MustCompile(`\[[^\]]*\]|\([^)]*\)`)
	percentOffPattern   = regexp.MustCompile(`(?i)\b(\d{1,2})\s*%\s*off\b`)
	dollarOffPattern    = regexp.MustCompile(`(?i)\$\s*(\d+(?:\.\d{1,2})?)\s*off\b`)
)

// ExtractCode mines a promo code out of free text. A labeled marker
// ("use code SAVE20") wins; otherwise the first standalone uppercase token of
// 4 to 12 characters is taken. Returns "" when nothing qualifies.
func ExtractCode(text string) string {
	if m := labeledCodePattern.FindStringSubmatch(text); m != nil {
		code := strings.ToUpper(m[1])
		if IsValidCode(code) {
			return code
		}
	}

	for _, candidate := range fallbackCodePattern.FindAllString(text, -1) {
		if IsValidCode(candidate) {
			return candidate
		}
	}

	return ""
}

// IsValidCode rejects short, whitespace-bearing, or URL-looking codes.
func IsValidCode(code string) bool {
	if len(code) < CodeMinLength {
		return false
	}
	if strings.ContainsAny(code, " \t\n\r") {
		return false
	}
	upper := strings.ToUpper(code)
	if strings.Contains(upper, "HTTP") || strings.ContainsAny(code, "/.") {
		return false
	}
	return true
}

// Summarize strips URLs and bracketed noise from deal text and truncates it
// at a word boundary.
func Summarize(text string, limit int) string {
	if limit <= 0 {
		limit = SummaryMaxLength
	}

	cleaned := urlPattern.ReplaceAllString(text, "")
	cleaned = bracketPattern.ReplaceAllString(cleaned, "")
	cleaned = strings.Join(strings.Fields(cleaned), " ")

	if utf8.RuneCountInString(cleaned) <= limit {
		return cleaned
	}

	// Truncate on a rune boundary so multibyte titles never split mid-rune.
	runes := []rune(cleaned)
	cut := string(runes[:limit])
	if idx := strings.LastIndex(cut, " "); idx > len(cut)/2 {
		cut = cut[:idx]
	}
	return strings.TrimRight(cut, " ,.;:-") + "…"
}

// DetectDiscount pulls a human-readable discount out of deal text, like
// "20% off" or "$15 off". Returns "" when none is found.
func DetectDiscount(text string) string {
	if m := percentOffPattern.FindStringSubmatch(text); m != nil {
		return m[1] + "% off"
	}
	if m := dollarOffPattern.FindStringSubmatch(text); m != nil {
		return "$" + m[1] + " off"
	}
	return ""
}
