package normalize

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestExtractCode(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"labeled code", "Get 20% off. Use code SAVE20 at checkout", "SAVE20"},
		{"labeled with colon", "Promo code: FRESH15 for new customers", "FRESH15"},
		{"labeled lowercase", "use code spring21 today", "SPRING21"},
		{"standalone uppercase token", "Flash sale, enter WELCOME10 and save", "WELCOME10"},
		{"nothing usable", "Huge sale this weekend only", ""},
		{"empty", "", ""},
		{"too short token", "Use code ABC", ""},
		{"labeled wins over standalone", "FIRSTTOKEN everywhere, use code REAL20 here", "REAL20"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractCode(tt.text); got != tt.want {
				t.Errorf("ExtractCode(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestIsValidCode(t *testing.T) {
	tests := []struct {
		code string
		want bool
	}{
		{"SAVE20", true},
		{"abc", false},
		{"", false},
		{"HAS SPACE", false},
		{"HTTPCODE", false},
		{"PATH/CODE", false},
		{"DOT.CODE", false},
		{"save20", true},
	}

	for _, tt := range tests {
		if got := IsValidCode(tt.code); got != tt.want {
			t.Errorf("IsValidCode(%q) = %v, want %v", tt.code, got, tt.want)
		}
	}
}

func TestSummarize(t *testing.T) {
	t.Run("strips urls and brackets", func(t *testing.T) {
		got := Summarize("Save big [expired] at https://example.com/sale today (maybe)", 80)
		if strings.Contains(got, "http") || strings.Contains(got, "[") || strings.Contains(got, "(") {
			t.Errorf("Summarize left noise in %q", got)
		}
	})

	t.Run("short text untouched", func(t *testing.T) {
		if got := Summarize("20% off sitewide", 80); got != "20% off sitewide" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("truncates at word boundary", func(t *testing.T) {
		long := strings.Repeat("word ", 40)
		got := Summarize(long, 30)
		if len(got) > 30+len("…") {
			t.Errorf("summary too long: %d chars", len(got))
		}
		if !strings.HasSuffix(got, "…") {
			t.Errorf("expected ellipsis suffix, got %q", got)
		}
	})

	t.Run("never splits a multibyte rune", func(t *testing.T) {
		long := strings.Repeat("béné ", 40)
		got := Summarize(long, 30)
		if !utf8.ValidString(got) {
			t.Fatalf("summary is not valid UTF-8: %q", got)
		}
		if utf8.RuneCountInString(got) > 31 {
			t.Errorf("summary too long: %d runes", utf8.RuneCountInString(got))
		}
	})

	t.Run("multibyte text within limit untouched", func(t *testing.T) {
		text := "Café déjà vu réduction"
		if got := Summarize(text, 30); got != text {
			t.Errorf("got %q", got)
		}
	})
}

func TestDetectDiscount(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"Take 25% off everything", "25% off"},
		{"$15 off orders over $50", "$15 off"},
		{"$12.50 off your first order", "$12.50 off"},
		{"Free shipping only", ""},
	}

	for _, tt := range tests {
		if got := DetectDiscount(tt.text); got != tt.want {
			t.Errorf("DetectDiscount(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}
