package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeSourcesFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sources.config.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadSourcesConfigMissingFile(t *testing.T) {
	cfg, err := LoadSourcesConfig(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("missing file should yield defaults, got error %v", err)
	}
	if cfg.RefreshMinutes != 30 {
		t.Errorf("RefreshMinutes = %d, want 30", cfg.RefreshMinutes)
	}
}

func TestLoadSourcesConfig(t *testing.T) {
	path := writeSourcesFile(t, `{
		"refreshMinutes": 15,
		"enabled": {"slickdeals": false},
		"rss": {
			"slickdeals": {"label": "Slickdeals", "feeds": ["https://example.com/rss"], "confidence": 75}
		},
		"affiliateFeeds": {
			"enabled": true,
			"imports": [{"id": "net1", "label": "Net 1", "url": "https://example.com/feed.csv", "format": "csv", "mapping": {}}]
		},
		"partnerSources": {"retailmenot": {"enabled": true, "apiKey": "secret-key"}}
	}`)

	cfg, err := LoadSourcesConfig(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.RefreshMinutes != 15 {
		t.Errorf("RefreshMinutes = %d, want 15", cfg.RefreshMinutes)
	}
	entry, ok := cfg.RSS["slickdeals"]
	if !ok {
		t.Fatal("rss entry missing")
	}
	if entry.Confidence != 75 {
		t.Errorf("Confidence = %f, want 75", entry.Confidence)
	}
	if !cfg.AffiliateFeeds.Enabled || len(cfg.AffiliateFeeds.Imports) != 1 {
		t.Error("affiliate feeds not parsed")
	}
}

func TestLoadSourcesConfigInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad json", `{not json`},
		{"rss without feeds", `{"rss": {"empty": {"label": "Empty", "feeds": []}}}`},
		{"affiliate without id", `{"affiliateFeeds": {"imports": [{"format": "csv"}]}}`},
		{"affiliate bad format", `{"affiliateFeeds": {"imports": [{"id": "x", "format": "xml"}]}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadSourcesConfig(writeSourcesFile(t, tt.content)); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestSourceEnabled(t *testing.T) {
	cfg := &SourcesConfig{Enabled: map[string]bool{"off": false, "on": true}}

	if cfg.SourceEnabled("off") {
		t.Error("explicitly disabled source reported enabled")
	}
	if !cfg.SourceEnabled("on") {
		t.Error("explicitly enabled source reported disabled")
	}
	if !cfg.SourceEnabled("absent") {
		t.Error("absent source should default to enabled")
	}
}

func TestPublicMasksAPIKeys(t *testing.T) {
	cfg := &SourcesConfig{
		PartnerSources: map[string]PartnerConfig{
			"retailmenot": {Enabled: true, APIKey: "secret-key"},
			"honey":       {},
		},
	}

	pub := cfg.Public()
	if pub.PartnerSources["retailmenot"].APIKey != "***" {
		t.Errorf("APIKey = %q, want masked", pub.PartnerSources["retailmenot"].APIKey)
	}
	if pub.PartnerSources["honey"].APIKey != "" {
		t.Error("empty key should stay empty")
	}
	// Original must stay intact.
	if cfg.PartnerSources["retailmenot"].APIKey != "secret-key" {
		t.Error("Public() mutated the source config")
	}
}
