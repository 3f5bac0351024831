package config

import (
	"fmt"
	"os"

	"github.com/goccy/go-json"
)

// RSSEntry configures one RSS source.
type RSSEntry struct {
	Label      string   `json:"label"`
	Feeds      []string `json:"feeds"`
	Confidence float64  `json:"confidence,omitempty"`
}

// AffiliateMapping maps feed columns onto offer fields.
type AffiliateMapping struct {
	Store     string `json:"store"`
	Domain    string `json:"domain"`
	Deal      string `json:"deal"`
	Code      string `json:"code"`
	SourceURL string `json:"sourceUrl"`
}

// AffiliateImport configures one affiliate feed.
type AffiliateImport struct {
	ID      string           `json:"id"`
	Label   string           `json:"label"`
	URL     string           `json:"url"`
	Format  string           `json:"format"` // csv or json
	Mapping AffiliateMapping `json:"mapping"`
}

// AffiliateFeeds groups the affiliate imports.
type AffiliateFeeds struct {
	Enabled bool              `json:"enabled"`
	Imports []AffiliateImport `json:"imports"`
}

// BrandPromoPages configures the brand-page scraper.
type BrandPromoPages struct {
	Enabled bool     `json:"enabled"`
	Pages   []string `json:"pages"`
}

// PartnerConfig configures a partner aggregator API.
type PartnerConfig struct {
	Enabled bool   `json:"enabled"`
	APIKey  string `json:"apiKey"`
}

// SourcesConfig is the typed connector configuration. It is loaded once at
// startup and validated; a missing file yields the defaults.
type SourcesConfig struct {
	RefreshMinutes  int                      `json:"refreshMinutes"`
	Enabled         map[string]bool          `json:"enabled"`
	RSS             map[string]RSSEntry      `json:"rss"`
	AffiliateFeeds  AffiliateFeeds           `json:"affiliateFeeds"`
	BrandPromoPages BrandPromoPages          `json:"brandPromoPages"`
	PartnerSources  map[string]PartnerConfig `json:"partnerSources"`
}

// DefaultSourcesConfig returns the configuration used when no file is present.
func DefaultSourcesConfig() *SourcesConfig {
	return &SourcesConfig{
		RefreshMinutes:  30,
		Enabled:         map[string]bool{},
		RSS:             map[string]RSSEntry{},
		AffiliateFeeds:  AffiliateFeeds{},
		BrandPromoPages: BrandPromoPages{},
		PartnerSources: map[string]PartnerConfig{
			"retailmenot": {},
			"honey":       {},
			"x_api":       {},
			"threads_api": {},
		},
	}
}

// LoadSourcesConfig reads and validates the sources file, merging defaults
// for anything the file leaves out.
func LoadSourcesConfig(path string) (*SourcesConfig, error) {
	cfg := DefaultSourcesConfig()

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read sources config: %w", err)
	}

	if err := json.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parse sources config %s: %w", path, err)
	}

	if cfg.RefreshMinutes <= 0 {
		cfg.RefreshMinutes = 30
	}
	if cfg.Enabled == nil {
		cfg.Enabled = map[string]bool{}
	}
	if cfg.RSS == nil {
		cfg.RSS = map[string]RSSEntry{}
	}
	if cfg.PartnerSources == nil {
		cfg.PartnerSources = map[string]PartnerConfig{}
	}

	for id, entry := range cfg.RSS {
		if len(entry.Feeds) == 0 {
			return nil, fmt.Errorf("rss source %q has no feed urls", id)
		}
	}
	for _, imp := range cfg.AffiliateFeeds.Imports {
		if imp.ID == "" {
			return nil, fmt.Errorf("affiliate import is missing an id")
		}
		if imp.Format != "csv" && imp.Format != "json" {
			return nil, fmt.Errorf("affiliate import %q has unsupported format %q", imp.ID, imp.Format)
		}
	}

	return cfg, nil
}

// SourceEnabled reports whether a source id is switched on. Sources absent
// from the map default to enabled.
func (c *SourcesConfig) SourceEnabled(id string) bool {
	if v, ok := c.Enabled[id]; ok {
		return v
	}
	return true
}

// Public returns a copy safe for the sources endpoint: partner API keys are
// masked.
func (c *SourcesConfig) Public() *SourcesConfig {
	out := *c
	out.PartnerSources = make(map[string]PartnerConfig, len(c.PartnerSources))
	for id, p := range c.PartnerSources {
		masked := p
		if masked.APIKey != "" {
			masked.APIKey = "***"
		}
		out.PartnerSources[id] = masked
	}
	return &out
}
