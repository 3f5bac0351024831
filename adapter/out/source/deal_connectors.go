package source

import (
	"sort"

	"deal_server/config"
	"deal_server/core/port/out"
)

// BuildConnectors assembles the connector set from the sources configuration.
// RSS sources come first in config-id order so run summaries stay stable.
func BuildConnectors(cfg *config.SourcesConfig, submissions out.SubmissionRepository) []out.SourceConnector {
	var connectors []out.SourceConnector

	rssIDs := make([]string, 0, len(cfg.RSS))
	for id := range cfg.RSS {
		rssIDs = append(rssIDs, id)
	}
	sort.Strings(rssIDs)
	for _, id := range rssIDs {
		if !cfg.SourceEnabled(id) {
			continue
		}
		entry := cfg.RSS[id]
		connectors = append(connectors, NewRSSConnector(id, entry.Label, entry.Feeds, entry.Confidence))
	}

	if cfg.SourceEnabled("affiliate_feed_import") && cfg.AffiliateFeeds.Enabled {
		for _, imp := range cfg.AffiliateFeeds.Imports {
			connectors = append(connectors, NewAffiliateConnector(imp))
		}
	}

	if cfg.SourceEnabled("brand_promos") && cfg.BrandPromoPages.Enabled {
		connectors = append(connectors, NewBrandPageConnector(cfg.BrandPromoPages.Pages))
	}

	if cfg.SourceEnabled("community") && submissions != nil {
		connectors = append(connectors, NewCommunityConnector(submissions))
	}

	if cfg.SourceEnabled("retailmenot_partner") {
		if pc, ok := cfg.PartnerSources["retailmenot"]; ok && pc.Enabled {
			connectors = append(connectors, NewStubConnector(
				"retailmenot", "RetailMeNot partner feed",
				"Connect an official RetailMeNot or partner API before enabling."))
		}
	}
	if cfg.SourceEnabled("honey_partner") {
		if pc, ok := cfg.PartnerSources["honey"]; ok && pc.Enabled {
			connectors = append(connectors, NewStubConnector(
				"honey", "Honey partner feed", "Requires a Honey API key."))
		}
	}
	if cfg.SourceEnabled("x_api") {
		if pc, ok := cfg.PartnerSources["x_api"]; ok && pc.Enabled {
			connectors = append(connectors, NewStubConnector(
				"x_api", "Twitter/X connector", "Requires Twitter/X API credentials."))
		}
	}
	if cfg.SourceEnabled("threads_api") {
		if pc, ok := cfg.PartnerSources["threads_api"]; ok && pc.Enabled {
			connectors = append(connectors, NewStubConnector(
				"threads_api", "Threads connector", "Requires Threads API credentials."))
		}
	}

	return connectors
}
