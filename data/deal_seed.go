// Package data ships the embedded store catalog and default source
// configuration.
package data

import (
	"embed"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"deal_server/core/domain"
)

//go:embed stores.seed.json
var seedFS embed.FS

// seedStore mirrors the JSON document shape.
type seedStore struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Website          string   `json:"website"`
	Domains          []string `json:"domains"`
	Categories       []string `json:"categories"`
	Aliases          []string `json:"aliases"`
	Country          string   `json:"country"`
	PopularityWeight int      `json:"popularityWeight"`
}

// LoadSeedStores parses the embedded catalog into domain stores. Entries
// without an explicit domains list get one derived from the website.
func LoadSeedStores(extractDomain func(string) string) ([]*domain.Store, error) {
	raw, err := seedFS.ReadFile("stores.seed.json")
	if err != nil {
		return nil, fmt.Errorf("read store seed: %w", err)
	}

	var seeds []seedStore
	if err := json.Unmarshal(raw, &seeds); err != nil {
		return nil, fmt.Errorf("parse store seed: %w", err)
	}

	now := time.Now().UTC()
	stores := make([]*domain.Store, 0, len(seeds))
	for i, s := range seeds {
		if s.ID == "" || s.Name == "" || s.Website == "" {
			return nil, fmt.Errorf("store seed entry %d is missing id, name, or website", i)
		}
		if s.PopularityWeight < 1 || s.PopularityWeight > 100 {
			return nil, fmt.Errorf("store seed %q has popularity weight %d outside [1,100]", s.ID, s.PopularityWeight)
		}
		domains := s.Domains
		if len(domains) == 0 {
			if d := extractDomain(s.Website); d != "" {
				domains = []string{d}
			}
		}
		stores = append(stores, &domain.Store{
			ID:               s.ID,
			Name:             s.Name,
			Website:          s.Website,
			Domains:          domains,
			Country:          s.Country,
			PopularityWeight: s.PopularityWeight,
			Categories:       s.Categories,
			Aliases:          s.Aliases,
			CreatedAt:        now,
		})
	}
	return stores, nil
}
