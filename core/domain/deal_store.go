package domain

import "time"

// UnknownStoreID is the sentinel store for offers that matched nothing.
const UnknownStoreID = "unknown"

// Store is a retailer in the registry. A store can answer to several domains
// (country storefronts, vanity redirects), all of which resolve to it.
type Store struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Website          string    `json:"website"`
	Domains          []string  `json:"domains"`
	Country          string    `json:"country,omitempty"`
	PopularityWeight int       `json:"popularity_weight"`
	Categories       []string  `json:"categories,omitempty"`
	Aliases          []string  `json:"aliases,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// IsUnknown reports whether this is the sentinel store.
func (s *Store) IsUnknown() bool {
	return s.ID == UnknownStoreID
}

// SuggestionStatus is the review state of a store suggestion
type SuggestionStatus string

const (
	SuggestionStatusPending  SuggestionStatus = "pending"
	SuggestionStatusApproved SuggestionStatus = "approved"
)

// Votes needed before a pending suggestion is promoted to a store.
const SuggestionApprovalVotes = 5

// StoreSuggestion is a community-proposed store awaiting votes
type StoreSuggestion struct {
	ID         string           `json:"id"`
	Name       string           `json:"name"`
	Website    string           `json:"website"`
	Domain     string           `json:"domain"`
	Keyword    string           `json:"keyword,omitempty"`
	Status     SuggestionStatus `json:"status"`
	Votes      int              `json:"votes"`
	DeviceHash string           `json:"-"`
	CreatedAt  time.Time        `json:"created_at"`
}
