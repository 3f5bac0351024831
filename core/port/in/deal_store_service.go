package in

import (
	"context"

	"deal_server/core/domain"
	"deal_server/core/port/out"
)

// StoreService exposes the store catalog and the suggestion workflow
type StoreService interface {
	GetStore(ctx context.Context, id string) (*domain.Store, error)
	ListStores(ctx context.Context, filter *out.StoreFilter) ([]*domain.Store, int64, error)
	ListCategories(ctx context.Context) ([]string, error)

	// Suggestions
	SuggestStore(ctx context.Context, req *SuggestStoreRequest) (*domain.StoreSuggestion, error)
	ListSuggestions(ctx context.Context, status string, limit int) ([]*domain.StoreSuggestion, error)
	VoteSuggestion(ctx context.Context, suggestionID, deviceID string) (*domain.StoreSuggestion, error)
}

// SuggestStoreRequest proposes a new store
type SuggestStoreRequest struct {
	Name     string `json:"name"`
	Website  string `json:"website"`
	Keyword  string `json:"keyword,omitempty"`
	DeviceID string `json:"-"`
}

// PreferencesService manages per-device settings
type PreferencesService interface {
	GetPreferences(ctx context.Context, deviceID string) (*domain.Preferences, error)
	UpdatePreferences(ctx context.Context, deviceID string, update *domain.PreferencesUpdate) (*domain.Preferences, error)
}

// SubmitDealRequest is a community-posted offer
type SubmitDealRequest struct {
	Store       string `json:"store"`
	Website     string `json:"website"`
	Code        string `json:"code"`
	Description string `json:"description,omitempty"`
	DeviceID    string `json:"-"`
}

// SubmissionService accepts community deal submissions
type SubmissionService interface {
	SubmitDeal(ctx context.Context, req *SubmitDealRequest) (*domain.NormalizedCoupon, error)
}
