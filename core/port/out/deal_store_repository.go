package out

import (
	"context"

	"deal_server/core/domain"
)

// StoreFilter narrows store listings.
type StoreFilter struct {
	Query    string
	Category string
	SortBy   string // "name" or "popularity"
	Page     *domain.PageRequest
}

// StoreRepository defines the interface for store persistence
type StoreRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Store, error)
	List(ctx context.Context, filter *StoreFilter) ([]*domain.Store, int64, error)
	ListAll(ctx context.Context) ([]*domain.Store, error)
	ListCategories(ctx context.Context) ([]string, error)
	Create(ctx context.Context, store *domain.Store) error
	EnsureSeedData(ctx context.Context, stores []*domain.Store) error
}

// StoreSuggestionRepository defines the interface for suggestion persistence
type StoreSuggestionRepository interface {
	Create(ctx context.Context, suggestion *domain.StoreSuggestion) error
	GetByID(ctx context.Context, id string) (*domain.StoreSuggestion, error)
	List(ctx context.Context, status domain.SuggestionStatus, limit int) ([]*domain.StoreSuggestion, error)
	HasPendingForDomain(ctx context.Context, domainName string) (bool, error)
	AddVote(ctx context.Context, suggestionID, deviceHash string) (*domain.StoreSuggestion, error)
	Approve(ctx context.Context, suggestionID string) (*domain.StoreSuggestion, error)
}
