package out

import (
	"context"

	"deal_server/core/domain"
)

// PreferencesRepository defines the interface for device preferences
// persistence. Get creates the default row on first access.
type PreferencesRepository interface {
	Get(ctx context.Context, deviceID string) (*domain.Preferences, error)
	Update(ctx context.Context, deviceID string, update *domain.PreferencesUpdate) (*domain.Preferences, error)
	MarkDigestSent(ctx context.Context, deviceID string) error
	ListDigestSubscribers(ctx context.Context) ([]*domain.Preferences, error)
}
