package preferences

import (
	"context"
	"fmt"

	"deal_server/core/domain"
	"deal_server/core/port/in"
	"deal_server/core/port/out"
	"deal_server/pkg/apperr"
)

// Store lists longer than this are rejected rather than truncated.
const maxListEntries = 50

// Service implements in.PreferencesService
type Service struct {
	preferences out.PreferencesRepository
}

// NewService creates a new PreferencesService
func NewService(preferences out.PreferencesRepository) in.PreferencesService {
	return &Service{preferences: preferences}
}

func (s *Service) GetPreferences(ctx context.Context, deviceID string) (*domain.Preferences, error) {
	if deviceID == "" {
		return nil, apperr.MissingField("device_id")
	}

	prefs, err := s.preferences.Get(ctx, deviceID)
	if err != nil {
		return nil, fmt.Errorf("get preferences: %w", err)
	}
	return prefs, nil
}

func (s *Service) UpdatePreferences(ctx context.Context, deviceID string, update *domain.PreferencesUpdate) (*domain.Preferences, error) {
	if deviceID == "" {
		return nil, apperr.MissingField("device_id")
	}
	if update == nil {
		return nil, apperr.BadRequest("empty preferences update")
	}

	for field, list := range map[string]*[]string{
		"favorite_stores": update.FavoriteStores,
		"blocked_stores":  update.BlockedStores,
		"categories":      update.Categories,
		"watchlist":       update.Watchlist,
	} {
		if list != nil && len(*list) > maxListEntries {
			return nil, apperr.InvalidInput(field, fmt.Sprintf("at most %d entries", maxListEntries))
		}
	}

	prefs, err := s.preferences.Update(ctx, deviceID, update)
	if err != nil {
		return nil, fmt.Errorf("update preferences: %w", err)
	}
	return prefs, nil
}
