package preferences

import (
	"context"
	"testing"
	"time"

	"deal_server/core/domain"
	"deal_server/pkg/apperr"
)

type fakePreferencesRepo struct {
	prefs      map[string]*domain.Preferences
	lastUpdate *domain.PreferencesUpdate
}

func newFakePreferencesRepo() *fakePreferencesRepo {
	return &fakePreferencesRepo{prefs: map[string]*domain.Preferences{}}
}

func (f *fakePreferencesRepo) Get(ctx context.Context, deviceID string) (*domain.Preferences, error) {
	if p, ok := f.prefs[deviceID]; ok {
		return p, nil
	}
	p := domain.DefaultPreferences(deviceID, time.Now().UTC())
	f.prefs[deviceID] = p
	return p, nil
}

func (f *fakePreferencesRepo) Update(ctx context.Context, deviceID string, update *domain.PreferencesUpdate) (*domain.Preferences, error) {
	f.lastUpdate = update
	p, _ := f.Get(ctx, deviceID)
	if update.FavoriteStores != nil {
		p.FavoriteStores = *update.FavoriteStores
	}
	if update.BlockedStores != nil {
		p.BlockedStores = *update.BlockedStores
	}
	return p, nil
}

func (f *fakePreferencesRepo) MarkDigestSent(ctx context.Context, deviceID string) error {
	return nil
}

func (f *fakePreferencesRepo) ListDigestSubscribers(ctx context.Context) ([]*domain.Preferences, error) {
	return nil, nil
}

func wantCode(t *testing.T, err error, code string) {
	t.Helper()
	appErr := apperr.AsAppError(err)
	if appErr == nil {
		t.Fatalf("expected AppError %s, got %v", code, err)
	}
	if appErr.Code != code {
		t.Fatalf("error code = %s, want %s (err: %v)", appErr.Code, code, err)
	}
}

func TestGetPreferences(t *testing.T) {
	svc := NewService(newFakePreferencesRepo())
	ctx := context.Background()

	prefs, err := svc.GetPreferences(ctx, "device-1")
	if err != nil {
		t.Fatalf("GetPreferences() error = %v", err)
	}
	if prefs.DeviceID != "device-1" {
		t.Errorf("DeviceID = %q", prefs.DeviceID)
	}

	_, err = svc.GetPreferences(ctx, "")
	wantCode(t, err, apperr.CodeMissingField)
}

func TestUpdatePreferences(t *testing.T) {
	repo := newFakePreferencesRepo()
	svc := NewService(repo)
	ctx := context.Background()

	favorites := []string{"nike", "sephora"}
	prefs, err := svc.UpdatePreferences(ctx, "device-1", &domain.PreferencesUpdate{FavoriteStores: &favorites})
	if err != nil {
		t.Fatalf("UpdatePreferences() error = %v", err)
	}
	if len(prefs.FavoriteStores) != 2 {
		t.Errorf("FavoriteStores = %v", prefs.FavoriteStores)
	}

	t.Run("missing device", func(t *testing.T) {
		_, err := svc.UpdatePreferences(ctx, "", &domain.PreferencesUpdate{})
		wantCode(t, err, apperr.CodeMissingField)
	})

	t.Run("nil update", func(t *testing.T) {
		_, err := svc.UpdatePreferences(ctx, "device-1", nil)
		wantCode(t, err, apperr.CodeBadRequest)
	})

	t.Run("oversized list", func(t *testing.T) {
		big := make([]string, maxListEntries+1)
		for i := range big {
			big[i] = "store"
		}
		_, err := svc.UpdatePreferences(ctx, "device-1", &domain.PreferencesUpdate{BlockedStores: &big})
		wantCode(t, err, apperr.CodeInvalidInput)
	})

	t.Run("list at the cap passes", func(t *testing.T) {
		full := make([]string, maxListEntries)
		for i := range full {
			full[i] = "store"
		}
		if _, err := svc.UpdatePreferences(ctx, "device-1", &domain.PreferencesUpdate{BlockedStores: &full}); err != nil {
			t.Fatalf("UpdatePreferences() error = %v", err)
		}
	})
}
