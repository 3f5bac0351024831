package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"deal_server/core/domain"
	"deal_server/core/port/in"
	"deal_server/core/port/out"
	"deal_server/core/service/normalize"
	"deal_server/core/service/registry"
	"deal_server/pkg/apperr"
	"deal_server/pkg/logger"
	"deal_server/pkg/ratelimit"

	"github.com/google/uuid"
)

// Promoted stores start at the floor weight. They earn a higher weight
// through real traffic, not votes.
const suggestedStorePopularity = 1

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// Service implements in.StoreService
type Service struct {
	stores      out.StoreRepository
	suggestions out.StoreSuggestionRepository
	registry    *registry.Registry
	limiter     *ratelimit.DeviceLimiter
}

// NewService creates a new StoreService
func NewService(
	stores out.StoreRepository,
	suggestions out.StoreSuggestionRepository,
	reg *registry.Registry,
	limiter *ratelimit.DeviceLimiter,
) in.StoreService {
	return &Service{
		stores:      stores,
		suggestions: suggestions,
		registry:    reg,
		limiter:     limiter,
	}
}

// =============================================================================
// Catalog
// =============================================================================

func (s *Service) GetStore(ctx context.Context, id string) (*domain.Store, error) {
	store, err := s.stores.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, out.ErrNotFound) {
			return nil, apperr.NotFound("store").WithDetail("id", id)
		}
		return nil, fmt.Errorf("get store: %w", err)
	}
	return store, nil
}

func (s *Service) ListStores(ctx context.Context, filter *out.StoreFilter) ([]*domain.Store, int64, error) {
	if filter == nil {
		filter = &out.StoreFilter{}
	}
	return s.stores.List(ctx, filter)
}

func (s *Service) ListCategories(ctx context.Context) ([]string, error) {
	return s.stores.ListCategories(ctx)
}

// =============================================================================
// Suggestions
// =============================================================================

func (s *Service) SuggestStore(ctx context.Context, req *in.SuggestStoreRequest) (*domain.StoreSuggestion, error) {
	if req.Name == "" {
		return nil, apperr.MissingField("name")
	}
	if req.DeviceID == "" {
		return nil, apperr.MissingField("device_id")
	}

	website, err := normalize.NormalizeWebsite(req.Website)
	if err != nil {
		return nil, apperr.InvalidInput("website", err.Error())
	}
	domainName := normalize.ExtractDomain(website)

	deviceHash := hashDevice(req.DeviceID)
	if s.limiter != nil && !s.limiter.AllowSuggestion(ctx, deviceHash) {
		return nil, apperr.RateLimited("suggestion limit reached, try again later")
	}

	// A domain already in the catalog needs no suggestion.
	if existing := s.registry.Resolve("", website); existing != nil && !existing.IsUnknown() {
		return nil, apperr.AlreadyExists("store").WithDetail("store_id", existing.ID)
	}

	pending, err := s.suggestions.HasPendingForDomain(ctx, domainName)
	if err != nil {
		return nil, fmt.Errorf("check pending suggestion: %w", err)
	}
	if pending {
		return nil, apperr.Conflict("a suggestion for this domain is already pending")
	}

	suggestion := &domain.StoreSuggestion{
		ID:         uuid.New().String(),
		Name:       strings.TrimSpace(req.Name),
		Website:    website,
		Domain:     domainName,
		Keyword:    strings.TrimSpace(req.Keyword),
		Status:     domain.SuggestionStatusPending,
		Votes:      1,
		DeviceHash: deviceHash,
		CreatedAt:  time.Now().UTC(),
	}

	if err := s.suggestions.Create(ctx, suggestion); err != nil {
		return nil, fmt.Errorf("create suggestion: %w", err)
	}
	return suggestion, nil
}

func (s *Service) ListSuggestions(ctx context.Context, status string, limit int) ([]*domain.StoreSuggestion, error) {
	parsed := domain.SuggestionStatusPending
	if status == string(domain.SuggestionStatusApproved) {
		parsed = domain.SuggestionStatusApproved
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.suggestions.List(ctx, parsed, limit)
}

// VoteSuggestion adds one vote per device. Hitting the approval threshold
// promotes the suggestion to a real store immediately.
func (s *Service) VoteSuggestion(ctx context.Context, suggestionID, deviceID string) (*domain.StoreSuggestion, error) {
	if deviceID == "" {
		return nil, apperr.MissingField("device_id")
	}

	deviceHash := hashDevice(deviceID)
	if s.limiter != nil && !s.limiter.AllowVote(ctx, deviceHash) {
		return nil, apperr.RateLimited("vote limit reached, try again later")
	}

	suggestion, err := s.suggestions.AddVote(ctx, suggestionID, deviceHash)
	if err != nil {
		if errors.Is(err, out.ErrNotFound) {
			return nil, apperr.NotFound("suggestion").WithDetail("id", suggestionID)
		}
		return nil, fmt.Errorf("vote suggestion: %w", err)
	}

	if suggestion.Status == domain.SuggestionStatusPending &&
		suggestion.Votes >= domain.SuggestionApprovalVotes {
		return s.approve(ctx, suggestion)
	}
	return suggestion, nil
}

func (s *Service) approve(ctx context.Context, suggestion *domain.StoreSuggestion) (*domain.StoreSuggestion, error) {
	approved, err := s.suggestions.Approve(ctx, suggestion.ID)
	if err != nil {
		return nil, fmt.Errorf("approve suggestion: %w", err)
	}

	store := &domain.Store{
		ID:               slugify(approved.Name),
		Name:             approved.Name,
		Website:          approved.Website,
		Domains:          []string{approved.Domain},
		PopularityWeight: suggestedStorePopularity,
		CreatedAt:        time.Now().UTC(),
	}
	if approved.Keyword != "" {
		store.Aliases = []string{approved.Keyword}
	}

	if err := s.stores.Create(ctx, store); err != nil {
		return nil, fmt.Errorf("promote suggestion to store: %w", err)
	}
	s.registry.Add(store)

	logger.WithFields(map[string]any{
		"suggestion_id": approved.ID,
		"store_id":      store.ID,
		"votes":         approved.Votes,
	}).Info("Store suggestion approved")

	return approved, nil
}

func slugify(name string) string {
	slug := slugPattern.ReplaceAllString(strings.ToLower(name), "-")
	return strings.Trim(slug, "-")
}

func hashDevice(deviceID string) string {
	sum := sha256.Sum256([]byte(deviceID))
	return hex.EncodeToString(sum[:])
}
