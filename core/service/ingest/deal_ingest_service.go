package ingest

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"deal_server/config"
	"deal_server/core/domain"
	"deal_server/core/port/in"
	"deal_server/core/port/out"
	"deal_server/core/service/normalize"
	"deal_server/pkg/cache"
	"deal_server/pkg/logger"
	"deal_server/pkg/ratelimit"
	"deal_server/pkg/resilience"

	"github.com/go-pkgz/pool"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// sourceStatusKey is the Redis hash holding per-source run state, so a
// worker's runs are visible to API replicas that never ingest themselves.
const sourceStatusKey = "ingest:source_status"

// sourceState tracks the last run of one connector. Kept in memory and
// mirrored to Redis when available.
type sourceState struct {
	LastRunAt   time.Time `json:"last_run_at"`
	LastFetched int       `json:"last_fetched"`
	LastError   string    `json:"last_error,omitempty"`
}

// Service implements in.IngestionService. Connectors run through a bounded
// worker pool; one run is in flight at a time.
type Service struct {
	connectors []out.SourceConnector
	normalizer *normalize.Normalizer
	coupons    out.CouponRepository
	history    out.IngestionHistoryRepository
	breakers   *resilience.BreakerRegistry
	fetchCache *cache.FetchCache
	listCache  *ratelimit.DealListCache
	redis      *redis.Client
	sourcesCfg *config.SourcesConfig
	cfg        *config.Config

	running atomic.Bool

	mu     sync.Mutex
	states map[string]*sourceState
}

// NewService creates a new IngestionService
func NewService(
	connectors []out.SourceConnector,
	normalizer *normalize.Normalizer,
	coupons out.CouponRepository,
	history out.IngestionHistoryRepository,
	breakers *resilience.BreakerRegistry,
	fetchCache *cache.FetchCache,
	listCache *ratelimit.DealListCache,
	redisClient *redis.Client,
	sourcesCfg *config.SourcesConfig,
	cfg *config.Config,
) in.IngestionService {
	return &Service{
		connectors: connectors,
		normalizer: normalizer,
		coupons:    coupons,
		history:    history,
		breakers:   breakers,
		fetchCache: fetchCache,
		listCache:  listCache,
		redis:      redisClient,
		sourcesCfg: sourcesCfg,
		cfg:        cfg,
		states:     make(map[string]*sourceState),
	}
}

func (s *Service) IsRunning() bool {
	return s.running.Load()
}

// Run executes one full ingestion cycle: fetch every connector, normalize
// and upsert the offers, sweep expired rows, and invalidate cached lists.
// A second call while a cycle is in flight returns started=false.
func (s *Service) Run(ctx context.Context) (*domain.RunSummary, bool, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, false, nil
	}
	defer s.running.Store(false)

	summary := &domain.RunSummary{
		RunID:     uuid.New().String(),
		StartedAt: time.Now().UTC(),
	}

	log := logger.WithField("run_id", summary.RunID)
	log.Info("Ingestion run started", "sources", len(s.connectors))

	var mu sync.Mutex
	workers := s.cfg.IngestConcurrency
	if workers < 1 {
		workers = 1
	}

	grp := pool.New[out.SourceConnector](workers,
		pool.WorkerFunc[out.SourceConnector](func(ctx context.Context, connector out.SourceConnector) error {
			outcome := s.runConnector(ctx, summary.RunID, connector)
			mu.Lock()
			summary.Outcomes = append(summary.Outcomes, outcome)
			mu.Unlock()
			return nil
		})).WithContinueOnError()

	if err := grp.Go(ctx); err != nil {
		return nil, true, err
	}
	for _, connector := range s.connectors {
		grp.Submit(connector)
	}
	if err := grp.Close(ctx); err != nil {
		log.WithError(err).Warn("Ingestion pool closed with error")
	}

	expired, err := s.coupons.DeleteExpired(ctx, time.Now().UTC())
	if err != nil {
		log.WithError(err).Error("Expiry sweep failed")
	} else {
		summary.Expired = expired
	}

	if s.listCache != nil {
		s.listCache.InvalidateAll(ctx)
	}

	summary.FinishedAt = time.Now().UTC()
	fetched, inserted, duplicates := summary.Totals()
	log.WithDuration(summary.FinishedAt.Sub(summary.StartedAt)).Info("Ingestion run finished",
		"fetched", fetched, "inserted", inserted, "duplicates", duplicates, "expired", summary.Expired)

	return summary, true, nil
}

// runConnector fetches one source and lands its offers. A fetch failure is
// recorded on the outcome; it never fails the run.
func (s *Service) runConnector(ctx context.Context, runID string, connector out.SourceConnector) domain.FetchOutcome {
	outcome := domain.FetchOutcome{
		SourceID:  connector.ID(),
		StartedAt: time.Now().UTC(),
	}

	raws, err := s.fetch(ctx, connector)
	if err != nil {
		outcome.Err = err
		outcome.Error = err.Error()
		outcome.FinishedAt = time.Now().UTC()
		s.noteRun(connector.ID(), &outcome)
		logger.WithSource(connector.ID()).WithError(err).Error("Source fetch failed")
		return outcome
	}
	outcome.Fetched = len(raws)

	for _, raw := range raws {
		coupon := s.normalizer.Normalize(raw, connector.ID(), connector.TrustWeight())
		if coupon == nil {
			outcome.Skipped++
			continue
		}

		result, err := s.coupons.Upsert(ctx, coupon)
		if err != nil {
			// An upsert failure means persistence is unavailable, not a bad
			// offer. Abort the source and surface it on the outcome.
			logger.WithSource(connector.ID()).WithError(err).Error("Coupon upsert failed")
			outcome.Err = err
			outcome.Error = err.Error()
			break
		}
		if result.Inserted {
			outcome.Inserted++
		} else {
			outcome.Duplicates++
		}
	}

	outcome.FinishedAt = time.Now().UTC()
	s.noteRun(connector.ID(), &outcome)

	if err := s.history.Record(ctx, &domain.IngestionRecord{
		RunID:      runID,
		SourceID:   connector.ID(),
		Fetched:    outcome.Fetched,
		Inserted:   outcome.Inserted,
		Duplicates: outcome.Duplicates,
		RunAt:      outcome.FinishedAt,
	}); err != nil {
		logger.WithSource(connector.ID()).WithError(err).Error("Ingestion history write failed")
	}

	return outcome
}

// fetch pulls offers through the per-source circuit breaker, consulting the
// short-lived fetch cache first.
func (s *Service) fetch(ctx context.Context, connector out.SourceConnector) ([]domain.RawCoupon, error) {
	if s.fetchCache != nil {
		var cached []domain.RawCoupon
		if s.fetchCache.Get(ctx, connector.ID(), &cached) {
			return cached, nil
		}
	}

	result, err := s.breakers.Execute(connector.ID(), func() (interface{}, error) {
		fetchCtx := ctx
		if s.cfg.IngestFetchTimeout > 0 {
			var cancel context.CancelFunc
			fetchCtx, cancel = context.WithTimeout(ctx, s.cfg.IngestFetchTimeout)
			defer cancel()
		}
		return connector.Fetch(fetchCtx)
	})
	if err != nil {
		return nil, err
	}

	raws, _ := result.([]domain.RawCoupon)
	if s.fetchCache != nil && len(raws) > 0 {
		s.fetchCache.Put(ctx, connector.ID(), raws)
	}
	return raws, nil
}

func (s *Service) noteRun(sourceID string, outcome *domain.FetchOutcome) {
	state := &sourceState{
		LastRunAt:   outcome.FinishedAt,
		LastFetched: outcome.Fetched,
		LastError:   outcome.Error,
	}

	s.mu.Lock()
	s.states[sourceID] = state
	s.mu.Unlock()

	if s.redis != nil {
		if data, err := json.Marshal(state); err == nil {
			if err := s.redis.HSet(context.Background(), sourceStatusKey, sourceID, data).Err(); err != nil {
				logger.WithSource(sourceID).WithError(err).Warn("Source status write to Redis failed")
			}
		}
	}
}

// SourceStatuses reports every configured connector with its last run and
// breaker state. Local state wins; Redis fills in runs made by other
// replicas.
func (s *Service) SourceStatuses(ctx context.Context) []domain.SourceStatus {
	breakerStates := s.breakers.States()
	shared := s.sharedStates(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	statuses := make([]domain.SourceStatus, 0, len(s.connectors))
	for _, connector := range s.connectors {
		status := domain.SourceStatus{
			SourceID: connector.ID(),
			Kind:     connector.Kind(),
			Enabled:  s.sourcesCfg.SourceEnabled(connector.ID()),
			Breaker:  breakerStates[connector.ID()],
		}
		state, ok := s.states[connector.ID()]
		if !ok {
			state, ok = shared[connector.ID()]
		}
		if ok {
			t := state.LastRunAt
			status.LastRunAt = &t
			status.LastFetched = state.LastFetched
			status.LastError = state.LastError
		}
		statuses = append(statuses, status)
	}
	return statuses
}

func (s *Service) sharedStates(ctx context.Context) map[string]*sourceState {
	if s.redis == nil {
		return nil
	}
	raw, err := s.redis.HGetAll(ctx, sourceStatusKey).Result()
	if err != nil {
		logger.WithError(err).Warn("Source status read from Redis failed")
		return nil
	}
	states := make(map[string]*sourceState, len(raw))
	for sourceID, payload := range raw {
		var state sourceState
		if err := json.Unmarshal([]byte(payload), &state); err == nil {
			states[sourceID] = &state
		}
	}
	return states
}

func (s *Service) History(ctx context.Context, limit int) ([]*domain.IngestionRecord, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.history.ListRecent(ctx, limit)
}
