package bootstrap

import (
	"context"
	"strings"
	"time"

	"deal_server/adapter/out/persistence"
	"deal_server/adapter/out/source"
	"deal_server/config"
	"deal_server/core/port/in"
	"deal_server/core/port/out"
	"deal_server/core/service/feed"
	"deal_server/core/service/ingest"
	"deal_server/core/service/normalize"
	preferencesservice "deal_server/core/service/preferences"
	"deal_server/core/service/registry"
	storeservice "deal_server/core/service/store"
	"deal_server/core/service/submission"
	"deal_server/data"
	"deal_server/infra/database"
	"deal_server/pkg/cache"
	"deal_server/pkg/logger"
	"deal_server/pkg/ratelimit"
	"deal_server/pkg/resilience"
	"deal_server/pkg/snowflake"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver for database/sql
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

// Dependencies wires every adapter and service the server needs. Both the
// API and the ingestion worker are built from the same graph.
type Dependencies struct {
	Config  *config.Config
	Sources *config.SourcesConfig

	DB    *pgxpool.Pool
	SQLDB *sqlx.DB
	Redis *redis.Client

	Registry   *registry.Registry
	Normalizer *normalize.Normalizer

	CouponRepo      out.CouponRepository
	StoreRepo       out.StoreRepository
	SuggestionRepo  out.StoreSuggestionRepository
	PreferencesRepo out.PreferencesRepository
	HistoryRepo     out.IngestionHistoryRepository
	SubmissionRepo  out.SubmissionRepository

	Breakers   *resilience.BreakerRegistry
	FetchCache *cache.FetchCache
	ListCache  *ratelimit.DealListCache
	Limiter    *ratelimit.DeviceLimiter

	Connectors []out.SourceConnector

	FeedService        in.FeedService
	IngestionService   in.IngestionService
	StoreService       in.StoreService
	PreferencesService in.PreferencesService
	SubmissionService  in.SubmissionService
}

func NewDependencies(cfg *config.Config) (*Dependencies, func(), error) {
	deps := &Dependencies{Config: cfg}
	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}
	fail := func(err error) (*Dependencies, func(), error) {
		cleanup()
		return nil, nil, err
	}

	if err := snowflake.Init(cfg.SnowflakeWorker); err != nil {
		return fail(err)
	}

	sourcesCfg, err := config.LoadSourcesConfig(cfg.SourcesConfigPath)
	if err != nil {
		return fail(err)
	}
	deps.Sources = sourcesCfg

	// Database (pgxpool, used for health checks and pool stats)
	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		return fail(err)
	}
	deps.DB = db
	cleanups = append(cleanups, func() { db.Close() })

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fail(err)
	}

	// Database (sqlx, used by the repositories)
	// Simple protocol avoids prepared statement conflicts behind PgBouncer
	// and lets encoded cursor values bind as text.
	sqlxURL := cfg.DatabaseURL
	if strings.Contains(sqlxURL, "?") {
		sqlxURL += "&default_query_exec_mode=simple_protocol"
	} else {
		sqlxURL += "?default_query_exec_mode=simple_protocol"
	}
	sqlDB, err := sqlx.Connect("pgx", sqlxURL)
	if err != nil {
		return fail(err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)
	deps.SQLDB = sqlDB
	cleanups = append(cleanups, func() { sqlDB.Close() })

	// Redis is optional. Without it the device limiter falls back to its
	// in-process window and the fetch/list caches turn into no-ops.
	redisClient, err := database.NewRedis(cfg.RedisURL)
	if err != nil {
		logger.Warn("Redis connection failed, caches and shared rate limits disabled", "error", err)
	} else {
		deps.Redis = redisClient
		cleanups = append(cleanups, func() { redisClient.Close() })
	}

	// Store catalog: seed the table from the embedded catalog, then build
	// the in-memory registry from whatever the table holds. Stores promoted
	// from approved suggestions survive restarts this way.
	deps.StoreRepo = persistence.NewStoreRepository(sqlDB)

	seedStores, err := data.LoadSeedStores(normalize.ExtractDomain)
	if err != nil {
		return fail(err)
	}

	seedCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := deps.StoreRepo.EnsureSeedData(seedCtx, seedStores); err != nil {
		return fail(err)
	}
	catalog, err := deps.StoreRepo.ListAll(seedCtx)
	if err != nil {
		return fail(err)
	}
	deps.Registry = registry.New(catalog)
	deps.Normalizer = normalize.NewNormalizer(deps.Registry, nil)
	logger.Info("Store registry loaded", "stores", len(catalog))

	// Repositories
	deps.CouponRepo = persistence.NewCouponRepository(sqlDB, deps.Registry)
	deps.SuggestionRepo = persistence.NewStoreSuggestionRepository(sqlDB)
	deps.PreferencesRepo = persistence.NewPreferencesRepository(sqlDB)
	deps.HistoryRepo = persistence.NewIngestionHistoryRepository(sqlDB)
	deps.SubmissionRepo = persistence.NewSubmissionRepository(sqlDB)

	// Resilience and caching around ingestion and the feed
	deps.Breakers = resilience.NewBreakerRegistry()
	var redisCache *cache.RedisCache
	if deps.Redis != nil {
		redisCache = cache.NewRedisCache(deps.Redis)
	}
	deps.FetchCache = cache.NewFetchCache(redisCache, cfg.FetchCacheTTL)
	deps.ListCache = ratelimit.NewDealListCache(deps.Redis, nil)
	deps.Limiter = ratelimit.NewDeviceLimiter(deps.Redis, ratelimit.DeviceLimits{
		SuggestionsPerDay: cfg.SuggestionsPerDevicePerDay,
		VotesPerDay:       cfg.VotesPerDevicePerDay,
	})

	// Source connectors
	deps.Connectors = source.BuildConnectors(sourcesCfg, deps.SubmissionRepo)
	logger.Info("Source connectors configured", "connectors", len(deps.Connectors))

	// Services
	deps.FeedService = feed.NewService(deps.CouponRepo, deps.PreferencesRepo, deps.ListCache, cfg)
	deps.IngestionService = ingest.NewService(
		deps.Connectors,
		deps.Normalizer,
		deps.CouponRepo,
		deps.HistoryRepo,
		deps.Breakers,
		deps.FetchCache,
		deps.ListCache,
		deps.Redis,
		sourcesCfg,
		cfg,
	)
	deps.StoreService = storeservice.NewService(deps.StoreRepo, deps.SuggestionRepo, deps.Registry, deps.Limiter)
	deps.PreferencesService = preferencesservice.NewService(deps.PreferencesRepo)
	deps.SubmissionService = submission.NewService(deps.Normalizer, deps.CouponRepo, deps.SubmissionRepo)

	return deps, cleanup, nil
}

func (d *Dependencies) HealthCheck(ctx context.Context) error {
	if err := d.DB.Ping(ctx); err != nil {
		return err
	}
	if d.Redis != nil {
		if err := d.Redis.Ping(ctx).Err(); err != nil {
			return err
		}
	}
	return nil
}
