// Package worker hosts the background ingestion scheduler.
package worker

import (
	"context"
	"time"

	"deal_server/core/port/in"
	"deal_server/pkg/logger"

	"github.com/rs/zerolog"
)

const startupDelay = 5 * time.Second

// IngestScheduler triggers ingestion runs on a fixed interval. The service
// itself guarantees at most one run in flight, so an overlapping tick is a
// cheap no-op.
type IngestScheduler struct {
	ingestion in.IngestionService
	interval  time.Duration
	zlog      zerolog.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewIngestScheduler creates a scheduler firing every interval. Intervals
// under a minute are clamped to a minute.
func NewIngestScheduler(ingestion in.IngestionService, interval time.Duration, zlog zerolog.Logger) *IngestScheduler {
	if interval < time.Minute {
		interval = time.Minute
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &IngestScheduler{
		ingestion: ingestion,
		interval:  interval,
		zlog:      zlog,
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
}

// Start launches the scheduler loop in a goroutine.
func (s *IngestScheduler) Start() {
	logger.Info("[IngestScheduler] Starting", "interval", s.interval.String())
	go s.run()
}

// Stop cancels the loop and waits for an in-flight run to finish.
func (s *IngestScheduler) Stop() {
	logger.Info("[IngestScheduler] Stopping...")
	s.cancel()
	<-s.done
}

func (s *IngestScheduler) run() {
	defer close(s.done)

	// Short delay so the server finishes binding before the first run.
	select {
	case <-s.ctx.Done():
		return
	case <-time.After(startupDelay):
	}
	s.runOnce()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			logger.Info("[IngestScheduler] Stopped")
			return
		case <-ticker.C:
			s.runOnce()
		}
	}
}

func (s *IngestScheduler) runOnce() {
	summary, started, err := s.ingestion.Run(s.ctx)
	if err != nil {
		logger.Error("[IngestScheduler] Ingestion run failed", "error", err)
		return
	}
	if !started {
		logger.Warn("[IngestScheduler] Skipped tick, a run is already in progress")
		return
	}
	fetched, inserted, duplicates := summary.Totals()
	s.zlog.Info().
		Str("run_id", summary.RunID).
		Int("fetched", fetched).
		Int("inserted", inserted).
		Int("duplicates", duplicates).
		Int64("expired_removed", summary.Expired).
		Msg("scheduled ingestion run finished")
}
