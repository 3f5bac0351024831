package bootstrap

import (
	"os"
	"sync"
	"time"

	"deal_server/adapter/in/worker"
	"deal_server/config"
	"deal_server/pkg/logger"

	"github.com/rs/zerolog"
)

// Worker runs the ingestion scheduler on its own dependency graph so the
// worker process can be deployed separately from the API.
type Worker struct {
	scheduler *worker.IngestScheduler

	stopOnce sync.Once
	stopped  chan struct{}
}

func NewWorker(cfg *config.Config) (*Worker, func(), error) {
	logger.Init(logger.Config{
		Level:   logger.ParseLevel(cfg.LogLevel),
		Service: "deal-worker",
	})

	deps, cleanup, err := NewDependencies(cfg)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize worker dependencies")
		return nil, nil, err
	}

	zlog := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().
		Timestamp().
		Str("component", "scheduler").
		Logger()

	interval := time.Duration(deps.Sources.RefreshMinutes) * time.Minute
	w := &Worker{
		scheduler: worker.NewIngestScheduler(deps.IngestionService, interval, zlog),
		stopped:   make(chan struct{}),
	}
	return w, cleanup, nil
}

// Start runs the scheduler and blocks until Stop is called.
func (w *Worker) Start() {
	w.scheduler.Start()
	<-w.stopped
}

// Stop shuts the scheduler down and unblocks Start.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() {
		w.scheduler.Stop()
		close(w.stopped)
	})
}
