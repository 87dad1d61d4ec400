// Package service wires the reading core together and implements the
// dependencies required by the HTTP API.
package service

import (
	"context"
	"sync"
	"time"

	"github.com/valetivivek/comite/internal/adapters/catalog"
	telemetryqueue "github.com/valetivivek/comite/internal/adapters/mq/queue"
	workerpool "github.com/valetivivek/comite/internal/adapters/mq/worker"
	"github.com/valetivivek/comite/internal/adapters/repository"
	"github.com/valetivivek/comite/internal/config"
	"github.com/valetivivek/comite/internal/domain/flair"
	"github.com/valetivivek/comite/internal/domain/model"
	"github.com/valetivivek/comite/internal/domain/tracker"
	"github.com/valetivivek/comite/pkg/logger"
)

// Service implements the API dependencies for the reading system.
type Service struct {
	mu sync.RWMutex

	// Core components
	docs    repository.DocStore
	stats   *repository.StatsStore
	catalog catalog.Catalog
	tracker *tracker.Tracker
	queue   telemetryqueue.Queue
	workers *workerpool.Pool

	// Configuration
	trackerCfg  config.TrackerConfig
	queueSize   int
	workerCount int

	// State
	started   bool
	cancelRun context.CancelFunc

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithTrackerConfig sets the validity thresholds and timing.
func WithTrackerConfig(cfg config.TrackerConfig) Option {
	return func(s *Service) {
		s.trackerCfg = cfg
	}
}

// WithQueueSize sets the telemetry queue capacity.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithWorkerCount sets the number of telemetry workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithCatalog sets the chapter metadata source.
func WithCatalog(c catalog.Catalog) Option {
	return func(s *Service) {
		if c != nil {
			s.catalog = c
		}
	}
}

// WithDocStore sets the document store backing reading statistics.
func WithDocStore(docs repository.DocStore) Option {
	return func(s *Service) {
		if docs != nil {
			s.docs = docs
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		trackerCfg: config.TrackerConfig{
			TickIntervalSec:     5,
			InactivityWindowSec: 15,
			MinActiveSec:        45,
			MinScrollPct:        80,
			MinImageRatio:       0.70,
		},
		queueSize:   10_000,
		workerCount: 4,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if s.docs == nil {
		s.docs = repository.NewMemStore()
	}
	if s.catalog == nil {
		s.catalog = catalog.NewMemCatalog()
	}

	s.stats = repository.NewStatsStore(s.docs)
	s.tracker = tracker.New(s.stats,
		tracker.WithTickInterval(time.Duration(s.trackerCfg.TickIntervalSec)*time.Second),
		tracker.WithInactivityWindow(time.Duration(s.trackerCfg.InactivityWindowSec)*time.Second),
		tracker.WithMinActive(time.Duration(s.trackerCfg.MinActiveSec)*time.Second),
		tracker.WithMinScrollPct(s.trackerCfg.MinScrollPct),
		tracker.WithMinImageRatio(s.trackerCfg.MinImageRatio),
	)
	s.queue = telemetryqueue.NewInMemoryQueue(
		telemetryqueue.WithCapacity(s.queueSize),
	)
	s.workers = workerpool.NewPool(s.workerCount, s.queue, s.tracker)

	runCtx, cancel := context.WithCancel(context.Background())
	s.cancelRun = cancel
	s.workers.Start(runCtx)
	go s.tracker.Run(runCtx)

	s.started = true
	s.logger.Info(ctx, "reading service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("tickIntervalSec", s.trackerCfg.TickIntervalSec),
	)
	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping reading service...")

	if q, ok := s.queue.(*telemetryqueue.InMemoryQueue); ok {
		_ = q.Close()
	}
	if s.workers != nil {
		s.workers.Stop()
	}
	if s.cancelRun != nil {
		s.cancelRun()
	}

	s.started = false
	s.logger.Info(ctx, "reading service stopped")
}

// StartReading resolves the chapter and begins a tracked session.
func (s *Service) StartReading(ctx context.Context, userID, chapterID string) error {
	info, err := s.catalog.Chapter(ctx, chapterID)
	if err != nil {
		return err
	}
	return s.tracker.StartSession(ctx, userID, chapterID, info.SeriesID, info.ImageCount, info.Genres)
}

// EndReading closes the session and returns the validity verdict.
func (s *Service) EndReading(ctx context.Context, userID, chapterID string) (bool, error) {
	return s.tracker.EndSession(ctx, userID, chapterID)
}

// SubmitTelemetry enqueues a beacon for async application.
func (s *Service) SubmitTelemetry(ctx context.Context, e model.TelemetryEvent) bool {
	return s.queue.Enqueue(ctx, e)
}

// ReadingStats returns a user's durable reading record.
func (s *Service) ReadingStats(ctx context.Context, userID string) (model.UserReadingStats, error) {
	return s.stats.Stats(ctx, userID)
}

// Flair derives the user's rank and genre labels from their statistics,
// honoring a persisted manual override.
func (s *Service) Flair(ctx context.Context, userID string) (model.FlairResult, error) {
	stats, err := s.stats.Stats(ctx, userID)
	if err != nil {
		return model.FlairResult{}, err
	}
	override, err := s.stats.FlairOverride(ctx, userID)
	if err != nil {
		return model.FlairResult{}, err
	}
	return model.FlairResult{
		Rank:   flair.RankFor(stats.TotalChaptersRead),
		Genres: flair.GenreFlairsFor(stats.GenreCounts, override),
	}, nil
}

// SetFlairOverride persists a manual genre selection.
func (s *Service) SetFlairOverride(ctx context.Context, userID string, genres []string) error {
	return s.stats.SetFlairOverride(ctx, userID, genres)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
	}
	if s.started {
		stats["queueLength"] = s.queue.Len(context.Background())
		stats["activeSessions"] = s.tracker.ActiveSessions()
	}
	return stats
}
