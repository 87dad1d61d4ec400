// Package worker drains telemetry beacons off the queue and applies
// them to the session tracker.
package worker

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/valetivivek/comite/internal/domain/model"
	"github.com/valetivivek/comite/pkg/logger"
	"github.com/valetivivek/comite/pkg/metrics"
)

// Default worker configuration.
const (
	defaultWorkerCount    = 4
	workerShutdownTimeout = 5 * time.Second
)

// Event is what workers read off the queue.
type Event = model.TelemetryEvent

// Applier receives telemetry signals. Implemented by the tracker.
type Applier interface {
	RecordActivity(ctx context.Context, userID, chapterID string)
	RecordScrollDepth(ctx context.Context, userID, chapterID string, pct float64)
	RecordImageSeen(ctx context.Context, userID, chapterID, imageID string)
}

// Queue defines how workers receive events.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Event
}

// Worker applies queued telemetry until stopped.
type Worker struct {
	queue   Queue
	applier Applier
	name    string

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewWorker creates a worker with configuration options.
func NewWorker(queue Queue, applier Applier, opts ...Option) *Worker {
	w := &Worker{
		queue:    queue,
		applier:  applier,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Get().Named(w.name)
	}
	return w
}

// Run starts the worker loop.
func (w *Worker) Run(ctx context.Context) {
	defer close(w.done)

	events := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			w.apply(ctx, event)
		}
	}
}

// Shutdown stops the worker, waiting for the in-flight event.
func (w *Worker) Shutdown(ctx context.Context) error {
	close(w.shutdown)

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// apply dispatches one beacon to the tracker. Unknown kinds are dropped.
func (w *Worker) apply(ctx context.Context, event Event) {
	start := time.Now()
	defer func() {
		metrics.RecordApplyLatency(float64(time.Since(start).Milliseconds()))
	}()

	switch event.Kind {
	case model.TelemetryActivity:
		w.applier.RecordActivity(ctx, event.UserID, event.ChapterID)
	case model.TelemetryScroll:
		w.applier.RecordActivity(ctx, event.UserID, event.ChapterID)
		w.applier.RecordScrollDepth(ctx, event.UserID, event.ChapterID, event.ScrollPct)
	case model.TelemetryImageSeen:
		w.applier.RecordImageSeen(ctx, event.UserID, event.ChapterID, event.ImageID)
	default:
		w.logger.Debug(ctx, "dropping unknown telemetry kind",
			logger.String("kind", event.Kind),
			logger.String("user", event.UserID),
		)
	}
}

// Pool manages a fixed set of workers.
type Pool struct {
	workers []*Worker

	logger logger.Logger
}

// NewPool creates and wires workerCount workers over the queue.
func NewPool(workerCount int, queue Queue, applier Applier) *Pool {
	if workerCount < 1 {
		workerCount = defaultWorkerCount
	}

	p := &Pool{
		workers: make([]*Worker, workerCount),
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := range p.workers {
		p.workers[i] = NewWorker(queue, applier, WithName("worker-"+strconv.Itoa(i)))
	}

	metrics.UpdateWorkerCount(workerCount)
	return p
}

// Start launches all workers.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Stop signals all workers and waits briefly for each to finish.
func (p *Pool) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), workerShutdownTimeout)
	defer cancel()

	for _, w := range p.workers {
		if err := w.Shutdown(ctx); err != nil {
			p.logger.Warn(ctx, "worker did not stop in time",
				logger.String("worker", w.name),
				logger.Error(err),
			)
		}
	}
}
