package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"sportsmatch/internal/events"

	"github.com/rs/zerolog"
)

var (
	ErrQueueFull  = errors.New("worker pool queue full (backpressure)")
	ErrPoolClosed = errors.New("worker pool is shut down")
)

// WorkerPool delivers domain events to a sink asynchronously so request
// handlers never wait on Kafka or websocket fan-out.
type WorkerPool struct {
	jobs        chan events.Event
	workerCount int
	sink        events.Publisher
	timeout     time.Duration
	log         zerolog.Logger
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	metrics     *PoolMetrics

	mu     sync.RWMutex
	closed bool
}

// PoolMetrics tracks worker pool performance
type PoolMetrics struct {
	mu              sync.RWMutex
	processed       int64
	failed          int64
	backpressure    int64
	totalProcessing time.Duration
}

// NewWorkerPool creates a new worker pool
func NewWorkerPool(workerCount, queueSize int, sink events.Publisher, log zerolog.Logger) *WorkerPool {
	if workerCount <= 0 {
		workerCount = 1
	}
	if queueSize <= 0 {
		queueSize = 1
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &WorkerPool{
		jobs:        make(chan events.Event, queueSize),
		workerCount: workerCount,
		sink:        sink,
		timeout:     5 * time.Second,
		log:         log.With().Str("component", "worker_pool").Logger(),
		ctx:         ctx,
		cancel:      cancel,
		metrics:     &PoolMetrics{},
	}
}

// Start initializes and starts all worker goroutines
func (wp *WorkerPool) Start() {
	wp.log.Info().Int("workers", wp.workerCount).Int("queue", cap(wp.jobs)).Msg("starting worker pool")

	for i := 1; i <= wp.workerCount; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

// worker is the main worker loop that processes jobs
func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	for {
		select {
		case <-wp.ctx.Done():
			return

		case e, ok := <-wp.jobs:
			if !ok {
				return
			}
			wp.processTask(id, e)
		}
	}
}

// processTask delivers a single event with panic recovery
func (wp *WorkerPool) processTask(workerID int, e events.Event) {
	defer func() {
		if r := recover(); r != nil {
			wp.log.Error().Int("worker", workerID).Interface("panic", r).Str("event", string(e.Type)).Msg("worker panic recovered")
			wp.metrics.incrementFailed()
		}
	}()

	startTime := time.Now()

	ctx, cancel := context.WithTimeout(wp.ctx, wp.timeout)
	defer cancel()

	err := wp.sink.Publish(ctx, e)
	processingTime := time.Since(startTime)

	if err != nil {
		wp.log.Warn().Err(err).
			Int("worker", workerID).
			Str("event", string(e.Type)).
			Str("key", e.Key).
			Dur("took", processingTime).
			Msg("event delivery failed")
		wp.metrics.incrementFailed()
		return
	}

	wp.metrics.recordSuccess(processingTime)
}

// Submit attempts to add an event to the queue with backpressure handling
func (wp *WorkerPool) Submit(e events.Event) error {
	wp.mu.RLock()
	defer wp.mu.RUnlock()

	if wp.closed {
		return ErrPoolClosed
	}

	select {
	case wp.jobs <- e:
		return nil

	default:
		wp.log.Warn().Str("event", string(e.Type)).Str("key", e.Key).Msg("queue full, dropping event")
		wp.metrics.incrementBackpressure()
		return ErrQueueFull
	}
}

// Publish makes the pool usable wherever an events.Publisher is expected.
func (wp *WorkerPool) Publish(_ context.Context, e events.Event) error {
	return wp.Submit(e)
}

// Shutdown gracefully stops the worker pool, draining queued events
func (wp *WorkerPool) Shutdown(timeout time.Duration) error {
	wp.mu.Lock()
	if wp.closed {
		wp.mu.Unlock()
		return nil
	}
	wp.closed = true
	close(wp.jobs)
	wp.mu.Unlock()

	done := make(chan struct{})
	go func() {
		wp.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		wp.printMetrics()
		return nil

	case <-time.After(timeout):
		wp.cancel()
		wp.log.Warn().Dur("timeout", timeout).Msg("worker pool shutdown timed out")
		return fmt.Errorf("shutdown timeout exceeded")
	}
}

// GetMetrics returns a snapshot of the pool metrics
func (wp *WorkerPool) GetMetrics() map[string]interface{} {
	wp.metrics.mu.RLock()
	defer wp.metrics.mu.RUnlock()

	avgProcessing := time.Duration(0)
	if wp.metrics.processed > 0 {
		avgProcessing = wp.metrics.totalProcessing / time.Duration(wp.metrics.processed)
	}

	return map[string]interface{}{
		"processed":           wp.metrics.processed,
		"failed":              wp.metrics.failed,
		"backpressure_events": wp.metrics.backpressure,
		"avg_processing_time": avgProcessing.String(),
		"queue_utilization":   fmt.Sprintf("%d/%d", len(wp.jobs), cap(wp.jobs)),
	}
}

func (wp *WorkerPool) printMetrics() {
	m := wp.GetMetrics()
	wp.log.Info().
		Interface("processed", m["processed"]).
		Interface("failed", m["failed"]).
		Interface("backpressure_events", m["backpressure_events"]).
		Interface("avg_processing_time", m["avg_processing_time"]).
		Msg("worker pool stopped")
}

// Metrics helper methods
func (pm *PoolMetrics) recordSuccess(duration time.Duration) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.processed++
	pm.totalProcessing += duration
}

func (pm *PoolMetrics) incrementFailed() {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.failed++
}

func (pm *PoolMetrics) incrementBackpressure() {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.backpressure++
}
