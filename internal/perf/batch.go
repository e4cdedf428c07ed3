package perf

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/eapache/queue"
	"go.uber.org/zap"
)

const (
	DefaultBatchSize  = 50
	DefaultBatchDelay = 16 * time.Millisecond
)

// ProcessFunc handles one batch. Batches are never larger than the
// configured batch size and arrive in FIFO order.
type ProcessFunc[T any] func(ctx context.Context, batch []T) error

// BatchConfig tunes a BatchProcessor. Zero fields take the defaults; a
// negative Delay disables the pause between batches.
type BatchConfig struct {
	BatchSize int
	Delay     time.Duration
	Logger    *zap.Logger
}

// BatchProcessor drains queued items in fixed-size batches, pausing between
// batches so the caller's UI loop gets a chance to run. At most one drain
// loop is active per processor.
//
// A batch whose ProcessFunc fails or panics is logged, reported to the
// error handler and dropped; draining continues with the next batch.
type BatchProcessor[T any] struct {
	fn        ProcessFunc[T]
	batchSize int
	delay     time.Duration
	log       *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	queue      *queue.Queue
	processing bool
	closed     bool
	idle       chan struct{} // closed when the current drain loop exits
	onError    func(batch []T, err error)
}

// NewBatchProcessor creates a processor that hands batches to fn.
func NewBatchProcessor[T any](fn ProcessFunc[T], cfg BatchConfig) *BatchProcessor[T] {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.Delay < 0 {
		cfg.Delay = 0
	} else if cfg.Delay == 0 {
		cfg.Delay = DefaultBatchDelay
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &BatchProcessor[T]{
		fn:        fn,
		batchSize: cfg.BatchSize,
		delay:     cfg.Delay,
		log:       cfg.Logger,
		ctx:       ctx,
		cancel:    cancel,
		queue:     queue.New(),
	}
}

// OnError registers a callback for batches that failed.
func (p *BatchProcessor[T]) OnError(fn func(batch []T, err error)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onError = fn
}

// Add queues one item and starts draining if idle.
func (p *BatchProcessor[T]) Add(item T) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.queue.Add(item)
	p.startLocked()
}

// AddMultiple queues items in order and starts draining if idle.
func (p *BatchProcessor[T]) AddMultiple(items []T) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || len(items) == 0 {
		return
	}
	for _, item := range items {
		p.queue.Add(item)
	}
	p.startLocked()
}

// Clear drops items that have not been handed to ProcessFunc yet.
func (p *BatchProcessor[T]) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.queue = queue.New()
}

// Pending returns the number of queued items.
func (p *BatchProcessor[T]) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.queue.Length()
}

// Processing reports whether a drain loop is running.
func (p *BatchProcessor[T]) Processing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.processing
}

// Wait blocks until the queue is empty and no drain loop is running.
func (p *BatchProcessor[T]) Wait(ctx context.Context) error {
	for {
		p.mu.Lock()
		if !p.processing {
			p.mu.Unlock()
			return nil
		}
		idle := p.idle
		p.mu.Unlock()

		select {
		case <-idle:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close stops accepting items, interrupts the pause between batches and
// waits for the drain loop to exit. Queued items are discarded.
func (p *BatchProcessor[T]) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.queue = queue.New()
	p.mu.Unlock()

	p.cancel()
	_ = p.Wait(context.Background())
}

func (p *BatchProcessor[T]) startLocked() {
	if p.processing || p.queue.Length() == 0 {
		return
	}
	p.processing = true
	p.idle = make(chan struct{})
	go p.drain()
}

func (p *BatchProcessor[T]) finishLocked() {
	p.processing = false
	close(p.idle)
}

func (p *BatchProcessor[T]) drain() {
	for {
		batch, ok := p.next()
		if !ok {
			return
		}

		p.run(batch)

		if !p.pause() {
			p.mu.Lock()
			p.finishLocked()
			p.mu.Unlock()
			return
		}
	}
}

// next dequeues up to batchSize items. When nothing is left it marks the
// loop finished under the same lock, so a concurrent Add starts a new loop.
func (p *BatchProcessor[T]) next() ([]T, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := min(p.queue.Length(), p.batchSize)
	if n == 0 || p.ctx.Err() != nil {
		p.finishLocked()
		return nil, false
	}

	batch := make([]T, n)
	for i := range batch {
		batch[i], _ = p.queue.Remove().(T)
	}
	return batch, true
}

func (p *BatchProcessor[T]) run(batch []T) {
	err := p.call(batch)
	if err == nil {
		return
	}

	p.log.Warn("batch processing failed",
		zap.Int("batch_size", len(batch)),
		zap.Error(err))

	p.mu.Lock()
	onError := p.onError
	p.mu.Unlock()
	if onError != nil {
		onError(batch, err)
	}
}

func (p *BatchProcessor[T]) call(batch []T) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("batch processor panic: %v", r)
		}
	}()
	return p.fn(p.ctx, batch)
}

// pause sleeps for the inter-batch delay. It returns false when the
// processor was closed meanwhile.
func (p *BatchProcessor[T]) pause() bool {
	if p.delay == 0 {
		return p.ctx.Err() == nil
	}
	timer := time.NewTimer(p.delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-p.ctx.Done():
		return false
	}
}
