package perf

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type batchRecorder struct {
	mu      sync.Mutex
	batches [][]int
}

func (r *batchRecorder) process(_ context.Context, batch []int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = append(r.batches, append([]int(nil), batch...))
	return nil
}

func (r *batchRecorder) snapshot() [][]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]int(nil), r.batches...)
}

func waitDrained(t *testing.T, p interface{ Wait(context.Context) error }) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := p.Wait(ctx); err != nil {
		t.Fatalf("Wait: %v", err)
	}
}

func TestBatchProcessorFIFOBatches(t *testing.T) {
	rec := &batchRecorder{}
	p := NewBatchProcessor(rec.process, BatchConfig{BatchSize: 2, Delay: time.Millisecond})
	defer p.Close()

	p.AddMultiple([]int{1, 2, 3, 4, 5})
	waitDrained(t, p)

	want := [][]int{{1, 2}, {3, 4}, {5}}
	if got := rec.snapshot(); !reflect.DeepEqual(got, want) {
		t.Errorf("batches = %v, want %v", got, want)
	}
	if p.Pending() != 0 {
		t.Errorf("Pending() = %d, want 0", p.Pending())
	}
	if p.Processing() {
		t.Error("processor should be idle after draining")
	}
}

func TestBatchProcessorDefaults(t *testing.T) {
	p := NewBatchProcessor(func(context.Context, []int) error { return nil }, BatchConfig{})
	defer p.Close()

	if p.batchSize != DefaultBatchSize {
		t.Errorf("batchSize = %d, want %d", p.batchSize, DefaultBatchSize)
	}
	if p.delay != DefaultBatchDelay {
		t.Errorf("delay = %v, want %v", p.delay, DefaultBatchDelay)
	}
}

func TestBatchProcessorSingleFlight(t *testing.T) {
	var active, maxActive int32
	var total int32

	p := NewBatchProcessor(func(_ context.Context, batch []int) error {
		n := atomic.AddInt32(&active, 1)
		for {
			m := atomic.LoadInt32(&maxActive)
			if n <= m || atomic.CompareAndSwapInt32(&maxActive, m, n) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		atomic.AddInt32(&total, int32(len(batch)))
		atomic.AddInt32(&active, -1)
		return nil
	}, BatchConfig{BatchSize: 3, Delay: time.Millisecond})
	defer p.Close()

	var wg sync.WaitGroup
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 25; i++ {
				p.Add(i)
			}
		}()
	}
	wg.Wait()
	waitDrained(t, p)

	if n := atomic.LoadInt32(&maxActive); n != 1 {
		t.Errorf("observed %d overlapping batches, want 1", n)
	}
	if n := atomic.LoadInt32(&total); n != 100 {
		t.Errorf("processed %d items, want 100", n)
	}
}

func TestBatchProcessorAddWhileDrainingKeepsOrder(t *testing.T) {
	rec := &batchRecorder{}
	p := NewBatchProcessor(rec.process, BatchConfig{BatchSize: 2, Delay: 5 * time.Millisecond})
	defer p.Close()

	p.AddMultiple([]int{1, 2, 3})
	p.Add(4)
	p.Add(5)
	waitDrained(t, p)

	var flat []int
	for _, b := range rec.snapshot() {
		if len(b) > 2 {
			t.Errorf("batch %v exceeds batch size", b)
		}
		flat = append(flat, b...)
	}
	if want := []int{1, 2, 3, 4, 5}; !reflect.DeepEqual(flat, want) {
		t.Errorf("items = %v, want %v", flat, want)
	}
}

func TestBatchProcessorErrorDropsBatchAndContinues(t *testing.T) {
	rec := &batchRecorder{}
	failing := errors.New("boom")

	p := NewBatchProcessor(func(ctx context.Context, batch []int) error {
		if batch[0] == 1 {
			return failing
		}
		return rec.process(ctx, batch)
	}, BatchConfig{BatchSize: 2, Delay: time.Millisecond})
	defer p.Close()

	var mu sync.Mutex
	var failed [][]int
	p.OnError(func(batch []int, err error) {
		if !errors.Is(err, failing) {
			t.Errorf("unexpected error %v", err)
		}
		mu.Lock()
		failed = append(failed, batch)
		mu.Unlock()
	})

	p.AddMultiple([]int{1, 2, 3, 4})
	waitDrained(t, p)

	mu.Lock()
	defer mu.Unlock()
	if !reflect.DeepEqual(failed, [][]int{{1, 2}}) {
		t.Errorf("failed batches = %v", failed)
	}
	if got := rec.snapshot(); !reflect.DeepEqual(got, [][]int{{3, 4}}) {
		t.Errorf("processed batches = %v, want [[3 4]]", got)
	}
}

func TestBatchProcessorPanicClearsProcessing(t *testing.T) {
	var calls int32
	p := NewBatchProcessor(func(_ context.Context, batch []int) error {
		if atomic.AddInt32(&calls, 1) == 1 {
			panic("bad batch")
		}
		return nil
	}, BatchConfig{BatchSize: 1, Delay: time.Millisecond})
	defer p.Close()

	p.AddMultiple([]int{1, 2})
	waitDrained(t, p)

	if p.Processing() {
		t.Error("processing flag stuck after panic")
	}
	if n := atomic.LoadInt32(&calls); n != 2 {
		t.Errorf("calls = %d, want 2", n)
	}

	// The processor keeps working afterwards.
	p.Add(3)
	waitDrained(t, p)
	if n := atomic.LoadInt32(&calls); n != 3 {
		t.Errorf("calls = %d after restart, want 3", n)
	}
}

func TestBatchProcessorClearKeepsInFlightBatch(t *testing.T) {
	rec := &batchRecorder{}
	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once

	p := NewBatchProcessor(func(ctx context.Context, batch []int) error {
		once.Do(func() {
			close(started)
			<-release
		})
		return rec.process(ctx, batch)
	}, BatchConfig{BatchSize: 2, Delay: time.Millisecond})
	defer p.Close()

	p.AddMultiple([]int{1, 2, 3, 4, 5})
	<-started

	p.Clear()
	if p.Pending() != 0 {
		t.Errorf("Pending() = %d after Clear, want 0", p.Pending())
	}
	close(release)
	waitDrained(t, p)

	if got := rec.snapshot(); !reflect.DeepEqual(got, [][]int{{1, 2}}) {
		t.Errorf("batches = %v, want only the in-flight batch", got)
	}
}

func TestBatchProcessorCloseStopsLoop(t *testing.T) {
	rec := &batchRecorder{}
	p := NewBatchProcessor(rec.process, BatchConfig{BatchSize: 1, Delay: time.Hour})

	p.AddMultiple([]int{1, 2, 3})

	done := make(chan struct{})
	go func() {
		p.Close()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Close did not interrupt the pause between batches")
	}

	if p.Processing() {
		t.Error("processor still running after Close")
	}
	p.Add(9)
	if p.Pending() != 0 {
		t.Error("Add after Close should be ignored")
	}
	if n := len(rec.snapshot()); n > 1 {
		t.Errorf("processed %d batches, want at most 1", n)
	}
}
