package utils

import (
	"context"
	"sort"
	"sync"
	"time"
)

// WorkerPool bounds the number of page loads in flight and spaces their
// start times by a minimum interval.
type WorkerPool struct {
	interval time.Duration
	slots    chan struct{}
	wg       sync.WaitGroup
	mu       sync.Mutex
	last     time.Time
}

// NewWorkerPool creates a pool running at most maxWorkers jobs at once.
// A rateLimitMs of zero disables spacing.
func NewWorkerPool(maxWorkers, rateLimitMs int) *WorkerPool {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	if rateLimitMs < 0 {
		rateLimitMs = 0
	}
	return &WorkerPool{
		interval: time.Duration(rateLimitMs) * time.Millisecond,
		slots:    make(chan struct{}, maxWorkers),
	}
}

// Submit enqueues a job. It blocks while every slot is taken.
func (wp *WorkerPool) Submit(job func()) {
	wp.SubmitContext(context.Background(), func(context.Context) { job() })
}

// SubmitContext enqueues a job that receives ctx. Jobs whose context is
// already done when a slot frees up are dropped without running.
func (wp *WorkerPool) SubmitContext(ctx context.Context, job func(ctx context.Context)) {
	wp.wg.Add(1)
	select {
	case wp.slots <- struct{}{}:
	case <-ctx.Done():
		wp.wg.Done()
		return
	}

	go func() {
		defer wp.wg.Done()
		defer func() { <-wp.slots }()

		if !wp.waitTurn(ctx) {
			return
		}
		job(ctx)
	}()
}

// Wait blocks until all submitted jobs have completed.
func (wp *WorkerPool) Wait() {
	wp.wg.Wait()
}

func (wp *WorkerPool) waitTurn(ctx context.Context) bool {
	if wp.interval == 0 {
		return ctx.Err() == nil
	}

	wp.mu.Lock()
	defer wp.mu.Unlock()

	if !wp.last.IsZero() {
		if wait := wp.interval - time.Since(wp.last); wait > 0 {
			t := time.NewTimer(wait)
			defer t.Stop()
			select {
			case <-t.C:
			case <-ctx.Done():
				return false
			}
		}
	}
	wp.last = time.Now()
	return ctx.Err() == nil
}

// URLSet is a thread-safe set of canonical URLs.
type URLSet struct {
	mu   sync.RWMutex
	seen map[string]struct{}
}

// NewURLSet creates an empty URLSet.
func NewURLSet() *URLSet {
	return &URLSet{seen: make(map[string]struct{})}
}

// Add returns true if the URL was newly added, false if already present.
func (s *URLSet) Add(url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.seen[url]; exists {
		return false
	}
	s.seen[url] = struct{}{}
	return true
}

func (s *URLSet) Contains(url string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, exists := s.seen[url]
	return exists
}

func (s *URLSet) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.seen)
}

// Sorted returns the tracked URLs in lexical order.
func (s *URLSet) Sorted() []string {
	s.mu.RLock()
	out := make([]string, 0, len(s.seen))
	for u := range s.seen {
		out = append(out, u)
	}
	s.mu.RUnlock()
	sort.Strings(out)
	return out
}
