package core

// import_limiter.go bounds concurrent import runs.
//
// Two runs writing the same output directory would interleave their
// remove-then-write steps and each would reconcile against state the other
// is replacing. The limiter therefore holds an exclusive lock per output
// directory in addition to a global cap on parallel runs. A run that cannot
// obtain both within maxWait fails with ErrImportBusy.
//
// WaitForDrain supports graceful shutdown by blocking until active runs end.

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"time"
)

// ErrImportBusy is returned when no import slot frees up in time.
var ErrImportBusy = errors.New("another import is in progress, please try again later")

// DefaultMaxConcurrentImports is the default global cap on parallel runs.
const DefaultMaxConcurrentImports = 2

// DefaultMaxWaitTime is how long to wait for a slot before rejecting.
const DefaultMaxWaitTime = 30 * time.Second

// ImportLimiter serializes runs per output directory and caps runs overall.
type ImportLimiter struct {
	semaphore chan struct{}
	maxWait   time.Duration

	mu     sync.Mutex
	active int
	dirs   map[string]chan struct{}
}

// NewImportLimiter creates a limiter allowing at most maxConcurrent runs.
func NewImportLimiter(maxConcurrent int, maxWait time.Duration) *ImportLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentImports
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWaitTime
	}

	return &ImportLimiter{
		semaphore: make(chan struct{}, maxConcurrent),
		maxWait:   maxWait,
		dirs:      make(map[string]chan struct{}),
	}
}

// dirLock returns the lock channel for outputDir, creating it on first use.
func (l *ImportLimiter) dirLock(outputDir string) chan struct{} {
	key := filepath.Clean(outputDir)
	if abs, err := filepath.Abs(key); err == nil {
		key = abs
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	lock, ok := l.dirs[key]
	if !ok {
		lock = make(chan struct{}, 1)
		l.dirs[key] = lock
	}
	return lock
}

// Acquire waits for a global slot and the lock on outputDir. On success the
// caller MUST call the returned release function exactly once.
func (l *ImportLimiter) Acquire(ctx context.Context, outputDir string) (func(), error) {
	waitCtx, cancel := context.WithTimeout(ctx, l.maxWait)
	defer cancel()

	if err := l.wait(ctx, waitCtx, l.semaphore); err != nil {
		return nil, err
	}

	lock := l.dirLock(outputDir)
	if err := l.wait(ctx, waitCtx, lock); err != nil {
		<-l.semaphore
		return nil, err
	}

	return l.started(lock), nil
}

func (l *ImportLimiter) wait(ctx, waitCtx context.Context, slot chan struct{}) error {
	select {
	case slot <- struct{}{}:
		return nil
	case <-waitCtx.Done():
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrImportBusy
	}
}

func (l *ImportLimiter) started(lock chan struct{}) func() {
	l.mu.Lock()
	l.active++
	l.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			l.active--
			l.mu.Unlock()
			<-lock
			<-l.semaphore
		})
	}
}

// ActiveCount returns the number of runs in progress.
func (l *ImportLimiter) ActiveCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.active
}

// MaxConcurrent returns the global cap.
func (l *ImportLimiter) MaxConcurrent() int {
	return cap(l.semaphore)
}

// WaitForDrain blocks until no run is active or ctx is done.
func (l *ImportLimiter) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		if l.ActiveCount() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// ImportLimiterStatus is a snapshot of the limiter.
type ImportLimiterStatus struct {
	Active        int `json:"active"`
	Available     int `json:"available"`
	MaxConcurrent int `json:"max_concurrent"`
}

// Status returns the current limiter state for monitoring.
func (l *ImportLimiter) Status() ImportLimiterStatus {
	active := l.ActiveCount()
	return ImportLimiterStatus{
		Active:        active,
		Available:     cap(l.semaphore) - len(l.semaphore),
		MaxConcurrent: cap(l.semaphore),
	}
}
