package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/MrSnakeDoc/recall/internal/logger"
	"github.com/MrSnakeDoc/recall/internal/state"
)

const (
	// DefaultGCThreshold is how long an operation may stay loading before it
	// is considered abandoned.
	DefaultGCThreshold = 5 * time.Minute
)

// GarbageCollector resets operations stuck in the loading phase. A process
// that dies mid-request leaves its attempt loading in a shared store, and
// the page would show the loading cue until the key expires.
type GarbageCollector struct {
	store     state.StatusStore
	logger    logger.Logger
	interval  time.Duration
	threshold time.Duration
	now       func() time.Time
	stopCh    chan struct{}
	stopOnce  sync.Once
}

// NewGarbageCollector creates a new garbage collector
func NewGarbageCollector(
	store state.StatusStore,
	log logger.Logger,
	interval time.Duration,
	threshold time.Duration,
) *GarbageCollector {
	if threshold <= 0 {
		threshold = DefaultGCThreshold
	}

	return &GarbageCollector{
		store:     store,
		logger:    log,
		interval:  interval,
		threshold: threshold,
		now:       time.Now,
		stopCh:    make(chan struct{}),
	}
}

// Start runs one collection, then one every interval. interval <= 0 only
// runs the first one.
func (gc *GarbageCollector) Start(ctx context.Context) {
	if _, err := gc.Collect(ctx); err != nil {
		gc.logger.Warn("initial garbage collection failed",
			logger.Error(err))
	}
	if gc.interval <= 0 {
		return
	}

	ticker := time.NewTicker(gc.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if _, err := gc.Collect(ctx); err != nil {
					gc.logger.Error("garbage collection failed",
						logger.Error(err))
				}
			case <-gc.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop stops the garbage collector
func (gc *GarbageCollector) Stop() {
	gc.stopOnce.Do(func() { close(gc.stopCh) })
}

// Collect moves every loading state older than the threshold back to idle
// and returns how many it reset. The reset goes through Finish, so an
// attempt that was replaced meanwhile is left alone.
func (gc *GarbageCollector) Collect(ctx context.Context) (int, error) {
	states, err := gc.store.All(ctx)
	if err != nil {
		return 0, err
	}

	now := gc.now()
	reset := 0
	for _, st := range states {
		if st.Phase != state.PhaseLoading || st.UpdatedAt.IsZero() {
			continue
		}
		stuck := now.Sub(st.UpdatedAt)
		if stuck < gc.threshold {
			continue
		}

		idle := state.Idle(st.Op)
		idle.Attempt = st.Attempt
		idle.UpdatedAt = now

		ok, err := gc.store.Finish(ctx, idle)
		if err != nil {
			gc.logger.Warn("failed to reset abandoned operation",
				logger.String("op", string(st.Op)),
				logger.Error(err))
			continue
		}
		if !ok {
			continue
		}

		gc.logger.Info("reset abandoned operation",
			logger.String("op", string(st.Op)),
			logger.String("attempt", st.Attempt),
			logger.Duration("loading_for", stuck))
		reset++
	}

	if reset == 0 {
		gc.logger.Debug("no abandoned operations")
	}
	return reset, nil
}
