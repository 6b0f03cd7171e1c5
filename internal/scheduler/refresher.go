package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/MrSnakeDoc/recall/internal/logger"
)

// Fetcher refetches the bookmark collection.
type Fetcher interface {
	FetchBookmarks(ctx context.Context) error
}

// Refresher keeps the collection fresh: one fetch on start, then a fetch
// every interval and on each manual trigger.
type Refresher struct {
	fetcher       Fetcher
	logger        logger.Logger
	interval      time.Duration
	stopCh        chan struct{}
	stopOnce      sync.Once
	done          chan struct{}
	manualTrigger chan struct{}
}

// NewRefresher creates a refresher. interval <= 0 disables the periodic
// fetch; the manual trigger still works. manualTrigger may be nil.
func NewRefresher(
	fetcher Fetcher,
	log logger.Logger,
	interval time.Duration,
	manualTrigger chan struct{},
) *Refresher {
	return &Refresher{
		fetcher:       fetcher,
		logger:        log,
		interval:      interval,
		stopCh:        make(chan struct{}),
		done:          make(chan struct{}),
		manualTrigger: manualTrigger,
	}
}

// Start performs the initial fetch and launches the loop. An initial
// failure is logged: the page shows the fetch banner until a later
// fetch succeeds.
func (r *Refresher) Start(ctx context.Context) {
	if err := r.fetcher.FetchBookmarks(ctx); err != nil {
		r.logger.Warn("initial bookmark fetch failed", logger.Error(err))
	} else {
		r.logger.Info("initial bookmark fetch done")
	}

	var tick <-chan time.Time
	if r.interval > 0 {
		ticker := time.NewTicker(r.interval)
		tick = ticker.C
		go func() {
			<-r.done
			ticker.Stop()
		}()
	}

	go func() {
		defer close(r.done)
		for {
			select {
			case <-tick:
				r.refresh(ctx, "interval")
			case <-r.manualTrigger:
				r.logger.Info("manual bookmark refresh triggered")
				r.refresh(ctx, "manual")
			case <-r.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop ends the loop and waits for an in-flight refresh to finish.
func (r *Refresher) Stop() {
	r.stopOnce.Do(func() { close(r.stopCh) })
	<-r.done
}

func (r *Refresher) refresh(ctx context.Context, reason string) {
	if err := r.fetcher.FetchBookmarks(ctx); err != nil {
		r.logger.Error("failed to refresh bookmarks",
			logger.String("reason", reason),
			logger.Error(err))
		return
	}
	r.logger.Debug("bookmarks refreshed", logger.String("reason", reason))
}
