// Package state owns the bookmark collection shown to the user and the
// result state of every operation against the bookmark API.
//
// The container is the only component doing network I/O. Every mutation is
// followed by a full refetch so the collection always mirrors server state,
// including server-assigned ids.
package state

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MrSnakeDoc/recall/internal/domain"
	"github.com/MrSnakeDoc/recall/internal/logger"
	"github.com/MrSnakeDoc/recall/internal/validation"
)

// BookmarkAPI is the remote collaborator.
type BookmarkAPI interface {
	List(ctx context.Context) ([]domain.Bookmark, error)
	Create(ctx context.Context, data domain.BookmarkFormData) (*domain.Bookmark, error)
	Delete(ctx context.Context, id int64) error
}

// FormValidator rejects form data before any request is sent.
type FormValidator interface {
	Form(data domain.BookmarkFormData) error
}

// Container orchestrates fetch/add/delete and holds the resulting state.
type Container struct {
	api       BookmarkAPI
	statuses  StatusStore
	validator FormValidator
	logger    logger.Logger
	now       func() time.Time
	attemptID func() string

	mu         sync.RWMutex
	bookmarks  []domain.Bookmark
	fetchSeq   uint64 // last refetch issued
	appliedSeq uint64 // refetch whose response is currently shown
	ready      bool
}

// Option customizes a Container.
type Option func(*Container)

// WithClock overrides time.Now for state timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Container) { c.now = now }
}

// WithAttemptIDs overrides the uuid attempt id generator.
func WithAttemptIDs(next func() string) Option {
	return func(c *Container) { c.attemptID = next }
}

// WithValidator overrides the default go-playground based validator.
func WithValidator(v FormValidator) Option {
	return func(c *Container) { c.validator = v }
}

// New builds a container. A nil statuses falls back to a MemoryStatusStore.
func New(api BookmarkAPI, statuses StatusStore, log logger.Logger, opts ...Option) *Container {
	if statuses == nil {
		statuses = NewMemoryStatusStore()
	}
	c := &Container{
		api:       api,
		statuses:  statuses,
		validator: validation.New(),
		logger:    log,
		now:       time.Now,
		attemptID: func() string { return uuid.NewString() },
		bookmarks: []domain.Bookmark{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchBookmarks replaces the whole collection with the API's list.
func (c *Container) FetchBookmarks(ctx context.Context) error {
	attempt := c.begin(ctx, OpFetch)
	seq := c.issueFetch()

	bookmarks, err := c.api.List(ctx)
	if err != nil {
		c.logger.Error("error fetching bookmarks",
			logger.String("attempt", attempt),
			logger.Error(err))
		c.finish(ctx, OpFetch, attempt, ReasonFetchFailed)
		return fmt.Errorf("fetch bookmarks: %w", err)
	}

	c.apply(seq, bookmarks)
	c.finish(ctx, OpFetch, attempt, "")
	return nil
}

// AddBookmark normalizes and validates data, creates it, then refetches.
// A validation failure returns a *validation.Error and sends nothing.
// The add stays loading through the refetch and its success is recorded
// last, so it clears the banner even when the refetch failed.
func (c *Container) AddBookmark(ctx context.Context, data domain.BookmarkFormData) error {
	data = data.Normalized()
	if err := c.validator.Form(data); err != nil {
		return err
	}

	attempt := c.begin(ctx, OpAdd)
	if _, err := c.api.Create(ctx, data); err != nil {
		c.logger.Error("error adding bookmark",
			logger.String("attempt", attempt),
			logger.String("url", data.URL),
			logger.Error(err))
		c.finish(ctx, OpAdd, attempt, ReasonAddFailed)
		return fmt.Errorf("add bookmark: %w", err)
	}

	c.refetchAfter(ctx, OpAdd)
	c.finish(ctx, OpAdd, attempt, "")
	return nil
}

// DeleteBookmark deletes id, then refetches. Like AddBookmark, success is
// recorded after the refetch.
func (c *Container) DeleteBookmark(ctx context.Context, id int64) error {
	attempt := c.begin(ctx, OpDelete)
	if err := c.api.Delete(ctx, id); err != nil {
		c.logger.Error("error deleting bookmark",
			logger.String("attempt", attempt),
			logger.Int64("id", id),
			logger.Error(err))
		c.finish(ctx, OpDelete, attempt, ReasonDeleteFailed)
		return fmt.Errorf("delete bookmark %d: %w", id, err)
	}

	c.refetchAfter(ctx, OpDelete)
	c.finish(ctx, OpDelete, attempt, "")
	return nil
}

// Bookmarks returns a copy of the collection in API order.
func (c *Container) Bookmarks() []domain.Bookmark {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]domain.Bookmark, len(c.bookmarks))
	copy(out, c.bookmarks)
	return out
}

// Ready reports whether a fetch has succeeded at least once.
func (c *Container) Ready() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ready
}

// States returns the state of every operation.
func (c *Container) States(ctx context.Context) ([]OpState, error) {
	return c.statuses.All(ctx)
}

// Snapshot is a consistent-enough view for rendering.
type Snapshot struct {
	Bookmarks []domain.Bookmark
	States    []OpState
	Loading   bool
	Banner    string
}

// Snapshot gathers the collection and the derived loading/banner values.
// Loading is true while any operation is in flight. Banner is the reason of
// the most recently finished operation when that operation failed, so a
// later success clears it.
func (c *Container) Snapshot(ctx context.Context) Snapshot {
	snap := Snapshot{Bookmarks: c.Bookmarks()}

	states, err := c.statuses.All(ctx)
	if err != nil {
		c.logger.Warn("failed to read operation states", logger.Error(err))
		return snap
	}
	snap.States = states

	for _, s := range states {
		if s.Phase == PhaseLoading {
			snap.Loading = true
		}
	}
	if last, ok := latestTerminal(states); ok && last.Phase == PhaseFailure {
		snap.Banner = last.Reason
	}
	return snap
}

func (c *Container) refetchAfter(ctx context.Context, op Op) {
	if err := c.FetchBookmarks(ctx); err != nil {
		c.logger.Warn("refetch after mutation failed",
			logger.String("op", string(op)),
			logger.Error(err))
	}
}

func (c *Container) issueFetch() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fetchSeq++
	return c.fetchSeq
}

// apply installs a fetched list unless a newer refetch was already applied.
func (c *Container) apply(seq uint64, bookmarks []domain.Bookmark) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if seq < c.appliedSeq {
		c.logger.Debug("discarding stale refetch",
			logger.Int64("seq", int64(seq)),
			logger.Int64("applied", int64(c.appliedSeq)))
		return
	}
	if bookmarks == nil {
		bookmarks = []domain.Bookmark{}
	}
	c.bookmarks = bookmarks
	c.appliedSeq = seq
	c.ready = true
}

func (c *Container) begin(ctx context.Context, op Op) string {
	attempt := c.attemptID()
	st := OpState{Op: op, Phase: PhaseLoading, Attempt: attempt, UpdatedAt: c.now()}
	if err := c.statuses.Begin(ctx, st); err != nil {
		c.logger.Warn("failed to record operation start",
			logger.String("op", string(op)),
			logger.Error(err))
	}
	return attempt
}

// finish records success when reason is empty, failure otherwise.
func (c *Container) finish(ctx context.Context, op Op, attempt, reason string) {
	st := OpState{Op: op, Phase: PhaseSuccess, Attempt: attempt, UpdatedAt: c.now()}
	if reason != "" {
		st.Phase = PhaseFailure
		st.Reason = reason
	}

	// The request context may already be done; the outcome still has to land.
	ctx = context.WithoutCancel(ctx)

	recorded, err := c.statuses.Finish(ctx, st)
	if err != nil {
		c.logger.Warn("failed to record operation result",
			logger.String("op", string(op)),
			logger.Error(err))
		return
	}
	if !recorded {
		c.logger.Debug("newer attempt in flight, result not recorded",
			logger.String("op", string(op)),
			logger.String("attempt", attempt))
	}
}
