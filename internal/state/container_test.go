package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/MrSnakeDoc/recall/internal/bookmarkapi"
	"github.com/MrSnakeDoc/recall/internal/bookmarkapi/apitest"
	"github.com/MrSnakeDoc/recall/internal/domain"
	"github.com/MrSnakeDoc/recall/internal/logger"
	"github.com/MrSnakeDoc/recall/internal/validation"
)

// tickingClock returns strictly increasing times so "most recent" is well defined.
func tickingClock() func() time.Time {
	var mu sync.Mutex
	t := time.Date(2024, time.January, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Millisecond)
		return t
	}
}

func newAPIContainer(t *testing.T, seed ...domain.Bookmark) (*Container, *apitest.Server) {
	t.Helper()
	api := apitest.NewServer(seed...)
	t.Cleanup(api.Close)

	client := bookmarkapi.New(bookmarkapi.Options{BaseURL: api.URL, Timeout: 2 * time.Second}, logger.NewNop())
	return New(client, nil, logger.NewNop(), WithClock(tickingClock())), api
}

func TestFetchBookmarksReplacesCollection(t *testing.T) {
	c, api := newAPIContainer(t,
		domain.Bookmark{ID: 1, Title: "One", URL: "https://one.example.com", RememberDate: "2024-01-01"},
	)
	ctx := context.Background()

	if c.Ready() {
		t.Error("Ready() = true before any fetch")
	}
	if err := c.FetchBookmarks(ctx); err != nil {
		t.Fatalf("FetchBookmarks() error = %v", err)
	}
	if got := c.Bookmarks(); len(got) != 1 || got[0].ID != 1 {
		t.Fatalf("Bookmarks() = %+v", got)
	}
	if !c.Ready() {
		t.Error("Ready() = false after successful fetch")
	}

	// Server state changes behind our back; a refetch replaces everything.
	if _, err := bookmarkapi.New(bookmarkapi.Options{BaseURL: api.URL}, logger.NewNop()).
		Create(ctx, domain.BookmarkFormData{Title: "Two", URL: "https://two.example.com", RememberDate: "2024-01-02"}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := c.FetchBookmarks(ctx); err != nil {
		t.Fatalf("FetchBookmarks() error = %v", err)
	}
	if got := c.Bookmarks(); len(got) != 2 {
		t.Errorf("Bookmarks() len = %d, want 2", len(got))
	}

	snap := c.Snapshot(ctx)
	if snap.Loading || snap.Banner != "" {
		t.Errorf("Snapshot() = loading %v banner %q, want idle and no banner", snap.Loading, snap.Banner)
	}
}

func TestFetchFailureSetsBanner(t *testing.T) {
	c, api := newAPIContainer(t)
	ctx := context.Background()
	api.FailWith(http.MethodGet, "/bookmarks", http.StatusServiceUnavailable)

	if err := c.FetchBookmarks(ctx); err == nil {
		t.Fatal("FetchBookmarks() error = nil, want failure")
	}

	snap := c.Snapshot(ctx)
	if snap.Banner != ReasonFetchFailed {
		t.Errorf("Banner = %q, want %q", snap.Banner, ReasonFetchFailed)
	}
	if snap.Loading {
		t.Error("Loading = true after failure, want false")
	}

	// Next successful operation clears the banner.
	api.Heal()
	if err := c.FetchBookmarks(ctx); err != nil {
		t.Fatalf("FetchBookmarks() error = %v", err)
	}
	if got := c.Snapshot(ctx).Banner; got != "" {
		t.Errorf("Banner after success = %q, want empty", got)
	}
}

func TestAddBookmarkNormalizesAndRefetches(t *testing.T) {
	c, api := newAPIContainer(t)
	ctx := context.Background()

	err := c.AddBookmark(ctx, domain.BookmarkFormData{Title: "Example", URL: "example.com", RememberDate: "2024-01-01"})
	if err != nil {
		t.Fatalf("AddBookmark() error = %v", err)
	}

	reqs := api.Requests()
	if len(reqs) != 2 {
		t.Fatalf("Requests() = %+v, want POST then GET", reqs)
	}
	if reqs[0].Method != http.MethodPost || reqs[0].Path != "/bookmark" {
		t.Errorf("first request = %s %s, want POST /bookmark", reqs[0].Method, reqs[0].Path)
	}
	if reqs[1].Method != http.MethodGet || reqs[1].Path != "/bookmarks" {
		t.Errorf("second request = %s %s, want GET /bookmarks", reqs[1].Method, reqs[1].Path)
	}

	var body domain.BookmarkFormData
	if err := json.Unmarshal([]byte(reqs[0].Body), &body); err != nil {
		t.Fatalf("create body: %v", err)
	}
	if body.URL != "https://example.com" {
		t.Errorf("create body url = %q, want %q", body.URL, "https://example.com")
	}

	got := c.Bookmarks()
	if len(got) != 1 || got[0].ID == 0 || got[0].URL != "https://example.com" {
		t.Errorf("Bookmarks() = %+v, want refetched bookmark with server id", got)
	}
}

func TestAddBookmarkInvalidSendsNothing(t *testing.T) {
	c, api := newAPIContainer(t)

	err := c.AddBookmark(context.Background(), domain.BookmarkFormData{Title: "Bad", URL: "not a url", RememberDate: "2024-01-01"})

	var verr *validation.Error
	if !errors.As(err, &verr) {
		t.Fatalf("AddBookmark() error = %v, want *validation.Error", err)
	}
	if verr.Field("url") == "" {
		t.Errorf("validation fields = %v, want url message", verr.Fields)
	}
	if reqs := api.Requests(); len(reqs) != 0 {
		t.Errorf("Requests() = %+v, want none", reqs)
	}

	st, _ := c.statuses.Get(context.Background(), OpAdd)
	if st.Phase != PhaseIdle {
		t.Errorf("add phase = %v, want idle (validation is not an operation failure)", st.Phase)
	}
}

func TestAddBookmarkFailure(t *testing.T) {
	c, api := newAPIContainer(t)
	ctx := context.Background()
	api.FailWith(http.MethodPost, "/bookmark", http.StatusInternalServerError)

	err := c.AddBookmark(ctx, domain.BookmarkFormData{Title: "x", URL: "example.com", RememberDate: "2024-01-01"})
	if err == nil {
		t.Fatal("AddBookmark() error = nil, want failure")
	}

	if got := c.Snapshot(ctx).Banner; got != ReasonAddFailed {
		t.Errorf("Banner = %q, want %q", got, ReasonAddFailed)
	}
	for _, r := range api.Requests() {
		if r.Method == http.MethodGet {
			t.Error("failed add must not refetch")
		}
	}
}

func TestAddThenRefetchFailureClearsBanner(t *testing.T) {
	c, api := newAPIContainer(t)
	ctx := context.Background()
	api.FailWith(http.MethodGet, "/bookmarks", http.StatusBadGateway)

	err := c.AddBookmark(ctx, domain.BookmarkFormData{Title: "x", URL: "example.com", RememberDate: "2024-01-01"})
	if err != nil {
		t.Fatalf("AddBookmark() error = %v, want nil (create succeeded)", err)
	}

	snap := c.Snapshot(ctx)
	if snap.Banner != "" {
		t.Errorf("Banner = %q, want empty after a successful add", snap.Banner)
	}
	for _, st := range snap.States {
		switch st.Op {
		case OpFetch:
			if st.Phase != PhaseFailure {
				t.Errorf("fetch phase = %q, want failure still recorded", st.Phase)
			}
		case OpAdd:
			if st.Phase != PhaseSuccess {
				t.Errorf("add phase = %q, want success", st.Phase)
			}
		}
	}
}

func TestDeleteThenRefetchFailureClearsBanner(t *testing.T) {
	c, api := newAPIContainer(t, domain.Bookmark{ID: 3, Title: "Three", URL: "https://three.example.com", RememberDate: "2024-01-03"})
	ctx := context.Background()
	api.FailWith(http.MethodGet, "/bookmarks", http.StatusBadGateway)

	if err := c.DeleteBookmark(ctx, 3); err != nil {
		t.Fatalf("DeleteBookmark() error = %v", err)
	}
	if got := c.Snapshot(ctx).Banner; got != "" {
		t.Errorf("Banner = %q, want empty after a successful delete", got)
	}
}

func TestDeleteBookmarkRefetches(t *testing.T) {
	c, api := newAPIContainer(t,
		domain.Bookmark{ID: 4, Title: "Four", URL: "https://four.example.com", RememberDate: "2024-01-04"},
		domain.Bookmark{ID: 5, Title: "Five", URL: "https://five.example.com", RememberDate: "2024-01-05"},
	)
	ctx := context.Background()
	if err := c.FetchBookmarks(ctx); err != nil {
		t.Fatalf("FetchBookmarks() error = %v", err)
	}

	if err := c.DeleteBookmark(ctx, 5); err != nil {
		t.Fatalf("DeleteBookmark() error = %v", err)
	}

	reqs := api.Requests()
	n := len(reqs)
	if n < 2 || reqs[n-2].Method != http.MethodDelete || reqs[n-2].Path != "/bookmark/5" ||
		reqs[n-1].Method != http.MethodGet || reqs[n-1].Path != "/bookmarks" {
		t.Fatalf("Requests() = %+v, want DELETE /bookmark/5 then GET /bookmarks", reqs)
	}

	for _, b := range c.Bookmarks() {
		if b.ID == 5 {
			t.Errorf("Bookmarks() still contains id 5: %+v", c.Bookmarks())
		}
	}
}

func TestDeleteBookmarkFailure(t *testing.T) {
	c, _ := newAPIContainer(t)
	ctx := context.Background()

	if err := c.DeleteBookmark(ctx, 42); !bookmarkapi.IsNotFound(err) {
		t.Fatalf("DeleteBookmark() error = %v, want 404", err)
	}
	if got := c.Snapshot(ctx).Banner; got != ReasonDeleteFailed {
		t.Errorf("Banner = %q, want %q", got, ReasonDeleteFailed)
	}
}

func TestAddThenFetchReturnsServerID(t *testing.T) {
	c, _ := newAPIContainer(t)
	ctx := context.Background()

	if err := c.AddBookmark(ctx, domain.BookmarkFormData{Title: "Round", URL: "https://round.example.com", RememberDate: "2024-06-01"}); err != nil {
		t.Fatalf("AddBookmark() error = %v", err)
	}
	if err := c.FetchBookmarks(ctx); err != nil {
		t.Fatalf("FetchBookmarks() error = %v", err)
	}

	found := false
	for _, b := range c.Bookmarks() {
		if b.Title == "Round" {
			found = true
			if b.ID == 0 {
				t.Errorf("bookmark %+v has no server id", b)
			}
		}
	}
	if !found {
		t.Error("created bookmark missing after fetch")
	}
}

// gatedAPI lets a test decide when each List call returns.
type gatedAPI struct {
	mu    sync.Mutex
	calls int
	gates []chan []domain.Bookmark
}

func newGatedAPI(n int) *gatedAPI {
	g := &gatedAPI{}
	for i := 0; i < n; i++ {
		g.gates = append(g.gates, make(chan []domain.Bookmark))
	}
	return g
}

func (g *gatedAPI) List(ctx context.Context) ([]domain.Bookmark, error) {
	g.mu.Lock()
	gate := g.gates[g.calls]
	g.calls++
	g.mu.Unlock()

	select {
	case b := <-gate:
		return b, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (g *gatedAPI) Create(context.Context, domain.BookmarkFormData) (*domain.Bookmark, error) {
	return nil, errors.New("not implemented")
}

func (g *gatedAPI) Delete(context.Context, int64) error { return errors.New("not implemented") }

func (g *gatedAPI) started() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		time.Sleep(time.Millisecond)
	}
}

// The newest refetch wins even when an older one resolves after it.
func TestStaleRefetchIsDiscarded(t *testing.T) {
	api := newGatedAPI(2)
	var seq int
	c := New(api, nil, logger.NewNop(),
		WithClock(tickingClock()),
		WithAttemptIDs(func() string { seq++; return fmt.Sprintf("attempt-%d", seq) }),
	)
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); _ = c.FetchBookmarks(ctx) }()
	waitFor(t, func() bool { return api.started() == 1 })
	go func() { defer wg.Done(); _ = c.FetchBookmarks(ctx) }()
	waitFor(t, func() bool { return api.started() == 2 })

	newer := []domain.Bookmark{{ID: 2, Title: "newer"}}
	older := []domain.Bookmark{{ID: 1, Title: "older"}}
	api.gates[1] <- newer
	waitFor(t, func() bool { return len(c.Bookmarks()) == 1 })
	api.gates[0] <- older
	wg.Wait()

	got := c.Bookmarks()
	if len(got) != 1 || got[0].Title != "newer" {
		t.Errorf("Bookmarks() = %+v, want the newer refetch", got)
	}
}

// A finished older attempt must not clear the loading state of a newer one.
func TestStaleAttemptDoesNotOverwriteLoading(t *testing.T) {
	api := newGatedAPI(2)
	c := New(api, nil, logger.NewNop(), WithClock(tickingClock()))
	ctx := context.Background()

	done := make(chan struct{}, 2)
	go func() { _ = c.FetchBookmarks(ctx); done <- struct{}{} }()
	waitFor(t, func() bool { return api.started() == 1 })
	go func() { _ = c.FetchBookmarks(ctx); done <- struct{}{} }()
	waitFor(t, func() bool { return api.started() == 2 })

	api.gates[0] <- nil
	<-done

	if !c.Snapshot(ctx).Loading {
		t.Error("Loading = false while the newest attempt is still in flight")
	}

	api.gates[1] <- nil
	<-done

	if c.Snapshot(ctx).Loading {
		t.Error("Loading = true after every attempt finished")
	}
}

func TestMemoryStatusStore(t *testing.T) {
	s := NewMemoryStatusStore()
	ctx := context.Background()

	st, err := s.Get(ctx, OpAdd)
	if err != nil || st.Phase != PhaseIdle {
		t.Fatalf("Get() = %+v, %v, want idle", st, err)
	}

	_ = s.Begin(ctx, OpState{Op: OpAdd, Phase: PhaseLoading, Attempt: "a"})
	_ = s.Begin(ctx, OpState{Op: OpAdd, Phase: PhaseLoading, Attempt: "b"})

	ok, _ := s.Finish(ctx, OpState{Op: OpAdd, Phase: PhaseSuccess, Attempt: "a"})
	if ok {
		t.Error("Finish() of stale attempt recorded")
	}
	ok, _ = s.Finish(ctx, OpState{Op: OpAdd, Phase: PhaseFailure, Attempt: "b", Reason: ReasonAddFailed})
	if !ok {
		t.Error("Finish() of current attempt not recorded")
	}

	all, _ := s.All(ctx)
	if len(all) != len(Ops) {
		t.Fatalf("All() len = %d, want %d", len(all), len(Ops))
	}
	if all[1].Op != OpAdd || all[1].Phase != PhaseFailure {
		t.Errorf("All()[1] = %+v, want add failure", all[1])
	}
}

func TestLatestTerminal(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	states := []OpState{
		{Op: OpFetch, Phase: PhaseSuccess, UpdatedAt: base.Add(2 * time.Second)},
		{Op: OpAdd, Phase: PhaseFailure, Reason: ReasonAddFailed, UpdatedAt: base.Add(1 * time.Second)},
		{Op: OpDelete, Phase: PhaseLoading, UpdatedAt: base.Add(3 * time.Second)},
	}

	got, ok := latestTerminal(states)
	if !ok || got.Op != OpFetch {
		t.Errorf("latestTerminal() = %+v, %v, want fetch", got, ok)
	}

	if _, ok := latestTerminal([]OpState{Idle(OpFetch)}); ok {
		t.Error("latestTerminal() of idle states should report none")
	}
}
