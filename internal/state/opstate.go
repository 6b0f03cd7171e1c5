package state

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Op names one of the three container operations.
type Op string

const (
	OpFetch  Op = "fetch"
	OpAdd    Op = "add"
	OpDelete Op = "delete"
)

// Ops lists every operation in display order.
var Ops = []Op{OpFetch, OpAdd, OpDelete}

// Phase is the lifecycle position of an operation: idle -> loading -> success|failure.
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseLoading Phase = "loading"
	PhaseSuccess Phase = "success"
	PhaseFailure Phase = "failure"
)

// Static user-facing failure reasons.
const (
	ReasonFetchFailed  = "Failed to fetch bookmarks"
	ReasonAddFailed    = "Failed to add bookmark"
	ReasonDeleteFailed = "Failed to delete bookmark"
)

// OpState is the result state of the latest attempt of one operation.
type OpState struct {
	Op        Op        `json:"op"`
	Phase     Phase     `json:"phase"`
	Reason    string    `json:"reason,omitempty"`
	Attempt   string    `json:"attempt,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Idle returns the zero state of op.
func Idle(op Op) OpState {
	return OpState{Op: op, Phase: PhaseIdle}
}

// Terminal reports whether the attempt has finished.
func (s OpState) Terminal() bool {
	return s.Phase == PhaseSuccess || s.Phase == PhaseFailure
}

// StatusStore keeps one OpState per operation.
//
// Begin records a new attempt unconditionally. Finish records the outcome
// state only if state.Attempt is still the current attempt for its op and
// reports whether it did.
type StatusStore interface {
	Begin(ctx context.Context, state OpState) error
	Finish(ctx context.Context, state OpState) (bool, error)
	Get(ctx context.Context, op Op) (OpState, error)
	All(ctx context.Context) ([]OpState, error)
}

// MemoryStatusStore is the in-process StatusStore.
type MemoryStatusStore struct {
	mu     sync.RWMutex
	states map[Op]OpState
}

func NewMemoryStatusStore() *MemoryStatusStore {
	return &MemoryStatusStore{states: make(map[Op]OpState, len(Ops))}
}

func (m *MemoryStatusStore) Begin(_ context.Context, state OpState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[state.Op] = state
	return nil
}

func (m *MemoryStatusStore) Finish(_ context.Context, state OpState) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if cur, ok := m.states[state.Op]; ok && cur.Attempt != state.Attempt {
		return false, nil
	}
	m.states[state.Op] = state
	return true, nil
}

func (m *MemoryStatusStore) Get(_ context.Context, op Op) (OpState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if s, ok := m.states[op]; ok {
		return s, nil
	}
	return Idle(op), nil
}

func (m *MemoryStatusStore) All(ctx context.Context) ([]OpState, error) {
	out := make([]OpState, 0, len(Ops))
	for _, op := range Ops {
		s, _ := m.Get(ctx, op)
		out = append(out, s)
	}
	return out, nil
}

// latestTerminal returns the most recently finished state among states.
func latestTerminal(states []OpState) (OpState, bool) {
	var done []OpState
	for _, s := range states {
		if s.Terminal() {
			done = append(done, s)
		}
	}
	if len(done) == 0 {
		return OpState{}, false
	}
	sort.SliceStable(done, func(i, j int) bool {
		return done[i].UpdatedAt.After(done[j].UpdatedAt)
	})
	return done[0], true
}
