package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/recall/internal/state"
)

// DefaultStateTTL bounds how long a recorded state survives without updates.
const DefaultStateTTL = 24 * time.Hour

// finishScript stores ARGV[2] only if the attempt recorded under KEYS[1]
// equals ARGV[1] or nothing is recorded yet. Returns 1 when stored.
var finishScript = redis.NewScript(`
local cur = redis.call("GET", KEYS[1])
if cur then
  local ok, decoded = pcall(cjson.decode, cur)
  if ok and decoded["attempt"] ~= nil and decoded["attempt"] ~= ARGV[1] then
    return 0
  end
end
redis.call("SET", KEYS[1], ARGV[2], "PX", ARGV[3])
return 1
`)

// StatusStore is a state.StatusStore shared between replicas through redis.
type StatusStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStatusStore creates a store. ttl <= 0 uses DefaultStateTTL.
func NewStatusStore(client *redis.Client, ttl time.Duration) *StatusStore {
	if ttl <= 0 {
		ttl = DefaultStateTTL
	}
	return &StatusStore{client: client, ttl: ttl}
}

var _ state.StatusStore = (*StatusStore)(nil)

// Begin records a new attempt unconditionally.
func (s *StatusStore) Begin(ctx context.Context, st state.OpState) error {
	data, err := encodeState(st)
	if err != nil {
		return err
	}

	if err := s.client.Set(ctx, OpStateKey(st.Op), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to begin %s: %w", st.Op, err)
	}
	return nil
}

// Finish records st if st.Attempt is still current.
func (s *StatusStore) Finish(ctx context.Context, st state.OpState) (bool, error) {
	data, err := encodeState(st)
	if err != nil {
		return false, err
	}

	res, err := finishScript.Run(ctx, s.client,
		[]string{OpStateKey(st.Op)},
		st.Attempt, data, s.ttl.Milliseconds(),
	).Int()
	if err != nil {
		return false, fmt.Errorf("failed to finish %s: %w", st.Op, err)
	}
	return res == 1, nil
}

// Get returns the state of op, or its idle state when none is recorded.
func (s *StatusStore) Get(ctx context.Context, op state.Op) (state.OpState, error) {
	data, err := s.client.Get(ctx, OpStateKey(op)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return state.Idle(op), nil
		}
		return state.OpState{}, fmt.Errorf("failed to get %s state: %w", op, err)
	}
	return decodeState(op, data)
}

// All returns every operation's state in display order.
func (s *StatusStore) All(ctx context.Context) ([]state.OpState, error) {
	keys := make([]string, len(state.Ops))
	for i, op := range state.Ops {
		keys[i] = OpStateKey(op)
	}

	vals, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get operation states: %w", err)
	}

	out := make([]state.OpState, 0, len(state.Ops))
	for i, op := range state.Ops {
		raw, ok := vals[i].(string)
		if !ok {
			out = append(out, state.Idle(op))
			continue
		}
		st, err := decodeState(op, []byte(raw))
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, nil
}

func encodeState(st state.OpState) (string, error) {
	data, err := json.Marshal(st)
	if err != nil {
		return "", fmt.Errorf("failed to marshal %s state: %w", st.Op, err)
	}
	return string(data), nil
}

func decodeState(op state.Op, data []byte) (state.OpState, error) {
	var st state.OpState
	if err := json.Unmarshal(data, &st); err != nil {
		return state.OpState{}, fmt.Errorf("failed to unmarshal %s state: %w", op, err)
	}
	if st.Op == "" {
		st.Op = op
	}
	return st, nil
}
