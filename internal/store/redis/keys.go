package redis

import "github.com/MrSnakeDoc/recall/internal/state"

// KeyPrefixOpState is the prefix for per-operation state keys
const KeyPrefixOpState = "recall:opstate:"

// OpStateKey returns the key holding the state of op.
func OpStateKey(op state.Op) string {
	return KeyPrefixOpState + string(op)
}
