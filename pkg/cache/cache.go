// Package cache memoizes completed analyses behind deterministic keys.
//
// A miss is reported as absence, never as an error; callers must treat an
// absent entry and a present-but-empty graph as different outcomes, because
// an empty graph is a valid answer ("no interactions found").
package cache

import (
	"context"
	"time"
)

// Graph is the stored value shape: character -> character -> count. It
// matches interactions.InteractionGraph without importing it, so the
// pipeline package can depend on this one.
type Graph = map[string]map[string]int

// Store is the cache boundary. Implementations must be safe for concurrent
// use. Errors from Get are treated by callers as misses; errors from Put
// are logged and swallowed.
type Store interface {
	// Get returns the cached graph for key and whether it was present.
	Get(ctx context.Context, key string) (Graph, bool, error)

	// Put stores the graph under key for the given time-to-live.
	Put(ctx context.Context, key string, graph Graph, ttl time.Duration) error
}
