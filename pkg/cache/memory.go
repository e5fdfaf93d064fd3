package cache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	graph     Graph
	expiresAt time.Time
}

// MemoryStore is an in-process Store backed by a map. Expired entries are
// dropped lazily on read.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
	}
}

// Get returns the cached graph for key, treating expired entries as absent.
func (s *MemoryStore) Get(ctx context.Context, key string) (Graph, bool, error) {
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok {
		return nil, false, nil
	}
	if time.Now().After(entry.expiresAt) {
		s.mu.Lock()
		if current, ok := s.entries[key]; ok && current.expiresAt.Equal(entry.expiresAt) {
			delete(s.entries, key)
		}
		s.mu.Unlock()
		return nil, false, nil
	}
	return cloneGraph(entry.graph), true, nil
}

// Put stores a copy of the graph under key. Concurrent writers for the same
// key race last-write-wins, which is acceptable because identical inputs
// produce the same graph.
func (s *MemoryStore) Put(ctx context.Context, key string, graph Graph, ttl time.Duration) error {
	s.mu.Lock()
	s.entries[key] = memoryEntry{
		graph:     cloneGraph(graph),
		expiresAt: time.Now().Add(ttl),
	}
	s.mu.Unlock()
	return nil
}

func cloneGraph(graph Graph) Graph {
	clone := make(Graph, len(graph))
	for a, inner := range graph {
		innerClone := make(map[string]int, len(inner))
		for b, count := range inner {
			innerClone[b] = count
		}
		clone[a] = innerClone
	}
	return clone
}
