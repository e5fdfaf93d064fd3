package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemoryStore_PutGet(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	graph := Graph{"Alice": {"Bob": 3}}
	if err := store.Put(ctx, "gutenberg:11", graph, time.Minute); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	got, ok, err := store.Get(ctx, "gutenberg:11")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if !ok {
		t.Fatal("expected cache hit")
	}
	if got["Alice"]["Bob"] != 3 {
		t.Fatalf("unexpected graph: %v", got)
	}
}

func TestMemoryStore_Miss(t *testing.T) {
	store := NewMemoryStore()

	_, ok, err := store.Get(context.Background(), "gutenberg:404")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if ok {
		t.Fatal("expected cache miss")
	}
}

func TestMemoryStore_Expiry(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.Put(ctx, "key", Graph{"A": {"B": 1}}, time.Millisecond); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	time.Sleep(10 * time.Millisecond)

	if _, ok, _ := store.Get(ctx, "key"); ok {
		t.Fatal("expected expired entry to be a miss")
	}
}

func TestMemoryStore_EmptyGraphIsAHit(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.Put(ctx, "key", Graph{}, time.Minute); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	got, ok, err := store.Get(ctx, "key")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if !ok {
		t.Fatal("expected hit for cached empty graph")
	}
	if len(got) != 0 {
		t.Fatalf("expected empty graph, got %v", got)
	}
}

func TestMemoryStore_GetReturnsCopy(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.Put(ctx, "key", Graph{"Alice": {"Bob": 1}}, time.Minute); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	got, _, _ := store.Get(ctx, "key")
	got["Alice"]["Bob"] = 99

	again, _, _ := store.Get(ctx, "key")
	if again["Alice"]["Bob"] != 1 {
		t.Fatalf("expected stored graph to be unchanged, got %v", again)
	}
}

func TestMemoryStore_Overwrite(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.Put(ctx, "key", Graph{"A": {"B": 1}}, time.Minute); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if err := store.Put(ctx, "key", Graph{"A": {"B": 2}}, time.Minute); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	got, _, _ := store.Get(ctx, "key")
	if got["A"]["B"] != 2 {
		t.Fatalf("expected overwritten value, got %v", got)
	}
}
