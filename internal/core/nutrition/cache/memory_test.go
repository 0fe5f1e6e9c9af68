package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"nutrition-resolver/internal/pkg/common"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore(time.Minute, time.Minute)
	defer store.Close()
	ctx := context.Background()

	type payload struct {
		Query string  `json:"query"`
		Score float64 `json:"score"`
	}

	in := payload{Query: "chicken breast", Score: 0.84}
	if err := store.Set(ctx, "search", "key-1", in, 0); err != nil {
		t.Fatalf("Set() error: %v", err)
	}

	var out payload
	if err := store.Get(ctx, "search", "key-1", &out); err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if out != in {
		t.Errorf("Get() = %+v, want %+v", out, in)
	}
}

func TestMemoryStoreMiss(t *testing.T) {
	store := NewMemoryStore(time.Minute, time.Minute)
	defer store.Close()

	var out string
	err := store.Get(context.Background(), "search", "absent", &out)
	if !errors.Is(err, common.ErrCacheMiss) {
		t.Errorf("Get() error = %v, want ErrCacheMiss", err)
	}
}

func TestMemoryStoreNamespaceIsolation(t *testing.T) {
	store := NewMemoryStore(time.Minute, time.Minute)
	defer store.Close()
	ctx := context.Background()

	if err := store.Set(ctx, "search", "k", "value", 0); err != nil {
		t.Fatalf("Set() error: %v", err)
	}

	var out string
	if err := store.Get(ctx, "other", "k", &out); !errors.Is(err, common.ErrCacheMiss) {
		t.Errorf("cross-namespace Get() error = %v, want ErrCacheMiss", err)
	}
}

func TestMemoryStoreTTLExpiry(t *testing.T) {
	store := NewMemoryStore(time.Minute, time.Minute)
	defer store.Close()
	ctx := context.Background()

	if err := store.Set(ctx, "search", "short", "value", 20*time.Millisecond); err != nil {
		t.Fatalf("Set() error: %v", err)
	}

	var out string
	if err := store.Get(ctx, "search", "short", &out); err != nil {
		t.Fatalf("Get() before expiry error: %v", err)
	}

	time.Sleep(40 * time.Millisecond)
	if err := store.Get(ctx, "search", "short", &out); !errors.Is(err, common.ErrCacheMiss) {
		t.Errorf("Get() after expiry error = %v, want ErrCacheMiss", err)
	}
}

func TestMemoryStoreStats(t *testing.T) {
	store := NewMemoryStore(time.Minute, time.Minute)
	defer store.Close()
	ctx := context.Background()

	_ = store.Set(ctx, "search", "k", "value", 0)

	var out string
	_ = store.Get(ctx, "search", "k", &out)      // hit
	_ = store.Get(ctx, "search", "absent", &out) // miss

	hits, misses := store.Stats()
	if hits != 1 || misses != 1 {
		t.Errorf("Stats() = (%d, %d), want (1, 1)", hits, misses)
	}
}

func TestMemoryStoreCloseIdempotent(t *testing.T) {
	store := NewMemoryStore(time.Minute, time.Minute)
	if err := store.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("second Close() error: %v", err)
	}
}
