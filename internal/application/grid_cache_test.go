package application

import (
	"fmt"
	"testing"
	"time"

	"github.com/example/silab/internal/calendar"
)

func TestGridCache_StoreAndGet(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	cache := newGridCache(time.Minute, 4, func() time.Time { return now })

	grid := calendar.WeekGrid{WeekStart: now}
	cache.Store("2025-03-10", grid)

	got, ok := cache.Get("2025-03-10")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if !got.WeekStart.Equal(now) {
		t.Fatalf("unexpected grid: %+v", got)
	}

	if _, ok := cache.Get("2025-03-17"); ok {
		t.Fatal("expected miss for an unknown key")
	}
}

func TestGridCache_ExpiresEntries(t *testing.T) {
	t.Parallel()

	current := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	cache := newGridCache(time.Minute, 4, func() time.Time { return current })

	cache.Store("2025-03-10", calendar.WeekGrid{})

	current = current.Add(2 * time.Minute)
	if _, ok := cache.Get("2025-03-10"); ok {
		t.Fatal("expected expired entry to miss")
	}
}

func TestGridCache_InvalidateDropsEverything(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	cache := newGridCache(time.Minute, 4, func() time.Time { return now })

	cache.Store("2025-03-10", calendar.WeekGrid{})
	cache.Store("2025-03-17", calendar.WeekGrid{})
	cache.Invalidate()

	if _, ok := cache.Get("2025-03-10"); ok {
		t.Fatal("expected invalidated entry to miss")
	}
	if _, ok := cache.Get("2025-03-17"); ok {
		t.Fatal("expected invalidated entry to miss")
	}
}

func TestGridCache_EvictsWhenFull(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	cache := newGridCache(time.Minute, 2, func() time.Time { return now })

	for i := 0; i < 3; i++ {
		cache.Store(fmt.Sprintf("key-%d", i), calendar.WeekGrid{})
	}

	cache.mu.RLock()
	size := len(cache.entries)
	cache.mu.RUnlock()
	if size > 2 {
		t.Fatalf("expected at most 2 entries, got %d", size)
	}
}

func TestGridCache_NilReceiverIsSafe(t *testing.T) {
	t.Parallel()

	var cache *gridCache
	cache.Store("key", calendar.WeekGrid{})
	cache.Invalidate()
	if _, ok := cache.Get("key"); ok {
		t.Fatal("expected nil cache to miss")
	}
}
