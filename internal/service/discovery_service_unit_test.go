//go:build unit

package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"ohshop-admin/internal/data"
)

func newTestDiscovery(inspector *fakeInspector, cache *memCache) *DiscoveryService {
	return NewDiscoveryService(inspector, cache, time.Minute, newTestLogger())
}

// drain collects the events buffered on ch without blocking.
func drain(ch <-chan DiscoveryEvent) []DiscoveryEvent {
	var out []DiscoveryEvent
	for {
		select {
		case ev := <-ch:
			out = append(out, ev)
		default:
			return out
		}
	}
}

func TestDiscoveryService_Discover(t *testing.T) {
	inspector := &fakeInspector{
		names:   []string{"companies", "members", "products"},
		counts:  map[string]int64{"companies": 3, "members": 7, "products": 11},
		failing: map[string]error{"members": errors.New("not authorized")},
	}
	cache := newMemCache()
	svc := newTestDiscovery(inspector, cache)
	events, unsubscribe := svc.Subscribe()
	defer unsubscribe()

	res, err := svc.Discover(context.Background(), false)
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}
	if res.Stats.FromCache {
		t.Error("first discovery must not come from the cache")
	}
	if res.Stats.TotalCollections != 3 || res.Stats.TotalDocuments != 14 || res.Stats.Errors != 1 {
		t.Errorf("unexpected stats %+v", res.Stats)
	}
	if res.Collections[1].Error == "" {
		t.Error("expected the failing collection to carry its error")
	}

	got := drain(events)
	types := map[string]int{}
	for _, ev := range got {
		types[ev.Type]++
	}
	if types[EventAdded] != 2 || types[EventError] != 1 || types[EventComplete] != 1 {
		t.Errorf("unexpected events %v", types)
	}
	if last := got[len(got)-1]; last.Type != EventComplete || last.Stats == nil {
		t.Errorf("expected a final complete event with stats, got %+v", last)
	}
	if cache.sets != 1 {
		t.Errorf("expected the result to be persisted once, got %d", cache.sets)
	}
}

func TestDiscoveryService_Discover_UsesMemoryThenForce(t *testing.T) {
	inspector := &fakeInspector{names: []string{"products"}, counts: map[string]int64{"products": 2}}
	svc := newTestDiscovery(inspector, newMemCache())
	ctx := context.Background()

	if _, err := svc.Discover(ctx, false); err != nil {
		t.Fatalf("Discover failed: %v", err)
	}
	cached, err := svc.Discover(ctx, false)
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}
	if !cached.Stats.FromCache || inspector.inspects != 1 {
		t.Errorf("expected a cached result, from_cache=%v inspects=%d", cached.Stats.FromCache, inspector.inspects)
	}

	events, unsubscribe := svc.Subscribe()
	defer unsubscribe()
	fresh, err := svc.Discover(ctx, true)
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}
	if fresh.Stats.FromCache || inspector.inspects != 2 {
		t.Errorf("forced discovery must inspect again")
	}
	if got := drain(events); len(got) != 2 || got[0].Type != EventUpdated {
		t.Errorf("expected updated then complete, got %+v", got)
	}
}

func TestDiscoveryService_Discover_ExpiredMemory(t *testing.T) {
	inspector := &fakeInspector{names: []string{"products"}, counts: map[string]int64{"products": 2}}
	cache := newMemCache()
	svc := newTestDiscovery(inspector, cache)
	now := time.Now()
	svc.now = func() time.Time { return now }

	if _, err := svc.Discover(context.Background(), false); err != nil {
		t.Fatalf("Discover failed: %v", err)
	}
	now = now.Add(2 * time.Minute)
	if _, err := svc.Discover(context.Background(), false); err != nil {
		t.Fatalf("Discover failed: %v", err)
	}
	if inspector.inspects != 2 {
		t.Errorf("expected an expired result to be rediscovered, inspects=%d", inspector.inspects)
	}
}

func TestDiscoveryService_Discover_RejectsStalePersistedResult(t *testing.T) {
	inspector := &fakeInspector{names: []string{"products"}, counts: map[string]int64{"products": 2}}
	cache := newMemCache()
	now := time.Now()

	first := newTestDiscovery(inspector, cache)
	first.now = func() time.Time { return now }
	if _, err := first.Discover(context.Background(), false); err != nil {
		t.Fatalf("Discover failed: %v", err)
	}
	if cache.lastTTL != time.Minute {
		t.Errorf("expected a fresh result to be persisted for the full TTL, got %s", cache.lastTTL)
	}

	// The store still holds the copy, but it was discovered longer than the TTL ago.
	second := newTestDiscovery(inspector, cache)
	second.now = func() time.Time { return now.Add(2 * time.Minute) }
	res, err := second.Discover(context.Background(), false)
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}
	if res.Stats.FromCache || inspector.inspects != 2 {
		t.Errorf("expected a stale persisted result to be rediscovered, from_cache=%v inspects=%d", res.Stats.FromCache, inspector.inspects)
	}
}

func TestDiscoveryService_RefreshCollection_WithoutResult(t *testing.T) {
	inspector := &fakeInspector{
		names:  []string{"companies", "members", "products"},
		counts: map[string]int64{"companies": 3, "members": 7, "products": 11},
	}
	cache := newMemCache()
	svc := newTestDiscovery(inspector, cache)
	events, unsubscribe := svc.Subscribe()
	defer unsubscribe()

	info, err := svc.RefreshCollection(context.Background(), "members")
	if err != nil {
		t.Fatalf("RefreshCollection failed: %v", err)
	}
	if info.Count != 7 {
		t.Errorf("expected count 7, got %d", info.Count)
	}
	if got := drain(events); len(got) != 1 || got[0].Type != EventAdded {
		t.Errorf("expected one added event, got %+v", got)
	}
	if cache.sets != 0 {
		t.Errorf("a single collection must not be persisted as a result, got %d sets", cache.sets)
	}
	if _, ok := svc.Stats(); ok {
		t.Error("expected no stats before a full discovery")
	}

	res, err := svc.Discover(context.Background(), false)
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}
	if res.Stats.FromCache || len(res.Collections) != 3 {
		t.Errorf("expected a full discovery of 3 collections, got %d from_cache=%v", len(res.Collections), res.Stats.FromCache)
	}
}

func TestDiscoveryService_Discover_PersistentCache(t *testing.T) {
	inspector := &fakeInspector{names: []string{"products"}, counts: map[string]int64{"products": 2}}
	cache := newMemCache()
	first := newTestDiscovery(inspector, cache)
	if _, err := first.Discover(context.Background(), false); err != nil {
		t.Fatalf("Discover failed: %v", err)
	}

	// A new service, as after a restart, reads the persisted result.
	second := newTestDiscovery(inspector, cache)
	res, err := second.Discover(context.Background(), false)
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}
	if !res.Stats.FromCache || inspector.inspects != 1 {
		t.Errorf("expected the persisted result, from_cache=%v inspects=%d", res.Stats.FromCache, inspector.inspects)
	}
	if len(res.Collections) != 1 || res.Collections[0].Count != 2 {
		t.Errorf("unexpected collections %+v", res.Collections)
	}
	if stats, ok := second.Stats(); !ok || stats.TotalCollections != 1 {
		t.Errorf("expected stats to be available, got %+v %v", stats, ok)
	}
}

func TestDiscoveryService_RefreshCollection(t *testing.T) {
	inspector := &fakeInspector{names: []string{"products"}, counts: map[string]int64{"products": 2}}
	svc := newTestDiscovery(inspector, newMemCache())
	ctx := context.Background()

	if _, err := svc.RefreshCollection(ctx, "ghosts"); !errors.Is(err, data.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := svc.Discover(ctx, false); err != nil {
		t.Fatalf("Discover failed: %v", err)
	}

	inspector.names = []string{"companies", "products"}
	inspector.counts["companies"] = 5
	inspector.counts["products"] = 9
	events, unsubscribe := svc.Subscribe()
	defer unsubscribe()

	info, err := svc.RefreshCollection(ctx, "products")
	if err != nil {
		t.Fatalf("RefreshCollection failed: %v", err)
	}
	if info.Count != 9 {
		t.Errorf("expected refreshed count 9, got %d", info.Count)
	}
	if _, err := svc.RefreshCollection(ctx, "companies"); err != nil {
		t.Fatalf("RefreshCollection failed: %v", err)
	}

	got := drain(events)
	if len(got) != 2 || got[0].Type != EventUpdated || got[1].Type != EventAdded {
		t.Errorf("expected updated then added, got %+v", got)
	}
	res, err := svc.Discover(ctx, false)
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}
	if len(res.Collections) != 2 || res.Collections[0].Name != "companies" {
		t.Errorf("expected collections sorted with the new one, got %+v", res.Collections)
	}
	if res.Stats.TotalDocuments != 14 {
		t.Errorf("expected totals to be recomputed, got %d", res.Stats.TotalDocuments)
	}
}

func TestDiscoveryService_Unsubscribe(t *testing.T) {
	svc := newTestDiscovery(&fakeInspector{}, newMemCache())
	events, unsubscribe := svc.Subscribe()
	unsubscribe()
	unsubscribe()

	if _, ok := <-events; ok {
		t.Error("expected the channel to be closed")
	}
	// Emitting with no listeners must not panic.
	svc.emit(DiscoveryEvent{Type: EventComplete})
}
