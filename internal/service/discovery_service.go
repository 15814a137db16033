package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"ohshop-admin/internal/data"
	"ohshop-admin/internal/logger"
	"ohshop-admin/internal/metrics"

	"github.com/goccy/go-json"
)

// SampleSize is the number of documents sampled per collection.
const SampleSize = 20

const discoveryCacheKey = "discovery:collections"

// listenerBuffer is how many events a listener may lag behind before events are dropped for it.
const listenerBuffer = 64

// Discovery event types.
const (
	EventAdded    = "added"
	EventUpdated  = "updated"
	EventError    = "error"
	EventComplete = "complete"
)

// Inspector reads collection metadata.
type Inspector interface {
	Names(ctx context.Context) ([]string, error)
	Inspect(ctx context.Context, name string, sampleSize int) (*data.CollectionSample, error)
}

// MetadataCache persists discovery results between restarts.
type MetadataCache interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte, ttl time.Duration) error
}

// CollectionInfo is the discovered state of one collection.
type CollectionInfo struct {
	Name        string           `json:"name"`
	Count       int64            `json:"count"`
	SampledDocs int              `json:"sampled_docs"`
	Fields      []data.FieldInfo `json:"fields"`
	Error       string           `json:"error,omitempty"`
	InspectedAt time.Time        `json:"inspected_at"`
}

// DiscoveryStats summarizes a discovery run.
type DiscoveryStats struct {
	TotalCollections int       `json:"total_collections"`
	TotalDocuments   int64     `json:"total_documents"`
	Errors           int       `json:"errors"`
	DurationMS       int64     `json:"duration_ms"`
	DiscoveredAt     time.Time `json:"discovered_at"`
	FromCache        bool      `json:"from_cache"`
}

// DiscoveryResult is what Discover returns.
type DiscoveryResult struct {
	Collections []CollectionInfo `json:"collections"`
	Stats       DiscoveryStats   `json:"stats"`
}

// DiscoveryEvent is pushed to listeners while collections are inspected.
type DiscoveryEvent struct {
	Type       string          `json:"type"`
	Collection *CollectionInfo `json:"collection,omitempty"`
	Stats      *DiscoveryStats `json:"stats,omitempty"`
	Error      string          `json:"error,omitempty"`
	At         time.Time       `json:"at"`
}

// DiscoveryService enumerates the platform database's collections and caches what it finds.
type DiscoveryService struct {
	inspector Inspector
	cache     MetadataCache
	ttl       time.Duration
	log       logger.Logger
	now       func() time.Time

	runMu sync.Mutex // serializes discovery runs

	mu     sync.RWMutex
	result *DiscoveryResult

	listenersMu sync.Mutex
	listeners   map[chan DiscoveryEvent]struct{}
}

// NewDiscoveryService creates a DiscoveryService whose results stay fresh for ttl.
func NewDiscoveryService(inspector Inspector, cache MetadataCache, ttl time.Duration, log logger.Logger) *DiscoveryService {
	return &DiscoveryService{
		inspector: inspector,
		cache:     cache,
		ttl:       ttl,
		log:       log.With(map[string]interface{}{"component": "discovery"}),
		now:       time.Now,
		listeners: map[chan DiscoveryEvent]struct{}{},
	}
}

// Subscribe registers a listener. The returned function unregisters it and closes the channel.
func (s *DiscoveryService) Subscribe() (<-chan DiscoveryEvent, func()) {
	ch := make(chan DiscoveryEvent, listenerBuffer)
	s.listenersMu.Lock()
	s.listeners[ch] = struct{}{}
	s.listenersMu.Unlock()
	metrics.EventListeners.Inc()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.listenersMu.Lock()
			delete(s.listeners, ch)
			close(ch)
			s.listenersMu.Unlock()
			metrics.EventListeners.Dec()
		})
	}
}

// emit delivers ev to every listener that has room for it.
func (s *DiscoveryService) emit(ev DiscoveryEvent) {
	ev.At = s.now().UTC()
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()
	for ch := range s.listeners {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Discover returns the collections of the platform database. Unless forceRefresh
// is set, a result younger than the TTL is served from memory or the persistent cache.
func (s *DiscoveryService) Discover(ctx context.Context, forceRefresh bool) (*DiscoveryResult, error) {
	if !forceRefresh {
		if res := s.cached(); res != nil {
			metrics.DiscoveryRunsTotal.WithLabelValues("cache").Inc()
			return res, nil
		}
	}

	s.runMu.Lock()
	defer s.runMu.Unlock()
	metrics.DiscoveryRunsTotal.WithLabelValues("database").Inc()

	start := s.now()
	names, err := s.inspector.Names(ctx)
	if err != nil {
		s.emit(DiscoveryEvent{Type: EventError, Error: err.Error()})
		return nil, err
	}

	known := s.knownNames()
	res := &DiscoveryResult{Collections: make([]CollectionInfo, 0, len(names))}
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		info := s.inspect(ctx, name)
		res.Collections = append(res.Collections, info)
		switch {
		case info.Error != "":
			res.Stats.Errors++
			s.emit(DiscoveryEvent{Type: EventError, Collection: &info, Error: info.Error})
		case known[name]:
			s.emit(DiscoveryEvent{Type: EventUpdated, Collection: &info})
		default:
			s.emit(DiscoveryEvent{Type: EventAdded, Collection: &info})
		}
	}

	elapsed := s.now().Sub(start)
	summarize(res)
	res.Stats.DurationMS = elapsed.Milliseconds()
	res.Stats.DiscoveredAt = s.now().UTC()
	metrics.DiscoveryDuration.Observe(elapsed.Seconds())

	s.store(res)
	stats := res.Stats
	s.emit(DiscoveryEvent{Type: EventComplete, Stats: &stats})
	s.log.Info(fmt.Sprintf("Discovered %d collections (%d errors) in %s", stats.TotalCollections, stats.Errors, elapsed))
	return cloneResult(res), nil
}

// RefreshCollection re-inspects one collection and updates its cached entry.
func (s *DiscoveryService) RefreshCollection(ctx context.Context, name string) (*CollectionInfo, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	names, err := s.inspector.Names(ctx)
	if err != nil {
		return nil, err
	}
	if !contains(names, name) {
		return nil, fmt.Errorf("collection %q: %w", name, data.ErrNotFound)
	}

	info := s.inspect(ctx, name)
	if info.Error != "" {
		s.emit(DiscoveryEvent{Type: EventError, Collection: &info, Error: info.Error})
		return nil, fmt.Errorf("failed to inspect %s: %s", name, info.Error)
	}

	s.mu.RLock()
	res := cloneResult(s.result)
	s.mu.RUnlock()
	if res == nil {
		// A single collection is not a full result; the next Discover inspects everything.
		s.emit(DiscoveryEvent{Type: EventAdded, Collection: &info})
		return &info, nil
	}
	evType := EventAdded
	replaced := false
	for i := range res.Collections {
		if res.Collections[i].Name == name {
			res.Collections[i] = info
			replaced = true
			evType = EventUpdated
			break
		}
	}
	if !replaced {
		res.Collections = append(res.Collections, info)
		sort.Slice(res.Collections, func(i, j int) bool { return res.Collections[i].Name < res.Collections[j].Name })
	}
	summarize(res)
	s.store(res)
	s.emit(DiscoveryEvent{Type: evType, Collection: &info})
	return &info, nil
}

// Stats returns the summary of the last known result, if any.
func (s *DiscoveryService) Stats() (DiscoveryStats, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.result == nil {
		return DiscoveryStats{}, false
	}
	return s.result.Stats, true
}

func (s *DiscoveryService) inspect(ctx context.Context, name string) CollectionInfo {
	info := CollectionInfo{Name: name, Fields: []data.FieldInfo{}, InspectedAt: s.now().UTC()}
	sample, err := s.inspector.Inspect(ctx, name, SampleSize)
	if err != nil {
		metrics.DiscoveryErrorsTotal.Inc()
		s.log.Error(err, fmt.Sprintf("Failed to inspect collection %s", name))
		info.Error = err.Error()
		return info
	}
	info.Count = sample.Count
	info.SampledDocs = sample.SampledDocs
	if sample.Fields != nil {
		info.Fields = sample.Fields
	}
	return info
}

// cached returns a fresh result from memory, then from the persistent cache.
func (s *DiscoveryService) cached() *DiscoveryResult {
	s.mu.RLock()
	res := s.result
	s.mu.RUnlock()
	if res != nil && s.fresh(res) {
		out := cloneResult(res)
		out.Stats.FromCache = true
		return out
	}

	raw, err := s.cache.Get(discoveryCacheKey)
	if err != nil {
		s.log.Warn(fmt.Sprintf("Failed to read discovery cache: %v", err))
		return nil
	}
	if raw == nil {
		return nil
	}
	var stored DiscoveryResult
	if err := json.Unmarshal(raw, &stored); err != nil {
		s.log.Warn(fmt.Sprintf("Ignoring unreadable discovery cache: %v", err))
		return nil
	}
	if !s.fresh(&stored) {
		return nil
	}
	s.mu.Lock()
	s.result = &stored
	s.mu.Unlock()
	out := cloneResult(&stored)
	out.Stats.FromCache = true
	return out
}

func (s *DiscoveryService) fresh(res *DiscoveryResult) bool {
	return s.now().Sub(res.Stats.DiscoveredAt) < s.ttl
}

// store keeps res in memory and persists it for the rest of its TTL.
func (s *DiscoveryService) store(res *DiscoveryResult) {
	res.Stats.FromCache = false
	s.mu.Lock()
	s.result = res
	s.mu.Unlock()

	remaining := s.ttl - s.now().Sub(res.Stats.DiscoveredAt)
	if remaining <= 0 {
		return
	}
	raw, err := json.Marshal(res)
	if err != nil {
		s.log.Error(err, "Failed to encode discovery result")
		return
	}
	if err := s.cache.Set(discoveryCacheKey, raw, remaining); err != nil {
		s.log.Error(err, "Failed to persist discovery result")
	}
}

func (s *DiscoveryService) knownNames() map[string]bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	known := map[string]bool{}
	if s.result != nil {
		for _, c := range s.result.Collections {
			known[c.Name] = true
		}
	}
	return known
}

func summarize(res *DiscoveryResult) {
	res.Stats.TotalCollections = len(res.Collections)
	res.Stats.TotalDocuments = 0
	res.Stats.Errors = 0
	for _, c := range res.Collections {
		res.Stats.TotalDocuments += c.Count
		if c.Error != "" {
			res.Stats.Errors++
		}
	}
}

func cloneResult(res *DiscoveryResult) *DiscoveryResult {
	if res == nil {
		return nil
	}
	out := &DiscoveryResult{Stats: res.Stats, Collections: make([]CollectionInfo, len(res.Collections))}
	copy(out.Collections, res.Collections)
	return out
}
