package cache

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/confiauto/agency-finder/internal/model"
)

// memoryEntry is one cached result plus the metadata needed for the
// word-overlap similarity fallback.
type memoryEntry struct {
	key       string
	query     string
	location  string
	payload   json.RawMessage
	tokens    map[string]struct{}
	timestamp time.Time
	hits      int64
}

// Memory is the in-process fallback cache used when no Redis backend is
// configured. The similarity tier approximates semantic matching with
// token overlap instead of embeddings, so the pipeline stays usable
// without network dependencies.
type Memory struct {
	ttl       time.Duration
	threshold float64
	now       func() time.Time

	mu      sync.Mutex
	entries map[string]*memoryEntry
}

// NewMemory creates an in-memory semantic cache.
func NewMemory(ttl time.Duration, threshold float64) *Memory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if threshold <= 0 {
		threshold = DefaultSimilarityThreshold
	}
	return &Memory{
		ttl:       ttl,
		threshold: threshold,
		now:       time.Now,
		entries:   make(map[string]*memoryEntry),
	}
}

// WithNow sets a fixed clock for testing.
func (m *Memory) WithNow(now func() time.Time) *Memory {
	m.now = now
	return m
}

// Get looks up an exact key first, then falls back to token-overlap
// similarity over live entries.
func (m *Memory) Get(_ context.Context, query string, loc model.Location) (json.RawMessage, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := Key(query, loc)
	if e, ok := m.entries[key]; ok && !m.expired(e) {
		e.hits++
		return e.payload, true, nil
	}

	// Similarity fallback.
	want := tokenize(EmbedText(query, loc))
	type scored struct {
		entry *memoryEntry
		score float64
	}
	var candidates []scored
	for _, e := range m.entries {
		if m.expired(e) {
			continue
		}
		candidates = append(candidates, scored{e, overlap(want, e.tokens)})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})
	if len(candidates) > topK {
		candidates = candidates[:topK]
	}

	for _, c := range candidates {
		if c.score >= m.threshold {
			c.entry.hits++
			zap.L().Debug("cache: similarity hit",
				zap.String("query", query),
				zap.String("matched", c.entry.query),
				zap.Float64("score", c.score),
			)
			return c.entry.payload, true, nil
		}
	}

	return nil, false, nil
}

// Set stores the payload under the normalized key with the cache TTL.
func (m *Memory) Set(_ context.Context, query string, loc model.Location, payload json.RawMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := Key(query, loc)
	m.entries[key] = &memoryEntry{
		key:       key,
		query:     query,
		location:  locationString(loc),
		payload:   payload,
		tokens:    tokenize(EmbedText(query, loc)),
		timestamp: m.now(),
	}
	return nil
}

// ClearOlderThan removes entries older than the cutoff.
func (m *Memory) ClearOlderThan(_ context.Context, days int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.now().AddDate(0, 0, -days)
	removed := 0
	for key, e := range m.entries {
		if e.timestamp.Before(cutoff) {
			delete(m.entries, key)
			removed++
		}
	}
	return removed, nil
}

func (m *Memory) expired(e *memoryEntry) bool {
	return m.now().Sub(e.timestamp) > m.ttl
}

func tokenize(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(text)) {
		set[w] = struct{}{}
	}
	return set
}

// overlap computes Jaccard similarity between two token sets.
func overlap(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for w := range a {
		if _, ok := b[w]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}
