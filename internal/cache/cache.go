// Package cache provides a two-tier semantic cache in front of expensive
// provider calls: exact key lookup first, then similarity search over
// previously cached queries.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/confiauto/agency-finder/internal/model"
)

// DefaultTTL is how long cached search results live.
const DefaultTTL = time.Hour

// DefaultSimilarityThreshold is the minimum similarity score accepted on
// the fallback path.
const DefaultSimilarityThreshold = 0.85

// topK bounds the number of nearest entries inspected on the similarity path.
const topK = 5

// Semantic is the cache consumed by the pipeline. Get returns ok=false on
// a miss through both tiers; the caller computes and calls Set.
type Semantic interface {
	Get(ctx context.Context, query string, loc model.Location) (json.RawMessage, bool, error)
	Set(ctx context.Context, query string, loc model.Location, payload json.RawMessage) error

	// ClearOlderThan removes entries whose stored timestamp is older than
	// the cutoff and returns how many were removed.
	ClearOlderThan(ctx context.Context, days int) (int, error)
}

// Embedder produces a vector representation of a query for similarity
// search. Implemented by the Jina embeddings client.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Key builds the normalized exact-match cache key for a query + location.
func Key(query string, loc model.Location) string {
	return normalizeQuery(query) + ":" + locationString(loc)
}

// EmbedText builds the text embedded for similarity search.
func EmbedText(query string, loc model.Location) string {
	return normalizeQuery(query) + " " + locationString(loc)
}

func normalizeQuery(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}

func locationString(loc model.Location) string {
	return fmt.Sprintf("%.4f,%.4f", loc.Lat, loc.Lng)
}

// cosine computes cosine similarity between two vectors. Mismatched or
// empty vectors score 0.
func cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
