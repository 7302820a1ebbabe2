package cache

import (
	"context"
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/confiauto/agency-finder/internal/model"
)

// Redis key prefixes. A cache entry spans three keys sharing one suffix:
// the payload, its metadata hash, and (when an embedder is configured)
// its embedding vector.
const (
	resultPrefix = "cache:result:"
	metaPrefix   = "cache:meta:"
	vecPrefix    = "cache:vec:"
)

// Redis is the Redis-backed semantic cache. The exact tier is a plain
// key-value lookup; the similarity tier brute-forces cosine similarity
// over the stored embedding vectors.
type Redis struct {
	client    *redis.Client
	embedder  Embedder // nil disables the similarity tier
	ttl       time.Duration
	threshold float64
}

// RedisOption configures the Redis cache.
type RedisOption func(*Redis)

// WithEmbedder enables the similarity tier using the given embedder.
func WithEmbedder(e Embedder) RedisOption {
	return func(r *Redis) { r.embedder = e }
}

// WithTTL overrides the default entry TTL.
func WithTTL(ttl time.Duration) RedisOption {
	return func(r *Redis) { r.ttl = ttl }
}

// WithThreshold overrides the default similarity threshold.
func WithThreshold(threshold float64) RedisOption {
	return func(r *Redis) { r.threshold = threshold }
}

// NewRedis creates a Redis-backed cache and verifies connectivity.
func NewRedis(addr, password string, db int, opts ...RedisOption) (*Redis, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, eris.Wrap(err, "cache: redis ping")
	}

	return NewRedisWithClient(client, opts...), nil
}

// NewRedisWithClient wraps an existing Redis client (used by tests).
func NewRedisWithClient(client *redis.Client, opts ...RedisOption) *Redis {
	r := &Redis{
		client:    client,
		ttl:       DefaultTTL,
		threshold: DefaultSimilarityThreshold,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Get tries the exact tier, then the similarity tier when an embedder is
// configured. Cache hits increment the entry's hit counter.
func (r *Redis) Get(ctx context.Context, query string, loc model.Location) (json.RawMessage, bool, error) {
	key := Key(query, loc)

	payload, err := r.client.Get(ctx, resultPrefix+key).Bytes()
	if err == nil {
		r.recordHit(ctx, key)
		return payload, true, nil
	}
	if !eris.Is(err, redis.Nil) {
		return nil, false, eris.Wrap(err, "cache: redis get")
	}

	if r.embedder == nil {
		return nil, false, nil
	}
	return r.similarityGet(ctx, query, loc)
}

func (r *Redis) similarityGet(ctx context.Context, query string, loc model.Location) (json.RawMessage, bool, error) {
	want, err := r.embedder.Embed(ctx, EmbedText(query, loc))
	if err != nil {
		zap.L().Warn("cache: embed query failed", zap.Error(err))
		return nil, false, nil // degrade to a miss, never block the caller
	}

	type scored struct {
		key   string
		score float64
	}
	var best []scored

	iter := r.client.Scan(ctx, 0, vecPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		vecKey := iter.Val()
		raw, getErr := r.client.Get(ctx, vecKey).Bytes()
		if getErr != nil {
			continue
		}
		var vec []float32
		if json.Unmarshal(raw, &vec) != nil {
			continue
		}
		best = append(best, scored{
			key:   strings.TrimPrefix(vecKey, vecPrefix),
			score: cosine(want, vec),
		})
	}
	if err := iter.Err(); err != nil {
		return nil, false, eris.Wrap(err, "cache: scan vectors")
	}

	sort.SliceStable(best, func(i, j int) bool { return best[i].score > best[j].score })
	if len(best) > topK {
		best = best[:topK]
	}

	for _, c := range best {
		if c.score < r.threshold {
			break
		}
		payload, getErr := r.client.Get(ctx, resultPrefix+c.key).Bytes()
		if getErr != nil {
			continue // payload expired ahead of its vector
		}
		r.recordHit(ctx, c.key)
		zap.L().Debug("cache: similarity hit",
			zap.String("query", query),
			zap.String("matched_key", c.key),
			zap.Float64("score", c.score),
		)
		return payload, true, nil
	}

	return nil, false, nil
}

// Set writes the payload, its metadata, and (when enabled) its embedding,
// all with the configured TTL.
func (r *Redis) Set(ctx context.Context, query string, loc model.Location, payload json.RawMessage) error {
	key := Key(query, loc)

	if err := r.client.Set(ctx, resultPrefix+key, []byte(payload), r.ttl).Err(); err != nil {
		return eris.Wrap(err, "cache: redis set payload")
	}

	meta := map[string]any{
		"query":    query,
		"location": locationString(loc),
		"ts_ms":    time.Now().UnixMilli(),
		"hits":     0,
	}
	if err := r.client.HSet(ctx, metaPrefix+key, meta).Err(); err != nil {
		return eris.Wrap(err, "cache: redis set meta")
	}
	if err := r.client.Expire(ctx, metaPrefix+key, r.ttl).Err(); err != nil {
		return eris.Wrap(err, "cache: redis expire meta")
	}

	if r.embedder != nil {
		vec, err := r.embedder.Embed(ctx, EmbedText(query, loc))
		if err != nil {
			zap.L().Warn("cache: embed on set failed", zap.Error(err))
			return nil // entry still serves the exact tier
		}
		raw, _ := json.Marshal(vec)
		if err := r.client.Set(ctx, vecPrefix+key, raw, r.ttl).Err(); err != nil {
			return eris.Wrap(err, "cache: redis set vector")
		}
	}

	return nil
}

// ClearOlderThan scans entry metadata and deletes payload, metadata, and
// vector for entries older than the cutoff.
func (r *Redis) ClearOlderThan(ctx context.Context, days int) (int, error) {
	cutoff := time.Now().AddDate(0, 0, -days).UnixMilli()
	removed := 0

	iter := r.client.Scan(ctx, 0, metaPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		metaKey := iter.Val()
		tsRaw, err := r.client.HGet(ctx, metaKey, "ts_ms").Result()
		if err != nil {
			continue
		}
		ts, err := strconv.ParseInt(tsRaw, 10, 64)
		if err != nil || ts >= cutoff {
			continue
		}

		key := strings.TrimPrefix(metaKey, metaPrefix)
		if err := r.client.Del(ctx, metaKey, resultPrefix+key, vecPrefix+key).Err(); err != nil {
			return removed, eris.Wrap(err, "cache: redis delete entry")
		}
		removed++
	}
	if err := iter.Err(); err != nil {
		return removed, eris.Wrap(err, "cache: scan meta")
	}

	return removed, nil
}

func (r *Redis) recordHit(ctx context.Context, key string) {
	if err := r.client.HIncrBy(ctx, metaPrefix+key, "hits", 1).Err(); err != nil {
		zap.L().Debug("cache: hit counter update failed", zap.Error(err))
	}
}

