package main

import (
	"time"

	"go.uber.org/zap"

	"github.com/confiauto/agency-finder/internal/cache"
	"github.com/confiauto/agency-finder/internal/criteria"
	"github.com/confiauto/agency-finder/internal/pipeline"
	"github.com/confiauto/agency-finder/pkg/deepresearch"
	"github.com/confiauto/agency-finder/pkg/jina"
	"github.com/confiauto/agency-finder/pkg/places"
)

// initPipeline wires all API clients, the criteria loader, and the
// semantic cache into a Pipeline ready to run.
func initPipeline(mode string) (*pipeline.Pipeline, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	placesOpts := []places.Option{places.WithRateLimit(cfg.Places.RequestsPerSec)}
	if cfg.Places.BaseURL != "" {
		placesOpts = append(placesOpts, places.WithBaseURL(cfg.Places.BaseURL))
	}
	placesClient := places.NewClient(cfg.Places.Key, placesOpts...)

	deepClient := deepresearch.NewClient(cfg.Anthropic.Key,
		deepresearch.WithModel(cfg.Anthropic.Model),
		deepresearch.WithMaxTokens(cfg.Anthropic.MaxTokens),
	)

	loader := criteria.NewLoader(cfg.Criteria.Path)

	return pipeline.New(cfg, loader, placesClient, deepClient, initCache()), nil
}

// initCache builds the semantic cache. Redis with a Jina-powered
// similarity tier is preferred; when Redis is unreachable the cache
// degrades to the in-memory word-overlap implementation, and when
// caching is disabled entirely it returns nil.
func initCache() cache.Semantic {
	if !cfg.Cache.Enabled {
		zap.L().Info("result cache disabled")
		return nil
	}

	ttl := time.Duration(cfg.Cache.TTLMinutes) * time.Minute

	redisOpts := []cache.RedisOption{
		cache.WithTTL(ttl),
		cache.WithThreshold(cfg.Cache.SimilarityThreshold),
	}
	if cfg.Jina.Key != "" {
		jinaOpts := []jina.Option{jina.WithModel(cfg.Jina.Model)}
		if cfg.Jina.BaseURL != "" {
			jinaOpts = append(jinaOpts, jina.WithBaseURL(cfg.Jina.BaseURL))
		}
		redisOpts = append(redisOpts, cache.WithEmbedder(jina.NewClient(cfg.Jina.Key, jinaOpts...)))
	} else {
		zap.L().Debug("CONFIAUTO_JINA_KEY not set, cache similarity tier disabled")
	}

	r, err := cache.NewRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, redisOpts...)
	if err != nil {
		zap.L().Warn("redis unavailable, using in-memory cache", zap.Error(err))
		return cache.NewMemory(ttl, cfg.Cache.SimilarityThreshold)
	}

	zap.L().Info("redis cache enabled", zap.String("addr", cfg.Redis.Addr))
	return r
}
