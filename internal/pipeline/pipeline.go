// Package pipeline orchestrates a full agency analysis run: discovery,
// batched review processing, trust ranking, and deep-analysis augmentation.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/confiauto/agency-finder/internal/cache"
	"github.com/confiauto/agency-finder/internal/config"
	"github.com/confiauto/agency-finder/internal/cost"
	"github.com/confiauto/agency-finder/internal/criteria"
	"github.com/confiauto/agency-finder/internal/model"
	"github.com/confiauto/agency-finder/internal/resilience"
	"github.com/confiauto/agency-finder/internal/trust"
	"github.com/confiauto/agency-finder/internal/validator"
	"github.com/confiauto/agency-finder/pkg/deepresearch"
	"github.com/confiauto/agency-finder/pkg/places"
)

// Pipeline orchestrates the discovery and analysis phases.
type Pipeline struct {
	cfg      *config.Config
	criteria *criteria.Loader
	places   places.Client
	deep     deepresearch.Client
	cache    cache.Semantic
	calc     *cost.Calculator
	now      func() time.Time
}

// New creates a Pipeline with all dependencies. deep and sem may be nil:
// a nil deep client skips the augmentation phase, a nil cache disables
// result caching.
func New(
	cfg *config.Config,
	loader *criteria.Loader,
	placesClient places.Client,
	deepClient deepresearch.Client,
	sem cache.Semantic,
) *Pipeline {
	return &Pipeline{
		cfg:      cfg,
		criteria: loader,
		places:   placesClient,
		deep:     deepClient,
		cache:    sem,
		calc:     cost.NewCalculator(cost.DefaultRates()),
		now:      time.Now,
	}
}

// WithNow sets a fixed clock for testing.
func (p *Pipeline) WithNow(now func() time.Time) *Pipeline {
	p.now = now
	return p
}

// Run executes a full analysis for a query around the user's location.
// The only terminal failures are discovery errors and an empty discovery
// result; everything downstream degrades per candidate and is recorded in
// the result metadata instead.
func (p *Pipeline) Run(ctx context.Context, query string, userLoc model.Location) (*model.PipelineResult, error) {
	start := p.now()
	runID := uuid.NewString()
	log := zap.L().With(zap.String("run_id", runID), zap.String("query", query))

	if cached := p.cacheLookup(ctx, log, query, userLoc); cached != nil {
		return cached, nil
	}

	crit := p.criteria.Load(false)

	keyword := p.cfg.Pipeline.SearchKeyword
	if strings.TrimSpace(query) != "" {
		keyword = query
	}

	log.Info("pipeline: discovering agencies",
		zap.String("keyword", keyword),
		zap.Int("radius_m", p.cfg.Pipeline.RadiusMeters),
	)

	found, err := p.places.SearchNearby(ctx, userLoc, p.cfg.Pipeline.RadiusMeters, keyword)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: discover agencies")
	}
	if len(found) == 0 {
		return nil, eris.New("pipeline: no agencies found for query")
	}

	candidates := prefilter(found, p.cfg.Pipeline.MinRating, p.cfg.Pipeline.MaxAgencies)
	log.Info("pipeline: candidates selected",
		zap.Int("found", len(found)),
		zap.Int("candidates", len(candidates)),
	)

	// Index-aligned with candidates so discovery order survives as the
	// tiebreak in the stable sort below.
	processed := make([]*model.AnalysisResult, len(candidates))
	var mu sync.Mutex
	var runErrors []string

	batchSize := p.cfg.Pipeline.BatchSize
	if batchSize < 1 {
		batchSize = 1
	}

	for lo := 0; lo < len(candidates); lo += batchSize {
		hi := min(lo+batchSize, len(candidates))

		g, gCtx := errgroup.WithContext(ctx)
		for i := lo; i < hi; i++ {
			i := i
			agency := candidates[i]
			g.Go(func() error {
				res, notes := p.processAgency(gCtx, agency, userLoc, crit)
				mu.Lock()
				defer mu.Unlock()
				for _, note := range notes {
					runErrors = append(runErrors, agency.Name+": "+note)
				}
				processed[i] = res
				return nil
			})
		}
		_ = g.Wait()

		if ctx.Err() != nil {
			return nil, eris.Wrap(ctx.Err(), "pipeline: run canceled")
		}
	}

	var agencies []model.AnalysisResult
	totalWithReviews := 0
	for _, res := range processed {
		if res == nil {
			continue
		}
		if res.ReviewsCount > 0 {
			totalWithReviews++
		}
		agencies = append(agencies, *res)
	}

	sort.SliceStable(agencies, func(i, j int) bool {
		return agencies[i].TrustAnalysis.TrustScore > agencies[j].TrustAnalysis.TrustScore
	})

	deepCount, deepCost, deepErrors := p.augmentTop(ctx, log, agencies)
	runErrors = append(runErrors, deepErrors...)

	if runErrors == nil {
		runErrors = []string{}
	}

	result := &model.PipelineResult{
		Agencies: agencies,
		Metadata: model.PipelineMetadata{
			RunID:                 runID,
			TotalFound:            len(found),
			TotalProcessed:        len(candidates),
			TotalWithReviews:      totalWithReviews,
			TotalWithDeepAnalysis: deepCount,
			ExecutionTimeMs:       p.now().Sub(start).Milliseconds(),
			DeepAnalysisCostUSD:   deepCost,
			Errors:                runErrors,
		},
	}

	p.cacheStore(ctx, log, query, userLoc, result)

	log.Info("pipeline: run complete",
		zap.Int("agencies", len(agencies)),
		zap.Int("with_deep_analysis", deepCount),
		zap.Int64("duration_ms", result.Metadata.ExecutionTimeMs),
		zap.Int("errors", len(runErrors)),
	)

	return result, nil
}

// prefilter drops candidates below the minimum rating and caps the list,
// preserving discovery order. Unrated agencies are dropped: there is
// nothing to rank them by.
func prefilter(found []model.Agency, minRating float64, maxAgencies int) []model.Agency {
	candidates := make([]model.Agency, 0, maxAgencies)
	for _, a := range found {
		if a.Rating == nil || *a.Rating < minRating {
			continue
		}
		candidates = append(candidates, a)
		if len(candidates) == maxAgencies {
			break
		}
	}
	return candidates
}

// processAgency runs the per-candidate phase: review fetch (with retry),
// validation gate, trust scoring, and assembly. A nil result means the
// candidate was dropped; every drop leaves a note so the run metadata
// accounts for each processed candidate missing from the ranking.
func (p *Pipeline) processAgency(ctx context.Context, agency model.Agency, userLoc model.Location, crit *criteria.Criteria) (*model.AnalysisResult, []string) {
	var notes []string

	retryCfg := resilience.DefaultRetryConfig()
	retryCfg.OnRetry = resilience.RetryLogger("places", "fetch reviews")

	reviews, err := resilience.DoVal(ctx, retryCfg, func(ctx context.Context) ([]model.Review, error) {
		return p.places.FetchReviews(ctx, agency.PlaceID)
	})
	if err != nil {
		if !p.cfg.Pipeline.ContinueWithoutReviews {
			return nil, append(notes, fmt.Sprintf("dropped, review fetch failed: %v", err))
		}
		// The agency can still be ranked on its aggregate rating; trust
		// scoring handles an empty review set deterministically.
		notes = append(notes, fmt.Sprintf("review fetch failed: %v", err))
		reviews = nil
	}

	basic := validator.Validate(agency.Name, reviews, crit)
	if !validator.ShouldProcessAgency(basic, agency.RatingOr(0)) {
		zap.L().Debug("pipeline: candidate excluded",
			zap.String("agency", agency.Name),
			zap.String("reason", basic.Reason),
		)
		return nil, append(notes, "excluded: "+basic.Reason)
	}

	enhanced := validator.ValidateAgency(agency, reviews, crit)
	if !enhanced.IsValid {
		zap.L().Debug("pipeline: candidate disqualified",
			zap.String("agency", agency.Name),
			zap.Strings("failures", enhanced.FailureReasons),
		)
		reason := strings.Join(enhanced.FailureReasons, "; ")
		if reason == "" {
			reason = enhanced.Reason
		}
		return nil, append(notes, "excluded: "+reason)
	}

	analysis := trust.Score(reviews, crit)

	return &model.AnalysisResult{
		Agency:        agency,
		TrustAnalysis: analysis,
		Reviews:       reviews,
		ReviewsCount:  len(reviews),
		DistanceKm:    DistanceKm(userLoc, agency.Location),
		Timestamp:     p.now().UTC(),
	}, notes
}

// augmentTop runs deep analysis over the top-ranked agencies that clear
// the minimum trust bar. Failures are recorded, never raised: a missing
// deep analysis must not cost the caller the ranking.
func (p *Pipeline) augmentTop(ctx context.Context, log *zap.Logger, agencies []model.AnalysisResult) (int, float64, []string) {
	if p.deep == nil || len(agencies) == 0 {
		return 0, 0, nil
	}

	topN := p.cfg.Pipeline.DeepAnalysisTopN
	if topN > len(agencies) {
		topN = len(agencies)
	}

	tracker := cost.NewTracker(p.calc)
	var mu sync.Mutex
	var errs []string
	count := 0

	g, gCtx := errgroup.WithContext(ctx)
	for i := 0; i < topN; i++ {
		i := i
		if agencies[i].TrustAnalysis.TrustScore < p.cfg.Pipeline.DeepAnalysisMin {
			continue
		}
		g.Go(func() error {
			analysis, usage, err := p.deep.Analyze(gCtx, agencies[i].Agency)
			tracker.AddClaude(p.cfg.Anthropic.Model, usage)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, agencies[i].Agency.Name+": deep analysis failed: "+err.Error())
				return nil
			}
			agencies[i].DeepAnalysis = analysis
			count++
			return nil
		})
	}
	_ = g.Wait()

	log.Info("pipeline: deep analysis complete",
		zap.Int("augmented", count),
		zap.Float64("cost_usd", tracker.TotalUSD()),
	)

	return count, tracker.TotalUSD(), errs
}

// cacheLookup returns a previously cached result for the query, or nil.
func (p *Pipeline) cacheLookup(ctx context.Context, log *zap.Logger, query string, loc model.Location) *model.PipelineResult {
	if p.cache == nil {
		return nil
	}

	raw, ok, err := p.cache.Get(ctx, query, loc)
	if err != nil {
		log.Warn("pipeline: cache lookup failed", zap.Error(err))
		return nil
	}
	if !ok {
		return nil
	}

	var cached model.PipelineResult
	if err := json.Unmarshal(raw, &cached); err != nil {
		log.Warn("pipeline: discarding corrupt cache payload", zap.Error(err))
		return nil
	}

	log.Info("pipeline: cache hit", zap.String("cached_run_id", cached.Metadata.RunID))
	return &cached
}

// cacheStore writes a completed result back to the cache.
func (p *Pipeline) cacheStore(ctx context.Context, log *zap.Logger, query string, loc model.Location, result *model.PipelineResult) {
	if p.cache == nil {
		return
	}

	raw, err := json.Marshal(result)
	if err != nil {
		log.Warn("pipeline: marshal result for cache", zap.Error(err))
		return
	}
	if err := p.cache.Set(ctx, query, loc, raw); err != nil {
		log.Warn("pipeline: cache store failed", zap.Error(err))
	}
}
