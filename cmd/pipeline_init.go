package main

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/campsite-cli/internal/photocache"
	"github.com/sells-group/campsite-cli/internal/resilience"
	"github.com/sells-group/campsite-cli/internal/search"
	"github.com/sells-group/campsite-cli/pkg/anthropic"
	"github.com/sells-group/campsite-cli/pkg/cse"
	"github.com/sells-group/campsite-cli/pkg/places"
)

// pipelineEnv holds the wired pipeline plus everything that needs closing.
type pipelineEnv struct {
	Coordinator *search.Coordinator
	photoStore  *photocache.Store
}

func (e *pipelineEnv) Close() {
	if e.photoStore != nil {
		if err := e.photoStore.Close(); err != nil {
			zap.L().Warn("photo store close failed", zap.Error(err))
		}
	}
}

// initPipeline builds all API clients and the search coordinator from the
// loaded config. progress may be nil.
func initPipeline(ctx context.Context, progress chan<- string) (*pipelineEnv, error) {
	vocab := search.DefaultVocabulary()
	if cfg.Keywords.VocabularyFile != "" {
		v, err := search.LoadVocabulary(cfg.Keywords.VocabularyFile)
		if err != nil {
			return nil, err
		}
		vocab = v
	}

	placesClient := places.NewClient(cfg.Places.Key,
		places.WithBaseURL(cfg.Places.BaseURL),
		places.WithLocale(cfg.Places.Language, cfg.Places.Region),
		places.WithRateLimit(cfg.Places.RateLimitRPS),
	)

	var webProvider search.Provider
	retry := resilience.Policy{Attempts: cfg.Pipeline.RetryAttempts}
	providerTimeout := time.Duration(cfg.Pipeline.ProviderTimeoutSecs) * time.Second

	if cfg.CSE.Key != "" && cfg.CSE.EngineID != "" {
		cseClient := cse.NewClient(cfg.CSE.Key, cfg.CSE.EngineID,
			cse.WithBaseURL(cfg.CSE.BaseURL),
			cse.WithRateLimit(cfg.CSE.RateLimitRPS),
		)
		webProvider = search.NewWebProvider(cseClient, vocab, retry, providerTimeout, 10)
	} else {
		zap.L().Info("web backfill disabled, no custom search credentials")
	}

	var aiClient anthropic.Client
	if cfg.Anthropic.Key != "" {
		aiClient = anthropic.NewClient(cfg.Anthropic.Key)
	} else {
		zap.L().Info("AI judge disabled, using deterministic paths only")
	}

	cacheTTL := time.Duration(cfg.Cache.TTLHours) * time.Hour
	memCache := photocache.New(cfg.Cache.MaxEntries, cacheTTL)
	var photoStore *photocache.Store
	if cfg.Cache.DBPath != "" {
		st, err := photocache.OpenStore(cfg.Cache.DBPath, cacheTTL)
		if err != nil {
			return nil, err
		}
		if err := st.Migrate(ctx); err != nil {
			st.Close() //nolint:errcheck
			return nil, err
		}
		photoStore = st
	}
	resolver := photocache.NewResolver(memCache, photoStore, placesClient.ResolvePhotoURL)

	placesProvider := search.NewPlacesProvider(placesClient, vocab, retry,
		providerTimeout, cfg.Pipeline.NearbyRadiusMeters, cfg.Pipeline.MaxResults)

	maxTokens := int64(cfg.Anthropic.MaxTokens)
	analyzer := search.NewAnalyzer(aiClient, cfg.Anthropic.IntentModel, maxTokens, vocab)
	scorer := search.NewScorer(aiClient, cfg.Anthropic.JudgeModel, maxTokens, cfg.Pipeline.JudgeHeadSize)
	enricher := search.NewEnricher(placesClient, resolver, aiClient, search.EnricherOptions{
		Model:       cfg.Anthropic.JudgeModel,
		MaxTokens:   maxTokens,
		MaxPhotos:   cfg.Pipeline.MaxPhotos,
		Concurrency: cfg.Pipeline.EnrichConcurrency,
		UnitTimeout: providerTimeout,
	})
	summarizer := search.NewSummarizer(aiClient, cfg.Anthropic.SummaryModel, maxTokens)

	breakers := resilience.NewBreakerSet(cfg.Pipeline.BreakerThreshold,
		time.Duration(cfg.Pipeline.BreakerCooldownSecs)*time.Second)

	coordinator := search.NewCoordinator(
		placesProvider, webProvider,
		analyzer, scorer, enricher, summarizer,
		breakers, progress,
		search.CoordinatorOptions{
			FeaturedThreshold: cfg.Pipeline.FeaturedThreshold,
			FeaturedLimit:     cfg.Pipeline.FeaturedLimit,
			PopularLimit:      cfg.Pipeline.PopularLimit,
		},
	)

	return &pipelineEnv{Coordinator: coordinator, photoStore: photoStore}, nil
}
