package search

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sells-group/campsite-cli/internal/model"
	"github.com/sells-group/campsite-cli/internal/resilience"
)

// CoordinatorOptions tunes the pipeline.
type CoordinatorOptions struct {
	// WebBackfillThreshold triggers the web provider when the places provider
	// returns fewer records than this. Default: 5.
	WebBackfillThreshold int
	FeaturedThreshold    float64
	FeaturedLimit        int
	PopularLimit         int
}

// Coordinator sequences one search execution through its stages and
// assembles the result bundle. Every run starts fresh; nothing is shared
// between queries except the photo cache behind the enricher.
type Coordinator struct {
	placesProvider Provider
	webProvider    Provider // nil disables backfill
	analyzer       *Analyzer
	scorer         *Scorer
	enricher       *Enricher
	summarizer     *Summarizer
	breakers       *resilience.BreakerSet
	progress       chan<- string // nil disables progress reporting
	opts           CoordinatorOptions
}

// NewCoordinator wires the pipeline. progress may be nil; sends to it never
// block, so a slow consumer drops messages rather than stalling the search.
func NewCoordinator(
	placesProvider, webProvider Provider,
	analyzer *Analyzer,
	scorer *Scorer,
	enricher *Enricher,
	summarizer *Summarizer,
	breakers *resilience.BreakerSet,
	progress chan<- string,
	opts CoordinatorOptions,
) *Coordinator {
	if opts.WebBackfillThreshold <= 0 {
		opts.WebBackfillThreshold = 5
	}
	if opts.FeaturedThreshold <= 0 {
		opts.FeaturedThreshold = 0.7
	}
	if opts.FeaturedLimit <= 0 {
		opts.FeaturedLimit = 3
	}
	if opts.PopularLimit <= 0 {
		opts.PopularLimit = 3
	}
	return &Coordinator{
		placesProvider: placesProvider,
		webProvider:    webProvider,
		analyzer:       analyzer,
		scorer:         scorer,
		enricher:       enricher,
		summarizer:     summarizer,
		breakers:       breakers,
		progress:       progress,
		opts:           opts,
	}
}

// Run executes one search. It never returns an error: provider failures
// degrade to partial or empty results, and an unexpected fault produces an
// Error-state bundle with a single apology message.
func (c *Coordinator) Run(ctx context.Context, query string) (bundle *model.SearchResultBundle) {
	started := time.Now()
	bundle = &model.SearchResultBundle{
		RunID: uuid.New().String(),
		Query: query,
		State: model.StateIdle,
	}

	defer func() {
		bundle.ElapsedMS = time.Since(started).Milliseconds()
		if r := recover(); r != nil {
			zap.L().Error("pipeline fault",
				zap.String("run_id", bundle.RunID),
				zap.Any("panic", r),
			)
			c.emit("⚠️ 検索中にエラーが発生しました")
			*bundle = model.SearchResultBundle{
				RunID:     bundle.RunID,
				Query:     query,
				State:     model.StateError,
				Summary:   ErrorSummary,
				ElapsedMS: time.Since(started).Milliseconds(),
			}
		}
	}()

	// Searching
	bundle.State = model.StateSearching
	c.emit("🔍 キャンプ場を検索しています...")

	intent := c.analyzer.Analyze(ctx, query)
	bundle.Intent = intent

	merged := c.fanOut(ctx, intent, bundle)
	if len(merged) == 0 {
		bundle.State = model.StateDone
		bundle.Summary = NoResultsSummary
		c.emit("✅ 検索が完了しました！0件のキャンプ場が見つかりました。")
		return bundle
	}

	// Scoring
	bundle.State = model.StateScoring
	c.emit("⭐ 検索結果を評価しています...")
	ranked := c.scorer.Score(ctx, intent, merged)
	c.emit("📊 検索結果を整理しています...")

	featured := SelectFeatured(ranked, c.opts.FeaturedThreshold, c.opts.FeaturedLimit)
	popular := SelectPopular(ranked, c.opts.PopularLimit)

	// Enriching
	bundle.State = model.StateEnriching
	c.emit("📊 口コミを分析しています...")
	c.enricher.Enrich(ctx, ranked, TargetSet(featured, popular))

	// Re-select so the display subsets carry the enrichment fields.
	featured = SelectFeatured(ranked, c.opts.FeaturedThreshold, c.opts.FeaturedLimit)
	popular = SelectPopular(ranked, c.opts.PopularLimit)

	// Summarizing
	bundle.State = model.StateSummarizing
	c.emit("📝 検索結果の要約を生成しています...")
	summary := c.summarizer.Summarize(ctx, query, intent, ranked, featured, popular)

	bundle.Results = ranked
	bundle.Featured = featured
	bundle.Popular = popular
	bundle.Summary = summary
	bundle.State = model.StateDone
	c.emit(fmt.Sprintf("✅ 検索が完了しました！%d件のキャンプ場が見つかりました。", len(ranked)))

	zap.L().Info("search completed",
		zap.String("run_id", bundle.RunID),
		zap.Int("results", len(ranked)),
		zap.Int("featured", len(featured)),
		zap.Int("popular", len(popular)),
		zap.Strings("sources", bundle.Sources),
		zap.Duration("elapsed", time.Since(started)),
	)
	return bundle
}

// fanOut queries the places provider, backfills from the web provider when
// results run short, and merges. A provider failure contributes zero records
// and is logged, never fatal.
func (c *Coordinator) fanOut(ctx context.Context, intent model.QueryIntent, bundle *model.SearchResultBundle) []model.CampsiteRecord {
	placesRecords := c.callProvider(ctx, c.placesProvider, intent)
	if len(placesRecords) > 0 {
		bundle.Sources = append(bundle.Sources, c.placesProvider.Name())
	}

	var webRecords []model.CampsiteRecord
	if c.webProvider != nil && len(placesRecords) < c.opts.WebBackfillThreshold {
		webRecords = c.callProvider(ctx, c.webProvider, intent)
		if len(webRecords) > 0 {
			bundle.Sources = append(bundle.Sources, c.webProvider.Name())
		}
	}

	return Merge(placesRecords, webRecords)
}

func (c *Coordinator) callProvider(ctx context.Context, p Provider, intent model.QueryIntent) []model.CampsiteRecord {
	breaker := c.breakers.Get(p.Name())
	records, err := resilience.Call(ctx, breaker, func(ctx context.Context) ([]model.CampsiteRecord, error) {
		return p.Search(ctx, intent)
	})
	if err != nil {
		zap.L().Warn("provider failed",
			zap.String("provider", p.Name()),
			zap.Error(err),
		)
		return nil
	}
	return records
}

// emit sends a progress message without ever blocking the pipeline.
func (c *Coordinator) emit(msg string) {
	if c.progress == nil {
		return
	}
	select {
	case c.progress <- msg:
	default:
	}
}
