package search

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/campsite-cli/internal/model"
	"github.com/sells-group/campsite-cli/internal/photocache"
	"github.com/sells-group/campsite-cli/pkg/anthropic"
	"github.com/sells-group/campsite-cli/pkg/places"
)

const reviewSystemPrompt = `あなたはキャンプ場の口コミ分析の専門家です。口コミと基本情報を分析し、
要約・特徴・傾向・おすすめポイントをJSON形式で返してください。`

// Enricher fills in photos and review summaries for the display subset.
// Every unit of work is isolated: one record's failure never touches its
// siblings, and a stage timeout abandons stragglers.
type Enricher struct {
	places       places.Client
	photos       *photocache.Resolver // nil skips photo resolution
	ai           anthropic.Client     // nil forces the rule-based summarizer
	model        string
	maxTokens    int64
	maxPhotos    int
	concurrency  int
	unitTimeout  time.Duration
	stageTimeout time.Duration
}

// EnricherOptions configures an Enricher.
type EnricherOptions struct {
	Model        string
	MaxTokens    int64
	MaxPhotos    int
	Concurrency  int
	UnitTimeout  time.Duration
	StageTimeout time.Duration
}

// NewEnricher builds the enrichment orchestrator.
func NewEnricher(placesClient places.Client, photos *photocache.Resolver, ai anthropic.Client, opts EnricherOptions) *Enricher {
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 1024
	}
	if opts.MaxPhotos <= 0 {
		opts.MaxPhotos = 6
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	if opts.UnitTimeout <= 0 {
		opts.UnitTimeout = 20 * time.Second
	}
	if opts.StageTimeout <= 0 {
		opts.StageTimeout = 90 * time.Second
	}
	return &Enricher{
		places:       placesClient,
		photos:       photos,
		ai:           ai,
		model:        opts.Model,
		maxTokens:    opts.MaxTokens,
		maxPhotos:    opts.MaxPhotos,
		concurrency:  opts.Concurrency,
		unitTimeout:  opts.UnitTimeout,
		stageTimeout: opts.StageTimeout,
	}
}

// Enrich annotates, in place, every record whose identity is in targets.
// Records are partitioned by identity before fan-out, so each worker owns
// exclusive write access to its record.
func (e *Enricher) Enrich(ctx context.Context, records []model.CampsiteRecord, targets map[string]struct{}) {
	var selected []*model.CampsiteRecord
	for i := range records {
		if _, ok := targets[recordIdentity(&records[i])]; ok {
			selected = append(selected, &records[i])
		}
	}
	if len(selected) == 0 {
		return
	}

	stageCtx, cancel := context.WithTimeout(ctx, e.stageTimeout)
	defer cancel()

	limit := e.concurrency
	if len(selected) < limit {
		limit = len(selected)
	}

	g, gctx := errgroup.WithContext(stageCtx)
	g.SetLimit(limit)
	for _, rec := range selected {
		g.Go(func() error {
			unitCtx, unitCancel := context.WithTimeout(gctx, e.unitTimeout)
			defer unitCancel()
			e.enrichOne(unitCtx, rec)
			return nil
		})
	}
	g.Wait() //nolint:errcheck
}

// recordIdentity returns the merge identity used for target selection.
func recordIdentity(rec *model.CampsiteRecord) string {
	if rec.PlaceID != "" {
		return rec.PlaceID
	}
	return foldName(rec.Name)
}

// TargetSet builds the identity set of the featured and popular subsets.
func TargetSet(groups ...[]model.CampsiteRecord) map[string]struct{} {
	out := make(map[string]struct{})
	for _, group := range groups {
		for i := range group {
			out[recordIdentity(&group[i])] = struct{}{}
		}
	}
	return out
}

// enrichOne upgrades a single record: details backfill, photo resolution,
// review summary. Failures are logged and leave the record partially
// enriched.
func (e *Enricher) enrichOne(ctx context.Context, rec *model.CampsiteRecord) {
	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("enrichment worker panicked",
				zap.String("name", rec.Name),
				zap.Any("panic", r),
			)
		}
	}()

	if rec.PlaceID != "" {
		e.upgradeFromDetails(ctx, rec)
	}
	if rec.Description == "" {
		rec.Description = SynthesizeDescription(rec, "")
	}
	e.summarizeReviews(ctx, rec)
}

func (e *Enricher) upgradeFromDetails(ctx context.Context, rec *model.CampsiteRecord) {
	details, err := e.places.GetDetails(ctx, rec.PlaceID)
	if err != nil {
		zap.L().Warn("details fetch failed",
			zap.String("name", rec.Name),
			zap.Error(err),
		)
	} else {
		if details.GoogleMapsURI != "" {
			rec.MapsURI = details.GoogleMapsURI
		}
		if details.WebsiteURI != "" {
			rec.Website = details.WebsiteURI
		}
		if rec.Description == "" && details.EditorialSummary != nil {
			rec.Description = details.EditorialSummary.Text
		}
		for _, review := range details.Reviews {
			r := model.Review{Rating: review.Rating, PublishTime: review.PublishTime}
			if review.Text != nil {
				r.Text = review.Text.Text
			}
			if review.AuthorAttribution != nil {
				r.Author = review.AuthorAttribution.DisplayName
			}
			rec.Reviews = append(rec.Reviews, r)
		}
		var names []string
		for _, photo := range details.Photos {
			if photo.Name != "" {
				names = append(names, photo.Name)
			}
		}
		if len(names) > 0 {
			rec.PhotoRefs = names
		}
	}

	e.resolvePhotos(ctx, rec)
}

func (e *Enricher) resolvePhotos(ctx context.Context, rec *model.CampsiteRecord) {
	if e.photos == nil || len(rec.PhotoRefs) == 0 {
		return
	}

	refs := rec.PhotoRefs
	if len(refs) > e.maxPhotos {
		refs = refs[:e.maxPhotos]
	}
	var urls []string
	for _, ref := range refs {
		url, err := e.photos.Resolve(ctx, ref, 800)
		if err != nil {
			zap.L().Debug("photo resolution failed",
				zap.String("name", rec.Name),
				zap.Error(err),
			)
			continue
		}
		urls = append(urls, url)
	}
	if len(urls) > 0 {
		rec.PhotoURLs = urls
		rec.ImageURL = urls[0]
	}
}

// summarizeReviews asks the judge for a review summary and falls back to the
// rule-based analysis on any failure.
func (e *Enricher) summarizeReviews(ctx context.Context, rec *model.CampsiteRecord) {
	analysis, ok := e.judgeReviews(ctx, rec)
	if !ok {
		analysis = ruleBasedReviewAnalysis(rec)
	}
	rec.ReviewSummary = analysis.Summary
	rec.AIRecommendation = analysis.Recommendation
}

func (e *Enricher) judgeReviews(ctx context.Context, rec *model.CampsiteRecord) (reviewAnalysis, bool) {
	if e.ai == nil {
		return reviewAnalysis{}, false
	}

	digest := map[string]any{
		"name":          rec.Name,
		"rating":        rec.Rating,
		"reviews_count": rec.ReviewCount,
		"description":   rec.Description,
		"features":      rec.Features,
		"facilities":    rec.Facilities,
	}
	var reviewTexts []string
	for _, r := range rec.Reviews {
		if r.Text != "" {
			reviewTexts = append(reviewTexts, r.Text)
		}
	}
	digest["reviews"] = reviewTexts

	digestJSON, err := json.Marshal(digest)
	if err != nil {
		return reviewAnalysis{}, false
	}

	prompt := fmt.Sprintf(`以下のキャンプ場の情報と口コミを分析してください。

%s

以下のJSON形式で返してください：
`+"```json"+`
{
  "summary": "口コミの要約",
  "features": ["特徴のリスト"],
  "trends": ["口コミの傾向のリスト"],
  "recommendation": "おすすめポイント"
}
`+"```", digestJSON)

	text, err := askJudge(ctx, e.ai, e.model, e.maxTokens, 0.3, reviewSystemPrompt, prompt)
	if err != nil {
		zap.L().Debug("review judging fell back",
			zap.String("name", rec.Name),
			zap.Error(err),
		)
		return reviewAnalysis{}, false
	}

	var analysis reviewAnalysis
	if err := json.Unmarshal([]byte(cleanJSON(text)), &analysis); err != nil {
		return reviewAnalysis{}, false
	}
	if analysis.Summary == "" {
		return reviewAnalysis{}, false
	}
	return analysis, true
}
