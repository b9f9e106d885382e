package search

import (
	"context"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/campsite-cli/internal/model"
	"github.com/sells-group/campsite-cli/internal/photocache"
	"github.com/sells-group/campsite-cli/pkg/places"
)

func testResolver() *photocache.Resolver {
	upstream := func(ctx context.Context, photoName string, maxDimPx int) (string, error) {
		return "https://img.example.jp/" + photoName, nil
	}
	return photocache.NewResolver(photocache.New(16, time.Minute), nil, upstream)
}

func TestEnrichUpgradesFromDetails(t *testing.T) {
	pc := &mockPlacesClient{}
	pc.On("GetDetails", mock.Anything, "p1").Return(&places.PlaceDetails{
		Place: places.Place{
			WebsiteURI: "https://camp.example.jp",
			Photos: []places.Photo{
				{Name: "places/p1/photos/a"},
				{Name: "places/p1/photos/b"},
				{Name: "places/p1/photos/c"},
			},
		},
		GoogleMapsURI:    "https://maps.example.jp/p1",
		EditorialSummary: &places.LocalizedText{Text: "湖のほとりの静かなキャンプ場。"},
		Reviews: []places.Review{
			{
				Rating:            5,
				Text:              &places.LocalizedText{Text: "最高でした"},
				PublishTime:       "2026-07-01T00:00:00Z",
				AuthorAttribution: &places.AuthorAttribution{DisplayName: "camper"},
			},
		},
	}, nil)

	e := NewEnricher(pc, testResolver(), nil, EnricherOptions{MaxPhotos: 2})
	records := []model.CampsiteRecord{
		{Name: "湖畔キャンプ場", PlaceID: "p1", Rating: 4.6, ReviewCount: 800, OccurrenceCount: 1},
	}

	e.Enrich(context.Background(), records, TargetSet(records))

	rec := records[0]
	assert.Equal(t, "https://maps.example.jp/p1", rec.MapsURI)
	assert.Equal(t, "https://camp.example.jp", rec.Website)
	assert.Equal(t, "湖のほとりの静かなキャンプ場。", rec.Description)
	require.Len(t, rec.Reviews, 1)
	assert.Equal(t, "最高でした", rec.Reviews[0].Text)
	assert.Equal(t, "camper", rec.Reviews[0].Author)
	require.Len(t, rec.PhotoURLs, 2)
	assert.Equal(t, "https://img.example.jp/places/p1/photos/a", rec.PhotoURLs[0])
	assert.Equal(t, rec.PhotoURLs[0], rec.ImageURL)
	assert.NotEmpty(t, rec.ReviewSummary)
	assert.NotEmpty(t, rec.AIRecommendation)
	pc.AssertExpectations(t)
}

func TestEnrichIsolatesFailures(t *testing.T) {
	pc := &mockPlacesClient{}
	pc.On("GetDetails", mock.Anything, "bad").Return(nil, eris.New("quota exceeded"))
	pc.On("GetDetails", mock.Anything, "good").Return(&places.PlaceDetails{
		Place:         places.Place{WebsiteURI: "https://good.example.jp"},
		GoogleMapsURI: "https://maps.example.jp/good",
	}, nil)

	e := NewEnricher(pc, nil, nil, EnricherOptions{Concurrency: 1})
	records := []model.CampsiteRecord{
		{Name: "A", PlaceID: "bad", Rating: 4.0, OccurrenceCount: 1},
		{Name: "B", PlaceID: "good", Rating: 4.0, OccurrenceCount: 1},
	}

	e.Enrich(context.Background(), records, TargetSet(records))

	assert.Empty(t, records[0].Website)
	assert.NotEmpty(t, records[0].ReviewSummary)
	assert.Equal(t, "https://good.example.jp", records[1].Website)
	assert.NotEmpty(t, records[1].ReviewSummary)
}

func TestEnrichSkipsNonTargets(t *testing.T) {
	e := NewEnricher(nil, nil, nil, EnricherOptions{})
	records := []model.CampsiteRecord{
		{Name: "対象", OccurrenceCount: 1},
		{Name: "対象外", OccurrenceCount: 1},
	}
	targets := TargetSet(records[:1])

	e.Enrich(context.Background(), records, targets)

	assert.NotEmpty(t, records[0].ReviewSummary)
	assert.Empty(t, records[1].ReviewSummary)
}

func TestEnrichSynthesizesMissingDescription(t *testing.T) {
	e := NewEnricher(nil, nil, nil, EnricherOptions{})
	records := []model.CampsiteRecord{
		{Name: "星空キャンプ場", Region: "長野県", Features: []string{"湖"}, OccurrenceCount: 1},
	}

	e.Enrich(context.Background(), records, TargetSet(records))

	assert.Contains(t, records[0].Description, "星空キャンプ場は長野県にあるキャンプ場です。")
}

func TestEnrichUsesAIReviewAnalysis(t *testing.T) {
	ai := &mockAnthropicClient{}
	ai.On("CreateMessage", mock.Anything, mock.Anything).Return(textResponse("```json\n"+
		`{"summary":"口コミは好意的です","features":["湖"],"trends":["人気"],"recommendation":"湖好きにおすすめ"}`+
		"\n```"), nil)

	e := NewEnricher(nil, nil, ai, EnricherOptions{Model: "judge-model"})
	records := []model.CampsiteRecord{
		{Name: "A", Rating: 4.2, ReviewCount: 300, OccurrenceCount: 1},
	}

	e.Enrich(context.Background(), records, TargetSet(records))

	assert.Equal(t, "口コミは好意的です", records[0].ReviewSummary)
	assert.Equal(t, "湖好きにおすすめ", records[0].AIRecommendation)
	ai.AssertExpectations(t)
}

func TestEnrichFallsBackWhenJudgeMalformed(t *testing.T) {
	ai := &mockAnthropicClient{}
	ai.On("CreateMessage", mock.Anything, mock.Anything).Return(textResponse("JSONを生成できませんでした"), nil)

	e := NewEnricher(nil, nil, ai, EnricherOptions{Model: "judge-model"})
	records := []model.CampsiteRecord{
		{Name: "A", Rating: 4.2, ReviewCount: 300, OccurrenceCount: 1},
	}

	e.Enrich(context.Background(), records, TargetSet(records))

	assert.Contains(t, records[0].ReviewSummary, "Aは評価が高く")
}

func TestRecordIdentity(t *testing.T) {
	withID := model.CampsiteRecord{Name: "A", PlaceID: "p1"}
	assert.Equal(t, "p1", recordIdentity(&withID))

	noID := model.CampsiteRecord{Name: "キャンプ場ＡＢＣ"}
	other := model.CampsiteRecord{Name: "ｷｬﾝﾌﾟ場abc"}
	assert.Equal(t, recordIdentity(&noID), recordIdentity(&other))
}

func TestTargetSetUnionsGroups(t *testing.T) {
	featured := []model.CampsiteRecord{{Name: "A", PlaceID: "p1"}}
	popular := []model.CampsiteRecord{{Name: "A", PlaceID: "p1"}, {Name: "B"}}

	targets := TargetSet(featured, popular)

	assert.Len(t, targets, 2)
	assert.Contains(t, targets, "p1")
	assert.Contains(t, targets, foldName("B"))
}
