package search

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/campsite-cli/internal/model"
	"github.com/sells-group/campsite-cli/pkg/anthropic"
	"github.com/sells-group/campsite-cli/pkg/places"
)

// --- Anthropic mock ---

type mockAnthropicClient struct {
	mock.Mock
}

func (m *mockAnthropicClient) CreateMessage(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*anthropic.MessageResponse), args.Error(1)
}

// textResponse wraps plain text in a message response.
func textResponse(text string) *anthropic.MessageResponse {
	return &anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "text", Text: text}},
	}
}

// --- Places mock ---

type mockPlacesClient struct {
	mock.Mock
}

func (m *mockPlacesClient) TextSearch(ctx context.Context, query string, opts places.TextSearchOptions) (*places.SearchResponse, error) {
	args := m.Called(ctx, query, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*places.SearchResponse), args.Error(1)
}

func (m *mockPlacesClient) NearbySearch(ctx context.Context, lat, lng float64, radiusMeters float64, includedType string) (*places.SearchResponse, error) {
	args := m.Called(ctx, lat, lng, radiusMeters, includedType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*places.SearchResponse), args.Error(1)
}

func (m *mockPlacesClient) GetDetails(ctx context.Context, placeID string) (*places.PlaceDetails, error) {
	args := m.Called(ctx, placeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*places.PlaceDetails), args.Error(1)
}

func (m *mockPlacesClient) ResolvePhotoURL(ctx context.Context, photoName string, maxDimPx int) (string, error) {
	args := m.Called(ctx, photoName, maxDimPx)
	return args.String(0), args.Error(1)
}

// --- Provider stub ---

type stubProvider struct {
	name    string
	records []model.CampsiteRecord
	err     error
	calls   int
}

func (p *stubProvider) Name() string { return p.name }

func (p *stubProvider) Search(ctx context.Context, intent model.QueryIntent) ([]model.CampsiteRecord, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return p.records, nil
}
