// Package search implements the campsite search pipeline: provider adapters,
// normalization, merging, intent analysis, scoring, enrichment, and the
// coordinator that sequences them.
package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/campsite-cli/internal/model"
	"github.com/sells-group/campsite-cli/internal/resilience"
	"github.com/sells-group/campsite-cli/pkg/cse"
	"github.com/sells-group/campsite-cli/pkg/places"
)

// ErrorKind categorizes a provider failure for user-facing reporting.
type ErrorKind int

const (
	ErrUnknown ErrorKind = iota
	ErrRateLimited
	ErrAuthFailed
	ErrUnavailable
	ErrMalformed
)

func (k ErrorKind) String() string {
	switch k {
	case ErrRateLimited:
		return "rate_limited"
	case ErrAuthFailed:
		return "auth_failed"
	case ErrUnavailable:
		return "unavailable"
	case ErrMalformed:
		return "malformed_response"
	default:
		return "unknown"
	}
}

// ProviderError is the only error type adapters return. The pipeline treats
// every kind as non-fatal: the provider contributes zero records.
type ProviderError struct {
	Provider string
	Kind     ErrorKind
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s provider %s: %v", e.Provider, e.Kind, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// wrapProviderError classifies err into a ProviderError for the named
// provider.
func wrapProviderError(provider string, err error) *ProviderError {
	kind := ErrUnknown

	var sc interface{ HTTPStatus() int }
	switch {
	case errors.As(err, &sc):
		switch code := sc.HTTPStatus(); {
		case code == 401 || code == 403:
			kind = ErrAuthFailed
		case code == 429:
			kind = ErrRateLimited
		case code >= 500:
			kind = ErrUnavailable
		}
	case errors.Is(err, context.DeadlineExceeded):
		kind = ErrUnavailable
	case resilience.Retryable(err):
		kind = ErrUnavailable
	}

	return &ProviderError{Provider: provider, Kind: kind, Err: err}
}

// Provider is one external search source. Search returns normalized records;
// any failure comes back as a *ProviderError and never a panic.
type Provider interface {
	Name() string
	Search(ctx context.Context, intent model.QueryIntent) ([]model.CampsiteRecord, error)
}

// PlacesProvider adapts the Places API. It runs a text search on the
// structured query and, when the intent carries a resolvable location hint,
// folds in a nearby campground search around it.
type PlacesProvider struct {
	client  places.Client
	vocab   *Vocabulary
	retry   resilience.Policy
	timeout time.Duration
	radius  float64
	max     int
}

// NewPlacesProvider builds the places adapter.
func NewPlacesProvider(client places.Client, vocab *Vocabulary, retry resilience.Policy, timeout time.Duration, radiusMeters float64, maxResults int) *PlacesProvider {
	if vocab == nil {
		vocab = DefaultVocabulary()
	}
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	if radiusMeters <= 0 {
		radiusMeters = 30000
	}
	if maxResults <= 0 {
		maxResults = 20
	}
	return &PlacesProvider{
		client:  client,
		vocab:   vocab,
		retry:   retry,
		timeout: timeout,
		radius:  radiusMeters,
		max:     maxResults,
	}
}

func (p *PlacesProvider) Name() string { return "places" }

func (p *PlacesProvider) Search(ctx context.Context, intent model.QueryIntent) ([]model.CampsiteRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	policy := p.retry
	policy.OnRetry = resilience.RetryLogger(p.Name(), "text_search")

	resp, err := resilience.DoVal(ctx, policy, func(ctx context.Context) (*places.SearchResponse, error) {
		return p.client.TextSearch(ctx, intent.StructuredQuery, places.TextSearchOptions{MaxResults: p.max})
	})
	if err != nil {
		return nil, wrapProviderError(p.Name(), err)
	}

	records := make([]model.CampsiteRecord, 0, len(resp.Places))
	for _, pl := range resp.Places {
		if rec, ok := NormalizePlace(pl, p.Name(), p.vocab); ok {
			records = append(records, rec)
		}
	}

	// The nearby pass is additive best-effort; its failure never fails the
	// text search results already in hand.
	if intent.LocationHint != "" {
		if nearby := p.searchNearby(ctx, intent.LocationHint); len(nearby) > 0 {
			records = append(records, nearby...)
		}
	}

	return records, nil
}

// searchNearby resolves the location hint to coordinates with a text search,
// then searches for campgrounds around that point.
func (p *PlacesProvider) searchNearby(ctx context.Context, hint string) []model.CampsiteRecord {
	resp, err := p.client.TextSearch(ctx, hint, places.TextSearchOptions{MaxResults: 1})
	if err != nil || len(resp.Places) == 0 || resp.Places[0].Location == nil {
		zap.L().Debug("location hint did not resolve", zap.String("hint", hint), zap.Error(err))
		return nil
	}
	center := resp.Places[0].Location

	nearby, err := p.client.NearbySearch(ctx, center.Latitude, center.Longitude, p.radius, "campground")
	if err != nil {
		zap.L().Debug("nearby search failed", zap.String("hint", hint), zap.Error(err))
		return nil
	}

	records := make([]model.CampsiteRecord, 0, len(nearby.Places))
	for _, pl := range nearby.Places {
		if rec, ok := NormalizePlace(pl, p.Name(), p.vocab); ok {
			records = append(records, rec)
		}
	}
	return records
}

// WebProvider adapts the Custom Search API for backfill when the places
// provider comes up short.
type WebProvider struct {
	client  cse.Client
	vocab   *Vocabulary
	retry   resilience.Policy
	timeout time.Duration
	max     int
}

// NewWebProvider builds the web search adapter.
func NewWebProvider(client cse.Client, vocab *Vocabulary, retry resilience.Policy, timeout time.Duration, maxResults int) *WebProvider {
	if vocab == nil {
		vocab = DefaultVocabulary()
	}
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	if maxResults <= 0 || maxResults > 10 {
		maxResults = 10
	}
	return &WebProvider{
		client:  client,
		vocab:   vocab,
		retry:   retry,
		timeout: timeout,
		max:     maxResults,
	}
}

func (p *WebProvider) Name() string { return "web" }

func (p *WebProvider) Search(ctx context.Context, intent model.QueryIntent) ([]model.CampsiteRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	policy := p.retry
	policy.OnRetry = resilience.RetryLogger(p.Name(), "search")

	resp, err := resilience.DoVal(ctx, policy, func(ctx context.Context) (*cse.SearchResponse, error) {
		return p.client.Search(ctx, intent.StructuredQuery, p.max)
	})
	if err != nil {
		return nil, wrapProviderError(p.Name(), err)
	}

	records := make([]model.CampsiteRecord, 0, len(resp.Items))
	for _, item := range resp.Items {
		if rec, ok := NormalizeWebItem(item, p.Name(), p.vocab); ok {
			records = append(records, rec)
		}
	}
	return records, nil
}
