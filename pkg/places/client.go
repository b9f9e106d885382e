// Package places provides a Google Places API (New) client covering text
// search, nearby search, place details, and photo media resolution.
package places

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://places.googleapis.com/v1"

const (
	searchFieldMask = "places.id,places.displayName,places.formattedAddress," +
		"places.shortFormattedAddress,places.location,places.rating," +
		"places.userRatingCount,places.types,places.primaryType,places.photos," +
		"places.businessStatus,places.priceLevel,places.internationalPhoneNumber," +
		"places.websiteUri"
	detailsFieldMask = "id,displayName,formattedAddress,shortFormattedAddress," +
		"location,types,internationalPhoneNumber,rating,userRatingCount," +
		"googleMapsUri,websiteUri,priceLevel,photos,businessStatus," +
		"editorialSummary,reviews.rating,reviews.text,reviews.publishTime," +
		"reviews.authorAttribution"
)

// Client performs Google Places API operations.
type Client interface {
	TextSearch(ctx context.Context, query string, opts TextSearchOptions) (*SearchResponse, error)
	NearbySearch(ctx context.Context, lat, lng float64, radiusMeters float64, includedType string) (*SearchResponse, error)
	GetDetails(ctx context.Context, placeID string) (*PlaceDetails, error)
	ResolvePhotoURL(ctx context.Context, photoName string, maxDimPx int) (string, error)
}

// TextSearchOptions tunes a text search request.
type TextSearchOptions struct {
	// Bias restricts result weighting to a circle when non-nil.
	Bias         *LatLng
	RadiusMeters float64
	MaxResults   int
}

// LatLng is a coordinate pair in the Places wire shape.
type LatLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// SearchResponse is the response from text and nearby search.
type SearchResponse struct {
	Places []Place `json:"places"`
}

// Place is a single search result.
type Place struct {
	ID                       string      `json:"id"`
	DisplayName              DisplayName `json:"displayName"`
	FormattedAddress         string      `json:"formattedAddress"`
	ShortFormattedAddress    string      `json:"shortFormattedAddress"`
	Location                 *LatLng     `json:"location"`
	Rating                   float64     `json:"rating"`
	UserRatingCount          int         `json:"userRatingCount"`
	Types                    []string    `json:"types"`
	PrimaryType              string      `json:"primaryType"`
	Photos                   []Photo     `json:"photos"`
	BusinessStatus           string      `json:"businessStatus"`
	PriceLevel               string      `json:"priceLevel"`
	InternationalPhoneNumber string      `json:"internationalPhoneNumber"`
	WebsiteURI               string      `json:"websiteUri"`
}

// DisplayName holds the place's localized display name.
type DisplayName struct {
	Text string `json:"text"`
}

// Photo references a photo resource; Name is the opaque media handle.
type Photo struct {
	Name string `json:"name"`
}

// PlaceDetails is the response from a details lookup.
type PlaceDetails struct {
	Place
	GoogleMapsURI    string         `json:"googleMapsUri"`
	EditorialSummary *LocalizedText `json:"editorialSummary"`
	Reviews          []Review       `json:"reviews"`
}

// LocalizedText is the API's localized text wrapper.
type LocalizedText struct {
	Text string `json:"text"`
}

// Review is a user review attached to place details.
type Review struct {
	Rating            float64            `json:"rating"`
	Text              *LocalizedText     `json:"text"`
	PublishTime       string             `json:"publishTime"`
	AuthorAttribution *AuthorAttribution `json:"authorAttribution"`
}

// AuthorAttribution identifies a review author.
type AuthorAttribution struct {
	DisplayName string `json:"displayName"`
}

// APIError is a non-200 response from the Places API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("places: unexpected status %d: %s", e.StatusCode, e.Body)
}

// HTTPStatus returns the response status code.
func (e *APIError) HTTPStatus() int {
	return e.StatusCode
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit sets the requests-per-second limit for all API calls.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), int(rps))
	}
}

// WithLocale overrides the default language and region codes (ja / JP).
func WithLocale(language, region string) Option {
	return func(c *httpClient) {
		c.language = language
		c.region = region
	}
}

type httpClient struct {
	apiKey   string
	baseURL  string
	language string
	region   string
	http     *http.Client
	limiter  *rate.Limiter
}

// NewClient creates a Places API client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:   apiKey,
		baseURL:  defaultBaseURL,
		language: "ja",
		region:   "JP",
		http: &http.Client{
			Timeout: 15 * time.Second,
		},
		limiter: rate.NewLimiter(10, 10),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type textSearchRequest struct {
	TextQuery      string        `json:"textQuery"`
	LanguageCode   string        `json:"languageCode"`
	RegionCode     string        `json:"regionCode"`
	MaxResultCount int           `json:"maxResultCount,omitempty"`
	LocationBias   *circleRegion `json:"locationBias,omitempty"`
}

type nearbySearchRequest struct {
	LanguageCode        string        `json:"languageCode"`
	RegionCode          string        `json:"regionCode"`
	MaxResultCount      int           `json:"maxResultCount,omitempty"`
	IncludedTypes       []string      `json:"includedTypes,omitempty"`
	LocationRestriction *circleRegion `json:"locationRestriction,omitempty"`
}

type circleRegion struct {
	Circle circle `json:"circle"`
}

type circle struct {
	Center LatLng  `json:"center"`
	Radius float64 `json:"radius"`
}

func (c *httpClient) TextSearch(ctx context.Context, query string, opts TextSearchOptions) (*SearchResponse, error) {
	req := textSearchRequest{
		TextQuery:      query,
		LanguageCode:   c.language,
		RegionCode:     c.region,
		MaxResultCount: opts.MaxResults,
	}
	if req.MaxResultCount == 0 {
		req.MaxResultCount = 20
	}
	if opts.Bias != nil {
		req.LocationBias = &circleRegion{Circle: circle{Center: *opts.Bias, Radius: opts.RadiusMeters}}
	}

	var result SearchResponse
	if err := c.post(ctx, "/places:searchText", searchFieldMask, req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *httpClient) NearbySearch(ctx context.Context, lat, lng float64, radiusMeters float64, includedType string) (*SearchResponse, error) {
	req := nearbySearchRequest{
		LanguageCode:   c.language,
		RegionCode:     c.region,
		MaxResultCount: 20,
		LocationRestriction: &circleRegion{
			Circle: circle{Center: LatLng{Latitude: lat, Longitude: lng}, Radius: radiusMeters},
		},
	}
	if includedType != "" {
		req.IncludedTypes = []string{includedType}
	}

	var result SearchResponse
	if err := c.post(ctx, "/places:searchNearby", searchFieldMask, req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *httpClient) GetDetails(ctx context.Context, placeID string) (*PlaceDetails, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	u := fmt.Sprintf("%s/places/%s?languageCode=%s&regionCode=%s",
		c.baseURL, url.PathEscape(placeID), c.language, c.region)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, eris.Wrap(err, "places: create details request")
	}
	req.Header.Set("X-Goog-Api-Key", c.apiKey)
	req.Header.Set("X-Goog-FieldMask", detailsFieldMask)

	var result PlaceDetails
	if err := c.do(req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// photoMediaResponse is returned when skipHttpRedirect is set.
type photoMediaResponse struct {
	Name     string `json:"name"`
	PhotoURI string `json:"photoUri"`
}

func (c *httpClient) ResolvePhotoURL(ctx context.Context, photoName string, maxDimPx int) (string, error) {
	if err := c.wait(ctx); err != nil {
		return "", err
	}
	if maxDimPx <= 0 {
		maxDimPx = 800
	}

	u := fmt.Sprintf("%s/%s/media?maxHeightPx=%d&maxWidthPx=%d&skipHttpRedirect=true",
		c.baseURL, photoName, maxDimPx, maxDimPx)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", eris.Wrap(err, "places: create photo request")
	}
	req.Header.Set("X-Goog-Api-Key", c.apiKey)

	var result photoMediaResponse
	if err := c.do(req, &result); err != nil {
		return "", err
	}
	if result.PhotoURI == "" {
		return "", eris.Errorf("places: empty photo uri for %s", photoName)
	}
	return result.PhotoURI, nil
}

func (c *httpClient) post(ctx context.Context, path, fieldMask string, body, out any) error {
	if err := c.wait(ctx); err != nil {
		return err
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return eris.Wrap(err, "places: marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return eris.Wrap(err, "places: create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Api-Key", c.apiKey)
	req.Header.Set("X-Goog-FieldMask", fieldMask)

	return c.do(req, out)
}

func (c *httpClient) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "places: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "places: read response")
	}

	if resp.StatusCode != http.StatusOK {
		return &APIError{StatusCode: resp.StatusCode, Body: truncate(string(respBody), 500)}
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return eris.Wrap(err, "places: unmarshal response")
	}
	return nil
}

func (c *httpClient) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return eris.Wrap(err, "places: rate limiter wait")
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
