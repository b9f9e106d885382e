package places

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextSearchRequest(t *testing.T) {
	var gotPath, gotKey, gotMask string
	var gotBody textSearchRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("X-Goog-Api-Key")
		gotMask = r.Header.Get("X-Goog-FieldMask")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Write([]byte(`{"places":[{"id":"p1","displayName":{"text":"A"},"rating":4.5,"userRatingCount":120}]}`)) //nolint:errcheck
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	resp, err := c.TextSearch(context.Background(), "長野 キャンプ場", TextSearchOptions{MaxResults: 15})

	require.NoError(t, err)
	assert.Equal(t, "/places:searchText", gotPath)
	assert.Equal(t, "test-key", gotKey)
	assert.Contains(t, gotMask, "places.displayName")
	assert.Contains(t, gotMask, "places.photos")
	assert.Equal(t, "長野 キャンプ場", gotBody.TextQuery)
	assert.Equal(t, "ja", gotBody.LanguageCode)
	assert.Equal(t, "JP", gotBody.RegionCode)
	assert.Equal(t, 15, gotBody.MaxResultCount)

	require.Len(t, resp.Places, 1)
	assert.Equal(t, "A", resp.Places[0].DisplayName.Text)
	assert.Equal(t, 4.5, resp.Places[0].Rating)
}

func TestTextSearchLocationBias(t *testing.T) {
	var gotBody textSearchRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotBody) //nolint:errcheck
		w.Write([]byte(`{}`))                    //nolint:errcheck
	}))
	defer srv.Close()

	c := NewClient("k", WithBaseURL(srv.URL))
	_, err := c.TextSearch(context.Background(), "q", TextSearchOptions{
		Bias:         &LatLng{Latitude: 35.5, Longitude: 138.7},
		RadiusMeters: 20000,
	})

	require.NoError(t, err)
	assert.Equal(t, 20, gotBody.MaxResultCount)
	require.NotNil(t, gotBody.LocationBias)
	assert.Equal(t, 35.5, gotBody.LocationBias.Circle.Center.Latitude)
	assert.Equal(t, 20000.0, gotBody.LocationBias.Circle.Radius)
}

func TestNearbySearchRequest(t *testing.T) {
	var gotPath string
	var gotBody nearbySearchRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotBody) //nolint:errcheck
		w.Write([]byte(`{}`))                    //nolint:errcheck
	}))
	defer srv.Close()

	c := NewClient("k", WithBaseURL(srv.URL))
	_, err := c.NearbySearch(context.Background(), 35.36, 138.73, 30000, "campground")

	require.NoError(t, err)
	assert.Equal(t, "/places:searchNearby", gotPath)
	assert.Equal(t, []string{"campground"}, gotBody.IncludedTypes)
	require.NotNil(t, gotBody.LocationRestriction)
	assert.Equal(t, 35.36, gotBody.LocationRestriction.Circle.Center.Latitude)
	assert.Equal(t, 30000.0, gotBody.LocationRestriction.Circle.Radius)
}

func TestGetDetails(t *testing.T) {
	var gotPath, gotMask string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotMask = r.Header.Get("X-Goog-FieldMask")
		body := `{
			"id":"p1",
			"displayName":{"text":"A"},
			"googleMapsUri":"https://maps/p1",
			"editorialSummary":{"text":"湖畔のキャンプ場"},
			"reviews":[{"rating":5,"text":{"text":"最高"},"publishTime":"2026-07-01T00:00:00Z","authorAttribution":{"displayName":"camper"}}]
		}`
		w.Write([]byte(body)) //nolint:errcheck
	}))
	defer srv.Close()

	c := NewClient("k", WithBaseURL(srv.URL))
	details, err := c.GetDetails(context.Background(), "p1")

	require.NoError(t, err)
	assert.Equal(t, "/places/p1", gotPath)
	assert.Contains(t, gotMask, "googleMapsUri")
	assert.Contains(t, gotMask, "reviews.authorAttribution")
	assert.Equal(t, "https://maps/p1", details.GoogleMapsURI)
	require.NotNil(t, details.EditorialSummary)
	assert.Equal(t, "湖畔のキャンプ場", details.EditorialSummary.Text)
	require.Len(t, details.Reviews, 1)
	assert.Equal(t, "最高", details.Reviews[0].Text.Text)
	assert.Equal(t, "camper", details.Reviews[0].AuthorAttribution.DisplayName)
}

func TestResolvePhotoURL(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`{"name":"places/p1/photos/a","photoUri":"https://img/a.jpg"}`)) //nolint:errcheck
	}))
	defer srv.Close()

	c := NewClient("k", WithBaseURL(srv.URL))
	url, err := c.ResolvePhotoURL(context.Background(), "places/p1/photos/a", 800)

	require.NoError(t, err)
	assert.Equal(t, "https://img/a.jpg", url)
	assert.Contains(t, gotQuery, "maxHeightPx=800")
	assert.Contains(t, gotQuery, "maxWidthPx=800")
	assert.Contains(t, gotQuery, "skipHttpRedirect=true")
}

func TestResolvePhotoURLEmptyURI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"name":"places/p1/photos/a"}`)) //nolint:errcheck
	}))
	defer srv.Close()

	c := NewClient("k", WithBaseURL(srv.URL))
	_, err := c.ResolvePhotoURL(context.Background(), "places/p1/photos/a", 800)

	assert.Error(t, err)
}

func TestAPIErrorOnNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":{"message":"API key invalid"}}`)) //nolint:errcheck
	}))
	defer srv.Close()

	c := NewClient("k", WithBaseURL(srv.URL))
	_, err := c.TextSearch(context.Background(), "q", TextSearchOptions{})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	assert.Equal(t, http.StatusForbidden, apiErr.HTTPStatus())
	assert.Contains(t, apiErr.Body, "API key invalid")
}
