// Package model defines the canonical data shapes shared across the search pipeline.
package model

import "strings"

// Location is a WGS84 coordinate pair. Both fields are always set together;
// a record with an unusable pair carries a nil *Location instead.
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Review is a single user review harvested from the places provider.
type Review struct {
	Rating      float64 `json:"rating"`
	Text        string  `json:"text"`
	PublishTime string  `json:"publish_time,omitempty"`
	Author      string  `json:"author,omitempty"`
}

// CampsiteRecord is the canonical unit of search output. Records are created
// by the normalizer, folded together by the merger, annotated by the scorer,
// and enriched in place by the enrichment orchestrator.
type CampsiteRecord struct {
	PlaceID     string    `json:"place_id,omitempty"`
	Name        string    `json:"name"`
	Location    *Location `json:"location,omitempty"`
	Rating      float64   `json:"rating"`
	ReviewCount int       `json:"review_count"`
	Address     string    `json:"address,omitempty"`
	Region      string    `json:"region,omitempty"`
	Description string    `json:"description,omitempty"`
	Website     string    `json:"website,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	MapsURI     string    `json:"maps_uri,omitempty"`

	Facilities []string `json:"facilities,omitempty"`
	Features   []string `json:"features,omitempty"`

	// PhotoRefs holds opaque provider photo handles; PhotoURLs holds resolved
	// URLs, populated only during enrichment.
	PhotoRefs []string `json:"photo_refs,omitempty"`
	PhotoURLs []string `json:"photo_urls,omitempty"`
	ImageURL  string   `json:"image_url,omitempty"`

	Reviews []Review `json:"reviews,omitempty"`

	// SourceTags lists every provider that contributed to this record.
	// OccurrenceCount equals the number of raw provider records folded in.
	SourceTags      []string `json:"source_tags"`
	OccurrenceCount int      `json:"occurrence_count"`

	// Score is the deterministic intent-overlap score. AIMatchScore is the
	// judge's 0-10 verdict (zero when the head batch was not judged).
	// CombinedScore = Score + AIMatchScore/10.
	Score         float64 `json:"score"`
	AIMatchScore  float64 `json:"ai_match_score,omitempty"`
	CombinedScore float64 `json:"combined_score"`

	RecommendationReason string `json:"recommendation_reason,omitempty"`
	MismatchReason       string `json:"mismatch_reason,omitempty"`

	// Enrichment output, populated only for featured/popular records.
	ReviewSummary    string `json:"review_summary,omitempty"`
	AIRecommendation string `json:"ai_recommendation,omitempty"`
}

// HasFacility reports whether the record carries the given facility tag.
func (r *CampsiteRecord) HasFacility(tag string) bool {
	return containsFold(r.Facilities, tag)
}

// HasFeature reports whether the record carries the given feature tag.
func (r *CampsiteRecord) HasFeature(tag string) bool {
	return containsFold(r.Features, tag)
}

// HasSource reports whether the given provider contributed to this record.
func (r *CampsiteRecord) HasSource(tag string) bool {
	for _, s := range r.SourceTags {
		if s == tag {
			return true
		}
	}
	return false
}

// AddSource appends a provider tag if not already present.
func (r *CampsiteRecord) AddSource(tag string) {
	if tag != "" && !r.HasSource(tag) {
		r.SourceTags = append(r.SourceTags, tag)
	}
}

// UnionTags merges src into dst preserving dst order, skipping duplicates
// case-insensitively. Facility and feature lists are sets by contract;
// insertion order is kept only for stable output.
func UnionTags(dst, src []string) []string {
	for _, s := range src {
		if s != "" && !containsFold(dst, s) {
			dst = append(dst, s)
		}
	}
	return dst
}

func containsFold(list []string, want string) bool {
	for _, s := range list {
		if strings.EqualFold(s, want) {
			return true
		}
	}
	return false
}
