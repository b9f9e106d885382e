package search

import (
	"strings"

	"github.com/sells-group/campsite-cli/internal/model"
	"github.com/sells-group/campsite-cli/pkg/cse"
	"github.com/sells-group/campsite-cli/pkg/places"
)

// NormalizePlace maps one Places API result to the canonical record shape.
// Returns false when the record must be discarded (empty name).
func NormalizePlace(p places.Place, sourceTag string, v *Vocabulary) (model.CampsiteRecord, bool) {
	name := strings.TrimSpace(p.DisplayName.Text)
	if name == "" {
		return model.CampsiteRecord{}, false
	}

	address := p.FormattedAddress
	if address == "" {
		address = p.ShortFormattedAddress
	}

	rec := model.CampsiteRecord{
		PlaceID:         p.ID,
		Name:            name,
		Rating:          p.Rating,
		ReviewCount:     p.UserRatingCount,
		Address:         address,
		Region:          InferRegion(address),
		Website:         p.WebsiteURI,
		Phone:           p.InternationalPhoneNumber,
		SourceTags:      []string{sourceTag},
		OccurrenceCount: 1,
	}

	if p.Location != nil {
		rec.Location = &model.Location{Lat: p.Location.Latitude, Lng: p.Location.Longitude}
	}

	for _, photo := range p.Photos {
		if photo.Name != "" {
			rec.PhotoRefs = append(rec.PhotoRefs, photo.Name)
		}
	}

	// Text search returns no description; tag extraction works off the name
	// until enrichment backfills the editorial summary.
	rec.Features = v.ExtractFeatures(name)
	rec.Facilities = v.ExtractFacilities(name)

	return rec, true
}

// NormalizeWebItem maps one web search result to the canonical record shape.
// Returns false when the record must be discarded (empty name).
func NormalizeWebItem(item cse.Item, sourceTag string, v *Vocabulary) (model.CampsiteRecord, bool) {
	name := cleanWebTitle(item.Title)
	if name == "" {
		return model.CampsiteRecord{}, false
	}

	text := item.Title + " " + item.Snippet
	rec := model.CampsiteRecord{
		Name:            name,
		Description:     strings.TrimSpace(item.Snippet),
		Region:          InferRegion(text),
		Website:         item.Link,
		Features:        v.ExtractFeatures(text),
		Facilities:      v.ExtractFacilities(text),
		SourceTags:      []string{sourceTag},
		OccurrenceCount: 1,
	}

	if url := webImageURL(item); url != "" {
		rec.ImageURL = url
		rec.PhotoURLs = []string{url}
	}

	return rec, true
}

// cleanWebTitle strips site-name suffixes and decorations from a page title.
func cleanWebTitle(title string) string {
	for _, sep := range []string{"|", "｜", " - ", "【"} {
		if i := strings.Index(title, sep); i > 0 {
			title = title[:i]
		}
	}
	return strings.TrimSpace(title)
}

// webImageURL picks the best image candidate from a result's pagemap:
// cse_image, then og:image, then twitter:image, then cse_thumbnail.
func webImageURL(item cse.Item) string {
	pm := item.PageMap
	if pm == nil {
		return ""
	}
	if len(pm.CSEImage) > 0 && pm.CSEImage[0].Src != "" {
		return pm.CSEImage[0].Src
	}
	for _, tags := range pm.MetaTags {
		if src := tags["og:image"]; src != "" {
			return src
		}
		if src := tags["twitter:image"]; src != "" {
			return src
		}
	}
	if len(pm.CSEThumbnail) > 0 && pm.CSEThumbnail[0].Src != "" {
		return pm.CSEThumbnail[0].Src
	}
	return ""
}

// SynthesizeDescription builds a deterministic description for records that
// arrive without one.
func SynthesizeDescription(rec *model.CampsiteRecord, query string) string {
	var b strings.Builder
	b.WriteString(rec.Name)
	b.WriteString("は")
	if rec.Region != "" {
		b.WriteString(rec.Region)
		b.WriteString("にある")
	}
	b.WriteString("キャンプ場です。")

	if len(rec.Features) > 0 {
		b.WriteString("特徴としては")
		b.WriteString(strings.Join(headStrings(rec.Features, 3), "、"))
		b.WriteString("などがあります。")
	}
	if len(rec.Facilities) > 0 {
		b.WriteString("設備には")
		b.WriteString(strings.Join(headStrings(rec.Facilities, 3), "、"))
		b.WriteString("などが整っています。")
	}
	if query != "" && !strings.Contains(query, "キャンプ場") {
		b.WriteString(query)
		b.WriteString("に関連したキャンプ体験ができる場所です。")
	}
	return b.String()
}

func headStrings(list []string, n int) []string {
	if len(list) <= n {
		return list
	}
	return list[:n]
}
