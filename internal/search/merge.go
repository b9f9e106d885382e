package search

import (
	"strings"

	"golang.org/x/text/width"

	"github.com/sells-group/campsite-cli/internal/model"
)

// Merge folds record lists from multiple providers into one deduplicated
// list. Identity is the place ID when both sides carry one, otherwise the
// folded name. First-seen order is preserved; the scorer sorts later.
func Merge(lists ...[]model.CampsiteRecord) []model.CampsiteRecord {
	var out []model.CampsiteRecord
	byID := make(map[string]int)
	byName := make(map[string]int)

	for _, list := range lists {
		for _, rec := range list {
			idx, found := -1, false
			if rec.PlaceID != "" {
				idx, found = lookup(byID, rec.PlaceID)
			}
			if !found {
				idx, found = lookup(byName, foldName(rec.Name))
			}

			if found {
				fold(&out[idx], rec)
				if rec.PlaceID != "" {
					byID[rec.PlaceID] = idx
				}
				continue
			}

			out = append(out, rec)
			idx = len(out) - 1
			if rec.PlaceID != "" {
				byID[rec.PlaceID] = idx
			}
			byName[foldName(rec.Name)] = idx
		}
	}

	return out
}

func lookup(m map[string]int, key string) (int, bool) {
	idx, ok := m[key]
	if !ok {
		return -1, false
	}
	return idx, true
}

// foldName normalizes a campsite name for identity comparison: full/half
// width folded, case folded, whitespace collapsed. Listings frequently carry
// the same name in ｶﾀｶﾅ and カタカナ variants across sources.
func foldName(name string) string {
	folded := width.Fold.String(name)
	folded = strings.ToLower(folded)
	return strings.Join(strings.Fields(folded), " ")
}

// fold merges src into dst: union tag sets, prefer non-empty scalars, prefer
// the longer description, count the occurrence.
func fold(dst *model.CampsiteRecord, src model.CampsiteRecord) {
	dst.OccurrenceCount += src.OccurrenceCount
	for _, tag := range src.SourceTags {
		dst.AddSource(tag)
	}

	dst.Facilities = model.UnionTags(dst.Facilities, src.Facilities)
	dst.Features = model.UnionTags(dst.Features, src.Features)

	if dst.PlaceID == "" {
		dst.PlaceID = src.PlaceID
	}
	if dst.Location == nil {
		dst.Location = src.Location
	}
	if dst.Rating == 0 {
		dst.Rating = src.Rating
	}
	if dst.ReviewCount == 0 {
		dst.ReviewCount = src.ReviewCount
	}
	if dst.Address == "" {
		dst.Address = src.Address
	}
	if dst.Region == "" {
		dst.Region = src.Region
	}
	if dst.Website == "" {
		dst.Website = src.Website
	}
	if dst.Phone == "" {
		dst.Phone = src.Phone
	}
	if dst.MapsURI == "" {
		dst.MapsURI = src.MapsURI
	}
	if dst.ImageURL == "" {
		dst.ImageURL = src.ImageURL
	}
	if len(src.Description) > len(dst.Description) {
		dst.Description = src.Description
	}
	if len(dst.PhotoRefs) == 0 {
		dst.PhotoRefs = src.PhotoRefs
	}
	if len(dst.PhotoURLs) == 0 {
		dst.PhotoURLs = src.PhotoURLs
	}
	if len(dst.Reviews) == 0 {
		dst.Reviews = src.Reviews
	}
}
