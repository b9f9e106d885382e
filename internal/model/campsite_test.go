package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasFacilityAndFeature(t *testing.T) {
	r := CampsiteRecord{
		Facilities: []string{"温泉", "Wi-Fi"},
		Features:   []string{"湖"},
	}

	assert.True(t, r.HasFacility("温泉"))
	assert.True(t, r.HasFacility("wi-fi"))
	assert.False(t, r.HasFacility("売店"))
	assert.True(t, r.HasFeature("湖"))
	assert.False(t, r.HasFeature("森"))
}

func TestAddSourceDeduplicates(t *testing.T) {
	r := CampsiteRecord{}

	r.AddSource("places")
	r.AddSource("places")
	r.AddSource("web")
	r.AddSource("")

	assert.Equal(t, []string{"places", "web"}, r.SourceTags)
	assert.True(t, r.HasSource("places"))
	assert.False(t, r.HasSource("cse"))
}

func TestUnionTags(t *testing.T) {
	got := UnionTags([]string{"トイレ", "シャワー"}, []string{"シャワー", "温泉", "", "toire"})
	assert.Equal(t, []string{"トイレ", "シャワー", "温泉", "toire"}, got)

	assert.Equal(t, []string{"a"}, UnionTags(nil, []string{"a", "A"}))
}
