package search

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultVocabularyCoversPrefectures(t *testing.T) {
	v := DefaultVocabulary()

	// 47 prefecture short names plus the landmark entries.
	assert.Len(t, v.Locations, 52)
	assert.Contains(t, v.Locations, "北海道")
	assert.Contains(t, v.Locations, "沖縄")
	assert.Contains(t, v.Locations, "富士山")
	assert.Contains(t, v.Locations, "軽井沢")
}

func TestExtractTagsFromText(t *testing.T) {
	v := DefaultVocabulary()
	text := "湖畔のオートキャンプ場。温泉とドッグランあり、ペット同伴可。"

	features := v.ExtractFeatures(text)
	assert.Contains(t, features, "オートキャンプ")
	assert.Contains(t, features, "湖")
	assert.Contains(t, features, "ペット")

	facilities := v.ExtractFacilities(text)
	assert.Contains(t, facilities, "温泉")
	assert.Contains(t, facilities, "ドッグラン")

	assert.Nil(t, v.ExtractFeatures(""))
}

func TestLoadVocabularyOverridesPresentLists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vocab.yaml")
	require.NoError(t, os.WriteFile(path, []byte("locations:\n  - 奥多摩\n  - 秩父\n"), 0o644))

	v, err := LoadVocabulary(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"奥多摩", "秩父"}, v.Locations)
	// Absent lists keep the defaults.
	assert.Equal(t, DefaultVocabulary().QueryFeatures, v.QueryFeatures)
}

func TestLoadVocabularyMissingFile(t *testing.T) {
	_, err := LoadVocabulary(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadVocabularyBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vocab.yaml")
	require.NoError(t, os.WriteFile(path, []byte("locations: [unclosed"), 0o644))

	_, err := LoadVocabulary(path)
	assert.Error(t, err)
}
