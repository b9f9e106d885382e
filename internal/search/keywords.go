package search

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// prefectures lists the 47 Japanese prefectures used for region inference
// from address text. Scan order matters: first match wins.
var prefectures = []string{
	"北海道", "青森県", "岩手県", "宮城県", "秋田県", "山形県", "福島県",
	"茨城県", "栃木県", "群馬県", "埼玉県", "千葉県", "東京都", "神奈川県",
	"新潟県", "富山県", "石川県", "福井県", "山梨県", "長野県", "岐阜県",
	"静岡県", "愛知県", "三重県", "滋賀県", "京都府", "大阪府", "兵庫県",
	"奈良県", "和歌山県", "鳥取県", "島根県", "岡山県", "広島県", "山口県",
	"徳島県", "香川県", "愛媛県", "高知県", "福岡県", "佐賀県", "長崎県",
	"熊本県", "大分県", "宮崎県", "鹿児島県", "沖縄県",
}

// Vocabulary holds the keyword lists that drive the deterministic intent
// fallback and the facility/feature extraction from free text.
type Vocabulary struct {
	// Locations are prefecture short names plus landmark names recognized in
	// queries. First hit becomes the location hint.
	Locations []string `yaml:"locations"`

	// QueryFeatures and QueryFacilities are matched against the raw query.
	QueryFeatures   []string `yaml:"query_features"`
	QueryFacilities []string `yaml:"query_facilities"`

	// TextFeatures and TextFacilities are matched against descriptions and
	// snippets when a record arrives without tags.
	TextFeatures   []string `yaml:"text_features"`
	TextFacilities []string `yaml:"text_facilities"`
}

// DefaultVocabulary returns the built-in keyword lists.
func DefaultVocabulary() *Vocabulary {
	return &Vocabulary{
		Locations: []string{
			"北海道", "青森", "岩手", "宮城", "秋田", "山形", "福島",
			"茨城", "栃木", "群馬", "埼玉", "千葉", "東京", "神奈川",
			"新潟", "富山", "石川", "福井", "山梨", "長野", "岐阜",
			"静岡", "愛知", "三重", "滋賀", "京都", "大阪", "兵庫",
			"奈良", "和歌山", "鳥取", "島根", "岡山", "広島", "山口",
			"徳島", "香川", "愛媛", "高知", "福岡", "佐賀", "長崎",
			"熊本", "大分", "宮崎", "鹿児島", "沖縄",
			"富士山", "八ヶ岳", "日本アルプス", "尾瀬", "軽井沢",
		},
		QueryFeatures: []string{
			"景色", "眺め", "見える", "静か", "人気", "穴場",
			"子供", "ファミリー", "カップル", "初心者", "ソロ", "ソロキャンプ",
			"グループ", "川遊び", "海", "山", "湖", "森",
		},
		QueryFacilities: []string{
			"トイレ", "シャワー", "温泉", "風呂", "電源", "Wi-Fi",
			"炊事場", "売店", "ドッグラン", "遊具", "バーベキュー",
		},
		TextFeatures: []string{
			"オートキャンプ", "グランピング", "コテージ", "バンガロー",
			"テントサイト", "フリーサイト", "区画サイト", "ペット",
			"釣り", "川遊び", "海水浴", "富士山", "山", "湖", "海", "川", "森",
			"高規格", "手ぶら", "初心者向け", "ファミリー",
		},
		TextFacilities: []string{
			"トイレ", "シャワー", "炊事場", "売店", "レンタル", "電源",
			"Wi-Fi", "温泉", "コインランドリー", "ドッグラン", "遊具",
			"バーベキュー", "BBQ", "焚き火",
		},
	}
}

// LoadVocabulary reads a YAML override file. Lists present in the file
// replace the built-in ones; absent lists keep the defaults.
func LoadVocabulary(path string) (*Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "keywords: read %s", path)
	}

	var override Vocabulary
	if err := yaml.Unmarshal(data, &override); err != nil {
		return nil, eris.Wrapf(err, "keywords: parse %s", path)
	}

	v := DefaultVocabulary()
	if len(override.Locations) > 0 {
		v.Locations = override.Locations
	}
	if len(override.QueryFeatures) > 0 {
		v.QueryFeatures = override.QueryFeatures
	}
	if len(override.QueryFacilities) > 0 {
		v.QueryFacilities = override.QueryFacilities
	}
	if len(override.TextFeatures) > 0 {
		v.TextFeatures = override.TextFeatures
	}
	if len(override.TextFacilities) > 0 {
		v.TextFacilities = override.TextFacilities
	}
	return v, nil
}

// InferRegion returns the first prefecture whose name appears in the text,
// or "" when none matches.
func InferRegion(text string) string {
	for _, pref := range prefectures {
		if strings.Contains(text, pref) {
			return pref
		}
	}
	return ""
}

// ExtractFeatures returns vocabulary feature terms found as substrings of
// text, in vocabulary order.
func (v *Vocabulary) ExtractFeatures(text string) []string {
	return scanTerms(text, v.TextFeatures)
}

// ExtractFacilities returns vocabulary facility terms found as substrings of
// text, in vocabulary order.
func (v *Vocabulary) ExtractFacilities(text string) []string {
	return scanTerms(text, v.TextFacilities)
}

func scanTerms(text string, terms []string) []string {
	if text == "" {
		return nil
	}
	var out []string
	for _, t := range terms {
		if strings.Contains(text, t) {
			out = append(out, t)
		}
	}
	return out
}
