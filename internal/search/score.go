package search

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/campsite-cli/internal/model"
	"github.com/sells-group/campsite-cli/pkg/anthropic"
)

const judgeSystemPrompt = `あなたはキャンプ場検索の専門家です。ユーザーの検索意図と検索結果を評価し、
ユーザーの意図に最も合致するキャンプ場をランク付けしてください。`

// Scorer ranks records against the query intent: a deterministic overlap
// score for every record, then one batched AI judgment of the head subset.
type Scorer struct {
	ai        anthropic.Client // nil disables the AI pass
	model     string
	maxTokens int64
	headSize  int
}

// NewScorer builds a relevance scorer. ai may be nil for deterministic-only
// scoring.
func NewScorer(ai anthropic.Client, modelName string, maxTokens int64, headSize int) *Scorer {
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	if headSize <= 0 {
		headSize = 5
	}
	return &Scorer{ai: ai, model: modelName, maxTokens: maxTokens, headSize: headSize}
}

// Score annotates every record with a deterministic score, judges the head
// subset, and returns the list re-ordered by descending combined score. The
// tail beyond the head keeps its relative order and is appended unchanged.
func (s *Scorer) Score(ctx context.Context, intent model.QueryIntent, records []model.CampsiteRecord) []model.CampsiteRecord {
	for i := range records {
		records[i].Score = DeterministicScore(intent, &records[i])
		records[i].CombinedScore = records[i].Score
	}

	head := records
	var tail []model.CampsiteRecord
	if len(records) > s.headSize {
		head = records[:s.headSize]
		tail = records[s.headSize:]
	}

	if s.ai != nil && len(head) > 0 {
		if err := s.judgeHead(ctx, intent, head); err != nil {
			zap.L().Warn("relevance judging skipped", zap.Error(err))
		}
	}

	sort.SliceStable(head, func(i, j int) bool {
		return head[i].CombinedScore > head[j].CombinedScore
	})

	return append(head, tail...)
}

// DeterministicScore measures intent overlap. Each category contributes its
// matched fraction scaled by the category weight (0-10 mapped onto 0-1), and
// records seen by multiple providers gain a small popularity boost.
func DeterministicScore(intent model.QueryIntent, rec *model.CampsiteRecord) float64 {
	var score float64

	if intent.LocationHint != "" && matchesLocation(rec, intent.LocationHint) {
		score += float64(intent.Priorities.Location) / 10
	}
	if len(intent.Features) > 0 {
		frac := matchedFraction(intent.Features, rec.Features, rec.Description)
		score += frac * float64(intent.Priorities.Features) / 10
	}
	if len(intent.Facilities) > 0 {
		frac := matchedFraction(intent.Facilities, rec.Facilities, rec.Description)
		score += frac * float64(intent.Priorities.Facilities) / 10
	}
	if rec.OccurrenceCount > 1 {
		score += 0.05 * float64(rec.OccurrenceCount-1)
	}

	return score
}

func matchesLocation(rec *model.CampsiteRecord, hint string) bool {
	return strings.Contains(rec.Region, hint) ||
		strings.Contains(rec.Address, hint) ||
		strings.Contains(rec.Name, hint)
}

func matchedFraction(desired, tags []string, description string) float64 {
	hits := 0
	for _, want := range desired {
		matched := false
		for _, have := range tags {
			if strings.Contains(have, want) || strings.Contains(want, have) {
				matched = true
				break
			}
		}
		if !matched && description != "" && strings.Contains(description, want) {
			matched = true
		}
		if matched {
			hits++
		}
	}
	return float64(hits) / float64(len(desired))
}

// judgeVerdict is one element of the judge's response array.
type judgeVerdict struct {
	Index                int     `json:"index"`
	MatchScore           float64 `json:"match_score"`
	RecommendationReason string  `json:"recommendation_reason"`
	MismatchReason       string  `json:"mismatch_reason"`
}

// judgeHead submits the head records and intent in one call and folds the
// verdicts back into the records.
func (s *Scorer) judgeHead(ctx context.Context, intent model.QueryIntent, head []model.CampsiteRecord) error {
	summaries := make([]map[string]any, len(head))
	for i, rec := range head {
		summaries[i] = map[string]any{
			"name":        rec.Name,
			"description": rec.Description,
			"features":    rec.Features,
			"facilities":  rec.Facilities,
			"region":      rec.Region,
			"rating":      rec.Rating,
		}
	}
	summariesJSON, err := json.Marshal(summaries)
	if err != nil {
		return err
	}
	intentJSON, err := json.Marshal(intent)
	if err != nil {
		return err
	}

	prompt := fmt.Sprintf(`以下のユーザーの検索意図と検索結果を評価してください。

検索意図:
%s

検索結果のキャンプ場:
%s

各キャンプ場について、検索意図との合致度（0-10）、推薦理由、合致しない場合の理由を評価し、
以下のJSON形式で返してください：
`+"```json"+`
[
  {
    "index": 0,
    "match_score": 8,
    "recommendation_reason": "このキャンプ場をおすすめする理由",
    "mismatch_reason": "意図に合致しない点（あれば）"
  }
]
`+"```"+`

インデックスは元の検索結果の順序（0から始まる）を示します。`, intentJSON, summariesJSON)

	text, err := askJudge(ctx, s.ai, s.model, s.maxTokens, 0.2, judgeSystemPrompt, prompt)
	if err != nil {
		return err
	}

	var verdicts []judgeVerdict
	if err := json.Unmarshal([]byte(cleanJSON(text)), &verdicts); err != nil {
		return err
	}

	for _, v := range verdicts {
		if v.Index < 0 || v.Index >= len(head) {
			continue
		}
		rec := &head[v.Index]
		rec.AIMatchScore = clampScore(v.MatchScore, 0, 10)
		rec.CombinedScore = rec.Score + rec.AIMatchScore/10
		rec.RecommendationReason = v.RecommendationReason
		rec.MismatchReason = v.MismatchReason
	}
	return nil
}

// SelectFeatured returns the top records with combined score at or above the
// threshold, in ranked order, capped.
func SelectFeatured(ranked []model.CampsiteRecord, threshold float64, limit int) []model.CampsiteRecord {
	var out []model.CampsiteRecord
	for _, rec := range ranked {
		if rec.CombinedScore >= threshold {
			out = append(out, rec)
			if len(out) >= limit {
				break
			}
		}
	}
	return out
}

// SelectPopular returns the records with the most reviews, capped. The input
// order breaks ties.
func SelectPopular(records []model.CampsiteRecord, limit int) []model.CampsiteRecord {
	sorted := make([]model.CampsiteRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ReviewCount > sorted[j].ReviewCount
	})
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}

func clampScore(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
