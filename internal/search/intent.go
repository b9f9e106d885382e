package search

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/campsite-cli/internal/model"
	"github.com/sells-group/campsite-cli/pkg/anthropic"
)

const intentSystemPrompt = `あなたはキャンプ場検索の専門家です。ユーザーの検索クエリを解析し、
構造化された検索意図をJSON形式で返してください。`

// Analyzer turns a free-text query into a structured intent. The AI path is
// primary; any failure degrades to the deterministic keyword fallback, so
// Analyze never returns an error.
type Analyzer struct {
	ai        anthropic.Client // nil disables the AI path
	model     string
	maxTokens int64
	vocab     *Vocabulary
}

// NewAnalyzer builds a query analyzer. ai may be nil for fallback-only use.
func NewAnalyzer(ai anthropic.Client, modelName string, maxTokens int64, vocab *Vocabulary) *Analyzer {
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	if vocab == nil {
		vocab = DefaultVocabulary()
	}
	return &Analyzer{ai: ai, model: modelName, maxTokens: maxTokens, vocab: vocab}
}

// Analyze parses the query into a QueryIntent.
func (a *Analyzer) Analyze(ctx context.Context, query string) model.QueryIntent {
	if a.ai == nil {
		return a.Fallback(query)
	}

	prompt := fmt.Sprintf(`以下のユーザーの検索クエリを解析してください。

検索クエリ: %s

以下のJSON形式で返してください：
`+"```json"+`
{
  "structured_query": "検索に適した形に整形したクエリ",
  "location": "場所のキーワード（なければ空文字）",
  "features": ["特徴キーワードのリスト"],
  "facilities": ["施設キーワードのリスト"],
  "priorities": {"location": 5, "features": 5, "facilities": 5}
}
`+"```"+`

prioritiesは各要素の重要度を0-10で示してください。`, query)

	text, err := askJudge(ctx, a.ai, a.model, a.maxTokens, 0.2, intentSystemPrompt, prompt)
	if err != nil {
		zap.L().Debug("intent analysis fell back", zap.Error(err))
		return a.Fallback(query)
	}

	var intent model.QueryIntent
	if err := json.Unmarshal([]byte(cleanJSON(text)), &intent); err != nil {
		zap.L().Debug("intent JSON parse fell back", zap.Error(err))
		return a.Fallback(query)
	}
	if strings.TrimSpace(intent.StructuredQuery) == "" {
		return a.Fallback(query)
	}

	clampWeights(&intent.Priorities)
	return intent
}

// Fallback is the deterministic keyword analysis: first location hit wins,
// all feature and facility hits in vocabulary order, weight 5 for any
// category with a hit.
func (a *Analyzer) Fallback(query string) model.QueryIntent {
	intent := model.QueryIntent{}

	for _, loc := range a.vocab.Locations {
		if strings.Contains(query, loc) {
			intent.LocationHint = loc
			break
		}
	}
	intent.Features = scanTerms(query, a.vocab.QueryFeatures)
	intent.Facilities = scanTerms(query, a.vocab.QueryFacilities)

	intent.StructuredQuery = query
	if !strings.Contains(query, "キャンプ場") {
		intent.StructuredQuery += " キャンプ場"
	}

	if intent.LocationHint != "" {
		intent.Priorities.Location = 5
	}
	if len(intent.Features) > 0 {
		intent.Priorities.Features = 5
	}
	if len(intent.Facilities) > 0 {
		intent.Priorities.Facilities = 5
	}

	return intent
}

func clampWeights(w *model.PriorityWeights) {
	w.Location = clampWeight(w.Location)
	w.Features = clampWeight(w.Features)
	w.Facilities = clampWeight(w.Facilities)
}

func clampWeight(n int) int {
	if n < 0 {
		return 0
	}
	if n > 10 {
		return 10
	}
	return n
}
