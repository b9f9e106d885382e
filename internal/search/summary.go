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

// NoResultsSummary is the fixed apology used when the merged list is empty.
const NoResultsSummary = "検索条件に合うキャンプ場が見つかりませんでした。"

// ErrorSummary is the single user-facing message for an unexpected pipeline
// fault.
const ErrorSummary = "申し訳ありません。検索中にエラーが発生しました。もう一度お試しください。"

const summarySystemPrompt = `あなたはキャンプ場検索の専門家です。検索結果に基づいて、
日本語で会話的な口調の要約をマークダウン形式で生成してください。`

// Summarizer produces the final natural-language summary. The AI path is
// primary; failure falls back to a fixed template built from counts and top
// names, never a blank string.
type Summarizer struct {
	ai        anthropic.Client // nil disables the AI path
	model     string
	maxTokens int64
}

// NewSummarizer builds a summarizer. ai may be nil for template-only use.
func NewSummarizer(ai anthropic.Client, modelName string, maxTokens int64) *Summarizer {
	if maxTokens <= 0 {
		maxTokens = 2048
	}
	return &Summarizer{ai: ai, model: modelName, maxTokens: maxTokens}
}

// Summarize generates the result summary for a completed search.
func (s *Summarizer) Summarize(ctx context.Context, query string, intent model.QueryIntent, results, featured, popular []model.CampsiteRecord) string {
	if len(results) == 0 {
		return NoResultsSummary
	}
	if s.ai == nil {
		return templateSummary(results, featured, popular)
	}

	resultsJSON, err := json.Marshal(summaryDigest(results, 5))
	if err != nil {
		return templateSummary(results, featured, popular)
	}
	featuredJSON, _ := json.Marshal(summaryDigest(featured, 3))
	popularJSON, _ := json.Marshal(summaryDigest(popular, 3))
	intentJSON, _ := json.Marshal(intent)

	prompt := fmt.Sprintf(`以下のユーザーの検索クエリと検索結果に基づいて、検索結果の要約を生成してください。

ユーザーの検索クエリ: %s

検索意図の分析:
%s

検索結果のキャンプ場:
%s

ユーザーにぴったりのキャンプ場:
%s

人気のキャンプ場:
%s

以下の内容を含む要約を生成してください：
1. 検索結果の概要（何件見つかったか、どのような特徴があるか）
2. ユーザーにぴったりのキャンプ場とその理由
3. 人気のキャンプ場の紹介
4. ユーザーの検索意図に対する回答

要約は日本語で、会話的な口調で作成してください。マークダウン形式で見やすく整形し、
各セクションには適切な見出しを付けてください。`, query, intentJSON, resultsJSON, featuredJSON, popularJSON)

	text, err := askJudge(ctx, s.ai, s.model, s.maxTokens, 0.4, summarySystemPrompt, prompt)
	if err != nil {
		zap.L().Warn("summary generation fell back", zap.Error(err))
		return templateSummary(results, featured, popular)
	}
	return text
}

func summaryDigest(records []model.CampsiteRecord, limit int) []map[string]any {
	if len(records) > limit {
		records = records[:limit]
	}
	out := make([]map[string]any, len(records))
	for i, rec := range records {
		out[i] = map[string]any{
			"name":                  rec.Name,
			"region":                rec.Region,
			"rating":                rec.Rating,
			"reviews_count":         rec.ReviewCount,
			"features":              rec.Features,
			"facilities":            rec.Facilities,
			"score":                 rec.CombinedScore,
			"recommendation_reason": rec.RecommendationReason,
			"review_summary":        rec.ReviewSummary,
		}
	}
	return out
}

// templateSummary is the deterministic fallback built from counts and names.
func templateSummary(results, featured, popular []model.CampsiteRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d件のキャンプ場が見つかりました。", len(results))

	if len(featured) > 0 {
		b.WriteString("おすすめは")
		b.WriteString(joinNames(featured, 3))
		b.WriteString("です。")
	}
	if len(popular) > 0 {
		b.WriteString("人気のキャンプ場は")
		b.WriteString(joinNames(popular, 3))
		b.WriteString("です。")
	}
	return b.String()
}

func joinNames(records []model.CampsiteRecord, limit int) string {
	if len(records) > limit {
		records = records[:limit]
	}
	names := make([]string, len(records))
	for i, rec := range records {
		names[i] = rec.Name
	}
	return strings.Join(names, "、")
}

// reviewAnalysis is the parsed shape of a per-record review summary.
type reviewAnalysis struct {
	Summary        string   `json:"summary"`
	Features       []string `json:"features"`
	Trends         []string `json:"trends"`
	Recommendation string   `json:"recommendation"`
}

// ruleBasedReviewAnalysis is the deterministic fallback when the judge cannot
// summarize reviews: fixed rating and review-count thresholds plus the
// record's extracted tags.
func ruleBasedReviewAnalysis(rec *model.CampsiteRecord) reviewAnalysis {
	features := make([]string, 0, 10)
	features = append(features, headStrings(rec.Facilities, 5)...)
	for _, f := range headStrings(rec.Features, 5) {
		features = model.UnionTags(features, []string{f})
	}
	if len(features) > 10 {
		features = features[:10]
	}

	var trends []string
	switch {
	case rec.Rating >= 4.5:
		trends = append(trends, "評価が非常に高い")
	case rec.Rating >= 4.0:
		trends = append(trends, "評価が高い")
	case rec.Rating >= 3.5:
		trends = append(trends, "評価が良好")
	case rec.Rating >= 3.0:
		trends = append(trends, "評価が平均的")
	default:
		trends = append(trends, "評価が平均以下")
	}
	switch {
	case rec.ReviewCount >= 1000:
		trends = append(trends, "非常に人気がある")
	case rec.ReviewCount >= 500:
		trends = append(trends, "人気がある")
	case rec.ReviewCount >= 100:
		trends = append(trends, "ある程度知られている")
	case rec.ReviewCount >= 10:
		trends = append(trends, "口コミが少ない")
	default:
		trends = append(trends, "あまり知られていない")
	}

	joined := strings.Join(features, " ")
	if strings.Contains(joined, "湖") {
		trends = append(trends, "湖畔の景色が魅力")
	}
	if strings.Contains(joined, "山") {
		trends = append(trends, "山の景色が魅力")
	}
	if strings.Contains(joined, "森") {
		trends = append(trends, "森の中の静かな環境")
	}
	if strings.Contains(joined, "海") {
		trends = append(trends, "海の近くの立地")
	}
	if strings.Contains(joined, "温泉") {
		trends = append(trends, "温泉施設あり")
	}
	if strings.Contains(joined, "子供") || strings.Contains(joined, "ファミリー") {
		trends = append(trends, "家族連れに人気")
	}
	if strings.Contains(joined, "ペット") {
		trends = append(trends, "ペット同伴可能")
	}

	var summary strings.Builder
	summary.WriteString(rec.Name)
	summary.WriteString("は")
	switch {
	case rec.Rating >= 4.5:
		summary.WriteString("評価が非常に高く、多くの利用者から好評を得ています。")
	case rec.Rating >= 4.0:
		summary.WriteString("評価が高く、利用者からの評判が良いキャンプ場です。")
	case rec.Rating >= 3.5:
		summary.WriteString("一般的に良い評価を受けているキャンプ場です。")
	case rec.Rating >= 3.0:
		summary.WriteString("平均的な評価を受けているキャンプ場です。")
	default:
		summary.WriteString("評価は平均以下ですが、")
	}
	if len(features) > 0 {
		fmt.Fprintf(&summary, "%sなどの特徴があります。", strings.Join(headStrings(features, 3), "、"))
	}
	if len(trends) > 2 {
		fmt.Fprintf(&summary, "%sで、%sキャンプ場です。", trends[0], trends[1])
	}

	var recommendation string
	switch {
	case rec.Rating >= 4.0 && len(features) > 0:
		recommendation = fmt.Sprintf("評価が高く、特に%sが充実したおすすめのキャンプ場です。", strings.Join(headStrings(features, 3), "、"))
	case rec.Rating >= 3.5 && len(features) > 0:
		recommendation = fmt.Sprintf("%sが特徴的な、一般的に良い評価を受けているキャンプ場です。", strings.Join(headStrings(features, 3), "、"))
	default:
		subject := "自然環境"
		if len(features) > 0 {
			subject = strings.Join(headStrings(features, 3), "、")
		}
		recommendation = fmt.Sprintf("基本的な設備が整ったキャンプ場で、%sが楽しめます。", subject)
	}

	return reviewAnalysis{
		Summary:        summary.String(),
		Features:       features,
		Trends:         trends,
		Recommendation: recommendation,
	}
}
