package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rotisserie/eris"
)

func TestFallbackExtractsLocationAndFeatures(t *testing.T) {
	a := NewAnalyzer(nil, "", 0, nil)

	intent := a.Analyze(context.Background(), "富士山が見える静かなキャンプ場")

	assert.Equal(t, "富士山", intent.LocationHint)
	assert.Contains(t, intent.Features, "見える")
	assert.Contains(t, intent.Features, "静か")
	assert.Equal(t, 5, intent.Priorities.Location)
	assert.Equal(t, 5, intent.Priorities.Features)
	assert.Equal(t, 0, intent.Priorities.Facilities)
}

func TestFallbackAppendsCampsiteSuffix(t *testing.T) {
	a := NewAnalyzer(nil, "", 0, nil)

	intent := a.Fallback("長野 温泉")
	assert.Equal(t, "長野 温泉 キャンプ場", intent.StructuredQuery)
	assert.Equal(t, "長野", intent.LocationHint)
	assert.Contains(t, intent.Facilities, "温泉")

	intent = a.Fallback("静岡のキャンプ場")
	assert.Equal(t, "静岡のキャンプ場", intent.StructuredQuery)
}

func TestFallbackFirstLocationWins(t *testing.T) {
	a := NewAnalyzer(nil, "", 0, nil)

	// Vocabulary scan order decides, not query order.
	intent := a.Fallback("軽井沢か長野でキャンプ")
	assert.Equal(t, "長野", intent.LocationHint)
}

func TestAnalyzeParsesFencedJSON(t *testing.T) {
	ai := &mockAnthropicClient{}
	ai.On("CreateMessage", mock.Anything, mock.Anything).Return(textResponse("```json\n"+
		`{"structured_query":"山梨 湖 キャンプ場","location":"山梨","features":["湖"],"facilities":[],"priorities":{"location":8,"features":6,"facilities":0}}`+
		"\n```"), nil)

	a := NewAnalyzer(ai, "judge-model", 512, nil)
	intent := a.Analyze(context.Background(), "山梨の湖のほとりでキャンプしたい")

	require.Equal(t, "山梨 湖 キャンプ場", intent.StructuredQuery)
	assert.Equal(t, "山梨", intent.LocationHint)
	assert.Equal(t, 8, intent.Priorities.Location)
	ai.AssertExpectations(t)
}

func TestAnalyzeFallsBackOnProviderError(t *testing.T) {
	ai := &mockAnthropicClient{}
	ai.On("CreateMessage", mock.Anything, mock.Anything).Return(nil, eris.New("boom"))

	a := NewAnalyzer(ai, "judge-model", 512, nil)
	intent := a.Analyze(context.Background(), "富士山が見える静かなキャンプ場")

	assert.Equal(t, "富士山", intent.LocationHint)
	assert.NotEmpty(t, intent.StructuredQuery)
}

func TestAnalyzeFallsBackOnMalformedJSON(t *testing.T) {
	ai := &mockAnthropicClient{}
	ai.On("CreateMessage", mock.Anything, mock.Anything).Return(textResponse("すみません、JSONでは返せません。"), nil)

	a := NewAnalyzer(ai, "judge-model", 512, nil)
	intent := a.Analyze(context.Background(), "北海道のキャンプ場")

	assert.Equal(t, "北海道", intent.LocationHint)
}

func TestAnalyzeClampsWeights(t *testing.T) {
	ai := &mockAnthropicClient{}
	ai.On("CreateMessage", mock.Anything, mock.Anything).Return(textResponse(
		`{"structured_query":"q キャンプ場","location":"","features":[],"facilities":[],"priorities":{"location":15,"features":-3,"facilities":10}}`), nil)

	a := NewAnalyzer(ai, "judge-model", 512, nil)
	intent := a.Analyze(context.Background(), "q")

	assert.Equal(t, 10, intent.Priorities.Location)
	assert.Equal(t, 0, intent.Priorities.Features)
	assert.Equal(t, 10, intent.Priorities.Facilities)
}
