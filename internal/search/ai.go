package search

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/campsite-cli/pkg/anthropic"
)

// cleanJSON extracts a JSON payload from model output that may be wrapped in
// markdown fences or surrounded by prose. Handles both objects and arrays.
func cleanJSON(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.Index(s, "```json"); idx >= 0 {
		s = s[idx+7:]
	} else if idx := strings.Index(s, "```"); idx >= 0 {
		s = s[idx+3:]
	}
	if idx := strings.Index(s, "```"); idx >= 0 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)

	objStart := strings.Index(s, "{")
	arrStart := strings.Index(s, "[")
	switch {
	case arrStart >= 0 && (objStart < 0 || arrStart < objStart):
		if end := strings.LastIndex(s, "]"); end > arrStart {
			return s[arrStart : end+1]
		}
	case objStart >= 0:
		if end := strings.LastIndex(s, "}"); end > objStart {
			return s[objStart : end+1]
		}
	}
	return s
}

// askJudge sends one prompt to the model and returns the text of the reply.
func askJudge(ctx context.Context, client anthropic.Client, model string, maxTokens int64, temperature float64, system, prompt string) (string, error) {
	resp, err := client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       model,
		MaxTokens:   maxTokens,
		Temperature: &temperature,
		System:      anthropic.BuildCachedSystemBlocks(system),
		Messages: []anthropic.Message{
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return "", eris.Wrap(err, "judge: create message")
	}
	resp.Usage.LogUsage(model, "judge")

	text := resp.Text()
	if text == "" {
		return "", eris.New("judge: empty response")
	}
	return text, nil
}
