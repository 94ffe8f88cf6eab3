package summary

import (
	"strings"

	"google.golang.org/genai"
)

// strategy pulls summary text out of a response. ok is false when the
// response does not have the shape the strategy expects.
type strategy struct {
	name string
	fn   func(resp *genai.GenerateContentResponse) (text string, ok bool)
}

// strategies are tried in order and the first non-empty text wins
var strategies = []strategy{
	{name: "flattened", fn: flattenedText},
	{name: "nested", fn: nestedText},
	{name: "collected", fn: collectedText},
}

func extract(resp *genai.GenerateContentResponse) string {
	text, _ := extractWith(resp)
	return text
}

func extractWith(resp *genai.GenerateContentResponse) (string, string) {
	if resp == nil {
		return UnparsableText, "fallback"
	}

	for _, s := range strategies {
		if text, ok := s.fn(resp); ok {
			return text, s.name
		}
	}
	return UnparsableText, "fallback"
}

func trimmed(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != ""
}

func flattenedText(resp *genai.GenerateContentResponse) (string, bool) {
	if len(resp.Candidates) > 0 && resp.Candidates[0] == nil {
		return "", false
	}
	return trimmed(resp.Text())
}

func nestedText(resp *genai.GenerateContentResponse) (string, bool) {
	if len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return "", false
	}
	content := resp.Candidates[0].Content
	if content == nil || len(content.Parts) == 0 || content.Parts[0] == nil {
		return "", false
	}
	return trimmed(content.Parts[0].Text)
}

func collectedText(resp *genai.GenerateContentResponse) (string, bool) {
	var texts []string
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			switch {
			case part.Text != "":
				texts = append(texts, part.Text)
			case part.ExecutableCode != nil && part.ExecutableCode.Code != "":
				texts = append(texts, part.ExecutableCode.Code)
			case part.CodeExecutionResult != nil && part.CodeExecutionResult.Output != "":
				texts = append(texts, part.CodeExecutionResult.Output)
			}
		}
	}

	return trimmed(strings.Join(texts, "\n"))
}

// ExtractForTest exposes the extraction chain and the name of the strategy that produced the text
func ExtractForTest(resp *genai.GenerateContentResponse) (string, string) {
	return extractWith(resp)
}
