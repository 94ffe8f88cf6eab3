package summary

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"text/template"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/recap/pkg/adapter"
	"github.com/m-mizutani/recap/pkg/utils/logging"
	"google.golang.org/genai"
)

const (
	NoMessagesText   = "No recent messages to summarize."
	UnparsableText   = "Unable to parse model response for summary."
	defaultMaxBullet = 10
)

//go:embed prompt/summarize.md
var summarizePromptRaw string

var summarizePromptTmpl = template.Must(template.New("summarize").Parse(summarizePromptRaw))

// Summarizer generates a bullet point summary of conversation messages with Gemini
type Summarizer struct {
	gemini     adapter.Gemini
	maxBullets int
}

type Option func(*Summarizer)

// WithMaxBullets changes the upper limit of bullet points requested in the prompt
func WithMaxBullets(n int) Option {
	return func(s *Summarizer) {
		s.maxBullets = n
	}
}

func New(gemini adapter.Gemini, opts ...Option) *Summarizer {
	s := &Summarizer{
		gemini:     gemini,
		maxBullets: defaultMaxBullet,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Summarizer) buildPrompt(messages []string) (string, error) {
	var buf bytes.Buffer
	if err := summarizePromptTmpl.Execute(&buf, map[string]any{
		"MaxBullets": s.maxBullets,
		"Messages":   messages,
	}); err != nil {
		return "", goerr.Wrap(err, "failed to execute summarize prompt template")
	}
	return buf.String(), nil
}

// Summarize always returns some text. Failures of the generation service are
// reported inside the returned text instead of as an error.
func (s *Summarizer) Summarize(ctx context.Context, messages []string) string {
	if len(messages) == 0 {
		return NoMessagesText
	}

	logger := logging.From(ctx)

	prompt, err := s.buildPrompt(messages)
	if err != nil {
		return fmt.Sprintf("Error generating summary: %v", err)
	}

	thinkingBudget := int32(0)
	config := &genai.GenerateContentConfig{
		ThinkingConfig: &genai.ThinkingConfig{
			IncludeThoughts: false,
			ThinkingBudget:  &thinkingBudget,
		},
	}

	contents := []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}

	resp, err := s.gemini.GenerateContent(ctx, contents, config)
	if err != nil {
		logger.Warn("generate content failed, retry with chat session", "error", err)

		resp, err = s.gemini.SendMessage(ctx, config, prompt)
		if err != nil {
			logger.Error("failed to generate summary", "error", err)
			return fmt.Sprintf("Error generating summary: %v", err)
		}
	}

	return extract(resp)
}
