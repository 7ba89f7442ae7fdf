package response

import (
	"context"
	"fmt"

	"fastpai-be/internal/constant"
	"fastpai-be/internal/pkg/logger"
	"fastpai-be/pkg/llm"
	"fastpai-be/pkg/rag/retrieval"
)

const DefaultMaxTokens = 256

// Synthesizer turns the user's question and the retrieval outcome into the
// citizen-facing answer.
type Synthesizer struct {
	llmProvider llm.LLMProvider
	maxTokens   int
	logger      logger.ILogger
}

func NewSynthesizer(llmProvider llm.LLMProvider, maxTokens int, log logger.ILogger) *Synthesizer {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	return &Synthesizer{llmProvider: llmProvider, maxTokens: maxTokens, logger: log}
}

// Synthesize makes one model call. Malformed model output degrades to the raw
// text and is logged; only provider failures are returned as errors.
func (s *Synthesizer) Synthesize(ctx context.Context, originalQuery string, result retrieval.Result) (*StructuredAnswer, error) {
	dbAnswer := constant.NoMatchMarker
	found, isFound := result.(retrieval.Found)
	if isFound {
		dbAnswer = found.Document().Metadata.Flatten()
	}

	userContent := fmt.Sprintf(constant.SynthesisUserTemplate, originalQuery, dbAnswer)
	raw, err := s.llmProvider.Chat(ctx,
		llm.SystemAndUser(constant.ResponseSynthesisPrompt, userContent),
		llm.WithMaxTokens(s.maxTokens),
	)
	if err != nil {
		return nil, fmt.Errorf("synthesize answer: %w", err)
	}

	out, problems := ParseModelOutput(raw)
	if _, degraded := out.(Degraded); degraded {
		s.logger.Warn("ResponseSynthesizer", "Model output is not a valid answer object, using raw text", map[string]interface{}{
			"raw":      raw,
			"problems": problems,
		})
	}

	info, isInfo, degraded := FromModelOutput(out)
	answer := &StructuredAnswer{
		Info:     NormalizeText(info),
		IsInfo:   isInfo,
		Degraded: degraded,
	}

	if isFound {
		meta := found.Document().Metadata
		answer.Schedule = Normalize(meta.Schedule)
		answer.RequirementsNote = Normalize(meta.Requirements)
	}

	return answer, nil
}
