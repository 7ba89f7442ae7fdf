package query

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"fastpai-be/internal/constant"
	"fastpai-be/internal/pkg/logger"
	"fastpai-be/pkg/llm"
)

var ErrEmptyReformulation = errors.New("reformulation returned empty query")

const DefaultMaxTokens = 128

// Reformulator rewrites the conversation so far into one retrieval query.
type Reformulator struct {
	llmProvider llm.LLMProvider
	maxTokens   int
	logger      logger.ILogger
}

func NewReformulator(llmProvider llm.LLMProvider, maxTokens int, log logger.ILogger) *Reformulator {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	return &Reformulator{llmProvider: llmProvider, maxTokens: maxTokens, logger: log}
}

// Reformulate makes one model call; no retry. Provider failures are returned wrapped.
func (r *Reformulator) Reformulate(ctx context.Context, historyText string) (string, error) {
	out, err := r.llmProvider.Chat(ctx,
		llm.SystemAndUser(constant.QueryReformulationPrompt, historyText),
		llm.WithMaxTokens(r.maxTokens),
		llm.WithTemperature(0),
	)
	if err != nil {
		return "", fmt.Errorf("reformulate query: %w", err)
	}

	q := strings.TrimSpace(out)
	if q == "" {
		r.logger.Warn("QueryReformulator", "Model returned an empty query", nil)
		return "", ErrEmptyReformulation
	}

	r.logger.Debug("QueryReformulator", "Query reformulated", map[string]interface{}{
		"query": q,
	})
	return q, nil
}
