package executor

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"fastpai-be/internal/dto"
	"fastpai-be/internal/pkg/logger"
	"fastpai-be/internal/pkg/metrics"
	"fastpai-be/pkg/events"
	"fastpai-be/pkg/rag/response"
	"fastpai-be/pkg/rag/retrieval"
	"fastpai-be/pkg/rag/session"
)

const tracerName = "fastpai-be/pkg/rag/executor"

type QueryReformulator interface {
	Reformulate(ctx context.Context, historyText string) (string, error)
}

type Retriever interface {
	Resolve(ctx context.Context, query, municipality string) (retrieval.Result, error)
}

type AnswerSynthesizer interface {
	Synthesize(ctx context.Context, originalQuery string, result retrieval.Result) (*response.StructuredAnswer, error)
}

// PipelineExecutor runs one conversation turn:
// reformulate the history, retrieve, then synthesize the answer.
type PipelineExecutor struct {
	reformulator QueryReformulator
	retriever    Retriever
	synthesizer  AnswerSynthesizer
	publisher    events.Publisher
	metrics      *metrics.Metrics
	logger       logger.ILogger
	tracer       trace.Tracer
}

func NewPipelineExecutor(
	reformulator QueryReformulator,
	retriever Retriever,
	synthesizer AnswerSynthesizer,
	publisher events.Publisher,
	m *metrics.Metrics,
	log logger.ILogger,
) *PipelineExecutor {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &PipelineExecutor{
		reformulator: reformulator,
		retriever:    retriever,
		synthesizer:  synthesizer,
		publisher:    publisher,
		metrics:      m,
		logger:       log,
		tracer:       otel.Tracer(tracerName),
	}
}

// Execute mutates sess. The caller must hold the session's turn (BeginTurn).
// On failure the human entry stays in history; the window is enforced either way.
func (p *PipelineExecutor) Execute(ctx context.Context, sess *session.Session, text, municipality string) (*dto.TurnResult, error) {
	started := time.Now()
	ctx, span := p.tracer.Start(ctx, "pipeline.turn")
	defer span.End()

	sess.SetMunicipality(municipality)
	sess.AppendHuman(text)
	span.SetAttributes(
		attribute.String("session.id", sess.ID),
		attribute.String("municipality", sess.Municipality),
		attribute.Int("history.entries", len(sess.History)),
	)

	result, err := p.run(ctx, sess, text)
	if err != nil {
		sess.Trim()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		p.metrics.ObserveTurn(metrics.OutcomeFailed, started)
		p.logger.Error("Pipeline", "Turn failed", map[string]interface{}{
			"session_id":   sess.ID,
			"municipality": sess.Municipality,
			"error":        err.Error(),
		})
		return nil, err
	}

	sess.AppendAnswer(result.Info)
	sess.Trim()

	p.metrics.ObserveTurn(metrics.OutcomeAnswered, started)
	p.logger.Info("Pipeline", "Turn complete", map[string]interface{}{
		"session_id":   sess.ID,
		"municipality": sess.Municipality,
		"matched":      result.Matched,
		"document_id":  result.DocumentID,
		"is_info":      result.IsInfo,
		"degraded":     result.Degraded,
		"duration_ms":  time.Since(started).Milliseconds(),
	})

	if !result.IsInfo {
		p.publishBookingIntent(ctx, sess, text, result)
	}

	return result, nil
}

func (p *PipelineExecutor) run(ctx context.Context, sess *session.Session, text string) (*dto.TurnResult, error) {
	stageCtx, span := p.tracer.Start(ctx, "pipeline.reformulate")
	query, err := p.reformulator.Reformulate(stageCtx, sess.Transcript())
	span.End()
	if err != nil {
		return nil, fmt.Errorf("reformulate: %w", err)
	}
	p.logger.Debug("Pipeline", "Query reformulated", map[string]interface{}{
		"session_id": sess.ID,
		"query":      query,
	})

	stageCtx, span = p.tracer.Start(ctx, "pipeline.retrieve")
	found, err := p.retriever.Resolve(stageCtx, query, sess.Municipality)
	span.End()
	if err != nil {
		return nil, fmt.Errorf("retrieve: %w", err)
	}
	p.metrics.ObserveRetrieval(retrieval.IsFound(found))

	stageCtx, span = p.tracer.Start(ctx, "pipeline.synthesize")
	answer, err := p.synthesizer.Synthesize(stageCtx, text, found)
	span.End()
	if err != nil {
		return nil, fmt.Errorf("synthesize: %w", err)
	}
	if answer.Degraded {
		p.metrics.MalformedOutputs.Inc()
	}

	result := &dto.TurnResult{
		Info:         answer.Info,
		IsInfo:       answer.IsInfo,
		Schedule:     answer.Schedule,
		Requirements: answer.RequirementsNote,
		Degraded:     answer.Degraded,
		Reformulated: query,
	}
	if f, ok := found.(retrieval.Found); ok {
		result.Matched = true
		result.DocumentID = f.Document().ID
		result.Score = f.Score()
	}
	return result, nil
}

func (p *PipelineExecutor) publishBookingIntent(ctx context.Context, sess *session.Session, text string, result *dto.TurnResult) {
	event := events.NewBookingIntentEvent(events.BookingIntent{
		SessionID:    sess.ID,
		Municipality: sess.Municipality,
		Query:        text,
		DocumentID:   result.DocumentID,
		Answer:       result.Info,
	}, time.Now())

	if err := p.publisher.Publish(ctx, event); err != nil {
		p.logger.Warn("Pipeline", "Failed to publish booking intent", map[string]interface{}{
			"session_id": sess.ID,
			"error":      err.Error(),
		})
	}
}
