package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math/rand/v2"
	"strings"

	"github.com/go-playground/validator/v10"

	"fastpai-be/internal/constant"
	"fastpai-be/internal/dto"
	"fastpai-be/internal/pkg/logger"
	"fastpai-be/internal/pkg/metrics"
	"fastpai-be/pkg/rag/session"
	"fastpai-be/pkg/rag/store"
)

var ErrInvalidMessage = errors.New("invalid inbound message")

type TurnExecutor interface {
	Execute(ctx context.Context, sess *session.Session, text, municipality string) (*dto.TurnResult, error)
}

type IAssistantService interface {
	OpenSession() (*session.Session, dto.OutboundEnvelope)
	HandleFrame(ctx context.Context, sess *session.Session, frame []byte) interface{}
	CloseSession(sess *session.Session)
	CountDocuments(ctx context.Context) (int, error)
	Municipalities(ctx context.Context) ([]string, error)
}

type assistantService struct {
	executor      TurnExecutor
	store         store.DocumentStore
	historyWindow int
	validate      *validator.Validate
	metrics       *metrics.Metrics
	logger        logger.ILogger
}

func NewAssistantService(
	executor TurnExecutor,
	documentStore store.DocumentStore,
	historyWindow int,
	m *metrics.Metrics,
	log logger.ILogger,
) IAssistantService {
	return &assistantService{
		executor:      executor,
		store:         documentStore,
		historyWindow: historyWindow,
		validate:      validator.New(),
		metrics:       m,
		logger:        log,
	}
}

func (s *assistantService) OpenSession() (*session.Session, dto.OutboundEnvelope) {
	sess := session.New(s.historyWindow)
	welcome := constant.WelcomeMessages[rand.IntN(len(constant.WelcomeMessages))]

	s.logger.Info("AssistantService", "Session opened", map[string]interface{}{"session_id": sess.ID})
	return sess, dto.NewWelcomeEnvelope(welcome)
}

// HandleFrame runs one turn and always returns something to send back.
// Failures become an error envelope; the session stays usable.
func (s *assistantService) HandleFrame(ctx context.Context, sess *session.Session, frame []byte) interface{} {
	in, err := s.decode(frame)
	if err == nil && in.City == "" && sess.Municipality == "" {
		err = errors.New("no municipality selected")
	}
	if err != nil {
		s.metrics.TurnsTotal.WithLabelValues(metrics.OutcomeRejected).Inc()
		s.logger.Warn("AssistantService", "Rejected inbound frame", map[string]interface{}{
			"session_id": sess.ID,
			"error":      err.Error(),
		})
		return dto.NewErrorEnvelope(constant.ErrorCodeInvalidMessage, constant.InvalidMessageMessage)
	}

	done, err := sess.BeginTurn()
	if err != nil {
		s.logger.Warn("AssistantService", "Turn refused", map[string]interface{}{
			"session_id": sess.ID,
			"error":      err.Error(),
		})
		return dto.NewErrorEnvelope(constant.ErrorCodeTurnFailed, constant.TurnFailedMessage)
	}
	defer done()

	result, err := s.executor.Execute(ctx, sess, in.Message, in.City)
	if err != nil {
		// Executor already logged the cause.
		return dto.NewErrorEnvelope(constant.ErrorCodeTurnFailed, constant.TurnFailedMessage)
	}
	return dto.NewReplyEnvelope(result)
}

// decode accepts the JSON object frame or a bare text frame, which reuses the
// session's municipality.
func (s *assistantService) decode(frame []byte) (*dto.InboundMessage, error) {
	trimmed := bytes.TrimSpace(frame)
	in := &dto.InboundMessage{}

	if len(trimmed) > 0 && trimmed[0] == '{' {
		if err := json.Unmarshal(trimmed, in); err != nil {
			return nil, errors.Join(ErrInvalidMessage, err)
		}
	} else {
		in.Message = string(trimmed)
	}

	in.Message = strings.TrimSpace(in.Message)
	if err := s.validate.Struct(in); err != nil {
		return nil, errors.Join(ErrInvalidMessage, err)
	}
	return in, nil
}

func (s *assistantService) CloseSession(sess *session.Session) {
	sess.Close()
	s.logger.Info("AssistantService", "Session closed", map[string]interface{}{
		"session_id":      sess.ID,
		"history_entries": len(sess.History),
	})
}

func (s *assistantService) CountDocuments(ctx context.Context) (int, error) {
	return s.store.Count(ctx)
}

func (s *assistantService) Municipalities(ctx context.Context) ([]string, error) {
	return s.store.Municipalities(ctx)
}
