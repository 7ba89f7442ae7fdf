package session

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"fastpai-be/internal/constant"
	"fastpai-be/pkg/rag/corpus"
)

var (
	ErrTurnInProgress = errors.New("session already processing a turn")
	ErrSessionClosed  = errors.New("session closed")
)

const DefaultHistoryWindow = 4

type State string

const (
	StateConnected  State = "CONNECTED"
	StateProcessing State = "PROCESSING"
	StateClosed     State = "CLOSED"
)

// Session is the conversation owned by one connection. History holds at most
// window entries, oldest evicted first.
type Session struct {
	ID           string
	Municipality string
	History      []string

	window int
	mu     sync.Mutex
	state  State
}

func New(window int) *Session {
	if window < 1 {
		window = DefaultHistoryWindow
	}
	return &Session{
		ID:      uuid.New().String(),
		History: make([]string, 0, window+2),
		window:  window,
		state:   StateConnected,
	}
}

func (s *Session) Window() int { return s.window }

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// BeginTurn moves Connected to Processing. The returned func moves it back.
func (s *Session) BeginTurn() (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateClosed:
		return nil, ErrSessionClosed
	case StateProcessing:
		return nil, ErrTurnInProgress
	}
	s.state = StateProcessing

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.state == StateProcessing {
			s.state = StateConnected
		}
	}, nil
}

// Close is terminal and idempotent.
func (s *Session) Close() {
	s.mu.Lock()
	s.state = StateClosed
	s.mu.Unlock()
}

// SetMunicipality stores the canonical form; an empty value keeps the current one.
func (s *Session) SetMunicipality(m string) {
	if c := corpus.CanonicalMunicipality(m); c != "" {
		s.Municipality = c
	}
}

func (s *Session) AppendHuman(text string) {
	s.History = append(s.History, fmt.Sprintf(constant.HistoryHumanFormat, text))
}

func (s *Session) AppendAnswer(info string) {
	s.History = append(s.History, fmt.Sprintf(constant.HistoryAnswerFormat, info))
}

// Trim drops the oldest entries beyond the window.
func (s *Session) Trim() {
	if over := len(s.History) - s.window; over > 0 {
		s.History = append(s.History[:0], s.History[over:]...)
	}
}

// Transcript is the history joined by newlines; it is the reformulation input.
func (s *Session) Transcript() string {
	return strings.Join(s.History, "\n")
}
