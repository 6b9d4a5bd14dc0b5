// Package service orchestrates one inquiry end to end: memory snapshot,
// agent invocation, memory append, durable persistence.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/google/uuid"

	"github.com/farego/farego/internal/history"
	"github.com/farego/farego/internal/log"
)

// ErrEmptyInput indicates the user input was empty or whitespace only.
var ErrEmptyInput = errors.New("input must not be empty")

// PersistWarning is surfaced to the client when the answer could not be
// recorded durably. The answer itself is still returned.
const PersistWarning = "response could not be saved to chat history"

// Answerer generates a reply given conversation history.
// *chat.Agent satisfies this interface.
type Answerer interface {
	Answer(ctx context.Context, history []*ai.Message, input string) (string, error)
}

// Memory is the per-session conversation window.
// *memory.Store satisfies this interface.
type Memory interface {
	Snapshot(sessionID uuid.UUID) []*ai.Message
	AppendExchange(sessionID uuid.UUID, userInput, modelResponse string)
}

// Recorder persists completed exchanges.
// *history.Store satisfies this interface.
type Recorder interface {
	Append(ctx context.Context, userInput, agentResponse string) (history.ChatTurn, error)
	List(ctx context.Context, skip, limit int) ([]history.ChatTurn, error)
}

// Reply is the outcome of one handled inquiry.
type Reply struct {
	Response string
	// PersistWarning is non-empty when the exchange was answered but
	// could not be recorded.
	PersistWarning string
}

// Service wires the agent, memory, and chat record store together.
type Service struct {
	agent    Answerer
	memory   Memory
	recorder Recorder
	logger   log.Logger
}

// New creates a Service.
func New(agent Answerer, memory Memory, recorder Recorder, logger log.Logger) (*Service, error) {
	if agent == nil {
		return nil, fmt.Errorf("agent is required")
	}
	if memory == nil {
		return nil, fmt.Errorf("memory is required")
	}
	if recorder == nil {
		return nil, fmt.Errorf("recorder is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Service{agent: agent, memory: memory, recorder: recorder, logger: logger}, nil
}

// Handle answers one user input within a session.
//
// The exchange is appended to session memory and persisted only after the
// agent produced an answer, so a failed invocation never leaves a record.
// Persistence failure does not suppress the answer: the Reply carries a
// warning instead.
func (s *Service) Handle(ctx context.Context, sessionID uuid.UUID, input string) (Reply, error) {
	if strings.TrimSpace(input) == "" {
		return Reply{}, ErrEmptyInput
	}

	window := s.memory.Snapshot(sessionID)

	response, err := s.agent.Answer(ctx, window, input)
	if err != nil {
		return Reply{}, fmt.Errorf("answering inquiry: %w", err)
	}

	s.memory.AppendExchange(sessionID, input, response)

	reply := Reply{Response: response}
	if _, err := s.recorder.Append(ctx, input, response); err != nil {
		s.logger.Error("persisting chat turn failed",
			"session_id", sessionID,
			"error", err,
		)
		reply.PersistWarning = PersistWarning
	}

	return reply, nil
}

// History lists persisted exchanges, oldest first.
func (s *Service) History(ctx context.Context, skip, limit int) ([]history.ChatTurn, error) {
	return s.recorder.List(ctx, skip, limit)
}
