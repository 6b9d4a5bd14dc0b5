// Package chat runs the answering agent: one Gemini generation loop with
// tool calling over the conversation history.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/farego/farego/internal/log"
)

// systemPrompt steers tool selection: the corpus tool is authoritative
// for bus questions, the web tools cover everything else.
const systemPrompt = `You are an intelligent bus inquiry assistant. You help travelers with
questions about bus schedules, routes, fares, and related services.

Rules:
- For ANY question about buses, schedules, routes, or fares, you MUST call
  the bus_information_search tool and base your answer on its results.
- For general knowledge questions, use the wikipedia_lookup tool.
- For questions about recent events or current disruptions, use the
  news_search tool.
- If a tool returns no useful information, say so honestly instead of
  guessing.
- Answer in the language the user wrote in.`

// fallbackResponseMessage is returned when the model produces an empty
// response.
const fallbackResponseMessage = "I apologize, but I couldn't generate a response. Please try rephrasing your question."

// Config contains all required parameters for the agent.
type Config struct {
	Genkit *genkit.Genkit
	Logger log.Logger
	Tools  []ai.Tool // Pre-registered tools from tools.Register()

	// ModelName is the provider-qualified model name
	// (e.g., "googleai/gemini-1.5-flash").
	ModelName string
	// Temperature for generation; the assistant runs deterministic at 0.
	Temperature float32
	// MaxTurns bounds the agentic tool loop.
	MaxTurns int

	// RetryConfig configures transient-failure retries
	// (zero-value uses defaults).
	RetryConfig RetryConfig
	// RateLimiter proactively spaces model calls (nil = use default).
	RateLimiter *rate.Limiter
}

// validate checks if all required parameters are present.
func (cfg Config) validate() error {
	if cfg.Genkit == nil {
		return errors.New("genkit instance is required")
	}
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	if len(cfg.Tools) == 0 {
		return errors.New("at least one tool is required")
	}
	if cfg.ModelName == "" {
		return errors.New("model name is required")
	}
	return nil
}

// Agent answers one user input given the prior conversation.
//
// Agent is stateless: callers own the history. All configuration is
// captured immutably at construction time, so a single Agent is safe for
// concurrent use.
type Agent struct {
	modelName   string
	temperature float32
	maxTurns    int

	retryConfig RetryConfig
	rateLimiter *rate.Limiter

	g         *genkit.Genkit
	logger    log.Logger
	tools     []ai.Tool
	toolRefs  []ai.ToolRef // Cached at construction (ai.Tool implements ai.ToolRef)
	toolNames string       // Cached as comma-separated for logging
}

// New creates a new Agent with required configuration.
func New(cfg Config) (*Agent, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	maxTurns := cfg.MaxTurns
	if maxTurns <= 0 {
		maxTurns = 5
	}

	retryConfig := cfg.RetryConfig
	if retryConfig.MaxRetries == 0 {
		retryConfig = DefaultRetryConfig()
	}

	// Default: 10 requests/sec sustained, burst of 30.
	rl := cfg.RateLimiter
	if rl == nil {
		rl = rate.NewLimiter(10, 30)
	}

	// Cache tool refs and names at construction (zero allocation per request)
	toolRefs := make([]ai.ToolRef, len(cfg.Tools))
	names := make([]string, len(cfg.Tools))
	for i, t := range cfg.Tools {
		toolRefs[i] = t
		names[i] = t.Name()
	}

	a := &Agent{
		modelName:   cfg.ModelName,
		temperature: cfg.Temperature,
		maxTurns:    maxTurns,

		retryConfig: retryConfig,
		rateLimiter: rl,

		g:         cfg.Genkit,
		logger:    cfg.Logger,
		tools:     cfg.Tools,
		toolRefs:  toolRefs,
		toolNames: strings.Join(names, ", "),
	}

	a.logger.Info("chat agent initialized",
		"model", a.modelName,
		"totalTools", len(a.tools),
		"maxTurns", a.maxTurns,
	)

	return a, nil
}

// Answer generates a reply to input given the prior conversation history.
// history is not mutated; the user input is appended to a copy.
func (a *Agent) Answer(ctx context.Context, history []*ai.Message, input string) (string, error) {
	a.logger.Debug("answering",
		"history_length", len(history),
		"input_length", len(input),
	)

	// Build messages: deep copy history and append current user input.
	// CRITICAL: Deep copy is required to prevent DATA RACE in Genkit's
	// renderMessages(). Genkit modifies msg.Content in-place, so concurrent
	// executions sharing the same message objects will race.
	messages := deepCopyMessages(history)
	messages = append(messages, ai.NewUserMessage(ai.NewTextPart(input)))

	temperature := a.temperature
	opts := []ai.GenerateOption{
		ai.WithSystem(systemPrompt),
		ai.WithMessages(messages...),
		ai.WithTools(a.toolRefs...),
		ai.WithMaxTurns(a.maxTurns),
		ai.WithModelName(a.modelName),
		ai.WithConfig(&genai.GenerateContentConfig{Temperature: &temperature}),
	}

	a.logger.Debug("executing generation",
		"toolCount", len(a.tools),
		"tools", a.toolNames,
		"maxTurns", a.maxTurns,
	)

	resp, err := a.generateWithRetry(ctx, opts)
	if err != nil {
		return "", fmt.Errorf("generating response: %w", err)
	}

	responseText := resp.Text()

	// Only apply the fallback when truly empty (no text AND no tool
	// requests). Empty text alongside tool requests is valid agentic
	// behavior mid-loop.
	if strings.TrimSpace(responseText) == "" && len(resp.ToolRequests()) == 0 {
		a.logger.Warn("model returned empty response with no tool requests")
		responseText = fallbackResponseMessage
	}

	return responseText, nil
}

// deepCopyMessages creates independent copies of Message and Part structs.
//
// WORKAROUND: Genkit's renderMessages() modifies msg.Content in-place,
// causing data races in concurrent executions. This function creates
// independent struct copies to prevent the race.
//
// Tested version: github.com/firebase/genkit/go v1.4.0
func deepCopyMessages(msgs []*ai.Message) []*ai.Message {
	if msgs == nil {
		return nil // Preserve nil vs empty slice semantics
	}
	copied := make([]*ai.Message, len(msgs))
	for i, msg := range msgs {
		parts := make([]*ai.Part, len(msg.Content))
		for j, part := range msg.Content {
			parts[j] = deepCopyPart(part)
		}
		copied[i] = &ai.Message{
			Role:     msg.Role,
			Content:  parts,
			Metadata: shallowCopyMap(msg.Metadata),
		}
	}
	return copied
}

// deepCopyPart creates an independent copy of an ai.Part struct.
//
// ToolRequest.Input and ToolResponse.Output are type `any` and copied by
// reference: renderMessages() only mutates the Content slice, not tool
// payloads.
func deepCopyPart(p *ai.Part) *ai.Part {
	if p == nil {
		return nil
	}
	cp := &ai.Part{
		Kind:        p.Kind,
		ContentType: p.ContentType,
		Text:        p.Text,
		Custom:      shallowCopyMap(p.Custom),
		Metadata:    shallowCopyMap(p.Metadata),
	}
	if p.ToolRequest != nil {
		cp.ToolRequest = &ai.ToolRequest{
			Input: p.ToolRequest.Input,
			Name:  p.ToolRequest.Name,
			Ref:   p.ToolRequest.Ref,
		}
	}
	if p.ToolResponse != nil {
		cp.ToolResponse = &ai.ToolResponse{
			Name:   p.ToolResponse.Name,
			Output: p.ToolResponse.Output,
			Ref:    p.ToolResponse.Ref,
		}
	}
	if p.Resource != nil {
		cp.Resource = &ai.ResourcePart{Uri: p.Resource.Uri}
	}
	return cp
}

// shallowCopyMap copies map keys and values but not nested structures.
func shallowCopyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	cp := make(map[string]any, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}
