package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/farego/farego/internal/history"
	"github.com/farego/farego/internal/log"
	"github.com/farego/farego/internal/service"
)

const (
	// DefaultHistoryLimit is returned when no limit parameter is given.
	DefaultHistoryLimit = 100

	// MaxHistoryLimit caps one listing request.
	MaxHistoryLimit = 1000

	// MaxHistorySkip caps the offset to keep queries bounded.
	MaxHistorySkip = 1_000_000

	// MaxAskBodySize bounds the /ask request body (1 MB).
	MaxAskBodySize = 1 << 20

	// SessionHeader carries the client's session identifier. Absent or
	// malformed values fall back to a single shared session.
	SessionHeader = "X-Session-ID"
)

// timestampLayout renders record timestamps, e.g. "02-01-2006 at 15:04:05".
const timestampLayout = "02-01-2006 at 15:04:05"

// defaultSessionID keys memory for clients that do not send a session
// header. All such clients share one conversation window.
var defaultSessionID = uuid.Nil

// Inquiries is the service surface the query endpoints need.
// *service.Service satisfies this interface.
type Inquiries interface {
	Handle(ctx context.Context, sessionID uuid.UUID, input string) (service.Reply, error)
	History(ctx context.Context, skip, limit int) ([]history.ChatTurn, error)
}

// AskRequest is the request body for POST /ask.
type AskRequest struct {
	Input string `json:"input"`
}

// AskResponse is the response body for POST /ask.
type AskResponse struct {
	Response string `json:"response"`
	Warning  string `json:"warning,omitempty"`
}

// ChatRecord is one persisted exchange as rendered by GET /chat_history.
type ChatRecord struct {
	ID            int64  `json:"id"`
	UserInput     string `json:"user_input"`
	AgentResponse string `json:"agent_response"`
	Timestamp     string `json:"timestamp"`
}

// QueryHandler handles the inquiry endpoints.
type QueryHandler struct {
	svc    Inquiries
	logger log.Logger
}

// NewQueryHandler creates a new query handler.
func NewQueryHandler(svc Inquiries, logger log.Logger) *QueryHandler {
	return &QueryHandler{svc: svc, logger: logger}
}

// RegisterRoutes registers query routes on the given mux.
func (h *QueryHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /ask", h.ask)
	mux.HandleFunc("GET /chat_history", h.chatHistory)
}

// ask answers one user inquiry.
func (h *QueryHandler) ask(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	body := http.MaxBytesReader(w, r.Body, MaxAskBodySize)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	sessionID := sessionFromRequest(r)

	reply, err := h.svc.Handle(r.Context(), sessionID, req.Input)
	if err != nil {
		if errors.Is(err, service.ErrEmptyInput) {
			writeError(w, http.StatusBadRequest, "invalid input", "input must not be empty")
			return
		}
		h.logger.Error("handling inquiry failed", "session_id", sessionID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to answer inquiry", "")
		return
	}

	writeJSON(w, http.StatusOK, AskResponse{
		Response: reply.Response,
		Warning:  reply.PersistWarning,
	})
}

// chatHistory lists persisted exchanges oldest first.
func (h *QueryHandler) chatHistory(w http.ResponseWriter, r *http.Request) {
	skip := parseIntParam(r, "skip", 0, 0, MaxHistorySkip)
	limit := parseIntParam(r, "limit", DefaultHistoryLimit, 0, MaxHistoryLimit)

	turns, err := h.svc.History(r.Context(), skip, limit)
	if err != nil {
		h.logger.Error("listing chat history failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to read chat history", "")
		return
	}

	records := make([]ChatRecord, 0, len(turns))
	for _, turn := range turns {
		records = append(records, ChatRecord{
			ID:            turn.ID,
			UserInput:     turn.UserInput,
			AgentResponse: turn.AgentResponse,
			Timestamp:     turn.Timestamp.Format(timestampLayout),
		})
	}

	writeJSON(w, http.StatusOK, records)
}

// sessionFromRequest extracts the session ID from the request header.
// Missing or malformed headers map to the shared default session.
func sessionFromRequest(r *http.Request) uuid.UUID {
	raw := r.Header.Get(SessionHeader)
	if raw == "" {
		return defaultSessionID
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return defaultSessionID
	}
	return id
}

// parseIntParam parses an integer query parameter with bounds checking.
func parseIntParam(r *http.Request, name string, defaultVal, minVal, maxVal int) int {
	str := r.URL.Query().Get(name)
	if str == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(str)
	if err != nil {
		return defaultVal
	}
	if val < minVal {
		return minVal
	}
	if val > maxVal {
		return maxVal
	}
	return val
}
