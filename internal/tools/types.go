package tools

// Status indicates whether a tool call succeeded.
type Status string

// Tool execution statuses.
const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// ErrorCode classifies tool failures so the model can decide whether to
// retry, rephrase, or give up.
type ErrorCode string

// Error codes returned in tool results.
const (
	ErrCodeValidation ErrorCode = "ValidationError"
	ErrCodeExecution  ErrorCode = "ExecutionError"
	ErrCodeNetwork    ErrorCode = "NetworkError"
	ErrCodeTimeout    ErrorCode = "TimeoutError"
)

// Error is a structured tool failure for model consumption.
type Error struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details any       `json:"details,omitempty"`
}

// Result is the uniform envelope every tool returns to the model.
//
// Tools report failures inside the envelope instead of returning a Go
// error: a returned error aborts the whole generation turn, while a
// StatusError result lets the model read the failure and recover, for
// example by falling back to a different tool.
type Result struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   *Error `json:"error,omitempty"`
}
