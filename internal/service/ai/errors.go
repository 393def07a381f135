package ai

import "fmt"

// ErrorKind classifies generation failures for programmatic callers.
type ErrorKind string

const (
	ErrKindConfig    ErrorKind = "configuration"
	ErrKindRateLimit ErrorKind = "rate_limited"
	ErrKindHTTP      ErrorKind = "http"
	ErrKindTransport ErrorKind = "transport"
	ErrKindMalformed ErrorKind = "malformed_response"
)

// Display strings surface verbatim in the chat transcript, so they keep
// the frontend's markdown conventions.
const (
	configErrorText       = "⚠️ **Configuration Error:** The `GEMINI_API_KEY` is not set in your `.env` file."
	malformedResponseText = "⚠️ **API Response Error:** The Gemini API returned an empty or unexpected response structure."
	retriesExhaustedText  = "⚠️ **Error:** Failed to get a response after multiple retries due to rate limiting."

	httpErrorFormat       = "⚠️ **HTTP Error (Gemini):** Status %d. Error: %s"
	connectionErrorFormat = "⚠️ **Connection Error (Gemini):** %v"
)

// Error is a generation failure carrying both a classification and the
// exact text to show in the conversation.
type Error struct {
	Kind    ErrorKind
	Display string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("gemini %s error: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("gemini %s error", e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }
