package telegram

import (
	"errors"
	"fmt"
)

var (
	// ErrNoToken is returned when no bot token is configured.
	ErrNoToken = errors.New("telegram: bot token is required")

	// ErrAPI is wrapped by every *APIError.
	ErrAPI = errors.New("telegram: api error")
)

// APIError is an error reply from the Bot API.
type APIError struct {
	Method      string
	Code        int
	Description string
	// RetryAfter is set when the API asks the caller to slow down.
	RetryAfter int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram: %s: %d %s", e.Method, e.Code, e.Description)
}

// Unwrap makes errors.Is(err, ErrAPI) hold.
func (e *APIError) Unwrap() error {
	return ErrAPI
}
