package llm

import (
	"errors"
	"fmt"
)

// APIError is a failure reported by, or while talking to, a model provider:
// bad credentials, unsupported content, quota, timeouts, broken streams.
type APIError struct {
	Provider   string
	StatusCode int
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s API error: status %d: %s", e.Provider, e.StatusCode, msg)
	}
	return fmt.Sprintf("%s API error: %s", e.Provider, msg)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// WrapAPIError turns any error into an *APIError for the provider.
// Errors that already are APIErrors are returned unchanged.
func WrapAPIError(provider string, err error) error {
	if err == nil {
		return nil
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return err
	}
	return &APIError{Provider: provider, Err: err}
}
