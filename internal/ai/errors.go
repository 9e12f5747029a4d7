package ai

import (
	"errors"
	"fmt"
	"net/http"
)

// Gateway failures are classified at the gateway boundary; no raw
// transport or decode error escapes to a caller untagged.
var (
	// ErrRateLimited marks an HTTP 429 from the completion backend.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrInvalidCredential marks an HTTP 401 or 403. Match with
	// errors.Is; the concrete value is a *CredentialError carrying
	// the status for the user-facing message.
	ErrInvalidCredential = errors.New("invalid credential")
)

// CredentialError is returned for 401/403 responses. The two statuses
// produce distinct user-facing messages but share one taxonomy tag.
type CredentialError struct {
	Status int
}

func (e *CredentialError) Error() string {
	if e.Status == http.StatusForbidden {
		return "Access denied. Please check your Gemini API key permissions."
	}
	return "Invalid API key. Please check your Gemini API key."
}

func (e *CredentialError) Is(target error) bool {
	return target == ErrInvalidCredential
}

// BackendError is any non-2xx response that is not a rate limit or
// credential failure.
type BackendError struct {
	Status  int
	Message string
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("Gemini API error: %d - %s", e.Status, e.Message)
}

// TransportError wraps network and response-decoding failures.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// classifyStatus maps a non-2xx response to the error taxonomy.
func classifyStatus(status int, message string) error {
	switch status {
	case http.StatusTooManyRequests:
		return ErrRateLimited
	case http.StatusUnauthorized, http.StatusForbidden:
		return &CredentialError{Status: status}
	default:
		if message == "" {
			message = "Unknown error"
		}
		return &BackendError{Status: status, Message: message}
	}
}

// Humanize renders a gateway error as the string shown to the user.
// Rate-limit and credential failures get dedicated wording; everything
// else surfaces the backend's own message.
func Humanize(err error) string {
	if err == nil {
		return ""
	}
	var credErr *CredentialError
	switch {
	case errors.Is(err, ErrRateLimited):
		return "Rate limit exceeded. Please wait a moment and try again."
	case errors.As(err, &credErr):
		return credErr.Error()
	}
	var backendErr *BackendError
	if errors.As(err, &backendErr) {
		return backendErr.Error()
	}
	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return transportErr.Err.Error()
	}
	return err.Error()
}
