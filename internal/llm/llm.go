package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Client generates text from a language model. Implementations do not retry.
type Client interface {
	Generate(ctx context.Context, model, systemPrompt, userPrompt string) (string, error)
}

var (
	// ErrModelRequired is returned when no model identifier is given.
	ErrModelRequired = errors.New("llm model is required")
	// ErrAuth covers missing credentials and 401/403 answers from a provider.
	ErrAuth = errors.New("llm authentication failed")
	// ErrRemoteCall is matched by every *CallError.
	ErrRemoteCall = errors.New("llm remote call failed")
	// ErrMalformedReply is returned for empty or unparseable replies.
	ErrMalformedReply = errors.New("llm reply malformed")
)

// CallError describes a failed provider call: network failure, timeout,
// rate limiting or any non-auth error status.
type CallError struct {
	Provider string
	Status   int
	Timeout  bool
	Err      error
}

func (e *CallError) Error() string {
	switch {
	case e.Timeout:
		return fmt.Sprintf("%s call timed out: %v", e.Provider, e.Err)
	case e.Status != 0:
		return fmt.Sprintf("%s call failed with status %d: %v", e.Provider, e.Status, e.Err)
	default:
		return fmt.Sprintf("%s call failed: %v", e.Provider, e.Err)
	}
}

func (e *CallError) Unwrap() error { return e.Err }

func (e *CallError) Is(target error) bool { return target == ErrRemoteCall }

// NewCallError builds a CallError and flags context deadlines and network timeouts.
func NewCallError(provider string, status int, err error) *CallError {
	ce := &CallError{Provider: provider, Status: status, Err: err}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		ce.Timeout = true
	}
	return ce
}

// StatusError maps a provider HTTP status to ErrAuth or a *CallError.
func StatusError(provider string, status int, err error) error {
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return fmt.Errorf("%w: %s status %d: %v", ErrAuth, provider, status, err)
	}
	return NewCallError(provider, status, err)
}

// MissingCredential reports a provider that was never configured.
func MissingCredential(provider string) error {
	return fmt.Errorf("%w: no credential configured for %s", ErrAuth, provider)
}

// IsTimeout reports whether err is a timed out provider call.
func IsTimeout(err error) bool {
	var ce *CallError
	return errors.As(err, &ce) && ce.Timeout
}
