package tools

import (
	"errors"
	"fmt"

	"github.com/ai-scheduler/agent-gateway/internal/provider"
)

// ErrorKind classifies tool execution failures.
type ErrorKind string

const (
	// KindMissingCredential means no access token was present.
	KindMissingCredential ErrorKind = "missing_credential"
	// KindInvalidArgument means the arguments violated the tool's schema.
	KindInvalidArgument ErrorKind = "invalid_argument"
	// KindUpstreamFailure means the provider call did not succeed.
	KindUpstreamFailure ErrorKind = "upstream_failure"
)

// Error is a classified tool failure. It never escapes the executor
// boundary as an error: the executor folds it into the tool result string
// so the model can self-correct.
type Error struct {
	Kind    ErrorKind
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Kind == KindUpstreamFailure && e.Status != 0 {
		return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
	}
	return e.Message
}

func errMissingCredential() error {
	return &Error{Kind: KindMissingCredential, Message: "access token not provided"}
}

func errInvalidArgument(format string, args ...any) error {
	return &Error{Kind: KindInvalidArgument, Message: fmt.Sprintf(format, args...)}
}

// classify wraps provider errors into the tool taxonomy; anything that is
// not already classified becomes an upstream failure.
func classify(err error) error {
	var toolErr *Error
	if errors.As(err, &toolErr) {
		return err
	}
	var apiErr *provider.APIError
	if errors.As(err, &apiErr) {
		return &Error{Kind: KindUpstreamFailure, Status: apiErr.Status, Message: apiErr.Message}
	}
	return &Error{Kind: KindUpstreamFailure, Message: err.Error()}
}
