package llm

import (
	"errors"
	"fmt"
)

// ErrModelCall indicates a language-model call failed. Callers check it
// with errors.Is; the wrapping CallError carries the details.
var ErrModelCall = errors.New("model call failed")

// ErrEmptyCompletion indicates the model returned no choices or an
// empty message. Treated as a failed call rather than an empty answer.
var ErrEmptyCompletion = errors.New("model returned empty completion")

// CallError describes a failed completion call with enough context to
// distinguish it from retrieval or precondition failures.
type CallError struct {
	Model      string // model the call was issued against
	StatusCode int    // HTTP status, 0 for transport errors
	Err        error  // underlying cause
}

func (e *CallError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("model call failed: model=%s status=%d: %v", e.Model, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("model call failed: model=%s: %v", e.Model, e.Err)
}

// Unwrap reports both the sentinel and the underlying cause, so
// errors.Is(err, ErrModelCall) and errors.Is(err, context.Canceled)
// each work as expected.
func (e *CallError) Unwrap() []error {
	return []error{ErrModelCall, e.Err}
}
