package metagen

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindDataUnavailable     Kind = "data_unavailable"
	KindPromptFailed        Kind = "prompt_failed"
	KindTimeout             Kind = "timeout"
	KindCanceled            Kind = "canceled"
	KindUpstreamError       Kind = "upstream_error"
	KindMalformedResponse   Kind = "malformed_response"
	KindInsufficientContent Kind = "insufficient_content"
	KindPricingUnavailable  Kind = "pricing_unavailable"
)

// ErrEmptyActivity rejects a request before the pipeline starts.
var ErrEmptyActivity = errors.New("activity must not be empty")

// Error is the typed failure every pipeline stage surfaces. Stage and
// Attempts are filled in by the orchestrator when the error crosses a stage
// boundary.
type Error struct {
	Kind     Kind
	Stage    Stage
	Attempts int
	Err      error
}

func (e *Error) Error() string {
	if e == nil {
		return "generation error"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

func errorf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// KindOf extracts the pipeline error kind, or "" for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
