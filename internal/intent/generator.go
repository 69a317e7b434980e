// Package intent turns a free-text user request into a normalized, validated
// Intent via an external language model.
//
// The model boundary is a single fallible conversion: the generator returns
// opaque JSON, and nothing past Normalize trusts its shape.
package intent

import "context"

// Generator produces the raw intent payload for a user message. The returned
// bytes are untrusted JSON; callers must normalize before use.
//
// Implementations must honor ctx cancellation — the tool-call timeout is
// enforced through it.
type Generator interface {
	Generate(ctx context.Context, message string) ([]byte, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, message string) ([]byte, error)

func (f GeneratorFunc) Generate(ctx context.Context, message string) ([]byte, error) {
	return f(ctx, message)
}

// GenerationError reports a failure of the external model call: transport
// error, timeout, or a top-level response that is not JSON.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return "intent generation failed: " + e.Err.Error()
}

func (e *GenerationError) Unwrap() error { return e.Err }

// InvalidError reports that the normalized payload failed component schema
// validation. Deliberately not retried and never degraded to a canned
// answer: a broken payload surfaces as an error.
type InvalidError struct {
	Err error
}

func (e *InvalidError) Error() string {
	return "invalid intent: " + e.Err.Error()
}

func (e *InvalidError) Unwrap() error { return e.Err }
