// Package llm wraps the generative-AI collaborator behind a small client
// interface so analyzers and generators can be tested without network access.
package llm

import "context"

// Client issues one prompt and returns the raw model text. Implementations
// must honor ctx cancellation; retrying transport failures is the
// implementation's business, schema validation is the caller's.
type Client interface {
	GenerateJSON(ctx context.Context, systemInstruction, prompt string) (string, error)
}

// ClientFunc adapts a function to the Client interface. Used by tests.
type ClientFunc func(ctx context.Context, systemInstruction, prompt string) (string, error)

func (f ClientFunc) GenerateJSON(ctx context.Context, systemInstruction, prompt string) (string, error) {
	return f(ctx, systemInstruction, prompt)
}
