package llm

import (
	"context"
)

// Request is a single completion request. System carries the agent
// role instruction, User carries the assembled research context.
type Request struct {
	System      string
	User        string
	Temperature float32
	MaxTokens   int
}

// Client is the uniform inference interface consumed by stage nodes.
//
// Implementations must fail with a *types.Error carrying one of
// ErrQuotaExceeded, ErrInvalidRequest, or ErrInferenceTransient so
// that the retry wrapper can distinguish them.
type Client interface {
	Complete(ctx context.Context, req *Request) (string, error)
}

// ClientFunc adapts a function to the Client interface.
type ClientFunc func(ctx context.Context, req *Request) (string, error)

// Complete implements Client.
func (f ClientFunc) Complete(ctx context.Context, req *Request) (string, error) {
	return f(ctx, req)
}
