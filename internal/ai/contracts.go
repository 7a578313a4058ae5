// Package ai refines regex-extracted invoice fields through an LLM chat
// completion endpoint. It is an optional pipeline stage: callers fall back to
// the pattern-based result whenever the provider errors.
package ai

import "context"

// Provider produces a completion for a system/user prompt pair. Implemented
// by the OpenAI-compatible Client; tests swap in fakes.
type Provider interface {
	Complete(ctx context.Context, system, user string) (string, error)
}
