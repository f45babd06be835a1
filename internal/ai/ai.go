package ai

import "context"

// Generator produces free-form text from a prompt. Implementations talk to an
// external model; a nil Generator means the deterministic fallbacks are the
// only path available.
type Generator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
	Model() string
}
