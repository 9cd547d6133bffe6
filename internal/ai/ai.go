// Package ai defines the text generation capability used by advisories.
package ai

import "context"

// Generator turns a prompt into text. Implementations may fail or block until ctx is
// done; they do not retry.
type Generator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
	Model() string
}
