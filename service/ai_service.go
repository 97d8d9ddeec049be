package service

import (
	"context"
)

// TextGenerator is the external text-generation capability. Implementations
// run near-deterministic (low temperature) so repeated identical prompts
// return stable phrasing. A nil TextGenerator means fallback mode: the
// pipeline uses its deterministic local methods instead.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
