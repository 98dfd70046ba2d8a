package ports

import (
	"context"
	"errors"

	"github.com/maitre-bot/maitre/pkg/schema"
)

// ErrNoExtraction is returned by an Extractor that could not confidently
// produce a value for the target schema. It is a typed failure, distinct
// from an extracted-but-empty value: extractors must return it explicitly.
// The engine treats it exactly like a direct-validator failure.
var ErrNoExtraction = errors.New("no confident extraction")

// Extractor delegates free-text-to-structured-data parsing to an external
// language-model-backed service.
//
// Implementations receive the state's natural-language instruction, the
// target schema, the raw user input, and a read-only view of the
// conversation context (for cross-field hints such as categories already
// chosen). They return a map keyed by the target schema's fields, or
// ErrNoExtraction (possibly wrapped).
//
// Cancellation and timeouts are treated by the engine as ErrNoExtraction.
type Extractor interface {
	Extract(ctx context.Context, instruction string, target schema.Schema, input string, convCtx map[string]any) (map[string]any, error)
}

// ExtractorFunc adapts a function to the Extractor interface.
type ExtractorFunc func(ctx context.Context, instruction string, target schema.Schema, input string, convCtx map[string]any) (map[string]any, error)

// Extract implements Extractor.
func (f ExtractorFunc) Extract(ctx context.Context, instruction string, target schema.Schema, input string, convCtx map[string]any) (map[string]any, error) {
	return f(ctx, instruction, target, input, convCtx)
}
