// Package extractor calls the external face embedding server.
// The server is an opaque collaborator: it takes one image and returns
// one fixed-length embedding vector for the dominant face.
package extractor

import (
	"context"
	"fmt"
)

// Extractor produces a face embedding from raw image bytes.
// Implementations must honor context cancellation and deadlines.
type Extractor interface {
	Extract(ctx context.Context, image []byte) ([]float32, error)
}

// ExtractionError indicates that no usable embedding could be produced
// from an image. During enrollment the photo is skipped; during matching
// the whole request fails with no attendance side effect.
type ExtractionError struct {
	Cause error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("face embedding extraction failed: %v", e.Cause)
}

func (e *ExtractionError) Unwrap() error {
	return e.Cause
}
