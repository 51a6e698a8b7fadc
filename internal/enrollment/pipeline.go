// Package enrollment turns a set of raw photos into a person's
// embedding gallery.
package enrollment

import (
	"context"
	"fmt"
	"log"

	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/embedding"
	"github.com/kozaktomas/face-attendance/internal/extractor"
	"github.com/kozaktomas/face-attendance/internal/gallery"
)

// Result reports the outcome of one enrollment run.
type Result struct {
	Handle    string `json:"gallery_ref"`
	Attempted int    `json:"photos_attempted"`
	Succeeded int    `json:"photos_succeeded"`
	Failed    int    `json:"photos_failed"`
}

// ProgressFunc is called after each photo with (done, total).
type ProgressFunc func(done, total int)

// Pipeline extracts embeddings from enrollment photos and commits them
// as a gallery. Extraction failures for individual photos are logged and
// skipped; the gallery is written once at the end, never incrementally.
type Pipeline struct {
	extractor extractor.Extractor
	store     gallery.Store
	students  database.StudentWriter
	progress  ProgressFunc
}

// NewPipeline creates an enrollment pipeline.
func NewPipeline(ext extractor.Extractor, store gallery.Store, students database.StudentWriter) *Pipeline {
	return &Pipeline{extractor: ext, store: store, students: students}
}

// WithProgress sets a progress callback (used by the CLI progress bar).
func (p *Pipeline) WithProgress(fn ProgressFunc) *Pipeline {
	p.progress = fn
	return p
}

// Enroll extracts an embedding from each photo and writes the collected
// vectors as the student's gallery, in input photo order. A run where
// every extraction fails still writes an empty gallery so the student
// stays registered and can be re-enrolled later.
func (p *Pipeline) Enroll(ctx context.Context, rollNumber string, photos [][]byte) (Result, error) {
	student, err := p.students.GetByRollNumber(ctx, rollNumber)
	if err != nil {
		return Result{}, fmt.Errorf("look up student %s: %w", rollNumber, err)
	}

	result := Result{Attempted: len(photos)}

	var vectors [][]float32
	dim := 0
	for i, photo := range photos {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		vec, err := p.extractor.Extract(ctx, photo)
		if err != nil {
			log.Printf("enrollment %s: photo %d/%d skipped: %v", rollNumber, i+1, len(photos), err)
			result.Failed++
			p.report(i+1, len(photos))
			continue
		}

		// The first successful extraction establishes the gallery
		// dimensionality; later vectors must agree or they are dropped
		// as failed photos rather than truncated or padded.
		if dim == 0 {
			dim = len(vec)
		}
		if err := embedding.CheckDimension(dim, len(vec)); err != nil {
			log.Printf("enrollment %s: photo %d/%d skipped: %v", rollNumber, i+1, len(photos), err)
			result.Failed++
			p.report(i+1, len(photos))
			continue
		}

		vectors = append(vectors, vec)
		result.Succeeded++
		p.report(i+1, len(photos))
	}

	handle, err := p.store.Write(ctx, rollNumber, vectors)
	if err != nil {
		return Result{}, fmt.Errorf("write gallery for %s: %w", rollNumber, err)
	}
	result.Handle = handle

	if err := p.students.SetGalleryRef(ctx, student.ID, handle); err != nil {
		return Result{}, fmt.Errorf("set gallery ref for %s: %w", rollNumber, err)
	}

	return result, nil
}

func (p *Pipeline) report(done, total int) {
	if p.progress != nil {
		p.progress(done, total)
	}
}
