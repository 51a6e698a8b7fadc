// Package matching identifies a person from a probe embedding by linear
// nearest-neighbor search over all enrolled galleries.
package matching

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/embedding"
	"github.com/kozaktomas/face-attendance/internal/gallery"
)

// Decision is the outcome of identifying one probe embedding.
type Decision struct {
	Matched  bool
	Student  database.Student
	Distance float64
}

// Engine scans every enrolled gallery for the closest match.
//
// The scan is brute force on purpose: the decision rule requires the
// exact minimum distance per gallery, and galleries stay small enough
// that a linear pass per request is cheap. An approximate index would
// change the semantics, not just the speed.
type Engine struct {
	students  database.StudentReader
	galleries gallery.Store
	threshold float64
}

// NewEngine creates a matching engine with the given decision threshold.
// The threshold is a calibration parameter of the (extractor, metric)
// pair and always comes from configuration.
func NewEngine(students database.StudentReader, galleries gallery.Store, threshold float64) *Engine {
	return &Engine{students: students, galleries: galleries, threshold: threshold}
}

// Threshold returns the configured decision threshold.
func (e *Engine) Threshold() float64 {
	return e.threshold
}

// Identify scores the probe against every vector of every enrolled
// gallery. A gallery's score is its minimum distance over all vectors
// (a person matches if any of their enrolled photos is close enough).
// Galleries are enumerated in ListEnrolled order and exact ties keep
// the earlier person, so results are deterministic.
//
// A storage failure on one person's gallery skips that person and the
// scan continues. A probe whose length disagrees with the gallery
// dimensionality aborts with embedding.DimensionError.
func (e *Engine) Identify(ctx context.Context, probe []float32) (Decision, error) {
	students, err := e.students.ListEnrolled(ctx)
	if err != nil {
		return Decision{}, fmt.Errorf("list enrolled students: %w", err)
	}

	best := Decision{}
	for _, student := range students {
		vectors, err := e.galleries.Read(ctx, student.GalleryRef)
		if err != nil {
			var dimErr *embedding.DimensionError
			if errors.As(err, &dimErr) {
				return Decision{}, err
			}
			log.Printf("matching: skipping %s: %v", student.RollNumber, err)
			continue
		}
		if len(vectors) == 0 {
			continue
		}

		if err := embedding.CheckDimension(len(vectors[0]), len(probe)); err != nil {
			return Decision{}, err
		}

		minDist := embedding.CosineDistance(probe, vectors[0])
		for _, vec := range vectors[1:] {
			if d := embedding.CosineDistance(probe, vec); d < minDist {
				minDist = d
			}
		}

		if minDist > e.threshold {
			continue
		}
		// Strictly smaller wins; an exact tie keeps the earlier student.
		if !best.Matched || minDist < best.Distance {
			best = Decision{Matched: true, Student: student, Distance: minDist}
		}
	}

	return best, nil
}
