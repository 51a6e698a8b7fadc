// Package attendance enforces the once-per-person-per-day ledger.
package attendance

import (
	"context"
	"fmt"
	"time"

	"github.com/kozaktomas/face-attendance/internal/database"
)

// Ledger-facing date and time layouts. The storage layer receives these
// as text and owns the uniqueness of (student, date).
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04:05"
)

// Store is the storage surface the ledger needs.
type Store interface {
	MarkAttendance(ctx context.Context, studentID int64, date, timeOfDay string) (database.AttendanceOutcome, error)
}

// Ledger records attendance events. Marking twice for the same person on
// the same calendar day is always safe: the second call is a no-op that
// reports AlreadyMarked.
type Ledger struct {
	store Store
	now   func() time.Time
}

// NewLedger creates an attendance ledger using the local clock.
func NewLedger(store Store) *Ledger {
	return &Ledger{store: store, now: time.Now}
}

// WithClock overrides the clock (tests).
func (l *Ledger) WithClock(now func() time.Time) *Ledger {
	l.now = now
	return l
}

// Mark records attendance for the student at the current moment.
func (l *Ledger) Mark(ctx context.Context, studentID int64) (database.AttendanceOutcome, error) {
	now := l.now()
	outcome, err := l.store.MarkAttendance(ctx, studentID, now.Format(DateLayout), now.Format(TimeLayout))
	if err != nil {
		return 0, fmt.Errorf("mark attendance for student %d: %w", studentID, err)
	}
	return outcome, nil
}
