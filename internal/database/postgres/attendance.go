package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/kozaktomas/face-attendance/internal/database"
)

// AttendanceRepository provides PostgreSQL-backed attendance storage.
// The UNIQUE (student_id, date) constraint is the source of truth for the
// once-per-day guarantee; no application-level locking is needed.
type AttendanceRepository struct {
	pool *Pool
}

// NewAttendanceRepository creates a new PostgreSQL attendance repository.
func NewAttendanceRepository(pool *Pool) *AttendanceRepository {
	return &AttendanceRepository{pool: pool}
}

// MarkAttendance inserts an attendance row unless one exists for the
// student and date. Under concurrent requests for the same student and
// day exactly one insert wins; the rest see AlreadyMarked.
func (r *AttendanceRepository) MarkAttendance(ctx context.Context, studentID int64, date, timeOfDay string) (database.AttendanceOutcome, error) {
	query := `
		INSERT INTO attendance (student_id, date, time)
		VALUES ($1, $2, $3)
		ON CONFLICT ON CONSTRAINT attendance_once_per_day DO NOTHING
	`
	result, err := r.pool.Exec(ctx, query, studentID, date, timeOfDay)
	if err != nil {
		// A unique violation can still surface from races with other
		// constraints or older schemas; it means the row exists.
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return database.AlreadyMarked, nil
		}
		return 0, fmt.Errorf("insert attendance: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("insert attendance result: %w", err)
	}
	if rows == 0 {
		return database.AlreadyMarked, nil
	}
	return database.Recorded, nil
}

// ListAttendance returns attendance joined with student attributes,
// newest first.
func (r *AttendanceRepository) ListAttendance(ctx context.Context) ([]database.AttendanceRecord, error) {
	query := `
		SELECT a.id, a.student_id,
		       TO_CHAR(a.date, 'YYYY-MM-DD'), TO_CHAR(a.time, 'HH24:MI:SS'),
		       s.name, s.roll_number, s.department, s.year
		FROM attendance a
		JOIN students s ON s.id = a.student_id
		ORDER BY a.date DESC, a.time DESC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query attendance: %w", err)
	}
	defer rows.Close()

	var records []database.AttendanceRecord
	for rows.Next() {
		var rec database.AttendanceRecord
		if err := rows.Scan(
			&rec.ID, &rec.StudentID, &rec.Date, &rec.TimeOfDay,
			&rec.Name, &rec.RollNumber, &rec.Department, &rec.Year,
		); err != nil {
			return nil, fmt.Errorf("scan attendance record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attendance records: %w", err)
	}
	return records, nil
}
