package attendance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/database/mock"
)

func TestMarkRecordsOncePerDay(t *testing.T) {
	store := mock.NewAttendanceStore()
	fixed := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	ledger := NewLedger(store).WithClock(func() time.Time { return fixed })

	outcome, err := ledger.Mark(context.Background(), 7)
	if err != nil {
		t.Fatalf("first mark failed: %v", err)
	}
	if outcome != database.Recorded {
		t.Errorf("expected Recorded, got %s", outcome)
	}

	outcome, err = ledger.Mark(context.Background(), 7)
	if err != nil {
		t.Fatalf("second mark failed: %v", err)
	}
	if outcome != database.AlreadyMarked {
		t.Errorf("expected AlreadyMarked, got %s", outcome)
	}

	records := store.Records()
	if len(records) != 1 {
		t.Fatalf("expected exactly one record, got %d", len(records))
	}
	if records[0].Date != "2025-03-14" {
		t.Errorf("unexpected date %q", records[0].Date)
	}
	if records[0].TimeOfDay != "09:26:53" {
		t.Errorf("unexpected time %q", records[0].TimeOfDay)
	}
}

func TestMarkDifferentDays(t *testing.T) {
	store := mock.NewAttendanceStore()
	day := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
	ledger := NewLedger(store).WithClock(func() time.Time { return day })

	if _, err := ledger.Mark(context.Background(), 7); err != nil {
		t.Fatalf("mark failed: %v", err)
	}

	day = day.AddDate(0, 0, 1)
	outcome, err := ledger.Mark(context.Background(), 7)
	if err != nil {
		t.Fatalf("mark failed: %v", err)
	}
	if outcome != database.Recorded {
		t.Errorf("expected Recorded on the next day, got %s", outcome)
	}
	if got := len(store.Records()); got != 2 {
		t.Errorf("expected two records, got %d", got)
	}
}

func TestMarkStoreError(t *testing.T) {
	store := mock.NewAttendanceStore()
	store.MarkError = errors.New("connection refused")
	ledger := NewLedger(store)

	if _, err := ledger.Mark(context.Background(), 7); err == nil {
		t.Error("expected error from failing store")
	}
}
