package calendar

import (
	"testing"
	"time"

	"github.com/example/silab/internal/booking"
)

func date(year int, month time.Month, day, hour, minute int) time.Time {
	return time.Date(year, month, day, hour, minute, 0, 0, Location)
}

func TestWeekStart(t *testing.T) {
	t.Run("monday maps to itself", func(t *testing.T) {
		monday := date(2025, time.January, 6, 10, 30)
		got := WeekStart(monday)
		want := date(2025, time.January, 6, 0, 0)
		if !got.Equal(want) {
			t.Fatalf("WeekStart = %v, want %v", got, want)
		}
	})

	t.Run("sunday steps back six days", func(t *testing.T) {
		sunday := date(2025, time.January, 12, 23, 59)
		got := WeekStart(sunday)
		want := date(2025, time.January, 6, 0, 0)
		if !got.Equal(want) {
			t.Fatalf("WeekStart = %v, want %v", got, want)
		}
	})

	t.Run("idempotent over a range of dates", func(t *testing.T) {
		start := date(2024, time.December, 20, 0, 0)
		for i := 0; i < 30; i++ {
			d := start.AddDate(0, 0, i)
			once := WeekStart(d)
			twice := WeekStart(once)
			if !once.Equal(twice) {
				t.Fatalf("WeekStart not idempotent for %v: %v vs %v", d, once, twice)
			}
			if once.Weekday() != time.Monday {
				t.Fatalf("WeekStart(%v) = %v is not a Monday", d, once)
			}
			if once.After(d) {
				t.Fatalf("WeekStart(%v) = %v is after its anchor", d, once)
			}
		}
	})
}

func TestWeekDays(t *testing.T) {
	days := WeekDays(WeekStart(date(2025, time.January, 10, 15, 0)))

	if days[0].Weekday() != time.Monday {
		t.Fatalf("week must start on Monday, got %v", days[0].Weekday())
	}
	for i := 1; i < len(days); i++ {
		if got := days[i].Sub(days[i-1]); got != 24*time.Hour {
			t.Fatalf("days %d and %d are %v apart, want 24h", i-1, i, got)
		}
	}
}

func TestProject(t *testing.T) {
	rooms := []Room{
		{ID: "room-1", Name: "Lab Komputer 1"},
		{ID: "room-2", Name: "Lab Jaringan"},
	}

	entries := []Entry{
		{ID: "b-1", RoomID: "room-1", RoomName: "Lab Komputer 1", Purpose: "Praktikum", Start: date(2025, time.January, 10, 10, 0), End: date(2025, time.January, 10, 12, 0), Status: booking.StatusApproved},
		{ID: "b-2", RoomID: "room-1", RoomName: "Lab Komputer 1", Purpose: "Kuliah Tamu", Start: date(2025, time.January, 10, 8, 0), End: date(2025, time.January, 10, 10, 0), Status: booking.StatusPending},
		{ID: "b-3", RoomID: "room-1", RoomName: "Lab Komputer 1", Purpose: "Ditolak", Start: date(2025, time.January, 10, 13, 0), End: date(2025, time.January, 10, 14, 0), Status: booking.StatusRejected},
		{ID: "b-4", RoomID: "room-2", RoomName: "Lab Jaringan", Purpose: "Skripsi", Start: date(2025, time.January, 8, 13, 0), End: date(2025, time.January, 8, 15, 0), Status: booking.StatusApproved},
		{ID: "b-5", RoomID: "room-1", RoomName: "Lab Komputer 1", Purpose: "Minggu lain", Start: date(2025, time.January, 17, 8, 0), End: date(2025, time.January, 17, 10, 0), Status: booking.StatusApproved},
	}

	grid := Project(rooms, entries, date(2025, time.January, 10, 9, 30))

	if want := date(2025, time.January, 6, 0, 0); !grid.WeekStart.Equal(want) {
		t.Fatalf("grid week start = %v, want %v", grid.WeekStart, want)
	}
	if len(grid.Rows) != 2 {
		t.Fatalf("expected one row per room, got %d", len(grid.Rows))
	}

	// 2025-01-10 is the Friday of the projected week (index 4).
	friday := grid.Rows[0].Cells[4]
	if len(friday.Entries) != 2 {
		t.Fatalf("expected two active entries on Friday, got %d", len(friday.Entries))
	}
	if friday.Entries[0].ID != "b-2" || friday.Entries[1].ID != "b-1" {
		t.Fatalf("expected entries ordered by start time, got %q then %q", friday.Entries[0].ID, friday.Entries[1].ID)
	}

	// The rejected entry renders nowhere.
	for _, row := range grid.Rows {
		for _, cell := range row.Cells {
			for _, entry := range cell.Entries {
				if entry.ID == "b-3" {
					t.Fatalf("rejected entry must not render on the grid")
				}
				if entry.ID == "b-5" {
					t.Fatalf("entry from another week must not render on this grid")
				}
			}
		}
	}

	wednesday := grid.Rows[1].Cells[2]
	if len(wednesday.Entries) != 1 || wednesday.Entries[0].ID != "b-4" {
		t.Fatalf("expected b-4 in room-2 Wednesday cell, got %v", wednesday.Entries)
	}

	// Saturday of room-1 stays empty.
	if got := grid.Rows[0].Cells[5].Entries; len(got) != 0 {
		t.Fatalf("expected empty Saturday cell, got %v", got)
	}
}

func TestProjectIsPure(t *testing.T) {
	rooms := []Room{{ID: "room-1", Name: "Lab Komputer 1"}}
	entries := []Entry{
		{ID: "b-1", RoomID: "room-1", Start: date(2025, time.January, 10, 8, 0), End: date(2025, time.January, 10, 10, 0), Status: booking.StatusPending},
	}

	first := Project(rooms, entries, date(2025, time.January, 10, 0, 0))
	second := Project(rooms, entries, date(2025, time.January, 10, 0, 0))

	if !first.WeekStart.Equal(second.WeekStart) || len(first.Rows) != len(second.Rows) {
		t.Fatalf("repeated projection diverged")
	}
	if len(first.Rows[0].Cells[4].Entries) != len(second.Rows[0].Cells[4].Entries) {
		t.Fatalf("repeated projection produced different cells")
	}
}
