// Package calendar derives weekly room-by-day display grids from a snapshot of
// booking requests. Projection is a pure function of its inputs: it never
// mutates the ledger and may be invoked any number of times for the same week.
package calendar

import (
	"sort"
	"time"

	"github.com/example/silab/internal/booking"
)

// Location is the timezone all grid day boundaries are computed in. The lab
// operates on Western Indonesia Time.
var Location = time.FixedZone("WIB", 7*60*60)

// Room identifies a bookable room rendered as a grid row.
type Room struct {
	ID   string
	Name string
}

// Entry is the display projection of a single booking request.
type Entry struct {
	ID            string
	RoomID        string
	RoomName      string
	RequesterName string
	Purpose       string
	Start         time.Time
	End           time.Time
	Status        booking.Status
}

// Cell holds the entries for one room on one day, ordered by start time.
type Cell struct {
	Day     time.Time
	Entries []Entry
}

// Row holds the seven day cells of a single room.
type Row struct {
	Room  Room
	Cells [7]Cell
}

// WeekGrid is the full room-by-day projection for one Monday-start week.
type WeekGrid struct {
	WeekStart time.Time
	Days      [7]time.Time
	Rows      []Row
}

// WeekStart returns midnight of the Monday on or before anchor, in WIB.
// Applying it to its own result yields the same instant.
func WeekStart(anchor time.Time) time.Time {
	day := startOfDay(anchor)
	// Go numbers Sunday as 0; shift so Monday becomes offset 0.
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// WeekDays expands a week start into its seven consecutive days.
func WeekDays(weekStart time.Time) [7]time.Time {
	var days [7]time.Time
	for i := range days {
		days[i] = weekStart.AddDate(0, 0, i)
	}
	return days
}

// SameDay reports whether two instants fall on the same WIB calendar day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.In(Location).Date()
	by, bm, bd := b.In(Location).Date()
	return ay == by && am == bm && ad == bd
}

// Project builds the week grid containing anchor from the given rooms and
// ledger entries. Only entries still occupying their interval (pending or
// approved) render on the grid; settled entries never appear. Entries within
// a cell are ordered by start time, then by identifier for stability.
func Project(rooms []Room, entries []Entry, anchor time.Time) WeekGrid {
	grid := WeekGrid{WeekStart: WeekStart(anchor)}
	grid.Days = WeekDays(grid.WeekStart)

	byRoom := make(map[string][]Entry, len(rooms))
	for _, entry := range entries {
		if !entry.Status.Active() {
			continue
		}
		byRoom[entry.RoomID] = append(byRoom[entry.RoomID], entry)
	}

	grid.Rows = make([]Row, 0, len(rooms))
	for _, room := range rooms {
		row := Row{Room: room}
		for i, day := range grid.Days {
			row.Cells[i] = Cell{Day: day, Entries: cellEntries(byRoom[room.ID], day)}
		}
		grid.Rows = append(grid.Rows, row)
	}
	return grid
}

func cellEntries(entries []Entry, day time.Time) []Entry {
	var out []Entry
	for _, entry := range entries {
		if SameDay(entry.Start, day) {
			out = append(out, entry)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Start.Equal(out[j].Start) {
			return out[i].ID < out[j].ID
		}
		return out[i].Start.Before(out[j].Start)
	})
	return out
}

func startOfDay(t time.Time) time.Time {
	local := t.In(Location)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, Location)
}
