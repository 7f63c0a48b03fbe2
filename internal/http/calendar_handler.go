package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/silab/internal/calendar"
)

type calendarService interface {
	WeekGrid(ctx context.Context, anchor time.Time) (calendar.WeekGrid, error)
}

type CalendarHandler struct {
	service   calendarService
	responder responder
	logger    *slog.Logger
}

func NewCalendarHandler(service calendarService, logger *slog.Logger) *CalendarHandler {
	base := defaultLogger(logger)
	return &CalendarHandler{service: service, responder: newResponder(base), logger: base}
}

// Week handles GET /calendar. The optional week parameter (YYYY-MM-DD) selects
// the week containing that date; it defaults to the current week.
func (h *CalendarHandler) Week(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var anchor time.Time
	if week := strings.TrimSpace(r.URL.Query().Get("week")); week != "" {
		ts, err := time.ParseInLocation("2006-01-02", week, calendar.Location)
		if err != nil {
			h.responder.writeJSON(r.Context(), w, http.StatusBadRequest, errorResponse{
				Errors:  map[string]string{"week": "Format tanggal harus YYYY-MM-DD."},
				Message: "Parameter minggu tidak valid.",
			})
			return
		}
		anchor = ts
	}

	grid, err := h.service.WeekGrid(r.Context(), anchor)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toWeekGridDTO(grid))
}

type weekGridDTO struct {
	WeekStart string       `json:"week_start"`
	Days      []string     `json:"days"`
	Rows      []gridRowDTO `json:"rows"`
}

type gridRowDTO struct {
	Room  gridRoomDTO   `json:"room"`
	Cells []gridCellDTO `json:"cells"`
}

type gridRoomDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type gridCellDTO struct {
	Day     string         `json:"day"`
	Entries []gridEntryDTO `json:"entries"`
}

type gridEntryDTO struct {
	ID            string `json:"id"`
	RoomID        string `json:"room_id"`
	RoomName      string `json:"room_name"`
	RequesterName string `json:"requester_name"`
	Purpose       string `json:"purpose"`
	Start         string `json:"start"`
	End           string `json:"end"`
	Status        string `json:"status"`
}

func toWeekGridDTO(grid calendar.WeekGrid) weekGridDTO {
	dto := weekGridDTO{
		WeekStart: grid.WeekStart.Format("2006-01-02"),
		Days:      make([]string, 0, len(grid.Days)),
		Rows:      make([]gridRowDTO, 0, len(grid.Rows)),
	}
	for _, day := range grid.Days {
		dto.Days = append(dto.Days, day.Format("2006-01-02"))
	}
	for _, row := range grid.Rows {
		rowDTO := gridRowDTO{
			Room:  gridRoomDTO{ID: row.Room.ID, Name: row.Room.Name},
			Cells: make([]gridCellDTO, 0, len(row.Cells)),
		}
		for _, cell := range row.Cells {
			cellDTO := gridCellDTO{Day: cell.Day.Format("2006-01-02")}
			for _, entry := range cell.Entries {
				cellDTO.Entries = append(cellDTO.Entries, gridEntryDTO{
					ID:            entry.ID,
					RoomID:        entry.RoomID,
					RoomName:      entry.RoomName,
					RequesterName: entry.RequesterName,
					Purpose:       entry.Purpose,
					Start:         entry.Start.UTC().Format(time.RFC3339Nano),
					End:           entry.End.UTC().Format(time.RFC3339Nano),
					Status:        string(entry.Status),
				})
			}
			rowDTO.Cells = append(rowDTO.Cells, cellDTO)
		}
		dto.Rows = append(dto.Rows, rowDTO)
	}
	return dto
}
