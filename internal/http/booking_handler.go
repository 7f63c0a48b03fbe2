package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/silab/internal/application"
	"github.com/example/silab/internal/booking"
)

type bookingService interface {
	Submit(ctx context.Context, params application.SubmitBookingParams) (application.Booking, error)
	Transition(ctx context.Context, params application.TransitionBookingParams) (application.Booking, error)
	Get(ctx context.Context, principal application.Principal, id string) (application.Booking, error)
	List(ctx context.Context, params application.ListBookingsParams) ([]application.Booking, error)
	Dashboard(ctx context.Context, principal application.Principal) (application.DashboardSummary, error)
}

type BookingHandler struct {
	service   bookingService
	responder responder
	logger    *slog.Logger
}

func NewBookingHandler(service bookingService, logger *slog.Logger) *BookingHandler {
	base := defaultLogger(logger)
	return &BookingHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *BookingHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "BookingHandler", operation, attrs...)
}

// Submit handles POST /bookings.
func (h *BookingHandler) Submit(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req bookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Submit", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode booking request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	result, err := h.service.Submit(r.Context(), application.SubmitBookingParams{
		Principal: principal,
		Input:     req.toInput(),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, bookingResponse{Booking: toBookingDTO(result)})
}

// Transition handles PATCH /bookings/{id}.
func (h *BookingHandler) Transition(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	bookingID, ok := BookingIDFromContext(r.Context())
	if !ok || strings.TrimSpace(bookingID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidBookingID)
		return
	}

	var req transitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Transition", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode transition request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	result, err := h.service.Transition(r.Context(), application.TransitionBookingParams{
		Principal: principal,
		BookingID: bookingID,
		NewStatus: booking.Status(strings.TrimSpace(req.Status)),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, bookingResponse{Booking: toBookingDTO(result)})
}

// Get handles GET /bookings/{id}.
func (h *BookingHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	bookingID, ok := BookingIDFromContext(r.Context())
	if !ok || strings.TrimSpace(bookingID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidBookingID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	result, err := h.service.Get(r.Context(), principal, bookingID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, bookingResponse{Booking: toBookingDTO(result)})
}

// List handles GET /bookings.
func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	query := r.URL.Query()
	params := application.ListBookingsParams{
		Principal: principal,
		Scope:     application.ListScopeMine,
		Status:    booking.Status(strings.TrimSpace(query.Get("status"))),
		RoomID:    strings.TrimSpace(query.Get("room_id")),
	}
	if strings.TrimSpace(query.Get("scope")) == string(application.ListScopeAll) {
		params.Scope = application.ListScopeAll
	}

	results, err := h.service.List(r.Context(), params)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listBookingsResponse{Bookings: toBookingDTOs(results)})
}

// Dashboard handles GET /dashboard.
func (h *BookingHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	summary, err := h.service.Dashboard(r.Context(), principal)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, dashboardResponse{
		PendingBookings:      summary.PendingBookings,
		ApprovedBookings:     summary.ApprovedBookings,
		Rooms:                summary.Rooms,
		EquipmentItems:       summary.EquipmentItems,
		EquipmentMaintenance: summary.EquipmentMaintenance,
	})
}

type bookingRequest struct {
	RoomID  string `json:"room_id"`
	Start   string `json:"start"`
	End     string `json:"end"`
	Purpose string `json:"purpose"`
}

func (r bookingRequest) toInput() application.BookingInput {
	return application.BookingInput{
		RoomID:  strings.TrimSpace(r.RoomID),
		Start:   parseTimestamp(r.Start),
		End:     parseTimestamp(r.End),
		Purpose: r.Purpose,
	}
}

type transitionRequest struct {
	Status string `json:"status"`
}

func parseTimestamp(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	if ts, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return ts
	}
	if ts, err := time.Parse(time.RFC3339, value); err == nil {
		return ts
	}
	return time.Time{}
}

type bookingResponse struct {
	Booking bookingDTO `json:"booking"`
}

type listBookingsResponse struct {
	Bookings []bookingDTO `json:"bookings"`
}

type dashboardResponse struct {
	PendingBookings      int `json:"pending_bookings"`
	ApprovedBookings     int `json:"approved_bookings"`
	Rooms                int `json:"rooms"`
	EquipmentItems       int `json:"equipment_items"`
	EquipmentMaintenance int `json:"equipment_maintenance"`
}

type bookingDTO struct {
	ID            string  `json:"id"`
	RequesterID   string  `json:"requester_id"`
	RequesterName string  `json:"requester_name"`
	RoomID        string  `json:"room_id"`
	RoomName      string  `json:"room_name"`
	Start         string  `json:"start"`
	End           string  `json:"end"`
	Purpose       string  `json:"purpose"`
	Status        string  `json:"status"`
	DecidedBy     *string `json:"decided_by,omitempty"`
	DecidedAt     *string `json:"decided_at,omitempty"`
	CreatedAt     string  `json:"created_at"`
	UpdatedAt     string  `json:"updated_at"`
}

func toBookingDTO(b application.Booking) bookingDTO {
	dto := bookingDTO{
		ID:            b.ID,
		RequesterID:   b.RequesterID,
		RequesterName: b.RequesterName,
		RoomID:        b.RoomID,
		RoomName:      b.RoomName,
		Start:         b.Start.UTC().Format(time.RFC3339Nano),
		End:           b.End.UTC().Format(time.RFC3339Nano),
		Purpose:       b.Purpose,
		Status:        string(b.Status),
		DecidedBy:     b.DecidedBy,
		CreatedAt:     b.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:     b.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
	if b.DecidedAt != nil {
		decidedAt := b.DecidedAt.UTC().Format(time.RFC3339Nano)
		dto.DecidedAt = &decidedAt
	}
	return dto
}

func toBookingDTOs(bookings []application.Booking) []bookingDTO {
	if len(bookings) == 0 {
		return nil
	}
	out := make([]bookingDTO, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, toBookingDTO(b))
	}
	return out
}
