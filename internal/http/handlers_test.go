package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/example/silab/internal/application"
	"github.com/example/silab/internal/booking"
	"github.com/example/silab/internal/calendar"
)

type bookingServiceStub struct {
	submitResult     application.Booking
	submitErr        error
	submitted        application.SubmitBookingParams
	transitionResult application.Booking
	transitionErr    error
	transitioned     application.TransitionBookingParams
	listResult       []application.Booking
	listErr          error
	listed           application.ListBookingsParams
	getResult        application.Booking
	getErr           error
	dashboard        application.DashboardSummary
	dashboardErr     error
}

func (s *bookingServiceStub) Submit(ctx context.Context, params application.SubmitBookingParams) (application.Booking, error) {
	s.submitted = params
	return s.submitResult, s.submitErr
}

func (s *bookingServiceStub) Transition(ctx context.Context, params application.TransitionBookingParams) (application.Booking, error) {
	s.transitioned = params
	return s.transitionResult, s.transitionErr
}

func (s *bookingServiceStub) Get(ctx context.Context, principal application.Principal, id string) (application.Booking, error) {
	return s.getResult, s.getErr
}

func (s *bookingServiceStub) List(ctx context.Context, params application.ListBookingsParams) ([]application.Booking, error) {
	s.listed = params
	return s.listResult, s.listErr
}

func (s *bookingServiceStub) Dashboard(ctx context.Context, principal application.Principal) (application.DashboardSummary, error) {
	return s.dashboard, s.dashboardErr
}

type authServiceStub struct {
	result       application.AuthenticateResult
	authErr      error
	revokeErr    error
	revokedToken string
}

func (s *authServiceStub) Authenticate(ctx context.Context, params application.AuthenticateParams) (application.AuthenticateResult, error) {
	return s.result, s.authErr
}

func (s *authServiceStub) RevokeSession(ctx context.Context, token string) error {
	s.revokedToken = token
	return s.revokeErr
}

type calendarServiceStub struct {
	grid   calendar.WeekGrid
	err    error
	anchor time.Time
}

func (s *calendarServiceStub) WeekGrid(ctx context.Context, anchor time.Time) (calendar.WeekGrid, error) {
	s.anchor = anchor
	return s.grid, s.err
}

// stubSession injects a fixed principal the way RequireSession would after a
// successful validation.
func stubSession(principal application.Principal) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(ContextWithPrincipal(r.Context(), principal)))
		})
	}
}

func newBookingRouter(service *bookingServiceStub, principal application.Principal) http.Handler {
	return NewRouter(RouterConfig{
		Bookings:       NewBookingHandler(service, nil),
		RequireSession: stubSession(principal),
	})
}

func decodeErrorResponse(t *testing.T, body *bytes.Buffer) errorResponse {
	t.Helper()
	var resp errorResponse
	if err := json.NewDecoder(body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	return resp
}

func sampleBooking() application.Booking {
	start := time.Date(2025, 3, 10, 2, 0, 0, 0, time.UTC)
	return application.Booking{
		ID:            "booking-1",
		RequesterID:   "user-1",
		RequesterName: "Budi",
		RoomID:        "room-1",
		RoomName:      "Lab Jaringan",
		Start:         start,
		End:           start.Add(2 * time.Hour),
		Purpose:       "Praktikum",
		Status:        booking.StatusPending,
		CreatedAt:     start,
		UpdatedAt:     start,
	}
}

func TestBookingHandler_Submit_Created(t *testing.T) {
	t.Parallel()

	service := &bookingServiceStub{submitResult: sampleBooking()}
	router := newBookingRouter(service, application.Principal{UserID: "user-1", Role: application.RoleStudent})

	body := bytes.NewBufferString(`{"room_id":"room-1","start":"2025-03-10T02:00:00Z","end":"2025-03-10T04:00:00Z","purpose":"Praktikum"}`)
	req := httptest.NewRequest(http.MethodPost, "/bookings", body)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", recorder.Code, recorder.Body.String())
	}
	if service.submitted.Principal.UserID != "user-1" {
		t.Fatalf("expected principal to flow to the service, got %+v", service.submitted.Principal)
	}
	if !service.submitted.Input.Start.Equal(time.Date(2025, 3, 10, 2, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected parsed start: %v", service.submitted.Input.Start)
	}

	var resp bookingResponse
	if err := json.NewDecoder(recorder.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Booking.ID != "booking-1" || resp.Booking.Status != string(booking.StatusPending) {
		t.Fatalf("unexpected booking payload: %+v", resp.Booking)
	}
}

func TestBookingHandler_Submit_ValidationErrorsAreLocalized(t *testing.T) {
	t.Parallel()

	vErr := &application.ValidationError{FieldErrors: map[string]string{
		"purpose": "purpose is required",
		"time":    "booking must start and end on the same day",
	}}
	service := &bookingServiceStub{submitErr: vErr}
	router := newBookingRouter(service, application.Principal{UserID: "user-1", Role: application.RoleStudent})

	body := bytes.NewBufferString(`{"room_id":"room-1","start":"2025-03-10T02:00:00Z","end":"2025-03-11T04:00:00Z"}`)
	req := httptest.NewRequest(http.MethodPost, "/bookings", body)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", recorder.Code)
	}
	resp := decodeErrorResponse(t, recorder.Body)
	if resp.Errors["purpose"] != "Keperluan peminjaman wajib diisi." {
		t.Fatalf("expected localized purpose error, got %q", resp.Errors["purpose"])
	}
	if resp.Errors["time"] != "Peminjaman harus dimulai dan selesai pada hari yang sama." {
		t.Fatalf("expected localized time error, got %q", resp.Errors["time"])
	}
}

func TestBookingHandler_Submit_ConflictListsOverlaps(t *testing.T) {
	t.Parallel()

	start := time.Date(2025, 3, 10, 3, 0, 0, 0, time.UTC)
	service := &bookingServiceStub{submitErr: &application.ConflictError{Overlaps: []application.ConflictOverlap{{
		BookingID: "booking-9",
		RoomID:    "room-1",
		Start:     start,
		End:       start.Add(2 * time.Hour),
	}}}}
	router := newBookingRouter(service, application.Principal{UserID: "user-1", Role: application.RoleStudent})

	body := bytes.NewBufferString(`{"room_id":"room-1","start":"2025-03-10T04:00:00Z","end":"2025-03-10T06:00:00Z","purpose":"Praktikum"}`)
	req := httptest.NewRequest(http.MethodPost, "/bookings", body)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", recorder.Code)
	}
	resp := decodeErrorResponse(t, recorder.Body)
	if resp.ErrorCode != "BOOKING_CONFLICT" {
		t.Fatalf("expected BOOKING_CONFLICT, got %q", resp.ErrorCode)
	}
	if len(resp.Conflicts) != 1 || resp.Conflicts[0].BookingID != "booking-9" {
		t.Fatalf("unexpected conflicts: %+v", resp.Conflicts)
	}
}

func TestBookingHandler_Submit_MalformedBody(t *testing.T) {
	t.Parallel()

	service := &bookingServiceStub{}
	router := newBookingRouter(service, application.Principal{UserID: "user-1", Role: application.RoleStudent})

	req := httptest.NewRequest(http.MethodPost, "/bookings", bytes.NewBufferString("{bukan json"))
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", recorder.Code)
	}
}

func TestBookingHandler_Transition_MapsServiceErrors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		err       error
		wantCode  int
		errorCode string
	}{
		{name: "forbidden", err: application.ErrUnauthorized, wantCode: http.StatusForbidden, errorCode: "AUTH_FORBIDDEN"},
		{name: "not found", err: application.ErrNotFound, wantCode: http.StatusNotFound},
		{name: "invalid transition", err: application.ErrInvalidTransition, wantCode: http.StatusConflict, errorCode: "BOOKING_INVALID_TRANSITION"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			service := &bookingServiceStub{transitionErr: tc.err}
			router := newBookingRouter(service, application.Principal{UserID: "user-1", Role: application.RoleStudent})

			body := bytes.NewBufferString(`{"status":"disetujui"}`)
			req := httptest.NewRequest(http.MethodPatch, "/bookings/booking-1", body)
			recorder := httptest.NewRecorder()
			router.ServeHTTP(recorder, req)

			if recorder.Code != tc.wantCode {
				t.Fatalf("expected %d, got %d", tc.wantCode, recorder.Code)
			}
			if tc.errorCode != "" {
				resp := decodeErrorResponse(t, recorder.Body)
				if resp.ErrorCode != tc.errorCode {
					t.Fatalf("expected error code %q, got %q", tc.errorCode, resp.ErrorCode)
				}
			}
		})
	}
}

func TestBookingHandler_Transition_PassesStatusAndID(t *testing.T) {
	t.Parallel()

	approved := sampleBooking()
	approved.Status = booking.StatusApproved
	service := &bookingServiceStub{transitionResult: approved}
	router := newBookingRouter(service, application.Principal{UserID: "admin-1", Role: application.RoleAdmin})

	body := bytes.NewBufferString(`{"status":" disetujui "}`)
	req := httptest.NewRequest(http.MethodPatch, "/bookings/booking-1", body)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}
	if service.transitioned.BookingID != "booking-1" {
		t.Fatalf("expected booking ID from path, got %q", service.transitioned.BookingID)
	}
	if service.transitioned.NewStatus != booking.StatusApproved {
		t.Fatalf("expected trimmed status, got %q", service.transitioned.NewStatus)
	}
}

func TestBookingHandler_List_ParsesQueryParameters(t *testing.T) {
	t.Parallel()

	service := &bookingServiceStub{}
	router := newBookingRouter(service, application.Principal{UserID: "admin-1", Role: application.RoleAdmin})

	req := httptest.NewRequest(http.MethodGet, "/bookings?scope=all&status=pending&room_id=room-1", nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}
	if service.listed.Scope != application.ListScopeAll {
		t.Fatalf("expected scope all, got %q", service.listed.Scope)
	}
	if service.listed.Status != booking.StatusPending || service.listed.RoomID != "room-1" {
		t.Fatalf("unexpected filter: %+v", service.listed)
	}

	req = httptest.NewRequest(http.MethodGet, "/bookings", nil)
	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	if service.listed.Scope != application.ListScopeMine {
		t.Fatalf("expected default scope mine, got %q", service.listed.Scope)
	}
}

func TestBookingHandler_MethodNotAllowed(t *testing.T) {
	t.Parallel()

	service := &bookingServiceStub{}
	router := newBookingRouter(service, application.Principal{UserID: "user-1", Role: application.RoleStudent})

	req := httptest.NewRequest(http.MethodDelete, "/bookings", nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", recorder.Code)
	}
	if allow := recorder.Header().Get("Allow"); allow == "" {
		t.Fatalf("expected Allow header to be set")
	}
}

func TestAuthHandler_Login_SetsCookieAndHeader(t *testing.T) {
	t.Parallel()

	expires := time.Date(2025, 3, 11, 9, 0, 0, 0, time.UTC)
	service := &authServiceStub{result: application.AuthenticateResult{
		User:    application.User{ID: "user-1", Email: "budi@mhs.uinsaid.ac.id", DisplayName: "Budi", Role: application.RoleStudent},
		Session: application.Session{ID: "session-1", UserID: "user-1", Token: "token-1", ExpiresAt: expires},
	}}
	router := NewRouter(RouterConfig{Auth: NewAuthHandler(service, nil)})

	body := bytes.NewBufferString(`{"email":"budi@mhs.uinsaid.ac.id","password":"rahasia123"}`)
	req := httptest.NewRequest(http.MethodPost, "/login", body)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", recorder.Code, recorder.Body.String())
	}
	if recorder.Header().Get("X-Session-Token") != "token-1" {
		t.Fatalf("expected X-Session-Token header")
	}

	found := false
	for _, cookie := range recorder.Result().Cookies() {
		if cookie.Name == "session_token" && cookie.Value == "token-1" && cookie.HttpOnly {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected session_token cookie, got %v", recorder.Result().Cookies())
	}

	var resp loginResponse
	if err := json.NewDecoder(recorder.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Token != "token-1" || resp.User.ID != "user-1" {
		t.Fatalf("unexpected login payload: %+v", resp)
	}
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	t.Parallel()

	service := &authServiceStub{authErr: application.ErrInvalidCredentials}
	router := NewRouter(RouterConfig{Auth: NewAuthHandler(service, nil)})

	body := bytes.NewBufferString(`{"email":"budi@mhs.uinsaid.ac.id","password":"salah"}`)
	req := httptest.NewRequest(http.MethodPost, "/login", body)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", recorder.Code)
	}
	resp := decodeErrorResponse(t, recorder.Body)
	if resp.ErrorCode != "AUTH_INVALID_CREDENTIALS" {
		t.Fatalf("expected AUTH_INVALID_CREDENTIALS, got %q", resp.ErrorCode)
	}
}

func TestAuthHandler_Logout_RevokesSessionAndClearsCookie(t *testing.T) {
	t.Parallel()

	service := &authServiceStub{}
	router := NewRouter(RouterConfig{Auth: NewAuthHandler(service, nil)})

	req := httptest.NewRequest(http.MethodDelete, "/sessions/current", nil)
	req.AddCookie(&http.Cookie{Name: "session_token", Value: "token-1"})
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", recorder.Code)
	}
	if service.revokedToken != "token-1" {
		t.Fatalf("expected token-1 to be revoked, got %q", service.revokedToken)
	}

	cleared := false
	for _, cookie := range recorder.Result().Cookies() {
		if cookie.Name == "session_token" && cookie.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Fatalf("expected session cookie to be cleared")
	}
}

func TestCalendarHandler_Week_ParsesAnchor(t *testing.T) {
	t.Parallel()

	service := &calendarServiceStub{grid: calendar.WeekGrid{
		WeekStart: time.Date(2025, 3, 10, 0, 0, 0, 0, calendar.Location),
		Days:      calendar.WeekDays(time.Date(2025, 3, 10, 0, 0, 0, 0, calendar.Location)),
	}}
	router := NewRouter(RouterConfig{
		Calendar:       NewCalendarHandler(service, nil),
		RequireSession: stubSession(application.Principal{UserID: "user-1", Role: application.RoleStudent}),
	})

	req := httptest.NewRequest(http.MethodGet, "/calendar?week=2025-03-12", nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
	}
	want := time.Date(2025, 3, 12, 0, 0, 0, 0, calendar.Location)
	if !service.anchor.Equal(want) {
		t.Fatalf("expected anchor %v, got %v", want, service.anchor)
	}
}

func TestCalendarHandler_Week_RejectsMalformedAnchor(t *testing.T) {
	t.Parallel()

	service := &calendarServiceStub{}
	router := NewRouter(RouterConfig{
		Calendar:       NewCalendarHandler(service, nil),
		RequireSession: stubSession(application.Principal{UserID: "user-1", Role: application.RoleStudent}),
	})

	req := httptest.NewRequest(http.MethodGet, "/calendar?week=12-03-2025", nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", recorder.Code)
	}
	resp := decodeErrorResponse(t, recorder.Body)
	if resp.Errors["week"] == "" {
		t.Fatalf("expected week field error, got %+v", resp)
	}
}
