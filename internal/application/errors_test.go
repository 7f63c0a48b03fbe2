package application

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestValidationError_AddAndHasErrors(t *testing.T) {
	t.Parallel()

	var vErr ValidationError
	if vErr.HasErrors() {
		t.Fatal("expected no errors on a fresh value")
	}

	vErr.add("email", "Email wajib diisi.")
	vErr.add("password", "Kata sandi minimal 8 karakter.")

	if !vErr.HasErrors() {
		t.Fatal("expected recorded errors")
	}
	if len(vErr.FieldErrors) != 2 {
		t.Fatalf("expected 2 field errors, got %d", len(vErr.FieldErrors))
	}
	if vErr.Error() != "validation failed" {
		t.Fatalf("unexpected message: %q", vErr.Error())
	}
}

func TestValidationError_NilReceiver(t *testing.T) {
	t.Parallel()

	var vErr *ValidationError
	if vErr.HasErrors() {
		t.Fatal("expected nil receiver to report no errors")
	}
	if vErr.Error() != "" {
		t.Fatalf("unexpected message: %q", vErr.Error())
	}
}

func TestValidationError_MatchesViaErrorsAs(t *testing.T) {
	t.Parallel()

	wrapped := fmt.Errorf("submit booking: %w", &ValidationError{
		FieldErrors: map[string]string{"purpose": "Keperluan peminjaman wajib diisi."},
	})

	var vErr *ValidationError
	if !errors.As(wrapped, &vErr) {
		t.Fatal("expected errors.As to unwrap the validation error")
	}
	if _, ok := vErr.FieldErrors["purpose"]; !ok {
		t.Fatalf("expected purpose field, got %v", vErr.FieldErrors)
	}
}

func TestConflictError_ListsOverlapIDs(t *testing.T) {
	t.Parallel()

	start := time.Date(2025, 3, 10, 2, 0, 0, 0, time.UTC)
	cErr := &ConflictError{Overlaps: []ConflictOverlap{
		{BookingID: "booking-1", RoomID: "room-1", Start: start, End: start.Add(time.Hour)},
		{BookingID: "booking-2", RoomID: "room-1", Start: start, End: start.Add(2 * time.Hour)},
	}}

	msg := cErr.Error()
	if !strings.Contains(msg, "booking-1") || !strings.Contains(msg, "booking-2") {
		t.Fatalf("expected both IDs in %q", msg)
	}

	empty := &ConflictError{}
	if empty.Error() != "booking conflict" {
		t.Fatalf("unexpected message: %q", empty.Error())
	}
}

func TestErrorKind_ClassifiesErrors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "unauthorized", err: ErrUnauthorized, want: "unauthorized"},
		{name: "wrapped not found", err: fmt.Errorf("get room: %w", ErrNotFound), want: "not_found"},
		{name: "already exists", err: ErrAlreadyExists, want: "already_exists"},
		{name: "invalid credentials", err: ErrInvalidCredentials, want: "invalid_credentials"},
		{name: "session expired", err: ErrSessionExpired, want: "session_expired"},
		{name: "session revoked", err: ErrSessionRevoked, want: "session_revoked"},
		{name: "invalid transition", err: ErrInvalidTransition, want: "invalid_transition"},
		{name: "room in use", err: ErrRoomInUse, want: "room_in_use"},
		{name: "validation", err: &ValidationError{FieldErrors: map[string]string{"name": "x"}}, want: "validation"},
		{name: "conflict", err: &ConflictError{}, want: "conflict"},
		{name: "unexpected", err: errors.New("disk on fire"), want: "unexpected"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if got := ErrorKind(tc.err); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}
