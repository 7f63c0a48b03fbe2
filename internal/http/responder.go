package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/silab/internal/application"
)

var (
	errBadRequestBody      = errors.New("Format permintaan tidak valid.")
	errInvalidBookingID    = errors.New("ID peminjaman tidak valid.")
	errInvalidUserID       = errors.New("ID pengguna tidak valid.")
	errInvalidRoomID       = errors.New("ID ruangan tidak valid.")
	errInvalidEquipmentID  = errors.New("ID alat tidak valid.")
	errMissingSessionToken = errors.New("Token autentikasi diperlukan.")
)

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	message := localizedStatusMessage(status)
	if err != nil {
		if msg := strings.TrimSpace(err.Error()); msg != "" {
			message = msg
		}
		r.loggerFor(ctx).ErrorContext(ctx, "request failed", "status", status, "error", err)
	}

	r.writeJSON(ctx, w, status, errorResponse{Message: message})
}

func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.writeError(ctx, w, http.StatusInternalServerError, errors.New("unknown error"))
		return
	}

	switch {
	case errors.Is(err, application.ErrUnauthorized):
		r.writeJSON(ctx, w, http.StatusForbidden, errorResponse{
			ErrorCode: "AUTH_FORBIDDEN",
			Message:   "Anda tidak memiliki izin untuk melakukan operasi ini.",
		})
	case errors.Is(err, application.ErrNotFound):
		r.writeJSON(ctx, w, http.StatusNotFound, errorResponse{Message: "Sumber daya yang diminta tidak ditemukan."})
	case errors.Is(err, application.ErrAlreadyExists):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{Message: "Data dengan nilai yang sama sudah terdaftar."})
	case errors.Is(err, application.ErrInvalidTransition):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: "BOOKING_INVALID_TRANSITION",
			Message:   "Perubahan status tidak diizinkan dari status saat ini.",
		})
	case errors.Is(err, application.ErrRoomInUse):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: "ROOM_IN_USE",
			Message:   "Ruangan masih memiliki peminjaman aktif dan tidak dapat dihapus.",
		})
	case errors.Is(err, application.ErrInvalidCredentials):
		r.writeJSON(ctx, w, http.StatusUnauthorized, errorResponse{
			ErrorCode: "AUTH_INVALID_CREDENTIALS",
			Message:   "Email atau kata sandi salah.",
		})
	case errors.Is(err, application.ErrSessionExpired), errors.Is(err, application.ErrSessionRevoked):
		r.writeJSON(ctx, w, http.StatusUnauthorized, errorResponse{
			ErrorCode: "AUTH_SESSION_EXPIRED",
			Message:   "Sesi Anda sudah berakhir. Silakan masuk kembali.",
		})
	default:
		var vErr *application.ValidationError
		if errors.As(err, &vErr) {
			r.writeJSON(ctx, w, http.StatusBadRequest, errorResponse{
				Message: "Data yang dimasukkan tidak valid.",
				Errors:  localizeValidationErrors(vErr),
			})
			return
		}

		var cErr *application.ConflictError
		if errors.As(err, &cErr) {
			r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
				ErrorCode: "BOOKING_CONFLICT",
				Message:   "Jadwal bentrok dengan peminjaman lain untuk ruangan yang sama.",
				Conflicts: toConflictDTOs(cErr.Overlaps),
			})
			return
		}

		r.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{Message: "Terjadi kesalahan pada server."})
	}
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := LoggerFromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

func localizedStatusMessage(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "Permintaan tidak valid."
	case http.StatusUnauthorized:
		return "Autentikasi diperlukan."
	case http.StatusForbidden:
		return "Anda tidak memiliki izin untuk melakukan operasi ini."
	case http.StatusNotFound:
		return "Sumber daya yang diminta tidak ditemukan."
	case http.StatusConflict:
		return "Permintaan bertentangan dengan kondisi data saat ini."
	default:
		return "Terjadi kesalahan pada server."
	}
}

func localizeValidationErrors(vErr *application.ValidationError) map[string]string {
	if vErr == nil || len(vErr.FieldErrors) == 0 {
		return nil
	}

	translated := make(map[string]string, len(vErr.FieldErrors))
	for field, msg := range vErr.FieldErrors {
		translated[field] = translateValidationMessage(msg)
	}
	return translated
}

func translateValidationMessage(message string) string {
	switch message {
	case "purpose is required":
		return "Keperluan peminjaman wajib diisi."
	case "room is required":
		return "Ruangan wajib dipilih."
	case "room does not exist":
		return "Ruangan tidak ditemukan."
	case "start is required":
		return "Waktu mulai wajib diisi."
	case "end is required":
		return "Waktu selesai wajib diisi."
	case "start must be before end":
		return "Waktu selesai harus setelah waktu mulai."
	case "booking must start and end on the same day":
		return "Peminjaman harus dimulai dan selesai pada hari yang sama."
	case "start must be in the future":
		return "Waktu mulai harus di masa depan."
	case "name is required":
		return "Nama wajib diisi."
	case "capacity must be positive":
		return "Kapasitas harus berupa bilangan positif."
	case "quantity cannot be negative":
		return "Jumlah tidak boleh negatif."
	case "condition must be baik, rusak, or maintenance":
		return "Kondisi harus baik, rusak, atau maintenance."
	case "email is required":
		return "Email wajib diisi."
	case "email is invalid":
		return "Format email tidak valid."
	case "display name is required":
		return "Nama lengkap wajib diisi."
	case "passwords do not match":
		return "Konfirmasi kata sandi tidak cocok."
	case "role must be admin, dosen, or mahasiswa":
		return "Peran harus admin, dosen, atau mahasiswa."
	case "cannot delete own account":
		return "Akun sendiri tidak dapat dihapus."
	case "related records are missing":
		return "Data terkait tidak ditemukan."
	case "invalid field values":
		return "Nilai yang dimasukkan tidak valid."
	default:
		if strings.HasPrefix(message, "password must be at least") {
			return "Kata sandi minimal 6 karakter."
		}
		if strings.HasPrefix(message, "student email must end with") {
			return "Email mahasiswa harus menggunakan domain " + strings.TrimSpace(strings.TrimPrefix(message, "student email must end with"))
		}
		return message
	}
}

type errorResponse struct {
	ErrorCode string            `json:"error_code,omitempty"`
	Message   string            `json:"message"`
	Errors    map[string]string `json:"errors,omitempty"`
	Conflicts []conflictDTO     `json:"conflicts,omitempty"`
}

type conflictDTO struct {
	BookingID string `json:"booking_id"`
	RoomID    string `json:"room_id"`
	Start     string `json:"start"`
	End       string `json:"end"`
}

func toConflictDTOs(overlaps []application.ConflictOverlap) []conflictDTO {
	if len(overlaps) == 0 {
		return nil
	}
	out := make([]conflictDTO, 0, len(overlaps))
	for _, overlap := range overlaps {
		out = append(out, conflictDTO{
			BookingID: overlap.BookingID,
			RoomID:    overlap.RoomID,
			Start:     overlap.Start.UTC().Format(time.RFC3339Nano),
			End:       overlap.End.UTC().Format(time.RFC3339Nano),
		})
	}
	return out
}
