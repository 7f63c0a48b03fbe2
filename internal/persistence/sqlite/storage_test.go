package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/example/silab/internal/booking"
	"github.com/example/silab/internal/persistence"
)

func setupStorageTest(t *testing.T) *Storage {
	t.Helper()

	path := filepath.Join(t.TempDir(), "silab.db")
	storage, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = storage.Close() })

	if err := storage.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}
	return storage
}

func mustCreateUser(t *testing.T, storage *Storage, id, email string) {
	t.Helper()
	err := storage.CreateUser(context.Background(), persistence.User{
		ID:           id,
		Email:        email,
		DisplayName:  "Test User",
		Role:         "mahasiswa",
		PasswordHash: "hash",
	})
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
}

func mustCreateRoom(t *testing.T, storage *Storage, id, name string) {
	t.Helper()
	err := storage.CreateRoom(context.Background(), persistence.Room{
		ID:       id,
		Name:     name,
		Capacity: 30,
		Location: "Gedung B",
	})
	if err != nil {
		t.Fatalf("CreateRoom failed: %v", err)
	}
}

func testBooking(id, userID, roomID string, start, end time.Time, status booking.Status) persistence.Booking {
	return persistence.Booking{
		ID:            id,
		RequesterID:   userID,
		RequesterName: "Test User",
		RoomID:        roomID,
		RoomName:      "Lab Jaringan",
		Start:         start,
		End:           end,
		Purpose:       "Praktikum",
		Status:        status,
	}
}

func TestMigrate_IsIdempotent(t *testing.T) {
	storage := setupStorageTest(t)

	if err := storage.Migrate(context.Background()); err != nil {
		t.Fatalf("second Migrate failed: %v", err)
	}

	version, err := storage.SchemaVersion(context.Background())
	if err != nil {
		t.Fatalf("SchemaVersion failed: %v", err)
	}
	if version != 3 {
		t.Errorf("Expected schema version 3, got %d", version)
	}
}

func TestUserRepository_RoundTrip(t *testing.T) {
	storage := setupStorageTest(t)
	ctx := context.Background()

	nim := "215111001"
	user := persistence.User{
		ID:           "user1",
		Email:        "budi@mhs.uinsaid.ac.id",
		DisplayName:  "Budi Santoso",
		Role:         "mahasiswa",
		StudentID:    &nim,
		PasswordHash: "hash",
	}
	if err := storage.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	retrieved, err := storage.GetUser(ctx, "user1")
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if retrieved.Email != "budi@mhs.uinsaid.ac.id" {
		t.Errorf("Expected email to round-trip, got %q", retrieved.Email)
	}
	if retrieved.StudentID == nil || *retrieved.StudentID != nim {
		t.Errorf("Expected student ID %q, got %v", nim, retrieved.StudentID)
	}

	byEmail, err := storage.GetUserByEmail(ctx, "budi@mhs.uinsaid.ac.id")
	if err != nil {
		t.Fatalf("GetUserByEmail failed: %v", err)
	}
	if byEmail.ID != "user1" {
		t.Errorf("Expected user1, got %q", byEmail.ID)
	}
}

func TestUserRepository_DuplicateEmailIsCaseInsensitive(t *testing.T) {
	storage := setupStorageTest(t)
	ctx := context.Background()

	mustCreateUser(t, storage, "user1", "budi@mhs.uinsaid.ac.id")

	err := storage.CreateUser(ctx, persistence.User{
		ID:           "user2",
		Email:        "BUDI@mhs.uinsaid.ac.id",
		DisplayName:  "Budi Kedua",
		Role:         "mahasiswa",
		PasswordHash: "hash",
	})
	if !errors.Is(err, persistence.ErrDuplicate) {
		t.Fatalf("Expected ErrDuplicate, got %v", err)
	}
}

func TestBookingRepository_CreateAndGet(t *testing.T) {
	storage := setupStorageTest(t)
	ctx := context.Background()

	mustCreateUser(t, storage, "user1", "budi@mhs.uinsaid.ac.id")
	mustCreateRoom(t, storage, "room1", "Lab Jaringan")

	start := time.Date(2025, 3, 10, 2, 0, 0, 0, time.UTC)
	entry := testBooking("booking1", "user1", "room1", start, start.Add(2*time.Hour), booking.StatusPending)
	if err := storage.CreateBooking(ctx, entry); err != nil {
		t.Fatalf("CreateBooking failed: %v", err)
	}

	retrieved, err := storage.GetBooking(ctx, "booking1")
	if err != nil {
		t.Fatalf("GetBooking failed: %v", err)
	}
	if !retrieved.Start.Equal(start) {
		t.Errorf("Expected start %v, got %v", start, retrieved.Start)
	}
	if retrieved.Status != booking.StatusPending {
		t.Errorf("Expected pending status, got %s", retrieved.Status)
	}
	if retrieved.RoomName != "Lab Jaringan" {
		t.Errorf("Expected denormalized room name, got %q", retrieved.RoomName)
	}
}

func TestBookingRepository_CreateRejectsMissingRequester(t *testing.T) {
	storage := setupStorageTest(t)
	ctx := context.Background()

	mustCreateRoom(t, storage, "room1", "Lab Jaringan")

	start := time.Date(2025, 3, 10, 2, 0, 0, 0, time.UTC)
	err := storage.CreateBooking(ctx, testBooking("booking1", "ghost", "room1", start, start.Add(time.Hour), booking.StatusPending))
	if !errors.Is(err, persistence.ErrForeignKeyViolation) {
		t.Fatalf("Expected ErrForeignKeyViolation, got %v", err)
	}
}

func TestBookingRepository_CreateRejectsOverlap(t *testing.T) {
	storage := setupStorageTest(t)
	ctx := context.Background()

	mustCreateUser(t, storage, "user1", "budi@mhs.uinsaid.ac.id")
	mustCreateRoom(t, storage, "room1", "Lab Jaringan")

	start := time.Date(2025, 3, 10, 2, 0, 0, 0, time.UTC)
	if err := storage.CreateBooking(ctx, testBooking("booking1", "user1", "room1", start, start.Add(2*time.Hour), booking.StatusApproved)); err != nil {
		t.Fatalf("CreateBooking failed: %v", err)
	}

	// Overlapping interval, same room.
	err := storage.CreateBooking(ctx, testBooking("booking2", "user1", "room1", start.Add(time.Hour), start.Add(3*time.Hour), booking.StatusPending))
	if !errors.Is(err, persistence.ErrOverlap) {
		t.Fatalf("Expected ErrOverlap, got %v", err)
	}

	// Back-to-back interval is allowed.
	if err := storage.CreateBooking(ctx, testBooking("booking3", "user1", "room1", start.Add(2*time.Hour), start.Add(3*time.Hour), booking.StatusPending)); err != nil {
		t.Fatalf("Expected touching intervals to be accepted, got %v", err)
	}

	// Same interval in another room is allowed.
	mustCreateRoom(t, storage, "room2", "Lab Multimedia")
	if err := storage.CreateBooking(ctx, testBooking("booking4", "user1", "room2", start, start.Add(2*time.Hour), booking.StatusPending)); err != nil {
		t.Fatalf("Expected other room to be free, got %v", err)
	}
}

func TestBookingRepository_SettledEntriesDoNotBlock(t *testing.T) {
	storage := setupStorageTest(t)
	ctx := context.Background()

	mustCreateUser(t, storage, "user1", "budi@mhs.uinsaid.ac.id")
	mustCreateRoom(t, storage, "room1", "Lab Jaringan")

	start := time.Date(2025, 3, 10, 2, 0, 0, 0, time.UTC)
	rejected := testBooking("booking1", "user1", "room1", start, start.Add(2*time.Hour), booking.StatusRejected)
	if err := storage.CreateBooking(ctx, rejected); err != nil {
		t.Fatalf("CreateBooking failed: %v", err)
	}

	if err := storage.CreateBooking(ctx, testBooking("booking2", "user1", "room1", start, start.Add(2*time.Hour), booking.StatusPending)); err != nil {
		t.Fatalf("Expected rejected entry not to block, got %v", err)
	}
}

func TestBookingRepository_UpdateStatusRevalidatesOverlap(t *testing.T) {
	storage := setupStorageTest(t)
	ctx := context.Background()

	mustCreateUser(t, storage, "user1", "budi@mhs.uinsaid.ac.id")
	mustCreateRoom(t, storage, "room1", "Lab Jaringan")

	start := time.Date(2025, 3, 10, 2, 0, 0, 0, time.UTC)
	first := testBooking("booking1", "user1", "room1", start, start.Add(2*time.Hour), booking.StatusPending)
	if err := storage.CreateBooking(ctx, first); err != nil {
		t.Fatalf("CreateBooking failed: %v", err)
	}

	// Cancel the first entry so a competing request can be inserted.
	first.Status = booking.StatusCancelled
	if err := storage.UpdateBookingStatus(ctx, first); err != nil {
		t.Fatalf("UpdateBookingStatus failed: %v", err)
	}

	second := testBooking("booking2", "user1", "room1", start, start.Add(2*time.Hour), booking.StatusApproved)
	if err := storage.CreateBooking(ctx, second); err != nil {
		t.Fatalf("CreateBooking failed: %v", err)
	}

	// Reactivating the first entry must now fail against the approved one.
	first.Status = booking.StatusApproved
	err := storage.UpdateBookingStatus(ctx, first)
	if !errors.Is(err, persistence.ErrOverlap) {
		t.Fatalf("Expected ErrOverlap, got %v", err)
	}
}

func TestBookingRepository_ListOrdering(t *testing.T) {
	storage := setupStorageTest(t)
	ctx := context.Background()

	mustCreateUser(t, storage, "user1", "budi@mhs.uinsaid.ac.id")
	mustCreateRoom(t, storage, "room1", "Lab Jaringan")

	base := time.Date(2025, 3, 10, 2, 0, 0, 0, time.UTC)
	for i, id := range []string{"booking1", "booking2", "booking3"} {
		entry := testBooking(id, "user1", "room1", base.Add(time.Duration(i*3)*time.Hour), base.Add(time.Duration(i*3+2)*time.Hour), booking.StatusPending)
		entry.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		entry.UpdatedAt = entry.CreatedAt
		if err := storage.CreateBooking(ctx, entry); err != nil {
			t.Fatalf("CreateBooking %s failed: %v", id, err)
		}
	}

	entries, err := storage.ListBookings(ctx, persistence.BookingFilter{})
	if err != nil {
		t.Fatalf("ListBookings failed: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("Expected 3 entries, got %d", len(entries))
	}
	// Most recent submission first.
	if entries[0].ID != "booking3" || entries[2].ID != "booking1" {
		t.Errorf("Unexpected order: %s, %s, %s", entries[0].ID, entries[1].ID, entries[2].ID)
	}
}

func TestBookingRepository_ListFilters(t *testing.T) {
	storage := setupStorageTest(t)
	ctx := context.Background()

	mustCreateUser(t, storage, "user1", "budi@mhs.uinsaid.ac.id")
	mustCreateUser(t, storage, "user2", "siti@mhs.uinsaid.ac.id")
	mustCreateRoom(t, storage, "room1", "Lab Jaringan")
	mustCreateRoom(t, storage, "room2", "Lab Multimedia")

	base := time.Date(2025, 3, 10, 2, 0, 0, 0, time.UTC)
	first := testBooking("booking1", "user1", "room1", base, base.Add(time.Hour), booking.StatusPending)
	second := testBooking("booking2", "user2", "room2", base.Add(2*time.Hour), base.Add(3*time.Hour), booking.StatusApproved)
	for _, entry := range []persistence.Booking{first, second} {
		if err := storage.CreateBooking(ctx, entry); err != nil {
			t.Fatalf("CreateBooking failed: %v", err)
		}
	}

	mine, err := storage.ListBookings(ctx, persistence.BookingFilter{RequesterID: "user1"})
	if err != nil {
		t.Fatalf("ListBookings failed: %v", err)
	}
	if len(mine) != 1 || mine[0].ID != "booking1" {
		t.Errorf("Unexpected requester filter result: %+v", mine)
	}

	approved, err := storage.ListBookings(ctx, persistence.BookingFilter{Status: booking.StatusApproved})
	if err != nil {
		t.Fatalf("ListBookings failed: %v", err)
	}
	if len(approved) != 1 || approved[0].ID != "booking2" {
		t.Errorf("Unexpected status filter result: %+v", approved)
	}

	weekStart := base.Add(-time.Hour)
	weekEnd := base.Add(90 * time.Minute)
	window, err := storage.ListBookings(ctx, persistence.BookingFilter{StartsAfter: &weekStart, EndsBefore: &weekEnd})
	if err != nil {
		t.Fatalf("ListBookings failed: %v", err)
	}
	if len(window) != 1 || window[0].ID != "booking1" {
		t.Errorf("Unexpected window filter result: %+v", window)
	}
}

func TestBookingRepository_CountByStatus(t *testing.T) {
	storage := setupStorageTest(t)
	ctx := context.Background()

	mustCreateUser(t, storage, "user1", "budi@mhs.uinsaid.ac.id")
	mustCreateRoom(t, storage, "room1", "Lab Jaringan")

	base := time.Date(2025, 3, 10, 2, 0, 0, 0, time.UTC)
	entries := []persistence.Booking{
		testBooking("booking1", "user1", "room1", base, base.Add(time.Hour), booking.StatusPending),
		testBooking("booking2", "user1", "room1", base.Add(2*time.Hour), base.Add(3*time.Hour), booking.StatusPending),
		testBooking("booking3", "user1", "room1", base.Add(4*time.Hour), base.Add(5*time.Hour), booking.StatusRejected),
	}
	for _, entry := range entries {
		if err := storage.CreateBooking(ctx, entry); err != nil {
			t.Fatalf("CreateBooking failed: %v", err)
		}
	}

	counts, err := storage.CountByStatus(ctx)
	if err != nil {
		t.Fatalf("CountByStatus failed: %v", err)
	}
	if counts[booking.StatusPending] != 2 || counts[booking.StatusRejected] != 1 {
		t.Errorf("Unexpected counts: %v", counts)
	}
}

func TestRoomRepository_DeleteBlockedByActiveBookings(t *testing.T) {
	storage := setupStorageTest(t)
	ctx := context.Background()

	mustCreateUser(t, storage, "user1", "budi@mhs.uinsaid.ac.id")
	mustCreateRoom(t, storage, "room1", "Lab Jaringan")

	start := time.Date(2025, 3, 10, 2, 0, 0, 0, time.UTC)
	entry := testBooking("booking1", "user1", "room1", start, start.Add(time.Hour), booking.StatusPending)
	if err := storage.CreateBooking(ctx, entry); err != nil {
		t.Fatalf("CreateBooking failed: %v", err)
	}

	if err := storage.DeleteRoom(ctx, "room1"); !errors.Is(err, persistence.ErrForeignKeyViolation) {
		t.Fatalf("Expected ErrForeignKeyViolation, got %v", err)
	}

	// Settle the booking; the delete must now succeed and keep the ledger row.
	entry.Status = booking.StatusCancelled
	if err := storage.UpdateBookingStatus(ctx, entry); err != nil {
		t.Fatalf("UpdateBookingStatus failed: %v", err)
	}
	if err := storage.DeleteRoom(ctx, "room1"); err != nil {
		t.Fatalf("DeleteRoom failed: %v", err)
	}

	kept, err := storage.GetBooking(ctx, "booking1")
	if err != nil {
		t.Fatalf("GetBooking failed: %v", err)
	}
	if kept.RoomName != "Lab Jaringan" {
		t.Errorf("Expected ledger row to keep its room name snapshot, got %q", kept.RoomName)
	}
}

func TestSessionRepository_Lifecycle(t *testing.T) {
	storage := setupStorageTest(t)
	ctx := context.Background()

	mustCreateUser(t, storage, "user1", "budi@mhs.uinsaid.ac.id")

	now := time.Date(2025, 3, 10, 2, 0, 0, 0, time.UTC)
	session := persistence.Session{
		ID:        "session1",
		UserID:    "user1",
		Token:     "token1",
		ExpiresAt: now.Add(24 * time.Hour),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := storage.CreateSession(ctx, session); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	retrieved, err := storage.GetSession(ctx, "token1")
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if retrieved.UserID != "user1" || retrieved.RevokedAt != nil {
		t.Errorf("Unexpected session: %+v", retrieved)
	}

	revoked, err := storage.RevokeSession(ctx, "token1", now.Add(time.Hour))
	if err != nil {
		t.Fatalf("RevokeSession failed: %v", err)
	}
	if revoked.RevokedAt == nil {
		t.Errorf("Expected revoked_at to be set")
	}

	if _, err := storage.RevokeSession(ctx, "missing", now); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestSessionRepository_DeleteExpiredSessions(t *testing.T) {
	storage := setupStorageTest(t)
	ctx := context.Background()

	mustCreateUser(t, storage, "user1", "budi@mhs.uinsaid.ac.id")

	now := time.Date(2025, 3, 10, 2, 0, 0, 0, time.UTC)
	stale := persistence.Session{ID: "session1", UserID: "user1", Token: "stale", ExpiresAt: now.Add(-time.Hour), CreatedAt: now, UpdatedAt: now}
	fresh := persistence.Session{ID: "session2", UserID: "user1", Token: "fresh", ExpiresAt: now.Add(time.Hour), CreatedAt: now, UpdatedAt: now}
	for _, session := range []persistence.Session{stale, fresh} {
		if _, err := storage.CreateSession(ctx, session); err != nil {
			t.Fatalf("CreateSession failed: %v", err)
		}
	}

	if err := storage.DeleteExpiredSessions(ctx, now); err != nil {
		t.Fatalf("DeleteExpiredSessions failed: %v", err)
	}

	if _, err := storage.GetSession(ctx, "stale"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("Expected stale session to be gone, got %v", err)
	}
	if _, err := storage.GetSession(ctx, "fresh"); err != nil {
		t.Fatalf("Expected fresh session to survive: %v", err)
	}
}

func TestEquipmentRepository_RoundTrip(t *testing.T) {
	storage := setupStorageTest(t)
	ctx := context.Background()

	item := persistence.Equipment{
		ID:        "equipment1",
		Name:      "Proyektor",
		Quantity:  2,
		Condition: "baik",
	}
	if err := storage.CreateEquipment(ctx, item); err != nil {
		t.Fatalf("CreateEquipment failed: %v", err)
	}

	item.Condition = "maintenance"
	if err := storage.UpdateEquipment(ctx, item); err != nil {
		t.Fatalf("UpdateEquipment failed: %v", err)
	}

	retrieved, err := storage.GetEquipment(ctx, "equipment1")
	if err != nil {
		t.Fatalf("GetEquipment failed: %v", err)
	}
	if retrieved.Condition != "maintenance" {
		t.Errorf("Expected maintenance condition, got %q", retrieved.Condition)
	}

	if err := storage.DeleteEquipment(ctx, "equipment1"); err != nil {
		t.Fatalf("DeleteEquipment failed: %v", err)
	}
	if _, err := storage.GetEquipment(ctx, "equipment1"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}
