package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/silab/internal/persistence"
)

// RoomStore captures the persistence interactions needed by the room service.
type RoomStore interface {
	CreateRoom(ctx context.Context, room persistence.Room) error
	UpdateRoom(ctx context.Context, room persistence.Room) error
	GetRoom(ctx context.Context, id string) (persistence.Room, error)
	ListRooms(ctx context.Context) ([]persistence.Room, error)
	DeleteRoom(ctx context.Context, id string) error
}

// RoomService manages the catalog of bookable rooms. Mutations are admin only.
type RoomService struct {
	store       RoomStore
	idGenerator func() string
	now         func() time.Time
	onMutate    func()
	logger      *slog.Logger
}

// NewRoomService wires dependencies for room catalog operations.
func NewRoomService(store RoomStore, idGenerator func() string, now func() time.Time, onMutate func(), logger *slog.Logger) *RoomService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	if onMutate == nil {
		onMutate = func() {}
	}
	return &RoomService{
		store:       store,
		idGenerator: idGenerator,
		now:         now,
		onMutate:    onMutate,
		logger:      defaultLogger(logger),
	}
}

func (s *RoomService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "RoomService", operation, attrs...)
}

// CreateRoom validates and persists a new room.
func (s *RoomService) CreateRoom(ctx context.Context, params CreateRoomParams) (result Room, err error) {
	if s == nil {
		err = fmt.Errorf("RoomService is nil")
		return
	}
	if s.store == nil {
		err = fmt.Errorf("room store not configured")
		return
	}

	logger := s.loggerWith(ctx, "CreateRoom", "actor_id", params.Principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "room creation failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("room_id", result.ID).InfoContext(ctx, "room created")
	}()

	if !params.Principal.IsAdmin() {
		err = ErrUnauthorized
		return
	}

	if err = validateRoomInput(params.Input); err != nil {
		return
	}

	now := s.now()
	room := persistence.Room{
		ID:        s.idGenerator(),
		Name:      strings.TrimSpace(params.Input.Name),
		Capacity:  params.Input.Capacity,
		Location:  strings.TrimSpace(params.Input.Location),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err = s.store.CreateRoom(ctx, room); err != nil {
		err = mapCatalogError(err)
		return
	}

	s.onMutate()
	result = fromPersistenceRoom(room)
	return
}

// UpdateRoom validates and applies changes to an existing room.
func (s *RoomService) UpdateRoom(ctx context.Context, params UpdateRoomParams) (result Room, err error) {
	if s == nil {
		err = fmt.Errorf("RoomService is nil")
		return
	}
	if s.store == nil {
		err = fmt.Errorf("room store not configured")
		return
	}

	logger := s.loggerWith(ctx, "UpdateRoom", "room_id", params.RoomID, "actor_id", params.Principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "room update failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "room updated")
	}()

	if !params.Principal.IsAdmin() {
		err = ErrUnauthorized
		return
	}

	if err = validateRoomInput(params.Input); err != nil {
		return
	}

	var existing persistence.Room
	existing, err = s.store.GetRoom(ctx, params.RoomID)
	if err != nil {
		err = mapCatalogError(err)
		return
	}

	existing.Name = strings.TrimSpace(params.Input.Name)
	existing.Capacity = params.Input.Capacity
	existing.Location = strings.TrimSpace(params.Input.Location)
	existing.UpdatedAt = s.now()

	if err = s.store.UpdateRoom(ctx, existing); err != nil {
		err = mapCatalogError(err)
		return
	}

	s.onMutate()
	result = fromPersistenceRoom(existing)
	return
}

// GetRoom returns a single room.
func (s *RoomService) GetRoom(ctx context.Context, id string) (Room, error) {
	if s == nil {
		return Room{}, fmt.Errorf("RoomService is nil")
	}
	if s.store == nil {
		return Room{}, fmt.Errorf("room store not configured")
	}

	room, err := s.store.GetRoom(ctx, id)
	if err != nil {
		return Room{}, mapCatalogError(err)
	}
	return fromPersistenceRoom(room), nil
}

// ListRooms enumerates the catalog, ordered by name.
func (s *RoomService) ListRooms(ctx context.Context) ([]Room, error) {
	if s == nil {
		return nil, fmt.Errorf("RoomService is nil")
	}
	if s.store == nil {
		return nil, fmt.Errorf("room store not configured")
	}

	rooms, err := s.store.ListRooms(ctx)
	if err != nil {
		return nil, mapCatalogError(err)
	}

	out := make([]Room, 0, len(rooms))
	for _, room := range rooms {
		out = append(out, fromPersistenceRoom(room))
	}
	return out, nil
}

// DeleteRoom removes a room from the catalog. The delete fails with
// ErrRoomInUse while pending or approved bookings still reference the room.
func (s *RoomService) DeleteRoom(ctx context.Context, principal Principal, id string) error {
	if s == nil {
		return fmt.Errorf("RoomService is nil")
	}
	if s.store == nil {
		return fmt.Errorf("room store not configured")
	}

	logger := s.loggerWith(ctx, "DeleteRoom", "room_id", id, "actor_id", principal.UserID)

	if !principal.IsAdmin() {
		return ErrUnauthorized
	}

	if err := s.store.DeleteRoom(ctx, id); err != nil {
		if errors.Is(err, persistence.ErrForeignKeyViolation) {
			logger.ErrorContext(ctx, "room delete refused", "error", ErrRoomInUse, "error_kind", ErrorKind(ErrRoomInUse))
			return ErrRoomInUse
		}
		err = mapCatalogError(err)
		logger.ErrorContext(ctx, "room delete failed", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	s.onMutate()
	logger.InfoContext(ctx, "room deleted")
	return nil
}

func validateRoomInput(input RoomInput) error {
	vErr := &ValidationError{}
	if strings.TrimSpace(input.Name) == "" {
		vErr.add("name", "name is required")
	}
	if input.Capacity <= 0 {
		vErr.add("capacity", "capacity must be positive")
	}
	if vErr.HasErrors() {
		return vErr
	}
	return nil
}

func fromPersistenceRoom(room persistence.Room) Room {
	return Room{
		ID:        room.ID,
		Name:      room.Name,
		Capacity:  room.Capacity,
		Location:  room.Location,
		CreatedAt: room.CreatedAt,
		UpdatedAt: room.UpdatedAt,
	}
}

// mapCatalogError converts persistence sentinels shared by the catalog
// services to application errors.
func mapCatalogError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrDuplicate) {
		return ErrAlreadyExists
	}
	if errors.Is(err, persistence.ErrConstraintViolation) {
		vErr := &ValidationError{}
		vErr.add("input", "invalid field values")
		return vErr
	}
	return err
}
