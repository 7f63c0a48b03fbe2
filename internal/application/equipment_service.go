package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/silab/internal/persistence"
)

// EquipmentStore captures the persistence interactions needed by the equipment service.
type EquipmentStore interface {
	CreateEquipment(ctx context.Context, item persistence.Equipment) error
	UpdateEquipment(ctx context.Context, item persistence.Equipment) error
	GetEquipment(ctx context.Context, id string) (persistence.Equipment, error)
	ListEquipment(ctx context.Context) ([]persistence.Equipment, error)
	DeleteEquipment(ctx context.Context, id string) error
}

// EquipmentService manages the lab's inventory. Mutations are admin only.
type EquipmentService struct {
	store       EquipmentStore
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewEquipmentService wires dependencies for inventory operations.
func NewEquipmentService(store EquipmentStore, idGenerator func() string, now func() time.Time, logger *slog.Logger) *EquipmentService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &EquipmentService{
		store:       store,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *EquipmentService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "EquipmentService", operation, attrs...)
}

// CreateEquipment validates and persists a new inventory item.
func (s *EquipmentService) CreateEquipment(ctx context.Context, params CreateEquipmentParams) (result Equipment, err error) {
	if s == nil {
		err = fmt.Errorf("EquipmentService is nil")
		return
	}
	if s.store == nil {
		err = fmt.Errorf("equipment store not configured")
		return
	}

	logger := s.loggerWith(ctx, "CreateEquipment", "actor_id", params.Principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "equipment creation failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("equipment_id", result.ID).InfoContext(ctx, "equipment created")
	}()

	if !params.Principal.IsAdmin() {
		err = ErrUnauthorized
		return
	}

	if err = validateEquipmentInput(params.Input); err != nil {
		return
	}

	now := s.now()
	item := persistence.Equipment{
		ID:        s.idGenerator(),
		Name:      strings.TrimSpace(params.Input.Name),
		Quantity:  params.Input.Quantity,
		Condition: params.Input.Condition,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err = s.store.CreateEquipment(ctx, item); err != nil {
		err = mapCatalogError(err)
		return
	}

	result = fromPersistenceEquipment(item)
	return
}

// UpdateEquipment validates and applies changes to an existing inventory item.
func (s *EquipmentService) UpdateEquipment(ctx context.Context, params UpdateEquipmentParams) (result Equipment, err error) {
	if s == nil {
		err = fmt.Errorf("EquipmentService is nil")
		return
	}
	if s.store == nil {
		err = fmt.Errorf("equipment store not configured")
		return
	}

	logger := s.loggerWith(ctx, "UpdateEquipment", "equipment_id", params.EquipmentID, "actor_id", params.Principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "equipment update failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "equipment updated")
	}()

	if !params.Principal.IsAdmin() {
		err = ErrUnauthorized
		return
	}

	if err = validateEquipmentInput(params.Input); err != nil {
		return
	}

	var existing persistence.Equipment
	existing, err = s.store.GetEquipment(ctx, params.EquipmentID)
	if err != nil {
		err = mapCatalogError(err)
		return
	}

	existing.Name = strings.TrimSpace(params.Input.Name)
	existing.Quantity = params.Input.Quantity
	existing.Condition = params.Input.Condition
	existing.UpdatedAt = s.now()

	if err = s.store.UpdateEquipment(ctx, existing); err != nil {
		err = mapCatalogError(err)
		return
	}

	result = fromPersistenceEquipment(existing)
	return
}

// GetEquipment returns a single inventory item.
func (s *EquipmentService) GetEquipment(ctx context.Context, id string) (Equipment, error) {
	if s == nil {
		return Equipment{}, fmt.Errorf("EquipmentService is nil")
	}
	if s.store == nil {
		return Equipment{}, fmt.Errorf("equipment store not configured")
	}

	item, err := s.store.GetEquipment(ctx, id)
	if err != nil {
		return Equipment{}, mapCatalogError(err)
	}
	return fromPersistenceEquipment(item), nil
}

// ListEquipment enumerates the inventory, ordered by name.
func (s *EquipmentService) ListEquipment(ctx context.Context) ([]Equipment, error) {
	if s == nil {
		return nil, fmt.Errorf("EquipmentService is nil")
	}
	if s.store == nil {
		return nil, fmt.Errorf("equipment store not configured")
	}

	items, err := s.store.ListEquipment(ctx)
	if err != nil {
		return nil, mapCatalogError(err)
	}

	out := make([]Equipment, 0, len(items))
	for _, item := range items {
		out = append(out, fromPersistenceEquipment(item))
	}
	return out, nil
}

// DeleteEquipment removes an inventory item.
func (s *EquipmentService) DeleteEquipment(ctx context.Context, principal Principal, id string) error {
	if s == nil {
		return fmt.Errorf("EquipmentService is nil")
	}
	if s.store == nil {
		return fmt.Errorf("equipment store not configured")
	}

	logger := s.loggerWith(ctx, "DeleteEquipment", "equipment_id", id, "actor_id", principal.UserID)

	if !principal.IsAdmin() {
		return ErrUnauthorized
	}

	if err := s.store.DeleteEquipment(ctx, id); err != nil {
		err = mapCatalogError(err)
		logger.ErrorContext(ctx, "equipment delete failed", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	logger.InfoContext(ctx, "equipment deleted")
	return nil
}

func validateEquipmentInput(input EquipmentInput) error {
	vErr := &ValidationError{}
	if strings.TrimSpace(input.Name) == "" {
		vErr.add("name", "name is required")
	}
	if input.Quantity < 0 {
		vErr.add("quantity", "quantity cannot be negative")
	}
	switch input.Condition {
	case ConditionGood, ConditionBroken, ConditionMaintenance:
	default:
		vErr.add("condition", "condition must be baik, rusak, or maintenance")
	}
	if vErr.HasErrors() {
		return vErr
	}
	return nil
}

func fromPersistenceEquipment(item persistence.Equipment) Equipment {
	return Equipment{
		ID:        item.ID,
		Name:      item.Name,
		Quantity:  item.Quantity,
		Condition: item.Condition,
		CreatedAt: item.CreatedAt,
		UpdatedAt: item.UpdatedAt,
	}
}
