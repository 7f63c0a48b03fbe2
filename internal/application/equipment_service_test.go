package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/silab/internal/persistence"
)

type equipmentStoreStub struct {
	items     map[string]persistence.Equipment
	createErr error
}

func newEquipmentStoreStub() *equipmentStoreStub {
	return &equipmentStoreStub{items: map[string]persistence.Equipment{}}
}

func (e *equipmentStoreStub) CreateEquipment(ctx context.Context, item persistence.Equipment) error {
	if e.createErr != nil {
		return e.createErr
	}
	e.items[item.ID] = item
	return nil
}

func (e *equipmentStoreStub) UpdateEquipment(ctx context.Context, item persistence.Equipment) error {
	if _, ok := e.items[item.ID]; !ok {
		return persistence.ErrNotFound
	}
	e.items[item.ID] = item
	return nil
}

func (e *equipmentStoreStub) GetEquipment(ctx context.Context, id string) (persistence.Equipment, error) {
	item, ok := e.items[id]
	if !ok {
		return persistence.Equipment{}, persistence.ErrNotFound
	}
	return item, nil
}

func (e *equipmentStoreStub) ListEquipment(ctx context.Context) ([]persistence.Equipment, error) {
	out := make([]persistence.Equipment, 0, len(e.items))
	for _, item := range e.items {
		out = append(out, item)
	}
	return out, nil
}

func (e *equipmentStoreStub) DeleteEquipment(ctx context.Context, id string) error {
	if _, ok := e.items[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(e.items, id)
	return nil
}

func newEquipmentServiceForTest(store *equipmentStoreStub) *EquipmentService {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	return NewEquipmentService(store, func() string { return "equipment-1" }, func() time.Time { return now }, nil)
}

func TestEquipmentService_CreateEquipment_AdminOnly(t *testing.T) {
	t.Parallel()

	svc := newEquipmentServiceForTest(newEquipmentStoreStub())

	_, err := svc.CreateEquipment(context.Background(), CreateEquipmentParams{
		Principal: Principal{UserID: "user-1", Role: RoleStudent},
		Input:     EquipmentInput{Name: "Proyektor", Quantity: 2, Condition: ConditionGood},
	})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestEquipmentService_CreateEquipment_Validation(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		input EquipmentInput
		field string
	}{
		{name: "missing name", input: EquipmentInput{Quantity: 1, Condition: ConditionGood}, field: "name"},
		{name: "negative quantity", input: EquipmentInput{Name: "Proyektor", Quantity: -1, Condition: ConditionGood}, field: "quantity"},
		{name: "unknown condition", input: EquipmentInput{Name: "Proyektor", Quantity: 1, Condition: "bagus"}, field: "condition"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			svc := newEquipmentServiceForTest(newEquipmentStoreStub())

			_, err := svc.CreateEquipment(context.Background(), CreateEquipmentParams{
				Principal: Principal{UserID: "admin-1", Role: RoleAdmin},
				Input:     tc.input,
			})

			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if _, ok := vErr.FieldErrors[tc.field]; !ok {
				t.Fatalf("expected field %q in %v", tc.field, vErr.FieldErrors)
			}
		})
	}
}

func TestEquipmentService_CreateEquipment_AllowsZeroQuantity(t *testing.T) {
	t.Parallel()

	store := newEquipmentStoreStub()
	svc := newEquipmentServiceForTest(store)

	item, err := svc.CreateEquipment(context.Background(), CreateEquipmentParams{
		Principal: Principal{UserID: "admin-1", Role: RoleAdmin},
		Input:     EquipmentInput{Name: "Kabel LAN", Quantity: 0, Condition: ConditionBroken},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if item.Quantity != 0 {
		t.Fatalf("expected zero quantity to be accepted, got %d", item.Quantity)
	}
}

func TestEquipmentService_UpdateEquipment_ChangesCondition(t *testing.T) {
	t.Parallel()

	store := newEquipmentStoreStub()
	store.items["equipment-1"] = persistence.Equipment{ID: "equipment-1", Name: "Proyektor", Quantity: 2, Condition: ConditionGood}
	svc := newEquipmentServiceForTest(store)

	item, err := svc.UpdateEquipment(context.Background(), UpdateEquipmentParams{
		Principal:   Principal{UserID: "admin-1", Role: RoleAdmin},
		EquipmentID: "equipment-1",
		Input:       EquipmentInput{Name: "Proyektor", Quantity: 2, Condition: ConditionMaintenance},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if item.Condition != ConditionMaintenance {
		t.Fatalf("expected maintenance condition, got %q", item.Condition)
	}
}

func TestEquipmentService_DeleteEquipment_NotFound(t *testing.T) {
	t.Parallel()

	svc := newEquipmentServiceForTest(newEquipmentStoreStub())

	if err := svc.DeleteEquipment(context.Background(), Principal{UserID: "admin-1", Role: RoleAdmin}, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
