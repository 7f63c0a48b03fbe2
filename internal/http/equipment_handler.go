package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/silab/internal/application"
)

type equipmentService interface {
	CreateEquipment(ctx context.Context, params application.CreateEquipmentParams) (application.Equipment, error)
	UpdateEquipment(ctx context.Context, params application.UpdateEquipmentParams) (application.Equipment, error)
	GetEquipment(ctx context.Context, id string) (application.Equipment, error)
	ListEquipment(ctx context.Context) ([]application.Equipment, error)
	DeleteEquipment(ctx context.Context, principal application.Principal, id string) error
}

type EquipmentHandler struct {
	service   equipmentService
	responder responder
	logger    *slog.Logger
}

func NewEquipmentHandler(service equipmentService, logger *slog.Logger) *EquipmentHandler {
	base := defaultLogger(logger)
	return &EquipmentHandler{service: service, responder: newResponder(base), logger: base}
}

// Create handles POST /equipment.
func (h *EquipmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req equipmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	item, err := h.service.CreateEquipment(r.Context(), application.CreateEquipmentParams{
		Principal: principal,
		Input:     req.toInput(),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, equipmentResponse{Equipment: toEquipmentDTO(item)})
}

// Update handles PUT /equipment/{id}.
func (h *EquipmentHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	equipmentID, ok := EquipmentIDFromContext(r.Context())
	if !ok || strings.TrimSpace(equipmentID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidEquipmentID)
		return
	}

	var req equipmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	item, err := h.service.UpdateEquipment(r.Context(), application.UpdateEquipmentParams{
		Principal:   principal,
		EquipmentID: equipmentID,
		Input:       req.toInput(),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, equipmentResponse{Equipment: toEquipmentDTO(item)})
}

// Get handles GET /equipment/{id}.
func (h *EquipmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	equipmentID, ok := EquipmentIDFromContext(r.Context())
	if !ok || strings.TrimSpace(equipmentID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidEquipmentID)
		return
	}

	item, err := h.service.GetEquipment(r.Context(), equipmentID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, equipmentResponse{Equipment: toEquipmentDTO(item)})
}

// List handles GET /equipment.
func (h *EquipmentHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	items, err := h.service.ListEquipment(r.Context())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	out := make([]equipmentDTO, 0, len(items))
	for _, item := range items {
		out = append(out, toEquipmentDTO(item))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listEquipmentResponse{Equipment: out})
}

// Delete handles DELETE /equipment/{id}.
func (h *EquipmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	equipmentID, ok := EquipmentIDFromContext(r.Context())
	if !ok || strings.TrimSpace(equipmentID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidEquipmentID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	if err := h.service.DeleteEquipment(r.Context(), principal, equipmentID); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type equipmentRequest struct {
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	Condition string `json:"condition"`
}

func (r equipmentRequest) toInput() application.EquipmentInput {
	return application.EquipmentInput{
		Name:      strings.TrimSpace(r.Name),
		Quantity:  r.Quantity,
		Condition: strings.TrimSpace(r.Condition),
	}
}

type equipmentResponse struct {
	Equipment equipmentDTO `json:"equipment"`
}

type listEquipmentResponse struct {
	Equipment []equipmentDTO `json:"equipment"`
}

type equipmentDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	Condition string `json:"condition"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func toEquipmentDTO(item application.Equipment) equipmentDTO {
	return equipmentDTO{
		ID:        item.ID,
		Name:      item.Name,
		Quantity:  item.Quantity,
		Condition: item.Condition,
		CreatedAt: item.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt: item.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}
