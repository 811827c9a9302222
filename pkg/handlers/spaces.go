package handlers

import (
	"log/slog"
	"net/http"

	"senac-reservas-backend/pkg/models"
	"senac-reservas-backend/pkg/store"
	"senac-reservas-backend/pkg/utils"
)

type SpacesHandler struct {
	store     *store.Store
	validator *utils.Validator
	logger    *slog.Logger
}

func NewSpacesHandler(s *store.Store, v *utils.Validator, logger *slog.Logger) *SpacesHandler {
	return &SpacesHandler{store: s, validator: v, logger: logger}
}

// GET /api/spaces
func (h *SpacesHandler) ListSpaces(w http.ResponseWriter, r *http.Request) {
	list := h.store.ListSpaces()
	utils.WriteListResponse(w, list, len(list))
}

// GET /api/spaces/{id}
func (h *SpacesHandler) GetSpace(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		utils.WriteBadRequestResponse(w, "Invalid space id")
		return
	}
	sp, found := h.store.GetSpace(id)
	if !found {
		utils.WriteNotFoundResponse(w, store.ErrSpaceNotFound.Error())
		return
	}
	utils.WriteSuccessResponse(w, sp)
}

// POST /api/spaces
func (h *SpacesHandler) CreateSpace(w http.ResponseWriter, r *http.Request) {
	var draft models.SpaceDraft
	if !decodeBody(w, r, h.validator, &draft) {
		return
	}
	sp, err := h.store.AddSpace(draft)
	writeResult(w, h.logger, http.StatusCreated, sp, err)
}

// PATCH /api/spaces/{id}
func (h *SpacesHandler) UpdateSpace(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		utils.WriteBadRequestResponse(w, "Invalid space id")
		return
	}
	var patch models.SpacePatch
	if !decodeBody(w, r, h.validator, &patch) {
		return
	}
	sp, err := h.store.UpdateSpace(id, patch)
	writeResult(w, h.logger, http.StatusOK, sp, err)
}

// DELETE /api/spaces/{id}
func (h *SpacesHandler) DeleteSpace(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		utils.WriteBadRequestResponse(w, "Invalid space id")
		return
	}
	deleted, err := h.store.DeleteSpace(id)
	if !deleted {
		utils.WriteNotFoundResponse(w, store.ErrSpaceNotFound.Error())
		return
	}
	writeResult(w, h.logger, http.StatusOK, map[string]interface{}{"id": id, "deleted": true}, err)
}
