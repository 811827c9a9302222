package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"senac-reservas-backend/pkg/models"
	"senac-reservas-backend/pkg/store"
	"senac-reservas-backend/pkg/utils"
)

type CollaboratorsHandler struct {
	store     *store.Store
	validator *utils.Validator
	logger    *slog.Logger
}

func NewCollaboratorsHandler(s *store.Store, v *utils.Validator, logger *slog.Logger) *CollaboratorsHandler {
	return &CollaboratorsHandler{store: s, validator: v, logger: logger}
}

// GET /api/collaborators
func (h *CollaboratorsHandler) ListCollaborators(w http.ResponseWriter, r *http.Request) {
	list := h.store.ListCollaborators()
	utils.WriteListResponse(w, list, len(list))
}

// GET /api/collaborators/{id}
func (h *CollaboratorsHandler) GetCollaborator(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		utils.WriteBadRequestResponse(w, "Invalid collaborator id")
		return
	}
	c, found := h.store.GetCollaborator(id)
	if !found {
		utils.WriteNotFoundResponse(w, store.ErrCollaboratorNotFound.Error())
		return
	}
	utils.WriteSuccessResponse(w, c)
}

// POST /api/collaborators
func (h *CollaboratorsHandler) CreateCollaborator(w http.ResponseWriter, r *http.Request) {
	var draft models.CollaboratorDraft
	if !decodeBody(w, r, h.validator, &draft) {
		return
	}
	draft.Email = strings.TrimSpace(draft.Email)
	if _, exists := h.store.FindCollaboratorByEmail(draft.Email); exists {
		utils.WriteConflictResponse(w, "A collaborator with this email already exists", nil)
		return
	}
	c, err := h.store.AddCollaborator(draft)
	writeResult(w, h.logger, http.StatusCreated, c, err)
}

// PATCH /api/collaborators/{id}
func (h *CollaboratorsHandler) UpdateCollaborator(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		utils.WriteBadRequestResponse(w, "Invalid collaborator id")
		return
	}
	var patch models.CollaboratorPatch
	if !decodeBody(w, r, h.validator, &patch) {
		return
	}
	if patch.Email != nil {
		if other, exists := h.store.FindCollaboratorByEmail(*patch.Email); exists && other.ID != id {
			utils.WriteConflictResponse(w, "A collaborator with this email already exists", nil)
			return
		}
	}
	c, err := h.store.UpdateCollaborator(id, patch)
	writeResult(w, h.logger, http.StatusOK, c, err)
}

// DELETE /api/collaborators/{id}
func (h *CollaboratorsHandler) DeleteCollaborator(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		utils.WriteBadRequestResponse(w, "Invalid collaborator id")
		return
	}
	deleted, err := h.store.DeleteCollaborator(id)
	if !deleted {
		utils.WriteNotFoundResponse(w, store.ErrCollaboratorNotFound.Error())
		return
	}
	writeResult(w, h.logger, http.StatusOK, map[string]interface{}{"id": id, "deleted": true}, err)
}
