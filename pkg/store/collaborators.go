package store

import (
	"strings"

	"senac-reservas-backend/pkg/models"
)

func collaboratorID(c models.Collaborator) int { return c.ID }

// ListCollaborators returns a copy of all collaborators.
func (s *Store) ListCollaborators() []models.Collaborator {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Collaborator{}, s.state.Collaborators...)
}

// GetCollaborator returns the collaborator with the given id.
func (s *Store) GetCollaborator(id int) (models.Collaborator, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.collaboratorIndex(id); i >= 0 {
		return s.state.Collaborators[i], true
	}
	return models.Collaborator{}, false
}

// FindCollaboratorByEmail matches emails case-insensitively.
func (s *Store) FindCollaboratorByEmail(email string) (models.Collaborator, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.state.Collaborators {
		if strings.EqualFold(c.Email, strings.TrimSpace(email)) {
			return c, true
		}
	}
	return models.Collaborator{}, false
}

func (s *Store) collaboratorIndex(id int) int {
	for i, c := range s.state.Collaborators {
		if c.ID == id {
			return i
		}
	}
	return -1
}

// AddCollaborator appends a new active collaborator.
func (s *Store) AddCollaborator(draft models.CollaboratorDraft) (models.Collaborator, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := models.Collaborator{
		ID:         nextID(s.state.Collaborators, collaboratorID),
		Name:       draft.Name,
		Email:      draft.Email,
		Role:       draft.Role,
		Department: draft.Department,
		Status:     models.CollaboratorActive,
	}
	s.state.Collaborators = append(s.state.Collaborators, c)
	return c, s.persistLocked()
}

// UpdateCollaborator applies patch to the collaborator with the given id.
func (s *Store) UpdateCollaborator(id int, patch models.CollaboratorPatch) (models.Collaborator, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.collaboratorIndex(id)
	if i < 0 {
		return models.Collaborator{}, ErrCollaboratorNotFound
	}
	patch.Apply(&s.state.Collaborators[i])
	return s.state.Collaborators[i], s.persistLocked()
}

// DeleteCollaborator removes a collaborator and reports whether it existed.
func (s *Store) DeleteCollaborator(id int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.collaboratorIndex(id)
	if i < 0 {
		return false, nil
	}
	s.state.Collaborators = append(s.state.Collaborators[:i], s.state.Collaborators[i+1:]...)
	return true, s.persistLocked()
}
