package store

import "senac-reservas-backend/pkg/models"

func spaceID(s models.Space) int { return s.ID }

// ListSpaces returns a copy of all spaces.
func (s *Store) ListSpaces() []models.Space {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone().Spaces
}

// GetSpace returns the space with the given id.
func (s *Store) GetSpace(id int) (models.Space, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.spaceIndex(id); i >= 0 {
		sp := s.state.Spaces[i]
		sp.Resources = append([]string(nil), sp.Resources...)
		return sp, true
	}
	return models.Space{}, false
}

func (s *Store) spaceIndex(id int) int {
	for i, sp := range s.state.Spaces {
		if sp.ID == id {
			return i
		}
	}
	return -1
}

// AddSpace appends a new active space.
func (s *Store) AddSpace(draft models.SpaceDraft) (models.Space, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sp := models.Space{
		ID:          nextID(s.state.Spaces, spaceID),
		Name:        draft.Name,
		Capacity:    draft.Capacity,
		Type:        draft.Type,
		Description: draft.Description,
		Resources:   append([]string(nil), draft.Resources...),
		Status:      models.SpaceActive,
	}
	s.state.Spaces = append(s.state.Spaces, sp)
	return sp, s.persistLocked()
}

// UpdateSpace applies patch to the space with the given id.
func (s *Store) UpdateSpace(id int, patch models.SpacePatch) (models.Space, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.spaceIndex(id)
	if i < 0 {
		return models.Space{}, ErrSpaceNotFound
	}
	patch.Apply(&s.state.Spaces[i])
	return s.state.Spaces[i], s.persistLocked()
}

// DeleteSpace removes a space. Reservations pointing at it are kept.
func (s *Store) DeleteSpace(id int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.spaceIndex(id)
	if i < 0 {
		return false, nil
	}
	s.state.Spaces = append(s.state.Spaces[:i], s.state.Spaces[i+1:]...)
	return true, s.persistLocked()
}
