package store

import "senac-reservas-backend/pkg/models"

// Settings returns the stored settings, or the defaults when none are stored.
func (s *Store) Settings() models.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settingsLocked()
}

func (s *Store) settingsLocked() models.Settings {
	if s.state.Settings == nil {
		return models.DefaultSettings()
	}
	return *s.state.Settings
}

// UpdateSettings merges patch onto the current settings.
func (s *Store) UpdateSettings(patch models.SettingsPatch) (models.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	settings := s.settingsLocked()
	patch.Apply(&settings)
	s.state.Settings = &settings
	return settings, s.persistLocked()
}

// CurrentUser returns the operator record, if one is stored.
func (s *Store) CurrentUser() (models.CurrentUser, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.state.CurrentUser == nil {
		return models.CurrentUser{}, false
	}
	return *s.state.CurrentUser, true
}
