package models

// WorkingHours bounds the bookable part of the day
type WorkingHours struct {
	Start TimeOfDay `json:"start"`
	End   TimeOfDay `json:"end"`
}

// Contains reports whether [start, end) lies within the working hours.
func (w WorkingHours) Contains(start, end TimeOfDay) bool {
	if w.Start == 0 && w.End == 0 {
		return true
	}
	return start >= w.Start && end <= w.End
}

// Settings are the global options of the installation
type Settings struct {
	SystemName      string       `json:"systemName"`
	WorkingHours    WorkingHours `json:"workingHours"`
	RequireApproval bool         `json:"requireApproval"`
}

// SettingsPatch is a partial update of the settings
type SettingsPatch struct {
	SystemName      *string       `json:"systemName,omitempty" validate:"omitempty,min=1,max=120"`
	WorkingHours    *WorkingHours `json:"workingHours,omitempty"`
	RequireApproval *bool         `json:"requireApproval,omitempty"`
}

// Apply merges the non-nil fields onto s.
func (p SettingsPatch) Apply(s *Settings) {
	if p.SystemName != nil {
		s.SystemName = *p.SystemName
	}
	if p.WorkingHours != nil {
		s.WorkingHours = *p.WorkingHours
	}
	if p.RequireApproval != nil {
		s.RequireApproval = *p.RequireApproval
	}
}

// DefaultSettings is used when the stored state has none.
func DefaultSettings() Settings {
	return Settings{
		SystemName:      "Sistema de Reservas SENAC",
		WorkingHours:    WorkingHours{Start: MustTime("08:00"), End: MustTime("22:00")},
		RequireApproval: true,
	}
}

// State is the whole persisted blob
type State struct {
	Reservations  []Reservation  `json:"reservations"`
	Spaces        []Space        `json:"spaces"`
	Collaborators []Collaborator `json:"collaborators"`
	Settings      *Settings      `json:"settings,omitempty"`
	CurrentUser   *CurrentUser   `json:"currentUser,omitempty"`
}

// Clone returns a deep copy of the state.
func (s State) Clone() State {
	out := State{
		Reservations:  append([]Reservation{}, s.Reservations...),
		Spaces:        make([]Space, len(s.Spaces)),
		Collaborators: append([]Collaborator{}, s.Collaborators...),
	}
	for i, sp := range s.Spaces {
		sp.Resources = append([]string(nil), sp.Resources...)
		out.Spaces[i] = sp
	}
	if s.Settings != nil {
		settings := *s.Settings
		out.Settings = &settings
	}
	if s.CurrentUser != nil {
		user := *s.CurrentUser
		out.CurrentUser = &user
	}
	return out
}

// Stats are the dashboard counters
type Stats struct {
	Today    int `json:"today"`
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
	Total    int `json:"total"`
}
