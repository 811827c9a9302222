package models

import (
	"fmt"
	"strings"
)

// SpaceType classifies a bookable space
type SpaceType string

const (
	SpaceClassroom   SpaceType = "classroom"
	SpaceLab         SpaceType = "lab"
	SpaceAuditorium  SpaceType = "auditorium"
	SpaceMeetingRoom SpaceType = "meeting-room"
	SpaceOther       SpaceType = "other"
)

// legacySpaceTypes maps the Portuguese values found in older stored data.
var legacySpaceTypes = map[string]SpaceType{
	"sala":         SpaceClassroom,
	"laboratorio":  SpaceLab,
	"auditorio":    SpaceAuditorium,
	"sala_reuniao": SpaceMeetingRoom,
	"outro":        SpaceOther,
}

// ParseSpaceType accepts the canonical values and the legacy aliases.
func ParseSpaceType(s string) (SpaceType, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	switch SpaceType(v) {
	case SpaceClassroom, SpaceLab, SpaceAuditorium, SpaceMeetingRoom, SpaceOther:
		return SpaceType(v), nil
	}
	if t, ok := legacySpaceTypes[v]; ok {
		return t, nil
	}
	return "", fmt.Errorf("unknown space type %q", s)
}

func (t *SpaceType) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*t = ""
		return nil
	}
	parsed, err := ParseSpaceType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// SpaceStatus is the availability of a space
type SpaceStatus string

const (
	SpaceActive    SpaceStatus = "active"
	SpaceAvailable SpaceStatus = "available"
	SpaceInactive  SpaceStatus = "inactive"
)

// Space is a bookable physical resource (room, lab, auditorium)
type Space struct {
	ID          int         `json:"id"`
	Name        string      `json:"name"`
	Capacity    int         `json:"capacity"`
	Type        SpaceType   `json:"type"`
	Description string      `json:"description,omitempty"`
	Resources   []string    `json:"resources,omitempty"`
	Status      SpaceStatus `json:"status"`
}

// SpaceDraft holds the fields of a space being created
type SpaceDraft struct {
	Name        string    `json:"name" validate:"required,max=120"`
	Capacity    int       `json:"capacity" validate:"gt=0"`
	Type        SpaceType `json:"type" validate:"required,oneof=classroom lab auditorium meeting-room other"`
	Description string    `json:"description,omitempty" validate:"max=2000"`
	Resources   []string  `json:"resources,omitempty"`
}

// SpacePatch is a partial update of a space
type SpacePatch struct {
	Name        *string      `json:"name,omitempty" validate:"omitempty,min=1,max=120"`
	Capacity    *int         `json:"capacity,omitempty" validate:"omitempty,gt=0"`
	Type        *SpaceType   `json:"type,omitempty" validate:"omitempty,oneof=classroom lab auditorium meeting-room other"`
	Description *string      `json:"description,omitempty" validate:"omitempty,max=2000"`
	Resources   *[]string    `json:"resources,omitempty"`
	Status      *SpaceStatus `json:"status,omitempty" validate:"omitempty,oneof=active available inactive"`
}

// Apply merges the non-nil fields onto s.
func (p SpacePatch) Apply(s *Space) {
	if p.Name != nil {
		s.Name = *p.Name
	}
	if p.Capacity != nil {
		s.Capacity = *p.Capacity
	}
	if p.Type != nil {
		s.Type = *p.Type
	}
	if p.Description != nil {
		s.Description = *p.Description
	}
	if p.Resources != nil {
		s.Resources = append([]string(nil), (*p.Resources)...)
	}
	if p.Status != nil {
		s.Status = *p.Status
	}
}
