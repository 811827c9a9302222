package models

import (
	"encoding/json"
	"time"
)

// ReservationStatus is the approval state of a reservation.
type ReservationStatus string

const (
	StatusPending  ReservationStatus = "pending"
	StatusApproved ReservationStatus = "approved"
	StatusRejected ReservationStatus = "rejected"
)

// ReservationType tells internal bookings from external ones.
type ReservationType string

const (
	ReservationInternal ReservationType = "internal"
	ReservationExternal ReservationType = "external"
)

// Reservation is a booking of one space for a date and time range.
type Reservation struct {
	ID             int               `json:"id"`
	SpaceID        int               `json:"spaceId"`
	SpaceName      string            `json:"spaceName,omitempty"`
	RequestorName  string            `json:"requestorName"`
	RequestorEmail string            `json:"requestorEmail"`
	RequestorPhone string            `json:"requestorPhone,omitempty"`
	Type           ReservationType   `json:"type"`
	Date           Date              `json:"date"`
	StartTime      TimeOfDay         `json:"startTime"`
	EndTime        TimeOfDay         `json:"endTime"`
	Title          string            `json:"title"`
	Description    string            `json:"description,omitempty"`
	Participants   int               `json:"participants"`
	Status         ReservationStatus `json:"status"`
	SeriesID       string            `json:"seriesId,omitempty"`
	CreatedAt      time.Time         `json:"createdAt"`
}

// UnmarshalJSON also reads the requestor, email and phone keys written by
// the old booking form.
func (r *Reservation) UnmarshalJSON(data []byte) error {
	type plain Reservation
	legacy := struct {
		*plain
		Requestor string `json:"requestor"`
		Email     string `json:"email"`
		Phone     string `json:"phone"`
	}{plain: (*plain)(r)}
	if err := json.Unmarshal(data, &legacy); err != nil {
		return err
	}
	if r.RequestorName == "" {
		r.RequestorName = legacy.Requestor
	}
	if r.RequestorEmail == "" {
		r.RequestorEmail = legacy.Email
	}
	if r.RequestorPhone == "" {
		r.RequestorPhone = legacy.Phone
	}
	return nil
}

// Overlaps reports whether [start, end) intersects the reservation's slot.
func (r Reservation) Overlaps(start, end TimeOfDay) bool {
	return start.Minutes() < r.EndTime.Minutes() && end.Minutes() > r.StartTime.Minutes()
}

// ReservationDraft carries the caller-supplied fields of a new reservation.
type ReservationDraft struct {
	SpaceID        int             `json:"spaceId" validate:"required,gt=0"`
	SpaceName      string          `json:"spaceName,omitempty"`
	RequestorName  string          `json:"requestorName" validate:"required,max=120"`
	RequestorEmail string          `json:"requestorEmail" validate:"required,email"`
	RequestorPhone string          `json:"requestorPhone,omitempty" validate:"max=30"`
	Type           ReservationType `json:"type" validate:"omitempty,oneof=internal external"`
	Date           Date            `json:"date"`
	StartTime      TimeOfDay       `json:"startTime"`
	EndTime        TimeOfDay       `json:"endTime"`
	Title          string          `json:"title" validate:"required,max=200"`
	Description    string          `json:"description,omitempty" validate:"max=2000"`
	Participants   int             `json:"participants" validate:"gte=0"`
}

// ReservationPatch is a partial update; nil fields are left untouched.
type ReservationPatch struct {
	SpaceID        *int               `json:"spaceId,omitempty" validate:"omitempty,gt=0"`
	SpaceName      *string            `json:"spaceName,omitempty"`
	RequestorName  *string            `json:"requestorName,omitempty" validate:"omitempty,min=1,max=120"`
	RequestorEmail *string            `json:"requestorEmail,omitempty" validate:"omitempty,email"`
	RequestorPhone *string            `json:"requestorPhone,omitempty" validate:"omitempty,max=30"`
	Type           *ReservationType   `json:"type,omitempty" validate:"omitempty,oneof=internal external"`
	Date           *Date              `json:"date,omitempty"`
	StartTime      *TimeOfDay         `json:"startTime,omitempty"`
	EndTime        *TimeOfDay         `json:"endTime,omitempty"`
	Title          *string            `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Description    *string            `json:"description,omitempty" validate:"omitempty,max=2000"`
	Participants   *int               `json:"participants,omitempty" validate:"omitempty,gte=0"`
	Status         *ReservationStatus `json:"status,omitempty" validate:"omitempty,oneof=pending approved rejected"`
}

// Apply merges the non-nil patch fields onto r.
func (p ReservationPatch) Apply(r *Reservation) {
	if p.SpaceID != nil {
		r.SpaceID = *p.SpaceID
	}
	if p.SpaceName != nil {
		r.SpaceName = *p.SpaceName
	}
	if p.RequestorName != nil {
		r.RequestorName = *p.RequestorName
	}
	if p.RequestorEmail != nil {
		r.RequestorEmail = *p.RequestorEmail
	}
	if p.RequestorPhone != nil {
		r.RequestorPhone = *p.RequestorPhone
	}
	if p.Type != nil {
		r.Type = *p.Type
	}
	if p.Date != nil {
		r.Date = *p.Date
	}
	if p.StartTime != nil {
		r.StartTime = *p.StartTime
	}
	if p.EndTime != nil {
		r.EndTime = *p.EndTime
	}
	if p.Title != nil {
		r.Title = *p.Title
	}
	if p.Description != nil {
		r.Description = *p.Description
	}
	if p.Participants != nil {
		r.Participants = *p.Participants
	}
	if p.Status != nil {
		r.Status = *p.Status
	}
}

// TouchesSlot reports whether the patch moves the reservation in time or space.
func (p ReservationPatch) TouchesSlot() bool {
	return p.SpaceID != nil || p.Date != nil || p.StartTime != nil || p.EndTime != nil
}

// ReservationFilter narrows a reservation listing. Zero values match everything.
type ReservationFilter struct {
	Status  ReservationStatus
	SpaceID int
	Date    Date
}

// Match reports whether r passes the filter.
func (f ReservationFilter) Match(r Reservation) bool {
	if f.Status != "" && r.Status != f.Status {
		return false
	}
	if f.SpaceID != 0 && r.SpaceID != f.SpaceID {
		return false
	}
	if !f.Date.IsZero() && r.Date != f.Date {
		return false
	}
	return true
}
