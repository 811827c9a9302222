package store

import (
	_ "embed"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"senac-reservas-backend/pkg/models"
)

//go:embed seed.yaml
var seedYAML []byte

type seedDocument struct {
	Reservations []struct {
		ID             int    `yaml:"id"`
		SpaceID        int    `yaml:"spaceId"`
		SpaceName      string `yaml:"spaceName"`
		RequestorName  string `yaml:"requestorName"`
		RequestorEmail string `yaml:"requestorEmail"`
		RequestorPhone string `yaml:"requestorPhone"`
		Type           string `yaml:"type"`
		DayOffset      int    `yaml:"dayOffset"`
		StartTime      string `yaml:"startTime"`
		EndTime        string `yaml:"endTime"`
		Title          string `yaml:"title"`
		Description    string `yaml:"description"`
		Participants   int    `yaml:"participants"`
		Status         string `yaml:"status"`
	} `yaml:"reservations"`
	Spaces []struct {
		ID          int      `yaml:"id"`
		Name        string   `yaml:"name"`
		Capacity    int      `yaml:"capacity"`
		Type        string   `yaml:"type"`
		Description string   `yaml:"description"`
		Resources   []string `yaml:"resources"`
	} `yaml:"spaces"`
	Collaborators []struct {
		ID         int    `yaml:"id"`
		Name       string `yaml:"name"`
		Email      string `yaml:"email"`
		Role       string `yaml:"role"`
		Department string `yaml:"department"`
	} `yaml:"collaborators"`
	Settings struct {
		SystemName   string `yaml:"systemName"`
		WorkingHours struct {
			Start string `yaml:"start"`
			End   string `yaml:"end"`
		} `yaml:"workingHours"`
		RequireApproval bool `yaml:"requireApproval"`
	} `yaml:"settings"`
	CurrentUser struct {
		ID     int    `yaml:"id"`
		Name   string `yaml:"name"`
		Email  string `yaml:"email"`
		Role   string `yaml:"role"`
		Avatar string `yaml:"avatar"`
	} `yaml:"currentUser"`
}

// SeedState builds the demo dataset relative to today.
func SeedState(today models.Date, now time.Time) (models.State, error) {
	var doc seedDocument
	if err := yaml.Unmarshal(seedYAML, &doc); err != nil {
		return models.State{}, fmt.Errorf("parse seed: %w", err)
	}

	state := models.State{
		Reservations:  make([]models.Reservation, 0, len(doc.Reservations)),
		Spaces:        make([]models.Space, 0, len(doc.Spaces)),
		Collaborators: make([]models.Collaborator, 0, len(doc.Collaborators)),
	}

	for _, r := range doc.Reservations {
		start, err := models.ParseTimeOfDay(r.StartTime)
		if err != nil {
			return models.State{}, fmt.Errorf("seed reservation %d: %w", r.ID, err)
		}
		end, err := models.ParseTimeOfDay(r.EndTime)
		if err != nil {
			return models.State{}, fmt.Errorf("seed reservation %d: %w", r.ID, err)
		}
		state.Reservations = append(state.Reservations, models.Reservation{
			ID:             r.ID,
			SpaceID:        r.SpaceID,
			SpaceName:      r.SpaceName,
			RequestorName:  r.RequestorName,
			RequestorEmail: r.RequestorEmail,
			RequestorPhone: r.RequestorPhone,
			Type:           models.ReservationType(r.Type),
			Date:           today.AddDays(r.DayOffset),
			StartTime:      start,
			EndTime:        end,
			Title:          r.Title,
			Description:    r.Description,
			Participants:   r.Participants,
			Status:         models.ReservationStatus(r.Status),
			CreatedAt:      now,
		})
	}

	for _, s := range doc.Spaces {
		typ, err := models.ParseSpaceType(s.Type)
		if err != nil {
			return models.State{}, fmt.Errorf("seed space %d: %w", s.ID, err)
		}
		state.Spaces = append(state.Spaces, models.Space{
			ID:          s.ID,
			Name:        s.Name,
			Capacity:    s.Capacity,
			Type:        typ,
			Description: s.Description,
			Resources:   s.Resources,
			Status:      models.SpaceActive,
		})
	}

	for _, c := range doc.Collaborators {
		state.Collaborators = append(state.Collaborators, models.Collaborator{
			ID:         c.ID,
			Name:       c.Name,
			Email:      c.Email,
			Role:       models.Role(c.Role),
			Department: c.Department,
			Status:     models.CollaboratorActive,
		})
	}

	start, err := models.ParseTimeOfDay(doc.Settings.WorkingHours.Start)
	if err != nil {
		return models.State{}, fmt.Errorf("seed settings: %w", err)
	}
	end, err := models.ParseTimeOfDay(doc.Settings.WorkingHours.End)
	if err != nil {
		return models.State{}, fmt.Errorf("seed settings: %w", err)
	}
	state.Settings = &models.Settings{
		SystemName:      doc.Settings.SystemName,
		WorkingHours:    models.WorkingHours{Start: start, End: end},
		RequireApproval: doc.Settings.RequireApproval,
	}
	state.CurrentUser = &models.CurrentUser{
		ID:     doc.CurrentUser.ID,
		Name:   doc.CurrentUser.Name,
		Email:  doc.CurrentUser.Email,
		Role:   models.Role(doc.CurrentUser.Role),
		Avatar: doc.CurrentUser.Avatar,
	}

	return state, nil
}
