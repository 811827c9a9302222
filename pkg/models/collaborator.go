package models

// Role is the permission level of a collaborator
type Role string

const (
	RoleAdmin        Role = "admin"
	RoleCollaborator Role = "collaborator"
	RoleViewer       Role = "viewer"
)

// CanWrite reports whether the role may create or edit reservations
func (r Role) CanWrite() bool {
	return r == RoleAdmin || r == RoleCollaborator
}

// CollaboratorStatus marks whether a collaborator may still use the system
type CollaboratorStatus string

const (
	CollaboratorActive   CollaboratorStatus = "active"
	CollaboratorInactive CollaboratorStatus = "inactive"
)

// Collaborator is a named system user
type Collaborator struct {
	ID         int                `json:"id"`
	Name       string             `json:"name"`
	Email      string             `json:"email"`
	Role       Role               `json:"role"`
	Department string             `json:"department,omitempty"`
	Status     CollaboratorStatus `json:"status"`
}

// CollaboratorDraft holds the fields of a collaborator being created
type CollaboratorDraft struct {
	Name       string `json:"name" validate:"required,max=120"`
	Email      string `json:"email" validate:"required,email"`
	Role       Role   `json:"role" validate:"required,oneof=admin collaborator viewer"`
	Department string `json:"department,omitempty" validate:"max=120"`
}

// CollaboratorPatch is a partial update of a collaborator
type CollaboratorPatch struct {
	Name       *string             `json:"name,omitempty" validate:"omitempty,min=1,max=120"`
	Email      *string             `json:"email,omitempty" validate:"omitempty,email"`
	Role       *Role               `json:"role,omitempty" validate:"omitempty,oneof=admin collaborator viewer"`
	Department *string             `json:"department,omitempty" validate:"omitempty,max=120"`
	Status     *CollaboratorStatus `json:"status,omitempty" validate:"omitempty,oneof=active inactive"`
}

// Apply merges the non-nil fields onto c.
func (p CollaboratorPatch) Apply(c *Collaborator) {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Email != nil {
		c.Email = *p.Email
	}
	if p.Role != nil {
		c.Role = *p.Role
	}
	if p.Department != nil {
		c.Department = *p.Department
	}
	if p.Status != nil {
		c.Status = *p.Status
	}
}
