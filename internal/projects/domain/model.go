package domain

import (
	"fmt"
	"strings"
	"time"
)

// Project status values.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
	StatusArchived = "archived"
)

var Statuses = []string{StatusActive, StatusInactive, StatusArchived}

const MaxNameLength = 100

// Project is a top-level container owned by one user, holding test cases.
type Project struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Status      string    `json:"status"`
	OwnerID     int64     `json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CreateProject carries the fields accepted when creating a project.
type CreateProject struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Status      string `json:"status"`
}

func (c *CreateProject) ApplyDefaults() {
	if c.Status == "" {
		c.Status = StatusActive
	}
}

func (c *CreateProject) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if len(c.Name) > MaxNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidInput, MaxNameLength)
	}
	if !ValidStatus(c.Status) {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidInput, c.Status)
	}
	return nil
}

// UpdateProject is a partial update; nil fields are left unchanged.
type UpdateProject struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
}

func (u *UpdateProject) Validate() error {
	if u.Name != nil {
		if strings.TrimSpace(*u.Name) == "" {
			return fmt.Errorf("%w: name cannot be empty", ErrInvalidInput)
		}
		if len(*u.Name) > MaxNameLength {
			return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidInput, MaxNameLength)
		}
	}
	if u.Status != nil && !ValidStatus(*u.Status) {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidInput, *u.Status)
	}
	return nil
}

func ValidStatus(s string) bool {
	for _, candidate := range Statuses {
		if candidate == s {
			return true
		}
	}
	return false
}
