package models

import (
	"strings"
	"time"

	"github.com/gofrs/uuid"
)

type Role string

const (
	RoleAdmin Role = "Admin"
	RoleUser  Role = "User"
)

// ValidRole reports whether r is one of the two known roles, ignoring case.
func ValidRole(r string) bool {
	switch strings.ToLower(r) {
	case "admin", "user":
		return true
	}
	return false
}

func (r Role) IsAdmin() bool {
	return strings.EqualFold(string(r), string(RoleAdmin))
}

type User struct {
	ID       uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`
	UserName string    `json:"user_name"`
	Email    string    `json:"email" gorm:"unique;not null"`
	Password string    `json:"-" gorm:"not null"`
	Role     Role      `json:"role" gorm:"not null;default:'User'"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Tasks is populated through task_assignments. Writes go through the
	// assignment service, never through gorm association saves.
	Tasks []Task `json:"tasks,omitempty" gorm:"-"`
}
