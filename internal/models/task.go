package models

import (
	"time"

	"github.com/gofrs/uuid"
)

type TaskStatus string

const (
	StatusPending    TaskStatus = "Pending"
	StatusInProgress TaskStatus = "In Progress"
	StatusCompleted  TaskStatus = "Completed"
)

func ValidStatus(s string) bool {
	switch TaskStatus(s) {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

type TaskPriority string

const (
	PriorityLow    TaskPriority = "Low"
	PriorityMedium TaskPriority = "Medium"
	PriorityHigh   TaskPriority = "High"
)

func ValidPriority(p string) bool {
	switch TaskPriority(p) {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

type Task struct {
	ID          uuid.UUID    `json:"id" gorm:"primaryKey;type:uuid"`
	TaskName    string       `json:"task_name" gorm:"unique;not null"`
	Description string       `json:"task_description"`
	Status      TaskStatus   `json:"status" gorm:"not null;default:'Pending'"`
	Priority    TaskPriority `json:"priority" gorm:"not null;default:'Medium'"`
	DueDate     time.Time    `json:"dueDate" gorm:"not null"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Assignees and Creators are loaded from the join rows by the
	// assignment service; gorm never writes them implicitly.
	Assignees []uuid.UUID `json:"assignee,omitempty" gorm:"-"`
	Creators  []uuid.UUID `json:"creator,omitempty" gorm:"-"`
}

// TaskAssignment is one Task↔User cross-reference. A row existing means
// both "the user is an assignee of the task" and "the task is in the
// user's task list", so the two directions can never disagree.
//
// The user_id column carries no foreign key: deleting a user leaves its
// assignment rows behind, matching the upstream system's behavior.
type TaskAssignment struct {
	TaskID    uuid.UUID `json:"task_id" gorm:"type:uuid;not null;primaryKey"`
	UserID    uuid.UUID `json:"user_id" gorm:"type:uuid;not null;primaryKey"`
	Position  int       `json:"position" gorm:"not null;default:0"`
	CreatedAt time.Time `json:"created_at"`
}

// TaskCreator records the users who authored a task, in request order.
type TaskCreator struct {
	TaskID    uuid.UUID `json:"task_id" gorm:"type:uuid;not null;primaryKey"`
	UserID    uuid.UUID `json:"user_id" gorm:"type:uuid;not null;primaryKey"`
	Position  int       `json:"position" gorm:"not null;default:0"`
	CreatedAt time.Time `json:"created_at"`
}
