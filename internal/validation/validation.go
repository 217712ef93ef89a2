// Package validation checks incoming User and Task payloads before
// they reach the services. A failed check reports every violated field
// in one pass, not just the first.
package validation

import (
	"reflect"
	"strings"
	"time"

	"taskflow/backend/internal/apierrors"
	"taskflow/backend/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report violations under the json field names the client sent.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

type TaskCreateInput struct {
	TaskName    string    `json:"task_name" validate:"required"`
	Description string    `json:"task_description" validate:"required"`
	DueDate     time.Time `json:"dueDate" validate:"required"`
	Status      string    `json:"status" validate:"omitempty,oneof=Pending 'In Progress' Completed"`
	Priority    string    `json:"priority" validate:"omitempty,oneof=Low Medium High"`
	Assignee    []string  `json:"assignee" validate:"omitempty,dive,uuid4"`
	Creator     []string  `json:"creator" validate:"required,min=1,dive,uuid4"`
}

type TaskUpdateInput struct {
	TaskName    *string    `json:"task_name" validate:"omitempty,min=1"`
	Description *string    `json:"task_description" validate:"omitempty,min=1"`
	DueDate     *time.Time `json:"dueDate"`
	Status      *string    `json:"status" validate:"omitempty,oneof=Pending 'In Progress' Completed"`
	Priority    *string    `json:"priority" validate:"omitempty,oneof=Low Medium High"`
	Assignee    []string   `json:"assignee" validate:"omitempty,dive,uuid4"`
}

type UserCreateInput struct {
	UserName string `json:"user_name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" validate:"omitempty,oneof=Admin User"`
}

type UserUpdateInput struct {
	UserName *string `json:"user_name" validate:"omitempty,min=1"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Password *string `json:"password"`
	Role     *string `json:"role" validate:"omitempty,oneof=Admin User"`
}

// TaskCreate validates in, applies defaults (status Pending, priority
// Low) and returns the parsed assignee/creator ids in request order.
func TaskCreate(in *TaskCreateInput) ([]uuid.UUID, []uuid.UUID, error) {
	if err := collect(validate.Struct(in)); err != nil {
		return nil, nil, err
	}
	if in.Status == "" {
		in.Status = string(models.StatusPending)
	}
	if in.Priority == "" {
		in.Priority = string(models.PriorityLow)
	}
	assignees := parseIDs(in.Assignee)
	creators := parseIDs(in.Creator)
	return assignees, creators, nil
}

// TaskUpdate validates in and returns the parsed assignee ids, or nil
// when the payload did not touch the assignee list.
func TaskUpdate(in *TaskUpdateInput) ([]uuid.UUID, error) {
	if err := collect(validate.Struct(in)); err != nil {
		return nil, err
	}
	if in.Assignee == nil {
		return nil, nil
	}
	return parseIDs(in.Assignee), nil
}

// UserCreate validates in and applies the default role.
func UserCreate(in *UserCreateInput) error {
	if err := collect(validate.Struct(in)); err != nil {
		return err
	}
	if in.Role == "" {
		in.Role = string(models.RoleUser)
	}
	return nil
}

func UserUpdate(in *UserUpdateInput) error {
	return collect(validate.Struct(in))
}

// collect maps validator violations onto the apierrors taxonomy,
// keeping every field.
func collect(err error) error {
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	fields := make([]apierrors.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, apierrors.FieldError{
			Field:   fe.Field(),
			Message: message(fe),
		})
	}
	return &apierrors.ValidationError{Fields: fields}
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required."
	case "email":
		return "Invalid email."
	case "oneof":
		return "Invalid " + fe.Field() + "."
	case "uuid4":
		return "Invalid id."
	case "min":
		return fe.Field() + " must not be empty."
	default:
		return "Invalid value."
	}
}

func parseIDs(raw []string) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(raw))
	for _, r := range raw {
		ids = append(ids, uuid.FromStringOrNil(r))
	}
	return ids
}
