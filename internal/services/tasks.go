package services

import (
	"errors"
	"time"

	"taskflow/backend/internal/apierrors"
	"taskflow/backend/internal/models"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

// TaskPatch carries the fields a task update may touch. Nil means
// "leave unchanged"; AssigneesSet distinguishes an absent assignee list
// from an explicitly empty one.
type TaskPatch struct {
	TaskName     *string
	Description  *string
	Status       *string
	Priority     *string
	DueDate      *time.Time
	Assignees    []uuid.UUID
	AssigneesSet bool
}

type TaskService interface {
	CreateTask(db *gorm.DB, task models.Task, assignees, creators []uuid.UUID) (models.Task, error)
	GetTaskByID(db *gorm.DB, id uuid.UUID) (models.Task, error)
	GetTasks(db *gorm.DB) ([]models.Task, error)
	UpdateTask(db *gorm.DB, id uuid.UUID, patch TaskPatch) error
	DeleteTask(db *gorm.DB, id uuid.UUID) error
}

type TaskServiceImpl struct{}

func NewTaskService() *TaskServiceImpl {
	return &TaskServiceImpl{}
}

// CreateTask inserts the task together with its creator and assignee
// references as one transaction. Every assignee must already exist.
func (s *TaskServiceImpl) CreateTask(db *gorm.DB, task models.Task, assignees, creators []uuid.UUID) (models.Task, error) {
	task.ID = uuid.Must(uuid.NewV4())
	err := db.Transaction(func(tx *gorm.DB) error {
		var existing models.Task
		if err := tx.Where("task_name = ?", task.TaskName).First(&existing).Error; err == nil {
			return apierrors.ErrDuplicate
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if err := resolveAssignees(tx, assignees); err != nil {
			return err
		}

		if err := tx.Create(&task).Error; err != nil {
			return err
		}
		if err := addCreators(tx, task.ID, creators); err != nil {
			return err
		}
		return addAssignments(tx, task.ID, assignees)
	})
	if err != nil {
		return models.Task{}, err
	}
	task.Assignees = dedupe(assignees)
	task.Creators = dedupe(creators)
	return task, nil
}

func (s *TaskServiceImpl) GetTaskByID(db *gorm.DB, id uuid.UUID) (models.Task, error) {
	var task models.Task
	if err := db.Where("id = ?", id).First(&task).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Task{}, apierrors.ErrNotFound
		}
		return models.Task{}, err
	}
	var err error
	if task.Assignees, err = assigneeIDs(db, id); err != nil {
		return models.Task{}, err
	}
	if task.Creators, err = creatorIDs(db, id); err != nil {
		return models.Task{}, err
	}
	return task, nil
}

func (s *TaskServiceImpl) GetTasks(db *gorm.DB) ([]models.Task, error) {
	var tasks []models.Task
	if err := db.Order("created_at").Find(&tasks).Error; err != nil {
		return nil, err
	}

	var rows []models.TaskAssignment
	if err := db.Order("position").Find(&rows).Error; err != nil {
		return nil, err
	}
	byTask := make(map[uuid.UUID][]uuid.UUID, len(tasks))
	for _, r := range rows {
		byTask[r.TaskID] = append(byTask[r.TaskID], r.UserID)
	}
	for i := range tasks {
		tasks[i].Assignees = byTask[tasks[i].ID]
	}
	return tasks, nil
}

// UpdateTask merges the patch onto the stored task and, when the patch
// carries an assignee list, reconciles the cross-references against it.
// The whole operation is one transaction.
func (s *TaskServiceImpl) UpdateTask(db *gorm.DB, id uuid.UUID, patch TaskPatch) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var task models.Task
		if err := tx.Where("id = ?", id).First(&task).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apierrors.ErrNotFound
			}
			return err
		}

		// Uniqueness only matters when the name actually changes.
		if patch.TaskName != nil && *patch.TaskName != task.TaskName {
			var existing models.Task
			if err := tx.Where("task_name = ?", *patch.TaskName).First(&existing).Error; err == nil {
				return apierrors.ErrDuplicate
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			task.TaskName = *patch.TaskName
		}

		if patch.AssigneesSet {
			if err := resolveAssignees(tx, patch.Assignees); err != nil {
				return err
			}
		}

		if patch.Description != nil {
			task.Description = *patch.Description
		}
		if patch.Status != nil {
			task.Status = models.TaskStatus(*patch.Status)
		}
		if patch.Priority != nil {
			task.Priority = models.TaskPriority(*patch.Priority)
		}
		if patch.DueDate != nil {
			task.DueDate = *patch.DueDate
		}

		if err := tx.Save(&task).Error; err != nil {
			return err
		}

		if patch.AssigneesSet {
			return syncAssignments(tx, task.ID, patch.Assignees)
		}
		return nil
	})
}

// DeleteTask removes the task and every reference to it in one
// transaction, so no user's task list ever points at a deleted task.
func (s *TaskServiceImpl) DeleteTask(db *gorm.DB, id uuid.UUID) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var task models.Task
		if err := tx.Where("id = ?", id).First(&task).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apierrors.ErrNotFound
			}
			return err
		}
		if err := removeTaskReferences(tx, id); err != nil {
			return err
		}
		return tx.Delete(&models.Task{}, "id = ?", id).Error
	})
}
