// assignments.go holds the relationship-consistency protocol between
// tasks and users. Every task carries a set of assignee references and
// every assignee carries the task in its own list; both directions are
// stored as task_assignments rows, so a row existing is the invariant
// "u is assigned t" and "t is in u's list" at once. The helpers here run
// inside the caller's transaction, which keeps the cross-references
// consistent for the whole mutating operation.
package services

import (
	"taskflow/backend/internal/apierrors"
	"taskflow/backend/internal/models"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// resolveAssignees rejects the operation unless every requested id
// resolves to an existing user. The membership query collapses request
// duplicates, so a repeated id also fails the count comparison.
func resolveAssignees(tx *gorm.DB, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	var count int64
	if err := tx.Model(&models.User{}).Where("id IN ?", ids).Count(&count).Error; err != nil {
		return err
	}
	if count != int64(len(ids)) {
		return apierrors.ErrInvalidAssignee
	}
	return nil
}

// addAssignments appends the task to every listed user, once per user
// regardless of how often an id repeats. Existing rows are left alone so
// re-assigning an already-assigned user is idempotent.
func addAssignments(tx *gorm.DB, taskID uuid.UUID, userIDs []uuid.UUID) error {
	rows := assignmentRows(taskID, userIDs)
	if len(rows) == 0 {
		return nil
	}
	return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
}

// syncAssignments moves a task's assignee set from its current state to
// newIDs: users no longer listed lose their reference, new users gain
// one, users present in both are untouched.
func syncAssignments(tx *gorm.DB, taskID uuid.UUID, newIDs []uuid.UUID) error {
	removal := tx.Where("task_id = ?", taskID)
	if len(newIDs) > 0 {
		removal = removal.Where("user_id NOT IN ?", newIDs)
	}
	if err := removal.Delete(&models.TaskAssignment{}).Error; err != nil {
		return err
	}
	return addAssignments(tx, taskID, newIDs)
}

// removeTaskReferences drops every cross-reference to the task ahead of
// its deletion, in the same transaction, so no user's list ever names a
// task that is gone.
func removeTaskReferences(tx *gorm.DB, taskID uuid.UUID) error {
	if err := tx.Where("task_id = ?", taskID).Delete(&models.TaskAssignment{}).Error; err != nil {
		return err
	}
	return tx.Where("task_id = ?", taskID).Delete(&models.TaskCreator{}).Error
}

func addCreators(tx *gorm.DB, taskID uuid.UUID, userIDs []uuid.UUID) error {
	rows := creatorRows(taskID, userIDs)
	if len(rows) == 0 {
		return nil
	}
	return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
}

func assignmentRows(taskID uuid.UUID, userIDs []uuid.UUID) []models.TaskAssignment {
	rows := make([]models.TaskAssignment, 0, len(userIDs))
	for i, id := range dedupe(userIDs) {
		rows = append(rows, models.TaskAssignment{TaskID: taskID, UserID: id, Position: i})
	}
	return rows
}

func creatorRows(taskID uuid.UUID, userIDs []uuid.UUID) []models.TaskCreator {
	rows := make([]models.TaskCreator, 0, len(userIDs))
	for i, id := range dedupe(userIDs) {
		rows = append(rows, models.TaskCreator{TaskID: taskID, UserID: id, Position: i})
	}
	return rows
}

// dedupe keeps first occurrences in order.
func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// assigneeIDs returns the task's assignee references in stored order.
func assigneeIDs(db *gorm.DB, taskID uuid.UUID) ([]uuid.UUID, error) {
	var rows []models.TaskAssignment
	if err := db.Where("task_id = ?", taskID).Order("position").Find(&rows).Error; err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.UserID)
	}
	return ids, nil
}

func creatorIDs(db *gorm.DB, taskID uuid.UUID) ([]uuid.UUID, error) {
	var rows []models.TaskCreator
	if err := db.Where("task_id = ?", taskID).Order("position").Find(&rows).Error; err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.UserID)
	}
	return ids, nil
}

// tasksForUser returns the user's task list, ordered as the references
// were appended.
func tasksForUser(db *gorm.DB, userID uuid.UUID) ([]models.Task, error) {
	var tasks []models.Task
	err := db.Joins("JOIN task_assignments ON task_assignments.task_id = tasks.id").
		Where("task_assignments.user_id = ?", userID).
		Order("task_assignments.position").
		Find(&tasks).Error
	return tasks, err
}
