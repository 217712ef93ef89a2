package services_test

import (
	"testing"
	"time"

	"taskflow/backend/internal/apierrors"
	"taskflow/backend/internal/models"
	"taskflow/backend/internal/repositories"
	"taskflow/backend/internal/services"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := repositories.ConnectTest()
	require.NoError(t, err)
	return db
}

func seedUser(t *testing.T, db *gorm.DB, name string) models.User {
	t.Helper()
	user := models.User{
		ID:       uuid.Must(uuid.NewV4()),
		UserName: name,
		Email:    name + "@example.com",
		Password: "hashed",
		Role:     models.RoleUser,
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func newTask(name string) models.Task {
	return models.Task{
		TaskName:    name,
		Description: "some work",
		Status:      models.StatusPending,
		Priority:    models.PriorityLow,
		DueDate:     time.Now().Add(48 * time.Hour),
	}
}

// taskListOf returns the ids of the tasks in the user's list.
func taskListOf(t *testing.T, db *gorm.DB, userSvc services.UserService, userID uuid.UUID) []uuid.UUID {
	t.Helper()
	user, err := userSvc.GetUserByID(db, userID)
	require.NoError(t, err)
	ids := make([]uuid.UUID, 0, len(user.Tasks))
	for _, task := range user.Tasks {
		ids = append(ids, task.ID)
	}
	return ids
}

func TestCreateTaskLinksAllAssignees(t *testing.T) {
	db := setupDB(t)
	taskSvc := services.NewTaskService()
	userSvc := services.NewUserService(4)

	u1 := seedUser(t, db, "alice")
	u2 := seedUser(t, db, "bob")
	creator := seedUser(t, db, "carol")

	created, err := taskSvc.CreateTask(db, newTask("T1"), []uuid.UUID{u1.ID, u2.ID}, []uuid.UUID{creator.ID})
	require.NoError(t, err)

	require.Contains(t, taskListOf(t, db, userSvc, u1.ID), created.ID)
	require.Contains(t, taskListOf(t, db, userSvc, u2.ID), created.ID)
	require.NotContains(t, taskListOf(t, db, userSvc, creator.ID), created.ID)

	got, err := taskSvc.GetTaskByID(db, created.ID)
	require.NoError(t, err)
	require.ElementsMatch(t, []uuid.UUID{u1.ID, u2.ID}, got.Assignees)
	require.Equal(t, []uuid.UUID{creator.ID}, got.Creators)
}

func TestCreateTaskRejectsUnknownAssignee(t *testing.T) {
	db := setupDB(t)
	taskSvc := services.NewTaskService()

	u1 := seedUser(t, db, "alice")
	ghost := uuid.Must(uuid.NewV4())

	_, err := taskSvc.CreateTask(db, newTask("T1"), []uuid.UUID{u1.ID, ghost}, []uuid.UUID{u1.ID})
	require.ErrorIs(t, err, apierrors.ErrInvalidAssignee)

	// The rejection must leave nothing behind.
	var count int64
	require.NoError(t, db.Model(&models.Task{}).Count(&count).Error)
	require.Zero(t, count)
	require.NoError(t, db.Model(&models.TaskAssignment{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestCreateTaskRejectsDuplicateAssigneeIDs(t *testing.T) {
	db := setupDB(t)
	taskSvc := services.NewTaskService()

	u1 := seedUser(t, db, "alice")

	// The same id twice collapses under set semantics, so the resolved
	// count no longer matches the request.
	_, err := taskSvc.CreateTask(db, newTask("T1"), []uuid.UUID{u1.ID, u1.ID}, []uuid.UUID{u1.ID})
	require.ErrorIs(t, err, apierrors.ErrInvalidAssignee)
}

func TestCreateTaskRejectsDuplicateName(t *testing.T) {
	db := setupDB(t)
	taskSvc := services.NewTaskService()

	u1 := seedUser(t, db, "alice")

	_, err := taskSvc.CreateTask(db, newTask("T1"), []uuid.UUID{u1.ID}, []uuid.UUID{u1.ID})
	require.NoError(t, err)

	_, err = taskSvc.CreateTask(db, newTask("T1"), []uuid.UUID{u1.ID}, []uuid.UUID{u1.ID})
	require.ErrorIs(t, err, apierrors.ErrDuplicate)

	var count int64
	require.NoError(t, db.Model(&models.Task{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestUpdateTaskReconcilesAssignees(t *testing.T) {
	db := setupDB(t)
	taskSvc := services.NewTaskService()
	userSvc := services.NewUserService(4)

	u1 := seedUser(t, db, "alice")
	u2 := seedUser(t, db, "bob")
	u3 := seedUser(t, db, "carol")

	created, err := taskSvc.CreateTask(db, newTask("T1"), []uuid.UUID{u1.ID, u2.ID}, []uuid.UUID{u1.ID})
	require.NoError(t, err)

	// A={u1,u2} -> B={u2,u3}: u1 loses the reference, u3 gains it,
	// u2 keeps exactly one.
	err = taskSvc.UpdateTask(db, created.ID, services.TaskPatch{
		Assignees:    []uuid.UUID{u2.ID, u3.ID},
		AssigneesSet: true,
	})
	require.NoError(t, err)

	require.NotContains(t, taskListOf(t, db, userSvc, u1.ID), created.ID)
	require.Contains(t, taskListOf(t, db, userSvc, u3.ID), created.ID)

	u2Tasks := taskListOf(t, db, userSvc, u2.ID)
	occurrences := 0
	for _, id := range u2Tasks {
		if id == created.ID {
			occurrences++
		}
	}
	require.Equal(t, 1, occurrences)
}

func TestUpdateTaskWithoutAssigneesLeavesReferencesAlone(t *testing.T) {
	db := setupDB(t)
	taskSvc := services.NewTaskService()
	userSvc := services.NewUserService(4)

	u1 := seedUser(t, db, "alice")

	created, err := taskSvc.CreateTask(db, newTask("T1"), []uuid.UUID{u1.ID}, []uuid.UUID{u1.ID})
	require.NoError(t, err)

	status := string(models.StatusCompleted)
	err = taskSvc.UpdateTask(db, created.ID, services.TaskPatch{Status: &status})
	require.NoError(t, err)

	require.Contains(t, taskListOf(t, db, userSvc, u1.ID), created.ID)

	got, err := taskSvc.GetTaskByID(db, created.ID)
	require.NoError(t, err)
	require.Equal(t, models.StatusCompleted, got.Status)
}

func TestUpdateTaskEmptyAssigneeListClearsAll(t *testing.T) {
	db := setupDB(t)
	taskSvc := services.NewTaskService()
	userSvc := services.NewUserService(4)

	u1 := seedUser(t, db, "alice")
	u2 := seedUser(t, db, "bob")

	created, err := taskSvc.CreateTask(db, newTask("T1"), []uuid.UUID{u1.ID, u2.ID}, []uuid.UUID{u1.ID})
	require.NoError(t, err)

	err = taskSvc.UpdateTask(db, created.ID, services.TaskPatch{
		Assignees:    []uuid.UUID{},
		AssigneesSet: true,
	})
	require.NoError(t, err)

	require.Empty(t, taskListOf(t, db, userSvc, u1.ID))
	require.Empty(t, taskListOf(t, db, userSvc, u2.ID))
}

func TestUpdateTaskRejectsUnknownAssignee(t *testing.T) {
	db := setupDB(t)
	taskSvc := services.NewTaskService()
	userSvc := services.NewUserService(4)

	u1 := seedUser(t, db, "alice")

	created, err := taskSvc.CreateTask(db, newTask("T1"), []uuid.UUID{u1.ID}, []uuid.UUID{u1.ID})
	require.NoError(t, err)

	ghost := uuid.Must(uuid.NewV4())
	err = taskSvc.UpdateTask(db, created.ID, services.TaskPatch{
		Assignees:    []uuid.UUID{ghost},
		AssigneesSet: true,
	})
	require.ErrorIs(t, err, apierrors.ErrInvalidAssignee)

	// The failed update must not have touched the references.
	require.Contains(t, taskListOf(t, db, userSvc, u1.ID), created.ID)
}

func TestUpdateTaskSkipsNameCheckWhenUnchanged(t *testing.T) {
	db := setupDB(t)
	taskSvc := services.NewTaskService()

	u1 := seedUser(t, db, "alice")

	created, err := taskSvc.CreateTask(db, newTask("T1"), []uuid.UUID{u1.ID}, []uuid.UUID{u1.ID})
	require.NoError(t, err)

	sameName := "T1"
	err = taskSvc.UpdateTask(db, created.ID, services.TaskPatch{TaskName: &sameName})
	require.NoError(t, err)
}

func TestUpdateTaskRejectsNameCollision(t *testing.T) {
	db := setupDB(t)
	taskSvc := services.NewTaskService()

	u1 := seedUser(t, db, "alice")

	_, err := taskSvc.CreateTask(db, newTask("T1"), []uuid.UUID{u1.ID}, []uuid.UUID{u1.ID})
	require.NoError(t, err)
	second, err := taskSvc.CreateTask(db, newTask("T2"), []uuid.UUID{u1.ID}, []uuid.UUID{u1.ID})
	require.NoError(t, err)

	taken := "T1"
	err = taskSvc.UpdateTask(db, second.ID, services.TaskPatch{TaskName: &taken})
	require.ErrorIs(t, err, apierrors.ErrDuplicate)
}

func TestDeleteTaskRemovesAllReferences(t *testing.T) {
	db := setupDB(t)
	taskSvc := services.NewTaskService()
	userSvc := services.NewUserService(4)

	u1 := seedUser(t, db, "alice")
	u2 := seedUser(t, db, "bob")

	created, err := taskSvc.CreateTask(db, newTask("T1"), []uuid.UUID{u1.ID, u2.ID}, []uuid.UUID{u1.ID})
	require.NoError(t, err)

	require.NoError(t, taskSvc.DeleteTask(db, created.ID))

	require.NotContains(t, taskListOf(t, db, userSvc, u1.ID), created.ID)
	require.NotContains(t, taskListOf(t, db, userSvc, u2.ID), created.ID)

	_, err = taskSvc.GetTaskByID(db, created.ID)
	require.ErrorIs(t, err, apierrors.ErrNotFound)

	var count int64
	require.NoError(t, db.Model(&models.TaskAssignment{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestDeleteUserLeavesDanglingAssignments(t *testing.T) {
	db := setupDB(t)
	taskSvc := services.NewTaskService()
	userSvc := services.NewUserService(4)

	u1 := seedUser(t, db, "alice")
	u2 := seedUser(t, db, "bob")

	created, err := taskSvc.CreateTask(db, newTask("T1"), []uuid.UUID{u1.ID, u2.ID}, []uuid.UUID{u1.ID})
	require.NoError(t, err)

	require.NoError(t, userSvc.DeleteUser(db, u1.ID))

	// The task still lists the deleted user: user deletion does not
	// cascade (upstream behavior, kept on purpose).
	got, err := taskSvc.GetTaskByID(db, created.ID)
	require.NoError(t, err)
	require.Contains(t, got.Assignees, u1.ID)

	_, err = userSvc.GetUserByID(db, u1.ID)
	require.ErrorIs(t, err, apierrors.ErrNotFound)
}

func TestAssignmentLifecycle(t *testing.T) {
	db := setupDB(t)
	taskSvc := services.NewTaskService()
	userSvc := services.NewUserService(4)

	u1 := seedUser(t, db, "alice")
	u2 := seedUser(t, db, "bob")
	u3 := seedUser(t, db, "carol")

	created, err := taskSvc.CreateTask(db, newTask("T1"), []uuid.UUID{u1.ID, u2.ID}, []uuid.UUID{u1.ID})
	require.NoError(t, err)
	require.Contains(t, taskListOf(t, db, userSvc, u1.ID), created.ID)
	require.Contains(t, taskListOf(t, db, userSvc, u2.ID), created.ID)

	err = taskSvc.UpdateTask(db, created.ID, services.TaskPatch{
		Assignees:    []uuid.UUID{u2.ID, u3.ID},
		AssigneesSet: true,
	})
	require.NoError(t, err)
	require.NotContains(t, taskListOf(t, db, userSvc, u1.ID), created.ID)
	require.Contains(t, taskListOf(t, db, userSvc, u2.ID), created.ID)
	require.Contains(t, taskListOf(t, db, userSvc, u3.ID), created.ID)

	require.NoError(t, taskSvc.DeleteTask(db, created.ID))
	require.NotContains(t, taskListOf(t, db, userSvc, u2.ID), created.ID)
	require.NotContains(t, taskListOf(t, db, userSvc, u3.ID), created.ID)
}
