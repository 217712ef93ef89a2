package services_test

import (
	"errors"
	"testing"

	"taskflow/backend/internal/apierrors"
	"taskflow/backend/internal/cache"
	"taskflow/backend/internal/services"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofrs/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func setupCachedTaskService(t *testing.T) (*services.CachedTaskService, *cache.RedisCache) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	redisCache := cache.NewRedisCacheFromClient(client)
	t.Cleanup(func() { redisCache.Close() })
	return services.NewCachedTaskService(services.NewTaskService(), redisCache), redisCache
}

func TestCachedGetTaskByIDServesFromCache(t *testing.T) {
	db := setupDB(t)
	svc, redisCache := setupCachedTaskService(t)

	creator := seedUser(t, db, "alice")
	created, err := svc.CreateTask(db, newTask("T1"), nil, []uuid.UUID{creator.ID})
	require.NoError(t, err)

	// First read populates the cache, second read must not touch the
	// database.
	warm, err := svc.GetTaskByID(db, created.ID)
	require.NoError(t, err)

	require.NoError(t, db.Exec("DELETE FROM tasks").Error)

	cached, err := svc.GetTaskByID(db, created.ID)
	require.NoError(t, err)
	require.Equal(t, warm.TaskName, cached.TaskName)

	redisCache.Delete("task:" + created.ID.String())
	_, err = svc.GetTaskByID(db, created.ID)
	require.True(t, errors.Is(err, apierrors.ErrNotFound))
}

func TestCachedGetTasksInvalidatedByMutation(t *testing.T) {
	db := setupDB(t)
	svc, _ := setupCachedTaskService(t)

	creator := seedUser(t, db, "alice")
	first, err := svc.CreateTask(db, newTask("T1"), nil, []uuid.UUID{creator.ID})
	require.NoError(t, err)

	tasks, err := svc.GetTasks(db)
	require.NoError(t, err)
	require.Len(t, tasks, 1)

	// A second create must evict the listing so the next read sees both
	// tasks.
	_, err = svc.CreateTask(db, newTask("T2"), nil, []uuid.UUID{creator.ID})
	require.NoError(t, err)

	tasks, err = svc.GetTasks(db)
	require.NoError(t, err)
	require.Len(t, tasks, 2)

	require.NoError(t, svc.DeleteTask(db, first.ID))

	tasks, err = svc.GetTasks(db)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
}

func TestCachedUpdateEvictsDetailKey(t *testing.T) {
	db := setupDB(t)
	svc, _ := setupCachedTaskService(t)

	creator := seedUser(t, db, "alice")
	created, err := svc.CreateTask(db, newTask("T1"), nil, []uuid.UUID{creator.ID})
	require.NoError(t, err)

	_, err = svc.GetTaskByID(db, created.ID)
	require.NoError(t, err)

	name := "T1-renamed"
	require.NoError(t, svc.UpdateTask(db, created.ID, services.TaskPatch{TaskName: &name}))

	reloaded, err := svc.GetTaskByID(db, created.ID)
	require.NoError(t, err)
	require.Equal(t, "T1-renamed", reloaded.TaskName)
}
