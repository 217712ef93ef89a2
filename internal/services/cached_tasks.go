package services

import (
	"fmt"
	"time"

	"taskflow/backend/internal/cache"
	"taskflow/backend/internal/models"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

// CachedTaskService is a read-through cache in front of TaskService.
// Mutations invalidate the listing and detail keys so a follow-up read
// never observes a deleted task or a stale assignee set.
type CachedTaskService struct {
	taskService TaskService
	cache       *cache.RedisCache
}

func NewCachedTaskService(taskService TaskService, cacheInstance *cache.RedisCache) *CachedTaskService {
	return &CachedTaskService{
		taskService: taskService,
		cache:       cacheInstance,
	}
}

func (s *CachedTaskService) CreateTask(db *gorm.DB, task models.Task, assignees, creators []uuid.UUID) (models.Task, error) {
	created, err := s.taskService.CreateTask(db, task, assignees, creators)
	if err != nil {
		return created, err
	}
	s.invalidate(created.ID)
	return created, nil
}

func (s *CachedTaskService) GetTaskByID(db *gorm.DB, id uuid.UUID) (models.Task, error) {
	cacheKey := taskKey(id)

	var cachedTask models.Task
	if err := s.cache.Get(cacheKey, &cachedTask); err == nil {
		return cachedTask, nil
	}

	task, err := s.taskService.GetTaskByID(db, id)
	if err != nil {
		return task, err
	}
	s.cache.Set(cacheKey, task, 30*time.Minute)
	return task, nil
}

func (s *CachedTaskService) GetTasks(db *gorm.DB) ([]models.Task, error) {
	var cachedTasks []models.Task
	if err := s.cache.Get("all_tasks", &cachedTasks); err == nil {
		return cachedTasks, nil
	}

	tasks, err := s.taskService.GetTasks(db)
	if err != nil {
		return tasks, err
	}
	s.cache.Set("all_tasks", tasks, 10*time.Minute)
	return tasks, nil
}

func (s *CachedTaskService) UpdateTask(db *gorm.DB, id uuid.UUID, patch TaskPatch) error {
	if err := s.taskService.UpdateTask(db, id, patch); err != nil {
		return err
	}
	s.invalidate(id)
	return nil
}

func (s *CachedTaskService) DeleteTask(db *gorm.DB, id uuid.UUID) error {
	if err := s.taskService.DeleteTask(db, id); err != nil {
		return err
	}
	s.invalidate(id)
	return nil
}

func (s *CachedTaskService) invalidate(id uuid.UUID) {
	s.cache.Delete(taskKey(id), "all_tasks")
}

func taskKey(id uuid.UUID) string {
	return fmt.Sprintf("task:%s", id.String())
}
