package handlers

import (
	"net/http"
	"time"

	"taskflow/backend/internal/models"
	"taskflow/backend/internal/services"
	"taskflow/backend/internal/validation"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

type TaskHandler struct {
	db          *gorm.DB
	taskService services.TaskService
	notifier    *services.Notifier
}

func NewTaskHandler(db *gorm.DB, taskService services.TaskService, notifier *services.Notifier) *TaskHandler {
	return &TaskHandler{db: db, taskService: taskService, notifier: notifier}
}

type taskResponse struct {
	ID          uuid.UUID   `json:"id"`
	TaskName    string      `json:"task_name"`
	Description string      `json:"task_description"`
	Status      string      `json:"status"`
	DueDate     time.Time   `json:"dueDate"`
	Priority    string      `json:"priority"`
	Assignee    []uuid.UUID `json:"assignee"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

func mapTask(t models.Task) taskResponse {
	// Clients always get an array, even when nobody is assigned.
	assignee := t.Assignees
	if assignee == nil {
		assignee = []uuid.UUID{}
	}
	return taskResponse{
		ID:          t.ID,
		TaskName:    t.TaskName,
		Description: t.Description,
		Status:      string(t.Status),
		DueDate:     t.DueDate,
		Priority:    string(t.Priority),
		Assignee:    assignee,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func (h *TaskHandler) CreateTask(c *gin.Context) {
	var input validation.TaskCreateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, http.StatusBadRequest, "Task data is required.")
		return
	}

	assignees, creators, err := validation.TaskCreate(&input)
	if err != nil {
		handleServiceError(c, err, "Task not found.", "Task with the same name already exists.")
		return
	}

	task := models.Task{
		TaskName:    input.TaskName,
		Description: input.Description,
		Status:      models.TaskStatus(input.Status),
		Priority:    models.TaskPriority(input.Priority),
		DueDate:     input.DueDate,
	}

	created, err := h.taskService.CreateTask(h.db, task, assignees, creators)
	if err != nil {
		handleServiceError(c, err, "Task not found.", "Task with the same name already exists.")
		return
	}

	h.notifier.TaskAssigned(created.ID, created.Assignees)
	h.notifier.TaskDue(created.ID, created.DueDate)

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Task created successfully.",
	})
}

func (h *TaskHandler) UpdateTask(c *gin.Context) {
	id, ok := parseIDParam(c, "Task id is required.")
	if !ok {
		return
	}

	var input validation.TaskUpdateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, http.StatusBadRequest, "Task data is required.")
		return
	}

	assignees, err := validation.TaskUpdate(&input)
	if err != nil {
		handleServiceError(c, err, "Task not found.", "Task with the same name already exists.")
		return
	}

	patch := services.TaskPatch{
		TaskName:     input.TaskName,
		Description:  input.Description,
		Status:       input.Status,
		Priority:     input.Priority,
		DueDate:      input.DueDate,
		Assignees:    assignees,
		AssigneesSet: input.Assignee != nil,
	}

	if err := h.taskService.UpdateTask(h.db, id, patch); err != nil {
		handleServiceError(c, err, "Task not found.", "Task with the same name already exists.")
		return
	}

	if patch.AssigneesSet {
		h.notifier.TaskAssigned(id, assignees)
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Task updated successfully.",
	})
}

func (h *TaskHandler) GetTasks(c *gin.Context) {
	tasks, err := h.taskService.GetTasks(h.db)
	if err != nil {
		handleServiceError(c, err, "Task not found.", "Task already exists.")
		return
	}
	if len(tasks) == 0 {
		respondError(c, http.StatusNotFound, "No data found.")
		return
	}

	results := make([]taskResponse, 0, len(tasks))
	for _, t := range tasks {
		results = append(results, mapTask(t))
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Tasks retrieved successfully",
		"count":   len(results),
		"results": results,
	})
}

func (h *TaskHandler) GetTaskByID(c *gin.Context) {
	id, ok := parseIDParam(c, "Task ID is required.")
	if !ok {
		return
	}

	task, err := h.taskService.GetTaskByID(h.db, id)
	if err != nil {
		handleServiceError(c, err, "Task not found.", "Task already exists.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    mapTask(task),
	})
}

func (h *TaskHandler) DeleteTask(c *gin.Context) {
	id, ok := parseIDParam(c, "Task ID is required.")
	if !ok {
		return
	}

	if err := h.taskService.DeleteTask(h.db, id); err != nil {
		handleServiceError(c, err, "Task not found.", "Task already exists.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Task deleted successfully.",
	})
}

func parseIDParam(c *gin.Context, missingMsg string) (uuid.UUID, bool) {
	idStr := c.Param("id")
	if idStr == "" {
		respondError(c, http.StatusBadRequest, missingMsg)
		return uuid.Nil, false
	}
	id, err := uuid.FromString(idStr)
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid id format.")
		return uuid.Nil, false
	}
	return id, true
}
