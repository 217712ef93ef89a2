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

type UserHandler struct {
	db          *gorm.DB
	userService services.UserService
}

func NewUserHandler(db *gorm.DB, userService services.UserService) *UserHandler {
	return &UserHandler{db: db, userService: userService}
}

type taskSummary struct {
	ID          uuid.UUID `json:"id"`
	TaskName    string    `json:"task_name"`
	Description string    `json:"task_description"`
	Status      string    `json:"status"`
	DueDate     time.Time `json:"dueDate"`
	Priority    string    `json:"priority"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type userResponse struct {
	ID        uuid.UUID     `json:"id"`
	UserName  string        `json:"user_name"`
	Email     string        `json:"email"`
	Role      string        `json:"role"`
	Tasks     []taskSummary `json:"tasks"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

func mapUser(u models.User) userResponse {
	tasks := make([]taskSummary, 0, len(u.Tasks))
	for _, t := range u.Tasks {
		tasks = append(tasks, taskSummary{
			ID:          t.ID,
			TaskName:    t.TaskName,
			Description: t.Description,
			Status:      string(t.Status),
			DueDate:     t.DueDate,
			Priority:    string(t.Priority),
			CreatedAt:   t.CreatedAt,
			UpdatedAt:   t.UpdatedAt,
		})
	}
	return userResponse{
		ID:        u.ID,
		UserName:  u.UserName,
		Email:     u.Email,
		Role:      string(u.Role),
		Tasks:     tasks,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func (h *UserHandler) CreateUser(c *gin.Context) {
	var input validation.UserCreateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, http.StatusBadRequest, "User data is required.")
		return
	}

	if err := validation.UserCreate(&input); err != nil {
		handleServiceError(c, err, "User not found.", "User already exists.")
		return
	}

	user := models.User{
		UserName: input.UserName,
		Email:    input.Email,
		Password: input.Password,
		Role:     models.Role(input.Role),
	}

	if _, err := h.userService.CreateUser(h.db, user); err != nil {
		handleServiceError(c, err, "User not found.", "User already exists.")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "User created successfully",
	})
}

func (h *UserHandler) GetUsers(c *gin.Context) {
	users, err := h.userService.GetUsers(h.db)
	if err != nil {
		handleServiceError(c, err, "User not found.", "User already exists.")
		return
	}
	if len(users) == 0 {
		respondError(c, http.StatusNotFound, "No data found.")
		return
	}

	results := make([]userResponse, 0, len(users))
	for _, u := range users {
		results = append(results, mapUser(u))
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Users retrieved successfully",
		"count":   len(results),
		"results": results,
	})
}

func (h *UserHandler) GetUserByID(c *gin.Context) {
	id, ok := parseIDParam(c, "User id is required.")
	if !ok {
		return
	}

	user, err := h.userService.GetUserByID(h.db, id)
	if err != nil {
		handleServiceError(c, err, "User not found.", "User already exists.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    mapUser(user),
	})
}

func (h *UserHandler) UpdateUser(c *gin.Context) {
	id, ok := parseIDParam(c, "User id is required.")
	if !ok {
		return
	}

	var input validation.UserUpdateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, http.StatusBadRequest, "User data is required.")
		return
	}

	if err := validation.UserUpdate(&input); err != nil {
		handleServiceError(c, err, "User not found.", "User already exists.")
		return
	}

	patch := services.UserPatch{
		UserName: input.UserName,
		Email:    input.Email,
		Password: input.Password,
		Role:     input.Role,
	}

	if err := h.userService.UpdateUser(h.db, id, patch); err != nil {
		handleServiceError(c, err, "User not found.", "User already exists.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "User updated successfully",
	})
}

func (h *UserHandler) DeleteUser(c *gin.Context) {
	id, ok := parseIDParam(c, "User id is required.")
	if !ok {
		return
	}

	if err := h.userService.DeleteUser(h.db, id); err != nil {
		handleServiceError(c, err, "User not found.", "User already exists.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "User deleted successfully.",
	})
}
