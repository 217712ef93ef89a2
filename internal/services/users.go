package services

import (
	"errors"
	"strings"

	"taskflow/backend/internal/apierrors"
	"taskflow/backend/internal/models"

	"github.com/gofrs/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// normalizeEmail puts every stored and queried email in one canonical
// form, so lookups agree no matter which endpoint wrote the record.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// UserPatch carries the fields a user update may touch; nil leaves the
// stored value alone. A non-nil password is re-hashed before storage.
type UserPatch struct {
	UserName *string
	Email    *string
	Password *string
	Role     *string
}

type UserService interface {
	CreateUser(db *gorm.DB, user models.User) (models.User, error)
	GetUsers(db *gorm.DB) ([]models.User, error)
	GetUserByID(db *gorm.DB, id uuid.UUID) (models.User, error)
	UpdateUser(db *gorm.DB, id uuid.UUID, patch UserPatch) error
	DeleteUser(db *gorm.DB, id uuid.UUID) error
}

type UserServiceImpl struct {
	bcryptCost int
}

func NewUserService(bcryptCost int) *UserServiceImpl {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &UserServiceImpl{bcryptCost: bcryptCost}
}

// CreateUser stores a new user with a hashed password. Email uniqueness
// is checked up front so the caller gets a clean duplicate error.
func (s *UserServiceImpl) CreateUser(db *gorm.DB, user models.User) (models.User, error) {
	user.Email = normalizeEmail(user.Email)

	var existing models.User
	if err := db.Where("email = ?", user.Email).First(&existing).Error; err == nil {
		return models.User{}, apierrors.ErrDuplicate
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.User{}, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(user.Password), s.bcryptCost)
	if err != nil {
		return models.User{}, err
	}
	user.ID = uuid.Must(uuid.NewV4())
	user.Password = string(hashed)
	if user.Role == "" {
		user.Role = models.RoleUser
	}

	if err := db.Create(&user).Error; err != nil {
		return models.User{}, err
	}
	return user, nil
}

// GetUsers lists every user with its task list populated from the
// assignment references.
func (s *UserServiceImpl) GetUsers(db *gorm.DB) ([]models.User, error) {
	var users []models.User
	if err := db.Order("created_at").Find(&users).Error; err != nil {
		return nil, err
	}
	for i := range users {
		tasks, err := tasksForUser(db, users[i].ID)
		if err != nil {
			return nil, err
		}
		users[i].Tasks = tasks
	}
	return users, nil
}

func (s *UserServiceImpl) GetUserByID(db *gorm.DB, id uuid.UUID) (models.User, error) {
	var user models.User
	if err := db.Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.User{}, apierrors.ErrNotFound
		}
		return models.User{}, err
	}
	tasks, err := tasksForUser(db, id)
	if err != nil {
		return models.User{}, err
	}
	user.Tasks = tasks
	return user, nil
}

func (s *UserServiceImpl) UpdateUser(db *gorm.DB, id uuid.UUID, patch UserPatch) error {
	var user models.User
	if err := db.Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apierrors.ErrNotFound
		}
		return err
	}

	if patch.Email != nil {
		email := normalizeEmail(*patch.Email)
		if email != user.Email {
			var existing models.User
			if err := db.Where("email = ?", email).First(&existing).Error; err == nil {
				return apierrors.ErrDuplicate
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			user.Email = email
		}
	}
	if patch.UserName != nil {
		user.UserName = *patch.UserName
	}
	if patch.Role != nil {
		user.Role = models.Role(*patch.Role)
	}
	if patch.Password != nil && *patch.Password != "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(*patch.Password), s.bcryptCost)
		if err != nil {
			return err
		}
		user.Password = string(hashed)
	}

	return db.Save(&user).Error
}

// DeleteUser removes the user record only. Assignment rows naming the
// user are left behind, so tasks keep listing the deleted user as an
// assignee. This matches the upstream system's behavior.
func (s *UserServiceImpl) DeleteUser(db *gorm.DB, id uuid.UUID) error {
	var user models.User
	if err := db.Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apierrors.ErrNotFound
		}
		return err
	}
	return db.Delete(&models.User{}, "id = ?", id).Error
}
