package services

import (
	"errors"
	"time"

	"taskflow/backend/internal/apierrors"
	"taskflow/backend/internal/config"
	"taskflow/backend/internal/models"

	"github.com/gofrs/uuid"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const tokenIssuer = "taskflow-backend"

type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type AuthService interface {
	Login(db *gorm.DB, email, password string) (TokenPair, error)
	Refresh(db *gorm.DB, refreshToken string) (string, error)
	Revoke(db *gorm.DB, refreshToken string) error
	GenerateTokenPair(db *gorm.DB, user *models.User) (TokenPair, error)
}

type AuthServiceImpl struct {
	cfg config.AuthConfig
}

func NewAuthService(cfg config.AuthConfig) *AuthServiceImpl {
	return &AuthServiceImpl{cfg: cfg}
}

func VerifyPassword(hashedPassword, plainPassword string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(plainPassword))
	return err == nil
}

// Login verifies the credentials and issues an access/refresh pair. A
// missing user and a wrong password are indistinguishable to the caller.
func (s *AuthServiceImpl) Login(db *gorm.DB, email, password string) (TokenPair, error) {
	var user models.User
	if err := db.Where("email = ?", normalizeEmail(email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return TokenPair{}, apierrors.ErrInvalidCredentials
		}
		return TokenPair{}, err
	}
	if !VerifyPassword(user.Password, password) {
		return TokenPair{}, apierrors.ErrInvalidCredentials
	}
	return s.GenerateTokenPair(db, &user)
}

// GenerateTokenPair signs a short-lived access token and a refresh
// token, persisting the refresh token so it can be rotated and revoked.
func (s *AuthServiceImpl) GenerateTokenPair(db *gorm.DB, user *models.User) (TokenPair, error) {
	now := time.Now()

	accessToken, err := s.signToken(user, now, s.cfg.AccessTokenTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refreshToken, err := s.signToken(user, now, s.cfg.RefreshTokenTTL)
	if err != nil {
		return TokenPair{}, err
	}

	record := models.Token{
		ID:           uuid.Must(uuid.NewV4()),
		UserID:       user.ID,
		RefreshToken: refreshToken,
		ExpiresAt:    now.Add(s.cfg.RefreshTokenTTL),
	}
	if err := db.Create(&record).Error; err != nil {
		return TokenPair{}, err
	}

	return TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// Refresh verifies the refresh token's signature, checks the stored
// record is still active, resolves the user and issues a new access
// token.
func (s *AuthServiceImpl) Refresh(db *gorm.DB, refreshToken string) (string, error) {
	if _, err := s.parseToken(refreshToken); err != nil {
		return "", apierrors.ErrTokenInvalid
	}

	var record models.Token
	if err := db.Where("refresh_token = ?", refreshToken).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", apierrors.ErrTokenInvalid
		}
		return "", err
	}
	if !record.IsActive(time.Now()) {
		return "", apierrors.ErrTokenInvalid
	}

	var user models.User
	if err := db.Where("id = ?", record.UserID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", apierrors.ErrNotFound
		}
		return "", err
	}

	return s.signToken(&user, time.Now(), s.cfg.AccessTokenTTL)
}

// Revoke marks the refresh token unusable. Revoking an unknown token is
// not an error.
func (s *AuthServiceImpl) Revoke(db *gorm.DB, refreshToken string) error {
	now := time.Now()
	return db.Model(&models.Token{}).
		Where("refresh_token = ? AND revoked_at IS NULL", refreshToken).
		Update("revoked_at", &now).Error
}

func (s *AuthServiceImpl) signToken(user *models.User, now time.Time, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"user_id": user.ID.String(),
		"email":   user.Email,
		"role":    string(user.Role),
		"iss":     tokenIssuer,
		"iat":     now.Unix(),
		"exp":     now.Add(ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

func (s *AuthServiceImpl) parseToken(tokenStr string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, apierrors.ErrTokenInvalid
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, apierrors.ErrTokenInvalid
	}
	return claims, nil
}
