package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"merlin/internal/auth"
	"merlin/internal/models"
	"merlin/internal/repository"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserInactive       = errors.New("user account is inactive")
)

// AuthService handles authentication business logic
type AuthService struct {
	userRepo  *repository.UserRepository
	authSvc   *auth.Service
	auditRepo *repository.AuditRepository
}

// NewAuthService creates a new authentication service
func NewAuthService(userRepo *repository.UserRepository, authSvc *auth.Service, auditRepo *repository.AuditRepository) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		authSvc:   authSvc,
		auditRepo: auditRepo,
	}
}

// Login authenticates a user and issues a bearer token
func (s *AuthService) Login(email, password string) (*models.User, string, time.Time, error) {
	user, err := s.userRepo.GetByEmail(email)
	if err != nil {
		return nil, "", time.Time{}, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		return nil, "", time.Time{}, ErrInvalidCredentials
	}

	if err := s.authSvc.VerifyPassword(user.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, "", time.Time{}, ErrUserInactive
	}

	token, expiresAt, err := s.authSvc.GenerateToken(user.ID, user.Email)
	if err != nil {
		return nil, "", time.Time{}, fmt.Errorf("failed to generate token: %w", err)
	}

	s.auditRepo.Create(&models.AuditLog{
		UserID:    &user.ID,
		UserEmail: &user.Email,
		Action:    "login",
		Resource:  "auth",
	})

	return user, token, expiresAt, nil
}

// ChangePassword verifies the current password before storing the new
// hash
func (s *AuthService) ChangePassword(userID uuid.UUID, current, next string) error {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return err
	}
	if user == nil {
		return fmt.Errorf("user %s: %w", userID, models.ErrNotFound)
	}

	if err := s.authSvc.VerifyPassword(user.PasswordHash, current); err != nil {
		return ErrInvalidCredentials
	}

	hash, err := s.authSvc.HashPassword(next)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	return s.userRepo.UpdatePassword(userID, hash)
}
