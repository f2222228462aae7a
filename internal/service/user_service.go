package service

import (
	"fmt"

	"github.com/google/uuid"

	"merlin/internal/auth"
	"merlin/internal/models"
	"merlin/internal/repository"
)

// UserService handles user administration
type UserService struct {
	userRepo  *repository.UserRepository
	orgGraph  *OrgGraphService
	authSvc   *auth.Service
	auditRepo *repository.AuditRepository
}

// NewUserService creates a new user service
func NewUserService(userRepo *repository.UserRepository, orgGraph *OrgGraphService, authSvc *auth.Service, auditRepo *repository.AuditRepository) *UserService {
	return &UserService{
		userRepo:  userRepo,
		orgGraph:  orgGraph,
		authSvc:   authSvc,
		auditRepo: auditRepo,
	}
}

// CreateUser creates a user with a bcrypt-hashed initial password
func (s *UserService) CreateUser(user *models.User, password string, actorID uuid.UUID) error {
	if user.Email == "" || user.Name == "" {
		return fmt.Errorf("email and name are required: %w", models.ErrValidation)
	}

	if password != "" {
		hash, err := s.authSvc.HashPassword(password)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = hash
	}

	if err := s.userRepo.Create(user); err != nil {
		return err
	}

	s.auditRepo.Create(&models.AuditLog{
		UserID:   &actorID,
		Action:   "create",
		Resource: "user",
		Details:  fmt.Sprintf("Created user %s (%s)", user.Email, user.ID),
	})

	return nil
}

// GetUser retrieves a user by ID
func (s *UserService) GetUser(id uuid.UUID) (*models.User, error) {
	user, err := s.userRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("user %s: %w", id, models.ErrNotFound)
	}
	return user, nil
}

// ListUsers retrieves all users
func (s *UserService) ListUsers() ([]models.User, error) {
	return s.userRepo.List()
}

// UpdateUser updates a user's profile and org edges. A changed leader
// edge must keep the leader chain acyclic.
func (s *UserService) UpdateUser(user *models.User, actorID uuid.UUID) error {
	existing, err := s.userRepo.GetByID(user.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		return fmt.Errorf("user %s: %w", user.ID, models.ErrNotFound)
	}

	if user.LeaderID != nil {
		leader, err := s.userRepo.GetByID(*user.LeaderID)
		if err != nil {
			return err
		}
		if leader == nil {
			return fmt.Errorf("leader %s: %w", *user.LeaderID, models.ErrNotFound)
		}
		if err := s.orgGraph.ValidateLeaderEdge(user.ID, *user.LeaderID); err != nil {
			return err
		}
	}

	if err := s.userRepo.Update(user); err != nil {
		return err
	}

	s.auditRepo.Create(&models.AuditLog{
		UserID:   &actorID,
		Action:   "update",
		Resource: "user",
		Details:  fmt.Sprintf("Updated user %s (%s)", user.Email, user.ID),
	})

	return nil
}

// Reports retrieves the direct reports of a user
func (s *UserService) Reports(userID uuid.UUID) ([]models.User, error) {
	return s.orgGraph.ReportsOf(userID)
}
