package service

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"merlin/internal/models"
	"merlin/internal/repository"
)

// OrgGraphService resolves assessor edges on the employee graph
type OrgGraphService struct {
	userRepo *repository.UserRepository
}

// NewOrgGraphService creates a new org graph service
func NewOrgGraphService(userRepo *repository.UserRepository) *OrgGraphService {
	return &OrgGraphService{userRepo: userRepo}
}

// LeadersOf returns the users that assess the given user for a form
// type, sorted by UUID for deterministic fan-out. TL resolves to the
// direct leader edge only; every other type has no automatic assessor.
func (s *OrgGraphService) LeadersOf(user *models.User, formType models.FormType) ([]models.User, error) {
	if formType != models.FormTypeTL {
		return []models.User{}, nil
	}
	if user.LeaderID == nil {
		return []models.User{}, nil
	}

	leader, err := s.userRepo.GetByID(*user.LeaderID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve leader: %w", err)
	}
	if leader == nil {
		return []models.User{}, nil
	}

	leaders := []models.User{*leader}
	sort.Slice(leaders, func(i, j int) bool {
		return leaders[i].ID.String() < leaders[j].ID.String()
	})
	return leaders, nil
}

// ReportsOf returns the users whose leader edge points at the given user
func (s *OrgGraphService) ReportsOf(userID uuid.UUID) ([]models.User, error) {
	return s.userRepo.GetReports(userID)
}

// ValidateLeaderEdge rejects a leader edge that would close a cycle in
// the leader chain. The chain above newLeaderID must never reach
// userID.
func (s *OrgGraphService) ValidateLeaderEdge(userID, newLeaderID uuid.UUID) error {
	if userID == newLeaderID {
		return fmt.Errorf("user cannot be their own leader: %w", models.ErrValidation)
	}

	visited := map[uuid.UUID]bool{userID: true}
	current := newLeaderID
	for {
		if visited[current] {
			return fmt.Errorf("leader chain would form a cycle: %w", models.ErrValidation)
		}
		visited[current] = true

		user, err := s.userRepo.GetByID(current)
		if err != nil {
			return fmt.Errorf("failed to walk leader chain: %w", err)
		}
		if user == nil || user.LeaderID == nil {
			return nil
		}
		current = *user.LeaderID
	}
}
