package service

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"merlin/internal/models"
	"merlin/internal/repository"
)

// CycleService handles business logic for performance cycles
type CycleService struct {
	cycleRepo *repository.CycleRepository
	formRepo  *repository.FormRepository
	auditRepo *repository.AuditRepository
}

// NewCycleService creates a new cycle service
func NewCycleService(cycleRepo *repository.CycleRepository, formRepo *repository.FormRepository, auditRepo *repository.AuditRepository) *CycleService {
	return &CycleService{
		cycleRepo: cycleRepo,
		formRepo:  formRepo,
		auditRepo: auditRepo,
	}
}

// CreateCycle creates a new cycle. Cycles are immutable once created.
func (s *CycleService) CreateCycle(cycle *models.Cycle, actorID uuid.UUID) error {
	if cycle.Name == "" {
		return fmt.Errorf("cycle name is required: %w", models.ErrValidation)
	}
	if !cycle.EndDate.After(cycle.StartDate) {
		return fmt.Errorf("end date must be after start date: %w", models.ErrValidation)
	}

	if err := s.cycleRepo.Create(cycle); err != nil {
		return err
	}

	s.auditRepo.Create(&models.AuditLog{
		UserID:   &actorID,
		Action:   "create",
		Resource: "cycle",
		Details:  fmt.Sprintf("Created cycle %s (%s)", cycle.Name, cycle.ID),
	})

	return nil
}

// GetCycle retrieves a cycle by ID
func (s *CycleService) GetCycle(id uuid.UUID) (*models.Cycle, error) {
	cycle, err := s.cycleRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if cycle == nil {
		return nil, fmt.Errorf("cycle %s: %w", id, models.ErrNotFound)
	}
	return cycle, nil
}

// ListCycles retrieves all cycles
func (s *CycleService) ListCycles() ([]models.Cycle, error) {
	return s.cycleRepo.List()
}

// ActiveCycles retrieves the cycles whose window contains now
func (s *CycleService) ActiveCycles(now time.Time) ([]models.Cycle, error) {
	return s.cycleRepo.ActiveAt(now)
}

// CycleOf resolves the cycle a form belongs to
func (s *CycleService) CycleOf(formID uuid.UUID) (*models.Cycle, error) {
	form, err := s.formRepo.GetByID(formID)
	if err != nil {
		return nil, err
	}
	if form == nil {
		return nil, fmt.Errorf("form %s: %w", formID, models.ErrNotFound)
	}
	return s.GetCycle(form.CycleID)
}

// DeleteCycle deletes a cycle unless forms, assignments or notes still
// reference it
func (s *CycleService) DeleteCycle(id uuid.UUID, actorID uuid.UUID) error {
	cycle, err := s.cycleRepo.GetByID(id)
	if err != nil {
		return err
	}
	if cycle == nil {
		return fmt.Errorf("cycle %s: %w", id, models.ErrNotFound)
	}

	forms, assignments, notes, err := s.cycleRepo.ReferenceCounts(id)
	if err != nil {
		return err
	}
	if forms > 0 || assignments > 0 || notes > 0 {
		return fmt.Errorf("cycle %s has %d forms, %d assignments, %d notes: %w",
			id, forms, assignments, notes, models.ErrReferenced)
	}

	if err := s.cycleRepo.Delete(id); err != nil {
		return err
	}

	s.auditRepo.Create(&models.AuditLog{
		UserID:   &actorID,
		Action:   "delete",
		Resource: "cycle",
		Details:  fmt.Sprintf("Deleted cycle %s (%s)", cycle.Name, id),
	})

	return nil
}
