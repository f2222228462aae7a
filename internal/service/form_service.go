package service

import (
	"fmt"

	"github.com/google/uuid"

	"merlin/internal/models"
	"merlin/internal/repository"
)

// FormService handles business logic for the form catalog
type FormService struct {
	formRepo  *repository.FormRepository
	cycleRepo *repository.CycleRepository
	auditRepo *repository.AuditRepository
}

// NewFormService creates a new form service
func NewFormService(formRepo *repository.FormRepository, cycleRepo *repository.CycleRepository, auditRepo *repository.AuditRepository) *FormService {
	return &FormService{
		formRepo:  formRepo,
		cycleRepo: cycleRepo,
		auditRepo: auditRepo,
	}
}

// CreateForm creates a new form bound to a cycle
func (s *FormService) CreateForm(form *models.Form, actorID uuid.UUID) error {
	if form.Name == "" {
		return fmt.Errorf("form name is required: %w", models.ErrValidation)
	}
	if !form.FormType.Valid() {
		return fmt.Errorf("invalid form type %q: %w", form.FormType, models.ErrValidation)
	}

	cycle, err := s.cycleRepo.GetByID(form.CycleID)
	if err != nil {
		return err
	}
	if cycle == nil {
		return fmt.Errorf("cycle %s: %w", form.CycleID, models.ErrNotFound)
	}

	if err := s.formRepo.Create(form); err != nil {
		return err
	}

	s.auditRepo.Create(&models.AuditLog{
		UserID:   &actorID,
		Action:   "create",
		Resource: "form",
		Details:  fmt.Sprintf("Created form %s (%s) in cycle %s", form.Name, form.ID, form.CycleID),
	})

	return nil
}

// GetForm retrieves a form by ID
func (s *FormService) GetForm(id uuid.UUID) (*models.Form, error) {
	form, err := s.formRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if form == nil {
		return nil, fmt.Errorf("form %s: %w", id, models.ErrNotFound)
	}
	return form, nil
}

// GetFormWithQuestions retrieves a form with its ordered questions
func (s *FormService) GetFormWithQuestions(id uuid.UUID) (*models.FormWithQuestions, error) {
	form, err := s.formRepo.GetWithQuestions(id)
	if err != nil {
		return nil, err
	}
	if form == nil {
		return nil, fmt.Errorf("form %s: %w", id, models.ErrNotFound)
	}
	return form, nil
}

// ListForms retrieves all forms of a cycle
func (s *FormService) ListForms(cycleID uuid.UUID) ([]models.Form, error) {
	return s.formRepo.ListByCycle(cycleID)
}

// AddQuestion appends a question to a form
func (s *FormService) AddQuestion(question *models.Question, actorID uuid.UUID) error {
	if question.Text == "" {
		return fmt.Errorf("question text is required: %w", models.ErrValidation)
	}
	if question.ScaleMin > question.ScaleMax {
		return fmt.Errorf("scale_min %d exceeds scale_max %d: %w",
			question.ScaleMin, question.ScaleMax, models.ErrValidation)
	}

	form, err := s.formRepo.GetByID(question.FormID)
	if err != nil {
		return err
	}
	if form == nil {
		return fmt.Errorf("form %s: %w", question.FormID, models.ErrNotFound)
	}

	if err := s.formRepo.CreateQuestion(question); err != nil {
		return err
	}

	s.auditRepo.Create(&models.AuditLog{
		UserID:   &actorID,
		Action:   "create",
		Resource: "question",
		Details:  fmt.Sprintf("Added question %s to form %s", question.ID, question.FormID),
	})

	return nil
}
