package service

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"merlin/internal/models"
	"merlin/internal/repository"
)

// ResponseService handles answer submission and completion tracking
type ResponseService struct {
	db             *sql.DB
	formRepo       *repository.FormRepository
	assignmentRepo *repository.AssignmentRepository
	responseRepo   *repository.ResponseRepository
}

// NewResponseService creates a new response service
func NewResponseService(db *sql.DB, formRepo *repository.FormRepository, assignmentRepo *repository.AssignmentRepository, responseRepo *repository.ResponseRepository) *ResponseService {
	return &ResponseService{
		db:             db,
		formRepo:       formRepo,
		assignmentRepo: assignmentRepo,
		responseRepo:   responseRepo,
	}
}

// Submit validates and stores a batch of answers for one respondent on
// one form, then recomputes the respondent's completion flag. Partial
// submissions are allowed; a batch with any invalid answer writes
// nothing. Completion is derived purely from stored responses, never
// set directly.
func (s *ResponseService) Submit(formID, respondentID uuid.UUID, answers map[uuid.UUID]int) error {
	form, err := s.formRepo.GetWithQuestions(formID)
	if err != nil {
		return err
	}
	if form == nil {
		return fmt.Errorf("form %s: %w", formID, models.ErrNotFound)
	}

	questionByID := make(map[uuid.UUID]*models.Question, len(form.Questions))
	for i := range form.Questions {
		questionByID[form.Questions[i].ID] = &form.Questions[i]
	}

	// Validate the whole batch before touching the store.
	for questionID, answer := range answers {
		question, ok := questionByID[questionID]
		if !ok {
			return fmt.Errorf("question %s does not belong to form %s: %w", questionID, formID, models.ErrValidation)
		}
		if answer < question.ScaleMin || answer > question.ScaleMax {
			return fmt.Errorf("answer %d for question %s outside scale [%d, %d]: %w",
				answer, questionID, question.ScaleMin, question.ScaleMax, models.ErrValidation)
		}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Lock the respondent's assignments so concurrent submissions
	// serialize and the flag cannot go stale.
	assignments, err := s.assignmentRepo.LockByFormAndRespondentTx(tx, formID, respondentID)
	if err != nil {
		return err
	}
	if len(assignments) == 0 {
		return fmt.Errorf("user %s has no assignment for form %s: %w", respondentID, formID, models.ErrValidation)
	}

	for questionID, answer := range answers {
		response := &models.FormResponse{
			QuestionID: questionID,
			UserID:     respondentID,
			Answer:     answer,
		}
		if err := s.responseRepo.UpsertTx(tx, response); err != nil {
			return err
		}
	}

	answered, err := s.responseRepo.AnsweredCountTx(tx, formID, respondentID)
	if err != nil {
		return err
	}
	complete := len(form.Questions) > 0 && answered == len(form.Questions)

	if err := s.assignmentRepo.SetCompletedTx(tx, formID, respondentID, complete); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit responses: %w", err)
	}

	return nil
}

// Responses retrieves one respondent's stored answers for a form
func (s *ResponseService) Responses(formID, respondentID uuid.UUID) ([]models.FormResponse, error) {
	return s.responseRepo.ListByRespondent(formID, respondentID)
}
