package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"merlin/internal/models"
	"merlin/internal/repository"
)

// ResultsService aggregates stored responses per assessed user
type ResultsService struct {
	formRepo       *repository.FormRepository
	userRepo       *repository.UserRepository
	assignmentRepo *repository.AssignmentRepository
	responseRepo   *repository.ResponseRepository
}

// NewResultsService creates a new results service
func NewResultsService(formRepo *repository.FormRepository, userRepo *repository.UserRepository, assignmentRepo *repository.AssignmentRepository, responseRepo *repository.ResponseRepository) *ResultsService {
	return &ResultsService{
		formRepo:       formRepo,
		userRepo:       userRepo,
		assignmentRepo: assignmentRepo,
		responseRepo:   responseRepo,
	}
}

// aggregateQuestions computes per-question mean answers over the given
// responses, in question order, and per-category means over the
// defined question means. A category mean weights every question
// equally regardless of how many responses each question drew.
func aggregateQuestions(questions []models.Question, responses []models.FormResponse) ([]models.QuestionAverage, map[string]*float64) {
	sums := make(map[uuid.UUID]int, len(questions))
	counts := make(map[uuid.UUID]int, len(questions))
	for i := range responses {
		sums[responses[i].QuestionID] += responses[i].Answer
		counts[responses[i].QuestionID]++
	}

	averages := make([]models.QuestionAverage, 0, len(questions))
	categorySums := map[string]float64{}
	categoryCounts := map[string]int{}
	categories := map[string]bool{}

	for i := range questions {
		q := &questions[i]
		qa := models.QuestionAverage{
			QuestionID: q.ID,
			Text:       q.Text,
			Category:   q.Category,
		}
		if counts[q.ID] > 0 {
			avg := float64(sums[q.ID]) / float64(counts[q.ID])
			qa.Average = &avg
		}
		averages = append(averages, qa)

		if q.Category != nil {
			categories[*q.Category] = true
			if qa.Average != nil {
				categorySums[*q.Category] += *qa.Average
				categoryCounts[*q.Category]++
			}
		}
	}

	categoryAverages := make(map[string]*float64, len(categories))
	for category := range categories {
		if categoryCounts[category] > 0 {
			avg := categorySums[category] / float64(categoryCounts[category])
			categoryAverages[category] = &avg
		} else {
			categoryAverages[category] = nil
		}
	}

	return averages, categoryAverages
}

// Aggregate computes the results of a form for every assessed user.
// An assessed user's respondents are the assigned_to of their
// assignments; only those respondents' answers count toward their
// averages. Assessed users that no longer exist are skipped.
func (s *ResultsService) Aggregate(ctx context.Context, formID uuid.UUID) (*models.FormResults, error) {
	form, err := s.formRepo.GetByID(formID)
	if err != nil {
		return nil, err
	}
	if form == nil {
		return nil, fmt.Errorf("form %s: %w", formID, models.ErrNotFound)
	}

	questions, err := s.formRepo.QuestionsByForm(formID)
	if err != nil {
		return nil, err
	}

	assessedIDs, err := s.assignmentRepo.AssessedUserIDs(formID)
	if err != nil {
		return nil, err
	}

	users, err := s.userRepo.ListByIDs(assessedIDs)
	if err != nil {
		return nil, err
	}
	userByID := make(map[uuid.UUID]*models.User, len(users))
	for i := range users {
		userByID[users[i].ID] = &users[i]
	}

	results := &models.FormResults{
		Form:     *form,
		Assessed: []models.AssessedResult{},
	}

	for _, assessedID := range assessedIDs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		user, ok := userByID[assessedID]
		if !ok {
			continue
		}

		respondentIDs, err := s.assignmentRepo.RespondentIDs(formID, assessedID)
		if err != nil {
			return nil, err
		}

		responses := []models.FormResponse{}
		if len(respondentIDs) > 0 {
			responses, err = s.responseRepo.ListByFormAndRespondents(formID, respondentIDs)
			if err != nil {
				return nil, err
			}
		}

		questionAverages, categoryAverages := aggregateQuestions(questions, responses)
		results.Assessed = append(results.Assessed, models.AssessedResult{
			User:       *user,
			Questions:  questionAverages,
			Categories: categoryAverages,
		})
	}

	return results, nil
}
