package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"merlin/internal/models"
)

func question(text string, category *string) models.Question {
	return models.Question{ID: uuid.New(), Text: text, ScaleMin: 1, ScaleMax: 5, Category: category}
}

func response(questionID uuid.UUID, answer int) models.FormResponse {
	return models.FormResponse{QuestionID: questionID, UserID: uuid.New(), Answer: answer}
}

func TestAggregateQuestionsMeans(t *testing.T) {
	communication := "Communication"
	q1 := question("Communicates clearly", &communication)
	q2 := question("Listens to feedback", &communication)
	q3 := question("Delivers on commitments", nil)

	responses := []models.FormResponse{
		response(q1.ID, 4),
		response(q1.ID, 5),
		response(q2.ID, 2),
		response(q3.ID, 3),
		response(q3.ID, 4),
	}

	averages, categories := aggregateQuestions([]models.Question{q1, q2, q3}, responses)

	require.Len(t, averages, 3)
	assert.Equal(t, q1.ID, averages[0].QuestionID)
	require.NotNil(t, averages[0].Average)
	assert.InDelta(t, 4.5, *averages[0].Average, 1e-9)
	require.NotNil(t, averages[1].Average)
	assert.InDelta(t, 2.0, *averages[1].Average, 1e-9)
	require.NotNil(t, averages[2].Average)
	assert.InDelta(t, 3.5, *averages[2].Average, 1e-9)

	// The category mean weights each question equally, not each raw
	// answer: (4.5 + 2.0) / 2, not (4+5+2) / 3.
	require.Contains(t, categories, communication)
	require.NotNil(t, categories[communication])
	assert.InDelta(t, 3.25, *categories[communication], 1e-9)

	// Uncategorized questions contribute to no category.
	assert.Len(t, categories, 1)
}

func TestAggregateQuestionsUnansweredQuestion(t *testing.T) {
	quality := "Quality"
	answered := question("Writes solid tests", &quality)
	unanswered := question("Reviews thoroughly", &quality)

	responses := []models.FormResponse{
		response(answered.ID, 5),
	}

	averages, categories := aggregateQuestions([]models.Question{answered, unanswered}, responses)

	require.Len(t, averages, 2)
	require.NotNil(t, averages[0].Average)
	assert.Nil(t, averages[1].Average)

	// The undefined question mean is excluded instead of counting as
	// zero.
	require.NotNil(t, categories[quality])
	assert.InDelta(t, 5.0, *categories[quality], 1e-9)
}

func TestAggregateQuestionsEmptyCategory(t *testing.T) {
	growth := "Growth"
	q := question("Mentors others", &growth)

	averages, categories := aggregateQuestions([]models.Question{q}, nil)

	require.Len(t, averages, 1)
	assert.Nil(t, averages[0].Average)

	// The category still appears, with an undefined mean.
	require.Contains(t, categories, growth)
	assert.Nil(t, categories[growth])
}

func TestAggregateQuestionsNoQuestions(t *testing.T) {
	averages, categories := aggregateQuestions(nil, nil)
	assert.Empty(t, averages)
	assert.Empty(t, categories)
}
