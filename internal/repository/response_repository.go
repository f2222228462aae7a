package repository

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"merlin/internal/models"
)

// ResponseRepository handles form response database operations
type ResponseRepository struct {
	db *sql.DB
}

// NewResponseRepository creates a new response repository
func NewResponseRepository(db *sql.DB) *ResponseRepository {
	return &ResponseRepository{db: db}
}

// UpsertTx creates or overwrites a response inside a transaction.
// (question, respondent) is unique; re-submission overwrites in place.
func (r *ResponseRepository) UpsertTx(tx *sql.Tx, response *models.FormResponse) error {
	query := `
		INSERT INTO form_responses (question_id, user_id, answer, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (question_id, user_id)
		DO UPDATE SET answer = EXCLUDED.answer, updated_at = NOW()
		RETURNING id, created_at, updated_at
	`

	err := tx.QueryRow(query, response.QuestionID, response.UserID, response.Answer).
		Scan(&response.ID, &response.CreatedAt, &response.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert response: %w", err)
	}

	return nil
}

// AnsweredCountTx counts the respondent's answered questions of a
// form inside a transaction
func (r *ResponseRepository) AnsweredCountTx(tx *sql.Tx, formID, userID uuid.UUID) (int, error) {
	var count int
	query := `
		SELECT COUNT(*)
		FROM form_responses fr
		JOIN questions q ON q.id = fr.question_id
		WHERE q.form_id = $1 AND fr.user_id = $2
	`

	if err := tx.QueryRow(query, formID, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count responses: %w", err)
	}

	return count, nil
}

// ListByFormAndRespondents retrieves all responses to a form's
// questions by the given respondents
func (r *ResponseRepository) ListByFormAndRespondents(formID uuid.UUID, userIDs []uuid.UUID) ([]models.FormResponse, error) {
	if len(userIDs) == 0 {
		return []models.FormResponse{}, nil
	}

	strIDs := make([]string, len(userIDs))
	for i, id := range userIDs {
		strIDs[i] = id.String()
	}

	query := `
		SELECT fr.id, fr.question_id, fr.user_id, fr.answer, fr.created_at, fr.updated_at
		FROM form_responses fr
		JOIN questions q ON q.id = fr.question_id
		WHERE q.form_id = $1 AND fr.user_id = ANY($2::uuid[])
		ORDER BY q.sort_order, fr.user_id
	`

	rows, err := r.db.Query(query, formID, pq.Array(strIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to list responses: %w", err)
	}
	defer rows.Close()

	responses := []models.FormResponse{}
	for rows.Next() {
		var resp models.FormResponse
		err := rows.Scan(
			&resp.ID,
			&resp.QuestionID,
			&resp.UserID,
			&resp.Answer,
			&resp.CreatedAt,
			&resp.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		responses = append(responses, resp)
	}

	return responses, rows.Err()
}

// ListByRespondent retrieves a respondent's responses to a form
func (r *ResponseRepository) ListByRespondent(formID, userID uuid.UUID) ([]models.FormResponse, error) {
	query := `
		SELECT fr.id, fr.question_id, fr.user_id, fr.answer, fr.created_at, fr.updated_at
		FROM form_responses fr
		JOIN questions q ON q.id = fr.question_id
		WHERE q.form_id = $1 AND fr.user_id = $2
		ORDER BY q.sort_order
	`

	rows, err := r.db.Query(query, formID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list responses: %w", err)
	}
	defer rows.Close()

	responses := []models.FormResponse{}
	for rows.Next() {
		var resp models.FormResponse
		err := rows.Scan(
			&resp.ID,
			&resp.QuestionID,
			&resp.UserID,
			&resp.Answer,
			&resp.CreatedAt,
			&resp.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		responses = append(responses, resp)
	}

	return responses, rows.Err()
}
