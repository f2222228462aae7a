package repository

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"merlin/internal/models"
)

// FormRepository handles form and question database operations
type FormRepository struct {
	db *sql.DB
}

// NewFormRepository creates a new form repository
func NewFormRepository(db *sql.DB) *FormRepository {
	return &FormRepository{db: db}
}

// Create creates a new form
func (r *FormRepository) Create(form *models.Form) error {
	query := `
		INSERT INTO forms (cycle_id, name, description, form_type, is_default)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(
		query,
		form.CycleID,
		form.Name,
		form.Description,
		form.FormType,
		form.IsDefault,
	).Scan(&form.ID, &form.CreatedAt, &form.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create form: %w", err)
	}

	return nil
}

// GetByID retrieves a form by ID
func (r *FormRepository) GetByID(id uuid.UUID) (*models.Form, error) {
	query := `
		SELECT id, cycle_id, name, description, form_type, is_default, created_at, updated_at
		FROM forms
		WHERE id = $1
	`

	form := &models.Form{}
	err := r.db.QueryRow(query, id).Scan(
		&form.ID,
		&form.CycleID,
		&form.Name,
		&form.Description,
		&form.FormType,
		&form.IsDefault,
		&form.CreatedAt,
		&form.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get form: %w", err)
	}

	return form, nil
}

// ListByCycle retrieves all forms of a cycle
func (r *FormRepository) ListByCycle(cycleID uuid.UUID) ([]models.Form, error) {
	return r.list(`
		SELECT id, cycle_id, name, description, form_type, is_default, created_at, updated_at
		FROM forms
		WHERE cycle_id = $1
		ORDER BY created_at
	`, cycleID)
}

// ListDefaultByCycle retrieves the default forms of a cycle, the ones
// the assignment engine materializes
func (r *FormRepository) ListDefaultByCycle(cycleID uuid.UUID) ([]models.Form, error) {
	return r.list(`
		SELECT id, cycle_id, name, description, form_type, is_default, created_at, updated_at
		FROM forms
		WHERE cycle_id = $1 AND is_default = TRUE
		ORDER BY created_at
	`, cycleID)
}

func (r *FormRepository) list(query string, args ...any) ([]models.Form, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list forms: %w", err)
	}
	defer rows.Close()

	forms := []models.Form{}
	for rows.Next() {
		var form models.Form
		err := rows.Scan(
			&form.ID,
			&form.CycleID,
			&form.Name,
			&form.Description,
			&form.FormType,
			&form.IsDefault,
			&form.CreatedAt,
			&form.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		forms = append(forms, form)
	}

	return forms, rows.Err()
}

// CreateQuestion adds a question to a form
func (r *FormRepository) CreateQuestion(question *models.Question) error {
	query := `
		INSERT INTO questions (form_id, text, scale_min, scale_max, category, sort_order)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	err := r.db.QueryRow(
		query,
		question.FormID,
		question.Text,
		question.ScaleMin,
		question.ScaleMax,
		question.Category,
		question.SortOrder,
	).Scan(&question.ID, &question.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create question: %w", err)
	}

	return nil
}

// QuestionsByForm retrieves a form's questions in display order
func (r *FormRepository) QuestionsByForm(formID uuid.UUID) ([]models.Question, error) {
	query := `
		SELECT id, form_id, text, scale_min, scale_max, category, sort_order, created_at
		FROM questions
		WHERE form_id = $1
		ORDER BY sort_order, created_at
	`

	rows, err := r.db.Query(query, formID)
	if err != nil {
		return nil, fmt.Errorf("failed to get questions: %w", err)
	}
	defer rows.Close()

	questions := []models.Question{}
	for rows.Next() {
		var q models.Question
		err := rows.Scan(
			&q.ID,
			&q.FormID,
			&q.Text,
			&q.ScaleMin,
			&q.ScaleMax,
			&q.Category,
			&q.SortOrder,
			&q.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}

	return questions, rows.Err()
}

// GetWithQuestions retrieves a form together with its ordered questions
func (r *FormRepository) GetWithQuestions(id uuid.UUID) (*models.FormWithQuestions, error) {
	form, err := r.GetByID(id)
	if err != nil {
		return nil, err
	}
	if form == nil {
		return nil, nil
	}

	questions, err := r.QuestionsByForm(id)
	if err != nil {
		return nil, err
	}

	return &models.FormWithQuestions{Form: *form, Questions: questions}, nil
}
