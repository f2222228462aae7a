package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"merlin/internal/models"
)

const assignmentColumns = `id, form_id, assigned_to, assigned_by, deadline, message, is_completed, created_at, updated_at`

// AssignmentRepository handles form assignment database operations
type AssignmentRepository struct {
	db *sql.DB
}

// NewAssignmentRepository creates a new assignment repository
func NewAssignmentRepository(db *sql.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

func scanAssignment(row interface{ Scan(dest ...any) error }) (*models.FormAssignment, error) {
	a := &models.FormAssignment{}
	err := row.Scan(
		&a.ID,
		&a.FormID,
		&a.AssignedTo,
		&a.AssignedBy,
		&a.Deadline,
		&a.Message,
		&a.IsCompleted,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// InsertTx inserts an assignment inside a transaction. It reports
// whether a row was created; a natural-key collision leaves the store
// untouched and returns false, which is how two racing materializers
// converge on the same post-state.
func (r *AssignmentRepository) InsertTx(tx *sql.Tx, a *models.FormAssignment) (bool, error) {
	query := `
		INSERT INTO form_assignments (form_id, assigned_to, assigned_by, deadline, message)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (form_id, assigned_to, COALESCE(assigned_by, '00000000-0000-0000-0000-000000000000'::uuid))
		DO NOTHING
		RETURNING id, is_completed, created_at, updated_at
	`

	err := tx.QueryRow(query, a.FormID, a.AssignedTo, a.AssignedBy, a.Deadline, a.Message).
		Scan(&a.ID, &a.IsCompleted, &a.CreatedAt, &a.UpdatedAt)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to insert assignment: %w", err)
	}

	return true, nil
}

// ListByForm retrieves all assignments of a form
func (r *AssignmentRepository) ListByForm(formID uuid.UUID) ([]models.FormAssignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM form_assignments WHERE form_id = $1 ORDER BY assigned_to, assigned_by`

	rows, err := r.db.Query(query, formID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	defer rows.Close()

	assignments := []models.FormAssignment{}
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		assignments = append(assignments, *a)
	}

	return assignments, rows.Err()
}

// LockByFormAndRespondentTx locks the respondent's assignments for a
// form so the completion flag stays a pure function of stored
// responses under concurrent submissions.
func (r *AssignmentRepository) LockByFormAndRespondentTx(tx *sql.Tx, formID, userID uuid.UUID) ([]models.FormAssignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM form_assignments WHERE form_id = $1 AND assigned_to = $2 FOR UPDATE`

	rows, err := tx.Query(query, formID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock assignments: %w", err)
	}
	defer rows.Close()

	assignments := []models.FormAssignment{}
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		assignments = append(assignments, *a)
	}

	return assignments, rows.Err()
}

// SetCompletedTx updates the completion flag on every assignment the
// respondent holds for the form
func (r *AssignmentRepository) SetCompletedTx(tx *sql.Tx, formID, userID uuid.UUID, completed bool) error {
	_, err := tx.Exec(
		`UPDATE form_assignments SET is_completed = $3, updated_at = NOW() WHERE form_id = $1 AND assigned_to = $2`,
		formID, userID, completed,
	)
	if err != nil {
		return fmt.Errorf("failed to set completion flag: %w", err)
	}
	return nil
}

// AssessedUserIDs returns the distinct assessed users of a form in a
// stable order
func (r *AssignmentRepository) AssessedUserIDs(formID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.db.Query(
		`SELECT DISTINCT assigned_by FROM form_assignments WHERE form_id = $1 AND assigned_by IS NOT NULL ORDER BY assigned_by`,
		formID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get assessed users: %w", err)
	}
	defer rows.Close()

	ids := []uuid.UUID{}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

// RespondentIDs returns the respondents reviewing the given assessed
// user on a form, ordered by ID
func (r *AssignmentRepository) RespondentIDs(formID, assessedBy uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.db.Query(
		`SELECT assigned_to FROM form_assignments WHERE form_id = $1 AND assigned_by = $2 ORDER BY assigned_to`,
		formID, assessedBy,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get respondents: %w", err)
	}
	defer rows.Close()

	ids := []uuid.UUID{}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

// PendingReminder describes an incomplete assignment whose deadline
// falls inside the reminder window
type PendingReminder struct {
	Assignment      models.FormAssignment
	RespondentEmail string
	RespondentName  string
	FormName        string
}

// IncompleteDueBetween retrieves incomplete assignments with a
// deadline inside [from, until], joined with respondent and form for
// the reminder email
func (r *AssignmentRepository) IncompleteDueBetween(from, until time.Time) ([]PendingReminder, error) {
	query := `
		SELECT fa.id, fa.form_id, fa.assigned_to, fa.assigned_by, fa.deadline, fa.message,
		       fa.is_completed, fa.created_at, fa.updated_at,
		       u.email, u.name, f.name
		FROM form_assignments fa
		JOIN users u ON u.id = fa.assigned_to
		JOIN forms f ON f.id = fa.form_id
		WHERE fa.is_completed = FALSE AND fa.deadline >= $1 AND fa.deadline <= $2
		ORDER BY fa.deadline
	`

	rows, err := r.db.Query(query, from, until)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending reminders: %w", err)
	}
	defer rows.Close()

	reminders := []PendingReminder{}
	for rows.Next() {
		var p PendingReminder
		err := rows.Scan(
			&p.Assignment.ID,
			&p.Assignment.FormID,
			&p.Assignment.AssignedTo,
			&p.Assignment.AssignedBy,
			&p.Assignment.Deadline,
			&p.Assignment.Message,
			&p.Assignment.IsCompleted,
			&p.Assignment.CreatedAt,
			&p.Assignment.UpdatedAt,
			&p.RespondentEmail,
			&p.RespondentName,
			&p.FormName,
		)
		if err != nil {
			return nil, err
		}
		reminders = append(reminders, p)
	}

	return reminders, rows.Err()
}
