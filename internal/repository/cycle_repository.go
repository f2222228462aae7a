package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"merlin/internal/models"
)

// CycleRepository handles performance cycle database operations
type CycleRepository struct {
	db *sql.DB
}

// NewCycleRepository creates a new cycle repository
func NewCycleRepository(db *sql.DB) *CycleRepository {
	return &CycleRepository{db: db}
}

// Create creates a new cycle
func (r *CycleRepository) Create(cycle *models.Cycle) error {
	query := `
		INSERT INTO cycles (name, start_date, end_date)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	err := r.db.QueryRow(query, cycle.Name, cycle.StartDate, cycle.EndDate).
		Scan(&cycle.ID, &cycle.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create cycle: %w", err)
	}

	return nil
}

// GetByID retrieves a cycle by ID
func (r *CycleRepository) GetByID(id uuid.UUID) (*models.Cycle, error) {
	query := `SELECT id, name, start_date, end_date, created_at FROM cycles WHERE id = $1`

	cycle := &models.Cycle{}
	err := r.db.QueryRow(query, id).Scan(
		&cycle.ID, &cycle.Name, &cycle.StartDate, &cycle.EndDate, &cycle.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cycle: %w", err)
	}

	return cycle, nil
}

// List retrieves all cycles ordered by start date, newest first
func (r *CycleRepository) List() ([]models.Cycle, error) {
	query := `SELECT id, name, start_date, end_date, created_at FROM cycles ORDER BY start_date DESC`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list cycles: %w", err)
	}
	defer rows.Close()

	cycles := []models.Cycle{}
	for rows.Next() {
		var cycle models.Cycle
		if err := rows.Scan(&cycle.ID, &cycle.Name, &cycle.StartDate, &cycle.EndDate, &cycle.CreatedAt); err != nil {
			return nil, err
		}
		cycles = append(cycles, cycle)
	}

	return cycles, rows.Err()
}

// ActiveAt retrieves the cycles whose window contains the given time
func (r *CycleRepository) ActiveAt(now time.Time) ([]models.Cycle, error) {
	query := `
		SELECT id, name, start_date, end_date, created_at
		FROM cycles
		WHERE start_date <= $1 AND end_date >= $1
		ORDER BY start_date
	`

	rows, err := r.db.Query(query, now)
	if err != nil {
		return nil, fmt.Errorf("failed to get active cycles: %w", err)
	}
	defer rows.Close()

	cycles := []models.Cycle{}
	for rows.Next() {
		var cycle models.Cycle
		if err := rows.Scan(&cycle.ID, &cycle.Name, &cycle.StartDate, &cycle.EndDate, &cycle.CreatedAt); err != nil {
			return nil, err
		}
		cycles = append(cycles, cycle)
	}

	return cycles, rows.Err()
}

// ReferenceCounts returns how many forms, assignments, and notes
// still reference the cycle
func (r *CycleRepository) ReferenceCounts(id uuid.UUID) (forms, assignments, notes int, err error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM forms WHERE cycle_id = $1),
			(SELECT COUNT(*) FROM form_assignments fa JOIN forms f ON f.id = fa.form_id WHERE f.cycle_id = $1),
			(SELECT COUNT(*) FROM notes WHERE cycle_id = $1)
	`

	err = r.db.QueryRow(query, id).Scan(&forms, &assignments, &notes)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("failed to count cycle references: %w", err)
	}

	return forms, assignments, notes, nil
}

// Delete deletes a cycle. Callers must check references first; the
// foreign keys are the last line of defense.
func (r *CycleRepository) Delete(id uuid.UUID) error {
	result, err := r.db.Exec(`DELETE FROM cycles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete cycle: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return models.ErrNotFound
	}

	return nil
}
