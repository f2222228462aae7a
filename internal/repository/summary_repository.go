package repository

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"merlin/internal/models"
)

// SummaryRepository handles review summary database operations
type SummaryRepository struct {
	db *sql.DB
}

// NewSummaryRepository creates a new summary repository
func NewSummaryRepository(db *sql.DB) *SummaryRepository {
	return &SummaryRepository{db: db}
}

// Upsert creates or updates the summary an author keeps about a subject within a cycle
func (r *SummaryRepository) Upsert(summary *models.Summary) error {
	query := `
		INSERT INTO summaries (author_id, subject_id, cycle_id, content)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (author_id, subject_id, cycle_id)
		DO UPDATE SET content = EXCLUDED.content, updated_at = NOW()
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(query, summary.AuthorID, summary.SubjectID, summary.CycleID, summary.Content).
		Scan(&summary.ID, &summary.CreatedAt, &summary.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert summary: %w", err)
	}

	return nil
}

// Get retrieves the summary an author keeps about a subject within a cycle
func (r *SummaryRepository) Get(authorID, subjectID, cycleID uuid.UUID) (*models.Summary, error) {
	query := `
		SELECT id, author_id, subject_id, cycle_id, content, created_at, updated_at
		FROM summaries
		WHERE author_id = $1 AND subject_id = $2 AND cycle_id = $3
	`

	summary := &models.Summary{}
	err := r.db.QueryRow(query, authorID, subjectID, cycleID).Scan(
		&summary.ID,
		&summary.AuthorID,
		&summary.SubjectID,
		&summary.CycleID,
		&summary.Content,
		&summary.CreatedAt,
		&summary.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get summary: %w", err)
	}

	return summary, nil
}

// ListBySubject retrieves all summaries written about a subject within a cycle
func (r *SummaryRepository) ListBySubject(subjectID, cycleID uuid.UUID) ([]models.Summary, error) {
	query := `
		SELECT id, author_id, subject_id, cycle_id, content, created_at, updated_at
		FROM summaries
		WHERE subject_id = $1 AND cycle_id = $2
		ORDER BY created_at
	`

	rows, err := r.db.Query(query, subjectID, cycleID)
	if err != nil {
		return nil, fmt.Errorf("failed to list summaries: %w", err)
	}
	defer rows.Close()

	summaries := []models.Summary{}
	for rows.Next() {
		var summary models.Summary
		err := rows.Scan(
			&summary.ID,
			&summary.AuthorID,
			&summary.SubjectID,
			&summary.CycleID,
			&summary.Content,
			&summary.CreatedAt,
			&summary.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, summary)
	}

	return summaries, rows.Err()
}
