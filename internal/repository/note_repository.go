package repository

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"merlin/internal/models"
)

const noteColumns = `id, user_id, cycle_id, note_type, title, content, created_at, updated_at`

// NoteRepository handles note database operations
type NoteRepository struct {
	db *sql.DB
}

// NewNoteRepository creates a new note repository
func NewNoteRepository(db *sql.DB) *NoteRepository {
	return &NoteRepository{db: db}
}

func scanNote(row interface{ Scan(dest ...any) error }) (*models.Note, error) {
	note := &models.Note{}
	err := row.Scan(
		&note.ID,
		&note.UserID,
		&note.CycleID,
		&note.NoteType,
		&note.Title,
		&note.Content,
		&note.CreatedAt,
		&note.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return note, nil
}

// Create creates a new note
func (r *NoteRepository) Create(note *models.Note) error {
	query := `
		INSERT INTO notes (user_id, cycle_id, note_type, title, content)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(query, note.UserID, note.CycleID, note.NoteType, note.Title, note.Content).
		Scan(&note.ID, &note.CreatedAt, &note.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create note: %w", err)
	}

	return nil
}

// GetByID retrieves a note by ID
func (r *NoteRepository) GetByID(id uuid.UUID) (*models.Note, error) {
	note, err := scanNote(r.db.QueryRow(`SELECT `+noteColumns+` FROM notes WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get note: %w", err)
	}

	return note, nil
}

// ListByAuthor retrieves the notes a user wrote within a cycle
func (r *NoteRepository) ListByAuthor(userID, cycleID uuid.UUID) ([]models.Note, error) {
	query := `SELECT ` + noteColumns + ` FROM notes WHERE user_id = $1 AND cycle_id = $2 ORDER BY created_at`

	rows, err := r.db.Query(query, userID, cycleID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	defer rows.Close()

	notes := []models.Note{}
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, *note)
	}

	return notes, rows.Err()
}

// Update updates a note's title and content
func (r *NoteRepository) Update(note *models.Note) error {
	err := r.db.QueryRow(
		`UPDATE notes SET title = $2, content = $3, updated_at = NOW() WHERE id = $1 RETURNING updated_at`,
		note.ID, note.Title, note.Content,
	).Scan(&note.UpdatedAt)
	if err == sql.ErrNoRows {
		return models.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update note: %w", err)
	}

	return nil
}

// Delete deletes a note and its access grants
func (r *NoteRepository) Delete(id uuid.UUID) error {
	result, err := r.db.Exec(`DELETE FROM notes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
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

// GrantAccess grants a user read access to a note
func (r *NoteRepository) GrantAccess(access *models.NoteUserAccess) error {
	query := `
		INSERT INTO note_user_access (note_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (note_id, user_id) DO NOTHING
		RETURNING id, created_at
	`

	err := r.db.QueryRow(query, access.NoteID, access.UserID).
		Scan(&access.ID, &access.CreatedAt)
	if err == sql.ErrNoRows {
		// Grant already existed; nothing to do.
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to grant note access: %w", err)
	}

	return nil
}

// HasAccess reports whether a user holds an access grant for a note
func (r *NoteRepository) HasAccess(noteID, userID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRow(
		`SELECT EXISTS(SELECT 1 FROM note_user_access WHERE note_id = $1 AND user_id = $2)`,
		noteID, userID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check note access: %w", err)
	}

	return exists, nil
}
