package service

import (
	"fmt"

	"github.com/google/uuid"

	"merlin/internal/models"
	"merlin/internal/repository"
)

// NoteService handles employee notes and manager summaries
type NoteService struct {
	noteRepo    *repository.NoteRepository
	summaryRepo *repository.SummaryRepository
	cycleRepo   *repository.CycleRepository
	userRepo    *repository.UserRepository
}

// NewNoteService creates a new note service
func NewNoteService(noteRepo *repository.NoteRepository, summaryRepo *repository.SummaryRepository, cycleRepo *repository.CycleRepository, userRepo *repository.UserRepository) *NoteService {
	return &NoteService{
		noteRepo:    noteRepo,
		summaryRepo: summaryRepo,
		cycleRepo:   cycleRepo,
		userRepo:    userRepo,
	}
}

// CreateNote creates a note owned by its author
func (s *NoteService) CreateNote(note *models.Note) error {
	if note.Title == "" {
		return fmt.Errorf("note title is required: %w", models.ErrValidation)
	}
	if !note.NoteType.Valid() {
		return fmt.Errorf("invalid note type %q: %w", note.NoteType, models.ErrValidation)
	}

	cycle, err := s.cycleRepo.GetByID(note.CycleID)
	if err != nil {
		return err
	}
	if cycle == nil {
		return fmt.Errorf("cycle %s: %w", note.CycleID, models.ErrNotFound)
	}

	return s.noteRepo.Create(note)
}

// GetNote retrieves a note if the reader is the author or holds an
// access grant
func (s *NoteService) GetNote(id, readerID uuid.UUID) (*models.Note, error) {
	note, err := s.noteRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if note == nil {
		return nil, fmt.Errorf("note %s: %w", id, models.ErrNotFound)
	}

	if note.UserID == readerID {
		return note, nil
	}

	hasAccess, err := s.noteRepo.HasAccess(id, readerID)
	if err != nil {
		return nil, err
	}
	if !hasAccess {
		// Hidden notes are indistinguishable from missing ones.
		return nil, fmt.Errorf("note %s: %w", id, models.ErrNotFound)
	}

	return note, nil
}

// ListNotes retrieves a user's own notes within a cycle
func (s *NoteService) ListNotes(userID, cycleID uuid.UUID) ([]models.Note, error) {
	return s.noteRepo.ListByAuthor(userID, cycleID)
}

// UpdateNote updates a note's title and content; author only
func (s *NoteService) UpdateNote(note *models.Note, actorID uuid.UUID) error {
	existing, err := s.noteRepo.GetByID(note.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		return fmt.Errorf("note %s: %w", note.ID, models.ErrNotFound)
	}
	if existing.UserID != actorID {
		return fmt.Errorf("only the author may edit a note: %w", models.ErrValidation)
	}

	return s.noteRepo.Update(note)
}

// DeleteNote deletes a note; author only
func (s *NoteService) DeleteNote(id, actorID uuid.UUID) error {
	existing, err := s.noteRepo.GetByID(id)
	if err != nil {
		return err
	}
	if existing == nil {
		return fmt.Errorf("note %s: %w", id, models.ErrNotFound)
	}
	if existing.UserID != actorID {
		return fmt.Errorf("only the author may delete a note: %w", models.ErrValidation)
	}

	return s.noteRepo.Delete(id)
}

// ShareNote grants another user read access to a note. Personal notes
// stay private to their author.
func (s *NoteService) ShareNote(noteID, actorID, granteeID uuid.UUID) error {
	note, err := s.noteRepo.GetByID(noteID)
	if err != nil {
		return err
	}
	if note == nil {
		return fmt.Errorf("note %s: %w", noteID, models.ErrNotFound)
	}
	if note.UserID != actorID {
		return fmt.Errorf("only the author may share a note: %w", models.ErrValidation)
	}
	if note.NoteType == models.NoteTypePersonal {
		return fmt.Errorf("personal notes cannot be shared: %w", models.ErrValidation)
	}

	grantee, err := s.userRepo.GetByID(granteeID)
	if err != nil {
		return err
	}
	if grantee == nil {
		return fmt.Errorf("user %s: %w", granteeID, models.ErrNotFound)
	}

	return s.noteRepo.GrantAccess(&models.NoteUserAccess{NoteID: noteID, UserID: granteeID})
}

// UpsertSummary creates or replaces the summary an author keeps about
// a subject for a cycle
func (s *NoteService) UpsertSummary(summary *models.Summary) error {
	subject, err := s.userRepo.GetByID(summary.SubjectID)
	if err != nil {
		return err
	}
	if subject == nil {
		return fmt.Errorf("user %s: %w", summary.SubjectID, models.ErrNotFound)
	}

	cycle, err := s.cycleRepo.GetByID(summary.CycleID)
	if err != nil {
		return err
	}
	if cycle == nil {
		return fmt.Errorf("cycle %s: %w", summary.CycleID, models.ErrNotFound)
	}

	return s.summaryRepo.Upsert(summary)
}

// GetSummary retrieves one author's summary about a subject for a cycle
func (s *NoteService) GetSummary(authorID, subjectID, cycleID uuid.UUID) (*models.Summary, error) {
	summary, err := s.summaryRepo.Get(authorID, subjectID, cycleID)
	if err != nil {
		return nil, err
	}
	if summary == nil {
		return nil, fmt.Errorf("summary: %w", models.ErrNotFound)
	}
	return summary, nil
}

// ListSummariesBySubject retrieves every summary written about a
// subject within a cycle
func (s *NoteService) ListSummariesBySubject(subjectID, cycleID uuid.UUID) ([]models.Summary, error) {
	return s.summaryRepo.ListBySubject(subjectID, cycleID)
}
