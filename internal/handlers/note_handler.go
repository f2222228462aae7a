package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"merlin/internal/middleware"
	"merlin/internal/models"
	"merlin/internal/service"
	"merlin/pkg/validator"
)

// NoteHandler handles note and summary requests
type NoteHandler struct {
	noteService *service.NoteService
}

// NewNoteHandler creates a new note handler
func NewNoteHandler(noteService *service.NoteService) *NoteHandler {
	return &NoteHandler{noteService: noteService}
}

// CreateNoteRequest represents a note creation request
type CreateNoteRequest struct {
	CycleID  uuid.UUID `json:"cycle_id" validate:"required"`
	NoteType string    `json:"note_type" validate:"required"`
	Title    string    `json:"title" validate:"required"`
	Content  string    `json:"content"`
}

// CreateNote creates a note owned by the authenticated user
// @Summary Create note
// @Tags Notes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateNoteRequest true "Note"
// @Success 201 {object} models.Note
// @Failure 400 {object} map[string]string "Invalid request"
// @Router /notes [post]
func (h *NoteHandler) CreateNote(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}

	var req CreateNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidRequestBody)
		return
	}

	if err := validator.ValidateStruct(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	note := &models.Note{
		UserID:   userID,
		CycleID:  req.CycleID,
		NoteType: models.NoteType(req.NoteType),
		Title:    req.Title,
		Content:  req.Content,
	}

	if err := h.noteService.CreateNote(note); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, note)
}

// ListNotes lists the authenticated user's notes within a cycle
// @Summary List own notes
// @Tags Notes
// @Produce json
// @Security BearerAuth
// @Param cycle query string true "Cycle ID"
// @Success 200 {array} models.Note
// @Router /notes [get]
func (h *NoteHandler) ListNotes(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}

	cycleID, err := uuid.Parse(r.URL.Query().Get("cycle"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid cycle ID")
		return
	}

	notes, err := h.noteService.ListNotes(userID, cycleID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to list notes")
		return
	}

	respondWithJSON(w, http.StatusOK, notes)
}

// GetNote retrieves a note the reader may see
// @Summary Get note
// @Tags Notes
// @Produce json
// @Security BearerAuth
// @Param id path string true "Note ID"
// @Success 200 {object} models.Note
// @Failure 404 {object} map[string]string "Not found or not shared"
// @Router /notes/{id} [get]
func (h *NoteHandler) GetNote(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidID)
		return
	}

	note, err := h.noteService.GetNote(id, userID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, note)
}

// UpdateNoteRequest represents a note update request
type UpdateNoteRequest struct {
	Title   string `json:"title" validate:"required"`
	Content string `json:"content"`
}

// UpdateNote updates a note; author only
// @Summary Update note
// @Tags Notes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Note ID"
// @Param request body UpdateNoteRequest true "Note"
// @Success 200 {object} models.Note
// @Failure 404 {object} map[string]string "Not found"
// @Router /notes/{id} [put]
func (h *NoteHandler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidID)
		return
	}

	var req UpdateNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidRequestBody)
		return
	}

	if err := validator.ValidateStruct(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	note := &models.Note{ID: id, Title: req.Title, Content: req.Content}
	if err := h.noteService.UpdateNote(note, userID); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, note)
}

// DeleteNote deletes a note; author only
// @Summary Delete note
// @Tags Notes
// @Produce json
// @Security BearerAuth
// @Param id path string true "Note ID"
// @Success 200 {object} map[string]string "Deleted"
// @Failure 404 {object} map[string]string "Not found"
// @Router /notes/{id} [delete]
func (h *NoteHandler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidID)
		return
	}

	if err := h.noteService.DeleteNote(id, userID); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Note deleted"})
}

// ShareNoteRequest represents a note sharing request
type ShareNoteRequest struct {
	UserID uuid.UUID `json:"user_id" validate:"required"`
}

// ShareNote grants another user read access to a note
// @Summary Share note
// @Description Personal notes cannot be shared
// @Tags Notes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Note ID"
// @Param request body ShareNoteRequest true "Grantee"
// @Success 200 {object} map[string]string "Shared"
// @Failure 400 {object} map[string]string "Personal note"
// @Router /notes/{id}/share [post]
func (h *NoteHandler) ShareNote(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidID)
		return
	}

	var req ShareNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidRequestBody)
		return
	}

	if err := h.noteService.ShareNote(id, userID, req.UserID); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Note shared"})
}

// UpsertSummaryRequest represents a summary write request
type UpsertSummaryRequest struct {
	SubjectID uuid.UUID `json:"subject_id" validate:"required"`
	CycleID   uuid.UUID `json:"cycle_id" validate:"required"`
	Content   string    `json:"content"`
}

// UpsertSummary creates or replaces the author's summary about a subject
// @Summary Upsert summary
// @Tags Summaries
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body UpsertSummaryRequest true "Summary"
// @Success 200 {object} models.Summary
// @Failure 404 {object} map[string]string "Subject or cycle not found"
// @Router /summaries [put]
func (h *NoteHandler) UpsertSummary(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}

	var req UpsertSummaryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidRequestBody)
		return
	}

	if err := validator.ValidateStruct(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	summary := &models.Summary{
		AuthorID:  userID,
		SubjectID: req.SubjectID,
		CycleID:   req.CycleID,
		Content:   req.Content,
	}

	if err := h.noteService.UpsertSummary(summary); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, summary)
}

// GetSummary retrieves the author's summary about a subject for a cycle
// @Summary Get summary
// @Tags Summaries
// @Produce json
// @Security BearerAuth
// @Param subject query string true "Subject user ID"
// @Param cycle query string true "Cycle ID"
// @Success 200 {object} models.Summary
// @Failure 404 {object} map[string]string "Not found"
// @Router /summaries [get]
func (h *NoteHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}

	subjectID, err := uuid.Parse(r.URL.Query().Get("subject"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid subject ID")
		return
	}
	cycleID, err := uuid.Parse(r.URL.Query().Get("cycle"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid cycle ID")
		return
	}

	summary, err := h.noteService.GetSummary(userID, subjectID, cycleID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, summary)
}

// ListSubjectSummaries retrieves every summary written about a user
// for a cycle (admin only)
// @Summary List summaries about a subject
// @Tags Summaries
// @Produce json
// @Security BearerAuth
// @Param id path string true "Subject user ID"
// @Param cycle query string true "Cycle ID"
// @Success 200 {array} models.Summary
// @Router /admin/users/{id}/summaries [get]
func (h *NoteHandler) ListSubjectSummaries(w http.ResponseWriter, r *http.Request) {
	subjectID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidID)
		return
	}
	cycleID, err := uuid.Parse(r.URL.Query().Get("cycle"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid cycle ID")
		return
	}

	summaries, err := h.noteService.ListSummariesBySubject(subjectID, cycleID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, summaries)
}
