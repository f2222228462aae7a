package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"merlin/internal/middleware"
	"merlin/internal/models"
	"merlin/internal/service"
	"merlin/pkg/validator"
)

// FormHandler handles form catalog, assignment and response requests
type FormHandler struct {
	formService       *service.FormService
	assignmentService *service.AssignmentService
	responseService   *service.ResponseService
	resultsService    *service.ResultsService
}

// NewFormHandler creates a new form handler
func NewFormHandler(formService *service.FormService, assignmentService *service.AssignmentService, responseService *service.ResponseService, resultsService *service.ResultsService) *FormHandler {
	return &FormHandler{
		formService:       formService,
		assignmentService: assignmentService,
		responseService:   responseService,
		resultsService:    resultsService,
	}
}

// CreateFormRequest represents a form creation request
type CreateFormRequest struct {
	CycleID     uuid.UUID `json:"cycle_id" validate:"required"`
	Name        string    `json:"name" validate:"required"`
	Description string    `json:"description"`
	FormType    string    `json:"form_type" validate:"required"`
	IsDefault   bool      `json:"is_default"`
}

// CreateForm creates a form (admin only)
// @Summary Create form
// @Tags Forms
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateFormRequest true "Form"
// @Success 201 {object} models.Form
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 404 {object} map[string]string "Cycle not found"
// @Router /forms [post]
func (h *FormHandler) CreateForm(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.GetUserID(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}

	var req CreateFormRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidRequestBody)
		return
	}

	if err := validator.ValidateStruct(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	form := &models.Form{
		CycleID:     req.CycleID,
		Name:        req.Name,
		Description: req.Description,
		FormType:    models.FormType(req.FormType),
		IsDefault:   req.IsDefault,
	}

	if err := h.formService.CreateForm(form, actorID); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, form)
}

// ListForms lists the forms of a cycle
// @Summary List forms
// @Tags Forms
// @Produce json
// @Security BearerAuth
// @Param cycle query string true "Cycle ID"
// @Success 200 {array} models.Form
// @Router /forms [get]
func (h *FormHandler) ListForms(w http.ResponseWriter, r *http.Request) {
	cycleID, err := uuid.Parse(r.URL.Query().Get("cycle"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid cycle ID")
		return
	}

	forms, err := h.formService.ListForms(cycleID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to list forms")
		return
	}

	respondWithJSON(w, http.StatusOK, forms)
}

// GetForm retrieves a form with its questions
// @Summary Get form
// @Tags Forms
// @Produce json
// @Security BearerAuth
// @Param id path string true "Form ID"
// @Success 200 {object} models.FormWithQuestions
// @Failure 404 {object} map[string]string "Not found"
// @Router /forms/{id} [get]
func (h *FormHandler) GetForm(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidID)
		return
	}

	form, err := h.formService.GetFormWithQuestions(id)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, form)
}

// AddQuestionRequest represents a question creation request
type AddQuestionRequest struct {
	Text      string  `json:"text" validate:"required"`
	ScaleMin  int     `json:"scale_min"`
	ScaleMax  int     `json:"scale_max"`
	Category  *string `json:"category"`
	SortOrder int     `json:"sort_order"`
}

// AddQuestion appends a question to a form (admin only)
// @Summary Add question
// @Tags Forms
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Form ID"
// @Param request body AddQuestionRequest true "Question"
// @Success 201 {object} models.Question
// @Failure 400 {object} map[string]string "Invalid scale"
// @Router /forms/{id}/questions [post]
func (h *FormHandler) AddQuestion(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.GetUserID(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}

	formID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidID)
		return
	}

	var req AddQuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidRequestBody)
		return
	}

	if err := validator.ValidateStruct(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	question := &models.Question{
		FormID:    formID,
		Text:      req.Text,
		ScaleMin:  req.ScaleMin,
		ScaleMax:  req.ScaleMax,
		Category:  req.Category,
		SortOrder: req.SortOrder,
	}

	if err := h.formService.AddQuestion(question, actorID); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, question)
}

// PreviewAssignments shows the provisional fan-out of a form (admin only)
// @Summary Preview assignments
// @Description Compute the engine's plan without writing; already-assigned users appear as skipped
// @Tags Forms
// @Produce json
// @Security BearerAuth
// @Param id path string true "Form ID"
// @Success 200 {object} models.MaterializationResult
// @Failure 404 {object} map[string]string "Not found"
// @Router /forms/{id}/preview [get]
func (h *FormHandler) PreviewAssignments(w http.ResponseWriter, r *http.Request) {
	formID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidID)
		return
	}

	result, err := h.assignmentService.Preview(formID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

// MaterializeForm commits the fan-out of one form (admin only)
// @Summary Materialize form
// @Tags Forms
// @Produce json
// @Security BearerAuth
// @Param id path string true "Form ID"
// @Success 200 {object} models.MaterializationResult
// @Failure 404 {object} map[string]string "Not found"
// @Router /forms/{id}/materialize [post]
func (h *FormHandler) MaterializeForm(w http.ResponseWriter, r *http.Request) {
	formID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidID)
		return
	}

	result, err := h.assignmentService.MaterializeForm(formID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

// ManualAssignmentRequest represents a manual assignment request
type ManualAssignmentRequest struct {
	AssignedTo uuid.UUID  `json:"assigned_to" validate:"required"`
	Deadline   *time.Time `json:"deadline"`
	Message    string     `json:"message"`
}

// CreateManualAssignment assigns a non-default form to a user (admin only)
// @Summary Create manual assignment
// @Description Rejected on default forms; attribution is the acting admin
// @Tags Forms
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Form ID"
// @Param request body ManualAssignmentRequest true "Assignment"
// @Success 201 {object} models.FormAssignment
// @Failure 400 {object} map[string]string "Default form"
// @Failure 409 {object} map[string]string "Already assigned"
// @Router /forms/{id}/assignments [post]
func (h *FormHandler) CreateManualAssignment(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.GetUserID(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}

	formID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidID)
		return
	}

	var req ManualAssignmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidRequestBody)
		return
	}

	if err := validator.ValidateStruct(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	assignment, err := h.assignmentService.CreateManualAssignment(formID, req.AssignedTo, actorID, req.Deadline, req.Message)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, assignment)
}

// ListAssignments lists a form's assignments (admin only)
// @Summary List assignments
// @Tags Forms
// @Produce json
// @Security BearerAuth
// @Param id path string true "Form ID"
// @Success 200 {array} models.FormAssignment
// @Router /forms/{id}/assignments [get]
func (h *FormHandler) ListAssignments(w http.ResponseWriter, r *http.Request) {
	formID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidID)
		return
	}

	assignments, err := h.assignmentService.ListAssignments(formID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to list assignments")
		return
	}

	respondWithJSON(w, http.StatusOK, assignments)
}

// SubmitResponsesRequest represents an answer batch
type SubmitResponsesRequest struct {
	Answers map[uuid.UUID]int `json:"answers" validate:"required"`
}

// SubmitResponses stores the authenticated user's answers for a form
// @Summary Submit responses
// @Description Upsert a batch of answers; any out-of-scale answer rejects the whole batch
// @Tags Forms
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Form ID"
// @Param request body SubmitResponsesRequest true "Answers keyed by question ID"
// @Success 200 {object} map[string]string "Stored"
// @Failure 400 {object} map[string]string "Out of scale or no assignment"
// @Router /forms/{id}/responses [post]
func (h *FormHandler) SubmitResponses(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}

	formID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidID)
		return
	}

	var req SubmitResponsesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidRequestBody)
		return
	}
	if len(req.Answers) == 0 {
		respondWithError(w, http.StatusBadRequest, "No answers provided")
		return
	}

	if err := h.responseService.Submit(formID, userID, req.Answers); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Responses stored"})
}

// GetMyResponses retrieves the authenticated user's stored answers for a form
// @Summary Get own responses
// @Tags Forms
// @Produce json
// @Security BearerAuth
// @Param id path string true "Form ID"
// @Success 200 {array} models.FormResponse
// @Router /forms/{id}/responses [get]
func (h *FormHandler) GetMyResponses(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}

	formID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidID)
		return
	}

	responses, err := h.responseService.Responses(formID, userID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to list responses")
		return
	}

	respondWithJSON(w, http.StatusOK, responses)
}

// GetResults aggregates a form's results per assessed user (admin only)
// @Summary Get results
// @Description Per-question and per-category averages for every assessed user
// @Tags Forms
// @Produce json
// @Security BearerAuth
// @Param id path string true "Form ID"
// @Success 200 {object} models.FormResults
// @Failure 404 {object} map[string]string "Not found"
// @Router /forms/{id}/results [get]
func (h *FormHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	formID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidID)
		return
	}

	results, err := h.resultsService.Aggregate(r.Context(), formID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, results)
}
