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

// CycleHandler handles cycle requests
type CycleHandler struct {
	cycleService      *service.CycleService
	assignmentService *service.AssignmentService
}

// NewCycleHandler creates a new cycle handler
func NewCycleHandler(cycleService *service.CycleService, assignmentService *service.AssignmentService) *CycleHandler {
	return &CycleHandler{
		cycleService:      cycleService,
		assignmentService: assignmentService,
	}
}

// CreateCycleRequest represents a cycle creation request
type CreateCycleRequest struct {
	Name      string    `json:"name" validate:"required"`
	StartDate time.Time `json:"start_date" validate:"required"`
	EndDate   time.Time `json:"end_date" validate:"required"`
}

// CreateCycle creates a cycle (admin only)
// @Summary Create cycle
// @Description Create an immutable review cycle; end date must be after start date
// @Tags Cycles
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateCycleRequest true "Cycle"
// @Success 201 {object} models.Cycle
// @Failure 400 {object} map[string]string "Invalid window"
// @Router /cycles [post]
func (h *CycleHandler) CreateCycle(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.GetUserID(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}

	var req CreateCycleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidRequestBody)
		return
	}

	if err := validator.ValidateStruct(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	cycle := &models.Cycle{
		Name:      req.Name,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
	}

	if err := h.cycleService.CreateCycle(cycle, actorID); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, cycle)
}

// ListCycles lists all cycles
// @Summary List cycles
// @Tags Cycles
// @Produce json
// @Security BearerAuth
// @Param active query bool false "Only cycles active now"
// @Success 200 {array} models.Cycle
// @Router /cycles [get]
func (h *CycleHandler) ListCycles(w http.ResponseWriter, r *http.Request) {
	var cycles []models.Cycle
	var err error

	if r.URL.Query().Get("active") == "true" {
		cycles, err = h.cycleService.ActiveCycles(time.Now())
	} else {
		cycles, err = h.cycleService.ListCycles()
	}
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to list cycles")
		return
	}

	respondWithJSON(w, http.StatusOK, cycles)
}

// GetCycle retrieves a cycle by ID
// @Summary Get cycle
// @Tags Cycles
// @Produce json
// @Security BearerAuth
// @Param id path string true "Cycle ID"
// @Success 200 {object} models.Cycle
// @Failure 404 {object} map[string]string "Not found"
// @Router /cycles/{id} [get]
func (h *CycleHandler) GetCycle(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidID)
		return
	}

	cycle, err := h.cycleService.GetCycle(id)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, cycle)
}

// DeleteCycle deletes an unreferenced cycle (admin only)
// @Summary Delete cycle
// @Description Refused while forms, assignments or notes still reference the cycle
// @Tags Cycles
// @Produce json
// @Security BearerAuth
// @Param id path string true "Cycle ID"
// @Success 200 {object} map[string]string "Deleted"
// @Failure 404 {object} map[string]string "Not found"
// @Failure 409 {object} map[string]string "Still referenced"
// @Router /cycles/{id} [delete]
func (h *CycleHandler) DeleteCycle(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.GetUserID(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidID)
		return
	}

	if err := h.cycleService.DeleteCycle(id, actorID); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Cycle deleted"})
}

// MaterializeCycle runs the assignment engine over the cycle's default forms (admin only)
// @Summary Materialize default forms
// @Description Fan out every default form of the cycle; safe to repeat
// @Tags Cycles
// @Produce json
// @Security BearerAuth
// @Param id path string true "Cycle ID"
// @Success 200 {array} models.MaterializationResult
// @Failure 404 {object} map[string]string "Not found"
// @Router /cycles/{id}/materialize [post]
func (h *CycleHandler) MaterializeCycle(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidID)
		return
	}

	results, err := h.assignmentService.MaterializeDefaultForms(id)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, results)
}
