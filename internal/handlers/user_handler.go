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

// UserHandler handles user administration requests
type UserHandler struct {
	userService *service.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// CreateUserRequest represents a user creation request
type CreateUserRequest struct {
	Email            string     `json:"email" validate:"required,email"`
	Name             string     `json:"name" validate:"required"`
	Password         string     `json:"password"`
	IsAdmin          bool       `json:"is_admin"`
	LeaderID         *uuid.UUID `json:"leader_id"`
	ProductManagerID *uuid.UUID `json:"product_manager_id"`
	HRBPID           *uuid.UUID `json:"hrbp_id"`
	AgileCoachID     *uuid.UUID `json:"agile_coach_id"`
	CommitteeID      *uuid.UUID `json:"committee_id"`
	Department       *string    `json:"department"`
	Chapter          *string    `json:"chapter"`
	Team             *string    `json:"team"`
	Tribe            *string    `json:"tribe"`
	Organization     *string    `json:"organization"`
	Level            *string    `json:"level"`
}

// CreateUser creates a user (admin only)
// @Summary Create user
// @Description Create a user with optional org-graph edges
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateUserRequest true "User"
// @Success 201 {object} models.User
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 409 {object} map[string]string "Email already taken"
// @Router /admin/users [post]
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.GetUserID(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}

	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidRequestBody)
		return
	}

	if err := validator.ValidateStruct(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	user := &models.User{
		Email:            req.Email,
		Name:             req.Name,
		IsAdmin:          req.IsAdmin,
		IsActive:         true,
		LeaderID:         req.LeaderID,
		ProductManagerID: req.ProductManagerID,
		HRBPID:           req.HRBPID,
		AgileCoachID:     req.AgileCoachID,
		CommitteeID:      req.CommitteeID,
		Department:       req.Department,
		Chapter:          req.Chapter,
		Team:             req.Team,
		Tribe:            req.Tribe,
		Organization:     req.Organization,
		Level:            req.Level,
	}

	if err := h.userService.CreateUser(user, req.Password, actorID); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, user)
}

// ListUsers lists all users (admin only)
// @Summary List users
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.User
// @Router /admin/users [get]
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.ListUsers()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to list users")
		return
	}

	respondWithJSON(w, http.StatusOK, users)
}

// GetUser retrieves a user by ID (admin only)
// @Summary Get user
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} models.User
// @Failure 404 {object} map[string]string "Not found"
// @Router /admin/users/{id} [get]
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidID)
		return
	}

	user, err := h.userService.GetUser(id)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, user)
}

// UpdateUserRequest represents a user update request
type UpdateUserRequest struct {
	Name             string     `json:"name" validate:"required"`
	IsAdmin          bool       `json:"is_admin"`
	IsActive         bool       `json:"is_active"`
	LeaderID         *uuid.UUID `json:"leader_id"`
	ProductManagerID *uuid.UUID `json:"product_manager_id"`
	HRBPID           *uuid.UUID `json:"hrbp_id"`
	AgileCoachID     *uuid.UUID `json:"agile_coach_id"`
	CommitteeID      *uuid.UUID `json:"committee_id"`
	Department       *string    `json:"department"`
	Chapter          *string    `json:"chapter"`
	Team             *string    `json:"team"`
	Tribe            *string    `json:"tribe"`
	Organization     *string    `json:"organization"`
	Level            *string    `json:"level"`
}

// UpdateUser updates a user's profile and org edges (admin only)
// @Summary Update user
// @Description Update profile fields and org-graph edges; a leader edge that would close a cycle is rejected
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param request body UpdateUserRequest true "User"
// @Success 200 {object} models.User
// @Failure 400 {object} map[string]string "Invalid request or leader cycle"
// @Failure 404 {object} map[string]string "Not found"
// @Router /admin/users/{id} [put]
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
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

	var req UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidRequestBody)
		return
	}

	if err := validator.ValidateStruct(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.userService.GetUser(id)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	user.Name = req.Name
	user.IsAdmin = req.IsAdmin
	user.IsActive = req.IsActive
	user.LeaderID = req.LeaderID
	user.ProductManagerID = req.ProductManagerID
	user.HRBPID = req.HRBPID
	user.AgileCoachID = req.AgileCoachID
	user.CommitteeID = req.CommitteeID
	user.Department = req.Department
	user.Chapter = req.Chapter
	user.Team = req.Team
	user.Tribe = req.Tribe
	user.Organization = req.Organization
	user.Level = req.Level

	if err := h.userService.UpdateUser(user, actorID); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, user)
}

// GetReports lists the direct reports of a user
// @Summary List direct reports
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {array} models.User
// @Router /users/{id}/reports [get]
func (h *UserHandler) GetReports(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidID)
		return
	}

	reports, err := h.userService.Reports(id)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to list reports")
		return
	}

	respondWithJSON(w, http.StatusOK, reports)
}
