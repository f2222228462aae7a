package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"merlin/internal/models"
	"merlin/internal/repository"
	"merlin/pkg/validator"
)

// CommitteeHandler handles committee and role bookkeeping (admin only)
type CommitteeHandler struct {
	roleRepo *repository.RoleRepository
}

// NewCommitteeHandler creates a new committee handler
func NewCommitteeHandler(roleRepo *repository.RoleRepository) *CommitteeHandler {
	return &CommitteeHandler{roleRepo: roleRepo}
}

// CreateCommitteeRequest represents a committee creation request
type CreateCommitteeRequest struct {
	Name string `json:"name" validate:"required"`
}

// CreateCommittee creates a committee
// @Summary Create committee
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateCommitteeRequest true "Committee"
// @Success 201 {object} models.Committee
// @Failure 409 {object} map[string]string "Name taken"
// @Router /admin/committees [post]
func (h *CommitteeHandler) CreateCommittee(w http.ResponseWriter, r *http.Request) {
	var req CreateCommitteeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidRequestBody)
		return
	}

	if err := validator.ValidateStruct(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	committee := &models.Committee{Name: req.Name}
	if err := h.roleRepo.CreateCommittee(committee); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, committee)
}

// ListCommittees lists all committees
// @Summary List committees
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Committee
// @Router /admin/committees [get]
func (h *CommitteeHandler) ListCommittees(w http.ResponseWriter, r *http.Request) {
	committees, err := h.roleRepo.ListCommittees()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to list committees")
		return
	}

	respondWithJSON(w, http.StatusOK, committees)
}

// CreateRoleRequest represents a role creation request
type CreateRoleRequest struct {
	RoleType  string `json:"role_type" validate:"required"`
	RoleScope string `json:"role_scope" validate:"required"`
}

// CreateRole adds a descriptive role to a committee
// @Summary Create role
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Committee ID"
// @Param request body CreateRoleRequest true "Role"
// @Success 201 {object} models.Role
// @Failure 409 {object} map[string]string "Role exists"
// @Router /admin/committees/{id}/roles [post]
func (h *CommitteeHandler) CreateRole(w http.ResponseWriter, r *http.Request) {
	committeeID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidID)
		return
	}

	committee, err := h.roleRepo.GetCommitteeByID(committeeID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to get committee")
		return
	}
	if committee == nil {
		respondWithError(w, http.StatusNotFound, "Committee not found")
		return
	}

	var req CreateRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidRequestBody)
		return
	}

	if err := validator.ValidateStruct(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	role := &models.Role{
		CommitteeID: committeeID,
		RoleType:    req.RoleType,
		RoleScope:   req.RoleScope,
	}
	if err := h.roleRepo.CreateRole(role); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, role)
}

// ListRoles lists a committee's roles
// @Summary List roles
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Committee ID"
// @Success 200 {array} models.Role
// @Router /admin/committees/{id}/roles [get]
func (h *CommitteeHandler) ListRoles(w http.ResponseWriter, r *http.Request) {
	committeeID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidID)
		return
	}

	roles, err := h.roleRepo.ListRolesByCommittee(committeeID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to list roles")
		return
	}

	respondWithJSON(w, http.StatusOK, roles)
}

// ListMembers lists the users belonging to a committee
// @Summary List committee members
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Committee ID"
// @Success 200 {array} models.User
// @Router /admin/committees/{id}/members [get]
func (h *CommitteeHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	committeeID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidID)
		return
	}

	members, err := h.roleRepo.ListMembers(committeeID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to list members")
		return
	}

	respondWithJSON(w, http.StatusOK, members)
}
