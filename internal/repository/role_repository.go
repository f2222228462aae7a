package repository

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"merlin/internal/models"
)

// RoleRepository handles committee and role database operations
type RoleRepository struct {
	db *sql.DB
}

// NewRoleRepository creates a new role repository
func NewRoleRepository(db *sql.DB) *RoleRepository {
	return &RoleRepository{db: db}
}

// CreateCommittee creates a new committee
func (r *RoleRepository) CreateCommittee(committee *models.Committee) error {
	query := `
		INSERT INTO committees (name)
		VALUES ($1)
		RETURNING id, created_at
	`

	err := r.db.QueryRow(query, committee.Name).Scan(&committee.ID, &committee.CreatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return fmt.Errorf("committee %q: %w", committee.Name, models.ErrConflict)
		}
		return fmt.Errorf("failed to create committee: %w", err)
	}

	return nil
}

// GetCommitteeByID retrieves a committee by ID
func (r *RoleRepository) GetCommitteeByID(id uuid.UUID) (*models.Committee, error) {
	committee := &models.Committee{}
	err := r.db.QueryRow(`SELECT id, name, created_at FROM committees WHERE id = $1`, id).
		Scan(&committee.ID, &committee.Name, &committee.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get committee: %w", err)
	}

	return committee, nil
}

// ListCommittees retrieves all committees
func (r *RoleRepository) ListCommittees() ([]models.Committee, error) {
	rows, err := r.db.Query(`SELECT id, name, created_at FROM committees ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list committees: %w", err)
	}
	defer rows.Close()

	committees := []models.Committee{}
	for rows.Next() {
		var committee models.Committee
		if err := rows.Scan(&committee.ID, &committee.Name, &committee.CreatedAt); err != nil {
			return nil, err
		}
		committees = append(committees, committee)
	}

	return committees, rows.Err()
}

// CreateRole creates a new descriptive role within a committee
func (r *RoleRepository) CreateRole(role *models.Role) error {
	query := `
		INSERT INTO roles (committee_id, role_type, role_scope)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	err := r.db.QueryRow(query, role.CommitteeID, role.RoleType, role.RoleScope).
		Scan(&role.ID, &role.CreatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return fmt.Errorf("role (%s, %s): %w", role.RoleType, role.RoleScope, models.ErrConflict)
		}
		return fmt.Errorf("failed to create role: %w", err)
	}

	return nil
}

// ListRolesByCommittee retrieves the roles belonging to a committee
func (r *RoleRepository) ListRolesByCommittee(committeeID uuid.UUID) ([]models.Role, error) {
	query := `
		SELECT id, committee_id, role_type, role_scope, created_at
		FROM roles
		WHERE committee_id = $1
		ORDER BY role_type, role_scope
	`

	rows, err := r.db.Query(query, committeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	defer rows.Close()

	roles := []models.Role{}
	for rows.Next() {
		var role models.Role
		if err := rows.Scan(&role.ID, &role.CommitteeID, &role.RoleType, &role.RoleScope, &role.CreatedAt); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}

	return roles, rows.Err()
}

// DeleteRole deletes a role
func (r *RoleRepository) DeleteRole(id uuid.UUID) error {
	result, err := r.db.Exec(`DELETE FROM roles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete role: %w", err)
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

// ListMembers retrieves the users referencing a committee
func (r *RoleRepository) ListMembers(committeeID uuid.UUID) ([]models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE committee_id = $1 ORDER BY name`

	rows, err := r.db.Query(query, committeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list committee members: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}

	return users, rows.Err()
}
