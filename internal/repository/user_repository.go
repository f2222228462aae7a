package repository

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"merlin/internal/models"
)

const userColumns = `id, email, name, password_hash, is_admin, is_active,
	       leader_id, product_manager_id, hrbp_id, agile_coach_id, committee_id,
	       department, chapter, team, tribe, organization, level,
	       created_at, updated_at`

// UserRepository handles user database operations
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func scanUser(row interface{ Scan(dest ...any) error }) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.PasswordHash,
		&user.IsAdmin,
		&user.IsActive,
		&user.LeaderID,
		&user.ProductManagerID,
		&user.HRBPID,
		&user.AgileCoachID,
		&user.CommitteeID,
		&user.Department,
		&user.Chapter,
		&user.Team,
		&user.Tribe,
		&user.Organization,
		&user.Level,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Create creates a new user
func (r *UserRepository) Create(user *models.User) error {
	query := `
		INSERT INTO users (email, name, password_hash, is_admin, is_active,
		                   leader_id, product_manager_id, hrbp_id, agile_coach_id, committee_id,
		                   department, chapter, team, tribe, organization, level)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(
		query,
		user.Email,
		user.Name,
		user.PasswordHash,
		user.IsAdmin,
		user.IsActive,
		user.LeaderID,
		user.ProductManagerID,
		user.HRBPID,
		user.AgileCoachID,
		user.CommitteeID,
		user.Department,
		user.Chapter,
		user.Team,
		user.Tribe,
		user.Organization,
		user.Level,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return fmt.Errorf("user with email %s: %w", user.Email, models.ErrConflict)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(id uuid.UUID) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	user, err := scanUser(r.db.QueryRow(query, email))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return user, nil
}

// List retrieves all users ordered by email
func (r *UserRepository) List() ([]models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY email`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
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

// ListActive retrieves all active users ordered by ID for
// deterministic engine runs
func (r *UserRepository) ListActive() ([]models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE is_active = TRUE ORDER BY id`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list active users: %w", err)
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

// ListByIDs retrieves users for the given IDs
func (r *UserRepository) ListByIDs(ids []uuid.UUID) ([]models.User, error) {
	if len(ids) == 0 {
		return []models.User{}, nil
	}

	strIDs := make([]string, len(ids))
	for i, id := range ids {
		strIDs[i] = id.String()
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE id = ANY($1::uuid[]) ORDER BY id`

	rows, err := r.db.Query(query, pq.Array(strIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to list users by IDs: %w", err)
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

// Update updates a user's profile and org-graph edges
func (r *UserRepository) Update(user *models.User) error {
	query := `
		UPDATE users
		SET name = $2, is_admin = $3, is_active = $4,
		    leader_id = $5, product_manager_id = $6, hrbp_id = $7, agile_coach_id = $8,
		    committee_id = $9, department = $10, chapter = $11, team = $12,
		    tribe = $13, organization = $14, level = $15, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.db.QueryRow(
		query,
		user.ID,
		user.Name,
		user.IsAdmin,
		user.IsActive,
		user.LeaderID,
		user.ProductManagerID,
		user.HRBPID,
		user.AgileCoachID,
		user.CommitteeID,
		user.Department,
		user.Chapter,
		user.Team,
		user.Tribe,
		user.Organization,
		user.Level,
	).Scan(&user.UpdatedAt)

	if err == sql.ErrNoRows {
		return models.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	return nil
}

// UpdatePassword sets a new password hash for the user
func (r *UserRepository) UpdatePassword(id uuid.UUID, passwordHash string) error {
	result, err := r.db.Exec(
		`UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`,
		id, passwordHash,
	)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
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

// GetReports retrieves the users whose direct leader is the given user
func (r *UserRepository) GetReports(leaderID uuid.UUID) ([]models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE leader_id = $1 ORDER BY id`

	rows, err := r.db.Query(query, leaderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get reports: %w", err)
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
