package testutil

import (
	"database/sql"
	"fmt"
	"testing"
	"time"

	"merlin/internal/models"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Fixtures holds test data
type Fixtures struct {
	DB         *sql.DB
	AdminUser  *models.User
	TeamLead   *models.User
	Member     *models.User
	Cycle      *models.Cycle
	Form       *models.Form
	Questions  []models.Question
}

// SetupFixtures creates a small org with one leader edge, an active
// cycle and a default team-lead form with three questions
func SetupFixtures(t *testing.T, db *sql.DB) *Fixtures {
	t.Helper()

	fixtures := &Fixtures{
		DB: db,
	}

	fixtures.AdminUser = fixtures.CreateUser(t, "admin@test.com", "Admin User", true, nil)
	fixtures.TeamLead = fixtures.CreateUser(t, "lead@test.com", "Team Lead", false, nil)
	fixtures.Member = fixtures.CreateUser(t, "member@test.com", "Team Member", false, &fixtures.TeamLead.ID)

	fixtures.Cycle = fixtures.CreateCycle(t, "Test Cycle", time.Now().Add(-24*time.Hour), time.Now().Add(30*24*time.Hour))
	fixtures.Form = fixtures.CreateForm(t, fixtures.Cycle.ID, "Team Lead Review", models.FormTypeTL, true)
	fixtures.Questions = fixtures.CreateQuestions(t, fixtures.Form.ID)

	return fixtures
}

// Cleanup removes all test data
func (f *Fixtures) Cleanup(t *testing.T) {
	t.Helper()

	// Cleanup is handled by container termination
	// Data is not persisted between tests
}

// CreateUser creates a user with an optional leader edge
func (f *Fixtures) CreateUser(t *testing.T, email, name string, isAdmin bool, leaderID *uuid.UUID) *models.User {
	t.Helper()

	// Hash password
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}

	var user models.User
	err = f.DB.QueryRow(`
		INSERT INTO users (email, name, password_hash, is_admin, is_active, leader_id)
		VALUES ($1, $2, $3, $4, true, $5)
		RETURNING id, email, name, is_admin, is_active, leader_id, created_at, updated_at
	`, email, name, string(hashedPassword), isAdmin, leaderID).Scan(
		&user.ID, &user.Email, &user.Name, &user.IsAdmin,
		&user.IsActive, &user.LeaderID, &user.CreatedAt, &user.UpdatedAt,
	)

	if err != nil {
		t.Fatalf("Failed to create user %s: %v", email, err)
	}

	return &user
}

// CreateCycle creates a cycle with the given window
func (f *Fixtures) CreateCycle(t *testing.T, name string, start, end time.Time) *models.Cycle {
	t.Helper()

	var cycle models.Cycle
	err := f.DB.QueryRow(`
		INSERT INTO cycles (name, start_date, end_date)
		VALUES ($1, $2, $3)
		RETURNING id, name, start_date, end_date, created_at
	`, name, start, end).Scan(
		&cycle.ID, &cycle.Name, &cycle.StartDate, &cycle.EndDate, &cycle.CreatedAt,
	)

	if err != nil {
		t.Fatalf("Failed to create cycle %s: %v", name, err)
	}

	return &cycle
}

// CreateForm creates a form in the given cycle
func (f *Fixtures) CreateForm(t *testing.T, cycleID uuid.UUID, name string, formType models.FormType, isDefault bool) *models.Form {
	t.Helper()

	var form models.Form
	err := f.DB.QueryRow(`
		INSERT INTO forms (cycle_id, name, description, form_type, is_default)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, cycle_id, name, description, form_type, is_default, created_at, updated_at
	`, cycleID, name, fmt.Sprintf("Description for %s", name), formType, isDefault).Scan(
		&form.ID, &form.CycleID, &form.Name, &form.Description,
		&form.FormType, &form.IsDefault, &form.CreatedAt, &form.UpdatedAt,
	)

	if err != nil {
		t.Fatalf("Failed to create form %s: %v", name, err)
	}

	return &form
}

// CreateQuestions creates three questions on a 1-5 scale, two of them
// sharing a category
func (f *Fixtures) CreateQuestions(t *testing.T, formID uuid.UUID) []models.Question {
	t.Helper()

	questions := []models.Question{}
	questionData := []struct {
		text     string
		category *string
	}{
		{"Communicates clearly", strPtr("Communication")},
		{"Listens to feedback", strPtr("Communication")},
		{"Delivers on commitments", nil},
	}

	for i, data := range questionData {
		var question models.Question
		err := f.DB.QueryRow(`
			INSERT INTO questions (form_id, text, scale_min, scale_max, category, sort_order)
			VALUES ($1, $2, 1, 5, $3, $4)
			RETURNING id, form_id, text, scale_min, scale_max, category, sort_order, created_at
		`, formID, data.text, data.category, i+1).Scan(
			&question.ID, &question.FormID, &question.Text, &question.ScaleMin,
			&question.ScaleMax, &question.Category, &question.SortOrder, &question.CreatedAt,
		)

		if err != nil {
			t.Fatalf("Failed to create question %q: %v", data.text, err)
		}

		questions = append(questions, question)
	}

	return questions
}

// CreateAssignment creates an assignment for testing
func (f *Fixtures) CreateAssignment(t *testing.T, formID, assignedTo uuid.UUID, assignedBy *uuid.UUID, deadline time.Time) *models.FormAssignment {
	t.Helper()

	var assignment models.FormAssignment
	err := f.DB.QueryRow(`
		INSERT INTO form_assignments (form_id, assigned_to, assigned_by, deadline)
		VALUES ($1, $2, $3, $4)
		RETURNING id, form_id, assigned_to, assigned_by, deadline, message, is_completed, created_at, updated_at
	`, formID, assignedTo, assignedBy, deadline).Scan(
		&assignment.ID, &assignment.FormID, &assignment.AssignedTo, &assignment.AssignedBy,
		&assignment.Deadline, &assignment.Message, &assignment.IsCompleted,
		&assignment.CreatedAt, &assignment.UpdatedAt,
	)

	if err != nil {
		t.Fatalf("Failed to create assignment: %v", err)
	}

	return &assignment
}

func strPtr(s string) *string {
	return &s
}
