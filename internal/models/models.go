package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents an employee with their org-graph edges. Every
// leader-like edge is optional; a user carries at most one of each.
type User struct {
	ID               uuid.UUID  `json:"id" db:"id"`
	Email            string     `json:"email" db:"email"`
	Name             string     `json:"name" db:"name"`
	PasswordHash     string     `json:"-" db:"password_hash"`
	IsAdmin          bool       `json:"is_admin" db:"is_admin"`
	IsActive         bool       `json:"is_active" db:"is_active"`
	LeaderID         *uuid.UUID `json:"leader_id,omitempty" db:"leader_id"`
	ProductManagerID *uuid.UUID `json:"product_manager_id,omitempty" db:"product_manager_id"`
	HRBPID           *uuid.UUID `json:"hrbp_id,omitempty" db:"hrbp_id"`
	AgileCoachID     *uuid.UUID `json:"agile_coach_id,omitempty" db:"agile_coach_id"`
	CommitteeID      *uuid.UUID `json:"committee_id,omitempty" db:"committee_id"`
	Department       *string    `json:"department,omitempty" db:"department"`
	Chapter          *string    `json:"chapter,omitempty" db:"chapter"`
	Team             *string    `json:"team,omitempty" db:"team"`
	Tribe            *string    `json:"tribe,omitempty" db:"tribe"`
	Organization     *string    `json:"organization,omitempty" db:"organization"`
	Level            *string    `json:"level,omitempty" db:"level"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at" db:"updated_at"`
}

// Cycle represents a bounded performance-review window. Cycles are
// immutable after creation.
type Cycle struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	StartDate time.Time `json:"start_date" db:"start_date"`
	EndDate   time.Time `json:"end_date" db:"end_date"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// IsActive reports whether now falls inside the cycle window.
func (c *Cycle) IsActive(now time.Time) bool {
	return !now.Before(c.StartDate) && !now.After(c.EndDate)
}

// FormType discriminates how the assignment engine fans a form out.
type FormType string

const (
	FormTypeTL      FormType = "TL"
	FormTypePM      FormType = "PM"
	FormTypeGeneral FormType = "GENERAL"
)

// Valid reports whether the form type is one of the known variants.
func (t FormType) Valid() bool {
	switch t {
	case FormTypeTL, FormTypePM, FormTypeGeneral:
		return true
	}
	return false
}

// Form is a questionnaire bound to exactly one cycle. A default
// form's assignments are created only by the engine, never manually.
type Form struct {
	ID          uuid.UUID `json:"id" db:"id"`
	CycleID     uuid.UUID `json:"cycle_id" db:"cycle_id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	FormType    FormType  `json:"form_type" db:"form_type"`
	IsDefault   bool      `json:"is_default" db:"is_default"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// Question belongs to exactly one form and carries an integer answer
// scale plus an optional category used by the results aggregator.
type Question struct {
	ID        uuid.UUID `json:"id" db:"id"`
	FormID    uuid.UUID `json:"form_id" db:"form_id"`
	Text      string    `json:"text" db:"text"`
	ScaleMin  int       `json:"scale_min" db:"scale_min"`
	ScaleMax  int       `json:"scale_max" db:"scale_max"`
	Category  *string   `json:"category,omitempty" db:"category"`
	SortOrder int       `json:"sort_order" db:"sort_order"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// FormWithQuestions extends Form with its ordered questions.
type FormWithQuestions struct {
	Form
	Questions []Question `json:"questions"`
}

// FormAssignment is the obligation of AssignedTo (the respondent) to
// answer a form. AssignedBy identifies the assessed user on
// engine-created assignments and the acting admin on manual ones; it
// is NULL only for system-generated assignments on default forms.
// (FormID, AssignedTo, AssignedBy) is the natural key.
type FormAssignment struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	FormID      uuid.UUID  `json:"form_id" db:"form_id"`
	AssignedTo  uuid.UUID  `json:"assigned_to" db:"assigned_to"`
	AssignedBy  *uuid.UUID `json:"assigned_by,omitempty" db:"assigned_by"`
	Deadline    time.Time  `json:"deadline" db:"deadline"`
	Message     string     `json:"message" db:"message"`
	IsCompleted bool       `json:"is_completed" db:"is_completed"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// FormResponse is one respondent's answer to one question.
// Re-submission overwrites in place.
type FormResponse struct {
	ID         uuid.UUID `json:"id" db:"id"`
	QuestionID uuid.UUID `json:"question_id" db:"question_id"`
	UserID     uuid.UUID `json:"user_id" db:"user_id"`
	Answer     int       `json:"answer" db:"answer"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// Committee groups users for descriptive role bookkeeping.
type Committee struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Role is a predefined (type, scope) pair belonging to a committee.
// Purely descriptive; it grants nothing.
type Role struct {
	ID          uuid.UUID `json:"id" db:"id"`
	CommitteeID uuid.UUID `json:"committee_id" db:"committee_id"`
	RoleType    string    `json:"role_type" db:"role_type"`
	RoleScope   string    `json:"role_scope" db:"role_scope"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// NoteType classifies employee-authored notes.
type NoteType string

const (
	NoteTypeGoal     NoteType = "goal"
	NoteTypeMeeting  NoteType = "meeting"
	NoteTypeProposal NoteType = "proposal"
	NoteTypePersonal NoteType = "personal"
)

// Valid reports whether the note type is one of the known variants.
func (t NoteType) Valid() bool {
	switch t {
	case NoteTypeGoal, NoteTypeMeeting, NoteTypeProposal, NoteTypePersonal:
		return true
	}
	return false
}

// Note is an employee-authored entry within a cycle. Personal notes
// are visible only to their author plus explicit access grants.
type Note struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	CycleID   uuid.UUID `json:"cycle_id" db:"cycle_id"`
	NoteType  NoteType  `json:"note_type" db:"note_type"`
	Title     string    `json:"title" db:"title"`
	Content   string    `json:"content" db:"content"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// NoteUserAccess grants a user read access to someone else's note.
type NoteUserAccess struct {
	ID        uuid.UUID `json:"id" db:"id"`
	NoteID    uuid.UUID `json:"note_id" db:"note_id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Summary is a manager-written review of one employee for one cycle.
type Summary struct {
	ID        uuid.UUID `json:"id" db:"id"`
	AuthorID  uuid.UUID `json:"author_id" db:"author_id"`
	SubjectID uuid.UUID `json:"subject_id" db:"subject_id"`
	CycleID   uuid.UUID `json:"cycle_id" db:"cycle_id"`
	Content   string    `json:"content" db:"content"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// AuditLog represents an audit log entry for admin actions.
type AuditLog struct {
	ID        int64      `json:"id" db:"id"`
	UserID    *uuid.UUID `json:"user_id,omitempty" db:"user_id"`
	UserEmail *string    `json:"user_email,omitempty" db:"user_email"`
	Action    string     `json:"action" db:"action"`
	Resource  string     `json:"resource" db:"resource"`
	Details   string     `json:"details,omitempty" db:"details"`
	IPAddress string     `json:"ip_address,omitempty" db:"ip_address"`
	UserAgent string     `json:"user_agent,omitempty" db:"user_agent"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}

// SkipReason explains why the assignment engine did not assign a form
// for a given user. The strings appear verbatim in exports.
type SkipReason string

const (
	SkipAlreadyAssigned SkipReason = "already assigned"
	SkipNoLeader        SkipReason = "no leader"
	SkipManualRequired  SkipReason = "manual assignment required"
	SkipNotApplicable   SkipReason = "not applicable"
)

// SkippedUser pairs a user with the reason the engine skipped them.
type SkippedUser struct {
	User   User       `json:"user"`
	Reason SkipReason `json:"reason"`
}

// MaterializationResult is the outcome of running the engine over one
// form: the users whose assignments exist after the run, and the
// users skipped with their reasons.
type MaterializationResult struct {
	Form     Form             `json:"form"`
	Affected []User           `json:"affected"`
	Skipped  []SkippedUser    `json:"skipped"`
	Created  []FormAssignment `json:"created"`
}

// QuestionAverage is one question's mean answer for an assessed user.
// Average is nil when the question has no responses.
type QuestionAverage struct {
	QuestionID uuid.UUID `json:"question_id"`
	Text       string    `json:"text"`
	Category   *string   `json:"category,omitempty"`
	Average    *float64  `json:"average"`
}

// AssessedResult aggregates one assessed user's reviews of a form:
// per-question averages in question order and per-category averages.
// A category average is the unweighted mean of its defined question
// averages, never the grand mean of raw answers.
type AssessedResult struct {
	User       User                `json:"user"`
	Questions  []QuestionAverage   `json:"questions"`
	Categories map[string]*float64 `json:"categories"`
}

// FormResults holds the aggregation output for one form.
type FormResults struct {
	Form     Form             `json:"form"`
	Assessed []AssessedResult `json:"assessed"`
}
