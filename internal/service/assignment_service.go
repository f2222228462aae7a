package service

import (
	"database/sql"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"merlin/internal/models"
	"merlin/internal/repository"
)

// AssignmentService runs the assignment engine over forms
type AssignmentService struct {
	db             *sql.DB
	formRepo       *repository.FormRepository
	cycleRepo      *repository.CycleRepository
	userRepo       *repository.UserRepository
	assignmentRepo *repository.AssignmentRepository
	orgGraph       *OrgGraphService
	auditRepo      *repository.AuditRepository
}

// NewAssignmentService creates a new assignment service
func NewAssignmentService(db *sql.DB, formRepo *repository.FormRepository, cycleRepo *repository.CycleRepository, userRepo *repository.UserRepository, assignmentRepo *repository.AssignmentRepository, orgGraph *OrgGraphService, auditRepo *repository.AuditRepository) *AssignmentService {
	return &AssignmentService{
		db:             db,
		formRepo:       formRepo,
		cycleRepo:      cycleRepo,
		userRepo:       userRepo,
		assignmentRepo: assignmentRepo,
		orgGraph:       orgGraph,
		auditRepo:      auditRepo,
	}
}

// naturalKey identifies an assignment by its natural key; the zero
// UUID stands in for a NULL assigned_by.
type naturalKey struct {
	AssignedTo uuid.UUID
	AssignedBy uuid.UUID
}

func keyOf(a *models.FormAssignment) naturalKey {
	key := naturalKey{AssignedTo: a.AssignedTo}
	if a.AssignedBy != nil {
		key.AssignedBy = *a.AssignedBy
	}
	return key
}

// assignmentPlan is the engine's decision for one form before any
// write happens.
type assignmentPlan struct {
	Create   []models.FormAssignment
	Affected []models.User
	Skipped  []models.SkippedUser
}

// planAssignments computes the fan-out of one form over the candidate
// users against a pre-run snapshot of existing assignments.
//
// TL fans out to each candidate's leaders with the assessed user as
// assigned_by. PM is never fanned out automatically; those users need
// a manual assignment. Any other type is not applicable. Skip
// classification uses only the snapshot, so the outcome is independent
// of iteration order. In committing mode an already-covered candidate
// counts as affected; in provisional mode it is reported as skipped.
func planAssignments(
	form *models.Form,
	candidates []models.User,
	leadersByUser map[uuid.UUID][]models.User,
	existing []models.FormAssignment,
	deadline time.Time,
	committing bool,
) assignmentPlan {
	covered := make(map[naturalKey]bool, len(existing))
	for i := range existing {
		covered[keyOf(&existing[i])] = true
	}

	sorted := make([]models.User, len(candidates))
	copy(sorted, candidates)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].ID.String() < sorted[j].ID.String()
	})

	plan := assignmentPlan{
		Create:   []models.FormAssignment{},
		Affected: []models.User{},
		Skipped:  []models.SkippedUser{},
	}

	for _, user := range sorted {
		switch form.FormType {
		case models.FormTypeTL:
			leaders := leadersByUser[user.ID]
			if len(leaders) == 0 {
				plan.Skipped = append(plan.Skipped, models.SkippedUser{User: user, Reason: models.SkipNoLeader})
				continue
			}

			created := false
			alreadyCovered := false
			for _, leader := range leaders {
				assessedBy := user.ID
				key := naturalKey{AssignedTo: leader.ID, AssignedBy: assessedBy}
				if covered[key] {
					alreadyCovered = true
					continue
				}
				plan.Create = append(plan.Create, models.FormAssignment{
					FormID:     form.ID,
					AssignedTo: leader.ID,
					AssignedBy: &assessedBy,
					Deadline:   deadline,
				})
				created = true
			}

			switch {
			case created:
				plan.Affected = append(plan.Affected, user)
			case alreadyCovered && committing:
				// Post-state already holds the assignment.
				plan.Affected = append(plan.Affected, user)
			case alreadyCovered:
				plan.Skipped = append(plan.Skipped, models.SkippedUser{User: user, Reason: models.SkipAlreadyAssigned})
			}

		case models.FormTypePM:
			plan.Skipped = append(plan.Skipped, models.SkippedUser{User: user, Reason: models.SkipManualRequired})

		default:
			plan.Skipped = append(plan.Skipped, models.SkippedUser{User: user, Reason: models.SkipNotApplicable})
		}
	}

	return plan
}

// plan loads everything the planner needs for one form
func (s *AssignmentService) plan(formID uuid.UUID, committing bool) (*models.Form, assignmentPlan, error) {
	form, err := s.formRepo.GetByID(formID)
	if err != nil {
		return nil, assignmentPlan{}, err
	}
	if form == nil {
		return nil, assignmentPlan{}, fmt.Errorf("form %s: %w", formID, models.ErrNotFound)
	}

	cycle, err := s.cycleRepo.GetByID(form.CycleID)
	if err != nil {
		return nil, assignmentPlan{}, err
	}
	if cycle == nil {
		return nil, assignmentPlan{}, fmt.Errorf("cycle %s: %w", form.CycleID, models.ErrNotFound)
	}

	candidates, err := s.userRepo.ListActive()
	if err != nil {
		return nil, assignmentPlan{}, err
	}

	leadersByUser := make(map[uuid.UUID][]models.User, len(candidates))
	for i := range candidates {
		leaders, err := s.orgGraph.LeadersOf(&candidates[i], form.FormType)
		if err != nil {
			return nil, assignmentPlan{}, err
		}
		leadersByUser[candidates[i].ID] = leaders
	}

	existing, err := s.assignmentRepo.ListByForm(formID)
	if err != nil {
		return nil, assignmentPlan{}, err
	}

	return form, planAssignments(form, candidates, leadersByUser, existing, cycle.EndDate, committing), nil
}

// Preview computes the provisional fan-out of a form without writing
// anything. Already-assigned users appear in the skipped list.
func (s *AssignmentService) Preview(formID uuid.UUID) (*models.MaterializationResult, error) {
	form, plan, err := s.plan(formID, false)
	if err != nil {
		return nil, err
	}

	return &models.MaterializationResult{
		Form:     *form,
		Affected: plan.Affected,
		Skipped:  plan.Skipped,
		Created:  plan.Create,
	}, nil
}

// MaterializeForm commits the fan-out of one form in a single
// transaction. Re-running it, or racing another materializer, yields
// the same post-state.
func (s *AssignmentService) MaterializeForm(formID uuid.UUID) (*models.MaterializationResult, error) {
	form, plan, err := s.plan(formID, true)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	created := []models.FormAssignment{}
	for i := range plan.Create {
		a := plan.Create[i]
		ok, err := s.assignmentRepo.InsertTx(tx, &a)
		if err != nil {
			return nil, err
		}
		if !ok {
			// A racing materializer won; the assignment exists.
			continue
		}
		created = append(created, a)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit materialization: %w", err)
	}

	slog.Info("materialized form",
		"form_id", form.ID,
		"created", len(created),
		"affected", len(plan.Affected),
		"skipped", len(plan.Skipped))

	return &models.MaterializationResult{
		Form:     *form,
		Affected: plan.Affected,
		Skipped:  plan.Skipped,
		Created:  created,
	}, nil
}

// MaterializeDefaultForms runs the engine over every default form of a
// cycle
func (s *AssignmentService) MaterializeDefaultForms(cycleID uuid.UUID) ([]models.MaterializationResult, error) {
	cycle, err := s.cycleRepo.GetByID(cycleID)
	if err != nil {
		return nil, err
	}
	if cycle == nil {
		return nil, fmt.Errorf("cycle %s: %w", cycleID, models.ErrNotFound)
	}

	forms, err := s.formRepo.ListDefaultByCycle(cycleID)
	if err != nil {
		return nil, err
	}

	results := []models.MaterializationResult{}
	for i := range forms {
		result, err := s.MaterializeForm(forms[i].ID)
		if err != nil {
			return nil, fmt.Errorf("failed to materialize form %s: %w", forms[i].ID, err)
		}
		results = append(results, *result)
	}

	return results, nil
}

// CreateManualAssignment creates an admin-attributed assignment.
// Default forms only ever carry engine-created assignments.
func (s *AssignmentService) CreateManualAssignment(formID, assignedTo, actorID uuid.UUID, deadline *time.Time, message string) (*models.FormAssignment, error) {
	form, err := s.formRepo.GetByID(formID)
	if err != nil {
		return nil, err
	}
	if form == nil {
		return nil, fmt.Errorf("form %s: %w", formID, models.ErrNotFound)
	}
	if form.IsDefault {
		return nil, fmt.Errorf("manual assignments are not allowed on default forms: %w", models.ErrValidation)
	}

	user, err := s.userRepo.GetByID(assignedTo)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("user %s: %w", assignedTo, models.ErrNotFound)
	}

	effectiveDeadline := time.Time{}
	if deadline != nil {
		effectiveDeadline = *deadline
	} else {
		cycle, err := s.cycleRepo.GetByID(form.CycleID)
		if err != nil {
			return nil, err
		}
		if cycle == nil {
			return nil, fmt.Errorf("cycle %s: %w", form.CycleID, models.ErrNotFound)
		}
		effectiveDeadline = cycle.EndDate
	}

	assignment := &models.FormAssignment{
		FormID:     formID,
		AssignedTo: assignedTo,
		AssignedBy: &actorID,
		Deadline:   effectiveDeadline,
		Message:    message,
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	created, err := s.assignmentRepo.InsertTx(tx, assignment)
	if err != nil {
		return nil, err
	}
	if !created {
		return nil, fmt.Errorf("assignment for %s already exists: %w", assignedTo, models.ErrConflict)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit assignment: %w", err)
	}

	s.auditRepo.Create(&models.AuditLog{
		UserID:   &actorID,
		Action:   "create",
		Resource: "assignment",
		Details:  fmt.Sprintf("Manually assigned form %s to %s", formID, assignedTo),
	})

	return assignment, nil
}

// ListAssignments retrieves all assignments of a form
func (s *AssignmentService) ListAssignments(formID uuid.UUID) ([]models.FormAssignment, error) {
	return s.assignmentRepo.ListByForm(formID)
}
