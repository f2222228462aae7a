package service_test

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"merlin/internal/models"
	"merlin/internal/repository"
	"merlin/internal/service"
	"merlin/internal/testutil"
)

type services struct {
	assignments *service.AssignmentService
	responses   *service.ResponseService
	results     *service.ResultsService
}

func setupServices(db *testutil.TestContainers) services {
	userRepo := repository.NewUserRepository(db.DB)
	formRepo := repository.NewFormRepository(db.DB)
	cycleRepo := repository.NewCycleRepository(db.DB)
	assignmentRepo := repository.NewAssignmentRepository(db.DB)
	responseRepo := repository.NewResponseRepository(db.DB)
	auditRepo := repository.NewAuditRepository(db.DB)
	orgGraph := service.NewOrgGraphService(userRepo)

	return services{
		assignments: service.NewAssignmentService(db.DB, formRepo, cycleRepo, userRepo, assignmentRepo, orgGraph, auditRepo),
		responses:   service.NewResponseService(db.DB, formRepo, assignmentRepo, responseRepo),
		results:     service.NewResultsService(formRepo, userRepo, assignmentRepo, responseRepo),
	}
}

func skipReasons(result *models.MaterializationResult) map[uuid.UUID]models.SkipReason {
	reasons := make(map[uuid.UUID]models.SkipReason, len(result.Skipped))
	for _, skipped := range result.Skipped {
		reasons[skipped.User.ID] = skipped.Reason
	}
	return reasons
}

func TestMaterializeFormIsIdempotent(t *testing.T) {
	containers := testutil.SetupTestContainers(t)
	defer containers.Cleanup(t)

	fixtures := testutil.SetupFixtures(t, containers.DB)
	svc := setupServices(containers)

	first, err := svc.assignments.MaterializeForm(fixtures.Form.ID)
	require.NoError(t, err)

	// The member's team lead gets the assignment, with the member as
	// the assessed user. Admin and lead have no leader of their own.
	require.Len(t, first.Created, 1)
	assert.Equal(t, fixtures.TeamLead.ID, first.Created[0].AssignedTo)
	require.NotNil(t, first.Created[0].AssignedBy)
	assert.Equal(t, fixtures.Member.ID, *first.Created[0].AssignedBy)
	assert.Equal(t, fixtures.Cycle.EndDate.UTC().Truncate(1e6), first.Created[0].Deadline.UTC().Truncate(1e6))

	reasons := skipReasons(first)
	assert.Equal(t, models.SkipNoLeader, reasons[fixtures.AdminUser.ID])
	assert.Equal(t, models.SkipNoLeader, reasons[fixtures.TeamLead.ID])

	// Re-running creates nothing new and still reports the member as
	// affected.
	second, err := svc.assignments.MaterializeForm(fixtures.Form.ID)
	require.NoError(t, err)
	assert.Empty(t, second.Created)
	require.Len(t, second.Affected, 1)
	assert.Equal(t, fixtures.Member.ID, second.Affected[0].ID)

	// A provisional preview reports the member as already assigned.
	preview, err := svc.assignments.Preview(fixtures.Form.ID)
	require.NoError(t, err)
	assert.Empty(t, preview.Created)
	assert.Equal(t, models.SkipAlreadyAssigned, skipReasons(preview)[fixtures.Member.ID])
}

func TestManualAssignmentRejectedOnDefaultForm(t *testing.T) {
	containers := testutil.SetupTestContainers(t)
	defer containers.Cleanup(t)

	fixtures := testutil.SetupFixtures(t, containers.DB)
	svc := setupServices(containers)

	_, err := svc.assignments.CreateManualAssignment(fixtures.Form.ID, fixtures.Member.ID, fixtures.AdminUser.ID, nil, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestManualAssignmentConflictAndDefaults(t *testing.T) {
	containers := testutil.SetupTestContainers(t)
	defer containers.Cleanup(t)

	fixtures := testutil.SetupFixtures(t, containers.DB)
	svc := setupServices(containers)

	form := fixtures.CreateForm(t, fixtures.Cycle.ID, "PM Review", models.FormTypePM, false)

	assignment, err := svc.assignments.CreateManualAssignment(form.ID, fixtures.Member.ID, fixtures.AdminUser.ID, nil, "please fill in")
	require.NoError(t, err)
	assert.Equal(t, fixtures.Member.ID, assignment.AssignedTo)
	require.NotNil(t, assignment.AssignedBy)
	assert.Equal(t, fixtures.AdminUser.ID, *assignment.AssignedBy)
	// The deadline falls back to the cycle end.
	assert.Equal(t, fixtures.Cycle.EndDate.UTC().Truncate(1e6), assignment.Deadline.UTC().Truncate(1e6))

	_, err = svc.assignments.CreateManualAssignment(form.ID, fixtures.Member.ID, fixtures.AdminUser.ID, nil, "again")
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrConflict)
}

func TestSubmitDerivesCompletion(t *testing.T) {
	containers := testutil.SetupTestContainers(t)
	defer containers.Cleanup(t)

	fixtures := testutil.SetupFixtures(t, containers.DB)
	svc := setupServices(containers)

	result, err := svc.assignments.MaterializeForm(fixtures.Form.ID)
	require.NoError(t, err)
	require.Len(t, result.Created, 1)

	questions := fixtures.Questions
	respondent := fixtures.TeamLead.ID

	// Answering a subset leaves the assignment incomplete.
	err = svc.responses.Submit(fixtures.Form.ID, respondent, map[uuid.UUID]int{
		questions[0].ID: 4,
		questions[1].ID: 3,
	})
	require.NoError(t, err)
	assert.False(t, assignmentCompleted(t, containers, result.Created[0].ID))

	// Answering the last question flips the flag.
	err = svc.responses.Submit(fixtures.Form.ID, respondent, map[uuid.UUID]int{
		questions[2].ID: 5,
	})
	require.NoError(t, err)
	assert.True(t, assignmentCompleted(t, containers, result.Created[0].ID))

	// Overwriting an answer keeps it complete and keeps one response
	// per question.
	err = svc.responses.Submit(fixtures.Form.ID, respondent, map[uuid.UUID]int{
		questions[0].ID: 2,
	})
	require.NoError(t, err)
	assert.True(t, assignmentCompleted(t, containers, result.Created[0].ID))

	responses, err := svc.responses.Responses(fixtures.Form.ID, respondent)
	require.NoError(t, err)
	assert.Len(t, responses, 3)
}

func TestSubmitValidation(t *testing.T) {
	containers := testutil.SetupTestContainers(t)
	defer containers.Cleanup(t)

	fixtures := testutil.SetupFixtures(t, containers.DB)
	svc := setupServices(containers)

	_, err := svc.assignments.MaterializeForm(fixtures.Form.ID)
	require.NoError(t, err)

	// Out-of-scale answers are rejected before any write.
	err = svc.responses.Submit(fixtures.Form.ID, fixtures.TeamLead.ID, map[uuid.UUID]int{
		fixtures.Questions[0].ID: 9,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrValidation)

	// Foreign questions are rejected.
	err = svc.responses.Submit(fixtures.Form.ID, fixtures.TeamLead.ID, map[uuid.UUID]int{
		uuid.New(): 3,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrValidation)

	// Users without an assignment cannot submit.
	err = svc.responses.Submit(fixtures.Form.ID, fixtures.Member.ID, map[uuid.UUID]int{
		fixtures.Questions[0].ID: 3,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestAggregateResults(t *testing.T) {
	containers := testutil.SetupTestContainers(t)
	defer containers.Cleanup(t)

	fixtures := testutil.SetupFixtures(t, containers.DB)
	svc := setupServices(containers)

	_, err := svc.assignments.MaterializeForm(fixtures.Form.ID)
	require.NoError(t, err)

	err = svc.responses.Submit(fixtures.Form.ID, fixtures.TeamLead.ID, map[uuid.UUID]int{
		fixtures.Questions[0].ID: 4,
		fixtures.Questions[1].ID: 2,
		fixtures.Questions[2].ID: 5,
	})
	require.NoError(t, err)

	results, err := svc.results.Aggregate(context.Background(), fixtures.Form.ID)
	require.NoError(t, err)

	// The member is the assessed user; the team lead's answers feed
	// their averages.
	require.Len(t, results.Assessed, 1)
	assessed := results.Assessed[0]
	assert.Equal(t, fixtures.Member.ID, assessed.User.ID)

	require.Len(t, assessed.Questions, 3)
	require.NotNil(t, assessed.Questions[0].Average)
	assert.InDelta(t, 4.0, *assessed.Questions[0].Average, 1e-9)
	require.NotNil(t, assessed.Questions[1].Average)
	assert.InDelta(t, 2.0, *assessed.Questions[1].Average, 1e-9)

	require.NotNil(t, assessed.Categories["Communication"])
	assert.InDelta(t, 3.0, *assessed.Categories["Communication"], 1e-9)
}

func assignmentCompleted(t *testing.T, containers *testutil.TestContainers, assignmentID uuid.UUID) bool {
	t.Helper()

	var completed bool
	err := containers.DB.QueryRow(
		"SELECT is_completed FROM form_assignments WHERE id = $1",
		assignmentID,
	).Scan(&completed)
	if err != nil {
		t.Fatalf("Failed to read assignment %s: %v", assignmentID, err)
	}
	return completed
}

func TestConcurrentMaterializersConverge(t *testing.T) {
	containers := testutil.SetupTestContainers(t)
	defer containers.Cleanup(t)

	fixtures := testutil.SetupFixtures(t, containers.DB)
	svc := setupServices(containers)

	var wg sync.WaitGroup
	results := make([]*models.MaterializationResult, 2)
	errs := make([]error, 2)

	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = svc.assignments.MaterializeForm(fixtures.Form.ID)
		}(i)
	}
	wg.Wait()

	// The loser converges silently; neither call surfaces an error.
	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	// Exactly one of the two calls reports the creation.
	assert.Equal(t, 1, len(results[0].Created)+len(results[1].Created))

	var count int
	err := containers.DB.QueryRow(
		"SELECT COUNT(*) FROM form_assignments WHERE form_id = $1 AND assigned_to = $2 AND assigned_by = $3",
		fixtures.Form.ID, fixtures.TeamLead.ID, fixtures.Member.ID,
	).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	err = containers.DB.QueryRow(
		"SELECT COUNT(*) FROM form_assignments WHERE form_id = $1",
		fixtures.Form.ID,
	).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestExportSpansForms(t *testing.T) {
	containers := testutil.SetupTestContainers(t)
	defer containers.Cleanup(t)

	fixtures := testutil.SetupFixtures(t, containers.DB)
	svc := setupServices(containers)
	exports := service.NewExportService(svc.assignments, svc.results)

	second := fixtures.CreateForm(t, fixtures.Cycle.ID, "Mid-Year Review", models.FormTypeTL, true)
	fixtures.CreateQuestions(t, second.ID)

	var rows [][]string
	sink := func(row []string) error {
		rows = append(rows, append([]string(nil), row...))
		return nil
	}

	formIDs := []uuid.UUID{fixtures.Form.ID, second.ID}
	require.NoError(t, exports.ExportSkipped(context.Background(), formIDs, sink))

	// One header, then the two leaderless users of each form.
	require.Len(t, rows, 5)
	assert.Equal(t, []string{"Form Name", "User Email", "User Name", "Reason"}, rows[0])

	formNames := make(map[string]int)
	for _, row := range rows[1:] {
		formNames[row[0]]++
		assert.Equal(t, string(models.SkipNoLeader), row[3])
	}
	assert.Equal(t, 2, formNames[fixtures.Form.Name])
	assert.Equal(t, 2, formNames[second.Name])

	// Results likewise span forms under a single header.
	_, err := svc.assignments.MaterializeForm(fixtures.Form.ID)
	require.NoError(t, err)
	_, err = svc.assignments.MaterializeForm(second.ID)
	require.NoError(t, err)

	rows = nil
	require.NoError(t, exports.ExportResults(context.Background(), formIDs, sink))

	require.NotEmpty(t, rows)
	assert.Equal(t, []string{"Form Name", "Assessed User", "Type", "Item", "Average"}, rows[0])

	formNames = make(map[string]int)
	for _, row := range rows[1:] {
		assert.NotEqual(t, "Form Name", row[0])
		formNames[row[0]]++
	}
	assert.NotZero(t, formNames[fixtures.Form.Name])
	assert.NotZero(t, formNames[second.Name])
}
