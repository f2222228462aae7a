package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"merlin/internal/models"
)

func testUser(name string) models.User {
	return models.User{ID: uuid.New(), Email: name + "@test.com", Name: name, IsActive: true}
}

func tlForm() *models.Form {
	return &models.Form{ID: uuid.New(), FormType: models.FormTypeTL, IsDefault: true}
}

func TestPlanAssignmentsTeamLeadFanOut(t *testing.T) {
	form := tlForm()
	leader := testUser("leader")
	member := testUser("member")
	orphan := testUser("orphan")
	deadline := time.Now().Add(30 * 24 * time.Hour)

	leaders := map[uuid.UUID][]models.User{
		member.ID: {leader},
		orphan.ID: {},
		leader.ID: {},
	}

	plan := planAssignments(form, []models.User{leader, member, orphan}, leaders, nil, deadline, false)

	require.Len(t, plan.Create, 1)
	create := plan.Create[0]
	assert.Equal(t, form.ID, create.FormID)
	assert.Equal(t, leader.ID, create.AssignedTo)
	require.NotNil(t, create.AssignedBy)
	assert.Equal(t, member.ID, *create.AssignedBy)
	assert.Equal(t, deadline, create.Deadline)

	require.Len(t, plan.Affected, 1)
	assert.Equal(t, member.ID, plan.Affected[0].ID)

	require.Len(t, plan.Skipped, 2)
	for _, skipped := range plan.Skipped {
		assert.Equal(t, models.SkipNoLeader, skipped.Reason)
	}
}

func TestPlanAssignmentsAlreadyAssigned(t *testing.T) {
	form := tlForm()
	leader := testUser("leader")
	member := testUser("member")
	deadline := time.Now().Add(24 * time.Hour)

	leaders := map[uuid.UUID][]models.User{
		member.ID: {leader},
	}
	assessedBy := member.ID
	existing := []models.FormAssignment{
		{FormID: form.ID, AssignedTo: leader.ID, AssignedBy: &assessedBy},
	}

	// Provisional mode reports the covered candidate as skipped.
	plan := planAssignments(form, []models.User{member}, leaders, existing, deadline, false)
	assert.Empty(t, plan.Create)
	assert.Empty(t, plan.Affected)
	require.Len(t, plan.Skipped, 1)
	assert.Equal(t, models.SkipAlreadyAssigned, plan.Skipped[0].Reason)
	assert.Equal(t, member.ID, plan.Skipped[0].User.ID)

	// Committing mode counts the same candidate as affected, since the
	// post-state holds their assignment either way.
	plan = planAssignments(form, []models.User{member}, leaders, existing, deadline, true)
	assert.Empty(t, plan.Create)
	assert.Empty(t, plan.Skipped)
	require.Len(t, plan.Affected, 1)
	assert.Equal(t, member.ID, plan.Affected[0].ID)
}

func TestPlanAssignmentsDistinctAssessedUsers(t *testing.T) {
	// Two members sharing a leader produce two assignments for the
	// same respondent, split by assigned_by.
	form := tlForm()
	leader := testUser("leader")
	memberA := testUser("member-a")
	memberB := testUser("member-b")

	leaders := map[uuid.UUID][]models.User{
		memberA.ID: {leader},
		memberB.ID: {leader},
	}

	plan := planAssignments(form, []models.User{memberA, memberB}, leaders, nil, time.Now(), true)

	require.Len(t, plan.Create, 2)
	assessed := map[uuid.UUID]bool{}
	for _, create := range plan.Create {
		assert.Equal(t, leader.ID, create.AssignedTo)
		require.NotNil(t, create.AssignedBy)
		assessed[*create.AssignedBy] = true
	}
	assert.True(t, assessed[memberA.ID])
	assert.True(t, assessed[memberB.ID])
	assert.Len(t, plan.Affected, 2)
}

func TestPlanAssignmentsProductManagerForm(t *testing.T) {
	form := &models.Form{ID: uuid.New(), FormType: models.FormTypePM, IsDefault: true}
	pm := testUser("pm")
	member := testUser("member")

	leaders := map[uuid.UUID][]models.User{
		member.ID: {pm},
	}

	plan := planAssignments(form, []models.User{pm, member}, leaders, nil, time.Now(), true)

	assert.Empty(t, plan.Create)
	assert.Empty(t, plan.Affected)
	require.Len(t, plan.Skipped, 2)
	for _, skipped := range plan.Skipped {
		assert.Equal(t, models.SkipManualRequired, skipped.Reason)
	}
}

func TestPlanAssignmentsGeneralForm(t *testing.T) {
	form := &models.Form{ID: uuid.New(), FormType: models.FormTypeGeneral, IsDefault: true}
	member := testUser("member")

	plan := planAssignments(form, []models.User{member}, nil, nil, time.Now(), false)

	assert.Empty(t, plan.Create)
	require.Len(t, plan.Skipped, 1)
	assert.Equal(t, models.SkipNotApplicable, plan.Skipped[0].Reason)
}

func TestPlanAssignmentsDeterministicOrder(t *testing.T) {
	form := tlForm()
	leader := testUser("leader")
	users := make([]models.User, 0, 5)
	leaders := map[uuid.UUID][]models.User{}
	for i := 0; i < 5; i++ {
		u := testUser("member")
		users = append(users, u)
		leaders[u.ID] = []models.User{leader}
	}

	first := planAssignments(form, users, leaders, nil, time.Now(), false)

	reversed := make([]models.User, len(users))
	for i, u := range users {
		reversed[len(users)-1-i] = u
	}
	second := planAssignments(form, reversed, leaders, nil, time.Now(), false)

	require.Equal(t, len(first.Create), len(second.Create))
	for i := range first.Create {
		assert.Equal(t, *first.Create[i].AssignedBy, *second.Create[i].AssignedBy)
	}
	require.Equal(t, len(first.Affected), len(second.Affected))
	for i := range first.Affected {
		assert.Equal(t, first.Affected[i].ID, second.Affected[i].ID)
	}
}

func TestKeyOfTreatsNilAssignedByAsZero(t *testing.T) {
	a := models.FormAssignment{AssignedTo: uuid.New()}
	key := keyOf(&a)
	assert.Equal(t, uuid.UUID{}, key.AssignedBy)

	by := uuid.New()
	a.AssignedBy = &by
	assert.Equal(t, by, keyOf(&a).AssignedBy)
}
