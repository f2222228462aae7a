package service_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"merlin/internal/models"
	"merlin/internal/repository"
	"merlin/internal/service"
	"merlin/internal/testutil"
)

func setupCycleService(containers *testutil.TestContainers) *service.CycleService {
	return service.NewCycleService(
		repository.NewCycleRepository(containers.DB),
		repository.NewFormRepository(containers.DB),
		repository.NewAuditRepository(containers.DB),
	)
}

func TestCreateCycleValidation(t *testing.T) {
	containers := testutil.SetupTestContainers(t)
	defer containers.Cleanup(t)

	fixtures := testutil.SetupFixtures(t, containers.DB)
	svc := setupCycleService(containers)

	cycle := &models.Cycle{
		StartDate: time.Now(),
		EndDate:   time.Now().AddDate(0, 3, 0),
	}
	err := svc.CreateCycle(cycle, fixtures.AdminUser.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrValidation)

	cycle = &models.Cycle{
		Name:      "Backwards",
		StartDate: time.Now(),
		EndDate:   time.Now().Add(-time.Hour),
	}
	err = svc.CreateCycle(cycle, fixtures.AdminUser.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrValidation)

	cycle = &models.Cycle{
		Name:      "Q4 2026",
		StartDate: time.Now(),
		EndDate:   time.Now().AddDate(0, 3, 0),
	}
	require.NoError(t, svc.CreateCycle(cycle, fixtures.AdminUser.ID))
	assert.NotZero(t, cycle.ID)
}

func TestDeleteCycleReferenceChecks(t *testing.T) {
	containers := testutil.SetupTestContainers(t)
	defer containers.Cleanup(t)

	fixtures := testutil.SetupFixtures(t, containers.DB)
	svc := setupCycleService(containers)

	// The fixture cycle carries a form, so deletion is refused.
	err := svc.DeleteCycle(fixtures.Cycle.ID, fixtures.AdminUser.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrReferenced)

	// An empty cycle deletes cleanly.
	empty := fixtures.CreateCycle(t, "Empty", time.Now(), time.Now().AddDate(0, 1, 0))
	require.NoError(t, svc.DeleteCycle(empty.ID, fixtures.AdminUser.ID))

	_, err = svc.GetCycle(empty.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestActiveCycles(t *testing.T) {
	containers := testutil.SetupTestContainers(t)
	defer containers.Cleanup(t)

	fixtures := testutil.SetupFixtures(t, containers.DB)
	svc := setupCycleService(containers)

	fixtures.CreateCycle(t, "Past", time.Now().AddDate(-1, 0, 0), time.Now().AddDate(0, -6, 0))
	fixtures.CreateCycle(t, "Future", time.Now().AddDate(0, 6, 0), time.Now().AddDate(1, 0, 0))

	active, err := svc.ActiveCycles(time.Now())
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, fixtures.Cycle.ID, active[0].ID)
}

func TestCycleOf(t *testing.T) {
	containers := testutil.SetupTestContainers(t)
	defer containers.Cleanup(t)

	fixtures := testutil.SetupFixtures(t, containers.DB)
	svc := setupCycleService(containers)

	cycle, err := svc.CycleOf(fixtures.Form.ID)
	require.NoError(t, err)
	assert.Equal(t, fixtures.Cycle.ID, cycle.ID)

	_, err = svc.CycleOf(uuid.New())
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrNotFound)
}
