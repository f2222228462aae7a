package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"merlin/internal/models"
	"merlin/internal/repository"
	"merlin/internal/service"
	"merlin/internal/testutil"
)

func TestValidateLeaderEdge(t *testing.T) {
	containers := testutil.SetupTestContainers(t)
	defer containers.Cleanup(t)

	fixtures := testutil.SetupFixtures(t, containers.DB)
	orgGraph := service.NewOrgGraphService(repository.NewUserRepository(containers.DB))

	// A fresh edge onto the existing chain is fine: admin -> lead.
	err := orgGraph.ValidateLeaderEdge(fixtures.TeamLead.ID, fixtures.AdminUser.ID)
	require.NoError(t, err)

	// Self-leadership is rejected.
	err = orgGraph.ValidateLeaderEdge(fixtures.Member.ID, fixtures.Member.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrValidation)

	// member already reports to lead; pointing lead at member closes a
	// cycle.
	err = orgGraph.ValidateLeaderEdge(fixtures.TeamLead.ID, fixtures.Member.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestLeadersOf(t *testing.T) {
	containers := testutil.SetupTestContainers(t)
	defer containers.Cleanup(t)

	fixtures := testutil.SetupFixtures(t, containers.DB)
	orgGraph := service.NewOrgGraphService(repository.NewUserRepository(containers.DB))

	leaders, err := orgGraph.LeadersOf(fixtures.Member, models.FormTypeTL)
	require.NoError(t, err)
	require.Len(t, leaders, 1)
	assert.Equal(t, fixtures.TeamLead.ID, leaders[0].ID)

	// PM forms resolve no automatic assessor even when a leader edge
	// exists.
	leaders, err = orgGraph.LeadersOf(fixtures.Member, models.FormTypePM)
	require.NoError(t, err)
	assert.Empty(t, leaders)

	leaders, err = orgGraph.LeadersOf(fixtures.TeamLead, models.FormTypeTL)
	require.NoError(t, err)
	assert.Empty(t, leaders)
}
