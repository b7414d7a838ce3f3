package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atayl16/siege-clan-tracker/internal/models"
	"github.com/atayl16/siege-clan-tracker/internal/rank"
	appErrors "github.com/atayl16/siege-clan-tracker/pkg/errors"
)

func newRankFixture() (*RankService, *memoryStore) {
	store := newMemoryStore()
	store.addCharacter(models.Character{WomID: 42, Name: "zezima", CurrentRole: "Leader", EHB: 650, CurrentExperience: 20_000_000})
	store.addCharacter(models.Character{WomID: 43, Name: "amy", CurrentRole: "Sapphire", EHB: 250})
	store.addCharacter(models.Character{WomID: 44, Name: "bob", CurrentRole: "Sapphire", CurrentExperience: 5_000_000})
	store.addCharacter(models.Character{WomID: 45, Name: "ghost", CurrentRole: "Guest", Hidden: true})
	store.addCharacter(models.Character{WomID: 46, Name: "newbie", CurrentRole: "Opal", EHB: 150, CurrentExperience: 1_000_000, InitialExperience: 1_000_000})
	return NewRankService(characterStoreStub{store}, nil), store
}

func TestRankClassifyCharacter(t *testing.T) {
	svc, _ := newRankFixture()
	view, err := svc.ClassifyCharacter(context.Background(), 42)
	require.NoError(t, err)
	assert.False(t, view.Evaluation.HasCorrectTier)
	assert.Equal(t, rank.TierSupervisor, view.Evaluation.ExpectedTier)

	_, err = svc.ClassifyCharacter(context.Background(), 1)
	require.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestRankListMismatchesOrdersByPriority(t *testing.T) {
	svc, _ := newRankFixture()
	_, err := svc.ListMismatches(context.Background(), memberActor)
	require.True(t, appErrors.Is(err, appErrors.ErrForbidden))

	views, err := svc.ListMismatches(context.Background(), adminActor)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, int64(43), views[0].WomID)
	assert.Equal(t, rank.PriorityWrongCategory, views[0].Evaluation.Priority)
	assert.Equal(t, int64(42), views[1].WomID)
	assert.Equal(t, rank.PriorityTierMismatch, views[1].Evaluation.Priority)
}

func TestRankListMismatchesSkipsCorrectTierWithBossingStats(t *testing.T) {
	svc, _ := newRankFixture()
	view, err := svc.ClassifyCharacter(context.Background(), 46)
	require.NoError(t, err)
	assert.True(t, view.Evaluation.HasCorrectTier)
	assert.Equal(t, rank.PriorityNone, view.Evaluation.Priority)

	views, err := svc.ListMismatches(context.Background(), adminActor)
	require.NoError(t, err)
	for _, v := range views {
		assert.NotEqual(t, int64(46), v.WomID)
	}
}

func TestRankFixTierAndToggle(t *testing.T) {
	svc, store := newRankFixture()
	change, err := svc.FixTier(context.Background(), adminActor, 42)
	require.NoError(t, err)
	assert.Equal(t, "Leader", change.PreviousRole)
	assert.Equal(t, "Supervisor", change.CurrentRole)
	assert.Equal(t, "Supervisor", store.characters[42].CurrentRole)

	change, err = svc.ToggleCategory(context.Background(), adminActor, 42)
	require.NoError(t, err)
	assert.Equal(t, "Ruby", change.CurrentRole)

	_, err = svc.FixTier(context.Background(), adminActor, 45)
	require.True(t, appErrors.Is(err, appErrors.ErrValidation))
}
