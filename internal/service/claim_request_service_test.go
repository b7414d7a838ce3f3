package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atayl16/siege-clan-tracker/internal/dto"
	"github.com/atayl16/siege-clan-tracker/internal/models"
	appErrors "github.com/atayl16/siege-clan-tracker/pkg/errors"
)

func newClaimRequestFixture(t *testing.T) (*ClaimRequestService, *memoryStore) {
	t.Helper()
	store := newMemoryStore()
	store.addCharacter(models.Character{WomID: 9, Name: "nine", DisplayName: "Nine"})
	store.addCharacter(models.Character{WomID: 10, Name: "ten"})
	svc := NewClaimRequestService(requestStoreStub{store}, characterStoreStub{store}, claimStoreStub{store}, nil, nil,
		WithClaimRequestClock(func() time.Time { return time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC) }))
	return svc, store
}

func TestClaimRequestSubmitCapturesDisplayName(t *testing.T) {
	svc, store := newClaimRequestFixture(t)
	req, err := svc.Submit(context.Background(), memberActor, dto.SubmitClaimRequest{WomID: 9, Message: "  it's me  "})
	require.NoError(t, err)
	require.Equal(t, models.ClaimRequestPending, req.Status)
	require.Equal(t, "Nine", req.CharacterName)
	require.NotNil(t, req.Message)
	require.Equal(t, "it's me", *req.Message)

	store.mu.Lock()
	store.characters[9].DisplayName = "Renamed"
	store.mu.Unlock()
	stored, err := svc.Get(context.Background(), memberActor, req.ID)
	require.NoError(t, err)
	require.Equal(t, "Nine", stored.CharacterName)
}

func TestClaimRequestDuplicatePendingThenResubmitAfterDeny(t *testing.T) {
	svc, _ := newClaimRequestFixture(t)
	first, err := svc.Submit(context.Background(), memberActor, dto.SubmitClaimRequest{WomID: 9})
	require.NoError(t, err)

	_, err = svc.Submit(context.Background(), otherActor, dto.SubmitClaimRequest{WomID: 9})
	require.True(t, appErrors.Is(err, appErrors.ErrDuplicatePending))

	resp, err := svc.Process(context.Background(), adminActor, first.ID, dto.ProcessClaimRequest{Decision: "deny", AdminNotes: "no proof"})
	require.NoError(t, err)
	require.Equal(t, models.ClaimRequestDenied, resp.Request.Status)
	require.Nil(t, resp.Claim)

	second, err := svc.Submit(context.Background(), otherActor, dto.SubmitClaimRequest{WomID: 9})
	require.NoError(t, err)
	require.NotEqual(t, first.ID, second.ID)
}

func TestClaimRequestSubmitUnknownOrClaimed(t *testing.T) {
	svc, store := newClaimRequestFixture(t)
	_, err := svc.Submit(context.Background(), memberActor, dto.SubmitClaimRequest{WomID: 999})
	require.True(t, appErrors.Is(err, appErrors.ErrNotFound))

	store.mu.Lock()
	require.NoError(t, store.insertClaimLocked(&models.Claim{AccountID: "account-3", WomID: 10}))
	store.mu.Unlock()
	_, err = svc.Submit(context.Background(), memberActor, dto.SubmitClaimRequest{WomID: 10})
	require.True(t, appErrors.Is(err, appErrors.ErrAlreadyClaimed))
}

func TestClaimRequestApproveCreatesClaim(t *testing.T) {
	svc, store := newClaimRequestFixture(t)
	req, err := svc.Submit(context.Background(), memberActor, dto.SubmitClaimRequest{WomID: 9})
	require.NoError(t, err)

	resp, err := svc.Process(context.Background(), adminActor, req.ID, dto.ProcessClaimRequest{Decision: dto.DecisionApprove})
	require.NoError(t, err)
	require.Equal(t, models.ClaimRequestApproved, resp.Request.Status)
	require.NotNil(t, resp.Claim)
	require.Equal(t, memberActor.AccountID, resp.Claim.AccountID)
	require.Equal(t, 1, store.claimCount())

	_, err = svc.Process(context.Background(), adminActor, req.ID, dto.ProcessClaimRequest{Decision: dto.DecisionDeny})
	require.True(t, appErrors.Is(err, appErrors.ErrNotPending))
}

func TestClaimRequestApproveWhenAlreadyClaimedStaysPending(t *testing.T) {
	svc, store := newClaimRequestFixture(t)
	req, err := svc.Submit(context.Background(), memberActor, dto.SubmitClaimRequest{WomID: 9})
	require.NoError(t, err)

	store.mu.Lock()
	require.NoError(t, store.insertClaimLocked(&models.Claim{AccountID: "account-3", WomID: 9}))
	store.mu.Unlock()

	_, err = svc.Process(context.Background(), adminActor, req.ID, dto.ProcessClaimRequest{Decision: dto.DecisionApprove})
	require.True(t, appErrors.Is(err, appErrors.ErrAlreadyClaimed))

	stored, err := svc.Get(context.Background(), adminActor, req.ID)
	require.NoError(t, err)
	require.Equal(t, models.ClaimRequestPending, stored.Status)
}

func TestClaimRequestConcurrentApprovalsYieldOneClaim(t *testing.T) {
	svc, store := newClaimRequestFixture(t)
	requests := requestStoreStub{store}
	requests.seed(models.ClaimRequest{ID: "req-a", AccountID: "account-1", WomID: 9, Status: models.ClaimRequestPending})
	requests.seed(models.ClaimRequest{ID: "req-b", AccountID: "account-2", WomID: 9, Status: models.ClaimRequestPending})

	var wg sync.WaitGroup
	results := make(chan error, 2)
	for _, id := range []string{"req-a", "req-b"} {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := svc.Process(context.Background(), adminActor, id, dto.ProcessClaimRequest{Decision: dto.DecisionApprove})
			results <- err
		}(id)
	}
	wg.Wait()
	close(results)

	var ok, failed int
	for err := range results {
		if err == nil {
			ok++
			continue
		}
		failed++
		assert.True(t, appErrors.Is(err, appErrors.ErrAlreadyClaimed) || appErrors.Is(err, appErrors.ErrNotPending), "unexpected error %v", err)
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, failed)
	assert.Equal(t, 1, store.claimCount())
}

func TestClaimRequestSameRequestProcessedTwiceConcurrently(t *testing.T) {
	svc, store := newClaimRequestFixture(t)
	req, err := svc.Submit(context.Background(), memberActor, dto.SubmitClaimRequest{WomID: 9})
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Process(context.Background(), adminActor, req.ID, dto.ProcessClaimRequest{Decision: dto.DecisionApprove})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var ok int
	for err := range results {
		if err == nil {
			ok++
			continue
		}
		assert.True(t, appErrors.Is(err, appErrors.ErrNotPending), "unexpected error %v", err)
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, store.claimCount())
}

func TestClaimRequestProcessRequiresAdmin(t *testing.T) {
	svc, _ := newClaimRequestFixture(t)
	req, err := svc.Submit(context.Background(), memberActor, dto.SubmitClaimRequest{WomID: 9})
	require.NoError(t, err)
	_, err = svc.Process(context.Background(), memberActor, req.ID, dto.ProcessClaimRequest{Decision: dto.DecisionApprove})
	require.True(t, appErrors.Is(err, appErrors.ErrForbidden))

	_, err = svc.Process(context.Background(), adminActor, req.ID, dto.ProcessClaimRequest{Decision: "maybe"})
	require.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestClaimRequestListScopesNonAdmins(t *testing.T) {
	svc, _ := newClaimRequestFixture(t)
	_, err := svc.Submit(context.Background(), memberActor, dto.SubmitClaimRequest{WomID: 9})
	require.NoError(t, err)
	_, err = svc.Submit(context.Background(), otherActor, dto.SubmitClaimRequest{WomID: 10})
	require.NoError(t, err)

	mine, err := svc.List(context.Background(), memberActor, dto.ClaimRequestQuery{})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	require.Equal(t, int64(9), mine[0].WomID)

	all, err := svc.List(context.Background(), adminActor, dto.ClaimRequestQuery{Status: []models.ClaimRequestStatus{models.ClaimRequestPending}})
	require.NoError(t, err)
	require.Len(t, all, 2)

	_, err = svc.List(context.Background(), adminActor, dto.ClaimRequestQuery{Status: []models.ClaimRequestStatus{"archived"}})
	require.True(t, appErrors.Is(err, appErrors.ErrValidation))

	for _, r := range all {
		if r.AccountID == otherActor.AccountID {
			_, err = svc.Get(context.Background(), memberActor, r.ID)
			require.True(t, appErrors.Is(err, appErrors.ErrForbidden))
		}
	}
}
