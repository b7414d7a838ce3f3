package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atayl16/siege-clan-tracker/internal/dto"
	"github.com/atayl16/siege-clan-tracker/internal/models"
	appErrors "github.com/atayl16/siege-clan-tracker/pkg/errors"
)

var (
	adminActor  = models.Actor{AccountID: "admin-1", IsAdmin: true}
	memberActor = models.Actor{AccountID: "account-1"}
	otherActor  = models.Actor{AccountID: "account-2"}
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func intPtr(v int) *int { return &v }

func newClaimCodeFixture(t *testing.T, opts ...ClaimCodeServiceOption) (*ClaimCodeService, *memoryStore, *fakeClock) {
	t.Helper()
	store := newMemoryStore()
	store.addCharacter(models.Character{WomID: 7, Name: "seven"})
	store.addCharacter(models.Character{WomID: 8, Name: "eight"})
	clock := &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	opts = append([]ClaimCodeServiceOption{WithClaimCodeClock(clock.Now)}, opts...)
	svc := NewClaimCodeService(codeStoreStub{store}, characterStoreStub{store}, claimStoreStub{store}, nil, nil, opts...)
	return svc, store, clock
}

func TestGenerateClaimCodeAlphabet(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := GenerateClaimCode()
		require.NoError(t, err)
		require.Len(t, code, ClaimCodeLength)
		for _, r := range code {
			assert.True(t, strings.ContainsRune(ClaimCodeAlphabet, r), "unexpected rune %q", r)
		}
	}
}

func TestClaimCodeIssueRequiresAdmin(t *testing.T) {
	svc, _, _ := newClaimCodeFixture(t)
	_, err := svc.Issue(context.Background(), memberActor, dto.IssueClaimCodeRequest{WomID: 7})
	require.True(t, appErrors.Is(err, appErrors.ErrForbidden))

	_, err = svc.Issue(context.Background(), models.Actor{}, dto.IssueClaimCodeRequest{WomID: 7})
	require.True(t, appErrors.Is(err, appErrors.ErrUnauthorized))
}

func TestClaimCodeIssueUnknownCharacter(t *testing.T) {
	svc, _, _ := newClaimCodeFixture(t)
	_, err := svc.Issue(context.Background(), adminActor, dto.IssueClaimCodeRequest{WomID: 404})
	require.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestClaimCodeIssueRetriesCollisions(t *testing.T) {
	values := []string{"AAAAAAAA", "AAAAAAAA", "BBBBBBBB"}
	var idx int
	gen := func() (string, error) {
		v := values[idx]
		idx++
		return v, nil
	}
	svc, _, _ := newClaimCodeFixture(t, WithClaimCodeGenerator(gen))

	first, err := svc.Issue(context.Background(), adminActor, dto.IssueClaimCodeRequest{WomID: 7})
	require.NoError(t, err)
	require.Equal(t, "AAAAAAAA", first.Code)

	second, err := svc.Issue(context.Background(), adminActor, dto.IssueClaimCodeRequest{WomID: 8})
	require.NoError(t, err)
	require.Equal(t, "BBBBBBBB", second.Code)
}

func TestClaimCodeRedeemIsExactlyOnce(t *testing.T) {
	svc, store, _ := newClaimCodeFixture(t)
	code, err := svc.Issue(context.Background(), adminActor, dto.IssueClaimCodeRequest{WomID: 7, ExpiryDays: intPtr(1)})
	require.NoError(t, err)

	claim, err := svc.Redeem(context.Background(), memberActor, dto.RedeemClaimCodeRequest{Code: strings.ToLower(code.Code)})
	require.NoError(t, err)
	require.Equal(t, int64(7), claim.WomID)
	require.Equal(t, memberActor.AccountID, claim.AccountID)

	_, err = svc.Redeem(context.Background(), otherActor, dto.RedeemClaimCodeRequest{Code: code.Code})
	require.True(t, appErrors.Is(err, appErrors.ErrInvalidCode))
	require.Equal(t, 1, store.claimCount())
}

func TestClaimCodeConcurrentRedeemCreatesOneClaim(t *testing.T) {
	svc, store, _ := newClaimCodeFixture(t)
	code, err := svc.Issue(context.Background(), adminActor, dto.IssueClaimCodeRequest{WomID: 7})
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			actor := models.Actor{AccountID: "account-" + string(rune('a'+n))}
			_, err := svc.Redeem(context.Background(), actor, dto.RedeemClaimCodeRequest{Code: code.Code})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	var ok, invalid int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case appErrors.Is(err, appErrors.ErrInvalidCode):
			invalid++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 7, invalid)
	assert.Equal(t, 1, store.claimCount())
}

func TestClaimCodeExpiry(t *testing.T) {
	svc, _, clock := newClaimCodeFixture(t)

	never, err := svc.Issue(context.Background(), adminActor, dto.IssueClaimCodeRequest{WomID: 7, ExpiryDays: intPtr(0)})
	require.NoError(t, err)
	require.Nil(t, never.ExpiresAt)

	short, err := svc.Issue(context.Background(), adminActor, dto.IssueClaimCodeRequest{WomID: 8, ExpiryDays: intPtr(1)})
	require.NoError(t, err)
	require.NotNil(t, short.ExpiresAt)

	clock.Advance(48 * time.Hour)
	_, err = svc.Redeem(context.Background(), otherActor, dto.RedeemClaimCodeRequest{Code: short.Code})
	require.True(t, appErrors.Is(err, appErrors.ErrCodeExpired))

	clock.Advance(365 * 24 * time.Hour)
	claim, err := svc.Redeem(context.Background(), memberActor, dto.RedeemClaimCodeRequest{Code: never.Code})
	require.NoError(t, err)
	require.Equal(t, int64(7), claim.WomID)
}

func TestClaimCodeDefaultExpiry(t *testing.T) {
	svc, _, clock := newClaimCodeFixture(t, WithDefaultExpiryDays(3))
	code, err := svc.Issue(context.Background(), adminActor, dto.IssueClaimCodeRequest{WomID: 7})
	require.NoError(t, err)
	require.NotNil(t, code.ExpiresAt)
	assert.Equal(t, clock.Now().Add(72*time.Hour), *code.ExpiresAt)
}

func TestClaimCodeIssueRejectsClaimedCharacter(t *testing.T) {
	svc, _, _ := newClaimCodeFixture(t)
	code, err := svc.Issue(context.Background(), adminActor, dto.IssueClaimCodeRequest{WomID: 7})
	require.NoError(t, err)
	_, err = svc.Redeem(context.Background(), memberActor, dto.RedeemClaimCodeRequest{Code: code.Code})
	require.NoError(t, err)

	_, err = svc.Issue(context.Background(), adminActor, dto.IssueClaimCodeRequest{WomID: 7})
	require.True(t, appErrors.Is(err, appErrors.ErrAlreadyClaimed))
}

func TestClaimCodeSecondCodeForClaimedCharacter(t *testing.T) {
	svc, store, _ := newClaimCodeFixture(t)
	first, err := svc.Issue(context.Background(), adminActor, dto.IssueClaimCodeRequest{WomID: 7})
	require.NoError(t, err)
	second, err := svc.Issue(context.Background(), adminActor, dto.IssueClaimCodeRequest{WomID: 7})
	require.NoError(t, err)

	_, err = svc.Redeem(context.Background(), memberActor, dto.RedeemClaimCodeRequest{Code: first.Code})
	require.NoError(t, err)
	_, err = svc.Redeem(context.Background(), otherActor, dto.RedeemClaimCodeRequest{Code: second.Code})
	require.True(t, appErrors.Is(err, appErrors.ErrAlreadyClaimed))
	require.Equal(t, 1, store.claimCount())

	codes, err := svc.ListCodes(context.Background(), adminActor, 7)
	require.NoError(t, err)
	require.Len(t, codes, 2)
}
