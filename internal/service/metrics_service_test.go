package service

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atayl16/siege-clan-tracker/internal/dto"
	"github.com/atayl16/siege-clan-tracker/internal/models"
)

func TestMetricsNilReceiverIsSafe(t *testing.T) {
	var m *MetricsService
	assert.NotPanics(t, func() {
		m.ObserveHTTPRequest("GET", "/health", 200, time.Millisecond)
		m.RecordCacheOperation(true, time.Millisecond)
		m.RecordGoalSync("ok", 3)
	})
	assert.Nil(t, m.Registry())
}

func TestMetricsCountClaimsByPath(t *testing.T) {
	metrics := NewMetricsService()
	svc, store, _ := newClaimCodeFixture(t, WithClaimCodeMetrics(metrics))
	ctx := context.Background()

	code, err := svc.Issue(ctx, adminActor, dto.IssueClaimCodeRequest{WomID: 7, ExpiryDays: intPtr(0)})
	require.NoError(t, err)
	_, err = svc.Redeem(ctx, memberActor, dto.RedeemClaimCodeRequest{Code: code.Code})
	require.NoError(t, err)
	_, err = svc.Redeem(ctx, memberActor, dto.RedeemClaimCodeRequest{Code: code.Code})
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.claimsCreated.WithLabelValues(string(models.ClaimSourceCode))))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.claimOutcomes.WithLabelValues("redeem", "ok")))
	assert.Equal(t, 1, store.claimCount())

	metrics.RecordCacheOperation(false, time.Millisecond)
	metrics.RecordCacheOperation(true, time.Millisecond)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.cacheLookups.WithLabelValues("hit")))
}
