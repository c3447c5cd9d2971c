package ratelimit

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/ignite/outreach-orchestrator/internal/domain"
)

func newTestLimiter(t *testing.T) *Limiter {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return New(client)
}

func TestEvaluate_AllowsUnderLimit(t *testing.T) {
	l := newTestLimiter(t)
	limits := domain.RateLimits{PerDay: 10, PerHour: 5, PerDomainPerDay: 3}

	res, err := l.Evaluate(context.Background(), "tenant-1", limits, "example.com")
	require.NoError(t, err)
	require.True(t, res.Allowed)
	require.Equal(t, int64(10), res.Remaining.Day)
}

func TestEvaluate_ZeroLimitMeansUnlimited(t *testing.T) {
	l := newTestLimiter(t)
	limits := domain.RateLimits{}

	res, err := l.Evaluate(context.Background(), "tenant-1", limits, "example.com")
	require.NoError(t, err)
	require.True(t, res.Allowed)
	require.Equal(t, int64(-1), res.Remaining.Day)
}

func TestRecordSent_IncrementsUsage(t *testing.T) {
	l := newTestLimiter(t)
	ctx := context.Background()
	limits := domain.RateLimits{PerDay: 2, PerDomainPerDay: 1}

	require.NoError(t, l.RecordSent(ctx, "tenant-1", "example.com"))

	res, err := l.Evaluate(ctx, "tenant-1", limits, "example.com")
	require.NoError(t, err)
	require.False(t, res.Allowed, "per-domain-per-day limit of 1 should be exhausted after one send")
	require.Equal(t, "per-domain daily send limit reached", res.Reason)
}

func TestEvaluate_NeverConsumesCounter(t *testing.T) {
	l := newTestLimiter(t)
	ctx := context.Background()
	limits := domain.RateLimits{PerDay: 1}

	res, err := l.Evaluate(ctx, "tenant-1", limits, "example.com")
	require.NoError(t, err)
	require.True(t, res.Allowed)
	// Evaluate alone must never increment state.
	res2, err := l.Evaluate(ctx, "tenant-1", limits, "example.com")
	require.NoError(t, err)
	require.True(t, res2.Allowed)
	require.Equal(t, int64(0), res2.Usage.Day)
}

func TestEvaluate_DailyLimitBlocksAfterHourlyWouldAllow(t *testing.T) {
	l := newTestLimiter(t)
	ctx := context.Background()
	limits := domain.RateLimits{PerDay: 1, PerHour: 100}

	require.NoError(t, l.RecordSent(ctx, "tenant-1", "example.com"))

	res, err := l.Evaluate(ctx, "tenant-1", limits, "other.com")
	require.NoError(t, err)
	require.False(t, res.Allowed)
	require.Equal(t, "tenant daily send limit reached", res.Reason)
}

func TestRateLimit_TenantIsolation(t *testing.T) {
	l := newTestLimiter(t)
	ctx := context.Background()
	limits := domain.RateLimits{PerDay: 1}

	require.NoError(t, l.RecordSent(ctx, "tenant-1", "example.com"))

	res, err := l.Evaluate(ctx, "tenant-2", limits, "example.com")
	require.NoError(t, err)
	require.True(t, res.Allowed, "tenant-2's counter must be independent of tenant-1's")
}
