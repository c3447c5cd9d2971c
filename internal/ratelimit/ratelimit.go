// Package ratelimit implements fixed-window send counters per
// (tenant, UTC calendar day/hour) and (tenant, domain, UTC day), backed by
// atomic Redis Lua scripts. Each count resets when its day or hour key rolls
// over; the windows do not slide. Evaluate and RecordSent are deliberately
// separate calls so that denied or failed sends never consume a counter.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ignite/outreach-orchestrator/internal/domain"
)

// incrementScript atomically bumps the day, hour, and domain-day counters
// for one committed send. Separate from the read-only check in Evaluate so
// a gate denial never touches Redis state.
const incrementScript = `
local dayKey = KEYS[1]
local hourKey = KEYS[2]
local domainDayKey = KEYS[3]
local dayTTL = tonumber(ARGV[1])
local hourTTL = tonumber(ARGV[2])

redis.call("INCR", dayKey)
redis.call("EXPIRE", dayKey, dayTTL)
redis.call("INCR", hourKey)
redis.call("EXPIRE", hourKey, hourTTL)
redis.call("INCR", domainDayKey)
redis.call("EXPIRE", domainDayKey, dayTTL)
return 1
`

// Usage is the current window counts behind an Evaluate decision.
type Usage struct {
	Day       int64
	Hour      int64
	DomainDay int64
}

// Result is what Evaluate reports back to the send gate.
type Result struct {
	Allowed   bool
	Reason    string
	Limits    domain.RateLimits
	Usage     Usage
	Remaining Usage
}

// Limiter evaluates and records tenant send counters in Redis.
type Limiter struct {
	redis     *redis.Client
	increment *redis.Script
}

func New(client *redis.Client) *Limiter {
	return &Limiter{redis: client, increment: redis.NewScript(incrementScript)}
}

func dayKey(tenantID string, at time.Time) string {
	return fmt.Sprintf("ratelimit:%s:day:%s", tenantID, at.UTC().Format("2006-01-02"))
}

func hourKey(tenantID string, at time.Time) string {
	return fmt.Sprintf("ratelimit:%s:hour:%s", tenantID, at.UTC().Format("2006-01-02T15"))
}

func domainDayKey(tenantID, recipientDomain string, at time.Time) string {
	return fmt.Sprintf("ratelimit:%s:domain:%s:day:%s", tenantID, recipientDomain, at.UTC().Format("2006-01-02"))
}

// Evaluate checks current usage against limits without mutating state. A
// zero limit field means "unlimited".
func (l *Limiter) Evaluate(ctx context.Context, tenantID string, limits domain.RateLimits, recipientDomain string) (Result, error) {
	now := time.Now()
	usage, err := l.usage(ctx, tenantID, recipientDomain, now)
	if err != nil {
		return Result{}, fmt.Errorf("rate limit usage: %w", err)
	}

	res := Result{Allowed: true, Limits: limits, Usage: usage}
	switch {
	case limits.PerDay > 0 && usage.Day >= int64(limits.PerDay):
		res.Allowed, res.Reason = false, "tenant daily send limit reached"
	case limits.PerHour > 0 && usage.Hour >= int64(limits.PerHour):
		res.Allowed, res.Reason = false, "tenant hourly send limit reached"
	case limits.PerDomainPerDay > 0 && usage.DomainDay >= int64(limits.PerDomainPerDay):
		res.Allowed, res.Reason = false, "per-domain daily send limit reached"
	}

	res.Remaining = Usage{
		Day:       remaining(int64(limits.PerDay), usage.Day),
		Hour:      remaining(int64(limits.PerHour), usage.Hour),
		DomainDay: remaining(int64(limits.PerDomainPerDay), usage.DomainDay),
	}
	return res, nil
}

func remaining(limit, used int64) int64 {
	if limit <= 0 {
		return -1 // unlimited
	}
	if used >= limit {
		return 0
	}
	return limit - used
}

func (l *Limiter) usage(ctx context.Context, tenantID, recipientDomain string, at time.Time) (Usage, error) {
	pipe := l.redis.Pipeline()
	dayCmd := pipe.Get(ctx, dayKey(tenantID, at))
	hourCmd := pipe.Get(ctx, hourKey(tenantID, at))
	domainCmd := pipe.Get(ctx, domainDayKey(tenantID, recipientDomain, at))
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return Usage{}, err
	}

	day, _ := dayCmd.Int64()
	hour, _ := hourCmd.Int64()
	domainCount, _ := domainCmd.Int64()
	return Usage{Day: day, Hour: hour, DomainDay: domainCount}, nil
}

// RecordSent atomically increments the counters for a send that actually
// committed. Must never be called for a denied or failed send.
func (l *Limiter) RecordSent(ctx context.Context, tenantID, recipientDomain string) error {
	now := time.Now()
	_, err := l.increment.Run(ctx, l.redis,
		[]string{dayKey(tenantID, now), hourKey(tenantID, now), domainDayKey(tenantID, recipientDomain, now)},
		90000, // day TTL, generous past 24h to absorb clock skew
		7200,  // hour TTL
	).Result()
	return err
}
