package admission

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/getOrdira/ordira-voting/internal/counter"
	"github.com/getOrdira/ordira-voting/internal/policy"
	"github.com/google/uuid"
)

// Rejection codes surfaced in 429 responses.
const (
	CodeCooldown    = "cooldown"
	CodeWindowLimit = "window_limit"
)

type windowKind struct {
	name   string
	length time.Duration
}

var windows = []windowKind{
	{"minute", time.Minute},
	{"hour", time.Hour},
	{"day", 24 * time.Hour},
}

// Remaining reports the unused quota per window after a check.
type Remaining struct {
	Minute int `json:"minute"`
	Hour   int `json:"hour"`
	Day    int `json:"day"`
}

// Decision is the outcome of a single admission check.
type Decision struct {
	Allowed           bool      `json:"allowed"`
	Code              string    `json:"code,omitempty"`
	RetryAfterSeconds int       `json:"retry_after_seconds,omitempty"`
	Tier              string    `json:"tier"`
	Remaining         Remaining `json:"remaining"`
}

// PolicyResolver is the slice of policy.Resolver the controller needs.
type PolicyResolver interface {
	Resolve(ctx context.Context, principalID uuid.UUID) policy.PlanPolicy
}

// Controller gates costly actions behind tiered multi-window limits and a
// per-principal cooldown, all on shared atomic counters.
type Controller struct {
	counters counter.Store
	policies PolicyResolver
	now      func() time.Time
}

func NewController(counters counter.Store, policies PolicyResolver) *Controller {
	return &Controller{
		counters: counters,
		policies: policies,
		now:      time.Now,
	}
}

// SetClock overrides the time source. Test hook.
func (c *Controller) SetClock(now func() time.Time) {
	c.now = now
}

// Check admits or rejects one costly action for a principal. The cooldown
// marker is consulted before any counter is touched; window counters are
// incremented even when the increment pushes the count over the limit, so
// an over-limit caller still consumes a slot and keeps being rejected.
func (c *Controller) Check(ctx context.Context, principalID uuid.UUID, resource string) (Decision, error) {
	plan := c.policies.Resolve(ctx, principalID)
	decision := Decision{Tier: plan.Tier}

	if plan.CooldownSeconds > 0 {
		retryAfter, cooling, err := c.cooldownRemaining(ctx, principalID, resource, plan)
		if err != nil {
			return decision, err
		}
		if cooling {
			decision.Code = CodeCooldown
			decision.RetryAfterSeconds = retryAfter
			return decision, nil
		}
	}

	now := c.now()
	limits := []int{plan.PerMinute + plan.BurstAllowance, plan.PerHour, plan.PerDay}
	rejected := false
	retryAfter := 0

	for i, window := range windows {
		bucket := now.Unix() / int64(window.length.Seconds())
		key := fmt.Sprintf("admission:%s:%s:%s:%d", resource, principalID, window.name, bucket)

		count, err := c.counters.IncrWithExpiry(ctx, key, window.length)
		if err != nil {
			return decision, fmt.Errorf("admission counter %s: %w", window.name, err)
		}

		remaining := limits[i] - int(count)
		if remaining < 0 {
			remaining = 0
		}
		decision.setRemaining(window.name, remaining)

		if count > int64(limits[i]) && !rejected {
			rejected = true
			nextBucket := (bucket + 1) * int64(window.length.Seconds())
			retryAfter = int(nextBucket - now.Unix())
		}
	}

	if rejected {
		decision.Code = CodeWindowLimit
		decision.RetryAfterSeconds = retryAfter
		return decision, nil
	}

	if plan.CooldownSeconds > 0 {
		key := cooldownKey(resource, principalID)
		value := strconv.FormatInt(now.Unix(), 10)
		if err := c.counters.SetWithExpiry(ctx, key, value, plan.Cooldown()); err != nil {
			return decision, fmt.Errorf("set cooldown marker: %w", err)
		}
	}

	decision.Allowed = true
	return decision, nil
}

// cooldownRemaining reports whether the principal is still cooling down
// and, if so, the seconds left.
func (c *Controller) cooldownRemaining(ctx context.Context, principalID uuid.UUID, resource string, plan policy.PlanPolicy) (int, bool, error) {
	value, present, err := c.counters.GetIfPresent(ctx, cooldownKey(resource, principalID))
	if err != nil {
		return 0, false, fmt.Errorf("get cooldown marker: %w", err)
	}
	if !present {
		return 0, false, nil
	}

	lastAt, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		// Unreadable marker counts as a full cooldown.
		return plan.CooldownSeconds, true, nil
	}

	elapsed := c.now().Unix() - lastAt
	remaining := int(int64(plan.CooldownSeconds) - elapsed)
	if remaining < 1 {
		remaining = 1
	}
	return remaining, true, nil
}

func (d *Decision) setRemaining(window string, remaining int) {
	switch window {
	case "minute":
		d.Remaining.Minute = remaining
	case "hour":
		d.Remaining.Hour = remaining
	case "day":
		d.Remaining.Day = remaining
	}
}

func cooldownKey(resource string, principalID uuid.UUID) string {
	return fmt.Sprintf("cooldown:%s:%s", resource, principalID)
}
