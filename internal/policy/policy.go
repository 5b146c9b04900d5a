package policy

import "time"

// PlanPolicy is the immutable per-tier limit set applied by admission
// control.
type PlanPolicy struct {
	Tier            string `json:"tier"`
	PerMinute       int    `json:"per_minute"`
	PerHour         int    `json:"per_hour"`
	PerDay          int    `json:"per_day"`
	BurstAllowance  int    `json:"burst_allowance"`
	CooldownSeconds int    `json:"cooldown_seconds"`
}

func (p PlanPolicy) Cooldown() time.Duration {
	return time.Duration(p.CooldownSeconds) * time.Second
}

// FallbackPolicy is applied whenever a principal's tier cannot be
// resolved. Fail-restrictive, never fail-open.
var FallbackPolicy = PlanPolicy{
	Tier:            "foundation",
	PerMinute:       5,
	PerHour:         50,
	PerDay:          200,
	BurstAllowance:  0,
	CooldownSeconds: 60,
}
