package models

type PlanTier struct {
	Name            string `gorm:"primaryKey" json:"name"`
	PerMinute       int    `gorm:"not null" json:"per_minute"`
	PerHour         int    `gorm:"not null" json:"per_hour"`
	PerDay          int    `gorm:"not null" json:"per_day"`
	BurstAllowance  int    `gorm:"default:0" json:"burst_allowance"`
	CooldownSeconds int    `gorm:"default:0" json:"cooldown_seconds"`
}

func (PlanTier) TableName() string {
	return "plan_tiers"
}
