package domain

import "time"

// TrainingRun is one append-only audit record of a batch training trigger.
// Re-running the same window applies a second smoothed update, so operators
// use this log to avoid overlap.
type TrainingRun struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	WindowDays      int       `gorm:"column:window_days;not null" json:"window_days"`
	EventsProcessed int       `gorm:"column:events_processed" json:"events_processed"`
	ProjectsUpdated int       `gorm:"column:projects_updated" json:"projects_updated"`
	AvgReward       float64   `gorm:"column:avg_reward" json:"avg_reward"`
	PositiveRate    float64   `gorm:"column:positive_rate" json:"positive_rate"`
	Notes           string    `gorm:"column:notes" json:"notes"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (TrainingRun) TableName() string {
	return "training_runs"
}
