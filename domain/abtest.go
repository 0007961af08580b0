package domain

import (
	"time"

	"gorm.io/datatypes"
)

// A/B test lifecycle and group labels.
const (
	TestStatusActive = "active"
	TestStatusEnded  = "ended"

	GroupControl   = "control"
	GroupTreatment = "treatment"
)

// ABTest is one controlled experiment comparing baseline similarity ranking
// (control) against the learned bandit ranking (treatment). At most one row
// is active at any time.
type ABTest struct {
	ID                string     `gorm:"column:id;primaryKey" json:"id"`
	Name              string     `gorm:"column:name;not null" json:"name"`
	Description       string     `gorm:"column:description" json:"description"`
	ControlPercentage int        `gorm:"column:control_percentage;not null" json:"control_percentage"`
	Status            string     `gorm:"column:status;not null;index" json:"status"`
	StartedAt         time.Time  `gorm:"column:started_at" json:"started_at"`
	EndsAt            time.Time  `gorm:"column:ends_at" json:"ends_at"`
	EndedAt           *time.Time `gorm:"column:ended_at" json:"ended_at,omitempty"`
	Winner            *string    `gorm:"column:winner" json:"winner,omitempty"`
}

func (ABTest) TableName() string {
	return "ab_tests"
}

// ABAssignment pins a user to a group for one test. The group is a pure
// function of (user_id, test_id, control_percentage), so the row is only a
// convenience for reporting; it can always be recomputed.
type ABAssignment struct {
	UserID     uint      `gorm:"column:user_id;primaryKey" json:"user_id"`
	TestID     string    `gorm:"column:test_id;primaryKey" json:"test_id"`
	Group      string    `gorm:"column:group_name;not null" json:"group"`
	AssignedAt time.Time `gorm:"column:assigned_at;autoCreateTime" json:"assigned_at"`
}

func (ABAssignment) TableName() string {
	return "ab_assignments"
}

// GroupMetrics are the per-group aggregates used for significance testing.
type GroupMetrics struct {
	UserCount      int     `json:"user_count"`
	Impressions    int     `json:"impressions"`
	Clicks         int     `json:"clicks"`
	Bookmarks      int     `json:"bookmarks"`
	CTR            float64 `json:"ctr"`
	EngagementRate float64 `json:"engagement_rate"`
	AvgReward      float64 `json:"avg_reward"`
}

// SignificanceResult is the outcome of the two-proportion z-test on CTR.
// A non-significant result always carries a reason; insufficiency is an
// explicit answer, never an error.
type SignificanceResult struct {
	Significant bool    `json:"significant"`
	Reason      string  `json:"reason,omitempty"`
	ZScore      float64 `json:"z_score"`
	PValue      float64 `json:"p_value"`
	EffectSize  float64 `json:"effect_size"`
	DiffLow     float64 `json:"diff_ci_low"`
	DiffHigh    float64 `json:"diff_ci_high"`
}

// TestMetrics is the full metric report for one test over a window.
type TestMetrics struct {
	TestID       string             `json:"test_id"`
	WindowDays   int                `json:"window_days"`
	Control      GroupMetrics       `json:"control"`
	Treatment    GroupMetrics       `json:"treatment"`
	Significance SignificanceResult `json:"significance"`
	Winner       string             `json:"winner,omitempty"`
}

// ABTestResult is the permanent record written when a test ends.
type ABTestResult struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	TestID         string         `gorm:"column:test_id;not null;index" json:"test_id"`
	Winner         string         `gorm:"column:winner" json:"winner"`
	MetricsJSON    datatypes.JSON `gorm:"column:metrics_json" json:"-"`
	Recommendation string         `gorm:"column:recommendation" json:"recommendation"`
	CreatedAt      time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (ABTestResult) TableName() string {
	return "ab_test_results"
}

// RolloutDecision is returned when a test is ended.
type RolloutDecision struct {
	Test           ABTest       `json:"test"`
	Metrics        *TestMetrics `json:"metrics"`
	Recommendation string       `json:"recommendation"`
}
