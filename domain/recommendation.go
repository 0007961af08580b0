package domain

import (
	"time"

	"gorm.io/datatypes"
)

// Methods stamped on a served recommendation list.
const (
	MethodRLEnhanced     = "rl_enhanced"
	MethodSimilarityOnly = "similarity_only"
	MethodNoResults      = "no_results"
)

// Recommendation is one entry of a served list. RLScore and Strategy are
// only present when the list went through bandit re-ranking.
type Recommendation struct {
	ProjectID       uint64   `json:"project_id"`
	Title           string   `json:"title,omitempty"`
	Domain          string   `json:"domain,omitempty"`
	Complexity      string   `json:"complexity,omitempty"`
	SimilarityScore float64  `json:"similarity_score"`
	RLScore         *float64 `json:"rl_score,omitempty"`
	Strategy        string   `json:"strategy,omitempty"`
}

// RecommendationResult is the engine's answer for one page of recommendations.
type RecommendationResult struct {
	UserID          uint             `json:"user_id"`
	Recommendations []Recommendation `json:"recommendations"`
	TotalCount      int              `json:"total_count"`
	Method          string           `json:"method"`
	Cached          bool             `json:"cached"`
	DurationMS      int64            `json:"duration_ms"`
	GeneratedAt     time.Time        `json:"generated_at"`
}

// RecommendationCache is the per-user cached list pair. The similarity list
// is valid while ProfileHash matches the user's current profile signature;
// the bandit-ranked list additionally dies on explicit invalidation. Rows
// untouched for more than 24h are reaped by the training sweep.
type RecommendationCache struct {
	UserID         uint           `gorm:"column:user_id;primaryKey" json:"user_id"`
	ProfileHash    string         `gorm:"column:profile_hash;not null" json:"profile_hash"`
	SimilarityJSON datatypes.JSON `gorm:"column:similarity_json" json:"-"`
	BanditJSON     datatypes.JSON `gorm:"column:bandit_json" json:"-"`
	UpdatedAt      time.Time      `gorm:"column:updated_at;autoUpdateTime;index" json:"updated_at"`
}

func (RecommendationCache) TableName() string {
	return "recommendation_caches"
}

// ModelPerformance is recomputed straight from the interaction log, not from
// cached training records.
type ModelPerformance struct {
	WindowDays   int          `json:"window_days"`
	ExampleCount int          `json:"example_count"`
	AvgReward    float64      `json:"avg_reward"`
	PositiveRate float64      `json:"positive_rate"`
	TopProjects  []TopProject `json:"top_projects"`
	ComputedAt   time.Time    `json:"computed_at"`
}
