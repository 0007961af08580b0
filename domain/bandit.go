package domain

import "time"

// Ranking strategies tagged on each scored candidate.
const (
	StrategyExplore = "explore"
	StrategyExploit = "exploit"
)

// BanditState holds the Beta(alpha, beta) belief for one project.
// Rows are created lazily on the first reward; until then callers see the
// configured prior. Alpha and beta only ever grow (additive updates), so
// both stay strictly positive.
type BanditState struct {
	ProjectID uint64    `gorm:"column:project_id;primaryKey" json:"project_id"`
	Alpha     float64   `gorm:"column:alpha;not null" json:"alpha"`
	Beta      float64   `gorm:"column:beta;not null" json:"beta"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (BanditState) TableName() string {
	return "bandit_states"
}

// EstimatedQuality is the posterior mean alpha/(alpha+beta), always in (0, 1).
func (s BanditState) EstimatedQuality() float64 {
	return s.Alpha / (s.Alpha + s.Beta)
}

// Candidate is one similarity-ranked project coming from the content ranker.
type Candidate struct {
	ProjectID  uint64  `json:"project_id"`
	Similarity float64 `json:"similarity"`
}

// ScoredProject is a candidate after bandit re-ranking.
type ScoredProject struct {
	ProjectID       uint64  `json:"project_id"`
	SimilarityScore float64 `json:"similarity_score"`
	BanditScore     float64 `json:"bandit_score"`
	Strategy        string  `json:"strategy"`
}

// BanditStatistics summarizes one project's learned state.
type BanditStatistics struct {
	ProjectID        uint64  `json:"project_id"`
	Alpha            float64 `json:"alpha"`
	Beta             float64 `json:"beta"`
	TotalSamples     float64 `json:"total_samples"`
	EstimatedQuality float64 `json:"estimated_quality"`
	ConfidenceLow    float64 `json:"confidence_low"`
	ConfidenceHigh   float64 `json:"confidence_high"`
}

// TopProject is a catalog-enriched entry in the quality leaderboard.
type TopProject struct {
	ProjectID        uint64  `json:"project_id"`
	Title            string  `json:"title"`
	Domain           string  `json:"domain"`
	EstimatedQuality float64 `json:"estimated_quality"`
	TotalSamples     float64 `json:"total_samples"`
}
