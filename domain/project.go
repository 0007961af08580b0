package domain

import "time"

type Project struct {
	ID          uint64    `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"column:title;not null" json:"title"`
	Description string    `gorm:"column:description" json:"description"`
	Domain      string    `gorm:"column:domain;index" json:"domain"`
	Complexity  string    `gorm:"column:complexity" json:"complexity"`
	GithubURL   string    `gorm:"column:github_url" json:"github_url"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// ProjectSimilarity is a precomputed content-similarity score for one
// (user, project) pair. The embedding pipeline that fills this table lives
// outside this service; rows carry the profile hash they were computed for.
type ProjectSimilarity struct {
	UserID      uint      `gorm:"column:user_id;primaryKey" json:"user_id"`
	ProjectID   uint64    `gorm:"column:project_id;primaryKey" json:"project_id"`
	Score       float64   `gorm:"column:score;not null" json:"score"`
	ProfileHash string    `gorm:"column:profile_hash" json:"profile_hash"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// UserFeature is one weighted profile feature (skill, interest, language).
// The set of rows for a user defines their profile signature.
type UserFeature struct {
	UserID  uint    `gorm:"column:user_id;primaryKey" json:"user_id"`
	Feature string  `gorm:"column:feature;primaryKey" json:"feature"`
	Weight  float64 `gorm:"column:weight;not null" json:"weight"`
}
