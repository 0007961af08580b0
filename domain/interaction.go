package domain

import (
	"time"

	"gorm.io/datatypes"
)

// Interaction types produced by the serving layer.
const (
	InteractionImpression  = "impression"
	InteractionHoverShort  = "hover_short"
	InteractionHoverLong   = "hover_long"
	InteractionClick       = "click"
	InteractionBookmark    = "bookmark"
	InteractionUnbookmark  = "unbookmark"
	InteractionFeedback    = "feedback"
	InteractionGithubVisit = "github_visit"
	InteractionQuickExit   = "quick_exit"
)

// InteractionEvent is an append-only record of one user action on a project.
// Rows are immutable once written; both the online update path and the batch
// replay read from this log.
type InteractionEvent struct {
	ID              uint              `gorm:"primaryKey" json:"id"`
	UserID          uint              `gorm:"column:user_id;not null;index" json:"user_id"`
	ProjectID       uint64            `gorm:"column:project_id;not null;index" json:"project_id"`
	InteractionType string            `gorm:"column:interaction_type;not null" json:"interaction_type"`
	RankPosition    *int              `gorm:"column:rank_position" json:"rank_position,omitempty"`
	DurationSeconds *float64          `gorm:"column:duration_seconds" json:"duration_seconds,omitempty"`
	Rating          *int              `gorm:"column:rating" json:"rating,omitempty"`
	SessionID       string            `gorm:"column:session_id" json:"session_id"`
	Context         datatypes.JSONMap `gorm:"column:context;type:jsonb" json:"context,omitempty"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime;index" json:"created_at"`
}
