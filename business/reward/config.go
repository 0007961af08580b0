package reward

import "cochain/domain"

// Config carries every tunable of the reward shaping formula. A Calculator
// takes its Config at construction and never mutates it, so concurrent
// serving requests can share one instance safely. The constants below are
// the shipped defaults; they are tuning knobs, not derived values.
type Config struct {
	// Base reward per interaction type. Feedback events ignore this table
	// and use RatingRewards instead.
	Base map[string]float64

	// RatingRewards maps a 1-5 star rating to its reward.
	RatingRewards map[int]float64

	// PositionMultipliers covers ranked positions 1..5 for click-like
	// events; anything deeper gets DeepPositionMultiplier. Deep positions
	// are boosted to reward exploration-driven discovery and counter
	// position bias.
	PositionMultipliers    map[int]float64
	DeepPositionMultiplier float64

	// Duration rules, clicks only. A dwell below QuickExitSeconds replaces
	// the click reward with the quick_exit reward outright.
	QuickExitSeconds   float64
	EngagedSeconds     float64
	EngagedMultiplier  float64
	LongReadSeconds    float64
	LongReadMultiplier float64

	// Recency decay: events older than StaleDays decay hardest, events
	// older than AgingDays decay mildly, newer events pass through.
	AgingDays       int
	AgingMultiplier float64
	StaleDays       int
	StaleMultiplier float64
}

func DefaultConfig() Config {
	return Config{
		Base: map[string]float64{
			domain.InteractionImpression:  0,
			domain.InteractionHoverShort:  0.3,
			domain.InteractionHoverLong:   0.8,
			domain.InteractionClick:       5,
			domain.InteractionBookmark:    10,
			domain.InteractionUnbookmark:  -3,
			domain.InteractionGithubVisit: 3,
			domain.InteractionQuickExit:   -2,
		},
		RatingRewards: map[int]float64{
			1: -5,
			2: -2,
			3: 0,
			4: 5,
			5: 10,
		},
		PositionMultipliers: map[int]float64{
			1: 0.8,
			2: 0.85,
			3: 0.9,
			4: 0.95,
			5: 1.0,
		},
		DeepPositionMultiplier: 1.1,

		QuickExitSeconds:   10,
		EngagedSeconds:     30,
		EngagedMultiplier:  1.2,
		LongReadSeconds:    60,
		LongReadMultiplier: 1.5,

		AgingDays:       15,
		AgingMultiplier: 0.75,
		StaleDays:       30,
		StaleMultiplier: 0.5,
	}
}
