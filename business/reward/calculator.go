package reward

import (
	"math"
	"time"

	"cochain/domain"
)

// Signal is one interaction as seen by the reward formula. Optional fields
// left nil simply skip their adjustment factor.
type Signal struct {
	InteractionType string
	RankPosition    *int
	DurationSeconds *float64
	Rating          *int
	Timestamp       *time.Time
}

// Calculator converts interactions into a scalar training signal:
// base × position × duration × recency, rounded to two decimals.
// It is pure and total: unknown types and out-of-range ratings yield 0,
// never an error. The online update path and the batch replay both go
// through Calculate, so an identical event always earns the same reward.
type Calculator struct {
	cfg Config
}

func NewCalculator(cfg Config) *Calculator {
	return &Calculator{cfg: cfg}
}

// clickLike events carry a meaningful ranked position.
var clickLike = map[string]bool{
	domain.InteractionClick:       true,
	domain.InteractionBookmark:    true,
	domain.InteractionGithubVisit: true,
}

func (c *Calculator) Calculate(sig Signal) float64 {
	base, ok := c.base(sig)
	if !ok {
		return 0
	}

	// A click abandoned almost immediately counts as a quick exit no matter
	// where it ranked; the position factor is deliberately skipped so the
	// penalty is the same at every position.
	if sig.InteractionType == domain.InteractionClick &&
		sig.DurationSeconds != nil && *sig.DurationSeconds < c.cfg.QuickExitSeconds {
		return round2(c.cfg.Base[domain.InteractionQuickExit] * c.recency(sig.Timestamp))
	}

	r := base
	r *= c.position(sig)
	r *= c.duration(sig)
	r *= c.recency(sig.Timestamp)

	return round2(r)
}

// ForEvent adapts a persisted interaction row to the reward formula.
func (c *Calculator) ForEvent(ev domain.InteractionEvent) float64 {
	ts := ev.CreatedAt

	return c.Calculate(Signal{
		InteractionType: ev.InteractionType,
		RankPosition:    ev.RankPosition,
		DurationSeconds: ev.DurationSeconds,
		Rating:          ev.Rating,
		Timestamp:       &ts,
	})
}

func (c *Calculator) base(sig Signal) (float64, bool) {
	if sig.InteractionType == domain.InteractionFeedback {
		if sig.Rating == nil {
			return 0, false
		}
		r, ok := c.cfg.RatingRewards[*sig.Rating]
		return r, ok
	}

	b, ok := c.cfg.Base[sig.InteractionType]
	return b, ok
}

func (c *Calculator) position(sig Signal) float64 {
	if sig.RankPosition == nil || !clickLike[sig.InteractionType] {
		return 1.0
	}

	pos := *sig.RankPosition
	if pos <= 0 {
		return 1.0
	}
	if m, ok := c.cfg.PositionMultipliers[pos]; ok {
		return m
	}

	return c.cfg.DeepPositionMultiplier
}

func (c *Calculator) duration(sig Signal) float64 {
	if sig.DurationSeconds == nil || sig.InteractionType != domain.InteractionClick {
		return 1.0
	}

	switch d := *sig.DurationSeconds; {
	case d > c.cfg.LongReadSeconds:
		return c.cfg.LongReadMultiplier
	case d > c.cfg.EngagedSeconds:
		return c.cfg.EngagedMultiplier
	default:
		return 1.0
	}
}

func (c *Calculator) recency(ts *time.Time) float64 {
	if ts == nil {
		return 1.0
	}

	age := time.Since(*ts)
	switch {
	case age > time.Duration(c.cfg.StaleDays)*24*time.Hour:
		return c.cfg.StaleMultiplier
	case age > time.Duration(c.cfg.AgingDays)*24*time.Hour:
		return c.cfg.AgingMultiplier
	default:
		return 1.0
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
