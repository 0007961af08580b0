package reward

import (
	"testing"
	"time"

	"cochain/domain"
)

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

func timePtr(v time.Time) *time.Time { return &v }

func TestCalculate_BaseRewards(t *testing.T) {
	calc := NewCalculator(DefaultConfig())

	tests := []struct {
		name     string
		sig      Signal
		expected float64
	}{
		{"impression", Signal{InteractionType: domain.InteractionImpression}, 0},
		{"hover_short", Signal{InteractionType: domain.InteractionHoverShort}, 0.3},
		{"hover_long", Signal{InteractionType: domain.InteractionHoverLong}, 0.8},
		{"click", Signal{InteractionType: domain.InteractionClick}, 5},
		{"bookmark", Signal{InteractionType: domain.InteractionBookmark}, 10},
		{"unbookmark", Signal{InteractionType: domain.InteractionUnbookmark}, -3},
		{"github_visit", Signal{InteractionType: domain.InteractionGithubVisit}, 3},
		{"quick_exit", Signal{InteractionType: domain.InteractionQuickExit}, -2},
		{"unknown type", Signal{InteractionType: "share"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := calc.Calculate(tt.sig); got != tt.expected {
				t.Errorf("Calculate(%s) = %v, want %v", tt.sig.InteractionType, got, tt.expected)
			}
		})
	}
}

func TestCalculate_FeedbackRatings(t *testing.T) {
	calc := NewCalculator(DefaultConfig())

	tests := []struct {
		rating   int
		expected float64
	}{
		{1, -5},
		{2, -2},
		{3, 0},
		{4, 5},
		{5, 10},
	}

	for _, tt := range tests {
		got := calc.Calculate(Signal{
			InteractionType: domain.InteractionFeedback,
			Rating:          intPtr(tt.rating),
		})
		if got != tt.expected {
			t.Errorf("rating %d = %v, want %v", tt.rating, got, tt.expected)
		}
	}

	// Feedback ignores position and duration entirely.
	got := calc.Calculate(Signal{
		InteractionType: domain.InteractionFeedback,
		Rating:          intPtr(1),
		RankPosition:    intPtr(1),
		DurationSeconds: floatPtr(120),
	})
	if got != -5 {
		t.Errorf("rating 1 with adjustments = %v, want -5", got)
	}

	// Missing or out-of-range rating yields zero.
	if got := calc.Calculate(Signal{InteractionType: domain.InteractionFeedback}); got != 0 {
		t.Errorf("feedback without rating = %v, want 0", got)
	}
	if got := calc.Calculate(Signal{InteractionType: domain.InteractionFeedback, Rating: intPtr(7)}); got != 0 {
		t.Errorf("feedback rating 7 = %v, want 0", got)
	}
}

func TestCalculate_PositionMultipliers(t *testing.T) {
	calc := NewCalculator(DefaultConfig())

	tests := []struct {
		pos      int
		expected float64
	}{
		{1, 4},    // 5 * 0.8
		{2, 4.25}, // 5 * 0.85
		{3, 4.5},  // 5 * 0.9
		{4, 4.75}, // 5 * 0.95
		{5, 5},    // 5 * 1.0
		{6, 5.5},  // 5 * 1.1
		{20, 5.5}, // deep positions share one multiplier
	}

	for _, tt := range tests {
		got := calc.Calculate(Signal{
			InteractionType: domain.InteractionClick,
			RankPosition:    intPtr(tt.pos),
		})
		if got != tt.expected {
			t.Errorf("click at position %d = %v, want %v", tt.pos, got, tt.expected)
		}
	}

	// A click at position 1 earns less than position 5: top slots would have
	// been clicked anyway.
	p1 := calc.Calculate(Signal{InteractionType: domain.InteractionClick, RankPosition: intPtr(1)})
	p5 := calc.Calculate(Signal{InteractionType: domain.InteractionClick, RankPosition: intPtr(5)})
	if p1 >= p5 {
		t.Errorf("position 1 reward %v should be below position 5 reward %v", p1, p5)
	}
}

func TestCalculate_PositionIgnoredForNonClickLike(t *testing.T) {
	calc := NewCalculator(DefaultConfig())

	got := calc.Calculate(Signal{
		InteractionType: domain.InteractionHoverLong,
		RankPosition:    intPtr(1),
	})
	if got != 0.8 {
		t.Errorf("hover_long at position 1 = %v, want 0.8", got)
	}
}

func TestCalculate_DurationMultipliers(t *testing.T) {
	calc := NewCalculator(DefaultConfig())

	tests := []struct {
		name     string
		duration float64
		expected float64
	}{
		{"engaged read", 45, 6},   // 5 * 1.2
		{"long read", 90, 7.5},    // 5 * 1.5
		{"ordinary dwell", 20, 5}, // no adjustment
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calc.Calculate(Signal{
				InteractionType: domain.InteractionClick,
				DurationSeconds: floatPtr(tt.duration),
			})
			if got != tt.expected {
				t.Errorf("click with %vs dwell = %v, want %v", tt.duration, got, tt.expected)
			}
		})
	}
}

func TestCalculate_QuickExitOverride(t *testing.T) {
	calc := NewCalculator(DefaultConfig())

	// A sub-10s click becomes the quick_exit penalty at every position.
	for _, pos := range []int{1, 3, 5, 12} {
		got := calc.Calculate(Signal{
			InteractionType: domain.InteractionClick,
			RankPosition:    intPtr(pos),
			DurationSeconds: floatPtr(5),
		})
		if got != -2 {
			t.Errorf("quick exit at position %d = %v, want -2", pos, got)
		}
	}

	// Exactly at the threshold is not a quick exit.
	got := calc.Calculate(Signal{
		InteractionType: domain.InteractionClick,
		DurationSeconds: floatPtr(10),
	})
	if got != 5 {
		t.Errorf("click at 10s dwell = %v, want 5", got)
	}
}

func TestCalculate_RecencyDecay(t *testing.T) {
	calc := NewCalculator(DefaultConfig())

	tests := []struct {
		name     string
		age      time.Duration
		expected float64
	}{
		{"fresh", time.Hour, 10},
		{"aging", 20 * 24 * time.Hour, 7.5}, // 10 * 0.75
		{"stale", 40 * 24 * time.Hour, 5},   // 10 * 0.5
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := time.Now().Add(-tt.age)
			got := calc.Calculate(Signal{
				InteractionType: domain.InteractionBookmark,
				Timestamp:       timePtr(ts),
			})
			if got != tt.expected {
				t.Errorf("bookmark aged %v = %v, want %v", tt.age, got, tt.expected)
			}
		})
	}
}

func TestCalculate_Rounding(t *testing.T) {
	calc := NewCalculator(DefaultConfig())

	// 5 * 0.85 * 0.75 = 3.1875 rounds to 3.19 at two decimals.
	ts := time.Now().Add(-20 * 24 * time.Hour)
	got := calc.Calculate(Signal{
		InteractionType: domain.InteractionClick,
		RankPosition:    intPtr(2),
		Timestamp:       timePtr(ts),
	})
	if got != 3.19 {
		t.Errorf("aged click at position 2 = %v, want 3.19", got)
	}
}

func TestForEvent_MatchesCalculate(t *testing.T) {
	calc := NewCalculator(DefaultConfig())

	now := time.Now()
	ev := domain.InteractionEvent{
		UserID:          1,
		ProjectID:       42,
		InteractionType: domain.InteractionClick,
		RankPosition:    intPtr(2),
		DurationSeconds: floatPtr(45),
		CreatedAt:       now,
	}

	fromEvent := calc.ForEvent(ev)
	direct := calc.Calculate(Signal{
		InteractionType: domain.InteractionClick,
		RankPosition:    intPtr(2),
		DurationSeconds: floatPtr(45),
		Timestamp:       timePtr(now),
	})

	if fromEvent != direct {
		t.Errorf("ForEvent = %v, Calculate = %v; both paths must agree", fromEvent, direct)
	}
}
