package abtest

import (
	"math"
	"strings"
	"testing"
)

func TestTwoProportionZTest_SignificantLift(t *testing.T) {
	// 4% vs 6% CTR on 1000 impressions each.
	result := twoProportionZTest(40, 1000, 60, 1000, 100, 0.95)

	if !result.Significant {
		t.Fatalf("expected significance, got reason %q", result.Reason)
	}
	if result.ZScore <= 0 {
		t.Errorf("z = %v, want positive for a treatment lift", result.ZScore)
	}
	if result.PValue >= 0.05 {
		t.Errorf("p = %v, want < 0.05", result.PValue)
	}
	// Relative effect: (0.06 - 0.04) / 0.04.
	if math.Abs(result.EffectSize-0.5) > 1e-9 {
		t.Errorf("effect size = %v, want 0.5", result.EffectSize)
	}
	if result.DiffLow >= result.DiffHigh {
		t.Errorf("degenerate interval [%v, %v]", result.DiffLow, result.DiffHigh)
	}
}

func TestTwoProportionZTest_SymmetricUnderSwap(t *testing.T) {
	forward := twoProportionZTest(40, 1000, 60, 1000, 100, 0.95)
	swapped := twoProportionZTest(60, 1000, 40, 1000, 100, 0.95)

	if math.Abs(forward.ZScore+swapped.ZScore) > 1e-9 {
		t.Errorf("z scores not negated under swap: %v vs %v", forward.ZScore, swapped.ZScore)
	}
	if math.Abs(forward.PValue-swapped.PValue) > 1e-9 {
		t.Errorf("p values differ under swap: %v vs %v", forward.PValue, swapped.PValue)
	}
}

func TestTwoProportionZTest_InsufficientSample(t *testing.T) {
	result := twoProportionZTest(5, 50, 8, 120, 100, 0.95)

	if result.Significant {
		t.Error("undersampled test must not be significant")
	}
	if !strings.Contains(result.Reason, "insufficient sample") {
		t.Errorf("reason = %q, want an insufficiency explanation", result.Reason)
	}
}

func TestTwoProportionZTest_DegenerateVariance(t *testing.T) {
	// No clicks anywhere: pooled rate is 0 and the test cannot run.
	result := twoProportionZTest(0, 1000, 0, 1000, 100, 0.95)

	if result.Significant {
		t.Error("zero-variance data must not be significant")
	}
	if result.Reason == "" {
		t.Error("degenerate result must carry a reason")
	}
}

func TestTwoProportionZTest_NoRealDifference(t *testing.T) {
	result := twoProportionZTest(50, 1000, 52, 1000, 100, 0.95)

	if result.Significant {
		t.Errorf("near-identical CTRs flagged significant (p=%v)", result.PValue)
	}
	if result.Reason == "" {
		t.Error("non-significant result must carry a reason")
	}
}

func TestSafeSignificance_MatchesDirectCall(t *testing.T) {
	direct := twoProportionZTest(40, 1000, 60, 1000, 100, 0.95)
	safe := safeSignificance(40, 1000, 60, 1000, 100, 0.95)

	if direct != safe {
		t.Errorf("safeSignificance = %+v, want %+v", safe, direct)
	}
}
