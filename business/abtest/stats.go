package abtest

import (
	"fmt"
	"math"

	"cochain/domain"

	"gonum.org/v1/gonum/stat/distuv"
)

// twoProportionZTest runs a two-tailed z-test on group CTRs. Insufficient
// samples and degenerate variance come back as explicit non-significant
// results with a reason, never as an error or a spurious verdict.
func twoProportionZTest(
	controlClicks, controlImpressions, treatmentClicks, treatmentImpressions int,
	minSampleSize int,
	confidenceLevel float64,
) domain.SignificanceResult {
	if controlImpressions < minSampleSize || treatmentImpressions < minSampleSize {
		return domain.SignificanceResult{
			Significant: false,
			Reason: fmt.Sprintf(
				"insufficient sample: need %d impressions per group, got control=%d treatment=%d",
				minSampleSize, controlImpressions, treatmentImpressions,
			),
		}
	}

	n1 := float64(controlImpressions)
	n2 := float64(treatmentImpressions)
	p1 := float64(controlClicks) / n1
	p2 := float64(treatmentClicks) / n2

	pool := (float64(controlClicks) + float64(treatmentClicks)) / (n1 + n2)
	se := math.Sqrt(pool * (1 - pool) * (1/n1 + 1/n2))
	if se == 0 {
		return domain.SignificanceResult{
			Significant: false,
			Reason:      "no variance: pooled click rate is degenerate",
		}
	}

	z := (p2 - p1) / se
	pValue := 2 * (1 - distuv.UnitNormal.CDF(math.Abs(z)))
	alphaLevel := 1 - confidenceLevel

	// A zero control CTR makes the relative effect undefined; treat it as maximal.
	effect := 1.0
	if p1 > 0 {
		effect = math.Abs(p2-p1) / p1
	}

	zCrit := distuv.UnitNormal.Quantile(1 - alphaLevel/2)
	diff := p2 - p1

	result := domain.SignificanceResult{
		Significant: pValue < alphaLevel,
		ZScore:      z,
		PValue:      pValue,
		EffectSize:  effect,
		DiffLow:     diff - zCrit*se,
		DiffHigh:    diff + zCrit*se,
	}
	if !result.Significant {
		result.Reason = fmt.Sprintf("difference not significant (p=%.4f)", pValue)
	}

	return result
}

// safeSignificance shields serving from any fault inside the test math;
// significance is advisory only.
func safeSignificance(
	controlClicks, controlImpressions, treatmentClicks, treatmentImpressions int,
	minSampleSize int,
	confidenceLevel float64,
) (result domain.SignificanceResult) {
	defer func() {
		if r := recover(); r != nil {
			result = domain.SignificanceResult{
				Significant: false,
				Reason:      fmt.Sprintf("significance computation failed: %v", r),
			}
		}
	}()

	return twoProportionZTest(
		controlClicks, controlImpressions,
		treatmentClicks, treatmentImpressions,
		minSampleSize, confidenceLevel,
	)
}
