package appraisal

import (
	"math"

	"github.com/stwalsh4118/floodfas/internal/models"
)

// CappingDepth finds the depth at which a property's cumulative damage reaches the
// annualized cap (limit / df). Entry i of the cumulative trapezium sequence is paired
// with depths[i]; the depth is linearly interpolated between the first entry that
// reaches the target and the one before it. A target at or below the first entry
// gives depths[0]. ok is false when the lifetime damage stays below the cap.
func CappingDepth(returnPeriods []int, depths, damages []float64, limit, df float64) (depth float64, ok bool) {
	if len(depths) == 0 || df <= 0 {
		return 0, false
	}

	lifetime := AverageAnnual(returnPeriods, damages) * df
	if lifetime < limit {
		return 0, false
	}

	target := limit / df
	cumulative := CumulativeBenefits(returnPeriods, damages)
	if len(cumulative) == 0 || target <= cumulative[0] {
		return depths[0], true
	}

	for i := 1; i < len(cumulative); i++ {
		if cumulative[i] >= target {
			fraction := (target - cumulative[i-1]) / (cumulative[i] - cumulative[i-1])
			return depths[i-1] + fraction*(depths[i]-depths[i-1]), true
		}
	}

	return depths[len(cumulative)-1], true
}

// applyCap limits a property's lifetime damage to limit, derives the capped annual damage
// and, when a capping depth exists, clamps the per-event depths and damages.
func applyCap(returnPeriods []int, d *models.PropertyDamage, limit, df float64) {
	lifetime := math.Min(limit, d.LifetimeDamage)
	annual := lifetime / df

	capped := &models.CappedDamage{
		LifetimeDamage: lifetime,
		AnnualDamage:   annual,
		Depths:         append([]float64(nil), d.Depths...),
		Damages:        append([]float64(nil), d.Damages...),
	}

	if depth, ok := CappingDepth(returnPeriods, d.Depths, d.Damages, limit, df); ok {
		capped.CappingDepth = &depth
		for i := range capped.Depths {
			capped.Depths[i] = math.Min(capped.Depths[i], depth)
			capped.Damages[i] = math.Min(capped.Damages[i], annual)
		}
	}

	d.Capped = capped
}

func capAll(returnPeriods []int, props []models.PropertyDamage, limit, df float64) {
	for i := range props {
		applyCap(returnPeriods, &props[i], limit, df)
	}
}
