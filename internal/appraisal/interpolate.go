package appraisal

import (
	"github.com/stwalsh4118/floodfas/internal/curves"
)

// Interpolate reads a depth-damage curve at depth. Depths strictly below cutoff
// give 0 and depths at or beyond the last reference depth give the last value.
// In between, the bracket is the first reference depth strictly greater than depth.
func Interpolate(values, depths []float64, cutoff, depth float64) float64 {
	if len(values) == 0 || depth < cutoff {
		return 0
	}

	last := len(depths) - 1
	if depth >= depths[last] {
		return values[last]
	}

	i := 0
	for depth >= depths[i] {
		i++
	}
	if i == 0 {
		return values[0]
	}

	fraction := (depth - depths[i-1]) / (depths[i] - depths[i-1])
	return values[i-1] + fraction*(values[i]-values[i-1])
}

// InterpolateAll reads the curve at every depth.
func InterpolateAll(values, refDepths []float64, cutoff float64, depths []float64) []float64 {
	out := make([]float64, len(depths))
	for i, d := range depths {
		out[i] = Interpolate(values, refDepths, cutoff, d)
	}
	return out
}

func trapezia(returnPeriods []int, values []float64) []float64 {
	if len(returnPeriods) < 2 {
		return []float64{}
	}

	out := make([]float64, len(returnPeriods)-1)
	for i := range out {
		aep := 1 / float64(returnPeriods[i])
		next := 1 / float64(returnPeriods[i+1])
		out[i] = (values[i] + values[i+1]) * (aep - next) / 2
	}
	return out
}

// AverageAnnual integrates per-event values over annual exceedance probability
// (1 / return period) with the trapezium rule.
func AverageAnnual(returnPeriods []int, values []float64) float64 {
	var total float64
	for _, area := range trapezia(returnPeriods, values) {
		total += area
	}
	return total
}

// CumulativeBenefits returns the running sum of the trapezium areas. Entry k is the
// benefit of protecting up to returnPeriods[k+1].
func CumulativeBenefits(returnPeriods []int, values []float64) []float64 {
	out := trapezia(returnPeriods, values)
	for i := 1; i < len(out); i++ {
		out[i] += out[i-1]
	}
	return out
}

// RealizedBenefit picks the cumulative benefit whose return period equals sop exactly.
// Any other SOP realizes no benefit.
func RealizedBenefit(returnPeriods []int, cumulative []float64, sop int) float64 {
	for i := 1; i < len(returnPeriods) && i-1 < len(cumulative); i++ {
		if returnPeriods[i] == sop {
			return cumulative[i-1]
		}
	}
	return 0
}

// IntangibleDamage interpolates the annual intangible damage for an existing
// standard of protection expressed as % AEP down the design column of the table.
func IntangibleDamage(table curves.IntangibleTable, aep *float64) float64 {
	if aep == nil || *aep <= 0 {
		return 0
	}
	if *aep >= 100 {
		return table.Saturation()
	}

	axis := curves.IntangibleAEPsBefore
	column := table.Column(curves.IntangibleDesignColumn)

	i := 0
	for i < len(axis)-1 && *aep >= axis[i] {
		i++
	}

	lo, hi := cellValue(column[i-1]), cellValue(column[i])
	fraction := (*aep - axis[i-1]) / (axis[i] - axis[i-1])
	return lo + fraction*(hi-lo)
}

// Bilinear interpolates the intangible table at an existing standard (aepBefore) and
// a design standard (aepAfter), both % AEP. A gap in any bracketing cell yields 0.
func Bilinear(table curves.IntangibleTable, aepBefore, aepAfter float64) float64 {
	xs := curves.IntangibleAEPsAfter
	ys := curves.IntangibleAEPsBefore

	i := bracket(xs, aepAfter)
	j := bracket(ys, aepBefore)

	topLeft := table.Cell(j-1, i-1)
	topRight := table.Cell(j-1, i)
	bottomLeft := table.Cell(j, i-1)
	bottomRight := table.Cell(j, i)
	if topLeft == nil || topRight == nil || bottomLeft == nil || bottomRight == nil {
		return 0
	}

	x1, x2 := xs[i-1], xs[i]
	y1, y2 := ys[j-1], ys[j]
	area := (x2 - x1) * (y2 - y1)

	return ((x2-aepAfter)*(y2-aepBefore)*(*topLeft) +
		(aepAfter-x1)*(y2-aepBefore)*(*topRight) +
		(x2-aepAfter)*(aepBefore-y1)*(*bottomLeft) +
		(aepAfter-x1)*(aepBefore-y1)*(*bottomRight)) / area
}

// IntangibleBenefit is the annual intangible benefit of raising a property's
// standard from currentAEP to the design SOP (a return period).
func IntangibleBenefit(table curves.IntangibleTable, currentAEP *float64, sop int) float64 {
	if currentAEP == nil || sop <= 0 {
		return 0
	}
	return Bilinear(table, *currentAEP, 100/float64(sop))
}

// bracket returns the index of the first axis value not below v, kept within [1, len-1].
func bracket(axis []float64, v float64) int {
	i := 0
	for i < len(axis)-1 && axis[i] < v {
		i++
	}
	if i == 0 {
		i = 1
	}
	return i
}

func cellValue(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
