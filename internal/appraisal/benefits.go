package appraisal

import (
	"fmt"
	"math"
	"slices"

	"github.com/google/uuid"

	"github.com/stwalsh4118/floodfas/internal/curves"
	"github.com/stwalsh4118/floodfas/internal/models"
)

// ComputeBenefits derives the benefit of the configured standard of protection from a
// damage result, and the residual damage left after the intervention.
func (e *Engine) ComputeBenefits(in models.Inputs, d *models.DamageResult) (*models.BenefitResult, error) {
	if d == nil || d.Totals == nil {
		return nil, ErrMissingDamages
	}
	if err := in.Config.Validate(); err != nil {
		return nil, err
	}
	if !slices.Equal(in.Config.ReturnPeriods, d.ReturnPeriods) {
		return nil, fmt.Errorf("%w: damages were computed for return periods %v, got %v",
			models.ErrInvalidConfig, d.ReturnPeriods, in.Config.ReturnPeriods)
	}
	if in.Config.Caps.Enabled != d.CapsEnabled {
		return nil, fmt.Errorf("%w: damages were computed with caps enabled=%t, got %t",
			models.ErrInvalidConfig, d.CapsEnabled, in.Config.Caps.Enabled)
	}

	cfg := in.Config
	rps := d.ReturnPeriods
	df, healthDF := d.DiscountFactor, d.HealthDiscountFactor

	result := &models.BenefitResult{
		SOP:        cfg.SOP,
		Properties: make(map[models.Category][]models.PropertyBenefit),
		Totals:     make(map[models.Category]models.CategoryBenefit, len(models.Categories())),
	}

	// Trapezium categories. Residential and non-residential benefits come from the
	// uncapped damages and are clamped to the capped annual damage.
	residential := make([]models.PropertyBenefit, len(d.Residential))
	for i, p := range d.Residential {
		residential[i] = propertyBenefit(p.PropertyID, p.Address, rps, p.Damages, cappedAnnual(p), cfg.SOP, df)
	}
	nonResidential := make([]models.PropertyBenefit, len(d.NonResidential))
	for i, p := range d.NonResidential {
		nonResidential[i] = propertyBenefit(p.PropertyID, p.Address, rps, p.Damages, cappedAnnual(p), cfg.SOP, df)
	}

	result.Properties[models.CategoryResidential] = residential
	result.Properties[models.CategoryNonResidential] = nonResidential
	result.Properties[models.CategoryMentalHealth] = categoryBenefits(rps, d.MentalHealth, cfg.SOP, healthDF)
	result.Properties[models.CategoryVehicular] = categoryBenefits(rps, d.Vehicular, cfg.SOP, df)
	result.Properties[models.CategoryEvacuation] = categoryBenefits(rps, d.Evacuation, cfg.SOP, df)

	factors := map[models.Category]float64{
		models.CategoryResidential:    df,
		models.CategoryNonResidential: df,
		models.CategoryMentalHealth:   healthDF,
		models.CategoryVehicular:      df,
		models.CategoryEvacuation:     df,
	}
	for c, factor := range factors {
		result.Totals[c] = trapeziumTotal(rps, result.Properties[c], d.Total(c), cfg.SOP, factor)
	}

	// Intangible benefit is read straight off the table, not integrated
	table := e.curves.Intangible()
	intangible := make([]models.PropertyBenefit, len(d.Intangible))
	var intangibleTotal models.CategoryBenefit
	for i, p := range d.Intangible {
		annual := IntangibleBenefit(table, p.CurrentAEP, cfg.SOP)
		intangible[i] = models.PropertyBenefit{
			PropertyID: p.PropertyID,
			Address:    p.Address,
			Cumulative: []float64{},
			Annual:     annual,
			Lifetime:   annual * healthDF,
		}
		intangibleTotal.AnnualBenefit += annual
		intangibleTotal.LifetimeBenefit += annual * healthDF
	}
	result.Properties[models.CategoryIntangible] = intangible
	result.Totals[models.CategoryIntangible] = withResidual(intangibleTotal, d.Total(models.CategoryIntangible))

	deriveBenefits(cfg, d, result)

	e.log.Debug("Computed benefits", map[string]interface{}{
		"sop":                 cfg.SOP,
		"sop_matches":         sopMatches(rps, cfg.SOP),
		"residential_benefit": result.Totals[models.CategoryResidential].AnnualBenefit,
	})

	return result, nil
}

// cappedAnnual is the clamp for a property's cumulative benefits, +Inf when uncapped.
func cappedAnnual(p models.PropertyDamage) float64 {
	if p.Capped == nil {
		return math.Inf(1)
	}
	return p.Capped.AnnualDamage
}

func propertyBenefit(id uuid.UUID, address string, rps []int, damages []float64, limit float64, sop int, factor float64) models.PropertyBenefit {
	cumulative := CumulativeBenefits(rps, damages)
	for j := range cumulative {
		cumulative[j] = math.Min(cumulative[j], limit)
	}
	annual := RealizedBenefit(rps, cumulative, sop)
	return models.PropertyBenefit{
		PropertyID: id,
		Address:    address,
		Cumulative: cumulative,
		Annual:     annual,
		Lifetime:   annual * factor,
	}
}

func categoryBenefits(rps []int, props []models.PropertyCategoryDamage, sop int, factor float64) []models.PropertyBenefit {
	out := make([]models.PropertyBenefit, len(props))
	for i, p := range props {
		out[i] = propertyBenefit(p.PropertyID, p.Address, rps, p.Damages, math.Inf(1), sop, factor)
	}
	return out
}

// trapeziumTotal sums the per-property cumulative benefits per event and realizes the
// entry at the SOP.
func trapeziumTotal(rps []int, props []models.PropertyBenefit, damage models.CategoryTotal, sop int, factor float64) models.CategoryBenefit {
	cumulative := make([]float64, max(len(rps)-1, 0))
	for _, p := range props {
		for j := range cumulative {
			cumulative[j] += p.Cumulative[j]
		}
	}

	annual := RealizedBenefit(rps, cumulative, sop)
	total := models.CategoryBenefit{
		Cumulative:      cumulative,
		AnnualBenefit:   annual,
		LifetimeBenefit: annual * factor,
	}
	return withResidual(total, damage)
}

func withResidual(b models.CategoryBenefit, damage models.CategoryTotal) models.CategoryBenefit {
	b.AnnualResidual = damage.Annual - b.AnnualBenefit
	b.LifetimeResidual = damage.Lifetime - b.LifetimeBenefit
	return b
}

// deriveBenefits fills business disruption, infrastructure and emergency services from
// the primary categories.
func deriveBenefits(cfg models.FloodEventConfig, d *models.DamageResult, result *models.BenefitResult) {
	df, healthDF := d.DiscountFactor, d.HealthDiscountFactor
	res := result.Totals[models.CategoryResidential]
	nonRes := result.Totals[models.CategoryNonResidential]

	result.Totals[models.CategoryBusinessDisruption] = models.CategoryBenefit{
		AnnualBenefit:    nonRes.AnnualBenefit * BusinessDisruptionRate,
		LifetimeBenefit:  nonRes.LifetimeBenefit * BusinessDisruptionRate,
		AnnualResidual:   nonRes.AnnualResidual * BusinessDisruptionRate,
		LifetimeResidual: nonRes.LifetimeResidual * BusinessDisruptionRate,
	}

	var infrastructure models.CategoryBenefit
	if cfg.Caps.Enabled {
		damage := d.Total(models.CategoryInfrastructure)
		infrastructure.AnnualResidual = InfrastructureRate * (res.AnnualResidual + nonRes.AnnualResidual)
		infrastructure.LifetimeResidual = infrastructure.AnnualResidual * df
		infrastructure.AnnualBenefit = damage.Annual - infrastructure.AnnualResidual
		infrastructure.LifetimeBenefit = infrastructure.AnnualBenefit * df
	}
	result.Totals[models.CategoryInfrastructure] = infrastructure

	weight := curves.LocationWeightings[cfg.Location] - 1
	residual := weight * sumEmergencyBase(func(c models.Category) float64 {
		return result.Totals[c].AnnualResidual
	})
	benefit := d.Total(models.CategoryEmergencyServices).Annual - residual
	result.Totals[models.CategoryEmergencyServices] = models.CategoryBenefit{
		AnnualBenefit:    benefit,
		LifetimeBenefit:  benefit * healthDF,
		AnnualResidual:   residual,
		LifetimeResidual: residual * healthDF,
	}
}

func sopMatches(rps []int, sop int) bool {
	for _, rp := range rps[min(1, len(rps)):] {
		if rp == sop {
			return true
		}
	}
	return false
}
