package appraisal

import (
	"github.com/stwalsh4118/floodfas/internal/curves"
	"github.com/stwalsh4118/floodfas/internal/models"
)

// Derived category rates.
const (
	BusinessDisruptionRate = 0.03
	InfrastructureRate     = 0.1
)

// resolvedProperty is an included property with its uncapped per-event depths.
type resolvedProperty struct {
	property models.Property
	depths   []float64
}

// ComputeDamages runs the damage pipeline in explicit stages: resolve uncapped depths,
// direct damages, capping, dependent categories from the capped residential depths,
// then totals and derived categories.
func (e *Engine) ComputeDamages(in models.Inputs) (*models.DamageResult, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	cfg := in.Config
	df, healthDF, err := CumulativeDiscountFactors(cfg.SchemeLifetime)
	if err != nil {
		return nil, err
	}

	result := &models.DamageResult{
		ReturnPeriods:        append([]int(nil), cfg.ReturnPeriods...),
		DiscountFactor:       df,
		HealthDiscountFactor: healthDF,
		CapsEnabled:          cfg.Caps.Enabled,
		Skipped:              []models.SkippedProperty{},
	}

	// Stage 1: depths
	nodes := in.IncludedNodes()
	residential := e.resolve(in.IncludedProperties(models.Residential), nodes, result)
	nonResidential := e.resolve(in.IncludedProperties(models.NonResidential), nodes, result)

	e.log.Debug("Resolved property depths", map[string]interface{}{
		"residential":     len(residential),
		"non_residential": len(nonResidential),
		"skipped":         len(result.Skipped),
		"nodes":           len(nodes),
	})

	// Stage 2: direct damages from uncapped depths
	result.Residential = make([]models.PropertyDamage, len(residential))
	err = e.forEach(len(residential), func(i int) error {
		d, err := e.residentialDamage(cfg, residential[i], df)
		if err != nil {
			return propertyError(residential[i].property, err)
		}
		result.Residential[i] = d
		return nil
	})
	if err != nil {
		return nil, err
	}

	result.NonResidential = make([]models.PropertyDamage, len(nonResidential))
	err = e.forEach(len(nonResidential), func(i int) error {
		d, err := e.nonResidentialDamage(cfg, nonResidential[i], df)
		if err != nil {
			return propertyError(nonResidential[i].property, err)
		}
		result.NonResidential[i] = d
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Stage 3: capping
	if cfg.Caps.Enabled {
		capAll(result.ReturnPeriods, result.Residential, cfg.Caps.Residential, df)
		capAll(result.ReturnPeriods, result.NonResidential, cfg.Caps.NonResidential, df)
	}

	// Stage 4: dependents read capped residential depths only
	n := len(result.Residential)
	result.Intangible = make([]models.IntangibleDamage, n)
	result.MentalHealth = make([]models.PropertyCategoryDamage, n)
	result.Vehicular = make([]models.PropertyCategoryDamage, n)
	result.Evacuation = make([]models.PropertyCategoryDamage, n)

	err = e.forEach(n, func(i int) error {
		if err := e.dependentDamages(cfg, result, i); err != nil {
			return propertyError(residential[i].property, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Stage 5: totals and derived categories
	result.Totals = damageTotals(cfg, result)

	e.log.Debug("Computed damages", map[string]interface{}{
		"caps_enabled":       cfg.Caps.Enabled,
		"discount_factor":    df,
		"health_df":          healthDF,
		"total_annual":       sumAnnual(result.Totals),
		"residential_annual": result.Totals[models.CategoryResidential].Annual,
	})

	return result, nil
}

// resolve keeps the properties whose depths could be resolved and records the rest.
func (e *Engine) resolve(props []models.Property, nodes []models.Node, result *models.DamageResult) []resolvedProperty {
	out := make([]resolvedProperty, 0, len(props))
	for _, p := range props {
		depths, reason := ResolveDepths(p, nodes)
		if reason != models.SkipNone {
			result.Skipped = append(result.Skipped, models.SkippedProperty{
				PropertyID: p.ID,
				Address:    p.Address,
				Class:      p.Class,
				Reason:     reason,
			})
			e.log.Warn("Skipping property", map[string]interface{}{
				"property_id": p.ID.String(),
				"class":       string(p.Class),
				"reason":      string(reason),
			})
			continue
		}
		out = append(out, resolvedProperty{property: p, depths: depths})
	}
	return out
}

func (e *Engine) residentialDamage(cfg models.FloodEventConfig, rp resolvedProperty, df float64) (models.PropertyDamage, error) {
	curve, err := e.curves.Residential(cfg.EventType, rp.property.MCM)
	if err != nil {
		return models.PropertyDamage{}, err
	}

	damages := InterpolateAll(curve, curves.ResidentialDepths, curves.ResidentialCutoff, rp.depths)
	return newPropertyDamage(cfg.ReturnPeriods, rp, damages, df), nil
}

func (e *Engine) nonResidentialDamage(cfg models.FloodEventConfig, rp resolvedProperty, df float64) (models.PropertyDamage, error) {
	curve, err := e.curves.NonResidential(cfg.EventType, cfg.Cellar, rp.property.MCM)
	if err != nil {
		return models.PropertyDamage{}, err
	}

	// Curves are per square metre
	damages := InterpolateAll(curve, curves.NonResidentialDepths, curves.NonResidentialCutoff, rp.depths)
	area := *rp.property.FloorArea
	for i := range damages {
		damages[i] *= area
	}
	return newPropertyDamage(cfg.ReturnPeriods, rp, damages, df), nil
}

func newPropertyDamage(returnPeriods []int, rp resolvedProperty, damages []float64, df float64) models.PropertyDamage {
	annual := AverageAnnual(returnPeriods, damages)
	return models.PropertyDamage{
		PropertyID:     rp.property.ID,
		Address:        rp.property.Address,
		MCM:            rp.property.MCM,
		Depths:         rp.depths,
		Damages:        damages,
		AnnualDamage:   annual,
		LifetimeDamage: annual * df,
	}
}

// dependentDamages fills the intangible, mental health, vehicular and evacuation
// entries of residential property i from its capped depths.
func (e *Engine) dependentDamages(cfg models.FloodEventConfig, result *models.DamageResult, i int) error {
	prop := result.Residential[i]
	depths := prop.EffectiveDepths()
	rps := result.ReturnPeriods
	df, healthDF := result.DiscountFactor, result.HealthDiscountFactor

	// Intangible
	aep := CurrentAEP(rps, depths)
	intangible := IntangibleDamage(e.curves.Intangible(), aep)
	result.Intangible[i] = models.IntangibleDamage{
		PropertyID: prop.PropertyID,
		Address:    prop.Address,
		CurrentAEP: aep,
		Annual:     intangible,
		Lifetime:   intangible * healthDF,
	}

	// Mental health
	adults, err := curves.Adults(prop.MCM)
	if err != nil {
		return err
	}
	mh := make([]float64, len(depths))
	for j, d := range depths {
		mh[j] = curves.MentalHealthCost(d) * adults
	}
	result.MentalHealth[i] = categoryDamage(prop, rps, mh, healthDF)

	// Vehicular
	weighting := curves.VehicleWeighting(cfg.EventType)
	vehicles := make([]float64, len(depths))
	for j, d := range depths {
		vehicles[j] = VehicleDamage(d) * weighting
	}
	result.Vehicular[i] = categoryDamage(prop, rps, vehicles, df)

	// Evacuation
	curve, err := e.curves.Evacuation(cfg.EvacCategory, prop.MCM)
	if err != nil {
		return err
	}
	evac := InterpolateAll(curve, curves.EvacuationDepths, curves.EvacuationCutoff, depths)
	result.Evacuation[i] = categoryDamage(prop, rps, evac, df)

	return nil
}

func categoryDamage(prop models.PropertyDamage, returnPeriods []int, damages []float64, factor float64) models.PropertyCategoryDamage {
	annual := AverageAnnual(returnPeriods, damages)
	return models.PropertyCategoryDamage{
		PropertyID: prop.PropertyID,
		Address:    prop.Address,
		Damages:    damages,
		Annual:     annual,
		Lifetime:   annual * factor,
	}
}

// CurrentAEP is the existing standard of protection of a property as % AEP: the
// first event whose depth reaches the residential damage threshold. Nil when no
// event does.
func CurrentAEP(returnPeriods []int, depths []float64) *float64 {
	for i, d := range depths {
		if d >= curves.ResidentialCutoff {
			aep := 100 / float64(returnPeriods[i])
			return &aep
		}
	}
	return nil
}

// VehicleDamage is the unweighted vehicle damage at a property depth. The offset
// converts internal depth to external depth at the vehicle.
func VehicleDamage(depth float64) float64 {
	if depth+curves.VehicleDepthOffset > curves.VehicleDepthThreshold {
		return curves.VehicleDamage
	}
	return 0
}

func damageTotals(cfg models.FloodEventConfig, result *models.DamageResult) map[models.Category]models.CategoryTotal {
	n := len(result.ReturnPeriods)
	df, healthDF := result.DiscountFactor, result.HealthDiscountFactor
	totals := make(map[models.Category]models.CategoryTotal, len(models.Categories()))

	totals[models.CategoryResidential] = propertyTotals(n, result.Residential)
	totals[models.CategoryNonResidential] = propertyTotals(n, result.NonResidential)
	totals[models.CategoryMentalHealth] = categoryTotals(n, result.MentalHealth)
	totals[models.CategoryVehicular] = categoryTotals(n, result.Vehicular)
	totals[models.CategoryEvacuation] = categoryTotals(n, result.Evacuation)

	var intangible models.CategoryTotal
	for _, d := range result.Intangible {
		intangible.Annual += d.Annual
		intangible.Lifetime += d.Lifetime
	}
	totals[models.CategoryIntangible] = intangible

	nonRes := totals[models.CategoryNonResidential]
	totals[models.CategoryBusinessDisruption] = models.CategoryTotal{
		PerEvent: scale(nonRes.PerEvent, BusinessDisruptionRate),
		Annual:   nonRes.Annual * BusinessDisruptionRate,
		Lifetime: nonRes.Lifetime * BusinessDisruptionRate,
	}

	var infrastructure models.CategoryTotal
	if cfg.Caps.Enabled {
		infrastructure.Annual = InfrastructureRate *
			(totals[models.CategoryResidential].Annual + nonRes.Annual)
		infrastructure.Lifetime = infrastructure.Annual * df
	}
	totals[models.CategoryInfrastructure] = infrastructure

	emergency := (curves.LocationWeightings[cfg.Location] - 1) * sumEmergencyBase(func(c models.Category) float64 {
		return totals[c].Annual
	})
	totals[models.CategoryEmergencyServices] = models.CategoryTotal{
		Annual:   emergency,
		Lifetime: emergency * healthDF,
	}

	return totals
}

// emergencyBase lists the categories whose sum drives emergency services costs.
var emergencyBase = []models.Category{
	models.CategoryResidential,
	models.CategoryIntangible,
	models.CategoryMentalHealth,
	models.CategoryVehicular,
	models.CategoryEvacuation,
	models.CategoryNonResidential,
	models.CategoryBusinessDisruption,
}

func sumEmergencyBase(value func(models.Category) float64) float64 {
	var total float64
	for _, c := range emergencyBase {
		total += value(c)
	}
	return total
}

func propertyTotals(n int, props []models.PropertyDamage) models.CategoryTotal {
	total := models.CategoryTotal{PerEvent: make([]float64, n)}
	for _, p := range props {
		damages := p.Damages
		if p.Capped != nil {
			damages = p.Capped.Damages
		}
		for j := range total.PerEvent {
			total.PerEvent[j] += damages[j]
		}
		total.Annual += p.EffectiveAnnual()
		total.Lifetime += p.EffectiveLifetime()
	}
	return total
}

func categoryTotals(n int, props []models.PropertyCategoryDamage) models.CategoryTotal {
	total := models.CategoryTotal{PerEvent: make([]float64, n)}
	for _, p := range props {
		for j := range total.PerEvent {
			total.PerEvent[j] += p.Damages[j]
		}
		total.Annual += p.Annual
		total.Lifetime += p.Lifetime
	}
	return total
}

func scale(values []float64, factor float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = v * factor
	}
	return out
}

func sumAnnual(totals map[models.Category]models.CategoryTotal) float64 {
	var total float64
	for _, c := range models.Categories() {
		total += totals[c].Annual
	}
	return total
}
