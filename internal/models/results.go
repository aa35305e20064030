package models

import "github.com/google/uuid"

// SkipReason explains why an included property produced no damages.
type SkipReason string

// Skip reasons. SkipNone means the property was resolved.
const (
	SkipNone                  SkipReason = ""
	SkipGroundLevelUnresolved SkipReason = "ground_level_unresolved"
	SkipNoIncludedNodes       SkipReason = "no_included_nodes"
	SkipNodeDepthMissing      SkipReason = "node_depth_missing"
)

// SkippedProperty records an included property that was left out of the totals.
type SkippedProperty struct {
	Address    string        `json:"address"`
	Class      PropertyClass `json:"class"`
	Reason     SkipReason    `json:"reason"`
	PropertyID uuid.UUID     `json:"property_id"`
}

// CappedDamage holds the capped figures of one property. Depths and Damages are
// aligned with the return periods.
type CappedDamage struct {
	CappingDepth   *float64  `json:"capping_depth"`
	Depths         []float64 `json:"depths"`
	Damages        []float64 `json:"damages"`
	AnnualDamage   float64   `json:"annual_damage"`
	LifetimeDamage float64   `json:"lifetime_damage"`
}

// PropertyDamage holds the direct damages of one residential or non-residential property.
type PropertyDamage struct {
	Capped         *CappedDamage `json:"capped,omitempty"`
	Address        string        `json:"address"`
	Depths         []float64     `json:"depths"`
	Damages        []float64     `json:"damages"`
	AnnualDamage   float64       `json:"annual_damage"`
	LifetimeDamage float64       `json:"lifetime_damage"`
	MCM            int           `json:"mcm"`
	PropertyID     uuid.UUID     `json:"property_id"`
}

// EffectiveDepths returns the capped depths when capping ran, else the uncapped ones.
func (d PropertyDamage) EffectiveDepths() []float64 {
	if d.Capped != nil {
		return d.Capped.Depths
	}
	return d.Depths
}

// EffectiveAnnual returns the capped annual damage when capping ran.
func (d PropertyDamage) EffectiveAnnual() float64 {
	if d.Capped != nil {
		return d.Capped.AnnualDamage
	}
	return d.AnnualDamage
}

// EffectiveLifetime returns the capped lifetime damage when capping ran.
func (d PropertyDamage) EffectiveLifetime() float64 {
	if d.Capped != nil {
		return d.Capped.LifetimeDamage
	}
	return d.LifetimeDamage
}

// PropertyCategoryDamage holds one dependent category's damages for one property.
type PropertyCategoryDamage struct {
	Address    string    `json:"address"`
	Damages    []float64 `json:"damages"`
	Annual     float64   `json:"annual_damage"`
	Lifetime   float64   `json:"lifetime_damage"`
	PropertyID uuid.UUID `json:"property_id"`
}

// IntangibleDamage holds the intangible damage of one residential property.
// CurrentAEP is the existing standard of protection as an annual exceedance
// probability in percent; nil when no event floods the property.
type IntangibleDamage struct {
	CurrentAEP *float64  `json:"current_aep"`
	Address    string    `json:"address"`
	Annual     float64   `json:"annual_damage"`
	Lifetime   float64   `json:"lifetime_damage"`
	PropertyID uuid.UUID `json:"property_id"`
}

// CategoryTotal is the rolled up damage of one category. PerEvent is empty for
// categories that have no per-event breakdown.
type CategoryTotal struct {
	PerEvent []float64 `json:"per_event,omitempty"`
	Annual   float64   `json:"annual_damage"`
	Lifetime float64   `json:"lifetime_damage"`
}

// DamageResult is the output of the damage pipeline.
type DamageResult struct {
	Totals               map[Category]CategoryTotal `json:"totals"`
	ReturnPeriods        []int                      `json:"return_periods"`
	Residential          []PropertyDamage           `json:"residential"`
	NonResidential       []PropertyDamage           `json:"non_residential"`
	Intangible           []IntangibleDamage         `json:"intangible"`
	MentalHealth         []PropertyCategoryDamage   `json:"mental_health"`
	Vehicular            []PropertyCategoryDamage   `json:"vehicular"`
	Evacuation           []PropertyCategoryDamage   `json:"evacuation"`
	Skipped              []SkippedProperty          `json:"skipped"`
	DiscountFactor       float64                    `json:"discount_factor"`
	HealthDiscountFactor float64                    `json:"health_discount_factor"`
	CapsEnabled          bool                       `json:"caps_enabled"`
}

// Total returns the total of a category, zero valued when absent.
func (d *DamageResult) Total(c Category) CategoryTotal {
	return d.Totals[c]
}

// PropertyBenefit holds one property's benefits in a category. Cumulative is aligned
// with the return periods after the first.
type PropertyBenefit struct {
	Address    string    `json:"address"`
	Cumulative []float64 `json:"cumulative"`
	Annual     float64   `json:"annual_benefit"`
	Lifetime   float64   `json:"lifetime_benefit"`
	PropertyID uuid.UUID `json:"property_id"`
}

// CategoryBenefit is the rolled up benefit and residual damage of one category.
type CategoryBenefit struct {
	Cumulative       []float64 `json:"cumulative,omitempty"`
	AnnualBenefit    float64   `json:"annual_benefit"`
	LifetimeBenefit  float64   `json:"lifetime_benefit"`
	AnnualResidual   float64   `json:"annual_residual"`
	LifetimeResidual float64   `json:"lifetime_residual"`
}

// BenefitResult is the output of the benefit pipeline.
type BenefitResult struct {
	Properties map[Category][]PropertyBenefit `json:"properties"`
	Totals     map[Category]CategoryBenefit   `json:"totals"`
	SOP        int                            `json:"sop"`
}

// Total returns the benefit of a category, zero valued when absent.
func (b *BenefitResult) Total(c Category) CategoryBenefit {
	return b.Totals[c]
}

// SummaryRow is one line of the results summary.
type SummaryRow struct {
	Category         Category `json:"category"`
	Label            string   `json:"label"`
	AnnualDamage     float64  `json:"annual_damage"`
	LifetimeDamage   float64  `json:"lifetime_damage"`
	AnnualBenefit    float64  `json:"annual_benefit"`
	LifetimeBenefit  float64  `json:"lifetime_benefit"`
	AnnualResidual   float64  `json:"annual_residual"`
	LifetimeResidual float64  `json:"lifetime_residual"`
}

// Summary holds the nine category rows in fixed order and their total.
type Summary struct {
	Rows  []SummaryRow `json:"rows"`
	Total SummaryRow   `json:"total"`
}

// Results bundles everything a detailed appraisal run produces.
type Results struct {
	Damages  *DamageResult  `json:"damages"`
	Benefits *BenefitResult `json:"benefits"`
	Summary  Summary        `json:"summary"`
}
