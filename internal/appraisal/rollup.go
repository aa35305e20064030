package appraisal

import "github.com/stwalsh4118/floodfas/internal/models"

// Summarize rolls damages and benefits up into the nine category rows and their total.
func Summarize(d *models.DamageResult, b *models.BenefitResult) models.Summary {
	summary := models.Summary{
		Rows:  make([]models.SummaryRow, 0, len(models.Categories())),
		Total: models.SummaryRow{Label: "Total"},
	}

	for _, c := range models.Categories() {
		damage := d.Total(c)
		benefit := b.Total(c)
		row := models.SummaryRow{
			Category:         c,
			Label:            c.Label(),
			AnnualDamage:     damage.Annual,
			LifetimeDamage:   damage.Lifetime,
			AnnualBenefit:    benefit.AnnualBenefit,
			LifetimeBenefit:  benefit.LifetimeBenefit,
			AnnualResidual:   benefit.AnnualResidual,
			LifetimeResidual: benefit.LifetimeResidual,
		}
		summary.Rows = append(summary.Rows, row)

		summary.Total.AnnualDamage += row.AnnualDamage
		summary.Total.LifetimeDamage += row.LifetimeDamage
		summary.Total.AnnualBenefit += row.AnnualBenefit
		summary.Total.LifetimeBenefit += row.LifetimeBenefit
		summary.Total.AnnualResidual += row.AnnualResidual
		summary.Total.LifetimeResidual += row.LifetimeResidual
	}

	return summary
}
