// Package export renders appraisal results as CSV tables.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"

	"github.com/stwalsh4118/floodfas/internal/models"
)

// ErrNoBreakdown is returned for categories that only exist as scheme totals.
var ErrNoBreakdown = errors.New("category has no per-property breakdown")

// Places is the number of decimal places numbers are rounded to.
const Places = 4

// Table is a header row followed by data rows, all rendered as text.
type Table struct {
	Name   string
	Header []string
	Rows   [][]string
}

// WriteCSV writes the header and rows to w.
func (t Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Header); err != nil {
		return fmt.Errorf("failed to write %s header: %w", t.Name, err)
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return fmt.Errorf("failed to write %s rows: %w", t.Name, err)
	}
	return nil
}

// Number formats v rounded half away from zero to Places decimal places.
func Number(v float64) string {
	return decimal.NewFromFloat(v).Round(Places).String()
}

func numbers(values ...float64) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = Number(v)
	}
	return out
}

func aepHeaders(rps []int, suffix string) []string {
	out := make([]string, len(rps))
	for i, rp := range rps {
		aep := decimal.NewFromInt(100).Div(decimal.NewFromInt(int64(rp))).Round(2)
		out[i] = fmt.Sprintf("%s%% AEP %s (£)", aep.String(), suffix)
	}
	return out
}

// SummaryTable is the nine category rows and the total with existing damage,
// post-intervention (residual) damage and benefit columns.
func SummaryTable(s models.Summary) Table {
	t := Table{
		Name: "Results Summary",
		Header: []string{
			"Damage Type",
			"Existing Annual Damage (£)",
			"Existing Lifetime Damage (£)",
			"Post-intervention Annual Damage (£)",
			"Post-intervention Lifetime Damage (£)",
			"Annual Benefits (£)",
			"Lifetime Benefits (£)",
		},
	}

	for _, row := range append(append([]models.SummaryRow(nil), s.Rows...), s.Total) {
		t.Rows = append(t.Rows, append([]string{row.Label}, numbers(
			row.AnnualDamage, row.LifetimeDamage,
			row.AnnualResidual, row.LifetimeResidual,
			row.AnnualBenefit, row.LifetimeBenefit,
		)...))
	}
	return t
}

// DamageTable is the per-property damage breakdown of one category.
func DamageTable(c models.Category, d *models.DamageResult) (Table, error) {
	t := Table{Name: c.Label() + " Damages"}

	switch c {
	case models.CategoryResidential, models.CategoryNonResidential:
		props := d.Residential
		if c == models.CategoryNonResidential {
			props = d.NonResidential
		}

		t.Header = []string{"Address", "Average Annual Damage (£)", "Lifetime Damage (£)"}
		if d.CapsEnabled {
			t.Header = append(t.Header, "Capped Average Annual Damage (£)", "Capped Lifetime Damage (£)")
		}
		t.Header = append(t.Header, aepHeaders(d.ReturnPeriods, "Damage")...)

		for _, p := range props {
			row := append([]string{p.Address}, numbers(p.AnnualDamage, p.LifetimeDamage)...)
			if d.CapsEnabled {
				row = append(row, numbers(p.EffectiveAnnual(), p.EffectiveLifetime())...)
			}
			t.Rows = append(t.Rows, append(row, numbers(p.Damages...)...))
		}

	case models.CategoryIntangible:
		t.Header = []string{"Address", "Current SOP (AEP %)", "Average Annual Damage (£)", "Lifetime Damage (£)"}
		for _, p := range d.Intangible {
			sop := ""
			if p.CurrentAEP != nil {
				sop = Number(*p.CurrentAEP)
			}
			t.Rows = append(t.Rows, append([]string{p.Address, sop}, numbers(p.Annual, p.Lifetime)...))
		}

	case models.CategoryMentalHealth, models.CategoryVehicular, models.CategoryEvacuation:
		props := map[models.Category][]models.PropertyCategoryDamage{
			models.CategoryMentalHealth: d.MentalHealth,
			models.CategoryVehicular:    d.Vehicular,
			models.CategoryEvacuation:   d.Evacuation,
		}[c]

		t.Header = append([]string{"Address", "Average Annual Damage (£)", "Lifetime Damage (£)"},
			aepHeaders(d.ReturnPeriods, "Damage")...)
		for _, p := range props {
			row := append([]string{p.Address}, numbers(p.Annual, p.Lifetime)...)
			t.Rows = append(t.Rows, append(row, numbers(p.Damages...)...))
		}

	default:
		return Table{}, fmt.Errorf("%w: %s", ErrNoBreakdown, c)
	}

	return t, nil
}

// BenefitTable is the per-property benefit breakdown of one category with a closing
// total row. rps are the return periods of the damage run.
func BenefitTable(c models.Category, b *models.BenefitResult, rps []int) (Table, error) {
	t := Table{Name: c.Label() + " Benefits"}
	props := b.Properties[c]
	total := b.Total(c)
	totalLabel := fmt.Sprintf("Total %s Benefit", c.Label())

	switch c {
	case models.CategoryIntangible:
		t.Header = []string{"Address", "Average Annual Benefit (£)", "Lifetime Benefit (£)"}
		for _, p := range props {
			t.Rows = append(t.Rows, append([]string{p.Address}, numbers(p.Annual, p.Lifetime)...))
		}
		t.Rows = append(t.Rows, append([]string{totalLabel}, numbers(total.AnnualBenefit, total.LifetimeBenefit)...))

	case models.CategoryResidential, models.CategoryNonResidential, models.CategoryMentalHealth,
		models.CategoryVehicular, models.CategoryEvacuation:
		var later []int
		if len(rps) > 1 {
			later = rps[1:]
		}
		t.Header = append([]string{"Address"}, aepHeaders(later, "Benefit")...)
		for _, p := range props {
			t.Rows = append(t.Rows, append([]string{p.Address}, numbers(p.Cumulative...)...))
		}
		t.Rows = append(t.Rows, append([]string{totalLabel}, numbers(total.Cumulative...)...))

	default:
		return Table{}, fmt.Errorf("%w: %s", ErrNoBreakdown, c)
	}

	return t, nil
}

// Breakdowns lists the categories with per-property tables, in summary order.
func Breakdowns() []models.Category {
	return []models.Category{
		models.CategoryResidential,
		models.CategoryIntangible,
		models.CategoryMentalHealth,
		models.CategoryVehicular,
		models.CategoryEvacuation,
		models.CategoryNonResidential,
	}
}

// All returns the summary table followed by every damage and benefit breakdown.
func All(r *models.Results) ([]Table, error) {
	tables := []Table{SummaryTable(r.Summary)}

	for _, c := range Breakdowns() {
		t, err := DamageTable(c, r.Damages)
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	for _, c := range Breakdowns() {
		t, err := BenefitTable(c, r.Benefits, r.Damages.ReturnPeriods)
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}

	return tables, nil
}

// WriteDir writes every table as "<name>.csv" into dir, creating it when missing, and
// returns the written paths.
func WriteDir(dir string, r *models.Results) ([]string, error) {
	tables, err := All(r)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create export directory: %w", err)
	}

	paths := make([]string, 0, len(tables))
	for _, t := range tables {
		path := filepath.Join(dir, t.Name+".csv")
		if err := writeFile(path, t); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeFile(path string, t Table) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", path, cerr)
		}
	}()
	return t.WriteCSV(f)
}
