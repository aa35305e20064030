// Package curves holds the reference damage curves and constant tables used by the
// detailed appraisal engine. Tables are embedded in the binary and parsed once.
package curves

import (
	"embed"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/stwalsh4118/floodfas/internal/models"
)

//go:embed tables/*.csv
var tablesFS embed.FS

// ErrCurveNotFound is returned when no reference curve exists for a key.
var ErrCurveNotFound = errors.New("reference curve not found")

// Reference depths (metres relative to ground level) at which curve values are tabulated.
var (
	ResidentialDepths    = []float64{-0.3, 0, 0.05, 0.1, 0.2, 0.3, 0.6, 0.9, 1.2, 1.5, 1.8, 2.1, 2.4, 2.7, 3}
	NonResidentialDepths = []float64{-1, -0.75, -0.5, -0.25, 0, 0.25, 0.5, 0.75, 1, 1.25, 1.5, 1.75, 2, 2.25, 2.5, 2.75, 3}
	EvacuationDepths     = []float64{0, 0.01, 0.1, 0.2, 0.3, 0.6, 1, 2}
)

// Low depth cutoffs: below these, curve damage is zero.
const (
	ResidentialCutoff    = -0.3
	NonResidentialCutoff = -1.0
	EvacuationCutoff     = 0.0
)

// Intangible table axes, annual exceedance probability in percent.
// Rows index the existing standard of protection, columns the design standard.
var (
	IntangibleAEPsBefore = []float64{0, 0.8, 1, 4.0 / 3, 2, 10.0 / 3, 5, 10, 100, 1e10}
	IntangibleAEPsAfter  = []float64{0, 2.0 / 3, 0.8, 1, 4.0 / 3, 2, 10.0 / 3, 5, 10, 1e10}
)

// IntangibleDesignColumn is the column of the 150 year (2/3 % AEP) design standard.
const IntangibleDesignColumn = 1

// MentalHealthCosts is the cost per adult by depth band: dry, up to 0.3 m, up to 1 m, deeper.
var MentalHealthCosts = [4]float64{0, 1878, 3028, 4136}

// AdultsPerProperty maps residential MCM codes to the average number of adults.
var AdultsPerProperty = map[int]float64{
	0:  1.85,
	11: 2.01,
	12: 2,
	13: 1.95,
	14: 1.99,
	15: 1.45,
}

// Adults returns the average number of adults for a residential MCM code.
func Adults(mcm int) (float64, error) {
	adults, ok := AdultsPerProperty[mcm]
	if !ok {
		return 0, fmt.Errorf("%w: adults per property for mcm %d", ErrCurveNotFound, mcm)
	}
	return adults, nil
}

// MentalHealthCost returns the mental health cost per adult at a flood depth.
func MentalHealthCost(depth float64) float64 {
	switch {
	case depth < 0:
		return MentalHealthCosts[0]
	case depth <= 0.3:
		return MentalHealthCosts[1]
	case depth <= 1:
		return MentalHealthCosts[2]
	default:
		return MentalHealthCosts[3]
	}
}

// VehicleWeighting is the vehicle damage multiplier for an event; warned events
// leave time to move vehicles.
func VehicleWeighting(event models.EventType) float64 {
	if event.Warned() {
		return WarnedVehicleWeighting
	}
	return 1
}

// Vehicle damage constants.
const (
	VehicleDamage          = 3600.0
	VehicleDepthOffset     = 0.15
	VehicleDepthThreshold  = 0.35
	WarnedVehicleWeighting = 0.75
)

// LocationWeightings are the emergency services multipliers.
var LocationWeightings = map[models.Location]float64{
	models.Rural: 1.107,
	models.Urban: 1.056,
}

// IntangibleTable is a bilinear lookup grid. A nil cell is a gap.
type IntangibleTable [][]*float64

// Cell returns the value at row j (existing SOP) and column i (design SOP).
func (t IntangibleTable) Cell(j, i int) *float64 {
	if j < 0 || j >= len(t) || i < 0 || i >= len(t[j]) {
		return nil
	}
	return t[j][i]
}

// Saturation is the design column value for an existing standard at or above 100 % AEP,
// the last defined cell of the column.
func (t IntangibleTable) Saturation() float64 {
	col := t.Column(IntangibleDesignColumn)
	for j := len(col) - 1; j >= 0; j-- {
		if col[j] != nil {
			return *col[j]
		}
	}
	return 0
}

// Column returns column i with gaps as nil.
func (t IntangibleTable) Column(i int) []*float64 {
	col := make([]*float64, len(t))
	for j := range t {
		col[j] = t.Cell(j, i)
	}
	return col
}

// Store is the immutable set of reference curves. Safe for concurrent readers.
type Store struct {
	residential    map[string][]float64
	nonResidential map[string][]float64
	evacuation     map[string][]float64
	intangible     IntangibleTable
}

// Load parses the embedded reference tables.
func Load() (*Store, error) {
	s := &Store{}

	var err error
	if s.residential, err = loadCurves("tables/residential.csv", 2, len(ResidentialDepths)); err != nil {
		return nil, err
	}
	if s.nonResidential, err = loadCurves("tables/non_residential.csv", 4, len(NonResidentialDepths)); err != nil {
		return nil, err
	}
	if s.evacuation, err = loadCurves("tables/evacuation.csv", 2, len(EvacuationDepths)); err != nil {
		return nil, err
	}
	if s.intangible, err = loadIntangible("tables/intangible.csv"); err != nil {
		return nil, err
	}

	return s, nil
}

// MustLoad is Load for program start-up; it panics on a corrupt embedded table.
func MustLoad() *Store {
	s, err := Load()
	if err != nil {
		panic(err)
	}
	return s
}

// Residential returns the residential depth-damage curve for an event type and MCM code.
func (s *Store) Residential(event models.EventType, mcm int) ([]float64, error) {
	return lookup(s.residential, event.String(), strconv.Itoa(mcm))
}

// NonResidential returns the per square metre curve for an event type, cellar flag and MCM
// code. Both warning lead times share the warned curve set.
func (s *Store) NonResidential(event models.EventType, cellar bool, mcm int) ([]float64, error) {
	warning := "no_warning"
	if event.Warned() {
		warning = "warning"
	}
	basement := "no_cellar"
	if cellar {
		basement = "cellar"
	}
	return lookup(s.nonResidential, string(event.Duration()), warning, basement, strconv.Itoa(mcm))
}

// Evacuation returns the evacuation cost curve for a category and residential MCM code.
func (s *Store) Evacuation(category models.EvacCategory, mcm int) ([]float64, error) {
	return lookup(s.evacuation, string(category), strconv.Itoa(mcm))
}

// Intangible returns the intangible damage grid.
func (s *Store) Intangible() IntangibleTable {
	return s.intangible
}

func lookup(curves map[string][]float64, parts ...string) ([]float64, error) {
	key := strings.Join(parts, "/")
	values, ok := curves[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCurveNotFound, key)
	}
	return values, nil
}

// loadCurves reads a table whose first keyCols columns form the curve key and whose
// remaining columns are the values at the reference depths.
func loadCurves(name string, keyCols, width int) (map[string][]float64, error) {
	f, err := tablesFS.Open(name)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", name, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = keyCols + width

	if _, err := r.Read(); err != nil {
		return nil, fmt.Errorf("failed to read %s header: %w", name, err)
	}

	curves := make(map[string][]float64)
	for line := 2; ; line++ {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}

		values := make([]float64, width)
		for i, raw := range record[keyCols:] {
			v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
			if err != nil {
				return nil, fmt.Errorf("%s line %d column %d: %w", name, line, keyCols+i+1, err)
			}
			values[i] = v
		}
		curves[strings.Join(record[:keyCols], "/")] = values
	}

	return curves, nil
}

func loadIntangible(name string) (IntangibleTable, error) {
	f, err := tablesFS.Open(name)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", name, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(IntangibleAEPsAfter)

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	if len(records) != len(IntangibleAEPsBefore) {
		return nil, fmt.Errorf("%s: expected %d rows, got %d", name, len(IntangibleAEPsBefore), len(records))
	}

	table := make(IntangibleTable, len(records))
	for j, record := range records {
		table[j] = make([]*float64, len(record))
		for i, raw := range record {
			raw = strings.TrimSpace(raw)
			if raw == "" {
				continue
			}
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, fmt.Errorf("%s row %d column %d: %w", name, j+1, i+1, err)
			}
			table[j][i] = &v
		}
	}

	return table, nil
}
