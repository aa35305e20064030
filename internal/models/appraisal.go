package models

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Model-level errors
var (
	ErrInvalidEnum        = errors.New("invalid enum value")
	ErrInvalidConfig      = errors.New("invalid flood event configuration")
	ErrReturnPeriods      = errors.New("return periods must be distinct, positive and ascending")
	ErrDepthCountMismatch = errors.New("node depth count does not match return periods")
)

// MaxSchemeLifetime is the longest scheme lifetime the discount schedule covers.
const MaxSchemeLifetime = 100

// Property is a residential or non-residential property within the appraisal.
// All nullable fields use pointers to distinguish between zero values and missing data.
type Property struct {
	FloorArea   *float64      `json:"floor_area,omitempty" validate:"omitempty,gt=0"`
	GroundLevel *float64      `json:"ground_level"`
	Address     string        `json:"address"`
	Town        string        `json:"town"`
	Postcode    string        `json:"postcode"`
	Class       PropertyClass `json:"class" validate:"required"`
	Easting     float64       `json:"easting"`
	Northing    float64       `json:"northing"`
	MCM         int           `json:"mcm"`
	ID          uuid.UUID     `json:"id"`
	Included    bool          `json:"included"`
}

// Location returns the planar position of the property.
func (p Property) Location() Point {
	return Point{Easting: p.Easting, Northing: p.Northing}
}

// Node is a hydraulic model output location with one depth reading per return period.
// A nil reading means the model produced no level for that event.
type Node struct {
	Depths   []*float64 `json:"depths" validate:"min=1"`
	Easting  float64    `json:"easting"`
	Northing float64    `json:"northing"`
	ID       uuid.UUID  `json:"id"`
	Included bool       `json:"included"`
}

// Location returns the planar position of the node.
func (n Node) Location() Point {
	return Point{Easting: n.Easting, Northing: n.Northing}
}

// Caps holds the damage capping settings.
type Caps struct {
	Residential    float64 `json:"residential" validate:"gte=0"`
	NonResidential float64 `json:"non_residential" validate:"gte=0"`
	Enabled        bool    `json:"enabled"`
}

// FloodEventConfig holds the appraisal-wide flood event settings.
type FloodEventConfig struct {
	Location       Location     `json:"location" validate:"required"`
	EvacCategory   EvacCategory `json:"evac_category" validate:"required"`
	ReturnPeriods  []int        `json:"return_periods" validate:"min=1,dive,gt=0"`
	Caps           Caps         `json:"caps"`
	EventType      EventType    `json:"event_type" validate:"required"`
	SchemeLifetime int          `json:"scheme_lifetime" validate:"gte=0,lte=100"`
	SOP            int          `json:"sop" validate:"gt=0"`
	Cellar         bool         `json:"cellar"`
}

// DefaultReturnPeriods are the return periods a new detailed appraisal starts with.
func DefaultReturnPeriods() []int {
	return []int{5, 10, 25, 50, 100, 150, 1000}
}

// DefaultFloodEventConfig returns the settings a new detailed appraisal starts with.
func DefaultFloodEventConfig() FloodEventConfig {
	return FloodEventConfig{
		Location:       Rural,
		EvacCategory:   EvacHigh,
		ReturnPeriods:  DefaultReturnPeriods(),
		EventType:      LongWarningUnder8h,
		SchemeLifetime: 50,
		SOP:            25,
		Caps: Caps{
			Enabled:        true,
			Residential:    250000,
			NonResidential: 260000,
		},
	}
}

// Cap returns the lifetime damage cap for a property class.
func (c FloodEventConfig) Cap(class PropertyClass) float64 {
	if class == NonResidential {
		return c.Caps.NonResidential
	}
	return c.Caps.Residential
}

// Validate checks the configuration is usable by the calculation engine.
func (c FloodEventConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if !c.EventType.Valid() {
		return fmt.Errorf("%w: %w: event type %d", ErrInvalidConfig, ErrInvalidEnum, int(c.EventType))
	}
	if !c.Location.Valid() {
		return fmt.Errorf("%w: %w: location %q", ErrInvalidConfig, ErrInvalidEnum, c.Location)
	}
	if !c.EvacCategory.Valid() {
		return fmt.Errorf("%w: %w: evacuation category %q", ErrInvalidConfig, ErrInvalidEnum, c.EvacCategory)
	}
	return ValidateReturnPeriods(c.ReturnPeriods)
}

// ValidateReturnPeriods checks a return period set is non-empty, positive and strictly ascending.
func ValidateReturnPeriods(rps []int) error {
	if len(rps) == 0 {
		return fmt.Errorf("%w: at least one return period is required", ErrReturnPeriods)
	}
	for i, rp := range rps {
		if rp <= 0 {
			return fmt.Errorf("%w: got %d at position %d", ErrReturnPeriods, rp, i)
		}
		if i > 0 && rp <= rps[i-1] {
			return fmt.Errorf("%w: %d follows %d", ErrReturnPeriods, rp, rps[i-1])
		}
	}
	return nil
}

// Inputs is the complete, immutable input of a single appraisal run.
type Inputs struct {
	Properties []Property       `json:"properties"`
	Nodes      []Node           `json:"nodes"`
	Config     FloodEventConfig `json:"config"`
}

// Validate checks every record and the configuration. Field level problems are
// reported as validator.ValidationErrors wrapped with the offending record.
func (in Inputs) Validate() error {
	if err := in.Config.Validate(); err != nil {
		return err
	}

	for i, p := range in.Properties {
		if err := validate.Struct(p); err != nil {
			return fmt.Errorf("property %d: %w", i, err)
		}
	}

	expected := len(in.Config.ReturnPeriods)
	for i, n := range in.Nodes {
		if len(n.Depths) != expected {
			return fmt.Errorf("%w: node %d has %d depths, expected %d",
				ErrDepthCountMismatch, i, len(n.Depths), expected)
		}
	}

	return nil
}

// IncludedProperties returns the included properties of a class in input order.
func (in Inputs) IncludedProperties(class PropertyClass) []Property {
	var out []Property
	for _, p := range in.Properties {
		if p.Included && p.Class == class {
			out = append(out, p)
		}
	}
	return out
}

// IncludedNodes returns the included nodes in input order.
func (in Inputs) IncludedNodes() []Node {
	var out []Node
	for _, n := range in.Nodes {
		if n.Included {
			out = append(out, n)
		}
	}
	return out
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterStructValidation(propertyStructLevel, Property{})
	return v
}

// propertyStructLevel checks the MCM code belongs to the property's class and that
// non-residential properties carry a floor area.
func propertyStructLevel(sl validator.StructLevel) {
	p := sl.Current().Interface().(Property)
	if !p.Class.Valid() {
		sl.ReportError(p.Class, "class", "Class", "oneof", "residential non_residential")
		return
	}
	if !ValidMCM(p.Class, p.MCM) {
		sl.ReportError(p.MCM, "mcm", "MCM", "mcm", string(p.Class))
	}
	if p.Class == NonResidential && p.FloorArea == nil {
		sl.ReportError(p.FloorArea, "floor_area", "FloorArea", "required", "")
	}
}
