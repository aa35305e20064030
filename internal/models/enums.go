package models

import (
	"fmt"
)

// EventType identifies the flood duration and warning category of an appraisal.
// It selects which set of reference damage curves applies.
type EventType int

// Event types, duration × warning lead time.
const (
	ShortNoWarning EventType = iota + 1
	ShortWarningUnder8h
	ShortWarningOver8h
	LongNoWarning
	LongWarningUnder8h
	LongWarningOver8h
	ExtraLongNoWarning
	ExtraLongWarningUnder8h
	ExtraLongWarningOver8h
)

// Duration is the flood duration component of an EventType.
type Duration string

// Flood durations.
const (
	DurationShort     Duration = "short"
	DurationLong      Duration = "long"
	DurationExtraLong Duration = "extra_long"
)

// Warning is the warning lead time component of an EventType.
type Warning string

// Warning lead times.
const (
	NoWarning          Warning = "no_warning"
	WarningUnder8Hours Warning = "warning_under_8h"
	WarningOver8Hours  Warning = "warning_over_8h"
)

var eventTypeNames = map[EventType]string{
	ShortNoWarning:          "short_duration_no_warning",
	ShortWarningUnder8h:     "short_duration_warning_under_8h",
	ShortWarningOver8h:      "short_duration_warning_over_8h",
	LongNoWarning:           "long_duration_no_warning",
	LongWarningUnder8h:      "long_duration_warning_under_8h",
	LongWarningOver8h:       "long_duration_warning_over_8h",
	ExtraLongNoWarning:      "extra_long_duration_no_warning",
	ExtraLongWarningUnder8h: "extra_long_duration_warning_under_8h",
	ExtraLongWarningOver8h:  "extra_long_duration_warning_over_8h",
}

// EventTypes returns every event type in declaration order.
func EventTypes() []EventType {
	return []EventType{
		ShortNoWarning, ShortWarningUnder8h, ShortWarningOver8h,
		LongNoWarning, LongWarningUnder8h, LongWarningOver8h,
		ExtraLongNoWarning, ExtraLongWarningUnder8h, ExtraLongWarningOver8h,
	}
}

// Valid reports whether e is one of the declared event types.
func (e EventType) Valid() bool {
	_, ok := eventTypeNames[e]
	return ok
}

// Duration returns the flood duration of the event.
func (e EventType) Duration() Duration {
	switch e {
	case ShortNoWarning, ShortWarningUnder8h, ShortWarningOver8h:
		return DurationShort
	case LongNoWarning, LongWarningUnder8h, LongWarningOver8h:
		return DurationLong
	default:
		return DurationExtraLong
	}
}

// Warning returns the warning lead time of the event.
func (e EventType) Warning() Warning {
	switch e {
	case ShortNoWarning, LongNoWarning, ExtraLongNoWarning:
		return NoWarning
	case ShortWarningUnder8h, LongWarningUnder8h, ExtraLongWarningUnder8h:
		return WarningUnder8Hours
	default:
		return WarningOver8Hours
	}
}

// Warned reports whether any flood warning is issued for the event.
func (e EventType) Warned() bool {
	return e.Warning() != NoWarning
}

func (e EventType) String() string {
	if name, ok := eventTypeNames[e]; ok {
		return name
	}
	return fmt.Sprintf("EventType(%d)", int(e))
}

// MarshalText implements encoding.TextMarshaler.
func (e EventType) MarshalText() ([]byte, error) {
	name, ok := eventTypeNames[e]
	if !ok {
		return nil, fmt.Errorf("%w: unknown event type %d", ErrInvalidEnum, int(e))
	}
	return []byte(name), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (e *EventType) UnmarshalText(text []byte) error {
	parsed, err := ParseEventType(string(text))
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}

// ParseEventType converts a wire name into an EventType.
func ParseEventType(s string) (EventType, error) {
	for et, name := range eventTypeNames {
		if name == s {
			return et, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown event type %q", ErrInvalidEnum, s)
}

// Location is the catchment setting, which drives the emergency services weighting.
type Location string

// Catchment locations.
const (
	Rural Location = "rural"
	Urban Location = "urban"
)

// Valid reports whether l is a known location.
func (l Location) Valid() bool {
	return l == Rural || l == Urban
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Location) UnmarshalText(text []byte) error {
	v := Location(text)
	if !v.Valid() {
		return fmt.Errorf("%w: unknown location %q", ErrInvalidEnum, string(text))
	}
	*l = v
	return nil
}

// EvacCategory selects the evacuation cost curve set.
type EvacCategory string

// Evacuation cost categories.
const (
	EvacLow  EvacCategory = "low"
	EvacMid  EvacCategory = "mid"
	EvacHigh EvacCategory = "high"
)

// Valid reports whether c is a known evacuation category.
func (c EvacCategory) Valid() bool {
	return c == EvacLow || c == EvacMid || c == EvacHigh
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *EvacCategory) UnmarshalText(text []byte) error {
	v := EvacCategory(text)
	if !v.Valid() {
		return fmt.Errorf("%w: unknown evacuation category %q", ErrInvalidEnum, string(text))
	}
	*c = v
	return nil
}

// PropertyClass distinguishes the two modelled property classes.
type PropertyClass string

// Property classes.
const (
	Residential    PropertyClass = "residential"
	NonResidential PropertyClass = "non_residential"
)

// Valid reports whether c is a known property class.
func (c PropertyClass) Valid() bool {
	return c == Residential || c == NonResidential
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *PropertyClass) UnmarshalText(text []byte) error {
	v := PropertyClass(text)
	if !v.Valid() {
		return fmt.Errorf("%w: unknown property class %q", ErrInvalidEnum, string(text))
	}
	*c = v
	return nil
}

// Category is one of the nine result categories of a detailed appraisal.
type Category string

// Result categories in summary order.
const (
	CategoryResidential        Category = "residential"
	CategoryIntangible         Category = "intangible"
	CategoryMentalHealth       Category = "mental_health"
	CategoryVehicular          Category = "vehicular"
	CategoryEvacuation         Category = "evacuation"
	CategoryNonResidential     Category = "non_residential"
	CategoryBusinessDisruption Category = "business_disruption"
	CategoryInfrastructure     Category = "infrastructure"
	CategoryEmergencyServices  Category = "emergency_services"
)

// Categories returns the nine result categories in summary order.
func Categories() []Category {
	return []Category{
		CategoryResidential,
		CategoryIntangible,
		CategoryMentalHealth,
		CategoryVehicular,
		CategoryEvacuation,
		CategoryNonResidential,
		CategoryBusinessDisruption,
		CategoryInfrastructure,
		CategoryEmergencyServices,
	}
}

var categoryLabels = map[Category]string{
	CategoryResidential:        "Residential",
	CategoryIntangible:         "Intangible",
	CategoryMentalHealth:       "Mental Health",
	CategoryVehicular:          "Vehicular",
	CategoryEvacuation:         "Evacuation",
	CategoryNonResidential:     "Non-Residential",
	CategoryBusinessDisruption: "Business Disruption",
	CategoryInfrastructure:     "Infrastructure",
	CategoryEmergencyServices:  "Emergency Services and Recovery",
}

// Label returns the human readable name used in exported tables.
func (c Category) Label() string {
	if label, ok := categoryLabels[c]; ok {
		return label
	}
	return string(c)
}

// AppraisalLevel records which fidelity of appraisal a snapshot holds.
type AppraisalLevel string

// Appraisal levels.
const (
	LevelInitial  AppraisalLevel = "initial"
	LevelOverview AppraisalLevel = "overview"
	LevelDetailed AppraisalLevel = "detailed"
)

// Valid reports whether l is a known appraisal level.
func (l AppraisalLevel) Valid() bool {
	return l == LevelInitial || l == LevelOverview || l == LevelDetailed
}
