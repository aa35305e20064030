package appraisal

import (
	"errors"
	"fmt"
	"math"

	"github.com/stwalsh4118/floodfas/internal/models"
)

// ErrSchemeLifetime is returned for years outside the discount schedule.
var ErrSchemeLifetime = errors.New("scheme lifetime outside discount schedule")

// Tier boundaries of the declining discount schedules.
const (
	firstTierEnd  = 30
	secondTierEnd = 75
)

type schedule [3]float64

var (
	monetarySchedule = schedule{1.035, 1.03, 1.025}
	healthSchedule   = schedule{1.015, 1.01286, 1.01071}
)

func (s schedule) factor(year int) (float64, error) {
	if year < 0 || year > models.MaxSchemeLifetime {
		return 0, fmt.Errorf("%w: year %d", ErrSchemeLifetime, year)
	}

	switch {
	case year < firstTierEnd:
		return math.Pow(1/s[0], float64(year)), nil
	case year < secondTierEnd:
		return math.Pow(1/s[0], firstTierEnd) *
			math.Pow(1/s[1], float64(year-firstTierEnd)), nil
	default:
		return math.Pow(1/s[0], firstTierEnd) *
			math.Pow(1/s[1], secondTierEnd-firstTierEnd) *
			math.Pow(1/s[2], float64(year-secondTierEnd)), nil
	}
}

func (s schedule) cumulative(lifetime int) (float64, error) {
	if lifetime < 0 || lifetime > models.MaxSchemeLifetime {
		return 0, fmt.Errorf("%w: lifetime %d", ErrSchemeLifetime, lifetime)
	}

	var total float64
	for y := 0; y <= lifetime; y++ {
		f, err := s.factor(y)
		if err != nil {
			return 0, err
		}
		total += f
	}
	return total, nil
}

// DiscountFactor returns the monetary discount factor for a year after scheme start.
func DiscountFactor(year int) (float64, error) {
	return monetarySchedule.factor(year)
}

// HealthDiscountFactor returns the risk to health and life discount factor for a year.
func HealthDiscountFactor(year int) (float64, error) {
	return healthSchedule.factor(year)
}

// CumulativeDiscountFactors sums the yearly monetary and health factors over
// years 0..lifetime inclusive.
func CumulativeDiscountFactors(lifetime int) (df, healthDF float64, err error) {
	if df, err = monetarySchedule.cumulative(lifetime); err != nil {
		return 0, 0, err
	}
	if healthDF, err = healthSchedule.cumulative(lifetime); err != nil {
		return 0, 0, err
	}
	return df, healthDF, nil
}
