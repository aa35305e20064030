package services

import (
	"errors"

	"github.com/go-playground/validator/v10"

	"github.com/stwalsh4118/floodfas/internal/appraisal"
	"github.com/stwalsh4118/floodfas/internal/curves"
	"github.com/stwalsh4118/floodfas/internal/models"
)

var configurationErrors = []error{
	models.ErrInvalidConfig,
	models.ErrInvalidEnum,
	models.ErrReturnPeriods,
	models.ErrDepthCountMismatch,
	appraisal.ErrSchemeLifetime,
	curves.ErrCurveNotFound,
	ErrInvalidInput,
}

// IsConfigurationError reports whether err was caused by the appraisal's inputs
// rather than by the service.
func IsConfigurationError(err error) bool {
	if _, ok := AsValidationErrors(err); ok {
		return true
	}
	for _, target := range configurationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// AsValidationErrors extracts field level validation errors from a property
// record, if err carries them. Configuration struct errors are reported as
// configuration errors instead.
func AsValidationErrors(err error) (validator.ValidationErrors, bool) {
	if errors.Is(err, models.ErrInvalidConfig) {
		return nil, false
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return verrs, true
	}
	return nil, false
}
