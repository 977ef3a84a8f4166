package analytics

import "errors"

// Validation errors. Handlers map these to 400 responses.
var (
	ErrEmptyEntityID     = errors.New("entity id is required")
	ErrInvalidEntityType = errors.New("entity type must be park or attraction")
	ErrInvalidHour       = errors.New("hour must be between 0 and 23")
	ErrInvalidDayOfWeek  = errors.New("day of week must be between 0 and 6")
	ErrInvalidPercentile = errors.New("percentile must be in (0, 1] or (1, 100]")
	ErrInvalidTrendMode  = errors.New("trend mode must be hourly or smoothed")
)

// IsValidationError reports whether err is one of the input validation errors
func IsValidationError(err error) bool {
	return errors.Is(err, ErrEmptyEntityID) ||
		errors.Is(err, ErrInvalidEntityType) ||
		errors.Is(err, ErrInvalidHour) ||
		errors.Is(err, ErrInvalidDayOfWeek) ||
		errors.Is(err, ErrInvalidPercentile) ||
		errors.Is(err, ErrInvalidTrendMode)
}
