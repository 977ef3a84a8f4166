package service

import (
	"errors"

	"github.com/parkfan/occupancy-analytics/internal/analytics"
)

// ErrInvalidInput marks request errors detected in the service layer
var ErrInvalidInput = errors.New("invalid input")

// IsBadRequest reports whether err was caused by the caller's input
func IsBadRequest(err error) bool {
	return errors.Is(err, ErrInvalidInput) || analytics.IsValidationError(err)
}
