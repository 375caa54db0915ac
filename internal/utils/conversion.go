/*
This file contains common utility functions for converting between different types,
particularly for SDK math operations and precision handling.
*/

package utils

import (
	"errors"
	"fmt"
	"math"

	sdkmath "cosmossdk.io/math"
)

// Error definitions for zero-tolerance error handling
var (
	ErrAmountNil        = errors.New("amount is nil")
	ErrNotFinite        = errors.New("value is not finite")
	ErrConversionFailed = errors.New("conversion failed")
)

// DecToFloat64 converts an SDK LegacyDec to float64 for display surfaces.
// Precision loss past float64's 15 significant digits is accepted there;
// anything doing arithmetic must stay on the Dec.
func DecToFloat64(amount sdkmath.LegacyDec) (float64, error) {
	if amount.IsNil() {
		return 0, ErrAmountNil
	}

	result, err := amount.Float64()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrConversionFailed, err)
	}

	if math.IsNaN(result) || math.IsInf(result, 0) {
		return 0, fmt.Errorf("%w: result is %f", ErrNotFinite, result)
	}

	return result, nil
}

// DecToDisplay converts an SDK LegacyDec to float64, collapsing conversion
// failures to zero. For JSON rendering where an error field would be noise.
func DecToDisplay(amount sdkmath.LegacyDec) float64 {
	v, err := DecToFloat64(amount)
	if err != nil {
		return 0
	}
	return v
}

// IntToDisplay converts an SDK Int to float64 for display surfaces.
func IntToDisplay(amount sdkmath.Int) float64 {
	if amount.IsNil() {
		return 0
	}
	return DecToDisplay(sdkmath.LegacyNewDecFromInt(amount))
}
