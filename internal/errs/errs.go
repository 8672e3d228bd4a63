// Package errs defines the sentinel errors shared by every strided package.
//
// Errors returned by the engine always wrap exactly one of these sentinels,
// so callers match them with errors.Is and read the wrapped message for the
// offending dtypes, dimensions or index values.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrDimension reports shape, broadcast or slice incompatibility.
	ErrDimension = errors.New("strided: dimension error")

	// ErrType reports that no element-function overload matches the operand dtypes.
	ErrType = errors.New("strided: dtype error")

	// ErrVariances reports a violated variance (uncertainty) contract.
	ErrVariances = errors.New("strided: variances error")

	// ErrUnit reports incompatible physical units.
	ErrUnit = errors.New("strided: unit error")

	// ErrSlice reports an invalid range: out-of-range or overlapping bin
	// index pairs, or a slice outside a dimension's extent.
	ErrSlice = errors.New("strided: slice error")

	// ErrBinnedData reports bins whose lengths do not line up between operands.
	ErrBinnedData = errors.New("strided: binned data error")
)

// Dimensionf wraps ErrDimension with a formatted message.
func Dimensionf(format string, args ...any) error {
	return wrap(ErrDimension, format, args...)
}

// Typef wraps ErrType with a formatted message.
func Typef(format string, args ...any) error {
	return wrap(ErrType, format, args...)
}

// Variancesf wraps ErrVariances with a formatted message.
func Variancesf(format string, args ...any) error {
	return wrap(ErrVariances, format, args...)
}

// Unitf wraps ErrUnit with a formatted message.
func Unitf(format string, args ...any) error {
	return wrap(ErrUnit, format, args...)
}

// Slicef wraps ErrSlice with a formatted message.
func Slicef(format string, args ...any) error {
	return wrap(ErrSlice, format, args...)
}

// BinnedDataf wraps ErrBinnedData with a formatted message.
func BinnedDataf(format string, args ...any) error {
	return wrap(ErrBinnedData, format, args...)
}

func wrap(sentinel error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", sentinel, fmt.Sprintf(format, args...))
}
