// Package dtype is the registry of element types the engine can operate on.
package dtype

import (
	"github.com/x448/float16"
)

// DataType identifies an element type at run time.
type DataType int

// Supported element types.
const (
	Invalid DataType = iota
	Float64
	Float32
	Int64
	Int32
	Bool
	Float16
	IndexPairs
)

// Element is the constraint satisfied by every supported element type.
type Element interface {
	~float64 | ~float32 | ~int64 | ~int32 | ~bool | float16.Float16 | IndexPair
}

// IndexPair is the [Begin, End) range of one bin within a buffer.
type IndexPair struct {
	Begin int
	End   int
}

// Len returns the number of elements in the range.
func (p IndexPair) Len() int { return p.End - p.Begin }

// Size returns the byte size of one element.
func (dt DataType) Size() int {
	switch dt {
	case Float64, Int64:
		return 8
	case Float32, Int32:
		return 4
	case Float16:
		return 2
	case Bool:
		return 1
	case IndexPairs:
		return 16
	default:
		return 0
	}
}

// String returns the dtype name.
func (dt DataType) String() string {
	switch dt {
	case Float64:
		return "float64"
	case Float32:
		return "float32"
	case Int64:
		return "int64"
	case Int32:
		return "int32"
	case Bool:
		return "bool"
	case Float16:
		return "float16"
	case IndexPairs:
		return "index_pair"
	default:
		return "invalid"
	}
}

// Of returns the DataType of T, or Invalid if T is not a registered type.
func Of[T any]() DataType {
	var zero T
	switch any(zero).(type) {
	case float64:
		return Float64
	case float32:
		return Float32
	case int64:
		return Int64
	case int32:
		return Int32
	case bool:
		return Bool
	case float16.Float16:
		return Float16
	case IndexPair:
		return IndexPairs
	default:
		return Invalid
	}
}

// CanHaveVariance reports whether elements of dt may carry a variance.
func CanHaveVariance(dt DataType) bool {
	switch dt {
	case Float64, Float32, Float16:
		return true
	default:
		return false
	}
}
