package core

import "errors"

var (
	// ErrRange is matched by every *RangeError.
	ErrRange = errors.New("value out of range")

	// ErrUnsupported is returned when the board lacks a requested capability.
	ErrUnsupported = errors.New("not supported by this board")
)

// RangeError reports a rejected setter argument. Hardware is left untouched.
type RangeError struct {
	Field string
	Value int64
	Min   int64
	Max   int64
}

func (e *RangeError) Error() string {
	return e.Field + " " + itoa(int(e.Value)) + " outside " +
		itoa(int(e.Min)) + ".." + itoa(int(e.Max))
}

// Is lets errors.Is(err, ErrRange) match any RangeError.
func (e *RangeError) Is(target error) bool {
	return target == ErrRange
}

func checkRange(field string, v, min, max int64) error {
	if v < min || v > max {
		return &RangeError{Field: field, Value: v, Min: min, Max: max}
	}
	return nil
}
