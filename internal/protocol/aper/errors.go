package aper

import (
	"errors"
	"fmt"
)

var (
	ErrOutOfRange      = errors.New("aper: value out of range")
	ErrBufferExhausted = errors.New("aper: buffer exhausted")
	ErrInvalidLength   = errors.New("aper: invalid length")
)

// ErrFragmented reports a length that would need X.691 fragmentation.
var ErrFragmented = fmt.Errorf("%w: fragmentation not supported", ErrInvalidLength)

// RangeError reports a value that does not fit its constraint.
type RangeError struct {
	Value      int64
	Constraint Constraint
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("aper: value %d outside %s", e.Value, e.Constraint)
}

func (e *RangeError) Unwrap() error {
	return ErrOutOfRange
}

// LengthError reports a count that does not fit its size bounds.
type LengthError struct {
	Length int
	Lower  int
	Upper  int
}

func (e *LengthError) Error() string {
	if e.Upper == Unbounded {
		return fmt.Sprintf("aper: length %d below lower bound %d", e.Length, e.Lower)
	}
	return fmt.Sprintf("aper: length %d outside [%d..%d]", e.Length, e.Lower, e.Upper)
}

func (e *LengthError) Unwrap() error {
	return ErrInvalidLength
}
