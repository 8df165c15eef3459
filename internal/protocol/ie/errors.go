package ie

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownID        = errors.New("ie: unknown ie id")
	ErrMissingMandatory = errors.New("ie: missing mandatory ie")
	ErrDuplicateIE      = errors.New("ie: duplicate ie")
)

// UnknownIDError reports an IE id the container schema does not declare.
type UnknownIDError struct {
	Schema      string
	ID          uint16
	Criticality Criticality
}

func (e *UnknownIDError) Error() string {
	return fmt.Sprintf("ie: unknown id %d (criticality %s) in %s", e.ID, e.Criticality, e.Schema)
}

func (e *UnknownIDError) Unwrap() error {
	return ErrUnknownID
}

// MissingFieldError lists mandatory IEs absent after decode.
type MissingFieldError struct {
	Schema string
	IDs    []uint16
	Names  []string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("ie: %s missing mandatory %s", e.Schema, strings.Join(e.Names, ","))
}

func (e *MissingFieldError) Unwrap() error {
	return ErrMissingMandatory
}

// ValueError wraps a failure decoding or encoding one IE value.
type ValueError struct {
	ID          uint16
	Name        string
	Criticality Criticality
	Err         error
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("ie: %s (id %d): %v", e.Name, e.ID, e.Err)
}

func (e *ValueError) Unwrap() error {
	return e.Err
}
