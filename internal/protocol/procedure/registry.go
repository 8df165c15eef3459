package procedure

import (
	"errors"
	"fmt"
	"sort"

	"github.com/danmuck/nrppa/internal/protocol/ie"
)

var (
	ErrDuplicateCode     = errors.New("procedure: duplicate code")
	ErrDuplicateName     = errors.New("procedure: duplicate name")
	ErrMissingInitiating = errors.New("procedure: missing initiating message")
	ErrUnknownProcedure  = errors.New("procedure: unknown procedure code")
	ErrNoSuchMessage     = errors.New("procedure: procedure has no message of this kind")
)

// Registry is an immutable code <-> descriptor table.
type Registry struct {
	byCode map[Code]Descriptor
	byName map[string]Code
	codes  []Code
}

// NewRegistry validates the table and indexes it by code and name.
func NewRegistry(descs ...Descriptor) (*Registry, error) {
	r := &Registry{
		byCode: make(map[Code]Descriptor, len(descs)),
		byName: make(map[string]Code, len(descs)),
	}
	for _, d := range descs {
		if _, dup := r.byCode[d.Code]; dup {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateCode, d.Code)
		}
		if _, dup := r.byName[d.Name]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateName, d.Name)
		}
		if d.Initiating == nil || d.Initiating.New == nil {
			return nil, fmt.Errorf("%w: %s", ErrMissingInitiating, d.Name)
		}
		r.byCode[d.Code] = d
		r.byName[d.Name] = d.Code
		r.codes = append(r.codes, d.Code)
	}
	sort.Slice(r.codes, func(i, j int) bool { return r.codes[i] < r.codes[j] })
	return r, nil
}

// Len is the number of procedures.
func (r *Registry) Len() int {
	return len(r.codes)
}

// CodeAt returns the i-th code in ascending order.
func (r *Registry) CodeAt(i int) (Code, bool) {
	if i < 0 || i >= len(r.codes) {
		return 0, false
	}
	return r.codes[i], true
}

// Valid reports whether code names a procedure.
func (r *Registry) Valid(code Code) bool {
	_, ok := r.byCode[code]
	return ok
}

// Lookup returns the descriptor for code.
func (r *Registry) Lookup(code Code) (Descriptor, bool) {
	d, ok := r.byCode[code]
	return d, ok
}

// ByName returns the descriptor with the given procedure name.
func (r *Registry) ByName(name string) (Descriptor, bool) {
	code, ok := r.byName[name]
	if !ok {
		return Descriptor{}, false
	}
	return r.byCode[code], true
}

// Criticality returns the procedure criticality of code.
func (r *Registry) Criticality(code Code) (ie.Criticality, error) {
	d, ok := r.byCode[code]
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrUnknownProcedure, code)
	}
	return d.Criticality, nil
}

// Schema returns the message schema of code for kind.
func (r *Registry) Schema(code Code, kind Kind) (*MessageSchema, error) {
	d, ok := r.byCode[code]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownProcedure, code)
	}
	m := d.Message(kind)
	if m == nil {
		return nil, fmt.Errorf("%w: %s %s", ErrNoSuchMessage, d.Name, kind)
	}
	return m, nil
}

// Descriptors returns every descriptor ordered by code.
func (r *Registry) Descriptors() []Descriptor {
	out := make([]Descriptor, 0, len(r.codes))
	for _, code := range r.codes {
		out = append(out, r.byCode[code])
	}
	return out
}
