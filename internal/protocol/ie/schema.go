package ie

import (
	"fmt"

	"github.com/danmuck/nrppa/internal/protocol/aper"
)

// Spec declares one IE a container may carry.
type Spec struct {
	ID          uint16
	Name        string
	Criticality Criticality
	Presence    Presence
	New         func() aper.Value
}

// Schema is the fixed IE table of one message type.
type Schema struct {
	name  string
	specs []Spec
	byID  map[uint16]int
}

// NewSchema builds a schema. Duplicate ids or nil constructors are programming errors and panic.
func NewSchema(name string, specs ...Spec) *Schema {
	s := &Schema{name: name, specs: specs, byID: make(map[uint16]int, len(specs))}
	for i, spec := range specs {
		if _, dup := s.byID[spec.ID]; dup {
			panic(fmt.Sprintf("ie: schema %s declares id %d twice", name, spec.ID))
		}
		if spec.New == nil {
			panic(fmt.Sprintf("ie: schema %s id %d has no constructor", name, spec.ID))
		}
		s.byID[spec.ID] = i
	}
	return s
}

func (s *Schema) Name() string {
	return s.name
}

// Lookup returns the spec for id.
func (s *Schema) Lookup(id uint16) (Spec, bool) {
	i, ok := s.byID[id]
	if !ok {
		return Spec{}, false
	}
	return s.specs[i], true
}

// Specs returns the declared IEs in declaration order.
func (s *Schema) Specs() []Spec {
	out := make([]Spec, len(s.specs))
	copy(out, s.specs)
	return out
}

func (s *Schema) mandatoryCount() int {
	n := 0
	for _, spec := range s.specs {
		if spec.Presence == Mandatory {
			n++
		}
	}
	return n
}
