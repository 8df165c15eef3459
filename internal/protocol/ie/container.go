package ie

import (
	"encoding/hex"
	"fmt"

	"github.com/danmuck/nrppa/internal/protocol/aper"
	"github.com/rs/zerolog"
)

// Entry is one IE as carried on the wire.
type Entry struct {
	ID          uint16
	Criticality Criticality
	Value       aper.Value
	// Unknown marks an entry kept raw because the schema does not declare its id.
	Unknown bool
}

// Container is a ProtocolIE-Container bound to one schema. Entry order is preserved.
type Container struct {
	schema  *Schema
	entries []Entry
}

// NewContainer returns an empty container for s.
func NewContainer(s *Schema) *Container {
	return &Container{schema: s}
}

func (c *Container) Schema() *Schema {
	return c.schema
}

// Set stores v under id with the schema criticality, replacing any previous value.
func (c *Container) Set(id uint16, v aper.Value) error {
	spec, ok := c.schema.Lookup(id)
	if !ok {
		return &UnknownIDError{Schema: c.schema.name, ID: id}
	}
	for i := range c.entries {
		if c.entries[i].ID == id {
			c.entries[i].Value = v
			c.entries[i].Criticality = spec.Criticality
			c.entries[i].Unknown = false
			return nil
		}
	}
	c.entries = append(c.entries, Entry{ID: id, Criticality: spec.Criticality, Value: v})
	return nil
}

// MustSet is Set for ids known to be in the schema.
func (c *Container) MustSet(id uint16, v aper.Value) {
	if err := c.Set(id, v); err != nil {
		panic(err)
	}
}

func (c *Container) Get(id uint16) (aper.Value, bool) {
	for _, e := range c.entries {
		if e.ID == id && !e.Unknown {
			return e.Value, true
		}
	}
	return nil, false
}

// Get returns the value under id as T.
func Get[T aper.Value](c *Container, id uint16) (T, bool) {
	var zero T
	v, ok := c.Get(id)
	if !ok {
		return zero, false
	}
	typed, ok := v.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}

func (c *Container) Has(id uint16) bool {
	_, ok := c.Get(id)
	return ok
}

func (c *Container) Remove(id uint16) {
	out := c.entries[:0]
	for _, e := range c.entries {
		if e.ID != id {
			out = append(out, e)
		}
	}
	c.entries = out
}

// Entries returns every entry in wire order, unknown ones included.
func (c *Container) Entries() []Entry {
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Unknown returns the entries that were skipped as undeclared during decode.
func (c *Container) Unknown() []Entry {
	var out []Entry
	for _, e := range c.entries {
		if e.Unknown {
			out = append(out, e)
		}
	}
	return out
}

// Validate checks that every mandatory IE is present.
func (c *Container) Validate() error {
	var missing *MissingFieldError
	for _, spec := range c.schema.specs {
		if spec.Presence != Mandatory || c.Has(spec.ID) {
			continue
		}
		if missing == nil {
			missing = &MissingFieldError{Schema: c.schema.name}
		}
		missing.IDs = append(missing.IDs, spec.ID)
		missing.Names = append(missing.Names, spec.Name)
	}
	if missing != nil {
		return missing
	}
	return nil
}

// EncodeAPER writes the count, then id, criticality and open-type value for each entry.
func (c *Container) EncodeAPER(w *aper.Writer) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := w.WriteLength(len(c.entries), 0, maxProtocolIEs); err != nil {
		return err
	}
	for _, e := range c.entries {
		if err := writeID(w, e.ID); err != nil {
			return err
		}
		crit := e.Criticality
		if err := crit.EncodeAPER(w); err != nil {
			return err
		}
		if err := w.WriteOpenType(e.Value); err != nil {
			return &ValueError{ID: e.ID, Name: c.nameOf(e.ID), Criticality: e.Criticality, Err: err}
		}
	}
	return nil
}

// DecodeAPER replaces the container contents with the entries read from r.
func (c *Container) DecodeAPER(r *aper.Reader) error {
	n, err := r.ReadLength(0, maxProtocolIEs)
	if err != nil {
		return err
	}
	c.entries = make([]Entry, 0, n)
	remaining := c.schema.mandatoryCount()
	seen := make(map[uint16]struct{}, n)
	for i := 0; i < n; i++ {
		id, err := readID(r)
		if err != nil {
			return err
		}
		var crit Criticality
		if err := crit.DecodeAPER(r); err != nil {
			return err
		}
		raw, err := r.ReadOpenType()
		if err != nil {
			return err
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: id %d in %s", ErrDuplicateIE, id, c.schema.name)
		}
		seen[id] = struct{}{}

		spec, ok := c.schema.Lookup(id)
		if !ok {
			if r.Options().SkipUnknownIEs && crit != Reject {
				c.entries = append(c.entries, Entry{ID: id, Criticality: crit, Value: &aper.Open{Raw: raw}, Unknown: true})
				continue
			}
			return &UnknownIDError{Schema: c.schema.name, ID: id, Criticality: crit}
		}
		v := spec.New()
		if err := v.DecodeAPER(r.Sub(raw)); err != nil {
			return &ValueError{ID: id, Name: spec.Name, Criticality: crit, Err: err}
		}
		c.entries = append(c.entries, Entry{ID: id, Criticality: crit, Value: v})
		if spec.Presence == Mandatory {
			remaining--
		}
	}
	if remaining != 0 {
		return c.Validate()
	}
	return nil
}

func (c *Container) nameOf(id uint16) string {
	if spec, ok := c.schema.Lookup(id); ok {
		return spec.Name
	}
	return fmt.Sprintf("id-%d", id)
}

// MarshalZerologObject dumps each IE by name.
func (c *Container) MarshalZerologObject(e *zerolog.Event) {
	for _, entry := range c.entries {
		logValue(e, c.nameOf(entry.ID), entry.Value)
	}
}

func logValue(e *zerolog.Event, key string, v aper.Value) {
	if m, ok := v.(zerolog.LogObjectMarshaler); ok {
		e.Object(key, m)
		return
	}
	if raw, err := aper.Marshal(v); err == nil {
		e.Str(key, hex.EncodeToString(raw))
		return
	}
	e.Interface(key, v)
}
