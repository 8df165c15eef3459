// Package choice owns CHOICE values: discriminant state, index encoding, and the
// open-type wrapping of extension alternatives.
package choice

import (
	"errors"
	"fmt"

	"github.com/danmuck/nrppa/internal/protocol/aper"
	"github.com/rs/zerolog"
)

var (
	ErrUnknownChoiceID = errors.New("choice: unknown choice index")
	ErrUnset           = errors.New("choice: no alternative selected")
	ErrUnsupported     = errors.New("choice: alternative not modeled")
)

// UnknownChoiceIDError reports an index that selects no declared alternative.
type UnknownChoiceIDError struct {
	Choice    string
	Index     int
	Extension bool
}

func (e *UnknownChoiceIDError) Error() string {
	arm := "root"
	if e.Extension {
		arm = "extension"
	}
	return fmt.Sprintf("choice: %s has no %s alternative %d", e.Choice, arm, e.Index)
}

func (e *UnknownChoiceIDError) Unwrap() error {
	return ErrUnknownChoiceID
}

// Alternative is one arm of a CHOICE. A nil New marks an arm that is declared on the
// wire but not modeled; selecting or decoding it fails with ErrUnsupported.
type Alternative struct {
	Name string
	New  func() aper.Value
}

// Spec describes a CHOICE type.
type Spec struct {
	Name       string
	Root       []Alternative
	Extensible bool
	Additions  []Alternative
}

type State int

const (
	Unset State = iota
	Base
	Extension
	UnknownExtension
)

func (s State) String() string {
	switch s {
	case Unset:
		return "unset"
	case Base:
		return "base"
	case Extension:
		return "extension"
	case UnknownExtension:
		return "unknown-extension"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Choice is a value of a CHOICE type. It owns at most one payload at a time.
type Choice struct {
	spec  *Spec
	state State
	index int
	value aper.Value
}

// New returns an unset choice of type spec.
func New(spec *Spec) *Choice {
	return &Choice{spec: spec}
}

func (c *Choice) Spec() *Spec {
	return c.spec
}

func (c *Choice) State() State {
	return c.state
}

// Index is the selected root or extension index; meaningless while unset.
func (c *Choice) Index() int {
	return c.index
}

// Value returns the current payload, nil while unset.
func (c *Choice) Value() aper.Value {
	return c.value
}

// Name returns the selected alternative name.
func (c *Choice) Name() string {
	switch c.state {
	case Base:
		return c.spec.Root[c.index].Name
	case Extension:
		return c.spec.Additions[c.index].Name
	case UnknownExtension:
		return fmt.Sprintf("extension-%d", c.index)
	default:
		return ""
	}
}

// Reset drops the payload.
func (c *Choice) Reset() {
	c.state = Unset
	c.index = 0
	c.value = nil
}

// Set selects root alternative k, dropping the previous payload, and returns a freshly
// constructed payload for the caller to fill.
func (c *Choice) Set(k int) (aper.Value, error) {
	v, err := construct(c.spec, c.spec.Root, k, false)
	if err != nil {
		return nil, err
	}
	c.state, c.index, c.value = Base, k, v
	return v, nil
}

// SetExtension selects extension addition k.
func (c *Choice) SetExtension(k int) (aper.Value, error) {
	v, err := construct(c.spec, c.spec.Additions, k, true)
	if err != nil {
		return nil, err
	}
	c.state, c.index, c.value = Extension, k, v
	return v, nil
}

// SetValue selects root alternative k with an already built payload.
func (c *Choice) SetValue(k int, v aper.Value) error {
	if k < 0 || k >= len(c.spec.Root) {
		return &UnknownChoiceIDError{Choice: c.spec.Name, Index: k}
	}
	c.Reset()
	c.state, c.index, c.value = Base, k, v
	return nil
}

func construct(spec *Spec, alts []Alternative, k int, ext bool) (aper.Value, error) {
	if k < 0 || k >= len(alts) || (ext && !spec.Extensible) {
		return nil, &UnknownChoiceIDError{Choice: spec.Name, Index: k, Extension: ext}
	}
	if alts[k].New == nil {
		return nil, fmt.Errorf("%w: %s.%s", ErrUnsupported, spec.Name, alts[k].Name)
	}
	return alts[k].New(), nil
}

// EncodeAPER writes the index, then the root payload inline or the extension payload as an open type.
func (c *Choice) EncodeAPER(w *aper.Writer) error {
	switch c.state {
	case Base:
		if err := EncodeIndex(w, c.index, false, len(c.spec.Root), c.spec.Extensible); err != nil {
			return err
		}
		return c.value.EncodeAPER(w)
	case Extension, UnknownExtension:
		if err := EncodeIndex(w, c.index, true, len(c.spec.Root), c.spec.Extensible); err != nil {
			return err
		}
		return w.WriteOpenType(c.value)
	default:
		return fmt.Errorf("%w: %s", ErrUnset, c.spec.Name)
	}
}

// DecodeAPER replaces the current payload with the one read from r. An unrecognized
// extension index becomes UnknownExtension when the reader skips unknown extensions.
func (c *Choice) DecodeAPER(r *aper.Reader) error {
	c.Reset()
	k, ext, err := DecodeIndex(r, len(c.spec.Root), c.spec.Extensible)
	if err != nil {
		if errors.Is(err, aper.ErrOutOfRange) {
			return &UnknownChoiceIDError{Choice: c.spec.Name, Index: k}
		}
		return err
	}
	if !ext {
		v, err := construct(c.spec, c.spec.Root, k, false)
		if err != nil {
			return err
		}
		if err := v.DecodeAPER(r); err != nil {
			return err
		}
		c.state, c.index, c.value = Base, k, v
		return nil
	}
	if k >= len(c.spec.Additions) {
		if !r.Options().SkipUnknownExtensions {
			return &UnknownChoiceIDError{Choice: c.spec.Name, Index: k, Extension: true}
		}
		raw, err := r.ReadOpenType()
		if err != nil {
			return err
		}
		c.state, c.index, c.value = UnknownExtension, k, &aper.Open{Raw: raw}
		return nil
	}
	v, err := construct(c.spec, c.spec.Additions, k, true)
	if err != nil {
		return err
	}
	if err := r.ReadOpenValue(v); err != nil {
		return err
	}
	c.state, c.index, c.value = Extension, k, v
	return nil
}

// MarshalZerologObject logs the selected alternative and its payload.
func (c *Choice) MarshalZerologObject(e *zerolog.Event) {
	e.Str("choice", c.Name())
	if m, ok := c.value.(zerolog.LogObjectMarshaler); ok {
		e.Object("value", m)
	}
}

// EncodeIndex writes a CHOICE discriminant: the extension bit when the type is
// extensible, then a constrained root index or a normally small extension index.
func EncodeIndex(w *aper.Writer, index int, extension bool, rootCount int, extensible bool) error {
	if extensible {
		w.WriteBool(extension)
		if extension {
			return w.WriteNormallySmall(index)
		}
	} else if extension {
		return ErrUnknownChoiceID
	}
	return w.WriteInteger(int64(index), aper.Range(0, int64(rootCount-1)))
}

// DecodeIndex reads a CHOICE discriminant. A root index outside [0, rootCount) fails
// with aper.ErrOutOfRange and still reports the index read.
func DecodeIndex(r *aper.Reader, rootCount int, extensible bool) (int, bool, error) {
	if extensible {
		ext, err := r.ReadBool()
		if err != nil {
			return 0, false, err
		}
		if ext {
			k, err := r.ReadNormallySmall()
			return k, true, err
		}
	}
	k, err := r.ReadInteger(aper.Range(0, int64(rootCount-1)))
	if err != nil {
		var rangeErr *aper.RangeError
		if errors.As(err, &rangeErr) {
			return int(rangeErr.Value), false, err
		}
		return 0, false, err
	}
	return int(k), false, nil
}
