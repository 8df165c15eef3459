package ie

import (
	"github.com/danmuck/nrppa/internal/protocol/aper"
)

// Field is one component of a SEQUENCE in declared order.
type Field struct {
	Name     string
	Optional bool
	// Present is read for optional fields on encode and set on decode.
	Present bool
	Value   aper.Value
}

// Extensions holds the extension additions of an extensible SEQUENCE as open type
// spans in declaration order. A nil span is an absent addition.
type Extensions [][]byte

func (x Extensions) any() bool {
	for _, p := range x {
		if p != nil {
			return true
		}
	}
	return false
}

// EncodeSequence writes the extension bit (when extensible), the presence bitmap of the
// optional fields, each present value, then the extension additions.
func EncodeSequence(w *aper.Writer, extensible bool, fields []Field, ext Extensions) error {
	hasExt := extensible && ext.any()
	if extensible {
		w.WriteBool(hasExt)
	}
	for _, f := range fields {
		if f.Optional {
			w.WriteBool(f.Present)
		}
	}
	for _, f := range fields {
		if f.Optional && !f.Present {
			continue
		}
		if err := f.Value.EncodeAPER(w); err != nil {
			return err
		}
	}
	if !hasExt {
		return nil
	}
	if err := w.WriteNormallySmallLength(len(ext)); err != nil {
		return err
	}
	for _, p := range ext {
		w.WriteBool(p != nil)
	}
	for _, p := range ext {
		if p == nil {
			continue
		}
		if err := w.WriteOpenOctets(p); err != nil {
			return err
		}
	}
	return nil
}

// DecodeSequence reads a SEQUENCE into fields. Values must be allocated by the caller;
// Present is set on every optional field. Extension additions are returned raw.
func DecodeSequence(r *aper.Reader, extensible bool, fields []Field) (Extensions, error) {
	hasExt := false
	if extensible {
		b, err := r.ReadBool()
		if err != nil {
			return nil, err
		}
		hasExt = b
	}
	for i := range fields {
		if !fields[i].Optional {
			fields[i].Present = true
			continue
		}
		b, err := r.ReadBool()
		if err != nil {
			return nil, err
		}
		fields[i].Present = b
	}
	for _, f := range fields {
		if !f.Present {
			continue
		}
		if err := f.Value.DecodeAPER(r); err != nil {
			return nil, err
		}
	}
	if !hasExt {
		return nil, nil
	}
	n, err := r.ReadNormallySmallLength()
	if err != nil {
		return nil, err
	}
	present := make([]bool, n)
	for i := range present {
		if present[i], err = r.ReadBool(); err != nil {
			return nil, err
		}
	}
	ext := make(Extensions, n)
	for i := range present {
		if !present[i] {
			continue
		}
		if ext[i], err = r.ReadOpenType(); err != nil {
			return nil, err
		}
	}
	return ext, nil
}

// Message is the shape shared by every NRPPa message: SEQUENCE { protocolIEs, ... }.
type Message struct {
	*Container
	Extensions Extensions
}

// NewMessage returns an empty message bound to s.
func NewMessage(s *Schema) *Message {
	return &Message{Container: NewContainer(s)}
}

func (m *Message) EncodeAPER(w *aper.Writer) error {
	return EncodeSequence(w, true, []Field{{Name: "protocolIEs", Value: m.Container}}, m.Extensions)
}

func (m *Message) DecodeAPER(r *aper.Reader) error {
	ext, err := DecodeSequence(r, true, []Field{{Name: "protocolIEs", Value: m.Container}})
	if err != nil {
		return err
	}
	m.Extensions = ext
	return nil
}

// EncodeList writes a SEQUENCE (SIZE(lo..hi)) OF items.
func EncodeList[T any, PT interface {
	*T
	aper.Value
}](w *aper.Writer, items []T, lo, hi int) error {
	if err := w.WriteLength(len(items), lo, hi); err != nil {
		return err
	}
	for i := range items {
		if err := PT(&items[i]).EncodeAPER(w); err != nil {
			return err
		}
	}
	return nil
}

// DecodeList reads a SEQUENCE (SIZE(lo..hi)) OF T.
func DecodeList[T any, PT interface {
	*T
	aper.Value
}](r *aper.Reader, lo, hi int) ([]T, error) {
	n, err := r.ReadLength(lo, hi)
	if err != nil {
		return nil, err
	}
	items := make([]T, n)
	for i := range items {
		if err := PT(&items[i]).DecodeAPER(r); err != nil {
			return nil, err
		}
	}
	return items, nil
}
