package aper

import (
	"encoding/hex"

	"github.com/rs/zerolog"
)

// Value is any type with an aligned PER encoding.
type Value interface {
	EncodeAPER(w *Writer) error
	DecodeAPER(r *Reader) error
}

// Marshal encodes v into a fresh, octet-padded buffer.
func Marshal(v Value) ([]byte, error) {
	w := NewWriter()
	if err := v.EncodeAPER(w); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// Unmarshal decodes p into v.
func Unmarshal(p []byte, v Value, opts DecodeOptions) error {
	return v.DecodeAPER(NewReader(p, opts))
}

// WriteOpenType encodes v as a length-prefixed octet span. An empty encoding becomes one zero octet.
func (w *Writer) WriteOpenType(v Value) error {
	p, err := Marshal(v)
	if err != nil {
		return err
	}
	return w.WriteOpenOctets(p)
}

// WriteOpenOctets writes an already-encoded open type span.
func (w *Writer) WriteOpenOctets(p []byte) error {
	if len(p) == 0 {
		p = []byte{0}
	}
	if err := w.writeUnconstrainedLength(len(p)); err != nil {
		return err
	}
	w.WriteOctets(p)
	return nil
}

// ReadOpenType returns the octets of the next open type span.
func (r *Reader) ReadOpenType() ([]byte, error) {
	n, err := r.readUnconstrainedLength()
	if err != nil {
		return nil, err
	}
	return r.ReadOctets(n)
}

// ReadOpenValue decodes the next open type span into v.
func (r *Reader) ReadOpenValue(v Value) error {
	p, err := r.ReadOpenType()
	if err != nil {
		return err
	}
	return v.DecodeAPER(r.Sub(p))
}

// Open is a value carried without interpretation. It round-trips byte for byte.
type Open struct {
	Raw []byte
}

// EncodeAPER writes the raw octets.
func (o *Open) EncodeAPER(w *Writer) error {
	w.WriteOctets(o.Raw)
	return nil
}

// DecodeAPER consumes every remaining octet.
func (o *Open) DecodeAPER(r *Reader) error {
	r.Align()
	p, err := r.ReadOctets(r.Remaining() / 8)
	if err != nil {
		return err
	}
	o.Raw = p
	return nil
}

// MarshalZerologObject implements zerolog.LogObjectMarshaler.
func (o *Open) MarshalZerologObject(e *zerolog.Event) {
	e.Int("len", len(o.Raw)).Str("hex", hex.EncodeToString(o.Raw))
}
