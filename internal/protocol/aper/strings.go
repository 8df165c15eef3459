package aper

import (
	"encoding/hex"

	"github.com/rs/zerolog"
)

// BitString holds BitLength bits packed most significant first into Bytes.
type BitString struct {
	Bytes     []byte
	BitLength int
}

// MarshalZerologObject implements zerolog.LogObjectMarshaler.
func (b BitString) MarshalZerologObject(e *zerolog.Event) {
	e.Int("bits", b.BitLength).Str("hex", hex.EncodeToString(b.Bytes))
}

// WriteBitString encodes b under SIZE(lo..hi). hi may be Unbounded.
func (w *Writer) WriteBitString(b BitString, lo, hi int, extensible bool) error {
	n := b.BitLength
	if n < 0 || len(b.Bytes)*8 < n {
		return &LengthError{Length: n, Lower: 0, Upper: len(b.Bytes) * 8}
	}
	inRoot := n >= lo && (hi == Unbounded || n <= hi)
	if extensible {
		w.WriteBool(!inRoot)
		if !inRoot {
			if err := w.writeUnconstrainedLength(n); err != nil {
				return err
			}
			w.Align()
			w.writeBitsFrom(b.Bytes, n)
			return nil
		}
	}
	if !inRoot {
		return &LengthError{Length: n, Lower: lo, Upper: hi}
	}
	if lo == hi {
		if n > 16 {
			w.Align()
		}
		w.writeBitsFrom(b.Bytes, n)
		return nil
	}
	if err := w.WriteLength(n, lo, hi); err != nil {
		return err
	}
	if hi == Unbounded || hi > 16 {
		w.Align()
	}
	w.writeBitsFrom(b.Bytes, n)
	return nil
}

// ReadBitString decodes a BIT STRING under SIZE(lo..hi).
func (r *Reader) ReadBitString(lo, hi int, extensible bool) (BitString, error) {
	if extensible {
		ext, err := r.ReadBool()
		if err != nil {
			return BitString{}, err
		}
		if ext {
			n, err := r.readUnconstrainedLength()
			if err != nil {
				return BitString{}, err
			}
			r.Align()
			return r.readBitsInto(n)
		}
	}
	if lo == hi {
		if lo > 16 {
			r.Align()
		}
		return r.readBitsInto(lo)
	}
	n, err := r.ReadLength(lo, hi)
	if err != nil {
		return BitString{}, err
	}
	if hi == Unbounded || hi > 16 {
		r.Align()
	}
	return r.readBitsInto(n)
}

func (w *Writer) writeBitsFrom(p []byte, n int) {
	for i := 0; i < n; i++ {
		w.writeBit((p[i/8] >> uint(7-i%8)) & 1)
	}
}

func (r *Reader) readBitsInto(n int) (BitString, error) {
	if n > r.Remaining() {
		return BitString{}, ErrBufferExhausted
	}
	out := BitString{Bytes: make([]byte, (n+7)/8), BitLength: n}
	for i := 0; i < n; i++ {
		bit, _ := r.ReadBits(1)
		out.Bytes[i/8] |= byte(bit) << uint(7-i%8)
	}
	return out, nil
}

// WriteOctetString encodes p under SIZE(lo..hi). Fixed sizes up to two octets are not aligned.
func (w *Writer) WriteOctetString(p []byte, lo, hi int, extensible bool) error {
	n := len(p)
	inRoot := n >= lo && (hi == Unbounded || n <= hi)
	if extensible {
		w.WriteBool(!inRoot)
		if !inRoot {
			if err := w.writeUnconstrainedLength(n); err != nil {
				return err
			}
			w.WriteOctets(p)
			return nil
		}
	}
	if !inRoot {
		return &LengthError{Length: n, Lower: lo, Upper: hi}
	}
	if lo == hi {
		if n <= 2 {
			w.writeBitsFrom(p, 8*n)
			return nil
		}
		w.WriteOctets(p)
		return nil
	}
	if err := w.WriteLength(n, lo, hi); err != nil {
		return err
	}
	w.WriteOctets(p)
	return nil
}

// ReadOctetString decodes an OCTET STRING under SIZE(lo..hi).
func (r *Reader) ReadOctetString(lo, hi int, extensible bool) ([]byte, error) {
	if extensible {
		ext, err := r.ReadBool()
		if err != nil {
			return nil, err
		}
		if ext {
			n, err := r.readUnconstrainedLength()
			if err != nil {
				return nil, err
			}
			return r.ReadOctets(n)
		}
	}
	if lo == hi {
		if lo <= 2 {
			b, err := r.readBitsInto(8 * lo)
			return b.Bytes, err
		}
		return r.ReadOctets(lo)
	}
	n, err := r.ReadLength(lo, hi)
	if err != nil {
		return nil, err
	}
	return r.ReadOctets(n)
}
