package aper

import (
	"fmt"
	"math/bits"
)

// Constraint bounds an INTEGER. Unbounded marks a semi-constrained type (no upper bound).
type Constraint struct {
	Lower      int64
	Upper      int64
	Extensible bool
	Unbounded  bool
}

// Range returns the non-extensible constraint [lo..hi].
func Range(lo, hi int64) Constraint {
	return Constraint{Lower: lo, Upper: hi}
}

// Extended returns c with an extension marker.
func (c Constraint) Extended() Constraint {
	c.Extensible = true
	return c
}

// Contains reports whether v lies in the extension root.
func (c Constraint) Contains(v int64) bool {
	if v < c.Lower {
		return false
	}
	return c.Unbounded || v <= c.Upper
}

func (c Constraint) String() string {
	s := fmt.Sprintf("[%d..%d]", c.Lower, c.Upper)
	if c.Unbounded {
		s = fmt.Sprintf("[%d..MAX]", c.Lower)
	}
	if c.Extensible {
		s += ",..."
	}
	return s
}

func (c Constraint) span() uint64 {
	return uint64(c.Upper) - uint64(c.Lower) + 1
}

// WriteInteger encodes v under c. A value outside the root fails with *RangeError unless
// c is extensible, in which case it takes the unconstrained escape path.
func (w *Writer) WriteInteger(v int64, c Constraint) error {
	inRoot := c.Contains(v)
	if c.Extensible {
		w.WriteBool(!inRoot)
		if !inRoot {
			return w.writeUnconstrained(v)
		}
	} else if !inRoot {
		return &RangeError{Value: v, Constraint: c}
	}
	if c.Unbounded {
		return w.writeSemiConstrained(uint64(v - c.Lower))
	}
	w.writeConstrainedWhole(uint64(v-c.Lower), c.span())
	return nil
}

// ReadInteger decodes an INTEGER encoded under c.
func (r *Reader) ReadInteger(c Constraint) (int64, error) {
	if c.Extensible {
		ext, err := r.ReadBool()
		if err != nil {
			return 0, err
		}
		if ext {
			return r.readUnconstrained()
		}
	}
	if c.Unbounded {
		off, err := r.readSemiConstrained()
		if err != nil {
			return 0, err
		}
		return c.Lower + int64(off), nil
	}
	off, err := r.readConstrainedWhole(c.span())
	if err != nil {
		return 0, err
	}
	v := c.Lower + int64(off)
	if off >= c.span() {
		return 0, &RangeError{Value: v, Constraint: c}
	}
	return v, nil
}

// writeConstrainedWhole encodes off in [0, span) using the aligned-variant widths.
func (w *Writer) writeConstrainedWhole(off, span uint64) {
	switch {
	case span <= 1:
	case span <= 255:
		w.WriteBits(off, bits.Len64(span-1))
	case span == 256:
		w.Align()
		w.WriteBits(off, 8)
	case span <= 65536:
		w.Align()
		w.WriteBits(off, 16)
	default:
		n := octetsFor(off)
		w.writeConstrainedWhole(uint64(n-1), uint64(octetsFor(span-1)))
		w.Align()
		w.WriteBits(off, 8*n)
	}
}

func (r *Reader) readConstrainedWhole(span uint64) (uint64, error) {
	switch {
	case span <= 1:
		return 0, nil
	case span <= 255:
		return r.ReadBits(bits.Len64(span - 1))
	case span == 256:
		r.Align()
		return r.ReadBits(8)
	case span <= 65536:
		r.Align()
		return r.ReadBits(16)
	default:
		n, err := r.readConstrainedWhole(uint64(octetsFor(span - 1)))
		if err != nil {
			return 0, err
		}
		r.Align()
		return r.ReadBits(8 * (int(n) + 1))
	}
}

func (w *Writer) writeSemiConstrained(off uint64) error {
	n := octetsFor(off)
	if err := w.writeUnconstrainedLength(n); err != nil {
		return err
	}
	w.Align()
	w.WriteBits(off, 8*n)
	return nil
}

func (r *Reader) readSemiConstrained() (uint64, error) {
	n, err := r.readUnconstrainedLength()
	if err != nil {
		return 0, err
	}
	if n < 1 || n > 8 {
		return 0, &LengthError{Length: n, Lower: 1, Upper: 8}
	}
	r.Align()
	return r.ReadBits(8 * n)
}

func (w *Writer) writeUnconstrained(v int64) error {
	n := signedOctetsFor(v)
	if err := w.writeUnconstrainedLength(n); err != nil {
		return err
	}
	w.Align()
	w.WriteBits(uint64(v), 8*n)
	return nil
}

func (r *Reader) readUnconstrained() (int64, error) {
	n, err := r.readUnconstrainedLength()
	if err != nil {
		return 0, err
	}
	if n < 1 || n > 8 {
		return 0, &LengthError{Length: n, Lower: 1, Upper: 8}
	}
	r.Align()
	raw, err := r.ReadBits(8 * n)
	if err != nil {
		return 0, err
	}
	shift := uint(64 - 8*n)
	return int64(raw<<shift) >> shift, nil
}

// WriteEnumerated encodes the index v of an ENUMERATED type with root alternatives.
func (w *Writer) WriteEnumerated(v, root int, extensible bool) error {
	if v < 0 || (!extensible && v >= root) {
		return &RangeError{Value: int64(v), Constraint: Range(0, int64(root-1))}
	}
	if extensible {
		w.WriteBool(v >= root)
		if v >= root {
			return w.WriteNormallySmall(v - root)
		}
	}
	w.writeConstrainedWhole(uint64(v), uint64(root))
	return nil
}

// ReadEnumerated decodes an ENUMERATED index. Extension values are returned as root+n.
func (r *Reader) ReadEnumerated(root int, extensible bool) (int, error) {
	if extensible {
		ext, err := r.ReadBool()
		if err != nil {
			return 0, err
		}
		if ext {
			n, err := r.ReadNormallySmall()
			if err != nil {
				return 0, err
			}
			return root + n, nil
		}
	}
	v, err := r.readConstrainedWhole(uint64(root))
	if err != nil {
		return 0, err
	}
	if v >= uint64(root) {
		return 0, &RangeError{Value: int64(v), Constraint: Range(0, int64(root-1))}
	}
	return int(v), nil
}

// WriteNormallySmall encodes a normally small non-negative whole number.
func (w *Writer) WriteNormallySmall(n int) error {
	if n < 0 {
		return &RangeError{Value: int64(n), Constraint: Constraint{Unbounded: true}}
	}
	if n <= 63 {
		w.WriteBool(false)
		w.WriteBits(uint64(n), 6)
		return nil
	}
	w.WriteBool(true)
	return w.writeSemiConstrained(uint64(n))
}

// ReadNormallySmall decodes a normally small non-negative whole number.
func (r *Reader) ReadNormallySmall() (int, error) {
	large, err := r.ReadBool()
	if err != nil {
		return 0, err
	}
	if !large {
		v, err := r.ReadBits(6)
		return int(v), err
	}
	v, err := r.readSemiConstrained()
	if err != nil {
		return 0, err
	}
	if v > uint64(maxInt) {
		return 0, ErrOutOfRange
	}
	return int(v), nil
}

// WriteBoolean encodes a BOOLEAN as a single bit.
func (w *Writer) WriteBoolean(b bool) {
	w.WriteBool(b)
}

// ReadBoolean decodes a BOOLEAN.
func (r *Reader) ReadBoolean() (bool, error) {
	return r.ReadBool()
}

const maxInt = int(^uint(0) >> 1)

func octetsFor(v uint64) int {
	n := (bits.Len64(v) + 7) / 8
	if n == 0 {
		return 1
	}
	return n
}

func signedOctetsFor(v int64) int {
	for n := 1; n < 8; n++ {
		lim := int64(1) << uint(8*n-1)
		if v >= -lim && v < lim {
			return n
		}
	}
	return 8
}
