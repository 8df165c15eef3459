package aper

// Unbounded marks a size constraint with no upper bound.
const Unbounded = -1

// WriteLength encodes a length determinant n bounded by [lo..hi]. hi may be Unbounded.
func (w *Writer) WriteLength(n, lo, hi int) error {
	if n < lo || (hi != Unbounded && n > hi) {
		return &LengthError{Length: n, Lower: lo, Upper: hi}
	}
	if hi == lo {
		return nil
	}
	if hi != Unbounded && hi < 65536 {
		w.writeConstrainedWhole(uint64(n-lo), uint64(hi-lo+1))
		return nil
	}
	return w.writeUnconstrainedLength(n)
}

// ReadLength decodes a length determinant bounded by [lo..hi].
func (r *Reader) ReadLength(lo, hi int) (int, error) {
	if hi == lo {
		return lo, nil
	}
	var n int
	if hi != Unbounded && hi < 65536 {
		off, err := r.readConstrainedWhole(uint64(hi - lo + 1))
		if err != nil {
			return 0, err
		}
		n = lo + int(off)
	} else {
		v, err := r.readUnconstrainedLength()
		if err != nil {
			return 0, err
		}
		n = v
	}
	if n < lo || (hi != Unbounded && n > hi) {
		return 0, &LengthError{Length: n, Lower: lo, Upper: hi}
	}
	return n, nil
}

func (w *Writer) writeUnconstrainedLength(n int) error {
	w.Align()
	switch {
	case n < 0:
		return &LengthError{Length: n, Lower: 0, Upper: Unbounded}
	case n < 128:
		w.WriteBits(uint64(n), 8)
	case n < 16384:
		w.WriteBits(0x8000|uint64(n), 16)
	default:
		return ErrFragmented
	}
	return nil
}

func (r *Reader) readUnconstrainedLength() (int, error) {
	r.Align()
	first, err := r.ReadBits(8)
	if err != nil {
		return 0, err
	}
	switch {
	case first&0x80 == 0:
		return int(first), nil
	case first&0xc0 == 0x80:
		second, err := r.ReadBits(8)
		if err != nil {
			return 0, err
		}
		return int(first&0x3f)<<8 | int(second), nil
	default:
		return 0, ErrFragmented
	}
}

// WriteNormallySmallLength encodes a normally small length (n >= 1), as used for the
// extension-additions bitmap.
func (w *Writer) WriteNormallySmallLength(n int) error {
	if n < 1 {
		return &LengthError{Length: n, Lower: 1, Upper: Unbounded}
	}
	if n <= 64 {
		w.WriteBool(false)
		w.WriteBits(uint64(n-1), 6)
		return nil
	}
	w.WriteBool(true)
	return w.writeUnconstrainedLength(n)
}

// ReadNormallySmallLength decodes a normally small length.
func (r *Reader) ReadNormallySmallLength() (int, error) {
	large, err := r.ReadBool()
	if err != nil {
		return 0, err
	}
	if !large {
		v, err := r.ReadBits(6)
		return int(v) + 1, err
	}
	return r.readUnconstrainedLength()
}
