package aper

// Writer is a sequential bit writer. Bits are packed most significant first.
type Writer struct {
	buf  []byte
	bits int
}

// NewWriter returns an empty writer.
func NewWriter() *Writer {
	return &Writer{buf: make([]byte, 0, 64)}
}

// WriteBits appends the low n bits of v, most significant first. n must be in [0,64].
func (w *Writer) WriteBits(v uint64, n int) {
	for i := n - 1; i >= 0; i-- {
		w.writeBit(byte(v>>uint(i)) & 1)
	}
}

// WriteBool appends one bit.
func (w *Writer) WriteBool(b bool) {
	if b {
		w.writeBit(1)
		return
	}
	w.writeBit(0)
}

func (w *Writer) writeBit(b byte) {
	if w.bits%8 == 0 {
		w.buf = append(w.buf, 0)
	}
	if b != 0 {
		w.buf[len(w.buf)-1] |= 0x80 >> uint(w.bits%8)
	}
	w.bits++
}

// Align pads with zero bits up to the next octet boundary.
func (w *Writer) Align() {
	if r := w.bits % 8; r != 0 {
		w.bits += 8 - r
	}
}

// WriteOctets aligns and appends p verbatim.
func (w *Writer) WriteOctets(p []byte) {
	w.Align()
	w.buf = append(w.buf, p...)
	w.bits += 8 * len(p)
}

// BitLen returns the number of bits written so far.
func (w *Writer) BitLen() int {
	return w.bits
}

// Bytes returns the encoding padded to whole octets. The slice aliases the writer.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// DecodeOptions tune how lenient a Reader is about content it cannot interpret.
type DecodeOptions struct {
	// SkipUnknownExtensions decodes an unrecognized CHOICE extension index to an
	// unknown-extension sentinel instead of failing.
	SkipUnknownExtensions bool
	// SkipUnknownIEs keeps unrecognized IEs whose criticality is not reject as raw
	// entries instead of aborting the container.
	SkipUnknownIEs bool
}

// Reader is a sequential bit reader over a caller-owned buffer.
type Reader struct {
	buf  []byte
	off  int
	opts DecodeOptions
}

// NewReader returns a reader positioned at the first bit of buf.
func NewReader(buf []byte, opts DecodeOptions) *Reader {
	return &Reader{buf: buf, opts: opts}
}

// Options returns the decode options the reader was built with.
func (r *Reader) Options() DecodeOptions {
	return r.opts
}

// Sub returns a reader over buf that inherits r's options.
func (r *Reader) Sub(buf []byte) *Reader {
	return NewReader(buf, r.opts)
}

// Remaining returns the number of unread bits.
func (r *Reader) Remaining() int {
	return len(r.buf)*8 - r.off
}

// Offset returns the current bit offset.
func (r *Reader) Offset() int {
	return r.off
}

// ReadBits reads n bits, most significant first. n must be in [0,64].
func (r *Reader) ReadBits(n int) (uint64, error) {
	if n > r.Remaining() {
		return 0, ErrBufferExhausted
	}
	var v uint64
	for i := 0; i < n; i++ {
		bit := (r.buf[r.off/8] >> uint(7-r.off%8)) & 1
		v = v<<1 | uint64(bit)
		r.off++
	}
	return v, nil
}

// ReadBool reads one bit.
func (r *Reader) ReadBool() (bool, error) {
	v, err := r.ReadBits(1)
	return v == 1, err
}

// Align skips to the next octet boundary.
func (r *Reader) Align() {
	if rem := r.off % 8; rem != 0 {
		r.off += 8 - rem
	}
}

// ReadOctets aligns and returns a copy of the next n octets.
func (r *Reader) ReadOctets(n int) ([]byte, error) {
	if n < 0 {
		return nil, ErrInvalidLength
	}
	r.Align()
	if n*8 > r.Remaining() {
		return nil, ErrBufferExhausted
	}
	start := r.off / 8
	out := make([]byte, n)
	copy(out, r.buf[start:start+n])
	r.off += 8 * n
	return out, nil
}
