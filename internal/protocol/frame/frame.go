// Package frame delimits NRPPa PDUs on a byte stream. Each frame carries the
// route key the PDU belongs to so replies can be delivered to the same peer.
package frame

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const (
	Magic          uint32 = 0x4E525050 // "NRPP"
	Version        uint16 = 1
	FixedHeaderLen uint16 = 24

	// FlagIsResponse marks frames sent by the CU-CP.
	FlagIsResponse uint16 = 0x01
)

var (
	ErrShortHeader       = errors.New("frame: short fixed header")
	ErrBadMagic          = errors.New("frame: bad magic")
	ErrUnsupportedVer    = errors.New("frame: unsupported version")
	ErrHeaderLenTooSmall = errors.New("frame: header_len smaller than fixed header")
	ErrHeaderTooLarge    = errors.New("frame: header extension too large")
	ErrPayloadTooLarge   = errors.New("frame: payload too large")
	ErrEmptyPayload      = errors.New("frame: empty payload")
)

// Header is the fixed wire header.
type Header struct {
	Magic      uint32
	Version    uint16
	HeaderLen  uint16
	RouteKey   uint64
	Flags      uint16
	PayloadLen uint32
}

// Frame is one PDU with its routing header.
type Frame struct {
	Header  Header
	Payload []byte
}

// Limits constrains frame decode/encode memory use.
type Limits struct {
	MaxHeaderExtBytes uint16
	MaxPayloadBytes   uint32
}

func DefaultLimits() Limits {
	return Limits{
		MaxHeaderExtBytes: 256,
		MaxPayloadBytes:   64 * 1024,
	}
}

// New builds a frame for payload on route key.
func New(key uint64, flags uint16, payload []byte) Frame {
	return Frame{
		Header:  Header{Magic: Magic, Version: Version, RouteKey: key, Flags: flags},
		Payload: payload,
	}
}

// ReadFrame reads one frame. Header bytes beyond the fixed header are skipped.
func ReadFrame(r io.Reader, limits Limits) (Frame, error) {
	var fixed [FixedHeaderLen]byte
	if _, err := io.ReadFull(r, fixed[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return Frame{}, io.EOF
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return Frame{}, ErrShortHeader
		}
		return Frame{}, err
	}

	h, err := DecodeHeader(fixed[:])
	if err != nil {
		return Frame{}, err
	}
	if h.Magic != Magic {
		return Frame{}, fmt.Errorf("%w: 0x%08x", ErrBadMagic, h.Magic)
	}
	if h.Version != Version {
		return Frame{}, fmt.Errorf("%w: %d", ErrUnsupportedVer, h.Version)
	}
	if h.HeaderLen < FixedHeaderLen {
		return Frame{}, ErrHeaderLenTooSmall
	}
	extLen := h.HeaderLen - FixedHeaderLen
	if extLen > limits.MaxHeaderExtBytes {
		return Frame{}, ErrHeaderTooLarge
	}
	if h.PayloadLen > limits.MaxPayloadBytes {
		return Frame{}, ErrPayloadTooLarge
	}
	if h.PayloadLen == 0 {
		return Frame{}, ErrEmptyPayload
	}

	if extLen > 0 {
		if _, err := io.CopyN(io.Discard, r, int64(extLen)); err != nil {
			return Frame{}, err
		}
	}
	payload := make([]byte, h.PayloadLen)
	if _, err := io.ReadFull(r, payload); err != nil {
		return Frame{}, err
	}
	return Frame{Header: h, Payload: payload}, nil
}

// WriteFrame writes f, filling the magic, version and length fields.
func WriteFrame(w io.Writer, f Frame, limits Limits) error {
	if len(f.Payload) == 0 {
		return ErrEmptyPayload
	}
	if uint64(len(f.Payload)) > uint64(limits.MaxPayloadBytes) {
		return ErrPayloadTooLarge
	}

	h := f.Header
	h.Magic = Magic
	h.Version = Version
	h.HeaderLen = FixedHeaderLen
	h.PayloadLen = uint32(len(f.Payload))

	buf := make([]byte, 0, int(FixedHeaderLen)+len(f.Payload))
	buf = append(buf, EncodeHeader(h)...)
	buf = append(buf, f.Payload...)
	_, err := w.Write(buf)
	return err
}

func EncodeHeader(h Header) []byte {
	buf := make([]byte, FixedHeaderLen)
	binary.BigEndian.PutUint32(buf[0:4], h.Magic)
	binary.BigEndian.PutUint16(buf[4:6], h.Version)
	binary.BigEndian.PutUint16(buf[6:8], h.HeaderLen)
	binary.BigEndian.PutUint64(buf[8:16], h.RouteKey)
	binary.BigEndian.PutUint16(buf[16:18], h.Flags)
	// buf[18:20] reserved
	binary.BigEndian.PutUint32(buf[20:24], h.PayloadLen)
	return buf
}

func DecodeHeader(b []byte) (Header, error) {
	if len(b) != int(FixedHeaderLen) {
		return Header{}, fmt.Errorf("frame: invalid fixed header length: %d", len(b))
	}
	return Header{
		Magic:      binary.BigEndian.Uint32(b[0:4]),
		Version:    binary.BigEndian.Uint16(b[4:6]),
		HeaderLen:  binary.BigEndian.Uint16(b[6:8]),
		RouteKey:   binary.BigEndian.Uint64(b[8:16]),
		Flags:      binary.BigEndian.Uint16(b[16:18]),
		PayloadLen: binary.BigEndian.Uint32(b[20:24]),
	}, nil
}
