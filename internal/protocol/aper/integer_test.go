package aper

import (
	"errors"
	"testing"
	"testing/quick"

	"github.com/danmuck/nrppa/internal/testutil/testlog"
	"github.com/stretchr/testify/require"
)

func TestWriteIntegerKnownVectors(t *testing.T) {
	testlog.Start(t)

	cases := []struct {
		name string
		v    int64
		c    Constraint
		want []byte
	}{
		{"single value", 7, Range(7, 7), []byte{}},
		{"three bits", 5, Range(0, 7), []byte{0xa0}},
		{"one aligned octet", 5, Range(0, 255), []byte{0x05}},
		{"two aligned octets", 0x1234, Range(0, 65535), []byte{0x12, 0x34}},
		{"offset from lower bound", 1, Range(1, 65535), []byte{0x00, 0x00}},
		{"octet count prefix", 256, Range(0, 1<<32-1), []byte{0x40, 0x01, 0x00}},
		{"extension escape", 9, Range(0, 7).Extended(), []byte{0x80, 0x01, 0x09}},
		{"extensible in root", 3, Range(0, 7).Extended(), []byte{0x30}},
		{"semi constrained", 300, Constraint{Unbounded: true}, []byte{0x02, 0x01, 0x2c}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := NewWriter()
			require.NoError(t, w.WriteInteger(tc.v, tc.c))
			require.Equal(t, tc.want, append([]byte{}, w.Bytes()...))

			got, err := NewReader(w.Bytes(), DecodeOptions{}).ReadInteger(tc.c)
			require.NoError(t, err)
			require.Equal(t, tc.v, got)
		})
	}
}

func TestIntegerBoundaries(t *testing.T) {
	testlog.Start(t)

	for _, c := range []Constraint{Range(1, 65535), Range(0, 255), Range(0, 1007), Range(-5, 5), Range(0, 3279165)} {
		for _, v := range []int64{c.Lower, c.Upper} {
			w := NewWriter()
			require.NoError(t, w.WriteInteger(v, c), "value %d in %s", v, c)
			got, err := NewReader(w.Bytes(), DecodeOptions{}).ReadInteger(c)
			require.NoError(t, err)
			require.Equal(t, v, got)
		}
		for _, v := range []int64{c.Lower - 1, c.Upper + 1} {
			err := NewWriter().WriteInteger(v, c)
			var rangeErr *RangeError
			if !errors.As(err, &rangeErr) {
				t.Fatalf("expected RangeError for %d in %s, got %v", v, c, err)
			}
			if !errors.Is(err, ErrOutOfRange) {
				t.Fatalf("expected ErrOutOfRange, got %v", err)
			}
		}
	}
}

func TestExtensibleIntegerBoundaries(t *testing.T) {
	testlog.Start(t)

	for _, c := range []Constraint{Range(1, 65535), Range(0, 255), Range(0, 1007), Range(-5, 5), Range(7, 7)} {
		c = c.Extended()
		cases := []struct {
			v      int64
			escape bool
		}{{c.Lower, false}, {c.Upper, false}, {c.Lower - 1, true}, {c.Upper + 1, true}}
		for _, tc := range cases {
			w := NewWriter()
			require.NoError(t, w.WriteInteger(tc.v, c), "value %d in %s", tc.v, c)
			require.NotEmpty(t, w.Bytes())
			require.Equal(t, tc.escape, w.Bytes()[0]&0x80 != 0, "escape bit for %d in %s", tc.v, c)

			got, err := NewReader(w.Bytes(), DecodeOptions{}).ReadInteger(c)
			require.NoError(t, err)
			require.Equal(t, tc.v, got)
		}
	}
}

func TestReadIntegerRejectsUnusedBitPattern(t *testing.T) {
	testlog.Start(t)

	// Range 0..2 uses two bits; 0b11 is not a valid offset.
	_, err := NewReader([]byte{0xc0}, DecodeOptions{}).ReadInteger(Range(0, 2))
	if !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}
}

func TestReadIntegerBufferExhausted(t *testing.T) {
	testlog.Start(t)

	_, err := NewReader([]byte{0x01}, DecodeOptions{}).ReadInteger(Range(0, 65535))
	if !errors.Is(err, ErrBufferExhausted) {
		t.Fatalf("expected ErrBufferExhausted, got %v", err)
	}
}

func TestIntegerRoundTripProperty(t *testing.T) {
	testlog.Start(t)

	f := func(lower int32, width uint32, pick uint32, ext bool) bool {
		c := Range(int64(lower), int64(lower)+int64(width))
		c.Extensible = ext
		v := c.Lower + int64(uint64(pick)%(uint64(width)+1))
		w := NewWriter()
		if err := w.WriteInteger(v, c); err != nil {
			return false
		}
		got, err := NewReader(w.Bytes(), DecodeOptions{}).ReadInteger(c)
		return err == nil && got == v
	}
	if err := quick.Check(f, nil); err != nil {
		t.Fatalf("integer round trip: %v", err)
	}
}

func TestUnconstrainedEscapeRoundTripProperty(t *testing.T) {
	testlog.Start(t)

	c := Range(0, 15).Extended()
	f := func(v int64) bool {
		w := NewWriter()
		if err := w.WriteInteger(v, c); err != nil {
			return false
		}
		got, err := NewReader(w.Bytes(), DecodeOptions{}).ReadInteger(c)
		return err == nil && got == v
	}
	if err := quick.Check(f, nil); err != nil {
		t.Fatalf("unconstrained round trip: %v", err)
	}
}

func TestEnumeratedVectors(t *testing.T) {
	testlog.Start(t)

	w := NewWriter()
	require.NoError(t, w.WriteEnumerated(1, 3, true))
	require.Equal(t, []byte{0x20}, w.Bytes())

	w = NewWriter()
	require.NoError(t, w.WriteEnumerated(5, 3, true))
	require.Equal(t, []byte{0x82}, w.Bytes())
	got, err := NewReader(w.Bytes(), DecodeOptions{}).ReadEnumerated(3, true)
	require.NoError(t, err)
	require.Equal(t, 5, got)

	err = NewWriter().WriteEnumerated(3, 3, false)
	if !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}
}

func TestNormallySmall(t *testing.T) {
	testlog.Start(t)

	w := NewWriter()
	require.NoError(t, w.WriteNormallySmall(5))
	require.Equal(t, []byte{0x0a}, w.Bytes())

	for _, n := range []int{0, 63, 64, 1000} {
		w := NewWriter()
		require.NoError(t, w.WriteNormallySmall(n))
		got, err := NewReader(w.Bytes(), DecodeOptions{}).ReadNormallySmall()
		require.NoError(t, err)
		require.Equal(t, n, got)
	}
}
