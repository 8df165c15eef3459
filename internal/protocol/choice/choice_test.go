package choice

import (
	"bytes"
	"errors"
	"reflect"
	"testing"
	"testing/quick"

	"github.com/danmuck/nrppa/internal/protocol/aper"
	"github.com/danmuck/nrppa/internal/testutil/testlog"
	"github.com/stretchr/testify/require"
)

type octet struct {
	V int64
}

func (o *octet) EncodeAPER(w *aper.Writer) error {
	return w.WriteInteger(o.V, aper.Range(0, 255))
}

func (o *octet) DecodeAPER(r *aper.Reader) error {
	v, err := r.ReadInteger(aper.Range(0, 255))
	o.V = v
	return err
}

func newOctet() aper.Value { return &octet{} }

var testSpec = &Spec{
	Name:       "Test",
	Root:       []Alternative{{Name: "a", New: newOctet}, {Name: "b", New: newOctet}, {Name: "c", New: newOctet}},
	Extensible: true,
	Additions:  []Alternative{{Name: "x", New: newOctet}},
}

func TestChoiceSetReplacesPayload(t *testing.T) {
	testlog.Start(t)

	c := New(testSpec)
	require.Equal(t, Unset, c.State())

	first, err := c.Set(1)
	require.NoError(t, err)
	first.(*octet).V = 9

	second, err := c.Set(0)
	require.NoError(t, err)
	require.NotSame(t, first, second)
	require.Equal(t, int64(0), second.(*octet).V)
	require.Equal(t, "a", c.Name())
	require.Equal(t, Base, c.State())
}

func TestChoiceRootEncoding(t *testing.T) {
	testlog.Start(t)

	c := New(testSpec)
	require.NoError(t, c.SetValue(1, &octet{V: 0x42}))
	raw, err := aper.Marshal(c)
	require.NoError(t, err)
	require.Equal(t, []byte{0x20, 0x42}, raw)

	out := New(testSpec)
	require.NoError(t, aper.Unmarshal(raw, out, aper.DecodeOptions{}))
	require.Equal(t, Base, out.State())
	require.Equal(t, 1, out.Index())
	require.Equal(t, int64(0x42), out.Value().(*octet).V)
}

func TestChoiceExtensionIsOpenType(t *testing.T) {
	testlog.Start(t)

	c := New(testSpec)
	v, err := c.SetExtension(0)
	require.NoError(t, err)
	v.(*octet).V = 7
	raw, err := aper.Marshal(c)
	require.NoError(t, err)
	require.Equal(t, []byte{0x80, 0x01, 0x07}, raw)

	out := New(testSpec)
	require.NoError(t, aper.Unmarshal(raw, out, aper.DecodeOptions{}))
	require.Equal(t, Extension, out.State())
	require.Equal(t, "x", out.Name())
}

func TestChoiceUnknownExtensionPolicy(t *testing.T) {
	testlog.Start(t)

	raw := []byte{0x85, 0x02, 0xaa, 0xbb}

	err := aper.Unmarshal(raw, New(testSpec), aper.DecodeOptions{})
	var unknown *UnknownChoiceIDError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected UnknownChoiceIDError, got %v", err)
	}
	if !unknown.Extension || unknown.Index != 5 {
		t.Fatalf("unexpected error detail: %+v", unknown)
	}

	out := New(testSpec)
	require.NoError(t, aper.Unmarshal(raw, out, aper.DecodeOptions{SkipUnknownExtensions: true}))
	require.Equal(t, UnknownExtension, out.State())
	require.Equal(t, 5, out.Index())
	require.Equal(t, []byte{0xaa, 0xbb}, out.Value().(*aper.Open).Raw)

	again, err := aper.Marshal(out)
	require.NoError(t, err)
	require.Equal(t, raw, again)
}

func TestChoiceRootIndexOutOfRange(t *testing.T) {
	testlog.Start(t)

	spec := &Spec{Name: "Closed", Root: testSpec.Root}
	err := aper.Unmarshal([]byte{0xc0}, New(spec), aper.DecodeOptions{})
	if !errors.Is(err, ErrUnknownChoiceID) {
		t.Fatalf("expected ErrUnknownChoiceID, got %v", err)
	}
}

func TestChoiceUnsupportedAndUnset(t *testing.T) {
	testlog.Start(t)

	spec := &Spec{Name: "Partial", Root: []Alternative{{Name: "a", New: newOctet}, {Name: "opaque"}}}
	if _, err := New(spec).Set(1); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
	if err := aper.Unmarshal([]byte{0x80}, New(spec), aper.DecodeOptions{}); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported on decode, got %v", err)
	}
	if _, err := aper.Marshal(New(spec)); !errors.Is(err, ErrUnset) {
		t.Fatalf("expected ErrUnset, got %v", err)
	}
	if _, err := New(spec).SetExtension(0); !errors.Is(err, ErrUnknownChoiceID) {
		t.Fatalf("expected ErrUnknownChoiceID for non-extensible choice, got %v", err)
	}
}

// wideSpec knows extension additions that testSpec does not.
var wideSpec = &Spec{
	Name:       "Wide",
	Root:       testSpec.Root,
	Extensible: true,
	Additions: []Alternative{
		{Name: "x", New: newOctet}, {Name: "y", New: newOctet}, {Name: "z", New: newOctet},
		{Name: "w", New: newOctet}, {Name: "v", New: newOctet},
	},
}

func TestChoiceRoundTripProperty(t *testing.T) {
	testlog.Start(t)

	f := func(sel, idx, payload uint8) bool {
		in := New(testSpec)
		var (
			v   aper.Value
			err error
		)
		if sel%2 == 0 {
			v, err = in.Set(int(idx) % len(testSpec.Root))
		} else {
			v, err = in.SetExtension(0)
		}
		if err != nil {
			return false
		}
		v.(*octet).V = int64(payload)

		raw, err := aper.Marshal(in)
		if err != nil {
			return false
		}
		out := New(testSpec)
		if err := aper.Unmarshal(raw, out, aper.DecodeOptions{}); err != nil {
			return false
		}
		again, err := aper.Marshal(out)
		return err == nil && reflect.DeepEqual(in, out) && bytes.Equal(raw, again)
	}
	if err := quick.Check(f, nil); err != nil {
		t.Fatalf("choice round trip: %v", err)
	}
}

func TestChoiceUnknownExtensionRoundTripProperty(t *testing.T) {
	testlog.Start(t)

	skip := aper.DecodeOptions{SkipUnknownExtensions: true}
	f := func(idx, payload uint8) bool {
		k := len(testSpec.Additions) + int(idx)%(len(wideSpec.Additions)-len(testSpec.Additions))
		in := New(wideSpec)
		v, err := in.SetExtension(k)
		if err != nil {
			return false
		}
		v.(*octet).V = int64(payload)
		raw, err := aper.Marshal(in)
		if err != nil {
			return false
		}

		out := New(testSpec)
		if err := aper.Unmarshal(raw, out, skip); err != nil {
			return false
		}
		open, ok := out.Value().(*aper.Open)
		if !ok || out.State() != UnknownExtension || out.Index() != k || !bytes.Equal(open.Raw, []byte{payload}) {
			return false
		}
		again, err := aper.Marshal(out)
		if err != nil || !bytes.Equal(raw, again) {
			return false
		}

		known := New(wideSpec)
		return aper.Unmarshal(again, known, skip) == nil && reflect.DeepEqual(in, known)
	}
	if err := quick.Check(f, nil); err != nil {
		t.Fatalf("unknown extension round trip: %v", err)
	}
}
