package ie

import (
	"bytes"
	"errors"
	"math/rand"
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

var (
	strictSchema = NewSchema("Strict",
		Spec{ID: 1, Name: "First", Criticality: Reject, Presence: Mandatory, New: newOctet},
		Spec{ID: 2, Name: "Second", Criticality: Ignore, Presence: Optional, New: newOctet},
		Spec{ID: 3, Name: "Third", Criticality: Reject, Presence: Mandatory, New: newOctet},
	)
	looseSchema = NewSchema("Loose",
		Spec{ID: 1, Name: "First", Criticality: Reject, Presence: Mandatory, New: newOctet},
		Spec{ID: 2, Name: "Second", Criticality: Ignore, Presence: Optional, New: newOctet},
		Spec{ID: 3, Name: "Third", Criticality: Reject, Presence: Optional, New: newOctet},
		Spec{ID: 9, Name: "Extra", Criticality: Ignore, Presence: Optional, New: newOctet},
		Spec{ID: 10, Name: "ExtraReject", Criticality: Reject, Presence: Optional, New: newOctet},
	)
)

func encodeContainer(t *testing.T, c *Container) []byte {
	t.Helper()
	raw, err := aper.Marshal(c)
	require.NoError(t, err)
	return raw
}

func TestContainerKnownVector(t *testing.T) {
	testlog.Start(t)

	s := NewSchema("One", Spec{ID: 1, Name: "First", Criticality: Reject, Presence: Mandatory, New: newOctet})
	c := NewContainer(s)
	c.MustSet(1, &octet{V: 5})
	require.Equal(t, []byte{0x00, 0x01, 0x00, 0x01, 0x00, 0x01, 0x05}, encodeContainer(t, c))
}

func TestContainerRoundTrip(t *testing.T) {
	testlog.Start(t)

	in := NewContainer(strictSchema)
	in.MustSet(3, &octet{V: 30})
	in.MustSet(1, &octet{V: 10})
	in.MustSet(2, &octet{V: 20})

	out := NewContainer(strictSchema)
	require.NoError(t, aper.Unmarshal(encodeContainer(t, in), out, aper.DecodeOptions{}))

	entries := out.Entries()
	require.Len(t, entries, 3)
	require.Equal(t, []uint16{3, 1, 2}, []uint16{entries[0].ID, entries[1].ID, entries[2].ID})
	require.Equal(t, Ignore, entries[2].Criticality)
	v, ok := Get[*octet](out, 2)
	require.True(t, ok)
	require.Equal(t, int64(20), v.V)
}

func TestContainerDecodeMissingMandatory(t *testing.T) {
	testlog.Start(t)

	loose := NewContainer(looseSchema)
	loose.MustSet(1, &octet{V: 1})
	raw := encodeContainer(t, loose)

	err := aper.Unmarshal(raw, NewContainer(strictSchema), aper.DecodeOptions{})
	var missing *MissingFieldError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingFieldError, got %v", err)
	}
	if !errors.Is(err, ErrMissingMandatory) {
		t.Fatalf("expected ErrMissingMandatory, got %v", err)
	}
	require.Equal(t, []string{"Third"}, missing.Names)
}

func TestContainerEncodeMissingMandatory(t *testing.T) {
	testlog.Start(t)

	c := NewContainer(strictSchema)
	c.MustSet(1, &octet{V: 1})
	if _, err := aper.Marshal(c); !errors.Is(err, ErrMissingMandatory) {
		t.Fatalf("expected ErrMissingMandatory, got %v", err)
	}
}

func TestContainerUnknownIDAborts(t *testing.T) {
	testlog.Start(t)

	loose := NewContainer(looseSchema)
	loose.MustSet(1, &octet{V: 1})
	loose.MustSet(3, &octet{V: 3})
	loose.MustSet(9, &octet{V: 9})
	raw := encodeContainer(t, loose)

	err := aper.Unmarshal(raw, NewContainer(strictSchema), aper.DecodeOptions{})
	var unknown *UnknownIDError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected UnknownIDError, got %v", err)
	}
	if unknown.ID != 9 || unknown.Criticality != Ignore {
		t.Fatalf("unexpected unknown id error: %+v", unknown)
	}
}

func TestContainerSkipUnknownIgnoredIE(t *testing.T) {
	testlog.Start(t)

	loose := NewContainer(looseSchema)
	loose.MustSet(1, &octet{V: 1})
	loose.MustSet(9, &octet{V: 9})
	loose.MustSet(3, &octet{V: 3})
	raw := encodeContainer(t, loose)

	out := NewContainer(strictSchema)
	require.NoError(t, aper.Unmarshal(raw, out, aper.DecodeOptions{SkipUnknownIEs: true}))
	unknown := out.Unknown()
	require.Len(t, unknown, 1)
	require.Equal(t, uint16(9), unknown[0].ID)
	require.False(t, out.Has(9))

	// Skipped entries are re-emitted unchanged.
	require.Equal(t, raw, encodeContainer(t, out))
}

func TestContainerSkipStillRejectsRejectCriticality(t *testing.T) {
	testlog.Start(t)

	loose := NewContainer(looseSchema)
	loose.MustSet(1, &octet{V: 1})
	loose.MustSet(3, &octet{V: 3})
	loose.MustSet(10, &octet{V: 10})

	err := aper.Unmarshal(encodeContainer(t, loose), NewContainer(strictSchema), aper.DecodeOptions{SkipUnknownIEs: true})
	if !errors.Is(err, ErrUnknownID) {
		t.Fatalf("expected ErrUnknownID, got %v", err)
	}
}

func TestContainerDuplicateID(t *testing.T) {
	testlog.Start(t)

	raw := []byte{
		0x00, 0x02,
		0x00, 0x01, 0x00, 0x01, 0x05,
		0x00, 0x01, 0x00, 0x01, 0x06,
	}
	err := aper.Unmarshal(raw, NewContainer(looseSchema), aper.DecodeOptions{})
	if !errors.Is(err, ErrDuplicateIE) {
		t.Fatalf("expected ErrDuplicateIE, got %v", err)
	}
}

func TestContainerSetRejectsUndeclaredID(t *testing.T) {
	testlog.Start(t)

	err := NewContainer(strictSchema).Set(42, &octet{})
	if !errors.Is(err, ErrUnknownID) {
		t.Fatalf("expected ErrUnknownID, got %v", err)
	}
}

func TestNewSchemaPanicsOnDuplicateID(t *testing.T) {
	testlog.Start(t)

	require.Panics(t, func() {
		NewSchema("Dup",
			Spec{ID: 1, Name: "A", New: newOctet},
			Spec{ID: 1, Name: "B", New: newOctet},
		)
	})
}

func TestMessageRoundTripProperty(t *testing.T) {
	testlog.Start(t)

	optional := []uint16{2, 3, 9, 10}
	f := func(seed int64) bool {
		rng := rand.New(rand.NewSource(seed))
		ids := []uint16{1}
		for _, id := range optional {
			if rng.Intn(2) == 0 {
				ids = append(ids, id)
			}
		}
		rng.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })

		in := NewMessage(looseSchema)
		for _, id := range ids {
			in.MustSet(id, &octet{V: int64(rng.Intn(256))})
		}
		if rng.Intn(3) == 0 {
			in.Extensions = make(Extensions, 1+rng.Intn(3))
			in.Extensions[len(in.Extensions)-1] = []byte{byte(rng.Intn(256))}
		}

		raw, err := aper.Marshal(in)
		if err != nil {
			return false
		}
		out := NewMessage(looseSchema)
		if err := aper.Unmarshal(raw, out, aper.DecodeOptions{}); err != nil {
			return false
		}
		again, err := aper.Marshal(out)
		return err == nil && reflect.DeepEqual(in, out) && bytes.Equal(raw, again)
	}
	if err := quick.Check(f, nil); err != nil {
		t.Fatalf("message round trip: %v", err)
	}
}
