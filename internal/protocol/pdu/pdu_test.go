package pdu

import (
	"errors"
	"testing"

	"github.com/danmuck/nrppa/internal/protocol/aper"
	"github.com/danmuck/nrppa/internal/protocol/ie"
	"github.com/danmuck/nrppa/internal/protocol/procedure"
	"github.com/danmuck/nrppa/internal/testutil/testlog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/require"
)

func openSchema(name string) *procedure.MessageSchema {
	return &procedure.MessageSchema{Name: name, New: func() aper.Value { return &aper.Open{} }}
}

var strictIEs = ie.NewSchema("Strict", ie.Spec{ID: 0, Name: "Cause", Criticality: ie.Ignore, Presence: ie.Mandatory, New: func() aper.Value { return &aper.Open{} }})

func testCodec(t *testing.T, opts Options) *Codec {
	t.Helper()
	reg, err := procedure.NewRegistry(
		procedure.Descriptor{Code: procedure.ErrorIndication, Name: "errorIndication", Class: procedure.Class2, Criticality: ie.Ignore,
			Initiating: openSchema("ErrorIndication")},
		procedure.Descriptor{Code: procedure.TRPInformationExchange, Name: "tRPInformationExchange", Class: procedure.Class1, Criticality: ie.Reject,
			Initiating: openSchema("TRPInformationRequest"), Successful: openSchema("TRPInformationResponse"), Unsuccessful: openSchema("TRPInformationFailure")},
		procedure.Descriptor{Code: procedure.Measurement, Name: "Measurement", Class: procedure.Class1, Criticality: ie.Reject,
			Initiating: &procedure.MessageSchema{Name: "MeasurementRequest", New: func() aper.Value { return ie.NewMessage(strictIEs) }}},
	)
	require.NoError(t, err)
	return NewCodec(reg, opts, log.Logger)
}

func TestEncodeKnownVector(t *testing.T) {
	testlog.Start(t)
	codec := testCodec(t, Options{})

	env, err := codec.NewEnvelope(procedure.InitiatingMessage, procedure.TRPInformationExchange, 1, &aper.Open{Raw: []byte{0xab}})
	require.NoError(t, err)
	raw, err := codec.Encode(env)
	require.NoError(t, err)
	require.Equal(t, []byte{0x00, 0x10, 0x00, 0x00, 0x01, 0x01, 0xab}, raw)

	out, err := codec.Decode(raw)
	require.NoError(t, err)
	require.Equal(t, procedure.InitiatingMessage, out.Kind)
	require.Equal(t, procedure.TRPInformationExchange, out.ProcedureCode)
	require.Equal(t, ie.Reject, out.Criticality)
	require.Equal(t, uint16(1), out.TransactionID)
	require.Equal(t, []byte{0xab}, out.Value.(*aper.Open).Raw)
}

func TestEncodeOutcomeKinds(t *testing.T) {
	testlog.Start(t)
	codec := testCodec(t, Options{})

	for _, kind := range []procedure.Kind{procedure.SuccessfulOutcome, procedure.UnsuccessfulOutcome} {
		env, err := codec.NewEnvelope(kind, procedure.TRPInformationExchange, MaxTransactionID, &aper.Open{Raw: []byte{1}})
		require.NoError(t, err)
		raw, err := codec.Encode(env)
		require.NoError(t, err)
		require.Equal(t, byte(kind)<<5, raw[0])

		out, err := codec.Decode(raw)
		require.NoError(t, err)
		require.Equal(t, kind, out.Kind)
		require.Equal(t, uint16(MaxTransactionID), out.TransactionID)
	}

	env, _ := codec.NewEnvelope(procedure.SuccessfulOutcome, procedure.ErrorIndication, 1, &aper.Open{})
	if _, err := codec.Encode(env); !errors.Is(err, procedure.ErrNoSuchMessage) {
		t.Fatalf("expected ErrNoSuchMessage, got %v", err)
	}
}

func TestDecodeTruncatedHeaderIsTransportError(t *testing.T) {
	testlog.Start(t)
	codec := testCodec(t, Options{})

	_, err := codec.Decode([]byte{0x00, 0x10})
	var de *DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("expected DecodeError, got %v", err)
	}
	if de.Stage != StageTransport || de.Answerable() {
		t.Fatalf("expected unanswerable transport error, got %+v", de)
	}
	if !errors.Is(err, aper.ErrBufferExhausted) {
		t.Fatalf("expected ErrBufferExhausted, got %v", err)
	}
}

func TestDecodeUnknownProcedureKeepsTransactionID(t *testing.T) {
	testlog.Start(t)
	codec := testCodec(t, Options{})

	_, err := codec.Decode([]byte{0x00, 0xc8, 0x00, 0x00, 0x2a, 0x01, 0x00})
	var de *DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("expected DecodeError, got %v", err)
	}
	if de.Stage != StageProcedure || !de.Answerable() {
		t.Fatalf("expected answerable procedure error, got %+v", de)
	}
	if de.TransactionID != 42 || de.ProcedureCode != 200 {
		t.Fatalf("header not recovered: %+v", de)
	}
	if !errors.Is(err, procedure.ErrUnknownProcedure) {
		t.Fatalf("expected ErrUnknownProcedure, got %v", err)
	}
}

func TestCriticalityPolicy(t *testing.T) {
	testlog.Start(t)

	// errorIndication is ignore in the table; this PDU claims reject.
	raw := []byte{0x00, 0x00, 0x00, 0x00, 0x07, 0x01, 0x00}

	env, err := testCodec(t, Options{Criticality: CriticalityLog}).Decode(raw)
	require.NoError(t, err)
	require.Equal(t, ie.Reject, env.Criticality)

	_, err = testCodec(t, Options{Criticality: CriticalityReject}).Decode(raw)
	var mismatch *CriticalityMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected CriticalityMismatchError, got %v", err)
	}
	if mismatch.Got != ie.Reject || mismatch.Want != ie.Ignore {
		t.Fatalf("unexpected mismatch detail: %+v", mismatch)
	}
}

func TestDecodeValueFailure(t *testing.T) {
	testlog.Start(t)
	codec := testCodec(t, Options{})

	env, err := codec.NewEnvelope(procedure.InitiatingMessage, procedure.Measurement, 9, &aper.Open{})
	require.NoError(t, err)
	raw, err := codec.Encode(env)
	require.NoError(t, err)

	_, err = codec.Decode(raw)
	var de *DecodeError
	if !errors.As(err, &de) || de.Stage != StageValue {
		t.Fatalf("expected value stage DecodeError, got %v", err)
	}
	if de.TransactionID != 9 {
		t.Fatalf("expected transaction id 9, got %d", de.TransactionID)
	}
}
