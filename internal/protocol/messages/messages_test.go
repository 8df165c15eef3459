package messages

import (
	"errors"
	"testing"

	"github.com/danmuck/nrppa/internal/protocol/aper"
	"github.com/danmuck/nrppa/internal/protocol/ie"
	"github.com/danmuck/nrppa/internal/protocol/pdu"
	"github.com/danmuck/nrppa/internal/protocol/procedure"
	"github.com/danmuck/nrppa/internal/testutil/testlog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/require"
)

func TestRegistryCoversEveryProcedureCode(t *testing.T) {
	testlog.Start(t)

	reg, err := NewRegistry()
	require.NoError(t, err)
	require.Equal(t, 23, reg.Len())
	for i := 0; i < reg.Len(); i++ {
		code, ok := reg.CodeAt(i)
		require.True(t, ok)
		require.Equal(t, procedure.Code(i), code)
		d, _ := reg.Lookup(code)
		if d.Class == procedure.Class1 && (d.Successful == nil || d.Unsuccessful == nil) {
			t.Fatalf("class 1 procedure %s lacks an outcome", d.Name)
		}
	}
	crit, err := reg.Criticality(procedure.TRPInformationExchange)
	require.NoError(t, err)
	require.Equal(t, ie.Reject, crit)
}

func TestCauseKnownVectors(t *testing.T) {
	testlog.Start(t)

	cases := []struct {
		cause *Cause
		want  []byte
		text  string
	}{
		{RadioNetworkCause(RadioNetworkUnspecified), []byte{0x00}, "radioNetwork/unspecified"},
		{ProtocolCause(ProtocolMessageNotCompatibleWithReceiverState), []byte{0x4c}, "protocol/message-not-compatible-with-receiver-state"},
		{MiscCause(MiscUnspecified), []byte{0x80}, "misc/unspecified"},
	}
	for _, tc := range cases {
		raw, err := aper.Marshal(tc.cause)
		require.NoError(t, err)
		require.Equal(t, tc.want, raw)

		out := &Cause{}
		require.NoError(t, aper.Unmarshal(raw, out, aper.DecodeOptions{}))
		require.Equal(t, tc.text, out.String())
	}
}

func TestTRPInformationRoundTrip(t *testing.T) {
	testlog.Start(t)

	in := TRPInformation{
		ID: 7,
		Items: []TRPInformationTypeResponseItem{
			PCIItem(501),
			CGIItem(NRCGI{PLMN: [3]byte{0x02, 0xf8, 0x39}, CellID: 0x123456789}),
			ARFCNItem(632628),
		},
	}
	raw, err := aper.Marshal(&in)
	require.NoError(t, err)

	var out TRPInformation
	require.NoError(t, aper.Unmarshal(raw, &out, aper.DecodeOptions{}))
	require.Equal(t, TRPID(7), out.ID)
	require.Len(t, out.Items, 3)
	require.Equal(t, NRPCI(501), *out.Items[0].Value().(*NRPCI))
	cgi := out.Items[1].Value().(*NRCGI)
	require.Equal(t, uint64(0x123456789), cgi.CellID)
	require.Equal(t, [3]byte{0x02, 0xf8, 0x39}, cgi.PLMN)
	require.Equal(t, NRARFCN(632628), *out.Items[2].Value().(*NRARFCN))
}

func TestTRPIDBoundaries(t *testing.T) {
	testlog.Start(t)

	for _, id := range []TRPID{1, 65535, 70000} {
		raw, err := aper.Marshal(&id)
		require.NoError(t, err)
		var out TRPID
		require.NoError(t, aper.Unmarshal(raw, &out, aper.DecodeOptions{}))
		require.Equal(t, id, out)
	}
	zero := TRPID(0)
	raw, err := aper.Marshal(&zero)
	require.NoError(t, err)
	// 0 is outside the root and takes the extension escape.
	require.Equal(t, byte(0x80), raw[0])
}

func TestTRPInformationExchangeThroughCodec(t *testing.T) {
	testlog.Start(t)
	codec := pdu.NewCodec(MustRegistry(), pdu.Options{}, log.Logger)

	req := NewTRPInformationRequest()
	req.SetTRPList(NewTRPList(1, 2, 3))
	req.SetInformationTypes(NewTRPInformationTypeList(InfoNRPCI, InfoNGRANCGI, InfoTRPType))
	env, err := codec.NewEnvelope(procedure.InitiatingMessage, procedure.TRPInformationExchange, 77, req)
	require.NoError(t, err)
	raw, err := codec.Encode(env)
	require.NoError(t, err)

	out, err := codec.Decode(raw)
	require.NoError(t, err)
	decoded, ok := out.Value.(*TRPInformationRequest)
	require.True(t, ok, "expected typed request, got %T", out.Value)
	list, ok := decoded.TRPList()
	require.True(t, ok)
	require.Equal(t, []TRPID{1, 2, 3}, list.IDs())
	types, ok := decoded.InformationTypes()
	require.True(t, ok)
	require.Equal(t, []TRPInformationTypeItem{InfoNRPCI, InfoNGRANCGI, InfoTRPType}, types.Items)
}

func TestTRPInformationFailureRequiresCause(t *testing.T) {
	testlog.Start(t)

	empty := ie.NewMessage(ie.NewSchema("Empty"))
	raw, err := aper.Marshal(empty)
	require.NoError(t, err)

	err = aper.Unmarshal(raw, NewTRPInformationFailure(), aper.DecodeOptions{})
	var missing *ie.MissingFieldError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingFieldError, got %v", err)
	}
	require.Equal(t, []uint16{IDCause}, missing.IDs)
}

func TestTRPInformationTypeListRejectsForeignID(t *testing.T) {
	testlog.Start(t)

	w := aper.NewWriter()
	require.NoError(t, w.WriteLength(1, 1, maxnoTRPInfoTypes))
	v := InfoARFCN
	single, err := ie.NewSingleContainer(IDCause, ie.Reject, &v)
	require.NoError(t, err)
	require.NoError(t, single.EncodeAPER(w))

	err = aper.Unmarshal(w.Bytes(), &TRPInformationTypeList{}, aper.DecodeOptions{})
	if !errors.Is(err, ie.ErrUnknownID) {
		t.Fatalf("expected ErrUnknownID, got %v", err)
	}
}

func TestCriticalityDiagnosticsRoundTrip(t *testing.T) {
	testlog.Start(t)

	code := procedure.TRPInformationExchange
	trig := TriggeringInitiatingMessage
	txid := uint16(12)
	in := &CriticalityDiagnostics{
		ProcedureCode:     &code,
		TriggeringMessage: &trig,
		TransactionID:     &txid,
		IEs:               []IECriticalityDiagnostic{{Criticality: ie.Reject, ID: IDTRPInformationTypeListTRPReq, TypeOfError: Missing}},
	}
	raw, err := aper.Marshal(in)
	require.NoError(t, err)

	out := &CriticalityDiagnostics{}
	require.NoError(t, aper.Unmarshal(raw, out, aper.DecodeOptions{}))
	require.Equal(t, code, *out.ProcedureCode)
	require.Equal(t, trig, *out.TriggeringMessage)
	require.Nil(t, out.ProcedureCriticality)
	require.Equal(t, txid, *out.TransactionID)
	require.Equal(t, in.IEs[0].ID, out.IEs[0].ID)
	require.Equal(t, Missing, out.IEs[0].TypeOfError)
}
