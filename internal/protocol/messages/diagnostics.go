package messages

import (
	"github.com/danmuck/nrppa/internal/protocol/aper"
	"github.com/danmuck/nrppa/internal/protocol/ie"
	"github.com/danmuck/nrppa/internal/protocol/procedure"
	"github.com/rs/zerolog"
)

type TriggeringMessage int

const (
	TriggeringInitiatingMessage TriggeringMessage = iota
	TriggeringSuccessfulOutcome
	TriggeringUnsuccessfulOutcome
)

func (t *TriggeringMessage) EncodeAPER(w *aper.Writer) error {
	return w.WriteEnumerated(int(*t), 3, false)
}

func (t *TriggeringMessage) DecodeAPER(r *aper.Reader) error {
	v, err := r.ReadEnumerated(3, false)
	*t = TriggeringMessage(v)
	return err
}

type TypeOfError int

const (
	NotUnderstood TypeOfError = iota
	Missing
)

func (t *TypeOfError) EncodeAPER(w *aper.Writer) error {
	return w.WriteEnumerated(int(*t), 2, true)
}

func (t *TypeOfError) DecodeAPER(r *aper.Reader) error {
	v, err := r.ReadEnumerated(2, true)
	*t = TypeOfError(v)
	return err
}

type procedureCode struct{ p *procedure.Code }

func (v procedureCode) EncodeAPER(w *aper.Writer) error {
	return w.WriteInteger(int64(*v.p), aper.Range(0, 255))
}

func (v procedureCode) DecodeAPER(r *aper.Reader) error {
	c, err := r.ReadInteger(aper.Range(0, 255))
	*v.p = procedure.Code(c)
	return err
}

type transactionID struct{ p *uint16 }

func (v transactionID) EncodeAPER(w *aper.Writer) error {
	return w.WriteInteger(int64(*v.p), aper.Range(0, 32767))
}

func (v transactionID) DecodeAPER(r *aper.Reader) error {
	t, err := r.ReadInteger(aper.Range(0, 32767))
	*v.p = uint16(t)
	return err
}

type protocolIEID struct{ p *uint16 }

func (v protocolIEID) EncodeAPER(w *aper.Writer) error {
	return w.WriteInteger(int64(*v.p), aper.Range(0, 65535))
}

func (v protocolIEID) DecodeAPER(r *aper.Reader) error {
	id, err := r.ReadInteger(aper.Range(0, 65535))
	*v.p = uint16(id)
	return err
}

// IECriticalityDiagnostic names one IE that could not be understood or was missing.
type IECriticalityDiagnostic struct {
	Criticality  ie.Criticality
	ID           uint16
	TypeOfError  TypeOfError
	IEExtensions *ie.OpenContainer
	Extensions   ie.Extensions
}

func (d *IECriticalityDiagnostic) EncodeAPER(w *aper.Writer) error {
	return ie.EncodeSequence(w, true, []ie.Field{
		{Name: "iECriticality", Value: &d.Criticality},
		{Name: "iE-ID", Value: protocolIEID{&d.ID}},
		{Name: "typeOfError", Value: &d.TypeOfError},
		extensionField(d.IEExtensions),
	}, d.Extensions)
}

func (d *IECriticalityDiagnostic) DecodeAPER(r *aper.Reader) error {
	var ext ie.OpenContainer
	fields := []ie.Field{
		{Name: "iECriticality", Value: &d.Criticality},
		{Name: "iE-ID", Value: protocolIEID{&d.ID}},
		{Name: "typeOfError", Value: &d.TypeOfError},
		{Name: "iE-Extensions", Optional: true, Value: &ext},
	}
	x, err := ie.DecodeSequence(r, true, fields)
	if err != nil {
		return err
	}
	if fields[3].Present {
		d.IEExtensions = &ext
	}
	d.Extensions = x
	return nil
}

type diagnosticList struct{ items *[]IECriticalityDiagnostic }

func (v diagnosticList) EncodeAPER(w *aper.Writer) error {
	return ie.EncodeList(w, *v.items, 1, maxNrOfErrors)
}

func (v diagnosticList) DecodeAPER(r *aper.Reader) (err error) {
	*v.items, err = ie.DecodeList[IECriticalityDiagnostic](r, 1, maxNrOfErrors)
	return err
}

// CriticalityDiagnostics describes which procedure and IEs a receiver failed on.
// Every field is optional; nil pointers and an empty IEs list are absent.
type CriticalityDiagnostics struct {
	ProcedureCode        *procedure.Code
	TriggeringMessage    *TriggeringMessage
	ProcedureCriticality *ie.Criticality
	TransactionID        *uint16
	IEs                  []IECriticalityDiagnostic
	IEExtensions         *ie.OpenContainer
	Extensions           ie.Extensions
}

func (d *CriticalityDiagnostics) EncodeAPER(w *aper.Writer) error {
	fields := []ie.Field{
		{Name: "procedureCode", Optional: true, Present: d.ProcedureCode != nil},
		{Name: "triggeringMessage", Optional: true, Present: d.TriggeringMessage != nil, Value: d.TriggeringMessage},
		{Name: "procedureCriticality", Optional: true, Present: d.ProcedureCriticality != nil, Value: d.ProcedureCriticality},
		{Name: "nrppatransactionID", Optional: true, Present: d.TransactionID != nil},
		{Name: "iEsCriticalityDiagnostics", Optional: true, Present: len(d.IEs) > 0, Value: diagnosticList{&d.IEs}},
		extensionField(d.IEExtensions),
	}
	if d.ProcedureCode != nil {
		fields[0].Value = procedureCode{d.ProcedureCode}
	}
	if d.TransactionID != nil {
		fields[3].Value = transactionID{d.TransactionID}
	}
	return ie.EncodeSequence(w, true, fields, d.Extensions)
}

func (d *CriticalityDiagnostics) DecodeAPER(r *aper.Reader) error {
	var (
		code  procedure.Code
		trig  TriggeringMessage
		crit  ie.Criticality
		txid  uint16
		items []IECriticalityDiagnostic
		ext   ie.OpenContainer
	)
	fields := []ie.Field{
		{Name: "procedureCode", Optional: true, Value: procedureCode{&code}},
		{Name: "triggeringMessage", Optional: true, Value: &trig},
		{Name: "procedureCriticality", Optional: true, Value: &crit},
		{Name: "nrppatransactionID", Optional: true, Value: transactionID{&txid}},
		{Name: "iEsCriticalityDiagnostics", Optional: true, Value: diagnosticList{&items}},
		{Name: "iE-Extensions", Optional: true, Value: &ext},
	}
	x, err := ie.DecodeSequence(r, true, fields)
	if err != nil {
		return err
	}
	*d = CriticalityDiagnostics{Extensions: x, IEs: items}
	if fields[0].Present {
		d.ProcedureCode = &code
	}
	if fields[1].Present {
		d.TriggeringMessage = &trig
	}
	if fields[2].Present {
		d.ProcedureCriticality = &crit
	}
	if fields[3].Present {
		d.TransactionID = &txid
	}
	if fields[5].Present {
		d.IEExtensions = &ext
	}
	return nil
}

func (d *CriticalityDiagnostics) MarshalZerologObject(e *zerolog.Event) {
	if d.ProcedureCode != nil {
		e.Uint8("procedure_code", uint8(*d.ProcedureCode))
	}
	if d.TransactionID != nil {
		e.Uint16("transaction_id", *d.TransactionID)
	}
	if d.ProcedureCriticality != nil {
		e.Str("procedure_criticality", d.ProcedureCriticality.String())
	}
	if len(d.IEs) > 0 {
		ids := make([]int, len(d.IEs))
		for i, item := range d.IEs {
			ids[i] = int(item.ID)
		}
		e.Ints("ies", ids)
	}
}
