// Package pdu owns the NRPPA-PDU envelope: the three-way message kind, procedure
// code, criticality and transaction id around an open-type message value.
package pdu

import (
	"errors"
	"fmt"

	"github.com/danmuck/nrppa/internal/observability"
	"github.com/danmuck/nrppa/internal/protocol/aper"
	"github.com/danmuck/nrppa/internal/protocol/choice"
	"github.com/danmuck/nrppa/internal/protocol/ie"
	"github.com/danmuck/nrppa/internal/protocol/procedure"
	"github.com/rs/zerolog"
)

const (
	kindCount        = 3
	MaxTransactionID = 32767
)

var (
	codeConstraint        = aper.Range(0, 255)
	transactionConstraint = aper.Range(0, MaxTransactionID)
)

var (
	ErrCriticalityMismatch = errors.New("pdu: criticality mismatch")
	ErrNoValue             = errors.New("pdu: envelope has no value")
)

// Envelope is one decoded NRPPA-PDU.
type Envelope struct {
	Kind          procedure.Kind
	ProcedureCode procedure.Code
	Criticality   ie.Criticality
	TransactionID uint16
	Value         aper.Value
}

// MarshalZerologObject implements zerolog.LogObjectMarshaler.
func (e Envelope) MarshalZerologObject(ev *zerolog.Event) {
	ev.Str("kind", e.Kind.String()).
		Uint8("procedure_code", uint8(e.ProcedureCode)).
		Str("criticality", e.Criticality.String()).
		Uint16("transaction_id", e.TransactionID)
	if m, ok := e.Value.(zerolog.LogObjectMarshaler); ok {
		ev.Object("value", m)
	}
}

// CriticalityPolicy decides what a criticality differing from the procedure table does.
type CriticalityPolicy int

const (
	// CriticalityLog accepts the PDU and records the mismatch.
	CriticalityLog CriticalityPolicy = iota
	// CriticalityReject fails the decode with *CriticalityMismatchError.
	CriticalityReject
)

// CriticalityMismatchError reports an envelope criticality that differs from the table.
type CriticalityMismatchError struct {
	ProcedureCode procedure.Code
	Got           ie.Criticality
	Want          ie.Criticality
}

func (e *CriticalityMismatchError) Error() string {
	return fmt.Sprintf("pdu: procedure %d criticality %s, table says %s", e.ProcedureCode, e.Got, e.Want)
}

func (e *CriticalityMismatchError) Unwrap() error {
	return ErrCriticalityMismatch
}

// Stage is how far decoding got before failing.
type Stage int

const (
	// StageTransport failed before the transaction id was recovered.
	StageTransport Stage = iota
	// StageProcedure failed resolving the procedure or its message schema.
	StageProcedure
	// StageValue failed inside the message value.
	StageValue
)

func (s Stage) String() string {
	switch s {
	case StageTransport:
		return "transport"
	case StageProcedure:
		return "procedure"
	case StageValue:
		return "value"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// DecodeError carries whatever header fields were recovered before decode failed.
type DecodeError struct {
	Stage         Stage
	Kind          procedure.Kind
	ProcedureCode procedure.Code
	Criticality   ie.Criticality
	TransactionID uint16
	Err           error
}

func (e *DecodeError) Error() string {
	if e.Stage == StageTransport {
		return fmt.Sprintf("pdu: decode failed at %s stage: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("pdu: decode failed at %s stage (procedure=%d kind=%s transaction=%d): %v",
		e.Stage, e.ProcedureCode, e.Kind, e.TransactionID, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Answerable reports whether the header was recovered well enough to send a reply.
func (e *DecodeError) Answerable() bool {
	return e.Stage != StageTransport
}

// Options configure a Codec.
type Options struct {
	Criticality CriticalityPolicy
	Decode      aper.DecodeOptions
}

// Codec encodes and decodes envelopes against a procedure registry.
type Codec struct {
	registry *procedure.Registry
	opts     Options
	logger   zerolog.Logger
}

func NewCodec(registry *procedure.Registry, opts Options, logger zerolog.Logger) *Codec {
	return &Codec{registry: registry, opts: opts, logger: logger.With().Str("component", "pdu").Logger()}
}

func (c *Codec) Registry() *procedure.Registry {
	return c.registry
}

// NewEnvelope fills the criticality from the procedure table.
func (c *Codec) NewEnvelope(kind procedure.Kind, code procedure.Code, transactionID uint16, v aper.Value) (Envelope, error) {
	crit, err := c.registry.Criticality(code)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Kind: kind, ProcedureCode: code, Criticality: crit, TransactionID: transactionID, Value: v}, nil
}

// Encode writes env as a complete NRPPA-PDU.
func (c *Codec) Encode(env Envelope) ([]byte, error) {
	if env.Value == nil {
		return nil, ErrNoValue
	}
	if _, err := c.registry.Schema(env.ProcedureCode, env.Kind); err != nil {
		return nil, err
	}
	w := aper.NewWriter()
	if err := choice.EncodeIndex(w, int(env.Kind), false, kindCount, true); err != nil {
		return nil, err
	}
	if err := w.WriteInteger(int64(env.ProcedureCode), codeConstraint); err != nil {
		return nil, err
	}
	crit := env.Criticality
	if err := crit.EncodeAPER(w); err != nil {
		return nil, err
	}
	if err := w.WriteInteger(int64(env.TransactionID), transactionConstraint); err != nil {
		return nil, err
	}
	if err := w.WriteOpenType(env.Value); err != nil {
		return nil, err
	}
	c.logger.Debug().Object("pdu", env).Msg("pdu encoded")
	return w.Bytes(), nil
}

// Decode parses one NRPPA-PDU. Failures are *DecodeError.
func (c *Codec) Decode(p []byte) (Envelope, error) {
	env, err := c.decode(p)
	if err != nil {
		var de *DecodeError
		if errors.As(err, &de) {
			observability.RecordDecodeError(de.Stage.String())
		}
		c.logger.Warn().Err(err).Msg("pdu decode failed")
		return env, err
	}
	observability.RecordPDU(c.procedureName(env.ProcedureCode), env.Kind.String())
	c.logger.Debug().Object("pdu", env).Msg("pdu decoded")
	return env, nil
}

func (c *Codec) decode(p []byte) (Envelope, error) {
	var env Envelope
	r := aper.NewReader(p, c.opts.Decode)
	transport := func(err error) (Envelope, error) {
		return env, &DecodeError{Stage: StageTransport, Err: err}
	}

	k, ext, err := choice.DecodeIndex(r, kindCount, true)
	if err != nil {
		return transport(err)
	}
	if ext {
		return transport(&choice.UnknownChoiceIDError{Choice: "NRPPA-PDU", Index: k, Extension: true})
	}
	env.Kind = procedure.Kind(k)
	code, err := r.ReadInteger(codeConstraint)
	if err != nil {
		return transport(err)
	}
	env.ProcedureCode = procedure.Code(code)
	if err := env.Criticality.DecodeAPER(r); err != nil {
		return transport(err)
	}
	txid, err := r.ReadInteger(transactionConstraint)
	if err != nil {
		return transport(err)
	}
	env.TransactionID = uint16(txid)

	fail := func(stage Stage, err error) (Envelope, error) {
		return env, &DecodeError{
			Stage:         stage,
			Kind:          env.Kind,
			ProcedureCode: env.ProcedureCode,
			Criticality:   env.Criticality,
			TransactionID: env.TransactionID,
			Err:           err,
		}
	}

	schema, err := c.registry.Schema(env.ProcedureCode, env.Kind)
	if err != nil {
		return fail(StageProcedure, err)
	}
	want, _ := c.registry.Criticality(env.ProcedureCode)
	if want != env.Criticality {
		mismatch := &CriticalityMismatchError{ProcedureCode: env.ProcedureCode, Got: env.Criticality, Want: want}
		observability.RecordCriticalityMismatch(c.procedureName(env.ProcedureCode))
		if c.opts.Criticality == CriticalityReject {
			return fail(StageProcedure, mismatch)
		}
		c.logger.Warn().Err(mismatch).Uint16("transaction_id", env.TransactionID).Msg("criticality mismatch accepted")
	}

	raw, err := r.ReadOpenType()
	if err != nil {
		return fail(StageValue, err)
	}
	v := schema.New()
	if err := v.DecodeAPER(r.Sub(raw)); err != nil {
		return fail(StageValue, err)
	}
	env.Value = v
	return env, nil
}

func (c *Codec) procedureName(code procedure.Code) string {
	if d, ok := c.registry.Lookup(code); ok {
		return d.Name
	}
	return fmt.Sprintf("code-%d", code)
}
