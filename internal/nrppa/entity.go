package nrppa

import (
	"context"
	"errors"
	"sync"

	"github.com/danmuck/nrppa/internal/protocol/aper"
	"github.com/danmuck/nrppa/internal/protocol/ie"
	"github.com/danmuck/nrppa/internal/protocol/messages"
	"github.com/danmuck/nrppa/internal/protocol/pdu"
	"github.com/danmuck/nrppa/internal/protocol/procedure"
	"github.com/rs/zerolog"
)

// Entity receives NRPPa PDUs from the location server side and dispatches them.
type Entity struct {
	codec  *pdu.Codec
	driver *Driver
	upward Notifier
	logger zerolog.Logger
	wg     sync.WaitGroup
}

func NewEntity(codec *pdu.Codec, driver *Driver, upward Notifier, logger zerolog.Logger) *Entity {
	return &Entity{
		codec:  codec,
		driver: driver,
		upward: upward,
		logger: logger.With().Str("component", "entity").Logger(),
	}
}

// HandleMessage decodes raw and dispatches it. Procedure executions run on their own
// goroutine under ctx. Decode failures that still identify a transaction are answered
// before the error is returned.
func (e *Entity) HandleMessage(ctx context.Context, raw []byte, key RouteKey) error {
	env, err := e.codec.Decode(raw)
	if err != nil {
		var de *pdu.DecodeError
		if errors.As(err, &de) && de.Answerable() {
			e.answerDecodeError(ctx, de, key)
		}
		return err
	}
	logger := e.logger.With().
		Uint8("procedure_code", uint8(env.ProcedureCode)).
		Uint16("transaction_id", env.TransactionID).
		Logger()

	switch {
	case env.ProcedureCode == procedure.TRPInformationExchange && env.Kind == procedure.InitiatingMessage:
		req, ok := env.Value.(*messages.TRPInformationRequest)
		if !ok {
			logger.Error().Msgf("unexpected request type %T", env.Value)
			return nil
		}
		e.wg.Add(1)
		go func() {
			defer e.wg.Done()
			e.driver.TRPInformationExchange(ctx, env.TransactionID, req, key)
		}()
	case env.ProcedureCode == procedure.ErrorIndication:
		event := logger.Warn()
		if ind, ok := env.Value.(*messages.ErrorIndication); ok {
			if cause, ok := ind.Cause(); ok {
				event = event.Str("cause", cause.String())
			}
		}
		event.Msg("error indication received")
	default:
		logger.Warn().Str("kind", env.Kind.String()).Msg("procedure not supported in current state")
		e.sendErrorIndication(ctx, env.TransactionID, key,
			messages.ProtocolCause(messages.ProtocolMessageNotCompatibleWithReceiverState),
			diagnosticsFor(env.ProcedureCode, env.Kind, env.Criticality, env.TransactionID, nil))
	}
	return nil
}

// Wait blocks until every spawned execution has finished.
func (e *Entity) Wait() {
	e.wg.Wait()
}

func (e *Entity) answerDecodeError(ctx context.Context, de *pdu.DecodeError, key RouteKey) {
	if de.ProcedureCode == procedure.ErrorIndication {
		return
	}
	cause := causeForDecodeError(de)
	diag := diagnosticsFor(de.ProcedureCode, de.Kind, de.Criticality, de.TransactionID, ieDiagnostics(de.Err))

	// Only procedures with a modeled failure message can be answered in-procedure.
	if de.Kind == procedure.InitiatingMessage && de.ProcedureCode == procedure.TRPInformationExchange {
		failure := messages.NewTRPInformationFailure()
		failure.SetCause(cause)
		failure.SetDiagnostics(diag)
		e.send(ctx, procedure.UnsuccessfulOutcome, de.ProcedureCode, de.TransactionID, key, failure)
		return
	}
	e.sendErrorIndication(ctx, de.TransactionID, key, cause, diag)
}

func (e *Entity) sendErrorIndication(ctx context.Context, txid uint16, key RouteKey, cause *messages.Cause, diag *messages.CriticalityDiagnostics) {
	ind := messages.NewErrorIndication()
	ind.SetCause(cause)
	if diag != nil {
		ind.SetDiagnostics(diag)
	}
	e.send(ctx, procedure.InitiatingMessage, procedure.ErrorIndication, txid, key, ind)
}

func (e *Entity) send(ctx context.Context, kind procedure.Kind, code procedure.Code, txid uint16, key RouteKey, v aper.Value) {
	env, err := e.codec.NewEnvelope(kind, code, txid, v)
	if err == nil {
		var raw []byte
		if raw, err = e.codec.Encode(env); err == nil {
			err = e.upward.Send(ctx, raw, key)
		}
	}
	if err != nil {
		e.logger.Error().Err(err).Uint8("procedure_code", uint8(code)).Msg("send failed")
	}
}

func causeForDecodeError(de *pdu.DecodeError) *messages.Cause {
	var unknown *ie.UnknownIDError
	var mismatch *pdu.CriticalityMismatchError
	switch {
	case errors.As(de.Err, &mismatch):
		return messages.ProtocolCause(messages.ProtocolAbstractSyntaxErrorFalselyConstructedMessage)
	case de.Stage == pdu.StageProcedure:
		return messages.ProtocolCause(messages.ProtocolAbstractSyntaxErrorReject)
	case errors.Is(de.Err, ie.ErrMissingMandatory):
		return messages.ProtocolCause(messages.ProtocolAbstractSyntaxErrorReject)
	case errors.As(de.Err, &unknown):
		if unknown.Criticality == ie.Reject {
			return messages.ProtocolCause(messages.ProtocolAbstractSyntaxErrorReject)
		}
		return messages.ProtocolCause(messages.ProtocolAbstractSyntaxErrorIgnoreAndNotify)
	default:
		return messages.ProtocolCause(messages.ProtocolTransferSyntaxError)
	}
}

func diagnosticsFor(code procedure.Code, kind procedure.Kind, crit ie.Criticality, txid uint16, ies []messages.IECriticalityDiagnostic) *messages.CriticalityDiagnostics {
	trig := messages.TriggeringMessage(kind)
	return &messages.CriticalityDiagnostics{
		ProcedureCode:        &code,
		TriggeringMessage:    &trig,
		ProcedureCriticality: &crit,
		TransactionID:        &txid,
		IEs:                  ies,
	}
}

func ieDiagnostics(err error) []messages.IECriticalityDiagnostic {
	var unknown *ie.UnknownIDError
	if errors.As(err, &unknown) {
		return []messages.IECriticalityDiagnostic{{Criticality: unknown.Criticality, ID: unknown.ID, TypeOfError: messages.NotUnderstood}}
	}
	var missing *ie.MissingFieldError
	if errors.As(err, &missing) {
		out := make([]messages.IECriticalityDiagnostic, len(missing.IDs))
		for i, id := range missing.IDs {
			out[i] = messages.IECriticalityDiagnostic{Criticality: ie.Reject, ID: id, TypeOfError: messages.Missing}
		}
		return out
	}
	return nil
}
