package nrppa

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/danmuck/nrppa/internal/observability"
	"github.com/danmuck/nrppa/internal/protocol/aper"
	"github.com/danmuck/nrppa/internal/protocol/messages"
	"github.com/danmuck/nrppa/internal/protocol/pdu"
	"github.com/danmuck/nrppa/internal/protocol/procedure"
	"github.com/rs/zerolog"
)

// ExecutionState is the lifecycle phase of one procedure execution.
type ExecutionState string

const (
	StateAwaitingCollaborator ExecutionState = "awaiting_collaborator"
	StateResolved             ExecutionState = "resolved"
)

// Outcome is how an execution ended.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
	// OutcomeDropped means the execution was cancelled and nothing was sent.
	OutcomeDropped Outcome = "dropped"
)

// CancelPolicy decides what a cancelled execution sends.
type CancelPolicy int

const (
	CancelDrop CancelPolicy = iota
	CancelNotify
)

var (
	ErrCollaboratorTimeout = errors.New("nrppa: collaborator timed out")
	ErrEmptyAggregate      = errors.New("nrppa: collaborator returned no trp information")
	ErrMissingNotifier     = errors.New("nrppa: source has no f1 notifier")
)

// DriverConfig tunes procedure executions.
type DriverConfig struct {
	// CollaboratorTimeout bounds the wait for the collaborator; zero waits for ctx only.
	CollaboratorTimeout time.Duration
	Cancel              CancelPolicy
}

// Driver runs TRP Information Exchange executions against shared state.
type Driver struct {
	codec     *pdu.Codec
	collab    Collaborator
	trps      *TRPMap
	notifiers *NotifierRegistry
	upward    Notifier
	cfg       DriverConfig
	logger    zerolog.Logger
}

// Deps are the collaborators a Driver needs; all are owned by the caller.
type Deps struct {
	Codec        *pdu.Codec
	Collaborator Collaborator
	TRPs         *TRPMap
	Notifiers    *NotifierRegistry
	Upward       Notifier
}

func NewDriver(deps Deps, cfg DriverConfig, logger zerolog.Logger) *Driver {
	return &Driver{
		codec:     deps.Codec,
		collab:    deps.Collaborator,
		trps:      deps.TRPs,
		notifiers: deps.Notifiers,
		upward:    deps.Upward,
		cfg:       cfg,
		logger:    logger.With().Str("component", "driver").Logger(),
	}
}

// Execution is the record of one TRP Information Exchange.
type Execution struct {
	TransactionID uint16
	Route         RouteKey
	Query         TRPQuery
	State         ExecutionState
	Outcome       Outcome
	Cause         *messages.Cause
	Err           error
	Started       time.Time
}

type collaboratorReply struct {
	agg Aggregate
	err error
}

// TRPInformationExchange runs one execution to completion and sends its single outcome
// upward. It blocks until the outcome is sent or the execution is dropped.
func (d *Driver) TRPInformationExchange(ctx context.Context, txid uint16, req *messages.TRPInformationRequest, key RouteKey) Execution {
	exec := Execution{
		TransactionID: txid,
		Route:         key,
		Query:         queryFromRequest(req),
		Started:       time.Now(),
	}
	logger := d.logger.With().Uint16("transaction_id", txid).Uint64("route", uint64(key)).Logger()
	logger.Debug().Int("trps", len(exec.Query.TRPs)).Msg("trp information exchange started")

	if d.trps.ContainsAll(exec.Query.TRPs) {
		exec.State = StateResolved
		infos := d.trps.Infos(exec.Query.TRPs)
		logger.Debug().Int("trps", len(infos)).Msg("resolved from trp map")
		return d.finish(ctx, logger, exec, infos)
	}

	exec.State = StateAwaitingCollaborator
	agg, err := d.awaitCollaborator(ctx, exec.Query)
	exec.State = StateResolved
	if err != nil && ctx.Err() != nil && !errors.Is(err, ErrCollaboratorTimeout) {
		return d.cancelled(ctx, logger, exec)
	}
	if err != nil {
		logger.Warn().Err(err).Msg("collaborator failed")
		return d.fail(ctx, logger, exec, messages.RadioNetworkCause(messages.RadioNetworkUnspecified), err)
	}
	sources := make(Aggregate, len(agg))
	for i, src := range agg {
		src.Items = encodableInfos(logger, src)
		sources[i] = src
	}
	if sources.ItemCount() == 0 {
		return d.fail(ctx, logger, exec, messages.RadioNetworkCause(messages.RadioNetworkUnspecified), ErrEmptyAggregate)
	}

	infos := make([]messages.TRPInformation, 0, sources.ItemCount())
	for _, src := range sources {
		d.trps.Merge(src.DU, src.Items)
		if src.Notifier == nil {
			logger.Warn().Uint32("du", uint32(src.DU)).Msg("source without f1 notifier")
			return d.fail(ctx, logger, exec, messages.ProtocolCause(messages.ProtocolUnspecified),
				fmt.Errorf("%w: du %d", ErrMissingNotifier, src.DU))
		}
		d.notifiers.Register(src.DU, src.Notifier)
		infos = append(infos, src.Items...)
	}
	return d.finish(ctx, logger, exec, infos)
}

// encodableInfos keeps the entries of src that encode on their own, so a malformed
// entry never reaches the TRP map.
func encodableInfos(logger zerolog.Logger, src SourceResult) []messages.TRPInformation {
	kept := src.Items[:0:0]
	for i := range src.Items {
		if _, err := aper.Marshal(&src.Items[i]); err != nil {
			logger.Warn().Err(err).Uint32("du", uint32(src.DU)).Uint32("trp", uint32(src.Items[i].ID)).
				Msg("dropping unencodable trp information")
			continue
		}
		kept = append(kept, src.Items[i])
	}
	return kept
}

func (d *Driver) awaitCollaborator(ctx context.Context, q TRPQuery) (Aggregate, error) {
	callCtx, cancel := ctx, context.CancelFunc(func() {})
	if d.cfg.CollaboratorTimeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, d.cfg.CollaboratorTimeout)
	}
	defer cancel()

	replies := make(chan collaboratorReply, 1)
	go func() {
		agg, err := d.collab.RequestTRPInformation(callCtx, q)
		replies <- collaboratorReply{agg: agg, err: err}
	}()

	select {
	case reply := <-replies:
		return reply.agg, reply.err
	case <-callCtx.Done():
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, ErrCollaboratorTimeout
	}
}

func (d *Driver) finish(ctx context.Context, logger zerolog.Logger, exec Execution, infos []messages.TRPInformation) Execution {
	resp := messages.NewTRPInformationResponse()
	resp.SetInformation(messages.NewTRPInformationList(infos...))
	raw, err := d.encode(procedure.SuccessfulOutcome, exec, resp)
	if err != nil {
		logger.Error().Err(err).Msg("encode trp information response")
		return d.fail(ctx, logger, exec, messages.MiscCause(messages.MiscUnspecified), err)
	}
	exec.Outcome = OutcomeSuccess
	if err := d.upward.Send(ctx, raw, exec.Route); err != nil {
		logger.Error().Err(err).Msg("send trp information response")
		exec.Outcome = OutcomeFailure
		exec.Err = err
	}
	d.record(logger, exec)
	return exec
}

func (d *Driver) fail(ctx context.Context, logger zerolog.Logger, exec Execution, cause *messages.Cause, reason error) Execution {
	failure := messages.NewTRPInformationFailure()
	failure.SetCause(cause)
	exec.Cause = cause
	exec.Err = reason
	raw, err := d.encode(procedure.UnsuccessfulOutcome, exec, failure)
	if err == nil {
		err = d.upward.Send(ctx, raw, exec.Route)
	}
	if err != nil {
		logger.Error().Err(err).Msg("send trp information failure")
		exec.Err = errors.Join(reason, err)
	}
	exec.Outcome = OutcomeFailure
	d.record(logger, exec)
	return exec
}

func (d *Driver) cancelled(ctx context.Context, logger zerolog.Logger, exec Execution) Execution {
	if d.cfg.Cancel == CancelNotify {
		return d.fail(context.WithoutCancel(ctx), logger, exec, messages.MiscCause(messages.MiscUnspecified), ctx.Err())
	}
	exec.Outcome = OutcomeDropped
	exec.Err = ctx.Err()
	d.record(logger, exec)
	return exec
}

func (d *Driver) encode(kind procedure.Kind, exec Execution, v aper.Value) ([]byte, error) {
	env, err := d.codec.NewEnvelope(kind, procedure.TRPInformationExchange, exec.TransactionID, v)
	if err != nil {
		return nil, err
	}
	return d.codec.Encode(env)
}

func (d *Driver) record(logger zerolog.Logger, exec Execution) {
	observability.RecordProcedureOutcome("tRPInformationExchange", string(exec.Outcome), time.Since(exec.Started))
	event := logger.Info()
	if exec.Outcome != OutcomeSuccess {
		event = logger.Warn().AnErr("reason", exec.Err)
	}
	if exec.Cause != nil {
		event = event.Str("cause", exec.Cause.String())
	}
	event.Str("outcome", string(exec.Outcome)).Msg("trp information exchange complete")
}

func queryFromRequest(req *messages.TRPInformationRequest) TRPQuery {
	var q TRPQuery
	if list, ok := req.TRPList(); ok {
		q.TRPs = list.IDs()
	}
	if types, ok := req.InformationTypes(); ok {
		q.Types = append(q.Types, types.Items...)
	}
	return q
}
