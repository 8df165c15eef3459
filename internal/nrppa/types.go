// Package nrppa owns the NRPPa entity: PDU dispatch, error answering, and the
// TRP Information Exchange procedure driver.
//
// Ownership boundary:
// - upward and collaborator contracts
// - shared TRP map and DU notifier registry
// - per-transaction procedure execution
package nrppa

import (
	"context"
	"fmt"

	"github.com/danmuck/nrppa/internal/protocol/messages"
)

// RouteKey identifies the peer an outcome must be delivered to.
type RouteKey uint64

// DUIndex identifies one DU behind the CU-CP.
type DUIndex uint32

// Notifier delivers encoded NRPPa PDUs upward toward the location server.
type Notifier interface {
	Send(ctx context.Context, pdu []byte, key RouteKey) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, pdu []byte, key RouteKey) error

func (f NotifierFunc) Send(ctx context.Context, pdu []byte, key RouteKey) error {
	return f(ctx, pdu, key)
}

// DUNotifier is the F1 handle used for later positioning procedures toward one DU.
type DUNotifier interface {
	Name() string
}

// TRPQuery is the request forwarded to the collaborator.
type TRPQuery struct {
	TRPs  []messages.TRPID
	Types []messages.TRPInformationTypeItem
}

// SourceResult is what one DU answered.
type SourceResult struct {
	DU       DUIndex
	Items    []messages.TRPInformation
	Notifier DUNotifier
}

func (s SourceResult) String() string {
	return fmt.Sprintf("du=%d trps=%d", s.DU, len(s.Items))
}

// Aggregate collects every source that answered.
type Aggregate []SourceResult

// ItemCount is the number of TRP information items across every source.
func (a Aggregate) ItemCount() int {
	n := 0
	for _, src := range a {
		n += len(src.Items)
	}
	return n
}

// Collaborator fans a TRP query out to the DUs and returns their answers in one response.
type Collaborator interface {
	RequestTRPInformation(ctx context.Context, q TRPQuery) (Aggregate, error)
}
