package messages

import (
	"fmt"

	"github.com/danmuck/nrppa/internal/protocol/aper"
	"github.com/danmuck/nrppa/internal/protocol/choice"
	"github.com/danmuck/nrppa/internal/protocol/ie"
	"github.com/rs/zerolog"
)

type CauseRadioNetwork int

const (
	RadioNetworkUnspecified CauseRadioNetwork = iota
	RadioNetworkRequestedItemNotSupported
	RadioNetworkRequestedItemTemporarilyNotAvailable
	RadioNetworkServingNGRANNodeChanged
	RadioNetworkRequestedItemNotSupportedOnTime
)

var radioNetworkNames = []string{
	"unspecified",
	"requested-item-not-supported",
	"requested-item-temporarily-not-available",
	"serving-NG-RAN-node-changed",
	"requested-item-not-supported-on-time",
}

type CauseProtocol int

const (
	ProtocolTransferSyntaxError CauseProtocol = iota
	ProtocolAbstractSyntaxErrorReject
	ProtocolAbstractSyntaxErrorIgnoreAndNotify
	ProtocolMessageNotCompatibleWithReceiverState
	ProtocolSemanticError
	ProtocolUnspecified
	ProtocolAbstractSyntaxErrorFalselyConstructedMessage
)

var protocolNames = []string{
	"transfer-syntax-error",
	"abstract-syntax-error-reject",
	"abstract-syntax-error-ignore-and-notify",
	"message-not-compatible-with-receiver-state",
	"semantic-error",
	"unspecified",
	"abstract-syntax-error-falsely-constructed-message",
}

type CauseMisc int

const (
	MiscUnspecified CauseMisc = iota
)

var miscNames = []string{"unspecified"}

func enumName(names []string, v int) string {
	if v >= 0 && v < len(names) {
		return names[v]
	}
	return fmt.Sprintf("extension-%d", v-len(names))
}

func (c CauseRadioNetwork) String() string { return enumName(radioNetworkNames, int(c)) }
func (c CauseProtocol) String() string     { return enumName(protocolNames, int(c)) }
func (c CauseMisc) String() string         { return enumName(miscNames, int(c)) }

func (c *CauseRadioNetwork) EncodeAPER(w *aper.Writer) error {
	return w.WriteEnumerated(int(*c), 3, true)
}

func (c *CauseRadioNetwork) DecodeAPER(r *aper.Reader) error {
	v, err := r.ReadEnumerated(3, true)
	*c = CauseRadioNetwork(v)
	return err
}

func (c *CauseProtocol) EncodeAPER(w *aper.Writer) error {
	return w.WriteEnumerated(int(*c), 7, true)
}

func (c *CauseProtocol) DecodeAPER(r *aper.Reader) error {
	v, err := r.ReadEnumerated(7, true)
	*c = CauseProtocol(v)
	return err
}

func (c *CauseMisc) EncodeAPER(w *aper.Writer) error {
	return w.WriteEnumerated(int(*c), 1, true)
}

func (c *CauseMisc) DecodeAPER(r *aper.Reader) error {
	v, err := r.ReadEnumerated(1, true)
	*c = CauseMisc(v)
	return err
}

// Cause alternatives.
const (
	CauseGroupRadioNetwork = iota
	CauseGroupProtocol
	CauseGroupMisc
	CauseGroupChoiceExtension
)

var causeSpec = &choice.Spec{
	Name: "Cause",
	Root: []choice.Alternative{
		{Name: "radioNetwork", New: func() aper.Value { return new(CauseRadioNetwork) }},
		{Name: "protocol", New: func() aper.Value { return new(CauseProtocol) }},
		{Name: "misc", New: func() aper.Value { return new(CauseMisc) }},
		{Name: "choice-Extension", New: func() aper.Value { return &ie.OpenContainer{Lower: 1, Upper: 1} }},
	},
}

// Cause tells the peer why a procedure failed.
type Cause struct {
	*choice.Choice
}

func RadioNetworkCause(v CauseRadioNetwork) *Cause {
	c := choice.New(causeSpec)
	_ = c.SetValue(CauseGroupRadioNetwork, &v)
	return &Cause{c}
}

func ProtocolCause(v CauseProtocol) *Cause {
	c := choice.New(causeSpec)
	_ = c.SetValue(CauseGroupProtocol, &v)
	return &Cause{c}
}

func MiscCause(v CauseMisc) *Cause {
	c := choice.New(causeSpec)
	_ = c.SetValue(CauseGroupMisc, &v)
	return &Cause{c}
}

func (c *Cause) EncodeAPER(w *aper.Writer) error {
	if c.Choice == nil {
		return fmt.Errorf("%w: %s", choice.ErrUnset, causeSpec.Name)
	}
	return c.Choice.EncodeAPER(w)
}

func (c *Cause) DecodeAPER(r *aper.Reader) error {
	c.Choice = choice.New(causeSpec)
	return c.Choice.DecodeAPER(r)
}

func (c *Cause) String() string {
	if c == nil || c.Choice == nil {
		return "<unset>"
	}
	switch v := c.Value().(type) {
	case *CauseRadioNetwork:
		return "radioNetwork/" + v.String()
	case *CauseProtocol:
		return "protocol/" + v.String()
	case *CauseMisc:
		return "misc/" + v.String()
	default:
		return c.Name()
	}
}

func (c *Cause) MarshalZerologObject(e *zerolog.Event) {
	e.Str("cause", c.String())
}

// CauseCarrier is implemented by messages that carry a Cause IE.
type CauseCarrier interface {
	Cause() (*Cause, bool)
}
