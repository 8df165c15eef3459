// Package ie owns NRPPa information element containers and SEQUENCE layout.
//
// Ownership boundary:
// - criticality and presence tags
// - schema-bound ProtocolIE-Container encode/decode
// - SEQUENCE presence bitmaps and extension additions
// - SEQUENCE OF lists and raw extension containers
package ie

import (
	"fmt"

	"github.com/danmuck/nrppa/internal/protocol/aper"
)

// Criticality tells a receiver what to do with an IE or procedure it cannot comprehend.
type Criticality int

const (
	Reject Criticality = iota
	Ignore
	Notify
)

func (c Criticality) String() string {
	switch c {
	case Reject:
		return "reject"
	case Ignore:
		return "ignore"
	case Notify:
		return "notify"
	default:
		return fmt.Sprintf("criticality(%d)", int(c))
	}
}

// EncodeAPER writes the criticality as a 3-value enumeration.
func (c *Criticality) EncodeAPER(w *aper.Writer) error {
	return w.WriteEnumerated(int(*c), 3, false)
}

// DecodeAPER reads a criticality.
func (c *Criticality) DecodeAPER(r *aper.Reader) error {
	v, err := r.ReadEnumerated(3, false)
	if err != nil {
		return err
	}
	*c = Criticality(v)
	return nil
}

type Presence int

const (
	Mandatory Presence = iota
	Optional
	Conditional
)

func (p Presence) String() string {
	switch p {
	case Mandatory:
		return "mandatory"
	case Optional:
		return "optional"
	case Conditional:
		return "conditional"
	default:
		return fmt.Sprintf("presence(%d)", int(p))
	}
}

const (
	maxProtocolIEs        = 65535
	maxProtocolExtensions = 65535
)

var idConstraint = aper.Range(0, 65535)

func writeID(w *aper.Writer, id uint16) error {
	return w.WriteInteger(int64(id), idConstraint)
}

func readID(r *aper.Reader) (uint16, error) {
	v, err := r.ReadInteger(idConstraint)
	return uint16(v), err
}
