// Package procedure owns the elementary procedure table: the bijection between
// procedure codes and their message schemas.
package procedure

import (
	"fmt"

	"github.com/danmuck/nrppa/internal/protocol/aper"
	"github.com/danmuck/nrppa/internal/protocol/ie"
)

// Code is an elementary procedure code, 0..255 on the wire.
type Code uint8

const (
	ErrorIndication                       Code = 0
	PrivateMessage                        Code = 1
	ECIDMeasurementInitiation             Code = 2
	ECIDMeasurementFailureIndication      Code = 3
	ECIDMeasurementReport                 Code = 4
	ECIDMeasurementTermination            Code = 5
	OTDOAInformationExchange              Code = 6
	AssistanceInformationControl          Code = 7
	AssistanceInformationFeedback         Code = 8
	PositioningInformationExchange        Code = 9
	PositioningInformationUpdate          Code = 10
	Measurement                           Code = 11
	MeasurementReport                     Code = 12
	MeasurementUpdate                     Code = 13
	MeasurementAbort                      Code = 14
	MeasurementFailureIndication          Code = 15
	TRPInformationExchange                Code = 16
	PositioningActivation                 Code = 17
	PositioningDeactivation               Code = 18
	PRSConfigurationExchange              Code = 19
	MeasurementPreconfiguration           Code = 20
	MeasurementActivation                 Code = 21
	SRSInformationReservationNotification Code = 22
)

// Kind is the PDU alternative a message travels in.
type Kind int

const (
	InitiatingMessage Kind = iota
	SuccessfulOutcome
	UnsuccessfulOutcome
)

func (k Kind) String() string {
	switch k {
	case InitiatingMessage:
		return "initiatingMessage"
	case SuccessfulOutcome:
		return "successfulOutcome"
	case UnsuccessfulOutcome:
		return "unsuccessfulOutcome"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Class distinguishes request/response procedures from one-shot ones.
type Class int

const (
	Class1 Class = 1
	Class2 Class = 2
)

// MessageSchema names one message and builds empty values of it.
type MessageSchema struct {
	Name string
	New  func() aper.Value
}

func (m *MessageSchema) String() string {
	if m == nil {
		return "<none>"
	}
	return m.Name
}

// Descriptor is one row of the procedure table.
type Descriptor struct {
	Code         Code
	Name         string
	Class        Class
	Criticality  ie.Criticality
	Initiating   *MessageSchema
	Successful   *MessageSchema
	Unsuccessful *MessageSchema
}

// Message returns the schema for kind, nil if the procedure has no such message.
func (d Descriptor) Message(kind Kind) *MessageSchema {
	switch kind {
	case InitiatingMessage:
		return d.Initiating
	case SuccessfulOutcome:
		return d.Successful
	case UnsuccessfulOutcome:
		return d.Unsuccessful
	default:
		return nil
	}
}
