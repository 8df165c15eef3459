package messages

import (
	"github.com/danmuck/nrppa/internal/protocol/aper"
	"github.com/danmuck/nrppa/internal/protocol/ie"
	"github.com/danmuck/nrppa/internal/protocol/procedure"
)

func opaque(name string) *procedure.MessageSchema {
	return &procedure.MessageSchema{Name: name, New: func() aper.Value { return &aper.Open{} }}
}

func class1(code procedure.Code, name, initiating, successful, unsuccessful string) procedure.Descriptor {
	return procedure.Descriptor{
		Code:         code,
		Name:         name,
		Class:        procedure.Class1,
		Criticality:  ie.Reject,
		Initiating:   opaque(initiating),
		Successful:   opaque(successful),
		Unsuccessful: opaque(unsuccessful),
	}
}

func class2(code procedure.Code, name, initiating string) procedure.Descriptor {
	return procedure.Descriptor{
		Code:        code,
		Name:        name,
		Class:       procedure.Class2,
		Criticality: ie.Ignore,
		Initiating:  opaque(initiating),
	}
}

// Descriptors returns the TS 38.455 elementary procedure table. Messages this
// package models decode to their typed form; the rest stay opaque.
func Descriptors() []procedure.Descriptor {
	return []procedure.Descriptor{
		{
			Code:        procedure.ErrorIndication,
			Name:        "errorIndication",
			Class:       procedure.Class2,
			Criticality: ie.Ignore,
			Initiating: &procedure.MessageSchema{Name: "ErrorIndication",
				New: func() aper.Value { return NewErrorIndication() }},
		},
		class2(procedure.PrivateMessage, "privateMessage", "PrivateMessage"),
		class1(procedure.ECIDMeasurementInitiation, "e-CIDMeasurementInitiation",
			"E-CIDMeasurementInitiationRequest", "E-CIDMeasurementInitiationResponse", "E-CIDMeasurementInitiationFailure"),
		class2(procedure.ECIDMeasurementFailureIndication, "e-CIDMeasurementFailureIndication", "E-CIDMeasurementFailureIndication"),
		class2(procedure.ECIDMeasurementReport, "e-CIDMeasurementReport", "E-CIDMeasurementReport"),
		class2(procedure.ECIDMeasurementTermination, "e-CIDMeasurementTermination", "E-CIDMeasurementTerminationCommand"),
		class1(procedure.OTDOAInformationExchange, "oTDOAInformationExchange",
			"OTDOAInformationRequest", "OTDOAInformationResponse", "OTDOAInformationFailure"),
		class2(procedure.AssistanceInformationControl, "assistanceInformationControl", "AssistanceInformationControl"),
		class2(procedure.AssistanceInformationFeedback, "assistanceInformationFeedback", "AssistanceInformationFeedback"),
		class1(procedure.PositioningInformationExchange, "positioningInformationExchange",
			"PositioningInformationRequest", "PositioningInformationResponse", "PositioningInformationFailure"),
		class2(procedure.PositioningInformationUpdate, "positioningInformationUpdate", "PositioningInformationUpdate"),
		class1(procedure.Measurement, "measurement", "MeasurementRequest", "MeasurementResponse", "MeasurementFailure"),
		class2(procedure.MeasurementReport, "measurementReport", "MeasurementReport"),
		class2(procedure.MeasurementUpdate, "measurementUpdate", "MeasurementUpdate"),
		class2(procedure.MeasurementAbort, "measurementAbort", "MeasurementAbort"),
		class2(procedure.MeasurementFailureIndication, "measurementFailureIndication", "MeasurementFailureIndication"),
		{
			Code:        procedure.TRPInformationExchange,
			Name:        "tRPInformationExchange",
			Class:       procedure.Class1,
			Criticality: ie.Reject,
			Initiating: &procedure.MessageSchema{Name: "TRPInformationRequest",
				New: func() aper.Value { return NewTRPInformationRequest() }},
			Successful: &procedure.MessageSchema{Name: "TRPInformationResponse",
				New: func() aper.Value { return NewTRPInformationResponse() }},
			Unsuccessful: &procedure.MessageSchema{Name: "TRPInformationFailure",
				New: func() aper.Value { return NewTRPInformationFailure() }},
		},
		class1(procedure.PositioningActivation, "positioningActivation",
			"PositioningActivationRequest", "PositioningActivationResponse", "PositioningActivationFailure"),
		class2(procedure.PositioningDeactivation, "positioningDeactivation", "PositioningDeactivation"),
		class1(procedure.PRSConfigurationExchange, "pRSConfigurationExchange",
			"PRSConfigurationRequest", "PRSConfigurationResponse", "PRSConfigurationFailure"),
		class1(procedure.MeasurementPreconfiguration, "measurementPreconfiguration",
			"MeasurementPreconfigurationRequired", "MeasurementPreconfigurationConfirm", "MeasurementPreconfigurationRefuse"),
		class2(procedure.MeasurementActivation, "measurementActivation", "MeasurementActivation"),
		class2(procedure.SRSInformationReservationNotification, "sRSInformationReservationNotification", "SRSInformationReservationNotification"),
	}
}

// NewRegistry builds the procedure registry over Descriptors.
func NewRegistry() (*procedure.Registry, error) {
	return procedure.NewRegistry(Descriptors()...)
}

// MustRegistry is NewRegistry for a table known to be valid.
func MustRegistry() *procedure.Registry {
	r, err := NewRegistry()
	if err != nil {
		panic(err)
	}
	return r
}
