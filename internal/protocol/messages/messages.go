package messages

import (
	"github.com/danmuck/nrppa/internal/protocol/aper"
	"github.com/danmuck/nrppa/internal/protocol/ie"
)

func newCause() aper.Value       { return &Cause{} }
func newDiagnostics() aper.Value { return &CriticalityDiagnostics{} }

var (
	errorIndicationIEs = ie.NewSchema("ErrorIndication",
		ie.Spec{ID: IDCause, Name: "Cause", Criticality: ie.Ignore, Presence: ie.Optional, New: newCause},
		ie.Spec{ID: IDCriticalityDiagnostics, Name: "CriticalityDiagnostics", Criticality: ie.Ignore, Presence: ie.Optional, New: newDiagnostics},
	)
	trpInformationRequestIEs = ie.NewSchema("TRPInformationRequest",
		ie.Spec{ID: IDTRPList, Name: "TRPList", Criticality: ie.Ignore, Presence: ie.Optional,
			New: func() aper.Value { return &TRPList{} }},
		ie.Spec{ID: IDTRPInformationTypeListTRPReq, Name: "TRPInformationTypeListTRPReq", Criticality: ie.Reject, Presence: ie.Mandatory,
			New: func() aper.Value { return &TRPInformationTypeList{} }},
	)
	trpInformationResponseIEs = ie.NewSchema("TRPInformationResponse",
		ie.Spec{ID: IDTRPInformationListTRPResp, Name: "TRPInformationListTRPResp", Criticality: ie.Ignore, Presence: ie.Mandatory,
			New: func() aper.Value { return &TRPInformationList{} }},
		ie.Spec{ID: IDCriticalityDiagnostics, Name: "CriticalityDiagnostics", Criticality: ie.Ignore, Presence: ie.Optional, New: newDiagnostics},
	)
	trpInformationFailureIEs = ie.NewSchema("TRPInformationFailure",
		ie.Spec{ID: IDCause, Name: "Cause", Criticality: ie.Ignore, Presence: ie.Mandatory, New: newCause},
		ie.Spec{ID: IDCriticalityDiagnostics, Name: "CriticalityDiagnostics", Criticality: ie.Ignore, Presence: ie.Optional, New: newDiagnostics},
	)
)

// ErrorIndication reports a protocol error not tied to an unsuccessful outcome.
type ErrorIndication struct {
	*ie.Message
}

func NewErrorIndication() *ErrorIndication {
	return &ErrorIndication{ie.NewMessage(errorIndicationIEs)}
}

func (m *ErrorIndication) Cause() (*Cause, bool) {
	return ie.Get[*Cause](m.Container, IDCause)
}

func (m *ErrorIndication) SetCause(c *Cause) {
	m.MustSet(IDCause, c)
}

func (m *ErrorIndication) Diagnostics() (*CriticalityDiagnostics, bool) {
	return ie.Get[*CriticalityDiagnostics](m.Container, IDCriticalityDiagnostics)
}

func (m *ErrorIndication) SetDiagnostics(d *CriticalityDiagnostics) {
	m.MustSet(IDCriticalityDiagnostics, d)
}

// TRPInformationRequest asks for information about some or all TRPs.
type TRPInformationRequest struct {
	*ie.Message
}

func NewTRPInformationRequest() *TRPInformationRequest {
	return &TRPInformationRequest{ie.NewMessage(trpInformationRequestIEs)}
}

// TRPList returns the requested TRPs. Absent means every TRP.
func (m *TRPInformationRequest) TRPList() (*TRPList, bool) {
	return ie.Get[*TRPList](m.Container, IDTRPList)
}

func (m *TRPInformationRequest) SetTRPList(l *TRPList) {
	m.MustSet(IDTRPList, l)
}

func (m *TRPInformationRequest) InformationTypes() (*TRPInformationTypeList, bool) {
	return ie.Get[*TRPInformationTypeList](m.Container, IDTRPInformationTypeListTRPReq)
}

func (m *TRPInformationRequest) SetInformationTypes(l *TRPInformationTypeList) {
	m.MustSet(IDTRPInformationTypeListTRPReq, l)
}

// TRPInformationResponse carries the information for every resolved TRP.
type TRPInformationResponse struct {
	*ie.Message
}

func NewTRPInformationResponse() *TRPInformationResponse {
	return &TRPInformationResponse{ie.NewMessage(trpInformationResponseIEs)}
}

func (m *TRPInformationResponse) Information() (*TRPInformationList, bool) {
	return ie.Get[*TRPInformationList](m.Container, IDTRPInformationListTRPResp)
}

func (m *TRPInformationResponse) SetInformation(l *TRPInformationList) {
	m.MustSet(IDTRPInformationListTRPResp, l)
}

func (m *TRPInformationResponse) SetDiagnostics(d *CriticalityDiagnostics) {
	m.MustSet(IDCriticalityDiagnostics, d)
}

// TRPInformationFailure rejects a TRP information request.
type TRPInformationFailure struct {
	*ie.Message
}

func NewTRPInformationFailure() *TRPInformationFailure {
	return &TRPInformationFailure{ie.NewMessage(trpInformationFailureIEs)}
}

func (m *TRPInformationFailure) Cause() (*Cause, bool) {
	return ie.Get[*Cause](m.Container, IDCause)
}

func (m *TRPInformationFailure) SetCause(c *Cause) {
	m.MustSet(IDCause, c)
}

func (m *TRPInformationFailure) Diagnostics() (*CriticalityDiagnostics, bool) {
	return ie.Get[*CriticalityDiagnostics](m.Container, IDCriticalityDiagnostics)
}

func (m *TRPInformationFailure) SetDiagnostics(d *CriticalityDiagnostics) {
	m.MustSet(IDCriticalityDiagnostics, d)
}
