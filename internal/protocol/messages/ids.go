// Package messages models the NRPPa messages the entity builds or inspects and
// assembles the TS 38.455 procedure table. Messages outside that subset travel as
// opaque open types.
package messages

// ProtocolIE ids, TS 38.455 NRPPA-Constants.
const (
	IDCause                        uint16 = 0
	IDCriticalityDiagnostics       uint16 = 1
	IDTRPInformationTypeListTRPReq uint16 = 29
	IDTRPInformationListTRPResp    uint16 = 30
	IDTRPList                      uint16 = 38
	IDTRPInformationTypeItem       uint16 = 48
)

const (
	maxNrOfErrors     = 256
	maxnoTRPs         = 65535
	maxnoTRPInfoTypes = 64
)
