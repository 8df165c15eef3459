// Package protocol groups the NRPPa wire layers.
//
// Ownership boundary:
// - aper: aligned PER bit cursor and primitive codecs
// - ie, choice: protocol IE containers, SEQUENCE and CHOICE codecs
// - procedure, pdu: procedure table and NRPPA-PDU envelope
// - messages: typed NRPPa messages and IEs
// - frame: stream framing for transport
package protocol
