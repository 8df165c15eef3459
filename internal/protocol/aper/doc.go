// Package aper implements the ALIGNED variant of the ASN.1 Packed Encoding Rules.
//
// Ownership boundary:
// - bit cursor (Writer, Reader) with octet alignment
// - constrained, semi-constrained and unconstrained whole numbers
// - length determinants, bit strings, octet strings, enumerations
// - open type spans
//
// Everything here is synchronous and works on caller-owned buffers.
package aper
