// Package wire implements the packed, little-endian DPSP/DPRP structures
// and the DPRP variable-length identifier encoding that make up the
// DirectPlay service provider wire format. All functions here are pure
// over byte slices; none of them touch a socket.
package wire

import "encoding/binary"

// le is used for every multi-byte field except port, which is on the
// wire in network byte order.
var le = binary.LittleEndian
var be = binary.BigEndian

// Signature is the literal 4-byte DPSP marker.
const Signature = "play"

// SupportedVersion is the only DPSPHeader.Version this server accepts.
// 14 corresponds to the DirectX 9-era wire format.
const SupportedVersion uint16 = 14

// ReplyToken is packed into the high bits of a DPSPHeader's SizeToken.
// The original source used 0xFAB; any fixed value works, clients don't
// interpret it.
const ReplyToken uint32 = 0xFAB
