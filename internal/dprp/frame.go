// Package dprp implements the "reliable protocol" datagram layer that
// sits between UDP and the upper DPSP messages: per-client message
// reassembly, sequencing, and acknowledgment. It knows nothing about
// sockets; Transport.HandleFrame takes and (via callbacks) produces raw
// byte frames.
package dprp

import (
	"encoding/binary"
	"fmt"

	"github.com/dplayhost/dplayhost/internal/wire"
)

// Frame flag bits.
const (
	FlagReliable uint8 = 1 << 0
	FlagAck      uint8 = 1 << 1
	FlagSendAck  uint8 = 1 << 2
	FlagEnd      uint8 = 1 << 3
	FlagStart    uint8 = 1 << 4
	FlagCommand  uint8 = 1 << 5
	FlagBig      uint8 = 1 << 6 // unsupported
	FlagExtended uint8 = 1 << 7 // unsupported
)

// Frame is a decoded DPRP frame.
type Frame struct {
	FromID, ToID          uint16
	Flags                 uint8
	MessageID, Seq, Serial uint8
	Payload               []byte

	// idLen is the number of bytes the fromId/toId varints occupied on
	// the wire; it is excluded from the bytes-received counter.
	idLen int
}

// ErrFrameTooShort reports a frame with fewer than the 4 fixed bytes
// (flags, messageId, sequence, serial) after the id varints.
var ErrFrameTooShort = fmt.Errorf("dprp: frame too short")

// DecodeFrame parses a DPRP frame from buf.
func DecodeFrame(buf []byte) (Frame, error) {
	fromID, n1, err := wire.DecodeVarint(buf)
	if err != nil {
		return Frame{}, fmt.Errorf("dprp: fromId: %w", err)
	}
	toID, n2, err := wire.DecodeVarint(buf[n1:])
	if err != nil {
		return Frame{}, fmt.Errorf("dprp: toId: %w", err)
	}

	rest := buf[n1+n2:]
	if len(rest) < 4 {
		return Frame{}, ErrFrameTooShort
	}

	return Frame{
		FromID:    uint16(fromID),
		ToID:      uint16(toID),
		Flags:     rest[0],
		MessageID: rest[1],
		Seq:       rest[2],
		Serial:    rest[3],
		Payload:   rest[4:],
		idLen:     n1 + n2,
	}, nil
}

// Encode serializes f back to wire form.
func (f Frame) Encode() []byte {
	buf := make([]byte, 0, 4+6+len(f.Payload))
	buf = append(buf, wire.EncodeVarint(uint32(f.FromID))...)
	buf = append(buf, wire.EncodeVarint(uint32(f.ToID))...)
	buf = append(buf, f.Flags, f.MessageID, f.Seq, f.Serial)
	buf = append(buf, f.Payload...)
	return buf
}

// EncodeAckPayload builds the 8-byte ack payload: the cumulative
// bytes-received counter followed by the session tick count, both
// little-endian 32-bit fields.
func EncodeAckPayload(bytesReceived, tickCount uint32) []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint32(buf[0:4], bytesReceived)
	binary.LittleEndian.PutUint32(buf[4:8], tickCount)
	return buf
}
