package dpsp

import (
	"testing"

	"github.com/dplayhost/dplayhost/internal/wire"
)

func TestPacketInlineDispatch(t *testing.T) {
	d, _ := newTestDispatcher()
	out := &fakeOutgoing{port: 6073}
	client := &ClientState{Out: out}

	innerBody := make([]byte, wire.RequestPlayerIDBodySize)
	le32put(innerBody, wire.RequestPlayerIDSystem)
	innerHeader := wire.Header{Command: wire.CmdRequestPlayerID, Version: wire.SupportedVersion}
	inner := append(innerHeader.Encode(false), innerBody...)

	packetBody := packetBodyBytes(inner)

	outer := wire.FillOutgoing(wire.CmdPacket, wire.HeaderFullSize+len(packetBody), 0)
	msg := append(outer.Encode(true), packetBody...)

	res := d.HandleTCP(client, msg)
	if res.Outcome != Complete {
		t.Fatalf("outcome = %v, want Complete", res.Outcome)
	}
	if len(out.sent) != 1 {
		t.Fatalf("expected RequestPlayerReply dispatched through inline Packet, got %d sends", len(out.sent))
	}
}

func packetBodyBytes(inner []byte) []byte {
	buf := make([]byte, wire.PacketBodySize)
	le32put(buf[16:20], 0)                  // packetIndex
	le32put(buf[20:24], uint32(len(inner))) // dataSize
	le32put(buf[24:28], 0)                  // offset
	le32put(buf[28:32], 1)                  // totalPackets
	le32put(buf[32:36], uint32(len(inner))) // messageSize
	le32put(buf[36:40], 0)                  // packedOffset
	return append(buf, inner...)
}

func TestUnknownCommandDoesNotPanic(t *testing.T) {
	d, _ := newTestDispatcher()
	client := &ClientState{Out: &fakeOutgoing{}}

	header := wire.FillOutgoing(wire.CmdPing, wire.HeaderFullSize, 0)
	msg := header.Encode(true)

	res := d.HandleTCP(client, msg)
	if res.Outcome != Complete {
		t.Fatalf("outcome = %v, want Complete", res.Outcome)
	}
	if d.Met.DpspUnknownCmd.Load() != 1 {
		t.Fatalf("DpspUnknownCmd = %d, want 1", d.Met.DpspUnknownCmd.Load())
	}
}
