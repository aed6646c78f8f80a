package dprp

import (
	"bytes"
	"sync"

	"go.uber.org/zap"

	"github.com/dplayhost/dplayhost/internal/metrics"
	"github.com/dplayhost/dplayhost/internal/wire"
)

// Dispatcher receives messages reassembled by a Transport.
type Dispatcher interface {
	// DispatchBody handles a DPSP message body (without the optional
	// sizeToken/sockaddr prefix) whose presence was detected by its
	// "play" signature.
	DispatchBody(body []byte)
}

// Sender transmits a raw DPRP frame to the remote peer associated with
// a Transport.
type Sender interface {
	SendFrame(frame []byte) error
}

// TickSource supplies the session tick count carried in ack payloads.
type TickSource interface {
	TickCount() uint32
}

// Transport is the per-client DPRP state machine: inbound reassembly
// and outbound ack generation over a single client's connected UDP
// endpoint. At most one message assembly is
// active at a time; a frame that doesn't fit the in-progress assembly
// (wrong sequence, wrong message id, or a Start while already
// assembling) is logged and dropped without disturbing the buffer
// already in progress.
type Transport struct {
	mu sync.Mutex

	assembling bool
	messageID  uint8
	nextSeq    uint8
	buf        bytes.Buffer

	bytesReceived uint32

	sender     Sender
	dispatcher Dispatcher
	ticks      TickSource

	log *zap.SugaredLogger
	met *metrics.Metrics
}

// New creates a Transport for one client.
func New(sender Sender, dispatcher Dispatcher, ticks TickSource, log *zap.SugaredLogger, met *metrics.Metrics) *Transport {
	return &Transport{sender: sender, dispatcher: dispatcher, ticks: ticks, log: log, met: met}
}

// HandleFrame processes one inbound DPRP frame. It returns an error
// only for malformed framing (varint/short-frame errors); protocol-level
// problems (bad toId, sequence mismatch, unsupported flags) are logged
// and absorbed rather than surfaced to the caller.
func (t *Transport) HandleFrame(raw []byte) error {
	f, err := DecodeFrame(raw)
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if f.Flags&(FlagBig|FlagExtended) != 0 {
		t.logDrop("unsupported frame flags", f)
		return nil
	}

	t.bytesReceived += uint32(len(raw) - f.idLen)
	if t.met != nil {
		t.met.DprpBytesReceived.Add(int64(len(raw) - f.idLen))
	}

	if f.ToID != 0 {
		t.logDrop("frame addressed to non-zero toId", f)
		return nil
	}

	if f.Flags&FlagAck != 0 {
		// Record-only: no retransmission machinery in this core.
		if t.met != nil {
			t.met.DprpFramesReceived.Add(1)
		}
		return nil
	}

	t.processAssembly(f)

	if f.Flags&(FlagEnd|FlagSendAck) != 0 {
		t.sendAck(f)
	}

	return nil
}

// processAssembly must be called with t.mu held.
func (t *Transport) processAssembly(f Frame) {
	if t.met != nil {
		t.met.DprpFramesReceived.Add(1)
	}

	switch {
	case !t.assembling && f.Flags&FlagStart != 0 && f.Flags&FlagEnd != 0:
		t.deliver(f.Payload)

	case !t.assembling && f.Flags&FlagStart != 0:
		t.assembling = true
		t.messageID = f.MessageID
		t.nextSeq = f.Seq + 1
		t.buf.Reset()
		t.buf.Write(f.Payload)

	case t.assembling && f.Flags&FlagStart == 0 && f.Seq == t.nextSeq && f.MessageID == t.messageID:
		t.buf.Write(f.Payload)
		t.nextSeq++
		if f.Flags&FlagEnd != 0 {
			body := append([]byte(nil), t.buf.Bytes()...)
			t.assembling = false
			t.buf.Reset()
			t.deliver(body)
		}

	default:
		t.logDrop("sequence/messageId mismatch", f)
		if t.met != nil {
			t.met.DprpFramesDropped.Add(1)
		}
	}
}

// deliver must be called with t.mu held.
func (t *Transport) deliver(body []byte) {
	if len(body) >= 4 && string(body[:4]) == wire.Signature {
		if t.dispatcher != nil {
			t.dispatcher.DispatchBody(body)
		}
		return
	}

	if t.log != nil {
		t.log.Debugw("dprp opaque payload", "len", len(body))
	}
}

// sendAck must be called with t.mu held.
func (t *Transport) sendAck(in Frame) {
	var tick uint32
	if t.ticks != nil {
		tick = t.ticks.TickCount()
	}

	reply := Frame{
		FromID:    in.ToID,
		ToID:      in.FromID,
		Flags:     FlagAck | (in.Flags & FlagReliable),
		MessageID: in.MessageID,
		Seq:       in.Seq,
		Serial:    in.Serial,
		Payload:   EncodeAckPayload(t.bytesReceived, tick),
	}

	if t.sender == nil {
		return
	}
	if err := t.sender.SendFrame(reply.Encode()); err != nil {
		if t.log != nil {
			t.log.Warnw("failed to send dprp ack", "error", err)
		}
		return
	}
	if t.met != nil {
		t.met.DprpFramesAcked.Add(1)
	}
}

func (t *Transport) logDrop(reason string, f Frame) {
	if t.log != nil {
		t.log.Debugw("dprp frame dropped", "reason", reason, "messageId", f.MessageID, "seq", f.Seq, "flags", f.Flags)
	}
}

// BytesReceived returns the running count of bytes received, excluding
// each frame's id-varint prefix. Exported for tests.
func (t *Transport) BytesReceived() uint32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.bytesReceived
}
