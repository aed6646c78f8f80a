package dprp

import (
	"bytes"
	"testing"
)

type fakeSender struct {
	frames [][]byte
}

func (s *fakeSender) SendFrame(frame []byte) error {
	s.frames = append(s.frames, frame)
	return nil
}

type fakeDispatcher struct {
	bodies [][]byte
}

func (d *fakeDispatcher) DispatchBody(body []byte) {
	d.bodies = append(d.bodies, append([]byte(nil), body...))
}

type fakeTicks struct{ t uint32 }

func (f fakeTicks) TickCount() uint32 { return f.t }

func frame(fromID, toID uint16, flags, msgID, seq, serial uint8, payload []byte) []byte {
	return Frame{FromID: fromID, ToID: toID, Flags: flags, MessageID: msgID, Seq: seq, Serial: serial, Payload: payload}.Encode()
}

func TestAssemblySingleFrame(t *testing.T) {
	sender := &fakeSender{}
	disp := &fakeDispatcher{}
	tr := New(sender, disp, fakeTicks{}, nil, nil)

	payload := []byte("hello")
	if err := tr.HandleFrame(frame(1, 0, FlagStart|FlagEnd, 7, 0, 3, payload)); err != nil {
		t.Fatal(err)
	}

	if len(disp.bodies) != 0 {
		t.Fatalf("expected no dispatch for non-DPSP payload, got %d", len(disp.bodies))
	}
	if len(sender.frames) != 1 {
		t.Fatalf("expected one ack frame, got %d", len(sender.frames))
	}
}

func TestAssemblyMultiFrame(t *testing.T) {
	sender := &fakeSender{}
	disp := &fakeDispatcher{}
	tr := New(sender, disp, fakeTicks{t: 42}, nil, nil)

	a := []byte("play" + "XXXXXXXX" + "AAA")
	b := []byte("BBB")
	c := []byte("CCC")

	if err := tr.HandleFrame(frame(1, 0, FlagStart|FlagReliable, 7, 0, 9, a)); err != nil {
		t.Fatal(err)
	}
	if err := tr.HandleFrame(frame(1, 0, FlagReliable, 7, 1, 9, b)); err != nil {
		t.Fatal(err)
	}
	if err := tr.HandleFrame(frame(1, 0, FlagEnd|FlagSendAck|FlagReliable, 7, 2, 9, c)); err != nil {
		t.Fatal(err)
	}

	if len(disp.bodies) != 1 {
		t.Fatalf("expected exactly one dispatched message, got %d", len(disp.bodies))
	}
	want := append(append(append([]byte{}, a...), b...), c...)
	if !bytes.Equal(disp.bodies[0], want) {
		t.Fatalf("got %q, want %q", disp.bodies[0], want)
	}

	if len(sender.frames) != 1 {
		t.Fatalf("expected one ack frame, got %d", len(sender.frames))
	}
	ack, err := DecodeFrame(sender.frames[0])
	if err != nil {
		t.Fatal(err)
	}
	if ack.Flags != FlagAck|FlagReliable {
		t.Fatalf("ack flags = %#x, want %#x", ack.Flags, FlagAck|FlagReliable)
	}
	if ack.MessageID != 7 || ack.Seq != 2 || ack.Serial != 9 {
		t.Fatalf("ack header mismatch: %+v", ack)
	}
	if len(ack.Payload) != 8 {
		t.Fatalf("ack payload len = %d, want 8", len(ack.Payload))
	}

	wantBytes := uint32(len(a) + len(b) + len(c) + 4*3) // flags+msgId+seq+serial per frame
	if got := tr.BytesReceived(); got != wantBytes {
		t.Fatalf("BytesReceived() = %d, want %d", got, wantBytes)
	}
}

func TestSequenceMismatchDropped(t *testing.T) {
	sender := &fakeSender{}
	disp := &fakeDispatcher{}
	tr := New(sender, disp, fakeTicks{}, nil, nil)

	if err := tr.HandleFrame(frame(1, 0, FlagStart|FlagReliable, 3, 0, 1, []byte("a"))); err != nil {
		t.Fatal(err)
	}
	// Wrong sequence (should be 1).
	if err := tr.HandleFrame(frame(1, 0, FlagEnd|FlagReliable, 3, 5, 1, []byte("b"))); err != nil {
		t.Fatal(err)
	}

	if len(disp.bodies) != 0 {
		t.Fatalf("expected no delivery after sequence mismatch, got %d", len(disp.bodies))
	}
}

func TestNonZeroToIDDropped(t *testing.T) {
	sender := &fakeSender{}
	disp := &fakeDispatcher{}
	tr := New(sender, disp, fakeTicks{}, nil, nil)

	if err := tr.HandleFrame(frame(1, 2, FlagStart|FlagEnd, 1, 0, 0, []byte("x"))); err != nil {
		t.Fatal(err)
	}
	if len(disp.bodies) != 0 || len(sender.frames) != 0 {
		t.Fatal("frame addressed to non-zero toId should be dropped with no ack")
	}
}

func TestExtendedAndBigFramesDropped(t *testing.T) {
	sender := &fakeSender{}
	disp := &fakeDispatcher{}
	tr := New(sender, disp, fakeTicks{}, nil, nil)

	for _, flag := range []uint8{FlagExtended, FlagBig} {
		if err := tr.HandleFrame(frame(1, 0, FlagStart|FlagEnd|FlagSendAck|flag, 1, 0, 0, []byte("x"))); err != nil {
			t.Fatal(err)
		}
	}
	if got := tr.BytesReceived(); got != 0 {
		t.Fatalf("BytesReceived() = %d, want 0 (dropped frames shouldn't count)", got)
	}
	if len(sender.frames) != 0 {
		t.Fatal("no ack should be sent for an unsupported-flag frame")
	}
}

func TestAckFrameRecordOnly(t *testing.T) {
	sender := &fakeSender{}
	disp := &fakeDispatcher{}
	tr := New(sender, disp, fakeTicks{}, nil, nil)

	if err := tr.HandleFrame(frame(1, 0, FlagAck, 1, 0, 0, []byte{0, 0, 0, 0, 0, 0, 0, 0})); err != nil {
		t.Fatal(err)
	}
	if len(sender.frames) != 0 {
		t.Fatal("receiving an ack should never itself generate an ack")
	}
}

func TestDispatchesDpspSignedBody(t *testing.T) {
	sender := &fakeSender{}
	disp := &fakeDispatcher{}
	tr := New(sender, disp, fakeTicks{}, nil, nil)

	body := append([]byte("play"), []byte{1, 0, 14, 0}...)
	if err := tr.HandleFrame(frame(1, 0, FlagStart|FlagEnd, 1, 0, 0, body)); err != nil {
		t.Fatal(err)
	}
	if len(disp.bodies) != 1 || !bytes.Equal(disp.bodies[0], body) {
		t.Fatalf("expected dispatch of DPSP body, got %v", disp.bodies)
	}
}
