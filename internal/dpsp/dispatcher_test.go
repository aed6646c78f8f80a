package dpsp

import (
	"bytes"
	"testing"

	"github.com/dplayhost/dplayhost/internal/metrics"
	"github.com/dplayhost/dplayhost/internal/session"
	"github.com/dplayhost/dplayhost/internal/wire"
)

type fakeOutgoing struct {
	ensured    bool
	ensureErr  error
	sent       [][]byte
	udpConnect int
	port       uint16
}

func (f *fakeOutgoing) EnsureTCP() error {
	f.ensured = true
	return f.ensureErr
}
func (f *fakeOutgoing) SendTCP(data []byte) error {
	f.sent = append(f.sent, append([]byte(nil), data...))
	return nil
}
func (f *fakeOutgoing) ConnectUDP() error {
	f.udpConnect++
	return nil
}
func (f *fakeOutgoing) OutgoingPort() uint16 { return f.port }

func newTestDispatcher() (*Dispatcher, [16]byte) {
	var appGUID [16]byte
	copy(appGUID[:], bytes.Repeat([]byte{0xAB}, 16))
	s := session.New(session.Config{
		Name:            "TestRoom",
		ApplicationGUID: appGUID,
		MaxPlayers:      10,
	}, [16]byte{1}, nil, nil)
	return New(s, nil, &metrics.Metrics{}), appGUID
}

func enumSessionsDatagram(appGUID [16]byte) []byte {
	body := wire.EnumSessionsBody{ApplicationGUID: appGUID}
	bodyBytes := make([]byte, wire.EnumSessionsBodySize)
	copy(bodyBytes[0:16], body.ApplicationGUID[:])

	header := wire.FillOutgoing(wire.CmdEnumSessions, wire.HeaderFullSize+len(bodyBytes), 0)
	msg := append(header.Encode(true), bodyBytes...)
	return msg
}

func TestEnumSessionsMatchSendsReply(t *testing.T) {
	d, appGUID := newTestDispatcher()
	client := &ClientState{Out: &fakeOutgoing{port: 6073}}

	res := d.HandleUDP(client, enumSessionsDatagram(appGUID))
	if res.Outcome != Complete {
		t.Fatalf("outcome = %v, want Complete", res.Outcome)
	}

	out := client.Out.(*fakeOutgoing)
	if !out.ensured {
		t.Fatal("expected outbound tcp to be opened")
	}
	if len(out.sent) != 1 {
		t.Fatalf("expected one reply sent, got %d", len(out.sent))
	}

	header, off, err := wire.DecodeHeader(out.sent[0], true)
	if err != nil {
		t.Fatal(err)
	}
	if header.Command != wire.CmdEnumSessionsReply {
		t.Fatalf("command = %v, want CmdEnumSessionsReply", header.Command)
	}

	replyBody := out.sent[0][off:]
	reply, err := wire.DecodeSessionDesc(replyBody[0:wire.SessionDescSize])
	if err != nil {
		t.Fatal(err)
	}
	if reply.ApplicationGUID != appGUID {
		t.Fatal("reply session description carries wrong application guid")
	}

	nameOffset := off + wire.EnumSessionsReplyBodySize
	name, _ := wire.DecodeUTF16NUL(out.sent[0][nameOffset:])
	if name != "TestRoom" {
		t.Fatalf("session name = %q, want TestRoom", name)
	}

	wantNameOffsetField := uint32(wire.EnumSessionsReplyBodySize + 8)
	gotNameOffsetField := le32(replyBody[wire.SessionDescSize : wire.SessionDescSize+4])
	if gotNameOffsetField != wantNameOffsetField {
		t.Fatalf("nameOffset field = %d, want %d", gotNameOffsetField, wantNameOffsetField)
	}
}

func TestEnumSessionsMismatchDropsSilently(t *testing.T) {
	d, _ := newTestDispatcher()
	client := &ClientState{Out: &fakeOutgoing{}}

	var foreign [16]byte
	copy(foreign[:], bytes.Repeat([]byte{0xCD}, 16))

	d.HandleUDP(client, enumSessionsDatagram(foreign))

	out := client.Out.(*fakeOutgoing)
	if out.ensured || len(out.sent) != 0 {
		t.Fatal("expected no outbound bytes on application guid mismatch")
	}
}

func requestPlayerIDMessage(systemFlag uint32) []byte {
	bodyBytes := make([]byte, wire.RequestPlayerIDBodySize)
	le32put(bodyBytes[0:4], systemFlag)
	header := wire.FillOutgoing(wire.CmdRequestPlayerID, wire.HeaderFullSize+len(bodyBytes), 0)
	return append(header.Encode(true), bodyBytes...)
}

func TestJoinSequence(t *testing.T) {
	d, _ := newTestDispatcher()
	out := &fakeOutgoing{port: 6073}
	client := &ClientState{Out: out}

	d.HandleTCP(client, requestPlayerIDMessage(wire.RequestPlayerIDSystem))
	if len(out.sent) != 1 {
		t.Fatalf("expected one reply after system RequestPlayerId, got %d", len(out.sent))
	}
	_, off1, _ := wire.DecodeHeader(out.sent[0], true)
	reply1, _ := wire.DecodeRequestPlayerReplyBody(out.sent[0][off1:])
	sysID := reply1.ID

	d.HandleTCP(client, requestPlayerIDMessage(0))
	if len(out.sent) != 2 {
		t.Fatalf("expected a second reply after non-system RequestPlayerId, got %d", len(out.sent))
	}
	_, off2, _ := wire.DecodeHeader(out.sent[1], true)
	reply2, _ := wire.DecodeRequestPlayerReplyBody(out.sent[1][off2:])

	if (reply2.ID^d.Session.IDXor())&0xFFFF == (sysID^d.Session.IDXor())&0xFFFF {
		t.Fatal("second player's low 16 bits should differ from the system player's")
	}

	aliceID := d.Session.AdjustID(reply2.ID)
	createMsg := createPlayerMessage(t, aliceID, "Alice")
	d.HandleTCP(client, createMsg)
	if out.udpConnect != 1 {
		t.Fatalf("expected ConnectUDP after CreatePlayer, got %d calls", out.udpConnect)
	}
	if len(out.sent) != 2 {
		t.Fatal("CreatePlayer must not produce a reply")
	}

	alice, ok := d.Session.GetPlayer(aliceID)
	if !ok || alice.ShortName != "Alice" {
		t.Fatalf("expected player named Alice, got %+v ok=%v", alice, ok)
	}

	d.HandleTCP(client, addForwardRequestMessage(t, aliceID))
	if len(out.sent) != 3 {
		t.Fatalf("expected a SuperEnumPlayersReply, got %d sends", len(out.sent))
	}
	_, off3, _ := wire.DecodeHeader(out.sent[2], true)
	superBody := out.sent[2][off3:]
	superFixed, _ := wire.DecodeSuperEnumPlayersReplyBody(superBody[0:wire.SuperEnumPlayersReplyBodySize])
	if superFixed.PlayerCount != 2 {
		t.Fatalf("PlayerCount = %d, want 2 (system player + Alice)", superFixed.PlayerCount)
	}
}

// createPlayerMessage builds a CreatePlayer message whose trailing
// region names the player and carries a 32-byte (two SockaddrInLike)
// service-provider data blob.
func createPlayerMessage(t *testing.T, playerID uint32, shortName string) []byte {
	t.Helper()
	shortBytes := wire.EncodeUTF16NUL(shortName)
	longBytes := wire.EncodeUTF16NUL("")
	spData := bytes.Repeat([]byte{0x11}, 32)

	pp := wire.PackedPlayer{
		Size:           wire.PackedPlayerFixedSize,
		PlayerID:       playerID,
		ShortNameLen:   uint32(len(shortBytes)),
		LongNameLen:    uint32(len(longBytes)),
		SPDataSize:     uint32(len(spData)),
		PlayerDataSize: 0,
		FixedSize:      wire.PackedPlayerFixedSize,
		Version:        uint32(wire.SupportedVersion),
	}

	var trailing []byte
	trailing = append(trailing, pp.Encode()...)
	trailing = append(trailing, shortBytes...)
	trailing = append(trailing, longBytes...)
	trailing = append(trailing, spData...)

	createBody := wire.CreatePlayerBody{
		PlayerID:     playerID,
		CreateOffset: uint32(wire.CreatePlayerBodySize + 8),
	}
	body := append(createBody.Encode(), trailing...)

	header := wire.FillOutgoing(wire.CmdCreatePlayer, wire.HeaderFullSize+len(body), 0)
	return append(header.Encode(true), body...)
}

func addForwardRequestMessage(t *testing.T, playerID uint32) []byte {
	t.Helper()
	shortBytes := wire.EncodeUTF16NUL("")
	longBytes := wire.EncodeUTF16NUL("")

	pp := wire.PackedPlayer{
		Size:         wire.PackedPlayerFixedSize,
		PlayerID:     playerID,
		ShortNameLen: uint32(len(shortBytes)),
		LongNameLen:  uint32(len(longBytes)),
		FixedSize:    wire.PackedPlayerFixedSize,
		Version:      uint32(wire.SupportedVersion),
	}
	var trailing []byte
	trailing = append(trailing, pp.Encode()...)
	trailing = append(trailing, shortBytes...)
	trailing = append(trailing, longBytes...)

	cmd := wire.CreatePlayerBody{
		PlayerID:     playerID,
		CreateOffset: uint32(wire.CreatePlayerBodySize + 8),
	}
	body := append(cmd.Encode(), trailing...)

	header := wire.FillOutgoing(wire.CmdAddForwardRequest, wire.HeaderFullSize+len(body), 0)
	return append(header.Encode(true), body...)
}

func TestTruncatedTCPMessageRequestsMore(t *testing.T) {
	d, _ := newTestDispatcher()
	client := &ClientState{Out: &fakeOutgoing{}}

	full := requestPlayerIDMessage(wire.RequestPlayerIDSystem)
	if len(full) != wire.HeaderFullSize+wire.RequestPlayerIDBodySize {
		t.Fatalf("unexpected message length %d", len(full))
	}

	partial := full[:20]
	res := d.HandleTCP(client, partial)
	if res.Outcome != Incomplete {
		t.Fatalf("outcome = %v, want Incomplete", res.Outcome)
	}
	if res.Wanted != len(full) {
		t.Fatalf("wanted = %d, want %d", res.Wanted, len(full))
	}

	res = d.HandleTCP(client, full)
	if res.Outcome != Complete || res.Consumed != len(full) {
		t.Fatalf("expected complete dispatch of %d bytes, got %+v", len(full), res)
	}
}

func le32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func le32put(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}
