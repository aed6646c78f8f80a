package dpsp

import (
	"github.com/dplayhost/dplayhost/internal/session"
	"github.com/dplayhost/dplayhost/internal/wire"
)

// offsetFromBodyStart converts a byte position measured from the start
// of a reply's body (immediately after the header) into the on-wire
// offset convention this protocol uses throughout EnumSessionsReply and
// SuperEnumPlayersReply: the offset is relative to a point 8 bytes
// before the body, matching Main.cpp's "+8"/"-20" arithmetic.
func offsetFromBodyStart(pos int) uint32 { return uint32(pos + 8) }

func (d *Dispatcher) dispatchCommand(client *ClientState, h wire.Header, body []byte) {
	switch h.Command {
	case wire.CmdEnumSessions:
		d.handleEnumSessions(client, body)
	case wire.CmdRequestPlayerID:
		d.handleRequestPlayerID(client, body)
	case wire.CmdCreatePlayer:
		d.handleCreatePlayer(client, body)
	case wire.CmdAddForwardRequest:
		d.handleAddForwardRequest(client, body)
	case wire.CmdPacket:
		d.handlePacket(client, body)
	default:
		if d.Met != nil {
			d.Met.DpspUnknownCmd.Add(1)
		}
		if d.Log != nil {
			d.Log.Debugw("unhandled dpsp command", "command", uint16(h.Command))
		}
	}
}

func (d *Dispatcher) handleEnumSessions(client *ClientState, body []byte) {
	req, err := wire.DecodeEnumSessionsBody(body)
	if err != nil {
		if d.Log != nil {
			d.Log.Debugw("truncated EnumSessions", "error", err)
		}
		return
	}

	if req.ApplicationGUID != d.Session.ApplicationGUID() {
		if d.Met != nil {
			d.Met.SessionsAppMismatch.Add(1)
		}
		if d.Log != nil {
			d.Log.Debugw("app guid mismatch", "got", req.ApplicationGUID)
		}
		return
	}

	if d.Met != nil {
		d.Met.SessionsEnumerated.Add(1)
	}

	nameBytes := wire.EncodeUTF16NUL(d.Session.Name())
	replyBody := wire.EnumSessionsReplyBody{
		SessionDescription: d.sessionDesc(),
		NameOffset:         offsetFromBodyStart(wire.EnumSessionsReplyBodySize),
	}.Encode()
	replyBody = append(replyBody, nameBytes...)

	d.sendTCP(client, wire.CmdEnumSessionsReply, replyBody)
}

func (d *Dispatcher) handleRequestPlayerID(client *ClientState, body []byte) {
	if client == nil {
		return
	}
	req, err := wire.DecodeRequestPlayerIDBody(body)
	if err != nil {
		if d.Log != nil {
			d.Log.Debugw("truncated RequestPlayerId", "error", err)
		}
		return
	}

	var p *session.Player
	if req.Flags&wire.RequestPlayerIDSystem != 0 {
		if client.HasSystemPlayer {
			if d.Log != nil {
				d.Log.Warnw("duplicate system-player-id request")
			}
			return
		}
		p = d.Session.CreateSystemPlayer(0)
		client.HasSystemPlayer = true
		client.SystemPlayerID = p.ID
	} else {
		if !client.HasSystemPlayer {
			if d.Log != nil {
				d.Log.Warnw("player request before system-player-id assigned")
			}
			return
		}
		p = d.Session.CreatePlayer(client.SystemPlayerID, 0)
	}

	replyBody := wire.RequestPlayerReplyBody{
		ID: d.Session.AdjustID(p.ID),
	}.Encode()

	d.sendTCP(client, wire.CmdRequestPlayerReply, replyBody)
}

func (d *Dispatcher) handleCreatePlayer(client *ClientState, body []byte) {
	cmd, pp, rest, ok := d.parseCreateLike(body)
	if !ok {
		return
	}

	p, found := d.Session.GetPlayer(d.Session.AdjustID(cmd.PlayerID))
	if !found {
		if d.Log != nil {
			d.Log.Warnw("player not found for create!", "id", cmd.PlayerID)
		}
		return
	}

	applyPackedPlayer(p, pp, rest)

	if client != nil && client.Out != nil {
		if err := client.Out.ConnectUDP(); err != nil && d.Log != nil {
			d.Log.Warnw("failed to connect client udp socket", "error", err)
		}
	}
}

func (d *Dispatcher) handleAddForwardRequest(client *ClientState, body []byte) {
	cmd, pp, rest, ok := d.parseCreateLike(body)
	if !ok {
		return
	}

	p, found := d.Session.GetPlayer(d.Session.AdjustID(cmd.PlayerID))
	if !found {
		if d.Log != nil {
			d.Log.Warnw("player not found for forward request!", "id", cmd.PlayerID)
		}
		return
	}
	applyPackedPlayer(p, pp, rest)

	d.sendSuperEnumPlayersReply(client)
}

// parseCreateLike decodes the shared CreatePlayer/AddForwardRequest
// layout: a fixed CreatePlayerBody followed, at CreateOffset-8 bytes
// from the start of body, by a PackedPlayer and its trailing variable
// region.
func (d *Dispatcher) parseCreateLike(body []byte) (wire.CreatePlayerBody, wire.PackedPlayer, []byte, bool) {
	cmd, err := wire.DecodeCreatePlayerBody(body)
	if err != nil {
		if d.Log != nil {
			d.Log.Debugw("truncated CreatePlayer/AddForwardRequest", "error", err)
		}
		return wire.CreatePlayerBody{}, wire.PackedPlayer{}, nil, false
	}

	start := int(cmd.CreateOffset) - 8
	if start < 0 || start+wire.PackedPlayerSize > len(body) {
		if d.Log != nil {
			d.Log.Debugw("bad PackedPlayer offset", "offset", cmd.CreateOffset)
		}
		return wire.CreatePlayerBody{}, wire.PackedPlayer{}, nil, false
	}

	pp, err := wire.DecodePackedPlayer(body[start : start+wire.PackedPlayerSize])
	if err != nil {
		if d.Log != nil {
			d.Log.Debugw("truncated PackedPlayer", "error", err)
		}
		return wire.CreatePlayerBody{}, wire.PackedPlayer{}, nil, false
	}

	return cmd, pp, body[start+wire.PackedPlayerSize:], true
}

// applyPackedPlayer copies the short name, long name, service-provider
// data and player data carried after a PackedPlayer's fixed header onto
// p, per the lengths PackedPlayer itself declares.
func applyPackedPlayer(p *session.Player, pp wire.PackedPlayer, rest []byte) {
	take := func(n uint32) []byte {
		n32 := int(n)
		if n32 > len(rest) {
			n32 = len(rest)
		}
		chunk := rest[:n32]
		rest = rest[n32:]
		return chunk
	}

	shortName, _ := wire.DecodeUTF16NUL(take(pp.ShortNameLen))
	longName, _ := wire.DecodeUTF16NUL(take(pp.LongNameLen))
	spData := append([]byte(nil), take(pp.SPDataSize)...)
	playerData := append([]byte(nil), take(pp.PlayerDataSize)...)

	p.ShortName = shortName
	p.LongName = longName
	p.ServiceProviderData = spData
	p.PlayerData = playerData
}

func (d *Dispatcher) handlePacket(client *ClientState, body []byte) {
	cmd, err := wire.DecodePacketBody(body)
	if err != nil {
		if d.Log != nil {
			d.Log.Debugw("truncated Packet", "error", err)
		}
		return
	}

	if cmd.TotalPackets != 1 {
		if d.Log != nil {
			d.Log.Debugw("bad nested packet", "totalPackets", cmd.TotalPackets)
		}
		return
	}

	inner := body[wire.PacketBodySize:]
	innerHeader, off, err := wire.DecodeHeader(inner, false)
	if err != nil {
		if d.Log != nil {
			d.Log.Debugw("bad nested packet header", "error", err)
		}
		return
	}

	innerBodyLen := int(cmd.DataSize) - wire.HeaderShortSize
	if innerBodyLen < 0 || off+innerBodyLen > len(inner) {
		if d.Log != nil {
			d.Log.Debugw("bad nested packet size", "dataSize", cmd.DataSize)
		}
		return
	}

	d.dispatchCommand(client, innerHeader, inner[off:off+innerBodyLen])
}

func (d *Dispatcher) sessionDesc() wire.SessionDesc {
	return wire.SessionDesc{
		Flags:              d.Session.Flags(),
		InstanceGUID:       d.Session.InstanceGUID(),
		ApplicationGUID:    d.Session.ApplicationGUID(),
		MaxPlayers:         d.Session.MaxPlayers(),
		CurrentPlayerCount: d.Session.PlayerCount(),
		Reserved1:          d.Session.IDXor(),
	}
}

func (d *Dispatcher) sendSuperEnumPlayersReply(client *ClientState) {
	players := d.Session.Players()

	nameBytes := wire.EncodeUTF16NUL(d.Session.Name())

	pos := wire.SuperEnumPlayersReplyBodySize
	descriptionOffset := offsetFromBodyStart(pos)
	pos += wire.SessionDescSize
	nameOffset := offsetFromBodyStart(pos)
	pos += len(nameBytes)
	packedOffset := offsetFromBodyStart(pos)

	var tail []byte
	for _, p := range players {
		mask := uint32(0)
		var spLenByte []byte
		if len(p.ServiceProviderData) > 0 {
			mask |= wire.SuperPlayerSPData1Byte
			spLenByte = []byte{byte(len(p.ServiceProviderData))}
		}

		versionOrSystem := p.SystemPlayerID
		if p.IsSystem() {
			versionOrSystem = uint32(wire.SupportedVersion)
		}

		entry := wire.SuperPackedPlayer{
			Size:                    wire.SuperPackedPlayerHeaderSize,
			Flags:                   p.Flags,
			ID:                      d.Session.AdjustID(p.ID),
			PlayerInfoMask:          mask,
			VersionOrSystemPlayerID: versionOrSystem,
		}.Encode()
		tail = append(tail, entry...)
		tail = append(tail, spLenByte...)
		tail = append(tail, p.ServiceProviderData...)
	}

	fixed := wire.SuperEnumPlayersReplyBody{
		PlayerCount:       uint32(len(players)),
		GroupCount:        0,
		PackedOffset:      packedOffset,
		ShortcutCount:     0,
		DescriptionOffset: descriptionOffset,
		NameOffset:        nameOffset,
		PasswordOffset:    0,
	}

	replyBody := fixed.Encode()
	replyBody = append(replyBody, d.sessionDesc().Encode()...)
	replyBody = append(replyBody, nameBytes...)
	replyBody = append(replyBody, tail...)

	d.sendTCP(client, wire.CmdSuperEnumPlayersReply, replyBody)
}

func (d *Dispatcher) sendTCP(client *ClientState, cmd wire.Command, body []byte) {
	if client == nil || client.Out == nil {
		return
	}
	if err := client.Out.EnsureTCP(); err != nil {
		if d.Log != nil {
			d.Log.Warnw("failed to open outbound tcp", "error", err)
		}
		return
	}

	total := wire.HeaderFullSize + len(body)
	header := wire.FillOutgoing(cmd, total, client.Out.OutgoingPort())
	msg := append(header.Encode(true), body...)

	if err := client.Out.SendTCP(msg); err != nil && d.Log != nil {
		d.Log.Warnw("failed to send dpsp reply", "error", err, "command", uint16(cmd))
	}
}
