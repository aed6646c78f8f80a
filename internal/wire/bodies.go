package wire

// Player flag bits (DPPlayerFlags). SendingMachine is accepted on the
// wire but otherwise ignored.
const (
	PlayerSystem         uint32 = 1 << 0
	PlayerNameServer     uint32 = 1 << 1
	PlayerInGroup        uint32 = 1 << 2
	PlayerSendingMachine uint32 = 1 << 3
)

// RequestPlayerId flag bits.
const (
	RequestPlayerIDSystem         uint32 = 1 << 0
	RequestPlayerIDSendingMachine uint32 = 1 << 3
)

// EnumSessionsBodySize is the on-wire size of EnumSessionsBody.
const EnumSessionsBodySize = 24

// EnumSessionsBody is the body of a client's EnumSessions request.
type EnumSessionsBody struct {
	ApplicationGUID [16]byte
	PasswordOffset  uint32
	Flags           uint32
}

func DecodeEnumSessionsBody(buf []byte) (EnumSessionsBody, error) {
	if err := need(buf, EnumSessionsBodySize); err != nil {
		return EnumSessionsBody{}, err
	}
	var b EnumSessionsBody
	copy(b.ApplicationGUID[:], buf[0:16])
	b.PasswordOffset = le.Uint32(buf[16:20])
	b.Flags = le.Uint32(buf[20:24])
	return b, nil
}

// EnumSessionsReplyBodySize is the on-wire size of EnumSessionsReplyBody
// not counting the trailing session name.
const EnumSessionsReplyBodySize = SessionDescSize + 4

// EnumSessionsReplyBody is the body of the server's EnumSessionsReply,
// followed by the UTF-16LE NUL-terminated session name.
type EnumSessionsReplyBody struct {
	SessionDescription SessionDesc
	NameOffset         uint32
}

func (b EnumSessionsReplyBody) Encode() []byte {
	buf := make([]byte, EnumSessionsReplyBodySize)
	copy(buf[0:SessionDescSize], b.SessionDescription.Encode())
	le.PutUint32(buf[SessionDescSize:SessionDescSize+4], b.NameOffset)
	return buf
}

// RequestPlayerIDBodySize is the on-wire size of RequestPlayerIDBody.
const RequestPlayerIDBodySize = 4

type RequestPlayerIDBody struct {
	Flags uint32
}

func DecodeRequestPlayerIDBody(buf []byte) (RequestPlayerIDBody, error) {
	if err := need(buf, RequestPlayerIDBodySize); err != nil {
		return RequestPlayerIDBody{}, err
	}
	return RequestPlayerIDBody{Flags: le.Uint32(buf[0:4])}, nil
}

// RequestPlayerReplyBodySize is the on-wire size of RequestPlayerReplyBody.
const RequestPlayerReplyBodySize = 4 + SecurityDescSize + 4 + 4 + 4

type RequestPlayerReplyBody struct {
	ID                 uint32
	SecurityDesc       SecurityDesc
	SSPIProviderOffset uint32
	CAPIProviderOffset uint32
	Result             uint32
}

func (b RequestPlayerReplyBody) Encode() []byte {
	buf := make([]byte, RequestPlayerReplyBodySize)
	le.PutUint32(buf[0:4], b.ID)
	copy(buf[4:4+SecurityDescSize], b.SecurityDesc.Encode())
	off := 4 + SecurityDescSize
	le.PutUint32(buf[off:off+4], b.SSPIProviderOffset)
	le.PutUint32(buf[off+4:off+8], b.CAPIProviderOffset)
	le.PutUint32(buf[off+8:off+12], b.Result)
	return buf
}

func DecodeRequestPlayerReplyBody(buf []byte) (RequestPlayerReplyBody, error) {
	if err := need(buf, RequestPlayerReplyBodySize); err != nil {
		return RequestPlayerReplyBody{}, err
	}
	sec, err := DecodeSecurityDesc(buf[4 : 4+SecurityDescSize])
	if err != nil {
		return RequestPlayerReplyBody{}, err
	}
	off := 4 + SecurityDescSize
	return RequestPlayerReplyBody{
		ID:                 le.Uint32(buf[0:4]),
		SecurityDesc:       sec,
		SSPIProviderOffset: le.Uint32(buf[off : off+4]),
		CAPIProviderOffset: le.Uint32(buf[off+4 : off+8]),
		Result:             le.Uint32(buf[off+8 : off+12]),
	}, nil
}

// CreatePlayerBodySize is the on-wire size of CreatePlayerBody (also
// used by AddForwardRequest, which shares the same layout).
const CreatePlayerBodySize = 20

// CreatePlayerBody is the body of CreatePlayer/AddForwardRequest before
// the trailing PackedPlayer info.
type CreatePlayerBody struct {
	IDTo           uint32 // ignored
	PlayerID       uint32
	GroupID        uint32 // ignored
	CreateOffset   uint32 // offset of PackedPlayer from start of body, +8
	PasswordOffset uint32 // ignored
}

func (b CreatePlayerBody) Encode() []byte {
	buf := make([]byte, CreatePlayerBodySize)
	le.PutUint32(buf[0:4], b.IDTo)
	le.PutUint32(buf[4:8], b.PlayerID)
	le.PutUint32(buf[8:12], b.GroupID)
	le.PutUint32(buf[12:16], b.CreateOffset)
	le.PutUint32(buf[16:20], b.PasswordOffset)
	return buf
}

func DecodeCreatePlayerBody(buf []byte) (CreatePlayerBody, error) {
	if err := need(buf, CreatePlayerBodySize); err != nil {
		return CreatePlayerBody{}, err
	}
	return CreatePlayerBody{
		IDTo:           le.Uint32(buf[0:4]),
		PlayerID:       le.Uint32(buf[4:8]),
		GroupID:        le.Uint32(buf[8:12]),
		CreateOffset:   le.Uint32(buf[12:16]),
		PasswordOffset: le.Uint32(buf[16:20]),
	}, nil
}

// PacketBodySize is the on-wire size of PacketBody.
const PacketBodySize = 16 + 4 + 4 + 4 + 4 + 4 + 4

// PacketBody is the body of the DPSP Packet container command.
type PacketBody struct {
	MessageGUID  [16]byte
	PacketIndex  uint32
	DataSize     uint32
	Offset       uint32
	TotalPackets uint32
	MessageSize  uint32
	PackedOffset uint32
}

func DecodePacketBody(buf []byte) (PacketBody, error) {
	if err := need(buf, PacketBodySize); err != nil {
		return PacketBody{}, err
	}
	var p PacketBody
	copy(p.MessageGUID[:], buf[0:16])
	p.PacketIndex = le.Uint32(buf[16:20])
	p.DataSize = le.Uint32(buf[20:24])
	p.Offset = le.Uint32(buf[24:28])
	p.TotalPackets = le.Uint32(buf[28:32])
	p.MessageSize = le.Uint32(buf[32:36])
	p.PackedOffset = le.Uint32(buf[36:40])
	return p, nil
}

// SuperEnumPlayersReplyBodySize is the on-wire size of
// SuperEnumPlayersReplyBody, not counting the trailing session
// description, name and SuperPackedPlayer entries.
const SuperEnumPlayersReplyBodySize = 4 * 7

// SuperEnumPlayersReplyBody is the fixed header of a SuperEnumPlayersReply.
type SuperEnumPlayersReplyBody struct {
	PlayerCount       uint32
	GroupCount        uint32
	PackedOffset      uint32
	ShortcutCount     uint32
	DescriptionOffset uint32
	NameOffset        uint32
	PasswordOffset    uint32
}

func (b SuperEnumPlayersReplyBody) Encode() []byte {
	buf := make([]byte, SuperEnumPlayersReplyBodySize)
	le.PutUint32(buf[0:4], b.PlayerCount)
	le.PutUint32(buf[4:8], b.GroupCount)
	le.PutUint32(buf[8:12], b.PackedOffset)
	le.PutUint32(buf[12:16], b.ShortcutCount)
	le.PutUint32(buf[16:20], b.DescriptionOffset)
	le.PutUint32(buf[20:24], b.NameOffset)
	le.PutUint32(buf[24:28], b.PasswordOffset)
	return buf
}

func DecodeSuperEnumPlayersReplyBody(buf []byte) (SuperEnumPlayersReplyBody, error) {
	if err := need(buf, SuperEnumPlayersReplyBodySize); err != nil {
		return SuperEnumPlayersReplyBody{}, err
	}
	return SuperEnumPlayersReplyBody{
		PlayerCount:       le.Uint32(buf[0:4]),
		GroupCount:        le.Uint32(buf[4:8]),
		PackedOffset:      le.Uint32(buf[8:12]),
		ShortcutCount:     le.Uint32(buf[12:16]),
		DescriptionOffset: le.Uint32(buf[16:20]),
		NameOffset:        le.Uint32(buf[20:24]),
		PasswordOffset:    le.Uint32(buf[24:28]),
	}, nil
}
