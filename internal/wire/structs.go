package wire

// SockaddrInLikeSize is the on-wire size of SockaddrInLike.
const SockaddrInLikeSize = 16

// SockaddrInLike mirrors the fixed-size sockaddr_in-shaped blob DirectPlay
// embeds in headers and service-provider data. Port is carried in
// network byte order; everything else is little-endian.
type SockaddrInLike struct {
	Family  uint16
	Port    uint16 // network byte order
	Address uint32
	// 8 bytes of padding, always zero on the wire.
}

func (s SockaddrInLike) Encode() []byte {
	buf := make([]byte, SockaddrInLikeSize)
	le.PutUint16(buf[0:2], s.Family)
	be.PutUint16(buf[2:4], s.Port)
	le.PutUint32(buf[4:8], s.Address)
	return buf
}

func DecodeSockaddrInLike(buf []byte) (SockaddrInLike, error) {
	if err := need(buf, SockaddrInLikeSize); err != nil {
		return SockaddrInLike{}, err
	}
	return SockaddrInLike{
		Family:  le.Uint16(buf[0:2]),
		Port:    be.Uint16(buf[2:4]),
		Address: le.Uint32(buf[4:8]),
	}, nil
}

// PackedPlayerSize is the on-wire size of PackedPlayer.
const PackedPlayerSize = 48

// PackedPlayerFixedSize is the value PackedPlayer.FixedSize must carry.
const PackedPlayerFixedSize uint32 = 48

// PackedPlayer is the DPCREATEPLAYER-style trailing player info block
// used by CreatePlayer and AddForwardRequest. It is followed in the
// message by shortname, longname, service-provider data, player data,
// and player ids, each sized per the fields below.
type PackedPlayer struct {
	Size            uint32
	Flags           uint32
	PlayerID        uint32
	ShortNameLen    uint32
	LongNameLen     uint32
	SPDataSize      uint32
	PlayerDataSize  uint32
	NumberOfPlayers uint32
	SystemPlayerID  uint32
	FixedSize       uint32
	Version         uint32
	ParentID        uint32
}

func (p PackedPlayer) Encode() []byte {
	buf := make([]byte, PackedPlayerSize)
	le.PutUint32(buf[0:4], p.Size)
	le.PutUint32(buf[4:8], p.Flags)
	le.PutUint32(buf[8:12], p.PlayerID)
	le.PutUint32(buf[12:16], p.ShortNameLen)
	le.PutUint32(buf[16:20], p.LongNameLen)
	le.PutUint32(buf[20:24], p.SPDataSize)
	le.PutUint32(buf[24:28], p.PlayerDataSize)
	le.PutUint32(buf[28:32], p.NumberOfPlayers)
	le.PutUint32(buf[32:36], p.SystemPlayerID)
	le.PutUint32(buf[36:40], p.FixedSize)
	le.PutUint32(buf[40:44], p.Version)
	le.PutUint32(buf[44:48], p.ParentID)
	return buf
}

func DecodePackedPlayer(buf []byte) (PackedPlayer, error) {
	if err := need(buf, PackedPlayerSize); err != nil {
		return PackedPlayer{}, err
	}
	return PackedPlayer{
		Size:            le.Uint32(buf[0:4]),
		Flags:           le.Uint32(buf[4:8]),
		PlayerID:        le.Uint32(buf[8:12]),
		ShortNameLen:    le.Uint32(buf[12:16]),
		LongNameLen:     le.Uint32(buf[16:20]),
		SPDataSize:      le.Uint32(buf[20:24]),
		PlayerDataSize:  le.Uint32(buf[24:28]),
		NumberOfPlayers: le.Uint32(buf[28:32]),
		SystemPlayerID:  le.Uint32(buf[32:36]),
		FixedSize:       le.Uint32(buf[36:40]),
		Version:         le.Uint32(buf[40:44]),
		ParentID:        le.Uint32(buf[44:48]),
	}, nil
}

// SuperPackedPlayerSize is the on-wire size of SuperPackedPlayer's fixed
// header (trailing name/data/id fields are variable and sized by
// PlayerInfoMask).
const SuperPackedPlayerSize = 20

// SuperPackedPlayerHeaderSize is the value SuperPackedPlayer.Size must carry.
const SuperPackedPlayerHeaderSize uint32 = 16

// SuperPackedPlayer info-mask bits.
const (
	SuperPlayerShortName    uint32 = 1 << 0
	SuperPlayerLongName     uint32 = 1 << 1
	SuperPlayerSPDataShift         = 2
	SuperPlayerSPData1Byte  uint32 = 1 << SuperPlayerSPDataShift
	SuperPlayerPlayerData   uint32 = 3 << 4
	SuperPlayerPlayerCount  uint32 = 3 << 6
	SuperPlayerParentID     uint32 = 1 << 8
	SuperPlayerShortcutCnt  uint32 = 3 << 9
)

type SuperPackedPlayer struct {
	Size                    uint32
	Flags                   uint32
	ID                      uint32
	PlayerInfoMask          uint32
	VersionOrSystemPlayerID uint32
}

func (p SuperPackedPlayer) Encode() []byte {
	buf := make([]byte, SuperPackedPlayerSize)
	le.PutUint32(buf[0:4], p.Size)
	le.PutUint32(buf[4:8], p.Flags)
	le.PutUint32(buf[8:12], p.ID)
	le.PutUint32(buf[12:16], p.PlayerInfoMask)
	le.PutUint32(buf[16:20], p.VersionOrSystemPlayerID)
	return buf
}

func DecodeSuperPackedPlayer(buf []byte) (SuperPackedPlayer, error) {
	if err := need(buf, SuperPackedPlayerSize); err != nil {
		return SuperPackedPlayer{}, err
	}
	return SuperPackedPlayer{
		Size:                    le.Uint32(buf[0:4]),
		Flags:                   le.Uint32(buf[4:8]),
		ID:                      le.Uint32(buf[8:12]),
		PlayerInfoMask:          le.Uint32(buf[12:16]),
		VersionOrSystemPlayerID: le.Uint32(buf[16:20]),
	}, nil
}

// SecurityDescSize is the on-wire size of SecurityDesc.
const SecurityDescSize = 24

// SecurityDesc is always zero-filled in outbound replies; this server
// never negotiates a secure channel.
type SecurityDesc struct {
	Size                uint32
	Flags               uint32
	SSPIProvider        uint32
	CAPIProvider        uint32
	CAPIProviderType    uint32
	EncryptionAlgorithm uint32
}

func (s SecurityDesc) Encode() []byte {
	return make([]byte, SecurityDescSize)
}

func DecodeSecurityDesc(buf []byte) (SecurityDesc, error) {
	if err := need(buf, SecurityDescSize); err != nil {
		return SecurityDesc{}, err
	}
	return SecurityDesc{
		Size:                le.Uint32(buf[0:4]),
		Flags:               le.Uint32(buf[4:8]),
		SSPIProvider:        le.Uint32(buf[8:12]),
		CAPIProvider:        le.Uint32(buf[12:16]),
		CAPIProviderType:    le.Uint32(buf[16:20]),
		EncryptionAlgorithm: le.Uint32(buf[20:24]),
	}, nil
}

// SessionDescSize is the on-wire size of SessionDesc.
const SessionDescSize = 80

// Session flags bits. ReliableProtocol and OptimiseLatency are the ones
// this server sets by default; ServerPlayerOnly is not set.
const (
	SessionReliableProtocol uint32 = 1 << 13
	SessionOptimiseLatency  uint32 = 1 << 15
	SessionServerPlayerOnly uint32 = 1 << 12
)

// SessionDesc is the DPSESSIONDESC2-shaped session description sent in
// EnumSessionsReply and SuperEnumPlayersReply.
type SessionDesc struct {
	Flags              uint32
	InstanceGUID       [16]byte
	ApplicationGUID    [16]byte
	MaxPlayers         uint32
	CurrentPlayerCount uint32
	Reserved1          uint32 // echoes the session's id-obfuscation mask
	Reserved2          uint32
	AppDefined1        uint32
	AppDefined2        uint32
	AppDefined3        uint32
	AppDefined4        uint32
}

func (d SessionDesc) Encode() []byte {
	buf := make([]byte, SessionDescSize)
	le.PutUint32(buf[0:4], SessionDescSize)
	le.PutUint32(buf[4:8], d.Flags)
	copy(buf[8:24], d.InstanceGUID[:])
	copy(buf[24:40], d.ApplicationGUID[:])
	le.PutUint32(buf[40:44], d.MaxPlayers)
	le.PutUint32(buf[44:48], d.CurrentPlayerCount)
	// buf[48:52] sessionName placeholder pointer, zero on the wire
	// buf[52:56] password placeholder pointer, zero on the wire
	le.PutUint32(buf[56:60], d.Reserved1)
	le.PutUint32(buf[60:64], d.Reserved2)
	le.PutUint32(buf[64:68], d.AppDefined1)
	le.PutUint32(buf[68:72], d.AppDefined2)
	le.PutUint32(buf[72:76], d.AppDefined3)
	le.PutUint32(buf[76:80], d.AppDefined4)
	return buf
}

func DecodeSessionDesc(buf []byte) (SessionDesc, error) {
	if err := need(buf, SessionDescSize); err != nil {
		return SessionDesc{}, err
	}
	var d SessionDesc
	d.Flags = le.Uint32(buf[4:8])
	copy(d.InstanceGUID[:], buf[8:24])
	copy(d.ApplicationGUID[:], buf[24:40])
	d.MaxPlayers = le.Uint32(buf[40:44])
	d.CurrentPlayerCount = le.Uint32(buf[44:48])
	d.Reserved1 = le.Uint32(buf[56:60])
	d.Reserved2 = le.Uint32(buf[60:64])
	d.AppDefined1 = le.Uint32(buf[64:68])
	d.AppDefined2 = le.Uint32(buf[68:72])
	d.AppDefined3 = le.Uint32(buf[72:76])
	d.AppDefined4 = le.Uint32(buf[76:80])
	return d, nil
}
