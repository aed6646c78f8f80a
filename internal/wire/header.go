package wire

// Command is a DPSP command number.
type Command uint16

const (
	CmdEnumSessionsReply     Command = 1
	CmdEnumSessions          Command = 2
	CmdEnumPlayersReply      Command = 3
	CmdEnumPlayer            Command = 4
	CmdRequestPlayerID       Command = 5
	CmdRequestGroupID        Command = 6
	CmdRequestPlayerReply    Command = 7
	CmdCreatePlayer          Command = 8
	CmdCreateGroup           Command = 9
	CmdPlayerMessage         Command = 10
	CmdDeletePlayer          Command = 11
	CmdDeleteGroup           Command = 12
	CmdAddPlayerToGroup      Command = 13
	CmdDeletePlayerFromGroup Command = 14
	CmdPlayerDataChanged     Command = 15
	CmdPlayerNameChanged     Command = 16
	CmdGroupDataChanged      Command = 17
	CmdGroupNameChanged      Command = 18
	CmdAddForwardRequest     Command = 19
	CmdPacket                Command = 21
	CmdPing                  Command = 22
	CmdPingReply             Command = 23
	CmdYouAreDead            Command = 24
	CmdPlayerWrapper         Command = 25
	CmdSessionDescChanged    Command = 26
	CmdChallenge             Command = 28
	CmdAccessGranted         Command = 29
	CmdLogonDenied           Command = 30
	CmdAuthError             Command = 31
	CmdNegotiate             Command = 32
	CmdChallengeResponse     Command = 33
	CmdSigned                Command = 34
	CmdAddForwardReply       Command = 36
	CmdAsk4Multicast         Command = 37
	CmdAsk4MulticastGuarntd  Command = 38
	CmdAddShortcutToGroup    Command = 39
	CmdDeleteShortcutGroup   Command = 40
	CmdSuperEnumPlayersReply Command = 41
)

// HeaderShortSize is the size of a DPSP header with the optional prefix
// omitted: nested Packet bodies and DPRP-delivered bodies carry only
// signature, command and version.
const HeaderShortSize = 4 + 2 + 2

// HeaderFullSize is the size of a top-level DPSP header, including the
// sizeToken and sockaddr prefix.
const HeaderFullSize = 4 + SockaddrInLikeSize + HeaderShortSize

// Header is a decoded DPSP message header. SizeToken and Sockaddr are
// only meaningful when the message carries the optional prefix (see
// DecodeHeader/Encode's withPrefix parameter).
type Header struct {
	SizeToken uint32
	Sockaddr  SockaddrInLike
	Command   Command
	Version   uint16
}

// Size returns the total on-wire size of the message, header included,
// that the sizeToken's low 20 bits declare.
func (h Header) Size() int {
	return int(h.SizeToken & 0xFFFFF)
}

// Token returns the reply token packed into the sizeToken's high bits.
func (h Header) Token() uint32 {
	return h.SizeToken >> 20
}

// Encode serializes h. When withPrefix is false, SizeToken and Sockaddr
// are omitted, matching the framing of a nested Packet body or a body
// delivered through ReliableTransport.
func (h Header) Encode(withPrefix bool) []byte {
	var buf []byte
	if withPrefix {
		buf = make([]byte, HeaderFullSize)
		le.PutUint32(buf[0:4], h.SizeToken)
		copy(buf[4:20], h.Sockaddr.Encode())
		buf = buf[:20]
	}
	tail := make([]byte, HeaderShortSize)
	copy(tail[0:4], Signature)
	le.PutUint16(tail[4:6], uint16(h.Command))
	le.PutUint16(tail[6:8], h.Version)
	return append(buf, tail...)
}

// DecodeHeader decodes a DPSP header from buf. It returns the header,
// the number of bytes consumed, and an error. Signature and version are
// validated regardless of withPrefix.
func DecodeHeader(buf []byte, withPrefix bool) (Header, int, error) {
	var h Header
	off := 0

	if withPrefix {
		if err := need(buf, HeaderFullSize); err != nil {
			return Header{}, 0, err
		}
		h.SizeToken = le.Uint32(buf[0:4])
		sa, err := DecodeSockaddrInLike(buf[4:20])
		if err != nil {
			return Header{}, 0, err
		}
		h.Sockaddr = sa
		off = 20
	} else if err := need(buf, HeaderShortSize); err != nil {
		return Header{}, 0, err
	}

	if err := need(buf, off+HeaderShortSize); err != nil {
		return Header{}, 0, err
	}

	sig := buf[off : off+4]
	if string(sig) != Signature {
		return Header{}, 0, ErrBadSignature(append([]byte(nil), sig...))
	}
	h.Command = Command(le.Uint16(buf[off+4 : off+6]))
	h.Version = le.Uint16(buf[off+6 : off+8])
	off += HeaderShortSize

	if h.Version != SupportedVersion {
		return Header{}, 0, ErrUnsupportedVersion(h.Version)
	}

	return h, off, nil
}

// FillOutgoing returns a full-prefix header ready to send, with
// SizeToken set from totalSize and ReplyToken, and the sockaddr block
// filled with the server's outgoing port (family=AF_INET, address
// zeroed, per the on-wire convention).
func FillOutgoing(cmd Command, totalSize int, outgoingPort uint16) Header {
	const afINET = 2
	return Header{
		SizeToken: uint32(totalSize&0xFFFFF) | ReplyToken<<20,
		Sockaddr: SockaddrInLike{
			Family: afINET,
			Port:   outgoingPort,
		},
		Command: cmd,
		Version: SupportedVersion,
	}
}
