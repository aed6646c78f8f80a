// Package session implements the authoritative registry of players in
// the single hosted DirectPlay session: identifier allocation,
// session-wide attributes, and player lifecycle. It holds no knowledge
// of sockets or wire framing.
package session

import "github.com/dplayhost/dplayhost/internal/wire"

// Player is the per-player record owned by a Session. It is created,
// mutated and destroyed only through Session methods.
type Player struct {
	ID             uint32
	Flags          uint32
	SystemPlayerID uint32

	ShortName string
	LongName  string

	// ServiceProviderData is opaque to Session; in practice it holds two
	// 16-byte SockaddrInLike blobs describing where to reach the player.
	ServiceProviderData []byte

	// PlayerData is an optional opaque application-defined blob.
	PlayerData []byte
}

// IsSystem reports whether the player represents a client machine's
// presence rather than an in-session participant.
func (p *Player) IsSystem() bool { return p.Flags&wire.PlayerSystem != 0 }
