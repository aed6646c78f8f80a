package session

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dplayhost/dplayhost/internal/metrics"
	"github.com/dplayhost/dplayhost/internal/wire"
)

// Config carries the session attributes fixed for the lifetime of the
// server process, derived from the external configuration surface.
type Config struct {
	Name            string
	ApplicationGUID [16]byte
	MaxPlayers      uint32
	Flags           uint32

	// IDXor is the identifier-obfuscation mask XORed with ids on the
	// wire. Zero disables obfuscation.
	IDXor uint32

	// AdvanceUniquenessPerAlloc controls whether the uniqueness counter
	// (the upper 16 bits of newly minted ids) is incremented once per
	// allocated id. The original source never advances it; this is
	// exposed as a hook rather than hardwired, per the protocol's open
	// question on allocator cadence.
	AdvanceUniquenessPerAlloc bool
}

// DefaultSessionFlags matches the flags the reference host set when
// constructing its Session (DPSession_ReliableProtocol |
// DPSession_OptimiseLatency).
const DefaultSessionFlags = wire.SessionReliableProtocol | wire.SessionOptimiseLatency

// DefaultMaxPlayers matches the reference host's hardcoded player cap.
const DefaultMaxPlayers uint32 = 10

// Session is the single, long-lived, authoritative registry of players
// in the hosted DirectPlay session. All exported methods are safe for
// concurrent use; a command handler invoked from any client's goroutine
// serializes access via the same mutex.
type Session struct {
	cfg Config

	instanceGUID [16]byte

	start time.Time

	mu       sync.Mutex
	players  map[uint32]*Player
	idUnique uint32

	log *zap.SugaredLogger
	met *metrics.Metrics
}

// New creates the Session. instanceGUID need not be cryptographically
// random: the protocol only requires it to be stable for the lifetime
// of the process.
func New(cfg Config, instanceGUID [16]byte, log *zap.SugaredLogger, met *metrics.Metrics) *Session {
	if cfg.MaxPlayers == 0 {
		cfg.MaxPlayers = DefaultMaxPlayers
	}
	return &Session{
		cfg:          cfg,
		instanceGUID: instanceGUID,
		start:        time.Now(),
		players:      make(map[uint32]*Player),
		idUnique:     1,
		log:          log,
		met:          met,
	}
}

func (s *Session) Name() string               { return s.cfg.Name }
func (s *Session) Flags() uint32              { return s.cfg.Flags }
func (s *Session) MaxPlayers() uint32         { return s.cfg.MaxPlayers }
func (s *Session) InstanceGUID() [16]byte     { return s.instanceGUID }
func (s *Session) ApplicationGUID() [16]byte  { return s.cfg.ApplicationGUID }
func (s *Session) IDXor() uint32              { return s.cfg.IDXor }

// AdjustID applies the session's identifier-obfuscation mask. Calling
// it twice on the same value is the identity transform.
func (s *Session) AdjustID(id uint32) uint32 { return id ^ s.cfg.IDXor }

// TickCount returns milliseconds elapsed since the session started,
// truncated to 32 bits.
func (s *Session) TickCount() uint32 {
	return uint32(time.Since(s.start).Milliseconds())
}

// allocID must be called with s.mu held.
func (s *Session) allocID() uint32 {
	lowIndex := uint32(len(s.players))
	id := lowIndex | s.idUnique<<16
	for {
		if _, exists := s.players[id]; !exists {
			break
		}
		id++
	}
	if s.cfg.AdvanceUniquenessPerAlloc {
		s.idUnique++
	}
	return id
}

// CreateSystemPlayer allocates a new system player: its SystemPlayerID
// equals its own id, and the System flag bit is always set regardless
// of what's passed in extraFlags.
func (s *Session) CreateSystemPlayer(extraFlags uint32) *Player {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.allocID()
	p := &Player{ID: id, SystemPlayerID: id, Flags: extraFlags | wire.PlayerSystem}
	s.players[id] = p

	if s.met != nil {
		s.met.PlayersCreated.Add(1)
	}
	return p
}

// CreatePlayer allocates a new non-system player subordinate to the
// given system player.
func (s *Session) CreatePlayer(systemPlayerID uint32, extraFlags uint32) *Player {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.allocID()
	p := &Player{ID: id, SystemPlayerID: systemPlayerID, Flags: extraFlags &^ wire.PlayerSystem}
	s.players[id] = p

	if s.met != nil {
		s.met.PlayersCreated.Add(1)
	}
	return p
}

// GetPlayer looks up a player by id.
func (s *Session) GetPlayer(id uint32) (*Player, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.players[id]
	return p, ok
}

// DeletePlayer removes the player with the given id. If it is a system
// player, every player (including itself) whose SystemPlayerID equals
// id is removed too, since a system player's own SystemPlayerID always
// points at itself.
func (s *Session) DeletePlayer(id uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	target, ok := s.players[id]
	if !ok {
		return
	}

	if target.Flags&wire.PlayerSystem == 0 {
		delete(s.players, id)
		if s.met != nil {
			s.met.PlayersDeleted.Add(1)
		}
		return
	}

	for pid, p := range s.players {
		if p.SystemPlayerID == id {
			delete(s.players, pid)
			if s.met != nil {
				s.met.PlayersDeleted.Add(1)
			}
		}
	}
}

// Players returns a snapshot of every player currently registered. The
// order is unspecified.
func (s *Session) Players() []*Player {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*Player, 0, len(s.players))
	for _, p := range s.players {
		out = append(out, p)
	}
	return out
}

// PlayerCount returns the current number of non-system players.
func (s *Session) PlayerCount() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n uint32
	for _, p := range s.players {
		if p.Flags&wire.PlayerSystem == 0 {
			n++
		}
	}
	return n
}
