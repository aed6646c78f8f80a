package session

import (
	"testing"

	"github.com/dplayhost/dplayhost/internal/wire"
)

func newTestSession() *Session {
	return New(Config{Name: "TestRoom", MaxPlayers: 10}, [16]byte{1}, nil, nil)
}

func TestAllocatorUniqueness(t *testing.T) {
	s := newTestSession()

	seen := make(map[uint32]bool)
	var created []uint32
	for i := 0; i < 20; i++ {
		p := s.CreateSystemPlayer(0)
		if seen[p.ID] {
			t.Fatalf("duplicate id %d allocated", p.ID)
		}
		seen[p.ID] = true
		created = append(created, p.ID)
	}

	// delete every other player, then allocate more and check that no new
	// id collides with a player still registered across create/delete
	// churn (a deleted player's id may be handed out again).
	for i := 0; i < len(created); i += 2 {
		s.DeletePlayer(created[i])
		delete(seen, created[i])
	}
	for i := 0; i < 20; i++ {
		p := s.CreateSystemPlayer(0)
		if seen[p.ID] {
			t.Fatalf("duplicate id %d allocated after churn", p.ID)
		}
		seen[p.ID] = true
	}
}

func TestSystemPlayerCascadeDelete(t *testing.T) {
	s := newTestSession()

	sysPlayer := s.CreateSystemPlayer(0)
	child1 := s.CreatePlayer(sysPlayer.ID, 0)
	child2 := s.CreatePlayer(sysPlayer.ID, 0)

	other := s.CreateSystemPlayer(0)
	otherChild := s.CreatePlayer(other.ID, 0)

	s.DeletePlayer(sysPlayer.ID)

	for _, id := range []uint32{sysPlayer.ID, child1.ID, child2.ID} {
		if _, ok := s.GetPlayer(id); ok {
			t.Fatalf("player %d should have been cascade-deleted", id)
		}
	}

	if _, ok := s.GetPlayer(other.ID); !ok {
		t.Fatal("unrelated system player should survive")
	}
	if _, ok := s.GetPlayer(otherChild.ID); !ok {
		t.Fatal("unrelated child player should survive")
	}
}

func TestNonSystemPlayerInvariant(t *testing.T) {
	s := newTestSession()
	sysPlayer := s.CreateSystemPlayer(0)
	if sysPlayer.SystemPlayerID != sysPlayer.ID {
		t.Fatalf("system player's SystemPlayerID must equal its own id")
	}
	if !sysPlayer.IsSystem() {
		t.Fatal("expected IsSystem() true")
	}

	child := s.CreatePlayer(sysPlayer.ID, 0)
	if child.IsSystem() {
		t.Fatal("child player should not carry the System flag")
	}
	if child.Flags&wire.PlayerSystem != 0 {
		t.Fatal("child player flags leaked System bit")
	}
}

func TestPlayerCountExcludesSystemPlayers(t *testing.T) {
	s := newTestSession()
	sysPlayer := s.CreateSystemPlayer(0)
	s.CreatePlayer(sysPlayer.ID, 0)
	s.CreatePlayer(sysPlayer.ID, 0)

	if got := s.PlayerCount(); got != 2 {
		t.Fatalf("PlayerCount() = %d, want 2", got)
	}
}

func TestAdjustIDIsInvolution(t *testing.T) {
	s := New(Config{IDXor: 0xCAFEBABE}, [16]byte{}, nil, nil)
	for _, id := range []uint32{0, 1, 0xFFFFFFFF, 0x12345678} {
		if got := s.AdjustID(s.AdjustID(id)); got != id {
			t.Fatalf("AdjustID(AdjustID(%#x)) = %#x", id, got)
		}
	}
}
