package session

import (
	"net"
	"sync"
	"testing"

	"github.com/ChenViVi/roselia-board-game/network"
)

// MockConnection is a test double for the network.Connection interface.
type MockConnection struct{}

func (m *MockConnection) Send(msgID uint16, data []byte) error { return nil }
func (m *MockConnection) ReadPacket() (*network.Packet, error) { return nil, nil }
func (m *MockConnection) Close() error                         { return nil }
func (m *MockConnection) RemoteAddr() net.Addr                 { return &net.TCPAddr{} }

// The read loop touches the session on heartbeats while broadcasts from
// other connections' handlers call Send on it concurrently.
func TestSession_ConcurrentActivityUpdates(t *testing.T) {
	sess := NewSession("s1", &MockConnection{})
	before := sess.LastActive()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if j%2 == 0 {
					sess.Touch()
				} else {
					sess.Send(1, nil)
				}
			}
		}()
	}
	wg.Wait()

	if sess.LastActive().Before(before) {
		t.Error("activity timestamp should only move forward")
	}
}

func TestNewManager(t *testing.T) {
	manager := NewManager()
	if manager == nil {
		t.Fatal("NewManager should not return nil")
	}
	if manager.sessions == nil || manager.rooms == nil {
		t.Fatal("NewManager should initialize its maps")
	}
}

func TestManager_Add_Get_Remove(t *testing.T) {
	manager := NewManager()
	sessionID := "test_session_1"
	sess := NewSession(sessionID, &MockConnection{})

	// Test Add
	manager.Add(sess)
	if manager.Count() != 1 {
		t.Fatalf("Expected session count to be 1, got %d", manager.Count())
	}

	// Test Get
	retrievedSess, exists := manager.Get(sessionID)
	if !exists {
		t.Fatal("Get should find the added session")
	}
	if retrievedSess != sess {
		t.Fatal("Get should return the same session instance")
	}

	// Test Remove
	manager.Remove(sessionID)
	if manager.Count() != 0 {
		t.Fatalf("Expected session count to be 0 after removal, got %d", manager.Count())
	}

	_, exists = manager.Get(sessionID)
	if exists {
		t.Fatal("Get should not find the removed session")
	}
}

func TestManager_RoomRegistry(t *testing.T) {
	manager := NewManager()
	sess := NewSession("s1", &MockConnection{})
	manager.Add(sess)

	if _, exists := manager.RoomOf("s1"); exists {
		t.Fatal("a fresh session must not belong to a room")
	}

	manager.BindRoom("s1", "room_a")
	roomID, exists := manager.RoomOf("s1")
	if !exists || roomID != "room_a" {
		t.Fatalf("RoomOf = (%q, %v), want (room_a, true)", roomID, exists)
	}

	// A session owns at most one membership; binding overwrites.
	manager.BindRoom("s1", "room_b")
	if roomID, _ := manager.RoomOf("s1"); roomID != "room_b" {
		t.Fatalf("RoomOf after rebind = %q, want room_b", roomID)
	}

	manager.UnbindRoom("s1")
	if _, exists := manager.RoomOf("s1"); exists {
		t.Fatal("UnbindRoom should clear the membership")
	}
}

func TestManager_RemoveClearsRegistry(t *testing.T) {
	manager := NewManager()
	sess := NewSession("s1", &MockConnection{})
	manager.Add(sess)
	manager.BindRoom("s1", "room_a")

	manager.Remove("s1")

	if _, exists := manager.RoomOf("s1"); exists {
		t.Fatal("Remove should drop the room binding as well")
	}
}
