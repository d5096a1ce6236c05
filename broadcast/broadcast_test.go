package broadcast

import (
	"net"
	"sync"
	"testing"

	"github.com/ChenViVi/roselia-board-game/models"
	"github.com/ChenViVi/roselia-board-game/network"
	"github.com/ChenViVi/roselia-board-game/room"
	"github.com/ChenViVi/roselia-board-game/session"
)

type MockConnection struct {
	mu   sync.Mutex
	sent []uint16
}

func (m *MockConnection) Send(msgID uint16, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msgID)
	return nil
}

func (m *MockConnection) ReadPacket() (*network.Packet, error) { return nil, nil }
func (m *MockConnection) Close() error                         { return nil }
func (m *MockConnection) RemoteAddr() net.Addr                 { return &net.TCPAddr{} }

func (m *MockConnection) count(msgID uint16) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, id := range m.sent {
		if id == msgID {
			n++
		}
	}
	return n
}

func TestBroadcastToRoom(t *testing.T) {
	manager := room.NewRoomManager()
	b := NewRoomBroadcaster(manager)

	r, err := manager.CreateRoom("R1", "", models.DefaultRules(), b)
	if err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}

	connA := &MockConnection{}
	connB := &MockConnection{}
	r.Join(session.NewSession("a", connA))
	r.Join(session.NewSession("b", connB))

	if err := b.BroadcastToRoom("R1", network.MsgTypeUpdatePlayers, []byte("{}")); err != nil {
		t.Fatalf("BroadcastToRoom: %v", err)
	}

	if connA.count(network.MsgTypeUpdatePlayers) != 1 || connB.count(network.MsgTypeUpdatePlayers) != 1 {
		t.Error("every subscriber should receive the broadcast")
	}
}

func TestBroadcastToRoomExcept(t *testing.T) {
	manager := room.NewRoomManager()
	b := NewRoomBroadcaster(manager)

	r, _ := manager.CreateRoom("R1", "", models.DefaultRules(), b)

	connA := &MockConnection{}
	connB := &MockConnection{}
	r.Join(session.NewSession("a", connA))
	r.Join(session.NewSession("b", connB))

	if err := b.BroadcastToRoomExcept("R1", "a", network.MsgTypePlayerMoved, []byte("{}")); err != nil {
		t.Fatalf("BroadcastToRoomExcept: %v", err)
	}

	if connA.count(network.MsgTypePlayerMoved) != 0 {
		t.Error("the excluded session must not receive the broadcast")
	}
	if connB.count(network.MsgTypePlayerMoved) != 1 {
		t.Error("other subscribers should receive the broadcast")
	}
}

func TestBroadcastToUnknownRoom(t *testing.T) {
	b := NewRoomBroadcaster(room.NewRoomManager())

	if err := b.BroadcastToRoom("ghost", network.MsgTypeUpdatePlayers, nil); err != ErrRoomNotFound {
		t.Errorf("expected ErrRoomNotFound, got %v", err)
	}
}
