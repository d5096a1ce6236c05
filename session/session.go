// session/session.go
package session

import (
	"sync"
	"time"

	"github.com/ChenViVi/roselia-board-game/network"
)

// Session 一条活跃连接。Session 不记录自己属于哪个房间，
// connection -> room 的映射由 Manager 的注册表统一维护。
// lastActive 由读循环（心跳）和广播方（Send）并发更新，加锁保护。
type Session struct {
	ID        string
	Conn      network.Connection
	CreatedAt time.Time

	mu         sync.Mutex
	lastActive time.Time
}

func NewSession(id string, conn network.Connection) *Session {
	now := time.Now()
	return &Session{
		ID:         id,
		Conn:       conn,
		CreatedAt:  now,
		lastActive: now,
	}
}

func (s *Session) Send(msgID uint16, data []byte) error {
	s.Touch()
	return s.Conn.Send(msgID, data)
}

// Touch refreshes the activity timestamp.
func (s *Session) Touch() {
	s.mu.Lock()
	s.lastActive = time.Now()
	s.mu.Unlock()
}

func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

func (s *Session) GetID() string {
	return s.ID
}

func (s *Session) Close() error {
	return s.Conn.Close()
}

// Manager 管理所有会话，并持有 connection -> room 注册表。
// The registry is a non-owning back-reference used purely for routing;
// cleanup on disconnect is a single UnbindRoom call.
type Manager struct {
	sessions map[string]*Session
	rooms    map[string]string // sessionID -> room key
	mutex    sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		rooms:    make(map[string]string),
	}
}

func (m *Manager) Add(session *Session) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.sessions[session.ID] = session
}

func (m *Manager) Remove(sessionID string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	delete(m.sessions, sessionID)
	delete(m.rooms, sessionID)
}

func (m *Manager) Get(sessionID string) (*Session, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	session, exists := m.sessions[sessionID]
	return session, exists
}

func (m *Manager) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.sessions)
}

// BindRoom records which room a session currently belongs to.
// A session holds at most one membership; binding overwrites.
func (m *Manager) BindRoom(sessionID, roomID string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.rooms[sessionID] = roomID
}

// RoomOf resolves the room a session belongs to, if any.
func (m *Manager) RoomOf(sessionID string) (string, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	roomID, exists := m.rooms[sessionID]
	return roomID, exists
}

func (m *Manager) UnbindRoom(sessionID string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	delete(m.rooms, sessionID)
}
