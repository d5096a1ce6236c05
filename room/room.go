// room/room.go
package room

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/ChenViVi/roselia-board-game/models"
	"github.com/ChenViVi/roselia-board-game/network"
	"github.com/ChenViVi/roselia-board-game/session"
	"github.com/ChenViVi/roselia-board-game/state"
)

var (
	ErrRoomAlreadyExists = errors.New("room already exists")
	ErrRoomNotFound      = errors.New("room not found")
	ErrWrongPassword     = errors.New("wrong password")
	ErrRoomClosed        = errors.New("room closed")
)

// turnHolder is satisfied by states that track a turn occupant.
type turnHolder interface {
	CurrentTurn() string
}

// Room 是游戏房间的核心结构。游戏数据（玩家名单、回合）由 mu 保护，
// 订阅者列表由 sessMutex 单独保护，广播路径只取 sessMutex。
// 锁顺序：先 mu 后 sessMutex。
type Room struct {
	ID           string
	StateMachine state.StateMachine
	CreatedAt    time.Time

	password string
	rules    models.Rules

	roster      map[string]*models.Player // sessionID -> player (已选角色)
	rosterOrder []string                  // 选角顺序，开局时定格为回合顺序
	mu          sync.Mutex

	sessions  map[string]*session.Session // 订阅者（含未选角色的旁观连接）
	closed    bool                        // 已从管理器移除，拒绝新订阅
	sessMutex sync.RWMutex

	broadcaster Broadcaster
}

// NewRoom 创建一个新房间，初始为大厅状态
func NewRoom(id, password string, rules models.Rules, broadcaster Broadcaster) *Room {
	room := &Room{
		ID:          id,
		password:    password,
		rules:       rules,
		roster:      make(map[string]*models.Player),
		sessions:    make(map[string]*session.Session),
		CreatedAt:   time.Now(),
		broadcaster: broadcaster,
	}

	// 初始化状态机，将房间自身作为上下文传入
	room.StateMachine = state.NewBaseStateMachine(state.NewLobbyState(room))

	return room
}

// --- 实现 state.RoomContext 接口（调用方持有 mu）---

func (r *Room) GetID() string {
	return r.ID
}

func (r *Room) Rules() models.Rules {
	return r.rules
}

func (r *Room) Roster() map[string]*models.Player {
	return r.roster
}

func (r *Room) RosterOrder() []string {
	return r.rosterOrder
}

// PutPlayer inserts or overwrites the roster entry for the player's
// session. First-time registration is appended to the roster order.
func (r *Room) PutPlayer(p *models.Player) {
	if _, exists := r.roster[p.ID]; !exists {
		r.rosterOrder = append(r.rosterOrder, p.ID)
	}
	r.roster[p.ID] = p
}

func (r *Room) TakenChars() []int {
	chars := make([]int, 0, len(r.rosterOrder))
	for _, id := range r.rosterOrder {
		chars = append(chars, r.roster[id].CharID)
	}
	return chars
}

func (r *Room) ChangeState(newState state.State) error {
	return r.StateMachine.ChangeState(newState)
}

func (r *Room) Broadcast(msgID uint16, data []byte) error {
	return r.broadcaster.BroadcastToRoom(r.ID, msgID, data)
}

func (r *Room) BroadcastExcept(sessionID string, msgID uint16, data []byte) error {
	return r.broadcaster.BroadcastToRoomExcept(r.ID, sessionID, msgID, data)
}

// --- 房间核心逻辑 ---

// CheckPassword reports whether the supplied password opens this room.
func (r *Room) CheckPassword(password string) bool {
	return r.password == password
}

// Join registers the session as a subscriber and sends it the initial
// snapshot. Both happen under the game lock so no broadcast can land
// between snapshot and subscription. A room already removed from its
// manager returns ErrRoomClosed: a caller holding a stale *Room must
// not subscribe to it.
func (r *Room) Join(sess *session.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessMutex.Lock()
	if r.closed {
		r.sessMutex.Unlock()
		return ErrRoomClosed
	}
	r.sessions[sess.ID] = sess
	r.sessMutex.Unlock()

	data, err := json.Marshal(r.snapshot())
	if err != nil {
		return err
	}
	return sess.Send(network.MsgTypeRoomJoined, data)
}

// Dispatch routes one client intent into the current state. Intents are
// serialized per room by the game lock.
func (r *Room) Dispatch(player state.Player, msgID uint16, data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.StateMachine.GetCurrentState().HandleIntent(player, msgID, data)
}

// Leave removes the session from the room and returns the number of
// remaining subscribers. A zero return means the room should be deleted.
func (r *Room) Leave(sessionID string) int {
	// 先取消订阅，离开的人不再收到任何通知
	r.sessMutex.Lock()
	delete(r.sessions, sessionID)
	remaining := len(r.sessions)
	r.sessMutex.Unlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.roster[sessionID]; exists {
		delete(r.roster, sessionID)
		for i, id := range r.rosterOrder {
			if id == sessionID {
				r.rosterOrder = append(r.rosterOrder[:i], r.rosterOrder[i+1:]...)
				break
			}
		}

		// 先让当前状态处理（可能触发 gameReset / turnChanged），
		// 再通知名单变化
		r.StateMachine.GetCurrentState().HandlePlayerLeft(sessionID)

		rosterData, _ := json.Marshal(r.roster)
		r.Broadcast(network.MsgTypeUpdatePlayers, rosterData)
		charsData, _ := json.Marshal(r.TakenChars())
		r.Broadcast(network.MsgTypeTakenChars, charsData)
	}

	return remaining
}

// Snapshot returns the state a newly joined connection should see.
func (r *Room) Snapshot() models.RoomSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshot()
}

// snapshot 调用方持有 mu
func (r *Room) snapshot() models.RoomSnapshot {
	players := make(map[string]*models.Player, len(r.roster))
	for id, p := range r.roster {
		clone := *p
		players[id] = &clone
	}

	snap := models.RoomSnapshot{
		RoomID:      r.ID,
		Players:     players,
		GameStarted: r.Started(),
		TakenChars:  r.TakenChars(),
	}
	if th, ok := r.StateMachine.GetCurrentState().(turnHolder); ok {
		snap.CurrentTurn = th.CurrentTurn()
	}
	return snap
}

// Started reports whether the game is in progress.
func (r *Room) Started() bool {
	return r.StateMachine.GetCurrentState().GetID() == state.StatePlaying
}

// GetSessions returns a slice of all subscribers (thread-safe).
func (r *Room) GetSessions() []*session.Session {
	r.sessMutex.RLock()
	defer r.sessMutex.RUnlock()

	sessions := make([]*session.Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	return sessions
}

// PlayerCount 已选角色的玩家数
func (r *Room) PlayerCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.roster)
}

// SubscriberCount 订阅连接数
func (r *Room) SubscriberCount() int {
	r.sessMutex.RLock()
	defer r.sessMutex.RUnlock()
	return len(r.sessions)
}

// closeIfEmpty marks the room closed when no subscribers remain, so the
// emptiness check and the rejection of later joins share one critical
// section on sessMutex.
func (r *Room) closeIfEmpty() bool {
	r.sessMutex.Lock()
	defer r.sessMutex.Unlock()
	if len(r.sessions) > 0 {
		return false
	}
	r.closed = true
	return true
}

// --- 房间管理器 ---

// Stats is a read-only view of one room, used by the admin RPC.
type Stats struct {
	RoomID      string
	Players     int
	Subscribers int
	Started     bool
}

// Manager 管理所有房间
type Manager struct {
	rooms map[string]*Room
	mutex sync.RWMutex
}

// NewRoomManager 创建一个新的房间管理器
func NewRoomManager() *Manager {
	return &Manager{
		rooms: make(map[string]*Room),
	}
}

// CreateRoom 创建一个新房间并添加到管理器；房间名已存在时报错
func (m *Manager) CreateRoom(id, password string, rules models.Rules, broadcaster Broadcaster) (*Room, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, exists := m.rooms[id]; exists {
		return nil, ErrRoomAlreadyExists
	}

	room := NewRoom(id, password, rules, broadcaster)
	m.rooms[id] = room
	return room, nil
}

// RemoveRoom 从管理器中移除一个房间
func (m *Manager) RemoveRoom(id string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	delete(m.rooms, id)
}

// RemoveRoomIfEmpty 仅在房间没有订阅者时移除。重新检查订阅数并把房间
// 标记为 closed 是同一个临界区：并发的 Join 要么先落在检查之前（房间
// 保留），要么拿到 ErrRoomClosed。
func (m *Manager) RemoveRoomIfEmpty(id string) bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	room, exists := m.rooms[id]
	if !exists {
		return false
	}
	if !room.closeIfEmpty() {
		return false
	}
	delete(m.rooms, id)
	return true
}

// GetRoom 从管理器中获取一个房间
func (m *Manager) GetRoom(id string) (*Room, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	room, exists := m.rooms[id]
	return room, exists
}

// Count 当前房间数
func (m *Manager) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.rooms)
}

// StatsAll 汇总所有房间的状态。先复制房间列表再逐个取数，
// 避免持有管理器锁时再去拿房间锁。
func (m *Manager) StatsAll() []Stats {
	m.mutex.RLock()
	rooms := make([]*Room, 0, len(m.rooms))
	for _, room := range m.rooms {
		rooms = append(rooms, room)
	}
	m.mutex.RUnlock()

	stats := make([]Stats, 0, len(rooms))
	for _, room := range rooms {
		stats = append(stats, Stats{
			RoomID:      room.ID,
			Players:     room.PlayerCount(),
			Subscribers: room.SubscriberCount(),
			Started:     room.Started(),
		})
	}
	return stats
}
