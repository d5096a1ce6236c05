package state

import (
	"encoding/json"
	"errors"
	"strconv"
	"sync"

	"github.com/ChenViVi/roselia-board-game/models"
	"github.com/ChenViVi/roselia-board-game/network"
)

// 状态机接口
type StateMachine interface {
	ChangeState(state State) error
	GetCurrentState() State
	AddTransition(from State, to State, condition func() bool) error
}

// 状态接口
type State interface {
	OnEnter()
	OnExit()
	GetID() string
	// HandleIntent processes one client intent. Preconditions that do not
	// hold make it a silent no-op (nil return, nothing broadcast).
	HandleIntent(player Player, msgID uint16, data []byte) error
	// HandlePlayerLeft runs after the departing player has been removed
	// from the roster.
	HandlePlayerLeft(sessionID string)
}

// State identifiers.
const (
	StateLobby   = "lobby"
	StatePlaying = "playing"
)

// ErrTransitionNotAllowed is returned when a state transition is not allowed.
var ErrTransitionNotAllowed = errors.New("state transition not allowed")

// 基础状态机实现
type BaseStateMachine struct {
	currentState State
	transitions  map[string]map[string]func() bool // fromState -> toState -> condition
	mutex        sync.RWMutex
}

func NewBaseStateMachine(initialState State) *BaseStateMachine {
	machine := &BaseStateMachine{
		currentState: initialState,
		transitions:  make(map[string]map[string]func() bool),
	}
	initialState.OnEnter()
	return machine
}

func (sm *BaseStateMachine) ChangeState(newState State) error {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()

	currentID := sm.currentState.GetID()
	newID := newState.GetID()

	// 检查是否有转换条件
	if conditions, exists := sm.transitions[currentID]; exists {
		if condition, exists := conditions[newID]; exists {
			if condition != nil && !condition() {
				return ErrTransitionNotAllowed
			}
		}
	}

	sm.currentState.OnExit()
	sm.currentState = newState
	sm.currentState.OnEnter()

	return nil
}

func (sm *BaseStateMachine) GetCurrentState() State {
	sm.mutex.RLock()
	defer sm.mutex.RUnlock()
	return sm.currentState
}

func (sm *BaseStateMachine) AddTransition(from State, to State, condition func() bool) error {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()

	fromID := from.GetID()
	toID := to.GetID()

	if _, exists := sm.transitions[fromID]; !exists {
		sm.transitions[fromID] = make(map[string]func() bool)
	}

	sm.transitions[fromID][toID] = condition
	return nil
}

// 房间状态基础结构
type RoomStateBase struct {
	ID   string
	Room RoomContext
}

func (s *RoomStateBase) GetID() string {
	return s.ID
}

func (s *RoomStateBase) OnEnter() {
	// 默认实现
}

func (s *RoomStateBase) OnExit() {
	// 默认实现
}

func (s *RoomStateBase) HandlePlayerLeft(sessionID string) {
	// 默认实现
}

// HandleIntent covers the intents that are legal in every state:
// movePlayer and changeScore. Specific states handle the rest.
func (s *RoomStateBase) HandleIntent(player Player, msgID uint16, data []byte) error {
	switch msgID {
	case network.MsgTypeMovePlayer:
		return s.handleMove(player, data)
	case network.MsgTypeChangeScore:
		return s.handleChangeScore(player, data)
	}
	return nil
}

func (s *RoomStateBase) handleMove(player Player, data []byte) error {
	p, exists := s.Room.Roster()[player.GetID()]
	if !exists {
		return nil
	}

	var req models.MovePlayerRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return err
	}

	p.X = req.X
	p.Y = req.Y

	// 只广播给同一房间的其他人
	notice, _ := json.Marshal(models.PlayerMovedNotice{ID: p.ID, X: p.X, Y: p.Y})
	return s.Room.BroadcastExcept(p.ID, network.MsgTypePlayerMoved, notice)
}

func (s *RoomStateBase) handleChangeScore(player Player, data []byte) error {
	p, exists := s.Room.Roster()[player.GetID()]
	if !exists {
		return nil
	}

	var req models.ChangeScoreRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return err
	}

	delta, err := strconv.Atoi(req.Amount)
	if err != nil {
		// 无法解析的分数变更直接忽略
		return nil
	}

	p.Score += delta
	return broadcastRoster(s.Room)
}

// broadcastRoster pushes the full player map to every subscriber.
func broadcastRoster(room RoomContext) error {
	data, _ := json.Marshal(room.Roster())
	return room.Broadcast(network.MsgTypeUpdatePlayers, data)
}

// broadcastTakenChars pushes the set of claimed character ids.
func broadcastTakenChars(room RoomContext) error {
	data, _ := json.Marshal(room.TakenChars())
	return room.Broadcast(network.MsgTypeTakenChars, data)
}
