package state

import (
	"encoding/json"
	"math/rand"

	"github.com/ChenViVi/roselia-board-game/logger"
	"github.com/ChenViVi/roselia-board-game/models"
	"github.com/ChenViVi/roselia-board-game/network"
)

// PlayingState 游戏进行状态：持有回合顺序、回合指针和最近一次掷骰
type PlayingState struct {
	RoomStateBase
	order     []string
	turnIndex int
	lastDice  *models.DiceResult
}

// NewPlayingState fixes the turn order to the roster's registration order
// at the moment the game starts.
func NewPlayingState(room RoomContext) *PlayingState {
	order := make([]string, len(room.RosterOrder()))
	copy(order, room.RosterOrder())

	return &PlayingState{
		RoomStateBase: RoomStateBase{
			ID:   StatePlaying,
			Room: room,
		},
		order: order,
	}
}

// OnEnter 进入游戏状态，通知回合顺序和先手玩家
func (s *PlayingState) OnEnter() {
	logger.Log.Infof("room %s game started, turn order: %v", s.Room.GetID(), s.order)

	notice, _ := json.Marshal(models.GameStartedNotice{
		PlayerOrder: s.order,
		CurrentTurn: s.order[s.turnIndex],
	})
	s.Room.Broadcast(network.MsgTypeGameStarted, notice)
}

func (s *PlayingState) OnExit() {
	s.lastDice = nil
}

// CurrentTurn returns the session ID of the turn occupant.
func (s *PlayingState) CurrentTurn() string {
	return s.order[s.turnIndex]
}

// PlayerOrder returns the fixed turn sequence.
func (s *PlayingState) PlayerOrder() []string {
	return s.order
}

// LastDice returns the most recent roll, nil after a turn change.
func (s *PlayingState) LastDice() *models.DiceResult {
	return s.lastDice
}

func (s *PlayingState) HandleIntent(player Player, msgID uint16, data []byte) error {
	switch msgID {
	case network.MsgTypeRollDice:
		return s.handleRollDice(player, data)
	case network.MsgTypeEndTurn:
		return s.handleEndTurn(player)
	case network.MsgTypeSelectCharacter, network.MsgTypeStartGame:
		// 游戏开始后不能选人，也不能重复开局
		return nil
	}
	return s.RoomStateBase.HandleIntent(player, msgID, data)
}

func (s *PlayingState) handleRollDice(player Player, data []byte) error {
	if player.GetID() != s.order[s.turnIndex] {
		return nil
	}

	var req models.RollDiceRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return err
	}

	// 骰子数量不设上限，非正数视为空掷
	sides := s.Room.Rules().DiceSides
	details := make([]int, 0)
	roll := 0
	for i := 0; i < req.Count; i++ {
		r := rand.Intn(sides) + 1
		roll += r
		details = append(details, r)
	}

	s.lastDice = &models.DiceResult{
		Roll:    roll,
		Details: details,
		Player:  player.GetID(),
	}

	notice, _ := json.Marshal(s.lastDice)
	return s.Room.Broadcast(network.MsgTypeDiceRolled, notice)
}

func (s *PlayingState) handleEndTurn(player Player) error {
	if player.GetID() != s.order[s.turnIndex] {
		return nil
	}

	s.turnIndex = (s.turnIndex + 1) % len(s.order)
	s.lastDice = nil

	notice, _ := json.Marshal(models.TurnChangedNotice{CurrentTurn: s.order[s.turnIndex]})
	return s.Room.Broadcast(network.MsgTypeTurnChanged, notice)
}

// HandlePlayerLeft runs after the departed player was removed from the
// roster. Fewer than 2 remaining players resets the room to the lobby.
// Otherwise the departed player is filtered out of the turn order and the
// cursor clamped, so the order never references a dead connection.
func (s *PlayingState) HandlePlayerLeft(sessionID string) {
	if len(s.Room.Roster()) < 2 {
		notice, _ := json.Marshal(models.GameResetNotice{Reason: "not enough players, game reset"})
		s.Room.Broadcast(network.MsgTypeGameReset, notice)
		s.Room.ChangeState(NewLobbyState(s.Room))
		return
	}

	pos := -1
	for i, id := range s.order {
		if id == sessionID {
			pos = i
			break
		}
	}
	if pos == -1 {
		return
	}

	occupant := s.order[s.turnIndex]

	s.order = append(s.order[:pos], s.order[pos+1:]...)
	if pos < s.turnIndex {
		s.turnIndex--
	}
	if s.turnIndex >= len(s.order) {
		s.turnIndex = 0
	}

	// 轮到的人变了才需要通知
	if s.order[s.turnIndex] != occupant {
		s.lastDice = nil
		notice, _ := json.Marshal(models.TurnChangedNotice{CurrentTurn: s.order[s.turnIndex]})
		s.Room.Broadcast(network.MsgTypeTurnChanged, notice)
	}
}
