package state

import (
	"encoding/json"

	"github.com/ChenViVi/roselia-board-game/logger"
	"github.com/ChenViVi/roselia-board-game/models"
	"github.com/ChenViVi/roselia-board-game/network"
)

// LobbyState 等待状态：玩家选角色，人满手动开局
type LobbyState struct {
	RoomStateBase
}

// NewLobbyState creates the lobby state a room starts (and resets) in.
func NewLobbyState(room RoomContext) *LobbyState {
	return &LobbyState{
		RoomStateBase: RoomStateBase{
			ID:   StateLobby,
			Room: room,
		},
	}
}

func (s *LobbyState) HandleIntent(player Player, msgID uint16, data []byte) error {
	switch msgID {
	case network.MsgTypeSelectCharacter:
		return s.handleSelectCharacter(player, data)
	case network.MsgTypeStartGame:
		return s.handleStartGame(player)
	}
	return s.RoomStateBase.HandleIntent(player, msgID, data)
}

func (s *LobbyState) handleSelectCharacter(player Player, data []byte) error {
	var req models.SelectCharacterRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return err
	}

	// 角色被其他人占用则忽略；重复选自己的角色会重置出生点和分数
	for id, p := range s.Room.Roster() {
		if p.CharID == req.CharID && id != player.GetID() {
			return nil
		}
	}

	rules := s.Room.Rules()
	s.Room.PutPlayer(&models.Player{
		ID:     player.GetID(),
		CharID: req.CharID,
		X:      rules.SpawnX,
		Y:      rules.SpawnY,
		Score:  rules.StartingScore,
	})

	if err := broadcastRoster(s.Room); err != nil {
		return err
	}
	return broadcastTakenChars(s.Room)
}

func (s *LobbyState) handleStartGame(player Player) error {
	if len(s.Room.Roster()) < 2 {
		return nil
	}

	logger.Log.Infof("room %s starting game with %d players", s.Room.GetID(), len(s.Room.Roster()))
	return s.Room.ChangeState(NewPlayingState(s.Room))
}
