// state/interfaces.go
package state

import (
	"github.com/ChenViVi/roselia-board-game/models"
)

// Player defines the minimal interface for a player entity that a state needs to interact with.
type Player interface {
	GetID() string
}

// RoomContext defines the interface that a Room must implement to be driven by the state machine.
// This breaks the import cycle between room and state.
//
// Every method is called with the room's game lock already held: intents are
// processed one at a time per room, so states never lock.
type RoomContext interface {
	GetID() string
	Rules() models.Rules
	// Roster is the live player map (session ID -> player); mutations are
	// visible to the room.
	Roster() map[string]*models.Player
	// RosterOrder lists session IDs in the order they first claimed a
	// character. This is the reference order for turn sequences.
	RosterOrder() []string
	PutPlayer(p *models.Player)
	TakenChars() []int
	ChangeState(newState State) error
	Broadcast(msgID uint16, data []byte) error
	// BroadcastExcept delivers to every subscriber but the named session.
	BroadcastExcept(sessionID string, msgID uint16, data []byte) error
}
