// broadcast/broadcast.go
package broadcast

import (
	"errors"

	"github.com/ChenViVi/roselia-board-game/room"
)

var (
	ErrRoomNotFound = errors.New("room not found")
)

// 广播接口
type Broadcaster interface {
	BroadcastToRoom(roomID string, msgID uint16, data []byte) error
	BroadcastToRoomExcept(roomID, exceptSessionID string, msgID uint16, data []byte) error
}

// 基于房间的广播器
type RoomBroadcaster struct {
	roomManager *room.Manager
}

func NewRoomBroadcaster(roomManager *room.Manager) *RoomBroadcaster {
	return &RoomBroadcaster{
		roomManager: roomManager,
	}
}

func (b *RoomBroadcaster) BroadcastToRoom(roomID string, msgID uint16, data []byte) error {
	return b.fanout(roomID, "", msgID, data)
}

// BroadcastToRoomExcept 广播给房间内除指定连接以外的所有订阅者，
// 用于 movePlayer：移动方本地已有权威状态。
func (b *RoomBroadcaster) BroadcastToRoomExcept(roomID, exceptSessionID string, msgID uint16, data []byte) error {
	return b.fanout(roomID, exceptSessionID, msgID, data)
}

func (b *RoomBroadcaster) fanout(roomID, exceptSessionID string, msgID uint16, data []byte) error {
	r, exists := b.roomManager.GetRoom(roomID)
	if !exists {
		return ErrRoomNotFound
	}

	// Get a thread-safe copy of the sessions
	sessions := r.GetSessions()

	for _, s := range sessions {
		if s.ID == exceptSessionID {
			continue
		}
		if err := s.Send(msgID, data); err != nil {
			// 发送失败的连接跳过，等读循环出错后统一清理
			continue
		}
	}

	return nil
}
