package network

// 客户端 -> 服务端
const (
	MsgTypeHeartbeat       = 1
	MsgTypeCreateRoom      = 101
	MsgTypeJoinRoom        = 102
	MsgTypeSelectCharacter = 201
	MsgTypeStartGame       = 202
	MsgTypeRollDice        = 203
	MsgTypeEndTurn         = 204
	MsgTypeMovePlayer      = 205
	MsgTypeChangeScore     = 206
)

// 服务端 -> 客户端
const (
	MsgTypeRoomJoined    = 301
	MsgTypeUpdatePlayers = 302
	MsgTypeTakenChars    = 303
	MsgTypeGameStarted   = 304
	MsgTypeDiceRolled    = 305
	MsgTypeTurnChanged   = 306
	MsgTypePlayerMoved   = 307
	MsgTypeGameReset     = 308
	MsgTypeError         = 401
)
