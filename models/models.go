// models/models.go
package models

// Player 玩家数据模型（已选角色的连接）
type Player struct {
	ID     string  `json:"id"`       // session ID of the owning connection
	CharID int     `json:"charId"`   // claimed character, unique per room
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Score  int     `json:"score"`
}

// DiceResult 最近一次掷骰结果
type DiceResult struct {
	Roll    int    `json:"roll"`    // sum of all dice
	Details []int  `json:"details"` // individual die values
	Player  string `json:"player"`  // session ID of the roller
}

// RoomSnapshot is the full initial state a connection receives on join.
type RoomSnapshot struct {
	RoomID      string             `json:"roomId"`
	Players     map[string]*Player `json:"players"`
	GameStarted bool               `json:"gameStarted"`
	CurrentTurn string             `json:"currentTurn,omitempty"`
	TakenChars  []int              `json:"takenChars"`
}

// Rules 房间规则参数（出生点、初始分数、骰子面数）
type Rules struct {
	SpawnX        float64
	SpawnY        float64
	StartingScore int
	DiceSides     int
}

// DefaultRules mirrors the legacy server constants.
func DefaultRules() Rules {
	return Rules{
		SpawnX:        850,
		SpawnY:        850,
		StartingScore: 1000,
		DiceSides:     6,
	}
}

// --- 客户端请求 ---

type CreateRoomRequest struct {
	RoomID   string `json:"roomId"`
	Password string `json:"password"`
}

type JoinRoomRequest struct {
	RoomID   string `json:"roomId"`
	Password string `json:"password"`
}

type SelectCharacterRequest struct {
	CharID int `json:"charId"`
}

type RollDiceRequest struct {
	Count int `json:"count"`
}

type MovePlayerRequest struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ChangeScoreRequest carries the delta as a string; a value that does not
// parse as an integer is silently ignored.
type ChangeScoreRequest struct {
	Amount string `json:"amount"`
}

// --- 服务端通知 ---

type GameStartedNotice struct {
	PlayerOrder []string `json:"playerOrder"`
	CurrentTurn string   `json:"currentTurn"`
}

type TurnChangedNotice struct {
	CurrentTurn string `json:"currentTurn"`
}

type PlayerMovedNotice struct {
	ID string  `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

type GameResetNotice struct {
	Reason string `json:"reason"`
}

type ErrorNotice struct {
	Message string `json:"message"`
}
