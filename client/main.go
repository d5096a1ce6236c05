// 命令行测试客户端：
//
//	create <room> [password]
//	join <room> [password]
//	pick <charId>
//	start
//	roll <diceCount>
//	end
//	move <x> <y>
//	score <amount>
package main

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/ChenViVi/roselia-board-game/models"
	"github.com/ChenViVi/roselia-board-game/network"
)

// send formats and sends a packet to the server.
func send(c *websocket.Conn, msgID uint16, payload interface{}) error {
	var data []byte
	if payload != nil {
		var err error
		data, err = json.Marshal(payload)
		if err != nil {
			return err
		}
	}

	packet := make([]byte, 4+len(data))
	binary.BigEndian.PutUint16(packet[0:2], msgID)
	binary.BigEndian.PutUint16(packet[2:4], uint16(len(data)))
	copy(packet[4:], data)

	return c.WriteMessage(websocket.BinaryMessage, packet)
}

var eventNames = map[uint16]string{
	network.MsgTypeRoomJoined:    "roomJoined",
	network.MsgTypeUpdatePlayers: "updatePlayers",
	network.MsgTypeTakenChars:    "takenChars",
	network.MsgTypeGameStarted:   "gameStarted",
	network.MsgTypeDiceRolled:    "diceRolled",
	network.MsgTypeTurnChanged:   "turnChanged",
	network.MsgTypePlayerMoved:   "playerMoved",
	network.MsgTypeGameReset:     "gameReset",
	network.MsgTypeError:         "error",
}

func main() {
	host := "localhost:3000"
	if len(os.Args) > 1 {
		host = os.Args[1]
	}

	u := url.URL{Scheme: "ws", Host: host, Path: "/ws"}
	log.Printf("Connecting to %s", u.String())

	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("Dial failed: %v", err)
	}
	defer c.Close()

	// Read loop
	go func() {
		for {
			_, message, err := c.ReadMessage()
			if err != nil {
				log.Println("Read error:", err)
				os.Exit(0)
			}
			if len(message) < 4 {
				continue
			}
			msgID := binary.BigEndian.Uint16(message[0:2])
			name := eventNames[msgID]
			if name == "" {
				name = strconv.Itoa(int(msgID))
			}
			log.Printf("<- %s %s", name, message[4:])
		}
	}()

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		var err error
		switch fields[0] {
		case "create":
			req := models.CreateRoomRequest{RoomID: arg(fields, 1), Password: arg(fields, 2)}
			err = send(c, network.MsgTypeCreateRoom, req)
		case "join":
			req := models.JoinRoomRequest{RoomID: arg(fields, 1), Password: arg(fields, 2)}
			err = send(c, network.MsgTypeJoinRoom, req)
		case "pick":
			charID, _ := strconv.Atoi(arg(fields, 1))
			err = send(c, network.MsgTypeSelectCharacter, models.SelectCharacterRequest{CharID: charID})
		case "start":
			err = send(c, network.MsgTypeStartGame, nil)
		case "roll":
			count, _ := strconv.Atoi(arg(fields, 1))
			err = send(c, network.MsgTypeRollDice, models.RollDiceRequest{Count: count})
		case "end":
			err = send(c, network.MsgTypeEndTurn, nil)
		case "move":
			x, _ := strconv.ParseFloat(arg(fields, 1), 64)
			y, _ := strconv.ParseFloat(arg(fields, 2), 64)
			err = send(c, network.MsgTypeMovePlayer, models.MovePlayerRequest{X: x, Y: y})
		case "score":
			err = send(c, network.MsgTypeChangeScore, models.ChangeScoreRequest{Amount: arg(fields, 1)})
		case "quit":
			return
		default:
			log.Printf("unknown command %q", fields[0])
			continue
		}
		if err != nil {
			log.Fatalf("Send failed: %v", err)
		}
	}
}

func arg(fields []string, i int) string {
	if i < len(fields) {
		return fields[i]
	}
	return ""
}
