package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/rpc"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/ChenViVi/roselia-board-game/broadcast"
	"github.com/ChenViVi/roselia-board-game/logger"
	"github.com/ChenViVi/roselia-board-game/models"
	"github.com/ChenViVi/roselia-board-game/monitor"
	"github.com/ChenViVi/roselia-board-game/network"
	"github.com/ChenViVi/roselia-board-game/room"
	gamerpc "github.com/ChenViVi/roselia-board-game/rpc"
	"github.com/ChenViVi/roselia-board-game/session"
)

type GameServer struct {
	addr           string
	upgrader       websocket.Upgrader
	roomManager    *room.Manager
	sessionManager *session.Manager
	broadcaster    broadcast.Broadcaster
	rules          models.Rules
	monitor        *monitor.Monitor
	rpcServer      *gamerpc.Server
	shutdownChan   chan struct{}
}

// NewGameServer wires the managers together. rpcAddr may be empty to
// disable the admin RPC listener (tests do this).
func NewGameServer(addr, rpcAddr string, rules models.Rules, mon *monitor.Monitor) *GameServer {
	s := &GameServer{
		addr:           addr,
		roomManager:    room.NewRoomManager(),
		sessionManager: session.NewManager(),
		rules:          rules,
		monitor:        mon,
		shutdownChan:   make(chan struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // 允许所有跨域请求
			},
		},
	}

	// 初始化广播器
	s.broadcaster = broadcast.NewRoomBroadcaster(s.roomManager)

	if rpcAddr != "" {
		rpcServer, err := gamerpc.NewServer(rpcAddr)
		if err != nil {
			logger.Log.Fatalf("Failed to create RPC server: %v", err)
		}
		s.rpcServer = rpcServer
		rpc.Register(gamerpc.NewAdmin(s.roomManager))
	}

	mon.StartSampling(5*time.Second, s.roomManager.Count)

	return s
}

func (s *GameServer) Start() error {
	if s.rpcServer != nil {
		go s.rpcServer.Start()
	}

	http.HandleFunc("/ws", s.handleWebSocket)
	logger.Log.Infof("Game server listening on %s", s.addr)
	return http.ListenAndServe(s.addr, nil)
}

func (s *GameServer) Shutdown() {
	close(s.shutdownChan)
	if s.rpcServer != nil {
		s.rpcServer.Stop()
	}
}

func (s *GameServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Infof("Failed to upgrade connection: %v", err)
		return
	}
	s.handleConnection(network.NewWSConnection(conn))
}

func (s *GameServer) handleConnection(conn network.Connection) {
	sess := session.NewSession(uuid.New().String(), conn)
	s.sessionManager.Add(sess)
	s.monitor.IncOnlinePlayers()

	logger.Log.Infof("New connection from %s, session ID: %s", conn.RemoteAddr(), sess.GetID())

	defer func() {
		logger.Log.Infof("Connection closed, session ID: %s", sess.GetID())
		s.disconnect(sess)
		s.monitor.DecOnlinePlayers()
		conn.Close()
	}()

	for {
		select {
		case <-s.shutdownChan:
			return
		default:
			packet, err := conn.ReadPacket()
			if err != nil {
				return
			}
			s.handlePacket(sess, packet)
		}
	}
}

func (s *GameServer) handlePacket(sess *session.Session, packet *network.Packet) {
	s.monitor.IncMessagesReceived()
	start := time.Now()
	defer func() {
		s.monitor.ObserveMessageLatency(time.Since(start))
	}()

	switch packet.MsgID {
	case network.MsgTypeHeartbeat:
		sess.Touch()
	case network.MsgTypeCreateRoom:
		s.handleCreateRoom(sess, packet)
	case network.MsgTypeJoinRoom:
		s.handleJoinRoom(sess, packet)
	case network.MsgTypeSelectCharacter,
		network.MsgTypeStartGame,
		network.MsgTypeRollDice,
		network.MsgTypeEndTurn,
		network.MsgTypeMovePlayer,
		network.MsgTypeChangeScore:
		s.handleGameIntent(sess, packet)
	default:
		logger.Log.Infof("Unknown message type: %d", packet.MsgID)
	}
}

// handleCreateRoom 创建房间，并把创建者按加入流程放进去
func (s *GameServer) handleCreateRoom(sess *session.Session, packet *network.Packet) {
	var req models.CreateRoomRequest
	if err := json.Unmarshal(packet.Data, &req); err != nil {
		return
	}

	r, err := s.roomManager.CreateRoom(req.RoomID, req.Password, s.rules, s.broadcaster)
	if err != nil {
		s.sendError(sess, err.Error())
		return
	}

	logger.Log.Infof("Session %s created room %s", sess.GetID(), req.RoomID)
	s.enterRoom(sess, r)
}

func (s *GameServer) handleJoinRoom(sess *session.Session, packet *network.Packet) {
	var req models.JoinRoomRequest
	if err := json.Unmarshal(packet.Data, &req); err != nil {
		return
	}

	r, exists := s.roomManager.GetRoom(req.RoomID)
	if !exists {
		s.sendError(sess, room.ErrRoomNotFound.Error())
		return
	}
	if !r.CheckPassword(req.Password) {
		s.sendError(sess, room.ErrWrongPassword.Error())
		return
	}

	logger.Log.Infof("Session %s joined room %s", sess.GetID(), req.RoomID)
	s.enterRoom(sess, r)
}

// enterRoom 订阅房间并登记 connection -> room 映射；
// 一个连接同时只属于一个房间，换房先退旧房
func (s *GameServer) enterRoom(sess *session.Session, r *room.Room) {
	if prevID, ok := s.sessionManager.RoomOf(sess.GetID()); ok && prevID != r.ID {
		s.leaveRoom(sess.GetID(), prevID)
	}

	if err := r.Join(sess); err != nil {
		// 房间在查到和订阅之间被最后一人退掉删除了；
		// 不登记映射，让客户端按不存在处理重试
		if errors.Is(err, room.ErrRoomClosed) {
			s.sendError(sess, room.ErrRoomNotFound.Error())
			return
		}
		logger.Log.Errorf("Failed to send snapshot to session %s: %v", sess.GetID(), err)
	}
	s.sessionManager.BindRoom(sess.GetID(), r.ID)
}

func (s *GameServer) handleGameIntent(sess *session.Session, packet *network.Packet) {
	roomID, ok := s.sessionManager.RoomOf(sess.GetID())
	if !ok {
		return
	}

	r, exists := s.roomManager.GetRoom(roomID)
	if !exists {
		logger.Log.Errorf("Room %s not found for session %s", roomID, sess.GetID())
		return
	}

	if err := r.Dispatch(sess, packet.MsgID, packet.Data); err != nil {
		logger.Log.Errorf("Error handling intent %d in room %s: %v", packet.MsgID, roomID, err)
	}
}

// disconnect 断线清理：退出所在房间，房间空了就删除
func (s *GameServer) disconnect(sess *session.Session) {
	if roomID, ok := s.sessionManager.RoomOf(sess.GetID()); ok {
		s.leaveRoom(sess.GetID(), roomID)
	}
	s.sessionManager.Remove(sess.GetID())
}

func (s *GameServer) leaveRoom(sessionID, roomID string) {
	s.sessionManager.UnbindRoom(sessionID)
	if r, exists := s.roomManager.GetRoom(roomID); exists {
		if remaining := r.Leave(sessionID); remaining == 0 {
			// 删除前在管理器锁内复核订阅数，避免与并发加入竞争
			if s.roomManager.RemoveRoomIfEmpty(roomID) {
				logger.Log.Infof("Room %s deleted", roomID)
			}
		}
	}
}

// sendError 只通知出错的那个连接
func (s *GameServer) sendError(sess *session.Session, message string) {
	data, _ := json.Marshal(models.ErrorNotice{Message: message})
	if err := sess.Send(network.MsgTypeError, data); err != nil {
		logger.Log.Infof("Failed to send error to session %s: %v", sess.GetID(), err)
	}
}
