package rpc

import (
	"net"
	"net/rpc"

	"github.com/ChenViVi/roselia-board-game/logger"
	"github.com/ChenViVi/roselia-board-game/room"
)

// Server manages the RPC listener.
type Server struct {
	listener net.Listener
	address  string
}

// NewServer creates a new RPC server.
func NewServer(addr string) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Server{
		listener: listener,
		address:  addr,
	}, nil
}

// Start begins listening for RPC requests.
func (s *Server) Start() {
	logger.Log.Infof("RPC server listening on %s", s.address)
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if _, ok := err.(*net.OpError); ok {
				logger.Log.Info("RPC server listener closed.")
				return
			}
			logger.Log.Errorf("RPC server accept error: %v", err)
			continue
		}
		go rpc.ServeConn(conn)
	}
}

// Stop closes the RPC listener.
func (s *Server) Stop() {
	if s.listener != nil {
		logger.Log.Info("Stopping RPC server.")
		s.listener.Close()
	}
}

// Admin exposes read-only operational queries over net/rpc.
type Admin struct {
	roomManager *room.Manager
}

func NewAdmin(roomManager *room.Manager) *Admin {
	return &Admin{roomManager: roomManager}
}

type RoomStatsArgs struct{}

type RoomStatsReply struct {
	Rooms []room.Stats
}

// RoomStats lists every live room with its player/subscriber counts and
// whether a game is in progress.
func (a *Admin) RoomStats(args *RoomStatsArgs, reply *RoomStatsReply) error {
	reply.Rooms = a.roomManager.StatsAll()
	return nil
}
