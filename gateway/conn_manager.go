package gateway

import (
	"sync"

	"github.com/voxroom/voxroom/internal/jsonrpc"
	"github.com/voxroom/voxroom/internal/log"
)

// ConnManager tracks live signaling connections and their room membership,
// and fans out notifications. It satisfies the Broadcaster surfaces of the
// media registry and the turn coordinator.
type ConnManager struct {
	mu         sync.RWMutex
	conns      map[string]jsonrpc.Conn[connContext] // connId -> conn
	room2conns map[string]map[string]jsonrpc.Conn[connContext]
	conn2room  map[string]string
	user2conn  map[string]string // userId -> connId
	logger     *log.Logger
}

func NewConnManager(logger *log.Logger) *ConnManager {
	return &ConnManager{
		conns:      make(map[string]jsonrpc.Conn[connContext]),
		room2conns: make(map[string]map[string]jsonrpc.Conn[connContext]),
		conn2room:  make(map[string]string),
		user2conn:  make(map[string]string),
		logger:     logger,
	}
}

func (m *ConnManager) AddConn(connID, userID string, conn jsonrpc.Conn[connContext]) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.conns[connID] = conn
	m.user2conn[userID] = connID

	m.logger.Debug("Connection registered",
		log.String("connId", connID),
		log.String("userId", userID),
	)
}

func (m *ConnManager) JoinRoom(connID, roomID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	conn, ok := m.conns[connID]
	if !ok {
		return
	}

	m.leaveRoomLocked(connID)
	m.conn2room[connID] = roomID

	room, ok := m.room2conns[roomID]
	if !ok {
		room = make(map[string]jsonrpc.Conn[connContext])
		m.room2conns[roomID] = room
	}
	room[connID] = conn

	m.logger.Debug("Connection joined room",
		log.String("connId", connID),
		log.String("roomId", roomID),
	)
}

func (m *ConnManager) LeaveRoom(connID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.leaveRoomLocked(connID)
}

func (m *ConnManager) leaveRoomLocked(connID string) {
	roomID, ok := m.conn2room[connID]
	if !ok {
		return
	}
	if room, ok := m.room2conns[roomID]; ok {
		delete(room, connID)
		if len(room) == 0 {
			delete(m.room2conns, roomID)
		}
	}
	delete(m.conn2room, connID)
}

func (m *ConnManager) RemoveConn(connID, userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.leaveRoomLocked(connID)
	delete(m.conns, connID)
	if m.user2conn[userID] == connID {
		delete(m.user2conn, userID)
	}

	m.logger.Debug("Connection removed", log.String("connId", connID))
}

// RemoveRoom drops the room's connection index without closing connections.
// Used after roomTerminated has been broadcast.
func (m *ConnManager) RemoveRoom(roomID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	room, ok := m.room2conns[roomID]
	if !ok {
		return
	}
	for connID := range room {
		delete(m.conn2room, connID)
	}
	delete(m.room2conns, roomID)

	m.logger.Debug("Room removed", log.String("roomId", roomID))
}

func (m *ConnManager) roomConns(roomID, exceptConnID string) []jsonrpc.Conn[connContext] {
	m.mu.RLock()
	defer m.mu.RUnlock()

	room := m.room2conns[roomID]
	if room == nil {
		return nil
	}
	conns := make([]jsonrpc.Conn[connContext], 0, len(room))
	for connID, conn := range room {
		if connID == exceptConnID {
			continue
		}
		conns = append(conns, conn)
	}
	return conns
}

// NotifyRoom sends a notification to every connection in the room.
func (m *ConnManager) NotifyRoom(roomID, method string, data interface{}) {
	m.notify(roomID, "", method, data)
}

// NotifyRoomExcept sends a notification to every connection in the room
// except exceptConnID.
func (m *ConnManager) NotifyRoomExcept(roomID, exceptConnID, method string, data interface{}) {
	m.notify(roomID, exceptConnID, method, data)
}

func (m *ConnManager) notify(roomID, exceptConnID, method string, data interface{}) {
	for _, conn := range m.roomConns(roomID, exceptConnID) {
		ctx := conn.Context().Get().reqCtx
		if err := conn.Notify(ctx, method, data); err != nil {
			m.logger.Error("Failed to notify client",
				log.String("roomId", roomID),
				log.String("method", method),
				log.Error(err),
			)
		}
	}
}

// NotifyConn sends a notification to a single connection.
func (m *ConnManager) NotifyConn(connID, method string, data interface{}) {
	m.mu.RLock()
	conn, ok := m.conns[connID]
	m.mu.RUnlock()
	if !ok {
		return
	}

	ctx := conn.Context().Get().reqCtx
	if err := conn.Notify(ctx, method, data); err != nil {
		m.logger.Error("Failed to notify client",
			log.String("connId", connID),
			log.String("method", method),
			log.Error(err),
		)
	}
}

// ConnForUser resolves the connection id serving a user, if connected.
func (m *ConnManager) ConnForUser(userID string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	connID, ok := m.user2conn[userID]
	return connID, ok
}
