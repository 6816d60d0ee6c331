package gateway

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/voxroom/voxroom/internal/jsonrpc"
	"github.com/voxroom/voxroom/internal/log"
)

type mockConn struct {
	cctx       *connContext
	notifyFunc func(ctx context.Context, method string, params interface{}) error
}

func (m *mockConn) Open(_ context.Context) error { return nil }
func (m *mockConn) Close() error                 { return nil }

func (m *mockConn) Call(_ context.Context, _ string, _, _ interface{}) error {
	return nil
}

func (m *mockConn) Notify(ctx context.Context, method string, params interface{}) error {
	if m.notifyFunc != nil {
		return m.notifyFunc(ctx, method, params)
	}
	return nil
}

func (m *mockConn) Context() jsonrpc.MethodContext[connContext] {
	return &mockMethodCtx{cctx: m.cctx}
}

func newMockConn(connID string) *mockConn {
	return &mockConn{cctx: &connContext{connID: connID, reqCtx: context.Background()}}
}

type ConnManagerSuite struct {
	suite.Suite
	manager *ConnManager
}

func TestConnManagerSuite(t *testing.T) {
	suite.Run(t, new(ConnManagerSuite))
}

func (s *ConnManagerSuite) SetupTest() {
	s.manager = NewConnManager(log.NewNop())
}

func (s *ConnManagerSuite) TestAddConn() {
	conn := newMockConn("conn1")
	s.manager.AddConn("conn1", "user1", conn)

	s.Equal(conn, s.manager.conns["conn1"])
	connID, ok := s.manager.ConnForUser("user1")
	s.True(ok)
	s.Equal("conn1", connID)
}

func (s *ConnManagerSuite) TestJoinRoom() {
	conn := newMockConn("conn1")
	s.manager.AddConn("conn1", "user1", conn)
	s.manager.JoinRoom("conn1", "room1")

	s.Equal("room1", s.manager.conn2room["conn1"])
	s.Equal(conn, s.manager.room2conns["room1"]["conn1"])
}

func (s *ConnManagerSuite) TestJoinRoom_SwitchesRooms() {
	conn := newMockConn("conn1")
	s.manager.AddConn("conn1", "user1", conn)
	s.manager.JoinRoom("conn1", "room1")
	s.manager.JoinRoom("conn1", "room2")

	s.Equal("room2", s.manager.conn2room["conn1"])
	s.Nil(s.manager.room2conns["room1"])
	s.Equal(conn, s.manager.room2conns["room2"]["conn1"])
}

func (s *ConnManagerSuite) TestJoinRoom_UnknownConn() {
	s.manager.JoinRoom("ghost", "room1")
	s.Empty(s.manager.room2conns)
}

func (s *ConnManagerSuite) TestRemoveConn() {
	conn := newMockConn("conn1")
	s.manager.AddConn("conn1", "user1", conn)
	s.manager.JoinRoom("conn1", "room1")
	s.manager.RemoveConn("conn1", "user1")

	_, ok := s.manager.conns["conn1"]
	s.False(ok)
	_, ok = s.manager.conn2room["conn1"]
	s.False(ok)
	_, ok = s.manager.ConnForUser("user1")
	s.False(ok)
}

func (s *ConnManagerSuite) TestRemoveConn_KeepsNewerMapping() {
	old := newMockConn("conn1")
	fresh := newMockConn("conn2")
	s.manager.AddConn("conn1", "user1", old)
	s.manager.AddConn("conn2", "user1", fresh)

	// removing the stale connection must not unmap the reconnected user
	s.manager.RemoveConn("conn1", "user1")

	connID, ok := s.manager.ConnForUser("user1")
	s.True(ok)
	s.Equal("conn2", connID)
}

func (s *ConnManagerSuite) TestRemoveRoom() {
	c1 := newMockConn("conn1")
	c2 := newMockConn("conn2")
	s.manager.AddConn("conn1", "user1", c1)
	s.manager.AddConn("conn2", "user2", c2)
	s.manager.JoinRoom("conn1", "room1")
	s.manager.JoinRoom("conn2", "room1")

	s.manager.RemoveRoom("room1")

	s.Nil(s.manager.room2conns["room1"])
	s.Empty(s.manager.conn2room)
	// connections themselves stay registered
	s.Len(s.manager.conns, 2)
}

func (s *ConnManagerSuite) TestNotifyRoomExcept() {
	got := make(map[string][]string)
	mk := func(connID string) *mockConn {
		conn := newMockConn(connID)
		conn.notifyFunc = func(_ context.Context, method string, _ interface{}) error {
			got[connID] = append(got[connID], method)
			return nil
		}
		return conn
	}

	s.manager.AddConn("conn1", "user1", mk("conn1"))
	s.manager.AddConn("conn2", "user2", mk("conn2"))
	s.manager.AddConn("conn3", "user3", mk("conn3"))
	s.manager.JoinRoom("conn1", "room1")
	s.manager.JoinRoom("conn2", "room1")
	s.manager.JoinRoom("conn3", "room2")

	s.manager.NotifyRoomExcept("room1", "conn1", "newProducer", nil)

	s.Empty(got["conn1"])
	s.Equal([]string{"newProducer"}, got["conn2"])
	s.Empty(got["conn3"])
}

func (s *ConnManagerSuite) TestNotifyRoom_SurvivesFailingConn() {
	var delivered int
	ok := newMockConn("conn1")
	ok.notifyFunc = func(_ context.Context, _ string, _ interface{}) error {
		delivered++
		return nil
	}
	bad := newMockConn("conn2")
	bad.notifyFunc = func(_ context.Context, _ string, _ interface{}) error {
		return errors.New("gone")
	}

	s.manager.AddConn("conn1", "user1", ok)
	s.manager.AddConn("conn2", "user2", bad)
	s.manager.JoinRoom("conn1", "room1")
	s.manager.JoinRoom("conn2", "room1")

	s.manager.NotifyRoom("room1", "updateParticipants", nil)
	s.Equal(1, delivered)
}

func (s *ConnManagerSuite) TestNotifyConn() {
	var methods []string
	conn := newMockConn("conn1")
	conn.notifyFunc = func(_ context.Context, method string, _ interface{}) error {
		methods = append(methods, method)
		return nil
	}
	s.manager.AddConn("conn1", "user1", conn)

	s.manager.NotifyConn("conn1", "roleUpdated", nil)
	s.manager.NotifyConn("ghost", "roleUpdated", nil)

	s.Equal([]string{"roleUpdated"}, methods)
}
