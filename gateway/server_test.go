package gateway

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
	"golang.org/x/time/rate"

	"github.com/voxroom/voxroom/directory"
	"github.com/voxroom/voxroom/internal/engine"
	enginemocks "github.com/voxroom/voxroom/internal/engine/mocks"
	"github.com/voxroom/voxroom/internal/jsonrpc"
	"github.com/voxroom/voxroom/internal/log"
	"github.com/voxroom/voxroom/internal/openai"
	"github.com/voxroom/voxroom/internal/scheduler"
	"github.com/voxroom/voxroom/media"
	"github.com/voxroom/voxroom/room"
	"github.com/voxroom/voxroom/turn"
)

type mockMethodCtx struct {
	cctx *connContext
	peer jsonrpc.Conn[connContext]
}

func (m *mockMethodCtx) Get() *connContext               { return m.cctx }
func (m *mockMethodCtx) Set(v *connContext)              { m.cctx = v }
func (m *mockMethodCtx) Peer() jsonrpc.Conn[connContext] { return m.peer }

type sentNote struct {
	method string
	params interface{}
}

type mockPeer struct {
	mu    sync.Mutex
	mctx  jsonrpc.MethodContext[connContext]
	notes []sentNote
}

func (m *mockPeer) Open(context.Context) error { return nil }
func (m *mockPeer) Close() error               { return nil }

func (m *mockPeer) Call(context.Context, string, interface{}, interface{}) error {
	return nil
}

func (m *mockPeer) Notify(_ context.Context, method string, params interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notes = append(m.notes, sentNote{method: method, params: params})
	return nil
}

func (m *mockPeer) Context() jsonrpc.MethodContext[connContext] { return m.mctx }

func (m *mockPeer) received(method string) []sentNote {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []sentNote
	for _, n := range m.notes {
		if n.method == method {
			out = append(out, n)
		}
	}
	return out
}

func (m *mockPeer) reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notes = nil
}

type fakeTranscriber struct {
	text string
	err  error
}

func (f *fakeTranscriber) Transcribe(context.Context, []byte) (string, error) {
	return f.text, f.err
}

type noopChat struct{}

func (noopChat) Complete(context.Context, []openai.Message, float64) (string, error) {
	return "ok", nil
}

type noopSpeech struct{}

func (noopSpeech) Synthesize(context.Context, string, string) ([]byte, error) {
	return []byte("audio"), nil
}

type ServerTestSuite struct {
	suite.Suite
	ctrl        *gomock.Controller
	mockEng     *enginemocks.MockEngine
	dir         *directory.Directory
	rooms       *room.Manager
	registry    *media.Registry
	sched       *scheduler.KeyedScheduler
	coord       *turn.Coordinator
	transcriber *fakeTranscriber
	connMgr     *ConnManager
	cleaner     *Cleaner
	server      *Server
}

func TestServerSuite(t *testing.T) {
	suite.Run(t, new(ServerTestSuite))
}

func (s *ServerTestSuite) SetupTest() {
	logger := log.NewNop()
	s.ctrl = gomock.NewController(s.T())
	s.mockEng = enginemocks.NewMockEngine(s.ctrl)
	s.dir = directory.New(logger)
	s.rooms = room.NewManager(s.dir, logger)
	s.connMgr = NewConnManager(logger)
	s.registry = media.NewRegistry(s.mockEng, s.connMgr, logger)
	s.sched = scheduler.NewKeyedScheduler(logger)
	s.transcriber = &fakeTranscriber{text: "hello ai"}
	s.coord = turn.NewCoordinator(s.rooms, s.dir, s.sched, noopChat{}, noopSpeech{}, s.connMgr, logger)
	s.coord.Start()
	s.cleaner = NewCleaner(s.dir, s.rooms, s.registry, s.coord, s.connMgr, logger)
	s.server = NewServer(
		jsonrpc.NewHandler[connContext](logger),
		s.dir, s.rooms, s.registry, s.coord, s.transcriber, s.connMgr, logger,
	)
	s.Require().NoError(s.server.Open(context.Background()))
}

func (s *ServerTestSuite) TearDownTest() {
	s.coord.Stop()
	s.ctrl.Finish()
}

// connect simulates an established anonymous connection.
func (s *ServerTestSuite) connect(connID, userID, name string) *mockMethodCtx {
	peer := &mockPeer{}
	mctx := &mockMethodCtx{
		cctx: &connContext{
			connID:         connID,
			userID:         userID,
			reqCtx:         context.Background(),
			whisperLimiter: rate.NewLimiter(rate.Inf, 1),
		},
		peer: peer,
	}
	peer.mctx = mctx

	s.dir.Create(userID, name)
	s.connMgr.AddConn(connID, userID, peer)
	return mctx
}

func (s *ServerTestSuite) peerOf(mctx *mockMethodCtx) *mockPeer {
	return mctx.peer.(*mockPeer)
}

func params(s string) *json.RawMessage {
	raw := json.RawMessage(s)
	return &raw
}

func (s *ServerTestSuite) createAndJoin(mctx *mockMethodCtx) string {
	res, err := s.server.handleCreateRoom(mctx, nil)
	s.Require().NoError(err)
	roomID := res.(map[string]any)["roomId"].(string)

	_, err = s.server.handleJoinRoom(mctx, params(`{"roomId":"`+roomID+`"}`))
	s.Require().NoError(err)
	return roomID
}

func (s *ServerTestSuite) TestGetUserID() {
	mctx := s.connect("c1", "u1", "Alice")
	res, err := s.server.handleGetUserID(mctx, nil)
	s.Require().NoError(err)
	s.Equal(map[string]any{"userId": "u1"}, res)
}

func (s *ServerTestSuite) TestRoomLifecycle() {
	a := s.connect("c1", "u1", "Alice")
	roomID := s.createAndJoin(a)

	res, err := s.server.handleCheckRoom(a, params(`{"roomId":"`+roomID+`"}`))
	s.Require().NoError(err)
	s.Equal(map[string]any{"exists": true}, res)

	res, err = s.server.handleCheckRoom(a, params(`{"roomId":"000000"}`))
	s.Require().NoError(err)
	s.Equal(map[string]any{"exists": false}, res)

	// second joiner sees a participant broadcast including both members
	b := s.connect("c2", "u2", "Bob")
	s.peerOf(a).reset()
	_, err = s.server.handleJoinRoom(b, params(`{"roomId":"`+roomID+`","userName":"Bobby"}`))
	s.Require().NoError(err)

	notes := s.peerOf(a).received("updateParticipants")
	s.Require().Len(notes, 1)
	views := notes[0].params.([]room.ParticipantView)
	s.Require().Len(views, 2)
	s.Equal("Bobby", views[1].UserName)
	s.Equal(room.RoleAdmin, views[0].Role)
	s.Equal(room.RoleParticipant, views[1].Role)
}

func (s *ServerTestSuite) TestStatusUpdatesBroadcast() {
	a := s.connect("c1", "u1", "Alice")
	s.createAndJoin(a)

	s.peerOf(a).reset()
	_, err := s.server.handleUpdateMicStatus(a, params(`{"micStatus":false}`))
	s.Require().NoError(err)
	_, err = s.server.handleUpdateTalkingStatus(a, params(`{"isTalking":true}`))
	s.Require().NoError(err)
	_, err = s.server.handleUpdateName(a, params(`{"userName":"Alicia"}`))
	s.Require().NoError(err)

	notes := s.peerOf(a).received("updateParticipants")
	s.Require().Len(notes, 3)
	views := notes[2].params.([]room.ParticipantView)
	s.False(views[0].MicOn)
	s.True(views[0].Talking)
	s.Equal("Alicia", views[0].UserName)
}

func (s *ServerTestSuite) TestUpdateUserRole() {
	a := s.connect("c1", "u1", "Alice")
	b := s.connect("c2", "u2", "Bob")
	roomID := s.createAndJoin(a)
	_, err := s.server.handleJoinRoom(b, params(`{"roomId":"`+roomID+`"}`))
	s.Require().NoError(err)

	// non-admin is rejected with the domain code
	_, err = s.server.handleUpdateUserRole(b,
		params(`{"roomId":"`+roomID+`","targetUserId":"u1","newRole":"participant"}`))
	s.Require().Error(err)
	jerr, ok := err.(*jsonrpc.Error)
	s.Require().True(ok)
	s.Equal(string(room.ErrUnauthorized), jerr.Message)

	// admin hands over; target gets a roleUpdated notification
	s.peerOf(b).reset()
	_, err = s.server.handleUpdateUserRole(a,
		params(`{"roomId":"`+roomID+`","targetUserId":"u2","newRole":"admin"}`))
	s.Require().NoError(err)

	role, err := s.rooms.GetRole(roomID, "u2")
	s.Require().NoError(err)
	s.Equal(room.RoleAdmin, role)
	role, err = s.rooms.GetRole(roomID, "u1")
	s.Require().NoError(err)
	s.Equal(room.RoleParticipant, role)

	s.Len(s.peerOf(b).received("roleUpdated"), 1)
}

func (s *ServerTestSuite) TestTerminateRoom() {
	a := s.connect("c1", "u1", "Alice")
	b := s.connect("c2", "u2", "Bob")
	roomID := s.createAndJoin(a)
	_, err := s.server.handleJoinRoom(b, params(`{"roomId":"`+roomID+`"}`))
	s.Require().NoError(err)

	// only the admin may terminate
	_, err = s.server.handleTerminateRoom(b, params(`{"roomId":"`+roomID+`"}`))
	s.Require().Error(err)

	_, err = s.server.handleTerminateRoom(a, params(`{"roomId":"`+roomID+`"}`))
	s.Require().NoError(err)

	s.False(s.rooms.Exists(roomID))
	s.Len(s.peerOf(b).received("roomTerminated"), 1)

	u, _ := s.dir.Get("u2")
	s.Empty(u.RoomID)
}

func (s *ServerTestSuite) TestMediaFlow() {
	a := s.connect("c1", "u1", "Alice")
	b := s.connect("c2", "u2", "Bob")
	roomID := s.createAndJoin(a)
	_, err := s.server.handleJoinRoom(b, params(`{"roomId":"`+roomID+`"}`))
	s.Require().NoError(err)

	s.mockEng.EXPECT().Ready().Return(true).AnyTimes()
	s.mockEng.EXPECT().CreateTransport(gomock.Any()).
		Return(&engine.TransportInfo{ID: "t1"}, nil)
	res, err := s.server.handleCreateProducerTransport(a, params(`{"roomId":"`+roomID+`"}`))
	s.Require().NoError(err)
	s.Equal("t1", res.(*engine.TransportInfo).ID)

	s.mockEng.EXPECT().ConnectTransport(gomock.Any(), "t1", gomock.Any()).Return(nil)
	_, err = s.server.handleConnectTransport(a,
		params(`{"transportId":"t1","dtlsParameters":{"role":"client"}}`))
	s.Require().NoError(err)

	// producing announces to the other member only
	s.mockEng.EXPECT().Produce(gomock.Any(), "t1", engine.KindAudio, gomock.Any()).
		Return("p1", nil)
	s.peerOf(a).reset()
	s.peerOf(b).reset()
	res, err = s.server.handleProduce(a,
		params(`{"transportId":"t1","kind":"audio","rtpParameters":{"codecs":[]}}`))
	s.Require().NoError(err)
	s.Equal(map[string]any{"id": "p1"}, res)

	s.Empty(s.peerOf(a).received("newProducer"))
	s.Require().Len(s.peerOf(b).received("newProducer"), 1)
	ann := s.peerOf(b).received("newProducer")[0].params.(media.ProducerAnnouncement)
	s.Equal("p1", ann.ProducerID)
	s.Equal("u1", ann.UserID)

	// a late joiner gets the replay
	c := s.connect("c3", "u3", "Cara")
	_, err = s.server.handleJoinRoom(c, params(`{"roomId":"`+roomID+`"}`))
	s.Require().NoError(err)
	s.Require().Len(s.peerOf(c).received("existingProducer"), 1)

	// consume through the consumer transport
	s.mockEng.EXPECT().CreateTransport(gomock.Any()).
		Return(&engine.TransportInfo{ID: "t2"}, nil)
	_, err = s.server.handleCreateConsumerTransport(b, params(`{"roomId":"`+roomID+`"}`))
	s.Require().NoError(err)

	s.mockEng.EXPECT().CanConsume(gomock.Any(), "p1", gomock.Any()).Return(true, nil)
	s.mockEng.EXPECT().Consume(gomock.Any(), "t2", "p1", gomock.Any()).
		Return(&engine.ConsumerInfo{ID: "cons1", ProducerID: "p1", Kind: engine.KindAudio}, nil)
	res, err = s.server.handleConsume(b,
		params(`{"transportId":"t2","producerId":"p1","rtpCapabilities":{"codecs":[]}}`))
	s.Require().NoError(err)
	s.Equal("cons1", res.(*engine.ConsumerInfo).ID)
}

func (s *ServerTestSuite) TestAILifecycle() {
	a := s.connect("c1", "u1", "Alice")
	roomID := s.createAndJoin(a)

	res, err := s.server.handleCreateAI(a,
		params(`{"roomId":"`+roomID+`","config":{"voice":"alloy","temperature":0.7}}`))
	s.Require().NoError(err)
	body := res.(map[string]any)
	s.Equal(true, body["success"])
	aiID := body["aiId"].(string)

	// conflict on second create
	_, err = s.server.handleCreateAI(a, params(`{"roomId":"`+roomID+`","config":{}}`))
	s.Require().Error(err)
	jerr := err.(*jsonrpc.Error)
	s.Equal(string(turn.ErrSessionExists), jerr.Message)

	// mute inverts the passed status
	res, err = s.server.handleMuteAI(a,
		params(`{"aiId":"`+aiID+`","roomId":"`+roomID+`","micStatus":true}`))
	s.Require().NoError(err)
	s.Equal(false, res.(map[string]any)["newMicStatus"])
	ai, _ := s.dir.Get(aiID)
	s.False(ai.MicOn)

	// kick with a mismatched id leaves the session untouched
	_, err = s.server.handleKickAI(a, params(`{"aiId":"ai-bogus","roomId":"`+roomID+`"}`))
	s.Require().Error(err)
	_, ok := s.coord.AISession(roomID)
	s.True(ok)

	_, err = s.server.handleKickAI(a, params(`{"aiId":"`+aiID+`","roomId":"`+roomID+`"}`))
	s.Require().NoError(err)
	_, ok = s.coord.AISession(roomID)
	s.False(ok)
	_, ok = s.dir.Get(aiID)
	s.False(ok)
}

func (s *ServerTestSuite) TestWhisperAudioToText() {
	a := s.connect("c1", "u1", "Alice")
	outsider := s.connect("c2", "u2", "Eve")
	roomID := s.createAndJoin(a)

	_, err := s.server.handleCreateAI(a, params(`{"roomId":"`+roomID+`","config":{}}`))
	s.Require().NoError(err)

	// non-members may not feed the assistant
	_, err = s.server.handleWhisperAudioToText(outsider,
		params(`{"roomId":"`+roomID+`","audioBuffer":"d2F2"}`))
	s.Require().Error(err)
	s.Equal(string(turn.ErrForbidden), err.(*jsonrpc.Error).Message)

	res, err := s.server.handleWhisperAudioToText(a,
		params(`{"roomId":"`+roomID+`","audioBuffer":"d2F2"}`))
	s.Require().NoError(err)
	s.Equal(map[string]any{"transcription": "[Alice]: hello ai"}, res)
}

func (s *ServerTestSuite) TestWhisperRateLimited() {
	a := s.connect("c1", "u1", "Alice")
	roomID := s.createAndJoin(a)
	_, err := s.server.handleCreateAI(a, params(`{"roomId":"`+roomID+`","config":{}}`))
	s.Require().NoError(err)

	// drained limiter rejects before any external call
	a.cctx.whisperLimiter = rate.NewLimiter(0, 0)
	_, err = s.server.handleWhisperAudioToText(a,
		params(`{"roomId":"`+roomID+`","audioBuffer":"d2F2"}`))
	s.Require().Error(err)
}

func (s *ServerTestSuite) TestDisconnectCleanup() {
	a := s.connect("c1", "u1", "Alice")
	b := s.connect("c2", "u2", "Bob")
	roomID := s.createAndJoin(a)
	_, err := s.server.handleJoinRoom(b, params(`{"roomId":"`+roomID+`"}`))
	s.Require().NoError(err)

	s.mockEng.EXPECT().Ready().Return(true).AnyTimes()
	s.mockEng.EXPECT().CreateTransport(gomock.Any()).
		Return(&engine.TransportInfo{ID: "t1"}, nil)
	_, err = s.server.handleCreateProducerTransport(a, params(`{"roomId":"`+roomID+`"}`))
	s.Require().NoError(err)
	s.mockEng.EXPECT().Produce(gomock.Any(), "t1", engine.KindAudio, gomock.Any()).
		Return("p1", nil)
	_, err = s.server.handleProduce(a,
		params(`{"transportId":"t1","kind":"audio","rtpParameters":{}}`))
	s.Require().NoError(err)

	s.mockEng.EXPECT().CloseProducer(gomock.Any(), "p1").Return(nil)
	s.mockEng.EXPECT().CloseTransport(gomock.Any(), "t1").Return(nil)

	s.peerOf(b).reset()
	s.cleaner.CleanupConnection(context.Background(), "c1", "u1")

	// u1 fully gone, admin handed to Bob, Bob notified
	_, ok := s.dir.Get("u1")
	s.False(ok)
	role, err := s.rooms.GetRole(roomID, "u2")
	s.Require().NoError(err)
	s.Equal(room.RoleAdmin, role)
	s.Require().NotEmpty(s.peerOf(b).received("updateParticipants"))
}

func (s *ServerTestSuite) TestDisconnectDropsOrphanedAI() {
	a := s.connect("c1", "u1", "Alice")
	roomID := s.createAndJoin(a)
	_, err := s.server.handleCreateAI(a, params(`{"roomId":"`+roomID+`","config":{}}`))
	s.Require().NoError(err)
	aiID, ok := s.coord.AISession(roomID)
	s.Require().True(ok)

	s.cleaner.CleanupConnection(context.Background(), "c1", "u1")

	_, ok = s.coord.AISession(roomID)
	s.False(ok)
	_, ok = s.dir.Get(aiID)
	s.False(ok)
}
