package media

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"
	gomock "go.uber.org/mock/gomock"

	"github.com/voxroom/voxroom/internal/engine"
	enginemocks "github.com/voxroom/voxroom/internal/engine/mocks"
	"github.com/voxroom/voxroom/internal/errors"
	"github.com/voxroom/voxroom/internal/log"
)

type notification struct {
	roomID string
	except string
	connID string
	method string
	data   interface{}
}

type fakeBroadcaster struct {
	mu    sync.Mutex
	notes []notification
}

func (f *fakeBroadcaster) NotifyRoomExcept(roomID, exceptConnID, method string, data interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notes = append(f.notes, notification{
		roomID: roomID, except: exceptConnID, method: method, data: data,
	})
}

func (f *fakeBroadcaster) NotifyConn(connID, method string, data interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notes = append(f.notes, notification{connID: connID, method: method, data: data})
}

type RegistryTestSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	mockEng *enginemocks.MockEngine
	bcast   *fakeBroadcaster
	reg     *Registry
	ctx     context.Context
}

func TestRegistrySuite(t *testing.T) {
	suite.Run(t, new(RegistryTestSuite))
}

func (s *RegistryTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.mockEng = enginemocks.NewMockEngine(s.ctrl)
	s.bcast = &fakeBroadcaster{}
	s.reg = NewRegistry(s.mockEng, s.bcast, log.NewNop())
	s.ctx = context.Background()
}

func (s *RegistryTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *RegistryTestSuite) createTransport(id, roomID, connID string) {
	s.mockEng.EXPECT().Ready().Return(true)
	s.mockEng.EXPECT().CreateTransport(gomock.Any()).
		Return(&engine.TransportInfo{ID: id}, nil)
	info, err := s.reg.CreateTransport(s.ctx, TransportProducer, roomID, connID)
	s.Require().NoError(err)
	s.Require().Equal(id, info.ID)
}

func (s *RegistryTestSuite) TestRouterCapabilitiesNotReady() {
	s.mockEng.EXPECT().Ready().Return(false)
	_, err := s.reg.RouterCapabilities(s.ctx)
	s.True(errors.Is(err, ErrEngineUnavailable))
}

func (s *RegistryTestSuite) TestCreateTransportNotReady() {
	s.mockEng.EXPECT().Ready().Return(false)
	_, err := s.reg.CreateTransport(s.ctx, TransportProducer, "100000", "conn-1")
	s.True(errors.Is(err, ErrEngineUnavailable))
}

func (s *RegistryTestSuite) TestConnectUnknownTransport() {
	err := s.reg.ConnectTransport(s.ctx, "nope", json.RawMessage(`{}`))
	s.True(errors.Is(err, ErrTransportNotFound))
}

func (s *RegistryTestSuite) TestConnectTransport() {
	s.createTransport("t1", "100000", "conn-1")

	dtls := json.RawMessage(`{"role":"client"}`)
	s.mockEng.EXPECT().ConnectTransport(gomock.Any(), "t1", dtls).Return(nil)
	s.NoError(s.reg.ConnectTransport(s.ctx, "t1", dtls))
}

func (s *RegistryTestSuite) TestProduceAnnouncesToRoom() {
	s.createTransport("t1", "100000", "conn-1")

	s.mockEng.EXPECT().Produce(gomock.Any(), "t1", engine.KindAudio, gomock.Any()).
		Return("p1", nil)

	id, err := s.reg.Produce(s.ctx, "t1", "user-a", engine.KindAudio, json.RawMessage(`{}`))
	s.Require().NoError(err)
	s.Equal("p1", id)

	s.Require().Len(s.bcast.notes, 1)
	n := s.bcast.notes[0]
	s.Equal("newProducer", n.method)
	s.Equal("100000", n.roomID)
	s.Equal("conn-1", n.except)
	s.Equal(ProducerAnnouncement{ProducerID: "p1", UserID: "user-a"}, n.data)
}

func (s *RegistryTestSuite) TestProduceEvictsPriorProducer() {
	s.createTransport("t1", "100000", "conn-1")

	s.mockEng.EXPECT().Produce(gomock.Any(), "t1", engine.KindAudio, gomock.Any()).
		Return("p1", nil)
	_, err := s.reg.Produce(s.ctx, "t1", "user-a", engine.KindAudio, nil)
	s.Require().NoError(err)

	// second produce by the same connection closes the first producer
	s.mockEng.EXPECT().CloseProducer(gomock.Any(), "p1").Return(nil)
	s.mockEng.EXPECT().Produce(gomock.Any(), "t1", engine.KindAudio, gomock.Any()).
		Return("p2", nil)
	_, err = s.reg.Produce(s.ctx, "t1", "user-a", engine.KindAudio, nil)
	s.Require().NoError(err)

	// only p2 remains for replay
	s.bcast.notes = nil
	s.reg.SendExistingProducers("conn-2", "100000")
	s.Require().Len(s.bcast.notes, 1)
	s.Equal(ProducerAnnouncement{ProducerID: "p2", UserID: "user-a"}, s.bcast.notes[0].data)
}

func (s *RegistryTestSuite) TestProduceUnknownTransport() {
	_, err := s.reg.Produce(s.ctx, "nope", "user-a", engine.KindAudio, nil)
	s.True(errors.Is(err, ErrTransportNotFound))
}

func (s *RegistryTestSuite) TestConsume() {
	s.createTransport("t1", "100000", "conn-1")
	s.createTransport("t2", "100000", "conn-2")

	s.mockEng.EXPECT().Produce(gomock.Any(), "t1", engine.KindAudio, gomock.Any()).
		Return("p1", nil)
	_, err := s.reg.Produce(s.ctx, "t1", "user-a", engine.KindAudio, nil)
	s.Require().NoError(err)

	caps := json.RawMessage(`{"codecs":[]}`)

	s.Run("producer not found", func() {
		_, err := s.reg.Consume(s.ctx, "t2", "ghost", caps)
		s.True(errors.Is(err, ErrProducerNotFound))
	})

	s.Run("transport not found", func() {
		_, err := s.reg.Consume(s.ctx, "ghost", "p1", caps)
		s.True(errors.Is(err, ErrTransportNotFound))
	})

	s.Run("incompatible capabilities", func() {
		s.mockEng.EXPECT().CanConsume(gomock.Any(), "p1", caps).Return(false, nil)
		_, err := s.reg.Consume(s.ctx, "t2", "p1", caps)
		s.True(errors.Is(err, ErrIncompatibleCapabilities))
	})

	s.Run("success", func() {
		s.mockEng.EXPECT().CanConsume(gomock.Any(), "p1", caps).Return(true, nil)
		s.mockEng.EXPECT().Consume(gomock.Any(), "t2", "p1", caps).
			Return(&engine.ConsumerInfo{ID: "c1", ProducerID: "p1", Kind: "audio"}, nil)

		info, err := s.reg.Consume(s.ctx, "t2", "p1", caps)
		s.Require().NoError(err)
		s.Equal("c1", info.ID)
		s.Equal("p1", info.ProducerID)
	})
}

func (s *RegistryTestSuite) TestSendExistingProducersSkipsOwn() {
	s.createTransport("t1", "100000", "conn-1")
	s.createTransport("t2", "100000", "conn-2")

	s.mockEng.EXPECT().Produce(gomock.Any(), "t1", engine.KindAudio, gomock.Any()).
		Return("p1", nil)
	_, err := s.reg.Produce(s.ctx, "t1", "user-a", engine.KindAudio, nil)
	s.Require().NoError(err)

	s.mockEng.EXPECT().Produce(gomock.Any(), "t2", engine.KindAudio, gomock.Any()).
		Return("p2", nil)
	_, err = s.reg.Produce(s.ctx, "t2", "user-b", engine.KindAudio, nil)
	s.Require().NoError(err)

	s.bcast.notes = nil
	s.reg.SendExistingProducers("conn-3", "100000")

	// replay follows creation order
	s.Require().Len(s.bcast.notes, 2)
	s.Equal("existingProducer", s.bcast.notes[0].method)
	s.Equal("conn-3", s.bcast.notes[0].connID)
	s.Equal(ProducerAnnouncement{ProducerID: "p1", UserID: "user-a"}, s.bcast.notes[0].data)
	s.Equal(ProducerAnnouncement{ProducerID: "p2", UserID: "user-b"}, s.bcast.notes[1].data)

	// the owner's own producer is not replayed
	s.bcast.notes = nil
	s.reg.SendExistingProducers("conn-1", "100000")
	s.Require().Len(s.bcast.notes, 1)
	s.Equal(ProducerAnnouncement{ProducerID: "p2", UserID: "user-b"}, s.bcast.notes[0].data)
}

func (s *RegistryTestSuite) TestReleaseForConnection() {
	s.createTransport("t1", "100000", "conn-1")
	s.createTransport("t2", "100000", "conn-2")

	s.mockEng.EXPECT().Produce(gomock.Any(), "t1", engine.KindAudio, gomock.Any()).
		Return("p1", nil)
	_, err := s.reg.Produce(s.ctx, "t1", "user-a", engine.KindAudio, nil)
	s.Require().NoError(err)

	s.mockEng.EXPECT().Produce(gomock.Any(), "t2", engine.KindAudio, gomock.Any()).
		Return("p2", nil)
	_, err = s.reg.Produce(s.ctx, "t2", "user-b", engine.KindAudio, nil)
	s.Require().NoError(err)

	caps := json.RawMessage(`{}`)
	s.mockEng.EXPECT().CanConsume(gomock.Any(), "p2", caps).Return(true, nil)
	s.mockEng.EXPECT().Consume(gomock.Any(), "t1", "p2", caps).
		Return(&engine.ConsumerInfo{ID: "c1", ProducerID: "p2"}, nil)
	_, err = s.reg.Consume(s.ctx, "t1", "p2", caps)
	s.Require().NoError(err)

	s.mockEng.EXPECT().CloseConsumer(gomock.Any(), "c1").Return(nil)
	s.mockEng.EXPECT().CloseProducer(gomock.Any(), "p1").Return(nil)
	s.mockEng.EXPECT().CloseTransport(gomock.Any(), "t1").Return(nil)
	s.reg.ReleaseForConnection(s.ctx, "conn-1")

	// conn-2's producer survives
	s.bcast.notes = nil
	s.reg.SendExistingProducers("conn-3", "100000")
	s.Require().Len(s.bcast.notes, 1)
	s.Equal(ProducerAnnouncement{ProducerID: "p2", UserID: "user-b"}, s.bcast.notes[0].data)
}

func (s *RegistryTestSuite) TestReleaseToleratesEngineErrors() {
	s.createTransport("t1", "100000", "conn-1")

	s.mockEng.EXPECT().Produce(gomock.Any(), "t1", engine.KindAudio, gomock.Any()).
		Return("p1", nil)
	_, err := s.reg.Produce(s.ctx, "t1", "user-a", engine.KindAudio, nil)
	s.Require().NoError(err)

	s.mockEng.EXPECT().CloseProducer(gomock.Any(), "p1").
		Return(errors.PureNew("engine down"))
	s.mockEng.EXPECT().CloseTransport(gomock.Any(), "t1").
		Return(errors.PureNew("engine down"))
	s.reg.ReleaseForConnection(s.ctx, "conn-1")

	// records are gone regardless
	err = s.reg.ConnectTransport(s.ctx, "t1", nil)
	s.True(errors.Is(err, ErrTransportNotFound))
}
