package gateway

import (
	"context"
	"encoding/json"

	"github.com/voxroom/voxroom/directory"
	"github.com/voxroom/voxroom/internal/engine"
	"github.com/voxroom/voxroom/internal/jsonrpc"
	"github.com/voxroom/voxroom/internal/log"
	"github.com/voxroom/voxroom/media"
	"github.com/voxroom/voxroom/room"
	"github.com/voxroom/voxroom/turn"
)

// Transcriber converts an audio clip to text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

// Server is the signaling façade: it maps inbound JSON-RPC methods onto
// the directory, room, media and turn components, and broadcasts room
// state after every mutation.
type Server struct {
	jsonrpc.Handler[connContext]
	dir         *directory.Directory
	rooms       *room.Manager
	registry    *media.Registry
	coord       *turn.Coordinator
	transcriber Transcriber
	connMgr     *ConnManager
	logger      *log.Logger
}

func NewServer(
	handler jsonrpc.Handler[connContext],
	dir *directory.Directory,
	rooms *room.Manager,
	registry *media.Registry,
	coord *turn.Coordinator,
	transcriber Transcriber,
	connMgr *ConnManager,
	logger *log.Logger,
) *Server {
	return &Server{
		Handler:     handler,
		dir:         dir,
		rooms:       rooms,
		registry:    registry,
		coord:       coord,
		transcriber: transcriber,
		connMgr:     connMgr,
		logger:      logger,
	}
}

func (s *Server) Open(ctx context.Context) error {
	s.logger.Info("Opening signaling server")
	s.register()
	return nil
}

func (s *Server) Close() error {
	s.logger.Info("Closing signaling server")
	return nil
}

func (s *Server) register() {
	// identity/session
	s.Def("getUserId", s.handleGetUserID)
	s.Def("updateName", s.handleUpdateName)
	s.Def("updateMicStatus", s.handleUpdateMicStatus)
	s.Def("updateTalkingStatus", s.handleUpdateTalkingStatus)

	// room lifecycle
	s.Def("createRoom", s.handleCreateRoom)
	s.Def("checkRoom", s.handleCheckRoom)
	s.Def("joinRoom", s.handleJoinRoom)
	s.Def("getParticipants", s.handleGetParticipants)
	s.Def("terminateRoom", s.handleTerminateRoom)

	// roles/permissions
	s.Def("getRole", s.handleGetRole)
	s.Def("updateUserRole", s.handleUpdateUserRole)
	s.Def("updateAIPermissions", s.handleUpdateAIPermissions)

	// media transport
	s.Def("getRouterRtpCapabilities", s.handleRouterRtpCapabilities)
	s.Def("createProducerTransport", s.handleCreateProducerTransport)
	s.Def("createConsumerTransport", s.handleCreateConsumerTransport)
	s.Def("connectProducerTransport", s.handleConnectTransport)
	s.Def("connectConsumerTransport", s.handleConnectTransport)
	s.Def("produce", s.handleProduce)
	s.Def("consume", s.handleConsume)

	// assistant
	s.Def("createAI", s.handleCreateAI)
	s.Def("muteAI", s.handleMuteAI)
	s.Def("kickAI", s.handleKickAI)
	s.Def("whisperAudioToText", s.handleWhisperAudioToText)
}

// broadcastParticipants pushes the room's current participant view to
// everyone in it.
func (s *Server) broadcastParticipants(roomID string) {
	views, ok := s.rooms.Snapshot(roomID)
	if !ok {
		return
	}
	s.connMgr.NotifyRoom(roomID, "updateParticipants", views)
}

func (s *Server) handleGetUserID(mctx jsonrpc.MethodContext[connContext], _ *json.RawMessage) (any, error) {
	return map[string]any{"userId": mctx.Get().userID}, nil
}

func (s *Server) handleUpdateName(mctx jsonrpc.MethodContext[connContext], params *json.RawMessage) (any, error) {
	var data struct {
		UserName string `json:"userName" validate:"required"`
	}
	if err := jsonrpc.ShouldBindParams(params, &data); err != nil {
		return nil, err
	}

	cctx := mctx.Get()
	s.dir.Rename(cctx.userID, data.UserName)
	if cctx.roomID != "" {
		s.broadcastParticipants(cctx.roomID)
	}
	return map[string]any{"success": true}, nil
}

func (s *Server) handleUpdateMicStatus(mctx jsonrpc.MethodContext[connContext], params *json.RawMessage) (any, error) {
	var data struct {
		MicStatus bool `json:"micStatus"`
	}
	if err := jsonrpc.ShouldBindParams(params, &data); err != nil {
		return nil, err
	}

	cctx := mctx.Get()
	s.dir.SetMic(cctx.userID, data.MicStatus)
	if cctx.roomID != "" {
		s.broadcastParticipants(cctx.roomID)
	}
	return map[string]any{"success": true}, nil
}

func (s *Server) handleUpdateTalkingStatus(mctx jsonrpc.MethodContext[connContext], params *json.RawMessage) (any, error) {
	var data struct {
		IsTalking bool `json:"isTalking"`
	}
	if err := jsonrpc.ShouldBindParams(params, &data); err != nil {
		return nil, err
	}

	cctx := mctx.Get()
	s.dir.SetTalking(cctx.userID, data.IsTalking)
	if cctx.roomID != "" {
		s.broadcastParticipants(cctx.roomID)
	}
	return map[string]any{"success": true}, nil
}

func (s *Server) handleCreateRoom(mctx jsonrpc.MethodContext[connContext], _ *json.RawMessage) (any, error) {
	cctx := mctx.Get()
	roomID := s.rooms.CreateRoom(cctx.userID)

	s.logger.Info("Room created",
		log.String("roomId", roomID),
		log.String("userId", cctx.userID),
	)
	return map[string]any{"roomId": roomID}, nil
}

func (s *Server) handleCheckRoom(mctx jsonrpc.MethodContext[connContext], params *json.RawMessage) (any, error) {
	var data struct {
		RoomID string `json:"roomId" validate:"required"`
	}
	if err := jsonrpc.ShouldBindParams(params, &data); err != nil {
		return nil, err
	}
	return map[string]any{"exists": s.rooms.Exists(data.RoomID)}, nil
}

func (s *Server) handleJoinRoom(mctx jsonrpc.MethodContext[connContext], params *json.RawMessage) (any, error) {
	var data struct {
		RoomID   string `json:"roomId" validate:"required"`
		UserName string `json:"userName"`
	}
	if err := jsonrpc.ShouldBindParams(params, &data); err != nil {
		return nil, err
	}

	cctx := mctx.Get()
	if err := s.rooms.Join(data.RoomID, cctx.userID, data.UserName, room.KindHuman); err != nil {
		return nil, rpcError(err)
	}

	cctx.roomID = data.RoomID
	s.connMgr.JoinRoom(cctx.connID, data.RoomID)
	s.broadcastParticipants(data.RoomID)

	// late joiner discovers peers that already publish
	s.registry.SendExistingProducers(cctx.connID, data.RoomID)

	return map[string]any{"success": true}, nil
}

func (s *Server) handleGetParticipants(mctx jsonrpc.MethodContext[connContext], params *json.RawMessage) (any, error) {
	var data struct {
		RoomID string `json:"roomId" validate:"required"`
	}
	if err := jsonrpc.ShouldBindParams(params, &data); err != nil {
		return nil, err
	}

	views, ok := s.rooms.Snapshot(data.RoomID)
	if !ok {
		return nil, rpcError(room.ErrRoomNotFound)
	}
	return views, nil
}

func (s *Server) handleGetRole(mctx jsonrpc.MethodContext[connContext], params *json.RawMessage) (any, error) {
	var data struct {
		RoomID string `json:"roomId" validate:"required"`
		UserID string `json:"userId" validate:"required"`
	}
	if err := jsonrpc.ShouldBindParams(params, &data); err != nil {
		return nil, err
	}

	role, err := s.rooms.GetRole(data.RoomID, data.UserID)
	if err != nil {
		return nil, rpcError(err)
	}
	return map[string]any{"role": role}, nil
}

func (s *Server) handleUpdateUserRole(mctx jsonrpc.MethodContext[connContext], params *json.RawMessage) (any, error) {
	var data struct {
		RoomID       string `json:"roomId" validate:"required"`
		TargetUserID string `json:"targetUserId" validate:"required"`
		NewRole      string `json:"newRole" validate:"required,oneof=admin participant"`
	}
	if err := jsonrpc.ShouldBindParams(params, &data); err != nil {
		return nil, err
	}

	cctx := mctx.Get()
	if err := s.rooms.UpdateRole(data.RoomID, cctx.userID, data.TargetUserID, room.Role(data.NewRole)); err != nil {
		return nil, rpcError(err)
	}

	if connID, ok := s.connMgr.ConnForUser(data.TargetUserID); ok {
		s.connMgr.NotifyConn(connID, "roleUpdated", map[string]any{
			"roomId":  data.RoomID,
			"newRole": data.NewRole,
		})
	}
	s.broadcastParticipants(data.RoomID)

	return map[string]any{"success": true}, nil
}

func (s *Server) handleUpdateAIPermissions(mctx jsonrpc.MethodContext[connContext], params *json.RawMessage) (any, error) {
	var data struct {
		RoomID       string `json:"roomId" validate:"required"`
		TargetUserID string `json:"targetUserId" validate:"required"`
		Permission   string `json:"permission" validate:"required,oneof=canHearAI canTalkToAI"`
		Value        bool   `json:"value"`
	}
	if err := jsonrpc.ShouldBindParams(params, &data); err != nil {
		return nil, err
	}

	cctx := mctx.Get()
	perms, err := s.rooms.UpdatePermission(data.RoomID, cctx.userID, data.TargetUserID, data.Permission, data.Value)
	if err != nil {
		return nil, rpcError(err)
	}

	if connID, ok := s.connMgr.ConnForUser(data.TargetUserID); ok {
		s.connMgr.NotifyConn(connID, "aiPermissionUpdated", map[string]any{
			"permission": data.Permission,
			"value":      data.Value,
		})
	}
	s.broadcastParticipants(data.RoomID)

	return map[string]any{"success": true, "permissions": perms}, nil
}

func (s *Server) handleTerminateRoom(mctx jsonrpc.MethodContext[connContext], params *json.RawMessage) (any, error) {
	var data struct {
		RoomID string `json:"roomId" validate:"required"`
	}
	if err := jsonrpc.ShouldBindParams(params, &data); err != nil {
		return nil, err
	}

	cctx := mctx.Get()
	role, err := s.rooms.GetRole(data.RoomID, cctx.userID)
	if err != nil {
		return nil, rpcError(err)
	}
	if role != room.RoleAdmin {
		return nil, rpcError(room.ErrUnauthorized)
	}

	s.coord.DropSession(data.RoomID)
	s.rooms.Terminate(data.RoomID)

	s.connMgr.NotifyRoom(data.RoomID, "roomTerminated", map[string]any{"roomId": data.RoomID})
	s.connMgr.RemoveRoom(data.RoomID)

	s.logger.Info("Room terminated",
		log.String("roomId", data.RoomID),
		log.String("userId", cctx.userID),
	)
	return map[string]any{"success": true}, nil
}

func (s *Server) handleRouterRtpCapabilities(mctx jsonrpc.MethodContext[connContext], _ *json.RawMessage) (any, error) {
	caps, err := s.registry.RouterCapabilities(mctx.Get().reqCtx)
	if err != nil {
		return nil, rpcError(err)
	}
	return caps, nil
}

func (s *Server) handleCreateProducerTransport(mctx jsonrpc.MethodContext[connContext], params *json.RawMessage) (any, error) {
	return s.createTransport(mctx, params, media.TransportProducer)
}

func (s *Server) handleCreateConsumerTransport(mctx jsonrpc.MethodContext[connContext], params *json.RawMessage) (any, error) {
	return s.createTransport(mctx, params, media.TransportConsumer)
}

func (s *Server) createTransport(
	mctx jsonrpc.MethodContext[connContext],
	params *json.RawMessage,
	kind media.TransportKind,
) (any, error) {
	var data struct {
		RoomID string `json:"roomId" validate:"required"`
	}
	if err := jsonrpc.ShouldBindParams(params, &data); err != nil {
		return nil, err
	}

	cctx := mctx.Get()
	info, err := s.registry.CreateTransport(cctx.reqCtx, kind, data.RoomID, cctx.connID)
	if err != nil {
		return nil, rpcError(err)
	}
	return info, nil
}

func (s *Server) handleConnectTransport(mctx jsonrpc.MethodContext[connContext], params *json.RawMessage) (any, error) {
	var data struct {
		TransportID    string          `json:"transportId" validate:"required"`
		DtlsParameters json.RawMessage `json:"dtlsParameters" validate:"required"`
	}
	if err := jsonrpc.ShouldBindParams(params, &data); err != nil {
		return nil, err
	}

	if err := s.registry.ConnectTransport(mctx.Get().reqCtx, data.TransportID, data.DtlsParameters); err != nil {
		return nil, rpcError(err)
	}
	return map[string]any{"success": true}, nil
}

func (s *Server) handleProduce(mctx jsonrpc.MethodContext[connContext], params *json.RawMessage) (any, error) {
	var data struct {
		TransportID   string          `json:"transportId" validate:"required"`
		Kind          string          `json:"kind" validate:"required,oneof=audio video"`
		RtpParameters json.RawMessage `json:"rtpParameters" validate:"required"`
	}
	if err := jsonrpc.ShouldBindParams(params, &data); err != nil {
		return nil, err
	}

	cctx := mctx.Get()
	producerID, err := s.registry.Produce(
		cctx.reqCtx,
		data.TransportID,
		cctx.userID,
		engine.MediaKind(data.Kind),
		data.RtpParameters,
	)
	if err != nil {
		return nil, rpcError(err)
	}
	return map[string]any{"id": producerID}, nil
}

func (s *Server) handleConsume(mctx jsonrpc.MethodContext[connContext], params *json.RawMessage) (any, error) {
	var data struct {
		TransportID     string          `json:"transportId" validate:"required"`
		ProducerID      string          `json:"producerId" validate:"required"`
		RtpCapabilities json.RawMessage `json:"rtpCapabilities" validate:"required"`
	}
	if err := jsonrpc.ShouldBindParams(params, &data); err != nil {
		return nil, err
	}

	info, err := s.registry.Consume(mctx.Get().reqCtx, data.TransportID, data.ProducerID, data.RtpCapabilities)
	if err != nil {
		return nil, rpcError(err)
	}
	return info, nil
}

func (s *Server) handleCreateAI(mctx jsonrpc.MethodContext[connContext], params *json.RawMessage) (any, error) {
	var data struct {
		RoomID string      `json:"roomId" validate:"required"`
		Config turn.Config `json:"config"`
	}
	if err := jsonrpc.ShouldBindParams(params, &data); err != nil {
		return nil, err
	}

	if !s.rooms.Exists(data.RoomID) {
		return nil, rpcError(room.ErrRoomNotFound)
	}

	aiID, err := s.coord.CreateSession(data.RoomID, data.Config)
	if err != nil {
		return nil, rpcError(err)
	}

	s.broadcastParticipants(data.RoomID)
	return map[string]any{"success": true, "aiId": aiID}, nil
}

func (s *Server) handleMuteAI(mctx jsonrpc.MethodContext[connContext], params *json.RawMessage) (any, error) {
	var data struct {
		AIID      string `json:"aiId" validate:"required"`
		RoomID    string `json:"roomId" validate:"required"`
		MicStatus bool   `json:"micStatus"`
	}
	if err := jsonrpc.ShouldBindParams(params, &data); err != nil {
		return nil, err
	}

	aiID, ok := s.coord.AISession(data.RoomID)
	if !ok || aiID != data.AIID {
		return nil, rpcError(turn.ErrSessionNotFound)
	}

	// a mute request carries the current status and asks for the opposite
	newMicStatus := !data.MicStatus
	s.dir.SetMic(data.AIID, newMicStatus)
	s.broadcastParticipants(data.RoomID)

	return map[string]any{"success": true, "newMicStatus": newMicStatus}, nil
}

func (s *Server) handleKickAI(mctx jsonrpc.MethodContext[connContext], params *json.RawMessage) (any, error) {
	var data struct {
		AIID   string `json:"aiId" validate:"required"`
		RoomID string `json:"roomId" validate:"required"`
	}
	if err := jsonrpc.ShouldBindParams(params, &data); err != nil {
		return nil, err
	}

	if err := s.coord.RemoveSession(data.RoomID, data.AIID); err != nil {
		return nil, rpcError(err)
	}

	s.broadcastParticipants(data.RoomID)
	return map[string]any{"success": true}, nil
}

func (s *Server) handleWhisperAudioToText(mctx jsonrpc.MethodContext[connContext], params *json.RawMessage) (any, error) {
	var data struct {
		RoomID      string `json:"roomId" validate:"required"`
		AudioBuffer []byte `json:"audioBuffer" validate:"required"`
	}
	if err := jsonrpc.ShouldBindParams(params, &data); err != nil {
		return nil, err
	}

	cctx := mctx.Get()
	if !cctx.whisperLimiter.Allow() {
		return nil, jsonrpc.ErrInvalidRequest("too many transcription requests")
	}
	if !s.rooms.IsMember(data.RoomID, cctx.userID) {
		return nil, rpcError(turn.ErrForbidden)
	}
	if _, ok := s.coord.AISession(data.RoomID); !ok {
		return nil, rpcError(turn.ErrNoSession)
	}

	text, err := s.transcriber.Transcribe(cctx.reqCtx, data.AudioBuffer)
	if err != nil {
		s.logger.Error("Transcription failed",
			log.String("roomId", data.RoomID),
			log.Error(err),
		)
		return nil, jsonrpc.ErrInternal("transcription failed")
	}

	line, err := s.coord.AddTranscript(data.RoomID, cctx.userID, text)
	if err != nil {
		return nil, rpcError(err)
	}

	return map[string]any{"transcription": line}, nil
}
