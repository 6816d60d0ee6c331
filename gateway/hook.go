package gateway

import (
	"net/http"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/voxroom/voxroom/directory"
	"github.com/voxroom/voxroom/internal/errors"
	"github.com/voxroom/voxroom/internal/jsonrpc"
	wsrpc "github.com/voxroom/voxroom/internal/jsonrpc/websocket"
	"github.com/voxroom/voxroom/internal/jwt"
	"github.com/voxroom/voxroom/internal/log"
)

// whisper uploads per connection: 1 req/s sustained, burst of 3
const (
	whisperRateLimit = rate.Limit(1)
	whisperBurst     = 3
)

func NewWSHook(
	connMgr *ConnManager,
	dir *directory.Directory,
	cleaner *Cleaner,
	jwtAuth jwt.Auth,
	logger *log.Logger,
) wsrpc.ConnectionHooks[connContext] {
	return &wsHookImpl{
		connMgr: connMgr,
		dir:     dir,
		cleaner: cleaner,
		jwtAuth: jwtAuth,
		logger:  logger,
	}
}

type wsHookImpl struct {
	connMgr *ConnManager
	dir     *directory.Directory
	cleaner *Cleaner
	jwtAuth jwt.Auth
	logger  *log.Logger
}

// OnVerify authenticates the upgrade request. With no auth configured every
// connection is admitted anonymously with a fresh user id; with auth
// configured a valid token is required.
func (h *wsHookImpl) OnVerify(r *http.Request) (*connContext, bool, error) {
	cctx := &connContext{
		reqCtx:         r.Context(),
		whisperLimiter: rate.NewLimiter(whisperRateLimit, whisperBurst),
	}

	if h.jwtAuth == nil {
		cctx.userID = uuid.New().String()
		return cctx, true, nil
	}

	token := r.URL.Query().Get("token")
	if token == "" {
		token = r.Header.Get("Authorization")
		if len(token) > 7 && token[:7] == "Bearer " {
			token = token[7:]
		}
	}

	payload, err := h.jwtAuth.Verify(token)
	if err != nil {
		if errors.Is(err, jwt.ErrInvalidToken) || errors.Is(err, jwt.ErrNoToken) {
			return nil, false, nil
		}
		return nil, false, err
	}

	cctx.userID = payload.UserID
	cctx.displayName = payload.DisplayName
	return cctx, true, nil
}

func (h *wsHookImpl) OnConnect(mctx jsonrpc.MethodContext[connContext]) {
	cctx := mctx.Get()
	cctx.connID = uuid.New().String()

	h.dir.Create(cctx.userID, cctx.displayName)
	h.connMgr.AddConn(cctx.connID, cctx.userID, mctx.Peer())

	h.logger.Info("Client connected",
		log.String("connId", cctx.connID),
		log.String("userId", cctx.userID),
	)
}

func (h *wsHookImpl) OnDisconnect(mctx jsonrpc.MethodContext[connContext], closeCode int) {
	cctx := mctx.Get()

	h.logger.Info("Client disconnected",
		log.String("connId", cctx.connID),
		log.String("userId", cctx.userID),
		log.Int("closeCode", closeCode),
	)

	h.cleaner.CleanupConnection(cctx.reqCtx, cctx.connID, cctx.userID)
}
