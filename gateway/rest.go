package gateway

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/voxroom/voxroom/directory"
	"github.com/voxroom/voxroom/internal/engine"
	"github.com/voxroom/voxroom/internal/log"
	"github.com/voxroom/voxroom/internal/validation"
	"github.com/voxroom/voxroom/room"
)

// Router serves the REST surface for non-websocket clients: room creation,
// room lookup, and service stats.
type Router struct {
	dir    *directory.Directory
	rooms  *room.Manager
	eng    engine.Engine
	engine *gin.Engine
	logger *log.Logger
}

func NewRouter(
	dir *directory.Directory,
	rooms *room.Manager,
	eng engine.Engine,
	allowedOrigins []string,
	logger *log.Logger,
) *Router {
	gin.SetMode(gin.ReleaseMode)
	ge := gin.New()
	ge.Use(gin.Recovery())

	ge.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
	}))

	r := &Router{
		dir:    dir,
		rooms:  rooms,
		eng:    eng,
		engine: ge,
		logger: logger,
	}

	r.setupRoutes()
	return r
}

func (r *Router) Handler() http.Handler {
	return r.engine
}

func (r *Router) setupRoutes() {
	r.engine.POST("/api/rooms", r.createRoom)
	r.engine.GET("/api/rooms/:roomId", r.getRoom)
	r.engine.GET("/api/stats", r.getStats)
	r.engine.GET("/health", r.healthCheck)
}

// CreateRoomRequest creates a room on behalf of a registered user.
type CreateRoomRequest struct {
	UserID string `json:"userId" binding:"required,participantid"`
}

func (r *Router) createRoom(c *gin.Context) {
	var req CreateRoomRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Validation failed",
			"details": validation.FormatValidationError(err),
		})
		return
	}

	if _, ok := r.dir.Get(req.UserID); !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   "User not found",
		})
		return
	}

	roomID := r.rooms.CreateRoom(req.UserID)
	r.logger.Info("Room created via REST",
		log.String("roomId", roomID),
		log.String("userId", req.UserID),
	)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"roomId":  roomID,
	})
}

func (r *Router) getRoom(c *gin.Context) {
	var uri struct {
		RoomID string `uri:"roomId" binding:"required,roomid"`
	}
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Validation failed",
			"details": validation.FormatValidationError(err),
		})
		return
	}

	views, ok := r.rooms.Snapshot(uri.RoomID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"exists":  false,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"exists":       true,
		"roomId":       uri.RoomID,
		"participants": views,
	})
}

func (r *Router) getStats(c *gin.Context) {
	stats := r.rooms.GetStats()
	c.JSON(http.StatusOK, gin.H{
		"rooms":        stats.Rooms,
		"participants": stats.Participants,
		"users":        r.dir.Len(),
	})
}

func (r *Router) healthCheck(c *gin.Context) {
	if !r.eng.Ready() {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "degraded",
			"engine": "not ready",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}
