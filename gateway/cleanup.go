package gateway

import (
	"context"

	"github.com/voxroom/voxroom/directory"
	"github.com/voxroom/voxroom/internal/log"
	"github.com/voxroom/voxroom/media"
	"github.com/voxroom/voxroom/room"
	"github.com/voxroom/voxroom/turn"
)

// Cleaner tears down everything a connection owned: media resources, the
// directory entry, room membership, and an orphaned assistant session if
// the last human left.
type Cleaner struct {
	dir      *directory.Directory
	rooms    *room.Manager
	registry *media.Registry
	coord    *turn.Coordinator
	connMgr  *ConnManager
	logger   *log.Logger
}

func NewCleaner(
	dir *directory.Directory,
	rooms *room.Manager,
	registry *media.Registry,
	coord *turn.Coordinator,
	connMgr *ConnManager,
	logger *log.Logger,
) *Cleaner {
	return &Cleaner{
		dir:      dir,
		rooms:    rooms,
		registry: registry,
		coord:    coord,
		connMgr:  connMgr,
		logger:   logger,
	}
}

func (c *Cleaner) CleanupConnection(ctx context.Context, connID, userID string) {
	// the request context is already canceled at disconnect time
	ctx = context.WithoutCancel(ctx)

	c.registry.ReleaseForConnection(ctx, connID)
	c.connMgr.RemoveConn(connID, userID)

	roomID, ok := c.dir.Delete(userID)
	if !ok || roomID == "" {
		return
	}

	c.rooms.Leave(roomID, userID)

	views, exists := c.rooms.Snapshot(roomID)
	if !exists {
		return
	}

	if !anyHuman(views) {
		if aiID, dropped := c.coord.DropSession(roomID); dropped {
			c.logger.Info("Dropped orphaned AI session",
				log.String("roomId", roomID),
				log.String("aiUserId", aiID),
			)
			views, _ = c.rooms.Snapshot(roomID)
		}
	}

	c.connMgr.NotifyRoom(roomID, "updateParticipants", views)
}

func anyHuman(views []room.ParticipantView) bool {
	for _, v := range views {
		if !v.IsAI {
			return true
		}
	}
	return false
}
