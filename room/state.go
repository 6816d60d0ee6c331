package room

import (
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/voxroom/voxroom/directory"
	"github.com/voxroom/voxroom/internal/errors"
	"github.com/voxroom/voxroom/internal/log"
)

// Manager owns all room state: membership, roles and AI permissions.
// The user registry is referenced for identity resolution and for keeping
// the user→room association in sync.
type Manager struct {
	mu     sync.RWMutex
	rooms  map[string]*Room
	dir    *directory.Directory
	logger *log.Logger
}

func NewManager(dir *directory.Directory, logger *log.Logger) *Manager {
	return &Manager{
		rooms:  make(map[string]*Room),
		dir:    dir,
		logger: logger,
	}
}

// CreateRoom registers a new room and returns its id. The creator holds a
// pre-seeded admin role but is not a member until they join.
func (m *Manager) CreateRoom(creatorID string) string {
	id := newRoomID()

	m.mu.Lock()
	defer m.mu.Unlock()

	// ids are random; regenerate on the off chance of a collision
	for {
		if _, ok := m.rooms[id]; !ok {
			break
		}
		id = newRoomID()
	}
	m.rooms[id] = newRoom(id, creatorID)

	m.logger.Info("room created",
		log.String("roomId", id),
		log.String("creatorId", creatorID))
	return id
}

// newRoomID derives a short human-presentable code from a random uuid:
// the first 6 hex chars interpreted as a number, zero-padded to 6 digits.
func newRoomID() string {
	hex := strings.ReplaceAll(uuid.New().String(), "-", "")
	n, _ := strconv.ParseInt(hex[:6], 16, 64)
	s := strconv.FormatInt(n, 10)
	if len(s) > 6 {
		s = s[len(s)-6:]
	}
	return strings.Repeat("0", 6-len(s)) + s
}

func (m *Manager) Exists(roomID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.rooms[roomID]
	return ok
}

// Join admits a user. Joining a room you are already in is a no-op. The
// first member of an unowned room becomes admin; a pre-seeded role from
// CreateRoom is merged instead of overwritten.
func (m *Manager) Join(roomID, userID, displayName string, kind Kind) error {
	if _, ok := m.dir.Get(userID); !ok {
		return errors.Newf(ErrUserNotFound, "user %s", userID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.rooms[roomID]
	if !ok {
		return errors.Newf(ErrRoomNotFound, "room %s", roomID)
	}

	if strings.TrimSpace(displayName) != "" {
		m.dir.Rename(userID, displayName)
	}

	if r.memberIndex(userID) >= 0 {
		m.logger.Debug("already a member",
			log.String("roomId", roomID),
			log.String("userId", userID))
		return nil
	}

	r.members = append(r.members, member{id: userID, kind: kind})
	m.dir.SetRoom(userID, roomID)

	if r.adminID == "" {
		r.adminID = userID
		r.roles[userID] = RoleAdmin
	} else if _, ok := r.roles[userID]; !ok {
		r.roles[userID] = RoleParticipant
	}
	if _, ok := r.permissions[userID]; !ok {
		r.permissions[userID] = defaultPermissions()
	}

	m.logger.Info("user joined room",
		log.String("roomId", roomID),
		log.String("userId", userID))
	return nil
}

// Leave removes the member and their role/permission entries. If the admin
// leaves, the longest-standing remaining member is promoted.
func (m *Manager) Leave(roomID, userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.rooms[roomID]
	if !ok {
		return
	}
	idx := r.memberIndex(userID)
	if idx < 0 {
		return
	}

	r.members = append(r.members[:idx], r.members[idx+1:]...)
	delete(r.roles, userID)
	delete(r.permissions, userID)
	m.dir.SetRoom(userID, "")

	if r.adminID == userID {
		if len(r.members) > 0 {
			r.adminID = r.members[0].id
			r.roles[r.adminID] = RoleAdmin
		} else {
			r.adminID = ""
		}
	}
}

// UpdateRole changes a member's role. Only the admin may change roles, and
// granting admin is restricted to the current admin; adminship then moves to
// the target and the requester is demoted, keeping the single-admin invariant.
func (m *Manager) UpdateRole(roomID, requesterID, targetID string, newRole Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.rooms[roomID]
	if !ok {
		return errors.Newf(ErrRoomNotFound, "room %s", roomID)
	}
	if r.roles[requesterID] != RoleAdmin {
		return errors.New(ErrUnauthorized, "only admin can update user roles")
	}

	if newRole == RoleAdmin {
		if r.adminID != requesterID {
			return errors.New(ErrInvalidAssignment, "cannot assign admin role to another user")
		}
		if requesterID != targetID {
			r.roles[requesterID] = RoleParticipant
		}
		r.adminID = targetID
	} else if r.adminID == targetID {
		r.adminID = ""
	}
	r.roles[targetID] = newRole

	m.logger.Info("role updated",
		log.String("roomId", roomID),
		log.String("targetId", targetID),
		log.String("newRole", string(newRole)))
	return nil
}

// UpdatePermission toggles one AI-permission field. Admins may change anyone;
// everyone may change themselves.
func (m *Manager) UpdatePermission(roomID, requesterID, targetID, field string, value bool) (Permissions, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.rooms[roomID]
	if !ok {
		return Permissions{}, errors.Newf(ErrRoomNotFound, "room %s", roomID)
	}

	isAdmin := r.roles[requesterID] == RoleAdmin
	if !isAdmin && requesterID != targetID {
		return Permissions{}, errors.New(ErrUnauthorized, "cannot change other users' settings")
	}

	perms, ok := r.permissions[targetID]
	if !ok {
		perms = defaultPermissions()
	}
	switch field {
	case PermCanHearAI:
		perms.CanHearAI = value
	case PermCanTalkToAI:
		perms.CanTalkToAI = value
	default:
		return Permissions{}, errors.Newf(ErrInvalidPermission, "unknown permission %q", field)
	}
	r.permissions[targetID] = perms

	return perms, nil
}

// Terminate dissolves the room and returns the ids of all former members so
// the caller can notify them. Distinct from Leave: bulk, admin-gated at the
// gateway.
func (m *Manager) Terminate(roomID string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.rooms[roomID]
	if !ok {
		return nil
	}

	memberIDs := make([]string, 0, len(r.members))
	for _, mb := range r.members {
		memberIDs = append(memberIDs, mb.id)
		m.dir.SetRoom(mb.id, "")
	}
	delete(m.rooms, roomID)

	m.logger.Info("room terminated", log.String("roomId", roomID))
	return memberIDs
}

// GetRole resolves a member's role, defaulting to participant.
func (m *Manager) GetRole(roomID, userID string) (Role, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.rooms[roomID]
	if !ok {
		return "", errors.Newf(ErrRoomNotFound, "room %s", roomID)
	}
	if role, ok := r.roles[userID]; ok {
		return role, nil
	}
	return RoleParticipant, nil
}

// Permission resolves a member's AI permissions, defaulting to all-allowed.
func (m *Manager) Permission(roomID, userID string) Permissions {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if r, ok := m.rooms[roomID]; ok {
		if p, ok := r.permissions[userID]; ok {
			return p
		}
	}
	return defaultPermissions()
}

// IsMember reports room membership.
func (m *Manager) IsMember(roomID, userID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.rooms[roomID]
	return ok && r.memberIndex(userID) >= 0
}

// MemberIDs returns member ids in joining order.
func (m *Manager) MemberIDs(roomID string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.rooms[roomID]
	if !ok {
		return nil
	}
	ids := make([]string, 0, len(r.members))
	for _, mb := range r.members {
		ids = append(ids, mb.id)
	}
	return ids
}

// AnyTalking reports whether any member is currently speaking.
func (m *Manager) AnyTalking(roomID string) bool {
	for _, id := range m.MemberIDs(roomID) {
		if u, ok := m.dir.Get(id); ok && u.Talking {
			return true
		}
	}
	return false
}

// Snapshot assembles the broadcastable participant views in joining order.
func (m *Manager) Snapshot(roomID string) ([]ParticipantView, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.rooms[roomID]
	if !ok {
		return nil, false
	}

	views := make([]ParticipantView, 0, len(r.members))
	for _, mb := range r.members {
		u, ok := m.dir.Get(mb.id)
		if !ok {
			continue
		}
		role, ok := r.roles[mb.id]
		if !ok {
			role = RoleParticipant
		}
		perms, ok := r.permissions[mb.id]
		if !ok {
			perms = defaultPermissions()
		}
		views = append(views, ParticipantView{
			UserID:      u.ID,
			UserName:    u.Name,
			MicOn:       u.MicOn,
			Talking:     u.Talking,
			Role:        role,
			CanHearAI:   perms.CanHearAI,
			CanTalkToAI: perms.CanTalkToAI,
			IsAI:        mb.kind == KindAssistant,
		})
	}
	return views, true
}

// GetStats counts rooms and members for the REST surface.
func (m *Manager) GetStats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	st := Stats{Rooms: len(m.rooms)}
	for _, r := range m.rooms {
		st.Participants += len(r.members)
	}
	return st
}
