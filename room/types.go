package room

// Role of a room member. A room has at most one admin at any time.
type Role string

const (
	RoleAdmin       Role = "admin"
	RoleParticipant Role = "participant"
)

// Kind distinguishes human connections from the room's AI participant.
// Membership is tagged explicitly; the "ai-" id prefix is kept on the wire
// only for client compatibility.
type Kind string

const (
	KindHuman     Kind = "human"
	KindAssistant Kind = "assistant"
)

// AssistantIDPrefix prefixes the generated id of an AI participant.
const AssistantIDPrefix = "ai-"

// Permission field names accepted by UpdatePermission.
const (
	PermCanHearAI  = "canHearAI"
	PermCanTalkToAI = "canTalkToAI"
)

// Permissions controls how a member interacts with the room's AI.
type Permissions struct {
	CanHearAI   bool `json:"canHearAI"`
	CanTalkToAI bool `json:"canTalkToAI"`
}

func defaultPermissions() Permissions {
	return Permissions{CanHearAI: true, CanTalkToAI: true}
}

type member struct {
	id   string
	kind Kind
}

// Room holds membership, role and AI-permission bookkeeping. Members are kept
// in joining order; admin succession follows that order.
type Room struct {
	ID          string
	adminID     string
	members     []member
	roles       map[string]Role
	permissions map[string]Permissions
}

func newRoom(id, creatorID string) *Room {
	r := &Room{
		ID:          id,
		roles:       make(map[string]Role),
		permissions: make(map[string]Permissions),
	}
	if creatorID != "" {
		// the creator is not admitted yet; the role entry is merged when
		// they actually join
		r.adminID = creatorID
		r.roles[creatorID] = RoleAdmin
		r.permissions[creatorID] = defaultPermissions()
	}
	return r
}

func (r *Room) memberIndex(userID string) int {
	for i, m := range r.members {
		if m.id == userID {
			return i
		}
	}
	return -1
}

// ParticipantView is the immutable broadcast representation of one member,
// assembled by Snapshot. Canonical user and room records are never mutated
// for presentation.
type ParticipantView struct {
	UserID      string `json:"userId"`
	UserName    string `json:"userName"`
	MicOn       bool   `json:"micStatus"`
	Talking     bool   `json:"isTalking"`
	Role        Role   `json:"role"`
	CanHearAI   bool   `json:"canHearAI"`
	CanTalkToAI bool   `json:"canTalkToAI"`
	IsAI        bool   `json:"isAI"`
}

// Stats summarizes registry occupancy for the REST surface.
type Stats struct {
	Rooms        int `json:"rooms"`
	Participants int `json:"participants"`
}
