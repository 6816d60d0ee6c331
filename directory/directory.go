package directory

import (
	"sync"

	"github.com/voxroom/voxroom/internal/log"
)

// User is the canonical identity record of one connected participant,
// human or assistant.
type User struct {
	ID      string `json:"userId"`
	Name    string `json:"userName"`
	MicOn   bool   `json:"micStatus"`
	Talking bool   `json:"isTalking"`
	RoomID  string `json:"-"`
}

// Directory is the in-memory user registry. Mutations on unknown ids are
// silent no-ops; creation is idempotent.
type Directory struct {
	mu     sync.RWMutex
	users  map[string]*User
	logger *log.Logger
}

func New(logger *log.Logger) *Directory {
	return &Directory{
		users:  make(map[string]*User),
		logger: logger,
	}
}

// Create registers a user. Re-creating an existing id keeps the original
// record untouched.
func (d *Directory) Create(id, name string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.users[id]; ok {
		d.logger.Debug("user already exists", log.String("userId", id))
		return
	}
	d.users[id] = &User{
		ID:    id,
		Name:  name,
		MicOn: true,
	}
}

func (d *Directory) Rename(id, name string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if u, ok := d.users[id]; ok {
		u.Name = name
	}
}

func (d *Directory) SetMic(id string, on bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if u, ok := d.users[id]; ok {
		u.MicOn = on
	}
}

func (d *Directory) SetTalking(id string, talking bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if u, ok := d.users[id]; ok {
		u.Talking = talking
	}
}

func (d *Directory) SetRoom(id, roomID string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if u, ok := d.users[id]; ok {
		u.RoomID = roomID
	}
}

// Get returns a copy of the user record.
func (d *Directory) Get(id string) (User, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	u, ok := d.users[id]
	if !ok {
		return User{}, false
	}
	return *u, true
}

// Delete removes the user and returns the room it was in, so the caller can
// run membership cleanup and broadcast the change.
func (d *Directory) Delete(id string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	u, ok := d.users[id]
	if !ok {
		return "", false
	}
	delete(d.users, id)
	return u.RoomID, true
}

func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.users)
}
