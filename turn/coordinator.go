package turn

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/voxroom/voxroom/directory"
	"github.com/voxroom/voxroom/internal/errors"
	"github.com/voxroom/voxroom/internal/log"
	"github.com/voxroom/voxroom/internal/openai"
	"github.com/voxroom/voxroom/internal/scheduler"
	"github.com/voxroom/voxroom/room"
)

const (
	// debounceDelay is how long the room must stay silent after the last
	// transcript fragment before a flush is attempted.
	debounceDelay = time.Second

	// recheckDelay is used to re-arm the timer when a flush is deferred
	// because someone is still talking.
	recheckDelay = 1500 * time.Millisecond
)

// Coordinator decides when a room's assistant should respond, given
// asynchronously arriving transcript fragments from multiple speakers.
// Fragments accumulate in a per-room buffer; a keyed debounce timer fires
// once the room has been silent long enough, and the buffered text is sent
// through chat completion and speech synthesis, then broadcast.
type Coordinator struct {
	mu       sync.Mutex
	sessions map[string]*session
	epochSeq uint64

	rooms  *room.Manager
	dir    *directory.Directory
	sched  *scheduler.KeyedScheduler
	chat   ChatService
	speech SpeechService
	bcast  Broadcaster

	debounce time.Duration
	recheck  time.Duration

	ctx     context.Context
	cancel  context.CancelFunc
	stopped chan struct{}

	logger *log.Logger
}

func NewCoordinator(
	rooms *room.Manager,
	dir *directory.Directory,
	sched *scheduler.KeyedScheduler,
	chat ChatService,
	speech SpeechService,
	bcast Broadcaster,
	logger *log.Logger,
) *Coordinator {
	ctx, cancel := context.WithCancel(context.Background())
	return &Coordinator{
		sessions: make(map[string]*session),
		rooms:    rooms,
		dir:      dir,
		sched:    sched,
		chat:     chat,
		speech:   speech,
		bcast:    bcast,
		debounce: debounceDelay,
		recheck:  recheckDelay,
		ctx:      ctx,
		cancel:   cancel,
		stopped:  make(chan struct{}),
		logger:   logger,
	}
}

func (c *Coordinator) Start() {
	c.logger.Info("Starting turn coordinator")
	go c.loop()
}

func (c *Coordinator) Stop() {
	c.logger.Info("Stopping turn coordinator")
	c.cancel()
	c.sched.Shutdown()
	<-c.stopped
}

func (c *Coordinator) loop() {
	defer close(c.stopped)
	for roomID := range c.sched.Chan() {
		go c.handleFire(roomID)
	}
}

// CreateSession adds an assistant participant to the room and opens its
// conversation session. At most one session per room.
func (c *Coordinator) CreateSession(roomID string, cfg Config) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.sessions[roomID]; ok {
		return "", errors.Newf(ErrSessionExists, "room %s already has an ai session", roomID)
	}

	aiUserID := room.AssistantIDPrefix + uuid.NewString()
	c.dir.Create(aiUserID, AIDisplayName)
	if err := c.rooms.Join(roomID, aiUserID, AIDisplayName, room.KindAssistant); err != nil {
		c.dir.Delete(aiUserID)
		return "", err
	}

	c.epochSeq++
	c.sessions[roomID] = &session{
		aiUserID: aiUserID,
		cfg:      cfg,
		epoch:    c.epochSeq,
	}

	c.logger.Info("AI session created",
		log.String("roomId", roomID),
		log.String("aiUserId", aiUserID),
	)
	return aiUserID, nil
}

// RemoveSession kicks the assistant identified by aiUserID. A mismatched id
// fails with ErrSessionNotFound and leaves the existing session untouched.
func (c *Coordinator) RemoveSession(roomID, aiUserID string) error {
	c.mu.Lock()
	sess, ok := c.sessions[roomID]
	if !ok || sess.aiUserID != aiUserID {
		c.mu.Unlock()
		return errors.Newf(ErrSessionNotFound, "ai %s not found in room %s", aiUserID, roomID)
	}
	delete(c.sessions, roomID)
	c.mu.Unlock()

	c.teardown(roomID, aiUserID)
	return nil
}

// DropSession removes the room's assistant session, whatever its id.
// Used on room termination and empty-room cleanup. Returns the assistant
// user id if a session existed.
func (c *Coordinator) DropSession(roomID string) (string, bool) {
	c.mu.Lock()
	sess, ok := c.sessions[roomID]
	if !ok {
		c.mu.Unlock()
		return "", false
	}
	delete(c.sessions, roomID)
	c.mu.Unlock()

	c.teardown(roomID, sess.aiUserID)
	return sess.aiUserID, true
}

func (c *Coordinator) teardown(roomID, aiUserID string) {
	c.sched.Cancel(roomID)
	c.rooms.Leave(roomID, aiUserID)
	c.dir.Delete(aiUserID)
	c.logger.Info("AI session removed",
		log.String("roomId", roomID),
		log.String("aiUserId", aiUserID),
	)
}

// AISession returns the assistant user id for the room, if one exists.
func (c *Coordinator) AISession(roomID string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	sess, ok := c.sessions[roomID]
	if !ok {
		return "", false
	}
	return sess.aiUserID, true
}

// AddTranscript appends a labeled transcript line to the room's pending
// buffer and re-arms the debounce timer. Returns the labeled line so the
// caller can acknowledge it.
func (c *Coordinator) AddTranscript(roomID, speakerID, text string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sess, ok := c.sessions[roomID]
	if !ok {
		return "", errors.Newf(ErrNoSession, "room %s has no ai session", roomID)
	}
	if !c.rooms.Permission(roomID, speakerID).CanTalkToAI {
		return "", errors.Newf(ErrForbidden, "user %s is not allowed to talk to ai", speakerID)
	}
	ai, ok := c.dir.Get(sess.aiUserID)
	if !ok || !ai.MicOn {
		return "", errors.New(ErrAIMicOff, "ai microphone is off")
	}

	name := "Unknown"
	if speaker, ok := c.dir.Get(speakerID); ok && speaker.Name != "" {
		name = speaker.Name
	}

	line := "[" + name + "]: " + text
	sess.pending += line + "\n"

	// rearm: drop the earlier deadline, then schedule the new one
	c.sched.Cancel(roomID)
	c.sched.Enqueue(roomID, c.debounce)

	return line, nil
}

func (c *Coordinator) handleFire(roomID string) {
	c.mu.Lock()
	sess, ok := c.sessions[roomID]
	if !ok {
		c.mu.Unlock()
		return
	}
	if sess.flushing || c.rooms.AnyTalking(roomID) {
		c.mu.Unlock()
		c.sched.Enqueue(roomID, c.recheck)
		return
	}

	pending := strings.TrimSpace(sess.pending)
	if pending == "" {
		c.mu.Unlock()
		return
	}

	var msgs []openai.Message
	if sess.cfg.Instructions != "" {
		msgs = append(msgs, openai.Message{Role: openai.RoleSystem, Content: sess.cfg.Instructions})
	}
	msgs = append(msgs, sess.history...)
	msgs = append(msgs, openai.Message{Role: openai.RoleUser, Content: pending})

	cfg := sess.cfg
	epoch := sess.epoch
	rawPending := sess.pending
	sess.flushing = true
	c.mu.Unlock()

	c.flush(roomID, epoch, cfg, msgs, pending, rawPending)
}

// flush runs the two external calls and commits the result only if the
// session survived both suspension points unchanged.
func (c *Coordinator) flush(
	roomID string,
	epoch uint64,
	cfg Config,
	msgs []openai.Message,
	pending string,
	rawPending string,
) {
	reply, err := c.chat.Complete(c.ctx, msgs, cfg.Temperature)
	if err != nil {
		c.logger.Error("Chat completion failed, transcript kept for next cycle",
			log.String("roomId", roomID),
			log.Error(err),
		)
		c.endFlush(roomID, epoch)
		return
	}

	if !c.sessionAlive(roomID, epoch) {
		c.logger.Debug("AI session gone after completion, discarding reply",
			log.String("roomId", roomID))
		return
	}

	audio, err := c.speech.Synthesize(c.ctx, reply, cfg.Voice)
	if err != nil {
		c.logger.Error("Speech synthesis failed, transcript kept for next cycle",
			log.String("roomId", roomID),
			log.Error(err),
		)
		c.endFlush(roomID, epoch)
		return
	}

	c.mu.Lock()
	sess, ok := c.sessions[roomID]
	if !ok || sess.epoch != epoch {
		c.mu.Unlock()
		c.logger.Debug("AI session gone after synthesis, discarding reply",
			log.String("roomId", roomID))
		return
	}
	sess.flushing = false
	sess.history = append(sess.history,
		openai.Message{Role: openai.RoleUser, Content: pending},
		openai.Message{Role: openai.RoleAssistant, Content: reply},
	)
	// keep fragments that arrived while the flush was in flight
	sess.pending = strings.TrimPrefix(sess.pending, rawPending)
	c.mu.Unlock()

	c.bcast.NotifyRoom(roomID, "aiResponse", Response{
		Transcription: reply,
		Voice:         audio,
	})

	c.logger.Debug("AI response broadcast",
		log.String("roomId", roomID),
		log.Int("replyLen", len(reply)),
	)
}

func (c *Coordinator) sessionAlive(roomID string, epoch uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	sess, ok := c.sessions[roomID]
	return ok && sess.epoch == epoch
}

// endFlush clears the in-flight flag after a failed attempt so the next
// debounce cycle may retry with the preserved buffer.
func (c *Coordinator) endFlush(roomID string, epoch uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if sess, ok := c.sessions[roomID]; ok && sess.epoch == epoch {
		sess.flushing = false
	}
}
