package media

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/voxroom/voxroom/internal/engine"
	"github.com/voxroom/voxroom/internal/errors"
	"github.com/voxroom/voxroom/internal/log"
)

// Registry tracks media transports, producers and consumers by opaque id,
// each tagged with the owning signaling connection and room. The engine
// holds the actual media state; the registry only brokers handles and
// fans out producer announcements.
type Registry struct {
	mu  sync.Mutex
	eng engine.Engine

	transports map[string]*transportRecord
	producers  map[string]*producerRecord
	consumers  map[string]*consumerRecord

	// producer ids per room, in creation order, for replay on join
	roomProducers map[string][]string

	bcast  Broadcaster
	logger *log.Logger
}

func NewRegistry(eng engine.Engine, bcast Broadcaster, logger *log.Logger) *Registry {
	return &Registry{
		eng:           eng,
		transports:    make(map[string]*transportRecord),
		producers:     make(map[string]*producerRecord),
		consumers:     make(map[string]*consumerRecord),
		roomProducers: make(map[string][]string),
		bcast:         bcast,
		logger:        logger,
	}
}

// RouterCapabilities returns the engine router's RTP capabilities.
func (r *Registry) RouterCapabilities(ctx context.Context) (json.RawMessage, error) {
	if !r.eng.Ready() {
		return nil, errors.New(ErrEngineUnavailable, "router is not initialized")
	}
	return r.eng.RouterCapabilities(ctx)
}

// CreateTransport asks the engine for a new WebRTC transport and records
// it against the owning connection.
func (r *Registry) CreateTransport(
	ctx context.Context,
	kind TransportKind,
	roomID string,
	connID string,
) (*engine.TransportInfo, error) {
	if !r.eng.Ready() {
		return nil, errors.New(ErrEngineUnavailable, "router is not initialized")
	}

	info, err := r.eng.CreateTransport(ctx)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.transports[info.ID] = &transportRecord{
		id:     info.ID,
		kind:   kind,
		connID: connID,
		roomID: roomID,
	}
	r.mu.Unlock()

	r.logger.Debug("Transport created",
		log.String("transportId", info.ID),
		log.String("kind", string(kind)),
		log.String("connId", connID),
		log.String("roomId", roomID),
	)
	return info, nil
}

// ConnectTransport completes the DTLS handshake for a known transport.
func (r *Registry) ConnectTransport(
	ctx context.Context,
	transportID string,
	dtlsParameters json.RawMessage,
) error {
	r.mu.Lock()
	_, ok := r.transports[transportID]
	r.mu.Unlock()
	if !ok {
		return errors.Newf(ErrTransportNotFound, "transport %s not found", transportID)
	}
	return r.eng.ConnectTransport(ctx, transportID, dtlsParameters)
}

// Produce creates a producer on the given transport. A connection owns at
// most one producer at a time: any prior producer owned by the same
// connection is closed and evicted first. On success the new producer is
// announced to every other member of the room.
//
// The registry lock is held across the engine call so that newProducer
// announcements within a room follow producer creation order.
func (r *Registry) Produce(
	ctx context.Context,
	transportID string,
	userID string,
	kind engine.MediaKind,
	rtpParameters json.RawMessage,
) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tr, ok := r.transports[transportID]
	if !ok {
		return "", errors.Newf(ErrTransportNotFound, "transport %s not found", transportID)
	}

	r.evictProducerLocked(ctx, tr.connID)

	producerID, err := r.eng.Produce(ctx, transportID, kind, rtpParameters)
	if err != nil {
		return "", err
	}

	r.producers[producerID] = &producerRecord{
		id:          producerID,
		transportID: transportID,
		connID:      tr.connID,
		roomID:      tr.roomID,
		userID:      userID,
	}
	r.roomProducers[tr.roomID] = append(r.roomProducers[tr.roomID], producerID)

	r.logger.Debug("Producer created",
		log.String("producerId", producerID),
		log.String("userId", userID),
		log.String("roomId", tr.roomID),
	)

	r.bcast.NotifyRoomExcept(tr.roomID, tr.connID, "newProducer", ProducerAnnouncement{
		ProducerID: producerID,
		UserID:     userID,
	})

	return producerID, nil
}

// evictProducerLocked closes and removes any producer owned by connID.
// Caller must hold r.mu.
func (r *Registry) evictProducerLocked(ctx context.Context, connID string) {
	for id, p := range r.producers {
		if p.connID != connID {
			continue
		}
		if err := r.eng.CloseProducer(ctx, id); err != nil {
			r.logger.Warn("Failed to close evicted producer",
				log.String("producerId", id),
				log.Error(err),
			)
		}
		r.removeProducerLocked(id, p)
	}
}

func (r *Registry) removeProducerLocked(id string, p *producerRecord) {
	delete(r.producers, id)
	order := r.roomProducers[p.roomID]
	for i, pid := range order {
		if pid == id {
			r.roomProducers[p.roomID] = append(order[:i], order[i+1:]...)
			break
		}
	}
	if len(r.roomProducers[p.roomID]) == 0 {
		delete(r.roomProducers, p.roomID)
	}
}

// Consume creates a consumer for producerID on the given transport, after
// the engine confirms the subscriber's capabilities are compatible.
func (r *Registry) Consume(
	ctx context.Context,
	transportID string,
	producerID string,
	rtpCapabilities json.RawMessage,
) (*engine.ConsumerInfo, error) {
	r.mu.Lock()
	tr, trOK := r.transports[transportID]
	_, prOK := r.producers[producerID]
	r.mu.Unlock()

	if !trOK {
		return nil, errors.Newf(ErrTransportNotFound, "transport %s not found", transportID)
	}
	if !prOK {
		return nil, errors.Newf(ErrProducerNotFound, "producer %s not found", producerID)
	}

	ok, err := r.eng.CanConsume(ctx, producerID, rtpCapabilities)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.Newf(ErrIncompatibleCapabilities,
			"cannot consume producer %s", producerID)
	}

	info, err := r.eng.Consume(ctx, transportID, producerID, rtpCapabilities)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.consumers[info.ID] = &consumerRecord{
		id:          info.ID,
		transportID: transportID,
		connID:      tr.connID,
	}
	r.mu.Unlock()

	r.logger.Debug("Consumer created",
		log.String("consumerId", info.ID),
		log.String("producerId", producerID),
	)
	return info, nil
}

// SendExistingProducers replays an existingProducer notification to connID
// for every live producer in the room except the connection's own, so a
// late joiner discovers already-publishing peers.
func (r *Registry) SendExistingProducers(connID, roomID string) {
	r.mu.Lock()
	var anns []ProducerAnnouncement
	for _, pid := range r.roomProducers[roomID] {
		p := r.producers[pid]
		if p == nil || p.connID == connID {
			continue
		}
		anns = append(anns, ProducerAnnouncement{ProducerID: p.id, UserID: p.userID})
	}
	r.mu.Unlock()

	for _, ann := range anns {
		r.bcast.NotifyConn(connID, "existingProducer", ann)
	}
}

// ReleaseForConnection closes and removes every consumer, producer and
// transport record owned by connID. Engine close failures are logged and
// skipped so teardown always completes.
func (r *Registry) ReleaseForConnection(ctx context.Context, connID string) {
	r.mu.Lock()

	var consumerIDs, producerIDs, transportIDs []string
	for id, c := range r.consumers {
		if c.connID == connID {
			consumerIDs = append(consumerIDs, id)
			delete(r.consumers, id)
		}
	}
	for id, p := range r.producers {
		if p.connID == connID {
			producerIDs = append(producerIDs, id)
			r.removeProducerLocked(id, p)
		}
	}
	for id, tr := range r.transports {
		if tr.connID == connID {
			transportIDs = append(transportIDs, id)
			delete(r.transports, id)
		}
	}
	r.mu.Unlock()

	for _, id := range consumerIDs {
		if err := r.eng.CloseConsumer(ctx, id); err != nil {
			r.logger.Warn("Failed to close consumer", log.String("consumerId", id), log.Error(err))
		}
	}
	for _, id := range producerIDs {
		if err := r.eng.CloseProducer(ctx, id); err != nil {
			r.logger.Warn("Failed to close producer", log.String("producerId", id), log.Error(err))
		}
	}
	for _, id := range transportIDs {
		if err := r.eng.CloseTransport(ctx, id); err != nil {
			r.logger.Warn("Failed to close transport", log.String("transportId", id), log.Error(err))
		}
	}

	if len(consumerIDs)+len(producerIDs)+len(transportIDs) > 0 {
		r.logger.Debug("Released media resources",
			log.String("connId", connID),
			log.Int("transports", len(transportIDs)),
			log.Int("producers", len(producerIDs)),
			log.Int("consumers", len(consumerIDs)),
		)
	}
}
