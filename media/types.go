package media

// TransportKind distinguishes send-side from receive-side transports.
type TransportKind string

const (
	TransportProducer TransportKind = "producer"
	TransportConsumer TransportKind = "consumer"
)

// Broadcaster delivers media announcements to signaling connections.
// Satisfied by the gateway connection manager.
type Broadcaster interface {
	NotifyRoomExcept(roomID, exceptConnID, method string, data interface{})
	NotifyConn(connID, method string, data interface{})
}

// ProducerAnnouncement is the payload of newProducer / existingProducer
// notifications.
type ProducerAnnouncement struct {
	ProducerID string `json:"producerId"`
	UserID     string `json:"userId"`
}

type transportRecord struct {
	id     string
	kind   TransportKind
	connID string
	roomID string
}

type producerRecord struct {
	id          string
	transportID string
	connID      string
	roomID      string
	userID      string
}

type consumerRecord struct {
	id          string
	transportID string
	connID      string
}
