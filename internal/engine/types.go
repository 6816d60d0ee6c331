package engine

import (
	"context"
	"encoding/json"
)

// MediaKind is the media type carried by a producer or consumer.
type MediaKind string

const (
	KindAudio MediaKind = "audio"
	KindVideo MediaKind = "video"
)

// Engine is the narrow contract against the external media-routing worker.
// Codec negotiation, ICE/DTLS and RTP handling all live on the other side of
// this interface; the signaling layer only brokers opaque parameter blobs.
type Engine interface {
	// Ready reports whether the worker router is initialised and usable.
	Ready() bool

	// RouterCapabilities returns the router RTP capabilities blob for the
	// client-side capability exchange.
	RouterCapabilities(ctx context.Context) (json.RawMessage, error)

	// CreateTransport allocates a WebRTC transport on the router and returns
	// the connection parameters the client needs to complete the handshake.
	CreateTransport(ctx context.Context) (*TransportInfo, error)

	// ConnectTransport finishes the DTLS handshake for a transport.
	ConnectTransport(ctx context.Context, transportID string, dtlsParameters json.RawMessage) error

	// Produce creates a producer on a connected transport.
	Produce(ctx context.Context, transportID string, kind MediaKind, rtpParameters json.RawMessage) (string, error)

	// CanConsume asks the router whether the given capabilities are
	// compatible with the producer's negotiated parameters.
	CanConsume(ctx context.Context, producerID string, rtpCapabilities json.RawMessage) (bool, error)

	// Consume creates a consumer for a remote producer on a connected
	// transport.
	Consume(ctx context.Context, transportID, producerID string, rtpCapabilities json.RawMessage) (*ConsumerInfo, error)

	CloseTransport(ctx context.Context, transportID string) error
	CloseProducer(ctx context.Context, producerID string) error
	CloseConsumer(ctx context.Context, consumerID string) error
}

// TransportInfo carries the handshake parameters of a freshly created
// transport back to the requesting client.
type TransportInfo struct {
	ID             string          `json:"id"`
	IceParameters  json.RawMessage `json:"iceParameters"`
	IceCandidates  json.RawMessage `json:"iceCandidates"`
	DtlsParameters json.RawMessage `json:"dtlsParameters"`
}

// ConsumerInfo describes a created consumer, echoed to the subscribing client.
type ConsumerInfo struct {
	ID            string          `json:"id"`
	ProducerID    string          `json:"producerId"`
	Kind          MediaKind       `json:"kind"`
	RtpParameters json.RawMessage `json:"rtpParameters"`
}
