package engine

import (
	"context"
	"encoding/json"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/spf13/viper"

	"github.com/voxroom/voxroom/internal/errors"
	"github.com/voxroom/voxroom/internal/log"
)

const engineAPITimeout = 10 * time.Second

var client = resty.New().
	SetHeader("Content-Type", "application/json").
	SetTimeout(engineAPITimeout)

// Config holds the media worker endpoint settings.
type Config struct {
	BaseURL     string `mapstructure:"base_url"`
	AnnouncedIP string `mapstructure:"announced_ip"`
}

func Setup(v *viper.Viper, prefix string) {
	p := func(key string) string { return prefix + "." + key }

	v.SetDefault(p("base_url"), "http://localhost:3001")
	v.SetDefault(p("announced_ip"), "127.0.0.1")
}

// httpClient talks to the media worker sidecar over its HTTP control API.
// The worker owns a single audio router; all transports hang off it.
type httpClient struct {
	baseURL     string
	announcedIP string
	ready       atomic.Bool
	logger      *log.Logger
}

func NewClient(cfg *Config, logger *log.Logger) *httpClient {
	if logger == nil {
		panic("logger is required")
	}
	return &httpClient{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		announcedIP: cfg.AnnouncedIP,
		logger:      logger,
	}
}

func (e *httpClient) Ready() bool {
	return e.ready.Load()
}

// Initialize (re)creates the worker router. Safe to call repeatedly; the
// worker tears down a previous router of the same tag.
func (e *httpClient) Initialize(ctx context.Context) error {
	body := map[string]any{
		"mediaCodecs": []map[string]any{
			{
				"kind":      "audio",
				"mimeType":  "audio/opus",
				"clockRate": 48000,
				"channels":  2,
			},
		},
	}
	if _, err := e.post(ctx, "/router", body, nil); err != nil {
		e.ready.Store(false)
		return err
	}
	e.ready.Store(true)
	return nil
}

// Healthy probes the worker process.
func (e *httpClient) Healthy(ctx context.Context) error {
	resp, err := client.R().SetContext(ctx).Get(e.baseURL + "/health")
	if err != nil {
		e.ready.Store(false)
		return err
	}
	if resp.IsError() {
		e.ready.Store(false)
		return errors.Newf(ErrNoneSuccessResponse, "engine health: status %d", resp.StatusCode())
	}
	return nil
}

func (e *httpClient) RouterCapabilities(ctx context.Context) (json.RawMessage, error) {
	if !e.ready.Load() {
		return nil, errors.New(ErrNotReady, "router not initialised")
	}
	var payload struct {
		RtpCapabilities json.RawMessage `json:"rtpCapabilities"`
	}
	if err := e.get(ctx, "/router/rtp-capabilities", &payload); err != nil {
		return nil, err
	}
	if len(payload.RtpCapabilities) == 0 {
		return nil, errors.New(ErrInvalidResponse, "missing rtpCapabilities")
	}
	return payload.RtpCapabilities, nil
}

func (e *httpClient) CreateTransport(ctx context.Context) (*TransportInfo, error) {
	if !e.ready.Load() {
		return nil, errors.New(ErrNotReady, "router not initialised")
	}
	body := map[string]any{
		"listenIps": []map[string]any{
			{"ip": "0.0.0.0", "announcedIp": e.announcedIP},
		},
		"enableUdp": true,
		"enableTcp": true,
		"preferUdp": true,
	}
	var info TransportInfo
	if _, err := e.post(ctx, "/transports", body, &info); err != nil {
		return nil, err
	}
	if info.ID == "" {
		return nil, errors.New(ErrInvalidResponse, "transport missing id")
	}
	return &info, nil
}

func (e *httpClient) ConnectTransport(ctx context.Context, transportID string, dtlsParameters json.RawMessage) error {
	body := map[string]any{
		"dtlsParameters": dtlsParameters,
	}
	_, err := e.post(ctx, "/transports/"+transportID+"/connect", body, nil)
	return err
}

func (e *httpClient) Produce(
	ctx context.Context,
	transportID string,
	kind MediaKind,
	rtpParameters json.RawMessage,
) (string, error) {
	body := map[string]any{
		"kind":          kind,
		"rtpParameters": rtpParameters,
	}
	var payload struct {
		ID string `json:"id"`
	}
	if _, err := e.post(ctx, "/transports/"+transportID+"/producers", body, &payload); err != nil {
		return "", err
	}
	if payload.ID == "" {
		return "", errors.New(ErrInvalidResponse, "producer missing id")
	}
	return payload.ID, nil
}

func (e *httpClient) CanConsume(ctx context.Context, producerID string, rtpCapabilities json.RawMessage) (bool, error) {
	body := map[string]any{
		"producerId":      producerID,
		"rtpCapabilities": rtpCapabilities,
	}
	var payload struct {
		CanConsume bool `json:"canConsume"`
	}
	if _, err := e.post(ctx, "/router/can-consume", body, &payload); err != nil {
		return false, err
	}
	return payload.CanConsume, nil
}

func (e *httpClient) Consume(
	ctx context.Context,
	transportID, producerID string,
	rtpCapabilities json.RawMessage,
) (*ConsumerInfo, error) {
	body := map[string]any{
		"producerId":      producerID,
		"rtpCapabilities": rtpCapabilities,
		"paused":          false,
	}
	var info ConsumerInfo
	if _, err := e.post(ctx, "/transports/"+transportID+"/consumers", body, &info); err != nil {
		return nil, err
	}
	if info.ID == "" {
		return nil, errors.New(ErrInvalidResponse, "consumer missing id")
	}
	return &info, nil
}

func (e *httpClient) CloseTransport(ctx context.Context, transportID string) error {
	return e.del(ctx, "/transports/"+transportID)
}

func (e *httpClient) CloseProducer(ctx context.Context, producerID string) error {
	return e.del(ctx, "/producers/"+producerID)
}

func (e *httpClient) CloseConsumer(ctx context.Context, consumerID string) error {
	return e.del(ctx, "/consumers/"+consumerID)
}

func (e *httpClient) get(ctx context.Context, path string, result any) error {
	resp, err := client.R().
		SetContext(ctx).
		SetResult(result).
		Get(e.baseURL + path)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return errors.Newf(ErrNoneSuccessResponse, "engine http error: (code %d, path %s)", resp.StatusCode(), path)
	}
	return nil
}

func (e *httpClient) post(ctx context.Context, path string, body map[string]any, result any) (*resty.Response, error) {
	e.logger.Debug("engine req", log.String("path", path))

	req := client.R().SetContext(ctx).SetBody(body)
	if result != nil {
		req.SetResult(result)
	}
	resp, err := req.Post(e.baseURL + path)
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, errors.Newf(ErrNoneSuccessResponse, "engine http error: (code %d, path %s)", resp.StatusCode(), path)
	}
	e.logger.Debug("engine resp", log.String("path", path), log.Int("status", resp.StatusCode()))
	return resp, nil
}

func (e *httpClient) del(ctx context.Context, path string) error {
	resp, err := client.R().SetContext(ctx).Delete(e.baseURL + path)
	if err != nil {
		return err
	}
	// closing an already-gone resource is not an error
	if resp.IsError() && resp.StatusCode() != 404 {
		return errors.Newf(ErrNoneSuccessResponse, "engine http error: (code %d, path %s)", resp.StatusCode(), path)
	}
	return nil
}
