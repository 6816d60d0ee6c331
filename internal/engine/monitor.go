package engine

import (
	"context"
	"time"

	"github.com/voxroom/voxroom/internal/log"
	"github.com/voxroom/voxroom/internal/retry"
)

const (
	healthCheckInterval = 5 * time.Second
	healthCheckTimeout  = 5 * time.Second
	reinitDelay         = 2 * time.Second
	reinitMaxElapsed    = 0 // retry forever, the worker is expected to come back
)

// Monitor keeps the worker router alive. When the health probe fails the
// router is marked unusable and re-initialised after a fixed delay,
// independently of any in-flight signaling request.
type Monitor struct {
	client  *httpClient
	retry   retry.Retry
	cancel  context.CancelFunc
	stopped chan struct{}
	logger  *log.Logger
}

func NewMonitor(client *httpClient, logger *log.Logger) *Monitor {
	return &Monitor{
		client:  client,
		retry:   retry.New(logger, reinitDelay, reinitDelay, reinitMaxElapsed),
		stopped: make(chan struct{}),
		logger:  logger,
	}
}

// Start initialises the router and begins the health loop.
func (m *Monitor) Start(ctx context.Context) error {
	m.logger.Info("Initializing media engine router...")

	ctx, m.cancel = context.WithCancel(ctx)
	if err := m.client.Initialize(ctx); err != nil {
		return err
	}

	go m.healthLoop(ctx)

	m.logger.Info("Media engine router initialized")
	return nil
}

func (m *Monitor) Stop() {
	if m.cancel != nil {
		m.cancel()
		<-m.stopped
	}
}

func (m *Monitor) healthLoop(ctx context.Context) {
	ticker := time.NewTicker(healthCheckInterval)
	defer close(m.stopped)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.checkHealth(ctx)
		}
	}
}

func (m *Monitor) checkHealth(ctx context.Context) {
	probeCtx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	if err := m.client.Healthy(probeCtx); err == nil {
		return
	}

	m.logger.Warn("Media engine worker unhealthy, reinitializing")
	if err := m.retry.Do(ctx, func() error {
		return m.client.Initialize(ctx)
	}); err != nil {
		m.logger.Error("Failed to reinitialize media engine", log.Error(err))
		return
	}
	m.logger.Info("Media engine router reinitialized")
}
