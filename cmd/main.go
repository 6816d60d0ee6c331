package main

import (
	"context"
	"net/http"

	"github.com/spf13/viper"

	"github.com/voxroom/voxroom/directory"
	"github.com/voxroom/voxroom/gateway"
	"github.com/voxroom/voxroom/internal/config"
	"github.com/voxroom/voxroom/internal/engine"
	"github.com/voxroom/voxroom/internal/httputil"
	wsrpc "github.com/voxroom/voxroom/internal/jsonrpc/websocket"
	"github.com/voxroom/voxroom/internal/jwt"
	"github.com/voxroom/voxroom/internal/log"
	"github.com/voxroom/voxroom/internal/openai"
	"github.com/voxroom/voxroom/internal/scheduler"
	"github.com/voxroom/voxroom/internal/workflow"
	"github.com/voxroom/voxroom/media"
	"github.com/voxroom/voxroom/room"
	"github.com/voxroom/voxroom/turn"
)

type Config struct {
	App    config.App      `mapstructure:"app"`
	HTTP   httputil.Config `mapstructure:"http"`
	Engine engine.Config   `mapstructure:"engine"`
	OpenAI openai.Config   `mapstructure:"openai"`

	// empty secret admits every connection as an anonymous user
	JWTSecret string `mapstructure:"jwt_secret"`

	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

func loadConfig() (*Config, error) {
	return config.Load(&Config{}, func(v *viper.Viper) {
		v.SetDefault("jwt_secret", "")
		v.SetDefault("allowed_origins", []string{"*"})

		config.Setup(v, "app")
		httputil.Setup(v, "http")
		engine.Setup(v, "engine")
		openai.Setup(v, "openai")

		// override default addrs to ease testing
		v.SetDefault("http.addr", "0.0.0.0:3000")
	})
}

func main() {
	config, err := loadConfig()
	if err != nil {
		log.Fatal("Failed to load configuration", err)
	}

	logger, err := log.NewLogger(config.App.LogConfigFile)
	if err != nil {
		log.Fatal("Failed to create logger", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()

	logger.Info("Starting voice room server",
		log.String("addr", config.HTTP.Addr),
		log.String("engineUrl", config.Engine.BaseURL))

	eng := engine.NewClient(&config.Engine, logger.Module("Engine"))
	monitor := engine.NewMonitor(eng, logger.Module("EngineMon"))

	aiClient, err := openai.NewClient(&config.OpenAI, logger.Module("OpenAI"))
	if err != nil {
		logger.Fatal("Failed to create OpenAI client", log.Error(err))
	}

	var jwtAuth jwt.Auth
	if config.JWTSecret != "" {
		jwtAuth = jwt.NewAuth(config.JWTSecret)
	}

	// Create components
	dir := directory.New(logger.Module("Directory"))
	rooms := room.NewManager(dir, logger.Module("Rooms"))
	sched := scheduler.NewKeyedScheduler(logger.Module("Scheduler"))
	connMgr := gateway.NewConnManager(logger.Module("ConnMgr"))
	registry := media.NewRegistry(eng, connMgr, logger.Module("Media"))
	coordinator := turn.NewCoordinator(
		rooms,
		dir,
		sched,
		aiClient,
		aiClient,
		connMgr,
		logger.Module("Turn"),
	)
	cleaner := gateway.NewCleaner(
		dir,
		rooms,
		registry,
		coordinator,
		connMgr,
		logger.Module("Cleanup"),
	)

	hook := gateway.NewWSHook(
		connMgr,
		dir,
		cleaner,
		jwtAuth,
		logger.Module("WSHook"),
	)
	wsRPCServer := wsrpc.NewServer(
		hook,
		config.AllowedOrigins,
		logger.Module("WSRPC"),
	)
	signalServer := gateway.NewServer(
		wsRPCServer,
		dir,
		rooms,
		registry,
		coordinator,
		aiClient,
		connMgr,
		logger.Module("Signal"),
	)
	restRouter := gateway.NewRouter(
		dir,
		rooms,
		eng,
		config.AllowedOrigins,
		logger.Module("REST"),
	)

	// Start components
	if err := monitor.Start(ctx); err != nil {
		logger.Fatal("Failed to initialize media engine", log.Error(err))
	}
	coordinator.Start()
	if err := signalServer.Open(ctx); err != nil {
		logger.Fatal("Failed to open signaling server", log.Error(err))
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wsRPCServer.HandleWebSocket)
	mux.Handle("/", restRouter.Handler())
	server := httputil.NewServer(&config.HTTP, mux)

	go func() {
		logger.Info("Starting HTTP server", log.String("addr", config.HTTP.Addr))
		if err := server.Listen(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start HTTP server", log.Error(err))
		}
	}()

	// Graceful shutdown
	cleanup := func(ctx context.Context) {
		_ = server.Shutdown(ctx)

		_ = signalServer.Close()
		coordinator.Stop()
		monitor.Stop()
	}
	workflow.WaitGracefulShutdown(ctx, logger.Module("CleanUp"), cleanup, config.App.ShutdownTimeout)
}
