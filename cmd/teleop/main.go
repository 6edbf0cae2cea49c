package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/toybot/teleop/domain/diagnostic"
	"github.com/toybot/teleop/domain/teleop"
	"github.com/toybot/teleop/pkg/api"
	"github.com/toybot/teleop/pkg/camera"
	"github.com/toybot/teleop/pkg/config"
	"github.com/toybot/teleop/pkg/input"
	customlog "github.com/toybot/teleop/pkg/log"
	"github.com/toybot/teleop/pkg/robot"
	"github.com/toybot/teleop/pkg/telemetry"
	"github.com/toybot/teleop/services"
)

const connectTimeout = 10 * time.Second

func main() {
	// Bootstrap config decides logging and socket addresses before anything
	// else comes up.
	configDir := os.Getenv("TELEOP_CONFIG_DIR")
	if configDir == "" {
		configDir = "config"
	}

	bootstrapCfg, err := config.LoadBootstrapConfig(configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load bootstrap config: %v\n", err)
		os.Exit(1)
	}

	log, err := customlog.NewLogrusLogger(bootstrapCfg.Logging.Level, bootstrapCfg.Logging.LogPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	log.Infof("Toybot teleop controller starting")

	// Operational config: robot selection, drive parameters, bindings.
	teleopConfigPath := filepath.Join(bootstrapCfg.Data.Directory, bootstrapCfg.Data.TeleopConfigFilename)
	configService, err := services.NewTeleopConfigService(teleopConfigPath, log)
	if err != nil {
		log.Fatalf("Failed to initialize config service: %v", err)
	}
	cfg := configService.GetCurrentConfig()

	table, err := input.BuildTable(cfg.Bindings)
	if err != nil {
		log.Fatalf("Invalid controller bindings: %v", err)
	}
	state := input.NewDriveState()
	dispatcher := input.NewDispatcher(table, state, log)

	// Robot client.
	client, err := newRobotClient(cfg.Robot, log)
	if err != nil {
		log.Fatalf("Failed to create robot client: %v", err)
	}

	// Camera relay feeds websocket viewers from the robot's frame stream.
	relay := camera.NewRelay(bootstrapCfg.Camera.QueueSize, bootstrapCfg.Camera.SubscriberBuffer, log)
	relay.Start()
	client.AddFrameHandler(func(frame robot.Frame) {
		relay.Submit(frame)
	})

	connectCtx, cancelConnect := context.WithTimeout(context.Background(), connectTimeout)
	err = client.Connect(connectCtx)
	cancelConnect()
	if err != nil {
		log.Fatalf("Failed to connect to robot: %v", err)
	}

	// Telemetry service.
	telemetryService, err := telemetry.NewService(
		bootstrapCfg.Telemetry.PublishBindAddress,
		bootstrapCfg.Telemetry.RequestBindAddress,
		log,
	)
	if err != nil {
		log.Fatalf("Failed to initialize telemetry service: %v", err)
	}

	configPublisher := telemetry.NewConfigPublisher(telemetryService, configService.GetCurrentConfig, log)
	configService.SetPublisher(configPublisher)
	telemetryService.RegisterHandler(telemetry.MsgTypeConfigRequest,
		telemetry.NewConfigHandler(configService.GetCurrentConfig, log))

	statsService := diagnostic.NewStatsService()
	telemetryService.RegisterHandler(telemetry.MsgTypeStateRequest,
		telemetry.NewStateHandler(func() interface{} {
			return statsService.Snapshot()
		}, log))

	if err := telemetryService.Start(); err != nil {
		log.Fatalf("Failed to start telemetry service: %v", err)
	}

	// Teleop session.
	sink := robot.NewMotorSink(client, log)
	session, err := teleop.NewSession(cfg.Drive, state, sink, client, statsService, log)
	if err != nil {
		log.Fatalf("Failed to create teleop session: %v", err)
	}
	session.SetPublisher(telemetryService)
	if err := session.Start(); err != nil {
		log.Fatalf("Failed to start teleop session: %v", err)
	}

	// HTTP surface.
	app := fiber.New(fiber.Config{
		AppName:      "Toybot Teleop Controller",
		ErrorHandler: customErrorHandler,
	})
	app.Use(logger.New())
	app.Use(recover.New())

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "online",
			"service": "toybot teleop controller",
			"robot":   cfg.RobotID,
		})
	})
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "healthy"})
	})

	apiGroup := app.Group("/api")
	apiGroup.Get("/diagnostics", statsService.GetStatsHandler)
	apiGroup.Get("/diagnostics/camera", func(c *fiber.Ctx) error {
		metrics := relay.GetMetrics()
		return c.JSON(fiber.Map{
			"status":           "success",
			"subscribers":      relay.SubscriberCount(),
			"frames_received":  metrics.ReceivedCount,
			"frames_delivered": metrics.DeliveredCount,
			"frames_dropped":   metrics.DroppedCount,
		})
	})

	api.RegisterConfigRoutes(app, configService, log)

	// Websocket endpoints require an upgrade check before the handler.
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/control", websocket.New(func(conn *websocket.Conn) {
		api.ControlWebSocketHandler(conn, dispatcher, log)
	}))
	app.Get("/ws/camera", websocket.New(func(conn *websocket.Conn) {
		api.CameraWebSocketHandler(conn, relay, log)
	}))

	port := bootstrapCfg.Server.HTTPPort
	if port == 0 {
		port = 8080
	}

	go func() {
		log.Infof("HTTP server starting on port %d", port)
		if err := app.Listen(fmt.Sprintf(":%d", port)); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Run until a signal arrives or the operator quits from the controller.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Infof("Received signal %v, shutting down", sig)
	case <-session.Done():
		log.Infof("Teleop session ended, shutting down")
	}

	// Shutdown order: stop commanding motors first, then the ancillary
	// services, then the robot link, then the HTTP server.
	session.Stop()
	telemetryService.Stop()
	relay.Stop()

	if err := client.Close(); err != nil {
		log.Errorf("Error closing robot client: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Errorf("Server forced to shutdown: %v", err)
	}

	log.Infof("Controller exited properly")
}

// newRobotClient selects the vendor client implementation.
func newRobotClient(cfg config.RobotConfig, log customlog.Logger) (robot.Client, error) {
	switch cfg.Driver {
	case "", "sim":
		return robot.NewSimulator(log), nil
	default:
		return nil, fmt.Errorf("unknown robot driver '%s'", cfg.Driver)
	}
}

// customErrorHandler renders every unhandled route error as JSON.
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
	})
}
