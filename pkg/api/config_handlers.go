package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	customlog "github.com/toybot/teleop/pkg/log"
	"github.com/toybot/teleop/services"
)

// ConfigHandler holds dependencies for configuration API endpoints.
type ConfigHandler struct {
	configService services.TeleopConfigService
	logger        customlog.Logger
}

// NewConfigHandler creates a new handler for configuration endpoints.
func NewConfigHandler(configService services.TeleopConfigService, logger customlog.Logger) *ConfigHandler {
	if configService == nil {
		panic("ConfigService cannot be nil in NewConfigHandler")
	}
	if logger == nil {
		panic("Logger cannot be nil in NewConfigHandler")
	}
	return &ConfigHandler{
		configService: configService,
		logger:        logger,
	}
}

// RegisterConfigRoutes registers the configuration API endpoints with the
// Fiber app.
func RegisterConfigRoutes(app *fiber.App, configService services.TeleopConfigService, logger customlog.Logger) {
	h := NewConfigHandler(configService, logger)

	apiGroup := app.Group("/api/v1/config")
	apiGroup.Get("/teleop", h.handleGetTeleopConfig)
	apiGroup.Put("/teleop", h.handleUpdateTeleopConfig)

	logger.Infof("Registered teleop configuration API endpoints under /api/v1/config")
}

// handleGetTeleopConfig returns the current teleop config as raw YAML.
func (h *ConfigHandler) handleGetTeleopConfig(c *fiber.Ctx) error {
	h.logger.Debugf("Handling GET request for /api/v1/config/teleop")
	yamlData, err := h.configService.GetCurrentConfigYAML()
	if err != nil {
		h.logger.Errorf("Failed to get current teleop config YAML: %v", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{
			"error": fmt.Sprintf("Failed to retrieve configuration: %v", err),
		})
	}

	if len(yamlData) == 0 {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{
			"error": "Teleop configuration not found or not yet set.",
		})
	}

	c.Set(fiber.HeaderContentType, "application/x-yaml")
	return c.Send(yamlData)
}

// handleUpdateTeleopConfig replaces the teleop config from a YAML body.
func (h *ConfigHandler) handleUpdateTeleopConfig(c *fiber.Ctx) error {
	h.logger.Debugf("Handling PUT request for /api/v1/config/teleop")

	contentType := c.Get(fiber.HeaderContentType)
	if contentType != "application/x-yaml" && contentType != "application/yaml" && contentType != "text/yaml" {
		// Tolerated, but worth noticing in the logs.
		h.logger.Warnf("Received PUT request with unexpected Content-Type: %s", contentType)
	}

	newConfigYAML := c.Body()
	if len(newConfigYAML) == 0 {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{
			"error": "Request body cannot be empty.",
		})
	}

	if err := h.configService.UpdateConfig(newConfigYAML); err != nil {
		h.logger.Errorf("Failed to update teleop configuration: %v", err)
		if isValidationError(err) {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{
				"error": fmt.Sprintf("Configuration update failed: %v", err),
			})
		}
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{
			"error": fmt.Sprintf("Internal server error during configuration update: %v", err),
		})
	}

	h.logger.Infof("Teleop configuration updated via API")
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"message": "Teleop configuration updated. Drive parameters apply on next session start.",
	})
}

func isValidationError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "invalid YAML format") ||
		strings.Contains(msg, "validation failed") ||
		strings.Contains(msg, "must be") ||
		strings.Contains(msg, "unknown drive.mode")
}
