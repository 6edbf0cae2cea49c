package telemetry

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/toybot/teleop/pkg/config"
	customlog "github.com/toybot/teleop/pkg/log"
)

// ConfigHandler answers CONFIG_REQUEST messages with the current teleop
// configuration. The provider indirection keeps the response current when
// the configuration is updated at runtime.
type ConfigHandler struct {
	provider func() *config.Config
	logger   customlog.Logger
}

// NewConfigHandler creates a handler for configuration requests.
func NewConfigHandler(provider func() *config.Config, logger customlog.Logger) *ConfigHandler {
	return &ConfigHandler{
		provider: provider,
		logger:   logger,
	}
}

// HandleMessage processes a CONFIG_REQUEST and returns a CONFIG_RESPONSE.
func (h *ConfigHandler) HandleMessage(data []byte) ([]byte, error) {
	var msg Envelope
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}

	if msg.Type != MsgTypeConfigRequest {
		return nil, fmt.Errorf("unexpected message type: %s", msg.Type)
	}

	h.logger.Debugf("Processing configuration request")

	response := Envelope{
		Type:      MsgTypeConfigResponse,
		Timestamp: float64(time.Now().Unix()),
		Data:      h.provider(),
	}

	responseData, err := json.Marshal(response)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize response: %w", err)
	}

	return responseData, nil
}

// StateProvider supplies the session state payload for STATE_REQUEST
// responses.
type StateProvider func() interface{}

// StateHandler answers STATE_REQUEST messages with a snapshot of the
// current session state.
type StateHandler struct {
	provider StateProvider
	logger   customlog.Logger
}

// NewStateHandler creates a handler for session state requests.
func NewStateHandler(provider StateProvider, logger customlog.Logger) *StateHandler {
	return &StateHandler{
		provider: provider,
		logger:   logger,
	}
}

// HandleMessage processes a STATE_REQUEST and returns a STATE_RESPONSE.
func (h *StateHandler) HandleMessage(data []byte) ([]byte, error) {
	var msg Envelope
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}

	if msg.Type != MsgTypeStateRequest {
		return nil, fmt.Errorf("unexpected message type: %s", msg.Type)
	}

	response := Envelope{
		Type:      MsgTypeStateResponse,
		Timestamp: float64(time.Now().Unix()),
		Data:      h.provider(),
	}

	responseData, err := json.Marshal(response)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize response: %w", err)
	}

	return responseData, nil
}

// ConfigPublisher publishes configuration updates and change notifications
// on the PUB socket.
type ConfigPublisher struct {
	service  *Service
	provider func() *config.Config
	logger   customlog.Logger
}

// NewConfigPublisher creates a publisher for configuration updates.
func NewConfigPublisher(service *Service, provider func() *config.Config, logger customlog.Logger) *ConfigPublisher {
	return &ConfigPublisher{
		service:  service,
		provider: provider,
		logger:   logger,
	}
}

// PublishConfigUpdate publishes the full current configuration.
func (p *ConfigPublisher) PublishConfigUpdate() error {
	cfg := p.provider()
	if cfg == nil {
		return fmt.Errorf("no configuration loaded")
	}
	p.logger.Infof("Publishing configuration update (ID: %s)", cfg.ConfigID)
	return p.service.PublishJSON("configuration.update", MsgTypeConfigResponse, cfg)
}

// PublishConfigUpdatedNotification publishes a minimal change notification.
func (p *ConfigPublisher) PublishConfigUpdatedNotification() error {
	cfg := p.provider()
	if cfg == nil {
		return fmt.Errorf("no configuration loaded")
	}

	notification := map[string]interface{}{
		"config_id":    cfg.ConfigID,
		"version":      cfg.Version,
		"last_updated": cfg.LastUpdated,
	}

	return p.service.PublishJSON("configuration.notification", "CONFIG_UPDATED", notification)
}
