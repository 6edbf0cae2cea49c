package services

import (
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/toybot/teleop/pkg/config"
	customlog "github.com/toybot/teleop/pkg/log"
)

// ConfigPublisher notifies external subscribers that the teleop
// configuration changed. Declared here so the service does not depend on
// the concrete telemetry implementation.
type ConfigPublisher interface {
	PublishConfigUpdatedNotification() error
}

// TeleopConfigService manages the operational teleop configuration: the
// loaded copy, the on-disk file, and update notifications.
type TeleopConfigService interface {
	LoadConfig() error
	GetCurrentConfig() *config.Config
	GetCurrentConfigYAML() ([]byte, error)
	UpdateConfig(newConfigYAML []byte) error
	PersistConfig(yamlData []byte) error
	SetPublisher(p ConfigPublisher)
}

type teleopConfigService struct {
	configPath      string
	logger          customlog.Logger
	configPublisher ConfigPublisher
	currentConfig   *config.Config
	mu              sync.RWMutex
}

// NewTeleopConfigService creates a config service for the given file path
// and performs the initial load. The publisher can be injected later via
// SetPublisher.
func NewTeleopConfigService(configPath string, logger customlog.Logger) (TeleopConfigService, error) {
	if configPath == "" {
		return nil, fmt.Errorf("operational configuration path cannot be empty")
	}

	service := &teleopConfigService{
		configPath: configPath,
		logger:     logger,
	}

	if err := service.LoadConfig(); err != nil {
		return nil, err
	}

	logger.Infof("TeleopConfigService initialized for path: %s", configPath)
	return service, nil
}

// LoadConfig reads and validates the config file, replacing the in-memory
// copy on success.
func (s *teleopConfigService) LoadConfig() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.Infof("Loading operational configuration from: %s", s.configPath)
	cfg, err := config.LoadConfig(s.configPath)
	if err != nil {
		s.logger.Errorf("Failed to load operational config '%s': %v", s.configPath, err)
		return err
	}

	s.currentConfig = cfg
	s.logger.Infof("Loaded operational configuration ID: %s, Version: %s", cfg.ConfigID, cfg.Version)
	return nil
}

// GetCurrentConfig returns the currently loaded configuration. Treat it as
// read-only; modifications go through UpdateConfig.
func (s *teleopConfigService) GetCurrentConfig() *config.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentConfig
}

// GetCurrentConfigYAML returns the raw YAML content of the config file,
// for display in editing tools.
func (s *teleopConfigService) GetCurrentConfigYAML() ([]byte, error) {
	s.mu.RLock()
	path := s.configPath
	s.mu.RUnlock() // Unlock before file I/O

	data, err := os.ReadFile(path)
	if err != nil {
		s.logger.Errorf("Error reading operational config file '%s' for YAML export: %v", path, err)
		return nil, fmt.Errorf("error reading operational config file '%s': %w", path, err)
	}
	return data, nil
}

// UpdateConfig validates, persists and applies a new configuration, then
// publishes an update notification.
func (s *teleopConfigService) UpdateConfig(newConfigYAML []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var newCfg config.Config
	if err := yaml.Unmarshal(newConfigYAML, &newCfg); err != nil {
		s.logger.Errorf("Failed to parse provided YAML configuration: %v", err)
		return fmt.Errorf("invalid YAML format: %w", err)
	}
	if newCfg.ConfigID == "" || newCfg.Version == "" {
		return fmt.Errorf("validation failed: missing required fields (config_id, version)")
	}
	if err := newCfg.Validate(); err != nil {
		s.logger.Errorf("Provided configuration failed validation: %v", err)
		return err
	}

	// Persist before applying, so the in-memory copy never gets ahead of
	// the file.
	if err := s.persistConfigUnlocked(newConfigYAML); err != nil {
		return err
	}

	oldID := "N/A"
	if s.currentConfig != nil {
		oldID = s.currentConfig.ConfigID
	}
	s.currentConfig = &newCfg
	s.logger.Infof("Updated and persisted operational configuration. ID %s -> %s, Version: %s",
		oldID, newCfg.ConfigID, newCfg.Version)

	if s.configPublisher != nil {
		// Notify asynchronously so a slow subscriber cannot block the update.
		go func(publisher ConfigPublisher) {
			if err := publisher.PublishConfigUpdatedNotification(); err != nil {
				s.logger.Warnf("Failed to publish config update notification: %v", err)
			}
		}(s.configPublisher)
	}

	// Drive parameters and bindings are read once at session start; a
	// running session keeps its old parameters until restarted.
	return nil
}

// PersistConfig writes the given YAML data to the config file path.
func (s *teleopConfigService) PersistConfig(yamlData []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persistConfigUnlocked(yamlData)
}

func (s *teleopConfigService) persistConfigUnlocked(yamlData []byte) error {
	if err := os.WriteFile(s.configPath, yamlData, 0644); err != nil {
		s.logger.Errorf("Error writing operational config file '%s': %v", s.configPath, err)
		return fmt.Errorf("error writing operational config file '%s': %w", s.configPath, err)
	}
	s.logger.Infof("Persisted configuration to %s", s.configPath)
	return nil
}

// SetPublisher injects the ConfigPublisher after initialization.
func (s *teleopConfigService) SetPublisher(p ConfigPublisher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.configPublisher = p
}
