package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// BootstrapConfig holds the initial configuration loaded from
// teleop_bootstrap.yaml: everything needed before the operational teleop
// config is available.
type BootstrapConfig struct {
	Logging   LoggingConfig         `yaml:"logging"`
	Server    BootstrapServerConfig `yaml:"server"`
	Telemetry TelemetryBootstrap    `yaml:"telemetry"`
	Camera    CameraBootstrap       `yaml:"camera"`
	Data      DataConfig            `yaml:"data"`
}

// LoggingConfig holds logging settings from bootstrap.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogPath string `yaml:"log_path,omitempty"`
}

// BootstrapServerConfig holds bootstrap HTTP server settings.
type BootstrapServerConfig struct {
	HTTPPort int `yaml:"http_port"`
}

// TelemetryBootstrap holds the ZeroMQ telemetry bind addresses.
type TelemetryBootstrap struct {
	PublishBindAddress string `yaml:"publish_bind_address"`
	RequestBindAddress string `yaml:"request_bind_address"`
}

// CameraBootstrap sizes the camera relay queues.
type CameraBootstrap struct {
	QueueSize        int `yaml:"queue_size"`
	SubscriberBuffer int `yaml:"subscriber_buffer"`
}

// DataConfig holds data directory settings from bootstrap.
type DataConfig struct {
	Directory            string `yaml:"directory"`
	TeleopConfigFilename string `yaml:"teleop_config_file"`
}

// LoadBootstrapConfig loads the bootstrap configuration from
// teleop_bootstrap.yaml in configDir.
func LoadBootstrapConfig(configDir string) (*BootstrapConfig, error) {
	bootstrapConfigPath := filepath.Join(configDir, "teleop_bootstrap.yaml")

	data, err := os.ReadFile(bootstrapConfigPath)
	if err != nil {
		return nil, fmt.Errorf("error reading bootstrap config file '%s': %w", bootstrapConfigPath, err)
	}

	var bootstrapCfg BootstrapConfig
	if err := yaml.Unmarshal(data, &bootstrapCfg); err != nil {
		return nil, fmt.Errorf("error parsing bootstrap config file '%s': %w", bootstrapConfigPath, err)
	}

	if bootstrapCfg.Telemetry.PublishBindAddress == "" {
		return nil, fmt.Errorf("missing required field in bootstrap config: telemetry.publish_bind_address")
	}
	if bootstrapCfg.Telemetry.RequestBindAddress == "" {
		return nil, fmt.Errorf("missing required field in bootstrap config: telemetry.request_bind_address")
	}
	if bootstrapCfg.Data.Directory == "" {
		return nil, fmt.Errorf("missing required field in bootstrap config: data.directory")
	}
	if bootstrapCfg.Data.TeleopConfigFilename == "" {
		return nil, fmt.Errorf("missing required field in bootstrap config: data.teleop_config_file")
	}

	return &bootstrapCfg, nil
}
