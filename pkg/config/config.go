package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the operational teleop configuration: which robot to drive, the
// drive parameters, and the controller binding tables. It is loaded at
// startup and read-only afterwards.
type Config struct {
	Version     string          `yaml:"version" json:"version"`
	ConfigID    string          `yaml:"config_id" json:"config_id"`
	LastUpdated string          `yaml:"lastUpdated" json:"lastUpdated"`
	RobotID     string          `yaml:"robot_id" json:"robot_id"`
	Robot       RobotConfig     `yaml:"robot" json:"robot"`
	Drive       DriveParameters `yaml:"drive" json:"drive"`
	Bindings    BindingsConfig  `yaml:"bindings" json:"bindings"`
}

// RobotConfig selects and addresses the vendor robot client.
type RobotConfig struct {
	// Driver names the client implementation; "sim" runs without hardware.
	Driver      string `yaml:"driver" json:"driver"`
	Address     string `yaml:"address,omitempty" json:"address,omitempty"`
	CameraColor bool   `yaml:"camera_color" json:"camera_color"`
}

// DriveParameters are the kinematic limits and control mode, fixed at
// startup.
type DriveParameters struct {
	// Mode is one of "arcade", "throttle_steer" or "direct".
	Mode string `yaml:"mode" json:"mode"`
	// MaxWheelSpeed is the wheel speed in mm/s a full-deflection input maps to.
	MaxWheelSpeed float64 `yaml:"max_wheel_speed" json:"max_wheel_speed"`
	// MaxHeadSpeed is the head motor speed in rad/s at full deflection.
	MaxHeadSpeed float64 `yaml:"max_head_speed" json:"max_head_speed"`
	// MaxLiftSpeed is the lift motor speed in mm/s at full deflection.
	MaxLiftSpeed float64 `yaml:"max_lift_speed" json:"max_lift_speed"`
	// LoopRateHz is the actuation dispatch rate; 0 means the default 20 Hz.
	LoopRateHz int `yaml:"loop_rate_hz" json:"loop_rate_hz"`
}

// BindingsConfig enumerates the controller bindings per device class.
type BindingsConfig struct {
	Defaults BindingDefaults `yaml:"defaults" json:"defaults"`
	Axes     []AxisBinding   `yaml:"axes" json:"axes"`
	Buttons  []ButtonBinding `yaml:"buttons" json:"buttons"`
}

// BindingDefaults fill fields left empty on individual bindings.
type BindingDefaults struct {
	Device   string  `yaml:"device" json:"device"`
	Deadband float64 `yaml:"deadband" json:"deadband"`
}

// AxisBinding maps one analog axis onto a semantic action name.
type AxisBinding struct {
	Device   string  `yaml:"device,omitempty" json:"device,omitempty"`
	Axis     int     `yaml:"axis" json:"axis"`
	Action   string  `yaml:"action" json:"action"`
	Scale    float64 `yaml:"scale,omitempty" json:"scale,omitempty"`
	Invert   bool    `yaml:"invert,omitempty" json:"invert,omitempty"`
	Deadband float64 `yaml:"deadband,omitempty" json:"deadband,omitempty"`
}

// ButtonBinding maps one button onto a semantic action name.
type ButtonBinding struct {
	Device string `yaml:"device,omitempty" json:"device,omitempty"`
	Button int    `yaml:"button" json:"button"`
	Action string `yaml:"action" json:"action"`
}

// LoadConfig loads and validates the operational configuration from path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks the fields the control loop cannot run without.
func (c *Config) Validate() error {
	if c.Drive.MaxWheelSpeed <= 0 {
		return fmt.Errorf("drive.max_wheel_speed must be positive, got %v", c.Drive.MaxWheelSpeed)
	}
	switch c.Drive.Mode {
	case "", "arcade", "throttle_steer", "direct":
	default:
		return fmt.Errorf("unknown drive.mode '%s'", c.Drive.Mode)
	}
	if c.Drive.LoopRateHz < 0 {
		return fmt.Errorf("drive.loop_rate_hz must not be negative, got %d", c.Drive.LoopRateHz)
	}
	for _, b := range c.Bindings.Axes {
		if b.Deadband < 0 || b.Deadband >= 1 {
			return fmt.Errorf("axis %d deadband must be in [0,1), got %v", b.Axis, b.Deadband)
		}
	}
	return nil
}

// AxisBindingsForDevice returns the axis bindings for a device class with
// defaults applied.
func (c *Config) AxisBindingsForDevice(device string) []AxisBinding {
	var result []AxisBinding
	for _, b := range c.Bindings.Axes {
		withDefaults := c.applyAxisDefaults(b)
		if withDefaults.Device == device {
			result = append(result, withDefaults)
		}
	}
	return result
}

func (c *Config) applyAxisDefaults(b AxisBinding) AxisBinding {
	result := b
	if result.Device == "" {
		result.Device = c.Bindings.Defaults.Device
	}
	if result.Deadband == 0 {
		result.Deadband = c.Bindings.Defaults.Deadband
	}
	if result.Scale == 0 {
		result.Scale = 1.0
	}
	return result
}
