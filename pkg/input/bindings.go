package input

import (
	"fmt"

	"github.com/toybot/teleop/pkg/config"
	"github.com/toybot/teleop/pkg/drive"
)

// AxisBinding maps one analog axis onto a semantic action. Scale and Invert
// apply after deadbanding, so a binding's output always spans [-Scale, Scale].
type AxisBinding struct {
	Action   Action
	Scale    float64
	Invert   bool
	Deadband float64
}

// ButtonBinding maps one button onto a semantic action, fired on press.
type ButtonBinding struct {
	Action Action
}

type key struct {
	device string
	code   int
}

// Table is the declarative (device, code) -> binding lookup. It is built
// once from configuration and read-only afterwards.
type Table struct {
	axes    map[key]AxisBinding
	buttons map[key]ButtonBinding
}

// NewTable creates an empty binding table.
func NewTable() *Table {
	return &Table{
		axes:    make(map[key]AxisBinding),
		buttons: make(map[key]ButtonBinding),
	}
}

// BindAxis registers an axis binding for a device class and axis code.
func (t *Table) BindAxis(device string, code int, b AxisBinding) {
	if b.Scale == 0 {
		b.Scale = 1.0
	}
	t.axes[key{device, code}] = b
}

// BindButton registers a button binding for a device class and button code.
func (t *Table) BindButton(device string, code int, action Action) {
	t.buttons[key{device, code}] = ButtonBinding{Action: action}
}

// Axis looks up the binding for an axis event.
func (t *Table) Axis(device string, code int) (AxisBinding, bool) {
	b, ok := t.axes[key{device, code}]
	return b, ok
}

// Button looks up the binding for a button event.
func (t *Table) Button(device string, code int) (ButtonBinding, bool) {
	b, ok := t.buttons[key{device, code}]
	return b, ok
}

// ApplyDeadband zeroes v inside the symmetric band [-radius, radius] and
// linearly rescales the remainder so the output still spans [-1, 1].
func ApplyDeadband(v, radius float64) float64 {
	v = drive.Clamp(v, -1.0, 1.0)
	if radius <= 0 {
		return v
	}
	if radius >= 1 {
		return 0
	}
	switch {
	case v > radius:
		return (v - radius) / (1.0 - radius)
	case v < -radius:
		return (v + radius) / (1.0 - radius)
	default:
		return 0
	}
}

// BuildTable constructs a binding table from the bindings section of the
// teleop configuration, applying the configured defaults to entries that
// leave device or deadband unset.
func BuildTable(cfg config.BindingsConfig) (*Table, error) {
	t := NewTable()

	for _, ab := range cfg.Axes {
		action, ok := ParseAction(ab.Action)
		if !ok {
			return nil, fmt.Errorf("unknown axis action '%s' (device %s, axis %d)", ab.Action, ab.Device, ab.Axis)
		}
		device := ab.Device
		if device == "" {
			device = cfg.Defaults.Device
		}
		deadband := ab.Deadband
		if deadband == 0 {
			deadband = cfg.Defaults.Deadband
		}
		scale := ab.Scale
		if scale == 0 {
			scale = 1.0
		}
		t.BindAxis(device, ab.Axis, AxisBinding{
			Action:   action,
			Scale:    scale,
			Invert:   ab.Invert,
			Deadband: deadband,
		})
	}

	for _, bb := range cfg.Buttons {
		action, ok := ParseAction(bb.Action)
		if !ok {
			return nil, fmt.Errorf("unknown button action '%s' (device %s, button %d)", bb.Action, bb.Device, bb.Button)
		}
		device := bb.Device
		if device == "" {
			device = cfg.Defaults.Device
		}
		t.BindButton(device, bb.Button, action)
	}

	return t, nil
}
