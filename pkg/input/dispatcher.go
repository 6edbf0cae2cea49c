package input

import (
	customlog "github.com/toybot/teleop/pkg/log"
	"github.com/toybot/teleop/pkg/robot"
)

// Dispatcher routes controller events through the binding table into a
// DriveState. Events without a binding are ignored, which decouples device
// quirks from the kinematic core: an unknown axis is just noise.
type Dispatcher struct {
	table  *Table
	state  *DriveState
	logger customlog.Logger
}

// NewDispatcher creates a dispatcher over the given table and state.
func NewDispatcher(table *Table, state *DriveState, logger customlog.Logger) *Dispatcher {
	return &Dispatcher{
		table:  table,
		state:  state,
		logger: logger,
	}
}

// Handle processes one controller event.
func (d *Dispatcher) Handle(ev Event) {
	switch ev.Kind {
	case EventAxis:
		d.handleAxis(ev)
	case EventButton:
		d.handleButton(ev)
	default:
		d.logger.Debugf("Ignoring event of unknown kind %d (device %s, code %d)", ev.Kind, ev.Device, ev.Code)
	}
}

func (d *Dispatcher) handleAxis(ev Event) {
	binding, ok := d.table.Axis(ev.Device, ev.Code)
	if !ok {
		d.logger.Debugf("No binding for axis %d on device '%s'", ev.Code, ev.Device)
		return
	}

	value := ApplyDeadband(ev.Value, binding.Deadband) * binding.Scale
	if binding.Invert {
		value = -value
	}

	d.state.SetAxis(binding.Action, value)
	d.logger.Debugf("Axis %d (%s) -> %s = %.3f", ev.Code, ev.Device, binding.Action, value)
}

func (d *Dispatcher) handleButton(ev Event) {
	binding, ok := d.table.Button(ev.Device, ev.Code)
	if !ok {
		d.logger.Debugf("No binding for button %d on device '%s'", ev.Code, ev.Device)
		return
	}

	// Single-shot actions fire on press only; releases are informational.
	if !ev.Pressed {
		return
	}

	switch binding.Action {
	case ActionExpressionHappy:
		d.state.SetIntent(Intent{Kind: IntentExpression, Expression: robot.ExpressionHappy})
	case ActionExpressionAngry:
		d.state.SetIntent(Intent{Kind: IntentExpression, Expression: robot.ExpressionAngry})
	case ActionExpressionSad:
		d.state.SetIntent(Intent{Kind: IntentExpression, Expression: robot.ExpressionSad})
	case ActionExpressionRandom:
		d.state.SetIntent(Intent{Kind: IntentExpression, Expression: robot.ExpressionRandom})
	case ActionSound:
		d.state.SetIntent(Intent{Kind: IntentSound})
	case ActionQuit:
		d.state.SetIntent(Intent{Kind: IntentQuit})
	default:
		d.logger.Warnf("Button %d on device '%s' bound to non-button action %s", ev.Code, ev.Device, binding.Action)
	}

	d.logger.Debugf("Button %d (%s) -> %s", ev.Code, ev.Device, binding.Action)
}
