package input

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toybot/teleop/pkg/robot"
)

// nopLogger discards everything; dispatcher tests only care about state.
type nopLogger struct{}

func (nopLogger) Debugf(string, ...interface{}) {}
func (nopLogger) Infof(string, ...interface{}) {}
func (nopLogger) Warnf(string, ...interface{}) {}
func (nopLogger) Errorf(string, ...interface{}) {}
func (nopLogger) Fatalf(string, ...interface{}) {}

func testTable(t *testing.T) *Table {
	t.Helper()
	table := NewTable()
	table.BindAxis("gamepad", 1, AxisBinding{Action: ActionForward, Invert: true, Deadband: 0.1})
	table.BindAxis("gamepad", 0, AxisBinding{Action: ActionTurn, Deadband: 0.1})
	table.BindAxis("gamepad", 3, AxisBinding{Action: ActionHead, Scale: 0.5})
	table.BindButton("gamepad", 0, ActionExpressionHappy)
	table.BindButton("gamepad", 2, ActionExpressionRandom)
	table.BindButton("gamepad", 5, ActionSound)
	table.BindButton("gamepad", 7, ActionQuit)
	return table
}

func TestDispatcherRoutesAxes(t *testing.T) {
	state := NewDriveState()
	d := NewDispatcher(testTable(t), state, nopLogger{})

	// Stick pushed up reports a negative Y; the invert flag flips it so
	// forward means forward.
	d.Handle(Event{Kind: EventAxis, Device: "gamepad", Code: 1, Value: -1.0})
	d.Handle(Event{Kind: EventAxis, Device: "gamepad", Code: 0, Value: 0.55})
	d.Handle(Event{Kind: EventAxis, Device: "gamepad", Code: 3, Value: 1.0})

	snap := state.Snapshot()
	assert.InDelta(t, 1.0, snap.Forward, 1e-12)
	assert.InDelta(t, 0.5, snap.Turn, 1e-12)
	assert.InDelta(t, 0.5, snap.Head, 1e-12)
}

func TestDispatcherIgnoresUnboundEvents(t *testing.T) {
	state := NewDriveState()
	d := NewDispatcher(testTable(t), state, nopLogger{})

	d.Handle(Event{Kind: EventAxis, Device: "gamepad", Code: 9, Value: 1.0})
	d.Handle(Event{Kind: EventAxis, Device: "unknown", Code: 1, Value: 1.0})
	d.Handle(Event{Kind: EventButton, Device: "gamepad", Code: 11, Pressed: true})

	assert.Equal(t, Snapshot{}, state.Snapshot())
	assert.Equal(t, IntentIdle, state.TakeIntent().Kind)
}

func TestDispatcherAxisDeadbandZeroesDrift(t *testing.T) {
	state := NewDriveState()
	d := NewDispatcher(testTable(t), state, nopLogger{})

	d.Handle(Event{Kind: EventAxis, Device: "gamepad", Code: 0, Value: 0.04})

	assert.Equal(t, 0.0, state.Snapshot().Turn)
}

func TestDispatcherButtonsSetIntents(t *testing.T) {
	state := NewDriveState()
	d := NewDispatcher(testTable(t), state, nopLogger{})

	d.Handle(Event{Kind: EventButton, Device: "gamepad", Code: 0, Pressed: true})
	intent := state.TakeIntent()
	require.Equal(t, IntentExpression, intent.Kind)
	assert.Equal(t, robot.ExpressionHappy, intent.Expression)

	d.Handle(Event{Kind: EventButton, Device: "gamepad", Code: 2, Pressed: true})
	intent = state.TakeIntent()
	require.Equal(t, IntentExpression, intent.Kind)
	assert.Equal(t, robot.ExpressionRandom, intent.Expression)

	d.Handle(Event{Kind: EventButton, Device: "gamepad", Code: 5, Pressed: true})
	assert.Equal(t, IntentSound, state.TakeIntent().Kind)

	d.Handle(Event{Kind: EventButton, Device: "gamepad", Code: 7, Pressed: true})
	assert.Equal(t, IntentQuit, state.TakeIntent().Kind)
}

func TestDispatcherIgnoresButtonReleases(t *testing.T) {
	state := NewDriveState()
	d := NewDispatcher(testTable(t), state, nopLogger{})

	d.Handle(Event{Kind: EventButton, Device: "gamepad", Code: 7, Pressed: false})

	assert.Equal(t, IntentIdle, state.TakeIntent().Kind)
}

func TestTakeIntentConsumesOnce(t *testing.T) {
	state := NewDriveState()
	state.SetIntent(Intent{Kind: IntentExpression, Expression: robot.ExpressionSad})

	first := state.TakeIntent()
	assert.Equal(t, IntentExpression, first.Kind)
	assert.Equal(t, robot.ExpressionSad, first.Expression)

	// A second take sees idle: the expression must not replay next tick.
	second := state.TakeIntent()
	assert.Equal(t, IntentIdle, second.Kind)
}

func TestDriveStateReset(t *testing.T) {
	state := NewDriveState()
	state.SetAxis(ActionForward, 0.8)
	state.SetAxis(ActionWheelRight, -0.3)
	state.SetIntent(Intent{Kind: IntentQuit})

	state.Reset()

	assert.Equal(t, Snapshot{}, state.Snapshot())
	assert.Equal(t, IntentIdle, state.TakeIntent().Kind)
}
