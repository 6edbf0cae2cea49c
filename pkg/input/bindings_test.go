package input

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toybot/teleop/pkg/config"
)

func TestApplyDeadband(t *testing.T) {
	// Inside the band everything collapses to zero.
	assert.Equal(t, 0.0, ApplyDeadband(0.0, 0.1))
	assert.Equal(t, 0.0, ApplyDeadband(0.05, 0.1))
	assert.Equal(t, 0.0, ApplyDeadband(-0.1, 0.1))

	// Outside the band the remainder rescales so full deflection stays 1.
	assert.InDelta(t, 1.0, ApplyDeadband(1.0, 0.1), 1e-12)
	assert.InDelta(t, -1.0, ApplyDeadband(-1.0, 0.1), 1e-12)
	assert.InDelta(t, 0.5, ApplyDeadband(0.55, 0.1), 1e-12)
	assert.InDelta(t, -0.5, ApplyDeadband(-0.55, 0.1), 1e-12)

	// Zero radius passes values through untouched.
	assert.Equal(t, 0.25, ApplyDeadband(0.25, 0))

	// Out-of-range samples clamp before deadbanding.
	assert.InDelta(t, 1.0, ApplyDeadband(1.7, 0.1), 1e-12)
	assert.InDelta(t, -1.0, ApplyDeadband(-2.0, 0.1), 1e-12)

	// A degenerate radius of 1 or more swallows everything.
	assert.Equal(t, 0.0, ApplyDeadband(0.9, 1.0))
}

func TestApplyDeadbandContinuousAtBandEdge(t *testing.T) {
	// The rescale keeps the response continuous: just outside the band the
	// output is still near zero, so the robot does not lurch.
	edge := ApplyDeadband(0.1001, 0.1)
	assert.Greater(t, edge, 0.0)
	assert.Less(t, edge, 0.001)
}

func TestBuildTableAppliesDefaults(t *testing.T) {
	cfg := config.BindingsConfig{
		Defaults: config.BindingDefaults{Device: "gamepad", Deadband: 0.1},
		Axes: []config.AxisBinding{
			{Axis: 1, Action: "forward", Invert: true},
			{Device: "wheel", Axis: 0, Action: "turn", Scale: 0.5, Deadband: 0.02},
		},
		Buttons: []config.ButtonBinding{
			{Button: 0, Action: "expression_happy"},
			{Device: "keyboard", Button: 27, Action: "quit"},
		},
	}

	table, err := BuildTable(cfg)
	require.NoError(t, err)

	fwd, ok := table.Axis("gamepad", 1)
	require.True(t, ok)
	assert.Equal(t, ActionForward, fwd.Action)
	assert.Equal(t, 1.0, fwd.Scale)
	assert.True(t, fwd.Invert)
	assert.Equal(t, 0.1, fwd.Deadband)

	turn, ok := table.Axis("wheel", 0)
	require.True(t, ok)
	assert.Equal(t, ActionTurn, turn.Action)
	assert.Equal(t, 0.5, turn.Scale)
	assert.Equal(t, 0.02, turn.Deadband)

	happy, ok := table.Button("gamepad", 0)
	require.True(t, ok)
	assert.Equal(t, ActionExpressionHappy, happy.Action)

	quit, ok := table.Button("keyboard", 27)
	require.True(t, ok)
	assert.Equal(t, ActionQuit, quit.Action)

	_, ok = table.Axis("gamepad", 9)
	assert.False(t, ok)
	_, ok = table.Button("wheel", 0)
	assert.False(t, ok)
}

func TestBuildTableRejectsUnknownActions(t *testing.T) {
	_, err := BuildTable(config.BindingsConfig{
		Axes: []config.AxisBinding{{Axis: 0, Action: "teleport"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown axis action 'teleport'")

	_, err = BuildTable(config.BindingsConfig{
		Buttons: []config.ButtonBinding{{Button: 3, Action: "self_destruct"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown button action 'self_destruct'")
}

func TestParseAction(t *testing.T) {
	a, ok := ParseAction("wheel_left")
	assert.True(t, ok)
	assert.Equal(t, ActionWheelLeft, a)

	_, ok = ParseAction("warp")
	assert.False(t, ok)

	assert.Equal(t, "forward", ActionForward.String())
	assert.Equal(t, "unknown", Action(200).String())
}
