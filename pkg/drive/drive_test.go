package drive

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWheelsExactCases(t *testing.T) {
	a := assert.New(t)
	test := func(forward, turn, maxSpeed, expectL, expectR float64) {
		cmd := Wheels(forward, turn, maxSpeed)
		a.Equal(WheelCommand{expectL, expectR}, cmd,
			"forward=%v turn=%v max=%v", forward, turn, maxSpeed)
	}

	// Neutral input yields an exact zero command, no residual drift.
	test(0, 0, 150, 0, 0)
	test(0, 0, 1, 0, 0)
	test(0, 0, 1000, 0, 0)

	// Pure translation.
	test(1, 0, 150, 150, 150)
	test(-1, 0, 150, -150, -150)
	test(0.5, 0, 150, 75, 75)

	// Pure rotation keeps full turn authority on both wheels.
	test(0, 1, 150, 150, -150)
	test(0, -1, 150, -150, 150)
	test(0, 0.5, 150, 75, -75)

	// Blended: turn contribution is halved by design.
	test(0.5, 0.5, 100, 75, 25)
	test(0.5, -0.5, 100, 25, 75)
	test(-0.5, 0.5, 100, -25, -75)
}

func TestWheelsBlendedDiffersFromPureRotation(t *testing.T) {
	// The pure-rotation branch is not the limit of the blended branch: a
	// full-deflection turn at zero forward speed gives full wheel speed,
	// while the blended formula only contributes maxSpeed/2 per wheel.
	// Both behaviors are intentional and pinned here.
	a := assert.New(t)

	pivot := Wheels(0, 1, 100)
	a.Equal(WheelCommand{100, -100}, pivot)
	a.Equal(200.0, pivot.Left-pivot.Right)

	blended := Wheels(1e-9, 1, 100)
	a.InDelta(100.0, blended.Left-blended.Right, 1e-6)
}

func TestWheelsOutputBounds(t *testing.T) {
	a := assert.New(t)
	const maxSpeed = 150.0

	for forward := -1.0; forward <= 1.0; forward += 0.125 {
		for turn := -1.0; turn <= 1.0; turn += 0.125 {
			cmd := Wheels(forward, turn, maxSpeed)
			a.LessOrEqual(cmd.Left, maxSpeed, "forward=%v turn=%v", forward, turn)
			a.GreaterOrEqual(cmd.Left, -maxSpeed, "forward=%v turn=%v", forward, turn)
			a.LessOrEqual(cmd.Right, maxSpeed, "forward=%v turn=%v", forward, turn)
			a.GreaterOrEqual(cmd.Right, -maxSpeed, "forward=%v turn=%v", forward, turn)
		}
	}
}

func TestWheelsClampsPreconditionViolations(t *testing.T) {
	a := assert.New(t)

	// Inputs outside [-1,1] are clamped rather than amplified.
	a.Equal(WheelCommand{100, 100}, Wheels(2.5, 0, 100))
	a.Equal(WheelCommand{-100, 100}, Wheels(0, -7, 100))

	// Full blended deflection saturates instead of exceeding maxSpeed.
	cmd := Wheels(1, 1, 100)
	a.Equal(100.0, cmd.Left)
	a.Equal(50.0, cmd.Right)
}

func TestThrustZeroThrottle(t *testing.T) {
	a := assert.New(t)
	for _, theta := range []float64{-720, -180, -90.5, -1, 0, 33, 90, 179, 180, 359, 1080} {
		cmd := Thrust(0, theta)
		a.Equal(0.0, cmd.Left, "theta=%v", theta)
		a.Equal(0.0, cmd.Right, "theta=%v", theta)
	}
}

func TestThrustExactScenarios(t *testing.T) {
	a := assert.New(t)

	// Straight ahead: both wheels at throttle.
	a.Equal(ThrustCommand{50, 50}, Thrust(50, 0))

	// Pivot turn right at full differential.
	a.Equal(ThrustCommand{50, -50}, Thrust(50, 90))

	// Full throttle straight.
	a.Equal(ThrustCommand{100, 100}, Thrust(100, 0))

	// Throttle is clamped to [0,100].
	a.Equal(ThrustCommand{100, 100}, Thrust(250, 0))
	a.Equal(ThrustCommand{0, 0}, Thrust(-30, 45))
}

func TestThrustOutputBounds(t *testing.T) {
	a := assert.New(t)

	for throttle := 0.0; throttle <= 100.0; throttle += 12.5 {
		for theta := -540.0; theta <= 540.0; theta += 7.5 {
			cmd := Thrust(throttle, theta)
			a.LessOrEqual(cmd.Left, 100.0, "throttle=%v theta=%v", throttle, theta)
			a.GreaterOrEqual(cmd.Left, -100.0, "throttle=%v theta=%v", throttle, theta)
			a.LessOrEqual(cmd.Right, 100.0, "throttle=%v theta=%v", throttle, theta)
			a.GreaterOrEqual(cmd.Right, -100.0, "throttle=%v theta=%v", throttle, theta)
		}
	}
}

func TestThrustAnglePeriodicity(t *testing.T) {
	a := assert.New(t)

	for _, theta := range []float64{-150, -90, -45, 0, 30, 90, 135, 179} {
		for _, throttle := range []float64{25, 50, 100} {
			base := Thrust(throttle, theta)
			wrapped := Thrust(throttle, theta+360)
			a.InDelta(base.Left, wrapped.Left, 1e-9, "throttle=%v theta=%v", throttle, theta)
			a.InDelta(base.Right, wrapped.Right, 1e-9, "throttle=%v theta=%v", throttle, theta)
		}
	}
}

func TestThrustSteeringMirrorSymmetry(t *testing.T) {
	a := assert.New(t)

	// Steering left is steering right with the wheels swapped.
	for _, theta := range []float64{30, 60, 120, 150} {
		right := Thrust(60, theta)
		left := Thrust(60, -theta)
		a.InDelta(right.Left, left.Right, 1e-9, "theta=%v", theta)
		a.InDelta(right.Right, left.Left, 1e-9, "theta=%v", theta)
	}
}

func TestThrustInnerWheelReverses(t *testing.T) {
	a := assert.New(t)

	// Sharpening the turn slows the inner wheel through zero and into
	// reverse while the outer wheel keeps driving forward.
	gentle := Thrust(50, 30)
	sharp := Thrust(50, 80)
	a.Greater(gentle.Right, 0.0)
	a.Less(sharp.Right, 0.0)
	a.Greater(gentle.Left, 0.0)
	a.Greater(sharp.Left, 0.0)
	a.Greater(gentle.Left, gentle.Right)
	a.Greater(sharp.Left, sharp.Right)
}

func TestNormalizeAngle(t *testing.T) {
	a := assert.New(t)

	a.Equal(0.0, NormalizeAngle(0))
	a.Equal(0.0, NormalizeAngle(360))
	a.Equal(-180.0, NormalizeAngle(180))
	a.Equal(-180.0, NormalizeAngle(-180))
	a.Equal(90.0, NormalizeAngle(450))
	a.Equal(-90.0, NormalizeAngle(270))
	a.InDelta(179.0, NormalizeAngle(-181), 1e-9)
}

func TestClamp(t *testing.T) {
	a := assert.New(t)

	a.Equal(1.0, Clamp(3, -1, 1))
	a.Equal(-1.0, Clamp(-3, -1, 1))
	a.Equal(0.25, Clamp(0.25, -1, 1))
}
