// Package drive implements the differential-drive motion mapping used by the
// teleop control loop. Both mappers are pure functions over small numeric
// inputs; they hold no state and are safe to call concurrently.
package drive

import "math"

// WheelCommand is a left/right wheel speed pair in physical speed units
// (mm/s for the toybot). Produced fresh each control tick.
type WheelCommand struct {
	Left  float64 `json:"left"`
	Right float64 `json:"right"`
}

// ThrustCommand is a left/right motor thrust pair in percent, each within
// [-100, 100].
type ThrustCommand struct {
	Left  float64 `json:"left"`
	Right float64 `json:"right"`
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// mod returns the non-negative remainder of a/b for b > 0. math.Mod keeps
// the sign of the dividend, which is not what the angle math wants.
func mod(a, b float64) float64 {
	m := math.Mod(a, b)
	if m < 0 {
		m += b
	}
	return m
}

// NormalizeAngle maps an angle in degrees onto [-180, 180).
func NormalizeAngle(deg float64) float64 {
	return mod(deg+180.0, 360.0) - 180.0
}

// Wheels converts a forward speed and a turn speed, each normalized to
// [-1, 1], into left/right wheel speeds bounded to [-maxSpeed, maxSpeed].
//
// The mapping is case-split on purpose: a full-deflection turn with zero
// forward speed must drive each wheel at full maxSpeed, which the blended
// branch (which halves the turn contribution) would not deliver. Collapsing
// the branches into the blended formula silently halves turning-in-place
// authority.
func Wheels(forward, turn, maxSpeed float64) WheelCommand {
	// Inputs are documented as pre-clamped, but a violated precondition must
	// not produce out-of-bound wheel speeds.
	forward = Clamp(forward, -1.0, 1.0)
	turn = Clamp(turn, -1.0, 1.0)

	var left, right float64
	switch {
	case forward == 0 && turn == 0:
		left, right = 0, 0
	case forward == 0:
		// Pure rotation: full turn authority on both wheels.
		left = turn * maxSpeed
		right = -turn * maxSpeed
	case turn == 0:
		left = forward * maxSpeed
		right = forward * maxSpeed
	default:
		avg := forward * maxSpeed
		turnComponent := turn * maxSpeed / 2.0
		left = avg + turnComponent
		right = avg - turnComponent
	}

	return WheelCommand{
		Left:  Clamp(left, -maxSpeed, maxSpeed),
		Right: Clamp(right, -maxSpeed, maxSpeed),
	}
}

// Thrust converts a throttle percentage and a steering angle in degrees into
// left/right motor thrust percentages, each within [-100, 100], using
// tank-style kinematics: the inner wheel slows, and can reverse, as steering
// sharpens, reaching a full pivot turn at +/-90 degrees.
//
// throttle is clamped to [0, 100]; steerAngle accepts any real value and is
// normalized onto [-180, 180).
func Thrust(throttle, steerAngle float64) ThrustCommand {
	theta := NormalizeAngle(steerAngle)
	r := Clamp(throttle, 0.0, 100.0)

	// vA is the inner wheel speed: it shrinks from r toward -r as the turn
	// sharpens toward the next 90-degree increment. vB is the outer wheel,
	// capped at 100 and by both symmetric combinations with vA.
	vA := r * (45.0 - mod(theta, 90.0)) / 45.0
	vB := math.Min(100.0, math.Min(2.0*r+vA, 2.0*r-vA))

	switch {
	case theta < -90.0:
		return ThrustCommand{Left: -vB, Right: -vA}
	case theta < 0:
		return ThrustCommand{Left: -vA, Right: vB}
	case theta < 90.0:
		return ThrustCommand{Left: vB, Right: vA}
	default:
		return ThrustCommand{Left: vA, Right: -vB}
	}
}
