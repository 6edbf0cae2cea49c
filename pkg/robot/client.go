// Package robot defines the boundary to the vendor robot-control client.
// The vendor transport (connection handshake, wire protocol, animation
// engine) is opaque; this package only names the primitives the control
// loop consumes and provides an in-process simulator for running without
// hardware.
package robot

import (
	"context"
	"time"
)

// ExpressionKind identifies a facial-expression animation the vendor client
// can render on the robot's display.
type ExpressionKind uint8

const (
	ExpressionHappy ExpressionKind = iota
	ExpressionAngry
	ExpressionSad
	// ExpressionRandom lets the vendor client pick any expression it knows.
	ExpressionRandom
)

var expressionNames = map[ExpressionKind]string{
	ExpressionHappy:  "happy",
	ExpressionAngry:  "angry",
	ExpressionSad:    "sad",
	ExpressionRandom: "random",
}

func (k ExpressionKind) String() string {
	if n, ok := expressionNames[k]; ok {
		return n
	}
	return "unknown"
}

// Frame is one camera image as delivered by the vendor client. Data is the
// raw encoded frame; no processing happens on this side of the boundary.
type Frame struct {
	Data      []byte
	Width     int
	Height    int
	Color     bool
	Timestamp time.Time
}

// FrameHandler receives camera frames. Handlers must not block; drop work
// you cannot keep up with.
type FrameHandler func(Frame)

// Client is the vendor robot-control surface consumed by the teleop loop.
// Wheel speeds are in mm/s, head speed in rad/s, lift speed in mm/s. All
// motor methods are safe to call repeatedly at a fixed rate with identical
// values.
type Client interface {
	// Connect performs the vendor handshake and starts camera streaming.
	Connect(ctx context.Context) error
	// Close tears the connection down. StopAllMotors must be issued by the
	// caller before Close; Close does not guarantee it.
	Close() error

	DriveWheels(left, right float64) error
	MoveHead(speed float64) error
	MoveLift(speed float64) error
	SetHeadAngle(angle float64) error
	SetLiftHeight(height float64) error
	StopAllMotors() error

	PlayExpression(kind ExpressionKind) error

	// AddFrameHandler subscribes to camera frames. Must be called before
	// Connect.
	AddFrameHandler(h FrameHandler)
}
