package input

import (
	"sync"

	"github.com/toybot/teleop/pkg/robot"
)

// IntentKind discriminates single-shot operator intents.
type IntentKind uint8

const (
	// IntentIdle means no pending intent.
	IntentIdle IntentKind = iota
	// IntentExpression requests one facial-expression playback.
	IntentExpression
	// IntentSound requests one sound-effect playback.
	IntentSound
	// IntentQuit requests session shutdown.
	IntentQuit
)

// Intent is a single-shot operator request. Unlike the continuous axis
// values it is consumed exactly once per TakeIntent call, so an expression
// is never replayed on the next tick.
type Intent struct {
	Kind       IntentKind
	Expression robot.ExpressionKind
}

// DriveState holds the latest operator input between control ticks. Event
// handlers update it as events arrive; the control loop reads it once per
// frame via Snapshot and TakeIntent. All methods are safe for concurrent use.
type DriveState struct {
	mu         sync.Mutex
	forward    float64
	turn       float64
	head       float64
	lift       float64
	wheelLeft  float64
	wheelRight float64
	intent     Intent
}

// Snapshot is a point-in-time copy of the continuous axis values.
type Snapshot struct {
	Forward    float64 `json:"forward"`
	Turn       float64 `json:"turn"`
	Head       float64 `json:"head"`
	Lift       float64 `json:"lift"`
	WheelLeft  float64 `json:"wheel_left"`
	WheelRight float64 `json:"wheel_right"`
}

// NewDriveState returns a zeroed drive state with an idle intent.
func NewDriveState() *DriveState {
	return &DriveState{}
}

// SetAxis stores the processed value of a continuous axis action.
func (s *DriveState) SetAxis(action Action, value float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch action {
	case ActionForward:
		s.forward = value
	case ActionTurn:
		s.turn = value
	case ActionHead:
		s.head = value
	case ActionLift:
		s.lift = value
	case ActionWheelLeft:
		s.wheelLeft = value
	case ActionWheelRight:
		s.wheelRight = value
	}
}

// SetIntent stores a pending single-shot intent, replacing any unconsumed one.
func (s *DriveState) SetIntent(intent Intent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.intent = intent
}

// Snapshot copies the continuous axis values.
func (s *DriveState) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Forward:    s.forward,
		Turn:       s.turn,
		Head:       s.head,
		Lift:       s.lift,
		WheelLeft:  s.wheelLeft,
		WheelRight: s.wheelRight,
	}
}

// TakeIntent returns the pending intent and resets it to idle in one step.
func (s *DriveState) TakeIntent() Intent {
	s.mu.Lock()
	defer s.mu.Unlock()
	intent := s.intent
	s.intent = Intent{Kind: IntentIdle}
	return intent
}

// Reset zeroes all axes and clears the intent.
func (s *DriveState) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.forward, s.turn = 0, 0
	s.head, s.lift = 0, 0
	s.wheelLeft, s.wheelRight = 0, 0
	s.intent = Intent{Kind: IntentIdle}
}
