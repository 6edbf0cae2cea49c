// Package input converts operator controller events into the drive model.
// Raw device decoding happens on the operator side; this package only deals
// with already-normalized axis and button events, routed through a
// declarative binding table into a caller-owned DriveState.
package input

// EventKind discriminates the event union.
type EventKind uint8

const (
	// EventAxis is an analog axis sample with a value in [-1, 1].
	EventAxis EventKind = iota
	// EventButton is a digital button transition.
	EventButton
)

// Event is a single controller event. Axis events carry Value; button
// events carry Pressed.
type Event struct {
	Kind    EventKind
	Device  string
	Code    int
	Value   float64
	Pressed bool
}

// Action is the semantic meaning of a bound control, independent of which
// device or axis produces it.
type Action uint8

const (
	ActionNone Action = iota
	ActionForward
	ActionTurn
	ActionHead
	ActionLift
	ActionWheelLeft
	ActionWheelRight
	ActionExpressionHappy
	ActionExpressionAngry
	ActionExpressionSad
	ActionExpressionRandom
	ActionSound
	ActionQuit
)

var actionNames = map[Action]string{
	ActionNone:             "none",
	ActionForward:          "forward",
	ActionTurn:             "turn",
	ActionHead:             "head",
	ActionLift:             "lift",
	ActionWheelLeft:        "wheel_left",
	ActionWheelRight:       "wheel_right",
	ActionExpressionHappy:  "expression_happy",
	ActionExpressionAngry:  "expression_angry",
	ActionExpressionSad:    "expression_sad",
	ActionExpressionRandom: "expression_random",
	ActionSound:            "sound",
	ActionQuit:             "quit",
}

var actionsByName = func() map[string]Action {
	m := make(map[string]Action, len(actionNames))
	for a, n := range actionNames {
		m[n] = a
	}
	return m
}()

func (a Action) String() string {
	if n, ok := actionNames[a]; ok {
		return n
	}
	return "unknown"
}

// ParseAction resolves a configuration action name.
func ParseAction(name string) (Action, bool) {
	a, ok := actionsByName[name]
	return a, ok
}
