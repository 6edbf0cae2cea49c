package api

// ControlMessage is the JSON wire format for controller events arriving on
// the control websocket. Kind is "axis" or "button".
type ControlMessage struct {
	Kind    string  `json:"kind"`
	Device  string  `json:"device"`
	Code    int     `json:"code"`
	Value   float64 `json:"value,omitempty"`
	Pressed bool    `json:"pressed,omitempty"`
}
