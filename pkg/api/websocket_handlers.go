package api

import (
	"encoding/json"
	"errors"
	"syscall"

	"github.com/gofiber/contrib/websocket"

	"github.com/toybot/teleop/pkg/camera"
	"github.com/toybot/teleop/pkg/input"
	customlog "github.com/toybot/teleop/pkg/log"
)

// ControlWebSocketHandler reads controller events from the operator and
// feeds them into the input dispatcher. One connection drives one robot;
// the loop runs until the peer disconnects.
func ControlWebSocketHandler(conn *websocket.Conn, dispatcher *input.Dispatcher, logger customlog.Logger) {
	logger.Infof("Control WebSocket connected: %s", conn.RemoteAddr())
	var (
		mt  int
		msg []byte
		err error
	)
	for {
		if mt, msg, err = conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Errorf("Control WS read error: %v", err)
			} else {
				if err != websocket.ErrCloseSent && !errors.Is(err, syscall.EPIPE) && !errors.Is(err, syscall.ECONNRESET) {
					logger.Infof("Control WS connection closed: %v", err)
				} else {
					logger.Infof("Control WS connection closed normally.")
				}
			}
			break
		}

		if mt != websocket.TextMessage {
			logger.Infof("Ignoring non-text Control WS message type: %d", mt)
			continue
		}

		var cm ControlMessage
		if err := json.Unmarshal(msg, &cm); err != nil {
			logger.Warnf("Failed to unmarshal control message from WS: %v. Message: %s", err, string(msg))
			continue
		}

		event, err := toEvent(cm)
		if err != nil {
			logger.Warnf("Rejected control message: %v", err)
			continue
		}

		dispatcher.Handle(event)
	}
	logger.Infof("Control WebSocket disconnected: %s", conn.RemoteAddr())
}

func toEvent(cm ControlMessage) (input.Event, error) {
	ev := input.Event{
		Device:  cm.Device,
		Code:    cm.Code,
		Value:   cm.Value,
		Pressed: cm.Pressed,
	}
	switch cm.Kind {
	case "axis":
		ev.Kind = input.EventAxis
	case "button":
		ev.Kind = input.EventButton
	default:
		return input.Event{}, errors.New("unknown event kind '" + cm.Kind + "'")
	}
	return ev, nil
}

// CameraWebSocketHandler streams camera frames to one viewer as binary
// messages. The subscription is dropped when the peer disconnects or the
// relay shuts down.
func CameraWebSocketHandler(conn *websocket.Conn, relay *camera.Relay, logger customlog.Logger) {
	logger.Infof("Camera WebSocket connected: %s", conn.RemoteAddr())

	id, frames := relay.Subscribe()
	defer relay.Unsubscribe(id)

	// Drain reads so close frames from the peer are noticed; the reader
	// closing unblocks nothing here, so a write error is the exit signal.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for frame := range frames {
		if err := conn.WriteMessage(websocket.BinaryMessage, frame.Data); err != nil {
			if !errors.Is(err, syscall.EPIPE) && !errors.Is(err, syscall.ECONNRESET) && err != websocket.ErrCloseSent {
				logger.Infof("Camera WS write ended: %v", err)
			}
			break
		}
	}

	logger.Infof("Camera WebSocket disconnected: %s", conn.RemoteAddr())
}
