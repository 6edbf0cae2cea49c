package telemetry

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Debugf(string, ...interface{}) {}
func (nopLogger) Infof(string, ...interface{}) {}
func (nopLogger) Warnf(string, ...interface{}) {}
func (nopLogger) Errorf(string, ...interface{}) {}
func (nopLogger) Fatalf(string, ...interface{}) {}

func TestDispatcherRoutesByType(t *testing.T) {
	d := NewDispatcher(nopLogger{})

	d.RegisterHandler(MsgTypeStateRequest, HandlerFunc(func(data []byte) ([]byte, error) {
		resp := Envelope{Type: MsgTypeStateResponse, Data: map[string]string{"mode": "arcade"}}
		return json.Marshal(resp)
	}))

	request, err := json.Marshal(Envelope{Type: MsgTypeStateRequest})
	require.NoError(t, err)

	responseData, err := d.Dispatch(request)
	require.NoError(t, err)

	var response Envelope
	require.NoError(t, json.Unmarshal(responseData, &response))
	assert.Equal(t, MsgTypeStateResponse, response.Type)
}

func TestDispatcherRejectsUnknownType(t *testing.T) {
	d := NewDispatcher(nopLogger{})

	request, err := json.Marshal(Envelope{Type: "REBOOT_REQUEST"})
	require.NoError(t, err)

	_, err = d.Dispatch(request)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownMessageType))
}

func TestDispatcherRejectsMalformedPayload(t *testing.T) {
	d := NewDispatcher(nopLogger{})

	_, err := d.Dispatch([]byte("not json at all"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidMessage))
}

func TestDispatcherPropagatesHandlerErrors(t *testing.T) {
	d := NewDispatcher(nopLogger{})

	handlerErr := errors.New("state unavailable")
	d.RegisterHandler(MsgTypeStateRequest, HandlerFunc(func(data []byte) ([]byte, error) {
		return nil, handlerErr
	}))

	request, err := json.Marshal(Envelope{Type: MsgTypeStateRequest})
	require.NoError(t, err)

	_, err = d.Dispatch(request)
	assert.Equal(t, handlerErr, err)
}
