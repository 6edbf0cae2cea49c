package camera

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toybot/teleop/pkg/robot"
)

type nopLogger struct{}

func (nopLogger) Debugf(string, ...interface{}) {}
func (nopLogger) Infof(string, ...interface{}) {}
func (nopLogger) Warnf(string, ...interface{}) {}
func (nopLogger) Errorf(string, ...interface{}) {}
func (nopLogger) Fatalf(string, ...interface{}) {}

func testFrame(tag byte) robot.Frame {
	return robot.Frame{
		Data:      []byte{tag},
		Width:     320,
		Height:    240,
		Timestamp: time.Now(),
	}
}

func TestRelayDeliversToSubscribers(t *testing.T) {
	relay := NewRelay(8, 4, nopLogger{})
	relay.Start()
	defer relay.Stop()

	_, ch := relay.Subscribe()

	require.True(t, relay.Submit(testFrame(0x01)))

	select {
	case frame := <-ch:
		assert.Equal(t, []byte{0x01}, frame.Data)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for frame")
	}
}

func TestRelayRejectsWhenStopped(t *testing.T) {
	relay := NewRelay(8, 4, nopLogger{})

	assert.False(t, relay.Submit(testFrame(0x01)))

	relay.Start()
	assert.True(t, relay.Submit(testFrame(0x02)))
	relay.Stop()

	assert.False(t, relay.Submit(testFrame(0x03)))
}

func TestRelayDropsForSlowSubscriber(t *testing.T) {
	relay := NewRelay(8, 1, nopLogger{})
	relay.Start()
	defer relay.Stop()

	_, ch := relay.Subscribe()

	// Nobody reads ch, so after the single-slot buffer fills the relay must
	// drop instead of blocking the fan-out worker.
	for i := 0; i < 10; i++ {
		relay.Submit(testFrame(byte(i)))
	}

	deadline := time.After(time.Second)
	for {
		metrics := relay.GetMetrics()
		if metrics.DeliveredCount+metrics.DroppedCount >= 10 {
			assert.GreaterOrEqual(t, metrics.DroppedCount, int64(1))
			break
		}
		select {
		case <-deadline:
			t.Fatal("relay did not process submitted frames in time")
		case <-time.After(5 * time.Millisecond):
		}
	}

	select {
	case frame := <-ch:
		assert.NotEmpty(t, frame.Data)
	case <-time.After(time.Second):
		t.Fatal("expected at least one delivered frame")
	}
}

func TestRelayUnsubscribeClosesChannel(t *testing.T) {
	relay := NewRelay(8, 4, nopLogger{})
	relay.Start()
	defer relay.Stop()

	id, ch := relay.Subscribe()
	require.Equal(t, 1, relay.SubscriberCount())

	relay.Unsubscribe(id)
	assert.Equal(t, 0, relay.SubscriberCount())

	_, open := <-ch
	assert.False(t, open)

	// Unsubscribing twice is harmless.
	relay.Unsubscribe(id)
}

func TestRelayStopClosesSubscribers(t *testing.T) {
	relay := NewRelay(8, 4, nopLogger{})
	relay.Start()

	_, ch := relay.Subscribe()
	relay.Stop()

	select {
	case _, open := <-ch:
		assert.False(t, open)
	case <-time.After(time.Second):
		t.Fatal("subscriber channel not closed on Stop")
	}
}
