// Package camera fans robot camera frames out to websocket viewers. Frames
// flow through a bounded queue; when a viewer cannot keep up its frames are
// dropped rather than stalling the robot-side handler.
package camera

import (
	"sync"

	customlog "github.com/toybot/teleop/pkg/log"
	"github.com/toybot/teleop/pkg/robot"
)

// RelayMetrics tracks frame counts through the relay.
type RelayMetrics struct {
	ReceivedCount  int64
	DeliveredCount int64
	DroppedCount   int64
	mu             sync.Mutex
}

// Relay distributes camera frames to subscribers. The robot-side Submit
// never blocks: a full relay queue or a full subscriber buffer drops the
// frame. Stale video is worse than missing video.
type Relay struct {
	logger           customlog.Logger
	queueSize        int
	subscriberBuffer int

	frameQueue chan robot.Frame
	running    bool
	wg         sync.WaitGroup
	mu         sync.Mutex

	subscribers map[int]chan robot.Frame
	nextID      int

	metrics *RelayMetrics
}

// NewRelay creates a relay with the given queue and per-subscriber buffer
// sizes. Zero or negative sizes fall back to sensible defaults.
func NewRelay(queueSize, subscriberBuffer int, logger customlog.Logger) *Relay {
	if queueSize <= 0 {
		queueSize = 16
	}
	if subscriberBuffer <= 0 {
		subscriberBuffer = 4
	}
	return &Relay{
		logger:           logger,
		queueSize:        queueSize,
		subscriberBuffer: subscriberBuffer,
		frameQueue:       make(chan robot.Frame, queueSize),
		subscribers:      make(map[int]chan robot.Frame),
		metrics:          &RelayMetrics{},
	}
}

// Start starts the fan-out worker.
func (r *Relay) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return
	}
	r.running = true
	r.logger.Infof("Starting camera relay (queue=%d, subscriber_buffer=%d)",
		r.queueSize, r.subscriberBuffer)

	r.wg.Add(1)
	go r.fanOut()
}

// Stop drains the relay and closes every subscriber channel.
func (r *Relay) Stop() {
	r.mu.Lock()

	if !r.running {
		r.mu.Unlock()
		return
	}
	r.running = false
	r.mu.Unlock() // Unlock before closing channel to avoid deadlock

	close(r.frameQueue)
	r.wg.Wait()

	r.mu.Lock()
	for id, ch := range r.subscribers {
		close(ch)
		delete(r.subscribers, id)
	}
	r.mu.Unlock()

	r.logMetrics()
	r.logger.Infof("Camera relay stopped")
}

// Submit offers a frame to the relay. Returns false when the relay is not
// running or its queue is full.
func (r *Relay) Submit(frame robot.Frame) bool {
	r.mu.Lock()
	running := r.running
	r.mu.Unlock()

	if !running {
		return false
	}

	r.metrics.mu.Lock()
	r.metrics.ReceivedCount++
	r.metrics.mu.Unlock()

	select {
	case r.frameQueue <- frame:
		return true
	default:
		r.metrics.mu.Lock()
		r.metrics.DroppedCount++
		r.metrics.mu.Unlock()
		r.logger.Debugf("Camera relay queue full, dropping frame")
		return false
	}
}

// Subscribe registers a new frame consumer. The returned channel is closed
// by Unsubscribe or Stop.
func (r *Relay) Subscribe() (int, <-chan robot.Frame) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.nextID
	r.nextID++
	ch := make(chan robot.Frame, r.subscriberBuffer)
	r.subscribers[id] = ch
	r.logger.Infof("Camera subscriber %d registered (%d total)", id, len(r.subscribers))
	return id, ch
}

// Unsubscribe removes a consumer and closes its channel.
func (r *Relay) Unsubscribe(id int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ch, ok := r.subscribers[id]
	if !ok {
		return
	}
	delete(r.subscribers, id)
	close(ch)
	r.logger.Infof("Camera subscriber %d removed (%d remaining)", id, len(r.subscribers))
}

// SubscriberCount returns the number of active subscribers.
func (r *Relay) SubscriberCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.subscribers)
}

func (r *Relay) fanOut() {
	defer r.wg.Done()

	for frame := range r.frameQueue {
		r.mu.Lock()
		targets := make([]chan robot.Frame, 0, len(r.subscribers))
		for _, ch := range r.subscribers {
			targets = append(targets, ch)
		}
		r.mu.Unlock()

		for _, ch := range targets {
			select {
			case ch <- frame:
				r.metrics.mu.Lock()
				r.metrics.DeliveredCount++
				r.metrics.mu.Unlock()
			default:
				// Slow viewer, skip this frame for it.
				r.metrics.mu.Lock()
				r.metrics.DroppedCount++
				r.metrics.mu.Unlock()
			}
		}
	}
}

// GetMetrics returns a copy of the current metrics.
func (r *Relay) GetMetrics() RelayMetrics {
	r.metrics.mu.Lock()
	defer r.metrics.mu.Unlock()

	return RelayMetrics{
		ReceivedCount:  r.metrics.ReceivedCount,
		DeliveredCount: r.metrics.DeliveredCount,
		DroppedCount:   r.metrics.DroppedCount,
	}
}

func (r *Relay) logMetrics() {
	metrics := r.GetMetrics()
	r.logger.Infof("Camera relay metrics: received=%d, delivered=%d, dropped=%d",
		metrics.ReceivedCount, metrics.DeliveredCount, metrics.DroppedCount)
}
