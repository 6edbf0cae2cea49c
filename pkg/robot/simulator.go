package robot

import (
	"context"
	"fmt"
	"sync"
	"time"

	customlog "github.com/toybot/teleop/pkg/log"
)

const (
	simFrameWidth  = 320
	simFrameHeight = 240
	simFrameRate   = 15
)

// Simulator is an in-process Client used when no physical robot is
// available. Motor commands are recorded and logged; camera frames are
// synthesized at a fixed rate so the relay and websocket paths can be
// exercised end to end.
type Simulator struct {
	logger customlog.Logger

	mu        sync.Mutex
	connected bool
	handlers  []FrameHandler
	left      float64
	right     float64
	headAngle float64
	liftHt    float64

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

var _ Client = (*Simulator)(nil)

// NewSimulator creates a disconnected simulator.
func NewSimulator(logger customlog.Logger) *Simulator {
	return &Simulator{logger: logger}
}

// Connect marks the simulator connected and starts the synthetic camera.
func (s *Simulator) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.connected {
		return nil
	}
	s.connected = true

	camCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.wg.Add(1)
	go s.cameraLoop(camCtx)

	s.logger.Infof("Simulated robot connected (camera %dx%d @ %d fps)",
		simFrameWidth, simFrameHeight, simFrameRate)
	return nil
}

// Close stops the synthetic camera and marks the simulator disconnected.
func (s *Simulator) Close() error {
	s.mu.Lock()
	if !s.connected {
		s.mu.Unlock()
		return nil
	}
	s.connected = false
	cancel := s.cancel
	s.mu.Unlock()

	cancel()
	s.wg.Wait()
	s.logger.Infof("Simulated robot disconnected")
	return nil
}

func (s *Simulator) requireConnected() error {
	if !s.connected {
		return fmt.Errorf("simulator is not connected")
	}
	return nil
}

// DriveWheels records the wheel speeds.
func (s *Simulator) DriveWheels(left, right float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireConnected(); err != nil {
		return err
	}
	if left != s.left || right != s.right {
		s.logger.Debugf("Sim drive_wheels: left=%.1f right=%.1f", left, right)
	}
	s.left, s.right = left, right
	return nil
}

// MoveHead records the head motor speed.
func (s *Simulator) MoveHead(speed float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireConnected(); err != nil {
		return err
	}
	s.headAngle += speed
	return nil
}

// MoveLift records the lift motor speed.
func (s *Simulator) MoveLift(speed float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireConnected(); err != nil {
		return err
	}
	s.liftHt += speed
	return nil
}

// SetHeadAngle records an absolute head angle.
func (s *Simulator) SetHeadAngle(angle float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireConnected(); err != nil {
		return err
	}
	s.headAngle = angle
	return nil
}

// SetLiftHeight records an absolute lift height.
func (s *Simulator) SetLiftHeight(height float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireConnected(); err != nil {
		return err
	}
	s.liftHt = height
	return nil
}

// StopAllMotors zeroes every recorded motor speed.
func (s *Simulator) StopAllMotors() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.left, s.right = 0, 0
	s.logger.Infof("Sim stop_all_motors")
	return nil
}

// PlayExpression logs the expression playback.
func (s *Simulator) PlayExpression(kind ExpressionKind) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireConnected(); err != nil {
		return err
	}
	s.logger.Infof("Sim playing expression '%s'", kind)
	return nil
}

// AddFrameHandler subscribes to synthetic camera frames.
func (s *Simulator) AddFrameHandler(h FrameHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers = append(s.handlers, h)
}

// WheelSpeeds returns the last commanded wheel speeds.
func (s *Simulator) WheelSpeeds() (left, right float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.left, s.right
}

func (s *Simulator) cameraLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(time.Second / simFrameRate)
	defer ticker.Stop()

	var seq uint8
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			frame := s.renderFrame(seq)
			seq++

			s.mu.Lock()
			handlers := make([]FrameHandler, len(s.handlers))
			copy(handlers, s.handlers)
			s.mu.Unlock()

			for _, h := range handlers {
				h(frame)
			}
		}
	}
}

// renderFrame produces a flat gray RGB frame with a moving scanline so
// viewers can tell frames apart.
func (s *Simulator) renderFrame(seq uint8) Frame {
	data := make([]byte, simFrameWidth*simFrameHeight*3)
	for i := range data {
		data[i] = 0x40
	}
	row := int(seq) % simFrameHeight
	rowStart := row * simFrameWidth * 3
	for i := rowStart; i < rowStart+simFrameWidth*3; i++ {
		data[i] = 0xE0
	}
	return Frame{
		Data:      data,
		Width:     simFrameWidth,
		Height:    simFrameHeight,
		Color:     true,
		Timestamp: time.Now(),
	}
}
