package robot

import (
	"sync"

	"github.com/toybot/teleop/pkg/drive"
	customlog "github.com/toybot/teleop/pkg/log"
)

// MotorSink is the actuation boundary between the control loop and the
// vendor client. It owns the runaway-motion guarantee: whatever way the
// loop exits, Shutdown issues exactly one stop-all-motors before the client
// is released, and rejects any motor command arriving after that.
type MotorSink struct {
	client Client
	logger customlog.Logger

	mu        sync.Mutex
	stopped   bool
	lastDrive drive.WheelCommand
}

// NewMotorSink wraps a vendor client as an actuation sink.
func NewMotorSink(client Client, logger customlog.Logger) *MotorSink {
	return &MotorSink{
		client: client,
		logger: logger,
	}
}

// Drive forwards a wheel command to the robot.
func (s *MotorSink) Drive(cmd drive.WheelCommand) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return nil
	}
	if err := s.client.DriveWheels(cmd.Left, cmd.Right); err != nil {
		return err
	}
	s.lastDrive = cmd
	return nil
}

// MoveHead forwards a head motor speed to the robot.
func (s *MotorSink) MoveHead(speed float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return nil
	}
	return s.client.MoveHead(speed)
}

// MoveLift forwards a lift motor speed to the robot.
func (s *MotorSink) MoveLift(speed float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return nil
	}
	return s.client.MoveLift(speed)
}

// LastDrive returns the most recent wheel command accepted by the sink.
func (s *MotorSink) LastDrive() drive.WheelCommand {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastDrive
}

// Shutdown stops all motors and marks the sink closed. Safe to call more
// than once; only the first call reaches the robot.
func (s *MotorSink) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}
	s.stopped = true
	s.lastDrive = drive.WheelCommand{}

	if err := s.client.StopAllMotors(); err != nil {
		s.logger.Errorf("Failed to stop motors on shutdown: %v", err)
		return
	}
	s.logger.Infof("Motor sink shut down, all motors stopped")
}
