// Package teleop runs the teleoperation session: a fixed-rate control loop
// reading the latest operator input and driving the robot through the
// motor sink.
package teleop

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/toybot/teleop/domain/diagnostic"
	"github.com/toybot/teleop/pkg/config"
	"github.com/toybot/teleop/pkg/drive"
	"github.com/toybot/teleop/pkg/input"
	customlog "github.com/toybot/teleop/pkg/log"
	"github.com/toybot/teleop/pkg/robot"
)

// DefaultLoopRateHz is the control loop rate when the configuration leaves
// it unset.
const DefaultLoopRateHz = 20

// Mode selects how stick input maps onto wheel speeds.
type Mode string

const (
	// ModeArcade blends a forward axis and a turn axis into wheel speeds.
	ModeArcade Mode = "arcade"
	// ModeThrottleSteer converts forward/turn into a throttle and steering
	// angle, then through the skid-steer thrust curve.
	ModeThrottleSteer Mode = "throttle_steer"
	// ModeDirect maps two axes straight onto the left and right wheels.
	ModeDirect Mode = "direct"
)

// ParseMode resolves a configured mode name. An empty name selects arcade.
func ParseMode(name string) (Mode, error) {
	switch name {
	case "", string(ModeArcade):
		return ModeArcade, nil
	case string(ModeThrottleSteer):
		return ModeThrottleSteer, nil
	case string(ModeDirect):
		return ModeDirect, nil
	default:
		return "", fmt.Errorf("unknown drive mode '%s'", name)
	}
}

// Publisher is the telemetry surface the session publishes on. Optional;
// a nil publisher disables publishing.
type Publisher interface {
	PublishJSON(topic string, messageType string, data interface{}) error
}

// Session is one teleoperation run against a connected robot. It owns the
// control loop and the shutdown ordering: on any exit path the motor sink
// is shut down before Done is closed.
type Session struct {
	mode   Mode
	params config.DriveParameters
	rateHz int

	state  *input.DriveState
	sink   *robot.MotorSink
	client robot.Client
	stats  *diagnostic.StatsService
	logger customlog.Logger

	publisher Publisher

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
	wg      sync.WaitGroup
}

// NewSession creates a session from the configured drive parameters.
func NewSession(
	params config.DriveParameters,
	state *input.DriveState,
	sink *robot.MotorSink,
	client robot.Client,
	stats *diagnostic.StatsService,
	logger customlog.Logger,
) (*Session, error) {
	mode, err := ParseMode(params.Mode)
	if err != nil {
		return nil, err
	}

	rateHz := params.LoopRateHz
	if rateHz <= 0 {
		rateHz = DefaultLoopRateHz
	}

	return &Session{
		mode:   mode,
		params: params,
		rateHz: rateHz,
		state:  state,
		sink:   sink,
		client: client,
		stats:  stats,
		logger: logger,
		done:   make(chan struct{}),
	}, nil
}

// SetPublisher injects the telemetry publisher. Must be called before Start.
func (s *Session) SetPublisher(p Publisher) {
	s.publisher = p
}

// Mode returns the active control mode.
func (s *Session) Mode() Mode {
	return s.mode
}

// Start begins the control loop.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}
	s.running = true

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.stats.SetMode(string(s.mode))
	s.logger.Infof("Teleop session starting (mode=%s, rate=%dHz, max_wheel_speed=%.1f)",
		s.mode, s.rateHz, s.params.MaxWheelSpeed)

	s.wg.Add(1)
	go s.run(ctx)
	return nil
}

// Stop ends the session and waits for the loop to exit. Safe to call more
// than once and after a quit intent already ended the loop.
func (s *Session) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	cancel := s.cancel
	s.mu.Unlock()

	cancel()
	s.wg.Wait()
}

// Done is closed when the control loop has exited and the motors are
// stopped, whether by Stop or by an operator quit intent.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

func (s *Session) run(ctx context.Context) {
	defer s.wg.Done()
	defer close(s.done)
	// Motors stop on every exit path.
	defer s.sink.Shutdown()

	interval := time.Second / time.Duration(s.rateHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	statsEvery := s.rateHz // roughly once per second
	tickCount := 0
	var lastPublished drive.WheelCommand
	published := false

	for {
		select {
		case <-ctx.Done():
			s.logger.Infof("Teleop session stopping")
			return
		case <-ticker.C:
			cmd := s.tick()

			if s.publisher != nil {
				if !published || cmd != lastPublished {
					if err := s.publisher.PublishJSON("drive.command", "DRIVE_COMMAND", cmd); err != nil {
						s.logger.Debugf("Failed to publish drive command: %v", err)
					}
					lastPublished = cmd
					published = true
				}

				tickCount++
				if tickCount%statsEvery == 0 {
					if err := s.publisher.PublishJSON("session.stats", "SESSION_STATS", s.stats.Snapshot()); err != nil {
						s.logger.Debugf("Failed to publish session stats: %v", err)
					}
				}
			}

			if quit := s.handleIntent(); quit {
				s.logger.Infof("Quit requested by operator")
				return
			}
		}
	}
}

// tick executes one control frame: map the latest input snapshot to motor
// commands and forward them through the sink.
func (s *Session) tick() drive.WheelCommand {
	snap := s.state.Snapshot()
	cmd := s.mapCommand(snap)

	if err := s.sink.Drive(cmd); err != nil {
		s.logger.Errorf("Failed to drive wheels: %v", err)
	}
	if err := s.sink.MoveHead(snap.Head * s.params.MaxHeadSpeed); err != nil {
		s.logger.Errorf("Failed to move head: %v", err)
	}
	if err := s.sink.MoveLift(snap.Lift * s.params.MaxLiftSpeed); err != nil {
		s.logger.Errorf("Failed to move lift: %v", err)
	}

	s.stats.RecordTick(cmd)
	return cmd
}

func (s *Session) mapCommand(snap input.Snapshot) drive.WheelCommand {
	switch s.mode {
	case ModeThrottleSteer:
		return s.throttleSteerCommand(snap)
	case ModeDirect:
		return drive.WheelCommand{
			Left:  drive.Clamp(snap.WheelLeft, -1, 1) * s.params.MaxWheelSpeed,
			Right: drive.Clamp(snap.WheelRight, -1, 1) * s.params.MaxWheelSpeed,
		}
	default:
		return drive.Wheels(snap.Forward, snap.Turn, s.params.MaxWheelSpeed)
	}
}

// throttleSteerCommand converts the stick deflection into a throttle
// percentage and steering angle, then runs the skid-steer thrust curve.
// Full turn deflection steers 90 degrees; pulling back flips the heading
// behind the robot so reverse arcs mirror forward ones.
func (s *Session) throttleSteerCommand(snap input.Snapshot) drive.WheelCommand {
	throttle := math.Abs(snap.Forward) * 100
	steer := -snap.Turn * 90
	if snap.Forward < 0 {
		steer += 180
	}

	thrust := drive.Thrust(throttle, steer)
	scale := s.params.MaxWheelSpeed / 100
	return drive.WheelCommand{
		Left:  thrust.Left * scale,
		Right: thrust.Right * scale,
	}
}

// handleIntent consumes at most one pending single-shot intent per tick.
// Returns true when the operator requested shutdown.
func (s *Session) handleIntent() bool {
	intent := s.state.TakeIntent()
	switch intent.Kind {
	case input.IntentIdle:
		return false
	case input.IntentExpression:
		s.stats.RecordExpression()
		// Expression playback can take seconds on the robot; never stall
		// the control loop for it.
		go func(kind robot.ExpressionKind) {
			if err := s.client.PlayExpression(kind); err != nil {
				s.logger.Errorf("Failed to play expression '%s': %v", kind, err)
			}
		}(intent.Expression)
		return false
	case input.IntentSound:
		s.logger.Warnf("Sound playback not supported by this robot client")
		return false
	case input.IntentQuit:
		return true
	default:
		return false
	}
}
