// Package telemetry exposes the controller over ZeroMQ: a PUB socket
// streaming drive commands and session stats to any subscribed tool, and a
// REP socket answering state and configuration requests.
package telemetry

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/pebbe/zmq4"

	customlog "github.com/toybot/teleop/pkg/log"
)

// Common errors
var (
	ErrServiceClosed      = errors.New("telemetry service is closed")
	ErrInvalidMessage     = errors.New("invalid message format")
	ErrUnknownMessageType = errors.New("unknown message type")
)

// Message types
const (
	MsgTypeStateRequest   = "STATE_REQUEST"
	MsgTypeStateResponse  = "STATE_RESPONSE"
	MsgTypeConfigRequest  = "CONFIG_REQUEST"
	MsgTypeConfigResponse = "CONFIG_RESPONSE"
	MsgTypeError          = "ERROR"
)

// Publish topics
const (
	TopicDriveCommand = "drive.command"
	TopicSessionStats = "session.stats"
)

// Envelope is the JSON wire format for every telemetry message.
type Envelope struct {
	Type      string      `json:"type"`
	Timestamp float64     `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
}

// ErrorResponse is the data payload of an ERROR envelope.
type ErrorResponse struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// Handler processes one request message type on the REP socket.
type Handler interface {
	HandleMessage(data []byte) ([]byte, error)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(data []byte) ([]byte, error)

// HandleMessage calls the function.
func (f HandlerFunc) HandleMessage(data []byte) ([]byte, error) {
	return f(data)
}

// Dispatcher routes request envelopes to the handler registered for their
// type.
type Dispatcher struct {
	handlers map[string]Handler
	logger   customlog.Logger
	mu       sync.RWMutex
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher(logger customlog.Logger) *Dispatcher {
	return &Dispatcher{
		handlers: make(map[string]Handler),
		logger:   logger,
	}
}

// RegisterHandler adds a handler for a specific message type.
func (d *Dispatcher) RegisterHandler(messageType string, handler Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.handlers[messageType] = handler
	d.logger.Infof("Registered telemetry handler for message type: %s", messageType)
}

// Dispatch parses a request envelope and routes it to its handler.
func (d *Dispatcher) Dispatch(data []byte) ([]byte, error) {
	var msg Envelope
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}

	d.mu.RLock()
	handler, exists := d.handlers[msg.Type]
	d.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMessageType, msg.Type)
	}

	d.logger.Debugf("Dispatching telemetry request of type: %s", msg.Type)
	return handler.HandleMessage(data)
}

// responder answers requests on a REP socket.
type responder struct {
	socket     *zmq4.Socket
	dispatcher *Dispatcher
	poller     *zmq4.Poller
	logger     customlog.Logger
	running    bool
	wg         *sync.WaitGroup
}

func newResponder(ctx *zmq4.Context, bindAddress string, dispatcher *Dispatcher, logger customlog.Logger, wg *sync.WaitGroup) (*responder, error) {
	socket, err := ctx.NewSocket(zmq4.REP)
	if err != nil {
		return nil, fmt.Errorf("failed to create REP socket: %w", err)
	}

	if err := socket.Bind(bindAddress); err != nil {
		socket.Close()
		return nil, fmt.Errorf("failed to bind to %s: %w", bindAddress, err)
	}

	if err := socket.SetLinger(0); err != nil {
		socket.Close()
		return nil, fmt.Errorf("failed to set linger option: %w", err)
	}

	// Timeouts prevent indefinite blocking during shutdown.
	const socketTimeout = 1 * time.Second
	if err := socket.SetRcvtimeo(socketTimeout); err != nil {
		socket.Close()
		return nil, fmt.Errorf("failed to set receive timeout: %w", err)
	}
	if err := socket.SetSndtimeo(socketTimeout); err != nil {
		socket.Close()
		return nil, fmt.Errorf("failed to set send timeout: %w", err)
	}

	poller := zmq4.NewPoller()
	poller.Add(socket, zmq4.POLLIN)

	logger.Infof("Telemetry responder initialized on %s", bindAddress)

	return &responder{
		socket:     socket,
		dispatcher: dispatcher,
		poller:     poller,
		logger:     logger,
		wg:         wg,
	}, nil
}

func (r *responder) Start() {
	if r.running {
		return
	}

	r.running = true
	r.wg.Add(1)

	go func() {
		defer r.wg.Done()
		r.logger.Infof("Telemetry responder started")

		for r.running {
			// Poll with timeout to allow for clean shutdown.
			sockets, err := r.poller.Poll(500 * time.Millisecond)
			if err != nil {
				if r.running {
					r.logger.Errorf("Error polling telemetry socket: %v", err)
				}
				continue
			}

			if len(sockets) == 0 {
				continue
			}

			msg, err := r.socket.RecvBytes(0)
			if err != nil {
				if r.running {
					r.logger.Errorf("Error receiving telemetry request: %v", err)
				}
				continue
			}

			r.logger.Debugf("Received telemetry request (%d bytes)", len(msg))

			response, err := r.dispatcher.Dispatch(msg)
			if err != nil {
				r.logger.Errorf("Error dispatching telemetry request: %v", err)

				errorResp := Envelope{
					Type:      MsgTypeError,
					Timestamp: float64(time.Now().Unix()),
					Data: ErrorResponse{
						Message: err.Error(),
						Code:    500,
					},
				}

				errData, _ := json.Marshal(errorResp)
				if _, err := r.socket.SendBytes(errData, 0); err != nil && r.running {
					r.logger.Errorf("Error sending telemetry error response: %v", err)
				}
				continue
			}

			if _, err := r.socket.SendBytes(response, 0); err != nil && r.running {
				r.logger.Errorf("Error sending telemetry response: %v", err)
			}
		}
	}()
}

func (r *responder) Stop() {
	if !r.running {
		return
	}
	r.running = false
	if r.socket != nil {
		// Closing the socket interrupts any blocking call.
		r.socket.Close()
		r.socket = nil
	}
}

// publisher sends topic-framed messages on a PUB socket.
type publisher struct {
	socket  *zmq4.Socket
	logger  customlog.Logger
	running bool
	mu      sync.Mutex
}

func newPublisher(ctx *zmq4.Context, bindAddress string, logger customlog.Logger) (*publisher, error) {
	socket, err := ctx.NewSocket(zmq4.PUB)
	if err != nil {
		return nil, fmt.Errorf("failed to create PUB socket: %w", err)
	}

	if err := socket.Bind(bindAddress); err != nil {
		socket.Close()
		return nil, fmt.Errorf("failed to bind to %s: %w", bindAddress, err)
	}

	if err := socket.SetLinger(0); err != nil {
		socket.Close()
		return nil, fmt.Errorf("failed to set linger option: %w", err)
	}

	logger.Infof("Telemetry publisher initialized on %s", bindAddress)

	return &publisher{
		socket:  socket,
		logger:  logger,
		running: true,
	}, nil
}

// Publish sends a topic frame followed by the payload frame.
func (p *publisher) Publish(topic string, message []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return ErrServiceClosed
	}

	if _, err := p.socket.Send(topic, zmq4.SNDMORE); err != nil {
		return fmt.Errorf("failed to send topic: %w", err)
	}
	if _, err := p.socket.SendBytes(message, 0); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

func (p *publisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.running = false
	if p.socket != nil {
		p.socket.Close()
		p.socket = nil
	}
}

// Service coordinates the telemetry sockets.
type Service struct {
	ctx        *zmq4.Context
	responder  *responder
	publisher  *publisher
	dispatcher *Dispatcher
	logger     customlog.Logger
	running    bool
	wg         sync.WaitGroup
}

// NewService creates the telemetry service bound to the given addresses.
func NewService(publishBindAddress, requestBindAddress string, logger customlog.Logger) (*Service, error) {
	ctx, err := zmq4.NewContext()
	if err != nil {
		return nil, fmt.Errorf("failed to create ZMQ context: %w", err)
	}

	dispatcher := NewDispatcher(logger)

	s := &Service{
		ctx:        ctx,
		dispatcher: dispatcher,
		logger:     logger,
	}

	s.responder, err = newResponder(ctx, requestBindAddress, dispatcher, logger, &s.wg)
	if err != nil {
		ctx.Term()
		return nil, err
	}

	s.publisher, err = newPublisher(ctx, publishBindAddress, logger)
	if err != nil {
		s.responder.Stop()
		ctx.Term()
		return nil, err
	}

	return s, nil
}

// RegisterHandler adds a handler for a specific request message type.
func (s *Service) RegisterHandler(messageType string, handler Handler) {
	s.dispatcher.RegisterHandler(messageType, handler)
}

// RegisterHandlerFunc adds a handler function for a specific request
// message type.
func (s *Service) RegisterHandlerFunc(messageType string, handler func([]byte) ([]byte, error)) {
	s.dispatcher.RegisterHandler(messageType, HandlerFunc(handler))
}

// Start begins answering requests.
func (s *Service) Start() error {
	if s.running {
		return nil
	}

	s.running = true
	s.logger.Infof("Starting telemetry service")
	s.responder.Start()
	return nil
}

// Stop halts the service and releases its sockets.
func (s *Service) Stop() {
	if !s.running {
		return
	}

	s.logger.Infof("Stopping telemetry service")
	s.running = false

	s.responder.Stop()
	s.publisher.Close()

	s.wg.Wait()

	if s.ctx != nil {
		s.ctx.Term()
		s.ctx = nil
	}

	s.logger.Infof("Telemetry service stopped")
}

// Publish sends a raw payload on a topic.
func (s *Service) Publish(topic string, message []byte) error {
	if !s.running {
		return ErrServiceClosed
	}
	return s.publisher.Publish(topic, message)
}

// PublishJSON wraps data in an Envelope and publishes it on a topic.
func (s *Service) PublishJSON(topic string, messageType string, data interface{}) error {
	msg := Envelope{
		Type:      messageType,
		Timestamp: float64(time.Now().Unix()),
		Data:      data,
	}

	msgData, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	return s.Publish(topic, msgData)
}
