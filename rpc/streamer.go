package rpc

import (
	"context"
	"errors"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/andreluisos/jnvim/message"
)

// ErrNilConnection is returned by Attach when the connection is nil.
var ErrNilConnection = errors.New("rpc: connection may not be nil")

// Streamer is the public facade of a duplex msgpack-rpc session: it assigns
// ids to outgoing requests, correlates responses to their callbacks, and
// fans inbound requests and notifications out to any number of observers.
type Streamer interface {
	// Attach binds the streamer to a connection, starting the listener's
	// read loop. Must succeed exactly once before any send; a failed
	// attach leaves the streamer unattached.
	Attach(conn Connection) error
	// Send writes a pre-built message as-is. Responses already carry the id
	// they echo; notifications need none.
	Send(msg message.Message) error
	// Request assigns a fresh id to the builder's message and sends it.
	// A nil callback means the caller opted out of the reply.
	Request(b *message.RequestBuilder, cb ResponseCallback) error
	// Call sends the request and blocks until its response arrives or ctx
	// is done. On cancellation the pending correlation entry is released.
	Call(ctx context.Context, b *message.RequestBuilder) (message.Response, error)

	AddRequestCallback(cb RequestCallback)
	RemoveRequestCallback(cb RequestCallback)
	AddNotificationCallback(cb NotificationCallback)
	RemoveNotificationCallback(cb NotificationCallback)

	// Stop shuts the listener down, then the sender. Not reusable after.
	Stop()
}

const (
	stateUnattached int32 = iota
	stateActive
	stateStopped
)

// PackStream wires a Sender and a Listener into a Streamer. It owns the id
// generator and both observer registries; the sender and listener are
// injected collaborators.
type PackStream struct {
	sender   Sender
	listener Listener
	idGen    message.IDGenerator
	log      *zap.Logger
	state    atomic.Int32

	requestCallbacks      callbackSet[RequestCallback]
	notificationCallbacks callbackSet[NotificationCallback]
}

var _ Streamer = (*PackStream)(nil)

// NewPackStream creates a streamer over the given sender and listener.
// By default ids come from a SequentialIDGenerator; pass WithIDGenerator to
// override. Panics if sender or listener is nil, since no call could ever
// succeed.
func NewPackStream(sender Sender, listener Listener, opts ...Option) *PackStream {
	if sender == nil {
		panic("rpc: sender must be provided for two way communication")
	}
	if listener == nil {
		panic("rpc: listener must be provided for two way communication")
	}
	o := applyOptions(opts)
	if o.idGen == nil {
		o.idGen = message.NewSequentialIDGenerator()
	}
	return &PackStream{
		sender:   sender,
		listener: listener,
		idGen:    o.idGen,
		log:      o.logger,
	}
}

func (s *PackStream) Attach(conn Connection) error {
	if conn == nil {
		return ErrNilConnection
	}
	if !s.state.CompareAndSwap(stateUnattached, stateActive) {
		if s.state.Load() == stateStopped {
			return ErrStopped
		}
		return errors.New("rpc: already attached")
	}
	s.log.Info("attaching stream")
	// Sinks must be in place before the read loop starts, or an early
	// inbound message could slip by unobserved.
	s.listener.ListenForRequests(s.requestReceived)
	s.listener.ListenForNotifications(s.notificationReceived)
	if err := s.listener.Start(conn.Incoming()); err != nil {
		s.state.Store(stateUnattached)
		return err
	}
	if err := s.sender.Attach(conn.Outgoing()); err != nil {
		s.state.Store(stateUnattached)
		return err
	}
	return nil
}

func (s *PackStream) Send(msg message.Message) error {
	if err := s.active(); err != nil {
		return err
	}
	s.log.Debug("sending message", zap.Any("message", msg))
	return s.sender.Send(msg)
}

func (s *PackStream) Request(b *message.RequestBuilder, cb ResponseCallback) error {
	_, err := s.request(b, cb)
	return err
}

// request is the correlation-critical path. The order is the core invariant:
// the callback is registered under the fresh id before the message reaches
// the sender, so a reply can never arrive ahead of its registration.
func (s *PackStream) request(b *message.RequestBuilder, cb ResponseCallback) (uint32, error) {
	if err := s.active(); err != nil {
		return 0, err
	}
	id := s.idGen.NextID()
	msg := b.Build(id)
	if cb != nil {
		s.listener.ListenForResponse(id, cb)
	}
	if err := s.sender.Send(msg); err != nil {
		if cb != nil {
			s.listener.ForgetResponse(id)
		}
		return 0, err
	}
	return id, nil
}

func (s *PackStream) Call(ctx context.Context, b *message.RequestBuilder) (message.Response, error) {
	ch := make(chan message.Response, 1)
	id, err := s.request(b, func(_ uint32, resp message.Response) {
		ch <- resp
	})
	if err != nil {
		return message.Response{}, err
	}
	select {
	case resp := <-ch:
		return resp, nil
	case <-ctx.Done():
		// Release the pending entry so an unanswered call does not leak.
		s.listener.ForgetResponse(id)
		return message.Response{}, ctx.Err()
	}
}

func (s *PackStream) AddRequestCallback(cb RequestCallback) {
	if cb == nil {
		return
	}
	if s.requestCallbacks.add(cb) {
		s.log.Info("registered request callback")
	}
}

func (s *PackStream) RemoveRequestCallback(cb RequestCallback) {
	if cb == nil {
		return
	}
	if s.requestCallbacks.remove(cb) {
		s.log.Info("removed request callback")
	}
}

func (s *PackStream) AddNotificationCallback(cb NotificationCallback) {
	if cb == nil {
		return
	}
	if s.notificationCallbacks.add(cb) {
		s.log.Info("registered notification callback")
	}
}

func (s *PackStream) RemoveNotificationCallback(cb NotificationCallback) {
	if cb == nil {
		return
	}
	if s.notificationCallbacks.remove(cb) {
		s.log.Info("removed notification callback")
	}
}

// Stop stops the listener first, cutting off new correlation work, then the
// sender. The streamer is terminal afterwards: Attach and Send will fail.
func (s *PackStream) Stop() {
	if s.state.Swap(stateStopped) == stateStopped {
		return
	}
	s.log.Info("stopping stream")
	s.listener.Stop()
	s.sender.Stop()
}

func (s *PackStream) active() error {
	switch s.state.Load() {
	case stateActive:
		return nil
	case stateStopped:
		return ErrStopped
	default:
		return ErrNotAttached
	}
}

func (s *PackStream) requestReceived(req message.Request) {
	s.log.Debug("request received", zap.Any("request", req))
	for _, cb := range s.requestCallbacks.snapshot() {
		cb(req)
	}
}

func (s *PackStream) notificationReceived(n message.Notification) {
	s.log.Debug("notification received", zap.Any("notification", n))
	for _, cb := range s.notificationCallbacks.snapshot() {
		cb(n)
	}
}
