package rpc

import (
	"errors"
	"io"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/andreluisos/jnvim/codec"
	"github.com/andreluisos/jnvim/message"
)

var (
	// ErrNotAttached is returned by Send when no output stream has been
	// attached yet. This is a programming error at the call site.
	ErrNotAttached = errors.New("rpc: not attached, call Attach first")

	// ErrStopped is returned once Stop has been called. Stopped components
	// are not reusable.
	ErrStopped = errors.New("rpc: stopped")

	// ErrNilStream is returned when Attach or Start receives a nil stream.
	ErrNilStream = errors.New("rpc: stream may not be nil")
)

// Sender accepts fully-formed messages and writes them asynchronously.
type Sender interface {
	// Attach binds the output stream. Must be called before the first Send.
	Attach(w io.Writer) error
	// Send enqueues the message and returns without waiting for the write.
	// No completion ordering is guaranteed between concurrent Send calls.
	Send(msg message.Message) error
	// Stop refuses further sends and returns without waiting for in-flight
	// work. Messages already accepted may still be written or fail on
	// their own.
	Stop()
}

// AsyncSender writes messages from a bounded queue drained by worker
// goroutines. A failed write is logged and the message abandoned; this is a
// fire-and-forget path, not a confirmed-delivery one. Callers that need
// strict ordering keep the default single worker or serialize their own
// Send calls.
type AsyncSender struct {
	codec   codec.Codec
	log     *zap.Logger
	tasks   chan message.Message
	quit    chan struct{}
	stopped atomic.Bool

	// writeMu serializes encoder access so frames from different workers
	// never interleave on the stream.
	writeMu sync.Mutex
	enc     codec.Encoder
}

// NewAsyncSender creates a sender using the given codec and starts its
// workers. The sender is unattached until Attach is called.
func NewAsyncSender(c codec.Codec, opts ...Option) *AsyncSender {
	o := applyOptions(opts)
	s := &AsyncSender{
		codec: c,
		log:   o.logger,
		tasks: make(chan message.Message, o.queueSize),
		quit:  make(chan struct{}),
	}
	for i := 0; i < o.workers; i++ {
		go s.worker()
	}
	return s
}

func (s *AsyncSender) Attach(w io.Writer) error {
	if w == nil {
		return ErrNilStream
	}
	s.writeMu.Lock()
	s.enc = s.codec.NewEncoder(w)
	s.writeMu.Unlock()
	s.log.Info("attached to output stream")
	return nil
}

func (s *AsyncSender) Send(msg message.Message) error {
	if s.stopped.Load() {
		return ErrStopped
	}
	if !s.attached() {
		return ErrNotAttached
	}
	// The quit case keeps a Send blocked on a full queue from outliving
	// Stop: it fails instead of waiting for room that may never come.
	select {
	case s.tasks <- msg:
		return nil
	case <-s.quit:
		return ErrStopped
	}
}

// Stop refuses further sends and returns immediately. Workers drain the
// messages accepted so far in the background; a write wedged on a stuck
// stream wedges only its own worker, never the caller of Stop.
func (s *AsyncSender) Stop() {
	if !s.stopped.CompareAndSwap(false, true) {
		return
	}
	close(s.quit)
	s.log.Info("sender stopped")
}

func (s *AsyncSender) attached() bool {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.enc != nil
}

func (s *AsyncSender) worker() {
	for {
		select {
		case msg := <-s.tasks:
			s.write(msg)
		case <-s.quit:
			// Drain what was accepted before the stop, then exit.
			for {
				select {
				case msg := <-s.tasks:
					s.write(msg)
				default:
					return
				}
			}
		}
	}
}

func (s *AsyncSender) write(msg message.Message) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.log.Debug("sending message", zap.Any("message", msg))
	if err := s.enc.Encode(msg); err != nil {
		// Terminal for this message only. The caller opted into
		// fire-and-forget, so the failure surfaces here and nowhere else.
		s.log.Error("failed sending message", zap.Any("message", msg), zap.Error(err))
	}
}
