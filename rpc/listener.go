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

// Listener runs the read-decode-dispatch loop of a connection and owns the
// correlation table for pending responses.
type Listener interface {
	// Start begins reading from the input stream on its own goroutine.
	Start(r io.Reader) error
	// ListenForRequests registers the single sink inbound requests go to.
	ListenForRequests(cb RequestCallback)
	// ListenForNotifications registers the single sink for notifications.
	ListenForNotifications(cb NotificationCallback)
	// ListenForResponse registers a one-shot callback for the response with
	// the given id. The callback is invoked exactly once, then discarded.
	ListenForResponse(id uint32, cb ResponseCallback)
	// ForgetResponse drops a pending registration, if still present.
	ForgetResponse(id uint32)
	// Stop terminates the read loop and releases the callback tables.
	Stop()
}

// StreamListener decodes frames on a dedicated goroutine and routes them:
// responses to the matching pending callback, requests and notifications to
// their sinks. A single malformed frame is reported and skipped so it cannot
// wedge the other in-flight correlations; only stream-level errors end the
// loop.
type StreamListener struct {
	codec   codec.Codec
	log     *zap.Logger
	started atomic.Bool
	stopped atomic.Bool

	// pending maps request id → ResponseCallback. Entries are consumed with
	// LoadAndDelete so a callback can never fire twice, even for a
	// duplicated response frame.
	pending sync.Map

	sinkMu    sync.Mutex
	reqSink   RequestCallback
	notifSink NotificationCallback
}

// NewStreamListener creates a listener decoding with the given codec.
func NewStreamListener(c codec.Codec, opts ...Option) *StreamListener {
	o := applyOptions(opts)
	return &StreamListener{codec: c, log: o.logger}
}

func (l *StreamListener) Start(r io.Reader) error {
	if r == nil {
		return ErrNilStream
	}
	if l.stopped.Load() {
		return ErrStopped
	}
	if !l.started.CompareAndSwap(false, true) {
		return errors.New("rpc: listener already started")
	}
	dec := l.codec.NewDecoder(r)
	go l.readLoop(dec)
	l.log.Info("listener started")
	return nil
}

func (l *StreamListener) ListenForRequests(cb RequestCallback) {
	l.sinkMu.Lock()
	l.reqSink = cb
	l.sinkMu.Unlock()
}

func (l *StreamListener) ListenForNotifications(cb NotificationCallback) {
	l.sinkMu.Lock()
	l.notifSink = cb
	l.sinkMu.Unlock()
}

func (l *StreamListener) ListenForResponse(id uint32, cb ResponseCallback) {
	if cb == nil {
		return
	}
	l.pending.Store(id, cb)
}

func (l *StreamListener) ForgetResponse(id uint32) {
	l.pending.Delete(id)
}

// Stop flags the loop to exit and clears the correlation table. The loop
// itself only notices on its next decode, which is fine: the usual shutdown
// path closes the connection right after, unblocking the read.
func (l *StreamListener) Stop() {
	if l.stopped.CompareAndSwap(false, true) {
		l.pending.Clear()
		l.log.Info("listener stopped")
	}
}

func (l *StreamListener) readLoop(dec codec.Decoder) {
	for {
		msg, err := dec.Decode()
		if err != nil {
			var fe *codec.FrameError
			if errors.As(err, &fe) {
				// One bad frame must not take the session down.
				l.log.Warn("skipping malformed frame", zap.String("reason", fe.Reason))
				continue
			}
			if l.stopped.Load() || errors.Is(err, io.EOF) {
				l.log.Info("read loop finished")
			} else {
				l.log.Error("read loop terminated", zap.Error(err))
			}
			return
		}
		if l.stopped.Load() {
			return
		}
		l.dispatch(msg)
	}
}

func (l *StreamListener) dispatch(msg message.Message) {
	switch m := msg.(type) {
	case message.Response:
		cb, ok := l.pending.LoadAndDelete(m.ID)
		if !ok {
			// Unexpected, late or duplicated response: there is no owner
			// for it, so report and drop.
			l.log.Warn("unroutable response", zap.Uint32("id", m.ID))
			return
		}
		cb.(ResponseCallback)(m.ID, m)
	case message.Request:
		l.sinkMu.Lock()
		sink := l.reqSink
		l.sinkMu.Unlock()
		if sink != nil {
			sink(m)
		}
	case message.Notification:
		l.sinkMu.Lock()
		sink := l.notifSink
		l.sinkMu.Unlock()
		if sink != nil {
			sink(m)
		}
	}
}
