package rpc

import (
	"go.uber.org/zap"

	"github.com/andreluisos/jnvim/message"
)

const (
	defaultWorkers   = 1
	defaultQueueSize = 64
)

type options struct {
	logger    *zap.Logger
	workers   int
	queueSize int
	idGen     message.IDGenerator
}

// Option configures a sender, listener or streamer. Options that do not
// apply to a component are ignored by it.
type Option func(*options)

// WithLogger sets the structured logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithWorkers sets how many goroutines drain the sender's queue. More than
// one worker gives throughput at the cost of any cross-send completion
// ordering. Defaults to 1.
func WithWorkers(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.workers = n
		}
	}
}

// WithQueueSize bounds the sender's task queue. Send blocks once the queue
// is full, which is the backpressure policy. Defaults to 64.
func WithQueueSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.queueSize = n
		}
	}
}

// WithIDGenerator replaces the sequential id generator used by PackStream.
func WithIDGenerator(g message.IDGenerator) Option {
	return func(o *options) {
		if g != nil {
			o.idGen = g
		}
	}
}

func applyOptions(opts []Option) options {
	o := options{
		logger:    zap.NewNop(),
		workers:   defaultWorkers,
		queueSize: defaultQueueSize,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
