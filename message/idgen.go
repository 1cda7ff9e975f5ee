package message

import "sync/atomic"

// IDGenerator produces correlation ids for outgoing requests. Implementations
// must be safe for concurrent use and must never return the same value twice
// within the lifetime of an instance.
type IDGenerator interface {
	NextID() uint32
}

// SequentialIDGenerator hands out 0, 1, 2, ... from an atomic counter.
// It is the default generator used by the streamer.
type SequentialIDGenerator struct {
	n atomic.Uint32
}

// NewSequentialIDGenerator returns a generator whose first id is 0.
func NewSequentialIDGenerator() *SequentialIDGenerator {
	return &SequentialIDGenerator{}
}

func (g *SequentialIDGenerator) NextID() uint32 {
	return g.n.Add(1) - 1
}
