// Package rpc implements the bidirectional message exchange core: an
// asynchronous sender, a listening read loop, and the PackStream orchestrator
// that correlates outgoing requests with incoming responses.
//
// The flow for a request with a callback:
//
//	caller ── Request(builder, cb) ──→ PackStream
//	  → id generator assigns a fresh id
//	  → cb registered in the listener's pending table (before the write!)
//	  → built message handed to the AsyncSender's worker queue
//
//	read loop: decode frame → response? → pending[id] → cb fires once
//	                        → request/notification? → broadcast to observers
package rpc

import (
	"io"
	"net"
)

// Connection is a single already-established duplex byte stream. Dialing,
// reconnection and authentication are the caller's business; the streamer
// only ever sees the two stream halves.
type Connection interface {
	Incoming() io.Reader
	Outgoing() io.Writer
}

type streamConnection struct {
	in  io.Reader
	out io.Writer
}

// NewConnection pairs an input and output stream into a Connection.
func NewConnection(in io.Reader, out io.Writer) Connection {
	return &streamConnection{in: in, out: out}
}

// FromConn adapts a net.Conn, which is both halves at once.
func FromConn(conn net.Conn) Connection {
	return &streamConnection{in: conn, out: conn}
}

func (c *streamConnection) Incoming() io.Reader { return c.in }
func (c *streamConnection) Outgoing() io.Writer { return c.out }
