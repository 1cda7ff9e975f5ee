// Package registry lets processes that serve an endpoint over a listening
// socket announce themselves, and lets peers discover them. Dialing the
// discovered address stays the caller's job; the streamer only ever consumes
// an already-established connection.
package registry

// Instance describes one announced endpoint.
type Instance struct {
	Addr    string // dialable address, e.g. "127.0.0.1:7450"
	Codec   byte   // codec type the endpoint speaks (codec.Type value)
	Weight  int    // relative capacity, consumed by WeightedRandom
	Version string
}

// Registry is the announcement/discovery boundary.
type Registry interface {
	// Register announces an instance under a service name with a TTL in
	// seconds. The entry is kept alive until Deregister or process death.
	Register(service string, inst Instance, ttl int64) error
	// Deregister withdraws an instance.
	Deregister(service string, addr string) error
	// Discover lists the currently announced instances of a service.
	Discover(service string) ([]Instance, error)
	// Watch emits a fresh instance list whenever the set changes.
	Watch(service string) <-chan []Instance
}
