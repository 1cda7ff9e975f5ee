// Package endpoint serves inbound requests arriving on a streamer.
//
// An Endpoint turns the observer side of a PackStream into a method
// dispatcher: registered receivers are exposed as "Type.Method" targets,
// every inbound request runs through the middleware chain on its own
// goroutine, and the handler's result (or error) travels back as a response
// with the request's id. Notifications run the same dispatch with the result
// discarded.
package endpoint

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/andreluisos/jnvim/message"
	"github.com/andreluisos/jnvim/middleware"
	"github.com/andreluisos/jnvim/rpc"
)

// Endpoint dispatches inbound requests to registered services and handlers.
type Endpoint struct {
	streamer rpc.Streamer
	log      *zap.Logger

	mu          sync.RWMutex
	services    map[string]*service
	handlers    map[string]middleware.HandlerFunc
	middlewares []middleware.Middleware
	chain       middleware.HandlerFunc
	serving     bool
}

// New creates an endpoint over the given streamer. Registration and Use must
// happen before Serve.
func New(streamer rpc.Streamer, log *zap.Logger) *Endpoint {
	if log == nil {
		log = zap.NewNop()
	}
	return &Endpoint{
		streamer: streamer,
		log:      log,
		services: make(map[string]*service),
		handlers: make(map[string]middleware.HandlerFunc),
	}
}

// Use appends a middleware. Middlewares run in the order they were added.
func (e *Endpoint) Use(mw middleware.Middleware) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.middlewares = append(e.middlewares, mw)
}

// Register exposes the exported RPC-shaped methods of rcvr under
// "TypeName.MethodName".
func (e *Endpoint) Register(rcvr any) error {
	svc, err := newService(rcvr)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, dup := e.services[svc.name]; dup {
		return fmt.Errorf("endpoint: service %s already registered", svc.name)
	}
	e.services[svc.name] = svc
	return nil
}

// HandleFunc exposes a single method under its literal name, bypassing
// reflection. Useful for methods that want the raw argument list.
func (e *Endpoint) HandleFunc(method string, h middleware.HandlerFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers[method] = h
}

// Serve builds the middleware chain once and hooks the endpoint into the
// streamer's observer registries. It does not block; the work happens on the
// listener's dispatch path.
func (e *Endpoint) Serve() {
	e.mu.Lock()
	if e.serving {
		e.mu.Unlock()
		return
	}
	e.serving = true
	e.chain = middleware.Chain(e.middlewares...)(e.dispatch)
	e.mu.Unlock()

	e.streamer.AddRequestCallback(e.requestReceived)
	e.streamer.AddNotificationCallback(e.notificationReceived)
}

// requestReceived handles one inbound request on its own goroutine so a slow
// handler never stalls the read loop or the other in-flight requests.
func (e *Endpoint) requestReceived(req message.Request) {
	go func() {
		result, rpcErr := e.chain(context.Background(), req)
		resp := message.NewResponse(req.ID, rpcErr, result)
		if err := e.streamer.Send(resp); err != nil {
			e.log.Error("failed to send response",
				zap.Uint32("id", req.ID), zap.String("method", req.Method), zap.Error(err))
		}
	}()
}

// notificationReceived reuses the request dispatch with the outcome thrown
// away; there is no one to answer.
func (e *Endpoint) notificationReceived(n message.Notification) {
	go func() {
		req := message.Request{Method: n.Method, Args: n.Args}
		if _, rpcErr := e.chain(context.Background(), req); rpcErr != nil {
			e.log.Warn("notification handler failed",
				zap.String("method", n.Method), zap.Int64("code", rpcErr.Code),
				zap.String("error", rpcErr.Message))
		}
	}()
}

func (e *Endpoint) dispatch(ctx context.Context, req message.Request) (any, *message.Error) {
	e.mu.RLock()
	h, direct := e.handlers[req.Method]
	e.mu.RUnlock()
	if direct {
		return h(ctx, req)
	}

	svcName, methodName, ok := strings.Cut(req.Method, ".")
	if !ok {
		return nil, &message.Error{
			Code:    message.CodeUnknownMethod,
			Message: fmt.Sprintf("invalid method format %q, want Service.Method", req.Method),
		}
	}
	e.mu.RLock()
	svc, found := e.services[svcName]
	e.mu.RUnlock()
	if !found {
		return nil, &message.Error{
			Code:    message.CodeUnknownMethod,
			Message: fmt.Sprintf("unknown service %q", svcName),
		}
	}
	return svc.call(ctx, methodName, req.Args)
}
