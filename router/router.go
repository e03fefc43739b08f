// Package router maps request message types to the service handlers that
// produce their responses. A Router is immutable after construction and
// holds no other state, so a single instance is shared by every session
// without synchronization.
package router

import (
	"fmt"

	"github.com/cyberinferno/go-chat-server/protocol"
)

// Handler produces the response for one request. Handlers may block on I/O
// (database calls, token stores) and must report business failures as
// success=false response packets rather than panicking; a panic is treated
// as a server fault by the session layer.
type Handler func(req *protocol.Packet) *protocol.Packet

// Router dispatches decoded requests to their handlers.
type Router struct {
	handlers map[protocol.MessageType]Handler
}

// New builds a Router from the given bindings. The map is copied; later
// mutation of the argument does not affect the Router. Binding a non-request
// message type is a programming error and panics at construction.
//
// Parameters:
//   - bindings: Handler per request message type
//
// Returns:
//   - An immutable Router
func New(bindings map[protocol.MessageType]Handler) *Router {
	handlers := make(map[protocol.MessageType]Handler, len(bindings))
	for t, h := range bindings {
		if !t.IsRequest() {
			panic(fmt.Sprintf("router: %s is not a request type", t))
		}
		if h == nil {
			panic(fmt.Sprintf("router: nil handler for %s", t))
		}
		handlers[t] = h
	}

	return &Router{handlers: handlers}
}

// Dispatch routes req to its handler and returns the handler's response. A
// request type with no bound handler yields an ERROR response naming the
// type; it is never a missing-handler fault.
//
// Parameters:
//   - req: The decoded request packet
//
// Returns:
//   - The response packet to write back to the client
func (r *Router) Dispatch(req *protocol.Packet) *protocol.Packet {
	h, ok := r.handlers[req.Type]
	if !ok {
		return protocol.NewError(fmt.Sprintf("unsupported message type: %s", req.Type))
	}

	return h(req)
}

// Len returns the number of bound handlers.
func (r *Router) Len() int {
	return len(r.handlers)
}
