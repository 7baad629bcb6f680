package server

import (
	"net"
	"sync"
)

// Registry tracks the currently open inbound connections so the server can
// close all of them on shutdown. Connections register on accept and
// deregister when their reader exits.
type Registry struct {
	mu    sync.Mutex
	conns map[string]net.Conn
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]net.Conn)}
}

// Add registers a connection under its remote address.
func (r *Registry) Add(conn net.Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[conn.RemoteAddr().String()] = conn
}

// Remove deregisters the connection with the given remote address.
func (r *Registry) Remove(remote string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, remote)
}

// Len returns the number of registered connections.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.conns)
}

// CloseAll forcibly closes every registered connection and clears the
// registry. Reader goroutines observe the close as a read error and exit.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for remote, conn := range r.conns {
		_ = conn.Close()
		delete(r.conns, remote)
	}
}
