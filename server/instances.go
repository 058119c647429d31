package server

import "sync"

// Process-wide registry of named server instances. Instance() gives
// callers across packages the same engine for the same name without
// threading a reference around.
var (
	instancesMu sync.Mutex
	instances   = make(map[string]*Server)
)

// Instance returns the named server, creating it on first use. When the
// instance already exists the options are ignored; the caller gets the
// instance exactly as previously configured. Use Rebuild to reconfigure.
func Instance(name string, opts ...ServerOption) *Server {
	instancesMu.Lock()
	defer instancesMu.Unlock()
	if existing, ok := instances[name]; ok {
		return existing
	}
	srv := NewServer(name, opts...)
	instances[name] = srv
	return srv
}

// Lookup returns the named server without creating one.
func Lookup(name string) (*Server, bool) {
	instancesMu.Lock()
	defer instancesMu.Unlock()
	srv, ok := instances[name]
	return srv, ok
}

// Rebuild replaces the named instance with a freshly configured one. All
// registrations and statistics of the prior instance are discarded.
// Callers holding the old *Server keep a working but orphaned engine.
func Rebuild(name string, opts ...ServerOption) *Server {
	instancesMu.Lock()
	defer instancesMu.Unlock()
	if old, ok := instances[name]; ok {
		old.clearAll()
	}
	srv := NewServer(name, opts...)
	instances[name] = srv
	return srv
}
