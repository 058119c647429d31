package server

import (
	"context"
	"fmt"
	"sync"

	"github.com/lakeward/mcpserve/protocol"
	"github.com/lakeward/mcpserve/util/schema"
)

// DuplicatePolicy controls what happens when a definition is registered
// under a name that already exists in its registry.
type DuplicatePolicy int

const (
	// OverwriteDuplicates replaces the prior definition (last write wins).
	OverwriteDuplicates DuplicatePolicy = iota
	// RejectDuplicates returns an error from registration instead.
	RejectDuplicates
)

// ToolHandlerFunc executes a tool invocation. The returned value may be a
// protocol.CallToolResult, a Content slice, a single Content, a string, or
// any JSON-serializable value; the engine wraps it into a CallToolResult.
type ToolHandlerFunc func(ctx context.Context, arguments map[string]interface{}) (interface{}, error)

// ResourceHandlerFunc produces the content of a resource read. The returned
// value may be a string, []byte, protocol.ResourceContents, a slice of
// those, or any JSON-serializable value.
type ResourceHandlerFunc func(ctx context.Context) (interface{}, error)

// PromptHandlerFunc renders a prompt template into an ordered sequence of
// role-tagged messages.
type PromptHandlerFunc func(ctx context.Context, arguments map[string]interface{}) ([]protocol.PromptMessage, error)

type toolEntry struct {
	def      protocol.Tool
	handler  ToolHandlerFunc
	compiled *schema.Compiled
}

type resourceEntry struct {
	def     protocol.Resource
	handler ResourceHandlerFunc
}

type promptEntry struct {
	def     protocol.Prompt
	handler PromptHandlerFunc
}

// registry stores named definitions with insertion order preserved for
// discovery listings. Reads vastly outnumber writes, so a RWMutex is
// sufficient; list() copies under the read lock.
type registry[T any] struct {
	mu      sync.RWMutex
	entries map[string]T
	order   []string
	policy  DuplicatePolicy
}

func newRegistry[T any](policy DuplicatePolicy) *registry[T] {
	return &registry[T]{
		entries: make(map[string]T),
		policy:  policy,
	}
}

// register stores v under name. Under OverwriteDuplicates an existing entry
// is replaced in place, keeping its original listing position.
func (r *registry[T]) register(name string, v T) error {
	if name == "" {
		return fmt.Errorf("name cannot be empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[name]; exists {
		if r.policy == RejectDuplicates {
			return fmt.Errorf("%q already registered", name)
		}
		r.entries[name] = v
		return nil
	}
	r.entries[name] = v
	r.order = append(r.order, name)
	return nil
}

func (r *registry[T]) get(name string) (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.entries[name]
	return v, ok
}

// remove deletes the entry if present; a no-op otherwise. Reports whether
// an entry was removed.
func (r *registry[T]) remove(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[name]; !exists {
		return false
	}
	delete(r.entries, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// list returns all entries in insertion order.
func (r *registry[T]) list() []T {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]T, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.entries[name])
	}
	return out
}

func (r *registry[T]) len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

func (r *registry[T]) clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = make(map[string]T)
	r.order = nil
}
