package action

import (
	"context"
	"fmt"
	"sync"

	"github.com/morpheus-lite/soar/internal/alert"
)

// Result records the outcome of one dispatched action.
type Result struct {
	Action  string `json:"action"`
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// Executor is the interface all response actions implement.
type Executor interface {
	// Name returns the action name rules refer to.
	Name() string
	// Execute runs the action. Failures are reported in the Result, not
	// returned; a response action must never take the pipeline down.
	Execute(ctx context.Context, a alert.Alert, params map[string]interface{}) Result
}

// Registry maps action names to their executors.
// It is safe for concurrent reads; Register should only be called at startup.
type Registry struct {
	mu        sync.RWMutex
	executors map[string]Executor
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{executors: make(map[string]Executor)}
}

// Register adds an executor. Panics on duplicate name to surface misconfiguration early.
func (r *Registry) Register(e Executor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.executors[e.Name()]; exists {
		panic(fmt.Sprintf("action registry: duplicate name %q", e.Name()))
	}
	r.executors[e.Name()] = e
}

// Get returns the executor for the given action name.
func (r *Registry) Get(name string) (Executor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.executors[name]
	return e, ok
}

// Names returns all registered action names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.executors))
	for k := range r.executors {
		out = append(out, k)
	}
	return out
}
