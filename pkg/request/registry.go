package request

import (
	"context"
	"sort"
	"sync"
)

// registry tracks cancel funcs of in-flight calls keyed by request id.
// An id is present only while its call is in flight.
type registry struct {
	mu      sync.Mutex
	entries map[string]context.CancelCauseFunc
}

func newRegistry() *registry {
	return &registry{entries: make(map[string]context.CancelCauseFunc)}
}

func (r *registry) add(id string, cancel context.CancelCauseFunc) {
	r.mu.Lock()
	r.entries[id] = cancel
	r.mu.Unlock()
}

func (r *registry) addIfAbsent(id string, cancel context.CancelCauseFunc) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[id]; exists {
		return false
	}
	r.entries[id] = cancel
	return true
}

func (r *registry) remove(id string) {
	r.mu.Lock()
	delete(r.entries, id)
	r.mu.Unlock()
}

// cancel signals the call registered under id and drops it. Unknown ids are ignored.
func (r *registry) cancel(id string) bool {
	r.mu.Lock()
	cancel, ok := r.entries[id]
	if ok {
		delete(r.entries, id)
	}
	r.mu.Unlock()

	if ok {
		cancel(ErrCanceled)
	}
	return ok
}

// cancelAll signals every registered call without removing entries; each call
// drops its own entry when it returns.
func (r *registry) cancelAll() int {
	r.mu.Lock()
	cancels := make([]context.CancelCauseFunc, 0, len(r.entries))
	for _, c := range r.entries {
		cancels = append(cancels, c)
	}
	r.mu.Unlock()

	for _, c := range cancels {
		c(ErrCanceled)
	}
	return len(cancels)
}

func (r *registry) ids() []string {
	r.mu.Lock()
	out := make([]string, 0, len(r.entries))
	for id := range r.entries {
		out = append(out, id)
	}
	r.mu.Unlock()

	sort.Strings(out)
	return out
}
