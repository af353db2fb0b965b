package variables

import (
	"fmt"
	"sync"
)

// HandleRegistry issues integer handles for view objects. Handles start at 1,
// increase monotonically and are never reused or released.
//
// Objects are not invalidated when the debuggee resumes. A handle from an
// earlier stop still resolves to the object it was issued for, whose data
// may be outdated; callers are expected to tolerate that.
type HandleRegistry struct {
	mu      sync.Mutex
	objects []any
}

// NewHandleRegistry creates an empty registry.
func NewHandleRegistry() *HandleRegistry {
	return &HandleRegistry{}
}

// Register stores obj and returns its handle.
func (r *HandleRegistry) Register(obj any) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.objects = append(r.objects, obj)
	return len(r.objects)
}

// Get returns the object for id.
func (r *HandleRegistry) Get(id int) (any, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id < 1 || id > len(r.objects) {
		return nil, false
	}
	return r.objects[id-1], true
}

// Len returns the number of issued handles.
func (r *HandleRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.objects)
}

// lookup resolves id to a T. A missing id is reported by found=false; an id
// of another kind is ErrHandleKind.
func lookup[T any](r *HandleRegistry, id int) (obj T, found bool, err error) {
	v, ok := r.Get(id)
	if !ok {
		return obj, false, nil
	}
	obj, ok = v.(T)
	if !ok {
		return obj, true, fmt.Errorf("%w: handle %d is a %T", ErrHandleKind, id, v)
	}
	return obj, true, nil
}
