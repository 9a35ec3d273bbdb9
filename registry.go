package objstore

import "strconv"

// Registry is the immutable set of hook descriptors configured at startup.
// It has no mutation API; a different hook set needs a new Registry.
type Registry struct {
	hooks []HookDescriptor
}

// NewRegistry validates descriptors and copies them into a new Registry.
//
// A descriptor is rejected with a *ConfigurationError when its operation type is
// unknown, its priority is not positive, or its callback is nil.
func NewRegistry(descriptors []HookDescriptor) (*Registry, error) {
	hooks := make([]HookDescriptor, len(descriptors))
	for i, d := range descriptors {
		switch {
		case !d.OperationType.IsValid():
			return nil, &ConfigurationError{Index: i, Name: d.Name, Reason: "unknown operation type " + strconv.Quote(string(d.OperationType))}
		case d.Priority <= 0:
			return nil, &ConfigurationError{Index: i, Name: d.Name, Reason: "priority must be positive"}
		case d.Callback == nil:
			return nil, &ConfigurationError{Index: i, Name: d.Name, Reason: "callback is nil"}
		}
		hooks[i] = d
	}
	return &Registry{hooks: hooks}, nil
}

// Len returns the number of registered descriptors.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.hooks)
}

// Descriptors returns a copy of the registered descriptors in registration order.
func (r *Registry) Descriptors() []HookDescriptor {
	if r == nil {
		return nil
	}
	out := make([]HookDescriptor, len(r.hooks))
	copy(out, r.hooks)
	return out
}
