package objstore

import (
	"slices"

	"github.com/puzpuzpuz/xsync/v4"
)

// tier is one priority group of resolved hooks, kept in registration order.
type tier struct {
	priority int
	hooks    []HookDescriptor
}

type resolveKey struct {
	op        OperationType
	className string
}

// Resolver selects the descriptors that apply to an operation on a class.
//
// Because the registry is immutable, resolved tiers are memoised per
// (operation, class) and the resolver is safe for concurrent use.
type Resolver struct {
	registry *Registry
	cache    *xsync.Map[resolveKey, []tier]
}

// NewResolver creates a Resolver over registry. A nil registry resolves nothing.
func NewResolver(registry *Registry) *Resolver {
	return &Resolver{
		registry: registry,
		cache:    xsync.NewMap[resolveKey, []tier](),
	}
}

// FindHooksByOperationType returns every matching descriptor ordered by ascending
// priority, registration order within a priority.
//
// A descriptor matches when its operation type equals op and it is either global
// or scoped to className.
func (r *Resolver) FindHooksByOperationType(op OperationType, className string) []HookDescriptor {
	tiers := r.tiers(op, className)
	var out []HookDescriptor
	for _, t := range tiers {
		out = append(out, t.hooks...)
	}
	return out
}

// Priorities returns the distinct priorities of matching descriptors, ascending.
func (r *Resolver) Priorities(op OperationType, className string) []int {
	tiers := r.tiers(op, className)
	out := make([]int, len(tiers))
	for i, t := range tiers {
		out[i] = t.priority
	}
	return out
}

// FindHooksByPriority returns the matching descriptors of a single priority tier
// in registration order.
func (r *Resolver) FindHooksByPriority(op OperationType, className string, priority int) []HookDescriptor {
	for _, t := range r.tiers(op, className) {
		if t.priority == priority {
			return slices.Clone(t.hooks)
		}
	}
	return nil
}

func (r *Resolver) tiers(op OperationType, className string) []tier {
	key := resolveKey{op: op, className: className}
	if cached, ok := r.cache.Load(key); ok {
		return cached
	}
	tiers := r.resolve(op, className)
	actual, _ := r.cache.LoadOrStore(key, tiers)
	return actual
}

func (r *Resolver) resolve(op OperationType, className string) []tier {
	if r.registry == nil {
		return nil
	}

	var matched []HookDescriptor
	for _, d := range r.registry.hooks {
		if d.appliesTo(op, className) {
			matched = append(matched, d)
		}
	}
	if len(matched) == 0 {
		return nil
	}

	// Stable sort keeps registration order inside a tier.
	slices.SortStableFunc(matched, func(a, b HookDescriptor) int {
		return a.Priority - b.Priority
	})

	var tiers []tier
	for _, d := range matched {
		if n := len(tiers); n > 0 && tiers[n-1].priority == d.Priority {
			tiers[n-1].hooks = append(tiers[n-1].hooks, d)
			continue
		}
		tiers = append(tiers, tier{priority: d.Priority, hooks: []HookDescriptor{d}})
	}
	return tiers
}
