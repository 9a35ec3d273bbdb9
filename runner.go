package objstore

import (
	"context"
	"log/slog"
	"time"

	"github.com/arllen133/objstore/clause"
	"go.opentelemetry.io/otel/attribute"
)

// allFields selects the whole document when the runner materialises state.
var allFields = []string{"*"}

// Engine runs resolved hook chains around CRUD operations.
// It never writes to storage; it only hands the (possibly mutated) objects back.
type Engine struct {
	resolver *Resolver
	obs      *observer
}

// NewEngine creates an Engine over an immutable registry.
func NewEngine(registry *Registry, opts ...Option) *Engine {
	return &Engine{
		resolver: NewResolver(registry),
		obs:      newObserver("hook", opts),
	}
}

// Resolver exposes the engine's hook resolver.
func (e *Engine) Resolver() *Resolver {
	return e.resolver
}

// InitializeHookInput scopes a Hook to one class and one request.
type InitializeHookInput struct {
	ClassName string
	Context   *RequestContext
	// NewData is the payload of a single create or update.
	NewData Object
	// NewDataList holds the payloads of a bulk create.
	NewDataList []Object
}

// SingleObjectInput selects the target of RunOnSingleObject.
type SingleObjectInput struct {
	OperationType OperationType
	ID            string
	// Snapshot, when set, is used as the working object of a read, update or
	// delete instead of fetching it.
	Snapshot Object
}

// MultipleObjectsInput selects the targets of RunOnMultipleObjects.
type MultipleObjectsInput struct {
	OperationType OperationType
	Where         clause.Expression
	// Snapshots, when set, are used as the working objects of a read, update
	// or delete instead of fetching them.
	Snapshots []Object
}

// Hook runs the chains of one class for one request. It is created by
// Engine.InitializeHook and is cheap to build per operation.
type Hook struct {
	engine      *Engine
	className   string
	context     *RequestContext
	newData     Object
	newDataList []Object
}

// InitializeHook prepares a Hook for className.
func (e *Engine) InitializeHook(in InitializeHookInput) *Hook {
	return &Hook{
		engine:      e,
		className:   in.ClassName,
		context:     in.Context,
		newData:     in.NewData,
		newDataList: in.NewDataList,
	}
}

// RunOnSingleObject runs the chain for one object and returns its working value.
//
// When no hook applies it returns immediately without touching storage: the new
// data for create operations, nil otherwise. Create operations use the new data as
// the working object; other operations use in.Snapshot or fetch the object by id
// with hooks skipped. The first hook error stops the chain and is returned unchanged.
func (h *Hook) RunOnSingleObject(ctx context.Context, in SingleObjectInput) (Object, error) {
	op := in.OperationType
	if !op.IsValid() {
		return nil, invalidOperation("unknown operation type %q", op)
	}
	if !op.IsCreate() && in.Snapshot == nil && in.ID == "" {
		return nil, invalidOperation("%s on %s requires an id", op, h.className)
	}

	priorities := h.engine.resolver.Priorities(op, h.className)
	if len(priorities) == 0 {
		if op.IsCreate() {
			return h.newData, nil
		}
		return nil, nil
	}

	var object Object
	switch {
	case op.IsCreate():
		object = h.newData
	case in.Snapshot != nil:
		object = in.Snapshot
	default:
		db := h.context.Database()
		if db == nil {
			return nil, invalidOperation("%s on %s needs a database controller", op, h.className)
		}
		fetched, err := db.GetObject(ctx, GetObjectInput{
			ClassName: h.className,
			ID:        in.ID,
			Context:   h.context,
			SkipHooks: true,
			Fields:    allFields,
		})
		if err != nil {
			return nil, err
		}
		object = fetched
	}

	hookObj := h.newHookObject(op, in.ID, object)
	if err := h.runChain(ctx, priorities, hookObj); err != nil {
		return nil, err
	}
	return hookObj.Object, nil
}

// RunOnMultipleObjects runs an independent chain for every target object, one
// object after another in input order.
//
// Create operations target the NewDataList; other operations target in.Snapshots
// or the objects matching in.Where, fetched with hooks skipped. The first failing
// object stops the batch and its error is returned unchanged; whether the
// surrounding operation aborts is the caller's decision.
func (h *Hook) RunOnMultipleObjects(ctx context.Context, in MultipleObjectsInput) ([]Object, error) {
	op := in.OperationType
	if !op.IsValid() {
		return nil, invalidOperation("unknown operation type %q", op)
	}

	priorities := h.engine.resolver.Priorities(op, h.className)
	if len(priorities) == 0 {
		if op.IsCreate() {
			return h.newDataList, nil
		}
		return in.Snapshots, nil
	}

	var objects []Object
	switch {
	case op.IsCreate():
		objects = h.newDataList
	case in.Snapshots != nil:
		objects = in.Snapshots
	default:
		db := h.context.Database()
		if db == nil {
			return nil, invalidOperation("%s on %s needs a database controller", op, h.className)
		}
		fetched, err := db.GetObjects(ctx, GetObjectsInput{
			ClassName: h.className,
			Where:     in.Where,
			Context:   h.context,
			SkipHooks: true,
			Fields:    allFields,
		})
		if err != nil {
			return nil, err
		}
		objects = fetched
	}

	results := make([]Object, len(objects))
	for i, object := range objects {
		id := object.ID()
		if op == BeforeCreate {
			id = ""
		}
		hookObj := h.newHookObject(op, id, object)
		if err := h.runChain(ctx, priorities, hookObj); err != nil {
			return nil, err
		}
		results[i] = hookObj.Object
	}
	return results, nil
}

func (h *Hook) newHookObject(op OperationType, id string, object Object) *HookObject {
	hookObj := &HookObject{
		ClassName:     h.className,
		OperationType: op,
		ID:            id,
		Context:       h.context,
		Object:        object,
	}
	switch {
	case op.IsCreate():
		hookObj.NewData = object
	case op.IsUpdate():
		hookObj.NewData = h.newData
	}
	return hookObj
}

// runChain invokes every tier in ascending priority, each hook awaited before the next.
func (h *Hook) runChain(ctx context.Context, priorities []int, hookObj *HookObject) (err error) {
	op := hookObj.OperationType
	attrs := []attribute.KeyValue{
		attribute.String("objstore.class", h.className),
		attribute.String("objstore.operation", string(op)),
	}

	ctx, span := h.engine.obs.startSpan(ctx, "objstore.hooks.run")
	span.SetAttributes(attrs...)
	defer span.End()

	start := time.Now()
	invoked := 0
	var failed HookDescriptor
	defer func() {
		span.SetAttributes(attribute.Int("objstore.hooks", invoked))
		logAttrs := []slog.Attr{
			slog.String("class", h.className),
			slog.String("operation", string(op)),
			slog.Int("hooks", invoked),
		}
		if hookObj.ID != "" {
			logAttrs = append(logAttrs, slog.String("id", hookObj.ID))
		}
		if err != nil {
			span.fail(err)
			if failed.Callback != nil {
				logAttrs = append(logAttrs, slog.String("hook", failed.label()), slog.Int("priority", failed.Priority))
			}
		}
		duration := time.Since(start)
		h.engine.obs.log(ctx, "hook chain executed", duration, err, logAttrs...)
		h.engine.obs.record(ctx, duration, err, attrs...)
	}()

	for _, priority := range priorities {
		for _, d := range h.engine.resolver.FindHooksByPriority(op, h.className, priority) {
			if cerr := ctx.Err(); cerr != nil {
				return cerr
			}
			invoked++
			if herr := d.Callback(ctx, hookObj); herr != nil {
				failed = d
				return herr
			}
		}
	}
	return nil
}
