package objstore

// RequestContext is the ambient data shared by every HookObject of one logical request.
// It is passed by pointer; hooks must treat it as shared, not owned.
type RequestContext struct {
	IsRoot bool // Bypasses permission-oriented hooks
	App    *App
}

// Database returns the database controller of the owning App, or nil.
func (rc *RequestContext) Database() DatabaseController {
	if rc == nil || rc.App == nil {
		return nil
	}
	return rc.App.Controllers.Database
}

// HookObject is the transient per-object view handed to each hook of a chain.
// A fresh HookObject is built for every target object and discarded afterwards.
type HookObject struct {
	ClassName     string
	OperationType OperationType
	ID            string // Empty for create operations
	Context       *RequestContext

	// Object is the working value. For create it is the new data itself; for
	// read, update and delete it is the stored document (or the snapshot the
	// caller supplied). Mutations are visible to later hooks and to the caller.
	Object Object

	// NewData is the pending payload: the same map as Object on create, the
	// patch on update, nil on read and delete. In bulk update it is shared by
	// every HookObject of the batch.
	NewData Object
}

// Get returns a field of the working object.
func (h *HookObject) Get(field string) any {
	if h.Object == nil {
		return nil
	}
	return h.Object[field]
}

// Set writes a field of the working object.
func (h *HookObject) Set(field string, value any) {
	if h.Object == nil {
		h.Object = Object{}
	}
	h.Object[field] = value
}

// SetNewData writes a field of the pending payload. On create this is the same
// as Set; on update the value is merged into the stored document.
func (h *HookObject) SetNewData(field string, value any) {
	if h.NewData == nil {
		h.NewData = Object{}
		if h.OperationType.IsCreate() {
			h.Object = h.NewData
		}
	}
	h.NewData[field] = value
}

// IsFieldUpdated reports whether the pending payload touches field.
func (h *HookObject) IsFieldUpdated(field string) bool {
	if h.NewData == nil {
		return false
	}
	_, ok := h.NewData[field]
	return ok
}
