package objstore

import (
	"context"
	"fmt"
)

// OperationType identifies the lifecycle point a hook is attached to.
type OperationType string

const (
	BeforeCreate OperationType = "BeforeCreate"
	AfterCreate  OperationType = "AfterCreate"
	BeforeRead   OperationType = "BeforeRead"
	AfterRead    OperationType = "AfterRead"
	BeforeUpdate OperationType = "BeforeUpdate"
	AfterUpdate  OperationType = "AfterUpdate"
	BeforeDelete OperationType = "BeforeDelete"
	AfterDelete  OperationType = "AfterDelete"
)

// OperationTypes lists every lifecycle point in declaration order.
var OperationTypes = []OperationType{
	BeforeCreate, AfterCreate,
	BeforeRead, AfterRead,
	BeforeUpdate, AfterUpdate,
	BeforeDelete, AfterDelete,
}

// ParseOperationType converts an exact operation name into an OperationType.
func ParseOperationType(s string) (OperationType, error) {
	op := OperationType(s)
	if !op.IsValid() {
		return "", fmt.Errorf("objstore: unknown operation type %q", s)
	}
	return op, nil
}

func (op OperationType) IsValid() bool {
	switch op {
	case BeforeCreate, AfterCreate, BeforeRead, AfterRead,
		BeforeUpdate, AfterUpdate, BeforeDelete, AfterDelete:
		return true
	}
	return false
}

func (op OperationType) IsCreate() bool { return op == BeforeCreate || op == AfterCreate }
func (op OperationType) IsRead() bool   { return op == BeforeRead || op == AfterRead }
func (op OperationType) IsUpdate() bool { return op == BeforeUpdate || op == AfterUpdate }
func (op OperationType) IsDelete() bool { return op == BeforeDelete || op == AfterDelete }

// IsBefore reports whether the hook runs before the storage mutation.
func (op OperationType) IsBefore() bool {
	switch op {
	case BeforeCreate, BeforeRead, BeforeUpdate, BeforeDelete:
		return true
	}
	return false
}

func (op OperationType) String() string { return string(op) }

// HookFunc is a lifecycle callback. It may mutate obj.Object (and obj.NewData)
// or return an error to abort the operation. The error reaches the caller unchanged.
type HookFunc func(ctx context.Context, obj *HookObject) error

// HookDescriptor binds a callback to an operation type, an optional class and a priority.
//
// Lower priorities run first. Descriptors sharing a priority form a tier and run
// in registration order. An empty ClassName makes the hook global.
type HookDescriptor struct {
	OperationType OperationType
	ClassName     string
	Priority      int
	Callback      HookFunc
	Name          string // Optional label for logs and spans
}

// appliesTo reports whether the descriptor matches the operation and class.
func (d HookDescriptor) appliesTo(op OperationType, className string) bool {
	if d.OperationType != op {
		return false
	}
	return d.ClassName == "" || d.ClassName == className
}

func (d HookDescriptor) label() string {
	if d.Name != "" {
		return d.Name
	}
	if d.ClassName != "" {
		return fmt.Sprintf("%s:%s/%d", d.OperationType, d.ClassName, d.Priority)
	}
	return fmt.Sprintf("%s/%d", d.OperationType, d.Priority)
}
