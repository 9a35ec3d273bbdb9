package objstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/arllen133/objstore/field"
	"github.com/bmatcuk/doublestar/v4"
)

const (
	CreatedAtField = "createdAt"
	UpdatedAtField = "updatedAt"
)

// now is replaced in tests.
var now = func() time.Time { return time.Now().UTC() }

// TimestampHooks returns global hooks maintaining createdAt and updatedAt in
// field.TimeLayout. Values already present on create are kept.
func TimestampHooks() []HookDescriptor {
	return []HookDescriptor{
		{
			Name:          "timestamps.create",
			OperationType: BeforeCreate,
			Priority:      1,
			Callback: func(_ context.Context, obj *HookObject) error {
				ts := field.FormatTime(now())
				if obj.Get(CreatedAtField) == nil {
					obj.SetNewData(CreatedAtField, ts)
				}
				if obj.Get(UpdatedAtField) == nil {
					obj.SetNewData(UpdatedAtField, ts)
				}
				return nil
			},
		},
		{
			Name:          "timestamps.update",
			OperationType: BeforeUpdate,
			Priority:      1,
			Callback: func(_ context.Context, obj *HookObject) error {
				obj.SetNewData(UpdatedAtField, field.FormatTime(now()))
				return nil
			},
		},
	}
}

// RootOnlyHooks returns hooks rejecting create, update and delete on the given
// classes unless the request is root. A name containing glob syntax (for example
// "_*" or "{Config,Secret}") is a pattern: it is matched against the class of
// every request by global hooks, while plain names get class-scoped hooks.
func RootOnlyHooks(classNames ...string) []HookDescriptor {
	guard := func(_ context.Context, obj *HookObject) error {
		if obj.Context != nil && obj.Context.IsRoot {
			return nil
		}
		return fmt.Errorf("%w: %s on %s requires root", ErrPermissionDenied, obj.OperationType, obj.ClassName)
	}

	var hooks []HookDescriptor
	for _, className := range classNames {
		callback, scope := guard, className
		if isClassPattern(className) {
			pattern := className
			scope = ""
			callback = func(ctx context.Context, obj *HookObject) error {
				if ok, _ := doublestar.Match(pattern, obj.ClassName); !ok {
					return nil
				}
				return guard(ctx, obj)
			}
		}
		for _, op := range []OperationType{BeforeCreate, BeforeUpdate, BeforeDelete} {
			hooks = append(hooks, HookDescriptor{
				Name:          "root-only." + className,
				OperationType: op,
				ClassName:     scope,
				Priority:      1,
				Callback:      callback,
			})
		}
	}
	return hooks
}

func isClassPattern(name string) bool {
	return strings.ContainsAny(name, "*?[{")
}
