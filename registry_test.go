package objstore_test

import (
	"context"
	"errors"
	"testing"

	"github.com/arllen133/objstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noop(context.Context, *objstore.HookObject) error { return nil }

func TestNewRegistryRejectsMalformedDescriptors(t *testing.T) {
	tests := []struct {
		name       string
		descriptor objstore.HookDescriptor
		reason     string
	}{
		{
			name:       "unknown operation",
			descriptor: objstore.HookDescriptor{OperationType: "BeforeUpsert", Priority: 1, Callback: noop},
			reason:     `unknown operation type "BeforeUpsert"`,
		},
		{
			name:       "zero priority",
			descriptor: objstore.HookDescriptor{OperationType: objstore.BeforeRead, Priority: 0, Callback: noop},
			reason:     "priority must be positive",
		},
		{
			name:       "negative priority",
			descriptor: objstore.HookDescriptor{OperationType: objstore.BeforeRead, Priority: -3, Callback: noop},
			reason:     "priority must be positive",
		},
		{
			name:       "nil callback",
			descriptor: objstore.HookDescriptor{OperationType: objstore.BeforeRead, Priority: 1},
			reason:     "callback is nil",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			valid := objstore.HookDescriptor{OperationType: objstore.AfterRead, Priority: 1, Callback: noop}
			_, err := objstore.NewRegistry([]objstore.HookDescriptor{valid, tt.descriptor})
			require.Error(t, err)
			assert.ErrorIs(t, err, objstore.ErrInvalidConfiguration)

			var cfgErr *objstore.ConfigurationError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, 1, cfgErr.Index)
			assert.Equal(t, tt.reason, cfgErr.Reason)
		})
	}
}

func TestConfigurationErrorMessage(t *testing.T) {
	_, err := objstore.NewRegistry([]objstore.HookDescriptor{
		{Name: "audit", OperationType: objstore.AfterCreate, Priority: 1},
	})
	assert.EqualError(t, err, "objstore: hooks[0] (audit): callback is nil")
}

func TestRegistryIsACopy(t *testing.T) {
	descriptors := []objstore.HookDescriptor{
		{OperationType: objstore.BeforeCreate, Priority: 1, Callback: noop},
	}
	registry, err := objstore.NewRegistry(descriptors)
	require.NoError(t, err)

	descriptors[0].Priority = 99
	got := registry.Descriptors()
	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].Priority)

	got[0].Priority = 42
	assert.Equal(t, 1, registry.Descriptors()[0].Priority)
	assert.Equal(t, 1, registry.Len())
}

func TestEmptyRegistry(t *testing.T) {
	registry, err := objstore.NewRegistry(nil)
	require.NoError(t, err)
	assert.Zero(t, registry.Len())
	assert.Empty(t, objstore.NewResolver(registry).Priorities(objstore.BeforeRead, "T"))
}

func TestParseOperationType(t *testing.T) {
	for _, op := range objstore.OperationTypes {
		parsed, err := objstore.ParseOperationType(string(op))
		require.NoError(t, err)
		assert.Equal(t, op, parsed)
	}

	_, err := objstore.ParseOperationType("beforeCreate")
	assert.Error(t, err)
}

func TestOperationTypeFamilies(t *testing.T) {
	assert.True(t, objstore.AfterCreate.IsCreate())
	assert.True(t, objstore.BeforeRead.IsRead())
	assert.True(t, objstore.AfterUpdate.IsUpdate())
	assert.True(t, objstore.BeforeDelete.IsDelete())
	assert.True(t, objstore.BeforeUpdate.IsBefore())
	assert.False(t, objstore.AfterDelete.IsBefore())
	assert.False(t, objstore.OperationType("Other").IsValid())
	assert.Len(t, objstore.OperationTypes, 8)
}
