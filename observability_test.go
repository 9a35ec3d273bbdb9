package objstore_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/arllen133/objstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func debugLogger(buf *bytes.Buffer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: level}))
}

func TestQueryLogging(t *testing.T) {
	db, _ := setupTestDB(t)
	var buf bytes.Buffer

	cfg := objstore.DefaultConfig()
	cfg.Logging.QueryLogging = true
	app, err := objstore.New(cfg, db, objstore.WithLogger(debugLogger(&buf, slog.LevelDebug)))
	require.NoError(t, err)
	require.NoError(t, app.Store.Migrate(context.Background()))

	_, err = app.Store.CreateObject(context.Background(), objstore.CreateObjectInput{ClassName: "T", Data: objstore.Object{"a": 1}})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "query executed")
	assert.Contains(t, out, "INSERT INTO _objects")
}

func TestMissingRowIsNotLoggedAsFailure(t *testing.T) {
	db, _ := setupTestDB(t)
	var buf bytes.Buffer

	app, err := objstore.New(objstore.DefaultConfig(), db, objstore.WithLogger(debugLogger(&buf, slog.LevelError)))
	require.NoError(t, err)
	require.NoError(t, app.Store.Migrate(context.Background()))

	_, err = app.Store.GetObject(context.Background(), objstore.GetObjectInput{ClassName: "T", ID: "missing"})
	assert.ErrorIs(t, err, objstore.ErrNotFound)
	assert.Empty(t, buf.String())
}

func TestSlowHookChainIsLogged(t *testing.T) {
	var buf bytes.Buffer
	registry, err := objstore.NewRegistry([]objstore.HookDescriptor{
		{Name: "sleepy", OperationType: objstore.BeforeCreate, Priority: 1, Callback: func(context.Context, *objstore.HookObject) error {
			time.Sleep(2 * time.Millisecond)
			return nil
		}},
	})
	require.NoError(t, err)

	engine := objstore.NewEngine(registry,
		objstore.WithLogger(debugLogger(&buf, slog.LevelWarn)),
		objstore.WithSlowThreshold(time.Nanosecond),
	)
	hook := engine.InitializeHook(objstore.InitializeHookInput{ClassName: "T", NewData: objstore.Object{}})
	_, err = hook.RunOnSingleObject(context.Background(), objstore.SingleObjectInput{OperationType: objstore.BeforeCreate})
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "slow hook")
	assert.Contains(t, buf.String(), "class=T")
}

func TestFailedHookChainIsLogged(t *testing.T) {
	var buf bytes.Buffer
	registry, err := objstore.NewRegistry([]objstore.HookDescriptor{
		{Name: "guard", OperationType: objstore.BeforeDelete, Priority: 7, Callback: func(context.Context, *objstore.HookObject) error {
			return errors.New("denied")
		}},
	})
	require.NoError(t, err)

	engine := objstore.NewEngine(registry, objstore.WithLogger(debugLogger(&buf, slog.LevelDebug)))
	hook := engine.InitializeHook(objstore.InitializeHookInput{ClassName: "T"})
	_, err = hook.RunOnSingleObject(context.Background(), objstore.SingleObjectInput{
		OperationType: objstore.BeforeDelete,
		ID:            "1",
		Snapshot:      objstore.Object{"id": "1"},
	})
	require.EqualError(t, err, "denied")

	out := buf.String()
	assert.Contains(t, out, "hook failed")
	assert.Contains(t, out, "hook=guard")
	assert.Contains(t, out, "priority=7")
	assert.Contains(t, out, "error=denied")
}

func TestWithDefaultTracerAndMeter(t *testing.T) {
	db, _ := setupTestDB(t)

	// Just test that it doesn't panic with the global no-op providers.
	app, err := objstore.New(objstore.DefaultConfig(), db, objstore.WithDefaultTracer(), objstore.WithDefaultMeter())
	require.NoError(t, err)
	app.Hooks = objstore.NewEngine(mustRegistry(t, objstore.TimestampHooks()...), objstore.WithDefaultTracer(), objstore.WithDefaultMeter())
	require.NoError(t, app.Store.Migrate(context.Background()))

	obj, err := app.Store.CreateObject(context.Background(), objstore.CreateObjectInput{ClassName: "T", Data: objstore.Object{}, Context: app.NewContext(false)})
	require.NoError(t, err)
	assert.Contains(t, obj, objstore.CreatedAtField)
}

func mustRegistry(t *testing.T, hooks ...objstore.HookDescriptor) *objstore.Registry {
	t.Helper()
	registry, err := objstore.NewRegistry(hooks)
	require.NoError(t, err)
	return registry
}
