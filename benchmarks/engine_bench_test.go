package benchmarks

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/arllen133/objstore"
	_ "github.com/mattn/go-sqlite3"
)

func noop(context.Context, *objstore.HookObject) error { return nil }

// benchRegistry registers n global hooks spread over five priorities plus one
// class-scoped hook per class.
func benchRegistry(b *testing.B, n int) *objstore.Registry {
	var hooks []objstore.HookDescriptor
	for i := 0; i < n; i++ {
		hooks = append(hooks, objstore.HookDescriptor{OperationType: objstore.BeforeCreate, Priority: i%5 + 1, Callback: noop})
	}
	for i := 0; i < 10; i++ {
		hooks = append(hooks, objstore.HookDescriptor{OperationType: objstore.BeforeCreate, ClassName: fmt.Sprintf("C%d", i), Priority: 3, Callback: noop})
	}
	registry, err := objstore.NewRegistry(hooks)
	if err != nil {
		b.Fatal(err)
	}
	return registry
}

func BenchmarkResolver_Cached(b *testing.B) {
	r := objstore.NewResolver(benchRegistry(b, 50))
	for b.Loop() {
		_ = r.Priorities(objstore.BeforeCreate, "C1")
	}
}

func BenchmarkResolver_Parallel(b *testing.B) {
	r := objstore.NewResolver(benchRegistry(b, 50))
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_ = r.FindHooksByPriority(objstore.BeforeCreate, "C1", 3)
		}
	})
}

func BenchmarkRunOnSingleObject(b *testing.B) {
	for _, n := range []int{0, 5, 50} {
		b.Run(fmt.Sprintf("hooks=%d", n), func(b *testing.B) {
			engine := objstore.NewEngine(benchRegistry(b, n))
			ctx := context.Background()
			for b.Loop() {
				hook := engine.InitializeHook(objstore.InitializeHookInput{ClassName: "C1", NewData: objstore.Object{"n": 1}})
				if _, err := hook.RunOnSingleObject(ctx, objstore.SingleObjectInput{OperationType: objstore.BeforeCreate}); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func setupBenchApp(b *testing.B, hooks ...objstore.HookDescriptor) *objstore.App {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		b.Fatal(err)
	}
	db.SetMaxOpenConns(1)
	b.Cleanup(func() { db.Close() })

	cfg := objstore.DefaultConfig()
	cfg.Hooks.Descriptors = hooks
	app, err := objstore.New(cfg, db)
	if err != nil {
		b.Fatal(err)
	}
	if err := app.Store.Migrate(context.Background()); err != nil {
		b.Fatal(err)
	}
	return app
}

func BenchmarkCreateObject(b *testing.B) {
	app := setupBenchApp(b, objstore.TimestampHooks()...)
	ctx := context.Background()
	rc := app.NewContext(false)

	for b.Loop() {
		_, err := app.Store.CreateObject(ctx, objstore.CreateObjectInput{ClassName: "Bench", Data: objstore.Object{"name": "x"}, Context: rc})
		if err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkGetObject_WithReadHooks(b *testing.B) {
	app := setupBenchApp(b,
		objstore.HookDescriptor{OperationType: objstore.BeforeRead, Priority: 1, Callback: noop},
		objstore.HookDescriptor{OperationType: objstore.AfterRead, Priority: 1, Callback: noop},
	)
	ctx := context.Background()
	rc := app.NewContext(false)

	obj, err := app.Store.CreateObject(ctx, objstore.CreateObjectInput{ClassName: "Bench", Data: objstore.Object{"name": "x"}})
	if err != nil {
		b.Fatal(err)
	}

	for b.Loop() {
		if _, err := app.Store.GetObject(ctx, objstore.GetObjectInput{ClassName: "Bench", ID: obj.ID(), Context: rc}); err != nil {
			b.Fatal(err)
		}
	}
}
