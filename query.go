// This file implements Query, a fluent builder over the Controller's batch entry points.
//
// Query is the chainable way to address the documents of one class:
//
//	posts := app.Store.Query("Post").
//		WithContext(app.NewContext(false)).
//		Where(field.NewString("status").Eq("draft")).
//		OrderBy(field.NewTime(objstore.CreatedAtField).Desc()).
//		Limit(20)
//
//	list, err := posts.Find(ctx)
//	first, err := posts.First(ctx)
//	n, err := posts.Count(ctx)
//	updated, err := posts.Update(ctx, objstore.Object{"status": "archived"})
//
// Every terminal method runs the same hook chains as the Controller entry point it
// delegates to (Find: GetObjects, Update: UpdateObjects, Delete: DeleteObjects).
//
// Design principles:
//   - Immutability: every builder method returns a new Query; a base query can be
//     reused to derive several others.
//   - Conditions added with Where are joined with AND.
package objstore

import (
	"context"
	"fmt"
	"slices"

	"github.com/arllen133/objstore/clause"
)

// Query addresses the documents of one class matching a set of conditions.
type Query struct {
	store     *Controller
	className string
	scopes    []clause.Expression
	orders    []clause.OrderBy
	limit     uint64
	offset    uint64
	fields    []string
	context   *RequestContext
	skipHooks bool
}

// Query starts a query over className.
func (c *Controller) Query(className string) *Query {
	return &Query{store: c, className: className}
}

// clone copies the builder. Slices are cloned so derived queries never share
// an underlying array.
func (q *Query) clone() *Query {
	next := *q
	next.scopes = slices.Clone(q.scopes)
	next.orders = slices.Clone(q.orders)
	next.fields = slices.Clone(q.fields)
	return &next
}

// Where adds conditions. Multiple calls are joined with AND.
func (q *Query) Where(conds ...clause.Expression) *Query {
	next := q.clone()
	next.scopes = append(next.scopes, conds...)
	return next
}

// OrderBy appends sort keys. Without any, documents come back in id order.
func (q *Query) OrderBy(orders ...clause.OrderBy) *Query {
	next := q.clone()
	next.orders = append(next.orders, orders...)
	return next
}

// Limit caps the number of documents returned by Find. Zero means no limit.
func (q *Query) Limit(n uint64) *Query {
	next := q.clone()
	next.limit = n
	return next
}

// Offset skips the first n documents.
func (q *Query) Offset(n uint64) *Query {
	next := q.clone()
	next.offset = n
	return next
}

// Select restricts the returned fields. The id is always included.
func (q *Query) Select(fields ...string) *Query {
	next := q.clone()
	next.fields = fields
	return next
}

// WithContext binds the request context hooks receive.
func (q *Query) WithContext(rc *RequestContext) *Query {
	next := q.clone()
	next.context = rc
	return next
}

// SkipHooks runs the terminal methods without any hook chain.
func (q *Query) SkipHooks() *Query {
	next := q.clone()
	next.skipHooks = true
	return next
}

// where returns the combined condition, or nil when there is none.
func (q *Query) where() clause.Expression {
	switch len(q.scopes) {
	case 0:
		return nil
	case 1:
		return q.scopes[0]
	}
	return clause.And(slices.Clone(q.scopes))
}

// Find returns the matching documents.
func (q *Query) Find(ctx context.Context) ([]Object, error) {
	return q.store.GetObjects(ctx, GetObjectsInput{
		ClassName: q.className,
		Where:     q.where(),
		OrderBy:   q.orders,
		Limit:     q.limit,
		Offset:    q.offset,
		Context:   q.context,
		SkipHooks: q.skipHooks,
		Fields:    q.fields,
	})
}

// First returns the first matching document in query order.
// Returns ErrNotFound if nothing matches.
func (q *Query) First(ctx context.Context) (Object, error) {
	objs, err := q.Limit(1).Find(ctx)
	if err != nil {
		return nil, err
	}
	if len(objs) == 0 {
		return nil, fmt.Errorf("%w: no %s matches the query", ErrNotFound, q.className)
	}
	return objs[0], nil
}

// Exists reports whether any document matches. It runs no hooks.
func (q *Query) Exists(ctx context.Context) (bool, error) {
	n, err := q.Count(ctx)
	return n > 0, err
}

// Count returns the number of matching documents, ignoring Limit and Offset.
// It runs no hooks.
func (q *Query) Count(ctx context.Context) (int64, error) {
	return q.store.Count(ctx, q.className, q.where())
}

// Update merges patch into every matching document.
// Limit, Offset and OrderBy do not apply to updates.
func (q *Query) Update(ctx context.Context, patch Object) ([]Object, error) {
	return q.store.UpdateObjects(ctx, UpdateObjectsInput{
		ClassName: q.className,
		Where:     q.where(),
		Data:      patch,
		Context:   q.context,
		SkipHooks: q.skipHooks,
		Fields:    q.fields,
	})
}

// Delete removes every matching document and returns them.
// Limit, Offset and OrderBy do not apply to deletes.
func (q *Query) Delete(ctx context.Context) ([]Object, error) {
	return q.store.DeleteObjects(ctx, DeleteObjectsInput{
		ClassName: q.className,
		Where:     q.where(),
		Context:   q.context,
		SkipHooks: q.skipHooks,
	})
}
