// Package objstore provides a document store with a prioritized lifecycle hook engine.
// This file implements the SQL-backed Controller and its CRUD entry points.
//
// Every entry point runs the Before hooks of its operation, performs the storage
// work, then runs the After hooks:
//   - Create (CreateObject, CreateObjects)
//   - Read (GetObject, GetObjects, Count)
//   - Update (UpdateObject, UpdateObjects)
//   - Delete (DeleteObject, DeleteObjects)
//
// A Before hook error aborts the operation before anything is written. Batch
// writes run in a single transaction, so a batch is stored completely or not at all.
// After hooks run once the write is done; their errors are returned to the caller
// but do not undo the write.
package objstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/arllen133/objstore/clause"
	"github.com/google/uuid"
)

// DatabaseController is the storage surface the hook engine reads "before" state from.
type DatabaseController interface {
	GetObject(ctx context.Context, in GetObjectInput) (Object, error)
	GetObjects(ctx context.Context, in GetObjectsInput) ([]Object, error)
}

// GetObjectInput selects one document by id.
type GetObjectInput struct {
	ClassName string
	ID        string
	Context   *RequestContext
	SkipHooks bool     // Set by the hook engine to avoid re-entering itself
	Fields    []string // Projection; nil or "*" returns the whole document
}

// GetObjectsInput selects the documents of a class matching a filter.
type GetObjectsInput struct {
	ClassName string
	Where     clause.Expression
	OrderBy   []clause.OrderBy // Defaults to id, which follows creation order
	Limit     uint64
	Offset    uint64
	Context   *RequestContext
	SkipHooks bool
	Fields    []string
}

type CreateObjectInput struct {
	ClassName string
	Data      Object
	Context   *RequestContext
	SkipHooks bool
	Fields    []string
}

type CreateObjectsInput struct {
	ClassName string
	Data      []Object
	Context   *RequestContext
	SkipHooks bool
	Fields    []string
}

type UpdateObjectInput struct {
	ClassName string
	ID        string
	Data      Object // Patch; a nil value removes the field
	Context   *RequestContext
	SkipHooks bool
	Fields    []string
}

type UpdateObjectsInput struct {
	ClassName string
	Where     clause.Expression
	Data      Object
	Context   *RequestContext
	SkipHooks bool
	Fields    []string
}

type DeleteObjectInput struct {
	ClassName string
	ID        string
	Context   *RequestContext
	SkipHooks bool
}

type DeleteObjectsInput struct {
	ClassName string
	Where     clause.Expression
	Context   *RequestContext
	SkipHooks bool
}

// Controller stores documents of every class in one table through a Session.
type Controller struct {
	session *Session
	table   string
	newID   func() string
}

var _ DatabaseController = (*Controller)(nil)

// NewController creates a Controller over session. An empty table uses DefaultTable.
func NewController(session *Session, table string) *Controller {
	if table == "" {
		table = DefaultTable
	}
	return &Controller{
		session: session,
		table:   table,
		newID:   newObjectID,
	}
}

// newObjectID returns a UUIDv7, so ids sort by creation time.
func newObjectID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Migrate creates the document table if it does not exist.
func (c *Controller) Migrate(ctx context.Context) error {
	if _, err := c.session.Exec(ctx, c.session.dialect.CreateTableSQL(c.table)); err != nil {
		return fmt.Errorf("objstore: migrate failed: %w", err)
	}
	return nil
}

// initHook returns nil when hooks are skipped or the request carries no engine.
func initHook(skip bool, in InitializeHookInput) *Hook {
	if skip || in.Context == nil || in.Context.App == nil || in.Context.App.Hooks == nil {
		return nil
	}
	return in.Context.App.Hooks.InitializeHook(in)
}

// CreateObject runs BeforeCreate, inserts the document under a new id, then runs AfterCreate.
func (c *Controller) CreateObject(ctx context.Context, in CreateObjectInput) (Object, error) {
	data := in.Data.Clone()
	if data == nil {
		data = Object{}
	}

	if hook := initHook(in.SkipHooks, InitializeHookInput{ClassName: in.ClassName, Context: in.Context, NewData: data}); hook != nil {
		out, err := hook.RunOnSingleObject(ctx, SingleObjectInput{OperationType: BeforeCreate})
		if err != nil {
			return nil, err
		}
		if out != nil {
			data = out
		}
	}

	created := data.withoutID().Clone()
	created[IDField] = c.newID()

	if err := c.insert(ctx, c.session, in.ClassName, []Object{created}); err != nil {
		return nil, err
	}

	if hook := initHook(in.SkipHooks, InitializeHookInput{ClassName: in.ClassName, Context: in.Context, NewData: created}); hook != nil {
		out, err := hook.RunOnSingleObject(ctx, SingleObjectInput{OperationType: AfterCreate, ID: created.ID()})
		if err != nil {
			return nil, err
		}
		if out != nil {
			created = out
		}
	}
	return created.Project(in.Fields), nil
}

// CreateObjects runs BeforeCreate for every document, inserts them in one
// statement inside a transaction, then runs AfterCreate for every document.
func (c *Controller) CreateObjects(ctx context.Context, in CreateObjectsInput) ([]Object, error) {
	if len(in.Data) == 0 {
		return []Object{}, nil
	}

	list := make([]Object, len(in.Data))
	for i, d := range in.Data {
		if d == nil {
			d = Object{}
		}
		list[i] = d.Clone()
	}

	if hook := initHook(in.SkipHooks, InitializeHookInput{ClassName: in.ClassName, Context: in.Context, NewDataList: list}); hook != nil {
		out, err := hook.RunOnMultipleObjects(ctx, MultipleObjectsInput{OperationType: BeforeCreate})
		if err != nil {
			return nil, err
		}
		list = out
	}

	created := make([]Object, len(list))
	for i, d := range list {
		obj := d.withoutID().Clone()
		if obj == nil {
			obj = Object{}
		}
		obj[IDField] = c.newID()
		created[i] = obj
	}

	err := c.session.Transaction(ctx, func(tx *Session) error {
		return c.insert(ctx, tx, in.ClassName, created)
	})
	if err != nil {
		return nil, err
	}

	if hook := initHook(in.SkipHooks, InitializeHookInput{ClassName: in.ClassName, Context: in.Context, NewDataList: created}); hook != nil {
		out, err := hook.RunOnMultipleObjects(ctx, MultipleObjectsInput{OperationType: AfterCreate})
		if err != nil {
			return nil, err
		}
		created = out
	}
	return project(created, in.Fields), nil
}

// GetObject runs BeforeRead, reads the document, then runs AfterRead on it.
// It returns ErrNotFound when the document does not exist.
func (c *Controller) GetObject(ctx context.Context, in GetObjectInput) (Object, error) {
	if in.ID == "" {
		return nil, invalidOperation("get %s requires an id", in.ClassName)
	}

	hook := initHook(in.SkipHooks, InitializeHookInput{ClassName: in.ClassName, Context: in.Context})
	if hook != nil {
		if _, err := hook.RunOnSingleObject(ctx, SingleObjectInput{OperationType: BeforeRead, ID: in.ID}); err != nil {
			return nil, err
		}
	}

	obj, err := c.fetchOne(ctx, in.ClassName, in.ID)
	if err != nil {
		return nil, err
	}

	if hook != nil {
		out, err := hook.RunOnSingleObject(ctx, SingleObjectInput{OperationType: AfterRead, ID: in.ID, Snapshot: obj})
		if err != nil {
			return nil, err
		}
		if out != nil {
			obj = out
		}
	}
	return obj.Project(in.Fields), nil
}

// GetObjects runs BeforeRead on the matching documents, reads them, then runs AfterRead.
func (c *Controller) GetObjects(ctx context.Context, in GetObjectsInput) ([]Object, error) {
	hook := initHook(in.SkipHooks, InitializeHookInput{ClassName: in.ClassName, Context: in.Context})
	if hook != nil {
		if _, err := hook.RunOnMultipleObjects(ctx, MultipleObjectsInput{OperationType: BeforeRead, Where: in.Where}); err != nil {
			return nil, err
		}
	}

	objects, err := c.fetchMany(ctx, in)
	if err != nil {
		return nil, err
	}

	if hook != nil {
		out, err := hook.RunOnMultipleObjects(ctx, MultipleObjectsInput{OperationType: AfterRead, Snapshots: objects})
		if err != nil {
			return nil, err
		}
		objects = out
	}
	return project(objects, in.Fields), nil
}

// Count returns the number of documents of a class matching where. It runs no hooks.
func (c *Controller) Count(ctx context.Context, className string, where clause.Expression) (int64, error) {
	builder, err := c.filtered(sq.Select("COUNT(*)").From(c.table), className, where)
	if err != nil {
		return 0, err
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return 0, fmt.Errorf("objstore: failed to build sql: %w", err)
	}
	var n int64
	if err := c.session.Get(ctx, &n, query, args...); err != nil {
		return 0, fmt.Errorf("objstore: count failed: %w", err)
	}
	return n, nil
}

// UpdateObject reads the document, runs BeforeUpdate with the patch, stores the
// merged document, then runs AfterUpdate on the stored state.
func (c *Controller) UpdateObject(ctx context.Context, in UpdateObjectInput) (Object, error) {
	if in.ID == "" {
		return nil, invalidOperation("update %s requires an id", in.ClassName)
	}
	data := in.Data.Clone()
	if data == nil {
		data = Object{}
	}

	current, err := c.fetchOne(ctx, in.ClassName, in.ID)
	if err != nil {
		return nil, err
	}

	hook := initHook(in.SkipHooks, InitializeHookInput{ClassName: in.ClassName, Context: in.Context, NewData: data})
	if hook != nil {
		out, err := hook.RunOnSingleObject(ctx, SingleObjectInput{OperationType: BeforeUpdate, ID: in.ID, Snapshot: current})
		if err != nil {
			return nil, err
		}
		if out != nil {
			current = out
		}
	}

	merged := current.Merge(data.withoutID())
	merged[IDField] = in.ID
	if err := c.write(ctx, c.session, in.ClassName, merged); err != nil {
		return nil, err
	}

	if hook != nil {
		out, err := hook.RunOnSingleObject(ctx, SingleObjectInput{OperationType: AfterUpdate, ID: in.ID})
		if err != nil {
			return nil, err
		}
		if out != nil {
			merged = out
		}
	}
	return merged.Project(in.Fields), nil
}

// UpdateObjects applies one patch to every matching document. BeforeUpdate hooks
// share the patch, so a hook mutating it changes the whole batch.
func (c *Controller) UpdateObjects(ctx context.Context, in UpdateObjectsInput) ([]Object, error) {
	data := in.Data.Clone()
	if data == nil {
		data = Object{}
	}

	objects, err := c.fetchMany(ctx, GetObjectsInput{ClassName: in.ClassName, Where: in.Where})
	if err != nil {
		return nil, err
	}
	if len(objects) == 0 {
		return objects, nil
	}

	ids := make([]string, len(objects))
	for i, obj := range objects {
		ids[i] = obj.ID()
	}

	hook := initHook(in.SkipHooks, InitializeHookInput{ClassName: in.ClassName, Context: in.Context, NewData: data})
	if hook != nil {
		out, err := hook.RunOnMultipleObjects(ctx, MultipleObjectsInput{OperationType: BeforeUpdate, Snapshots: objects})
		if err != nil {
			return nil, err
		}
		objects = out
	}

	patch := data.withoutID()
	merged := make([]Object, len(objects))
	for i, obj := range objects {
		merged[i] = obj.Merge(patch)
		merged[i][IDField] = ids[i]
	}

	err = c.session.Transaction(ctx, func(tx *Session) error {
		for _, obj := range merged {
			if err := c.write(ctx, tx, in.ClassName, obj); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if hook != nil {
		out, err := hook.RunOnMultipleObjects(ctx, MultipleObjectsInput{OperationType: AfterUpdate, Snapshots: merged})
		if err != nil {
			return nil, err
		}
		merged = out
	}
	return project(merged, in.Fields), nil
}

// DeleteObject runs BeforeDelete, deletes the document, then runs AfterDelete
// on the deleted snapshot, which it returns.
func (c *Controller) DeleteObject(ctx context.Context, in DeleteObjectInput) (Object, error) {
	if in.ID == "" {
		return nil, invalidOperation("delete %s requires an id", in.ClassName)
	}

	current, err := c.fetchOne(ctx, in.ClassName, in.ID)
	if err != nil {
		return nil, err
	}

	hook := initHook(in.SkipHooks, InitializeHookInput{ClassName: in.ClassName, Context: in.Context})
	if hook != nil {
		if _, err := hook.RunOnSingleObject(ctx, SingleObjectInput{OperationType: BeforeDelete, ID: in.ID, Snapshot: current}); err != nil {
			return nil, err
		}
	}

	if err := c.remove(ctx, c.session, in.ClassName, []string{in.ID}); err != nil {
		return nil, err
	}

	if hook != nil {
		if _, err := hook.RunOnSingleObject(ctx, SingleObjectInput{OperationType: AfterDelete, ID: in.ID, Snapshot: current}); err != nil {
			return nil, err
		}
	}
	return current, nil
}

// DeleteObjects deletes every matching document in one transaction and returns them.
func (c *Controller) DeleteObjects(ctx context.Context, in DeleteObjectsInput) ([]Object, error) {
	objects, err := c.fetchMany(ctx, GetObjectsInput{ClassName: in.ClassName, Where: in.Where})
	if err != nil {
		return nil, err
	}
	if len(objects) == 0 {
		return objects, nil
	}

	hook := initHook(in.SkipHooks, InitializeHookInput{ClassName: in.ClassName, Context: in.Context})
	if hook != nil {
		if _, err := hook.RunOnMultipleObjects(ctx, MultipleObjectsInput{OperationType: BeforeDelete, Snapshots: objects}); err != nil {
			return nil, err
		}
	}

	ids := make([]string, len(objects))
	for i, obj := range objects {
		ids[i] = obj.ID()
	}
	err = c.session.Transaction(ctx, func(tx *Session) error {
		return c.remove(ctx, tx, in.ClassName, ids)
	})
	if err != nil {
		return nil, err
	}

	if hook != nil {
		if _, err := hook.RunOnMultipleObjects(ctx, MultipleObjectsInput{OperationType: AfterDelete, Snapshots: objects}); err != nil {
			return nil, err
		}
	}
	return objects, nil
}

// row is the scan target of the document table.
type row struct {
	ID   string `db:"id"`
	Data Object `db:"data"`
}

func (r row) object() Object {
	obj := r.Data
	if obj == nil {
		obj = Object{}
	}
	obj[IDField] = r.ID
	return obj
}

func (c *Controller) fetchOne(ctx context.Context, className, id string) (Object, error) {
	query, args, err := sq.Select("id", "data").
		From(c.table).
		Where(sq.Eq{"class_name": className, "id": id}).
		PlaceholderFormat(c.session.dialect.PlaceholderFormat()).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("objstore: failed to build sql: %w", err)
	}

	var r row
	if err := c.session.Get(ctx, &r, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s %s", ErrNotFound, className, id)
		}
		return nil, fmt.Errorf("objstore: query failed: %w", err)
	}
	return r.object(), nil
}

// fetchMany never returns a nil slice, so callers can pass the result as snapshots.
func (c *Controller) fetchMany(ctx context.Context, in GetObjectsInput) ([]Object, error) {
	builder, err := c.selectBuilder(in)
	if err != nil {
		return nil, err
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("objstore: failed to build sql: %w", err)
	}

	var rows []row
	if err := c.session.Select(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("objstore: query failed: %w", err)
	}

	objects := make([]Object, 0, len(rows))
	for _, r := range rows {
		objects = append(objects, r.object())
	}
	return objects, nil
}

// selectBuilder builds the SELECT of GetObjects.
func (c *Controller) selectBuilder(in GetObjectsInput) (sq.SelectBuilder, error) {
	builder, err := c.filtered(sq.Select("id", "data").From(c.table), in.ClassName, in.Where)
	if err != nil {
		return builder, err
	}

	orders := in.OrderBy
	if len(orders) == 0 {
		orders = []clause.OrderBy{{Field: IDField}}
	}
	for _, o := range orders {
		pred, args, err := o.Build(c.session.dialect)
		if err != nil {
			return builder, err
		}
		builder = builder.OrderByClause(pred, args...)
	}

	if in.Limit > 0 {
		builder = builder.Limit(in.Limit)
	}
	if in.Offset > 0 {
		builder = builder.Offset(in.Offset)
	}
	return builder, nil
}

func (c *Controller) filtered(builder sq.SelectBuilder, className string, where clause.Expression) (sq.SelectBuilder, error) {
	builder = builder.
		Where(sq.Eq{"class_name": className}).
		PlaceholderFormat(c.session.dialect.PlaceholderFormat())
	if where == nil {
		return builder, nil
	}
	pred, args, err := where.Build(c.session.dialect)
	if err != nil {
		return builder, fmt.Errorf("objstore: invalid filter: %w", err)
	}
	return builder.Where("("+pred+")", args...), nil
}

// insert writes documents in a single multi-row INSERT.
func (c *Controller) insert(ctx context.Context, s *Session, className string, objects []Object) error {
	builder := sq.Insert(c.table).
		Columns("class_name", "id", "data").
		PlaceholderFormat(s.dialect.PlaceholderFormat())

	for _, obj := range objects {
		doc, err := encode(obj)
		if err != nil {
			return err
		}
		builder = builder.Values(className, obj.ID(), doc)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("objstore: failed to build sql: %w", err)
	}
	if _, err := s.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("objstore: insert failed: %w", err)
	}
	return nil
}

// write replaces the stored body of one document.
func (c *Controller) write(ctx context.Context, s *Session, className string, obj Object) error {
	doc, err := encode(obj)
	if err != nil {
		return err
	}
	query, args, err := sq.Update(c.table).
		Set("data", doc).
		Where(sq.Eq{"class_name": className, "id": obj.ID()}).
		PlaceholderFormat(s.dialect.PlaceholderFormat()).
		ToSql()
	if err != nil {
		return fmt.Errorf("objstore: failed to build sql: %w", err)
	}

	res, err := s.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("objstore: update failed: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s %s", ErrNotFound, className, obj.ID())
	}
	return nil
}

func (c *Controller) remove(ctx context.Context, s *Session, className string, ids []string) error {
	query, args, err := sq.Delete(c.table).
		Where(sq.Eq{"class_name": className, "id": ids}).
		PlaceholderFormat(s.dialect.PlaceholderFormat()).
		ToSql()
	if err != nil {
		return fmt.Errorf("objstore: failed to build sql: %w", err)
	}
	if _, err := s.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("objstore: delete failed: %w", err)
	}
	return nil
}

// encode returns the JSON text stored in the data column.
func encode(obj Object) (string, error) {
	v, err := obj.withoutID().Value()
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func project(objects []Object, fields []string) []Object {
	if len(fields) == 0 {
		return objects
	}
	out := make([]Object, len(objects))
	for i, obj := range objects {
		out[i] = obj.Project(fields)
	}
	return out
}
