package objstore

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Executor defines the common database operations for both DB and Tx
type Executor interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
	GetContext(ctx context.Context, dest any, query string, args ...any) error
}

// Session manages the database connection and current transaction
type Session struct {
	db       *sqlx.DB // Underlying DB for starting transactions
	executor Executor // Current executor (DB or Tx)
	dialect  Dialect
	obs      *observer
}

// NewSession wraps db. Options configure query logging, tracing and metrics.
func NewSession(db *sql.DB, dialect Dialect, opts ...Option) *Session {
	xdb := sqlx.NewDb(db, dialect.Name())
	return &Session{
		db:       xdb,
		executor: xdb,
		dialect:  dialect,
		obs:      newObserver("query", opts),
	}
}

// Dialect returns the session's dialect.
func (s *Session) Dialect() Dialect { return s.dialect }

// instrument runs fn under a span, then records metrics and logs the query.
func (s *Session) instrument(ctx context.Context, operation, query string, fn func(context.Context) error) error {
	attrs := []attribute.KeyValue{
		attribute.String("db.operation", operation),
		attribute.String("db.system", s.dialect.Name()),
	}
	ctx, span := s.obs.startSpan(ctx, "objstore."+operation, trace.WithSpanKind(trace.SpanKindClient))
	span.SetAttributes(attrs...)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	duration := time.Since(start)

	// A lookup that matches no row is a result, not a failure.
	failure := err
	if errors.Is(err, sql.ErrNoRows) {
		failure = nil
	}
	if failure != nil {
		span.fail(failure)
	}
	s.obs.record(ctx, duration, failure, attrs...)

	logAttrs := []slog.Attr{slog.String("operation", operation)}
	if s.obs.cfg.Verbose {
		logAttrs = append(logAttrs, slog.String("query", query))
	}
	s.obs.log(ctx, "query executed", duration, failure, logAttrs...)
	return err
}

func (s *Session) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	var res sql.Result
	err := s.instrument(ctx, "exec", query, func(ctx context.Context) error {
		var err error
		res, err = s.executor.ExecContext(ctx, query, args...)
		return err
	})
	return res, err
}

func (s *Session) Select(ctx context.Context, dest any, query string, args ...any) error {
	return s.instrument(ctx, "select", query, func(ctx context.Context) error {
		return s.executor.SelectContext(ctx, dest, query, args...)
	})
}

func (s *Session) Get(ctx context.Context, dest any, query string, args ...any) error {
	return s.instrument(ctx, "get", query, func(ctx context.Context) error {
		return s.executor.GetContext(ctx, dest, query, args...)
	})
}

func (s *Session) Begin(ctx context.Context) (*Session, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	// Return new Session where executor is the transaction
	return &Session{
		db:       s.db,
		executor: tx,
		dialect:  s.dialect,
		obs:      s.obs,
	}, nil
}

func (s *Session) Commit() error {
	if tx, ok := s.executor.(*sqlx.Tx); ok {
		return tx.Commit()
	}
	return sql.ErrTxDone
}

func (s *Session) Rollback() error {
	if tx, ok := s.executor.(*sqlx.Tx); ok {
		return tx.Rollback()
	}
	return sql.ErrTxDone
}

// Transaction executes a function within a transaction
func (s *Session) Transaction(ctx context.Context, fn func(txSession *Session) error) (err error) {
	// Check if already in transaction
	if _, ok := s.executor.(*sqlx.Tx); ok {
		return fn(s)
	}

	txSession, err := s.Begin(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = txSession.Rollback()
			panic(p)
		} else if err != nil {
			_ = txSession.Rollback()
		}
	}()

	err = fn(txSession)
	if err != nil {
		return err
	}

	return txSession.Commit()
}
