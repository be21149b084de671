package securedb

import (
	"context"
	"database/sql"

	"github.com/Mindburn-Labs/helm/core/pkg/observability"
	"go.opentelemetry.io/otel/attribute"
)

// instrumentedRunner wraps a Runner with observability.Provider spans and RED
// metrics, so every statement builder in this package (Select, Insert,
// UpdateMany, DeleteMany) gets query-latency tracing for free regardless of
// which builder issued the call.
type instrumentedRunner struct {
	next     Runner
	observer *observability.Provider
}

func (r *instrumentedRunner) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	ctx, done := r.observer.TrackOperation(ctx, "securedb.query", attribute.String("securedb.op", "query"))
	rows, err := r.next.QueryContext(ctx, query, args...)
	done(err)
	return rows, err
}

func (r *instrumentedRunner) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	ctx, done := r.observer.TrackOperation(ctx, "securedb.query_row", attribute.String("securedb.op", "query_row"))
	row := r.next.QueryRowContext(ctx, query, args...)
	done(row.Err())
	return row
}

func (r *instrumentedRunner) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	ctx, done := r.observer.TrackOperation(ctx, "securedb.exec", attribute.String("securedb.op", "exec"))
	result, err := r.next.ExecContext(ctx, query, args...)
	done(err)
	return result, err
}

var _ Runner = (*instrumentedRunner)(nil)
